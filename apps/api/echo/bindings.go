package echoapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/azizzt/controlescolar/core"
)

const (
	idParam       = "id"
	orderingParam = "ordering"
	searchParam   = "search"
	pageParam     = "page"
	pageSizeParam = "page_size"
)

// listConfig is the listing configuration of one list endpoint.
type listConfig struct {
	pageSize        int
	maxPageSize     int
	orderingFields  []string // allowed `ordering` fields
	defaultOrdering []core.DBOrdering
	searchFields    []string
}

func (conf listConfig) allowsOrdering(field string) bool {
	for _, f := range conf.orderingFields {
		if f == field {
			return true
		}
	}
	return false
}

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads `ordering=field1,-field2`, dropping fields not allowed by conf.
// Falls back to the default ordering when no valid field is left.
func (ord *Ordering) Bind(ctx echo.Context, conf listConfig) {
	defer func() {
		if len(ord.Orderings) == 0 {
			ord.Orderings = conf.defaultOrdering
		}
	}()

	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if conf.allowsOrdering(field) {
			ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
		}
	}
}

type Paging struct {
	Page     int
	PageSize int
}

// Bind reads `page` & `page_size`. An invalid page size falls back to the default one; an invalid page is a 404.
func (p *Paging) Bind(ctx echo.Context, conf listConfig) error {
	p.Page = 1
	if val := ctx.QueryParam(pageParam); val != "" {
		page, err := strconv.Atoi(val)
		if err != nil || page < 1 {
			return errInvalidPage
		}
		p.Page = page
	}

	p.PageSize = conf.pageSize
	if val := ctx.QueryParam(pageSizeParam); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			p.PageSize = size
		}
	}
	if p.PageSize > conf.maxPageSize {
		p.PageSize = conf.maxPageSize
	}
	return nil
}

func (p Paging) offset() int {
	return (p.Page - 1) * p.PageSize
}

func (p Paging) numPages(count int) int {
	if count == 0 {
		return 1
	}
	return (count + p.PageSize - 1) / p.PageSize
}

// Page is the paginated list envelope.
type Page struct {
	Count    int         `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

func pageURL(ctx echo.Context, page int) *string {
	req := ctx.Request()
	q := req.URL.Query()
	if page == 1 {
		q.Del(pageParam)
	} else {
		q.Set(pageParam, strconv.Itoa(page))
	}

	link := ctx.Scheme() + "://" + req.Host + req.URL.Path
	if enc := q.Encode(); enc != "" {
		link += "?" + enc
	}
	return &link
}

func newPage(ctx echo.Context, paging Paging, count int, results interface{}) Page {
	pg := Page{Count: count, Results: results}
	if paging.Page < paging.numPages(count) {
		pg.Next = pageURL(ctx, paging.Page+1)
	}
	if paging.Page > 1 {
		pg.Previous = pageURL(ctx, paging.Page-1)
	}
	return pg
}

// list binds the listing parameters, runs query & renders one page.
func list[T any](ctx echo.Context, conf listConfig, query func(context.Context, core.ListQuery) ([]T, int, error)) error {
	var paging Paging
	if err := paging.Bind(ctx, conf); err != nil {
		return err
	}
	var ordering Ordering
	ordering.Bind(ctx, conf)

	q := core.ListQuery{
		Search:       ctx.QueryParam(searchParam),
		SearchFields: conf.searchFields,
		Ordering:     ordering.Orderings,
		Limit:        paging.PageSize,
		Offset:       paging.offset(),
	}
	results, count, err := query(ctx.Request().Context(), q)
	if err != nil {
		return errors.Wrap(err, "querying list")
	}
	if paging.Page > paging.numPages(count) {
		return errInvalidPage
	}
	if results == nil {
		results = []T{}
	}
	return ctx.JSON(http.StatusOK, newPage(ctx, paging, count, results))
}

// bindID reads the `id` query parameter.
func bindID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.QueryParam(idParam))
	if err != nil || id < 1 {
		return 0, core.NewFieldValidationError(idParam, errInvalidID)
	}
	return id, nil
}

type (
	CreatedResponse struct {
		ID int `json:"id"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}
)
