package sqlxrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/azizzt/controlescolar/core"
)

// queries are built with `?` placeholders and rebound for the executor's driver.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

type repository struct {
	exec core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps "no rows" to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func get(ctx context.Context, exec core.DBExecutor, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.GetContext(ctx, exec, dest, exec.Rebind(query), args...)
}

func selectAll(ctx context.Context, exec core.DBExecutor, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.SelectContext(ctx, exec, dest, exec.Rebind(query), args...)
}

func execute(ctx context.Context, exec core.DBExecutor, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	return exec.ExecContext(ctx, exec.Rebind(query), args...)
}

// insertReturningID runs an INSERT ... RETURNING id (postgres & sqlite >= 3.35).
func insertReturningID(ctx context.Context, exec core.DBExecutor, b sq.InsertBuilder) (int, error) {
	query, args, err := b.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var id int
	if err = exec.QueryRowxContext(ctx, exec.Rebind(query), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "getting affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// listSpec describes how a core.ListQuery applies to a table.
type listSpec struct {
	from    string
	columns []string
	idCol   string
	fields  map[string]string // public field name -> column
	where   sq.Sqlizer
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// searchPredicate requires every search term to match (case-insensitive substring) at least one search field.
func (spec listSpec) searchPredicate(q core.ListQuery) sq.And {
	pred := sq.And{}
	for _, term := range q.SearchTerms() {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		anyField := sq.Or{}
		for _, fld := range q.SearchFields {
			if col, ok := spec.fields[fld]; ok {
				anyField = append(anyField, sq.Expr("LOWER("+col+") LIKE ? ESCAPE '\\'", like))
			}
		}
		if len(anyField) > 0 {
			pred = append(pred, anyField)
		}
	}
	return pred
}

func (spec listSpec) orderBy(q core.ListQuery) []string {
	orderBy := make([]string, 0, len(q.Ordering)+1)
	for _, ord := range q.Ordering {
		if col, ok := spec.fields[ord.Field]; ok {
			orderBy = append(orderBy, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	return append(orderBy, spec.idCol+" ASC")
}

// queryList loads one page of rows into dest and returns the total number of matching rows.
func queryList(ctx context.Context, exec core.DBExecutor, spec listSpec, q core.ListQuery, dest interface{}) (int, error) {
	pred := spec.searchPredicate(q)
	if spec.where != nil {
		pred = append(sq.And{spec.where}, pred...)
	}

	countQ := builder.Select("COUNT(*)").From(spec.from)
	selectQ := builder.Select(spec.columns...).From(spec.from)
	if len(pred) > 0 {
		countQ = countQ.Where(pred)
		selectQ = selectQ.Where(pred)
	}

	var count int
	if err := get(ctx, exec, &count, countQ); err != nil {
		return 0, errors.Wrap(err, "counting rows")
	}

	selectQ = selectQ.OrderBy(spec.orderBy(q)...)
	if q.Limit > 0 {
		selectQ = selectQ.Limit(uint64(q.Limit)).Offset(uint64(q.Offset))
	}
	if err := selectAll(ctx, exec, dest, selectQ); err != nil {
		return 0, errors.Wrap(err, "selecting rows")
	}
	return count, nil
}

// jsonList stores an ordered list of strings as JSON text.
// Malformed stored values decode to an empty list.
type jsonList []string

var (
	_ sql.Scanner   = (*jsonList)(nil)
	_ driver.Valuer = jsonList(nil)
)

func (l *jsonList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil || list == nil {
		*l = jsonList{}
		return nil
	}
	*l = list
	return nil
}

func (l jsonList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
