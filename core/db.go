package core

import (
	"context"
	"database/sql"
	"strings"
	"unicode"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type (
	// DBExecutor is satisfied by both *sqlx.DB and *sqlx.Tx.
	DBExecutor interface {
		sqlx.ExtContext
	}

	DB interface {
		DBExecutor

		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	}

	DBTransactor interface {
		DBExecutor

		Commit() error
		Rollback() error
	}
)

var _ DBTransactor = (*sqlx.Tx)(nil)

// RunInTx runs fn inside a transaction, committing when fn succeeds and rolling back otherwise.
// A panic in fn rolls back before it propagates.
func RunInTx(ctx context.Context, db DB, fn func(tx DBExecutor) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back transaction: %v", rbErr)
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ListQuery describes a paginated, searchable and ordered listing.
// Field names are the public (JSON) names; repositories map them to columns and skip unknown ones.
type ListQuery struct {
	Search       string
	SearchFields []string
	Ordering     []DBOrdering
	Limit        int
	Offset       int
}

// SearchTerms splits Search on whitespace and commas.
func (q ListQuery) SearchTerms() []string {
	var terms []string
	for _, term := range strings.FieldsFunc(q.Search, func(r rune) bool { return r == ',' || unicode.IsSpace(r) }) {
		if term = CleanString(term); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}
