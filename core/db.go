package core

import (
	"context"
	"database/sql"
)

// DB is the query surface the repositories run on. *sqlx.DB satisfies it;
// tests substitute in-memory stores instead of faking it.
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}
