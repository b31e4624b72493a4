// Package sqlxrepo implements the domain repositories over PostgreSQL.
package sqlxrepo

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/classcheck/classcheck/core"
)

var _ core.DB = (*sqlx.DB)(nil)

// trapNoRows maps the driver's empty-result error to the domain sentinel.
func trapNoRows(err, notFound error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return err
}
