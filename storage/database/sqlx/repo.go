package sqlxrepos

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core"
)

const uniqueViolation = "23505"

type repo struct {
	db core.DB
}

// trapNoRowsErr maps psql "no rows" err to notFound
func (r repo) trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// isUniqueViolation reports whether err was raised by a UNIQUE constraint, optionally a named one.
func isUniqueViolation(err error, constraint ...string) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	if !ok || pqErr.Code != uniqueViolation {
		return false
	}
	return len(constraint) == 0 || pqErr.Constraint == constraint[0]
}

// expectRows returns notFound when res affected no row.
func expectRows(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
