// Package store holds the SQL persistence of the shop. Functions take the
// *sql.DB explicitly; lookups return (nil, nil) when a row does not exist
// and business outcomes are reported with the model error types.
package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danicaoo/musicShop/internal/db"
)

// MinSearchLength is the shortest accepted search query.
const MinSearchLength = 2

// isUniqueViolation reports whether err comes from a UNIQUE or PRIMARY KEY
// constraint.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// nullTime stores an optional time in the canonical UTC layout.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return db.Timestamp(*t)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

// likePattern builds a LIKE pattern matching q anywhere. Columns are
// compared through the fold SQL function so matching ignores case for any
// script.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(db.Fold(q)) + "%"
}
