package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// TimeLayout is the text layout used for every DATETIME column. It sorts
// lexically in time order and matches CURRENT_TIMESTAMP.
const TimeLayout = "2006-01-02 15:04:05"

// pragmas are applied to every pooled connection through the DSN.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(10000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// Open opens a SQLite database. Write transactions take the write lock at
// BEGIN (_txlock=immediate) so concurrent writers serialize instead of
// failing on lock upgrade.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("opening database: empty path")
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return db, nil
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	q.Set("_txlock", "immediate")

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

// Timestamp formats t for storage in a DATETIME column.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
