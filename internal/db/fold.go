package db

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// FoldFunc is the SQL function that lowercases text the way Fold does.
// SQLite's own lower() and LIKE only fold ASCII letters.
const FoldFunc = "fold"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(FoldFunc, 1, fold); err != nil {
		panic("registering " + FoldFunc + ": " + err.Error())
	}
}

// Fold lowercases s for case-insensitive matching.
func Fold(s string) string {
	return strings.ToLower(s)
}

func fold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return Fold(v), nil
	case []byte:
		return Fold(string(v)), nil
	default:
		return v, nil
	}
}
