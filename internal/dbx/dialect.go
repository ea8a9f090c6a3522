package dbx

import "strings"

// Backend identifies which SQL engine a DSN points at.
type Backend struct {
	// Driver is the database/sql driver name.
	Driver string
	// Dialect is the goose dialect name.
	Dialect string
}

var (
	SQLite   = Backend{Driver: "sqlite", Dialect: "sqlite3"}
	Postgres = Backend{Driver: "pgx", Dialect: "postgres"}
)

// BackendFor picks Postgres for postgres:// or postgresql:// DSNs and SQLite
// for everything else (a file path or a sqlite URI).
func BackendFor(dsn string) Backend {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return Postgres
	}
	return SQLite
}

func (b Backend) IsPostgres() bool { return b == Postgres }
