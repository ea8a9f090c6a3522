package dbx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackendFor(t *testing.T) {
	tests := []struct {
		dsn  string
		want Backend
	}{
		{"postgres://u:p@localhost:5432/pg?sslmode=disable", Postgres},
		{"POSTGRESQL://localhost/db", Postgres},
		{"phishguard.db", SQLite},
		{"file:kv?mode=memory&cache=shared", SQLite},
		{":memory:", SQLite},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			got := BackendFor(tt.dsn)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want == Postgres, got.IsPostgres())
		})
	}
}
