package kv

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"

	"github.com/dmitrijs2005/phishguard/internal/dbx"
	"github.com/dmitrijs2005/phishguard/internal/filex"
	"github.com/dmitrijs2005/phishguard/internal/migrations"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLStore is a Store backed by database/sql. The same type serves SQLite and
// Postgres; only the repository flavour and locking differ.
type SQLStore struct {
	db      *sql.DB
	backend dbx.Backend
	Repository
}

// Open connects to dsn, applies migrations and returns a ready Store.
// Postgres DSNs (postgres://...) use pgx; anything else is a SQLite path.
func Open(ctx context.Context, dsn string) (*SQLStore, error) {
	backend := dbx.BackendFor(dsn)

	switch {
	case backend.IsPostgres():
	case dsn == ":memory:":
		// a private in-memory database every pooled connection can see
		dsn = "file:phishguard-" + uuid.NewString() + "?mode=memory&cache=shared"
	case !strings.HasPrefix(dsn, "file:"):
		if err := filex.EnsureParentDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(backend.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", backend.Driver, err)
	}

	if err := RunMigrations(ctx, db, backend); err != nil {
		_ = db.Close()
		return nil, err
	}

	if !backend.IsPostgres() {
		// SQLite has a single writer; one pooled connection avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}

	return NewSQLStore(db, backend), nil
}

// NewSQLStore wraps an already migrated database.
func NewSQLStore(db *sql.DB, backend dbx.Backend) *SQLStore {
	return &SQLStore{db: db, backend: backend, Repository: newRepository(db, backend)}
}

func RunMigrations(ctx context.Context, db *sql.DB, backend dbx.Backend) error {
	src, dir := migrations.SQLite, "sqlite"
	if backend.IsPostgres() {
		src, dir = migrations.Postgres, "postgres"
	}

	fsys, err := fs.Sub(src, dir)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.Dialect(backend.Dialect), db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (s *SQLStore) Atomic(ctx context.Context, fn func(ctx context.Context, r Repository) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if s.backend.IsPostgres() {
			repo := NewPostgresRepository(tx)
			if err := repo.lock(ctx); err != nil {
				return err
			}
			return fn(ctx, repo)
		}
		return fn(ctx, NewSQLiteRepository(tx))
	})
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping %s: %w", s.backend.Driver, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func newRepository(db dbx.DBTX, backend dbx.Backend) Repository {
	if backend.IsPostgres() {
		return NewPostgresRepository(db)
	}
	return NewSQLiteRepository(db)
}
