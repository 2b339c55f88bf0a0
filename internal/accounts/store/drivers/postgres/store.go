package postgres

import (
	"context"
	"database/sql"
	_ "embed"

	"github.com/aussiebroadwan/accountd/internal/accounts/store"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Pool bounds. One connection is kept warm; at most ten are ever open, and
// callers block on the pool when all ten are in use rather than failing.
const (
	minIdleConns = 1
	maxOpenConns = 10
)

//go:embed schema.sql
var schemaSQL string

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// the same repo code runs pooled or transaction-scoped.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
}

// NewStore opens a bounded connection pool against the given Postgres DSN.
// The pool is created once at process start and shared by every operation;
// it must be closed via Close on shutdown.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, mapError(err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(minIdleConns)

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return mapError(s.db.PingContext(ctx))
}

// ApplySchema creates the users table if it does not exist. Schema changes
// beyond that are operated out-of-band; there is no migration tooling here.
func (s *Store) ApplySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return mapError(err)
	}
	return nil
}

// Stats exposes pool counters, used by tests to assert that every operation
// returns its connection.
func (s *Store) Stats() sql.DBStats { return s.db.Stats() }

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapError(err)
	}
	return newTx(tx), nil
}

// WithTx executes fn within a transaction, handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	// Rollback is safe after commit; this covers early returns and panics.
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return mapError(tx.Commit())
}

func (s *Store) Users() store.Users { return &usersRepo{q: s.db, db: s.db} }
