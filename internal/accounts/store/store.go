package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/accountd/internal/accounts/domain"
	"github.com/aussiebroadwan/accountd/pkg/idx"
)

// Backend failures are folded into this small taxonomy at the driver
// boundary. Raw driver errors never cross it, so the service and HTTP
// layers can map on these sentinels alone.
var (
	// ErrNotFound reports that no row matched.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate reports a uniqueness violation (username or email).
	ErrDuplicate = errors.New("store: already exists")

	// ErrValidation reports a business-rule integrity failure such as a
	// missing required column.
	ErrValidation = errors.New("store: invalid data")

	// ErrUnavailable reports that the backend is unreachable or timed out.
	ErrUnavailable = errors.New("store: backend unavailable")
)

// Store is the root data access interface. Concrete drivers (postgres)
// implement this. The driver owns a bounded connection pool constructed
// once at startup and injected here; there is no package-level instance.
type Store interface {
	Users() Users

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Preferred over
	// Tx for multi-step mutations.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying pool.
	Close() error
}

// Tx is a transactional store. It exposes the same repos plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new account and returns its store-assigned ID.
	// A clashing username or email yields ErrDuplicate with the row left
	// unwritten.
	CreateUser(ctx context.Context, username, email, passwordHash string) (idx.ID, error)

	// GetCredentials returns the id and password hash for a username. Used
	// only by the login path; ErrNotFound when the username is unknown.
	GetCredentials(ctx context.Context, username string) (domain.Credentials, error)

	// GetUserByID returns the hash-free profile for an account.
	GetUserByID(ctx context.Context, id idx.ID) (domain.Profile, error)

	// ListUsers returns username and email for every account. No
	// pagination.
	ListUsers(ctx context.Context) ([]domain.Summary, error)

	// UpdateLastLogin stamps last_login with the backend clock.
	UpdateLastLogin(ctx context.Context, id idx.ID) error

	// UpdatePassword re-hashes newPassword and commits the new hash along
	// with a bumped updated_at.
	UpdatePassword(ctx context.Context, id idx.ID, newPassword string) error

	// DeleteUser hard-deletes the row. Deleting an absent id is a no-op.
	DeleteUser(ctx context.Context, id idx.ID) error
}
