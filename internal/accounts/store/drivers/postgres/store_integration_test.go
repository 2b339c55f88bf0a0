package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/accountd/internal/accounts/store"
	"github.com/aussiebroadwan/accountd/pkg/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupStore starts a throwaway Postgres container and returns a Store with
// the schema applied. Requires Docker; skipped under -short.
func setupStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	container, err := pgcontainer.Run(ctx, "postgres:16-alpine",
		pgcontainer.WithDatabase("accounts"),
		pgcontainer.WithUsername("accountd"),
		pgcontainer.WithPassword("accountd"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	st, err := NewStore(connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.Ping(ctx))
	require.NoError(t, st.ApplySchema(ctx))
	return st
}

// requirePoolDrained asserts that every connection went back to the pool.
func requirePoolDrained(t *testing.T, st *Store) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return st.Stats().InUse == 0
	}, 2*time.Second, 20*time.Millisecond, "connections were not released")
}

func TestUserCRUD(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	hash, err := cryptox.HashPassword("hunter2hunter2")
	require.NoError(t, err)

	id, err := st.Users().CreateUser(ctx, "alice", "alice@example.com", hash)
	require.NoError(t, err)
	require.False(t, id.IsZero())

	profile, err := st.Users().GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, profile.ID)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Nil(t, profile.LastLogin)
	assert.False(t, profile.CreatedAt.IsZero())

	creds, err := st.Users().GetCredentials(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, creds.ID)
	assert.Equal(t, hash, creds.PasswordHash)

	require.NoError(t, st.Users().UpdateLastLogin(ctx, id))
	profile, err = st.Users().GetUserByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, profile.LastLogin)

	users, err := st.Users().ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)

	require.NoError(t, st.Users().DeleteUser(ctx, id))
	_, err = st.Users().GetUserByID(ctx, id)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Idempotent delete.
	require.NoError(t, st.Users().DeleteUser(ctx, id))

	requirePoolDrained(t, st)
}

func TestUniqueConstraints(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	hash, err := cryptox.HashPassword("hunter2hunter2")
	require.NoError(t, err)

	_, err = st.Users().CreateUser(ctx, "alice", "alice@example.com", hash)
	require.NoError(t, err)

	_, err = st.Users().CreateUser(ctx, "alice", "other@example.com", hash)
	require.ErrorIs(t, err, store.ErrDuplicate)

	_, err = st.Users().CreateUser(ctx, "bob", "alice@example.com", hash)
	require.ErrorIs(t, err, store.ErrDuplicate)

	// The failed inserts left no partial rows behind.
	users, err := st.Users().ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	requirePoolDrained(t, st)
}

func TestUpdatePassword(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	hash, err := cryptox.HashPassword("first-password")
	require.NoError(t, err)
	id, err := st.Users().CreateUser(ctx, "alice", "alice@example.com", hash)
	require.NoError(t, err)

	require.NoError(t, st.Users().UpdatePassword(ctx, id, "second-password"))

	creds, err := st.Users().GetCredentials(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, hash, creds.PasswordHash)
	require.NoError(t, cryptox.VerifyPassword("second-password", creds.PasswordHash))
	require.ErrorIs(t, cryptox.VerifyPassword("first-password", creds.PasswordHash), cryptox.ErrPasswordMismatch)

	requirePoolDrained(t, st)
}

func TestTxRollback(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	hash, err := cryptox.HashPassword("hunter2hunter2")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = st.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Users().CreateUser(ctx, "alice", "alice@example.com", hash); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// The insert was rolled back with the transaction.
	_, err = st.Users().GetCredentials(ctx, "alice")
	require.ErrorIs(t, err, store.ErrNotFound)

	requirePoolDrained(t, st)
}

func TestTxCommit(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	hash, err := cryptox.HashPassword("hunter2hunter2")
	require.NoError(t, err)

	err = st.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Users().CreateUser(ctx, "alice", "alice@example.com", hash)
		return err
	})
	require.NoError(t, err)

	_, err = st.Users().GetCredentials(ctx, "alice")
	require.NoError(t, err)

	requirePoolDrained(t, st)
}

func TestPoolReleaseUnderLoad(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	hash, err := cryptox.HashPassword("hunter2hunter2")
	require.NoError(t, err)

	// Mixed successful and failing operations across more iterations than
	// pool slots; a leaked connection would wedge the later ones.
	for i := 0; i < 25; i++ {
		username := fmt.Sprintf("user%02d", i)
		_, err := st.Users().CreateUser(ctx, username, username+"@example.com", hash)
		require.NoError(t, err)

		// Duplicate insert fails, lookup of a missing user fails.
		_, err = st.Users().CreateUser(ctx, username, username+"@example.com", hash)
		require.ErrorIs(t, err, store.ErrDuplicate)
		_, err = st.Users().GetCredentials(ctx, "missing-"+username)
		require.ErrorIs(t, err, store.ErrNotFound)
	}

	requirePoolDrained(t, st)
	assert.LessOrEqual(t, st.Stats().OpenConnections, maxOpenConns)
}
