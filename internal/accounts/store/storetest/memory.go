// Package storetest provides an in-memory store.Store for exercising the
// service and HTTP layers without a database.
package storetest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aussiebroadwan/accountd/internal/accounts/domain"
	"github.com/aussiebroadwan/accountd/internal/accounts/store"
	"github.com/aussiebroadwan/accountd/pkg/cryptox"
	"github.com/aussiebroadwan/accountd/pkg/idx"
)

// Memory implements store.Store over a map. Transactions are simulated
// with copy-on-write: a Tx works on a clone and only publishes it on
// commit, so a failed operation leaves the parent untouched.
type Memory struct {
	mu    sync.Mutex
	users map[idx.ID]*domain.User

	// LastLoginErr, when set, makes UpdateLastLogin fail with it.
	LastLoginErr error

	// ForcedErr, when set, is returned by every repo operation. Used to
	// simulate a lost backend.
	ForcedErr error
}

func NewMemory() *Memory {
	return &Memory{users: make(map[idx.ID]*domain.User)}
}

// Seed inserts a user record directly, bypassing the repo surface.
func (m *Memory) Seed(u domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := u
	m.users[u.ID] = &cp
}

// User returns a copy of the stored record, or false when absent.
func (m *Memory) User(id idx.ID) (domain.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.users[id]
	if !ok {
		return domain.User{}, false
	}
	return *rec, true
}

// Len reports the number of stored accounts.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func (m *Memory) clone() map[idx.ID]*domain.User {
	out := make(map[idx.ID]*domain.User, len(m.users))
	for id, u := range m.users {
		cp := *u
		out[id] = &cp
	}
	return out
}

func (m *Memory) Users() store.Users { return &usersRepo{mem: m, view: nil} }

func (m *Memory) Tx(ctx context.Context) (store.Tx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &memTx{parent: m, work: m.clone()}, nil
}

func (m *Memory) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := m.Tx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (m *Memory) Ping(ctx context.Context) error {
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	return nil
}

func (m *Memory) Close() error { return nil }

type memTx struct {
	parent *Memory
	work   map[idx.ID]*domain.User
	done   bool
}

func (t *memTx) Users() store.Users { return &usersRepo{mem: t.parent, view: t.work} }

func (t *memTx) Tx(ctx context.Context) (store.Tx, error) {
	return nil, errors.New("transaction already in progress")
}

func (t *memTx) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return fn(t)
}

func (t *memTx) Ping(ctx context.Context) error { return t.parent.Ping(ctx) }
func (t *memTx) Close() error                   { return nil }

func (t *memTx) Commit() error {
	if t.done {
		return errors.New("transaction closed")
	}
	t.done = true
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	t.parent.users = t.work
	return nil
}

func (t *memTx) Rollback() error {
	t.done = true
	return nil
}

// usersRepo serves reads and writes against either the parent map (pool
// scope) or a transaction's working copy.
type usersRepo struct {
	mem  *Memory
	view map[idx.ID]*domain.User // nil outside a transaction
}

func (r *usersRepo) data() map[idx.ID]*domain.User {
	if r.view != nil {
		return r.view
	}
	return r.mem.users
}

func (r *usersRepo) CreateUser(ctx context.Context, username, email, passwordHash string) (idx.ID, error) {
	r.mem.mu.Lock()
	defer r.mem.mu.Unlock()
	if err := r.mem.ForcedErr; err != nil {
		return idx.Zero, err
	}

	for _, existing := range r.data() {
		if existing.Username == username || existing.Email == email {
			return idx.Zero, store.ErrDuplicate
		}
	}

	id := idx.New()
	now := time.Now().UTC()
	r.data()[id] = &domain.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return id, nil
}

func (r *usersRepo) GetCredentials(ctx context.Context, username string) (domain.Credentials, error) {
	r.mem.mu.Lock()
	defer r.mem.mu.Unlock()
	if err := r.mem.ForcedErr; err != nil {
		return domain.Credentials{}, err
	}

	for _, rec := range r.data() {
		if rec.Username == username {
			return domain.Credentials{ID: rec.ID, PasswordHash: rec.PasswordHash}, nil
		}
	}
	return domain.Credentials{}, store.ErrNotFound
}

func (r *usersRepo) GetUserByID(ctx context.Context, id idx.ID) (domain.Profile, error) {
	r.mem.mu.Lock()
	defer r.mem.mu.Unlock()
	if err := r.mem.ForcedErr; err != nil {
		return domain.Profile{}, err
	}

	rec, ok := r.data()[id]
	if !ok {
		return domain.Profile{}, store.ErrNotFound
	}
	return domain.Profile{
		ID:        rec.ID,
		Username:  rec.Username,
		Email:     rec.Email,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		LastLogin: rec.LastLogin,
	}, nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.Summary, error) {
	r.mem.mu.Lock()
	defer r.mem.mu.Unlock()
	if err := r.mem.ForcedErr; err != nil {
		return nil, err
	}

	out := make([]domain.Summary, 0, len(r.data()))
	for _, rec := range r.data() {
		out = append(out, domain.Summary{Username: rec.Username, Email: rec.Email})
	}
	return out, nil
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, id idx.ID) error {
	r.mem.mu.Lock()
	defer r.mem.mu.Unlock()
	if err := r.mem.ForcedErr; err != nil {
		return err
	}
	if err := r.mem.LastLoginErr; err != nil {
		return err
	}

	rec, ok := r.data()[id]
	if !ok {
		return store.ErrNotFound
	}
	now := time.Now().UTC()
	rec.LastLogin = &now
	return nil
}

func (r *usersRepo) UpdatePassword(ctx context.Context, id idx.ID, newPassword string) error {
	r.mem.mu.Lock()
	defer r.mem.mu.Unlock()
	if err := r.mem.ForcedErr; err != nil {
		return err
	}

	rec, ok := r.data()[id]
	if !ok {
		return store.ErrNotFound
	}
	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}
	rec.PasswordHash = hash
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *usersRepo) DeleteUser(ctx context.Context, id idx.ID) error {
	r.mem.mu.Lock()
	defer r.mem.mu.Unlock()
	if err := r.mem.ForcedErr; err != nil {
		return err
	}

	delete(r.data(), id)
	return nil
}
