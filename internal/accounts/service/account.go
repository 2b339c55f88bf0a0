// Package service implements the account workflows on top of the store and
// the token signing primitives. Handlers call into this layer only; no SQL
// or JWT mechanics leak upward.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/accountd/internal/accounts/domain"
	"github.com/aussiebroadwan/accountd/internal/accounts/store"
	"github.com/aussiebroadwan/accountd/pkg/cryptox"
	"github.com/aussiebroadwan/accountd/pkg/idx"
	"github.com/aussiebroadwan/accountd/pkg/jwtx"
)

// ErrInvalidCredentials is returned by Login when the username is unknown or
// the password does not match. The two cases are deliberately folded into one
// error so a caller cannot probe which usernames exist.
var ErrInvalidCredentials = errors.New("invalid username or password")

// LoginResult carries everything a successful login hands back to the caller.
type LoginResult struct {
	Token     string
	UserID    idx.ID
	ExpiresIn time.Duration
}

// AccountService orchestrates registration, authentication and account
// management. All persistence goes through Store, all token issuance through
// Signer.
type AccountService struct {
	Store     store.Store
	Signer    jwtx.Signer
	AccessTTL time.Duration
}

// NewAccountService wires an AccountService. A zero ttl falls back to the
// default access token lifetime.
func NewAccountService(st store.Store, signer jwtx.Signer, ttl time.Duration) *AccountService {
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}
	return &AccountService{Store: st, Signer: signer, AccessTTL: ttl}
}

// Register hashes the password and creates the account. Uniqueness of the
// username and email is enforced by the store; a conflict surfaces as
// store.ErrDuplicate with no partial state left behind.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (idx.ID, error) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return idx.Zero, fmt.Errorf("hash password: %w", err)
	}

	var id idx.ID
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		var txErr error
		id, txErr = tx.Users().CreateUser(ctx, username, email, hash)
		return txErr
	})
	if err != nil {
		return idx.Zero, err
	}
	return id, nil
}

// Login verifies the password against the stored hash and issues a signed
// access token. An unknown username and a wrong password are
// indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	creds, err := s.Store.Users().GetCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := cryptox.VerifyPassword(password, creds.PasswordHash); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	claims := jwtx.NewAccessClaims(string(creds.ID), s.AccessTTL, time.Now())
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}

	// Recording the login time is best effort: a failure here must not turn
	// a correct password into a failed login.
	if err := s.Store.Users().UpdateLastLogin(ctx, creds.ID); err != nil {
		slog.WarnContext(ctx, "failed to record last login",
			"user_id", creds.ID,
			"error", err,
		)
	}

	return LoginResult{Token: token, UserID: creds.ID, ExpiresIn: s.AccessTTL}, nil
}

// Profile returns the account record for the given user id.
func (s *AccountService) Profile(ctx context.Context, id idx.ID) (domain.Profile, error) {
	return s.Store.Users().GetUserByID(ctx, id)
}

// ListUsers returns the username and email of every account.
func (s *AccountService) ListUsers(ctx context.Context) ([]domain.Summary, error) {
	return s.Store.Users().ListUsers(ctx)
}

// ChangePassword replaces the caller's password. The store re-hashes the new
// password as part of the update.
func (s *AccountService) ChangePassword(ctx context.Context, id idx.ID, newPassword string) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().UpdatePassword(ctx, id, newPassword)
	})
}

// DeleteAccount removes the caller's account. Deleting an account that no
// longer exists is not an error.
func (s *AccountService) DeleteAccount(ctx context.Context, id idx.ID) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().DeleteUser(ctx, id)
	})
}
