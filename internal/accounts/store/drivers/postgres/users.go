package postgres

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/accountd/internal/accounts/domain"
	"github.com/aussiebroadwan/accountd/internal/accounts/store"
	"github.com/aussiebroadwan/accountd/pkg/cryptox"
	"github.com/aussiebroadwan/accountd/pkg/idx"
)

type usersRepo struct {
	q querier

	// db is set when the repo is pool-scoped, in which case mutations open
	// their own transaction. Inside a Tx-scoped store db is nil and the
	// surrounding transaction is used as-is.
	db *sql.DB
}

// mutate runs fn transactionally: committed on success, rolled back on any
// failure, with the connection returned to the pool either way.
func (r *usersRepo) mutate(ctx context.Context, fn func(q querier) error) error {
	if r.db == nil {
		return fn(r.q)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// requireRow converts a zero affected-row count into store.ErrNotFound,
// for updates that target exactly one account.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) CreateUser(ctx context.Context, username, email, passwordHash string) (idx.ID, error) {
	id := idx.New()

	err := r.mutate(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NOW(), NOW())`,
			id.String(), username, email, passwordHash,
		)
		return err
	})
	if err != nil {
		return idx.Zero, mapError(err)
	}
	return id, nil
}

func (r *usersRepo) GetCredentials(ctx context.Context, username string) (domain.Credentials, error) {
	var (
		id   string
		hash string
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE username = $1`,
		username,
	).Scan(&id, &hash)
	if err != nil {
		return domain.Credentials{}, mapError(err)
	}
	return domain.Credentials{ID: idx.ID(id), PasswordHash: hash}, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id idx.ID) (domain.Profile, error) {
	var (
		p         domain.Profile
		rawID     string
		lastLogin sql.NullTime
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, username, email, created_at, updated_at, last_login
		FROM users WHERE id = $1`,
		id.String(),
	).Scan(&rawID, &p.Username, &p.Email, &p.CreatedAt, &p.UpdatedAt, &lastLogin)
	if err != nil {
		return domain.Profile{}, mapError(err)
	}

	p.ID = idx.ID(rawID)
	if lastLogin.Valid {
		t := lastLogin.Time
		p.LastLogin = &t
	}
	return p, nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.Summary, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT username, email FROM users ORDER BY username`,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []domain.Summary
	for rows.Next() {
		var s domain.Summary
		if err := rows.Scan(&s.Username, &s.Email); err != nil {
			return nil, mapError(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, id idx.ID) error {
	err := r.mutate(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx,
			`UPDATE users SET last_login = NOW() WHERE id = $1`,
			id.String(),
		)
		if err != nil {
			return err
		}
		return requireRow(res)
	})
	return mapError(err)
}

func (r *usersRepo) UpdatePassword(ctx context.Context, id idx.ID, newPassword string) error {
	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = r.mutate(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx,
			`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
			hash, id.String(),
		)
		if err != nil {
			return err
		}
		return requireRow(res)
	})
	return mapError(err)
}

func (r *usersRepo) DeleteUser(ctx context.Context, id idx.ID) error {
	// Deliberately ignores the affected-row count: deleting an already
	// absent user is a no-op, not an error.
	err := r.mutate(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx,
			`DELETE FROM users WHERE id = $1`,
			id.String(),
		)
		return err
	})
	return mapError(err)
}
