package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/aussiebroadwan/accountd/internal/accounts/store"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func pgErr(code string) error {
	return &pgconn.PgError{Code: code, Message: "test"}
}

func TestMapSQLState(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{"unique violation", "23505", store.ErrDuplicate},
		{"not-null violation", "23502", store.ErrValidation},
		{"foreign key violation", "23503", store.ErrValidation},
		{"check violation", "23514", store.ErrValidation},
		{"connection does not exist", "08003", store.ErrUnavailable},
		{"connection failure", "08006", store.ErrUnavailable},
		{"too many connections", "53300", store.ErrUnavailable},
		{"admin shutdown", "57P01", store.ErrUnavailable},
		{"cannot connect now", "57P03", store.ErrUnavailable},
		{"invalid password", "28P01", store.ErrUnavailable},
		{"syntax error unmapped", "42601", nil},
		{"serialization failure unmapped", "40001", nil},
		{"empty code", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapSQLState(tt.code)
			if tt.want == nil {
				require.Nil(t, got)
				return
			}
			require.ErrorIs(t, got, tt.want)
		})
	}
}

func TestMapError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		require.NoError(t, mapError(nil))
	})

	t.Run("no rows becomes not found", func(t *testing.T) {
		require.ErrorIs(t, mapError(sql.ErrNoRows), store.ErrNotFound)
		require.ErrorIs(t, mapError(fmt.Errorf("scan: %w", sql.ErrNoRows)), store.ErrNotFound)
	})

	t.Run("pg errors map through the table", func(t *testing.T) {
		require.ErrorIs(t, mapError(pgErr("23505")), store.ErrDuplicate)
		require.ErrorIs(t, mapError(pgErr("23502")), store.ErrValidation)
		require.ErrorIs(t, mapError(pgErr("08006")), store.ErrUnavailable)
	})

	t.Run("unmapped pg errors are wrapped, not leaked raw", func(t *testing.T) {
		err := mapError(pgErr("42601"))
		require.Error(t, err)
		require.NotErrorIs(t, err, store.ErrDuplicate)
		require.NotErrorIs(t, err, store.ErrValidation)
		require.NotErrorIs(t, err, store.ErrUnavailable)
		require.Contains(t, err.Error(), "42601")
	})

	t.Run("transport failures become unavailable", func(t *testing.T) {
		for _, cause := range []error{
			driver.ErrBadConn,
			sql.ErrConnDone,
			context.DeadlineExceeded,
			io.EOF,
			io.ErrUnexpectedEOF,
		} {
			require.ErrorIs(t, mapError(cause), store.ErrUnavailable, "cause %v", cause)
		}
	})

	t.Run("taxonomy errors pass through unchanged", func(t *testing.T) {
		require.Equal(t, store.ErrNotFound, mapError(store.ErrNotFound))
		require.Equal(t, store.ErrDuplicate, mapError(store.ErrDuplicate))
	})

	t.Run("unknown errors keep their identity", func(t *testing.T) {
		cause := errors.New("something else")
		err := mapError(cause)
		require.ErrorIs(t, err, cause)
		require.NotErrorIs(t, err, store.ErrUnavailable)
	})
}
