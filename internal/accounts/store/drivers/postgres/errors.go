package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/aussiebroadwan/accountd/internal/accounts/store"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes and classes this driver maps. The mapping is an explicit
// table rather than a catch-all on the driver's error types, so every
// translation is unit-testable per code.
const (
	codeUniqueViolation  = "23505"
	codeNotNullViolation = "23502"

	classIntegrityViolation    = "23"
	classConnectionException   = "08"
	classInsufficientResources = "53"
	classOperatorIntervention  = "57"
	classInvalidAuthorization  = "28"
)

// mapSQLState translates a Postgres SQLSTATE into a store sentinel, or nil
// when the code is not one this driver recognises.
func mapSQLState(code string) error {
	switch code {
	case codeUniqueViolation:
		return store.ErrDuplicate
	case codeNotNullViolation:
		return store.ErrValidation
	}

	if len(code) < 2 {
		return nil
	}
	switch code[:2] {
	case classIntegrityViolation:
		// Any other integrity violation (checks, foreign keys) is bad data.
		return store.ErrValidation
	case classConnectionException, classInsufficientResources,
		classOperatorIntervention, classInvalidAuthorization:
		return store.ErrUnavailable
	}
	return nil
}

// mapError folds a backend error into the store taxonomy. Unrecognised
// errors are wrapped, never returned raw, so the caller can still log the
// cause without depending on driver types.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	// Errors already in the taxonomy pass through unchanged.
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrValidation),
		errors.Is(err, store.ErrUnavailable):
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if mapped := mapSQLState(pgErr.Code); mapped != nil {
			return fmt.Errorf("%w: %s", mapped, pgErr.Code)
		}
		return fmt.Errorf("store: postgres error %s: %s", pgErr.Code, pgErr.Message)
	}

	// Driver- and transport-level connectivity failures.
	var netErr net.Error
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.As(err, &netErr):
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	// The pgconn connect path reports dial failures through its own type.
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	return fmt.Errorf("store: %w", err)
}
