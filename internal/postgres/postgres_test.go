package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgoyal/smartbasket/internal/domain"
)

func TestStoreErr_Classification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "unique violation maps to conflict",
			err:      &pgconn.PgError{Code: pgUniqueViolation},
			wantCode: domain.ECONFLICT,
		},
		{
			name:     "serialization failure maps to conflict",
			err:      &pgconn.PgError{Code: pgSerializationFailure},
			wantCode: domain.ECONFLICT,
		},
		{
			name:     "deadlock maps to conflict",
			err:      &pgconn.PgError{Code: pgDeadlockDetected},
			wantCode: domain.ECONFLICT,
		},
		{
			name:     "other postgres error maps to internal",
			err:      &pgconn.PgError{Code: "42P01"},
			wantCode: domain.EINTERNAL,
		},
		{
			name:     "deadline exceeded maps to unavailable",
			err:      context.DeadlineExceeded,
			wantCode: domain.EUNAVAILABLE,
		},
		{
			name:     "wrapped deadline maps to unavailable",
			err:      fmt.Errorf("query: %w", context.DeadlineExceeded),
			wantCode: domain.EUNAVAILABLE,
		},
		{
			name:     "network error maps to unavailable",
			err:      &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			wantCode: domain.EUNAVAILABLE,
		},
		{
			name:     "plain error maps to internal",
			err:      errors.New("scan failed"),
			wantCode: domain.EINTERNAL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := storeErr(tt.err, "postgres.test", "store call failed")
			require.Error(t, got)
			assert.Equal(t, tt.wantCode, domain.ErrorCode(got))
			// The driver error stays wrapped for logging.
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestStoreErr_NilPassesThrough(t *testing.T) {
	assert.NoError(t, storeErr(nil, "postgres.test", "store call failed"))
}

func TestStoreErr_CancellationPassesThrough(t *testing.T) {
	err := fmt.Errorf("query: %w", context.Canceled)

	got := storeErr(err, "postgres.test", "store call failed")

	// Caller cancellation is not store trouble.
	assert.Equal(t, err, got)
	var de *domain.Error
	assert.False(t, errors.As(got, &de))
}

func TestStoreErr_DomainErrorsKeepTheirCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "sentinel", err: domain.ErrEmptyCart},
		{name: "wrapped sentinel", err: fmt.Errorf("tx: %w", domain.ErrInsufficientStock)},
		{name: "validation error", err: domain.NewValidationError("checkout.create", "city", "City is required")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := storeErr(tt.err, "postgres.checkout.tx", "transaction failed")
			assert.Equal(t, tt.err, got)
		})
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "bananas", want: "bananas"},
		{in: "100%", want: `100\%`},
		{in: "a_b", want: `a\_b`},
		{in: `back\slash`, want: `back\\slash`},
		{in: `%_\`, want: `\%\_\\`},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeLike(tt.in), "input %q", tt.in)
	}
}
