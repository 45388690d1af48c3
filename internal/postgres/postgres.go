// Package postgres implements the domain store contracts on PostgreSQL
// using pgx. Every store call runs under a deadline; timeouts and
// connection failures surface as EUNAVAILABLE so callers can retry with
// backoff.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rgoyal/smartbasket/internal/domain"
)

// querier is the subset of pgx shared by the pool and a transaction, so
// read helpers can run in either.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DefaultTimeout bounds individual store calls when no explicit timeout
// is configured.
const DefaultTimeout = 5 * time.Second

// Postgres error codes we translate into domain errors.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// DB wraps the connection pool with the per-call timeout shared by all
// stores.
type DB struct {
	Pool    *pgxpool.Pool
	timeout time.Duration
}

// Connect opens a connection pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string, timeout time.Duration) (*DB, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return &DB{Pool: pool, timeout: timeout}, nil
}

// Close releases the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// withTimeout derives the bounded context used for a single store call.
func (db *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.timeout)
}

// storeErr translates driver errors into the domain taxonomy. Caller
// cancellation is passed through untouched so the request layer can tell
// it apart from store trouble.
func storeErr(err error, op, message string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	// Already-classified domain errors bubbling out of a transaction
	// callback keep their code.
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.Unavailable(err, op, "store timed out")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.WrapError(err, domain.ECONFLICT, op, "resource already exists")
		case pgSerializationFailure, pgDeadlockDetected:
			return domain.WrapError(err, domain.ECONFLICT, op, "concurrent mutation detected, retry the request")
		}
		return domain.Internal(err, op, message)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || pgconn.Timeout(err) {
		return domain.Unavailable(err, op, "store unreachable")
	}

	return domain.Internal(err, op, message)
}
