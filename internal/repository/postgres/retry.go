package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"vanik/internal/domain"
)

// RetryPolicy bounds the automatic retry of posting transactions that lose a
// lock or serialization race.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy retries twice with a short linear backoff.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Backoff: 50 * time.Millisecond}

// retryableSQLStates are the Postgres error classes worth one more try:
// serialization_failure, deadlock_detected and lock_not_available.
var retryableSQLStates = map[string]bool{
	"40001": true,
	"40P01": true,
	"55P03": true,
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && retryableSQLStates[pgErr.SQLState()]
}

// withRetry runs fn until it succeeds, fails non-retryably, or the policy is
// exhausted. An exhausted policy surfaces as domain.ConcurrencyError so
// callers map it to a retry-later response instead of a server fault.
func withRetry(ctx context.Context, policy RetryPolicy, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * policy.Backoff):
			}
		}
		err = fn()
		if err == nil || !isRetryable(err) {
			return err
		}
	}
	return &domain.ConcurrencyError{Op: op, Err: err}
}
