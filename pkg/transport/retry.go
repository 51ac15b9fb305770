package transport

import (
	"context"
	"errors"
	"time"

	"github.com/cicdguard/backend/internal/util"
	"github.com/cicdguard/backend/pkg/common"
	"github.com/cicdguard/backend/pkg/cypher"
	"github.com/cicdguard/backend/pkg/logger"
)

// Retrying retries statements whose execution failed with a transport
// error. Rejected statements and malformed results are returned at once.
type Retrying struct {
	next     Transport
	maxTries int
	backoff  time.Duration
}

// WithRetry wraps t. maxTries <= 1 disables retries.
func WithRetry(t Transport, maxTries int, backoff time.Duration) *Retrying {
	return &Retrying{next: t, maxTries: maxTries, backoff: backoff}
}

// Execute runs stmt on the wrapped transport.
func (r *Retrying) Execute(ctx context.Context, stmt cypher.Statement) (*common.Envelope, error) {
	attempt := 0
	return util.RetryIf(ctx, util.RetryParams{
		MaxTries:  r.maxTries,
		Backoff:   r.backoff,
		Retryable: isTransient,
	}, func(ctx context.Context) (*common.Envelope, error) {
		attempt++
		env, err := r.next.Execute(ctx, stmt)
		if err != nil && isTransient(err) && attempt < r.maxTries {
			logger.Warn("[Transport] Retrying statement", "attempt", attempt, "err", err)
		}
		return env, err
	})
}

// Close closes the wrapped transport.
func (r *Retrying) Close() error {
	return r.next.Close()
}

func isTransient(err error) bool {
	var transportErr *common.TransportError
	if !errors.As(err, &transportErr) {
		return false
	}
	// client errors will not go away on retry
	return transportErr.StatusCode == 0 || transportErr.StatusCode >= 500
}
