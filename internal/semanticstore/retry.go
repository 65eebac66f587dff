package semanticstore

import (
	"context"

	"github.com/cenkalti/backoff/v4"
)

// retryWithBackoff retries op with an exponential backoff policy, bounded
// to 3 attempts total, and aborts early on context cancellation. Grounded
// on steveyegge-beads/internal/storage/dolt/store.go's
// newServerRetryBackoff/backoff.Retry usage.
func retryWithBackoff(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0
	limited := backoff.WithMaxRetries(bo, 2)
	return backoff.Retry(op, backoff.WithContext(limited, ctx))
}
