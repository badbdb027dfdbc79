package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gitpress-io/gitpress/store"
)

// Retry runs op up to attempts times with a fixed delay between tries,
// honoring ctx cancellation. It retries only transient and not-found
// failures — the two shapes eventual-consistency lag takes right after a
// commit — and returns every other error immediately.
func Retry(ctx context.Context, attempts uint64, delay time.Duration, op func() error) error {
	if attempts == 0 {
		attempts = 1
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), attempts-1),
		ctx,
	)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, store.ErrTransient) || errors.Is(err, store.ErrNotFound) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
}

// LoadIndexRetry is LoadIndex with bounded retry for reads that may lag a
// very recent commit. If the index is still missing after the last attempt
// it is treated as an empty list, matching LoadIndex.
func LoadIndexRetry(ctx context.Context, backend store.Backend, contentType string, attempts uint64, delay time.Duration) ([]Record, error) {
	var records []Record
	err := Retry(ctx, attempts, delay, func() error {
		raw, err := backend.ReadFile(ctx, IndexPath(contentType))
		if err != nil {
			return err
		}
		var decoded []Record
		if decodeErr := json.Unmarshal(raw, &decoded); decodeErr != nil {
			return backoff.Permanent(fmt.Errorf("publish: decode index %s: %w", IndexPath(contentType), decodeErr))
		}
		records = decoded
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return records, nil
}
