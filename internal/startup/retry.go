package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/miamiwave/internal/logger"
)

const maxBackoff = 30 * time.Second

var initialBackoff = 2 * time.Second

// retry вызывает attempt с экспоненциальной паузой, пока он не вернёт nil,
// пока не истечёт maxWait или не отменится ctx.
func retry(ctx context.Context, maxWait time.Duration, what string, attempt func(ctx context.Context) error) error {
	deadline := time.Now().Add(maxWait)
	backoff := initialBackoff
	for {
		err := attempt(ctx)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%s (gave up after %v): %w", what, maxWait, err)
		}
		logger.Errorf("%s failed, retry in %v: %v", what, backoff, err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", what, ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}
