package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/songdeck/internal/source"
	"github.com/five82/songdeck/internal/state"
)

const maxBackoff = 5 * time.Minute

// retryBase is the first retry delay when no reload interval is set.
var retryBase = time.Second

// StartPoller launches a background goroutine that loads the catalog into
// store. With a positive interval it reloads at that cadence, backing off
// while loads fail; otherwise it retries failures with backoff until the
// first success and then stops. It returns immediately. Only serve uses
// it; the browser loads the catalog once and shows the failure without
// retrying.
func StartPoller(ctx context.Context, store *state.Store, loader source.Loader, interval time.Duration, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		failures := 0
		for {
			if err := refresh(ctx, store, loader); err != nil {
				failures++
				logger.Warn("catalog load failed", zap.Int("failures", failures), zap.Error(err))
			} else {
				failures = 0
				if interval <= 0 {
					return
				}
			}

			base := interval
			if base <= 0 {
				base = retryBase
			}
			timer := time.NewTimer(calculateBackoff(failures, base))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

func refresh(ctx context.Context, store *state.Store, loader source.Loader) error {
	songs, err := loader.FetchSongs(ctx)
	store.Update(songs, err)
	return err
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for range failures {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
