package service

import (
	"context"
	"strconv"
	"time"

	audit "tokenscope/pkg/platform/audit"
)

// PurgeExpired removes every token whose expiration time has passed.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	n, err := s.tokens.PurgeExpired(ctx, s.now(ctx))
	if err != nil {
		return 0, translateStoreError(err, "purge expired tokens")
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired tokens purged", "count", n)
		s.emitAudit(ctx, audit.EventTokensPurged, "*", "reason", strconv.Itoa(n)+" expired")
		if s.metrics != nil {
			s.metrics.AddTokensPurged(n)
		}
	}
	return n, nil
}

// StartPurge runs PurgeExpired every interval until ctx is cancelled.
// Failures are logged and retried on the next tick.
func (s *Service) StartPurge(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.PurgeExpired(ctx); err != nil {
				s.logger.ErrorContext(ctx, "purge expired tokens failed", "error", err)
			}
		}
	}
}
