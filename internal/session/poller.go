package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// refreshTimeout bounds one background refresh.
const refreshTimeout = 5 * time.Second

// RunPoller refreshes s on every tick until ctx is cancelled.
// Failures are logged and retried on the next tick.
func RunPoller(ctx context.Context, s *Session, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Debug().Str("session", s.ID).Dur("interval", interval).Msg("poller started")
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("session", s.ID).Msg("poller stopped")
			return
		case <-ticker.C:
			rctx, cancel := context.WithTimeout(ctx, refreshTimeout)
			if _, err := s.Refresh(rctx); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Str("session", s.ID).Msg("background refresh failed")
			}
			cancel()
		}
	}
}
