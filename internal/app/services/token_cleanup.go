package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ExpiredTokenCleaner removes refresh tokens that can no longer be used.
type ExpiredTokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// RunTokenCleanup purges expired refresh tokens every interval until ctx ends.
func RunTokenCleanup(ctx context.Context, tokens ExpiredTokenCleaner, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := tokens.CleanupExpiredTokens(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("Refresh token cleanup failed")
				continue
			}
			if removed > 0 {
				logger.Info().Int64("removed", removed).Msg("Expired refresh tokens removed")
			}
		}
	}
}
