// Package tasks defines the periodic maintenance jobs run by the workers
// package.
package tasks

import (
	"context"
	"time"

	invitations "github.com/dalemusser/onboardhub/internal/app/store/invitations"
	"github.com/dalemusser/onboardhub/internal/app/store/oauthstate"
	"go.uber.org/zap"
)

// Job is a named unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// InvitationExpiryJob flips pending invitations past their expiry to
// expired, so listings and the pending-uniqueness index agree with the
// clock.
func InvitationExpiryJob(invStore *invitations.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "invitation-expiry",
		Interval: 15 * time.Minute,
		Run: func(ctx context.Context) error {
			count, err := invStore.ExpireStale(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("expired stale invitations", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// OAuthStateCleanupJob removes expired OAuth state tokens. This is a
// backup for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(stateStore *oauthstate.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := stateStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}
