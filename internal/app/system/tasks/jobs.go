// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of periodic background work.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds one run; zero means 30 seconds.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// ExpiredCleaner removes rows past their expiry.
type ExpiredCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// OAuthStateCleanupJob removes expired Google sign-in states hourly.
func OAuthStateCleanupJob(states ExpiredCleaner, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			n, err := states.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", n))
			}
			return nil
		},
	}
}
