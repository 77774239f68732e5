// Package jobs holds background maintenance tasks run on a gocron scheduler.
package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/diceraja/models"
)

// ExpireGamers flags every active gamer whose membership ended at or before now
// as inactive and returns how many rows changed.
func ExpireGamers(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&models.Gamer{}).
		Where("is_active = ? AND expiry_date <= ?", true, now).
		Updates(map[string]interface{}{"is_active": false, "updated_at": now})
	return res.RowsAffected, res.Error
}

// StartGamerExpiry runs ExpireGamers once immediately and then every interval.
// Stop the returned scheduler with Shutdown.
func StartGamerExpiry(db *gorm.DB, interval time.Duration, log *zap.Logger) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			n, err := ExpireGamers(ctx, db, time.Now())
			if err != nil {
				log.Error("gamer expiry sweep failed", zap.Error(err))
				return
			}
			if n > 0 {
				log.Info("gamer memberships expired", zap.Int64("count", n))
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}
