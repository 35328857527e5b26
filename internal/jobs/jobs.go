// Package jobs runs the periodic maintenance tasks of the application.
package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/diewo77/festakit/internal/config"
)

// Expirer marks lapsed subscriptions.
type Expirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// Purger deletes stale password reset tokens.
type Purger interface {
	PurgeExpiredResets(ctx context.Context, now time.Time) (int64, error)
}

// Runner owns the scheduler and the tasks it fires.
type Runner struct {
	cfg     config.JobsConfig
	expirer Expirer
	purger  Purger
	log     zerolog.Logger
	now     func() time.Time
}

func NewRunner(cfg config.JobsConfig, expirer Expirer, purger Purger, log zerolog.Logger) *Runner {
	if cfg.SubscriptionInterval <= 0 {
		cfg.SubscriptionInterval = time.Hour
	}
	if cfg.ResetPurgeInterval <= 0 {
		cfg.ResetPurgeInterval = 6 * time.Hour
	}
	return &Runner{cfg: cfg, expirer: expirer, purger: purger, log: log, now: time.Now}
}

// ExpireSubscriptions runs one expiry pass.
func (r *Runner) ExpireSubscriptions(ctx context.Context) {
	n, err := r.expirer.ExpireOverdue(ctx, r.now())
	if err != nil {
		r.log.Error().Err(err).Msg("expire subscriptions")
		return
	}
	if n > 0 {
		r.log.Info().Int64("expired", n).Msg("subscriptions expired")
	}
}

// PurgeResets runs one purge pass.
func (r *Runner) PurgeResets(ctx context.Context) {
	n, err := r.purger.PurgeExpiredResets(ctx, r.now())
	if err != nil {
		r.log.Error().Err(err).Msg("purge password resets")
		return
	}
	r.log.Debug().Int64("purged", n).Msg("password resets purged")
}

// Run starts the scheduler and blocks until ctx is done.
// With jobs disabled it only waits for ctx.
func (r *Runner) Run(ctx context.Context) error {
	if !r.cfg.Enabled {
		r.log.Info().Msg("scheduler disabled")
		<-ctx.Done()
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(r.cfg.SubscriptionInterval),
		gocron.NewTask(func() { r.ExpireSubscriptions(ctx) }),
		gocron.WithName("expire-subscriptions"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return err
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(r.cfg.ResetPurgeInterval),
		gocron.NewTask(func() { r.PurgeResets(ctx) }),
		gocron.WithName("purge-password-resets"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	r.log.Info().
		Dur("subscription_interval", r.cfg.SubscriptionInterval).
		Dur("reset_purge_interval", r.cfg.ResetPurgeInterval).
		Msg("scheduler started")
	scheduler.Start()

	<-ctx.Done()
	return scheduler.Shutdown()
}
