package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/diewo77/festakit/internal/models"
)

// DashboardStats are the counters on the admin home page.
type DashboardStats struct {
	Materials           int64 `json:"materials"`
	ActiveSubscriptions int64 `json:"active_subscriptions"`
	Downloads           int64 `json:"downloads"`
}

// Dashboard gathers the admin counters concurrently.
func Dashboard(ctx context.Context, db *gorm.DB, now time.Time) (DashboardStats, error) {
	var st DashboardStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.WithContext(gctx).Model(&models.Material{}).Where("active = ?", true).Count(&st.Materials).Error
	})
	g.Go(func() error {
		n, err := NewSubscriptionService(db).CountActive(gctx, now)
		st.ActiveSubscriptions = n
		return err
	})
	g.Go(func() error {
		return db.WithContext(gctx).Model(&models.DownloadHistory{}).Count(&st.Downloads).Error
	})
	if err := g.Wait(); err != nil {
		return DashboardStats{}, persistence("dashboard", err)
	}
	return st, nil
}
