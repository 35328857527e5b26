package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/festakit/internal/models"
)

// HasActiveAccess decides whether an operator may use the paid features.
func HasActiveAccess(sub *models.Subscription, now time.Time, isAdmin bool) bool {
	return isAdmin || sub.TrialActive(now) || sub.PaidActive(now)
}

// SubscriptionService reads and maintains subscription rows.
type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// Get returns the user's subscription, or nil when there is none.
func (s *SubscriptionService) Get(ctx context.Context, userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistence("get subscription", err)
	}
	return &sub, nil
}

// ExpireOverdue marks active subscriptions whose expiry has passed as expired.
// It returns the number of rows changed.
func (s *SubscriptionService) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", models.SubscriptionActive, now).
		Where("trial_expires_at IS NULL OR trial_expires_at <= ?", now).
		Update("status", models.SubscriptionExpired)
	if res.Error != nil {
		return 0, persistence("expire subscriptions", res.Error)
	}
	return res.RowsAffected, nil
}

// CountActive counts subscriptions granting access at now.
func (s *SubscriptionService) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("(status = ? AND (expires_at IS NULL OR expires_at > ?)) OR trial_expires_at > ?",
			models.SubscriptionActive, now, now).
		Count(&n).Error
	if err != nil {
		return 0, persistence("count subscriptions", err)
	}
	return n, nil
}
