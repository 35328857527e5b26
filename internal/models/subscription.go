package models

import "time"

// SubscriptionStatus is the billing state of an operator account.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// TrialPeriod is granted to every new account.
const TrialPeriod = 7 * 24 * time.Hour

// Subscription gates the calculator, contracts and downloads.
type Subscription struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	UserID         uint               `gorm:"uniqueIndex;not null" json:"user_id"`
	Plan           string             `gorm:"size:50;not null;default:'trial'" json:"plan"`
	Status         SubscriptionStatus `gorm:"size:20;not null;index" json:"status"`
	TrialExpiresAt *time.Time         `json:"trial_expires_at,omitempty"`
	ExpiresAt      *time.Time         `json:"expires_at,omitempty"`
}

// TrialActive reports whether the trial window is still open at now.
func (s *Subscription) TrialActive(now time.Time) bool {
	return s != nil && s.TrialExpiresAt != nil && s.TrialExpiresAt.After(now)
}

// PaidActive reports whether the subscription is active and not past its expiry.
func (s *Subscription) PaidActive(now time.Time) bool {
	return s != nil && s.Status == SubscriptionActive && (s.ExpiresAt == nil || s.ExpiresAt.After(now))
}
