package models

import (
	"math"
	"time"
)

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
)

const (
	SubscriptionPeriodDay      = "day"
	SubscriptionPeriodMonth    = "month"
	SubscriptionPeriodYear     = "year"
	SubscriptionPeriodLifetime = "lifetime"
)

// Subscription is a time-bounded tier opened by a matched donation. At most one
// row per user is active; older rows are flipped to cancelled when superseded.
type Subscription struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     string     `gorm:"type:varchar(128);not null;index:idx_subscriptions_user_status,priority:1" json:"user_id"`
	TierID     string     `gorm:"type:varchar(50);not null;index" json:"tier_id"`
	TierName   string     `gorm:"type:varchar(100);default:''" json:"tier_name"`
	TierNameEn string     `gorm:"type:varchar(100);default:''" json:"tier_name_en"`
	Price      int64      `gorm:"not null" json:"price"`
	Period     string     `gorm:"type:varchar(16);not null" json:"period"`
	PeriodDays *int       `gorm:"default:null" json:"period_days,omitempty"`
	StartDate  time.Time  `gorm:"not null" json:"start_date"`
	EndDate    *time.Time `gorm:"default:null" json:"end_date"`
	Status     string     `gorm:"type:varchar(16);not null;default:'active';index:idx_subscriptions_user_status,priority:2" json:"status"`
	DonationID uint       `gorm:"not null;index" json:"donation_id"`
	ExternalID string     `gorm:"type:varchar(191);not null;index" json:"transaction_id"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Subscription) IsLifetime() bool {
	return s.Period == SubscriptionPeriodLifetime || s.EndDate == nil
}

// Expired reports whether the subscription's end date lies before now.
// Lifetime subscriptions never expire.
func (s *Subscription) Expired(now time.Time) bool {
	if s.IsLifetime() {
		return false
	}
	return s.EndDate.Before(now)
}

// DaysUntilExpiry rounds up to whole days; nil for lifetime subscriptions.
func (s *Subscription) DaysUntilExpiry(now time.Time) *int {
	if s.IsLifetime() {
		return nil
	}
	days := int(math.Ceil(s.EndDate.Sub(now).Hours() / 24))
	return &days
}
