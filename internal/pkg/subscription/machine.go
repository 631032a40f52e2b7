// Package subscription moves users between tiers: a new matched donation
// supersedes whatever the user had active before.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/utnautiub/nuoi-buituantu/app/models"
	"github.com/utnautiub/nuoi-buituantu/app/repository"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/tiers"
)

var ErrNoSubscription = errors.New("no active subscription")

type Input struct {
	UserID     string
	Tier       tiers.Tier
	DonationID uint
	ExternalID string
	OccurredAt time.Time
}

type Machine struct {
	repo repository.SubscriptionRepository
	now  func() time.Time
}

func NewMachine(repo repository.SubscriptionRepository) *Machine {
	return &Machine{repo: repo, now: time.Now}
}

// Transition cancels every active subscription of the user and opens a new
// one for in.Tier, atomically.
func (m *Machine) Transition(ctx context.Context, in Input) (*models.Subscription, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, errors.New("user id must not be empty")
	}

	start := in.OccurredAt.UTC()
	sub := &models.Subscription{
		UserID:     in.UserID,
		TierID:     in.Tier.ID,
		TierName:   in.Tier.Name,
		TierNameEn: in.Tier.NameEn,
		Price:      in.Tier.Price,
		Period:     in.Tier.Period,
		StartDate:  start,
		EndDate:    in.Tier.EndDate(start),
		Status:     models.SubscriptionStatusActive,
		DonationID: in.DonationID,
		ExternalID: in.ExternalID,
	}
	if in.Tier.PeriodDays > 0 {
		days := in.Tier.PeriodDays
		sub.PeriodDays = &days
	}

	err := m.repo.Transaction(ctx, func(tx repository.SubscriptionRepository) error {
		active, err := tx.ListActiveByUser(ctx, in.UserID)
		if err != nil {
			return fmt.Errorf("list active subscriptions: %w", err)
		}
		now := m.now().UTC()
		for _, prev := range active {
			if err := tx.Cancel(ctx, prev.ID, now); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("cancel subscription %d: %w", prev.ID, err)
			}
		}
		if err := tx.Create(ctx, sub); err != nil {
			return fmt.Errorf("create subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Current returns the user's active subscription, newest first if the store
// somehow holds several.
func (m *Machine) Current(ctx context.Context, userID string) (*models.Subscription, error) {
	active, err := m.repo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}
	if len(active) == 0 {
		return nil, ErrNoSubscription
	}
	return &active[0], nil
}
