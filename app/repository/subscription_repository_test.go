package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utnautiub/nuoi-buituantu/app/models"
)

func newSubscription(userID string, start time.Time) *models.Subscription {
	end := start.AddDate(0, 1, 0)
	return &models.Subscription{
		UserID:     userID,
		TierID:     "coffee",
		Price:      50000,
		Period:     models.SubscriptionPeriodMonth,
		StartDate:  start,
		EndDate:    &end,
		Status:     models.SubscriptionStatusActive,
		DonationID: 1,
		ExternalID: "ext-1",
	}
}

func TestSubscriptionRepository_CancelActive(t *testing.T) {
	ctx := context.Background()
	repo := NewSubscriptionRepository(newTestDB(t))

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := newSubscription("u1", start)
	require.NoError(t, repo.Create(ctx, sub))
	require.NoError(t, repo.Create(ctx, newSubscription("u2", start)))

	active, err := repo.ListActiveByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, active, 1)

	require.NoError(t, repo.Cancel(ctx, sub.ID, time.Now()))
	assert.ErrorIs(t, repo.Cancel(ctx, sub.ID, time.Now()), ErrNotFound)

	active, err = repo.ListActiveByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, active)

	active, err = repo.ListActiveByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestSubscriptionRepository_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewSubscriptionRepository(newTestDB(t))

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx SubscriptionRepository) error {
		require.NoError(t, tx.Create(ctx, newSubscription("u1", time.Now())))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	active, err := repo.ListActiveByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, active)
}
