package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionExpiry(t *testing.T) {
	now := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	sub := &Subscription{Period: SubscriptionPeriodDay, EndDate: &end}

	assert.False(t, sub.Expired(now))
	days := sub.DaysUntilExpiry(now)
	require.NotNil(t, days)
	assert.Equal(t, 3, *days)

	later := end.Add(time.Minute)
	assert.True(t, sub.Expired(later))
	assert.Equal(t, 0, *sub.DaysUntilExpiry(later))
}

func TestLifetimeSubscriptionNeverExpires(t *testing.T) {
	sub := &Subscription{Period: SubscriptionPeriodLifetime}
	far := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, sub.IsLifetime())
	assert.False(t, sub.Expired(far))
	assert.Nil(t, sub.DaysUntilExpiry(far))
}
