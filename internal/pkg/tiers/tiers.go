// Package tiers holds the fixed price table and matches donation amounts to it.
package tiers

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/utnautiub/nuoi-buituantu/app/models"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/timezone"
)

var ErrInvalidTable = errors.New("invalid tier table")

// Tier is one purchasable support level. PeriodDays is only set for day tiers.
type Tier struct {
	ID         string `json:"id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	NameEn     string `json:"name_en"`
	Price      int64  `json:"price" validate:"gt=0"`
	Period     string `json:"period" validate:"oneof=day month year lifetime"`
	PeriodDays int    `json:"period_days,omitempty" validate:"gte=0"`
}

// EndDate returns when a subscription started at start runs out, or nil for
// lifetime tiers. Calendar arithmetic happens on the gateway's UTC+7 wall
// clock and overflowing days roll forward (Jan 31 + 1 month = Mar 3).
func (t Tier) EndDate(start time.Time) *time.Time {
	local := start.In(timezone.Location())

	var end time.Time
	switch t.Period {
	case models.SubscriptionPeriodLifetime:
		return nil
	case models.SubscriptionPeriodDay:
		end = local.AddDate(0, 0, t.PeriodDays)
	case models.SubscriptionPeriodMonth:
		end = local.AddDate(0, 1, 0)
	case models.SubscriptionPeriodYear:
		end = local.AddDate(1, 0, 0)
	default:
		return nil
	}

	end = end.UTC()
	return &end
}

type tableSpec struct {
	Tiers []Tier `validate:"required,unique=Price,unique=ID,dive"`
}

// Table is an immutable price table keyed by exact amount.
type Table struct {
	tiers   []Tier
	byPrice map[int64]Tier
}

// NewTable validates tiers and builds a table. Prices and ids must be unique.
func NewTable(tiers []Tier) (*Table, error) {
	v := validator.New()
	if err := v.Struct(tableSpec{Tiers: tiers}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}

	t := &Table{
		tiers:   make([]Tier, len(tiers)),
		byPrice: make(map[int64]Tier, len(tiers)),
	}
	copy(t.tiers, tiers)
	for _, tier := range tiers {
		isDay := tier.Period == models.SubscriptionPeriodDay
		if isDay != (tier.PeriodDays > 0) {
			return nil, fmt.Errorf("%w: tier %s: period_days must be set exactly for day periods", ErrInvalidTable, tier.ID)
		}
		t.byPrice[tier.Price] = tier
	}
	return t, nil
}

// DefaultTable is the published pricing.
func DefaultTable() *Table {
	t, err := NewTable([]Tier{
		{ID: "trial-7d", Name: "Thử Nghiệm 7 Ngày", NameEn: "7-Day Trial", Price: 20000, Period: models.SubscriptionPeriodDay, PeriodDays: 7},
		{ID: "trial-14d", Name: "Thử Nghiệm 14 Ngày", NameEn: "14-Day Trial", Price: 35000, Period: models.SubscriptionPeriodDay, PeriodDays: 14},
		{ID: "coffee", Name: "Cà Phê", NameEn: "Coffee", Price: 50000, Period: models.SubscriptionPeriodMonth},
		{ID: "pizza", Name: "Pizza", NameEn: "Pizza", Price: 100000, Period: models.SubscriptionPeriodMonth},
		{ID: "vip-yearly", Name: "VIP Năm", NameEn: "VIP Year", Price: 1000000, Period: models.SubscriptionPeriodYear},
		{ID: "lifetime", Name: "Lifetime Legend", NameEn: "Lifetime Legend", Price: 10000000, Period: models.SubscriptionPeriodLifetime},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// Match returns the tier whose price equals amount exactly.
func (t *Table) Match(amount int64) (Tier, bool) {
	tier, ok := t.byPrice[amount]
	return tier, ok
}

// Tiers returns the table in declaration order.
func (t *Table) Tiers() []Tier {
	out := make([]Tier, len(t.tiers))
	copy(out, t.tiers)
	return out
}
