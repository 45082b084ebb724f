package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateOnly(t *testing.T) {
	ts := time.Date(2025, 6, 15, 23, 45, 12, 999, time.FixedZone("CEST", 2*3600))
	got := DateOnly(ts)

	// 23:45 CEST - это уже 21:45 UTC того же дня
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestSubscriptionDueOn(t *testing.T) {
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		status   SubscriptionStatus
		nextDate time.Time
		expected bool
	}{
		{"active due today", SubscriptionStatusActive, today, true},
		{"active overdue", SubscriptionStatusActive, today.AddDate(0, 0, -40), true},
		{"active due tomorrow", SubscriptionStatusActive, today.AddDate(0, 0, 1), false},
		{"pending_initial due today", SubscriptionStatusPendingInitial, today, true},
		{"failed overdue is not due", SubscriptionStatusFailed, today.AddDate(0, 0, -1), false},
		{"charging is not due", SubscriptionStatusCharging, today, false},
		{"time of day is ignored", SubscriptionStatusActive, today.Add(18 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := Subscription{Status: tt.status, NextBillingDate: tt.nextDate}
			assert.Equal(t, tt.expected, sub.DueOn(today))
		})
	}
}

func TestAdvanceBillingDate(t *testing.T) {
	today := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

	t.Run("full cycle from charge date", func(t *testing.T) {
		sub := Subscription{CycleDays: 30}
		sub.AdvanceBillingDate(today)
		assert.Equal(t, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), sub.NextBillingDate)
	})

	t.Run("overdue subscription does not accumulate missed cycles", func(t *testing.T) {
		sub := Subscription{
			CycleDays:       30,
			NextBillingDate: today.AddDate(0, 0, -90),
		}
		sub.AdvanceBillingDate(today)
		// Дата двигается от сегодня, а не от старой даты
		assert.Equal(t, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), sub.NextBillingDate)
	})

	t.Run("custom cycle length", func(t *testing.T) {
		sub := Subscription{CycleDays: 7}
		sub.AdvanceBillingDate(today)
		assert.Equal(t, time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC), sub.NextBillingDate)
	})

	t.Run("zero cycle falls back to default", func(t *testing.T) {
		sub := Subscription{}
		sub.AdvanceBillingDate(today)
		assert.Equal(t, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), sub.NextBillingDate)
	})
}

func TestStatusBillable(t *testing.T) {
	assert.True(t, SubscriptionStatusActive.Billable())
	assert.True(t, SubscriptionStatusPendingInitial.Billable())
	assert.False(t, SubscriptionStatusCharging.Billable())
	assert.False(t, SubscriptionStatusFailed.Billable())
}

func TestProductPricingSnapshot(t *testing.T) {
	t.Run("product values", func(t *testing.T) {
		p := Product{AmountCents: 1299, Currency: "EUR", IntervalDays: 14}
		amount, currency, cycle := p.PricingSnapshot()
		assert.Equal(t, int64(1299), amount)
		assert.Equal(t, "EUR", currency)
		assert.Equal(t, 14, cycle)
	})

	t.Run("zero interval falls back to default cycle", func(t *testing.T) {
		p := Product{AmountCents: 499, Currency: "USD"}
		_, _, cycle := p.PricingSnapshot()
		assert.Equal(t, DefaultCycleDays, cycle)
	})
}
