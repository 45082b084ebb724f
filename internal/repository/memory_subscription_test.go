package repository

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/Dhoini/storefront-billing/internal/domain"
	"github.com/Dhoini/storefront-billing/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo() *InMemorySubscriptionRepository {
	log := logger.New(logger.ERROR)
	log.SetOutput(io.Discard)
	return NewInMemorySubscriptionRepository(log)
}

func newSubscription(paymentID string, status domain.SubscriptionStatus, nextDate time.Time) *domain.Subscription {
	return &domain.Subscription{
		SubscriptionID:           uuid.New(),
		CustomerEmail:            "buyer@shop.io",
		ProductIdentifier:        "vitamin-pack",
		Status:                   status,
		NextBillingDate:          nextDate,
		PrimerPaymentMethodToken: "tok_abc",
		PaymentID:                paymentID,
		AmountCents:              499,
		Currency:                 "USD",
		CycleDays:                30,
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := newTestRepo()
	today := domain.DateOnly(time.Now())
	sub := newSubscription("pay_1", domain.SubscriptionStatusActive, today)

	require.NoError(t, repo.Create(context.Background(), sub))
	assert.False(t, sub.CreatedAt.IsZero())

	byID, err := repo.GetByID(context.Background(), sub.SubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, sub.SubscriptionID, byID.SubscriptionID)

	byPayment, err := repo.GetByPaymentID(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.Equal(t, sub.SubscriptionID, byPayment.SubscriptionID)

	_, err = repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDuplicatePaymentID(t *testing.T) {
	repo := newTestRepo()
	today := domain.DateOnly(time.Now())

	require.NoError(t, repo.Create(context.Background(), newSubscription("pay_1", domain.SubscriptionStatusActive, today)))

	err := repo.Create(context.Background(), newSubscription("pay_1", domain.SubscriptionStatusActive, today))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateEmptyPaymentIDIsNotDeduplicated(t *testing.T) {
	repo := newTestRepo()
	today := domain.DateOnly(time.Now())

	// Без идентификатора платежа идемпотентность не обеспечивается
	require.NoError(t, repo.Create(context.Background(), newSubscription("", domain.SubscriptionStatusActive, today)))
	require.NoError(t, repo.Create(context.Background(), newSubscription("", domain.SubscriptionStatusActive, today)))
}

func TestFindDueOrdering(t *testing.T) {
	repo := newTestRepo()
	today := domain.DateOnly(time.Now())

	recent := newSubscription("pay_recent", domain.SubscriptionStatusActive, today)
	oldest := newSubscription("pay_oldest", domain.SubscriptionStatusActive, today.AddDate(0, 0, -60))
	middle := newSubscription("pay_middle", domain.SubscriptionStatusPendingInitial, today.AddDate(0, 0, -10))
	future := newSubscription("pay_future", domain.SubscriptionStatusActive, today.AddDate(0, 0, 5))
	failed := newSubscription("pay_failed", domain.SubscriptionStatusFailed, today.AddDate(0, 0, -30))

	for _, sub := range []*domain.Subscription{recent, oldest, middle, future, failed} {
		require.NoError(t, repo.Create(context.Background(), sub))
	}

	due, err := repo.FindDue(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, due, 3)

	// Самые просроченные первыми
	assert.Equal(t, oldest.SubscriptionID, due[0].SubscriptionID)
	assert.Equal(t, middle.SubscriptionID, due[1].SubscriptionID)
	assert.Equal(t, recent.SubscriptionID, due[2].SubscriptionID)
}

func TestClaimForBilling(t *testing.T) {
	repo := newTestRepo()
	today := domain.DateOnly(time.Now())
	sub := newSubscription("pay_1", domain.SubscriptionStatusActive, today)
	require.NoError(t, repo.Create(context.Background(), sub))

	claimed, err := repo.ClaimForBilling(context.Background(), sub.SubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusCharging, claimed.Status)

	// Повторный захват того же идентификатора невозможен
	_, err = repo.ClaimForBilling(context.Background(), sub.SubscriptionID)
	assert.ErrorIs(t, err, ErrNotClaimed)

	_, err = repo.ClaimForBilling(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClaimForBillingFailedStatus(t *testing.T) {
	repo := newTestRepo()
	today := domain.DateOnly(time.Now())
	sub := newSubscription("pay_1", domain.SubscriptionStatusFailed, today)
	require.NoError(t, repo.Create(context.Background(), sub))

	_, err := repo.ClaimForBilling(context.Background(), sub.SubscriptionID)
	assert.ErrorIs(t, err, ErrNotClaimed)
}

func TestReleaseStaleClaims(t *testing.T) {
	repo := newTestRepo()
	today := domain.DateOnly(time.Now())
	sub := newSubscription("pay_1", domain.SubscriptionStatusActive, today)
	require.NoError(t, repo.Create(context.Background(), sub))

	_, err := repo.ClaimForBilling(context.Background(), sub.SubscriptionID)
	require.NoError(t, err)

	// Свежий захват не считается брошенным
	released, err := repo.ReleaseStaleClaims(context.Background(), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(0), released)

	claimed, err := repo.GetByID(context.Background(), sub.SubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusCharging, claimed.Status)

	// Захват старше допустимого окна освобождается в failed
	released, err = repo.ReleaseStaleClaims(context.Background(), time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)

	updated, err := repo.GetByID(context.Background(), sub.SubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusFailed, updated.Status)
	assert.Equal(t, domain.ChargeInterruptedReason, updated.FailureReason)

	// Освобожденная подписка больше не захвачена
	_, err = repo.ClaimForBilling(context.Background(), sub.SubscriptionID)
	assert.ErrorIs(t, err, ErrNotClaimed)
}

func TestUpdate(t *testing.T) {
	repo := newTestRepo()
	today := domain.DateOnly(time.Now())
	sub := newSubscription("pay_1", domain.SubscriptionStatusActive, today)
	require.NoError(t, repo.Create(context.Background(), sub))

	sub.Status = domain.SubscriptionStatusFailed
	sub.FailureReason = "card declined"
	require.NoError(t, repo.Update(context.Background(), sub))

	updated, err := repo.GetByID(context.Background(), sub.SubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusFailed, updated.Status)
	assert.Equal(t, "card declined", updated.FailureReason)

	missing := newSubscription("pay_2", domain.SubscriptionStatusActive, today)
	assert.ErrorIs(t, repo.Update(context.Background(), missing), ErrNotFound)
}
