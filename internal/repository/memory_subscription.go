package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dhoini/storefront-billing/internal/domain"
	"github.com/Dhoini/storefront-billing/pkg/logger"
	"github.com/google/uuid"
)

// InMemorySubscriptionRepository реализация репозитория подписок в памяти.
// Используется в тестах и для локальной разработки без PostgreSQL.
type InMemorySubscriptionRepository struct {
	subscriptions map[uuid.UUID]domain.Subscription
	byPaymentID   map[string]uuid.UUID
	mutex         sync.RWMutex
	log           *logger.Logger
}

// NewInMemorySubscriptionRepository создает новый репозиторий подписок в памяти
func NewInMemorySubscriptionRepository(log *logger.Logger) *InMemorySubscriptionRepository {
	return &InMemorySubscriptionRepository{
		subscriptions: make(map[uuid.UUID]domain.Subscription),
		byPaymentID:   make(map[string]uuid.UUID),
		log:           log,
	}
}

// Create сохраняет новую подписку
func (r *InMemorySubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	// payment_id служит ключом идемпотентности
	if sub.PaymentID != "" {
		if _, exists := r.byPaymentID[sub.PaymentID]; exists {
			return domain.NewDuplicateError("subscription", "payment_id", sub.PaymentID)
		}
	}

	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	r.subscriptions[sub.SubscriptionID] = *sub
	if sub.PaymentID != "" {
		r.byPaymentID[sub.PaymentID] = sub.SubscriptionID
	}

	return nil
}

// GetByID возвращает подписку по ID
func (r *InMemorySubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	sub, exists := r.subscriptions[id]
	if !exists {
		return nil, domain.NewNotFoundError("subscription", id.String())
	}

	return &sub, nil
}

// GetByPaymentID возвращает подписку по идентификатору платежа
func (r *InMemorySubscriptionRepository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Subscription, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	id, exists := r.byPaymentID[paymentID]
	if !exists {
		return nil, domain.NewNotFoundError("subscription", paymentID)
	}

	sub := r.subscriptions[id]
	return &sub, nil
}

// FindDue возвращает подписки, подлежащие списанию на указанную дату
func (r *InMemorySubscriptionRepository) FindDue(ctx context.Context, date time.Time) ([]domain.Subscription, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	cutoff := domain.DateOnly(date)

	var due []domain.Subscription
	for _, sub := range r.subscriptions {
		if sub.Status.Billable() && !domain.DateOnly(sub.NextBillingDate).After(cutoff) {
			due = append(due, sub)
		}
	}

	// Самые просроченные подписки первыми
	sort.Slice(due, func(i, j int) bool {
		return due[i].NextBillingDate.Before(due[j].NextBillingDate)
	})

	return due, nil
}

// ClaimForBilling атомарно захватывает подписку для списания
func (r *InMemorySubscriptionRepository) ClaimForBilling(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	sub, exists := r.subscriptions[id]
	if !exists {
		return nil, domain.NewNotFoundError("subscription", id.String())
	}

	if !sub.Status.Billable() {
		return nil, ErrNotClaimed
	}

	sub.Status = domain.SubscriptionStatusCharging
	sub.UpdatedAt = time.Now()
	r.subscriptions[id] = sub

	return &sub, nil
}

// ReleaseStaleClaims освобождает захваты, брошенные умершим запуском процессора
func (r *InMemorySubscriptionRepository) ReleaseStaleClaims(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var released int64
	for id, sub := range r.subscriptions {
		if sub.Status == domain.SubscriptionStatusCharging && sub.UpdatedAt.Before(olderThan) {
			sub.Status = domain.SubscriptionStatusFailed
			sub.FailureReason = domain.ChargeInterruptedReason
			sub.UpdatedAt = time.Now()
			r.subscriptions[id] = sub
			released++
		}
	}

	return released, nil
}

// Update обновляет существующую подписку
func (r *InMemorySubscriptionRepository) Update(ctx context.Context, sub *domain.Subscription) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.subscriptions[sub.SubscriptionID]; !exists {
		return domain.NewNotFoundError("subscription", sub.SubscriptionID.String())
	}

	sub.UpdatedAt = time.Now()
	r.subscriptions[sub.SubscriptionID] = *sub

	return nil
}
