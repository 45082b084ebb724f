package repository

import (
	"context"
	"time"

	"github.com/Dhoini/storefront-billing/internal/domain"
	"github.com/google/uuid"
)

// SubscriptionRepository определяет методы для работы с хранилищем подписок.
type SubscriptionRepository interface {
	// Create сохраняет новую подписку. Если подписка с таким же payment_id
	// уже существует (повторная доставка вебхука), возвращает ErrDuplicate.
	Create(ctx context.Context, sub *domain.Subscription) error

	// GetByID возвращает подписку по ее ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)

	// GetByPaymentID возвращает подписку по идентификатору породившего ее платежа.
	GetByPaymentID(ctx context.Context, paymentID string) (*domain.Subscription, error)

	// FindDue возвращает подписки, подлежащие списанию на указанную дату:
	// next_billing_date <= date и статус active или pending_initial.
	// Результат отсортирован по next_billing_date по возрастанию, чтобы самые
	// просроченные подписки обрабатывались первыми.
	FindDue(ctx context.Context, date time.Time) ([]domain.Subscription, error)

	// ClaimForBilling атомарно переводит подписку из оплачиваемого статуса в charging
	// и возвращает захваченную подписку. Если статус уже изменился (например,
	// параллельным запуском процессора), возвращает ErrNotClaimed.
	ClaimForBilling(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)

	// ReleaseStaleClaims переводит в failed подписки, застрявшие в charging
	// дольше допустимого: их захват удерживал запуск процессора, который
	// умер, не освободив его. Возвращает количество освобожденных подписок.
	ReleaseStaleClaims(ctx context.Context, olderThan time.Time) (int64, error)

	// Update обновляет статус, дату следующего списания и причину неудачи.
	Update(ctx context.Context, sub *domain.Subscription) error
}
