package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/storefront-billing/internal/domain"
	"github.com/Dhoini/storefront-billing/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSubscriptionRepository реализация репозитория подписок через PostgreSQL
type PostgresSubscriptionRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresSubscriptionRepository создает новый репозиторий подписок через PostgreSQL
func NewPostgresSubscriptionRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{
		db:  db,
		log: log,
	}
}

const subscriptionColumns = `
	subscription_id, customer_email, product_identifier, status,
	next_billing_date, primer_payment_method_token, payment_id,
	amount_cents, currency, cycle_days, failure_reason,
	created_at, updated_at
`

// scanSubscription читает одну строку результата в domain.Subscription
func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var sub domain.Subscription
	var failureReason *string

	err := row.Scan(
		&sub.SubscriptionID,
		&sub.CustomerEmail,
		&sub.ProductIdentifier,
		&sub.Status,
		&sub.NextBillingDate,
		&sub.PrimerPaymentMethodToken,
		&sub.PaymentID,
		&sub.AmountCents,
		&sub.Currency,
		&sub.CycleDays,
		&failureReason,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if failureReason != nil {
		sub.FailureReason = *failureReason
	}

	return &sub, nil
}

// Create сохраняет новую подписку в базе данных.
// Уникальный индекс на payment_id обеспечивает идемпотентность создания:
// повторная вставка по тому же платежу возвращает ErrDuplicate.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			subscription_id, customer_email, product_identifier, status,
			next_billing_date, primer_payment_method_token, payment_id,
			amount_cents, currency, cycle_days,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		RETURNING created_at, updated_at
	`

	now := time.Now()

	err := r.db.QueryRow(
		ctx,
		query,
		sub.SubscriptionID,
		sub.CustomerEmail,
		sub.ProductIdentifier,
		sub.Status,
		domain.DateOnly(sub.NextBillingDate),
		sub.PrimerPaymentMethodToken,
		sub.PaymentID,
		sub.AmountCents,
		sub.Currency,
		sub.CycleDays,
		now,
		now,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// 23505 - нарушение уникальности (дубликат payment_id)
			if pgErr.Code == "23505" {
				return domain.NewDuplicateError("subscription", "payment_id", sub.PaymentID)
			}
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

// GetByID возвращает подписку по ID
func (r *PostgresSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE subscription_id = $1`

	sub, err := scanSubscription(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("subscription", id.String())
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return sub, nil
}

// GetByPaymentID возвращает подписку по идентификатору платежа
func (r *PostgresSubscriptionRepository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE payment_id = $1`

	sub, err := scanSubscription(r.db.QueryRow(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("subscription", paymentID)
		}
		return nil, fmt.Errorf("failed to get subscription by payment id: %w", err)
	}

	return sub, nil
}

// FindDue возвращает подписки, подлежащие списанию на указанную дату
func (r *PostgresSubscriptionRepository) FindDue(ctx context.Context, date time.Time) ([]domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE next_billing_date <= $1
		  AND status IN ('active', 'pending_initial')
		ORDER BY next_billing_date ASC
	`

	rows, err := r.db.Query(ctx, query, domain.DateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query due subscriptions: %w", err)
	}
	defer rows.Close()

	var subscriptions []domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subscriptions = append(subscriptions, *sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due subscriptions: %w", err)
	}

	return subscriptions, nil
}

// ClaimForBilling атомарно захватывает подписку для списания.
// Conditional update по текущему статусу гарантирует, что при
// перекрывающихся запусках процессора подписку спишет только один из них.
func (r *PostgresSubscriptionRepository) ClaimForBilling(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	query := `
		UPDATE subscriptions
		SET status = 'charging', updated_at = $2
		WHERE subscription_id = $1
		  AND status IN ('active', 'pending_initial')
		RETURNING ` + subscriptionColumns

	sub, err := scanSubscription(r.db.QueryRow(ctx, query, id, time.Now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotClaimed
		}
		return nil, fmt.Errorf("failed to claim subscription: %w", err)
	}

	return sub, nil
}

// ReleaseStaleClaims освобождает захваты, брошенные умершим запуском процессора
func (r *PostgresSubscriptionRepository) ReleaseStaleClaims(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		UPDATE subscriptions
		SET status = 'failed', failure_reason = $2, updated_at = $3
		WHERE status = 'charging'
		  AND updated_at < $1
	`

	result, err := r.db.Exec(ctx, query, olderThan, domain.ChargeInterruptedReason, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to release stale claims: %w", err)
	}

	return result.RowsAffected(), nil
}

// Update обновляет статус, дату следующего списания и причину неудачи
func (r *PostgresSubscriptionRepository) Update(ctx context.Context, sub *domain.Subscription) error {
	query := `
		UPDATE subscriptions
		SET
			status = $2,
			next_billing_date = $3,
			failure_reason = NULLIF($4, ''),
			updated_at = $5
		WHERE subscription_id = $1
	`

	result, err := r.db.Exec(
		ctx,
		query,
		sub.SubscriptionID,
		sub.Status,
		domain.DateOnly(sub.NextBillingDate),
		sub.FailureReason,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("subscription", sub.SubscriptionID.String())
	}

	return nil
}
