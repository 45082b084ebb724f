package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/storefront-billing/internal/config"
	"github.com/Dhoini/storefront-billing/internal/domain"
	"github.com/Dhoini/storefront-billing/internal/integration/primer"
	"github.com/Dhoini/storefront-billing/internal/kafka"
	"github.com/Dhoini/storefront-billing/internal/metrics"
	"github.com/Dhoini/storefront-billing/internal/repository"
	"github.com/Dhoini/storefront-billing/pkg/logger"
	"github.com/google/uuid"
)

// staleClaimWindow время, после которого захват считается брошенным:
// процесс, удерживающий его, уже не работает (упал или был убит)
const staleClaimWindow = 30 * time.Minute

// BillingService процессор периодических списаний
type BillingService interface {
	// ProcessDueSubscriptions находит все подписки с наступившей датой списания
	// и пытается списать каждую. Возвращает сводку по запуску.
	ProcessDueSubscriptions(ctx context.Context) (*domain.BillingStats, error)
}

// billingService реализация BillingService
type billingService struct {
	subscriptions repository.SubscriptionRepository
	gateway       PaymentGateway
	producer      kafka.Producer
	metrics       metrics.BillingMetrics
	defaults      config.BillingConfig
	log           *logger.Logger
	now           func() time.Time
}

// NewBillingService создает новый процессор биллинга
func NewBillingService(
	subscriptions repository.SubscriptionRepository,
	gateway PaymentGateway,
	producer kafka.Producer,
	billingMetrics metrics.BillingMetrics,
	defaults config.BillingConfig,
	log *logger.Logger,
) BillingService {
	return &billingService{
		subscriptions: subscriptions,
		gateway:       gateway,
		producer:      producer,
		metrics:       billingMetrics,
		defaults:      defaults,
		log:           log,
		now:           time.Now,
	}
}

// ProcessDueSubscriptions выполняет один запуск процессора биллинга.
// Подписки обрабатываются последовательно; неудача одной не прерывает остальные.
func (s *billingService) ProcessDueSubscriptions(ctx context.Context) (*domain.BillingStats, error) {
	started := s.now()
	today := domain.DateOnly(started)

	// Захваты, брошенные упавшим запуском, освобождаются перед выборкой:
	// иначе такие подписки навсегда выпадают из биллинга
	released, err := s.subscriptions.ReleaseStaleClaims(ctx, started.Add(-staleClaimWindow))
	if err != nil {
		s.log.Warnw("Failed to release stale billing claims", "error", err)
	} else if released > 0 {
		s.log.Warnw("Released stale billing claims", "count", released)
	}

	due, err := s.subscriptions.FindDue(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to find due subscriptions: %w", err)
	}

	s.metrics.SetDueSubscriptions(len(due))
	s.log.Infow("Billing run started", "date", today.Format("2006-01-02"), "due", len(due))

	stats := &domain.BillingStats{
		TotalProcessed: len(due),
		Errors:         []string{},
	}

	for i := range due {
		result := s.processSubscription(ctx, due[i].SubscriptionID, today)
		if result == nil {
			// Подписку захватил параллельный запуск
			continue
		}
		if result.Success {
			stats.SuccessfulCharges++
			s.metrics.IncChargeSucceeded()
		} else {
			stats.FailedCharges++
			stats.Errors = append(stats.Errors, result.Error)
			s.metrics.IncChargeFailed()
		}
	}

	s.metrics.ObserveBillingRunDuration(time.Since(started).Seconds())
	s.log.Infow("Billing run finished",
		"total", stats.TotalProcessed,
		"succeeded", stats.SuccessfulCharges,
		"failed", stats.FailedCharges,
	)
	return stats, nil
}

// processSubscription обрабатывает одну подписку: захват, списание, запись результата.
// Возвращает nil, если подписка уже захвачена другим запуском.
// Паника при обработке одной подписки не должна прервать весь запуск.
func (s *billingService) processSubscription(ctx context.Context, id uuid.UUID, today time.Time) (result *domain.BillingResult) {
	var claimed *domain.Subscription
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("Panic while processing subscription", "subscription_id", id, "panic", r)
			// Захват обязан быть освобожден: иначе подписка навсегда
			// выпадает из выборки процессора
			if claimed != nil && claimed.Status == domain.SubscriptionStatusCharging {
				claimed.Status = domain.SubscriptionStatusFailed
				claimed.FailureReason = fmt.Sprintf("panic: %v", r)
				if err := s.subscriptions.Update(ctx, claimed); err != nil {
					s.log.Errorw("Failed to release claim after panic", "subscription_id", id, "error", err)
				}
			}
			result = &domain.BillingResult{
				SubscriptionID: id,
				Error:          fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	// Атомарный захват: из двух конкурирующих запусков списание выполнит
	// ровно один
	sub, err := s.subscriptions.ClaimForBilling(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotClaimed) {
			s.log.Debugw("Subscription already claimed, skipping", "subscription_id", id)
			return nil
		}
		s.log.Errorw("Failed to claim subscription", "subscription_id", id, "error", err)
		return &domain.BillingResult{SubscriptionID: id, Error: err.Error()}
	}
	claimed = sub

	payment, chargeErr := s.charge(ctx, sub)
	if chargeErr != nil {
		s.log.Warnw("Charge failed", "subscription_id", sub.SubscriptionID, "error", chargeErr)
		sub.Status = domain.SubscriptionStatusFailed
		sub.FailureReason = chargeErr.Error()
		// Дата не двигается: по ней видно, когда списание должно было произойти
		if err := s.subscriptions.Update(ctx, sub); err != nil {
			s.log.Errorw("Failed to record charge failure", "subscription_id", sub.SubscriptionID, "error", err)
		}
		s.publish(ctx, kafka.TopicSubscriptionChargeFailed, sub)
		subErr := domain.NewSubscriptionError(sub.SubscriptionID.String(), "charge failed", chargeErr)
		return &domain.BillingResult{SubscriptionID: sub.SubscriptionID, Error: subErr.Error()}
	}

	sub.Status = domain.SubscriptionStatusActive
	sub.FailureReason = ""
	// Полный цикл от даты фактического списания, пропущенные циклы не накапливаются
	sub.AdvanceBillingDate(today)
	if err := s.subscriptions.Update(ctx, sub); err != nil {
		// Деньги уже списаны, результат попытки определен успехом платежа
		s.log.Errorw("Charge succeeded but failed to update subscription", "subscription_id", sub.SubscriptionID, "error", err)
	}
	s.publish(ctx, kafka.TopicSubscriptionCharged, sub)

	s.log.Infow("Subscription charged",
		"subscription_id", sub.SubscriptionID,
		"payment_id", payment.ID,
		"next_billing_date", sub.NextBillingDate.Format("2006-01-02"),
	)
	return &domain.BillingResult{
		SubscriptionID: sub.SubscriptionID,
		Success:        true,
		PaymentID:      payment.ID,
	}
}

// charge выполняет MIT-списание по подписке
func (s *billingService) charge(ctx context.Context, sub *domain.Subscription) (*primer.PaymentResponse, error) {
	amount := sub.AmountCents
	if amount <= 0 {
		amount = s.defaults.DefaultAmountCents
	}
	currency := sub.Currency
	if currency == "" {
		currency = s.defaults.DefaultCurrency
	}

	req := primer.PaymentRequest{
		// Свежий order id на каждую попытку: шлюз не должен отклонить
		// повторное списание как дубликат заказа
		OrderID:            uuid.New().String(),
		Amount:             amount,
		CurrencyCode:       currency,
		PaymentMethodToken: sub.PrimerPaymentMethodToken,
		PaymentType:        primer.PaymentTypeMerchantInitiated,
		Metadata: map[string]string{
			"subscriptionId": sub.SubscriptionID.String(),
			"billingType":    "recurring",
		},
	}
	req.Customer.EmailAddress = sub.CustomerEmail

	return s.gateway.CreatePayment(ctx, req)
}

// publish отправляет событие в Kafka, не влияя на результат обработки
func (s *billingService) publish(ctx context.Context, topic string, sub *domain.Subscription) {
	if err := s.producer.PublishSubscriptionEvent(ctx, topic, sub); err != nil {
		s.log.Warnw("Failed to publish subscription event", "topic", topic, "subscription_id", sub.SubscriptionID, "error", err)
	}
}
