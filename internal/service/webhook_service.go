package service

import (
	"context"
	"errors"
	"time"

	"github.com/Dhoini/storefront-billing/internal/config"
	"github.com/Dhoini/storefront-billing/internal/domain"
	"github.com/Dhoini/storefront-billing/internal/kafka"
	"github.com/Dhoini/storefront-billing/internal/metrics"
	"github.com/Dhoini/storefront-billing/internal/repository"
	"github.com/Dhoini/storefront-billing/pkg/logger"
	"github.com/google/uuid"
)

// WebhookOutcome итог обработки события вебхука
type WebhookOutcome string

const (
	// WebhookOutcomeCreated создана новая подписка
	WebhookOutcomeCreated WebhookOutcome = "created"

	// WebhookOutcomeDuplicate повторная доставка уже обработанного платежа,
	// новая подписка не создана
	WebhookOutcomeDuplicate WebhookOutcome = "duplicate"

	// WebhookOutcomeIgnored событие подтверждено, но не обрабатывается
	WebhookOutcomeIgnored WebhookOutcome = "ignored"
)

// WebhookService обрабатывает входящие вебхуки платежного шлюза
type WebhookService interface {
	// ProcessEvent обрабатывает верифицированное событие вебхука.
	// Для PAYMENT.SUCCESS создает подписку; остальные типы игнорируются.
	ProcessEvent(ctx context.Context, event *domain.WebhookEvent) (*domain.Subscription, WebhookOutcome, error)
}

// webhookService реализация WebhookService
type webhookService struct {
	subscriptions repository.SubscriptionRepository
	products      repository.ProductRepository
	producer      kafka.Producer
	metrics       metrics.BillingMetrics
	defaults      config.BillingConfig
	log           *logger.Logger
	now           func() time.Time
}

// NewWebhookService создает новый сервис обработки вебхуков
func NewWebhookService(
	subscriptions repository.SubscriptionRepository,
	products repository.ProductRepository,
	producer kafka.Producer,
	billingMetrics metrics.BillingMetrics,
	defaults config.BillingConfig,
	log *logger.Logger,
) WebhookService {
	return &webhookService{
		subscriptions: subscriptions,
		products:      products,
		producer:      producer,
		metrics:       billingMetrics,
		defaults:      defaults,
		log:           log,
		now:           time.Now,
	}
}

// ProcessEvent обрабатывает событие вебхука.
// Событие уже прошло проверку подписи: здесь только бизнес-логика.
func (s *webhookService) ProcessEvent(ctx context.Context, event *domain.WebhookEvent) (*domain.Subscription, WebhookOutcome, error) {
	kind := event.Kind()
	if kind != domain.WebhookEventTypePaymentSuccess {
		s.log.Debugw("Ignoring webhook event", "type", kind, "event_id", event.ID)
		s.metrics.IncWebhookEvent(kind, string(WebhookOutcomeIgnored))
		return nil, WebhookOutcomeIgnored, nil
	}

	payment := event.PaymentObject()
	if payment == nil {
		s.metrics.IncWebhookEvent(kind, "rejected")
		return nil, "", domain.ErrPaymentDataMissing
	}

	token, err := payment.Token()
	if err != nil {
		s.log.Warnw("Webhook payment has no payment method token", "payment_id", payment.ID, "event_id", event.ID)
		s.metrics.IncWebhookEvent(kind, "rejected")
		return nil, "", err
	}

	email := payment.Email()
	productIdentifier := payment.ProductIdentifier()
	amountCents, currency, cycleDays := s.pricingFor(ctx, productIdentifier)

	sub := &domain.Subscription{
		SubscriptionID:           uuid.New(),
		CustomerEmail:            email,
		ProductIdentifier:        productIdentifier,
		Status:                   domain.SubscriptionStatusActive,
		PrimerPaymentMethodToken: token,
		PaymentID:                payment.ID,
		AmountCents:              amountCents,
		Currency:                 currency,
		CycleDays:                cycleDays,
	}
	// Первое списание уже состоялось (об этом и говорит вебхук),
	// поэтому следующее назначается через полный цикл от сегодня
	sub.AdvanceBillingDate(s.now())

	if err := s.subscriptions.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			existing, getErr := s.subscriptions.GetByPaymentID(ctx, payment.ID)
			if getErr != nil {
				s.log.Warnw("Duplicate webhook delivery, failed to load existing subscription", "payment_id", payment.ID, "error", getErr)
			}
			s.log.Infow("Duplicate webhook delivery, subscription already exists", "payment_id", payment.ID)
			s.metrics.IncWebhookEvent(kind, string(WebhookOutcomeDuplicate))
			return existing, WebhookOutcomeDuplicate, nil
		}
		s.metrics.IncWebhookEvent(kind, "error")
		return nil, "", err
	}

	s.metrics.IncWebhookEvent(kind, string(WebhookOutcomeCreated))
	s.metrics.IncSubscriptionCreated()
	s.log.Infow("Subscription created from webhook",
		"subscription_id", sub.SubscriptionID,
		"customer_email", sub.CustomerEmail,
		"product", sub.ProductIdentifier,
		"next_billing_date", sub.NextBillingDate.Format("2006-01-02"),
	)

	if err := s.producer.PublishSubscriptionEvent(ctx, kafka.TopicSubscriptionCreated, sub); err != nil {
		// Событие не критично для обработки вебхука
		s.log.Warnw("Failed to publish subscription created event", "subscription_id", sub.SubscriptionID, "error", err)
	}

	return sub, WebhookOutcomeCreated, nil
}

// pricingFor возвращает снимок цены продукта либо значения по умолчанию,
// когда продукт неизвестен или хранилище недоступно
func (s *webhookService) pricingFor(ctx context.Context, identifier string) (int64, string, int) {
	product, err := s.products.GetByIdentifier(ctx, identifier)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warnw("Failed to load product, falling back to default pricing", "product", identifier, "error", err)
		}
		return s.defaults.DefaultAmountCents, s.defaults.DefaultCurrency, s.defaults.DefaultCycleDays
	}
	return product.PricingSnapshot()
}
