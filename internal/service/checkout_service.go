package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Dhoini/storefront-billing/internal/config"
	"github.com/Dhoini/storefront-billing/internal/domain"
	"github.com/Dhoini/storefront-billing/internal/integration/primer"
	"github.com/Dhoini/storefront-billing/internal/repository"
	"github.com/Dhoini/storefront-billing/pkg/logger"
	"github.com/google/uuid"
)

// DefaultCheckoutEmail подставляется в клиентскую сессию, когда email не передан
const DefaultCheckoutEmail = "customer@example.com"

// CheckoutService операции витрины: создание клиентской сессии чекаута
// и разрешение домена в данные страницы
type CheckoutService interface {
	// CreateClientSession создает клиентскую сессию Primer для витрины
	// и возвращает client token для инициализации чекаута на фронте.
	CreateClientSession(ctx context.Context, hostname, customerEmail string) (string, error)

	// PageData разрешает домен витрины в продукт для рендеринга страницы.
	PageData(ctx context.Context, hostname string) (*domain.Product, error)
}

// checkoutService реализация CheckoutService
type checkoutService struct {
	products repository.ProductRepository
	gateway  PaymentGateway
	defaults config.BillingConfig
	log      *logger.Logger
}

// NewCheckoutService создает новый сервис чекаута
func NewCheckoutService(
	products repository.ProductRepository,
	gateway PaymentGateway,
	defaults config.BillingConfig,
	log *logger.Logger,
) CheckoutService {
	return &checkoutService{
		products: products,
		gateway:  gateway,
		defaults: defaults,
		log:      log,
	}
}

// CreateClientSession создает клиентскую сессию для чекаута.
// Домен разрешается в продукт, чтобы сессия несла реальную цену;
// если продукт не найден, сессия создается с ценой по умолчанию,
// чекаут остается работоспособным.
func (s *checkoutService) CreateClientSession(ctx context.Context, hostname, customerEmail string) (string, error) {
	product := s.resolveProduct(ctx, hostname)

	amount := s.defaults.DefaultAmountCents
	currency := s.defaults.DefaultCurrency
	itemID := "shipping-fee"
	itemName := "Shipping Fee"
	metadata := map[string]string{"workflow": "production"}

	if product != nil {
		amount, currency, _ = product.PricingSnapshot()
		itemID = product.Identifier
		itemName = product.Name
		metadata["product_id"] = product.Identifier
	}

	if customerEmail == "" {
		customerEmail = DefaultCheckoutEmail
	}

	req := primer.ClientSessionRequest{
		OrderID:      uuid.New().String(),
		CurrencyCode: currency,
		Amount:       amount,
		Metadata:     metadata,
	}
	req.Order.CountryCode = "US"
	req.Order.LineItems = []primer.LineItem{
		{
			ItemID:   itemID,
			Name:     itemName,
			Amount:   amount,
			Quantity: 1,
		},
	}
	req.Customer.EmailAddress = customerEmail

	return s.gateway.CreateClientSession(ctx, req)
}

// PageData разрешает домен витрины в продукт
func (s *checkoutService) PageData(ctx context.Context, hostname string) (*domain.Product, error) {
	return s.products.GetByHostname(ctx, normalizeHostname(hostname))
}

// resolveProduct разрешает домен в продукт; любая ошибка трактуется
// как "продукт неизвестен", чтобы не блокировать чекаут
func (s *checkoutService) resolveProduct(ctx context.Context, hostname string) *domain.Product {
	if hostname == "" {
		return nil
	}
	product, err := s.products.GetByHostname(ctx, normalizeHostname(hostname))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warnw("Failed to resolve product by hostname", "hostname", hostname, "error", err)
		}
		return nil
	}
	return product
}

// normalizeHostname приводит домен к каноническому виду: без порта,
// без префикса www, в нижнем регистре
func normalizeHostname(hostname string) string {
	h := strings.ToLower(strings.TrimSpace(hostname))
	if idx := strings.IndexByte(h, ':'); idx != -1 {
		h = h[:idx]
	}
	return strings.TrimPrefix(h, "www.")
}
