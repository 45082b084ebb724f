package service

import (
	"context"
	"testing"

	"github.com/Dhoini/storefront-billing/internal/domain"
	"github.com/Dhoini/storefront-billing/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckoutFixture(t *testing.T) (CheckoutService, *repository.InMemoryProductRepository, *fakeGateway) {
	t.Helper()
	log := newTestLogger()
	products := repository.NewInMemoryProductRepository(log)
	gateway := newFakeGateway()
	svc := NewCheckoutService(products, gateway, testBillingDefaults(), log)
	return svc, products, gateway
}

func TestCreateClientSessionWithResolvedProduct(t *testing.T) {
	svc, products, gateway := newCheckoutFixture(t)
	require.NoError(t, products.Put(context.Background(), domain.Product{
		Identifier:  "vitamin-pack",
		Name:        "Vitamin Pack",
		AmountCents: 1299,
		Currency:    "EUR",
		Hostnames:   []string{"vitamins.example.com"},
		Active:      true,
	}))

	token, err := svc.CreateClientSession(context.Background(), "vitamins.example.com", "buyer@shop.io")
	require.NoError(t, err)
	assert.Equal(t, "client-token-test", token)

	sessions := gateway.sessionRequests()
	require.Len(t, sessions, 1)
	req := sessions[0]

	assert.Equal(t, int64(1299), req.Amount)
	assert.Equal(t, "EUR", req.CurrencyCode)
	assert.Equal(t, "buyer@shop.io", req.Customer.EmailAddress)
	assert.Equal(t, "vitamin-pack", req.Metadata["product_id"])
	require.Len(t, req.Order.LineItems, 1)
	assert.Equal(t, "Vitamin Pack", req.Order.LineItems[0].Name)
	assert.NotEmpty(t, req.OrderID)
}

func TestCreateClientSessionUnknownHostnameFallsBack(t *testing.T) {
	svc, _, gateway := newCheckoutFixture(t)

	token, err := svc.CreateClientSession(context.Background(), "unknown.example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "client-token-test", token)

	sessions := gateway.sessionRequests()
	require.Len(t, sessions, 1)
	req := sessions[0]

	// Цена по умолчанию, чекаут остается работоспособным
	assert.Equal(t, int64(499), req.Amount)
	assert.Equal(t, "USD", req.CurrencyCode)
	assert.Equal(t, DefaultCheckoutEmail, req.Customer.EmailAddress)
	require.Len(t, req.Order.LineItems, 1)
	assert.Equal(t, "shipping-fee", req.Order.LineItems[0].ItemID)
	assert.NotContains(t, req.Metadata, "product_id")
}

func TestCreateClientSessionNormalizesHostname(t *testing.T) {
	svc, products, gateway := newCheckoutFixture(t)
	require.NoError(t, products.Put(context.Background(), domain.Product{
		Identifier:  "vitamin-pack",
		Name:        "Vitamin Pack",
		AmountCents: 1299,
		Currency:    "EUR",
		Hostnames:   []string{"vitamins.example.com"},
		Active:      true,
	}))

	_, err := svc.CreateClientSession(context.Background(), "WWW.Vitamins.Example.Com:443", "buyer@shop.io")
	require.NoError(t, err)

	sessions := gateway.sessionRequests()
	require.Len(t, sessions, 1)
	assert.Equal(t, "vitamin-pack", sessions[0].Metadata["product_id"])
}

func TestPageData(t *testing.T) {
	svc, products, _ := newCheckoutFixture(t)
	require.NoError(t, products.Put(context.Background(), domain.Product{
		Identifier: "vitamin-pack",
		Name:       "Vitamin Pack",
		Hostnames:  []string{"vitamins.example.com"},
		Active:     true,
	}))

	t.Run("resolves product by hostname", func(t *testing.T) {
		product, err := svc.PageData(context.Background(), "vitamins.example.com")
		require.NoError(t, err)
		assert.Equal(t, "vitamin-pack", product.Identifier)
	})

	t.Run("unknown hostname", func(t *testing.T) {
		_, err := svc.PageData(context.Background(), "missing.example.com")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
