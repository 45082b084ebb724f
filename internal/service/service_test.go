package service

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Dhoini/storefront-billing/internal/config"
	"github.com/Dhoini/storefront-billing/internal/integration/primer"
	"github.com/Dhoini/storefront-billing/internal/metrics"
	"github.com/Dhoini/storefront-billing/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
)

// Общие помощники для тестов сервисного слоя

func newTestLogger() *logger.Logger {
	log := logger.New(logger.ERROR)
	log.SetOutput(io.Discard)
	return log
}

func newTestMetrics() metrics.BillingMetrics {
	return metrics.NewBillingMetrics(prometheus.NewRegistry(), newTestLogger())
}

func testBillingDefaults() config.BillingConfig {
	return config.BillingConfig{
		DefaultAmountCents: 499,
		DefaultCurrency:    "USD",
		DefaultCycleDays:   30,
	}
}

// fakeGateway заглушка платежного шлюза, запоминающая все запросы
type fakeGateway struct {
	mu       sync.Mutex
	payments []primer.PaymentRequest
	sessions []primer.ClientSessionRequest

	// failTokens токены, для которых списание должно завершиться неудачей
	failTokens map[string]error

	// panicTokens токены, для которых списание должно завершиться паникой
	panicTokens map[string]bool

	sessionToken string
	sessionErr   error

	counter int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		failTokens:   make(map[string]error),
		panicTokens:  make(map[string]bool),
		sessionToken: "client-token-test",
	}
}

func (g *fakeGateway) CreatePayment(ctx context.Context, req primer.PaymentRequest) (*primer.PaymentResponse, error) {
	g.mu.Lock()
	g.payments = append(g.payments, req)
	shouldPanic := g.panicTokens[req.PaymentMethodToken]
	failErr, shouldFail := g.failTokens[req.PaymentMethodToken]
	g.counter++
	paymentID := fmt.Sprintf("pay_%d", g.counter)
	g.mu.Unlock()

	if shouldPanic {
		panic("gateway connection state corrupted")
	}
	if shouldFail {
		return nil, failErr
	}

	return &primer.PaymentResponse{
		ID:     paymentID,
		Status: "SETTLED",
	}, nil
}

func (g *fakeGateway) CreateClientSession(ctx context.Context, req primer.ClientSessionRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sessions = append(g.sessions, req)
	if g.sessionErr != nil {
		return "", g.sessionErr
	}
	return g.sessionToken, nil
}

func (g *fakeGateway) paymentRequests() []primer.PaymentRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]primer.PaymentRequest(nil), g.payments...)
}

func (g *fakeGateway) sessionRequests() []primer.ClientSessionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]primer.ClientSessionRequest(nil), g.sessions...)
}
