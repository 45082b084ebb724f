package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dhoini/storefront-billing/internal/config"
	"github.com/Dhoini/storefront-billing/internal/integration/primer"
	"github.com/Dhoini/storefront-billing/internal/kafka"
	"github.com/Dhoini/storefront-billing/internal/metrics"
	"github.com/Dhoini/storefront-billing/internal/repository"
	"github.com/Dhoini/storefront-billing/internal/service"
	"github.com/Dhoini/storefront-billing/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_test"

func newTestLogger() *logger.Logger {
	log := logger.New(logger.ERROR)
	log.SetOutput(io.Discard)
	return log
}

// webhookTestServer HTTP-обвязка обработчика вебхуков на in-memory хранилище
type webhookTestServer struct {
	router        *gin.Engine
	subscriptions *repository.InMemorySubscriptionRepository
}

func newWebhookTestServer(t *testing.T) *webhookTestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := newTestLogger()
	subs := repository.NewInMemorySubscriptionRepository(log)
	products := repository.NewInMemoryProductRepository(log)
	billingMetrics := metrics.NewBillingMetrics(prometheus.NewRegistry(), log)
	defaults := config.BillingConfig{DefaultAmountCents: 499, DefaultCurrency: "USD", DefaultCycleDays: 30}

	webhookService := service.NewWebhookService(subs, products, kafka.NoOpProducer{}, billingMetrics, defaults, log)
	verifier := primer.NewSignatureVerifier(webhookSecret, log)
	handler := NewWebhookHandler(webhookService, verifier, log)

	router := gin.New()
	router.POST("/api/webhooks/primer", handler.HandlePrimerWebhook)

	return &webhookTestServer{router: router, subscriptions: subs}
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *webhookTestServer) post(body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/primer", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Primer-Signature", signature)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestWebhookHandlerAcceptsSignedEvent(t *testing.T) {
	srv := newWebhookTestServer(t)
	body := []byte(`{"type":"PAYMENT.SUCCESS","payment":{"id":"pay_1","paymentMethodToken":"tok_abc"}}`)

	w := srv.post(body, signBody(webhookSecret, body))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"created"`)

	sub, err := srv.subscriptions.GetByPaymentID(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.Equal(t, "tok_abc", sub.PrimerPaymentMethodToken)
}

func TestWebhookHandlerMissingSignature(t *testing.T) {
	srv := newWebhookTestServer(t)
	body := []byte(`{"type":"PAYMENT.SUCCESS","payment":{"id":"pay_1","paymentMethodToken":"tok_abc"}}`)

	w := srv.post(body, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing webhook signature")
	_, err := srv.subscriptions.GetByPaymentID(context.Background(), "pay_1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWebhookHandlerInvalidSignature(t *testing.T) {
	srv := newWebhookTestServer(t)
	body := []byte(`{"type":"PAYMENT.SUCCESS","payment":{"id":"pay_1","paymentMethodToken":"tok_abc"}}`)

	w := srv.post(body, signBody("wrong_secret", body))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid webhook signature")
}

func TestWebhookHandlerSignatureWithPrefix(t *testing.T) {
	srv := newWebhookTestServer(t)
	body := []byte(`{"type":"PAYMENT.SUCCESS","payment":{"id":"pay_1","paymentMethodToken":"tok_abc"}}`)

	w := srv.post(body, "sha256="+signBody(webhookSecret, body))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookHandlerMalformedJSON(t *testing.T) {
	srv := newWebhookTestServer(t)
	body := []byte(`{not valid json`)

	w := srv.post(body, signBody(webhookSecret, body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookHandlerMissingToken(t *testing.T) {
	srv := newWebhookTestServer(t)
	body := []byte(`{"type":"PAYMENT.SUCCESS","payment":{"id":"pay_1"}}`)

	w := srv.post(body, signBody(webhookSecret, body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookHandlerIgnoredEventType(t *testing.T) {
	srv := newWebhookTestServer(t)
	body := []byte(`{"type":"PAYMENT.FAILED","payment":{"id":"pay_1","paymentMethodToken":"tok_abc"}}`)

	w := srv.post(body, signBody(webhookSecret, body))

	// Игнорируемые события подтверждаются, чтобы отправитель не ретраил
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ignored"`)
}

func TestWebhookHandlerDuplicateDelivery(t *testing.T) {
	srv := newWebhookTestServer(t)
	body := []byte(`{"type":"PAYMENT.SUCCESS","payment":{"id":"pay_dup","paymentMethodToken":"tok_abc"}}`)
	signature := signBody(webhookSecret, body)

	first := srv.post(body, signature)
	require.Equal(t, http.StatusOK, first.Code)

	second := srv.post(body, signature)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), `"duplicate"`)

	sub, err := srv.subscriptions.GetByPaymentID(context.Background(), "pay_dup")
	require.NoError(t, err)
	assert.NotNil(t, sub)
}

func TestWebhookHandlerUnconfiguredSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := newTestLogger()
	subs := repository.NewInMemorySubscriptionRepository(log)
	products := repository.NewInMemoryProductRepository(log)
	billingMetrics := metrics.NewBillingMetrics(prometheus.NewRegistry(), log)

	webhookService := service.NewWebhookService(subs, products, kafka.NoOpProducer{}, billingMetrics, config.BillingConfig{}, log)
	handler := NewWebhookHandler(webhookService, primer.NewSignatureVerifier("", log), log)

	router := gin.New()
	router.POST("/api/webhooks/primer", handler.HandlePrimerWebhook)

	body := []byte(`{"type":"PAYMENT.SUCCESS","payment":{"id":"pay_1","paymentMethodToken":"tok_abc"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/primer", bytes.NewReader(body))
	req.Header.Set("X-Primer-Signature", signBody("whatever", body))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Отсутствие секрета - ошибка деплоя, а не отправителя
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
