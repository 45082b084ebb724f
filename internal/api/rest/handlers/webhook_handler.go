package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Dhoini/storefront-billing/internal/domain"
	"github.com/Dhoini/storefront-billing/internal/integration/primer"
	"github.com/Dhoini/storefront-billing/internal/service"
	"github.com/Dhoini/storefront-billing/pkg/logger"
	"github.com/gin-gonic/gin"
)

// maxWebhookBodySize предельный размер тела вебхука
const maxWebhookBodySize = 1 << 20 // 1 MB

// WebhookHandler обработчик вебхуков платежного шлюза
type WebhookHandler struct {
	webhookService service.WebhookService
	verifier       *primer.SignatureVerifier
	log            *logger.Logger
}

// NewWebhookHandler создает новый обработчик вебхуков
func NewWebhookHandler(webhookService service.WebhookService, verifier *primer.SignatureVerifier, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		verifier:       verifier,
		log:            log,
	}
}

// HandlePrimerWebhook обрабатывает POST /api/webhooks/primer.
// Подпись проверяется по сырому телу запроса до парсинга JSON.
// 200 означает "доставлено и учтено", в том числе для игнорируемых типов
// и повторных доставок: отправитель не должен ретраить такие события.
func (h *WebhookHandler) HandlePrimerWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodySize))
	if err != nil {
		h.log.Errorw("Failed to read webhook body", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read request body"})
		return
	}

	signature := primer.SignatureFromRequest(c.Request)
	if signature == "" {
		h.log.Warn("Webhook request without signature rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrMissingSignature.Error()})
		return
	}

	valid, err := h.verifier.Verify(body, signature)
	if err != nil {
		// Секрет не сконфигурирован - это проблема деплоя, а не отправителя
		h.log.Errorw("Webhook verification is not possible", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook verification is not configured"})
		return
	}
	if !valid {
		h.log.Warn("Webhook request with invalid signature rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrInvalidSignature.Error()})
		return
	}

	var event domain.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.log.Warnw("Webhook body is not valid JSON", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	sub, outcome, err := h.webhookService.ProcessEvent(c.Request.Context(), &event)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentTokenMissing) || errors.Is(err, domain.ErrPaymentDataMissing) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Errorw("Failed to process webhook event", "error", err)
		// 500 сигнализирует отправителю, что доставку нужно повторить
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
		return
	}

	resp := gin.H{"status": "ok", "result": string(outcome)}
	if sub != nil {
		resp["subscription_id"] = sub.SubscriptionID
	}
	c.JSON(http.StatusOK, resp)
}
