package handlers

import (
	"net/http"

	"github.com/Dhoini/storefront-billing/internal/service"
	"github.com/Dhoini/storefront-billing/pkg/logger"
	"github.com/gin-gonic/gin"
)

// BillingHandler обработчик ручного запуска процессора биллинга
type BillingHandler struct {
	billingService service.BillingService
	log            *logger.Logger
}

// NewBillingHandler создает новый обработчик биллинга
func NewBillingHandler(billingService service.BillingService, log *logger.Logger) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		log:            log,
	}
}

// RunBilling обрабатывает POST /api/billing/run: запускает процессор
// немедленно и возвращает сводку по запуску. Конкурентный запуск безопасен:
// каждая подписка захватывается атомарно.
func (h *BillingHandler) RunBilling(c *gin.Context) {
	stats, err := h.billingService.ProcessDueSubscriptions(c.Request.Context())
	if err != nil {
		h.log.Errorw("Billing run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "billing run failed"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
