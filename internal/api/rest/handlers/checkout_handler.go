package handlers

import (
	"errors"
	"net/http"

	"github.com/Dhoini/storefront-billing/internal/api/rest/middleware"
	"github.com/Dhoini/storefront-billing/internal/domain"
	"github.com/Dhoini/storefront-billing/internal/service"
	"github.com/Dhoini/storefront-billing/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// CheckoutHandler обработчик операций витрины
type CheckoutHandler struct {
	checkoutService service.CheckoutService
	log             *logger.Logger
}

// NewCheckoutHandler создает новый обработчик чекаута
func NewCheckoutHandler(checkoutService service.CheckoutService, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		log:             log,
	}
}

// clientSessionRequest тело запроса на создание клиентской сессии
type clientSessionRequest struct {
	CustomerEmail string `json:"customerEmail" binding:"omitempty,email"`
}

// CreateClientSession обрабатывает POST /api/checkout/client-session
func (h *CheckoutHandler) CreateClientSession(c *gin.Context) {
	var req clientSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "customerEmail must be a valid email address"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	hostname := middleware.HostnameFromContext(c)
	token, err := h.checkoutService.CreateClientSession(c.Request.Context(), hostname, req.CustomerEmail)
	if err != nil {
		if errors.Is(err, domain.ErrAPIKeyNotConfigured) {
			h.log.Error("Client session requested but gateway API key is not configured")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "payment gateway is not configured"})
			return
		}
		h.log.Errorw("Failed to create client session", "hostname", hostname, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create client session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"clientToken": token})
}

// PageData обрабатывает GET /api/page-data: разрешает домен витрины
// в продукт для рендеринга страницы
func (h *CheckoutHandler) PageData(c *gin.Context) {
	hostname := middleware.HostnameFromContext(c)

	product, err := h.checkoutService.PageData(c.Request.Context(), hostname)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no product configured for this hostname"})
			return
		}
		h.log.Errorw("Failed to resolve page data", "hostname", hostname, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve page data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hostname": hostname,
		"product":  product,
	})
}
