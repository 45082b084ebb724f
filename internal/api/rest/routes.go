package rest

import (
	"github.com/Dhoini/storefront-billing/internal/api/rest/handlers"
	"github.com/Dhoini/storefront-billing/internal/api/rest/middleware"
	"github.com/Dhoini/storefront-billing/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers набор обработчиков для регистрации маршрутов
type Handlers struct {
	Webhook  *handlers.WebhookHandler
	Billing  *handlers.BillingHandler
	Checkout *handlers.CheckoutHandler
	Health   *handlers.HealthHandler
}

// SetupRouter создает gin-роутер со всеми маршрутами сервиса
func SetupRouter(h Handlers, registry *prometheus.Registry, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(log))

	router.GET("/health", h.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	{
		// Вебхуки не зависят от домена витрины
		api.POST("/webhooks/primer", h.Webhook.HandlePrimerWebhook)
		api.POST("/billing/run", h.Billing.RunBilling)

		storefront := api.Group("")
		storefront.Use(middleware.HostnameMiddleware())
		{
			storefront.POST("/checkout/client-session", h.Checkout.CreateClientSession)
			storefront.GET("/page-data", h.Checkout.PageData)
		}
	}

	return router
}
