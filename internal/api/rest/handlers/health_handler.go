package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler обработчик проверки здоровья сервиса
type HealthHandler struct{}

// NewHealthHandler создает новый обработчик здоровья
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Health обрабатывает GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
