package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-sync-service/internal/services"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	concurrency *services.TenantSemaphore
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(concurrency *services.TenantSemaphore) *HealthHandler {
	return &HealthHandler{concurrency: concurrency}
}

// Health handles the health check endpoint
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "catalog-sync-service",
	})
}

// Ready handles the readiness check endpoint
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"service": "catalog-sync-service",
	})
}

// Concurrency reports active jobs per tenant and integration
func (h *HealthHandler) Concurrency(c *gin.Context) {
	c.JSON(http.StatusOK, h.concurrency.Stats())
}
