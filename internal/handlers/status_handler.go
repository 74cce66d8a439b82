package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"catalog-sync-service/internal/services"
)

// StatusHandler exposes category sync readiness
type StatusHandler struct {
	service  *services.StatusService
	resolver *services.ResolverService
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(service *services.StatusService, resolver *services.ResolverService) *StatusHandler {
	return &StatusHandler{service: service, resolver: resolver}
}

// GetCategoryStatus evaluates one category's readiness for sync
func (h *StatusHandler) GetCategoryStatus(c *gin.Context) {
	tenantID := c.GetString("tenantId")

	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return
	}

	status, err := h.service.EvaluateCategory(c.Request.Context(), tenantID, categoryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

// GetAttributePlan returns the ordered attribute descriptors for a category.
// Admin wizards walk this list in order when collecting product data.
func (h *StatusHandler) GetAttributePlan(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return
	}

	plan, err := h.resolver.PlanFor(c.Request.Context(), categoryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": plan})
}
