package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"catalog-sync-service/internal/repository"
	"catalog-sync-service/internal/secrets"
)

// OrdersHandler proxies new marketplace orders to callers. Order processing
// itself is owned by a collaborator service; this endpoint only fetches.
type OrdersHandler struct {
	repo  repository.IntegrationRepositoryInterface
	vault *secrets.TokenVault
}

// NewOrdersHandler creates a new orders handler
func NewOrdersHandler(repo repository.IntegrationRepositoryInterface, vault *secrets.TokenVault) *OrdersHandler {
	return &OrdersHandler{repo: repo, vault: vault}
}

// ListNewOrders fetches new orders from the marketplace
func (h *OrdersHandler) ListNewOrders(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	integration, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil || integration == nil || integration.TenantID != c.GetString("tenantId") {
		c.JSON(http.StatusNotFound, gin.H{"error": "integration not found"})
		return
	}

	token, err := h.vault.Open(integration.SealedToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token unseal failed"})
		return
	}

	client, err := buildClient(integration.MarketplaceType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := client.Initialize(c.Request.Context(), map[string]interface{}{"api_token": token}); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dateFrom := time.Now().Add(-24 * time.Hour)
	if raw := c.Query("dateFrom"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dateFrom must be RFC3339"})
			return
		}
		dateFrom = parsed
	}

	page, err := client.FetchOrders(c.Request.Context(), dateFrom, c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": page})
}
