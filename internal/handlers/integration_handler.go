package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"catalog-sync-service/internal/clients"
	"catalog-sync-service/internal/clients/wildberries"
	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/repository"
	"catalog-sync-service/internal/secrets"
)

// IntegrationHandler handles marketplace integration endpoints
type IntegrationHandler struct {
	repo  repository.IntegrationRepositoryInterface
	vault *secrets.TokenVault
}

// NewIntegrationHandler creates a new integration handler
func NewIntegrationHandler(repo repository.IntegrationRepositoryInterface, vault *secrets.TokenVault) *IntegrationHandler {
	return &IntegrationHandler{repo: repo, vault: vault}
}

// CreateIntegrationRequest contains the data for registering an integration
type CreateIntegrationRequest struct {
	MarketplaceType models.MarketplaceType `json:"marketplaceType" binding:"required"`
	DisplayName     string                 `json:"displayName" binding:"required"`
	APIToken        string                 `json:"apiToken" binding:"required"`
	WarehouseID     string                 `json:"warehouseId,omitempty"`
	OwnerID         string                 `json:"ownerId,omitempty"`
	Settings        models.JSONB           `json:"settings,omitempty"`
}

// Create registers a new integration; the API token is sealed before it
// touches storage and the connection is verified before the row is saved
func (h *IntegrationHandler) Create(c *gin.Context) {
	tenantID := c.GetString("tenantId")

	var req CreateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client, err := buildClient(req.MarketplaceType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := client.Initialize(c.Request.Context(), map[string]interface{}{"api_token": req.APIToken}); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := models.IntegrationConnected
	lastError := ""
	if err := client.TestConnection(c.Request.Context()); err != nil {
		status = models.IntegrationError
		lastError = err.Error()
	}

	sealed, err := h.vault.Seal(req.APIToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to seal token"})
		return
	}

	integration := &models.Integration{
		TenantID:        tenantID,
		MarketplaceType: req.MarketplaceType,
		DisplayName:     req.DisplayName,
		Status:          status,
		IsEnabled:       true,
		SealedToken:     sealed,
		WarehouseID:     req.WarehouseID,
		OwnerID:         req.OwnerID,
		Settings:        req.Settings,
		LastError:       lastError,
	}
	if err := h.repo.Create(c.Request.Context(), integration); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": integration})
}

// List returns the tenant's integrations
func (h *IntegrationHandler) List(c *gin.Context) {
	tenantID := c.GetString("tenantId")

	integrations, err := h.repo.GetByTenant(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": integrations})
}

// Get returns a single integration
func (h *IntegrationHandler) Get(c *gin.Context) {
	integration, ok := h.loadForTenant(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": integration})
}

// UpdateIntegrationRequest contains the mutable integration fields
type UpdateIntegrationRequest struct {
	DisplayName *string      `json:"displayName,omitempty"`
	IsEnabled   *bool        `json:"isEnabled,omitempty"`
	APIToken    *string      `json:"apiToken,omitempty"`
	WarehouseID *string      `json:"warehouseId,omitempty"`
	OwnerID     *string      `json:"ownerId,omitempty"`
	Settings    models.JSONB `json:"settings,omitempty"`
}

// Update modifies an integration; a new token is sealed and re-verified
func (h *IntegrationHandler) Update(c *gin.Context) {
	integration, ok := h.loadForTenant(c)
	if !ok {
		return
	}

	var req UpdateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.DisplayName != nil {
		integration.DisplayName = *req.DisplayName
	}
	if req.IsEnabled != nil {
		integration.IsEnabled = *req.IsEnabled
	}
	if req.WarehouseID != nil {
		integration.WarehouseID = *req.WarehouseID
	}
	if req.OwnerID != nil {
		integration.OwnerID = *req.OwnerID
	}
	if req.Settings != nil {
		integration.Settings = req.Settings
	}
	if req.APIToken != nil {
		sealed, err := h.vault.Seal(*req.APIToken)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to seal token"})
			return
		}
		integration.SealedToken = sealed
		integration.Status = models.IntegrationPending
	}

	if err := h.repo.Update(c.Request.Context(), integration); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": integration})
}

// TestConnection re-verifies the integration's credentials
func (h *IntegrationHandler) TestConnection(c *gin.Context) {
	integration, ok := h.loadForTenant(c)
	if !ok {
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

	if err := client.TestConnection(c.Request.Context()); err != nil {
		integration.Status = models.IntegrationError
		integration.LastError = err.Error()
		_ = h.repo.Update(c.Request.Context(), integration)
		c.JSON(http.StatusOK, gin.H{"connected": false, "error": err.Error()})
		return
	}

	integration.Status = models.IntegrationConnected
	integration.LastError = ""
	_ = h.repo.Update(c.Request.Context(), integration)
	c.JSON(http.StatusOK, gin.H{"connected": true})
}

func (h *IntegrationHandler) loadForTenant(c *gin.Context) (*models.Integration, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}

	integration, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil || integration == nil || integration.TenantID != c.GetString("tenantId") {
		c.JSON(http.StatusNotFound, gin.H{"error": "integration not found"})
		return nil, false
	}
	return integration, true
}

func buildClient(mp models.MarketplaceType) (clients.MarketplaceClient, error) {
	switch mp {
	case models.MarketplaceWildberries:
		return wildberries.NewClient(), nil
	default:
		return nil, &clients.UnsupportedMarketplaceError{MarketplaceType: string(mp)}
	}
}
