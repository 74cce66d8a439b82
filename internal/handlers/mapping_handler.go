package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/repository"
)

// MappingHandler exposes sync-state records and dictionary snapshots
type MappingHandler struct {
	mappingRepo repository.MappingRepositoryInterface
	dictRepo    repository.DictionaryRepositoryInterface
}

// NewMappingHandler creates a new mapping handler
func NewMappingHandler(mappingRepo repository.MappingRepositoryInterface, dictRepo repository.DictionaryRepositoryInterface) *MappingHandler {
	return &MappingHandler{mappingRepo: mappingRepo, dictRepo: dictRepo}
}

// ListForEntities returns the marketplace records for a set of entity ids
func (h *MappingHandler) ListForEntities(c *gin.Context) {
	integrationID, err := uuid.Parse(c.Query("integrationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "integrationId is required"})
		return
	}

	var entityIDs []uuid.UUID
	for _, raw := range strings.Split(c.Query("entityIds"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entity id " + raw})
			return
		}
		entityIDs = append(entityIDs, id)
	}
	if len(entityIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entityIds is required"})
		return
	}

	records, err := h.mappingRepo.GetMarketplaceProductsForEntities(c.Request.Context(), integrationID, entityIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}

// FindByBarcodes returns the marketplace records matching the given barcodes
func (h *MappingHandler) FindByBarcodes(c *gin.Context) {
	integrationID, err := uuid.Parse(c.Query("integrationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "integrationId is required"})
		return
	}

	var barcodes []string
	for _, b := range strings.Split(c.Query("barcodes"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			barcodes = append(barcodes, b)
		}
	}
	if len(barcodes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "barcodes is required"})
		return
	}

	records, err := h.mappingRepo.FindMarketplaceProductsByBarcodes(c.Request.Context(), integrationID, barcodes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}

// GetSyncLink returns the attribute sync link for one attribute
func (h *MappingHandler) GetSyncLink(c *gin.Context) {
	tenantID := c.GetString("tenantId")

	attributeID, err := uuid.Parse(c.Param("attributeId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attribute id"})
		return
	}
	mp := models.MarketplaceType(c.Query("marketplace"))
	if mp == "" {
		mp = models.MarketplaceWildberries
	}

	link, err := h.mappingRepo.GetSyncLink(c.Request.Context(), tenantID, attributeID, mp)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if link == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sync link for attribute"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": link})
}

// ListDictionaryValues returns the snapshot rows of one value dictionary
func (h *MappingHandler) ListDictionaryValues(c *gin.Context) {
	mp := models.MarketplaceType(c.Query("marketplace"))
	if mp == "" {
		mp = models.MarketplaceWildberries
	}
	dictionaryID := c.Param("dictionaryId")
	if dictionaryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dictionary id is required"})
		return
	}

	rows, err := h.dictRepo.ListValuesOf(c.Request.Context(), mp, dictionaryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}
