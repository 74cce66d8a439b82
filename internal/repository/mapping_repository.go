package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"catalog-sync-service/internal/models"
)

// MappingRepositoryInterface is the sync-state surface consumed by both
// pipelines: idempotency records and lazy attribute links
type MappingRepositoryInterface interface {
	UpsertMarketplaceProduct(ctx context.Context, record *models.MarketplaceProduct) error
	GetMarketplaceProduct(ctx context.Context, integrationID, entityID uuid.UUID, tier models.EntityTier) (*models.MarketplaceProduct, error)
	GetMarketplaceProductsForEntities(ctx context.Context, integrationID uuid.UUID, entityIDs []uuid.UUID) ([]models.MarketplaceProduct, error)
	FindMarketplaceProductsByBarcodes(ctx context.Context, integrationID uuid.UUID, barcodes []string) ([]models.MarketplaceProduct, error)

	GetSyncLink(ctx context.Context, tenantID string, attributeID uuid.UUID, mp models.MarketplaceType) (*models.AttributeSyncLink, error)
	CreateSyncLinkIfAbsent(ctx context.Context, link *models.AttributeSyncLink) error
}

// MappingRepository handles database operations for sync-state records
type MappingRepository struct {
	db *gorm.DB
}

var _ MappingRepositoryInterface = (*MappingRepository)(nil)

// NewMappingRepository creates a new mapping repository
func NewMappingRepository(db *gorm.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

// UpsertMarketplaceProduct creates or updates the idempotency record for one
// (integration, entity, tier). A learned external id is kept: the update never
// overwrites a non-empty external_id with an empty one.
func (r *MappingRepository) UpsertMarketplaceProduct(ctx context.Context, record *models.MarketplaceProduct) error {
	now := time.Now()
	record.LastSyncedAt = &now

	assignments := []string{"sku", "barcodes", "status", "raw_snapshot", "last_synced_at", "updated_at"}
	if record.ExternalID != "" {
		assignments = append(assignments, "external_id")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "integration_id"}, {Name: "entity_id"}, {Name: "tier"}},
		DoUpdates: clause.AssignmentColumns(assignments),
	}).Create(record).Error
}

// GetMarketplaceProduct retrieves the record for one (entity, tier). Returns
// nil when the entity has never been synced.
func (r *MappingRepository) GetMarketplaceProduct(ctx context.Context, integrationID, entityID uuid.UUID, tier models.EntityTier) (*models.MarketplaceProduct, error) {
	var record models.MarketplaceProduct
	err := r.db.WithContext(ctx).
		Where("integration_id = ? AND entity_id = ? AND tier = ?", integrationID, entityID, tier).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetMarketplaceProductsForEntities retrieves records for a set of entities
// across all tiers
func (r *MappingRepository) GetMarketplaceProductsForEntities(ctx context.Context, integrationID uuid.UUID, entityIDs []uuid.UUID) ([]models.MarketplaceProduct, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}
	var records []models.MarketplaceProduct
	err := r.db.WithContext(ctx).
		Where("integration_id = ? AND entity_id IN ?", integrationID, entityIDs).
		Find(&records).Error
	return records, err
}

// FindMarketplaceProductsByBarcodes finds records whose barcode list
// intersects the given set
func (r *MappingRepository) FindMarketplaceProductsByBarcodes(ctx context.Context, integrationID uuid.UUID, barcodes []string) ([]models.MarketplaceProduct, error) {
	if len(barcodes) == 0 {
		return nil, nil
	}
	var records []models.MarketplaceProduct
	query := r.db.WithContext(ctx).Where("integration_id = ?", integrationID)

	sub := r.db.Where("1 = 0")
	for _, barcode := range barcodes {
		sub = sub.Or(gorm.Expr("barcodes @> ?", `["`+barcode+`"]`))
	}
	err := query.Where(sub).Find(&records).Error
	return records, err
}

// GetSyncLink retrieves the stored attribute link for a marketplace. Returns
// nil when no link has been created yet.
func (r *MappingRepository) GetSyncLink(ctx context.Context, tenantID string, attributeID uuid.UUID, mp models.MarketplaceType) (*models.AttributeSyncLink, error) {
	var link models.AttributeSyncLink
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND attribute_id = ? AND marketplace_type = ?", tenantID, attributeID, mp).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// CreateSyncLinkIfAbsent persists a lazily created link. An existing link is
// never overwritten.
func (r *MappingRepository) CreateSyncLinkIfAbsent(ctx context.Context, link *models.AttributeSyncLink) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attribute_id"}, {Name: "marketplace_type"}},
		DoNothing: true,
	}).Create(link).Error
}
