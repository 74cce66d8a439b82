package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"catalog-sync-service/internal/models"
)

// CatalogRepositoryInterface is the catalog access surface consumed by the
// export/import pipelines
type CatalogRepositoryInterface interface {
	GetProductsByIDs(ctx context.Context, tenantID string, ids []uuid.UUID) ([]models.Product, error)
	GetProductsBySKU(ctx context.Context, tenantID, sku string) ([]models.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListActiveProductIDs(ctx context.Context, tenantID string) ([]uuid.UUID, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error

	CreateVariation(ctx context.Context, variation *models.Variation) error
	UpdateVariation(ctx context.Context, variation *models.Variation) error

	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
	FindItemsByBarcodes(ctx context.Context, tenantID string, barcodes []string) ([]models.Item, error)

	GetGroupBySKU(ctx context.Context, tenantID, sku string) (*models.ProductGroup, error)
	UpsertGroup(ctx context.Context, group *models.ProductGroup) error
}

// CatalogRepository handles database operations for the product tree
type CatalogRepository struct {
	db *gorm.DB
}

var _ CatalogRepositoryInterface = (*CatalogRepository)(nil)

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetProductsByIDs loads products with their full variation/item tree
func (r *CatalogRepository) GetProductsByIDs(ctx context.Context, tenantID string, ids []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Preload("Variations", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Variations.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Find(&products).Error
	return products, err
}

// ListActiveProductIDs returns the ids of all active products of a tenant,
// in creation order. Used by scheduled exports.
func (r *CatalogRepository) ListActiveProductIDs(ctx context.Context, tenantID string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("tenant_id = ? AND status = ?", tenantID, models.ProductStatusActive).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// GetProductsBySKU retrieves all live products carrying the given SKU
func (r *CatalogRepository) GetProductsBySKU(ctx context.Context, tenantID, sku string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sku = ? AND status <> ?", tenantID, sku, models.ProductStatusArchived).
		Preload("Variations").
		Preload("Variations.Items").
		Find(&products).Error
	return products, err
}

// GetProductByID retrieves one product with its tree. Returns nil when the
// product does not exist.
func (r *CatalogRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variations").
		Preload("Variations.Items").
		First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct creates a new product
func (r *CatalogRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// UpdateProduct updates an existing product
func (r *CatalogRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// CreateVariation creates a new variation
func (r *CatalogRepository) CreateVariation(ctx context.Context, variation *models.Variation) error {
	return r.db.WithContext(ctx).Create(variation).Error
}

// UpdateVariation updates an existing variation
func (r *CatalogRepository) UpdateVariation(ctx context.Context, variation *models.Variation) error {
	return r.db.WithContext(ctx).Save(variation).Error
}

// CreateItem creates a new item
func (r *CatalogRepository) CreateItem(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateItem updates an existing item
func (r *CatalogRepository) UpdateItem(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// FindItemsByBarcodes resolves barcodes to items with their variation and
// product preloaded, so callers can walk up the tree
func (r *CatalogRepository) FindItemsByBarcodes(ctx context.Context, tenantID string, barcodes []string) ([]models.Item, error) {
	if len(barcodes) == 0 {
		return nil, nil
	}
	var items []models.Item
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND barcode IN ?", tenantID, barcodes).
		Preload("Variation").
		Preload("Variation.Product").
		Find(&items).Error
	return items, err
}

// GetGroupBySKU retrieves the dedup group for a SKU. Returns nil when no
// group exists yet.
func (r *CatalogRepository) GetGroupBySKU(ctx context.Context, tenantID, sku string) (*models.ProductGroup, error) {
	var group models.ProductGroup
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sku = ?", tenantID, sku).
		First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// UpsertGroup creates or updates a dedup group; groups are never deleted here
// and an existing main election is never cleared by an upsert without one
func (r *CatalogRepository) UpsertGroup(ctx context.Context, group *models.ProductGroup) error {
	assignments := []string{"updated_at"}
	if group.MainProductID != nil {
		assignments = append(assignments, "main_product_id")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "sku"}},
		DoUpdates: clause.AssignmentColumns(assignments),
	}).Create(group).Error
}
