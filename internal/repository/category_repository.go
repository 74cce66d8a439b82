package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"catalog-sync-service/internal/models"
)

// CategoryRepositoryInterface is the category access surface consumed by the
// resolver and the status evaluator
type CategoryRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	GetByExternalID(ctx context.Context, mp models.MarketplaceType, externalID string) (*models.Category, error)
	ListAttributes(ctx context.Context, categoryID uuid.UUID) ([]models.CategoryAttribute, error)
}

// CategoryRepository handles database operations for categories
type CategoryRepository struct {
	db *gorm.DB
}

var _ CategoryRepositoryInterface = (*CategoryRepository)(nil)

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetByID retrieves a category with its attribute joins and marketplace maps
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Preload("Attributes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Attributes.Attribute").
		Preload("MarketplaceMaps").
		First(&category, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetByExternalID resolves a marketplace-native category id back to the
// internal category it is mapped to. Returns nil when no mapping exists.
func (r *CategoryRepository) GetByExternalID(ctx context.Context, mp models.MarketplaceType, externalID string) (*models.Category, error) {
	var mapping models.CategoryMarketplaceMap
	err := r.db.WithContext(ctx).
		Where("marketplace_type = ? AND external_category_id = ?", mp, externalID).
		First(&mapping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, mapping.CategoryID)
}

// ListAttributes retrieves the ordered attribute joins of a category
func (r *CategoryRepository) ListAttributes(ctx context.Context, categoryID uuid.UUID) ([]models.CategoryAttribute, error) {
	var attrs []models.CategoryAttribute
	err := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Preload("Attribute").
		Order("position ASC").
		Find(&attrs).Error
	return attrs, err
}
