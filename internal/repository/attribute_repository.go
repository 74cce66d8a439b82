package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"catalog-sync-service/internal/models"
)

// AttributeRepositoryInterface is the attribute dictionary surface consumed
// by the synchronization index and the import pipeline
type AttributeRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Attribute, error)
	GetByName(ctx context.Context, tenantID, name string) (*models.Attribute, error)
	CreateAttribute(ctx context.Context, attr *models.Attribute) error

	GetValueByID(ctx context.Context, id uuid.UUID) (*models.AttributeValue, error)
	ListValues(ctx context.Context, attributeID uuid.UUID) ([]models.AttributeValue, error)
	FindValueByNormalizedTitle(ctx context.Context, tenantID, attributeName, title string) (*models.AttributeValue, error)
	CreateValue(ctx context.Context, value *models.AttributeValue) error
}

// AttributeRepository handles database operations for attributes and values
type AttributeRepository struct {
	db *gorm.DB
}

var _ AttributeRepositoryInterface = (*AttributeRepository)(nil)

// NewAttributeRepository creates a new attribute repository
func NewAttributeRepository(db *gorm.DB) *AttributeRepository {
	return &AttributeRepository{db: db}
}

// GetByID retrieves an attribute with its values. Returns nil when it does
// not exist.
func (r *AttributeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Attribute, error) {
	var attr models.Attribute
	err := r.db.WithContext(ctx).
		Preload("Values").
		First(&attr, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attr, nil
}

// GetByName retrieves an attribute by its case-insensitive name. Returns nil
// when no attribute carries the name.
func (r *AttributeRepository) GetByName(ctx context.Context, tenantID, name string) (*models.Attribute, error) {
	var attr models.Attribute
	err := r.db.WithContext(ctx).
		Preload("Values").
		Where("tenant_id = ? AND LOWER(name) = ?", tenantID, strings.ToLower(name)).
		First(&attr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attr, nil
}

// CreateAttribute creates a new attribute
func (r *AttributeRepository) CreateAttribute(ctx context.Context, attr *models.Attribute) error {
	return r.db.WithContext(ctx).Create(attr).Error
}

// GetValueByID retrieves one attribute value. Returns nil when it does not
// exist.
func (r *AttributeRepository) GetValueByID(ctx context.Context, id uuid.UUID) (*models.AttributeValue, error) {
	var value models.AttributeValue
	err := r.db.WithContext(ctx).First(&value, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// ListValues retrieves all values of an attribute
func (r *AttributeRepository) ListValues(ctx context.Context, attributeID uuid.UUID) ([]models.AttributeValue, error) {
	var values []models.AttributeValue
	err := r.db.WithContext(ctx).
		Where("attribute_id = ?", attributeID).
		Order("created_at ASC").
		Find(&values).Error
	return values, err
}

// FindValueByNormalizedTitle finds a value of the named attribute by
// case-insensitive title match. Returns nil when the attribute or value is
// unknown.
func (r *AttributeRepository) FindValueByNormalizedTitle(ctx context.Context, tenantID, attributeName, title string) (*models.AttributeValue, error) {
	attr, err := r.GetByName(ctx, tenantID, attributeName)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		return nil, nil
	}
	var value models.AttributeValue
	err = r.db.WithContext(ctx).
		Where("attribute_id = ? AND LOWER(title) = ?", attr.ID, strings.ToLower(strings.TrimSpace(title))).
		First(&value).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// CreateValue creates a new attribute value
func (r *AttributeRepository) CreateValue(ctx context.Context, value *models.AttributeValue) error {
	return r.db.WithContext(ctx).Create(value).Error
}
