package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"catalog-sync-service/internal/models"
)

// IntegrationRepositoryInterface is the integration access surface
type IntegrationRepositoryInterface interface {
	Create(ctx context.Context, integration *models.Integration) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Integration, error)
	GetByTenant(ctx context.Context, tenantID string) ([]models.Integration, error)
	ListEnabled(ctx context.Context) ([]models.Integration, error)
	Update(ctx context.Context, integration *models.Integration) error
	RecordError(ctx context.Context, id uuid.UUID, message string) error
}

// IntegrationRepository handles database operations for marketplace
// integrations
type IntegrationRepository struct {
	db *gorm.DB
}

var _ IntegrationRepositoryInterface = (*IntegrationRepository)(nil)

// NewIntegrationRepository creates a new integration repository
func NewIntegrationRepository(db *gorm.DB) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

// Create creates a new integration
func (r *IntegrationRepository) Create(ctx context.Context, integration *models.Integration) error {
	return r.db.WithContext(ctx).Create(integration).Error
}

// GetByID retrieves an integration by ID. Returns nil when it does not exist.
func (r *IntegrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Integration, error) {
	var integration models.Integration
	err := r.db.WithContext(ctx).First(&integration, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &integration, nil
}

// GetByTenant retrieves all integrations for a tenant
func (r *IntegrationRepository) GetByTenant(ctx context.Context, tenantID string) ([]models.Integration, error) {
	var integrations []models.Integration
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&integrations).Error
	return integrations, err
}

// ListEnabled retrieves enabled integrations across tenants, for the
// scheduler
func (r *IntegrationRepository) ListEnabled(ctx context.Context) ([]models.Integration, error) {
	var integrations []models.Integration
	err := r.db.WithContext(ctx).
		Where("is_enabled = ? AND status = ?", true, models.IntegrationConnected).
		Find(&integrations).Error
	return integrations, err
}

// Update updates an existing integration
func (r *IntegrationRepository) Update(ctx context.Context, integration *models.Integration) error {
	return r.db.WithContext(ctx).Save(integration).Error
}

// RecordError stores the last error and bumps the error counter
func (r *IntegrationRepository) RecordError(ctx context.Context, id uuid.UUID, message string) error {
	return r.db.WithContext(ctx).
		Model(&models.Integration{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_error":  message,
			"error_count": gorm.Expr("error_count + 1"),
			"updated_at":  time.Now(),
		}).Error
}
