package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"catalog-sync-service/internal/models"
)

// DictionaryRepositoryInterface is the snapshot-store surface consumed by the
// synchronization index and the import pipeline
type DictionaryRepositoryInterface interface {
	Upsert(ctx context.Context, row *models.Dictionary) error
	GetByExternalID(ctx context.Context, mp models.MarketplaceType, kind models.DictionaryKind, externalID string) (*models.Dictionary, error)
	ListValuesOf(ctx context.Context, mp models.MarketplaceType, parentExternalID string) ([]models.Dictionary, error)
	FindByTitle(ctx context.Context, mp models.MarketplaceType, kind models.DictionaryKind, title string) (*models.Dictionary, error)
}

// DictionaryRepository handles database operations for marketplace taxonomy
// snapshots
type DictionaryRepository struct {
	db *gorm.DB
}

var _ DictionaryRepositoryInterface = (*DictionaryRepository)(nil)

// NewDictionaryRepository creates a new dictionary repository
func NewDictionaryRepository(db *gorm.DB) *DictionaryRepository {
	return &DictionaryRepository{db: db}
}

// Upsert creates or refreshes a snapshot row keyed by
// (marketplace, kind, external id)
func (r *DictionaryRepository) Upsert(ctx context.Context, row *models.Dictionary) error {
	row.FetchedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "marketplace_type"}, {Name: "kind"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "base_form", "parent_external_id", "is_stub", "raw", "fetched_at", "updated_at"}),
	}).Create(row).Error
}

// GetByExternalID retrieves one snapshot row. Returns nil when the taxonomy
// entry has never been cached.
func (r *DictionaryRepository) GetByExternalID(ctx context.Context, mp models.MarketplaceType, kind models.DictionaryKind, externalID string) (*models.Dictionary, error) {
	var row models.Dictionary
	err := r.db.WithContext(ctx).
		Where("marketplace_type = ? AND kind = ? AND external_id = ?", mp, kind, externalID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListValuesOf retrieves all cached values of one marketplace attribute
// dictionary
func (r *DictionaryRepository) ListValuesOf(ctx context.Context, mp models.MarketplaceType, parentExternalID string) ([]models.Dictionary, error) {
	var rows []models.Dictionary
	err := r.db.WithContext(ctx).
		Where("marketplace_type = ? AND kind = ? AND parent_external_id = ?", mp, models.DictionaryKindValue, parentExternalID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// FindByTitle finds a snapshot row by case-insensitive title. Returns nil
// when no row matches.
func (r *DictionaryRepository) FindByTitle(ctx context.Context, mp models.MarketplaceType, kind models.DictionaryKind, title string) (*models.Dictionary, error) {
	var row models.Dictionary
	err := r.db.WithContext(ctx).
		Where("marketplace_type = ? AND kind = ? AND LOWER(title) = ?", mp, kind, strings.ToLower(strings.TrimSpace(title))).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
