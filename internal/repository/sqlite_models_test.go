package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLite-compatible shadows of the production models. The production structs
// carry postgres column defaults (gen_random_uuid, jsonb) that SQLite cannot
// migrate, so tests migrate these and run the repositories against the same
// table names.

type productSQLite struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID        string    `gorm:"not null;index"`
	SKU             string    `gorm:"not null;index"`
	Title           string    `gorm:"not null"`
	Description     *string
	Brand           *string
	Keywords        *string
	Country         *string
	CategoryID      *uuid.UUID `gorm:"type:uuid"`
	Composition     string     `gorm:"type:text"`
	WeightGrams     *int
	LengthMM        *int
	WidthMM         *int
	HeightMM        *int
	AttributeValues string `gorm:"type:text"`
	Status          string `gorm:"not null;default:'ACTIVE'"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (productSQLite) TableName() string {
	return "catalog_products"
}

type variationSQLite struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID        string    `gorm:"not null;index"`
	ProductID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Name            string
	IsActive        bool   `gorm:"default:true"`
	MediaURLs       string `gorm:"type:text"`
	AttributeValues string `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (variationSQLite) TableName() string {
	return "catalog_variations"
}

type itemSQLite struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID        string    `gorm:"not null;index"`
	VariationID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Barcode         string    `gorm:"not null;uniqueIndex"`
	TechSize        string
	Price           string `gorm:"type:text"`
	Stock           int    `gorm:"default:0"`
	AttributeValues string `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (itemSQLite) TableName() string {
	return "catalog_items"
}

type productGroupSQLite struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID      string    `gorm:"not null;uniqueIndex:idx_product_groups_sku"`
	SKU           string    `gorm:"not null;uniqueIndex:idx_product_groups_sku"`
	MainProductID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (productGroupSQLite) TableName() string {
	return "catalog_product_groups"
}

type marketplaceProductSQLite struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID      string    `gorm:"not null;index"`
	IntegrationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_mp_products_entity"`
	EntityID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_mp_products_entity"`
	Tier          string    `gorm:"not null;uniqueIndex:idx_mp_products_entity"`
	ExternalID    string    `gorm:"index"`
	SKU           string    `gorm:"index"`
	Barcodes      string    `gorm:"type:text"`
	Status        string    `gorm:"default:'PENDING'"`
	RawSnapshot   string    `gorm:"type:text"`
	LastSyncedAt  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (marketplaceProductSQLite) TableName() string {
	return "catalog_marketplace_products"
}

type attributeSyncLinkSQLite struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID               string    `gorm:"not null;index"`
	AttributeID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attr_sync_links_key"`
	MarketplaceType        string    `gorm:"not null;uniqueIndex:idx_attr_sync_links_key"`
	SystemAttributeID      *uuid.UUID `gorm:"type:uuid"`
	MarketplaceAttributeID string    `gorm:"not null"`
	CreatedAt              time.Time
}

func (attributeSyncLinkSQLite) TableName() string {
	return "catalog_attribute_sync_links"
}

type integrationSQLite struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID        string    `gorm:"not null;index"`
	MarketplaceType string    `gorm:"not null"`
	DisplayName     string    `gorm:"not null"`
	Status          string    `gorm:"not null;default:'PENDING'"`
	IsEnabled       bool      `gorm:"default:true"`
	SealedToken     string
	WarehouseID     string
	Settings        string `gorm:"type:text"`
	LastExportAt    *time.Time
	LastImportAt    *time.Time
	LastError       string
	ErrorCount      int `gorm:"default:0"`
	OwnerID         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (integrationSQLite) TableName() string {
	return "catalog_integrations"
}

func newSQLiteDB(t *testing.T, shadows ...interface{}) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(shadows...)
	require.NoError(t, err)

	return db
}
