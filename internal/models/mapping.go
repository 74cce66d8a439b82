package models

import (
	"time"

	"github.com/google/uuid"
)

// EntityTier tells which tier of the product tree a sync-state record covers
type EntityTier string

const (
	TierProduct   EntityTier = "PRODUCT"
	TierVariation EntityTier = "VARIATION"
	TierItem      EntityTier = "ITEM"
)

// MarketplaceProductStatus represents the marketplace-side status of a record
type MarketplaceProductStatus string

const (
	MarketplaceProductPending MarketplaceProductStatus = "PENDING"
	MarketplaceProductSynced  MarketplaceProductStatus = "SYNCED"
	MarketplaceProductError   MarketplaceProductStatus = "ERROR"
)

// MarketplaceProduct is the per-tier idempotency record: exactly one row per
// (integration, entity, tier). External ids learned here are merged into every
// later export and never discarded.
type MarketplaceProduct struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID      string    `gorm:"type:varchar(255);not null;index:idx_mp_products_tenant" json:"tenantId"`
	IntegrationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_mp_products_entity" json:"integrationId"`

	EntityID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_mp_products_entity" json:"entityId"`
	Tier     EntityTier `gorm:"type:varchar(50);not null;uniqueIndex:idx_mp_products_entity" json:"tier"`

	ExternalID string      `gorm:"type:varchar(255);index:idx_mp_products_external" json:"externalId,omitempty"`
	SKU        string      `gorm:"type:varchar(255);index:idx_mp_products_sku" json:"sku,omitempty"`
	Barcodes   StringArray `gorm:"type:jsonb;default:'[]'" json:"barcodes,omitempty"`

	Status      MarketplaceProductStatus `gorm:"type:varchar(50);default:'PENDING'" json:"status"`
	RawSnapshot JSONB                    `gorm:"type:jsonb;default:'{}'" json:"rawSnapshot,omitempty"`

	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for MarketplaceProduct
func (MarketplaceProduct) TableName() string {
	return "catalog_marketplace_products"
}

// AttributeSyncLink links an internal attribute to its system attribute and
// marketplace attribute dictionary. Created lazily during the first
// successful import match and never silently overwritten once present.
type AttributeSyncLink struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID string    `gorm:"type:varchar(255);not null;index:idx_attr_sync_links_tenant" json:"tenantId"`

	AttributeID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_attr_sync_links_key" json:"attributeId"`
	MarketplaceType        MarketplaceType `gorm:"type:varchar(50);not null;uniqueIndex:idx_attr_sync_links_key" json:"marketplaceType"`
	SystemAttributeID      *uuid.UUID      `gorm:"type:uuid" json:"systemAttributeId,omitempty"`
	MarketplaceAttributeID string          `gorm:"type:varchar(255);not null" json:"marketplaceAttributeId"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
}

// TableName specifies the table name for AttributeSyncLink
func (AttributeSyncLink) TableName() string {
	return "catalog_attribute_sync_links"
}
