package models

import (
	"time"

	"github.com/google/uuid"
)

// MarketplaceType represents the supported marketplace platforms
type MarketplaceType string

const (
	MarketplaceWildberries MarketplaceType = "WILDBERRIES"
)

// IntegrationStatus represents the status of a marketplace integration
type IntegrationStatus string

const (
	IntegrationPending      IntegrationStatus = "PENDING"
	IntegrationConnected    IntegrationStatus = "CONNECTED"
	IntegrationDisconnected IntegrationStatus = "DISCONNECTED"
	IntegrationError        IntegrationStatus = "ERROR"
)

// Integration represents one tenant's connection to an external marketplace.
// The API token is sealed at rest; SealedToken is never serialized.
type Integration struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID        string          `gorm:"type:varchar(255);not null;index:idx_integrations_tenant" json:"tenantId"`
	MarketplaceType MarketplaceType `gorm:"type:varchar(50);not null;index:idx_integrations_type" json:"marketplaceType"`
	DisplayName     string          `gorm:"type:varchar(255);not null" json:"displayName"`

	Status    IntegrationStatus `gorm:"type:varchar(50);not null;default:'PENDING';index:idx_integrations_status" json:"status"`
	IsEnabled bool              `gorm:"default:true" json:"isEnabled"`

	// AES-GCM sealed API token
	SealedToken string `gorm:"type:text" json:"-"`

	// Marketplace-side identifiers
	WarehouseID string `gorm:"type:varchar(255)" json:"warehouseId,omitempty"`

	// Configuration (non-sensitive)
	Settings JSONB `gorm:"type:jsonb;default:'{}'" json:"settings,omitempty"`

	LastExportAt *time.Time `json:"lastExportAt,omitempty"`
	LastImportAt *time.Time `json:"lastImportAt,omitempty"`
	LastError    string     `gorm:"type:text" json:"lastError,omitempty"`
	ErrorCount   int        `gorm:"default:0" json:"errorCount"`

	// Owner to notify about skipped groups and remote failures
	OwnerID string `gorm:"type:varchar(255)" json:"ownerId,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for Integration
func (Integration) TableName() string {
	return "catalog_integrations"
}
