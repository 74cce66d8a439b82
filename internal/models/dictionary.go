package models

import (
	"time"

	"github.com/google/uuid"
)

// DictionaryKind tells what marketplace-native object a Dictionary row mirrors
type DictionaryKind string

const (
	DictionaryKindCategory  DictionaryKind = "CATEGORY"
	DictionaryKindAttribute DictionaryKind = "ATTRIBUTE"
	DictionaryKindValue     DictionaryKind = "VALUE"
)

// Dictionary is a cached snapshot of a marketplace-native category, attribute
// or attribute value, keyed by (marketplace, kind, external id). Rows are
// refreshed through a short-TTL read-through pull from the remote taxonomy;
// stubs are auto-registered for values first seen during import.
type Dictionary struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`

	MarketplaceType MarketplaceType `gorm:"type:varchar(50);not null;uniqueIndex:idx_dictionaries_key" json:"marketplaceType"`
	Kind            DictionaryKind  `gorm:"type:varchar(50);not null;uniqueIndex:idx_dictionaries_key" json:"kind"`
	ExternalID      string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_dictionaries_key" json:"externalId"`

	// For VALUE rows, the attribute dictionary they belong to
	ParentExternalID *string `gorm:"type:varchar(255);index:idx_dictionaries_parent" json:"parentExternalId,omitempty"`

	Title    string `gorm:"type:varchar(500);not null;index:idx_dictionaries_title" json:"title"`
	BaseForm string `gorm:"type:varchar(500)" json:"baseForm,omitempty"`

	// True for rows auto-registered from import before the taxonomy pull saw them
	IsStub bool `gorm:"default:false" json:"isStub"`

	Raw JSONB `gorm:"type:jsonb;default:'{}'" json:"raw,omitempty"`

	FetchedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"fetchedAt"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for Dictionary
func (Dictionary) TableName() string {
	return "catalog_dictionaries"
}
