package models

import (
	"time"

	"github.com/google/uuid"
)

// AttributeSubject tells which tier of the product tree an attribute
// describes
type AttributeSubject string

const (
	SubjectAttribute    AttributeSubject = "ATTRIBUTE"    // product-level characteristic
	SubjectVariation    AttributeSubject = "VARIATION"    // defines variation identity (e.g. color)
	SubjectModification AttributeSubject = "MODIFICATION" // size-like, item-level
)

// Category is a tenant-scoped catalog category. UsesVariations and UsesItems
// declare whether the category's products carry those tiers at all.
type Category struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID string    `gorm:"type:varchar(255);not null;index:idx_categories_tenant" json:"tenantId"`

	Name             string     `gorm:"type:varchar(255);not null" json:"name"`
	SystemCategoryID *uuid.UUID `gorm:"type:uuid;index:idx_categories_system" json:"systemCategoryId,omitempty"`

	UsesVariations bool `gorm:"default:true" json:"usesVariations"`
	UsesItems      bool `gorm:"default:true" json:"usesItems"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	Attributes      []CategoryAttribute      `gorm:"foreignKey:CategoryID" json:"attributes,omitempty"`
	MarketplaceMaps []CategoryMarketplaceMap `gorm:"foreignKey:CategoryID" json:"marketplaceMaps,omitempty"`
}

// TableName specifies the table name for Category
func (Category) TableName() string {
	return "catalog_categories"
}

// MarketplaceMapFor returns the published mapping for the given marketplace,
// or nil when the category is not mapped there
func (c *Category) MarketplaceMapFor(mp MarketplaceType) *CategoryMarketplaceMap {
	for i := range c.MarketplaceMaps {
		if c.MarketplaceMaps[i].MarketplaceType == mp {
			return &c.MarketplaceMaps[i]
		}
	}
	return nil
}

// CategoryAttribute is the ordered join between a category and an attribute.
// Position preserves source order inside each subject group.
type CategoryAttribute struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CategoryID  uuid.UUID `gorm:"type:uuid;not null;index:idx_category_attributes_category" json:"categoryId"`
	AttributeID uuid.UUID `gorm:"type:uuid;not null;index:idx_category_attributes_attribute" json:"attributeId"`

	Required     bool             `gorm:"default:false" json:"required"`
	IsCollection bool             `gorm:"default:false" json:"isCollection"`
	Subject      AttributeSubject `gorm:"type:varchar(50);not null;default:'ATTRIBUTE'" json:"subject"`
	Position     int              `gorm:"default:0" json:"position"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`

	Attribute *Attribute `gorm:"foreignKey:AttributeID" json:"attribute,omitempty"`
}

// TableName specifies the table name for CategoryAttribute
func (CategoryAttribute) TableName() string {
	return "catalog_category_attributes"
}

// CategoryMarketplaceMap links a category to its marketplace-native category
type CategoryMarketplaceMap struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index:idx_category_mp_maps_category" json:"categoryId"`

	MarketplaceType    MarketplaceType `gorm:"type:varchar(50);not null" json:"marketplaceType"`
	ExternalCategoryID string          `gorm:"type:varchar(255);not null" json:"externalCategoryId"`
	ExternalName       string          `gorm:"type:varchar(500)" json:"externalName,omitempty"`
	IsPublished        bool            `gorm:"default:false" json:"isPublished"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for CategoryMarketplaceMap
func (CategoryMarketplaceMap) TableName() string {
	return "catalog_category_marketplace_maps"
}
