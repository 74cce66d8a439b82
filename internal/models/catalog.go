package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "DRAFT"
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusArchived ProductStatus = "ARCHIVED"
)

// CompositionEntry is one component of a product's material composition.
// The sum of percents across a product never exceeds 100.
type CompositionEntry struct {
	AttributeValueID uuid.UUID `json:"attributeValueId"`
	Percent          int       `json:"percent"`
}

// Product is the root of the three-level catalog tree. The SKU (vendor code)
// is the external-facing grouping key shared with the marketplace.
type Product struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID string    `gorm:"type:varchar(255);not null;index:idx_products_tenant" json:"tenantId"`

	SKU         string     `gorm:"type:varchar(255);not null;index:idx_products_sku" json:"sku"`
	Title       string     `gorm:"type:varchar(500);not null" json:"title"`
	Description *string    `gorm:"type:text" json:"description,omitempty"`
	Brand       *string    `gorm:"type:varchar(255)" json:"brand,omitempty"`
	Keywords    *string    `gorm:"type:text" json:"keywords,omitempty"`
	Country     *string    `gorm:"type:varchar(255)" json:"country,omitempty"`
	CategoryID  *uuid.UUID `gorm:"type:uuid;index:idx_products_category" json:"categoryId,omitempty"`

	// Composition as an ordered JSON list of {attributeValueId, percent}
	Composition JSONArray `gorm:"type:jsonb;default:'[]'" json:"composition,omitempty"`

	// Physical attributes; dimensions stored in millimeters, weight in grams
	WeightGrams *int `gorm:"type:int" json:"weightGrams,omitempty"`
	LengthMM    *int `gorm:"type:int" json:"lengthMm,omitempty"`
	WidthMM     *int `gorm:"type:int" json:"widthMm,omitempty"`
	HeightMM    *int `gorm:"type:int" json:"heightMm,omitempty"`

	// Dynamic attribute values keyed by attribute id; each value is a tagged
	// scalar, dictionary id or id array (see services.TaggedValue)
	AttributeValues JSONB `gorm:"type:jsonb;default:'{}'" json:"attributeValues,omitempty"`

	Status ProductStatus `gorm:"type:varchar(50);default:'ACTIVE';index:idx_products_status" json:"status"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	Variations []Variation `gorm:"foreignKey:ProductID" json:"variations,omitempty"`
}

// TableName specifies the table name for Product
func (Product) TableName() string {
	return "catalog_products"
}

// IsLive reports whether the product participates in export
func (p *Product) IsLive() bool {
	return p.Status == ProductStatusActive
}

// Variation is the marketing-level split of a product (e.g. color)
type Variation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID  string    `gorm:"type:varchar(255);not null;index:idx_variations_tenant" json:"tenantId"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index:idx_variations_product" json:"productId"`

	Name     string `gorm:"type:varchar(255)" json:"name,omitempty"`
	IsActive bool   `gorm:"default:true" json:"isActive"`

	// Media URLs; videos are separated from images by file extension at export
	MediaURLs StringArray `gorm:"type:jsonb;default:'[]'" json:"mediaUrls,omitempty"`

	// Variation-level attribute values keyed by attribute id
	AttributeValues JSONB `gorm:"type:jsonb;default:'{}'" json:"attributeValues,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Items   []Item   `gorm:"foreignKey:VariationID" json:"items,omitempty"`
}

// TableName specifies the table name for Variation
func (Variation) TableName() string {
	return "catalog_variations"
}

// Item is the concrete sellable unit with its own barcode (e.g. color+size)
type Item struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID    string    `gorm:"type:varchar(255);not null;index:idx_items_tenant" json:"tenantId"`
	VariationID uuid.UUID `gorm:"type:uuid;not null;index:idx_items_variation" json:"variationId"`

	Barcode  string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_items_barcode" json:"barcode"`
	TechSize string          `gorm:"type:varchar(100)" json:"techSize,omitempty"`
	Price    decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	Stock    int             `gorm:"default:0" json:"stock"`

	// Modification-level attribute values keyed by attribute id
	AttributeValues JSONB `gorm:"type:jsonb;default:'{}'" json:"attributeValues,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	Variation *Variation `gorm:"foreignKey:VariationID" json:"variation,omitempty"`
}

// TableName specifies the table name for Item
func (Item) TableName() string {
	return "catalog_items"
}

// ProductGroup is the dedup grouping of products sharing a SKU, with a
// designated main product. Created on the first duplicate sighting and
// updated as membership changes; never silently deleted.
type ProductGroup struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_product_groups_sku" json:"tenantId"`
	SKU      string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_product_groups_sku" json:"sku"`

	MainProductID *uuid.UUID `gorm:"type:uuid" json:"mainProductId,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for ProductGroup
func (ProductGroup) TableName() string {
	return "catalog_product_groups"
}
