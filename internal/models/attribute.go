package models

import (
	"time"

	"github.com/google/uuid"
)

// AttributeType represents how an attribute's value is shaped
type AttributeType string

const (
	AttributeTypeText                 AttributeType = "TEXT"
	AttributeTypeNumber               AttributeType = "NUMBER"
	AttributeTypeDictionary           AttributeType = "DICTIONARY"
	AttributeTypeDictionaryCollection AttributeType = "DICTIONARY_COLLECTION"
)

// IsDictionary reports whether values of this type reference AttributeValue rows
func (t AttributeType) IsDictionary() bool {
	return t == AttributeTypeDictionary || t == AttributeTypeDictionaryCollection
}

// Attribute is a user-scoped characteristic definition
type Attribute struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID string    `gorm:"type:varchar(255);not null;index:idx_attributes_tenant" json:"tenantId"`

	Name string        `gorm:"type:varchar(255);not null" json:"name"`
	Type AttributeType `gorm:"type:varchar(50);not null;default:'TEXT'" json:"type"`

	// Optional link into the platform-wide taxonomy
	SystemAttributeID *uuid.UUID `gorm:"type:uuid;index:idx_attributes_system" json:"systemAttributeId,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	Values []AttributeValue `gorm:"foreignKey:AttributeID" json:"values,omitempty"`
}

// TableName specifies the table name for Attribute
func (Attribute) TableName() string {
	return "catalog_attributes"
}

// AttributeValue is a dictionary value of an attribute. BaseForm holds the
// normalized lemma used by the second stage of dictionary matching; Synonyms
// feed the third stage.
type AttributeValue struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID    string    `gorm:"type:varchar(255);not null;index:idx_attribute_values_tenant" json:"tenantId"`
	AttributeID uuid.UUID `gorm:"type:uuid;not null;index:idx_attribute_values_attribute" json:"attributeId"`

	Title    string      `gorm:"type:varchar(500);not null" json:"title"`
	BaseForm string      `gorm:"type:varchar(500)" json:"baseForm,omitempty"`
	Synonyms StringArray `gorm:"type:jsonb;default:'[]'" json:"synonyms,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for AttributeValue
func (AttributeValue) TableName() string {
	return "catalog_attribute_values"
}

// SystemAttribute is a platform-wide attribute both user catalogs and each
// marketplace map onto
type SystemAttribute struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	Type AttributeType `gorm:"type:varchar(50);not null;default:'TEXT'" json:"type"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for SystemAttribute
func (SystemAttribute) TableName() string {
	return "catalog_system_attributes"
}

// SystemCategory is a node of the platform-wide category taxonomy
type SystemCategory struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name     string     `gorm:"type:varchar(255);not null" json:"name"`
	ParentID *uuid.UUID `gorm:"type:uuid;index:idx_system_categories_parent" json:"parentId,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for SystemCategory
func (SystemCategory) TableName() string {
	return "catalog_system_categories"
}
