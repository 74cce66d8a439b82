package clients

import (
	"context"
	"time"

	"catalog-sync-service/internal/models"
)

// MarketplaceClient defines the operations the sync engine consumes from a
// marketplace adapter. The client performs no automatic retry; failures are
// surfaced as syncerr.RemoteError and left for the next scheduled run.
type MarketplaceClient interface {
	// GetType returns the marketplace type
	GetType() models.MarketplaceType

	// Initialize sets up the client with credentials
	Initialize(ctx context.Context, credentials map[string]interface{}) error

	// TestConnection verifies the connection is working
	TestConnection(ctx context.Context) error

	// Taxonomy
	FetchCategoryCharacteristics(ctx context.Context, categoryExternalID string) ([]AttributeRule, error)
	FetchDictionaryValues(ctx context.Context, dictionaryID, pattern string, limit int) ([]DictionaryValue, error)

	// Catalog
	CreateCatalogEntries(ctx context.Context, payload []CatalogEntry) ([]EntryResult, error)
	UpdateCatalogEntries(ctx context.Context, payload []CatalogEntry) ([]EntryResult, error)
	ListCatalogEntries(ctx context.Context, cursor string, limit int) (*CatalogPage, error)

	// Prices and stocks
	UpdatePrices(ctx context.Context, records []PriceRecord) error
	UpdateStocks(ctx context.Context, warehouseID string, records []StockRecord) error

	// Orders
	FetchOrders(ctx context.Context, dateFrom time.Time, cursor string) (*OrdersPage, error)
}

// AttributeRule describes one characteristic the marketplace expects for a
// category: whether it is required, dictionary-backed, and how many values it
// accepts. MaxCount == 0 means unbounded.
type AttributeRule struct {
	ExternalID   string `json:"externalId"`
	Name         string `json:"name"`
	Required     bool   `json:"required"`
	IsDictionary bool   `json:"isDictionary"`
	IsCollection bool   `json:"isCollection"`
	MaxCount     int    `json:"maxCount"`
	UnitName     string `json:"unitName,omitempty"`
	// Size-like characteristics live on the modification tier
	IsSizeLevel bool `json:"isSizeLevel"`
}

// DictionaryValue is one entry of a marketplace value dictionary
type DictionaryValue struct {
	ExternalID string `json:"externalId"`
	Name       string `json:"name"`
}

// CharacteristicValue carries one resolved characteristic for an entry.
// Value is a scalar, a dictionary id string, or a []string of dictionary ids
// depending on the attribute type.
type CharacteristicValue struct {
	ExternalID string      `json:"externalId"`
	Name       string      `json:"name,omitempty"`
	Value      interface{} `json:"value"`
}

// SizeEntry is the terminal barcode-bearing record of a catalog entry
type SizeEntry struct {
	ExternalID string   `json:"externalId,omitempty"`
	TechSize   string   `json:"techSize,omitempty"`
	Price      string   `json:"price,omitempty"`
	Barcodes   []string `json:"barcodes"`

	Characteristics []CharacteristicValue `json:"characteristics,omitempty"`
}

// CatalogEntry is one variation-level create/update payload: identity, media
// and the combined characteristic set, with its sizes attached
type CatalogEntry struct {
	ExternalID string `json:"externalId,omitempty"`
	VendorCode string `json:"vendorCode"`

	CategoryExternalID string `json:"categoryExternalId"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Brand       string `json:"brand,omitempty"`

	Characteristics []CharacteristicValue `json:"characteristics"`

	ImageURLs []string `json:"imageUrls,omitempty"`
	VideoURLs []string `json:"videoUrls,omitempty"`

	// Converted for the marketplace: dimensions in cm, weight in kg
	LengthCm int     `json:"lengthCm,omitempty"`
	WidthCm  int     `json:"widthCm,omitempty"`
	HeightCm int     `json:"heightCm,omitempty"`
	WeightKg float64 `json:"weightKg,omitempty"`

	Sizes []SizeEntry `json:"sizes"`
}

// EntryResult is the per-entry outcome of a create/update call
type EntryResult struct {
	VendorCode string `json:"vendorCode"`
	ExternalID string `json:"externalId,omitempty"`
	Success    bool   `json:"success"`
	Detail     string `json:"detail,omitempty"`
}

// CardRecord is one marketplace-native variation record returned by
// ListCatalogEntries; the import pipeline groups these by vendor code
type CardRecord struct {
	ExternalID         string                 `json:"externalId"`
	VendorCode         string                 `json:"vendorCode"`
	CategoryExternalID string                 `json:"categoryExternalId"`
	Title              string                 `json:"title"`
	Description        string                 `json:"description,omitempty"`
	Brand              string                 `json:"brand,omitempty"`
	Characteristics    []CharacteristicValue  `json:"characteristics,omitempty"`
	Sizes              []CardSize             `json:"sizes"`
	MediaURLs          []string               `json:"mediaUrls,omitempty"`
	Raw                map[string]interface{} `json:"raw,omitempty"`
	UpdatedAt          time.Time              `json:"updatedAt"`
}

// CardSize is one barcode-bearing size of a CardRecord
type CardSize struct {
	ExternalID string   `json:"externalId"`
	TechSize   string   `json:"techSize,omitempty"`
	Price      string   `json:"price,omitempty"`
	Barcodes   []string `json:"barcodes"`
}

// CatalogPage is a page of CardRecords plus the cursor for the next page
type CatalogPage struct {
	Records    []CardRecord `json:"records"`
	NextCursor string       `json:"nextCursor,omitempty"`
	HasMore    bool         `json:"hasMore"`
}

// PriceRecord carries a price update for one external entry
type PriceRecord struct {
	ExternalID string `json:"externalId"`
	Price      string `json:"price"`
}

// StockRecord carries a stock update for one barcode
type StockRecord struct {
	Barcode string `json:"barcode"`
	Amount  int    `json:"amount"`
}

// ExternalOrder is a minimal order record; order processing itself is owned
// by a collaborator service
type ExternalOrder struct {
	ExternalID string                 `json:"externalId"`
	Barcode    string                 `json:"barcode,omitempty"`
	VendorCode string                 `json:"vendorCode,omitempty"`
	Status     string                 `json:"status,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
	Raw        map[string]interface{} `json:"raw,omitempty"`
}

// OrdersPage is a page of orders plus the cursor for the next page
type OrdersPage struct {
	Orders     []ExternalOrder `json:"orders"`
	NextCursor string          `json:"nextCursor,omitempty"`
	HasMore    bool            `json:"hasMore"`
}

// UnsupportedMarketplaceError is returned when a marketplace type is not supported
type UnsupportedMarketplaceError struct {
	MarketplaceType string
}

func (e *UnsupportedMarketplaceError) Error() string {
	return "unsupported marketplace: " + e.MarketplaceType
}
