package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"catalog-sync-service/internal/clients"
	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/repository"
)

// MockCatalogRepository is a mock implementation of CatalogRepositoryInterface
type MockCatalogRepository struct {
	mock.Mock
}

var _ repository.CatalogRepositoryInterface = (*MockCatalogRepository)(nil)

func (m *MockCatalogRepository) GetProductsByIDs(ctx context.Context, tenantID string, ids []uuid.UUID) ([]models.Product, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockCatalogRepository) GetProductsBySKU(ctx context.Context, tenantID, sku string) ([]models.Product, error) {
	args := m.Called(ctx, tenantID, sku)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockCatalogRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockCatalogRepository) ListActiveProductIDs(ctx context.Context, tenantID string) ([]uuid.UUID, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockCatalogRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	if args.Error(0) == nil && product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockCatalogRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockCatalogRepository) CreateVariation(ctx context.Context, variation *models.Variation) error {
	args := m.Called(ctx, variation)
	if args.Error(0) == nil && variation.ID == uuid.Nil {
		variation.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockCatalogRepository) UpdateVariation(ctx context.Context, variation *models.Variation) error {
	args := m.Called(ctx, variation)
	return args.Error(0)
}

func (m *MockCatalogRepository) CreateItem(ctx context.Context, item *models.Item) error {
	args := m.Called(ctx, item)
	if args.Error(0) == nil && item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockCatalogRepository) UpdateItem(ctx context.Context, item *models.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockCatalogRepository) FindItemsByBarcodes(ctx context.Context, tenantID string, barcodes []string) ([]models.Item, error) {
	args := m.Called(ctx, tenantID, barcodes)
	return args.Get(0).([]models.Item), args.Error(1)
}

func (m *MockCatalogRepository) GetGroupBySKU(ctx context.Context, tenantID, sku string) (*models.ProductGroup, error) {
	args := m.Called(ctx, tenantID, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductGroup), args.Error(1)
}

func (m *MockCatalogRepository) UpsertGroup(ctx context.Context, group *models.ProductGroup) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

// MockCategoryRepository is a mock implementation of CategoryRepositoryInterface
type MockCategoryRepository struct {
	mock.Mock
}

var _ repository.CategoryRepositoryInterface = (*MockCategoryRepository)(nil)

func (m *MockCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByExternalID(ctx context.Context, mp models.MarketplaceType, externalID string) (*models.Category, error) {
	args := m.Called(ctx, mp, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) ListAttributes(ctx context.Context, categoryID uuid.UUID) ([]models.CategoryAttribute, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).([]models.CategoryAttribute), args.Error(1)
}

// MockAttributeRepository is a mock implementation of AttributeRepositoryInterface
type MockAttributeRepository struct {
	mock.Mock
}

var _ repository.AttributeRepositoryInterface = (*MockAttributeRepository)(nil)

func (m *MockAttributeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Attribute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attribute), args.Error(1)
}

func (m *MockAttributeRepository) GetByName(ctx context.Context, tenantID, name string) (*models.Attribute, error) {
	args := m.Called(ctx, tenantID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attribute), args.Error(1)
}

func (m *MockAttributeRepository) CreateAttribute(ctx context.Context, attr *models.Attribute) error {
	args := m.Called(ctx, attr)
	if args.Error(0) == nil && attr.ID == uuid.Nil {
		attr.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockAttributeRepository) GetValueByID(ctx context.Context, id uuid.UUID) (*models.AttributeValue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttributeValue), args.Error(1)
}

func (m *MockAttributeRepository) ListValues(ctx context.Context, attributeID uuid.UUID) ([]models.AttributeValue, error) {
	args := m.Called(ctx, attributeID)
	return args.Get(0).([]models.AttributeValue), args.Error(1)
}

func (m *MockAttributeRepository) FindValueByNormalizedTitle(ctx context.Context, tenantID, attributeName, title string) (*models.AttributeValue, error) {
	args := m.Called(ctx, tenantID, attributeName, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttributeValue), args.Error(1)
}

func (m *MockAttributeRepository) CreateValue(ctx context.Context, value *models.AttributeValue) error {
	args := m.Called(ctx, value)
	if args.Error(0) == nil && value.ID == uuid.Nil {
		value.ID = uuid.New()
	}
	return args.Error(0)
}

// MockDictionaryRepository is a mock implementation of DictionaryRepositoryInterface
type MockDictionaryRepository struct {
	mock.Mock
}

var _ repository.DictionaryRepositoryInterface = (*MockDictionaryRepository)(nil)

func (m *MockDictionaryRepository) Upsert(ctx context.Context, row *models.Dictionary) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockDictionaryRepository) GetByExternalID(ctx context.Context, mp models.MarketplaceType, kind models.DictionaryKind, externalID string) (*models.Dictionary, error) {
	args := m.Called(ctx, mp, kind, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dictionary), args.Error(1)
}

func (m *MockDictionaryRepository) ListValuesOf(ctx context.Context, mp models.MarketplaceType, parentExternalID string) ([]models.Dictionary, error) {
	args := m.Called(ctx, mp, parentExternalID)
	return args.Get(0).([]models.Dictionary), args.Error(1)
}

func (m *MockDictionaryRepository) FindByTitle(ctx context.Context, mp models.MarketplaceType, kind models.DictionaryKind, title string) (*models.Dictionary, error) {
	args := m.Called(ctx, mp, kind, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dictionary), args.Error(1)
}

// MockMappingRepository is a mock implementation of MappingRepositoryInterface
type MockMappingRepository struct {
	mock.Mock
}

var _ repository.MappingRepositoryInterface = (*MockMappingRepository)(nil)

func (m *MockMappingRepository) UpsertMarketplaceProduct(ctx context.Context, record *models.MarketplaceProduct) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockMappingRepository) GetMarketplaceProduct(ctx context.Context, integrationID, entityID uuid.UUID, tier models.EntityTier) (*models.MarketplaceProduct, error) {
	args := m.Called(ctx, integrationID, entityID, tier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MarketplaceProduct), args.Error(1)
}

func (m *MockMappingRepository) GetMarketplaceProductsForEntities(ctx context.Context, integrationID uuid.UUID, entityIDs []uuid.UUID) ([]models.MarketplaceProduct, error) {
	args := m.Called(ctx, integrationID, entityIDs)
	return args.Get(0).([]models.MarketplaceProduct), args.Error(1)
}

func (m *MockMappingRepository) FindMarketplaceProductsByBarcodes(ctx context.Context, integrationID uuid.UUID, barcodes []string) ([]models.MarketplaceProduct, error) {
	args := m.Called(ctx, integrationID, barcodes)
	return args.Get(0).([]models.MarketplaceProduct), args.Error(1)
}

func (m *MockMappingRepository) GetSyncLink(ctx context.Context, tenantID string, attributeID uuid.UUID, mp models.MarketplaceType) (*models.AttributeSyncLink, error) {
	args := m.Called(ctx, tenantID, attributeID, mp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttributeSyncLink), args.Error(1)
}

func (m *MockMappingRepository) CreateSyncLinkIfAbsent(ctx context.Context, link *models.AttributeSyncLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

// MockIntegrationRepository is a mock implementation of IntegrationRepositoryInterface
type MockIntegrationRepository struct {
	mock.Mock
}

var _ repository.IntegrationRepositoryInterface = (*MockIntegrationRepository)(nil)

func (m *MockIntegrationRepository) Create(ctx context.Context, integration *models.Integration) error {
	args := m.Called(ctx, integration)
	return args.Error(0)
}

func (m *MockIntegrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Integration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) GetByTenant(ctx context.Context, tenantID string) ([]models.Integration, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]models.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) ListEnabled(ctx context.Context) ([]models.Integration, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) Update(ctx context.Context, integration *models.Integration) error {
	args := m.Called(ctx, integration)
	return args.Error(0)
}

func (m *MockIntegrationRepository) RecordError(ctx context.Context, id uuid.UUID, message string) error {
	args := m.Called(ctx, id, message)
	return args.Error(0)
}

// MockMarketplaceClient is a mock implementation of clients.MarketplaceClient
type MockMarketplaceClient struct {
	mock.Mock
}

var _ clients.MarketplaceClient = (*MockMarketplaceClient)(nil)

func (m *MockMarketplaceClient) GetType() models.MarketplaceType {
	return models.MarketplaceWildberries
}

func (m *MockMarketplaceClient) Initialize(ctx context.Context, credentials map[string]interface{}) error {
	args := m.Called(ctx, credentials)
	return args.Error(0)
}

func (m *MockMarketplaceClient) TestConnection(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockMarketplaceClient) FetchCategoryCharacteristics(ctx context.Context, categoryExternalID string) ([]clients.AttributeRule, error) {
	args := m.Called(ctx, categoryExternalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clients.AttributeRule), args.Error(1)
}

func (m *MockMarketplaceClient) FetchDictionaryValues(ctx context.Context, dictionaryID, pattern string, limit int) ([]clients.DictionaryValue, error) {
	args := m.Called(ctx, dictionaryID, pattern, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clients.DictionaryValue), args.Error(1)
}

func (m *MockMarketplaceClient) CreateCatalogEntries(ctx context.Context, payload []clients.CatalogEntry) ([]clients.EntryResult, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clients.EntryResult), args.Error(1)
}

func (m *MockMarketplaceClient) UpdateCatalogEntries(ctx context.Context, payload []clients.CatalogEntry) ([]clients.EntryResult, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clients.EntryResult), args.Error(1)
}

func (m *MockMarketplaceClient) ListCatalogEntries(ctx context.Context, cursor string, limit int) (*clients.CatalogPage, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.CatalogPage), args.Error(1)
}

func (m *MockMarketplaceClient) UpdatePrices(ctx context.Context, records []clients.PriceRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockMarketplaceClient) UpdateStocks(ctx context.Context, warehouseID string, records []clients.StockRecord) error {
	args := m.Called(ctx, warehouseID, records)
	return args.Error(0)
}

func (m *MockMarketplaceClient) FetchOrders(ctx context.Context, dateFrom time.Time, cursor string) (*clients.OrdersPage, error) {
	args := m.Called(ctx, dateFrom, cursor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.OrdersPage), args.Error(1)
}
