package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"catalog-sync-service/internal/cache"
	"catalog-sync-service/internal/clients"
	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/syncerr"
)

type countingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *countingNotifier) NotifyOwner(_ context.Context, _ *models.Integration, subject, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, subject)
	return nil
}

type exportFixture struct {
	catalogRepo  *MockCatalogRepository
	categoryRepo *MockCategoryRepository
	attrRepo     *MockAttributeRepository
	dictRepo     *MockDictionaryRepository
	mappingRepo  *MockMappingRepository
	notifier     *countingNotifier
	svc          *ExportService
}

func newExportFixture() *exportFixture {
	f := &exportFixture{
		catalogRepo:  new(MockCatalogRepository),
		categoryRepo: new(MockCategoryRepository),
		attrRepo:     new(MockAttributeRepository),
		dictRepo:     new(MockDictionaryRepository),
		mappingRepo:  new(MockMappingRepository),
		notifier:     &countingNotifier{},
	}
	dictCache, _ := cache.NewDictionaryCache("")
	index := NewAttributeIndex(f.attrRepo, f.dictRepo, f.mappingRepo, dictCache, zap.NewNop())
	f.svc = NewExportService(f.catalogRepo, f.categoryRepo, f.attrRepo, f.mappingRepo, index, f.notifier, zap.NewNop(), 0)
	return f
}

func testIntegration() *models.Integration {
	return &models.Integration{
		ID:              uuid.New(),
		TenantID:        "tenant-1",
		MarketplaceType: models.MarketplaceWildberries,
		DisplayName:     "WB store",
	}
}

func activeProduct(sku string) models.Product {
	categoryID := uuid.New()
	return models.Product{
		ID:         uuid.New(),
		TenantID:   "tenant-1",
		SKU:        sku,
		Title:      "Shirt " + sku,
		Status:     models.ProductStatusActive,
		CategoryID: &categoryID,
	}
}

func TestDeduplicateProducts_UniqueSKUsPassThrough(t *testing.T) {
	f := newExportFixture()

	products := []models.Product{activeProduct("SKU-1"), activeProduct("SKU-2")}
	kept, skipped, err := f.svc.DeduplicateProducts(context.Background(), testIntegration(), f.notifier, products)

	assert.NoError(t, err)
	assert.Len(t, kept, 2)
	assert.Empty(t, skipped)
	assert.Empty(t, f.notifier.calls)
}

func TestDeduplicateProducts_UnelectedGroupExcluded(t *testing.T) {
	f := newExportFixture()
	integration := testIntegration()

	first := activeProduct("SKU-1")
	second := activeProduct("SKU-1")

	// First sighting records the group without a main; nobody ships
	f.catalogRepo.On("GetGroupBySKU", mock.Anything, "tenant-1", "SKU-1").Return(nil, nil)
	f.catalogRepo.On("UpsertGroup", mock.Anything, mock.MatchedBy(func(g *models.ProductGroup) bool {
		return g.SKU == "SKU-1" && g.MainProductID == nil
	})).Return(nil)

	kept, skipped, err := f.svc.DeduplicateProducts(context.Background(), integration, f.notifier, []models.Product{first, second})

	assert.NoError(t, err)
	assert.Empty(t, kept)
	assert.Len(t, skipped, 2)

	var dup *syncerr.DuplicateError
	assert.ErrorAs(t, skipped[0].Err, &dup)
	assert.Equal(t, "SKU-1", dup.SKU)
	assert.Equal(t, []string{"duplicate-sku:SKU-1"}, f.notifier.calls)
	f.catalogRepo.AssertExpectations(t)
}

func TestDeduplicateProducts_ExistingElectionPreserved(t *testing.T) {
	f := newExportFixture()
	integration := testIntegration()

	first := activeProduct("SKU-1")
	second := activeProduct("SKU-1")

	// The group already elected the second product; the election stands
	f.catalogRepo.On("GetGroupBySKU", mock.Anything, "tenant-1", "SKU-1").
		Return(&models.ProductGroup{SKU: "SKU-1", MainProductID: &second.ID}, nil)

	kept, skipped, err := f.svc.DeduplicateProducts(context.Background(), integration, f.notifier, []models.Product{first, second})

	assert.NoError(t, err)
	assert.Len(t, kept, 1)
	assert.Equal(t, second.ID, kept[0].ID)
	assert.Len(t, skipped, 1)
	assert.Empty(t, f.notifier.calls)
	f.catalogRepo.AssertNotCalled(t, "UpsertGroup", mock.Anything, mock.Anything)
}

func TestDeduplicateProducts_OwnerNotifiedOncePerSKU(t *testing.T) {
	f := newExportFixture()
	integration := testIntegration()

	first := activeProduct("SKU-1")
	second := activeProduct("SKU-1")
	third := activeProduct("SKU-1")

	f.catalogRepo.On("GetGroupBySKU", mock.Anything, "tenant-1", "SKU-1").Return(nil, nil)
	f.catalogRepo.On("UpsertGroup", mock.Anything, mock.Anything).Return(nil)

	notify := NewRunNotifier(f.notifier)
	kept, skipped, err := f.svc.DeduplicateProducts(context.Background(), integration, notify, []models.Product{first, second, third})

	assert.NoError(t, err)
	assert.Empty(t, kept)
	assert.Len(t, skipped, 3)
	assert.Equal(t, []string{"duplicate-sku:SKU-1"}, f.notifier.calls)
}

func TestBuildPayloads_InactiveProductSkipped(t *testing.T) {
	f := newExportFixture()

	product := activeProduct("SKU-1")
	product.Status = models.ProductStatusDraft

	batch, err := f.svc.BuildPayloads(context.Background(), new(MockMarketplaceClient), testIntegration(), []models.Product{product})

	assert.NoError(t, err)
	assert.Empty(t, batch.ToCreate)
	assert.Len(t, batch.Skipped, 1)
	assert.True(t, syncerr.IsItemLevel(batch.Skipped[0].Err))
}

func TestBuildPayloads_UnmappedCategorySkipped(t *testing.T) {
	f := newExportFixture()
	client := new(MockMarketplaceClient)

	product := activeProduct("SKU-1")
	f.categoryRepo.On("GetByID", mock.Anything, *product.CategoryID).
		Return(&models.Category{ID: *product.CategoryID, Name: "Shirts"}, nil)

	batch, err := f.svc.BuildPayloads(context.Background(), client, testIntegration(), []models.Product{product})

	assert.NoError(t, err)
	assert.Empty(t, batch.ToCreate)
	assert.Len(t, batch.Skipped, 1)

	var mapErr *syncerr.MappingError
	assert.ErrorAs(t, batch.Skipped[0].Err, &mapErr)
	assert.Equal(t, "category", mapErr.Subject)
}

func TestBuildPayloads_UnpublishedMapSkipped(t *testing.T) {
	f := newExportFixture()
	client := new(MockMarketplaceClient)

	product := activeProduct("SKU-1")
	f.categoryRepo.On("GetByID", mock.Anything, *product.CategoryID).
		Return(&models.Category{
			ID:   *product.CategoryID,
			Name: "Shirts",
			MarketplaceMaps: []models.CategoryMarketplaceMap{{
				MarketplaceType:    models.MarketplaceWildberries,
				ExternalCategoryID: "777",
				IsPublished:        false,
			}},
		}, nil)

	batch, err := f.svc.BuildPayloads(context.Background(), client, testIntegration(), []models.Product{product})

	assert.NoError(t, err)
	assert.Len(t, batch.Skipped, 1)
	assert.True(t, syncerr.IsItemLevel(batch.Skipped[0].Err))
}

func exportableProduct(f *exportFixture, client *MockMarketplaceClient) models.Product {
	product := activeProduct("SKU-1")
	product.Variations = []models.Variation{{
		ID:        uuid.New(),
		ProductID: product.ID,
		IsActive:  true,
		Items: []models.Item{{
			ID:      uuid.New(),
			Barcode: "4600000000017",
			Price:   decimal.NewFromInt(1990),
		}},
	}}

	f.categoryRepo.On("GetByID", mock.Anything, *product.CategoryID).
		Return(&models.Category{
			ID:   *product.CategoryID,
			Name: "Shirts",
			MarketplaceMaps: []models.CategoryMarketplaceMap{{
				MarketplaceType:    models.MarketplaceWildberries,
				ExternalCategoryID: "777",
				IsPublished:        true,
			}},
		}, nil)
	client.On("FetchCategoryCharacteristics", mock.Anything, "777").Return([]clients.AttributeRule{}, nil)
	return product
}

func TestBuildPayloads_NewVariationRoutesToCreate(t *testing.T) {
	f := newExportFixture()
	client := new(MockMarketplaceClient)
	integration := testIntegration()

	product := exportableProduct(f, client)
	variationID := product.Variations[0].ID
	itemID := product.Variations[0].Items[0].ID

	f.mappingRepo.On("GetMarketplaceProduct", mock.Anything, integration.ID, variationID, models.TierVariation).Return(nil, nil)
	f.mappingRepo.On("GetMarketplaceProduct", mock.Anything, integration.ID, itemID, models.TierItem).Return(nil, nil)

	batch, err := f.svc.BuildPayloads(context.Background(), client, integration, []models.Product{product})

	assert.NoError(t, err)
	assert.Len(t, batch.ToCreate, 1)
	assert.Empty(t, batch.ToUpdate)
	assert.Empty(t, batch.Skipped)

	entry := batch.ToCreate[0]
	assert.Equal(t, "SKU-1", entry.VendorCode)
	assert.Equal(t, "777", entry.CategoryExternalID)
	assert.Len(t, entry.Sizes, 1)
	assert.Equal(t, "1990.00", entry.Sizes[0].Price)
	assert.Equal(t, []string{"4600000000017"}, entry.Sizes[0].Barcodes)
}

func TestBuildPayloads_KnownExternalIDRoutesToUpdate(t *testing.T) {
	f := newExportFixture()
	client := new(MockMarketplaceClient)
	integration := testIntegration()

	product := exportableProduct(f, client)
	variationID := product.Variations[0].ID
	itemID := product.Variations[0].Items[0].ID

	f.mappingRepo.On("GetMarketplaceProduct", mock.Anything, integration.ID, variationID, models.TierVariation).
		Return(&models.MarketplaceProduct{ExternalID: "nm-123"}, nil)
	f.mappingRepo.On("GetMarketplaceProduct", mock.Anything, integration.ID, itemID, models.TierItem).Return(nil, nil)

	batch, err := f.svc.BuildPayloads(context.Background(), client, integration, []models.Product{product})

	assert.NoError(t, err)
	assert.Empty(t, batch.ToCreate)
	assert.Len(t, batch.ToUpdate, 1)
	assert.Equal(t, "nm-123", batch.ToUpdate[0].ExternalID)
}

func TestBuildPayloads_BarcodelessItemSkipsVariation(t *testing.T) {
	f := newExportFixture()
	client := new(MockMarketplaceClient)

	product := exportableProduct(f, client)
	product.Variations[0].Items[0].Barcode = ""

	batch, err := f.svc.BuildPayloads(context.Background(), client, testIntegration(), []models.Product{product})

	assert.NoError(t, err)
	assert.Empty(t, batch.ToCreate)
	// One skip for the barcodeless size, one for the emptied-out variation
	assert.Len(t, batch.Skipped, 2)

	var ve *syncerr.ValidationError
	assert.ErrorAs(t, batch.Skipped[0].Err, &ve)
	assert.ErrorAs(t, batch.Skipped[1].Err, &ve)
}

func TestBuildPayloads_BadSizeDroppedRestOfVariationShips(t *testing.T) {
	f := newExportFixture()
	client := new(MockMarketplaceClient)
	integration := testIntegration()

	product := exportableProduct(f, client)
	product.Variations[0].Items = append(product.Variations[0].Items, models.Item{
		ID:    uuid.New(),
		Price: decimal.NewFromInt(2190),
	})
	variationID := product.Variations[0].ID
	goodItemID := product.Variations[0].Items[0].ID

	f.mappingRepo.On("GetMarketplaceProduct", mock.Anything, integration.ID, variationID, models.TierVariation).Return(nil, nil)
	f.mappingRepo.On("GetMarketplaceProduct", mock.Anything, integration.ID, goodItemID, models.TierItem).Return(nil, nil)

	batch, err := f.svc.BuildPayloads(context.Background(), client, integration, []models.Product{product})

	assert.NoError(t, err)
	assert.Len(t, batch.ToCreate, 1)
	assert.Len(t, batch.ToCreate[0].Sizes, 1)
	assert.Equal(t, []string{"4600000000017"}, batch.ToCreate[0].Sizes[0].Barcodes)
	assert.Len(t, batch.Skipped, 1)

	var ve *syncerr.ValidationError
	assert.ErrorAs(t, batch.Skipped[0].Err, &ve)

	exported := batch.variationByVendor["SKU-1"]
	assert.Equal(t, []string{"4600000000017"}, exported.Barcodes)
}

func TestBuildPayloads_ExportNeverCreatesSyncLinks(t *testing.T) {
	f := newExportFixture()
	client := new(MockMarketplaceClient)
	integration := testIntegration()

	attrID := uuid.New()
	product := activeProduct("SKU-1")
	product.AttributeValues = models.JSONB{attrID.String(): "Acme"}
	product.Variations = []models.Variation{{
		ID:        uuid.New(),
		ProductID: product.ID,
		IsActive:  true,
		Items: []models.Item{{
			ID:      uuid.New(),
			Barcode: "4600000000017",
			Price:   decimal.NewFromInt(1990),
		}},
	}}

	category := &models.Category{
		ID:   *product.CategoryID,
		Name: "Shirts",
		MarketplaceMaps: []models.CategoryMarketplaceMap{{
			MarketplaceType:    models.MarketplaceWildberries,
			ExternalCategoryID: "777",
			IsPublished:        true,
		}},
		Attributes: []models.CategoryAttribute{{
			AttributeID: attrID,
			Subject:     models.SubjectAttribute,
			Attribute:   &models.Attribute{ID: attrID, Name: "Brand", Type: models.AttributeTypeText},
		}},
	}
	f.categoryRepo.On("GetByID", mock.Anything, *product.CategoryID).Return(category, nil)
	client.On("FetchCategoryCharacteristics", mock.Anything, "777").
		Return([]clients.AttributeRule{{ExternalID: "200", Name: "Brand"}}, nil)
	f.dictRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	f.mappingRepo.On("GetSyncLink", mock.Anything, "tenant-1", attrID, models.MarketplaceWildberries).Return(nil, nil)
	f.mappingRepo.On("GetMarketplaceProduct", mock.Anything, integration.ID, mock.Anything, mock.Anything).Return(nil, nil)

	batch, err := f.svc.BuildPayloads(context.Background(), client, integration, []models.Product{product})

	assert.NoError(t, err)
	assert.Len(t, batch.ToCreate, 1)
	assert.Equal(t, []clients.CharacteristicValue{
		{ExternalID: "200", Name: "Brand", Value: "Acme"},
	}, batch.ToCreate[0].Characteristics)

	// Links are learned during import; building payloads only reads them
	f.mappingRepo.AssertNotCalled(t, "CreateSyncLinkIfAbsent", mock.Anything, mock.Anything)
}

func TestBuildPayloads_MultiVariationVendorCodes(t *testing.T) {
	f := newExportFixture()
	client := new(MockMarketplaceClient)
	integration := testIntegration()

	product := exportableProduct(f, client)
	product.Variations = append(product.Variations, models.Variation{
		ID:        uuid.New(),
		ProductID: product.ID,
		Name:      "Red",
		IsActive:  true,
		Items: []models.Item{{
			ID:      uuid.New(),
			Barcode: "4600000000024",
			Price:   decimal.NewFromInt(2190),
		}},
	})
	product.Variations[0].Name = "Blue"

	f.mappingRepo.On("GetMarketplaceProduct", mock.Anything, integration.ID, mock.Anything, mock.Anything).Return(nil, nil)

	batch, err := f.svc.BuildPayloads(context.Background(), client, integration, []models.Product{product})

	assert.NoError(t, err)
	assert.Len(t, batch.ToCreate, 2)
	assert.Equal(t, "SKU-1/Blue", batch.ToCreate[0].VendorCode)
	assert.Equal(t, "SKU-1/Red", batch.ToCreate[1].VendorCode)
}

func TestRun_RemoteFailureSkipsChunkAndContinues(t *testing.T) {
	f := newExportFixture()
	client := new(MockMarketplaceClient)
	integration := testIntegration()

	batch := &ExportBatch{
		ToCreate:          []clients.CatalogEntry{{VendorCode: "SKU-1"}},
		ToUpdate:          []clients.CatalogEntry{{VendorCode: "SKU-2", ExternalID: "nm-2"}},
		variationByVendor: map[string]exportedVariation{},
	}

	client.On("CreateCatalogEntries", mock.Anything, mock.Anything).
		Return(nil, &syncerr.RemoteError{Op: "create", StatusCode: 500})
	client.On("UpdateCatalogEntries", mock.Anything, mock.Anything).
		Return([]clients.EntryResult{{VendorCode: "SKU-2", Success: true}}, nil)

	progress := &models.SyncProgress{}
	var levels []models.LogLevel
	err := f.svc.Run(context.Background(), client, integration, batch, progress, func(level models.LogLevel, _ string, _ models.JSONB) {
		levels = append(levels, level)
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, progress.TotalItems)
	assert.Equal(t, 2, progress.ProcessedItems)
	assert.Equal(t, 1, progress.FailedItems)
	assert.Equal(t, 1, progress.SuccessfulItems)
	assert.Contains(t, levels, models.LogLevelError)
}

func TestRun_CredentialErrorAborts(t *testing.T) {
	f := newExportFixture()
	client := new(MockMarketplaceClient)

	batch := &ExportBatch{
		ToCreate:          []clients.CatalogEntry{{VendorCode: "SKU-1"}},
		variationByVendor: map[string]exportedVariation{},
	}

	cred := &syncerr.CredentialError{Integration: "wb", Reason: "token expired"}
	client.On("CreateCatalogEntries", mock.Anything, mock.Anything).Return(nil, cred)

	err := f.svc.Run(context.Background(), client, testIntegration(), batch, &models.SyncProgress{}, func(models.LogLevel, string, models.JSONB) {})
	assert.ErrorIs(t, err, cred)
}

func TestRun_SuccessPersistsLearnedExternalIDs(t *testing.T) {
	f := newExportFixture()
	client := new(MockMarketplaceClient)
	integration := testIntegration()

	productID, variationID, itemID := uuid.New(), uuid.New(), uuid.New()
	batch := &ExportBatch{
		ToCreate: []clients.CatalogEntry{{VendorCode: "SKU-1"}},
		variationByVendor: map[string]exportedVariation{
			"SKU-1": {
				ProductID:   productID,
				VariationID: variationID,
				ItemIDs:     map[string]uuid.UUID{"4600000000017": itemID},
				Barcodes:    []string{"4600000000017"},
			},
		},
	}

	client.On("CreateCatalogEntries", mock.Anything, mock.Anything).
		Return([]clients.EntryResult{{VendorCode: "SKU-1", Success: true, ExternalID: "nm-9"}}, nil)

	f.mappingRepo.On("UpsertMarketplaceProduct", mock.Anything, mock.MatchedBy(func(r *models.MarketplaceProduct) bool {
		return r.Tier == models.TierVariation && r.EntityID == variationID && r.ExternalID == "nm-9"
	})).Return(nil).Once()
	f.mappingRepo.On("UpsertMarketplaceProduct", mock.Anything, mock.MatchedBy(func(r *models.MarketplaceProduct) bool {
		return r.Tier == models.TierProduct && r.EntityID == productID
	})).Return(nil).Once()
	f.mappingRepo.On("UpsertMarketplaceProduct", mock.Anything, mock.MatchedBy(func(r *models.MarketplaceProduct) bool {
		return r.Tier == models.TierItem && r.EntityID == itemID
	})).Return(nil).Once()

	progress := &models.SyncProgress{}
	err := f.svc.Run(context.Background(), client, integration, batch, progress, func(models.LogLevel, string, models.JSONB) {})

	assert.NoError(t, err)
	assert.Equal(t, 1, progress.SuccessfulItems)
	f.mappingRepo.AssertExpectations(t)
}

func TestChunkEntries(t *testing.T) {
	entries := make([]clients.CatalogEntry, 7)
	chunks := chunkEntries(entries, 3)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 3)
	assert.Len(t, chunks[2], 1)

	assert.Nil(t, chunkEntries(nil, 3))
}

func TestSplitMediaURLs(t *testing.T) {
	images, videos := SplitMediaURLs([]string{
		"https://cdn.example.com/a.jpg",
		"https://cdn.example.com/b.MP4",
		"https://cdn.example.com/c.webm?sig=abc",
		"https://cdn.example.com/d.png?w=800",
	})

	assert.Equal(t, []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/d.png?w=800"}, images)
	assert.Equal(t, []string{"https://cdn.example.com/b.MP4", "https://cdn.example.com/c.webm?sig=abc"}, videos)
}

func TestApplyDimensions(t *testing.T) {
	length, width, height, weight := 305, 204, 55, 750
	product := &models.Product{LengthMM: &length, WidthMM: &width, HeightMM: &height, WeightGrams: &weight}

	entry := &clients.CatalogEntry{}
	applyDimensions(entry, product)

	assert.Equal(t, 31, entry.LengthCm)
	assert.Equal(t, 20, entry.WidthCm)
	assert.Equal(t, 6, entry.HeightCm)
	assert.Equal(t, 0.75, entry.WeightKg)
}
