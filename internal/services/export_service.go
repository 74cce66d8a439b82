package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"catalog-sync-service/internal/clients"
	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/repository"
	"catalog-sync-service/internal/syncerr"
)

// DefaultExportBatchSize is the chunk size for catalog create/update calls
const DefaultExportBatchSize = 100

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".webm": true,
}

// SkipRecord documents one entity the export left out and why
type SkipRecord struct {
	SKU string
	Err error
}

// ExportBatch is the outcome of the payload assembly pass, before anything
// is sent to the marketplace
type ExportBatch struct {
	ToCreate []clients.CatalogEntry
	ToUpdate []clients.CatalogEntry
	Skipped  []SkipRecord

	// variation id by vendor code, used to persist learned external ids.
	// Entries created and updated in the same run never share a vendor code.
	variationByVendor map[string]exportedVariation
}

type exportedVariation struct {
	ProductID   uuid.UUID
	VariationID uuid.UUID
	ItemIDs     map[string]uuid.UUID // barcode -> item id
	Barcodes    []string
}

// ExportService assembles marketplace payloads from the internal catalog and
// drives create/update calls. Payload assembly never mutates the catalog;
// only mapping records are written after successful remote calls.
type ExportService struct {
	catalogRepo  repository.CatalogRepositoryInterface
	categoryRepo repository.CategoryRepositoryInterface
	attrRepo     repository.AttributeRepositoryInterface
	mappingRepo  repository.MappingRepositoryInterface
	index        *AttributeIndex
	notifier     Notifier
	logger       *zap.Logger
	batchSize    int
}

// NewExportService creates a new export service
func NewExportService(
	catalogRepo repository.CatalogRepositoryInterface,
	categoryRepo repository.CategoryRepositoryInterface,
	attrRepo repository.AttributeRepositoryInterface,
	mappingRepo repository.MappingRepositoryInterface,
	index *AttributeIndex,
	notifier Notifier,
	logger *zap.Logger,
	batchSize int,
) *ExportService {
	if batchSize <= 0 {
		batchSize = DefaultExportBatchSize
	}
	return &ExportService{
		catalogRepo:  catalogRepo,
		categoryRepo: categoryRepo,
		attrRepo:     attrRepo,
		mappingRepo:  mappingRepo,
		index:        index,
		notifier:     notifier,
		logger:       logger,
		batchSize:    batchSize,
	}
}

// DeduplicateProducts collapses products sharing a SKU down to each group's
// main product. A group without an elected main is excluded entirely and the
// owner is notified once per SKU per run; the first duplicate sighting
// records the group so the election can be made. An existing election is
// never changed here.
func (s *ExportService) DeduplicateProducts(ctx context.Context, integration *models.Integration, notify Notifier, products []models.Product) ([]models.Product, []SkipRecord, error) {
	bySKU := make(map[string][]models.Product)
	order := make([]string, 0, len(products))
	for _, p := range products {
		if _, seen := bySKU[p.SKU]; !seen {
			order = append(order, p.SKU)
		}
		bySKU[p.SKU] = append(bySKU[p.SKU], p)
	}

	var kept []models.Product
	var skipped []SkipRecord
	for _, sku := range order {
		group := bySKU[sku]
		if len(group) == 1 {
			kept = append(kept, group[0])
			continue
		}

		record, err := s.catalogRepo.GetGroupBySKU(ctx, integration.TenantID, sku)
		if err != nil {
			return nil, nil, err
		}
		if record == nil {
			record = &models.ProductGroup{
				TenantID: integration.TenantID,
				SKU:      sku,
			}
			if err := s.catalogRepo.UpsertGroup(ctx, record); err != nil {
				return nil, nil, err
			}
		}

		var productIDs []uuid.UUID
		for _, p := range group {
			productIDs = append(productIDs, p.ID)
		}
		dup := &syncerr.DuplicateError{SKU: sku, ProductIDs: productIDs}

		if record.MainProductID == nil {
			for range group {
				skipped = append(skipped, SkipRecord{SKU: sku, Err: dup})
			}
			if notify != nil {
				_ = notify.NotifyOwner(ctx, integration, "duplicate-sku:"+sku,
					fmt.Sprintf("products sharing vendor code %q have no elected main product and were excluded from export", sku))
			}
			continue
		}

		mainFound := false
		for _, p := range group {
			if p.ID == *record.MainProductID {
				kept = append(kept, p)
				mainFound = true
			} else {
				skipped = append(skipped, SkipRecord{SKU: sku, Err: dup})
			}
		}
		if !mainFound {
			s.logger.Warn("product group main not in export set", zap.String("sku", sku))
		}
	}
	return kept, skipped, nil
}

// BuildPayloads assembles the create/update payloads for the given products.
// Item-level failures degrade to skips; only storage errors abort.
func (s *ExportService) BuildPayloads(ctx context.Context, client clients.MarketplaceClient, integration *models.Integration, products []models.Product) (*ExportBatch, error) {
	notify := NewRunNotifier(s.notifier)
	batch := &ExportBatch{variationByVendor: make(map[string]exportedVariation)}

	kept, skipped, err := s.DeduplicateProducts(ctx, integration, notify, products)
	if err != nil {
		return nil, err
	}
	batch.Skipped = skipped

	for _, product := range kept {
		if !product.IsLive() {
			batch.Skipped = append(batch.Skipped, SkipRecord{SKU: product.SKU,
				Err: &syncerr.ValidationError{SKU: product.SKU, Reason: "product is not active"}})
			continue
		}
		if err := s.buildProduct(ctx, client, integration, &product, batch); err != nil {
			if syncerr.IsFatal(err) {
				return nil, err
			}
			if syncerr.IsItemLevel(err) {
				batch.Skipped = append(batch.Skipped, SkipRecord{SKU: product.SKU, Err: err})
				continue
			}
			return nil, err
		}
	}
	return batch, nil
}

func (s *ExportService) buildProduct(ctx context.Context, client clients.MarketplaceClient, integration *models.Integration, product *models.Product, batch *ExportBatch) error {
	mp := client.GetType()

	if product.CategoryID == nil {
		return &syncerr.MappingError{SKU: product.SKU, Marketplace: string(mp), Subject: "category", Name: "(none)"}
	}
	category, err := s.categoryRepo.GetByID(ctx, *product.CategoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return &syncerr.MappingError{SKU: product.SKU, Marketplace: string(mp), Subject: "category", Name: product.CategoryID.String()}
	}
	catMap := category.MarketplaceMapFor(mp)
	if catMap == nil || !catMap.IsPublished {
		return &syncerr.MappingError{SKU: product.SKU, Marketplace: string(mp), Subject: "category", Name: category.Name}
	}

	rules, err := s.index.EnsureCharacteristics(ctx, client, catMap.ExternalCategoryID)
	if err != nil {
		return err
	}
	plan := ResolveAttributeOrder(category.Attributes)

	for vi := range product.Variations {
		variation := &product.Variations[vi]
		if !variation.IsActive {
			continue
		}
		entry, exported, sizeSkips, err := s.buildVariation(ctx, client, integration, product, variation, catMap, plan, rules)
		batch.Skipped = append(batch.Skipped, sizeSkips...)
		if err != nil {
			if syncerr.IsItemLevel(err) {
				batch.Skipped = append(batch.Skipped, SkipRecord{SKU: product.SKU, Err: err})
				s.logger.Info("variation skipped",
					zap.String("sku", product.SKU),
					zap.String("variationId", variation.ID.String()),
					zap.Error(err))
				continue
			}
			return err
		}

		// Learned external ids route the entry to update instead of create
		existing, err := s.mappingRepo.GetMarketplaceProduct(ctx, integration.ID, variation.ID, models.TierVariation)
		if err != nil {
			return err
		}
		if existing != nil && existing.ExternalID != "" {
			entry.ExternalID = existing.ExternalID
			batch.ToUpdate = append(batch.ToUpdate, *entry)
		} else {
			batch.ToCreate = append(batch.ToCreate, *entry)
		}
		batch.variationByVendor[entry.VendorCode] = *exported
	}
	return nil
}

func (s *ExportService) buildVariation(
	ctx context.Context,
	client clients.MarketplaceClient,
	integration *models.Integration,
	product *models.Product,
	variation *models.Variation,
	catMap *models.CategoryMarketplaceMap,
	plan []AttributeDescriptor,
	rules []clients.AttributeRule,
) (*clients.CatalogEntry, *exportedVariation, []SkipRecord, error) {
	entry := &clients.CatalogEntry{
		VendorCode:         product.SKU,
		CategoryExternalID: catMap.ExternalCategoryID,
		Title:              product.Title,
	}
	if len(product.Variations) > 1 && variation.Name != "" {
		entry.VendorCode = product.SKU + "/" + variation.Name
	}
	if product.Description != nil {
		entry.Description = *product.Description
	}
	if product.Brand != nil {
		entry.Brand = *product.Brand
	}

	entry.ImageURLs, entry.VideoURLs = SplitMediaURLs(variation.MediaURLs)
	applyDimensions(entry, product)

	var sizeDescs []AttributeDescriptor
	for _, desc := range plan {
		if desc.Subject == models.SubjectModification {
			sizeDescs = append(sizeDescs, desc)
			continue
		}

		value, err := lookupTaggedValue(desc, product, variation)
		if err != nil {
			return nil, nil, nil, &syncerr.ValidationError{SKU: product.SKU, Attribute: desc.Name, Reason: err.Error()}
		}
		if value.IsEmpty() {
			if desc.Required {
				return nil, nil, nil, &syncerr.ValidationError{SKU: product.SKU, Attribute: desc.Name, Reason: "is required but has no value"}
			}
			continue
		}

		rule, err := s.index.RuleFor(ctx, integration.TenantID, client.GetType(), desc, rules)
		if err != nil {
			return nil, nil, nil, err
		}
		if rule == nil {
			if desc.Required {
				return nil, nil, nil, &syncerr.MappingError{SKU: product.SKU, Marketplace: string(client.GetType()), Subject: "attribute", Name: desc.Name}
			}
			continue
		}

		cv, err := s.index.ResolveCharacteristic(ctx, client, product.SKU, desc, *rule, value)
		if err != nil {
			return nil, nil, nil, err
		}
		entry.Characteristics = append(entry.Characteristics, cv)
	}

	if comp := s.compositionStrings(ctx, product); len(comp) > 0 {
		if rule := findRuleByName(rules, "composition"); rule != nil {
			entry.Characteristics = append(entry.Characteristics, clients.CharacteristicValue{
				ExternalID: rule.ExternalID, Name: rule.Name, Value: comp,
			})
		}
	}
	if product.Country != nil && *product.Country != "" {
		if rule := findRuleByName(rules, "country of origin"); rule != nil {
			entry.Characteristics = append(entry.Characteristics, clients.CharacteristicValue{
				ExternalID: rule.ExternalID, Name: rule.Name, Value: *product.Country,
			})
		}
	}
	if product.Keywords != nil && *product.Keywords != "" {
		if rule := findRuleByName(rules, "keywords"); rule != nil {
			entry.Characteristics = append(entry.Characteristics, clients.CharacteristicValue{
				ExternalID: rule.ExternalID, Name: rule.Name, Value: *product.Keywords,
			})
		}
	}

	if len(variation.Items) == 0 {
		return nil, nil, nil, &syncerr.ValidationError{SKU: product.SKU, Reason: "variation has no sellable items"}
	}

	exported := &exportedVariation{
		ProductID:   product.ID,
		VariationID: variation.ID,
		ItemIDs:     make(map[string]uuid.UUID, len(variation.Items)),
	}
	var skips []SkipRecord
	for ii := range variation.Items {
		item := &variation.Items[ii]
		size, err := s.buildSize(ctx, client, integration, product, item, sizeDescs, rules)
		if err != nil {
			// A bad size drops only itself; the remaining sizes still ship
			if syncerr.IsItemLevel(err) {
				skips = append(skips, SkipRecord{SKU: product.SKU, Err: err})
				s.logger.Info("size skipped",
					zap.String("sku", product.SKU),
					zap.String("barcode", item.Barcode),
					zap.Error(err))
				continue
			}
			return nil, nil, skips, err
		}

		entry.Sizes = append(entry.Sizes, *size)
		exported.ItemIDs[item.Barcode] = item.ID
		exported.Barcodes = append(exported.Barcodes, item.Barcode)
	}

	if len(entry.Sizes) == 0 {
		return nil, nil, skips, &syncerr.ValidationError{SKU: product.SKU, Reason: "variation has no exportable items"}
	}
	return entry, exported, skips, nil
}

func (s *ExportService) buildSize(ctx context.Context, client clients.MarketplaceClient, integration *models.Integration, product *models.Product, item *models.Item, sizeDescs []AttributeDescriptor, rules []clients.AttributeRule) (*clients.SizeEntry, error) {
	if item.Barcode == "" {
		return nil, &syncerr.ValidationError{SKU: product.SKU, Reason: "item has no barcode"}
	}
	size := &clients.SizeEntry{
		TechSize: item.TechSize,
		Price:    item.Price.StringFixed(2),
		Barcodes: []string{item.Barcode},
	}

	// Size-level characteristics live on the modification tier
	for _, desc := range sizeDescs {
		value, err := decodeFromJSONB(desc, item.AttributeValues)
		if err != nil {
			return nil, &syncerr.ValidationError{SKU: product.SKU, Barcode: item.Barcode, Attribute: desc.Name, Reason: err.Error()}
		}
		if value.IsEmpty() {
			if desc.Required {
				return nil, &syncerr.ValidationError{SKU: product.SKU, Barcode: item.Barcode, Attribute: desc.Name, Reason: "is required but has no value"}
			}
			continue
		}
		rule, err := s.index.RuleFor(ctx, integration.TenantID, client.GetType(), desc, rules)
		if err != nil {
			return nil, err
		}
		if rule == nil {
			continue
		}
		cv, err := s.index.ResolveCharacteristic(ctx, client, product.SKU, desc, *rule, value)
		if err != nil {
			return nil, err
		}
		size.Characteristics = append(size.Characteristics, cv)
	}

	if existing, err := s.mappingRepo.GetMarketplaceProduct(ctx, integration.ID, item.ID, models.TierItem); err != nil {
		return nil, err
	} else if existing != nil {
		size.ExternalID = existing.ExternalID
	}
	return size, nil
}

// compositionStrings renders the product's composition entries through the
// attribute value dictionary, clamping each percent into the remaining room
func (s *ExportService) compositionStrings(ctx context.Context, product *models.Product) []string {
	entries := decodeCompositionEntries(product.Composition)
	if len(entries) == 0 {
		return nil
	}

	sum := 0
	for i := range entries {
		entries[i].Percent = ClampPercent(sum, entries[i].Percent)
		sum += entries[i].Percent
	}

	return RenderComposition(entries, func(e models.CompositionEntry) string {
		av, err := s.attrRepo.GetValueByID(ctx, e.AttributeValueID)
		if err != nil || av == nil {
			s.logger.Warn("composition component has no dictionary value",
				zap.String("sku", product.SKU),
				zap.String("attributeValueId", e.AttributeValueID.String()))
			return ""
		}
		return av.Title
	})
}

// Run sends an assembled batch to the marketplace in chunks and persists
// learned external ids. Remote failures skip the chunk and continue;
// credential failures abort.
func (s *ExportService) Run(ctx context.Context, client clients.MarketplaceClient, integration *models.Integration, batch *ExportBatch, progress *models.SyncProgress, report func(level models.LogLevel, message string, data models.JSONB)) error {
	progress.TotalItems = len(batch.ToCreate) + len(batch.ToUpdate) + len(batch.Skipped)
	progress.SkippedItems = len(batch.Skipped)

	for _, skip := range batch.Skipped {
		report(models.LogLevelWarn, "entity skipped", models.JSONB{
			"sku":    skip.SKU,
			"reason": skip.Err.Error(),
		})
	}

	send := func(entries []clients.CatalogEntry, create bool) error {
		for _, chunk := range chunkEntries(entries, s.batchSize) {
			var results []clients.EntryResult
			var err error
			if create {
				results, err = client.CreateCatalogEntries(ctx, chunk)
			} else {
				results, err = client.UpdateCatalogEntries(ctx, chunk)
			}
			if err != nil {
				if syncerr.IsFatal(err) {
					return err
				}
				progress.FailedItems += len(chunk)
				progress.ProcessedItems += len(chunk)
				report(models.LogLevelError, "chunk failed", models.JSONB{
					"size":   len(chunk),
					"create": create,
					"error":  err.Error(),
				})
				continue
			}
			s.recordResults(ctx, integration, batch, chunk, results, progress, report)
		}
		return nil
	}

	if err := send(batch.ToCreate, true); err != nil {
		return err
	}
	return send(batch.ToUpdate, false)
}

func (s *ExportService) recordResults(ctx context.Context, integration *models.Integration, batch *ExportBatch, chunk []clients.CatalogEntry, results []clients.EntryResult, progress *models.SyncProgress, report func(level models.LogLevel, message string, data models.JSONB)) {
	byVendor := make(map[string]clients.EntryResult, len(results))
	for _, r := range results {
		byVendor[r.VendorCode] = r
	}

	for _, entry := range chunk {
		progress.ProcessedItems++
		result, ok := byVendor[entry.VendorCode]
		if !ok {
			result = clients.EntryResult{VendorCode: entry.VendorCode, Success: true, ExternalID: entry.ExternalID}
		}
		if !result.Success {
			progress.FailedItems++
			report(models.LogLevelError, "entry rejected", models.JSONB{
				"vendorCode": entry.VendorCode,
				"detail":     result.Detail,
			})
			continue
		}
		progress.SuccessfulItems++

		exported, tracked := batch.variationByVendor[entry.VendorCode]
		if !tracked {
			continue
		}
		s.persistMappings(ctx, integration, entry, exported, result.ExternalID)
	}
}

func (s *ExportService) persistMappings(ctx context.Context, integration *models.Integration, entry clients.CatalogEntry, exported exportedVariation, externalID string) {
	now := models.JSONB{"vendorCode": entry.VendorCode}

	upsert := func(entityID uuid.UUID, tier models.EntityTier, extID string, barcodes []string) {
		record := &models.MarketplaceProduct{
			TenantID:      integration.TenantID,
			IntegrationID: integration.ID,
			EntityID:      entityID,
			Tier:          tier,
			ExternalID:    extID,
			SKU:           entry.VendorCode,
			Barcodes:      barcodes,
			Status:        models.MarketplaceProductSynced,
			RawSnapshot:   now,
		}
		if err := s.mappingRepo.UpsertMarketplaceProduct(ctx, record); err != nil {
			s.logger.Error("mapping upsert failed",
				zap.String("entityId", entityID.String()),
				zap.String("tier", string(tier)),
				zap.Error(err))
		}
	}

	upsert(exported.ProductID, models.TierProduct, "", exported.Barcodes)
	upsert(exported.VariationID, models.TierVariation, externalID, exported.Barcodes)
	for barcode, itemID := range exported.ItemIDs {
		upsert(itemID, models.TierItem, "", []string{barcode})
	}
}

// chunkEntries splits entries into chunks of at most size
func chunkEntries(entries []clients.CatalogEntry, size int) [][]clients.CatalogEntry {
	if size <= 0 {
		size = DefaultExportBatchSize
	}
	var chunks [][]clients.CatalogEntry
	for start := 0; start < len(entries); start += size {
		end := start + size
		if end > len(entries) {
			end = len(entries)
		}
		chunks = append(chunks, entries[start:end])
	}
	return chunks
}
