package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"catalog-sync-service/internal/clients"
	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/repository"
	"catalog-sync-service/internal/syncerr"
)

// DefaultImportPageSize is the page size for catalog list calls
const DefaultImportPageSize = 100

// defaultVariationKey groups all records of a vendor code into one variation
// when the category declares no variation-defining attributes
const defaultVariationKey = "default"

// ImportService walks the marketplace catalog and folds it into the internal
// product tree. Records are grouped by vendor code; within a group the
// persisted write order is product, then variations, then items, so a crash
// never leaves an item without its parents.
type ImportService struct {
	catalogRepo  repository.CatalogRepositoryInterface
	categoryRepo repository.CategoryRepositoryInterface
	attrRepo     repository.AttributeRepositoryInterface
	mappingRepo  repository.MappingRepositoryInterface
	index        *AttributeIndex
	logger       *zap.Logger
	pageSize     int
}

// NewImportService creates a new import service
func NewImportService(
	catalogRepo repository.CatalogRepositoryInterface,
	categoryRepo repository.CategoryRepositoryInterface,
	attrRepo repository.AttributeRepositoryInterface,
	mappingRepo repository.MappingRepositoryInterface,
	index *AttributeIndex,
	logger *zap.Logger,
	pageSize int,
) *ImportService {
	if pageSize <= 0 {
		pageSize = DefaultImportPageSize
	}
	return &ImportService{
		catalogRepo:  catalogRepo,
		categoryRepo: categoryRepo,
		attrRepo:     attrRepo,
		mappingRepo:  mappingRepo,
		index:        index,
		logger:       logger,
		pageSize:     pageSize,
	}
}

// Run pages through the marketplace catalog starting from the job's persisted
// cursor. Each page is processed group by group; the cursor is saved after
// every page so a rerun resumes the walk.
func (s *ImportService) Run(ctx context.Context, client clients.MarketplaceClient, integration *models.Integration, cursor string, progress *models.SyncProgress, saveCursor func(string) error, report func(level models.LogLevel, message string, data models.JSONB)) error {
	for {
		page, err := client.ListCatalogEntries(ctx, cursor, s.pageSize)
		if err != nil {
			return err
		}

		s.ProcessPage(ctx, client, integration, page.Records, progress, report)

		if err := saveCursor(page.NextCursor); err != nil {
			return err
		}
		if !page.HasMore {
			return nil
		}
		cursor = page.NextCursor
	}
}

// ProcessPage groups one page of records by vendor code and imports each
// group. Group failures are logged and skipped; the page continues.
func (s *ImportService) ProcessPage(ctx context.Context, client clients.MarketplaceClient, integration *models.Integration, records []clients.CardRecord, progress *models.SyncProgress, report func(level models.LogLevel, message string, data models.JSONB)) {
	groups := make(map[string][]clients.CardRecord)
	var order []string
	for _, r := range records {
		sku := baseVendorCode(r.VendorCode)
		if _, seen := groups[sku]; !seen {
			order = append(order, sku)
		}
		groups[sku] = append(groups[sku], r)
	}

	for _, sku := range order {
		group := groups[sku]
		progress.TotalItems += len(group)

		err := s.processGroup(ctx, client, integration, sku, group)
		progress.ProcessedItems += len(group)
		if err != nil {
			progress.FailedItems += len(group)
			level := models.LogLevelError
			if syncerr.IsItemLevel(err) {
				level = models.LogLevelWarn
			}
			report(level, "group import failed", models.JSONB{
				"sku":    sku,
				"reason": err.Error(),
			})
			continue
		}
		progress.SuccessfulItems += len(group)
	}
}

func (s *ImportService) processGroup(ctx context.Context, client clients.MarketplaceClient, integration *models.Integration, sku string, records []clients.CardRecord) error {
	barcodes := groupBarcodes(records)

	items, err := s.catalogRepo.FindItemsByBarcodes(ctx, integration.TenantID, barcodes)
	if err != nil {
		return err
	}

	itemsByBarcode := make(map[string]*models.Item, len(items))
	productIDs := make(map[uuid.UUID]bool)
	var knownProduct *models.Product
	for i := range items {
		itemsByBarcode[items[i].Barcode] = &items[i]
		if items[i].Variation != nil && items[i].Variation.Product != nil {
			p := items[i].Variation.Product
			if !productIDs[p.ID] {
				productIDs[p.ID] = true
				knownProduct = p
			}
		}
	}

	// Ambiguous barcode sets are never merged by guesswork
	if len(productIDs) > 1 {
		ids := make([]uuid.UUID, 0, len(productIDs))
		for id := range productIDs {
			ids = append(ids, id)
		}
		if err := s.catalogRepo.UpsertGroup(ctx, &models.ProductGroup{
			TenantID: integration.TenantID,
			SKU:      sku,
		}); err != nil {
			s.logger.Warn("product group upsert failed", zap.String("sku", sku), zap.Error(err))
		}
		return &syncerr.DuplicateError{SKU: sku, Barcodes: barcodes, ProductIDs: ids}
	}

	main := electMainRecord(records, itemsByBarcode)

	category, err := s.categoryRepo.GetByExternalID(ctx, client.GetType(), main.CategoryExternalID)
	if err != nil {
		return err
	}
	if category == nil {
		return &syncerr.MappingError{SKU: sku, Marketplace: string(client.GetType()), Subject: "category", Name: main.CategoryExternalID}
	}
	plan := ResolveAttributeOrder(category.Attributes)

	var product *models.Product
	created := false
	if knownProduct != nil {
		product, err = s.catalogRepo.GetProductByID(ctx, knownProduct.ID)
		if err != nil {
			return err
		}
	}
	if product == nil {
		product = &models.Product{
			TenantID:   integration.TenantID,
			SKU:        sku,
			Status:     models.ProductStatusActive,
			CategoryID: &category.ID,
		}
		created = true
	}

	s.applyRecordFields(product, main, category)
	if err := s.applyCharacteristics(ctx, client, integration, product, plan, main.Characteristics); err != nil {
		return err
	}

	if created {
		if err := s.catalogRepo.CreateProduct(ctx, product); err != nil {
			return err
		}
	} else {
		if err := s.catalogRepo.UpdateProduct(ctx, product); err != nil {
			return err
		}
	}

	varDescs := VariationDescriptors(plan)
	for _, record := range records {
		if err := s.importRecord(ctx, integration, product, varDescs, record, itemsByBarcode); err != nil {
			if syncerr.IsItemLevel(err) {
				s.logger.Warn("record degraded during import",
					zap.String("sku", sku),
					zap.String("externalId", record.ExternalID),
					zap.Error(err))
				continue
			}
			return err
		}
	}

	s.reportCompleteness(product, plan)
	return nil
}

// applyRecordFields folds the marketplace-owned fields of the main record
// into the product; internally-owned fields are left alone
func (s *ImportService) applyRecordFields(product *models.Product, main clients.CardRecord, category *models.Category) {
	if main.Title != "" {
		product.Title = main.Title
	}
	if main.Description != "" {
		desc := main.Description
		product.Description = &desc
	}
	if main.Brand != "" {
		brand := main.Brand
		product.Brand = &brand
	}
	if product.CategoryID == nil {
		product.CategoryID = &category.ID
	}
}

// applyCharacteristics decodes the record's characteristics into the
// product's attribute values. Unknown marketplace values are auto-registered
// as dictionary stubs; the first successful attribute match lazily creates
// the sync link.
func (s *ImportService) applyCharacteristics(ctx context.Context, client clients.MarketplaceClient, integration *models.Integration, product *models.Product, plan []AttributeDescriptor, characteristics []clients.CharacteristicValue) error {
	if product.AttributeValues == nil {
		product.AttributeValues = models.JSONB{}
	}

	descByName := make(map[string]AttributeDescriptor, len(plan))
	for _, d := range plan {
		descByName[NormalizeTitle(d.Name)] = d
	}

	for _, cv := range characteristics {
		name := NormalizeTitle(cv.Name)

		if isCompositionName(name) {
			entries, err := s.importComposition(ctx, integration.TenantID, cv)
			if err != nil {
				return err
			}
			if entries != nil {
				product.Composition = encodeCompositionEntries(entries)
			}
			continue
		}

		desc, bound := descByName[name]
		if !bound {
			// Not part of the category's plan; remember the value so a later
			// taxonomy pull can reconcile it
			for _, title := range characteristicStrings(cv.Value) {
				if err := s.index.RegisterStubValue(ctx, client.GetType(), cv.ExternalID, title); err != nil {
					s.logger.Debug("stub registration failed", zap.String("name", cv.Name), zap.Error(err))
				}
			}
			continue
		}

		if err := s.index.EnsureLink(ctx, integration.TenantID, client.GetType(), desc.AttributeID, nil, cv.ExternalID); err != nil {
			s.logger.Debug("sync link create failed", zap.Error(err))
		}

		tagged, err := s.decodeIncoming(ctx, integration.TenantID, desc, cv.Value)
		if err != nil {
			return err
		}
		if tagged.IsEmpty() {
			continue
		}
		if desc.Subject == models.SubjectAttribute {
			product.AttributeValues[desc.AttributeID.String()] = EncodeTaggedValue(tagged)
		}
	}
	return nil
}

// decodeIncoming turns a marketplace characteristic value into a tagged
// internal value, creating internal dictionary values for titles never seen
// before
func (s *ImportService) decodeIncoming(ctx context.Context, tenantID string, desc AttributeDescriptor, raw interface{}) (TaggedValue, error) {
	if !desc.Type.IsDictionary() {
		titles := characteristicStrings(raw)
		if len(titles) == 0 {
			return TaggedValue{}, nil
		}
		return TaggedValue{Kind: ValueKindScalar, Scalar: titles[0]}, nil
	}

	var ids []uuid.UUID
	for _, title := range characteristicStrings(raw) {
		av, err := s.findOrCreateValue(ctx, tenantID, desc, title)
		if err != nil {
			return TaggedValue{}, err
		}
		ids = append(ids, av.ID)
	}
	if len(ids) == 0 {
		return TaggedValue{}, nil
	}
	if desc.Type == models.AttributeTypeDictionaryCollection {
		return TaggedValue{Kind: ValueKindIDList, IDs: ids}, nil
	}
	return TaggedValue{Kind: ValueKindID, ID: ids[0]}, nil
}

func (s *ImportService) findOrCreateValue(ctx context.Context, tenantID string, desc AttributeDescriptor, title string) (*models.AttributeValue, error) {
	av, err := s.attrRepo.FindValueByNormalizedTitle(ctx, tenantID, desc.Name, title)
	if err != nil {
		return nil, err
	}
	if av != nil {
		return av, nil
	}
	av = &models.AttributeValue{
		TenantID:    tenantID,
		AttributeID: desc.AttributeID,
		Title:       title,
		BaseForm:    NormalizeTitle(title),
	}
	if err := s.attrRepo.CreateValue(ctx, av); err != nil {
		return nil, err
	}
	return av, nil
}

// importComposition parses "name percent%" strings into composition entries,
// clamping percents so the sum never exceeds 100
func (s *ImportService) importComposition(ctx context.Context, tenantID string, cv clients.CharacteristicValue) ([]models.CompositionEntry, error) {
	raw := characteristicStrings(cv.Value)
	if len(raw) == 0 {
		return nil, nil
	}

	attr, err := s.attrRepo.GetByName(ctx, tenantID, "Composition")
	if err != nil {
		return nil, err
	}
	if attr == nil {
		attr = &models.Attribute{
			TenantID: tenantID,
			Name:     "Composition",
			Type:     models.AttributeTypeDictionaryCollection,
		}
		if err := s.attrRepo.CreateAttribute(ctx, attr); err != nil {
			return nil, err
		}
	}
	desc := AttributeDescriptor{AttributeID: attr.ID, Name: attr.Name, Type: attr.Type}

	components := NormalizeComposition(ParseComposition(raw))
	entries := make([]models.CompositionEntry, 0, len(components))
	for _, comp := range components {
		av, err := s.findOrCreateValue(ctx, tenantID, desc, comp.Name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, models.CompositionEntry{AttributeValueID: av.ID, Percent: comp.Percent})
	}
	return entries, nil
}

// importRecord folds one marketplace record into a variation and its items
func (s *ImportService) importRecord(ctx context.Context, integration *models.Integration, product *models.Product, varDescs []AttributeDescriptor, record clients.CardRecord, itemsByBarcode map[string]*models.Item) error {
	key := variationKey(varDescs, record.Characteristics)

	variation := findVariation(product, key, record, itemsByBarcode)
	if variation == nil {
		variation = &models.Variation{
			TenantID:  integration.TenantID,
			ProductID: product.ID,
			IsActive:  true,
		}
		if key != defaultVariationKey {
			variation.Name = key
		}
		if len(record.MediaURLs) > 0 {
			variation.MediaURLs = record.MediaURLs
		}
		if err := s.applyVariationAttributes(ctx, integration.TenantID, variation, varDescs, record.Characteristics); err != nil {
			return err
		}
		if err := s.catalogRepo.CreateVariation(ctx, variation); err != nil {
			return err
		}
		product.Variations = append(product.Variations, *variation)
	} else {
		if len(record.MediaURLs) > 0 {
			variation.MediaURLs = record.MediaURLs
		}
		if err := s.applyVariationAttributes(ctx, integration.TenantID, variation, varDescs, record.Characteristics); err != nil {
			return err
		}
		if err := s.catalogRepo.UpdateVariation(ctx, variation); err != nil {
			return err
		}
	}

	for _, size := range record.Sizes {
		if err := s.importSize(ctx, integration, variation, record, size, itemsByBarcode); err != nil {
			if syncerr.IsItemLevel(err) {
				s.logger.Warn("size degraded during import",
					zap.String("sku", product.SKU),
					zap.Strings("barcodes", size.Barcodes),
					zap.Error(err))
				continue
			}
			return err
		}
	}

	s.recordMappings(ctx, integration, product, variation, record)
	return nil
}

func (s *ImportService) applyVariationAttributes(ctx context.Context, tenantID string, variation *models.Variation, varDescs []AttributeDescriptor, characteristics []clients.CharacteristicValue) error {
	if len(varDescs) == 0 {
		return nil
	}
	if variation.AttributeValues == nil {
		variation.AttributeValues = models.JSONB{}
	}
	for _, desc := range varDescs {
		cv := findCharacteristicByName(characteristics, desc.Name)
		if cv == nil {
			continue
		}
		tagged, err := s.decodeIncoming(ctx, tenantID, desc, cv.Value)
		if err != nil {
			return err
		}
		if !tagged.IsEmpty() {
			variation.AttributeValues[desc.AttributeID.String()] = EncodeTaggedValue(tagged)
		}
	}
	return nil
}

func (s *ImportService) importSize(ctx context.Context, integration *models.Integration, variation *models.Variation, record clients.CardRecord, size clients.CardSize, itemsByBarcode map[string]*models.Item) error {
	if len(size.Barcodes) == 0 {
		return &syncerr.ValidationError{SKU: record.VendorCode, Reason: "size record carries no barcode"}
	}
	barcode := size.Barcodes[0]

	var price decimal.Decimal
	if size.Price != "" {
		parsed, err := decimal.NewFromString(size.Price)
		if err != nil {
			return &syncerr.ValidationError{SKU: record.VendorCode, Barcode: barcode, Reason: "unparseable price " + size.Price}
		}
		price = parsed
	}

	item := itemsByBarcode[barcode]
	if item == nil {
		item = &models.Item{
			TenantID:    integration.TenantID,
			VariationID: variation.ID,
			Barcode:     barcode,
			TechSize:    size.TechSize,
			Price:       price,
		}
		if err := s.catalogRepo.CreateItem(ctx, item); err != nil {
			return err
		}
		itemsByBarcode[barcode] = item
	} else {
		item.TechSize = size.TechSize
		if !price.IsZero() {
			item.Price = price
		}
		if err := s.catalogRepo.UpdateItem(ctx, item); err != nil {
			return err
		}
	}

	return s.mappingRepo.UpsertMarketplaceProduct(ctx, &models.MarketplaceProduct{
		TenantID:      integration.TenantID,
		IntegrationID: integration.ID,
		EntityID:      item.ID,
		Tier:          models.TierItem,
		ExternalID:    size.ExternalID,
		SKU:           record.VendorCode,
		Barcodes:      size.Barcodes,
		Status:        models.MarketplaceProductSynced,
	})
}

func (s *ImportService) recordMappings(ctx context.Context, integration *models.Integration, product *models.Product, variation *models.Variation, record clients.CardRecord) {
	upsert := func(entityID uuid.UUID, tier models.EntityTier, externalID string) {
		err := s.mappingRepo.UpsertMarketplaceProduct(ctx, &models.MarketplaceProduct{
			TenantID:      integration.TenantID,
			IntegrationID: integration.ID,
			EntityID:      entityID,
			Tier:          tier,
			ExternalID:    externalID,
			SKU:           baseVendorCode(record.VendorCode),
			Status:        models.MarketplaceProductSynced,
			RawSnapshot:   models.JSONB(record.Raw),
		})
		if err != nil {
			s.logger.Error("mapping upsert failed",
				zap.String("entityId", entityID.String()),
				zap.String("tier", string(tier)),
				zap.Error(err))
		}
	}
	upsert(product.ID, models.TierProduct, "")
	upsert(variation.ID, models.TierVariation, record.ExternalID)
}

// reportCompleteness re-checks required attributes after an import pass
func (s *ImportService) reportCompleteness(product *models.Product, plan []AttributeDescriptor) {
	for _, desc := range plan {
		if !desc.Required || desc.Subject != models.SubjectAttribute {
			continue
		}
		if product.AttributeValues == nil || product.AttributeValues[desc.AttributeID.String()] == nil {
			s.logger.Warn("required attribute still unresolved after import",
				zap.String("sku", product.SKU),
				zap.String("attribute", desc.Name))
		}
	}
}

// baseVendorCode strips the variation suffix off a vendor code
func baseVendorCode(vendorCode string) string {
	return strings.SplitN(vendorCode, "/", 2)[0]
}

func groupBarcodes(records []clients.CardRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		for _, size := range r.Sizes {
			for _, b := range size.Barcodes {
				if b == "" || seen[b] {
					continue
				}
				seen[b] = true
				out = append(out, b)
			}
		}
	}
	return out
}

// electMainRecord picks the record a known product's barcodes point at, or
// the first record when the whole group is new
func electMainRecord(records []clients.CardRecord, itemsByBarcode map[string]*models.Item) clients.CardRecord {
	for _, r := range records {
		for _, size := range r.Sizes {
			for _, b := range size.Barcodes {
				if itemsByBarcode[b] != nil {
					return r
				}
			}
		}
	}
	return records[0]
}

// variationKey derives variation identity from the variation-defining
// characteristics of a record
func variationKey(varDescs []AttributeDescriptor, characteristics []clients.CharacteristicValue) string {
	if len(varDescs) == 0 {
		return defaultVariationKey
	}
	var parts []string
	for _, desc := range varDescs {
		cv := findCharacteristicByName(characteristics, desc.Name)
		if cv == nil {
			continue
		}
		values := characteristicStrings(cv.Value)
		if len(values) > 0 {
			parts = append(parts, strings.Join(values, ","))
		}
	}
	if len(parts) == 0 {
		return defaultVariationKey
	}
	return strings.Join(parts, "|")
}

// findVariation matches a record to an existing variation, first through the
// barcodes it shares with known items, then by variation key
func findVariation(product *models.Product, key string, record clients.CardRecord, itemsByBarcode map[string]*models.Item) *models.Variation {
	for _, size := range record.Sizes {
		for _, b := range size.Barcodes {
			if item := itemsByBarcode[b]; item != nil {
				for i := range product.Variations {
					if product.Variations[i].ID == item.VariationID {
						return &product.Variations[i]
					}
				}
			}
		}
	}
	for i := range product.Variations {
		v := &product.Variations[i]
		if key == defaultVariationKey && v.Name == "" {
			return v
		}
		if v.Name == key {
			return v
		}
	}
	return nil
}

func findCharacteristicByName(characteristics []clients.CharacteristicValue, name string) *clients.CharacteristicValue {
	target := NormalizeTitle(name)
	for i := range characteristics {
		if NormalizeTitle(characteristics[i].Name) == target {
			return &characteristics[i]
		}
	}
	return nil
}

// characteristicStrings flattens a characteristic value into its string parts
func characteristicStrings(raw interface{}) []string {
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	case []string:
		var out []string
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	case []interface{}:
		var out []string
		for _, entry := range v {
			if s, ok := entry.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func isCompositionName(normalized string) bool {
	return normalized == "composition"
}
