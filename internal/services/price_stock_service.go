package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"catalog-sync-service/internal/clients"
	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/repository"
	"catalog-sync-service/internal/syncerr"
)

// PriceStockService pushes item prices and stock levels to the marketplace.
// Only items with a learned mapping record are sent; everything else waits
// for the next catalog export.
type PriceStockService struct {
	catalogRepo repository.CatalogRepositoryInterface
	mappingRepo repository.MappingRepositoryInterface
	logger      *zap.Logger
	batchSize   int
}

// NewPriceStockService creates a new price/stock service
func NewPriceStockService(
	catalogRepo repository.CatalogRepositoryInterface,
	mappingRepo repository.MappingRepositoryInterface,
	logger *zap.Logger,
	batchSize int,
) *PriceStockService {
	if batchSize <= 0 {
		batchSize = DefaultExportBatchSize
	}
	return &PriceStockService{
		catalogRepo: catalogRepo,
		mappingRepo: mappingRepo,
		logger:      logger,
		batchSize:   batchSize,
	}
}

// PushPrices sends current item prices for the given products
func (s *PriceStockService) PushPrices(ctx context.Context, client clients.MarketplaceClient, integration *models.Integration, productIDs []uuid.UUID) error {
	products, err := s.catalogRepo.GetProductsByIDs(ctx, integration.TenantID, productIDs)
	if err != nil {
		return err
	}

	var records []clients.PriceRecord
	for _, p := range products {
		for _, v := range p.Variations {
			mapped, err := s.mappingRepo.GetMarketplaceProduct(ctx, integration.ID, v.ID, models.TierVariation)
			if err != nil {
				return err
			}
			if mapped == nil || mapped.ExternalID == "" {
				continue
			}
			for _, item := range v.Items {
				if item.Price.IsZero() {
					continue
				}
				records = append(records, clients.PriceRecord{
					ExternalID: mapped.ExternalID,
					Price:      item.Price.StringFixed(2),
				})
			}
		}
	}

	for _, chunk := range chunkPriceRecords(records, s.batchSize) {
		if err := client.UpdatePrices(ctx, chunk); err != nil {
			if syncerr.IsFatal(err) {
				return err
			}
			s.logger.Error("price chunk failed", zap.Int("size", len(chunk)), zap.Error(err))
		}
	}
	return nil
}

// PushStocks sends current stock levels for the given products
func (s *PriceStockService) PushStocks(ctx context.Context, client clients.MarketplaceClient, integration *models.Integration, productIDs []uuid.UUID) error {
	if integration.WarehouseID == "" {
		s.logger.Warn("stock push skipped, integration has no warehouse",
			zap.String("integrationId", integration.ID.String()))
		return nil
	}

	products, err := s.catalogRepo.GetProductsByIDs(ctx, integration.TenantID, productIDs)
	if err != nil {
		return err
	}

	var records []clients.StockRecord
	for _, p := range products {
		for _, v := range p.Variations {
			for _, item := range v.Items {
				if item.Barcode == "" {
					continue
				}
				records = append(records, clients.StockRecord{
					Barcode: item.Barcode,
					Amount:  item.Stock,
				})
			}
		}
	}

	for _, chunk := range chunkStockRecords(records, s.batchSize) {
		if err := client.UpdateStocks(ctx, integration.WarehouseID, chunk); err != nil {
			if syncerr.IsFatal(err) {
				return err
			}
			s.logger.Error("stock chunk failed", zap.Int("size", len(chunk)), zap.Error(err))
		}
	}
	return nil
}

func chunkPriceRecords(records []clients.PriceRecord, size int) [][]clients.PriceRecord {
	var chunks [][]clients.PriceRecord
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}

func chunkStockRecords(records []clients.StockRecord, size int) [][]clients.StockRecord {
	var chunks [][]clients.StockRecord
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}
