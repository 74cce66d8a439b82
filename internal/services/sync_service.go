package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"catalog-sync-service/internal/clients"
	"catalog-sync-service/internal/clients/wildberries"
	"catalog-sync-service/internal/config"
	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/repository"
	"catalog-sync-service/internal/secrets"
	"catalog-sync-service/internal/syncerr"
)

// SyncService owns the lifecycle of export and import jobs: creation, the
// background run, cancellation, and the per-item logs.
type SyncService struct {
	syncRepo        repository.SyncRepositoryInterface
	integrationRepo repository.IntegrationRepositoryInterface
	vault           *secrets.TokenVault
	config          *config.Config
	exportService   *ExportService
	importService   *ImportService
	priceStock      *PriceStockService
	logger          *zap.Logger

	activeJobs  map[uuid.UUID]context.CancelFunc
	mu          sync.RWMutex
	concurrency *TenantSemaphore
}

// NewSyncService creates a new sync service
func NewSyncService(
	syncRepo repository.SyncRepositoryInterface,
	integrationRepo repository.IntegrationRepositoryInterface,
	vault *secrets.TokenVault,
	cfg *config.Config,
	exportService *ExportService,
	importService *ImportService,
	priceStock *PriceStockService,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		syncRepo:        syncRepo,
		integrationRepo: integrationRepo,
		vault:           vault,
		config:          cfg,
		exportService:   exportService,
		importService:   importService,
		priceStock:      priceStock,
		logger:          logger,
		activeJobs:      make(map[uuid.UUID]context.CancelFunc),
		concurrency:     NewTenantSemaphore(DefaultConcurrencyConfig()),
	}
}

// SetConcurrencyLimiter sets the concurrency limiter
func (s *SyncService) SetConcurrencyLimiter(concurrency *TenantSemaphore) {
	s.concurrency = concurrency
}

// Concurrency exposes the limiter for the health endpoint
func (s *SyncService) Concurrency() *TenantSemaphore {
	return s.concurrency
}

// CreateJobRequest contains the data for starting a new sync job
type CreateJobRequest struct {
	IntegrationID uuid.UUID            `json:"integrationId"`
	Direction     models.SyncDirection `json:"direction"`
	TriggeredBy   models.TriggerType   `json:"triggeredBy"`
	CreatedBy     string               `json:"createdBy,omitempty"`

	// Export only: the products to send. Empty means nothing to do.
	ProductIDs []uuid.UUID `json:"productIds,omitempty"`
}

// CreateJob creates a sync job and starts it in the background
func (s *SyncService) CreateJob(ctx context.Context, tenantID string, req *CreateJobRequest) (*models.CatalogSyncJob, error) {
	integration, err := s.integrationRepo.GetByID(ctx, req.IntegrationID)
	if err != nil {
		return nil, fmt.Errorf("integration lookup failed: %w", err)
	}
	if integration == nil || integration.TenantID != tenantID {
		return nil, fmt.Errorf("integration not found")
	}
	if !integration.IsEnabled || integration.Status != models.IntegrationConnected {
		return nil, fmt.Errorf("integration is not active")
	}
	if req.Direction == models.SyncDirectionExport && len(req.ProductIDs) == 0 {
		return nil, fmt.Errorf("export requires at least one product")
	}

	running, err := s.syncRepo.GetRunningJobs(ctx, req.IntegrationID)
	if err != nil {
		return nil, err
	}
	if len(running) > 0 {
		return nil, fmt.Errorf("a sync job is already running for this integration")
	}

	now := time.Now()
	job := &models.CatalogSyncJob{
		ID:            uuid.New(),
		IntegrationID: integration.ID,
		TenantID:      tenantID,
		Direction:     req.Direction,
		Status:        models.SyncJobRunning,
		TriggeredBy:   req.TriggeredBy,
		CreatedBy:     req.CreatedBy,
		StartedAt:     &now,
	}
	job.SetProgress(&models.SyncProgress{})

	if err := s.syncRepo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	jobCtx, cancel := context.WithTimeout(context.Background(), s.config.SyncTimeout)
	s.mu.Lock()
	s.activeJobs[job.ID] = cancel
	s.mu.Unlock()

	go s.runSync(jobCtx, job, integration, req.ProductIDs)

	return job, nil
}

// GetJob retrieves a sync job by ID
func (s *SyncService) GetJob(ctx context.Context, id uuid.UUID) (*models.CatalogSyncJob, error) {
	return s.syncRepo.GetJobByID(ctx, id)
}

// ListJobs lists sync jobs for a tenant
func (s *SyncService) ListJobs(ctx context.Context, tenantID string, opts *repository.SyncListOptions) ([]models.CatalogSyncJob, int64, error) {
	if opts == nil {
		opts = &repository.SyncListOptions{}
	}
	opts.TenantID = tenantID
	return s.syncRepo.ListJobs(ctx, *opts)
}

// CancelJob cancels a running sync job
func (s *SyncService) CancelJob(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	cancel, exists := s.activeJobs[id]
	s.mu.Unlock()

	if !exists {
		return fmt.Errorf("job not found or not running")
	}

	cancel()
	return s.syncRepo.UpdateJobStatus(ctx, id, models.SyncJobFailed, "Cancelled by user")
}

// GetJobLogs retrieves logs for a sync job
func (s *SyncService) GetJobLogs(ctx context.Context, jobID uuid.UUID, opts *repository.LogListOptions) ([]models.CatalogSyncLog, error) {
	if opts == nil {
		opts = &repository.LogListOptions{Limit: 100}
	}
	return s.syncRepo.GetJobLogs(ctx, jobID, *opts)
}

// runSync executes one job end to end, under the concurrency limiter
func (s *SyncService) runSync(ctx context.Context, job *models.CatalogSyncJob, integration *models.Integration, productIDs []uuid.UUID) {
	defer func() {
		s.mu.Lock()
		delete(s.activeJobs, job.ID)
		s.mu.Unlock()
	}()

	release, err := s.concurrency.Acquire(ctx, job.TenantID, integration.ID.String())
	if err != nil {
		s.failJob(ctx, job.ID, integration, err.Error())
		return
	}
	defer release()

	s.logEvent(ctx, job.ID, models.LogLevelInfo, "Sync started", models.JSONB{
		"direction": string(job.Direction),
	})

	client, err := s.initializeClient(ctx, integration)
	if err != nil {
		s.failJob(ctx, job.ID, integration, fmt.Sprintf("Failed to initialize client: %v", err))
		return
	}

	var syncErr error
	switch job.Direction {
	case models.SyncDirectionExport:
		syncErr = s.runExport(ctx, job, integration, client, productIDs)
	case models.SyncDirectionImport:
		syncErr = s.runImport(ctx, job, integration, client)
	default:
		syncErr = fmt.Errorf("unsupported sync direction: %s", job.Direction)
	}

	if syncErr != nil {
		if ctx.Err() != nil {
			_ = s.syncRepo.UpdateJobStatus(context.Background(), job.ID, models.SyncJobFailed, "Cancelled")
			return
		}
		s.failJob(context.Background(), job.ID, integration, syncErr.Error())
		return
	}

	_ = s.syncRepo.UpdateJobStatus(context.Background(), job.ID, models.SyncJobCompleted, "")
	s.logEvent(context.Background(), job.ID, models.LogLevelInfo, "Sync completed successfully", nil)

	now := time.Now()
	if job.Direction == models.SyncDirectionExport {
		integration.LastExportAt = &now
	} else {
		integration.LastImportAt = &now
	}
	if err := s.integrationRepo.Update(context.Background(), integration); err != nil {
		s.logger.Warn("integration timestamp update failed", zap.Error(err))
	}
}

func (s *SyncService) runExport(ctx context.Context, job *models.CatalogSyncJob, integration *models.Integration, client clients.MarketplaceClient, productIDs []uuid.UUID) error {
	products, err := s.exportService.catalogRepo.GetProductsByIDs(ctx, integration.TenantID, productIDs)
	if err != nil {
		return err
	}

	batch, err := s.exportService.BuildPayloads(ctx, client, integration, products)
	if err != nil {
		return err
	}

	progress := &models.SyncProgress{}
	report := s.reporter(job.ID, progress)
	if err := s.exportService.Run(ctx, client, integration, batch, progress, report); err != nil {
		return err
	}

	if err := s.priceStock.PushPrices(ctx, client, integration, productIDs); err != nil {
		return err
	}
	if err := s.priceStock.PushStocks(ctx, client, integration, productIDs); err != nil {
		return err
	}

	_ = s.syncRepo.UpdateJobProgress(ctx, job.ID, progress)
	return nil
}

func (s *SyncService) runImport(ctx context.Context, job *models.CatalogSyncJob, integration *models.Integration, client clients.MarketplaceClient) error {
	progress := &models.SyncProgress{}
	report := s.reporter(job.ID, progress)

	saveCursor := func(cursor string) error {
		_ = s.syncRepo.UpdateJobProgress(ctx, job.ID, progress)
		return s.syncRepo.UpdateJobCursor(ctx, job.ID, cursor)
	}

	if err := s.importService.Run(ctx, client, integration, job.Cursor, progress, saveCursor, report); err != nil {
		return err
	}
	_ = s.syncRepo.UpdateJobProgress(ctx, job.ID, progress)
	return nil
}

// reporter builds the per-item log callback the pipelines use
func (s *SyncService) reporter(jobID uuid.UUID, progress *models.SyncProgress) func(models.LogLevel, string, models.JSONB) {
	return func(level models.LogLevel, message string, data models.JSONB) {
		s.logEvent(context.Background(), jobID, level, message, data)
		if progress.ProcessedItems%10 == 0 {
			_ = s.syncRepo.UpdateJobProgress(context.Background(), jobID, progress)
		}
	}
}

// initializeClient opens the sealed token and builds the marketplace client
func (s *SyncService) initializeClient(ctx context.Context, integration *models.Integration) (clients.MarketplaceClient, error) {
	if integration.SealedToken == "" {
		return nil, &syncerr.CredentialError{Integration: integration.ID.String(), Reason: "no API token configured"}
	}
	token, err := s.vault.Open(integration.SealedToken)
	if err != nil {
		return nil, &syncerr.CredentialError{Integration: integration.ID.String(), Reason: "token unseal failed"}
	}

	var client clients.MarketplaceClient
	switch integration.MarketplaceType {
	case models.MarketplaceWildberries:
		client = wildberries.NewClient()
	default:
		return nil, &clients.UnsupportedMarketplaceError{MarketplaceType: string(integration.MarketplaceType)}
	}

	if err := client.Initialize(ctx, map[string]interface{}{"api_token": token}); err != nil {
		return nil, err
	}
	return client, nil
}

// failJob marks a job failed and bumps the integration error counter
func (s *SyncService) failJob(ctx context.Context, jobID uuid.UUID, integration *models.Integration, message string) {
	_ = s.syncRepo.UpdateJobStatus(ctx, jobID, models.SyncJobFailed, message)
	s.logEvent(ctx, jobID, models.LogLevelError, "Sync failed", models.JSONB{"error": message})
	if err := s.integrationRepo.RecordError(ctx, integration.ID, message); err != nil {
		s.logger.Warn("integration error record failed", zap.Error(err))
	}
}

// logEvent writes a per-item log record for a job
func (s *SyncService) logEvent(ctx context.Context, jobID uuid.UUID, level models.LogLevel, message string, data models.JSONB) {
	entry := &models.CatalogSyncLog{
		SyncJobID: jobID,
		Level:     level,
		Message:   message,
		Data:      data,
	}
	if err := s.syncRepo.CreateLog(ctx, entry); err != nil {
		s.logger.Warn("sync log write failed", zap.Error(err))
	}
}
