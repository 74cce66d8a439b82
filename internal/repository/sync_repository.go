package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"catalog-sync-service/internal/models"
)

// SyncRepositoryInterface is the job/log surface consumed by the sync service
type SyncRepositoryInterface interface {
	CreateJob(ctx context.Context, job *models.CatalogSyncJob) error
	GetJobByID(ctx context.Context, id uuid.UUID) (*models.CatalogSyncJob, error)
	GetRunningJobs(ctx context.Context, integrationID uuid.UUID) ([]models.CatalogSyncJob, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status models.SyncJobStatus, errorMessage string) error
	UpdateJobProgress(ctx context.Context, id uuid.UUID, progress *models.SyncProgress) error
	UpdateJobCursor(ctx context.Context, id uuid.UUID, cursor string) error
	ListJobs(ctx context.Context, opts SyncListOptions) ([]models.CatalogSyncJob, int64, error)
	CreateLog(ctx context.Context, log *models.CatalogSyncLog) error
	GetJobLogs(ctx context.Context, jobID uuid.UUID, opts LogListOptions) ([]models.CatalogSyncLog, error)
}

// SyncRepository handles database operations for sync jobs
type SyncRepository struct {
	db *gorm.DB
}

var _ SyncRepositoryInterface = (*SyncRepository)(nil)

// NewSyncRepository creates a new sync repository
func NewSyncRepository(db *gorm.DB) *SyncRepository {
	return &SyncRepository{db: db}
}

// CreateJob creates a new sync job
func (r *SyncRepository) CreateJob(ctx context.Context, job *models.CatalogSyncJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// GetJobByID retrieves a sync job by ID. Returns nil when it does not exist.
func (r *SyncRepository) GetJobByID(ctx context.Context, id uuid.UUID) (*models.CatalogSyncJob, error) {
	var job models.CatalogSyncJob
	err := r.db.WithContext(ctx).
		Preload("Integration").
		First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetRunningJobs retrieves running jobs for an integration
func (r *SyncRepository) GetRunningJobs(ctx context.Context, integrationID uuid.UUID) ([]models.CatalogSyncJob, error) {
	var jobs []models.CatalogSyncJob
	err := r.db.WithContext(ctx).
		Where("integration_id = ? AND status = ?", integrationID, models.SyncJobRunning).
		Find(&jobs).Error
	return jobs, err
}

// UpdateJobStatus updates the job status
func (r *SyncRepository) UpdateJobStatus(ctx context.Context, id uuid.UUID, status models.SyncJobStatus, errorMessage string) error {
	updates := map[string]interface{}{
		"status":        status,
		"error_message": errorMessage,
		"updated_at":    time.Now(),
	}
	if status == models.SyncJobCompleted || status == models.SyncJobFailed {
		now := time.Now()
		updates["completed_at"] = &now
	}
	return r.db.WithContext(ctx).
		Model(&models.CatalogSyncJob{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateJobProgress updates the job progress counters
func (r *SyncRepository) UpdateJobProgress(ctx context.Context, id uuid.UUID, progress *models.SyncProgress) error {
	progressJSON := models.JSONB{
		"totalItems":      progress.TotalItems,
		"processedItems":  progress.ProcessedItems,
		"successfulItems": progress.SuccessfulItems,
		"failedItems":     progress.FailedItems,
		"skippedItems":    progress.SkippedItems,
	}
	return r.db.WithContext(ctx).
		Model(&models.CatalogSyncJob{}).
		Where("id = ?", id).
		Update("progress", progressJSON).Error
}

// UpdateJobCursor persists the pagination cursor so a rerun resumes the walk
func (r *SyncRepository) UpdateJobCursor(ctx context.Context, id uuid.UUID, cursor string) error {
	return r.db.WithContext(ctx).
		Model(&models.CatalogSyncJob{}).
		Where("id = ?", id).
		Update("cursor", cursor).Error
}

// SyncListOptions contains options for listing sync jobs
type SyncListOptions struct {
	TenantID      string
	IntegrationID uuid.UUID
	Status        string
	Direction     string
	Limit         int
	Offset        int
}

// ListJobs retrieves sync jobs with pagination and filtering
func (r *SyncRepository) ListJobs(ctx context.Context, opts SyncListOptions) ([]models.CatalogSyncJob, int64, error) {
	var jobs []models.CatalogSyncJob
	var total int64

	query := r.db.WithContext(ctx).Model(&models.CatalogSyncJob{})

	if opts.TenantID != "" {
		query = query.Where("tenant_id = ?", opts.TenantID)
	}
	if opts.IntegrationID != uuid.Nil {
		query = query.Where("integration_id = ?", opts.IntegrationID)
	}
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}
	if opts.Direction != "" {
		query = query.Where("direction = ?", opts.Direction)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	err := query.Order("created_at DESC").Find(&jobs).Error
	return jobs, total, err
}

// CreateLog creates a sync log entry
func (r *SyncRepository) CreateLog(ctx context.Context, log *models.CatalogSyncLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// LogListOptions contains options for listing sync logs
type LogListOptions struct {
	Level  string
	Limit  int
	Offset int
}

// GetJobLogs retrieves logs for a sync job
func (r *SyncRepository) GetJobLogs(ctx context.Context, jobID uuid.UUID, opts LogListOptions) ([]models.CatalogSyncLog, error) {
	var logs []models.CatalogSyncLog

	query := r.db.WithContext(ctx).Where("sync_job_id = ?", jobID)
	if opts.Level != "" {
		query = query.Where("level = ?", opts.Level)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	err := query.Order("created_at ASC").Find(&logs).Error
	return logs, err
}
