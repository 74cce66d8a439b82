package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncDirection represents the direction of data flow
type SyncDirection string

const (
	SyncDirectionExport SyncDirection = "EXPORT"
	SyncDirectionImport SyncDirection = "IMPORT"
)

// SyncJobStatus represents the status of a sync job
type SyncJobStatus string

const (
	SyncJobPending   SyncJobStatus = "PENDING"
	SyncJobRunning   SyncJobStatus = "RUNNING"
	SyncJobCompleted SyncJobStatus = "COMPLETED"
	SyncJobFailed    SyncJobStatus = "FAILED"
)

// TriggerType represents what triggered the sync
type TriggerType string

const (
	TriggerManual    TriggerType = "MANUAL"
	TriggerScheduled TriggerType = "SCHEDULED"
)

// SyncProgress tracks counters for a sync job
type SyncProgress struct {
	TotalItems      int `json:"totalItems"`
	ProcessedItems  int `json:"processedItems"`
	SuccessfulItems int `json:"successfulItems"`
	FailedItems     int `json:"failedItems"`
	SkippedItems    int `json:"skippedItems"`
}

// CatalogSyncJob represents one background export or import run
type CatalogSyncJob struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	IntegrationID uuid.UUID `gorm:"type:uuid;not null;index:idx_sync_jobs_integration" json:"integrationId"`
	TenantID      string    `gorm:"type:varchar(255);not null;index:idx_sync_jobs_tenant" json:"tenantId"`

	Direction SyncDirection `gorm:"type:varchar(50);not null" json:"direction"`
	Status    SyncJobStatus `gorm:"type:varchar(50);not null;default:'PENDING';index:idx_sync_jobs_status" json:"status"`

	Progress JSONB `gorm:"type:jsonb;default:'{}'" json:"progress"`

	// Import pagination cursor, persisted so a rerun resumes the page walk
	Cursor string `gorm:"type:varchar(500)" json:"cursor,omitempty"`

	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	ErrorMessage string `gorm:"type:text" json:"errorMessage,omitempty"`

	TriggeredBy TriggerType `gorm:"type:varchar(50)" json:"triggeredBy,omitempty"`
	CreatedBy   string      `gorm:"type:varchar(255)" json:"createdBy,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	Integration *Integration     `gorm:"foreignKey:IntegrationID" json:"integration,omitempty"`
	Logs        []CatalogSyncLog `gorm:"foreignKey:SyncJobID" json:"logs,omitempty"`
}

// TableName specifies the table name for CatalogSyncJob
func (CatalogSyncJob) TableName() string {
	return "catalog_sync_jobs"
}

// GetProgress returns the sync progress as a structured object
func (j *CatalogSyncJob) GetProgress() *SyncProgress {
	progress := &SyncProgress{}
	if j.Progress != nil {
		if v, ok := j.Progress["totalItems"].(float64); ok {
			progress.TotalItems = int(v)
		}
		if v, ok := j.Progress["processedItems"].(float64); ok {
			progress.ProcessedItems = int(v)
		}
		if v, ok := j.Progress["successfulItems"].(float64); ok {
			progress.SuccessfulItems = int(v)
		}
		if v, ok := j.Progress["failedItems"].(float64); ok {
			progress.FailedItems = int(v)
		}
		if v, ok := j.Progress["skippedItems"].(float64); ok {
			progress.SkippedItems = int(v)
		}
	}
	return progress
}

// SetProgress sets the sync progress from a structured object
func (j *CatalogSyncJob) SetProgress(progress *SyncProgress) {
	j.Progress = JSONB{
		"totalItems":      progress.TotalItems,
		"processedItems":  progress.ProcessedItems,
		"successfulItems": progress.SuccessfulItems,
		"failedItems":     progress.FailedItems,
		"skippedItems":    progress.SkippedItems,
	}
}

// LogLevel represents the severity level of a sync log
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// CatalogSyncLog is a per-item log entry of a sync job. Skipped and failed
// items always land here with sku/barcode/attribute context.
type CatalogSyncLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SyncJobID uuid.UUID `gorm:"type:uuid;not null;index:idx_sync_logs_job" json:"syncJobId"`

	Level   LogLevel `gorm:"type:varchar(20);not null;default:'info';index:idx_sync_logs_level" json:"level"`
	Message string   `gorm:"type:text;not null" json:"message"`
	Data    JSONB    `gorm:"type:jsonb;default:'{}'" json:"data,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
}

// TableName specifies the table name for CatalogSyncLog
func (CatalogSyncLog) TableName() string {
	return "catalog_sync_logs"
}
