// Package scheduler drives recurring sync runs over all enabled integrations.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"catalog-sync-service/internal/config"
	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/repository"
	"catalog-sync-service/internal/services"
)

// Scheduler kicks off scheduled import and export jobs on cron expressions
type Scheduler struct {
	cron            *cron.Cron
	config          *config.Config
	integrationRepo repository.IntegrationRepositoryInterface
	catalogRepo     repository.CatalogRepositoryInterface
	syncService     *services.SyncService
	logger          *zap.Logger
}

// New creates a new scheduler
func New(
	cfg *config.Config,
	integrationRepo repository.IntegrationRepositoryInterface,
	catalogRepo repository.CatalogRepositoryInterface,
	syncService *services.SyncService,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cron:            cron.New(),
		config:          cfg,
		integrationRepo: integrationRepo,
		catalogRepo:     catalogRepo,
		syncService:     syncService,
		logger:          logger,
	}
}

// Start registers the configured cron entries and starts the scheduler
func (s *Scheduler) Start() error {
	if s.config.ImportCron != "" {
		if _, err := s.cron.AddFunc(s.config.ImportCron, func() {
			s.runAll(models.SyncDirectionImport)
		}); err != nil {
			return err
		}
	}
	if s.config.ExportCron != "" {
		if _, err := s.cron.AddFunc(s.config.ExportCron, func() {
			s.runAll(models.SyncDirectionExport)
		}); err != nil {
			return err
		}
	}

	// Hourly semaphore cleanup keeps idle tenants out of memory
	if _, err := s.cron.AddFunc("0 * * * *", func() {
		s.syncService.Concurrency().Cleanup()
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("importCron", s.config.ImportCron),
		zap.String("exportCron", s.config.ExportCron))
	return nil
}

// Stop stops the scheduler and waits for running entries
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
		s.logger.Warn("scheduler stop timed out")
	}
}

// runAll starts one job per enabled integration; failures to start one
// integration never block the rest
func (s *Scheduler) runAll(direction models.SyncDirection) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	integrations, err := s.integrationRepo.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("scheduled run could not list integrations", zap.Error(err))
		return
	}

	for _, integration := range integrations {
		req := &services.CreateJobRequest{
			IntegrationID: integration.ID,
			Direction:     direction,
			TriggeredBy:   models.TriggerScheduled,
		}

		if direction == models.SyncDirectionExport {
			ids, err := s.catalogRepo.ListActiveProductIDs(ctx, integration.TenantID)
			if err != nil {
				s.logger.Error("scheduled export could not list products",
					zap.String("integrationId", integration.ID.String()), zap.Error(err))
				continue
			}
			if len(ids) == 0 {
				continue
			}
			req.ProductIDs = ids
		}

		job, err := s.syncService.CreateJob(ctx, integration.TenantID, req)
		if err != nil {
			s.logger.Warn("scheduled job not started",
				zap.String("integrationId", integration.ID.String()),
				zap.String("direction", string(direction)),
				zap.Error(err))
			continue
		}
		s.logger.Info("scheduled job started",
			zap.String("jobId", job.ID.String()),
			zap.String("integrationId", integration.ID.String()),
			zap.String("direction", string(direction)))
	}
}
