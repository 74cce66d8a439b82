package services

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ConcurrencyConfig bounds how many sync jobs may run at once.
type ConcurrencyConfig struct {
	MaxJobsPerTenant      int           // concurrent jobs per tenant
	MaxJobsPerIntegration int           // concurrent jobs per integration
	JobTimeout            time.Duration // max duration for a single job
	QueueTimeout          time.Duration // max time to wait for a slot
}

// DefaultConcurrencyConfig returns production-ready defaults.
func DefaultConcurrencyConfig() *ConcurrencyConfig {
	return &ConcurrencyConfig{
		MaxJobsPerTenant:      5,
		MaxJobsPerIntegration: 1,
		JobTimeout:            30 * time.Minute,
		QueueTimeout:          5 * time.Minute,
	}
}

// TenantSemaphore serializes sync jobs per tenant and per integration.
// An export and an import against the same integration must never
// interleave, so the per-integration limit defaults to one.
type TenantSemaphore struct {
	mu              sync.RWMutex
	tenantSems      map[string]chan struct{}
	integrationSems map[string]chan struct{}
	config          *ConcurrencyConfig
	activeTenant    map[string]int
	activeIntegr    map[string]int
}

// NewTenantSemaphore creates a new semaphore manager.
func NewTenantSemaphore(config *ConcurrencyConfig) *TenantSemaphore {
	if config == nil {
		config = DefaultConcurrencyConfig()
	}
	return &TenantSemaphore{
		tenantSems:      make(map[string]chan struct{}),
		integrationSems: make(map[string]chan struct{}),
		config:          config,
		activeTenant:    make(map[string]int),
		activeIntegr:    make(map[string]int),
	}
}

func (ts *TenantSemaphore) getOrCreateTenantSem(tenantID string) chan struct{} {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if sem, exists := ts.tenantSems[tenantID]; exists {
		return sem
	}
	sem := make(chan struct{}, ts.config.MaxJobsPerTenant)
	ts.tenantSems[tenantID] = sem
	return sem
}

func (ts *TenantSemaphore) getOrCreateIntegrationSem(integrationID string) chan struct{} {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if sem, exists := ts.integrationSems[integrationID]; exists {
		return sem
	}
	sem := make(chan struct{}, ts.config.MaxJobsPerIntegration)
	ts.integrationSems[integrationID] = sem
	return sem
}

// Acquire blocks until both the tenant and the integration have a free
// slot, or the queue timeout elapses. The returned release function must
// be called when the job finishes.
func (ts *TenantSemaphore) Acquire(ctx context.Context, tenantID, integrationID string) (func(), error) {
	queueCtx, cancel := context.WithTimeout(ctx, ts.config.QueueTimeout)
	defer cancel()

	tenantSem := ts.getOrCreateTenantSem(tenantID)
	select {
	case tenantSem <- struct{}{}:
	case <-queueCtx.Done():
		return nil, fmt.Errorf("timeout waiting for tenant concurrency slot: tenant=%s", tenantID)
	}

	integrSem := ts.getOrCreateIntegrationSem(integrationID)
	select {
	case integrSem <- struct{}{}:
	case <-queueCtx.Done():
		<-tenantSem
		return nil, fmt.Errorf("timeout waiting for integration concurrency slot: integration=%s", integrationID)
	}

	ts.mu.Lock()
	ts.activeTenant[tenantID]++
	ts.activeIntegr[integrationID]++
	ts.mu.Unlock()

	release := func() {
		ts.mu.Lock()
		ts.activeTenant[tenantID]--
		ts.activeIntegr[integrationID]--
		ts.mu.Unlock()

		<-integrSem
		<-tenantSem
	}
	return release, nil
}

// TryAcquire attempts to acquire slots without blocking.
func (ts *TenantSemaphore) TryAcquire(tenantID, integrationID string) (func(), bool) {
	tenantSem := ts.getOrCreateTenantSem(tenantID)
	select {
	case tenantSem <- struct{}{}:
	default:
		return nil, false
	}

	integrSem := ts.getOrCreateIntegrationSem(integrationID)
	select {
	case integrSem <- struct{}{}:
	default:
		<-tenantSem
		return nil, false
	}

	ts.mu.Lock()
	ts.activeTenant[tenantID]++
	ts.activeIntegr[integrationID]++
	ts.mu.Unlock()

	release := func() {
		ts.mu.Lock()
		ts.activeTenant[tenantID]--
		ts.activeIntegr[integrationID]--
		ts.mu.Unlock()

		<-integrSem
		<-tenantSem
	}
	return release, true
}

// ActiveJobCount returns the number of running jobs for a tenant.
func (ts *TenantSemaphore) ActiveJobCount(tenantID string) int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.activeTenant[tenantID]
}

// Stats returns concurrency statistics for the health endpoint.
func (ts *TenantSemaphore) Stats() map[string]interface{} {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	tenantStats := make(map[string]int, len(ts.activeTenant))
	for k, v := range ts.activeTenant {
		tenantStats[k] = v
	}
	integrStats := make(map[string]int, len(ts.activeIntegr))
	for k, v := range ts.activeIntegr {
		integrStats[k] = v
	}

	return map[string]interface{}{
		"maxJobsPerTenant":        ts.config.MaxJobsPerTenant,
		"maxJobsPerIntegration":   ts.config.MaxJobsPerIntegration,
		"activeJobsByTenant":      tenantStats,
		"activeJobsByIntegration": integrStats,
		"totalTenants":            len(ts.tenantSems),
		"totalIntegrations":       len(ts.integrationSems),
	}
}

// Cleanup removes semaphores with no active jobs. The channels are dropped,
// not closed: a goroutine still queued on an old channel sends into it
// safely and the garbage collector reclaims it once the sender is done.
func (ts *TenantSemaphore) Cleanup() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for tenantID, count := range ts.activeTenant {
		if count == 0 {
			delete(ts.tenantSems, tenantID)
			delete(ts.activeTenant, tenantID)
		}
	}
	for integrationID, count := range ts.activeIntegr {
		if count == 0 {
			delete(ts.integrationSems, integrationID)
			delete(ts.activeIntegr, integrationID)
		}
	}
}
