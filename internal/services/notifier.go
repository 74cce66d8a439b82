package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"catalog-sync-service/internal/models"
)

// Notifier delivers owner-facing notices about sync incidents. Delivery
// transport is a collaborator concern; the default implementation writes
// structured log records.
type Notifier interface {
	NotifyOwner(ctx context.Context, integration *models.Integration, subject, message string) error
}

// LogNotifier writes notifications to the service log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyOwner logs the notification with owner context
func (n *LogNotifier) NotifyOwner(_ context.Context, integration *models.Integration, subject, message string) error {
	n.logger.Info("owner notification",
		zap.String("integrationId", integration.ID.String()),
		zap.String("ownerId", integration.OwnerID),
		zap.String("subject", subject),
		zap.String("message", message))
	return nil
}

// RunNotifier wraps a Notifier and suppresses repeats of the same subject
// within one sync run. A skipped duplicate group notifies the owner once per
// run, not once per product.
type RunNotifier struct {
	inner Notifier

	mu   sync.Mutex
	seen map[string]bool
}

// NewRunNotifier creates a per-run dedup wrapper
func NewRunNotifier(inner Notifier) *RunNotifier {
	return &RunNotifier{inner: inner, seen: make(map[string]bool)}
}

// NotifyOwner forwards the first notification per subject and swallows repeats
func (n *RunNotifier) NotifyOwner(ctx context.Context, integration *models.Integration, subject, message string) error {
	n.mu.Lock()
	if n.seen[subject] {
		n.mu.Unlock()
		return nil
	}
	n.seen[subject] = true
	n.mu.Unlock()

	return n.inner.NotifyOwner(ctx, integration, subject, message)
}
