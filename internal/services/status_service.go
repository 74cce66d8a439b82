package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/repository"
)

// SyncState is the rolled-up readiness of a category for marketplace sync
type SyncState string

const (
	SyncStateError   SyncState = "error"
	SyncStateWarning SyncState = "warning"
	SyncStateSuccess SyncState = "success"
)

// AttributeStatus reports resolution of one attribute slot
type AttributeStatus struct {
	AttributeID uuid.UUID               `json:"attributeId"`
	Name        string                  `json:"name"`
	Subject     models.AttributeSubject `json:"subject"`
	Required    bool                    `json:"required"`
	Resolved    bool                    `json:"resolved"`
}

// CategorySyncStatus is the full evaluation result for one category
type CategorySyncStatus struct {
	CategoryID uuid.UUID `json:"categoryId"`
	State      SyncState `json:"state"`

	MappedMarketplaces   []models.MarketplaceType `json:"mappedMarketplaces"`
	UnmappedMarketplaces []models.MarketplaceType `json:"unmappedMarketplaces"`

	Attributes []AttributeStatus `json:"attributes"`
}

// EvaluateSyncState rolls category mapping coverage and attribute resolution
// into a single state. Error: no active marketplace is mapped, a required
// attribute does not resolve, or no attribute resolves at all. Warning: some
// active marketplace is unmapped, or an optional attribute does not resolve.
// Success otherwise. The evaluation never mutates anything.
func EvaluateSyncState(mapped, unmapped []models.MarketplaceType, attributes []AttributeStatus) SyncState {
	if len(mapped) == 0 {
		return SyncStateError
	}
	for _, a := range attributes {
		if a.Required && !a.Resolved {
			return SyncStateError
		}
	}
	if len(attributes) > 0 {
		anyResolved := false
		for _, a := range attributes {
			if a.Resolved {
				anyResolved = true
				break
			}
		}
		if !anyResolved {
			return SyncStateError
		}
	}
	if len(unmapped) > 0 {
		return SyncStateWarning
	}
	for _, a := range attributes {
		if !a.Resolved {
			return SyncStateWarning
		}
	}
	return SyncStateSuccess
}

// StatusService evaluates category readiness against the tenant's active
// integrations
type StatusService struct {
	categoryRepo    repository.CategoryRepositoryInterface
	integrationRepo repository.IntegrationRepositoryInterface
	mappingRepo     repository.MappingRepositoryInterface
}

// NewStatusService creates a new status service
func NewStatusService(
	categoryRepo repository.CategoryRepositoryInterface,
	integrationRepo repository.IntegrationRepositoryInterface,
	mappingRepo repository.MappingRepositoryInterface,
) *StatusService {
	return &StatusService{
		categoryRepo:    categoryRepo,
		integrationRepo: integrationRepo,
		mappingRepo:     mappingRepo,
	}
}

// EvaluateCategory computes the sync status of one category for a tenant
func (s *StatusService) EvaluateCategory(ctx context.Context, tenantID string, categoryID uuid.UUID) (*CategorySyncStatus, error) {
	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, fmt.Errorf("category not found")
	}

	integrations, err := s.integrationRepo.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	active := make([]models.MarketplaceType, 0, len(integrations))
	activeSet := make(map[models.MarketplaceType]bool)
	for _, in := range integrations {
		if !in.IsEnabled || in.Status != models.IntegrationConnected || activeSet[in.MarketplaceType] {
			continue
		}
		activeSet[in.MarketplaceType] = true
		active = append(active, in.MarketplaceType)
	}

	var mapped, unmapped []models.MarketplaceType
	for _, mp := range active {
		m := category.MarketplaceMapFor(mp)
		if m != nil && m.IsPublished {
			mapped = append(mapped, mp)
		} else {
			unmapped = append(unmapped, mp)
		}
	}

	plan := ResolveAttributeOrder(category.Attributes)
	attributes := make([]AttributeStatus, 0, len(plan))
	for _, desc := range plan {
		resolved := false
		// An attribute resolves when it is linked to any mapped marketplace
		for _, mp := range mapped {
			link, err := s.mappingRepo.GetSyncLink(ctx, tenantID, desc.AttributeID, mp)
			if err != nil {
				return nil, err
			}
			if link != nil {
				resolved = true
				break
			}
		}
		// Scalar attributes need no dictionary link to export
		if !desc.Type.IsDictionary() {
			resolved = true
		}
		attributes = append(attributes, AttributeStatus{
			AttributeID: desc.AttributeID,
			Name:        desc.Name,
			Subject:     desc.Subject,
			Required:    desc.Required,
			Resolved:    resolved,
		})
	}

	return &CategorySyncStatus{
		CategoryID:           categoryID,
		State:                EvaluateSyncState(mapped, unmapped, attributes),
		MappedMarketplaces:   mapped,
		UnmappedMarketplaces: unmapped,
		Attributes:           attributes,
	}, nil
}
