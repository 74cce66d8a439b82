package services

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/repository"
)

// AttributeDescriptor is one resolved slot of a category's attribute plan
type AttributeDescriptor struct {
	AttributeID  uuid.UUID
	Name         string
	Type         models.AttributeType
	Subject      models.AttributeSubject
	Required     bool
	IsCollection bool
}

// ResolveAttributeOrder flattens a category's attribute bindings into the
// order the pipelines consume them: required attributes first, then
// variation-defining ones, then the optional remainder. Inside each band the
// category's declared position is preserved, so the result is stable across
// runs regardless of how the bindings were loaded.
func ResolveAttributeOrder(bindings []models.CategoryAttribute) []AttributeDescriptor {
	sorted := make([]models.CategoryAttribute, len(bindings))
	copy(sorted, bindings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	band := func(b models.CategoryAttribute) int {
		switch {
		case b.Required:
			return 0
		case b.Subject == models.SubjectVariation:
			return 1
		default:
			return 2
		}
	}

	out := make([]AttributeDescriptor, 0, len(sorted))
	for rank := 0; rank <= 2; rank++ {
		for _, b := range sorted {
			if band(b) != rank {
				continue
			}
			d := AttributeDescriptor{
				AttributeID:  b.AttributeID,
				Subject:      b.Subject,
				Required:     b.Required,
				IsCollection: b.IsCollection,
			}
			if b.Attribute != nil {
				d.Name = b.Attribute.Name
				d.Type = b.Attribute.Type
				if b.IsCollection && d.Type == models.AttributeTypeDictionary {
					d.Type = models.AttributeTypeDictionaryCollection
				}
			}
			out = append(out, d)
		}
	}
	return out
}

// VariationDescriptors filters the plan down to the attributes that define
// variation identity
func VariationDescriptors(plan []AttributeDescriptor) []AttributeDescriptor {
	var out []AttributeDescriptor
	for _, d := range plan {
		if d.Subject == models.SubjectVariation {
			out = append(out, d)
		}
	}
	return out
}

// ResolverService loads a category's attribute plan from storage
type ResolverService struct {
	categoryRepo repository.CategoryRepositoryInterface
}

// NewResolverService creates a new resolver service
func NewResolverService(categoryRepo repository.CategoryRepositoryInterface) *ResolverService {
	return &ResolverService{categoryRepo: categoryRepo}
}

// PlanFor returns the ordered attribute plan for a category. An unmapped or
// attribute-less category yields an empty plan, not an error.
func (s *ResolverService) PlanFor(ctx context.Context, categoryID uuid.UUID) ([]AttributeDescriptor, error) {
	bindings, err := s.categoryRepo.ListAttributes(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return ResolveAttributeOrder(bindings), nil
}
