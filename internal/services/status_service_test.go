package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"catalog-sync-service/internal/models"
)

func TestEvaluateSyncState(t *testing.T) {
	wb := models.MarketplaceWildberries

	tests := []struct {
		name       string
		mapped     []models.MarketplaceType
		unmapped   []models.MarketplaceType
		attributes []AttributeStatus
		expected   SyncState
	}{
		{
			name:     "no mapped marketplaces is an error",
			expected: SyncStateError,
		},
		{
			name:       "unresolved required attribute is an error",
			mapped:     []models.MarketplaceType{wb},
			attributes: []AttributeStatus{{Name: "Brand", Required: true, Resolved: false}},
			expected:   SyncStateError,
		},
		{
			name:     "unmapped active marketplace is a warning",
			mapped:   []models.MarketplaceType{wb},
			unmapped: []models.MarketplaceType{models.MarketplaceType("OZON")},
			expected: SyncStateWarning,
		},
		{
			name:   "unresolved optional attribute is a warning",
			mapped: []models.MarketplaceType{wb},
			attributes: []AttributeStatus{
				{Name: "Brand", Required: false, Resolved: true},
				{Name: "Keywords", Required: false, Resolved: false},
			},
			expected: SyncStateWarning,
		},
		{
			name:   "no attribute resolving at all is an error",
			mapped: []models.MarketplaceType{wb},
			attributes: []AttributeStatus{
				{Name: "Brand", Required: false, Resolved: false},
				{Name: "Keywords", Required: false, Resolved: false},
			},
			expected: SyncStateError,
		},
		{
			name:       "everything mapped and resolved is success",
			mapped:     []models.MarketplaceType{wb},
			attributes: []AttributeStatus{{Name: "Brand", Required: true, Resolved: true}},
			expected:   SyncStateSuccess,
		},
		{
			name:     "required failure outranks unmapped warning",
			mapped:   []models.MarketplaceType{wb},
			unmapped: []models.MarketplaceType{models.MarketplaceType("OZON")},
			attributes: []AttributeStatus{
				{Name: "Brand", Required: true, Resolved: false},
			},
			expected: SyncStateError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EvaluateSyncState(tt.mapped, tt.unmapped, tt.attributes))
		})
	}
}

func statusFixtureCategory(attrID uuid.UUID, published bool) *models.Category {
	return &models.Category{
		ID:       uuid.New(),
		TenantID: "tenant-1",
		Name:     "Shirts",
		MarketplaceMaps: []models.CategoryMarketplaceMap{{
			MarketplaceType:    models.MarketplaceWildberries,
			ExternalCategoryID: "777",
			IsPublished:        published,
		}},
		Attributes: []models.CategoryAttribute{{
			AttributeID: attrID,
			Required:    true,
			Subject:     models.SubjectAttribute,
			Attribute:   &models.Attribute{ID: attrID, Name: "Material", Type: models.AttributeTypeDictionary},
		}},
	}
}

func TestEvaluateCategory_LinkedDictionaryAttributeResolves(t *testing.T) {
	categoryRepo := new(MockCategoryRepository)
	integrationRepo := new(MockIntegrationRepository)
	mappingRepo := new(MockMappingRepository)
	svc := NewStatusService(categoryRepo, integrationRepo, mappingRepo)

	attrID := uuid.New()
	category := statusFixtureCategory(attrID, true)

	categoryRepo.On("GetByID", mock.Anything, category.ID).Return(category, nil)
	integrationRepo.On("GetByTenant", mock.Anything, "tenant-1").Return([]models.Integration{{
		MarketplaceType: models.MarketplaceWildberries,
		IsEnabled:       true,
		Status:          models.IntegrationConnected,
	}}, nil)
	mappingRepo.On("GetSyncLink", mock.Anything, "tenant-1", attrID, models.MarketplaceWildberries).
		Return(&models.AttributeSyncLink{MarketplaceAttributeID: "10"}, nil)

	status, err := svc.EvaluateCategory(context.Background(), "tenant-1", category.ID)

	assert.NoError(t, err)
	assert.Equal(t, SyncStateSuccess, status.State)
	assert.Equal(t, []models.MarketplaceType{models.MarketplaceWildberries}, status.MappedMarketplaces)
	assert.Len(t, status.Attributes, 1)
	assert.True(t, status.Attributes[0].Resolved)
}

func TestEvaluateCategory_UnlinkedRequiredDictionaryIsError(t *testing.T) {
	categoryRepo := new(MockCategoryRepository)
	integrationRepo := new(MockIntegrationRepository)
	mappingRepo := new(MockMappingRepository)
	svc := NewStatusService(categoryRepo, integrationRepo, mappingRepo)

	attrID := uuid.New()
	category := statusFixtureCategory(attrID, true)

	categoryRepo.On("GetByID", mock.Anything, category.ID).Return(category, nil)
	integrationRepo.On("GetByTenant", mock.Anything, "tenant-1").Return([]models.Integration{{
		MarketplaceType: models.MarketplaceWildberries,
		IsEnabled:       true,
		Status:          models.IntegrationConnected,
	}}, nil)
	mappingRepo.On("GetSyncLink", mock.Anything, "tenant-1", attrID, models.MarketplaceWildberries).
		Return(nil, nil)

	status, err := svc.EvaluateCategory(context.Background(), "tenant-1", category.ID)

	assert.NoError(t, err)
	assert.Equal(t, SyncStateError, status.State)
	assert.False(t, status.Attributes[0].Resolved)
}

func TestEvaluateCategory_ScalarAttributesAlwaysResolve(t *testing.T) {
	categoryRepo := new(MockCategoryRepository)
	integrationRepo := new(MockIntegrationRepository)
	mappingRepo := new(MockMappingRepository)
	svc := NewStatusService(categoryRepo, integrationRepo, mappingRepo)

	attrID := uuid.New()
	category := statusFixtureCategory(attrID, true)
	category.Attributes[0].Attribute.Type = models.AttributeTypeText

	categoryRepo.On("GetByID", mock.Anything, category.ID).Return(category, nil)
	integrationRepo.On("GetByTenant", mock.Anything, "tenant-1").Return([]models.Integration{{
		MarketplaceType: models.MarketplaceWildberries,
		IsEnabled:       true,
		Status:          models.IntegrationConnected,
	}}, nil)
	mappingRepo.On("GetSyncLink", mock.Anything, "tenant-1", attrID, models.MarketplaceWildberries).
		Return(nil, nil)

	status, err := svc.EvaluateCategory(context.Background(), "tenant-1", category.ID)

	assert.NoError(t, err)
	assert.Equal(t, SyncStateSuccess, status.State)
	assert.True(t, status.Attributes[0].Resolved)
}

func TestEvaluateCategory_DisabledIntegrationsIgnored(t *testing.T) {
	categoryRepo := new(MockCategoryRepository)
	integrationRepo := new(MockIntegrationRepository)
	mappingRepo := new(MockMappingRepository)
	svc := NewStatusService(categoryRepo, integrationRepo, mappingRepo)

	attrID := uuid.New()
	category := statusFixtureCategory(attrID, true)

	categoryRepo.On("GetByID", mock.Anything, category.ID).Return(category, nil)
	integrationRepo.On("GetByTenant", mock.Anything, "tenant-1").Return([]models.Integration{
		{MarketplaceType: models.MarketplaceWildberries, IsEnabled: false, Status: models.IntegrationConnected},
		{MarketplaceType: models.MarketplaceWildberries, IsEnabled: true, Status: models.IntegrationError},
	}, nil)

	status, err := svc.EvaluateCategory(context.Background(), "tenant-1", category.ID)

	assert.NoError(t, err)
	// No active marketplace at all
	assert.Equal(t, SyncStateError, status.State)
	assert.Empty(t, status.MappedMarketplaces)
	mappingRepo.AssertNotCalled(t, "GetSyncLink", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluateCategory_UnpublishedMapCountsAsUnmapped(t *testing.T) {
	categoryRepo := new(MockCategoryRepository)
	integrationRepo := new(MockIntegrationRepository)
	mappingRepo := new(MockMappingRepository)
	svc := NewStatusService(categoryRepo, integrationRepo, mappingRepo)

	attrID := uuid.New()
	category := statusFixtureCategory(attrID, false)
	category.Attributes = nil

	categoryRepo.On("GetByID", mock.Anything, category.ID).Return(category, nil)
	integrationRepo.On("GetByTenant", mock.Anything, "tenant-1").Return([]models.Integration{{
		MarketplaceType: models.MarketplaceWildberries,
		IsEnabled:       true,
		Status:          models.IntegrationConnected,
	}}, nil)

	status, err := svc.EvaluateCategory(context.Background(), "tenant-1", category.ID)

	assert.NoError(t, err)
	assert.Equal(t, SyncStateError, status.State)
	assert.Equal(t, []models.MarketplaceType{models.MarketplaceWildberries}, status.UnmappedMarketplaces)
}
