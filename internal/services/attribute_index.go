package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"catalog-sync-service/internal/cache"
	"catalog-sync-service/internal/clients"
	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/repository"
	"catalog-sync-service/internal/syncerr"
)

const dictionaryFetchLimit = 1000

// AttributeIndex resolves internal attributes and dictionary values against a
// marketplace's taxonomy. Resolution is a fixed pipeline: exact title match,
// then base-form match, then synonym match. There is no fuzzy stage, so a
// value either resolves the same way on every run or not at all.
type AttributeIndex struct {
	attrRepo    repository.AttributeRepositoryInterface
	dictRepo    repository.DictionaryRepositoryInterface
	mappingRepo repository.MappingRepositoryInterface
	cache       *cache.DictionaryCache
	logger      *zap.Logger
}

// NewAttributeIndex creates a new attribute index
func NewAttributeIndex(
	attrRepo repository.AttributeRepositoryInterface,
	dictRepo repository.DictionaryRepositoryInterface,
	mappingRepo repository.MappingRepositoryInterface,
	dictCache *cache.DictionaryCache,
	logger *zap.Logger,
) *AttributeIndex {
	return &AttributeIndex{
		attrRepo:    attrRepo,
		dictRepo:    dictRepo,
		mappingRepo: mappingRepo,
		cache:       dictCache,
		logger:      logger,
	}
}

// EnsureCharacteristics returns the characteristic rules for a marketplace
// category, read through the short-TTL cache. Fetched rules are also mirrored
// into the dictionary snapshot table.
func (ix *AttributeIndex) EnsureCharacteristics(ctx context.Context, client clients.MarketplaceClient, categoryExternalID string) ([]clients.AttributeRule, error) {
	mp := client.GetType()

	if rules, err := ix.cache.GetCharacteristics(ctx, mp, categoryExternalID); err == nil && rules != nil {
		return rules, nil
	}

	rules, err := client.FetchCategoryCharacteristics(ctx, categoryExternalID)
	if err != nil {
		return nil, err
	}

	for _, rule := range rules {
		row := &models.Dictionary{
			MarketplaceType:  mp,
			Kind:             models.DictionaryKindAttribute,
			ExternalID:       rule.ExternalID,
			ParentExternalID: &categoryExternalID,
			Title:            rule.Name,
			FetchedAt:        time.Now(),
		}
		if err := ix.dictRepo.Upsert(ctx, row); err != nil {
			ix.logger.Warn("dictionary attribute upsert failed",
				zap.String("externalId", rule.ExternalID), zap.Error(err))
		}
	}

	if err := ix.cache.SetCharacteristics(ctx, mp, categoryExternalID, rules); err != nil {
		ix.logger.Debug("characteristics cache write failed", zap.Error(err))
	}
	return rules, nil
}

// EnsureDictionaryValues returns the snapshot rows of one marketplace value
// dictionary, pulling from the remote taxonomy when the cache misses. Stub
// rows registered by earlier imports survive the refresh.
func (ix *AttributeIndex) EnsureDictionaryValues(ctx context.Context, client clients.MarketplaceClient, dictionaryID string) ([]models.Dictionary, error) {
	mp := client.GetType()

	if cached, err := ix.cache.GetDictionaryValues(ctx, mp, dictionaryID, ""); err == nil && cached != nil {
		return ix.dictRepo.ListValuesOf(ctx, mp, dictionaryID)
	}

	values, err := client.FetchDictionaryValues(ctx, dictionaryID, "", dictionaryFetchLimit)
	if err != nil {
		// Stale snapshot beats nothing when the remote pull fails
		rows, listErr := ix.dictRepo.ListValuesOf(ctx, mp, dictionaryID)
		if listErr == nil && len(rows) > 0 {
			ix.logger.Warn("dictionary pull failed, using snapshot",
				zap.String("dictionaryId", dictionaryID), zap.Error(err))
			return rows, nil
		}
		return nil, err
	}

	for _, v := range values {
		row := &models.Dictionary{
			MarketplaceType:  mp,
			Kind:             models.DictionaryKindValue,
			ExternalID:       v.ExternalID,
			ParentExternalID: &dictionaryID,
			Title:            v.Name,
			BaseForm:         NormalizeTitle(v.Name),
			FetchedAt:        time.Now(),
		}
		if err := ix.dictRepo.Upsert(ctx, row); err != nil {
			ix.logger.Warn("dictionary value upsert failed",
				zap.String("externalId", v.ExternalID), zap.Error(err))
		}
	}

	if err := ix.cache.SetDictionaryValues(ctx, mp, dictionaryID, "", values); err != nil {
		ix.logger.Debug("dictionary cache write failed", zap.Error(err))
	}
	return ix.dictRepo.ListValuesOf(ctx, mp, dictionaryID)
}

// MatchDictionary matches one internal attribute value against dictionary
// snapshot rows: exact case-insensitive title, then the value's base form,
// then its synonyms. Returns nil when nothing matches.
func MatchDictionary(rows []models.Dictionary, value *models.AttributeValue) *models.Dictionary {
	title := NormalizeTitle(value.Title)
	for i := range rows {
		if NormalizeTitle(rows[i].Title) == title {
			return &rows[i]
		}
	}

	if base := NormalizeTitle(value.BaseForm); base != "" {
		for i := range rows {
			if rows[i].BaseForm == base || NormalizeTitle(rows[i].Title) == base {
				return &rows[i]
			}
		}
	}

	for _, syn := range value.Synonyms {
		s := NormalizeTitle(syn)
		if s == "" {
			continue
		}
		for i := range rows {
			if NormalizeTitle(rows[i].Title) == s || rows[i].BaseForm == s {
				return &rows[i]
			}
		}
	}
	return nil
}

// RuleFor finds the marketplace characteristic rule for an internal
// attribute: through its sync link when one exists, otherwise by
// case-insensitive name. Returns nil when the attribute has no counterpart.
func (ix *AttributeIndex) RuleFor(ctx context.Context, tenantID string, mp models.MarketplaceType, desc AttributeDescriptor, rules []clients.AttributeRule) (*clients.AttributeRule, error) {
	link, err := ix.mappingRepo.GetSyncLink(ctx, tenantID, desc.AttributeID, mp)
	if err != nil {
		return nil, err
	}
	if link != nil {
		for i := range rules {
			if rules[i].ExternalID == link.MarketplaceAttributeID {
				return &rules[i], nil
			}
		}
	}

	name := NormalizeTitle(desc.Name)
	for i := range rules {
		if NormalizeTitle(rules[i].Name) == name {
			return &rules[i], nil
		}
	}
	return nil, nil
}

// EnsureLink lazily creates an attribute sync link on the first successful
// match. An existing link is never overwritten.
func (ix *AttributeIndex) EnsureLink(ctx context.Context, tenantID string, mp models.MarketplaceType, attributeID uuid.UUID, systemAttributeID *uuid.UUID, marketplaceAttributeID string) error {
	return ix.mappingRepo.CreateSyncLinkIfAbsent(ctx, &models.AttributeSyncLink{
		TenantID:               tenantID,
		AttributeID:            attributeID,
		MarketplaceType:        mp,
		SystemAttributeID:      systemAttributeID,
		MarketplaceAttributeID: marketplaceAttributeID,
	})
}

// ResolveCharacteristic turns one tagged attribute value into the
// characteristic payload the marketplace expects. Dictionary values that fail
// all three match stages yield a syncerr.MappingError.
func (ix *AttributeIndex) ResolveCharacteristic(ctx context.Context, client clients.MarketplaceClient, sku string, desc AttributeDescriptor, rule clients.AttributeRule, value TaggedValue) (clients.CharacteristicValue, error) {
	cv := clients.CharacteristicValue{ExternalID: rule.ExternalID, Name: rule.Name}

	if !desc.Type.IsDictionary() {
		cv.Value = value.Scalar
		return cv, nil
	}

	rows, err := ix.EnsureDictionaryValues(ctx, client, rule.ExternalID)
	if err != nil {
		return cv, err
	}

	ids := value.ValueIDs()
	matched := make([]string, 0, len(ids))
	for _, id := range ids {
		av, err := ix.attrRepo.GetValueByID(ctx, id)
		if err != nil {
			return cv, err
		}
		if av == nil {
			return cv, &syncerr.ValidationError{SKU: sku, Attribute: desc.Name, Reason: "references a deleted dictionary value"}
		}
		hit := MatchDictionary(rows, av)
		if hit == nil {
			return cv, &syncerr.MappingError{
				SKU:         sku,
				Marketplace: string(client.GetType()),
				Subject:     "value",
				Name:        av.Title,
			}
		}
		matched = append(matched, hit.Title)
	}

	if rule.MaxCount > 0 && len(matched) > rule.MaxCount {
		matched = matched[:rule.MaxCount]
	}

	if desc.Type == models.AttributeTypeDictionaryCollection || rule.IsCollection {
		cv.Value = matched
	} else if len(matched) > 0 {
		cv.Value = matched[0]
	}
	return cv, nil
}

// RegisterStubValue records a marketplace value first seen during import so
// later exports can match it before the next taxonomy pull
func (ix *AttributeIndex) RegisterStubValue(ctx context.Context, mp models.MarketplaceType, dictionaryID, title string) error {
	normalized := NormalizeTitle(title)
	if normalized == "" {
		return nil
	}
	if existing, err := ix.dictRepo.FindByTitle(ctx, mp, models.DictionaryKindValue, title); err == nil && existing != nil {
		return nil
	}
	return ix.dictRepo.Upsert(ctx, &models.Dictionary{
		MarketplaceType:  mp,
		Kind:             models.DictionaryKindValue,
		ExternalID:       "stub:" + dictionaryID + ":" + normalized,
		ParentExternalID: &dictionaryID,
		Title:            title,
		BaseForm:         normalized,
		IsStub:           true,
		FetchedAt:        time.Now(),
	})
}
