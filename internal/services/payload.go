package services

import (
	"math"
	"path"
	"strings"

	"github.com/google/uuid"

	"catalog-sync-service/internal/clients"
	"catalog-sync-service/internal/models"
)

// SplitMediaURLs separates a variation's media list into images and videos
// by file extension
func SplitMediaURLs(urls []string) (images, videos []string) {
	for _, u := range urls {
		ext := strings.ToLower(path.Ext(strings.SplitN(u, "?", 2)[0]))
		if videoExtensions[ext] {
			videos = append(videos, u)
		} else {
			images = append(images, u)
		}
	}
	return images, videos
}

// applyDimensions converts the stored millimeter/gram dimensions into the
// centimeter/kilogram units marketplaces expect
func applyDimensions(entry *clients.CatalogEntry, product *models.Product) {
	if product.LengthMM != nil {
		entry.LengthCm = int(math.Round(float64(*product.LengthMM) / 10))
	}
	if product.WidthMM != nil {
		entry.WidthCm = int(math.Round(float64(*product.WidthMM) / 10))
	}
	if product.HeightMM != nil {
		entry.HeightCm = int(math.Round(float64(*product.HeightMM) / 10))
	}
	if product.WeightGrams != nil {
		entry.WeightKg = float64(*product.WeightGrams) / 1000
	}
}

// decodeFromJSONB decodes one attribute's tagged value out of a JSONB
// attribute-value map
func decodeFromJSONB(desc AttributeDescriptor, values models.JSONB) (TaggedValue, error) {
	if values == nil {
		return TaggedValue{}, nil
	}
	raw, ok := values[desc.AttributeID.String()]
	if !ok {
		return TaggedValue{}, nil
	}
	return DecodeTaggedValue(desc.Type, raw)
}

// lookupTaggedValue reads an attribute's value from the tier its subject
// declares: product-level for plain attributes, variation-level for
// variation-defining ones (with product-level as fallback)
func lookupTaggedValue(desc AttributeDescriptor, product *models.Product, variation *models.Variation) (TaggedValue, error) {
	if desc.Subject == models.SubjectVariation {
		value, err := decodeFromJSONB(desc, variation.AttributeValues)
		if err != nil || !value.IsEmpty() {
			return value, err
		}
	}
	return decodeFromJSONB(desc, product.AttributeValues)
}

// decodeCompositionEntries decodes the product's composition JSON list
func decodeCompositionEntries(raw models.JSONArray) []models.CompositionEntry {
	var out []models.CompositionEntry
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		idStr, _ := m["attributeValueId"].(string)
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		percent := 0
		if p, ok := m["percent"].(float64); ok {
			percent = int(p)
		}
		out = append(out, models.CompositionEntry{AttributeValueID: id, Percent: percent})
	}
	return out
}

// encodeCompositionEntries renders composition entries back into their JSONB
// shape
func encodeCompositionEntries(entries []models.CompositionEntry) models.JSONArray {
	out := make(models.JSONArray, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]interface{}{
			"attributeValueId": e.AttributeValueID.String(),
			"percent":          float64(e.Percent),
		})
	}
	return out
}

// findRuleByName finds a characteristic rule by case-insensitive name
func findRuleByName(rules []clients.AttributeRule, name string) *clients.AttributeRule {
	target := NormalizeTitle(name)
	for i := range rules {
		if NormalizeTitle(rules[i].Name) == target {
			return &rules[i]
		}
	}
	return nil
}
