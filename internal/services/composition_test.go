package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"catalog-sync-service/internal/models"
)

func TestParseComposition(t *testing.T) {
	tests := []struct {
		name     string
		raw      []string
		expected []ParsedComponent
	}{
		{
			name:     "name with percent",
			raw:      []string{"Cotton 80%", "Polyester 20%"},
			expected: []ParsedComponent{{Name: "Cotton", Percent: 80}, {Name: "Polyester", Percent: 20}},
		},
		{
			name:     "space before percent sign",
			raw:      []string{"Wool 45 %"},
			expected: []ParsedComponent{{Name: "Wool", Percent: 45}},
		},
		{
			name:     "multi word component",
			raw:      []string{"Organic cotton 100%"},
			expected: []ParsedComponent{{Name: "Organic cotton", Percent: 100}},
		},
		{
			name:     "name only falls back to zero percent",
			raw:      []string{"Elastane"},
			expected: []ParsedComponent{{Name: "Elastane", Percent: 0}},
		},
		{
			name:     "blank entries are dropped",
			raw:      []string{"", "  ", "Cotton 50%"},
			expected: []ParsedComponent{{Name: "Cotton", Percent: 50}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseComposition(tt.raw))
		})
	}
}

func TestRenderComposition(t *testing.T) {
	cottonID := uuid.New()
	polyID := uuid.New()
	titles := map[uuid.UUID]string{cottonID: "Cotton", polyID: "Polyester"}

	entries := []models.CompositionEntry{
		{AttributeValueID: cottonID, Percent: 80},
		{AttributeValueID: polyID, Percent: 20},
		{AttributeValueID: uuid.New(), Percent: 5},
	}

	out := RenderComposition(entries, func(e models.CompositionEntry) string {
		return titles[e.AttributeValueID]
	})

	assert.Equal(t, []string{"Cotton 80%", "Polyester 20%"}, out)
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 60, ClampPercent(0, 60))
	assert.Equal(t, 40, ClampPercent(60, 55))
	assert.Equal(t, 0, ClampPercent(100, 10))
	assert.Equal(t, 0, ClampPercent(110, 10))
	assert.Equal(t, 0, ClampPercent(50, -5))
}

func TestNormalizeComposition_EarlierComponentsWinRoom(t *testing.T) {
	out := NormalizeComposition([]ParsedComponent{
		{Name: "Cotton", Percent: 70},
		{Name: "Polyester", Percent: 50},
		{Name: "Elastane", Percent: 10},
	})

	assert.Equal(t, []ParsedComponent{
		{Name: "Cotton", Percent: 70},
		{Name: "Polyester", Percent: 30},
		{Name: "Elastane", Percent: 0},
	}, out)
}

func TestNormalizeComposition_SumWithinLimitUnchanged(t *testing.T) {
	components := []ParsedComponent{
		{Name: "Cotton", Percent: 80},
		{Name: "Polyester", Percent: 20},
	}

	assert.Equal(t, components, NormalizeComposition(components))
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "organic cotton", NormalizeTitle("  Organic   Cotton "))
	assert.Equal(t, "red", NormalizeTitle("RED"))
	assert.Equal(t, "", NormalizeTitle("   "))
}
