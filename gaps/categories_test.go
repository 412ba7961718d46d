package gaps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoriesToEntities(t *testing.T) {
	entities := CategoriesToEntities([]string{
		"Coffee & Tea",
		"Artisan bread, pastries",
		"BBQ",
	})
	require.Len(t, entities, 3)

	assert.Equal(t, TasteEntity{
		Name:       "Coffee & Tea",
		Relevance:  0.9,
		Type:       CategoryEntityType,
		Categories: []string{"coffee", "tea"},
	}, entities[0])

	assert.Equal(t, 0.85, entities[1].Relevance)
	assert.Equal(t, []string{"artisan", "bread", "pastries"}, entities[1].Categories)

	assert.Equal(t, 0.8, entities[2].Relevance)
	assert.Equal(t, []string{"bbq"}, entities[2].Categories)
}

func TestCategoriesToEntitiesRelevanceDecay(t *testing.T) {
	categories := make([]string, 25)
	for i := range categories {
		categories[i] = "category"
	}

	entities := CategoriesToEntities(categories)
	require.Len(t, entities, 25)

	assert.Equal(t, MinRelevance, entities[12].Relevance, "rank 12 sits exactly on the gap threshold")
	assert.Equal(t, 0.05, entities[17].Relevance)
	assert.Equal(t, 0.0, entities[18].Relevance)
	for _, e := range entities {
		assert.GreaterOrEqual(t, e.Relevance, 0.0)
	}
}

func TestCategoryTokens(t *testing.T) {
	tests := []struct {
		in       string
		expected []string
	}{
		{in: "", expected: []string{}},
		{in: "a, an & the", expected: []string{"the"}},
		{in: "Ice Cream&Gelato", expected: []string{"ice", "cream", "gelato"}},
		{in: "  spaced   out  ", expected: []string{"spaced", "out"}},
		{in: "çà & thé\u00a0vert, tea", expected: []string{"thé", "vert", "tea"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, categoryTokens(tt.in))
		})
	}
}
