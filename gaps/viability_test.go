package gaps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssess(t *testing.T) {
	tests := []struct {
		name              string
		gap               Gap
		storeType         string
		location          string
		expectedViability float64
		expectedIssues    []string
		expectedViable    bool
	}{
		{
			name:              "avoided category in coffee shop",
			gap:               Gap{SuggestedItem: "Craft beer", AffinityScore: 0.9, Categories: []string{"alcohol"}},
			storeType:         "coffee_shop",
			expectedViability: 0.18,
			expectedIssues:    []string{"alcohol not suitable for coffee_shop"},
			expectedViable:    false,
		},
		{
			name:              "store type is normalized",
			gap:               Gap{AffinityScore: 0.5, Categories: []string{"Alcohol"}},
			storeType:         "Coffee Shop",
			expectedViability: 0.1,
			expectedIssues:    []string{"alcohol not suitable for coffee_shop"},
			expectedViable:    false,
		},
		{
			name:              "museum conflict",
			gap:               Gap{AffinityScore: 0.8, Categories: []string{"souvenirs"}},
			location:          "near the museum gift shop",
			expectedViability: 0.08,
			expectedIssues:    []string{"Direct competition with museum gift shop"},
			expectedViable:    false,
		},
		{
			name:              "excellent category boosts and passes",
			gap:               Gap{AffinityScore: 0.6, Categories: []string{"matcha"}},
			storeType:         "coffee_shop",
			expectedViability: 0.78,
			expectedIssues:    []string{},
			expectedViable:    true,
		},
		{
			name:              "good category boosts",
			gap:               Gap{AffinityScore: 0.5, Categories: []string{"sandwich"}},
			storeType:         "coffee_shop",
			expectedViability: 0.55,
			expectedIssues:    []string{},
			expectedViable:    false,
		},
		{
			name:              "only the first matching tier applies",
			gap:               Gap{AffinityScore: 0.5, Categories: []string{"coffee liquor"}},
			storeType:         "coffee_shop",
			expectedViability: 0.65,
			expectedIssues:    []string{},
			expectedViable:    true,
		},
		{
			name:              "score is clamped to one",
			gap:               Gap{AffinityScore: 0.9, Categories: []string{"coffee", "tea", "pastry"}},
			storeType:         "coffee_shop",
			expectedViability: 1,
			expectedIssues:    []string{},
			expectedViable:    true,
		},
		{
			name:              "unknown store type leaves score untouched",
			gap:               Gap{AffinityScore: 0.7, Categories: []string{"alcohol"}},
			storeType:         "spaceport",
			expectedViability: 0.7,
			expectedIssues:    []string{},
			expectedViable:    true,
		},
		{
			name:              "exactly at threshold does not pass",
			gap:               Gap{AffinityScore: 0.6, Categories: []string{"widgets"}},
			storeType:         "coffee_shop",
			expectedViability: 0.6,
			expectedIssues:    []string{},
			expectedViable:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Assess(tt.gap, tt.storeType, tt.location)
			assert.InDelta(t, tt.expectedViability, a.Viability, 1e-9)
			assert.Equal(t, tt.expectedIssues, a.Issues)
			assert.Equal(t, tt.expectedViable, a.IsViable)
			assert.Equal(t, tt.gap, a.Gap)
		})
	}
}

func TestAssessConflictRecordedOncePerRule(t *testing.T) {
	gap := Gap{AffinityScore: 1, Categories: []string{"souvenir mugs", "postcards"}}
	a := Assess(gap, "", "opposite the Museum of Modern Art")
	assert.Equal(t, []string{"Direct competition with museum gift shop"}, a.Issues)
	assert.InDelta(t, 0.1, a.Viability, 1e-9)
}

func TestAssessNotes(t *testing.T) {
	gap := Gap{AffinityScore: 0.7, Categories: []string{"matcha", "dairy"}}
	a := Assess(gap, "coffee_shop", "Campus corner next to the university library")

	require.NotEmpty(t, a.Notes)
	assert.Contains(t, a.Notes, "Students nearby favour low price points and grab-and-go formats")
	assert.Contains(t, a.Notes, "Dairy requires refrigeration")
	assert.Contains(t, a.Notes, "Matcha drinks need whisking equipment and staff training")
	assert.Empty(t, a.Issues, "notes never become issues")
}

func TestAssessAll(t *testing.T) {
	gaps := []Gap{
		{SuggestedItem: "a", AffinityScore: 0.9, Categories: []string{"coffee"}},
		{SuggestedItem: "b", AffinityScore: 0.9, Categories: []string{"beer"}},
	}
	out := AssessAll(gaps, "coffee shop", "")
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Gap.SuggestedItem)
	assert.True(t, out[0].IsViable)
	assert.Equal(t, "b", out[1].Gap.SuggestedItem)
	assert.False(t, out[1].IsViable)
}

func TestNormalizeStoreType(t *testing.T) {
	assert.Equal(t, "coffee_shop", NormalizeStoreType("  Coffee Shop "))
	assert.Equal(t, "bar", NormalizeStoreType("BAR"))
	assert.Equal(t, "", NormalizeStoreType(""))
}
