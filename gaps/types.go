package gaps

import (
	"errors"
	"strings"
)

var (
	ErrMissingSKU  = errors.New("sales record is missing a SKU")
	ErrMissingTags = errors.New("sales record has no tags")
)

// SalesRecord is a single inventory line from a shop's sales export.
type SalesRecord struct {
	SKU    string   `json:"sku"`
	Tags   []string `json:"tags"`
	Qty    float64  `json:"qty"`
	Margin float64  `json:"margin"`
}

// Validate checks the record identifier and that at least one tag survives normalization.
func (r SalesRecord) Validate() error {
	if strings.TrimSpace(r.SKU) == "" {
		return ErrMissingSKU
	}
	if len(NormalizeTags(r.Tags)) == 0 {
		return ErrMissingTags
	}
	return nil
}

// TasteEntity is a weighted preference signal, either returned by the taste
// graph or synthesized from a category string.
type TasteEntity struct {
	Name       string   `json:"name"`
	Relevance  float64  `json:"relevance"`
	Type       string   `json:"type,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// Gap is a taste signal that the current inventory does not cover well.
type Gap struct {
	SuggestedItem   string   `json:"suggested_item"`
	Rationale       string   `json:"rationale"`
	PredictedImpact string   `json:"predicted_impact"`
	AffinityScore   float64  `json:"affinity_score"`
	GapScore        float64  `json:"gap_score"`
	Categories      []string `json:"categories"`
}

// Assessment is the business-rule verdict for a single gap.
type Assessment struct {
	Gap       Gap      `json:"gap"`
	Viability float64  `json:"viability"`
	Issues    []string `json:"issues"`
	Notes     []string `json:"notes,omitempty"`
	IsViable  bool     `json:"is_viable"`
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// NormalizeTags lower-cases and trims every tag, dropping empty ones.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if n := normalizeTag(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range NormalizeTags(tags) {
		set[t] = struct{}{}
	}
	return set
}
