package gaps

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	CategoryEntityType = "product_category"

	categoryTopRelevance = 0.90
	categoryDecay        = 0.05
	minTokenLen          = 3
)

// CategoriesToEntities turns an ordered list of category strings into
// synthetic taste entities whose relevance decays with rank.
func CategoriesToEntities(categories []string) []TasteEntity {
	entities := make([]TasteEntity, 0, len(categories))
	for i, c := range categories {
		entities = append(entities, TasteEntity{
			Name:       c,
			Relevance:  rankRelevance(i),
			Type:       CategoryEntityType,
			Categories: categoryTokens(c),
		})
	}
	return entities
}

// rankRelevance is rounded to hundredths so rank 12 lands exactly on MinRelevance.
// Long lists bottom out at zero.
func rankRelevance(rank int) float64 {
	r := math.Round((categoryTopRelevance-categoryDecay*float64(rank))*100) / 100
	return math.Max(0, r)
}

func categoryTokens(category string) []string {
	parts := strings.FieldsFunc(strings.ToLower(category), isCategorySeparator)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if utf8.RuneCountInString(p) >= minTokenLen {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

func isCategorySeparator(r rune) bool {
	return r == ',' || r == '&' || unicode.IsSpace(r)
}
