package gaps

import "strings"

const (
	wordMatchWeight     = 0.7
	categoryMatchWeight = 0.8
)

// Affinity scores how strongly a record's tags overlap the given taste entities.
// A full-name tag match earns the entity's whole relevance; failing that, every
// name word found among the tags earns 0.7 of it. Each declared category found
// among the tags adds 0.8 of the relevance. The sum is clamped to [0,1].
func Affinity(record SalesRecord, entities []TasteEntity) float64 {
	tags := tagSet(record.Tags)
	if len(tags) == 0 {
		return 0
	}

	var score float64
	for _, e := range entities {
		name := normalizeTag(e.Name)
		if _, ok := tags[name]; ok && name != "" {
			score += e.Relevance
		} else {
			for _, word := range strings.Fields(name) {
				if _, ok := tags[word]; ok {
					score += wordMatchWeight * e.Relevance
				}
			}
		}

		for _, c := range e.Categories {
			if _, ok := tags[normalizeTag(c)]; ok {
				score += categoryMatchWeight * e.Relevance
			}
		}
	}

	return clamp01(score)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
