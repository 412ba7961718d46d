package gaps

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

const (
	// MinRelevance is the lowest entity relevance that can produce a gap.
	MinRelevance = 0.3

	// MaxGaps caps the number of gaps returned by FindGaps.
	MaxGaps = 20

	relatedAffinity     = 0.2
	minRelatedRecords   = 3
	coveragePenaltyStep = 5.0

	// weeklyImpactMultiplier turns relevance x margin into a rough weekly revenue estimate.
	weeklyImpactMultiplier = 25
)

// FindGaps returns taste entities that are under-represented in the sales
// records, best first, at most MaxGaps of them.
func FindGaps(records []SalesRecord, entities []TasteEntity) []Gap {
	qtyBySKU := make(map[string]float64, len(records))
	var marginSum float64
	for _, r := range records {
		qtyBySKU[r.SKU] = r.Qty
		marginSum += r.Margin
	}
	avgMargin := marginSum / float64(max(len(records), 1))

	gaps := make([]Gap, 0)
	for _, e := range entities {
		if e.Relevance < MinRelevance {
			continue
		}

		var related, covered int
		for _, r := range records {
			if Affinity(r, []TasteEntity{e}) <= relatedAffinity {
				continue
			}
			related++
			if qtyBySKU[r.SKU] != 0 {
				covered++
			}
		}

		if related >= minRelatedRecords && covered > 0 {
			continue
		}

		gaps = append(gaps, Gap{
			SuggestedItem: e.Name,
			Rationale: fmt.Sprintf(
				"Local taste signals rate %q at %d%% relevance, but only %d matching products in your inventory are selling.",
				e.Name, int(math.Round(e.Relevance*100)), covered,
			),
			PredictedImpact: fmt.Sprintf("$%.2f/week", e.Relevance*avgMargin*weeklyImpactMultiplier),
			AffinityScore:   e.Relevance,
			GapScore:        gapScore(e.Relevance, covered),
			Categories:      gapCategories(e),
		})
	}

	slices.SortStableFunc(gaps, func(a, b Gap) int {
		return cmp.Compare(b.GapScore, a.GapScore)
	})

	if len(gaps) > MaxGaps {
		gaps = gaps[:MaxGaps]
	}
	return gaps
}

// gapScore penalizes existing coverage linearly; scores never drop below zero.
func gapScore(relevance float64, covered int) float64 {
	return math.Max(0, relevance*(1-float64(covered)/coveragePenaltyStep))
}

func gapCategories(e TasteEntity) []string {
	if len(e.Categories) > 0 {
		return slices.Clone(e.Categories)
	}
	if e.Type != "" {
		return []string{e.Type}
	}
	return []string{"general"}
}
