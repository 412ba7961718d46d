package qloo

import (
	"math"
	"strings"

	"github.com/egorairo/ShelfSense/gaps"
)

const (
	defaultPriceLevel = 2.0
	minBusinessRating = 3.8

	maxKeywords     = 5
	maxSpecialties  = 5
	maxCategories   = 10
	maxPlaceTypes   = 6
	tagsPerPlace    = 3
	unknownLocation = "Unknown"
)

// relevantPlaceTypes are matched against tag types and names.
var relevantPlaceTypes = []string{
	"restaurant", "cafe", "deli", "bakery", "bar", "coffee",
	"ice_cream_shop", "sandwich_shop", "museum", "tourist_attraction",
}

type Place struct {
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Description    string   `json:"description,omitempty"`
	PriceLevel     float64  `json:"price_level"`
	BusinessRating float64  `json:"business_rating,omitempty"`
	Popularity     float64  `json:"popularity,omitempty"`
	Neighborhood   string   `json:"neighborhood,omitempty"`
	TopKeywords    []string `json:"top_keywords"`
	Specialties    []string `json:"specialties"`
	Categories     []string `json:"categories"`
}

type SignalContext struct {
	Neighborhood      string   `json:"neighborhood"`
	AveragePriceLevel float64  `json:"average_price_level"`
	TotalPlaces       int      `json:"total_places"`
	PlaceTypes        []string `json:"place_types"`
}

// CulturalSignals is a compact summary of the places around a shop.
type CulturalSignals struct {
	Places  []Place       `json:"places"`
	Context SignalContext `json:"context"`
}

// ExtractCulturalSignals keeps well-rated food, drink and attraction places
// and summarises them.
func ExtractCulturalSignals(entities []InsightsEntity) CulturalSignals {
	relevant := make([]InsightsEntity, 0, len(entities))
	for _, e := range entities {
		if isRelevantPlace(e) && hasGoodRating(e) {
			relevant = append(relevant, e)
		}
	}

	places := make([]Place, 0, len(relevant))
	for _, e := range relevant {
		p := e.props()
		placeType := e.Subtype
		if placeType == "" {
			placeType = "place"
		}

		keywords := make([]string, 0, maxKeywords)
		for _, k := range p.Keywords[:min(len(p.Keywords), maxKeywords)] {
			keywords = append(keywords, k.Name)
		}
		specialties := make([]string, 0, maxSpecialties)
		for _, d := range p.SpecialtyDishes[:min(len(p.SpecialtyDishes), maxSpecialties)] {
			specialties = append(specialties, d.Name)
		}
		categories := make([]string, 0, maxCategories)
		for _, t := range e.Tags[:min(len(e.Tags), maxCategories)] {
			categories = append(categories, t.Name)
		}

		places = append(places, Place{
			Name:           e.Name,
			Type:           placeType,
			Description:    p.Description,
			PriceLevel:     priceLevel(p),
			BusinessRating: p.BusinessRating,
			Popularity:     p.Popularity,
			Neighborhood:   p.Neighborhood,
			TopKeywords:    keywords,
			Specialties:    specialties,
			Categories:     categories,
		})
	}

	return CulturalSignals{
		Places: places,
		Context: SignalContext{
			Neighborhood:      mostCommonNeighborhood(relevant),
			AveragePriceLevel: averagePriceLevel(relevant),
			TotalPlaces:       len(relevant),
			PlaceTypes:        placeTypes(relevant),
		},
	}
}

// TrendingCategories returns the context place types followed by every
// place category, without duplicates.
func (s CulturalSignals) TrendingCategories() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	add := func(c string) {
		key := strings.ToLower(strings.TrimSpace(c))
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}

	for _, t := range s.Context.PlaceTypes {
		add(t)
	}
	for _, p := range s.Places {
		for _, c := range p.Categories {
			add(c)
		}
	}
	return out
}

// TasteEntities converts insights results into weighted taste entities.
// Relevance comes from the query affinity, falling back to popularity.
func TasteEntities(entities []InsightsEntity) []gaps.TasteEntity {
	out := make([]gaps.TasteEntity, 0, len(entities))
	for _, e := range entities {
		relevance := e.props().Popularity
		if e.Query != nil && e.Query.Affinity > 0 {
			relevance = e.Query.Affinity
		}

		categories := make([]string, 0, maxCategories)
		for _, t := range e.Tags[:min(len(e.Tags), maxCategories)] {
			if name := strings.ToLower(strings.TrimSpace(t.Name)); name != "" {
				categories = append(categories, name)
			}
		}

		out = append(out, gaps.TasteEntity{
			Name:       e.Name,
			Relevance:  math.Max(0, math.Min(1, relevance)),
			Type:       e.Subtype,
			Categories: categories,
		})
	}
	return out
}

func isRelevantPlace(e InsightsEntity) bool {
	for _, tag := range e.Tags {
		tagType := strings.ToLower(tag.Type)
		tagName := strings.ToLower(tag.Name)
		for _, pt := range relevantPlaceTypes {
			if strings.Contains(tagType, pt) || strings.Contains(tagName, pt) {
				return true
			}
		}
	}
	return false
}

// hasGoodRating treats a missing rating as good.
func hasGoodRating(e InsightsEntity) bool {
	rating := e.props().BusinessRating
	return rating == 0 || rating > minBusinessRating
}

func priceLevel(p EntityProperties) float64 {
	if p.PriceLevel == 0 {
		return defaultPriceLevel
	}
	return p.PriceLevel
}

// mostCommonNeighborhood breaks ties in favour of the first seen.
func mostCommonNeighborhood(places []InsightsEntity) string {
	counts := make(map[string]int)
	var order []string
	for _, e := range places {
		n := e.props().Neighborhood
		if n == "" {
			continue
		}
		if counts[n] == 0 {
			order = append(order, n)
		}
		counts[n]++
	}
	if len(order) == 0 {
		return unknownLocation
	}

	best := order[0]
	for _, n := range order[1:] {
		if counts[n] > counts[best] {
			best = n
		}
	}
	return best
}

func averagePriceLevel(places []InsightsEntity) float64 {
	if len(places) == 0 {
		return defaultPriceLevel
	}
	var sum float64
	for _, e := range places {
		sum += priceLevel(e.props())
	}
	return math.Round(sum/float64(len(places))*10) / 10
}

func placeTypes(places []InsightsEntity) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, maxPlaceTypes)
	for _, e := range places {
		for _, t := range e.Tags[:min(len(e.Tags), tagsPerPlace)] {
			if _, ok := seen[t.Name]; ok {
				continue
			}
			seen[t.Name] = struct{}{}
			out = append(out, t.Name)
		}
	}
	if len(out) > maxPlaceTypes {
		out = out[:maxPlaceTypes]
	}
	return out
}
