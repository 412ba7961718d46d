package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"github.com/egorairo/ShelfSense/qloo"
)

type GetCulturalSignals struct{ api TasteAPI }

func NewGetCulturalSignals(api TasteAPI) *GetCulturalSignals {
	return &GetCulturalSignals{api: api}
}

func (t *GetCulturalSignals) Name() string  { return GetCulturalSignalsName }
func (t *GetCulturalSignals) Title() string { return "Get Cultural Signals" }
func (t *GetCulturalSignals) Description() string {
	return "Sample well-rated cafes, restaurants, bars and attractions around a location and " +
		"summarise what the neighbourhood likes. Returns trending categories usable by find_taste_gaps."
}

func (t *GetCulturalSignals) InputSchema() *jsonschema.Schema {
	minLat, maxLat := -90.0, 90.0
	minLon, maxLon := -180.0, 180.0
	minRadius := 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"location":  stringSchema("Neighbourhood, city or address to analyse"),
			"latitude":  {Type: "number", Minimum: &minLat, Maximum: &maxLat},
			"longitude": {Type: "number", Minimum: &minLon, Maximum: &maxLon},
			"radius":    {Type: "integer", Description: "Search radius in metres", Minimum: &minRadius},
			"tags":      stringArraySchema("Optional interest tag IDs to bias the sample"),
		},
		Required: []string{"location"},
	}
}

func (t *GetCulturalSignals) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"signals": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"places":  {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
					"context": {Type: "object"},
				},
				Required: []string{"places", "context"},
			},
			"trending_categories": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			"message":             {Type: "string"},
		},
		Required: []string{"signals", "trending_categories", "message"},
	}
}

type signalsInput struct {
	Location  string   `json:"location"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Radius    float64  `json:"radius"`
	Tags      []string `json:"tags"`
}

func (t *GetCulturalSignals) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	var in signalsInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	in.Location = strings.TrimSpace(in.Location)
	if in.Location == "" && (in.Latitude == nil || in.Longitude == nil) {
		return nil, newError(CodeInvalidInput, "location or latitude/longitude is required")
	}

	entities, err := t.api.PlaceInsights(ctx, qloo.PlaceQuery{
		Location:  in.Location,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Radius:    int(in.Radius),
		Tags:      in.Tags,
	})
	if err != nil {
		return nil, upstreamError(err, "get cultural signals")
	}

	signals := qloo.ExtractCulturalSignals(entities)
	trending := signals.TrendingCategories()

	message := fmt.Sprintf("Found %d relevant places around %s (sampled %d).",
		signals.Context.TotalPlaces, displayLocation(in.Location), len(entities))
	if signals.Context.TotalPlaces == 0 {
		message = fmt.Sprintf("No well-rated food, drink or attraction places found around %s.", displayLocation(in.Location))
	}

	return toOutput(struct {
		Signals            qloo.CulturalSignals `json:"signals"`
		TrendingCategories []string             `json:"trending_categories"`
		Message            string               `json:"message"`
	}{signals, trending, message})
}

func displayLocation(location string) string {
	if location == "" {
		return "the given coordinates"
	}
	return location
}
