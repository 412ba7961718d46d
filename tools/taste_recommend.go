package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"github.com/egorairo/ShelfSense/qloo"
)

type GetRecommendations struct{ api TasteAPI }

func NewGetRecommendations(api TasteAPI) *GetRecommendations {
	return &GetRecommendations{api: api}
}

func (t *GetRecommendations) Name() string  { return GetRecommendationsName }
func (t *GetRecommendations) Title() string { return "Get Taste Recommendations" }
func (t *GetRecommendations) Description() string {
	return "Recommend entities with cultural affinity to one or more sample entity IDs, " +
		"optionally near a location and restricted to a type."
}

func (t *GetRecommendations) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"entity_ids": stringArraySchema("Entity IDs returned by search_taste_entities"),
			"location":   stringSchema("City or neighbourhood to localise results"),
			"type":       stringSchema("Entity type URN of the recommendations"),
		},
		Required: []string{"entity_ids"},
	}
}

func (t *GetRecommendations) OutputSchema() *jsonschema.Schema {
	minScore, maxScore := 0.0, 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"recommendations": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"id":             {Type: "string"},
						"name":           {Type: "string"},
						"type":           {Type: "string"},
						"affinity_score": {Type: "number", Minimum: &minScore, Maximum: &maxScore},
						"description":    {Type: "string"},
						"booking_url":    {Type: "string"},
						"image_url":      {Type: "string"},
						"categories":     {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
					},
					Required: []string{"id", "name", "type", "affinity_score"},
				},
			},
			"message": {Type: "string"},
		},
		Required: []string{"recommendations", "message"},
	}
}

type recommendInput struct {
	EntityIDs []string `json:"entity_ids"`
	Location  string   `json:"location"`
	Type      string   `json:"type"`
}

func (t *GetRecommendations) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	var in recommendInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(in.EntityIDs))
	for _, id := range in.EntityIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, newError(CodeInvalidInput, "entity_ids must contain at least one ID")
	}

	location := strings.TrimSpace(in.Location)
	recs, err := t.api.Recommendations(ctx, qloo.RecommendationsRequest{
		EntityIDs: ids,
		Location:  location,
		Type:      in.Type,
	})
	if err != nil {
		return nil, upstreamError(err, "get recommendations")
	}

	message := fmt.Sprintf("Found %d recommendations", len(recs))
	if location != "" {
		message += " in " + location
	}

	return toOutput(struct {
		Recommendations []qloo.Recommendation `json:"recommendations"`
		Message         string                `json:"message"`
	}{recs, message})
}
