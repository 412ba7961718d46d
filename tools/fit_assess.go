package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"github.com/egorairo/ShelfSense/gaps"
)

type AssessBusinessFit struct{}

func NewAssessBusinessFit() *AssessBusinessFit { return &AssessBusinessFit{} }

func (t *AssessBusinessFit) Name() string  { return AssessBusinessFitName }
func (t *AssessBusinessFit) Title() string { return "Assess Business Fit" }
func (t *AssessBusinessFit) Description() string {
	return "Score taste gaps against store-type compatibility and location conflicts " +
		"(e.g. souvenirs next to a museum gift shop). Only gaps marked is_viable should be recommended."
}

func (t *AssessBusinessFit) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"gaps": {
				Type:        "array",
				Description: "Gaps as returned by find_taste_gaps",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"suggested_item": {Type: "string"},
						"affinity_score": {Type: "number"},
						"categories":     {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
					},
					Required: []string{"suggested_item", "affinity_score"},
				},
			},
			"store_type":       stringSchema("Kind of shop, e.g. coffee_shop, bakery, convenience_store"),
			"location_context": stringSchema("Free-text description of the surroundings, e.g. 'next to the city museum'"),
		},
		Required: []string{"gaps", "store_type"},
	}
}

func (t *AssessBusinessFit) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"assessments": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"gap":       {Type: "object"},
						"viability": {Type: "number"},
						"issues":    {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
						"notes":     {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
						"is_viable": {Type: "boolean"},
					},
					Required: []string{"gap", "viability", "issues", "is_viable"},
				},
			},
			"viable_count": {Type: "integer"},
			"message":      {Type: "string"},
		},
		Required: []string{"assessments", "viable_count", "message"},
	}
}

type assessInput struct {
	Gaps            []gaps.Gap `json:"gaps"`
	StoreType       string     `json:"store_type"`
	LocationContext string     `json:"location_context"`
}

func (t *AssessBusinessFit) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	var in assessInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.StoreType) == "" {
		return nil, newError(CodeInvalidInput, "store_type is required")
	}
	if len(in.Gaps) == 0 {
		return nil, newError(CodeInvalidInput, "gaps must contain at least one gap")
	}

	assessments := gaps.AssessAll(in.Gaps, in.StoreType, in.LocationContext)

	viable := 0
	for _, a := range assessments {
		if a.IsViable {
			viable++
		}
	}

	return toOutput(struct {
		Assessments []gaps.Assessment `json:"assessments"`
		ViableCount int               `json:"viable_count"`
		Message     string            `json:"message"`
	}{
		Assessments: assessments,
		ViableCount: viable,
		Message: fmt.Sprintf("%d of %d gaps are viable for a %s.",
			viable, len(assessments), strings.ReplaceAll(gaps.NormalizeStoreType(in.StoreType), "_", " ")),
	})
}
