package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"github.com/egorairo/ShelfSense/gaps"
	"github.com/egorairo/ShelfSense/tools/storage"
)

type FindTasteGaps struct{ sales storage.SalesState }

func NewFindTasteGaps(sales storage.SalesState) *FindTasteGaps {
	return &FindTasteGaps{sales: sales}
}

func (t *FindTasteGaps) Name() string  { return FindTasteGapsName }
func (t *FindTasteGaps) Title() string { return "Find Taste Gaps" }
func (t *FindTasteGaps) Description() string {
	return "Compare the shop's sales records against local taste signals and return the preferences " +
		"the inventory does not cover, ranked by gap score. Pass trending_categories from " +
		"get_cultural_signals as categories, or explicit weighted entities."
}

func (t *FindTasteGaps) InputSchema() *jsonschema.Schema {
	minRel, maxRel := 0.0, 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"categories": stringArraySchema("Taste categories ordered from most to least relevant"),
			"entities": {
				Type:        "array",
				Description: "Explicit taste entities with relevance between 0 and 1",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name":       {Type: "string"},
						"relevance":  {Type: "number", Minimum: &minRel, Maximum: &maxRel},
						"type":       {Type: "string"},
						"categories": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
					},
					Required: []string{"name", "relevance"},
				},
			},
		},
	}
}

func (t *FindTasteGaps) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"gaps": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"suggested_item":   {Type: "string"},
						"rationale":        {Type: "string"},
						"predicted_impact": {Type: "string"},
						"affinity_score":   {Type: "number"},
						"gap_score":        {Type: "number"},
						"categories":       {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
					},
					Required: []string{"suggested_item", "rationale", "predicted_impact", "affinity_score", "gap_score", "categories"},
				},
			},
			"entities":        {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
			"records_checked": {Type: "integer"},
			"message":         {Type: "string"},
		},
		Required: []string{"gaps", "entities", "records_checked", "message"},
	}
}

type findGapsInput struct {
	Categories []string           `json:"categories"`
	Entities   []gaps.TasteEntity `json:"entities"`
}

func (t *FindTasteGaps) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	var in findGapsInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}

	entities := make([]gaps.TasteEntity, 0, len(in.Categories)+len(in.Entities))
	entities = append(entities, gaps.CategoriesToEntities(in.Categories)...)
	for _, e := range in.Entities {
		if strings.TrimSpace(e.Name) == "" {
			return nil, newError(CodeInvalidInput, "every entity needs a name")
		}
		if e.Relevance < 0 || e.Relevance > 1 {
			return nil, newError(CodeInvalidInput, "entity %q relevance %.2f is outside [0, 1]", e.Name, e.Relevance)
		}
		entities = append(entities, e)
	}
	if len(entities) == 0 {
		return nil, newError(CodeInvalidInput, "provide categories or entities to compare against")
	}

	records, err := t.sales.Load(ctx)
	if err != nil {
		return nil, &Error{Code: CodeNoData, Message: fmt.Sprintf("load sales records: %v", err), Err: err}
	}

	found := gaps.FindGaps(records, entities)

	var message string
	switch {
	case len(records) == 0:
		message = fmt.Sprintf("No sales records were provided, so all %d qualifying taste signals are reported as gaps.", len(found))
	case len(found) == 0:
		message = fmt.Sprintf("Inventory of %d products already covers every strong taste signal.", len(records))
	default:
		message = fmt.Sprintf("Found %d taste gaps across %d products. Top gap: %s.", len(found), len(records), found[0].SuggestedItem)
	}

	return toOutput(struct {
		Gaps           []gaps.Gap         `json:"gaps"`
		Entities       []gaps.TasteEntity `json:"entities"`
		RecordsChecked int                `json:"records_checked"`
		Message        string             `json:"message"`
	}{found, entities, len(records), message})
}
