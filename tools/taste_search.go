package tools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"github.com/egorairo/ShelfSense/qloo"
)

type SearchTasteEntities struct{ api TasteAPI }

func NewSearchTasteEntities(api TasteAPI) *SearchTasteEntities {
	return &SearchTasteEntities{api: api}
}

func (t *SearchTasteEntities) Name() string  { return SearchTasteEntitiesName }
func (t *SearchTasteEntities) Title() string { return "Search Taste Entities" }
func (t *SearchTasteEntities) Description() string {
	return "Search the taste graph for entities (places, artists, brands, books, movies) by name. " +
		"Use the returned IDs as samples for get_recommendations."
}

func (t *SearchTasteEntities) InputSchema() *jsonschema.Schema {
	types := make([]any, 0, len(qloo.EntityTypes))
	for _, et := range qloo.EntityTypes {
		types = append(types, et)
	}
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": stringSchema("Free-text name of the entity to look up"),
			"type": {
				Type:        "string",
				Description: "Optional entity type URN to narrow the search",
				Enum:        types,
			},
		},
		Required: []string{"query"},
	}
}

func (t *SearchTasteEntities) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"results": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"id":    {Type: "string"},
						"name":  {Type: "string"},
						"type":  {Type: "string"},
						"score": {Type: "number"},
					},
					Required: []string{"id", "name", "type"},
				},
			},
			"message": {Type: "string"},
		},
		Required: []string{"results", "message"},
	}
}

type searchInput struct {
	Query string `json:"query"`
	Type  string `json:"type"`
}

func (t *SearchTasteEntities) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	var in searchInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	in.Query = strings.TrimSpace(in.Query)
	if in.Query == "" {
		return nil, newError(CodeInvalidInput, "query is required")
	}
	if in.Type != "" && !slices.Contains(qloo.EntityTypes, in.Type) {
		return nil, newError(CodeInvalidInput, "unsupported entity type %q", in.Type)
	}

	results, err := t.api.Search(ctx, in.Query, in.Type)
	if err != nil {
		return nil, upstreamError(err, "search taste entities")
	}

	message := fmt.Sprintf("Found %d matches for %q", len(results), in.Query)
	if in.Type != "" {
		message += fmt.Sprintf(" (type: %s)", in.Type)
	}

	return toOutput(struct {
		Results []qloo.SearchResult `json:"results"`
		Message string              `json:"message"`
	}{results, message})
}
