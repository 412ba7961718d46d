package tools

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/egorairo/ShelfSense/tools/storage"
)

const (
	SearchTasteEntitiesName = "search_taste_entities"
	GetRecommendationsName  = "get_recommendations"
	GetCulturalSignalsName  = "get_cultural_signals"
	FindTasteGapsName       = "find_taste_gaps"
	AssessBusinessFitName   = "assess_business_fit"
)

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates a registry holding every tool, backed by the given
// taste API and sales source.
func NewRegistry(api TasteAPI, sales storage.SalesState) (*Registry, error) {
	if api == nil {
		return nil, errors.New("taste API client is required")
	}
	if sales == nil {
		sales = storage.NewRequestSalesState(nil)
	}

	tools := map[string]Tool{
		SearchTasteEntitiesName: NewSearchTasteEntities(api),
		GetRecommendationsName:  NewGetRecommendations(api),
		GetCulturalSignalsName:  NewGetCulturalSignals(api),
		FindTasteGapsName:       NewFindTasteGaps(sales),
		AssessBusinessFitName:   NewAssessBusinessFit(),
	}

	registry := Registry(tools)
	return &registry, nil
}

// GetTools returns all tools in the registry ordered by name
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	slices.SortFunc(tools, func(a, b Tool) int { return strings.Compare(a.Name(), b.Name()) })
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}

// Subset returns a registry restricted to the named tools.
func (r Registry) Subset(names ...string) (*Registry, error) {
	sub := make(Registry, len(names))
	for _, name := range names {
		tool, err := r.GetTool(name)
		if err != nil {
			return nil, err
		}
		sub[name] = tool
	}
	return &sub, nil
}
