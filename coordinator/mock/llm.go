package mock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/egorairo/ShelfSense/coordinator"
	"github.com/egorairo/ShelfSense/tools"
)

const (
	defaultStoreType = "convenience_store"
	maxQueryLen      = 100
	maxAnchors       = 3
)

// LLMClient is a deterministic planner that walks the same tool chain a real
// model is prompted to follow. It decides the next step purely from which
// tool results are already in the prompt, which makes it useful for demos,
// local development and end-to-end tests without model credentials.
type LLMClient struct{}

func NewLLMClient() *LLMClient {
	return &LLMClient{}
}

func (m *LLMClient) Invoke(ctx context.Context, prompt coordinator.Prompt) (coordinator.Response, error) {
	slog.Info("LLM_CLIENT: Invoked", "messages_len", len(prompt.Messages))

	if offers(prompt, tools.FindTasteGapsName) {
		return m.retail(prompt), nil
	}
	return m.concierge(prompt), nil
}

func (m *LLMClient) concierge(p coordinator.Prompt) coordinator.Response {
	search := p.LastToolResult(tools.SearchTasteEntitiesName)
	if search == nil {
		query := strings.TrimSpace(p.LastUserText())
		if query == "" {
			return text("Tell me a few artists, films or dishes you love and where you are headed.")
		}
		if r := []rune(query); len(r) > maxQueryLen {
			query = string(r[:maxQueryLen])
		}
		slog.Info("LLM_CLIENT: Planning taste search")
		return call("Let me find your tastes in the taste graph.", tools.SearchTasteEntitiesName, map[string]any{"query": query})
	}
	if msg, failed := toolError(search); failed {
		return text("I could not search the taste graph right now: " + msg)
	}

	recs := p.LastToolResult(tools.GetRecommendationsName)
	if recs == nil {
		ids := field(list(search["results"]), "id", maxAnchors)
		if len(ids) == 0 {
			return text("I could not find anything matching that in the taste graph. Try naming a specific artist, film or dish.")
		}
		slog.Info("LLM_CLIENT: Planning recommendations", "anchors", len(ids))
		return call("Found some anchors, now fetching recommendations.", tools.GetRecommendationsName, map[string]any{"entity_ids": ids})
	}
	if msg, failed := toolError(recs); failed {
		return text("I found your tastes but could not fetch recommendations: " + msg)
	}

	items := list(recs["recommendations"])
	if len(items) == 0 {
		return text("The taste graph had no recommendations for those picks. Try a different artist or place.")
	}

	var b strings.Builder
	b.WriteString("Here is what the taste graph suggests:\n")
	for _, item := range items {
		name, _ := item["name"].(string)
		kind, _ := item["type"].(string)
		score, _ := item["affinity_score"].(float64)
		fmt.Fprintf(&b, "\n- %s (%s, Affinity: %.2f)", name, kind, score)
	}
	slog.Info("LLM_CLIENT: Returning concierge narrative", "recommendations", len(items))
	return text(b.String())
}

func (m *LLMClient) retail(p coordinator.Prompt) coordinator.Response {
	system := p.System()
	location := shopField(system, "Location")
	storeType := shopField(system, "Store type")
	if storeType == "" {
		storeType = defaultStoreType
	}

	signals := p.LastToolResult(tools.GetCulturalSignalsName)
	if signals == nil {
		if location == "" {
			return text("Which neighborhood or city is your shop in? I need it to read the local taste signals.")
		}
		slog.Info("LLM_CLIENT: Planning cultural signals", "location", location)
		return call("Reading the taste signals around your shop.", tools.GetCulturalSignalsName, map[string]any{"location": location})
	}
	if msg, failed := toolError(signals); failed {
		return text("I could not read the local taste signals: " + msg)
	}

	found := p.LastToolResult(tools.FindTasteGapsName)
	if found == nil {
		categories := strs(signals["trending_categories"])
		if len(categories) == 0 {
			return text(fmt.Sprintf("There are no strong taste signals around %s yet, so I have nothing to compare your inventory against.", location))
		}
		slog.Info("LLM_CLIENT: Planning gap search", "categories", len(categories))
		return call("Comparing your inventory with what is trending nearby.", tools.FindTasteGapsName, map[string]any{"categories": categories})
	}
	if msg, failed := toolError(found); failed {
		return text("I could not compare your inventory: " + msg)
	}

	gapList, _ := found["gaps"].([]any)
	if len(gapList) == 0 {
		message, _ := found["message"].(string)
		return text(message)
	}

	assessed := p.LastToolResult(tools.AssessBusinessFitName)
	if assessed == nil {
		slog.Info("LLM_CLIENT: Planning business fit", "gaps", len(gapList), "store_type", storeType)
		return call("Checking which gaps fit your shop.", tools.AssessBusinessFitName, map[string]any{
			"gaps":             gapList,
			"store_type":       storeType,
			"location_context": location,
		})
	}
	if msg, failed := toolError(assessed); failed {
		return text("I found gaps but could not assess them: " + msg)
	}

	var viable []map[string]any
	for _, a := range list(assessed["assessments"]) {
		if ok, _ := a["is_viable"].(bool); ok {
			viable = append(viable, a)
		}
	}
	if len(viable) == 0 {
		return text(fmt.Sprintf("None of the %d taste gaps near %s are a good fit for your shop right now, so I would keep the current range.", len(gapList), location))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on the taste signals around %s, consider stocking:\n", location)
	for _, a := range viable {
		gap, _ := a["gap"].(map[string]any)
		item, _ := gap["suggested_item"].(string)
		impact, _ := gap["predicted_impact"].(string)
		viability, _ := a["viability"].(float64)
		fmt.Fprintf(&b, "\n- %s (viability %.2f, predicted impact %s)", item, viability, impact)
	}
	slog.Info("LLM_CLIENT: Returning retail narrative", "viable", len(viable))
	return text(b.String())
}

func text(s string) coordinator.Response {
	return coordinator.Response{Content: s}
}

func call(s, name string, input map[string]any) coordinator.Response {
	return coordinator.Response{
		Content:   s,
		ToolCalls: []tools.Call{{Name: name, Input: input}},
	}
}

func offers(p coordinator.Prompt, name string) bool {
	for _, t := range p.Tools {
		if t.Name == name {
			return true
		}
	}
	return false
}

func toolError(data map[string]any) (string, bool) {
	if _, failed := data["error"]; !failed {
		return "", false
	}
	msg, _ := data["message"].(string)
	return msg, true
}

// shopField reads a "Label: value" line from the shop context.
func shopField(system, label string) string {
	for _, line := range strings.Split(system, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), label+":"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func list(v any) []map[string]any {
	items, _ := v.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func field(items []map[string]any, key string, limit int) []string {
	var out []string
	for _, item := range items {
		if len(out) == limit {
			break
		}
		if s, ok := item[key].(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func strs(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
