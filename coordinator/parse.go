package coordinator

import (
	"encoding/json"
	"strings"

	"github.com/egorairo/ShelfSense/tools"
)

// ParseModelOutput lifts tool calls embedded in the text of a response into
// ToolCalls. Some local models ignore native tool calling and answer with
// {"tool_calls":[{"name":...,"input":{...}}]} somewhere in their prose. Any
// JSON object that is not a tool call list stays in Content.
func (r *Response) ParseModelOutput() {
	s := strings.TrimSpace(r.Content)
	if s == "" || !strings.Contains(s, `"tool_calls"`) {
		return
	}

	var content strings.Builder
	var calls []tools.Call

	for len(s) > 0 {
		start := strings.IndexByte(s, '{')
		if start == -1 {
			content.WriteString(s)
			break
		}
		content.WriteString(s[:start])

		dec := json.NewDecoder(strings.NewReader(s[start:]))
		var probe struct {
			ToolCalls []tools.Call `json:"tool_calls"`
		}
		if err := dec.Decode(&probe); err != nil {
			// Not a complete object; keep the brace and keep scanning.
			content.WriteByte('{')
			s = s[start+1:]
			continue
		}

		end := start + int(dec.InputOffset())
		if len(probe.ToolCalls) == 0 {
			content.WriteString(s[start:end])
		}
		for _, tc := range probe.ToolCalls {
			if tc.Input == nil {
				tc.Input = map[string]any{}
			}
			calls = append(calls, tools.Call{Name: tc.Name, Input: tc.Input})
		}
		s = s[end:]
	}

	if len(calls) == 0 {
		return
	}
	r.Content = strings.TrimSpace(content.String())
	r.ToolCalls = append(r.ToolCalls, calls...)
}
