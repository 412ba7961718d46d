package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	shelfsense "github.com/egorairo/ShelfSense"
)

const (
	dataStreamHeader  = "X-Vercel-AI-Data-Stream"
	dataStreamVersion = "v1"
)

// Data stream part prefixes understood by the AI SDK useChat hook.
const (
	partText       = "0"
	partError      = "3"
	partToolCall   = "9"
	partToolResult = "a"
	partFinish     = "d"
)

type toolCallPart struct {
	ToolCallID string         `json:"toolCallId"`
	ToolName   string         `json:"toolName"`
	Args       map[string]any `json:"args"`
}

type toolResultPart struct {
	ToolCallID string         `json:"toolCallId"`
	Result     map[string]any `json:"result"`
}

type usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

type finishPart struct {
	FinishReason string `json:"finishReason"`
	Usage        usage  `json:"usage"`
}

// dataStreamSink writes coordinator events as data stream lines and
// flushes after each one so the browser renders progress as it happens.
type dataStreamSink struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	closed  bool
}

func newDataStreamSink(w io.Writer) *dataStreamSink {
	flusher, _ := w.(http.Flusher)
	return &dataStreamSink{w: w, flusher: flusher}
}

func setDataStreamHeaders(h http.Header) {
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	h.Set(dataStreamHeader, dataStreamVersion)
}

func (s *dataStreamSink) Emit(ctx context.Context, e shelfsense.Event) error {
	switch e.Type {
	case shelfsense.EventText:
		return s.write(partText, e.Text)
	case shelfsense.EventToolCall:
		args := e.Args
		if args == nil {
			args = map[string]any{}
		}
		return s.write(partToolCall, toolCallPart{ToolCallID: e.ToolCallID, ToolName: e.ToolName, Args: args})
	case shelfsense.EventToolResult:
		return s.write(partToolResult, toolResultPart{ToolCallID: e.ToolCallID, Result: e.Result})
	case shelfsense.EventError:
		return s.write(partError, e.Text)
	case shelfsense.EventFinish:
		return s.write(partFinish, finishPart{FinishReason: e.FinishReason})
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
}

// done reports whether a finish or error part has already been written.
func (s *dataStreamSink) done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *dataStreamSink) write(prefix string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s part: %w", prefix, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.w, "%s:%s\n", prefix, payload); err != nil {
		return err
	}
	if prefix == partFinish || prefix == partError {
		s.closed = true
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
