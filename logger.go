package shelfsense

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// CoordinationLogger records each iteration of a coordinator run.
type CoordinationLogger interface {
	LogIteration(iteration IterationLog) error
}

// NewCoordinationLogFilePath returns a file path under dir named after the entrypoint and a cleaned up model id.
func NewCoordinationLogFilePath(dir, entrypoint, model string) string {
	name := strings.NewReplacer(":", "_", "/", "_", " ", "_").Replace(strings.ToLower(model))
	return filepath.Join(dir, fmt.Sprintf("%d.%s.%s.json", time.Now().Unix(), entrypoint, name))
}

// IterationLog represents a single iteration in the coordination process
type IterationLog struct {
	SessionID string        `json:"session_id,omitempty"`
	Mode      Mode          `json:"mode,omitempty"`
	Iteration int           `json:"iteration"`
	Timestamp time.Time     `json:"timestamp"`
	LLMInput  string        `json:"llm_input,omitempty"`
	LLMOutput any           `json:"llm_output"`
	ToolCalls []ToolCallLog `json:"tool_calls,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// ToolCallLog represents a tool execution within a step
type ToolCallLog struct {
	Name     string         `json:"name"`
	Input    map[string]any `json:"input"`
	Output   map[string]any `json:"output"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration_ns"`
}

// FileCoordinationLogger accumulates iterations and writes them out on Flush.
type FileCoordinationLogger struct {
	mu         sync.Mutex
	iterations []IterationLog
	writer     io.Writer
}

func NewFileCoordinationLogger(writer io.Writer) *FileCoordinationLogger {
	return &FileCoordinationLogger{
		iterations: make([]IterationLog, 0),
		writer:     writer,
	}
}

func (fcl *FileCoordinationLogger) LogIteration(iteration IterationLog) error {
	fcl.mu.Lock()
	defer fcl.mu.Unlock()
	fcl.iterations = append(fcl.iterations, iteration)
	return nil
}

// Flush writes all accumulated iterations to the writer and clears the buffer.
func (fcl *FileCoordinationLogger) Flush() error {
	fcl.mu.Lock()
	defer fcl.mu.Unlock()

	if fcl.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"coordination_session": map[string]any{
			"timestamp":  time.Now(),
			"iterations": fcl.iterations,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal coordination log: %w", err)
	}

	if _, err := fcl.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write coordination log: %w", err)
	}

	fcl.iterations = fcl.iterations[:0]
	return nil
}

// NoOpCoordinationLogger discards all log entries.
type NoOpCoordinationLogger struct{}

func NewNoOpCoordinationLogger() *NoOpCoordinationLogger {
	return &NoOpCoordinationLogger{}
}

func (nop *NoOpCoordinationLogger) LogIteration(iteration IterationLog) error {
	return nil
}

// StreamCoordinationLogger writes each iteration as one JSON line (for Lambda/CloudWatch).
type StreamCoordinationLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func NewStdoutCoordinationLogger() *StreamCoordinationLogger {
	return NewStreamCoordinationLogger(os.Stdout)
}

func NewStreamCoordinationLogger(w io.Writer) *StreamCoordinationLogger {
	return &StreamCoordinationLogger{w: w}
}

func (l *StreamCoordinationLogger) LogIteration(iteration IterationLog) error {
	data, err := json.Marshal(iteration)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = fmt.Fprintln(l.w, string(data))
	return err
}

// NewCoordinationLogger builds the logger selected by AgentConfig.CoordinationLog.
// The returned cleanup func flushes and closes file loggers.
func NewCoordinationLogger(cfg AgentConfig, entrypoint, model string) (CoordinationLogger, func() error, error) {
	noop := func() error { return nil }

	switch cfg.CoordinationLog {
	case "none":
		return NewNoOpCoordinationLogger(), noop, nil
	case "file":
		if err := os.MkdirAll(cfg.CoordinationLogDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log dir: %w", err)
		}
		f, err := os.Create(NewCoordinationLogFilePath(cfg.CoordinationLogDir, entrypoint, model))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create coordination log file: %w", err)
		}
		fl := NewFileCoordinationLogger(f)
		return fl, func() error {
			ferr := fl.Flush()
			cerr := f.Close()
			if ferr != nil {
				return ferr
			}
			return cerr
		}, nil
	default:
		return NewStdoutCoordinationLogger(), noop, nil
	}
}
