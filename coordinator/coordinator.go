package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	shelfsense "github.com/egorairo/ShelfSense"
	"github.com/egorairo/ShelfSense/tools"
)

const (
	// DefaultMaxIterations bounds the number of model calls in one run.
	DefaultMaxIterations = 10

	// maxToolRepeats is how many times one tool may run in a session before
	// further calls are answered with a hint.
	maxToolRepeats = 3
)

var ErrEmptyConversation = errors.New("conversation has no user message")

// Coordinator is responsible for managing the interaction between the LLM, tools, and output channel.
type Coordinator struct {
	llm           LLMClient
	providers     map[shelfsense.Mode]shelfsense.ToolProvider
	maxIterations int
	logger        shelfsense.CoordinationLogger
	tracer        trace.Tracer
	metrics       *instruments
}

type Option func(*Coordinator)

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) { c.tracer = t }
}

// WithMeter overrides the global meter.
func WithMeter(m metric.Meter) Option {
	return func(c *Coordinator) { c.metrics = newInstruments(m) }
}

// NewCoordinator binds a model to the tool subset of every mode.
func NewCoordinator(llm LLMClient, registry *tools.Registry, maxIterations int, logger shelfsense.CoordinationLogger, opts ...Option) (*Coordinator, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if logger == nil {
		logger = shelfsense.NewNoOpCoordinationLogger()
	}

	providers := make(map[shelfsense.Mode]shelfsense.ToolProvider, len(ModeTools))
	for mode, names := range ModeTools {
		sub, err := registry.Subset(names...)
		if err != nil {
			return nil, fmt.Errorf("tools for %s mode: %w", mode, err)
		}
		providers[mode] = sub
	}

	c := &Coordinator{
		llm:           llm,
		providers:     providers,
		maxIterations: maxIterations,
		logger:        logger,
		tracer:        otel.Tracer(shelfsense.TracerNameCoordinator),
		metrics:       newInstruments(otel.Meter(shelfsense.TracerNameCoordinator)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run drives the session until the model answers without tool calls or the
// iteration cap is hit. Every step is reported to sink.
func (c *Coordinator) Run(ctx context.Context, session shelfsense.Session, sink shelfsense.EventSink) (shelfsense.Outcome, error) {
	if sink == nil {
		sink = shelfsense.DiscardSink
	}
	if session.Mode == "" {
		session.Mode = shelfsense.ModeConcierge
	}
	modeAttr := attribute.String("mode", string(session.Mode))

	ctx, span := c.tracer.Start(ctx, "Coordinator.Run", trace.WithAttributes(
		attribute.String("session.id", session.ID),
		modeAttr,
	))
	defer span.End()

	start := time.Now()
	c.metrics.runs.Add(ctx, 1, metric.WithAttributes(modeAttr))

	outcome, err := c.run(ctx, session, sink)

	c.metrics.runDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(modeAttr))
	span.SetAttributes(
		attribute.Int("iterations", outcome.Iterations),
		attribute.Int("tool_calls", outcome.ToolCalls),
		attribute.String("finish_reason", outcome.FinishReason),
	)
	if err != nil {
		c.metrics.runsFailed.Add(ctx, 1, metric.WithAttributes(modeAttr))
		span.SetStatus(codes.Error, "coordination failed")
		span.RecordError(err)
		slog.Error("COORDINATOR: Run failed", "session", session.ID, "error", err, "iterations", outcome.Iterations)
		return outcome, err
	}

	c.metrics.runsCompleted.Add(ctx, 1, metric.WithAttributes(modeAttr))
	slog.Info("COORDINATOR: Run completed",
		"session", session.ID,
		"finish_reason", outcome.FinishReason,
		"iterations", outcome.Iterations,
		"tool_calls", outcome.ToolCalls,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return outcome, nil
}

func (c *Coordinator) run(ctx context.Context, session shelfsense.Session, sink shelfsense.EventSink) (shelfsense.Outcome, error) {
	outcome := shelfsense.Outcome{FinishReason: shelfsense.FinishError}

	tp, ok := c.providers[session.Mode]
	if !ok {
		return outcome, fmt.Errorf("unknown mode %q", session.Mode)
	}

	prompt := NewPrompt(session, tp)
	if prompt.LastUserText() == "" {
		return outcome, ErrEmptyConversation
	}

	slog.Info("COORDINATOR: Starting run", "session", session.ID, "mode", session.Mode, "messages", len(prompt.Messages)-1)
	c.metrics.toolsAvailable.Record(ctx, int64(len(prompt.Tools)))

	callCounts := make(map[string]int)

	for iter := 0; iter < c.maxIterations; iter++ {
		iterLog := shelfsense.IterationLog{
			SessionID: session.ID,
			Mode:      session.Mode,
			Iteration: iter + 1,
			Timestamp: time.Now(),
		}
		c.metrics.iterations.Add(ctx, 1)

		if b, merr := json.Marshal(prompt); merr == nil {
			iterLog.LLMInput = string(b)
			c.metrics.promptSize.Record(ctx, int64(len(b)))
			slog.Info("COORDINATOR: Sending prompt to LLM",
				"iteration", iter+1,
				"messages_count", len(prompt.Messages),
				"tools_count", len(prompt.Tools),
				"prompt_size_bytes", len(b),
			)
		}

		// 1) Invoke model
		llmStart := time.Now()
		res, err := c.llm.Invoke(ctx, prompt)
		c.metrics.llmResponseTime.Record(ctx, time.Since(llmStart).Seconds())
		if err != nil {
			iterLog.Error = err.Error()
			c.logIteration(iterLog)
			c.emitError(ctx, sink, err)
			return outcome, fmt.Errorf("invoke failed: %w", err)
		}
		iterLog.LLMOutput = res
		outcome.Iterations++

		slog.Info("COORDINATOR: LLM response received",
			"iteration", iter+1,
			"content_length", len(res.Content),
			"tool_calls", len(res.ToolCalls),
		)

		// 2) Stream any text first
		if res.Content != "" {
			if outcome.Text != "" {
				outcome.Text += "\n\n"
			}
			outcome.Text += res.Content
			if err := sink.Emit(ctx, shelfsense.Event{Type: shelfsense.EventText, Text: res.Content}); err != nil {
				c.logIteration(iterLog)
				return outcome, fmt.Errorf("emit text: %w", err)
			}
		}

		// 3) No tool calls means the model is done
		if len(res.ToolCalls) == 0 {
			c.logIteration(iterLog)
			outcome.FinishReason = shelfsense.FinishStop
			return outcome, c.finish(ctx, sink, outcome.FinishReason)
		}

		// 4) Record the assistant turn, then run every call
		assistantMsg := Message{Role: "assistant", Content: MessageParts{}}
		if res.Content != "" {
			assistantMsg.Content = append(assistantMsg.Content, MessagePart{Type: PartText, Text: res.Content})
		}
		for i := range res.ToolCalls {
			if res.ToolCalls[i].ToolUseID == "" {
				res.ToolCalls[i].ToolUseID = fmt.Sprintf("call_%d_%d", iter+1, i+1)
			}
			if res.ToolCalls[i].Input == nil {
				res.ToolCalls[i].Input = map[string]any{}
			}
			call := res.ToolCalls[i]
			assistantMsg.Content = append(assistantMsg.Content, MessagePart{
				Type:      PartToolUse,
				ToolUseID: call.ToolUseID,
				ToolName:  call.Name,
				Data:      call.Input,
			})
		}
		prompt.Messages = append(prompt.Messages, assistantMsg)

		toolCallLogs := make([]shelfsense.ToolCallLog, 0, len(res.ToolCalls))
		toolResults := make([]ToolResult, 0, len(res.ToolCalls))

		for _, call := range res.ToolCalls {
			slog.Info("COORDINATOR: Handling tool call", "name", call.Name, "iteration", iter+1)

			if err := sink.Emit(ctx, shelfsense.Event{
				Type:       shelfsense.EventToolCall,
				ToolCallID: call.ToolUseID,
				ToolName:   call.Name,
				Args:       call.Input,
			}); err != nil {
				c.logIteration(iterLog)
				return outcome, fmt.Errorf("emit tool call: %w", err)
			}

			callCounts[call.Name]++
			var tlog shelfsense.ToolCallLog
			var data map[string]any
			if callCounts[call.Name] > maxToolRepeats {
				slog.Warn("COORDINATOR: Excessive tool repetition detected", "tool", call.Name, "count", callCounts[call.Name], "iteration", iter+1)
				c.metrics.repetitionPrevented.Add(ctx, 1)
				data = map[string]any{
					"error":   "excessive_tool_repetition",
					"message": fmt.Sprintf("%s has already been called %d times. Use the results you already have and answer the user.", call.Name, maxToolRepeats),
				}
				tlog = shelfsense.ToolCallLog{Name: call.Name, Input: call.Input, Output: data, Error: "excessive tool repetition"}
			} else {
				data, tlog = c.execute(ctx, tp, call)
				outcome.ToolCalls++
			}

			toolCallLogs = append(toolCallLogs, tlog)
			toolResults = append(toolResults, ToolResult{
				ToolUseID: call.ToolUseID,
				ToolName:  call.Name,
				Data:      data,
			})

			if err := sink.Emit(ctx, shelfsense.Event{
				Type:       shelfsense.EventToolResult,
				ToolCallID: call.ToolUseID,
				ToolName:   call.Name,
				Result:     data,
			}); err != nil {
				iterLog.ToolCalls = toolCallLogs
				c.logIteration(iterLog)
				return outcome, fmt.Errorf("emit tool result: %w", err)
			}
		}

		prompt.Messages = append(prompt.Messages, NewToolResultMessage(toolResults))
		iterLog.ToolCalls = toolCallLogs
		c.logIteration(iterLog)

		if err := ctx.Err(); err != nil {
			c.emitError(ctx, sink, err)
			return outcome, err
		}
	}

	slog.Warn("COORDINATOR: Iteration limit reached", "session", session.ID, "max_iterations", c.maxIterations)
	outcome.FinishReason = shelfsense.FinishLength
	return outcome, c.finish(ctx, sink, outcome.FinishReason)
}

// execute runs one tool call. Failures become {"error", "message"} results
// so the model can recover.
func (c *Coordinator) execute(ctx context.Context, tp shelfsense.ToolProvider, call tools.Call) (map[string]any, shelfsense.ToolCallLog) {
	ctx, span := c.tracer.Start(ctx, "Coordinator.ExecuteTool", trace.WithAttributes(
		attribute.String("tool.name", call.Name),
	))
	defer span.End()

	tlog := shelfsense.ToolCallLog{Name: call.Name, Input: call.Input}
	toolAttr := metric.WithAttributes(attribute.String("tool", call.Name))
	c.metrics.toolCalls.Add(ctx, 1, toolAttr)

	tool, err := tp.GetTool(call.Name)
	if err != nil {
		c.metrics.toolCallsFailed.Add(ctx, 1, toolAttr)
		span.SetStatus(codes.Error, "unknown tool")
		tlog.Error = err.Error()
		tlog.Output = map[string]any{"error": "unknown_tool", "message": err.Error()}
		return tlog.Output, tlog
	}

	start := time.Now()
	result, err := tool.Run(ctx, call.Input)
	tlog.Duration = time.Since(start)
	c.metrics.toolExecutionTime.Record(ctx, tlog.Duration.Seconds(), toolAttr)

	if err != nil {
		c.metrics.toolCallsFailed.Add(ctx, 1, toolAttr)
		span.SetStatus(codes.Error, "tool failed")
		span.RecordError(err)
		slog.Warn("COORDINATOR: Tool failed", "tool", call.Name, "error", err)
		tlog.Error = err.Error()
		tlog.Output = toolErrorResult(err)
		return tlog.Output, tlog
	}

	tlog.Output = result
	return result, tlog
}

func toolErrorResult(err error) map[string]any {
	var toolErr *tools.Error
	if errors.As(err, &toolErr) {
		return map[string]any{"error": toolErr.Code, "message": toolErr.Message}
	}
	return map[string]any{"error": "tool_failed", "message": err.Error()}
}

func (c *Coordinator) finish(ctx context.Context, sink shelfsense.EventSink, reason string) error {
	if err := sink.Emit(ctx, shelfsense.Event{Type: shelfsense.EventFinish, FinishReason: reason}); err != nil {
		return fmt.Errorf("emit finish: %w", err)
	}
	return nil
}

func (c *Coordinator) emitError(ctx context.Context, sink shelfsense.EventSink, err error) {
	if emitErr := sink.Emit(ctx, shelfsense.Event{Type: shelfsense.EventError, Text: err.Error()}); emitErr != nil {
		slog.Warn("COORDINATOR: Failed to report error to sink", "error", emitErr)
	}
}

func (c *Coordinator) logIteration(iter shelfsense.IterationLog) {
	if c.logger != nil {
		if err := c.logger.LogIteration(iter); err != nil {
			slog.Error("Failed to log coordination iteration", "error", err, "iteration", iter.Iteration)
		}
	}
}
