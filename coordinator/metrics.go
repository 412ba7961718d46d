package coordinator

import (
	"go.opentelemetry.io/otel/metric"
)

type instruments struct {
	runs                metric.Int64Counter
	runsCompleted       metric.Int64Counter
	runsFailed          metric.Int64Counter
	iterations          metric.Int64Counter
	toolCalls           metric.Int64Counter
	toolCallsFailed     metric.Int64Counter
	repetitionPrevented metric.Int64Counter
	toolsAvailable      metric.Int64Gauge
	promptSize          metric.Int64Gauge
	runDuration         metric.Float64Histogram
	llmResponseTime     metric.Float64Histogram
	toolExecutionTime   metric.Float64Histogram
}

// newInstruments registers the coordinator metrics. Registration errors
// leave a no-op instrument in place, so they are ignored.
func newInstruments(meter metric.Meter) *instruments {
	in := &instruments{}
	in.runs, _ = meter.Int64Counter("coordinator_runs_total",
		metric.WithDescription("Total number of coordination runs started"))
	in.runsCompleted, _ = meter.Int64Counter("coordinator_runs_completed_total",
		metric.WithDescription("Total number of coordination runs completed successfully"))
	in.runsFailed, _ = meter.Int64Counter("coordinator_runs_failed_total",
		metric.WithDescription("Total number of coordination runs that failed"))
	in.iterations, _ = meter.Int64Counter("coordinator_iterations_total",
		metric.WithDescription("Total number of coordination iterations"))
	in.toolCalls, _ = meter.Int64Counter("tool_calls_total",
		metric.WithDescription("Total number of tool calls executed"))
	in.toolCallsFailed, _ = meter.Int64Counter("tool_calls_failed_total",
		metric.WithDescription("Total number of tool calls that failed"))
	in.repetitionPrevented, _ = meter.Int64Counter("tool_repetition_prevented_total",
		metric.WithDescription("Total number of times tool repetition was prevented"))
	in.toolsAvailable, _ = meter.Int64Gauge("tools_available_count",
		metric.WithDescription("Number of tools available to the coordinator"))
	in.promptSize, _ = meter.Int64Gauge("prompt_size_bytes",
		metric.WithDescription("Size of the prompt sent to LLM in bytes"))
	in.runDuration, _ = meter.Float64Histogram("coordination_duration_seconds",
		metric.WithDescription("Total duration of coordination process in seconds"))
	in.llmResponseTime, _ = meter.Float64Histogram("llm_response_time_seconds",
		metric.WithDescription("Time taken to receive response from LLM in seconds"))
	in.toolExecutionTime, _ = meter.Float64Histogram("tool_execution_time_seconds",
		metric.WithDescription("Time taken to execute individual tools in seconds"))
	return in
}
