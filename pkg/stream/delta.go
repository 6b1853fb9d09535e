// Package stream drives buffers and the assembler over a sequence of LLM
// deltas and yields a delta whenever the partial value changes.
//
// Generators are single-owner and pull-based: Advance handles one inbound
// delta and Finish flushes the end of the stream. Stream wraps both as a
// range-over-func iterator. Breaking out of the loop early skips Finish.
package stream

// Delta is one event of an LLM stream. Sources fill the inbound fields;
// generators yield copies with the outbound fields set.
type Delta struct {
	// Inbound.
	ContentDelta string `json:"content_delta,omitempty"`
	ToolName     string `json:"tool_name,omitempty"`
	ToolArgs     string `json:"tool_args,omitempty"`

	// Value is the partial value on outbound deltas. An inbound delta that
	// already carries a value passes through untouched.
	Value any `json:"value,omitempty"`

	// Content is the raw text accumulated so far.
	Content string `json:"content,omitempty"`

	// Completed is set on the delta that finalizes a tool call.
	Completed *ToolCall `json:"completed,omitempty"`

	// Err is the assembly failure behind a delta with a nil Value.
	Err error `json:"-"`
}

// ToolCall is a finalized tool call.
type ToolCall struct {
	Name string `json:"name"`

	// Arguments is the best normalized argument text seen for the call. It
	// is empty if nothing parseable arrived.
	Arguments string `json:"arguments"`

	// Value is the last value emitted for the call, or nil.
	Value any `json:"value,omitempty"`
}

// ToolCallState is a snapshot of the tool-call state machine. Active is nil
// while idle.
type ToolCallState struct {
	Active *ActiveToolCall
}

// ActiveToolCall describes the call receiving arguments.
type ActiveToolCall struct {
	Name       string
	RawArgs    string
	Normalized string
}
