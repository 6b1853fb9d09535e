package stream

import (
	"go.uber.org/zap"

	"github.com/deepankarm/partialstream/pkg/partial"
)

// EventType names a pipeline event.
type EventType string

const (
	EventChunkReceived     EventType = "chunk_received"
	EventFragmentParsed    EventType = "fragment_parsed"
	EventPartialGenerated  EventType = "partial_generated"
	EventPartialFailed     EventType = "partial_failed"
	EventStreamFinished    EventType = "stream_finished"
	EventToolCallStarted   EventType = "tool_call_started"
	EventToolCallUpdated   EventType = "tool_call_updated"
	EventToolCallCompleted EventType = "tool_call_completed"
	EventSequenceUpdated   EventType = "sequence_updated"
)

// Event is a side-channel notification from a generator.
type Event interface {
	Type() EventType
}

// ChunkReceived is sent for every inbound delta.
type ChunkReceived struct{ Delta Delta }

// FragmentParsed is sent when a buffer has a non-empty normalized form.
type FragmentParsed struct {
	ToolName   string
	Normalized string
}

// PartialGenerated is sent when a new value is emitted.
type PartialGenerated struct {
	ToolName string
	Value    any
	Hash     partial.Hash
}

// PartialFailed is sent when assembly fails for a delta.
type PartialFailed struct {
	ToolName string
	Stage    string
	Err      error
}

// StreamFinished is sent once by Finish.
type StreamFinished struct {
	Content   string
	Value     any
	ToolCalls int
}

type ToolCallStarted struct{ Name string }

type ToolCallUpdated struct {
	Name      string
	Arguments string
}

type ToolCallCompleted struct{ Call ToolCall }

// SequenceUpdated is sent when a sequence value gains items, and once more
// when its stream or tool call ends.
type SequenceUpdated struct {
	ToolName string
	Len      int
	Sequence partial.Sequence
}

func (ChunkReceived) Type() EventType     { return EventChunkReceived }
func (FragmentParsed) Type() EventType    { return EventFragmentParsed }
func (PartialGenerated) Type() EventType  { return EventPartialGenerated }
func (PartialFailed) Type() EventType     { return EventPartialFailed }
func (StreamFinished) Type() EventType    { return EventStreamFinished }
func (ToolCallStarted) Type() EventType   { return EventToolCallStarted }
func (ToolCallUpdated) Type() EventType   { return EventToolCallUpdated }
func (ToolCallCompleted) Type() EventType { return EventToolCallCompleted }
func (SequenceUpdated) Type() EventType   { return EventSequenceUpdated }

// Sink receives events. Notify must not block for long: it runs inline on
// the consumer's goroutine.
type Sink interface {
	Notify(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Notify(e Event) { f(e) }

// MultiSink fans an event out to every non-nil sink in order.
type MultiSink []Sink

func (m MultiSink) Notify(e Event) {
	for _, s := range m {
		if s != nil {
			s.Notify(e)
		}
	}
}

// LogSink returns a sink that logs every event at debug level. A nil logger
// yields a sink that drops events.
func LogSink(logger *zap.Logger) Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return SinkFunc(func(e Event) {
		if ce := logger.Check(zap.DebugLevel, "stream event"); ce != nil {
			ce.Write(eventFields(e)...)
		}
	})
}

func eventFields(e Event) []zap.Field {
	fields := []zap.Field{zap.String("event", string(e.Type()))}
	switch e := e.(type) {
	case ChunkReceived:
		fields = append(fields,
			zap.Int("content_bytes", len(e.Delta.ContentDelta)),
			zap.Int("args_bytes", len(e.Delta.ToolArgs)),
			zap.String("tool", e.Delta.ToolName))
	case FragmentParsed:
		fields = append(fields, zap.String("tool", e.ToolName), zap.Int("normalized_bytes", len(e.Normalized)))
	case PartialGenerated:
		fields = append(fields, zap.String("tool", e.ToolName), zap.String("hash", string(e.Hash)))
	case PartialFailed:
		fields = append(fields, zap.String("tool", e.ToolName), zap.String("stage", e.Stage), zap.Error(e.Err))
	case StreamFinished:
		fields = append(fields, zap.Int("content_bytes", len(e.Content)), zap.Int("tool_calls", e.ToolCalls))
	case ToolCallStarted:
		fields = append(fields, zap.String("tool", e.Name))
	case ToolCallUpdated:
		fields = append(fields, zap.String("tool", e.Name), zap.Int("args_bytes", len(e.Arguments)))
	case ToolCallCompleted:
		fields = append(fields, zap.String("tool", e.Call.Name), zap.String("arguments", e.Call.Arguments))
	case SequenceUpdated:
		fields = append(fields, zap.String("tool", e.ToolName), zap.Int("len", e.Len))
	}
	return fields
}
