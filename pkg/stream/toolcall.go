package stream

import (
	"iter"

	"github.com/deepankarm/partialstream/pkg/partial"
)

// ToolCallGenerator turns tool-call deltas into partial argument values. It
// tracks one active call at a time: a delta naming a different tool finalizes
// the active call and starts the next. Each call has its own buffer and
// assembler state.
type ToolCallGenerator struct {
	cfg       config
	target    partial.Target
	active    *pipeline
	completed []ToolCall
}

// NewToolCallGenerator returns a generator assembling tool arguments into
// target. It panics if target is nil.
func NewToolCallGenerator(target partial.Target, opts ...Option) *ToolCallGenerator {
	if target == nil {
		panic("stream: NewToolCallGenerator called with nil target")
	}
	return &ToolCallGenerator{cfg: newConfig(opts), target: target}
}

// Advance handles one inbound delta. Argument text is read from ToolArgs,
// or from ContentDelta when ToolArgs is empty. Arguments arriving while idle
// start an unnamed call.
//
// The result holds, in order: the finalization of the previous call if d
// names a new tool, and the annotated delta if the arguments changed the
// value.
func (g *ToolCallGenerator) Advance(d Delta) []Delta {
	g.notify(ChunkReceived{Delta: d})
	if d.Value != nil {
		return []Delta{d}
	}

	var out []Delta
	if d.ToolName != "" && (g.active == nil || g.active.tool != d.ToolName) {
		if g.active != nil {
			out = append(out, g.finalize())
		}
		g.start(d.ToolName)
	}

	args := d.ToolArgs
	if args == "" {
		args = d.ContentDelta
	}
	if args == "" {
		return out
	}
	if g.active == nil {
		g.start("")
	}

	g.notify(ToolCallUpdated{Name: g.active.tool, Arguments: g.active.buf.Raw() + args})
	if o, ok := g.active.feed(d, args); ok {
		if o.ToolName == "" {
			o.ToolName = g.active.tool
		}
		out = append(out, o)
	}
	return out
}

// Finish finalizes the active call, if any, and returns its completion.
func (g *ToolCallGenerator) Finish() []Delta {
	var out []Delta
	if g.active != nil {
		out = append(out, g.finalize())
	}
	g.notify(StreamFinished{ToolCalls: len(g.completed)})
	return out
}

// Stream yields the output of Advance for every delta of in, then Finish.
func (g *ToolCallGenerator) Stream(in iter.Seq[Delta]) iter.Seq[Delta] {
	return stream(in, g.Advance, g.Finish)
}

// State returns a snapshot of the state machine.
func (g *ToolCallGenerator) State() ToolCallState {
	if g.active == nil {
		return ToolCallState{}
	}
	return ToolCallState{Active: &ActiveToolCall{
		Name:       g.active.tool,
		RawArgs:    g.active.buf.Raw(),
		Normalized: g.active.buf.Normalized(),
	}}
}

// Completed returns every finalized call in order.
func (g *ToolCallGenerator) Completed() []ToolCall { return g.completed }

func (g *ToolCallGenerator) start(name string) {
	g.active = newPipeline(name, g.target, g.cfg, g.notify)
	g.notify(ToolCallStarted{Name: name})
}

// finalize closes the active call and returns the delta announcing it.
func (g *ToolCallGenerator) finalize() Delta {
	p := g.active
	g.active = nil
	p.finish()

	call := ToolCall{Name: p.tool, Arguments: p.buf.Normalized(), Value: p.state.Emittable}
	g.completed = append(g.completed, call)
	g.notify(ToolCallCompleted{Call: call})

	return Delta{
		ToolName:  call.Name,
		Value:     call.Value,
		Content:   p.buf.Raw(),
		Completed: &call,
	}
}

func (g *ToolCallGenerator) notify(e Event) {
	g.cfg.sinks.Notify(e)
}
