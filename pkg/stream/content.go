package stream

import (
	"iter"

	"github.com/deepankarm/partialstream/pkg/partial"
)

// ContentGenerator turns the content deltas of a stream into partial values.
type ContentGenerator struct {
	cfg  config
	pipe *pipeline
}

// NewContentGenerator returns a generator assembling content into target.
// It panics if target is nil.
//
// Example:
//
//	gen := stream.NewContentGenerator(partial.NewStructTarget[Plan]())
//	for d := range gen.Stream(source.Deltas()) {
//	    render(d.Value.(Plan))
//	}
func NewContentGenerator(target partial.Target, opts ...Option) *ContentGenerator {
	if target == nil {
		panic("stream: NewContentGenerator called with nil target")
	}
	g := &ContentGenerator{cfg: newConfig(opts)}
	g.pipe = newPipeline("", target, g.cfg, g.notify)
	return g
}

// Advance handles one inbound delta. It returns at most one delta: the input
// annotated with the new value, or with a nil Value if assembly failed.
// Nothing is returned while the value is unchanged.
func (g *ContentGenerator) Advance(d Delta) []Delta {
	g.notify(ChunkReceived{Delta: d})
	if d.Value != nil {
		return []Delta{d}
	}
	if d.ContentDelta == "" {
		return nil
	}
	if out, ok := g.pipe.feed(d, d.ContentDelta); ok {
		return []Delta{out}
	}
	return nil
}

// Finish ends the stream. Content mode has nothing left to yield; it flushes
// the sequence emitter and notifies the sink.
func (g *ContentGenerator) Finish() []Delta {
	g.pipe.finish()
	g.notify(StreamFinished{Content: g.pipe.buf.Raw(), Value: g.pipe.state.Emittable})
	return nil
}

// Stream yields the output of Advance for every delta of in, then Finish.
func (g *ContentGenerator) Stream(in iter.Seq[Delta]) iter.Seq[Delta] {
	return stream(in, g.Advance, g.Finish)
}

// Raw returns the content accumulated so far.
func (g *ContentGenerator) Raw() string { return g.pipe.buf.Raw() }

// Normalized returns the normalized content.
func (g *ContentGenerator) Normalized() string { return g.pipe.buf.Normalized() }

// Value returns the last emitted value, or nil after a failure.
func (g *ContentGenerator) Value() any { return g.pipe.state.Emittable }

func (g *ContentGenerator) notify(e Event) {
	g.cfg.sinks.Notify(e)
}
