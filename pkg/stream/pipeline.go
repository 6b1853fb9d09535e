package stream

import (
	"iter"

	"github.com/deepankarm/partialstream/pkg/buffer"
	"github.com/deepankarm/partialstream/pkg/jsonrepair"
	"github.com/deepankarm/partialstream/pkg/partial"
)

// pipeline is the buffer and assembler state of one output: the content of
// a stream, or the arguments of one tool call.
type pipeline struct {
	tool   string
	target partial.Target
	notify func(Event)

	buf   buffer.Buffer
	state partial.Object
	seq   *partial.SequenceEmitter
}

func newPipeline(tool string, target partial.Target, cfg config, notify func(Event)) *pipeline {
	p := &pipeline{tool: tool, target: target, notify: notify, buf: cfg.buffer}
	p.seq = partial.NewSequenceEmitter(func(s partial.Sequence) {
		notify(SequenceUpdated{ToolName: tool, Len: s.Len(), Sequence: s})
	})
	return p
}

// feed appends text and returns d annotated with the outcome. It reports
// false when there is nothing to yield: the buffer is still empty or the
// value did not change.
func (p *pipeline) feed(d Delta, text string) (Delta, bool) {
	p.buf = p.buf.Assemble(text)
	if p.buf.IsEmpty() {
		return d, false
	}
	p.notify(FragmentParsed{ToolName: p.tool, Normalized: p.buf.Normalized()})

	p.state = partial.AssemblePending(p.state, p.buf.Normalized(), jsonrepair.Pending(p.buf.Raw()), p.target)
	res := p.state.Result
	switch res.Status {
	case partial.StatusUnchanged:
		return d, false
	case partial.StatusFailed:
		p.notify(PartialFailed{ToolName: p.tool, Stage: res.StageOf(), Err: res.Err})
		d.Value, d.Err = nil, res.Err
	case partial.StatusEmitted:
		p.notify(PartialGenerated{ToolName: p.tool, Value: p.state.Emittable, Hash: p.state.Hash})
		d.Value, d.Err = p.state.Emittable, nil
		if s, ok := p.state.Emittable.(partial.Sequence); ok {
			p.seq.Update(s)
		}
	}
	d.Content = p.buf.Raw()
	return d, true
}

func (p *pipeline) finish() {
	p.seq.Finalize()
}

// stream runs advance over in and finish at the end.
func stream(in iter.Seq[Delta], advance func(Delta) []Delta, finish func() []Delta) iter.Seq[Delta] {
	return func(yield func(Delta) bool) {
		for d := range in {
			for _, out := range advance(d) {
				if !yield(out) {
					return
				}
			}
		}
		for _, out := range finish() {
			if !yield(out) {
				return
			}
		}
	}
}
