package stream_test

import (
	"iter"
	"slices"
	"testing"

	"github.com/creachadair/mds/mtest"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepankarm/partialstream/pkg/buffer"
	"github.com/deepankarm/partialstream/pkg/partial"
	"github.com/deepankarm/partialstream/pkg/stream"
)

type Step struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

type Plan struct {
	Title string `json:"title" validate:"max=10"`
	Steps []Step `json:"steps"`
}

// recorder is a Sink keeping every event.
type recorder struct{ events []stream.Event }

func (r *recorder) Notify(e stream.Event) { r.events = append(r.events, e) }

func (r *recorder) types() []stream.EventType {
	var out []stream.EventType
	for _, e := range r.events {
		out = append(out, e.Type())
	}
	return out
}

func content(parts ...string) []stream.Delta {
	out := make([]stream.Delta, len(parts))
	for i, p := range parts {
		out[i] = stream.Delta{ContentDelta: p}
	}
	return out
}

func run(g interface {
	Stream(in iter.Seq[stream.Delta]) iter.Seq[stream.Delta]
}, in []stream.Delta) []stream.Delta {
	return slices.Collect(g.Stream(slices.Values(in)))
}

func TestContentGenerator(t *testing.T) {
	gen := stream.NewContentGenerator(partial.NewStructTarget[Plan]())
	deltas := content(`Sure: `, `{"title": "Sh`, `ip", "steps": [`, `{"text": "a"}`, ` `, `]}`)

	// The prose, the blank and the closing brackets change nothing.
	out := run(gen, deltas)
	require.Len(t, out, 3)

	want := []Plan{
		{Title: "Sh"},
		{Title: "Ship", Steps: []Step{}},
		{Title: "Ship", Steps: []Step{{Text: "a"}}},
	}
	for i, w := range want {
		assert.Equal(t, w, out[i].Value, "emission %d", i)
	}

	last := out[len(out)-1]
	assert.Equal(t, `Sure: {"title": "Ship", "steps": [{"text": "a"}`, last.Content)
	assert.Equal(t, `Sure: {"title": "Ship", "steps": [{"text": "a"} ]}`, gen.Raw())
	assert.Equal(t, Plan{Title: "Ship", Steps: []Step{{Text: "a"}}}, gen.Value())
}

type Paint struct {
	Name  string `json:"name" validate:"min=5"`
	Color string `json:"color" validate:"oneof=red blue"`
}

func TestContentGeneratorWaitsForValues(t *testing.T) {
	gen := stream.NewContentGenerator(partial.NewStructTarget[Paint]())
	out := run(gen, content(`{"name": "Ro`, `ger", "color": "re`, `d"}`))
	require.Len(t, out, 3)
	for i, d := range out {
		assert.NoError(t, d.Err, "emission %d", i)
	}
	assert.Equal(t, Paint{Name: "Ro"}, out[0].Value)
	assert.Equal(t, Paint{Name: "Roger", Color: "re"}, out[1].Value)
	assert.Equal(t, Paint{Name: "Roger", Color: "red"}, out[2].Value)

	// Once the value is closed it is checked.
	gen = stream.NewContentGenerator(partial.NewStructTarget[Paint]())
	out = run(gen, content(`{"name": "Roger", "color": "gre`, `en"}`))
	require.Len(t, out, 2)
	assert.NoError(t, out[0].Err)
	assert.Error(t, out[1].Err)
	assert.Nil(t, out[1].Value)
}

func TestContentGeneratorSkips(t *testing.T) {
	gen := stream.NewContentGenerator(partial.NewMapTarget())

	assert.Empty(t, gen.Advance(stream.Delta{}), "empty content")
	assert.Empty(t, gen.Advance(stream.Delta{ContentDelta: "thinking..."}), "no bracket yet")

	pre := stream.Delta{ContentDelta: "ignored", Value: 42}
	assert.Equal(t, []stream.Delta{pre}, gen.Advance(pre), "pre-resolved values pass through")

	out := gen.Advance(stream.Delta{ContentDelta: `{"a": 1`})
	require.Len(t, out, 1)
	assert.Equal(t, map[string]any{"a": json.Number("1")}, out[0].Value)
	assert.Empty(t, gen.Advance(stream.Delta{ContentDelta: `}`}), "unchanged value")
}

func TestContentGeneratorFailureYieldsNil(t *testing.T) {
	gen := stream.NewContentGenerator(partial.NewStructTarget[Plan]())

	out := gen.Advance(stream.Delta{ContentDelta: `{"title": "far too long for a title"`})
	require.Len(t, out, 1)
	assert.Nil(t, out[0].Value)
	assert.Error(t, out[0].Err)

	// A failure does not stop the stream; the next delta fails again.
	out = gen.Advance(stream.Delta{ContentDelta: `}`})
	require.Len(t, out, 1)
	assert.Nil(t, out[0].Value)
}

func TestContentGeneratorEvents(t *testing.T) {
	rec := &recorder{}
	gen := stream.NewContentGenerator(partial.NewStructTarget[Plan](), stream.WithSink(rec))

	run(gen, content(`x`, `{"title": "ok"}`, `{"title": 7`))
	assert.Equal(t, []stream.EventType{
		stream.EventChunkReceived,
		stream.EventChunkReceived, stream.EventFragmentParsed, stream.EventPartialGenerated,
		stream.EventChunkReceived, stream.EventFragmentParsed, stream.EventPartialFailed,
		stream.EventStreamFinished,
	}, rec.types())

	failed := rec.events[6].(stream.PartialFailed)
	assert.Equal(t, "validate", failed.Stage)
}

func TestContentGeneratorEarlyBreakSkipsFinish(t *testing.T) {
	rec := &recorder{}
	gen := stream.NewContentGenerator(partial.NewMapTarget(), stream.WithSink(rec))

	for range gen.Stream(slices.Values(content(`{"a": 1`, `, "b": 2`, `}`))) {
		break
	}
	assert.NotContains(t, rec.types(), stream.EventStreamFinished)
}

func TestContentGeneratorSequence(t *testing.T) {
	var lens []int
	sink := stream.SinkFunc(func(e stream.Event) {
		if su, ok := e.(stream.SequenceUpdated); ok {
			lens = append(lens, su.Len)
		}
	})
	gen := stream.NewContentGenerator(partial.NewStructTarget[partial.List[Step]](), stream.WithSink(sink))

	run(gen, content(`{"list": [`, `{"text": "a"}`, `, {"text": "b`, `"}]}`))
	assert.Equal(t, []int{1, 2, 2}, lens)
}

func TestContentGeneratorExtractMode(t *testing.T) {
	target := partial.NewStructTarget[string]()
	gen := stream.NewContentGenerator(target, stream.WithMode(buffer.ModeExtract))

	out := run(gen, content("```json\n", `"hello"`, "\n```"))
	require.NotEmpty(t, out)
	assert.Equal(t, "hello", out[len(out)-1].Value)
}

func TestNilTargetPanics(t *testing.T) {
	mtest.MustPanic(t, func() { stream.NewContentGenerator(nil) })
	mtest.MustPanic(t, func() { stream.NewToolCallGenerator(nil) })
}
