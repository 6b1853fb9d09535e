package partial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepankarm/partialstream/pkg/partial"
)

func TestSequenceEmitter(t *testing.T) {
	var got []int
	e := partial.NewSequenceEmitter(func(s partial.Sequence) { got = append(got, s.Len()) })

	list := func(items ...string) partial.List[string] { return partial.List[string]{Items: items} }

	assert.True(t, e.Update(list("a")))
	assert.False(t, e.Update(list("ab")), "same length must not notify")
	assert.True(t, e.Update(list("ab", "c")))
	assert.False(t, e.Update(list("ab")), "shrinking must not notify")
	assert.False(t, e.Update(nil))

	e.Finalize()
	assert.Equal(t, []int{1, 2, 1}, got, "finalize resends the last candidate")
	assert.Equal(t, 2, e.Count())
}

func TestSequenceEmitterFinalizeWithoutUpdates(t *testing.T) {
	calls := 0
	e := partial.NewSequenceEmitter(func(partial.Sequence) { calls++ })
	e.Finalize()
	assert.Zero(t, calls)

	// A nil callback is allowed.
	partial.NewSequenceEmitter(nil).Update(partial.List[int]{Items: []int{1}})
}

func TestListTarget(t *testing.T) {
	target := partial.NewStructTarget[partial.List[Step]]()
	obj := partial.Assemble(partial.Object{}, `{"list":[{"text":"a"},{"text":"b","done":true}]}`, target)
	require.Equal(t, partial.StatusEmitted, obj.Result.Status)

	seq, ok := obj.Emittable.(partial.Sequence)
	require.True(t, ok)
	assert.Equal(t, 2, seq.Len())
}
