// Package partial turns a buffer's normalized JSON into target values and
// decides, by content hash, whether a new value is worth emitting.
package partial

import (
	"fmt"
	"hash/fnv"

	"github.com/goccy/go-json"

	perrors "github.com/deepankarm/partialstream/pkg/internal/errors"
	"github.com/deepankarm/partialstream/pkg/jsonrepair"
)

// Hash is the hex FNV-1a 64 digest of a value's canonical JSON. It is used
// for change detection only.
type Hash string

// HashOf returns the Hash of data.
func HashOf(data []byte) Hash {
	h := fnv.New64a()
	h.Write(data)
	return Hash(fmt.Sprintf("%016x", h.Sum64()))
}

// Status is the outcome of one assembly.
type Status int

const (
	// StatusFailed means a pipeline stage rejected the document.
	StatusFailed Status = iota
	// StatusUnchanged means the value equals the last emitted one.
	StatusUnchanged
	// StatusEmitted means a new value is ready.
	StatusEmitted
)

func (s Status) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusEmitted:
		return "emitted"
	}
	return "failed"
}

// Result describes one assembly. Err is set only for StatusFailed and
// carries the failing stage (see StageOf).
type Result struct {
	Status Status
	Err    error
}

// Object is the assembler state carried from one delta to the next.
type Object struct {
	Hash      Hash
	Emittable any
	Result    Result
}

// StageOf returns the pipeline stage that failed, or "" on success.
func (r Result) StageOf() string {
	return string(perrors.StageOf(r.Err))
}

// Assemble runs normalized through target (validate, deserialize,
// transform) and compares the result with prev. A failure clears both the
// emittable and the hash, so the next success is always emitted. It panics
// if target is nil.
func Assemble(prev Object, normalized string, target Target) Object {
	return AssemblePending(prev, normalized, jsonrepair.Paths{}, target)
}

// AssemblePending is Assemble for a document whose values at pending are
// still arriving. Targets implementing PendingValidator are given pending;
// other targets are validated as usual.
func AssemblePending(prev Object, normalized string, pending jsonrepair.Paths, target Target) Object {
	if target == nil {
		panic("partial: Assemble called with nil target")
	}
	data := []byte(normalized)

	fail := func(stage perrors.Stage, err error) Object {
		return Object{Result: Result{Status: StatusFailed, Err: perrors.Wrap(stage, err)}}
	}

	if err := validate(target, data, pending); err != nil {
		return fail(perrors.StageValidate, err)
	}
	v, err := target.Deserialize(data)
	if err != nil {
		return fail(perrors.StageDeserialize, err)
	}
	v, err = target.Transform(v)
	if err != nil {
		return fail(perrors.StageTransform, err)
	}
	canonical, err := json.Marshal(v)
	if err != nil {
		return fail(perrors.StageEncode, err)
	}

	h := HashOf(canonical)
	if h == prev.Hash {
		return Object{Hash: prev.Hash, Emittable: prev.Emittable, Result: Result{Status: StatusUnchanged}}
	}
	return Object{Hash: h, Emittable: v, Result: Result{Status: StatusEmitted}}
}

func validate(target Target, data []byte, pending jsonrepair.Paths) error {
	if pv, ok := target.(PendingValidator); ok && pending.Len() > 0 {
		return pv.ValidatePending(data, pending)
	}
	return target.Validate(data)
}

// Assembler is a stateful wrapper around Assemble.
type Assembler struct {
	target Target
	state  Object
}

// NewAssembler returns an assembler for target. It panics if target is nil.
func NewAssembler(target Target) *Assembler {
	if target == nil {
		panic("partial: NewAssembler called with nil target")
	}
	return &Assembler{target: target}
}

// Assemble feeds the next normalized text and returns the new state.
func (a *Assembler) Assemble(normalized string) Object {
	a.state = Assemble(a.state, normalized, a.target)
	return a.state
}

// AssemblePending is Assemble with the paths still arriving.
func (a *Assembler) AssemblePending(normalized string, pending jsonrepair.Paths) Object {
	a.state = AssemblePending(a.state, normalized, pending, a.target)
	return a.state
}

// State returns the current state.
func (a *Assembler) State() Object { return a.state }

// Reset forgets the last emitted value.
func (a *Assembler) Reset() { a.state = Object{} }
