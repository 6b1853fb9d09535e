package partial

// Sequence is a value made of a growing ordered list of items.
type Sequence interface {
	Len() int
}

// List is a target shape for streams that produce a list of items, encoded
// as {"list": [...]}.
type List[T any] struct {
	Items []T `json:"list"`
}

func (l List[T]) Len() int { return len(l.Items) }

// SequenceEmitter reports a sequence only when it gains items, independent of
// changes inside items it has already reported.
type SequenceEmitter struct {
	notify func(Sequence)
	count  int
	last   Sequence
}

// NewSequenceEmitter returns an emitter calling notify on growth. A nil
// notify is allowed.
func NewSequenceEmitter(notify func(Sequence)) *SequenceEmitter {
	return &SequenceEmitter{notify: notify}
}

// Update records candidate and notifies if it has more items than any
// earlier candidate. It reports whether it notified.
func (e *SequenceEmitter) Update(candidate Sequence) bool {
	if candidate == nil {
		return false
	}
	e.last = candidate
	n := candidate.Len()
	if n <= e.count {
		return false
	}
	e.count = n
	e.send(candidate)
	return true
}

// Finalize sends the last candidate once more, so the final state of the
// last item is always delivered. It does nothing if Update never received a
// candidate.
func (e *SequenceEmitter) Finalize() {
	if e.last != nil {
		e.send(e.last)
	}
}

// Count returns the largest length seen.
func (e *SequenceEmitter) Count() int { return e.count }

func (e *SequenceEmitter) send(s Sequence) {
	if e.notify != nil {
		e.notify(s)
	}
}
