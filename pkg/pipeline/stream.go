package pipeline

import "iter"

// Stream is a finite, restartable sequence over one vertex attribute.
// Unlike a clamping cursor it never repeats the last element: reading past
// the end reports ok == false.
type Stream[T any] struct {
	items []T
	pos   int
}

// NewStream creates a stream over items. The slice is not copied.
func NewStream[T any](items []T) *Stream[T] {
	return &Stream[T]{items: items}
}

// Next returns the next element, or ok == false once the stream is
// exhausted.
func (s *Stream[T]) Next() (v T, ok bool) {
	if s.pos >= len(s.items) {
		return v, false
	}
	v = s.items[s.pos]
	s.pos++
	return v, true
}

// Take returns the next n elements as a subslice, or ok == false when fewer
// than n remain. Nothing is consumed on failure.
func (s *Stream[T]) Take(n int) ([]T, bool) {
	if n < 0 || s.Remaining() < n {
		return nil, false
	}
	out := s.items[s.pos : s.pos+n]
	s.pos += n
	return out, true
}

// Reset rewinds the stream to its first element.
func (s *Stream[T]) Reset() {
	s.pos = 0
}

// Len returns the total number of elements.
func (s *Stream[T]) Len() int {
	return len(s.items)
}

// Remaining returns the number of elements not yet read.
func (s *Stream[T]) Remaining() int {
	return len(s.items) - s.pos
}

// All iterates every element from the start without moving the cursor.
func (s *Stream[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range s.items {
			if !yield(v) {
				return
			}
		}
	}
}
