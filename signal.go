package multiout

import (
	"image"
	"slices"
	"sync"

	"github.com/gogpu/multiout/backend"
)

// FrameInfo describes a frame that reached the commit step of an output.
type FrameInfo struct {
	Output   backend.Output
	Sequence uint64
	Damage   []image.Rectangle

	// Err is the commit error, nil when the frame was presented. A failed
	// frame is retried on the next cycle.
	Err error
}

// Signal is a list of handlers called with every emitted value.
// The zero value is ready to use.
type Signal[T any] struct {
	mu       sync.Mutex
	handlers map[int]func(T)
	next     int
}

// Connect registers fn and returns a function that disconnects it.
func (s *Signal[T]) Connect(fn func(T)) (disconnect func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handlers == nil {
		s.handlers = make(map[int]func(T))
	}
	id := s.next
	s.next++
	s.handlers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	}
}

// Emit calls the handlers in connection order.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.handlers))
	for id := range s.handlers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(T), len(ids))
	for i, id := range ids {
		fns[i] = s.handlers[id]
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of connected handlers.
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}
