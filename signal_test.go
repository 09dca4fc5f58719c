package multiout

import (
	"slices"
	"testing"
)

func TestSignal(t *testing.T) {
	var s Signal[int]
	var got []string

	s.Connect(func(v int) { got = append(got, "a") })
	disconnect := s.Connect(func(v int) { got = append(got, "b") })
	s.Connect(func(v int) { got = append(got, "c") })

	s.Emit(1)
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("handlers ran as %v, want connection order", got)
	}

	disconnect()
	disconnect()
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
	got = nil
	s.Emit(2)
	if !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("after disconnect: %v", got)
	}
}

func TestSignalConnectDuringEmit(t *testing.T) {
	var s Signal[struct{}]
	calls := 0
	s.Connect(func(struct{}) {
		calls++
		s.Connect(func(struct{}) { calls++ })
	})

	s.Emit(struct{}{})
	if calls != 1 {
		t.Errorf("calls = %d, want 1; handlers connected during Emit wait for the next one", calls)
	}
}
