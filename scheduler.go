package multiout

import "sync/atomic"

// scheduler coalesces render requests into a single task on the loop.
//
// Any number of requests before the task runs produce one run. Requests
// made while the task itself runs schedule the next one.
type scheduler struct {
	loop    *Loop
	run     func()
	pending atomic.Bool
}

func (s *scheduler) request() bool {
	if !s.pending.CompareAndSwap(false, true) {
		return false
	}
	s.loop.Post(s.fire)
	return true
}

func (s *scheduler) fire() {
	if !s.pending.CompareAndSwap(true, false) {
		// a direct RunFrame already served the request
		return
	}
	s.run()
}

// clear marks the pending request as served.
func (s *scheduler) clear() {
	s.pending.Store(false)
}
