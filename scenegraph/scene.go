package scenegraph

import (
	"slices"
	"sync"

	"github.com/gogpu/gg"
)

// maxPolishPasses bounds polish passes that keep re-queueing items.
const maxPolishPasses = 8

// Scene is a retained tree of items shared by every output.
//
// A Scene is owned by the compositor loop goroutine. Change listeners run
// synchronously inside the mutating call and must not mutate the scene
// themselves; they are expected to schedule work instead.
type Scene struct {
	root    *Item
	version uint64

	polish []Polisher

	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
}

// NewScene creates a scene with an empty root item.
func NewScene() *Scene {
	s := &Scene{}
	s.root = NewItem()
	s.root.scene = s
	return s
}

// Root returns the root item.
func (s *Scene) Root() *Item { return s.root }

// Add appends n to the root item.
func (s *Scene) Add(n Node) { s.root.AddChild(n) }

// Version is incremented on every change, including changes made while
// polishing.
func (s *Scene) Version() uint64 { return s.version }

// OnChange registers fn to run after every scene change and returns a
// function that unregisters it.
func (s *Scene) OnChange(fn func()) (cancel func()) {
	s.mu.Lock()
	if s.listeners == nil {
		s.listeners = make(map[int]func())
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Scene) changed() {
	s.version++

	s.mu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (s *Scene) queuePolish(p Polisher) {
	if !slices.Contains(s.polish, p) {
		s.polish = append(s.polish, p)
	}
}

func (s *Scene) unqueuePolish(n Node) {
	s.polish = slices.DeleteFunc(s.polish, func(p Polisher) bool { return Node(p) == n })
}

// PendingPolish returns the number of items waiting to be polished.
func (s *Scene) PendingPolish() int { return len(s.polish) }

// PolishItems runs UpdatePolish on every queued item and returns how many
// were polished. Items queued while polishing are handled in the same call
// up to a fixed number of passes.
func (s *Scene) PolishItems() int {
	n := 0
	for pass := 0; pass < maxPolishPasses && len(s.polish) > 0; pass++ {
		queue := s.polish
		s.polish = nil
		for _, p := range queue {
			p.UpdatePolish()
			n++
		}
	}
	if len(s.polish) > 0 {
		slogger().Warn("scenegraph: polish did not settle", "pending", len(s.polish))
	}
	if n > 0 {
		s.version++
	}
	return n
}

// Walk calls fn for every effectively visible item in paint order with its
// item-to-window transform. Children of an invisible item are skipped.
func (s *Scene) Walk(fn func(n Node, itemToWindow gg.Matrix)) {
	walk(s.root, s.root.matrix, fn)
}

func walk(it *Item, m gg.Matrix, fn func(Node, gg.Matrix)) {
	if !it.visible {
		return
	}
	fn(it.self, m)
	for _, c := range it.children {
		cb := c.base()
		walk(cb, m.Multiply(cb.matrix), fn)
	}
}
