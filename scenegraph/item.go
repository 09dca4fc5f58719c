package scenegraph

import (
	"slices"

	"github.com/gogpu/gg"
)

// Node is implemented by every item type of the scene graph.
type Node interface {
	base() *Item
}

// Polisher is implemented by items that defer layout work until the next
// polish pass.
type Polisher interface {
	Node
	UpdatePolish()
}

// Item is a node of the scene graph.
//
// Every item has a local transform relative to its parent, a size in its
// own coordinate space and a visibility flag. A plain Item draws nothing
// and is used to group children.
type Item struct {
	self     Node
	scene    *Scene
	parent   *Item
	children []Node

	matrix  gg.Matrix
	width   float64
	height  float64
	visible bool
}

// NewItem creates an empty visible group item.
func NewItem() *Item {
	it := &Item{}
	it.init(it)
	return it
}

func (it *Item) init(self Node) {
	it.self = self
	it.matrix = gg.Identity()
	it.visible = true
}

func (it *Item) base() *Item { return it }

// Scene returns the scene the item belongs to, or nil.
func (it *Item) Scene() *Scene { return it.scene }

// Parent returns the parent item, or nil for the root and detached items.
func (it *Item) Parent() *Item { return it.parent }

// Children returns the child items in paint order.
func (it *Item) Children() []Node { return it.children }

// AddChild appends n on top of the existing children, reparenting it if
// needed.
func (it *Item) AddChild(n Node) {
	c := n.base()
	if c == it || c.isAncestorOf(it) {
		panic("scenegraph: cycle in item tree")
	}
	if c.parent != nil {
		c.parent.RemoveChild(n)
	}
	c.parent = it
	it.children = append(it.children, n)
	c.setScene(it.scene)
	it.changed()
}

// RemoveChild detaches n from the item. It is a no-op when n is not a
// child.
func (it *Item) RemoveChild(n Node) {
	i := slices.Index(it.children, n)
	if i < 0 {
		return
	}
	it.children = slices.Delete(it.children, i, i+1)
	c := n.base()
	c.parent = nil
	scene := it.scene
	c.setScene(nil)
	if scene != nil {
		scene.changed()
	}
}

func (it *Item) isAncestorOf(other *Item) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == it {
			return true
		}
	}
	return false
}

func (it *Item) setScene(s *Scene) {
	if it.scene == s {
		return
	}
	if it.scene != nil {
		it.scene.unqueuePolish(it.self)
	}
	it.scene = s
	if p, ok := it.self.(Polisher); ok && s != nil {
		s.queuePolish(p)
	}
	for _, c := range it.children {
		c.base().setScene(s)
	}
}

// Transform returns the local transform.
func (it *Item) Transform() gg.Matrix { return it.matrix }

// SetTransform sets the transform from item to parent coordinates.
func (it *Item) SetTransform(m gg.Matrix) {
	if it.matrix == m {
		return
	}
	it.matrix = m
	it.changed()
}

// SetPosition sets the local transform to a translation.
func (it *Item) SetPosition(x, y float64) {
	it.SetTransform(gg.Translate(x, y))
}

// Size returns the item size in its own coordinates.
func (it *Item) Size() (float64, float64) { return it.width, it.height }

// SetSize resizes the item.
func (it *Item) SetSize(w, h float64) {
	if it.width == w && it.height == h {
		return
	}
	it.width, it.height = w, h
	it.changed()
}

// Visible reports the item's own visibility flag.
func (it *Item) Visible() bool { return it.visible }

// SetVisible shows or hides the item and its children.
func (it *Item) SetVisible(visible bool) {
	if it.visible == visible {
		return
	}
	it.visible = visible
	it.changed()
}

// EffectivelyVisible reports whether the item and all its ancestors are
// visible.
func (it *Item) EffectivelyVisible() bool {
	for p := it; p != nil; p = p.parent {
		if !p.visible {
			return false
		}
	}
	return true
}

// ItemToWindow returns the transform from item coordinates to scene
// (window) coordinates.
func (it *Item) ItemToWindow() gg.Matrix {
	m := it.matrix
	for p := it.parent; p != nil; p = p.parent {
		m = p.matrix.Multiply(m)
	}
	return m
}

// Polish schedules the item for the next polish pass. Only items
// implementing Polisher are queued.
func (it *Item) Polish() {
	if p, ok := it.self.(Polisher); ok && it.scene != nil {
		it.scene.queuePolish(p)
		it.scene.changed()
	}
}

func (it *Item) changed() {
	if it.scene != nil {
		it.scene.changed()
	}
}
