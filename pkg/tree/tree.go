// Package tree implements a mutable forest of checkbox nodes.
//
// Every mutation runs to completion, including the synchronous delivery of
// its events, before returning. Listeners may re-enter the tree. Nothing is
// locked: a Tree and its nodes belong to a single owner at a time.
//
// Unresolved targets, self-moves and moves into a descendant are silent
// no-ops. Build with -tags treedebug to check the forest invariants after
// every move and during every walk.
package tree

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/checktree/pkg/model"
)

// ErrInvariantViolation marks a broken forest, cycle or tri-state invariant.
var ErrInvariantViolation = errors.New("tree invariant violation")

// Tree owns an ordered list of root nodes and one event bus shared with every
// node attached to it.
type Tree struct {
	roots []*Node
	bus   *Bus
}

// New creates a tree with its own bus and the given roots.
func New(roots ...*Node) *Tree {
	return NewWithBus(NewBus(), roots...)
}

// NewWithBus creates a tree that emits on bus.
func NewWithBus(bus *Bus, roots ...*Node) *Tree {
	if bus == nil {
		bus = NewBus()
	}
	t := &Tree{bus: bus}
	for _, r := range roots {
		t.AddRoot(r)
	}
	return t
}

// FromDescriptors validates a payload forest and builds a tree from it.
func FromDescriptors(roots []model.Descriptor) (*Tree, error) {
	if err := model.ValidateForest(roots); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	t := New()
	for _, d := range roots {
		t.AddRoot(NewNodeFromDescriptor(d))
	}
	return t, nil
}

// FromSnapshot rebuilds a tree from an exported snapshot.
func FromSnapshot(forest []model.Snapshot) (*Tree, error) {
	return FromDescriptors(model.Descriptors(forest))
}

// Bus returns the tree's event bus.
func (t *Tree) Bus() *Bus { return t.bus }

// Roots returns a copy of the ordered root list.
func (t *Tree) Roots() []*Node {
	out := make([]*Node, len(t.roots))
	copy(out, t.roots)
	return out
}

// Len returns the number of nodes reachable from the roots.
func (t *Tree) Len() int {
	n := 0
	t.Walk(func(*Node) bool {
		n++
		return true
	})
	return n
}

// Walk visits every node in pre-order, root by root. Returning false stops
// the walk.
func (t *Tree) Walk(visit func(*Node) bool) {
	for _, r := range t.roots {
		if !r.WalkDepthFirst(visit) {
			return
		}
	}
}

// FindNodeByID returns the first node with id in depth-first order, or nil.
func (t *Tree) FindNodeByID(id model.ID) *Node {
	var found *Node
	t.Walk(func(n *Node) bool {
		if n.id == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// AddRoot appends node to the roots, hands the tree's bus to its whole
// subtree and emits NodeAdded with a nil parent. A node attached under a
// parent is first removed from it. A node that is already a root is ignored.
func (t *Tree) AddRoot(node *Node) {
	if node == nil || indexOf(t.roots, node) >= 0 {
		return
	}
	if node.parent != nil {
		node.parent.RemoveChild(node)
	} else if node.tree != nil && node.tree != t {
		node.tree.Remove(node)
	}
	t.roots = append(t.roots, node)
	node.WalkDepthFirst(func(c *Node) bool {
		c.bus = t.bus
		c.tree = t
		return true
	})
	t.emit(NodeAdded{Node: node, Parent: nil, Position: len(t.roots) - 1})
}

// Remove detaches node from its parent or from the roots and emits
// NodeRemoved. Detached nodes are ignored.
func (t *Tree) Remove(node *Node) {
	if node == nil {
		return
	}
	if node.parent != nil {
		node.parent.RemoveChild(node)
		return
	}
	i := indexOf(t.roots, node)
	if i < 0 {
		return
	}
	t.roots = removeAt(t.roots, i)
	t.emit(NodeRemoved{Node: node, Parent: nil, Position: i})
}

// MoveTo re-parents node under newParent, or to root level when newParent is
// nil, at position clamped into the destination's bounds.
//
// Moving a node onto itself or into its own subtree is ignored. Otherwise
// exactly one NodeMoved is emitted once the structure is complete; no
// NodeRemoved or NodeAdded accompanies it. Check state is not recomputed.
func (t *Tree) MoveTo(node, newParent *Node, position int) {
	if node == nil || node == newParent {
		return
	}
	if newParent != nil && node.Contains(newParent) {
		return
	}

	oldPosition := -1
	if node.parent != nil {
		oldPosition = indexOf(node.parent.children, node)
		node.parent.children = removeAt(node.parent.children, oldPosition)
		node.parent = nil
	} else if i := indexOf(t.roots, node); i >= 0 {
		oldPosition = i
		t.roots = removeAt(t.roots, i)
	}

	if newParent == nil {
		position = clamp(position, len(t.roots))
		t.roots = insertAt(t.roots, position, node)
		node.adopt(t.bus, t)
		node.tree = t
	} else {
		position = newParent.insertAt(node, position)
	}

	if debugAssertions {
		if err := t.CheckInvariants(); err != nil {
			panic(err)
		}
	}
	t.emit(NodeMoved{Node: node, NewParent: newParent, Position: position, OldPosition: oldPosition})
}

// Snapshot returns a deep copy of the forest.
func (t *Tree) Snapshot() []model.Snapshot {
	out := make([]model.Snapshot, len(t.roots))
	for i, r := range t.roots {
		out[i] = r.Snapshot()
	}
	return out
}

// CheckInvariants verifies that the roots and parent links form a forest and
// that no node is both checked and indeterminate. The returned error wraps
// ErrInvariantViolation.
func (t *Tree) CheckInvariants() error {
	seen := make(map[*Node]bool)
	var check func(n, parent *Node) error
	check = func(n, parent *Node) error {
		if seen[n] {
			return fmt.Errorf("%w: node %s is reachable twice", ErrInvariantViolation, n.id)
		}
		seen[n] = true
		if n.parent != parent {
			return fmt.Errorf("%w: node %s has a stale parent link", ErrInvariantViolation, n.id)
		}
		if n.checked && n.indeterminate {
			return fmt.Errorf("%w: node %s is both checked and indeterminate", ErrInvariantViolation, n.id)
		}
		for _, c := range n.children {
			if err := check(c, n); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range t.roots {
		if err := check(r, nil); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) emit(e Event) {
	t.bus.Emit(e.Kind(), e)
}

// Subscribe registers fn for every event kind.
func (t *Tree) Subscribe(fn func(Event)) Subscription {
	var s Subscription
	for _, k := range AllKinds {
		s.regs = append(s.regs, registration{kind: k, handle: t.bus.On(k, fn)})
	}
	return s
}

// Unsubscribe removes every registration in s.
func (t *Tree) Unsubscribe(s Subscription) {
	for _, r := range s.regs {
		t.bus.Off(r.kind, r.handle)
	}
}

func (t *Tree) on(k EventKind, fn func(Event)) Subscription {
	return Subscription{regs: []registration{{kind: k, handle: t.bus.On(k, fn)}}}
}

func (t *Tree) OnNodeAdded(fn func(NodeAdded)) Subscription {
	return t.on(KindNodeAdded, func(e Event) { fn(e.(NodeAdded)) })
}

func (t *Tree) OnNodeRemoved(fn func(NodeRemoved)) Subscription {
	return t.on(KindNodeRemoved, func(e Event) { fn(e.(NodeRemoved)) })
}

func (t *Tree) OnNodeMoved(fn func(NodeMoved)) Subscription {
	return t.on(KindNodeMoved, func(e Event) { fn(e.(NodeMoved)) })
}

func (t *Tree) OnNodeChecked(fn func(NodeChecked)) Subscription {
	return t.on(KindNodeChecked, func(e Event) { fn(e.(NodeChecked)) })
}

func (t *Tree) OnNodeIndeterminate(fn func(NodeIndeterminate)) Subscription {
	return t.on(KindNodeIndeterminate, func(e Event) { fn(e.(NodeIndeterminate)) })
}

func (t *Tree) OnNodeExpanded(fn func(NodeExpanded)) Subscription {
	return t.on(KindNodeExpanded, func(e Event) { fn(e.(NodeExpanded)) })
}
