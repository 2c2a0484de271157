package tree

import (
	"fmt"

	"github.com/vanderheijden86/checktree/pkg/model"
)

// Node is one element of a checkbox tree. A node owns its children
// exclusively; parent is a non-owning back-reference used for upward
// recomputation and ancestry checks.
type Node struct {
	id            model.ID
	label         string
	checked       bool
	indeterminate bool
	expanded      bool
	children      []*Node

	parent *Node
	bus    *Bus
	tree   *Tree
}

// NewNode creates a detached, unchecked, expanded node with no children.
func NewNode(id model.ID, label string) *Node {
	return &Node{id: id, label: label, expanded: true}
}

// NewNodeFromDescriptor builds a detached subtree from a payload. Absent
// fields take their defaults. No events are emitted.
func NewNodeFromDescriptor(d model.Descriptor) *Node {
	n := &Node{
		id:            d.ID,
		label:         d.Label,
		checked:       d.Checked,
		indeterminate: d.Indeterminate && !d.Checked,
		expanded:      d.IsExpanded(),
	}
	if len(d.Children) > 0 {
		n.children = make([]*Node, 0, len(d.Children))
		for _, cd := range d.Children {
			child := NewNodeFromDescriptor(cd)
			child.parent = n
			n.children = append(n.children, child)
		}
	}
	return n
}

func (n *Node) ID() model.ID          { return n.id }
func (n *Node) Label() string         { return n.label }
func (n *Node) Checked() bool         { return n.checked }
func (n *Node) IsIndeterminate() bool { return n.indeterminate }
func (n *Node) Expanded() bool        { return n.expanded }

// Parent returns the parent node, or nil for a root or a detached node.
func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the ordered child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// ChildCount returns len(Children()) without copying.
func (n *Node) ChildCount() int { return len(n.children) }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// Depth returns 0 for a root and one more than the parent otherwise.
func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Index returns the node's position among its siblings, or among the tree
// roots for a root. A detached node reports -1.
func (n *Node) Index() int {
	if n.parent != nil {
		return indexOf(n.parent.children, n)
	}
	if n.tree != nil {
		return indexOf(n.tree.roots, n)
	}
	return -1
}

// Contains reports whether other is n or one of its descendants, comparing
// ids.
func (n *Node) Contains(other *Node) bool {
	if other == nil {
		return false
	}
	found := false
	n.WalkDepthFirst(func(c *Node) bool {
		if c.id == other.id {
			found = true
			return false
		}
		return true
	})
	return found
}

// isAncestorOf reports whether n is other or one of its ancestors, by
// identity.
func (n *Node) isAncestorOf(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%q)", n.id, n.label)
}

func (n *Node) emit(e Event) {
	if n.bus != nil {
		n.bus.Emit(e.Kind(), e)
	}
}

// adopt hands bus and tree to every node in the subtree that has none.
func (n *Node) adopt(bus *Bus, t *Tree) {
	n.WalkDepthFirst(func(c *Node) bool {
		if c.bus == nil {
			c.bus = bus
		}
		if c.tree == nil {
			c.tree = t
		}
		return true
	})
}

// AddChild appends child to the end of n's children and emits NodeAdded.
//
// A child attached elsewhere is first removed from there, which emits
// NodeRemoved. Adding n to itself or to one of its descendants is ignored.
func (n *Node) AddChild(child *Node) {
	if child == nil || child.isAncestorOf(n) {
		return
	}
	if child.parent != nil {
		child.parent.RemoveChild(child)
	} else if child.tree != nil {
		child.tree.Remove(child)
	}
	n.children = append(n.children, child)
	child.parent = n
	child.adopt(n.bus, n.tree)
	n.emit(NodeAdded{Node: child, Parent: n, Position: len(n.children) - 1})
}

// InsertChildAt inserts child at position, clamped into [0, len(children)],
// and returns the effective position. It emits nothing; callers that need
// notification emit it themselves. A child attached elsewhere is detached
// silently. Inserting n into itself or a descendant is ignored and returns -1.
func (n *Node) InsertChildAt(child *Node, position int) int {
	if child == nil || child.isAncestorOf(n) {
		return -1
	}
	if child.parent != nil {
		child.parent.children = removeAt(child.parent.children, indexOf(child.parent.children, child))
		child.parent = nil
	} else if child.tree != nil {
		if i := indexOf(child.tree.roots, child); i >= 0 {
			child.tree.roots = removeAt(child.tree.roots, i)
		}
	}
	return n.insertAt(child, position)
}

func (n *Node) insertAt(child *Node, position int) int {
	position = clamp(position, len(n.children))
	n.children = insertAt(n.children, position, child)
	child.parent = n
	child.adopt(n.bus, n.tree)
	return position
}

// RemoveChild detaches child and emits NodeRemoved with its former index.
// Nodes that are not children of n are ignored.
func (n *Node) RemoveChild(child *Node) {
	i := indexOf(n.children, child)
	if i < 0 {
		return
	}
	n.children = removeAt(n.children, i)
	child.parent = nil
	n.emit(NodeRemoved{Node: child, Parent: n, Position: i})
}

// SetChecked assigns checked to n and every descendant, clearing
// indeterminate throughout, and emits NodeChecked for each node in
// depth-first order. The parent chain is then recomputed from children.
func (n *Node) SetChecked(checked bool) {
	n.WalkDepthFirst(func(c *Node) bool {
		c.checked = checked
		c.indeterminate = false
		c.emit(NodeChecked{Node: c, Checked: checked})
		return true
	})
	if n.parent != nil {
		n.parent.UpdateCheckStateFromChildren()
	}
}

// UpdateCheckStateFromChildren recomputes n from its immediate children and
// then does the same for every ancestor up to the root, whether or not
// anything changed. Each node with children emits exactly one of
// NodeChecked or NodeIndeterminate. A leaf keeps its state and emits
// nothing, but its ancestors are still recomputed.
func (n *Node) UpdateCheckStateFromChildren() {
	for cur := n; cur != nil; cur = cur.parent {
		cur.recompute()
	}
}

func (n *Node) recompute() {
	if len(n.children) == 0 {
		return
	}
	allChecked, allUnchecked := true, true
	for _, c := range n.children {
		if !c.checked || c.indeterminate {
			allChecked = false
		}
		if c.checked || c.indeterminate {
			allUnchecked = false
		}
	}
	switch {
	case allChecked:
		n.checked, n.indeterminate = true, false
		n.emit(NodeChecked{Node: n, Checked: true})
	case allUnchecked:
		n.checked, n.indeterminate = false, false
		n.emit(NodeChecked{Node: n, Checked: false})
	default:
		n.checked, n.indeterminate = false, true
		n.emit(NodeIndeterminate{Node: n, Indeterminate: true})
	}
}

// SetExpanded assigns the expanded flag and emits NodeExpanded.
func (n *Node) SetExpanded(expanded bool) {
	n.expanded = expanded
	n.emit(NodeExpanded{Node: n, Expanded: expanded})
}

// ToggleExpanded flips the expanded flag and emits NodeExpanded.
func (n *Node) ToggleExpanded() {
	n.SetExpanded(!n.expanded)
}

// WalkDepthFirst visits n and its descendants in pre-order, children left to
// right. Returning false from visit stops the walk.
func (n *Node) WalkDepthFirst(visit func(*Node) bool) bool {
	var seen map[*Node]bool
	if debugAssertions {
		seen = make(map[*Node]bool)
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if debugAssertions {
			if seen[cur] {
				panic(fmt.Errorf("%w: node %s reached twice", ErrInvariantViolation, cur.id))
			}
			seen[cur] = true
		}
		if !visit(cur) {
			return false
		}
		for i := len(cur.children) - 1; i >= 0; i-- {
			stack = append(stack, cur.children[i])
		}
	}
	return true
}

// WalkBreadthFirst visits n and its descendants level by level. Returning
// false from visit stops the walk.
func (n *Node) WalkBreadthFirst(visit func(*Node) bool) bool {
	var seen map[*Node]bool
	if debugAssertions {
		seen = make(map[*Node]bool)
	}
	queue := []*Node{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if debugAssertions {
			if seen[cur] {
				panic(fmt.Errorf("%w: node %s reached twice", ErrInvariantViolation, cur.id))
			}
			seen[cur] = true
		}
		if !visit(cur) {
			return false
		}
		queue = append(queue, cur.children...)
	}
	return true
}

// WalkPostOrder visits every descendant before n itself.
func (n *Node) WalkPostOrder(visit func(*Node) bool) bool {
	for _, c := range n.children {
		if !c.WalkPostOrder(visit) {
			return false
		}
	}
	return visit(n)
}

// Snapshot returns a deep copy of the subtree with no live references.
func (n *Node) Snapshot() model.Snapshot {
	s := model.Snapshot{
		ID:            n.id,
		Label:         n.label,
		Checked:       n.checked,
		Indeterminate: n.indeterminate,
		Children:      make([]model.Snapshot, len(n.children)),
	}
	for i, c := range n.children {
		s.Children[i] = c.Snapshot()
	}
	return s
}

func indexOf(nodes []*Node, target *Node) int {
	for i, n := range nodes {
		if n == target {
			return i
		}
	}
	return -1
}

func removeAt(nodes []*Node, i int) []*Node {
	out := make([]*Node, 0, len(nodes)-1)
	out = append(out, nodes[:i]...)
	return append(out, nodes[i+1:]...)
}

func insertAt(nodes []*Node, i int, n *Node) []*Node {
	out := make([]*Node, 0, len(nodes)+1)
	out = append(out, nodes[:i]...)
	out = append(out, n)
	return append(out, nodes[i:]...)
}

func clamp(position, length int) int {
	if position < 0 {
		return 0
	}
	if position > length {
		return length
	}
	return position
}
