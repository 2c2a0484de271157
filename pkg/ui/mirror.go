package ui

import (
	"github.com/vanderheijden86/checktree/pkg/model"
	"github.com/vanderheijden86/checktree/pkg/tree"
)

// Mirror is the view's own copy of the forest, keyed by node id.
//
// After Reset has read the tree once, the mirror changes only through Apply,
// so it stays correct exactly as long as the event stream is complete.
// Events naming ids the mirror does not know are ignored: they come from
// nodes that were detached from the tree.
//
// A mirror must be subscribed before any listener that mutates the tree, so
// that it sees nested events in the order the mutations happened.
type Mirror struct {
	roots []*mirrorNode
	byID  map[model.ID]*mirrorNode
}

type mirrorNode struct {
	id            model.ID
	label         string
	checked       bool
	indeterminate bool
	expanded      bool
	children      []*mirrorNode
	parent        *mirrorNode
}

// Row is one visible line of the flattened tree.
type Row struct {
	ID            model.ID
	Label         string
	Depth         int
	Checked       bool
	Indeterminate bool
	Expanded      bool
	HasChildren   bool

	// Last reports whether the row is the last among its siblings; Guides
	// holds the same for each ancestor, outermost first, and decides where
	// vertical connector lines continue.
	Last   bool
	Guides []bool
}

// NewMirror returns an empty mirror.
func NewMirror() *Mirror {
	return &Mirror{byID: make(map[model.ID]*mirrorNode)}
}

// Reset discards the mirror and copies the current state of t.
func (m *Mirror) Reset(t *tree.Tree) {
	m.roots = nil
	m.byID = make(map[model.ID]*mirrorNode)
	if t == nil {
		return
	}
	for _, r := range t.Roots() {
		m.roots = append(m.roots, m.build(r, nil))
	}
}

func (m *Mirror) build(n *tree.Node, parent *mirrorNode) *mirrorNode {
	mn := &mirrorNode{
		id:            n.ID(),
		label:         n.Label(),
		checked:       n.Checked(),
		indeterminate: n.IsIndeterminate(),
		expanded:      n.Expanded(),
		parent:        parent,
	}
	m.byID[mn.id] = mn
	for _, c := range n.Children() {
		mn.children = append(mn.children, m.build(c, mn))
	}
	return mn
}

// Apply folds one event into the mirror.
func (m *Mirror) Apply(e tree.Event) {
	switch e := e.(type) {
	case tree.NodeAdded:
		parent, ok := m.resolveParent(e.Parent)
		if !ok {
			return
		}
		if old, known := m.byID[e.Node.ID()]; known {
			m.detach(old)
			m.forget(old)
		}
		m.insert(m.build(e.Node, parent), parent, e.Position)

	case tree.NodeRemoved:
		mn, ok := m.byID[e.Node.ID()]
		if !ok {
			return
		}
		m.detach(mn)
		m.forget(mn)

	case tree.NodeMoved:
		parent, ok := m.resolveParent(e.NewParent)
		if !ok {
			return
		}
		mn, known := m.byID[e.Node.ID()]
		if known {
			m.detach(mn)
		} else {
			mn = m.build(e.Node, nil)
		}
		m.insert(mn, parent, e.Position)

	case tree.NodeChecked:
		if mn, ok := m.byID[e.Node.ID()]; ok {
			mn.checked = e.Checked
			mn.indeterminate = false
		}

	case tree.NodeIndeterminate:
		if mn, ok := m.byID[e.Node.ID()]; ok {
			mn.indeterminate = e.Indeterminate
			if e.Indeterminate {
				mn.checked = false
			}
		}

	case tree.NodeExpanded:
		if mn, ok := m.byID[e.Node.ID()]; ok {
			mn.expanded = e.Expanded
		}
	}
}

// resolveParent maps a tree parent to its mirror node. A nil parent is the
// root level; an unknown one means the event is outside the mirrored forest.
func (m *Mirror) resolveParent(p *tree.Node) (*mirrorNode, bool) {
	if p == nil {
		return nil, true
	}
	mn, ok := m.byID[p.ID()]
	return mn, ok
}

func (m *Mirror) detach(mn *mirrorNode) {
	if mn.parent != nil {
		mn.parent.children = without(mn.parent.children, mn)
		mn.parent = nil
		return
	}
	m.roots = without(m.roots, mn)
}

func (m *Mirror) insert(mn, parent *mirrorNode, position int) {
	mn.parent = parent
	if parent == nil {
		m.roots = insertMirror(m.roots, position, mn)
		return
	}
	parent.children = insertMirror(parent.children, position, mn)
}

func (m *Mirror) forget(mn *mirrorNode) {
	delete(m.byID, mn.id)
	for _, c := range mn.children {
		m.forget(c)
	}
}

func without(nodes []*mirrorNode, target *mirrorNode) []*mirrorNode {
	out := nodes[:0:0]
	for _, n := range nodes {
		if n != target {
			out = append(out, n)
		}
	}
	return out
}

func insertMirror(nodes []*mirrorNode, position int, mn *mirrorNode) []*mirrorNode {
	if position < 0 {
		position = 0
	}
	if position > len(nodes) {
		position = len(nodes)
	}
	out := make([]*mirrorNode, 0, len(nodes)+1)
	out = append(out, nodes[:position]...)
	out = append(out, mn)
	return append(out, nodes[position:]...)
}

// Len returns the number of mirrored nodes.
func (m *Mirror) Len() int { return len(m.byID) }

// Has reports whether id is mirrored.
func (m *Mirror) Has(id model.ID) bool {
	_, ok := m.byID[id]
	return ok
}

// Expanded reports the mirrored expanded flag of id.
func (m *Mirror) Expanded(id model.ID) bool {
	mn, ok := m.byID[id]
	return ok && mn.expanded
}

// ParentID returns the mirrored parent of id, or "" for a root.
func (m *Mirror) ParentID(id model.ID) model.ID {
	if mn, ok := m.byID[id]; ok && mn.parent != nil {
		return mn.parent.id
	}
	return ""
}

// Snapshot returns the mirrored forest in export form.
func (m *Mirror) Snapshot() []model.Snapshot {
	out := make([]model.Snapshot, len(m.roots))
	for i, r := range m.roots {
		out[i] = r.snapshot()
	}
	return out
}

// SubtreeSnapshot returns the mirrored subtree rooted at id.
func (m *Mirror) SubtreeSnapshot(id model.ID) (model.Snapshot, bool) {
	mn, ok := m.byID[id]
	if !ok {
		return model.Snapshot{}, false
	}
	return mn.snapshot(), true
}

func (mn *mirrorNode) snapshot() model.Snapshot {
	s := model.Snapshot{
		ID:            mn.id,
		Label:         mn.label,
		Checked:       mn.checked,
		Indeterminate: mn.indeterminate,
		Children:      make([]model.Snapshot, len(mn.children)),
	}
	for i, c := range mn.children {
		s.Children[i] = c.snapshot()
	}
	return s
}

// Visible flattens the forest into rows, skipping the children of collapsed
// nodes.
func (m *Mirror) Visible() []Row {
	var rows []Row
	var walk func(nodes []*mirrorNode, depth int, guides []bool)
	walk = func(nodes []*mirrorNode, depth int, guides []bool) {
		for i, mn := range nodes {
			last := i == len(nodes)-1
			rows = append(rows, Row{
				ID:            mn.id,
				Label:         mn.label,
				Depth:         depth,
				Checked:       mn.checked,
				Indeterminate: mn.indeterminate,
				Expanded:      mn.expanded,
				HasChildren:   len(mn.children) > 0,
				Last:          last,
				Guides:        guides,
			})
			if mn.expanded && len(mn.children) > 0 {
				next := make([]bool, len(guides), len(guides)+1)
				copy(next, guides)
				walk(mn.children, depth+1, append(next, last))
			}
		}
	}
	walk(m.roots, 0, nil)
	return rows
}
