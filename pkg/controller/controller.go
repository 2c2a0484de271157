// Package controller is the command surface a view uses to change a tree.
//
// Every command resolves its ids with FindNodeByID and quietly does nothing
// when one is unresolved; a late command after a structural change degrades
// instead of failing. Views learn about the outcome from the tree's events,
// never from return values.
package controller

import (
	"fmt"

	"github.com/vanderheijden86/checktree/pkg/model"
	"github.com/vanderheijden86/checktree/pkg/tree"
)

// ErrNoMountPoint is returned when a controller is built without a view to
// mount or without a tree.
var ErrNoMountPoint = fmt.Errorf("%w: no mount point", tree.ErrInvariantViolation)

// Commands is what a mounted view may call.
type Commands interface {
	AddChild(parentID model.ID, d model.Descriptor) bool
	AddRoot(d model.Descriptor) bool
	ToggleExpand(id model.ID)
	MoveNode(id, newParentID model.ID, position int)
	SetChecked(id model.ID, checked bool)
	ExpandAll()
	CollapseAll()
	MoveUp(id model.ID)
	MoveDown(id model.ID)
	Indent(id model.ID)
	Outdent(id model.ID)
	Drop(draggedID, targetID model.ID, where DropPosition)
}

// Mount is a view that renders a tree and sends commands back.
type Mount interface {
	Mount(t *tree.Tree, cmds Commands)
}

// Controller binds one tree to one mounted view.
type Controller struct {
	tree *tree.Tree

	// BeforeDrop may veto a drop by returning false.
	BeforeDrop func(DropRequest) bool
	// AfterDrop runs once a drop has moved the node.
	AfterDrop func(DropRequest)
}

var _ Commands = (*Controller)(nil)

// New creates a controller for t and mounts view on it.
func New(t *tree.Tree, view Mount) (*Controller, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: tree is nil", ErrNoMountPoint)
	}
	if view == nil {
		return nil, fmt.Errorf("%w: view is nil", ErrNoMountPoint)
	}
	c := &Controller{tree: t}
	view.Mount(t, c)
	return c, nil
}

// Tree returns the controlled tree.
func (c *Controller) Tree() *tree.Tree { return c.tree }

// AddChild builds d and appends it under parentID, then recomputes the
// parent chain's check state. It reports false, changing nothing, when the
// parent is unknown, the payload is invalid or one of its ids is taken.
func (c *Controller) AddChild(parentID model.ID, d model.Descriptor) bool {
	parent := c.tree.FindNodeByID(parentID)
	if parent == nil || !c.acceptable(d) {
		return false
	}
	parent.AddChild(tree.NewNodeFromDescriptor(d))
	parent.UpdateCheckStateFromChildren()
	return true
}

// AddRoot builds d and appends it as a new root.
func (c *Controller) AddRoot(d model.Descriptor) bool {
	if !c.acceptable(d) {
		return false
	}
	c.tree.AddRoot(tree.NewNodeFromDescriptor(d))
	return true
}

func (c *Controller) acceptable(d model.Descriptor) bool {
	if d.Validate() != nil {
		return false
	}
	taken := false
	tree.NewNodeFromDescriptor(d).WalkDepthFirst(func(n *tree.Node) bool {
		if c.tree.FindNodeByID(n.ID()) != nil {
			taken = true
			return false
		}
		return true
	})
	return !taken
}

// ToggleExpand flips the expanded flag of id.
func (c *Controller) ToggleExpand(id model.ID) {
	if n := c.tree.FindNodeByID(id); n != nil {
		n.ToggleExpanded()
	}
}

// MoveNode moves id under newParentID at position. An empty newParentID
// moves the node to root level.
func (c *Controller) MoveNode(id, newParentID model.ID, position int) {
	n := c.tree.FindNodeByID(id)
	if n == nil {
		return
	}
	var parent *tree.Node
	if newParentID != "" {
		if parent = c.tree.FindNodeByID(newParentID); parent == nil {
			return
		}
	}
	c.tree.MoveTo(n, parent, position)
}

// SetChecked sets id and its subtree, then recomputes its ancestors.
func (c *Controller) SetChecked(id model.ID, checked bool) {
	if n := c.tree.FindNodeByID(id); n != nil {
		n.SetChecked(checked)
	}
}

// ExpandAll expands every collapsed node that has children.
func (c *Controller) ExpandAll() { c.setAllExpanded(true) }

// CollapseAll collapses every expanded node that has children.
func (c *Controller) CollapseAll() { c.setAllExpanded(false) }

func (c *Controller) setAllExpanded(expanded bool) {
	var changed []*tree.Node
	c.tree.Walk(func(n *tree.Node) bool {
		if !n.IsLeaf() && n.Expanded() != expanded {
			changed = append(changed, n)
		}
		return true
	})
	for _, n := range changed {
		n.SetExpanded(expanded)
	}
}

// MoveUp swaps id with its previous sibling.
func (c *Controller) MoveUp(id model.ID) {
	n := c.tree.FindNodeByID(id)
	if n == nil || n.Index() <= 0 {
		return
	}
	c.tree.MoveTo(n, n.Parent(), n.Index()-1)
}

// MoveDown swaps id with its next sibling.
func (c *Controller) MoveDown(id model.ID) {
	n := c.tree.FindNodeByID(id)
	if n == nil {
		return
	}
	i := n.Index()
	if i < 0 || i >= len(c.siblings(n))-1 {
		return
	}
	c.tree.MoveTo(n, n.Parent(), i+1)
}

// Indent makes id the last child of its previous sibling and expands that
// sibling so the node stays visible.
func (c *Controller) Indent(id model.ID) {
	n := c.tree.FindNodeByID(id)
	if n == nil || n.Index() <= 0 {
		return
	}
	prev := c.siblings(n)[n.Index()-1]
	c.tree.MoveTo(n, prev, prev.ChildCount())
	if !prev.Expanded() {
		prev.SetExpanded(true)
	}
}

// Outdent moves id to just after its parent.
func (c *Controller) Outdent(id model.ID) {
	n := c.tree.FindNodeByID(id)
	if n == nil || n.Parent() == nil {
		return
	}
	p := n.Parent()
	c.tree.MoveTo(n, p.Parent(), p.Index()+1)
}

func (c *Controller) siblings(n *tree.Node) []*tree.Node {
	if p := n.Parent(); p != nil {
		return p.Children()
	}
	return c.tree.Roots()
}
