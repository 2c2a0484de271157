package controller

import (
	"github.com/vanderheijden86/checktree/pkg/model"
	"github.com/vanderheijden86/checktree/pkg/tree"
)

// DropPosition says where a dragged node lands relative to the drop target.
type DropPosition int

const (
	DropBefore DropPosition = iota
	DropAfter
	DropInside
)

func (p DropPosition) String() string {
	switch p {
	case DropBefore:
		return "before"
	case DropAfter:
		return "after"
	case DropInside:
		return "inside"
	default:
		return "unknown"
	}
}

// DropRequest is a resolved drop: where the dragged node will be moved.
type DropRequest struct {
	Dragged  *tree.Node
	Target   *tree.Node
	Where    DropPosition
	Parent   *tree.Node // nil for root level
	Position int
}

// Drop moves draggedID next to or into targetID. Before and after place the
// node among the target's siblings; inside appends it to the target's
// children. Self-drops, drops into the dragged subtree and unresolved ids are
// ignored.
func (c *Controller) Drop(draggedID, targetID model.ID, where DropPosition) {
	req, ok := c.resolveDrop(draggedID, targetID, where)
	if !ok {
		return
	}
	if c.BeforeDrop != nil && !c.BeforeDrop(req) {
		return
	}
	c.tree.MoveTo(req.Dragged, req.Parent, req.Position)
	if c.AfterDrop != nil {
		c.AfterDrop(req)
	}
}

func (c *Controller) resolveDrop(draggedID, targetID model.ID, where DropPosition) (DropRequest, bool) {
	dragged := c.tree.FindNodeByID(draggedID)
	target := c.tree.FindNodeByID(targetID)
	if dragged == nil || target == nil || dragged == target {
		return DropRequest{}, false
	}
	req := DropRequest{Dragged: dragged, Target: target, Where: where}
	switch where {
	case DropInside:
		req.Parent = target
		req.Position = target.ChildCount()
	case DropBefore, DropAfter:
		req.Parent = target.Parent()
		req.Position = target.Index()
		if where == DropAfter {
			req.Position++
		}
		// Detaching an earlier sibling shifts the target left by one.
		if dragged.Parent() == req.Parent && dragged.Index() >= 0 && dragged.Index() < target.Index() {
			req.Position--
		}
	default:
		return DropRequest{}, false
	}
	if req.Parent != nil && dragged.Contains(req.Parent) {
		return DropRequest{}, false
	}
	return req, true
}
