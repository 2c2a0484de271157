package tree

import "github.com/vanderheijden86/checktree/pkg/events"

// EventKind names one member of the closed event union.
type EventKind int

const (
	KindNodeAdded EventKind = iota
	KindNodeRemoved
	KindNodeMoved
	KindNodeChecked
	KindNodeIndeterminate
	KindNodeExpanded
)

// AllKinds lists every event kind in declaration order.
var AllKinds = []EventKind{
	KindNodeAdded,
	KindNodeRemoved,
	KindNodeMoved,
	KindNodeChecked,
	KindNodeIndeterminate,
	KindNodeExpanded,
}

func (k EventKind) String() string {
	switch k {
	case KindNodeAdded:
		return "nodeAdded"
	case KindNodeRemoved:
		return "nodeRemoved"
	case KindNodeMoved:
		return "nodeMoved"
	case KindNodeChecked:
		return "nodeChecked"
	case KindNodeIndeterminate:
		return "nodeIndeterminate"
	case KindNodeExpanded:
		return "nodeExpanded"
	default:
		return "unknown"
	}
}

// Event is implemented only by the payload types in this package, so a type
// switch over them is exhaustive.
type Event interface {
	Kind() EventKind
	isEvent()
}

// NodeAdded reports that Node was attached under Parent (nil for a root) at
// Position.
type NodeAdded struct {
	Node     *Node
	Parent   *Node
	Position int
}

// NodeRemoved reports that Node was detached from Parent (nil for a root).
// Position is the index it held before removal.
type NodeRemoved struct {
	Node     *Node
	Parent   *Node
	Position int
}

// NodeMoved reports a completed move. Position is the effective index after
// clamping. OldPosition is -1 when the node was not attached anywhere.
type NodeMoved struct {
	Node        *Node
	NewParent   *Node
	Position    int
	OldPosition int
}

// NodeChecked reports a determinate check state.
type NodeChecked struct {
	Node    *Node
	Checked bool
}

// NodeIndeterminate reports that a node's children disagree.
type NodeIndeterminate struct {
	Node          *Node
	Indeterminate bool
}

// NodeExpanded reports an expanded flag assignment.
type NodeExpanded struct {
	Node     *Node
	Expanded bool
}

func (NodeAdded) Kind() EventKind         { return KindNodeAdded }
func (NodeRemoved) Kind() EventKind       { return KindNodeRemoved }
func (NodeMoved) Kind() EventKind         { return KindNodeMoved }
func (NodeChecked) Kind() EventKind       { return KindNodeChecked }
func (NodeIndeterminate) Kind() EventKind { return KindNodeIndeterminate }
func (NodeExpanded) Kind() EventKind      { return KindNodeExpanded }

func (NodeAdded) isEvent()         {}
func (NodeRemoved) isEvent()       {}
func (NodeMoved) isEvent()         {}
func (NodeChecked) isEvent()       {}
func (NodeIndeterminate) isEvent() {}
func (NodeExpanded) isEvent()      {}

// Bus carries tree events keyed by kind.
type Bus = events.Bus[EventKind, Event]

// NewBus returns an empty tree event bus.
func NewBus() *Bus {
	return events.New[EventKind, Event]()
}

type registration struct {
	kind   EventKind
	handle events.Handle
}

// Subscription groups the registrations made by one Subscribe or On* call so
// they can be removed together.
type Subscription struct {
	regs []registration
}
