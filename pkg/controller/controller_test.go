package controller

import (
	"errors"
	"testing"

	"github.com/vanderheijden86/checktree/pkg/model"
	"github.com/vanderheijden86/checktree/pkg/tree"
)

type fakeView struct {
	tree   *tree.Tree
	cmds   Commands
	events []tree.Event
}

func (v *fakeView) Mount(t *tree.Tree, cmds Commands) {
	v.tree = t
	v.cmds = cmds
	t.Subscribe(func(e tree.Event) { v.events = append(v.events, e) })
}

func (v *fakeView) kinds() []tree.EventKind {
	out := make([]tree.EventKind, len(v.events))
	for i, e := range v.events {
		out[i] = e.Kind()
	}
	return out
}

func setup(t *testing.T, roots ...model.Descriptor) (*Controller, *fakeView) {
	t.Helper()
	tr, err := tree.FromDescriptors(roots)
	if err != nil {
		t.Fatalf("FromDescriptors failed: %v", err)
	}
	view := &fakeView{}
	c, err := New(tr, view)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c, view
}

func childIDs(n *tree.Node) []model.ID {
	var out []model.ID
	for _, c := range n.Children() {
		out = append(out, c.ID())
	}
	return out
}

func rootIDs(t *tree.Tree) []model.ID {
	var out []model.ID
	for _, r := range t.Roots() {
		out = append(out, r.ID())
	}
	return out
}

func sameIDs(a, b []model.ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewRequiresMountPoint(t *testing.T) {
	tests := []struct {
		name string
		tree *tree.Tree
		view Mount
	}{
		{"NilView", tree.New(), nil},
		{"NilTree", nil, &fakeView{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.tree, tt.view)
			if c != nil {
				t.Error("expected no controller")
			}
			if !errors.Is(err, ErrNoMountPoint) {
				t.Errorf("expected ErrNoMountPoint, got %v", err)
			}
			if !errors.Is(err, tree.ErrInvariantViolation) {
				t.Errorf("expected error to wrap ErrInvariantViolation, got %v", err)
			}
		})
	}
}

func TestNewMountsView(t *testing.T) {
	c, view := setup(t, model.Descriptor{ID: "r"})
	if view.tree != c.Tree() || view.cmds != Commands(c) {
		t.Error("expected view to receive the tree and the controller")
	}
}

func TestAddChild(t *testing.T) {
	c, view := setup(t, model.Descriptor{ID: "r", Children: []model.Descriptor{{ID: "a", Checked: true}}})
	r := c.Tree().FindNodeByID("r")
	r.SetChecked(true)
	view.events = nil

	if !c.AddChild("r", model.Descriptor{ID: "b", Label: "B"}) {
		t.Fatal("expected AddChild to succeed")
	}
	if !sameIDs(childIDs(r), []model.ID{"a", "b"}) {
		t.Errorf("unexpected children %v", childIDs(r))
	}
	if !r.IsIndeterminate() {
		t.Error("expected parent to become indeterminate after adding an unchecked child")
	}
	if view.kinds()[0] != tree.KindNodeAdded {
		t.Errorf("expected NodeAdded first, got %v", view.kinds())
	}

	tests := []struct {
		name     string
		parentID model.ID
		d        model.Descriptor
	}{
		{"UnknownParent", "missing", model.Descriptor{ID: "x"}},
		{"DuplicateID", "r", model.Descriptor{ID: "a"}},
		{"DuplicateNestedID", "r", model.Descriptor{ID: "y", Children: []model.Descriptor{{ID: "r"}}}},
		{"InvalidPayload", "r", model.Descriptor{ID: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view.events = nil
			if c.AddChild(tt.parentID, tt.d) {
				t.Error("expected AddChild to refuse")
			}
			if len(view.events) != 0 {
				t.Errorf("expected no events, got %v", view.kinds())
			}
		})
	}
}

func TestAddRoot(t *testing.T) {
	c, _ := setup(t, model.Descriptor{ID: "r"})
	if !c.AddRoot(model.Descriptor{ID: "s"}) {
		t.Fatal("expected AddRoot to succeed")
	}
	if c.AddRoot(model.Descriptor{ID: "s"}) {
		t.Error("expected duplicate root to be refused")
	}
	if !sameIDs(rootIDs(c.Tree()), []model.ID{"r", "s"}) {
		t.Errorf("unexpected roots %v", rootIDs(c.Tree()))
	}
}

func TestToggleExpand(t *testing.T) {
	c, view := setup(t, model.Descriptor{ID: "r"})
	r := c.Tree().FindNodeByID("r")

	c.ToggleExpand("r")
	if r.Expanded() {
		t.Error("expected collapse")
	}
	c.ToggleExpand("r")
	if !r.Expanded() {
		t.Error("expected expand")
	}
	c.ToggleExpand("missing")

	if len(view.events) != 2 {
		t.Errorf("expected 2 NodeExpanded, got %v", view.kinds())
	}
}

func TestMoveNode(t *testing.T) {
	c, view := setup(t,
		model.Descriptor{ID: "p", Children: []model.Descriptor{{ID: "c"}}},
		model.Descriptor{ID: "q"},
	)

	c.MoveNode("c", "q", 0)
	if got := c.Tree().FindNodeByID("c").Parent().ID(); got != "q" {
		t.Errorf("expected c under q, got %s", got)
	}

	c.MoveNode("c", "", 0)
	if !sameIDs(rootIDs(c.Tree()), []model.ID{"c", "p", "q"}) {
		t.Errorf("unexpected roots %v", rootIDs(c.Tree()))
	}

	view.events = nil
	c.MoveNode("missing", "", 0)
	c.MoveNode("c", "missing", 0)
	if len(view.events) != 0 {
		t.Errorf("expected unresolved ids to be no-ops, got %v", view.kinds())
	}
}

func TestSetChecked(t *testing.T) {
	c, _ := setup(t, model.Descriptor{ID: "r", Children: []model.Descriptor{{ID: "a"}, {ID: "b"}}})
	c.SetChecked("a", true)
	c.SetChecked("missing", true)

	if r := c.Tree().FindNodeByID("r"); !r.IsIndeterminate() {
		t.Error("expected r indeterminate")
	}
	c.SetChecked("b", true)
	if r := c.Tree().FindNodeByID("r"); !r.Checked() {
		t.Error("expected r checked")
	}
}

func TestExpandAllCollapseAll(t *testing.T) {
	collapsed := false
	c, view := setup(t, model.Descriptor{ID: "r", Expanded: &collapsed, Children: []model.Descriptor{
		{ID: "a", Children: []model.Descriptor{{ID: "a1"}}},
		{ID: "b"},
	}})

	c.ExpandAll()
	if len(view.events) != 1 {
		t.Errorf("expected only r to change, got %v", view.kinds())
	}

	view.events = nil
	c.CollapseAll()
	if len(view.events) != 2 {
		t.Errorf("expected r and a to collapse, got %v", view.kinds())
	}
	for _, id := range []model.ID{"r", "a"} {
		if c.Tree().FindNodeByID(id).Expanded() {
			t.Errorf("%s: expected collapsed", id)
		}
	}
	if !c.Tree().FindNodeByID("b").Expanded() {
		t.Error("expected leaf flag untouched")
	}
}

func TestSiblingMoves(t *testing.T) {
	tests := []struct {
		name     string
		op       func(c *Controller)
		wantRoot []model.ID
		wantP    []model.ID
	}{
		{"MoveUp", func(c *Controller) { c.MoveUp("b") }, []model.ID{"p", "z"}, []model.ID{"b", "a", "c"}},
		{"MoveUpFirstIsNoop", func(c *Controller) { c.MoveUp("a") }, []model.ID{"p", "z"}, []model.ID{"a", "b", "c"}},
		{"MoveDown", func(c *Controller) { c.MoveDown("a") }, []model.ID{"p", "z"}, []model.ID{"b", "a", "c"}},
		{"MoveDownLastIsNoop", func(c *Controller) { c.MoveDown("c") }, []model.ID{"p", "z"}, []model.ID{"a", "b", "c"}},
		{"MoveDownRoot", func(c *Controller) { c.MoveDown("p") }, []model.ID{"z", "p"}, []model.ID{"a", "b", "c"}},
		{"Outdent", func(c *Controller) { c.Outdent("b") }, []model.ID{"p", "b", "z"}, []model.ID{"a", "c"}},
		{"OutdentRootIsNoop", func(c *Controller) { c.Outdent("p") }, []model.ID{"p", "z"}, []model.ID{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := setup(t,
				model.Descriptor{ID: "p", Children: []model.Descriptor{{ID: "a"}, {ID: "b"}, {ID: "c"}}},
				model.Descriptor{ID: "z"},
			)
			tt.op(c)
			if got := rootIDs(c.Tree()); !sameIDs(got, tt.wantRoot) {
				t.Errorf("roots = %v, want %v", got, tt.wantRoot)
			}
			if got := childIDs(c.Tree().FindNodeByID("p")); !sameIDs(got, tt.wantP) {
				t.Errorf("p children = %v, want %v", got, tt.wantP)
			}
		})
	}
}

func TestIndentExpandsNewParent(t *testing.T) {
	collapsed := false
	c, view := setup(t, model.Descriptor{ID: "p", Children: []model.Descriptor{
		{ID: "a", Expanded: &collapsed, Children: []model.Descriptor{{ID: "a1"}}},
		{ID: "b"},
	}})

	c.Indent("b")
	c.Indent("a") // first sibling, nothing to indent under

	a := c.Tree().FindNodeByID("a")
	if !sameIDs(childIDs(a), []model.ID{"a1", "b"}) {
		t.Errorf("unexpected children of a: %v", childIDs(a))
	}
	if !a.Expanded() {
		t.Error("expected a to be expanded")
	}
	want := []tree.EventKind{tree.KindNodeMoved, tree.KindNodeExpanded}
	got := view.kinds()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}
}
