package ui

import (
	"fmt"
	"reflect"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/checktree/pkg/controller"
	"github.com/vanderheijden86/checktree/pkg/model"
	"github.com/vanderheijden86/checktree/pkg/tree"
)

func mirrorOf(t *testing.T, tr *tree.Tree) *Mirror {
	t.Helper()
	m := NewMirror()
	m.Reset(tr)
	tr.Subscribe(m.Apply)
	return m
}

func TestMirrorReset(t *testing.T) {
	tr, err := tree.FromDescriptors(sampleDescriptors())
	if err != nil {
		t.Fatal(err)
	}
	m := mirrorOf(t, tr)

	if m.Len() != 5 {
		t.Errorf("Len = %d, want 5", m.Len())
	}
	if !reflect.DeepEqual(m.Snapshot(), tr.Snapshot()) {
		t.Errorf("reset mirror differs from tree")
	}
	if m.ParentID("b1") != "b" || m.ParentID("r") != "" {
		t.Errorf("parent links wrong: b1->%q r->%q", m.ParentID("b1"), m.ParentID("r"))
	}

	m.Reset(nil)
	if m.Len() != 0 || len(m.Snapshot()) != 0 {
		t.Error("Reset(nil) should empty the mirror")
	}
}

func TestMirrorFollowsEvents(t *testing.T) {
	tr, err := tree.FromDescriptors(sampleDescriptors())
	if err != nil {
		t.Fatal(err)
	}
	m := mirrorOf(t, tr)

	b := tr.FindNodeByID("b")
	tr.MoveTo(b, nil, 0)
	if m.ParentID("b") != "" || m.Snapshot()[0].ID != "b" {
		t.Errorf("move to root not mirrored: %+v", m.Snapshot())
	}

	tr.FindNodeByID("b1").SetChecked(true)
	snap, _ := m.SubtreeSnapshot("b")
	if !snap.Checked || !snap.Children[0].Checked {
		t.Errorf("check cascade not mirrored: %+v", snap)
	}

	fresh := tree.NewNode("n", "New")
	fresh.AddChild(tree.NewNode("n1", "New child"))
	tr.FindNodeByID("a").AddChild(fresh)
	if !m.Has("n") || !m.Has("n1") || m.ParentID("n1") != "n" {
		t.Error("added subtree not mirrored")
	}

	tr.Remove(fresh)
	if m.Has("n") || m.Has("n1") {
		t.Error("removed subtree should be forgotten")
	}

	// Events from the detached node must not resurrect it.
	fresh.SetChecked(true)
	if m.Has("n") {
		t.Error("events from detached nodes should be ignored")
	}

	tr.FindNodeByID("r").SetExpanded(false)
	if m.Expanded("r") {
		t.Error("expanded flag not mirrored")
	}
	if !reflect.DeepEqual(m.Snapshot(), tr.Snapshot()) {
		t.Errorf("mirror diverged:\nmirror %+v\ntree   %+v", m.Snapshot(), tr.Snapshot())
	}
}

func TestMirrorVisible(t *testing.T) {
	tr, err := tree.FromDescriptors(sampleDescriptors())
	if err != nil {
		t.Fatal(err)
	}
	m := mirrorOf(t, tr)

	rows := m.Visible()
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	b1 := rows[3]
	if b1.ID != "b1" || !reflect.DeepEqual(b1.Guides, []bool{false, true}) {
		t.Errorf("b1 guides = %v", b1.Guides)
	}

	tr.FindNodeByID("r").SetExpanded(false)
	rows = m.Visible()
	if len(rows) != 2 || rows[0].ID != "r" || rows[1].ID != "s" {
		t.Errorf("collapsed rows = %+v", rows)
	}
	if rows[0].Expanded || !rows[0].HasChildren {
		t.Errorf("collapsed root row = %+v", rows[0])
	}
}

func TestMirrorSubtreeSnapshotUnknown(t *testing.T) {
	m := NewMirror()
	if _, ok := m.SubtreeSnapshot("nope"); ok {
		t.Error("unknown id should report false")
	}
	if m.Expanded("nope") || m.ParentID("nope") != "" {
		t.Error("unknown id should read as zero values")
	}
}

type fakeMount struct{ m *Mirror }

func (f *fakeMount) Mount(t *tree.Tree, _ controller.Commands) {
	f.m = NewMirror()
	f.m.Reset(t)
	t.Subscribe(f.m.Apply)
}

func genPayload(rt *rapid.T) []model.Descriptor {
	next := 0
	var build func(depth int) model.Descriptor
	build = func(depth int) model.Descriptor {
		next++
		expanded := rapid.Bool().Draw(rt, "expanded")
		d := model.Descriptor{
			ID:       model.ID(fmt.Sprintf("n%d", next)),
			Label:    fmt.Sprintf("Node %d", next),
			Checked:  rapid.Bool().Draw(rt, "checked"),
			Expanded: &expanded,
		}
		if depth < 3 {
			kids := rapid.IntRange(0, 3).Draw(rt, "kids")
			for i := 0; i < kids; i++ {
				d.Children = append(d.Children, build(depth+1))
			}
		}
		return d
	}
	out := make([]model.Descriptor, rapid.IntRange(0, 3).Draw(rt, "roots"))
	for i := range out {
		out[i] = build(0)
	}
	return out
}

func expandedFlags(tr *tree.Tree) map[model.ID]bool {
	out := make(map[model.ID]bool)
	tr.Walk(func(n *tree.Node) bool {
		out[n.ID()] = n.Expanded()
		return true
	})
	return out
}

// TestMirrorMatchesTreeProperty drives random controller commands and checks
// that a mirror fed only by events ends up identical to the tree.
func TestMirrorMatchesTreeProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tr, err := tree.FromDescriptors(genPayload(rt))
		if err != nil {
			rt.Fatalf("FromDescriptors: %v", err)
		}
		view := &fakeMount{}
		c, err := controller.New(tr, view)
		if err != nil {
			rt.Fatalf("controller.New: %v", err)
		}

		fresh := 0
		steps := rapid.IntRange(1, 25).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			var ids []model.ID
			tr.Walk(func(n *tree.Node) bool {
				ids = append(ids, n.ID())
				return true
			})
			pick := func(label string) model.ID {
				if len(ids) == 0 {
					return "missing"
				}
				return ids[rapid.IntRange(0, len(ids)-1).Draw(rt, label)]
			}

			switch rapid.IntRange(0, 12).Draw(rt, "op") {
			case 0:
				c.SetChecked(pick("node"), rapid.Bool().Draw(rt, "checked"))
			case 1:
				c.ToggleExpand(pick("node"))
			case 2:
				parent := model.ID("")
				if rapid.Bool().Draw(rt, "underParent") {
					parent = pick("parent")
				}
				c.MoveNode(pick("node"), parent, rapid.IntRange(-1, 5).Draw(rt, "pos"))
			case 3:
				fresh++
				c.AddChild(pick("parent"), model.Descriptor{ID: model.ID(fmt.Sprintf("f%d", fresh)), Label: "fresh"})
			case 4:
				fresh++
				c.AddRoot(model.Descriptor{ID: model.ID(fmt.Sprintf("f%d", fresh)), Label: "fresh root"})
			case 5:
				c.ExpandAll()
			case 6:
				c.CollapseAll()
			case 7:
				c.MoveUp(pick("node"))
			case 8:
				c.MoveDown(pick("node"))
			case 9:
				c.Indent(pick("node"))
			case 10:
				c.Outdent(pick("node"))
			case 11:
				where := controller.DropPosition(rapid.IntRange(0, 2).Draw(rt, "where"))
				c.Drop(pick("dragged"), pick("target"), where)
			case 12:
				if n := tr.FindNodeByID(pick("node")); n != nil {
					tr.Remove(n)
				}
			}

			if got, want := view.m.Snapshot(), tr.Snapshot(); !reflect.DeepEqual(got, want) {
				rt.Fatalf("step %d: mirror diverged\nmirror %+v\ntree   %+v", i, got, want)
			}
			if got, want := mirrorExpanded(view.m), expandedFlags(tr); !reflect.DeepEqual(got, want) {
				rt.Fatalf("step %d: expanded flags diverged\nmirror %v\ntree   %v", i, got, want)
			}
		}
	})
}

func mirrorExpanded(m *Mirror) map[model.ID]bool {
	out := make(map[model.ID]bool, len(m.byID))
	for id, mn := range m.byID {
		out[id] = mn.expanded
	}
	return out
}
