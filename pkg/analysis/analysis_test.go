package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/vanderheijden86/checktree/pkg/model"
	"github.com/vanderheijden86/checktree/pkg/tree"
)

func boolPtr(b bool) *bool { return &b }

func sampleTree(t *testing.T) *tree.Tree {
	t.Helper()
	tr, err := tree.FromDescriptors([]model.Descriptor{
		{ID: "r", Label: "Root", Children: []model.Descriptor{
			{ID: "a", Label: "A", Checked: true},
			{ID: "b", Label: "B", Expanded: boolPtr(false), Children: []model.Descriptor{
				{ID: "b1", Label: "B1"},
				{ID: "b2", Label: "B2"},
				{ID: "b3", Label: "B3", Checked: true},
			}},
		}},
		{ID: "s", Label: "Solo"},
	})
	if err != nil {
		t.Fatalf("FromDescriptors failed: %v", err)
	}
	return tr
}

func TestVerify_HealthyTree(t *testing.T) {
	tr := sampleTree(t)
	if err := Verify(tr); err != nil {
		t.Fatalf("expected healthy tree, got %v", err)
	}

	b := tr.FindNodeByID("b")
	tr.MoveTo(b, nil, 0)
	tr.FindNodeByID("b1").SetChecked(true)
	if err := Verify(tr); err != nil {
		t.Fatalf("tree should stay healthy after mutations, got %v", err)
	}
}

func TestVerify_Empty(t *testing.T) {
	if err := Verify(tree.New()); err != nil {
		t.Errorf("empty tree should verify, got %v", err)
	}
}

func TestGraphVerify_Corruption(t *testing.T) {
	tests := []struct {
		name string
		g    *Graph
		want string
	}{
		{
			name: "Cycle",
			g: &Graph{
				Roots: []int{0},
				Vertices: []Vertex{
					{ID: "r", Parent: -1, Children: []int{1}},
					{ID: "x", Parent: 2, Children: []int{2}},
					{ID: "y", Parent: 1, Children: []int{1}},
				},
			},
			want: "cycle through x, y",
		},
		{
			name: "SelfParent",
			g: &Graph{
				Roots:    []int{0},
				Vertices: []Vertex{{ID: "r", Parent: 0, Children: []int{0}}},
			},
			want: "node r is its own parent",
		},
		{
			name: "SharedChild",
			g: &Graph{
				Roots: []int{0, 1},
				Vertices: []Vertex{
					{ID: "p", Parent: -1, Children: []int{2}},
					{ID: "q", Parent: -1, Children: []int{2}},
					{ID: "c", Parent: 0},
				},
			},
			want: "node c has 2 parents",
		},
		{
			name: "StaleParentLink",
			g: &Graph{
				Roots: []int{0, 1},
				Vertices: []Vertex{
					{ID: "p", Parent: -1},
					{ID: "q", Parent: 0},
				},
			},
			want: "stale parent link",
		},
		{
			name: "Detached",
			g: &Graph{
				Roots: []int{0},
				Vertices: []Vertex{
					{ID: "r", Parent: -1},
					{ID: "lost", Parent: -1},
				},
			},
			want: "node lost is detached",
		},
		{
			name: "DuplicateID",
			g: &Graph{
				Roots: []int{0, 1},
				Vertices: []Vertex{
					{ID: "dup", Parent: -1},
					{ID: "dup", Parent: -1},
				},
			},
			want: "duplicate id dup",
		},
		{
			name: "CheckedAndIndeterminate",
			g: &Graph{
				Roots:    []int{0},
				Vertices: []Vertex{{ID: "r", Parent: -1, Checked: true, Indeterminate: true}},
			},
			want: "both checked and indeterminate",
		},
		{
			name: "RootListedTwice",
			g: &Graph{
				Roots:    []int{0, 0},
				Vertices: []Vertex{{ID: "r", Parent: -1}},
			},
			want: "root r listed twice",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.g.Verify()
			if err == nil {
				t.Fatal("expected a violation")
			}
			if !errors.Is(err, tree.ErrInvariantViolation) {
				t.Errorf("error should wrap ErrInvariantViolation: %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestTreeStats(t *testing.T) {
	s := TreeStats(sampleTree(t))

	if s.Nodes != 7 || s.Roots != 2 || s.Leaves != 5 {
		t.Errorf("counts: nodes=%d roots=%d leaves=%d", s.Nodes, s.Roots, s.Leaves)
	}
	if s.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", s.MaxDepth)
	}
	if s.MaxFanout != 3 {
		t.Errorf("MaxFanout = %d, want 3", s.MaxFanout)
	}
	if s.Checked != 2 || s.Indeterminate != 0 || s.Unchecked != 5 {
		t.Errorf("states: checked=%d indeterminate=%d unchecked=%d", s.Checked, s.Indeterminate, s.Unchecked)
	}
	if s.Expanded != 1 {
		t.Errorf("Expanded = %d, want 1 (only r)", s.Expanded)
	}
	// Both r and b are unchecked parents of mixed children.
	if s.Inconsistent != 2 {
		t.Errorf("Inconsistent = %d, want 2", s.Inconsistent)
	}
	if math.Abs(s.Progress-0.4) > 1e-9 {
		t.Errorf("Progress = %v, want 0.4", s.Progress)
	}
}

func TestTreeStats_AfterPropagation(t *testing.T) {
	tr := sampleTree(t)
	tr.FindNodeByID("b1").SetChecked(false)

	s := TreeStats(tr)
	if s.Inconsistent != 0 {
		t.Errorf("propagation should leave no inconsistent parents, got %d", s.Inconsistent)
	}
	if s.Indeterminate != 2 {
		t.Errorf("Indeterminate = %d, want 2 (r and b)", s.Indeterminate)
	}
}

func TestSnapshotStats_MatchesTree(t *testing.T) {
	tr := sampleTree(t)
	fromTree := TreeStats(tr)
	fromSnap := SnapshotStats(tr.Snapshot())

	// Snapshots carry no expanded flag.
	fromTree.Expanded, fromSnap.Expanded = 0, 0
	if fromTree != fromSnap {
		t.Errorf("snapshot stats %+v differ from tree stats %+v", fromSnap, fromTree)
	}
}

func TestStats_Empty(t *testing.T) {
	s := SnapshotStats(nil)
	if s.Nodes != 0 || s.MaxDepth != -1 || s.Progress != 0 {
		t.Errorf("unexpected empty stats: %+v", s)
	}
}

func TestStats_CyclicGraphIsPartial(t *testing.T) {
	g := &Graph{
		Roots: []int{0},
		Vertices: []Vertex{
			{ID: "r", Parent: -1, Children: []int{1}},
			{ID: "x", Parent: 0, Children: []int{2}},
			{ID: "y", Parent: 1, Children: []int{1}},
		},
	}
	s := g.ComputeStats()
	if s.Nodes != 1 {
		t.Errorf("only the acyclic part should be counted, got %d nodes", s.Nodes)
	}
}
