package analysis

import (
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/checktree/pkg/model"
	"github.com/vanderheijden86/checktree/pkg/tree"
)

// Stats summarizes a forest.
type Stats struct {
	Nodes         int `json:"nodes"`
	Roots         int `json:"roots"`
	Leaves        int `json:"leaves"`
	MaxDepth      int `json:"max_depth"` // roots are depth 0; -1 for an empty forest
	MaxFanout     int `json:"max_fanout"`
	Checked       int `json:"checked"`
	Indeterminate int `json:"indeterminate"`
	Unchecked     int `json:"unchecked"`
	Expanded      int `json:"expanded"`

	// Inconsistent counts parents whose state differs from the one their
	// children imply. A freshly loaded payload may carry such states; they
	// are corrected the next time a child changes.
	Inconsistent int `json:"inconsistent"`

	// Progress is the fraction of leaves that are checked, 0 when there are
	// no leaves.
	Progress float64 `json:"progress"`
}

// ComputeStats walks g in topological order so every depth is known before
// its children are visited. Structures that fail Verify yield partial
// results; callers that care should verify first.
func (g *Graph) ComputeStats() Stats {
	s := Stats{Roots: len(g.Roots), MaxDepth: -1}
	if len(g.Vertices) == 0 {
		return s
	}

	d, _ := g.directed()
	// On a cycle, Sort still returns an order with nil in place of each
	// cyclic component.
	order, _ := topo.Sort(d)

	depth := make([]int, len(g.Vertices))
	checkedLeaves := 0
	for _, n := range order {
		if n == nil {
			continue
		}
		i := int(n.ID())
		v := g.Vertices[i]
		s.Nodes++

		if v.Parent >= 0 {
			depth[i] = depth[v.Parent] + 1
		}
		if depth[i] > s.MaxDepth {
			s.MaxDepth = depth[i]
		}
		if len(v.Children) > s.MaxFanout {
			s.MaxFanout = len(v.Children)
		}

		switch {
		case v.Checked:
			s.Checked++
		case v.Indeterminate:
			s.Indeterminate++
		default:
			s.Unchecked++
		}
		if v.Expanded && len(v.Children) > 0 {
			s.Expanded++
		}

		if len(v.Children) == 0 {
			s.Leaves++
			if v.Checked {
				checkedLeaves++
			}
			continue
		}
		checked, indeterminate := g.derived(v)
		if checked != v.Checked || indeterminate != v.Indeterminate {
			s.Inconsistent++
		}
	}

	if s.Leaves > 0 {
		s.Progress = float64(checkedLeaves) / float64(s.Leaves)
	}
	return s
}

// derived returns the state v's children imply: checked when all are
// checked, unchecked when all are unchecked and none is indeterminate,
// indeterminate otherwise.
func (g *Graph) derived(v Vertex) (checked, indeterminate bool) {
	all, none := true, true
	for _, c := range v.Children {
		cv := g.Vertices[c]
		if !cv.Checked || cv.Indeterminate {
			all = false
		}
		if cv.Checked || cv.Indeterminate {
			none = false
		}
	}
	switch {
	case all:
		return true, false
	case none:
		return false, false
	default:
		return false, true
	}
}

// TreeStats computes Stats for the live tree.
func TreeStats(t *tree.Tree) Stats {
	return FromTree(t).ComputeStats()
}

// SnapshotStats computes Stats for an exported forest.
func SnapshotStats(forest []model.Snapshot) Stats {
	return FromSnapshot(forest).ComputeStats()
}
