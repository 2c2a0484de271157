// Package analysis verifies forest structure through a directed graph view
// and computes summary statistics over it.
package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/checktree/pkg/model"
	"github.com/vanderheijden86/checktree/pkg/tree"
)

// Vertex is one node of a Graph. Parent and Children are indices into
// Graph.Vertices; Parent is -1 when the node claims no parent.
type Vertex struct {
	ID            model.ID
	Parent        int
	Children      []int
	Checked       bool
	Indeterminate bool
	Expanded      bool
}

// Graph is an index-based copy of a forest: both the child lists and the
// parent links as the source recorded them, so that the two can be checked
// against each other.
type Graph struct {
	Vertices []Vertex
	Roots    []int
}

// FromTree copies the structure reachable from t's roots, following child
// lists and parent links. Shared or cyclic structure is copied as found.
func FromTree(t *tree.Tree) *Graph {
	g := &Graph{}
	index := make(map[*tree.Node]int)
	var queue []*tree.Node

	lookup := func(n *tree.Node) int {
		if i, ok := index[n]; ok {
			return i
		}
		i := len(g.Vertices)
		index[n] = i
		g.Vertices = append(g.Vertices, Vertex{
			ID:            n.ID(),
			Parent:        -1,
			Checked:       n.Checked(),
			Indeterminate: n.IsIndeterminate(),
			Expanded:      n.Expanded(),
		})
		queue = append(queue, n)
		return i
	}

	for _, r := range t.Roots() {
		g.Roots = append(g.Roots, lookup(r))
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		i := index[n]
		if p := n.Parent(); p != nil {
			pi := lookup(p)
			g.Vertices[i].Parent = pi
		}
		for _, c := range n.Children() {
			ci := lookup(c)
			g.Vertices[i].Children = append(g.Vertices[i].Children, ci)
		}
	}
	return g
}

// FromSnapshot builds a graph from an exported forest. Snapshots cannot
// share nodes, so the result is structurally sound unless ids repeat.
func FromSnapshot(forest []model.Snapshot) *Graph {
	g := &Graph{}
	var add func(s model.Snapshot, parent int) int
	add = func(s model.Snapshot, parent int) int {
		i := len(g.Vertices)
		g.Vertices = append(g.Vertices, Vertex{
			ID:            s.ID,
			Parent:        parent,
			Checked:       s.Checked,
			Indeterminate: s.Indeterminate,
			Expanded:      true,
		})
		for _, c := range s.Children {
			ci := add(c, i)
			g.Vertices[i].Children = append(g.Vertices[i].Children, ci)
		}
		return i
	}
	for _, s := range forest {
		g.Roots = append(g.Roots, add(s, -1))
	}
	return g
}

// directed builds the gonum view: one edge per parent/child relation, taken
// from both child lists and parent links.
func (g *Graph) directed() (*simple.DirectedGraph, []string) {
	d := simple.NewDirectedGraph()
	for i := range g.Vertices {
		d.AddNode(simple.Node(int64(i)))
	}

	var problems []string
	link := func(p, c int) {
		if p == c {
			problems = append(problems, fmt.Sprintf("node %s is its own parent", g.Vertices[c].ID))
			return
		}
		d.SetEdge(d.NewEdge(simple.Node(int64(p)), simple.Node(int64(c))))
	}
	for i, v := range g.Vertices {
		for _, c := range v.Children {
			link(i, c)
		}
		if v.Parent >= 0 {
			link(v.Parent, i)
		}
	}
	return d, problems
}

// Verify checks that g is a forest whose parent links agree with its child
// lists, whose ids are unique, and whose nodes are never both checked and
// indeterminate. All problems found are reported in one error wrapping
// tree.ErrInvariantViolation.
func (g *Graph) Verify() error {
	d, problems := g.directed()

	if _, err := topo.Sort(d); err != nil {
		var cycles topo.Unorderable
		if errors.As(err, &cycles) {
			for _, scc := range cycles {
				problems = append(problems, "cycle through "+g.names(scc))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	isRoot := make(map[int]bool, len(g.Roots))
	for _, r := range g.Roots {
		if isRoot[r] {
			problems = append(problems, fmt.Sprintf("root %s listed twice", g.Vertices[r].ID))
		}
		isRoot[r] = true
		if d.To(int64(r)).Len() > 0 {
			problems = append(problems, fmt.Sprintf("root %s has a parent", g.Vertices[r].ID))
		}
	}

	seen := make(map[model.ID]int, len(g.Vertices))
	for i, v := range g.Vertices {
		if n := d.To(int64(i)).Len(); n > 1 {
			problems = append(problems, fmt.Sprintf("node %s has %d parents", v.ID, n))
		}
		if v.Parent >= 0 && !contains(g.Vertices[v.Parent].Children, i) {
			problems = append(problems, fmt.Sprintf("node %s has a stale parent link to %s", v.ID, g.Vertices[v.Parent].ID))
		}
		if v.Parent < 0 && !isRoot[i] {
			problems = append(problems, fmt.Sprintf("node %s is detached from the forest", v.ID))
		}
		if v.Checked && v.Indeterminate {
			problems = append(problems, fmt.Sprintf("node %s is both checked and indeterminate", v.ID))
		}
		if prev, dup := seen[v.ID]; dup && prev != i {
			problems = append(problems, fmt.Sprintf("duplicate id %s", v.ID))
		}
		seen[v.ID] = i
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: %s", tree.ErrInvariantViolation, strings.Join(problems, "; "))
}

// Verify checks the structure reachable from t. See Graph.Verify.
func Verify(t *tree.Tree) error {
	return FromTree(t).Verify()
}

func (g *Graph) names(nodes []graph.Node) string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = string(g.Vertices[n.ID()].ID)
	}
	sort.Strings(ids)
	return strings.Join(ids, ", ")
}

func contains(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
