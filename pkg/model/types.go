package model

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ID identifies a tree node. Payloads may carry string or numeric ids; both
// decode to the same textual form, so 7 and "7" name the same node.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// UnmarshalYAML accepts any scalar.
func (id *ID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: id must be a scalar", value.Line)
	}
	*id = ID(value.Value)
	return nil
}

// Descriptor is the construction payload for a node and its subtree.
//
// Absent fields take their defaults at every depth: checked=false,
// expanded=true, indeterminate=false, no children.
type Descriptor struct {
	ID            ID           `json:"id" yaml:"id"`
	Label         string       `json:"label" yaml:"label"`
	Checked       bool         `json:"checked,omitempty" yaml:"checked,omitempty"`
	Expanded      *bool        `json:"expanded,omitempty" yaml:"expanded,omitempty"`
	Indeterminate bool         `json:"indeterminate,omitempty" yaml:"indeterminate,omitempty"`
	Children      []Descriptor `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsExpanded returns the expanded flag, defaulting to true when absent.
func (d Descriptor) IsExpanded() bool {
	return d.Expanded == nil || *d.Expanded
}

// Clone creates a deep copy of the descriptor
func (d Descriptor) Clone() Descriptor {
	clone := d
	if d.Expanded != nil {
		v := *d.Expanded
		clone.Expanded = &v
	}
	if d.Children != nil {
		clone.Children = make([]Descriptor, len(d.Children))
		for i, child := range d.Children {
			clone.Children[i] = child.Clone()
		}
	}
	return clone
}

// Validate checks that the descriptor and its subtree are logically valid
func (d *Descriptor) Validate() error {
	return ValidateForest([]Descriptor{*d})
}

// ValidateForest checks a list of root descriptors: every id non-empty,
// unique across the whole forest, and no node both checked and indeterminate.
func ValidateForest(roots []Descriptor) error {
	seen := make(map[ID]bool)
	var check func(d *Descriptor, path string) error
	check = func(d *Descriptor, path string) error {
		if d.ID == "" {
			return fmt.Errorf("%s: node ID cannot be empty", path)
		}
		if seen[d.ID] {
			return fmt.Errorf("%s: duplicate node ID %q", path, d.ID)
		}
		seen[d.ID] = true
		if d.Checked && d.Indeterminate {
			return fmt.Errorf("%s: node %q cannot be both checked and indeterminate", path, d.ID)
		}
		for i := range d.Children {
			if err := check(&d.Children[i], fmt.Sprintf("%s.children[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	}
	for i := range roots {
		if err := check(&roots[i], fmt.Sprintf("[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot is a read-only deep copy of one node and its subtree. It holds no
// references into a live tree and is safe to serialize.
type Snapshot struct {
	ID            ID         `json:"id" yaml:"id"`
	Label         string     `json:"label" yaml:"label"`
	Checked       bool       `json:"checked" yaml:"checked"`
	Indeterminate bool       `json:"indeterminate" yaml:"indeterminate"`
	Children      []Snapshot `json:"children" yaml:"children"`
}

// Descriptor converts the snapshot back into a construction payload.
// Expanded is left absent, so rebuilt nodes start expanded.
func (s Snapshot) Descriptor() Descriptor {
	d := Descriptor{
		ID:            s.ID,
		Label:         s.Label,
		Checked:       s.Checked,
		Indeterminate: s.Indeterminate,
	}
	if len(s.Children) > 0 {
		d.Children = make([]Descriptor, len(s.Children))
		for i, child := range s.Children {
			d.Children[i] = child.Descriptor()
		}
	}
	return d
}

// Count returns the number of nodes in the snapshot, including itself.
func (s Snapshot) Count() int {
	n := 1
	for _, child := range s.Children {
		n += child.Count()
	}
	return n
}

// Descriptors converts a forest snapshot into construction payloads.
func Descriptors(forest []Snapshot) []Descriptor {
	out := make([]Descriptor, len(forest))
	for i, s := range forest {
		out[i] = s.Descriptor()
	}
	return out
}
