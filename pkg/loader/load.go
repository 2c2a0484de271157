// Package loader reads tree payloads from disk and watches them for changes.
//
// A payload is either a single node descriptor or a list of root
// descriptors, encoded as JSON (.json) or YAML (.yaml, .yml).
package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/checktree/pkg/model"
)

// Format identifies a payload encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the payload format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported payload extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// Load reads, decodes and validates the payload at path.
func Load(path string) ([]model.Descriptor, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	roots, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return roots, nil
}

// Parse decodes and validates a payload.
func Parse(data []byte, format Format) ([]model.Descriptor, error) {
	var (
		roots []model.Descriptor
		err   error
	)
	switch format {
	case FormatJSON:
		roots, err = parseJSON(data)
	case FormatYAML:
		roots, err = parseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported payload format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if err := model.ValidateForest(roots); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return roots, nil
}

func parseJSON(data []byte) ([]model.Descriptor, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '{' {
		var root model.Descriptor
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("parse JSON payload: %w", err)
		}
		return []model.Descriptor{root}, nil
	}
	var roots []model.Descriptor
	if err := json.Unmarshal(data, &roots); err != nil {
		return nil, fmt.Errorf("parse JSON payload: %w", err)
	}
	return roots, nil
}

func parseYAML(data []byte) ([]model.Descriptor, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse YAML payload: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	body := doc.Content[0]
	switch body.Kind {
	case yaml.MappingNode:
		var root model.Descriptor
		if err := body.Decode(&root); err != nil {
			return nil, fmt.Errorf("parse YAML payload: %w", err)
		}
		return []model.Descriptor{root}, nil
	case yaml.SequenceNode:
		var roots []model.Descriptor
		if err := body.Decode(&roots); err != nil {
			return nil, fmt.Errorf("parse YAML payload: %w", err)
		}
		return roots, nil
	default:
		return nil, fmt.Errorf("parse YAML payload: line %d: expected a node or a list of nodes", body.Line)
	}
}

// CollapseBelow marks every descriptor deeper than depth as collapsed, with
// roots at depth 0. A negative depth leaves the payload's own flags alone.
func CollapseBelow(roots []model.Descriptor, depth int) []model.Descriptor {
	if depth < 0 {
		return roots
	}
	out := make([]model.Descriptor, len(roots))
	for i, r := range roots {
		out[i] = collapse(r.Clone(), 0, depth)
	}
	return out
}

func collapse(d model.Descriptor, level, depth int) model.Descriptor {
	if level >= depth {
		collapsed := false
		d.Expanded = &collapsed
	}
	for i := range d.Children {
		d.Children[i] = collapse(d.Children[i], level+1, depth)
	}
	return d
}
