package loader

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/checktree/pkg/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"tree.json", FormatJSON, false},
		{"TREE.JSON", FormatJSON, false},
		{"tree.yaml", FormatYAML, false},
		{"dir/tree.yml", FormatYAML, false},
		{"tree.toml", "", true},
		{"tree", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatForPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatForPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FormatForPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestLoadJSONList(t *testing.T) {
	path := writeFile(t, "tree.json", `[
		{"id": 1, "label": "Groceries", "children": [
			{"id": 2, "label": "Milk", "checked": true},
			{"id": 3, "label": "Bread", "expanded": false}
		]},
		{"id": "chores", "label": "Chores"}
	]`)

	roots, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}
	if roots[0].ID != "1" || roots[1].ID != "chores" {
		t.Errorf("unexpected ids %q, %q", roots[0].ID, roots[1].ID)
	}
	kids := roots[0].Children
	if !kids[0].Checked || kids[1].Checked {
		t.Error("unexpected checked flags")
	}
	if !kids[0].IsExpanded() || kids[1].IsExpanded() {
		t.Error("unexpected expanded flags")
	}
}

func TestLoadSingleRootJSON(t *testing.T) {
	path := writeFile(t, "tree.json", `{"id": "r", "label": "Root"}`)
	roots, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(roots) != 1 || roots[0].ID != "r" {
		t.Errorf("unexpected roots %+v", roots)
	}
}

func TestLoadYAML(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []model.ID
	}{
		{"List", "- id: a\n  label: A\n  children:\n    - id: 7\n      label: Seven\n- id: b\n  label: B\n", []model.ID{"a", "b"}},
		{"SingleRoot", "id: r\nlabel: Root\n", []model.ID{"r"}},
		{"Empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roots, err := Load(writeFile(t, "tree.yaml", tt.content))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(roots) != len(tt.want) {
				t.Fatalf("expected %d roots, got %d", len(tt.want), len(roots))
			}
			for i, id := range tt.want {
				if roots[i].ID != id {
					t.Errorf("root %d: got %q, want %q", i, roots[i].ID, id)
				}
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"BadExtension", "tree.txt", "[]", "unsupported"},
		{"MalformedJSON", "tree.json", "[{", "parse JSON"},
		{"MalformedYAML", "tree.yaml", "- id: [", "parse YAML"},
		{"ScalarYAML", "tree.yaml", "hello", "expected a node"},
		{"DuplicateIDs", "tree.json", `[{"id":"a"},{"id":"a"}]`, "duplicate"},
		{"CheckedAndIndeterminate", "tree.yml", "id: a\nchecked: true\nindeterminate: true\n", "both checked"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestCollapseBelow(t *testing.T) {
	roots := []model.Descriptor{{ID: "r", Children: []model.Descriptor{
		{ID: "a", Children: []model.Descriptor{{ID: "a1"}}},
	}}}

	out := CollapseBelow(roots, 1)
	if !out[0].IsExpanded() {
		t.Error("expected root to stay expanded")
	}
	if out[0].Children[0].IsExpanded() || out[0].Children[0].Children[0].IsExpanded() {
		t.Error("expected depth >= 1 to collapse")
	}
	if roots[0].Children[0].Expanded != nil {
		t.Error("expected input to be left untouched")
	}

	if same := CollapseBelow(roots, -1); same[0].Children[0].Expanded != nil {
		t.Error("expected negative depth to keep payload flags")
	}
}
