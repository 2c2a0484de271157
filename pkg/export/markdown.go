package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/vanderheijden86/checktree/pkg/model"
)

// GenerateMarkdown renders the forest as a nested task-list checklist.
// Indeterminate nodes are written as "- [-]".
func GenerateMarkdown(forest []model.Snapshot, title string) string {
	var sb strings.Builder

	if title != "" {
		sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	}

	s := Summarize(forest)
	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Total**: %d\n", s.Total))
	sb.WriteString(fmt.Sprintf("- **Checked**: %d\n", s.Checked))
	sb.WriteString(fmt.Sprintf("- **Partial**: %d\n", s.Indeterminate))
	sb.WriteString(fmt.Sprintf("- **Unchecked**: %d\n\n", s.Total-s.Checked-s.Indeterminate))

	sb.WriteString("## Checklist\n\n")
	if len(forest) == 0 {
		sb.WriteString("_No items._\n")
		return sb.String()
	}
	for _, root := range forest {
		writeItem(&sb, root, 0)
	}
	return sb.String()
}

func writeItem(sb *strings.Builder, s model.Snapshot, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString("- ")
	sb.WriteString(Checkbox(s))
	sb.WriteString(" ")
	sb.WriteString(escapeLabel(s.Label))
	sb.WriteString("\n")
	for _, c := range s.Children {
		writeItem(sb, c, depth+1)
	}
}

// Checkbox returns the task-list marker for s.
func Checkbox(s model.Snapshot) string {
	switch {
	case s.Checked:
		return "[x]"
	case s.Indeterminate:
		return "[-]"
	default:
		return "[ ]"
	}
}

// Labels are single-line list items; newlines would break the nesting.
func escapeLabel(label string) string {
	label = strings.ReplaceAll(label, "\r\n", " ")
	return strings.ReplaceAll(label, "\n", " ")
}

// WriteMarkdown writes GenerateMarkdown's output to w.
func WriteMarkdown(w io.Writer, forest []model.Snapshot, title string) error {
	_, err := io.WriteString(w, GenerateMarkdown(forest, title))
	return err
}

// Summary counts node states across a forest.
type Summary struct {
	Total         int
	Checked       int
	Indeterminate int
}

// Summarize walks the forest and counts its nodes by state.
func Summarize(forest []model.Snapshot) Summary {
	var s Summary
	var walk func(nodes []model.Snapshot)
	walk = func(nodes []model.Snapshot) {
		for _, n := range nodes {
			s.Total++
			if n.Checked {
				s.Checked++
			} else if n.Indeterminate {
				s.Indeterminate++
			}
			walk(n.Children)
		}
	}
	walk(forest)
	return s
}
