// Package export writes forest snapshots in the formats the CLI offers:
// JSON, YAML, a Markdown checklist and SVG/PNG diagrams.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/checktree/pkg/model"
)

// Format is an export format name.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "md"
	FormatSVG      Format = "svg"
	FormatPNG      Format = "png"
)

// AllFormats lists every supported format.
var AllFormats = []Format{FormatJSON, FormatYAML, FormatMarkdown, FormatSVG, FormatPNG}

// ParseFormat accepts a format name or a common alias ("yml", "markdown").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Binary reports whether the format produces non-text output.
func (f Format) Binary() bool {
	return f == FormatPNG
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Write writes forest to w in format f. title is used by Markdown only.
func Write(w io.Writer, f Format, forest []model.Snapshot, title string) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, forest)
	case FormatYAML:
		return WriteYAML(w, forest)
	case FormatMarkdown:
		return WriteMarkdown(w, forest, title)
	case FormatSVG:
		return WriteSVG(w, forest)
	case FormatPNG:
		return WritePNG(w, forest)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// Stdout is the Target path meaning standard output.
const Stdout = "-"

// Target is one requested export.
type Target struct {
	Format Format
	Path   string // Stdout for standard output
}

// WriteAll writes every target concurrently from the same forest. File
// targets are written directly; stdout targets are rendered to buffers and
// copied to stdout in request order once all writers have finished, so their
// output never interleaves. The forest must not be modified during the call.
func WriteAll(ctx context.Context, forest []model.Snapshot, title string, targets []Target, stdout io.Writer) error {
	for _, t := range targets {
		if t.Path == Stdout && t.Format.Binary() {
			return fmt.Errorf("%s export cannot be written to stdout", t.Format)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	buffers := make([]*bytes.Buffer, len(targets))

	for i, t := range targets {
		i, t := i, t // per-iteration copies for go < 1.22 loop semantics
		if t.Path == Stdout {
			buffers[i] = new(bytes.Buffer)
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if buffers[i] != nil {
				return Write(buffers[i], t.Format, forest, title)
			}
			return writeFile(t.Path, t.Format, forest, title)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, buf := range buffers {
		if buf == nil {
			continue
		}
		if _, err := io.Copy(stdout, buf); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, f Format, forest []model.Snapshot, title string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export %s: %w", path, err)
		}
	}
	var buf bytes.Buffer
	if err := Write(&buf, f, forest, title); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}
