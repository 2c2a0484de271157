package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/checktree/pkg/analysis"
	"github.com/vanderheijden86/checktree/pkg/config"
	"github.com/vanderheijden86/checktree/pkg/drift"
	"github.com/vanderheijden86/checktree/pkg/export"
	"github.com/vanderheijden86/checktree/pkg/loader"
	"github.com/vanderheijden86/checktree/pkg/model"
	"github.com/vanderheijden86/checktree/pkg/tree"
	"github.com/vanderheijden86/checktree/pkg/ui"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	inputFlag := flag.String("input", "", "Payload file to open (.json, .yaml, .yml)")
	configFlag := flag.String("config", "", "Config file (default: $CHECKTREE_CONFIG, .checktree/config.yaml, ~/.config/checktree/config.yaml)")
	watchFlag := flag.Bool("watch", false, "Reload the payload when it changes on disk")
	expandDepth := flag.Int("expand-depth", -1, "Collapse nodes at this depth and below (-1 keeps payload flags)")
	themeFlag := flag.String("theme", "", "Color theme: auto, dark or light")
	robotSnapshot := flag.Bool("robot-snapshot", false, "Output the tree snapshot as JSON and exit")
	robotStats := flag.Bool("robot-stats", false, "Output tree statistics as JSON and exit")
	robotDiff := flag.String("robot-diff", "", "Compare against a baseline payload and output drift as JSON (exit codes: 0=OK, 1=critical, 2=warning)")
	checkDrift := flag.String("check-drift", "", "Compare against a baseline payload and print a readable drift summary")
	exportJSON := flag.String("export-json", "", "Export the snapshot as JSON (- for stdout)")
	exportYAML := flag.String("export-yaml", "", "Export the snapshot as YAML (- for stdout)")
	exportMD := flag.String("export-md", "", "Export a Markdown checklist (- for stdout)")
	exportSVG := flag.String("export-svg", "", "Export an SVG diagram (- for stdout)")
	exportPNG := flag.String("export-png", "", "Export a PNG diagram")
	exportAll := flag.Bool("export-all", false, "Export every configured format into the configured export directory")
	initConfig := flag.Bool("init-config", false, "Print an example config file and exit")
	debugLog := flag.String("debug-log", "", "Write TUI diagnostics to this file")
	flag.Parse()

	if *help {
		fmt.Println("Usage: checktree [options] [payload]")
		fmt.Println("\nAn interactive checkbox tree for JSON and YAML checklists.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("checktree %s\n", version)
		os.Exit(0)
	}

	if *initConfig {
		data, err := config.ExampleConfig().Marshal()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding example config: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
		os.Exit(0)
	}

	cfg, cfgPath, err := config.Resolve(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *themeFlag != "" {
		cfg.Theme = *themeFlag
	}
	if flagSet("expand-depth") {
		cfg.ExpandDepth = *expandDepth
	}
	if *watchFlag {
		cfg.Watch = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	input, err := resolveInput(*inputFlag, flag.Arg(0), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if cfgPath != "" {
			fmt.Fprintf(os.Stderr, "  (config: %s)\n", cfgPath)
		}
		os.Exit(1)
	}

	roots, err := loader.Load(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", input, err)
		os.Exit(1)
	}
	t, err := tree.FromDescriptors(loader.CollapseBelow(roots, cfg.ExpandDepth))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", input, err)
		os.Exit(1)
	}

	if *robotSnapshot {
		if err := writeJSON(os.Stdout, t.Snapshot()); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding snapshot: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *robotStats {
		if err := writeJSON(os.Stdout, statsOutput(t)); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding stats: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *robotDiff != "" || *checkDrift != "" {
		baselinePath := *robotDiff
		if baselinePath == "" {
			baselinePath = *checkDrift
		}
		baseline, err := loadSnapshot(baselinePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading baseline: %v\n", err)
			os.Exit(1)
		}
		result := drift.Compare(baseline, t.Snapshot())
		if *robotDiff != "" {
			if err := writeJSON(os.Stdout, diffOutput(result, baselinePath)); err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding drift result: %v\n", err)
				os.Exit(1)
			}
		} else {
			fmt.Print(result.Summary())
		}
		os.Exit(result.ExitCode())
	}

	targets := collectTargets(map[export.Format]string{
		export.FormatJSON:     *exportJSON,
		export.FormatYAML:     *exportYAML,
		export.FormatMarkdown: *exportMD,
		export.FormatSVG:      *exportSVG,
		export.FormatPNG:      *exportPNG,
	}, cfg)
	if *exportAll {
		targets = append(targets, defaultTargets(cfg, input)...)
	}
	if len(targets) > 0 {
		tty := term.IsTerminal(int(os.Stdout.Fd()))
		if err := runExports(context.Background(), t.Snapshot(), title(input), targets, os.Stdout, tty); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
			os.Exit(1)
		}
		for _, tg := range targets {
			if tg.Path != export.Stdout {
				fmt.Fprintf(os.Stderr, "Wrote %s\n", tg.Path)
			}
		}
		if *exportAll {
			if err := cfg.IgnoreExportDir(); err != nil {
				log.Printf("warning: updating .gitignore: %v", err)
			}
		}
		os.Exit(0)
	}

	if *debugLog != "" {
		f, err := tea.LogToFile(*debugLog, "checktree")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening debug log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	}

	theme := ui.ThemeForMode(lipgloss.NewRenderer(os.Stdout), cfg.Theme)
	m, err := ui.NewModel(t, theme)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	m = m.WithExpandDepth(cfg.ExpandDepth)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if cfg.Watch {
		w, err := ui.NewReloadWorker(ui.ReloadConfig{Path: input, Sender: p})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error watching %s: %v\n", input, err)
			os.Exit(1)
		}
		if err := w.SetBaseline(roots); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		if err := w.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error watching %s: %v\n", input, err)
			os.Exit(1)
		}
		defer w.Stop()
	}

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running checktree: %v\n", err)
		os.Exit(1)
	}
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// resolveInput picks the payload: the --input flag, then the positional
// argument, then the config's input, then the only payload file under the
// project's .checktree/ directory.
func resolveInput(flagValue, arg string, cfg config.Config) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if arg != "" {
		return arg, nil
	}
	if cfg.Input != "" {
		return cfg.ResolvePath(cfg.Input), nil
	}
	if cfg.Dir != "" {
		found := config.ScanPayloads(cfg.Dir, 1)
		switch len(found) {
		case 1:
			return found[0], nil
		case 0:
		default:
			return "", fmt.Errorf("several payloads in %s, pick one with --input: %s",
				filepath.Join(cfg.Dir, config.ProjectDir), strings.Join(found, ", "))
		}
	}
	return "", fmt.Errorf("no payload given (use --input FILE)")
}

// collectTargets turns the per-format export flags into targets, in the
// fixed order of export.AllFormats. Relative file paths go under the
// configured export directory when one is set.
func collectTargets(flags map[export.Format]string, cfg config.Config) []export.Target {
	var targets []export.Target
	for _, f := range export.AllFormats {
		path := flags[f]
		if path == "" {
			continue
		}
		targets = append(targets, export.Target{Format: f, Path: exportPath(path, cfg)})
	}
	return targets
}

// defaultTargets writes each configured format next to the others, named
// after the payload file.
func defaultTargets(cfg config.Config, input string) []export.Target {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	var targets []export.Target
	for _, f := range cfg.ExportFormats() {
		targets = append(targets, export.Target{Format: f, Path: exportPath(base+f.Ext(), cfg)})
	}
	return targets
}

func exportPath(path string, cfg config.Config) string {
	if path == export.Stdout || filepath.IsAbs(path) || cfg.Export.Dir == "" {
		return path
	}
	return filepath.Join(cfg.ResolvePath(cfg.Export.Dir), path)
}

// runExports writes every target. On a terminal, a Markdown export to
// stdout is rendered with glamour instead of printed raw.
func runExports(ctx context.Context, forest []model.Snapshot, title string, targets []export.Target, stdout io.Writer, tty bool) error {
	renderMarkdown := false
	rest := targets[:0:0]
	for _, tg := range targets {
		if tty && tg.Format == export.FormatMarkdown && tg.Path == export.Stdout {
			renderMarkdown = true
			continue
		}
		rest = append(rest, tg)
	}

	if err := export.WriteAll(ctx, forest, title, rest, stdout); err != nil {
		return err
	}
	if !renderMarkdown {
		return nil
	}

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return export.WriteMarkdown(stdout, forest, title)
	}
	out, err := r.Render(export.GenerateMarkdown(forest, title))
	if err != nil {
		return export.WriteMarkdown(stdout, forest, title)
	}
	_, err = io.WriteString(stdout, out)
	return err
}

func title(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// loadSnapshot reads a payload or a previous JSON/YAML export. Exports are
// valid payloads, so both go through the loader.
func loadSnapshot(path string) ([]model.Snapshot, error) {
	roots, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	t, err := tree.FromDescriptors(roots)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t.Snapshot(), nil
}

type statsReport struct {
	GeneratedAt string         `json:"generated_at"`
	Stats       analysis.Stats `json:"stats"`
	Valid       bool           `json:"valid"`
	Problems    string         `json:"problems,omitempty"`
}

func statsOutput(t *tree.Tree) statsReport {
	out := statsReport{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Stats:       analysis.TreeStats(t),
		Valid:       true,
	}
	if err := analysis.Verify(t); err != nil {
		out.Valid = false
		out.Problems = err.Error()
	}
	return out
}

type diffReport struct {
	GeneratedAt string        `json:"generated_at"`
	Baseline    string        `json:"baseline"`
	HasDrift    bool          `json:"has_drift"`
	ExitCode    int           `json:"exit_code"`
	Alerts      []drift.Alert `json:"alerts"`
	Summary     struct {
		Critical int `json:"critical"`
		Warning  int `json:"warning"`
		Info     int `json:"info"`
	} `json:"summary"`
}

func diffOutput(result *drift.Result, baseline string) diffReport {
	out := diffReport{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Baseline:    baseline,
		HasDrift:    result.HasDrift,
		ExitCode:    result.ExitCode(),
		Alerts:      result.Alerts,
	}
	out.Summary.Critical = result.CriticalCount
	out.Summary.Warning = result.WarningCount
	out.Summary.Info = result.InfoCount
	return out
}

func writeJSON(w io.Writer, v any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
