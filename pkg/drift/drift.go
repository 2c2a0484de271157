// Package drift compares two snapshots of a checklist forest and reports
// what changed between them as severity-ranked alerts.
package drift

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vanderheijden86/checktree/pkg/analysis"
	"github.com/vanderheijden86/checktree/pkg/model"
)

// Severity represents the severity level of a drift alert
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// AlertType categorizes different kinds of drift alerts
type AlertType string

const (
	AlertInvalidStructure AlertType = "invalid_structure"
	AlertNodeRemoved      AlertType = "node_removed"
	AlertNodeMoved        AlertType = "node_moved"
	AlertNodeAdded        AlertType = "node_added"
	AlertNodeReordered    AlertType = "node_reordered"
	AlertLabelChanged     AlertType = "label_changed"
	AlertStateChanged     AlertType = "state_changed"
	AlertProgressChange   AlertType = "progress_change"
)

// Alert represents a single drift detection alert
type Alert struct {
	Type        AlertType `json:"type"`
	Severity    Severity  `json:"severity"`
	Message     string    `json:"message"`
	BaselineVal float64   `json:"baseline_value,omitempty"`
	CurrentVal  float64   `json:"current_value,omitempty"`
	Delta       float64   `json:"delta,omitempty"`
	Details     []string  `json:"details,omitempty"`
	DetectedAt  time.Time `json:"detected_at,omitempty"`
}

// Result contains the complete drift analysis
type Result struct {
	// HasDrift is true if any alerts were generated
	HasDrift bool `json:"has_drift"`

	// Alerts lists all detected drift alerts
	Alerts []Alert `json:"alerts"`

	// Summary statistics
	CriticalCount int `json:"critical_count"`
	WarningCount  int `json:"warning_count"`
	InfoCount     int `json:"info_count"`
}

// Config holds drift thresholds.
type Config struct {
	// ProgressInfoPct is the change in checked-leaf percentage points that
	// raises a progress alert.
	ProgressInfoPct float64 `yaml:"progress_info_pct" json:"progress_info_pct"`
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() *Config {
	return &Config{ProgressInfoPct: 10}
}

// location is where a node sits in a forest.
type location struct {
	node     model.Snapshot
	parent   model.ID // "" for roots
	position int
}

func index(forest []model.Snapshot) map[model.ID]location {
	out := make(map[model.ID]location)
	var walk func(nodes []model.Snapshot, parent model.ID)
	walk = func(nodes []model.Snapshot, parent model.ID) {
		for i, n := range nodes {
			out[n.ID] = location{node: n, parent: parent, position: i}
			walk(n.Children, n.ID)
		}
	}
	walk(forest, "")
	return out
}

// Calculator performs drift detection
type Calculator struct {
	config   *Config
	baseline []model.Snapshot
	current  []model.Snapshot
}

// NewCalculator creates a drift calculator with the given baseline and current snapshot
func NewCalculator(baseline, current []model.Snapshot, cfg *Config) *Calculator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Calculator{
		config:   cfg,
		baseline: baseline,
		current:  current,
	}
}

// Compare runs a Calculator with default thresholds.
func Compare(baseline, current []model.Snapshot) *Result {
	return NewCalculator(baseline, current, nil).Calculate()
}

// Calculate performs drift detection and returns results
func (c *Calculator) Calculate() *Result {
	result := &Result{
		Alerts: make([]Alert, 0),
	}

	c.checkStructure(result)

	before, after := index(c.baseline), index(c.current)
	c.checkMembership(result, before, after)
	c.checkPlacement(result, before, after)
	c.checkContent(result, before, after)
	c.checkProgress(result)

	for _, alert := range result.Alerts {
		switch alert.Severity {
		case SeverityCritical:
			result.CriticalCount++
		case SeverityWarning:
			result.WarningCount++
		case SeverityInfo:
			result.InfoCount++
		}
	}
	result.HasDrift = len(result.Alerts) > 0

	return result
}

// checkStructure flags a current snapshot that could not be loaded back
// into a tree, such as one with repeated ids.
func (c *Calculator) checkStructure(result *Result) {
	if err := analysis.FromSnapshot(c.current).Verify(); err != nil {
		result.Alerts = append(result.Alerts, Alert{
			Type:       AlertInvalidStructure,
			Severity:   SeverityCritical,
			Message:    "Current snapshot is not a valid forest",
			Details:    []string{err.Error()},
			DetectedAt: time.Now().UTC(),
		})
	}
}

func (c *Calculator) checkMembership(result *Result, before, after map[model.ID]location) {
	var removed, added []string
	for id, loc := range before {
		if _, ok := after[id]; !ok {
			removed = append(removed, describe(loc.node))
		}
	}
	for id, loc := range after {
		if _, ok := before[id]; !ok {
			added = append(added, describe(loc.node))
		}
	}
	c.appendGrouped(result, AlertNodeRemoved, SeverityWarning, "%d node(s) removed", removed)
	c.appendGrouped(result, AlertNodeAdded, SeverityInfo, "%d node(s) added", added)
}

// checkPlacement reports nodes that changed parent (moved) and nodes that
// kept their parent but changed position (reordered). A reorder caused only
// by siblings being added or removed still counts.
func (c *Calculator) checkPlacement(result *Result, before, after map[model.ID]location) {
	var moved, reordered []string
	for id, was := range before {
		now, ok := after[id]
		if !ok {
			continue
		}
		switch {
		case was.parent != now.parent:
			moved = append(moved, fmt.Sprintf("%s: %s -> %s", describe(now.node), parentName(was.parent), parentName(now.parent)))
		case was.position != now.position:
			reordered = append(reordered, fmt.Sprintf("%s: position %d -> %d", describe(now.node), was.position, now.position))
		}
	}
	c.appendGrouped(result, AlertNodeMoved, SeverityWarning, "%d node(s) moved to a new parent", moved)
	c.appendGrouped(result, AlertNodeReordered, SeverityInfo, "%d node(s) reordered", reordered)
}

func (c *Calculator) checkContent(result *Result, before, after map[model.ID]location) {
	var relabelled, restated []string
	for id, was := range before {
		now, ok := after[id]
		if !ok {
			continue
		}
		if was.node.Label != now.node.Label {
			relabelled = append(relabelled, fmt.Sprintf("%s: %q -> %q", id, was.node.Label, now.node.Label))
		}
		if s, t := state(was.node), state(now.node); s != t {
			restated = append(restated, fmt.Sprintf("%s: %s -> %s", describe(now.node), s, t))
		}
	}
	c.appendGrouped(result, AlertLabelChanged, SeverityInfo, "%d label(s) changed", relabelled)
	c.appendGrouped(result, AlertStateChanged, SeverityInfo, "%d checkbox state(s) changed", restated)
}

func (c *Calculator) checkProgress(result *Result) {
	bl := analysis.SnapshotStats(c.baseline)
	cur := analysis.SnapshotStats(c.current)
	if bl.Leaves == 0 && cur.Leaves == 0 {
		return
	}
	blPct, curPct := bl.Progress*100, cur.Progress*100
	delta := curPct - blPct
	if math.Abs(delta) < c.config.ProgressInfoPct || delta == 0 {
		return
	}
	result.Alerts = append(result.Alerts, Alert{
		Type:        AlertProgressChange,
		Severity:    SeverityInfo,
		Message:     fmt.Sprintf("Progress changed by %+.1f points (%.1f%% -> %.1f%%)", delta, blPct, curPct),
		BaselineVal: blPct,
		CurrentVal:  curPct,
		Delta:       delta,
		DetectedAt:  time.Now().UTC(),
	})
}

func (c *Calculator) appendGrouped(result *Result, typ AlertType, sev Severity, format string, details []string) {
	if len(details) == 0 {
		return
	}
	sort.Strings(details)
	result.Alerts = append(result.Alerts, Alert{
		Type:       typ,
		Severity:   sev,
		Message:    fmt.Sprintf(format, len(details)),
		Delta:      float64(len(details)),
		Details:    details,
		DetectedAt: time.Now().UTC(),
	})
}

func describe(s model.Snapshot) string {
	if s.Label == "" {
		return string(s.ID)
	}
	return fmt.Sprintf("%s (%s)", s.ID, s.Label)
}

func parentName(id model.ID) string {
	if id == "" {
		return "<root>"
	}
	return string(id)
}

func state(s model.Snapshot) string {
	switch {
	case s.Checked:
		return "checked"
	case s.Indeterminate:
		return "indeterminate"
	default:
		return "unchecked"
	}
}

// Summary returns a human-readable summary of drift results
func (r *Result) Summary() string {
	if !r.HasDrift {
		return "No drift detected. The checklist matches its baseline.\n"
	}

	var sb strings.Builder
	sb.WriteString("Drift Analysis Summary\n")
	sb.WriteString("======================\n\n")

	if r.CriticalCount > 0 {
		sb.WriteString(fmt.Sprintf("🔴 CRITICAL: %d alert(s)\n", r.CriticalCount))
	}
	if r.WarningCount > 0 {
		sb.WriteString(fmt.Sprintf("🟡 WARNING: %d alert(s)\n", r.WarningCount))
	}
	if r.InfoCount > 0 {
		sb.WriteString(fmt.Sprintf("🔵 INFO: %d alert(s)\n", r.InfoCount))
	}

	sb.WriteString("\nDetails:\n")
	for _, alert := range r.Alerts {
		icon := "ℹ️"
		switch alert.Severity {
		case SeverityCritical:
			icon = "🔴"
		case SeverityWarning:
			icon = "🟡"
		}
		sb.WriteString(fmt.Sprintf("  %s [%s] %s\n", icon, alert.Type, alert.Message))
		for _, detail := range alert.Details {
			sb.WriteString(fmt.Sprintf("      - %s\n", detail))
		}
	}
	sb.WriteString("\n")

	return sb.String()
}

// HasCritical returns true if there are any critical alerts
func (r *Result) HasCritical() bool {
	return r.CriticalCount > 0
}

// HasWarnings returns true if there are any warning or critical alerts
func (r *Result) HasWarnings() bool {
	return r.CriticalCount > 0 || r.WarningCount > 0
}

// ExitCode returns suggested exit code for CI use
// 0 = no drift, 1 = critical, 2 = warning, 0 = info only
func (r *Result) ExitCode() int {
	if r.CriticalCount > 0 {
		return 1
	}
	if r.WarningCount > 0 {
		return 2
	}
	return 0
}
