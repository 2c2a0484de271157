// tree.go - Checkbox tree view driven by controller commands and tree events
package ui

import (
	"fmt"
	"log"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/checktree/pkg/controller"
	"github.com/vanderheijden86/checktree/pkg/export"
	"github.com/vanderheijden86/checktree/pkg/model"
	"github.com/vanderheijden86/checktree/pkg/tree"
)

// PreviewSplitThreshold is the width above which the preview sits beside the
// tree instead of below it.
const PreviewSplitThreshold = 100

type treeKeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Toggle      key.Binding
	Expand      key.Binding
	Collapse    key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	MoveUp      key.Binding
	MoveDown    key.Binding
	Indent      key.Binding
	Outdent     key.Binding
	Add         key.Binding
	Preview     key.Binding
	Copy        key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultTreeKeys() treeKeyMap {
	return treeKeyMap{
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "check")),
		Expand:      key.NewBinding(key.WithKeys("enter", "l", "right"), key.WithHelp("enter/l", "expand")),
		Collapse:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h", "collapse")),
		ExpandAll:   key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "expand all")),
		CollapseAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "collapse all")),
		MoveUp:      key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "move up")),
		MoveDown:    key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "move down")),
		Indent:      key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "indent")),
		Outdent:     key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "outdent")),
		Add:         key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add child")),
		Preview:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "preview")),
		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy json")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k treeKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Expand, k.Add, k.Preview, k.Help, k.Quit}
}

func (k treeKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Expand, k.Collapse},
		{k.Toggle, k.ExpandAll, k.CollapseAll},
		{k.MoveUp, k.MoveDown, k.Indent, k.Outdent},
		{k.Add, k.Preview, k.Copy, k.Quit},
	}
}

// statusMsg replaces the status line text.
type statusMsg string

// TreeModel renders a checkbox tree and turns key presses into controller
// commands. It never touches tree nodes: what it draws comes from its
// Mirror, which only the event stream updates.
type TreeModel struct {
	mirror *Mirror
	cmds   controller.Commands
	tree   *tree.Tree
	sub    tree.Subscription

	rows   []Row
	cursor int

	viewport viewport.Model
	theme    Theme
	keys     treeKeyMap
	help     help.Model

	input     textinput.Model
	prompting bool

	preview         bool
	previewPort     viewport.Model
	previewRenderer *glamour.TermRenderer

	status string
	width  int
	height int
}

var _ controller.Mount = (*TreeModel)(nil)

// NewTreeModel creates an unmounted tree view.
func NewTreeModel(theme Theme) *TreeModel {
	ti := textinput.New()
	ti.Placeholder = "label"
	ti.Prompt = "New item: "
	ti.CharLimit = 200

	h := help.New()
	return &TreeModel{
		mirror: NewMirror(),
		theme:  theme,
		keys:   defaultTreeKeys(),
		help:   h,
		input:  ti,
	}
}

// Mount attaches the view to t. A previously mounted tree is released first.
func (t *TreeModel) Mount(tr *tree.Tree, cmds controller.Commands) {
	if t.tree != nil {
		t.tree.Unsubscribe(t.sub)
	}
	t.tree = tr
	t.cmds = cmds
	t.mirror.Reset(tr)
	t.sub = tr.Subscribe(t.mirror.Apply)
	t.refresh()
}

// Mirror exposes the view's presentation state.
func (t *TreeModel) Mirror() *Mirror { return t.mirror }

// SetSize updates the available dimensions for the tree view.
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.help.Width = width
	t.layout()
}

func (t *TreeModel) layout() {
	bodyHeight := t.height - 2 // status + help lines
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	treeWidth := t.width
	if t.preview {
		if t.width > PreviewSplitThreshold {
			treeWidth = t.width / 2
			t.previewPort.Width = t.width - treeWidth - 1
			t.previewPort.Height = bodyHeight
		} else {
			t.previewPort.Width = t.width
			t.previewPort.Height = bodyHeight / 2
			bodyHeight -= t.previewPort.Height
		}
		t.previewRenderer = t.newPreviewRenderer(t.previewPort.Width)
	}
	t.viewport.Width = treeWidth
	t.viewport.Height = bodyHeight
	t.refresh()
}

func (t *TreeModel) newPreviewRenderer(width int) *glamour.TermRenderer {
	style := "light"
	if t.theme.Renderer.HasDarkBackground() {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Printf("warning: markdown preview unavailable: %v", err)
		return nil
	}
	return r
}

// Rows returns the currently visible rows.
func (t *TreeModel) Rows() []Row { return t.rows }

// SelectedID returns the id under the cursor, or "" when the tree is empty.
func (t *TreeModel) SelectedID() model.ID {
	if t.cursor >= 0 && t.cursor < len(t.rows) {
		return t.rows[t.cursor].ID
	}
	return ""
}

// SelectByID moves the cursor to id if it is visible.
func (t *TreeModel) SelectByID(id model.ID) bool {
	for i, r := range t.rows {
		if r.ID == id {
			t.cursor = i
			t.scrollToCursor()
			return true
		}
	}
	return false
}

// Prompting reports whether the add-item prompt has focus.
func (t *TreeModel) Prompting() bool { return t.prompting }

// Update handles one message and returns any follow-up command.
func (t *TreeModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case statusMsg:
		t.status = string(msg)
		return nil
	case tea.KeyMsg:
		if t.prompting {
			return t.updatePrompt(msg)
		}
		return t.handleKey(msg)
	}
	return nil
}

func (t *TreeModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if t.cmds == nil {
		return nil
	}
	id := t.SelectedID()
	switch {
	case key.Matches(msg, t.keys.Up):
		t.moveCursor(-1)
		return nil
	case key.Matches(msg, t.keys.Down):
		t.moveCursor(1)
		return nil
	case key.Matches(msg, t.keys.Help):
		t.help.ShowAll = !t.help.ShowAll
		return nil
	case key.Matches(msg, t.keys.Add):
		t.prompting = true
		t.input.Reset()
		return t.input.Focus()
	case key.Matches(msg, t.keys.Preview):
		t.preview = !t.preview
		t.layout()
		return nil
	case key.Matches(msg, t.keys.ExpandAll):
		t.cmds.ExpandAll()
	case key.Matches(msg, t.keys.CollapseAll):
		t.cmds.CollapseAll()
	}
	if id == "" {
		t.refresh()
		return nil
	}

	switch {
	case key.Matches(msg, t.keys.Toggle):
		row := t.rows[t.cursor]
		t.cmds.SetChecked(id, !row.Checked)
	case key.Matches(msg, t.keys.Expand):
		if row := t.rows[t.cursor]; row.HasChildren && !row.Expanded {
			t.cmds.ToggleExpand(id)
		} else if row.HasChildren {
			t.moveCursor(1)
			return nil
		}
	case key.Matches(msg, t.keys.Collapse):
		if row := t.rows[t.cursor]; row.HasChildren && row.Expanded {
			t.cmds.ToggleExpand(id)
		} else if parent := t.mirror.ParentID(id); parent != "" {
			t.refresh()
			t.SelectByID(parent)
			return nil
		}
	case key.Matches(msg, t.keys.MoveUp):
		t.cmds.MoveUp(id)
	case key.Matches(msg, t.keys.MoveDown):
		t.cmds.MoveDown(id)
	case key.Matches(msg, t.keys.Indent):
		t.cmds.Indent(id)
	case key.Matches(msg, t.keys.Outdent):
		t.cmds.Outdent(id)
	case key.Matches(msg, t.keys.Copy):
		return t.copySelected(id)
	}
	t.refresh()
	t.SelectByID(id)
	return nil
}

func (t *TreeModel) updatePrompt(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		t.prompting = false
		t.input.Blur()
		return nil
	case tea.KeyEnter:
		t.prompting = false
		t.input.Blur()
		label := strings.TrimSpace(t.input.Value())
		if label == "" {
			return nil
		}
		d := model.Descriptor{ID: t.newID(label), Label: label}
		parent := t.SelectedID()
		var ok bool
		if parent == "" {
			ok = t.cmds.AddRoot(d)
		} else {
			ok = t.cmds.AddChild(parent, d)
		}
		t.refresh()
		if ok {
			t.SelectByID(d.ID)
			t.status = fmt.Sprintf("added %q", label)
		}
		return nil
	}
	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	return cmd
}

// newID derives an unused id from label.
func (t *TreeModel) newID(label string) model.ID {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(label) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			dash = false
		} else if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	base := strings.TrimSuffix(sb.String(), "-")
	if base == "" {
		base = "item"
	}
	id := model.ID(base)
	for n := 2; t.mirror.Has(id); n++ {
		id = model.ID(fmt.Sprintf("%s-%d", base, n))
	}
	return id
}

func (t *TreeModel) copySelected(id model.ID) tea.Cmd {
	snap, ok := t.mirror.SubtreeSnapshot(id)
	if !ok {
		return nil
	}
	return func() tea.Msg {
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return statusMsg(fmt.Sprintf("copy failed: %v", err))
		}
		if err := clipboard.WriteAll(string(data)); err != nil {
			log.Printf("warning: clipboard copy failed: %v", err)
			return statusMsg("clipboard unavailable")
		}
		return statusMsg(fmt.Sprintf("copied %s (%d nodes)", id, snap.Count()))
	}
}

func (t *TreeModel) moveCursor(delta int) {
	t.cursor += delta
	t.clampCursor()
	t.scrollToCursor()
}

func (t *TreeModel) clampCursor() {
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

// refresh re-reads the visible rows from the mirror.
func (t *TreeModel) refresh() {
	t.rows = t.mirror.Visible()
	t.clampCursor()
	t.scrollToCursor()
}

func (t *TreeModel) scrollToCursor() {
	if t.viewport.Height <= 0 {
		return
	}
	if t.cursor < t.viewport.YOffset {
		t.viewport.SetYOffset(t.cursor)
	} else if t.cursor >= t.viewport.YOffset+t.viewport.Height {
		t.viewport.SetYOffset(t.cursor - t.viewport.Height + 1)
	}
}

// View renders the tree view. Rows are re-read first, since the tree may
// have changed through commands that did not come from this view.
func (t *TreeModel) View() string {
	t.refresh()
	var body string
	if len(t.rows) == 0 {
		body = t.renderEmptyState()
	} else {
		lines := make([]string, len(t.rows))
		for i, row := range t.rows {
			line := t.renderRow(row)
			if i == t.cursor {
				line = t.theme.Selected.Render(line)
			}
			lines[i] = line
		}
		t.viewport.SetContent(strings.Join(lines, "\n"))
		body = t.viewport.View()
	}

	if t.preview {
		pane := t.renderPreview()
		if t.width > PreviewSplitThreshold {
			body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", pane)
		} else {
			body = lipgloss.JoinVertical(lipgloss.Left, body, pane)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, t.renderStatus(), t.help.View(t.keys))
}

func (t *TreeModel) renderPreview() string {
	md := export.GenerateMarkdown(t.mirror.Snapshot(), "Checklist")
	content := md
	if t.previewRenderer != nil {
		if out, err := t.previewRenderer.Render(md); err == nil {
			content = out
		}
	}
	t.previewPort.SetContent(content)
	return t.previewPort.View()
}

func (t *TreeModel) renderStatus() string {
	r := t.theme.Renderer
	if t.prompting {
		return t.input.View()
	}
	sum := export.Summarize(t.mirror.Snapshot())
	counts := r.NewStyle().Foreground(t.theme.Secondary).Render(fmt.Sprintf("%d/%d checked", sum.Checked, sum.Total))
	if t.status == "" {
		return counts
	}
	return counts + "  " + r.NewStyle().Foreground(t.theme.Subtext).Render(t.status)
}

// renderEmptyState renders the view when there are no nodes.
func (t *TreeModel) renderEmptyState() string {
	r := t.theme.Renderer
	titleStyle := r.NewStyle().Foreground(t.theme.Primary).Bold(true)
	mutedStyle := r.NewStyle().Foreground(t.theme.Muted)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Checklist"))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("Nothing here yet."))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render("Press a to add the first item."))
	return sb.String()
}

// renderRow renders a single row with tree characters, checkbox and label.
func (t *TreeModel) renderRow(row Row) string {
	r := t.theme.Renderer
	var sb strings.Builder

	prefix := t.buildTreePrefix(row)
	sb.WriteString(prefix)

	indicatorStyle := r.NewStyle().Foreground(t.theme.Secondary)
	sb.WriteString(indicatorStyle.Render(expandIndicator(row)))
	sb.WriteString(" ")

	box, color := checkbox(row, t.theme)
	sb.WriteString(r.NewStyle().Foreground(color).Bold(true).Render(box))
	sb.WriteString(" ")

	maxLabel := t.viewport.Width - lipgloss.Width(prefix) - 6
	if maxLabel < 10 {
		maxLabel = 10
	}
	label := runewidth.Truncate(row.Label, maxLabel, "…")
	if row.Checked {
		sb.WriteString(r.NewStyle().Foreground(t.theme.Muted).Strikethrough(true).Render(label))
	} else {
		sb.WriteString(t.theme.Base.Render(label))
	}
	return sb.String()
}

// buildTreePrefix builds the indentation and branch characters for a row.
func (t *TreeModel) buildTreePrefix(row Row) string {
	if row.Depth == 0 {
		return ""
	}
	var sb strings.Builder
	// Guides[0] belongs to the root level, which draws no connector.
	for _, last := range row.Guides[1:] {
		if last {
			sb.WriteString("    ")
		} else {
			sb.WriteString("│   ")
		}
	}
	if row.Last {
		sb.WriteString("└── ")
	} else {
		sb.WriteString("├── ")
	}
	return t.theme.Renderer.NewStyle().Foreground(t.theme.Muted).Render(sb.String())
}

func expandIndicator(row Row) string {
	if !row.HasChildren {
		return "•"
	}
	if row.Expanded {
		return "▾"
	}
	return "▸"
}

func checkbox(row Row, theme Theme) (string, lipgloss.AdaptiveColor) {
	switch {
	case row.Checked:
		return "[x]", theme.Checked
	case row.Indeterminate:
		return "[-]", theme.Partial
	default:
		return "[ ]", theme.Muted
	}
}
