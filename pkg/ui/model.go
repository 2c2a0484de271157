package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/checktree/pkg/controller"
	"github.com/vanderheijden86/checktree/pkg/loader"
	"github.com/vanderheijden86/checktree/pkg/tree"
)

// Model is the top-level bubbletea model. It owns the tree and its
// controller and swaps both when the payload file is reloaded.
type Model struct {
	tree *tree.Tree
	ctrl *controller.Controller
	view *TreeModel

	expandDepth int
	ready       bool
	width       int
	height      int
}

// NewModel mounts a tree view on t.
func NewModel(t *tree.Tree, theme Theme) (Model, error) {
	view := NewTreeModel(theme)
	ctrl, err := controller.New(t, view)
	if err != nil {
		return Model{}, err
	}
	return Model{tree: t, ctrl: ctrl, view: view, expandDepth: -1}, nil
}

// WithExpandDepth collapses reloaded payloads below depth; -1 keeps their
// own flags.
func (m Model) WithExpandDepth(depth int) Model {
	m.expandDepth = depth
	return m
}

// Tree returns the tree currently on screen.
func (m Model) Tree() *tree.Tree { return m.tree }

// TreeView returns the mounted tree view.
func (m Model) TreeView() *TreeModel { return m.view }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.view.SetSize(msg.Width, msg.Height)
		return m, nil

	case ReloadMsg:
		roots := loader.CollapseBelow(msg.Roots, m.expandDepth)
		t, err := tree.FromDescriptors(roots)
		if err != nil {
			m.view.status = fmt.Sprintf("reload rejected: %v", err)
			return m, nil
		}
		selected := m.view.SelectedID()
		ctrl, err := controller.New(t, m.view)
		if err != nil {
			m.view.status = fmt.Sprintf("reload rejected: %v", err)
			return m, nil
		}
		m.tree, m.ctrl = t, ctrl
		m.view.SelectByID(selected)
		m.view.status = fmt.Sprintf("reloaded %d nodes", t.Len())
		return m, nil

	case ReloadErrorMsg:
		m.view.status = fmt.Sprintf("reload failed: %v", msg.Err)
		return m, nil

	case tea.KeyMsg:
		if !m.view.Prompting() && key.Matches(msg, m.view.keys.Quit) {
			return m, tea.Quit
		}
	}
	return m, m.view.Update(msg)
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.view.View()
}
