package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/catalogtree/pkg/catalog"
	"github.com/vanderheijden86/catalogtree/pkg/config"
	"github.com/vanderheijden86/catalogtree/pkg/debug"
	"github.com/vanderheijden86/catalogtree/pkg/drag"
	"github.com/vanderheijden86/catalogtree/pkg/model"
	"github.com/vanderheijden86/catalogtree/pkg/tree"
)

// zoneOrder is the cycle order for the zone keys during a keyboard drag.
var zoneOrder = []model.DropZone{model.ZoneAbove, model.ZoneCenter, model.ZoneBelow}

// Option configures a Model.
type Option func(*Model)

// WithTheme overrides the default theme.
func WithTheme(theme Theme) Option {
	return func(m *Model) { m.theme = theme }
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) { m.copy = write }
}

// WithStateDir persists expand/collapse state in dir.
func WithStateDir(dir string) Option {
	return func(m *Model) { m.stateDir = dir }
}

// WithDragOptions passes extra options to the drag session, after the ones
// derived from config.
func WithDragOptions(opts ...drag.Option) Option {
	return func(m *Model) { m.dragOpts = append(m.dragOpts, opts...) }
}

// Model is the catalog viewer. It reads the tree through store snapshots and
// changes it only through the drag session.
type Model struct {
	store     *catalog.Store
	sub       *catalog.Subscription
	session   *drag.Session
	expansion *tree.Expansion
	tree      TreeModel
	theme     Theme
	keys      KeyMap
	cfg       config.Config

	copy     func(string) error
	stateDir string
	dragOpts []drag.Option

	width   int
	height  int
	ready    bool
	showHelp bool
	version  uint64
	zone    model.DropZone // Zone picked with the keyboard during a drag

	status    string
	statusErr bool
}

// NewModel creates the viewer. f must be the flattener registered as the
// store's remove hook so moved nodes are purged from the projection.
func NewModel(store *catalog.Store, f *tree.Flattener, cfg config.Config, opts ...Option) Model {
	m := Model{
		store:     store,
		expansion: tree.NewExpansion(cfg.UI.ExpandAll),
		keys:      DefaultKeyMap(),
		cfg:       cfg,
		copy:      clipboard.WriteAll,
		theme:     DefaultTheme(lipgloss.DefaultRenderer()),
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.session = drag.NewSession(store, f, m.expansion, append(drag.FromConfig(cfg), m.dragOpts...)...)
	m.tree = NewTreeModel(m.theme, f, m.expansion)
	m.tree.SetIndent(cfg.UI.IndentWidth)
	m.sub = store.Subscribe()
	if m.stateDir != "" {
		m.tree.SetStateDir(m.stateDir)
	}
	return m
}

// Init starts listening for catalog snapshots.
func (m Model) Init() tea.Cmd {
	return WaitForSnapshot(m.sub)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.tree.SetSize(msg.Width, max(msg.Height-2, 1)) // header + footer
		return m, nil

	case SnapshotMsg:
		if msg.Version >= m.version {
			m.version = msg.Version
			m.tree.SetRoots(msg.Roots)
			debug.Log("snapshot v%d: %d rows", msg.Version, m.tree.RowCount())
		}
		return m, WaitForSnapshot(m.sub)

	case dwellTickMsg:
		if !m.session.IsDragging() {
			return m, nil
		}
		expanded, err := m.session.Dwell()
		if err != nil {
			m.setError(err)
		}
		if expanded {
			m.tree.Refresh()
		}
		return m, dwellTick()

	case tea.KeyMsg:
		if m.session.IsDragging() {
			return m.handleDragKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status, m.statusErr = "", false

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.sub.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.tree.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.tree.MoveDown()
	case key.Matches(msg, m.keys.Left):
		m.tree.CollapseOrJumpToParent()
	case key.Matches(msg, m.keys.Right):
		m.tree.ExpandOrMoveToChild()
	case key.Matches(msg, m.keys.Toggle):
		m.tree.ToggleExpand()
	case key.Matches(msg, m.keys.Top):
		m.tree.JumpToTop()
	case key.Matches(msg, m.keys.Bottom):
		m.tree.JumpToBottom()
	case key.Matches(msg, m.keys.PageUp):
		m.tree.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.tree.PageDown()
	case key.Matches(msg, m.keys.ExpandAll):
		m.tree.ExpandAll()
	case key.Matches(msg, m.keys.CollapseAll):
		m.tree.CollapseAll()
	case key.Matches(msg, m.keys.Copy):
		m.copyPath()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Pick):
		return m.startDrag()
	}
	return m, nil
}

func (m Model) handleDragKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.session.DragEnd()
		m.sub.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		m.session.DragEnd()
		m.tree.setMarks(dragMarks{})
		m.status = "Drag cancelled"
		return m, nil
	case key.Matches(msg, m.keys.Drop):
		m.drop()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.tree.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.tree.MoveDown()
	case key.Matches(msg, m.keys.NextZone):
		m.zone = cycleZone(m.zone, 1)
	case key.Matches(msg, m.keys.PrevZone):
		m.zone = cycleZone(m.zone, -1)
	default:
		return m, nil
	}
	m.hover()
	return m, nil
}

// startDrag picks up the selected row.
func (m Model) startDrag() (tea.Model, tea.Cmd) {
	row := m.tree.Selected()
	if row == nil {
		return m, nil
	}
	if err := m.session.DragStart(row); err != nil {
		m.setError(err)
		return m, nil
	}
	m.zone = model.ZoneCenter
	m.tree.Refresh() // dragged node collapsed
	m.tree.SelectByID(row.ID)
	m.hover()
	return m, dwellTick()
}

// hover reports the cursor row and zone to the session.
func (m *Model) hover() {
	row := m.tree.Selected()
	if row == nil {
		return
	}
	zone, err := m.session.DragOver(row, m.session.FractionFor(m.zone))
	if err != nil {
		m.setError(err)
		return
	}
	dragged := m.session.Dragged()
	m.tree.setMarks(dragMarks{dragged: dragged.ID, hover: row.ID, zone: zone})
	m.status = fmt.Sprintf("Dragging %q %s %q", dragged.Name, zone, row.Name)
	m.statusErr = false
}

func cycleZone(z model.DropZone, step int) model.DropZone {
	i := 1
	for j, zz := range zoneOrder {
		if zz == z {
			i = j
		}
	}
	n := len(zoneOrder)
	return zoneOrder[((i+step)%n+n)%n]
}

// drop ends the drag on the cursor row.
func (m *Model) drop() {
	target := m.tree.Selected()
	dragged := m.session.Dragged()
	m.tree.setMarks(dragMarks{})

	moved, err := m.session.Drop(target)
	if err != nil {
		m.tree.Refresh()
		m.setError(err)
		return
	}
	m.tree.SetRoots(m.store.Roots())
	m.tree.SelectByID(moved.ID)
	m.tree.saveState()
	m.status = fmt.Sprintf("Moved %q %s %q", dragged.Name, m.zone, target.Name)
	m.statusErr = false
}

func (m *Model) copyPath() {
	path := m.tree.Path()
	if path == "" {
		return
	}
	if err := m.copy(path); err != nil {
		m.setError(fmt.Errorf("copy failed: %w", err))
		return
	}
	m.status = "Copied: " + path
}

func (m *Model) setError(err error) {
	var te *model.TreeError
	switch {
	case errors.Is(err, model.ErrInvalidDrop) && errors.As(err, &te) && te.Detail != "":
		m.status = "Can't drop here: " + te.Detail
	default:
		m.status = err.Error()
	}
	m.statusErr = true
}

// View renders the header, tree and footer.
func (m Model) View() string {
	if m.showHelp {
		return RenderHelp(m.keys, m.theme, m.width, m.height)
	}

	var sb strings.Builder

	header := fmt.Sprintf("catalogtree · %d nodes · v%d", m.store.Count(), m.version)
	if m.width > 0 {
		header = truncateRunesHelper(header, m.width-2, "…")
	}
	sb.WriteString(m.theme.Header.Render(header))
	sb.WriteString("\n")
	sb.WriteString(m.tree.View())
	sb.WriteString("\n")
	sb.WriteString(m.footer())
	return sb.String()
}

func (m Model) footer() string {
	switch {
	case m.status != "" && m.statusErr:
		return m.theme.ErrorText.Render(m.status)
	case m.status != "" && m.session.IsDragging():
		return m.theme.Footer.Render(m.status + " · " + helpLine(m.keys.DragHelp()))
	case m.status != "":
		return m.theme.Footer.Render(m.status)
	default:
		return m.theme.Footer.Render(helpLine(m.keys.ShortHelp()))
	}
}

// Status returns the last status line message.
func (m Model) Status() string {
	return m.status
}

// Tree exposes the tree view, mainly for tests.
func (m *Model) Tree() *TreeModel {
	return &m.tree
}

// Session exposes the drag session, mainly for tests.
func (m Model) Session() *drag.Session {
	return m.session
}
