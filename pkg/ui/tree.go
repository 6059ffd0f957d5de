// tree.go - Catalog tree view: projection, navigation and rendering
package ui

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/catalogtree/pkg/model"
	"github.com/vanderheijden86/catalogtree/pkg/tree"
)

// TreeState is the persisted expand/collapse state of the tree view, saved
// to .catalogtree/tree-state.json so it survives restarts.
//
// File format (JSON):
//
//	{
//	  "version": 1,
//	  "expanded": {
//	    "15461": true,
//	    "15462": false
//	  }
//	}
//
// Only explicit user changes are stored; other nodes use the default.
// A corrupted or missing file means defaults.
type TreeState struct {
	Version  int            `json:"version"`
	Expanded map[int64]bool `json:"expanded"`
}

// TreeStateVersion is the current schema version for tree persistence
const TreeStateVersion = 1

const treeStateFileName = "tree-state.json"

// TreeStatePath returns the path to the tree state file inside dir.
func TreeStatePath(dir string) string {
	if dir == "" {
		dir = ".catalogtree"
	}
	return filepath.Join(dir, treeStateFileName)
}

// dragMarks tells the renderer which rows take part in a drag.
type dragMarks struct {
	dragged int64
	hover   int64
	zone    model.DropZone
}

// TreeModel manages the catalog tree view state
type TreeModel struct {
	theme     Theme
	flattener *tree.Flattener
	expansion *tree.Expansion

	roots  []*model.TreeNode
	rows   []*tree.FlatNode // Visible rows, pre-order
	cursor int
	offset int // Index of first visible row
	width  int
	height int
	indent int
	marks  dragMarks

	stateDir string // Empty disables persistence
}

// NewTreeModel creates an empty tree view over the given projection and
// expansion state.
func NewTreeModel(theme Theme, f *tree.Flattener, e *tree.Expansion) TreeModel {
	return TreeModel{
		theme:     theme,
		flattener: f,
		expansion: e,
		indent:    2,
	}
}

// SetSize updates the available dimensions for the tree view
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.ensureCursorVisible()
}

// SetIndent sets the number of columns per level.
func (t *TreeModel) SetIndent(n int) {
	if n >= 0 {
		t.indent = n
	}
}

// SetStateDir enables persistence in dir and applies any saved state.
func (t *TreeModel) SetStateDir(dir string) {
	t.stateDir = dir
	t.loadState()
	t.Refresh()
}

// SetRoots replaces the displayed forest, keeping the cursor on the same
// node id when it is still visible.
func (t *TreeModel) SetRoots(roots []*model.TreeNode) {
	selected := t.SelectedID()
	t.roots = roots
	t.Refresh()
	if selected != 0 {
		t.SelectByID(selected)
	}
}

// Refresh re-projects the current roots, e.g. after an expansion change.
func (t *TreeModel) Refresh() {
	t.rows = t.flattener.Project(t.roots, t.expansion.IsExpanded)
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

// Rows returns the visible rows.
func (t *TreeModel) Rows() []*tree.FlatNode {
	return t.rows
}

// Selected returns the row under the cursor, or nil.
func (t *TreeModel) Selected() *tree.FlatNode {
	if t.cursor >= 0 && t.cursor < len(t.rows) {
		return t.rows[t.cursor]
	}
	return nil
}

// SelectedID returns the id of the selected row, or 0.
func (t *TreeModel) SelectedID() int64 {
	if row := t.Selected(); row != nil {
		return row.ID
	}
	return 0
}

// SelectedNode resolves the selected row to its tree node.
func (t *TreeModel) SelectedNode() (*model.TreeNode, error) {
	return t.flattener.Locate(t.Selected())
}

// Cursor returns the selected row index.
func (t *TreeModel) Cursor() int {
	return t.cursor
}

// SelectByID moves the cursor to the row with the given id.
// Returns true if found, false otherwise.
func (t *TreeModel) SelectByID(id int64) bool {
	for i, row := range t.rows {
		if row.ID == id {
			t.cursor = i
			t.ensureCursorVisible()
			return true
		}
	}
	return false
}

// MoveDown moves the cursor down one row.
func (t *TreeModel) MoveDown() {
	if t.cursor < len(t.rows)-1 {
		t.cursor++
		t.ensureCursorVisible()
	}
}

// MoveUp moves the cursor up one row.
func (t *TreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
		t.ensureCursorVisible()
	}
}

// JumpToTop moves cursor to the first row.
func (t *TreeModel) JumpToTop() {
	t.cursor = 0
	t.ensureCursorVisible()
}

// JumpToBottom moves cursor to the last row.
func (t *TreeModel) JumpToBottom() {
	if len(t.rows) > 0 {
		t.cursor = len(t.rows) - 1
		t.ensureCursorVisible()
	}
}

// PageDown moves cursor down by half a page.
func (t *TreeModel) PageDown() {
	t.cursor = min(t.cursor+t.pageSize(), len(t.rows)-1)
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

// PageUp moves cursor up by half a page.
func (t *TreeModel) PageUp() {
	t.cursor = max(t.cursor-t.pageSize(), 0)
	t.ensureCursorVisible()
}

func (t *TreeModel) pageSize() int {
	if t.height/2 < 1 {
		return 5
	}
	return t.height / 2
}

// parentIndex returns the row index of the selected row's parent, or -1.
// In a pre-order projection the parent is the nearest earlier row one level up.
func (t *TreeModel) parentIndex(i int) int {
	if i < 0 || i >= len(t.rows) {
		return -1
	}
	level := t.rows[i].Level
	for j := i - 1; j >= 0; j-- {
		if t.rows[j].Level < level {
			return j
		}
	}
	return -1
}

// JumpToParent moves cursor to the parent of the selected row.
func (t *TreeModel) JumpToParent() {
	if p := t.parentIndex(t.cursor); p >= 0 {
		t.cursor = p
		t.ensureCursorVisible()
	}
}

// ToggleExpand expands or collapses the selected node.
func (t *TreeModel) ToggleExpand() {
	node, err := t.SelectedNode()
	if err != nil || !node.HasChildren() {
		return
	}
	t.expansion.Toggle(node)
	t.Refresh()
	t.saveState()
}

// ExpandOrMoveToChild handles the → / l key:
// - collapsed with children: expand it
// - expanded with children: move to first child
// - leaf: do nothing
func (t *TreeModel) ExpandOrMoveToChild() {
	node, err := t.SelectedNode()
	if err != nil || !node.HasChildren() {
		return
	}
	if !t.expansion.IsExpanded(node) {
		t.expansion.Expand(node)
		t.Refresh()
		t.saveState()
		return
	}
	t.MoveDown()
}

// CollapseOrJumpToParent handles the ← / h key:
// - expanded with children: collapse it
// - otherwise: jump to parent
func (t *TreeModel) CollapseOrJumpToParent() {
	node, err := t.SelectedNode()
	if err != nil {
		return
	}
	if node.HasChildren() && t.expansion.IsExpanded(node) {
		t.expansion.Collapse(node)
		t.Refresh()
		t.saveState()
		return
	}
	t.JumpToParent()
}

// ExpandAll expands all nodes in the tree.
func (t *TreeModel) ExpandAll() {
	t.expansion.ExpandAll(t.roots)
	t.Refresh()
	t.saveState()
}

// CollapseAll collapses all nodes in the tree.
func (t *TreeModel) CollapseAll() {
	t.expansion.CollapseAll(t.roots)
	t.Refresh()
	t.saveState()
}

// Path returns the names from the root down to the selected row, joined
// with " / ".
func (t *TreeModel) Path() string {
	if t.Selected() == nil {
		return ""
	}
	var names []string
	for i := t.cursor; i >= 0; i = t.parentIndex(i) {
		names = append(names, t.rows[i].Name)
		if t.rows[i].Level == 0 {
			break
		}
	}
	for l, r := 0, len(names)-1; l < r; l, r = l+1, r-1 {
		names[l], names[r] = names[r], names[l]
	}
	return strings.Join(names, " / ")
}

func (t *TreeModel) setMarks(m dragMarks) {
	t.marks = m
}

// ensureCursorVisible scrolls so the cursor row is inside the viewport.
func (t *TreeModel) ensureCursorVisible() {
	visible := t.visibleCount()
	if t.cursor < t.offset {
		t.offset = t.cursor
	}
	if t.cursor >= t.offset+visible {
		t.offset = t.cursor - visible + 1
	}
	if t.offset > len(t.rows)-visible {
		t.offset = len(t.rows) - visible
	}
	if t.offset < 0 {
		t.offset = 0
	}
}

func (t *TreeModel) visibleCount() int {
	if t.height <= 0 {
		return 20
	}
	return t.height
}

// visibleRange returns the [start, end) row indices inside the viewport.
func (t *TreeModel) visibleRange() (start, end int) {
	start = t.offset
	end = min(start+t.visibleCount(), len(t.rows))
	return start, end
}

// View renders the visible rows.
func (t *TreeModel) View() string {
	if len(t.rows) == 0 {
		return t.renderEmptyState()
	}

	var sb strings.Builder
	start, end := t.visibleRange()
	for i := start; i < end; i++ {
		line := t.renderRow(t.rows[i])
		if i == t.cursor {
			line = t.theme.Selected.Render(line)
		}
		sb.WriteString(line)
		if i < end-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (t *TreeModel) renderEmptyState() string {
	r := t.theme.Renderer
	title := r.NewStyle().Foreground(t.theme.Primary).Bold(true)
	muted := r.NewStyle().Foreground(t.theme.Muted)

	var sb strings.Builder
	sb.WriteString(title.Render("Catalog"))
	sb.WriteString("\n\n")
	sb.WriteString(muted.Render("The catalog is empty."))
	sb.WriteString("\n")
	sb.WriteString(muted.Render("Pass -catalog <file> or create .catalogtree/catalog.yaml."))
	return sb.String()
}

// renderRow renders a single row: drop marker, indentation, indicator,
// kind badge, name.
func (t *TreeModel) renderRow(row *tree.FlatNode) string {
	r := t.theme.Renderer
	var sb strings.Builder

	marker := "  "
	if row.ID == t.marks.hover && t.marks.hover != t.marks.dragged {
		switch t.marks.zone {
		case model.ZoneAbove:
			marker = "↑ "
		case model.ZoneBelow:
			marker = "↓ "
		default:
			marker = "→ "
		}
		marker = t.theme.DropTarget.Render(marker)
	}
	sb.WriteString(marker)

	prefix := strings.Repeat(" ", row.Level*t.indent)
	sb.WriteString(prefix)

	indicator := t.getExpandIndicator(row)
	sb.WriteString(r.NewStyle().Foreground(t.theme.Secondary).Render(indicator))
	sb.WriteString(" ")

	icon, iconColor := t.theme.GetTypeIcon(row.FrontType)
	sb.WriteString(r.NewStyle().Foreground(iconColor).Render(icon))
	sb.WriteString(" ")

	fixed := 2 + runewidth.StringWidth(prefix) + 4
	maxName := t.width - fixed
	if t.width <= 0 || maxName < 10 {
		maxName = 60
	}
	name := truncateRunesHelper(row.Name, maxName, "…")
	switch {
	case row.ID == t.marks.dragged:
		name = t.theme.Dragged.Render(name + " ⇅")
	case row.ID == t.marks.hover:
		name = t.theme.DropTarget.Render(name)
	}
	sb.WriteString(name)

	return sb.String()
}

// getExpandIndicator returns the expand/collapse indicator for a row.
func (t *TreeModel) getExpandIndicator(row *tree.FlatNode) string {
	if !row.Expandable {
		return "•" // Leaf node
	}
	node, err := t.flattener.Locate(row)
	if err == nil && t.expansion.IsExpanded(node) {
		return "▾"
	}
	return "▸"
}

// truncateRunesHelper truncates a string to max visual width (cells),
// adding suffix if needed.
func truncateRunesHelper(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	suffixWidth := runewidth.StringWidth(suffix)
	if suffixWidth > maxWidth {
		return runewidth.Truncate(suffix, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth-suffixWidth, "") + suffix
}

// saveState persists the expansion state. Errors are logged but do not
// interrupt the user.
func (t *TreeModel) saveState() {
	if t.stateDir == "" {
		return
	}
	state := TreeState{
		Version:  TreeStateVersion,
		Expanded: t.expansion.State(),
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		log.Printf("warning: failed to marshal tree state: %v", err)
		return
	}

	path := TreeStatePath(t.stateDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("warning: failed to create state directory %s: %v", filepath.Dir(path), err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("warning: failed to write tree state to %s: %v", path, err)
	}
}

// loadState restores expansion state from disk. A missing file is the
// first run; a corrupted one falls back to defaults.
func (t *TreeModel) loadState() {
	data, err := os.ReadFile(TreeStatePath(t.stateDir))
	if err != nil {
		return
	}
	var state TreeState
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("warning: invalid tree state file, using defaults: %v", err)
		return
	}
	if state.Version != TreeStateVersion {
		log.Printf("warning: tree state version %d not supported, using defaults", state.Version)
		return
	}
	t.expansion.Restore(state.Expanded)
}

// RowCount returns the number of visible rows.
func (t *TreeModel) RowCount() int {
	return len(t.rows)
}

// RootCount returns the number of root nodes.
func (t *TreeModel) RootCount() int {
	return len(t.roots)
}
