package tree

import (
	"maps"

	"github.com/vanderheijden86/catalogtree/pkg/model"
)

// Expansion is the viewer's expand/collapse state, keyed by node id so it
// survives re-projection and moves (a moved copy keeps its id).
// Nodes never touched use the default.
type Expansion struct {
	expanded      map[int64]bool
	defaultExpand bool
}

// NewExpansion creates an expansion store. defaultExpanded decides the state
// of nodes that were never explicitly expanded or collapsed.
func NewExpansion(defaultExpanded bool) *Expansion {
	return &Expansion{
		expanded:      make(map[int64]bool),
		defaultExpand: defaultExpanded,
	}
}

// IsExpanded reports whether node's children are shown.
func (e *Expansion) IsExpanded(node *model.TreeNode) bool {
	if node == nil {
		return false
	}
	if v, ok := e.expanded[node.ID]; ok {
		return v
	}
	return e.defaultExpand
}

// Expand shows node's children.
func (e *Expansion) Expand(node *model.TreeNode) {
	if node != nil {
		e.expanded[node.ID] = true
	}
}

// Collapse hides node's children.
func (e *Expansion) Collapse(node *model.TreeNode) {
	if node != nil {
		e.expanded[node.ID] = false
	}
}

// Toggle flips node's state. Leaves are left alone.
func (e *Expansion) Toggle(node *model.TreeNode) {
	if node == nil || !node.HasChildren() {
		return
	}
	e.expanded[node.ID] = !e.IsExpanded(node)
}

// ExpandDescendants expands node and every node below it.
func (e *Expansion) ExpandDescendants(node *model.TreeNode) {
	e.setRecursive([]*model.TreeNode{node}, true)
}

// ExpandAll expands every node in the forest.
func (e *Expansion) ExpandAll(roots []*model.TreeNode) {
	e.setRecursive(roots, true)
}

// CollapseAll collapses every node in the forest.
func (e *Expansion) CollapseAll(roots []*model.TreeNode) {
	e.setRecursive(roots, false)
}

func (e *Expansion) setRecursive(roots []*model.TreeNode, expanded bool) {
	model.Walk(roots, func(n *model.TreeNode, _ int) bool {
		e.expanded[n.ID] = expanded
		return true
	})
}

// State returns the explicitly set entries, for persistence.
func (e *Expansion) State() map[int64]bool {
	return maps.Clone(e.expanded)
}

// Restore replaces the explicit entries. Ids that no longer exist are kept
// and simply never match.
func (e *Expansion) Restore(state map[int64]bool) {
	e.expanded = make(map[int64]bool, len(state))
	maps.Copy(e.expanded, state)
}
