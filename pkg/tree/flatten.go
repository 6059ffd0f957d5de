// Package tree projects the nested catalog into a flat, level-annotated list
// for linear rendering, and tracks which nodes the viewer has expanded.
package tree

import (
	"github.com/vanderheijden86/catalogtree/pkg/model"
)

// FlatNode is one row of the flat projection.
type FlatNode struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	FrontType  model.FrontType `json:"frontType"`
	Order      int             `json:"order"`
	Level      int             `json:"level"`      // Depth from the implicit root (roots = 0)
	Expandable bool            `json:"expandable"` // Node had children at projection time
}

// ExpandedFunc reports whether a node's children should be projected.
type ExpandedFunc func(node *model.TreeNode) bool

// AllExpanded projects every node.
func AllExpanded(*model.TreeNode) bool { return true }

// Flattener maintains the correspondence between nested nodes and their
// flat projections. FlatNodes are reused across projections for the same
// node id as long as the name is unchanged, so callers may key per-row state
// on the *FlatNode.
//
// A Flattener is not safe for concurrent use.
type Flattener struct {
	toNested map[*FlatNode]*model.TreeNode
	toFlat   map[*model.TreeNode]*FlatNode
	byID     map[int64]*FlatNode
}

// NewFlattener creates an empty flattener.
func NewFlattener() *Flattener {
	return &Flattener{
		toNested: make(map[*FlatNode]*model.TreeNode),
		toFlat:   make(map[*model.TreeNode]*FlatNode),
		byID:     make(map[int64]*FlatNode),
	}
}

// Project walks roots in pre-order and returns the flat rows. Children of a
// node are skipped unless expanded reports true for it; a nil expanded
// projects everything.
func (f *Flattener) Project(roots []*model.TreeNode, expanded ExpandedFunc) []*FlatNode {
	if expanded == nil {
		expanded = AllExpanded
	}
	rows := make([]*FlatNode, 0, len(roots))
	model.Walk(roots, func(node *model.TreeNode, depth int) bool {
		rows = append(rows, f.register(node, depth))
		return node.HasChildren() && expanded(node)
	})
	return rows
}

// register looks up or allocates the FlatNode for node and records both
// directions of the mapping.
func (f *Flattener) register(node *model.TreeNode, level int) *FlatNode {
	flat, ok := f.byID[node.ID]
	if !ok || flat.Name != node.Name {
		if ok {
			delete(f.toNested, flat)
		}
		flat = &FlatNode{ID: node.ID, Name: node.Name}
		f.byID[node.ID] = flat
	}
	flat.FrontType = node.FrontType
	flat.Order = node.Order
	flat.Level = level
	flat.Expandable = node.HasChildren()

	if prev, ok := f.toNested[flat]; ok && prev != node {
		// The id now lives on a different node (a moved copy).
		delete(f.toFlat, prev)
	}
	if prevFlat, ok := f.toFlat[node]; ok && prevFlat != flat {
		delete(f.toNested, prevFlat)
	}
	f.toNested[flat] = node
	f.toFlat[node] = flat
	return flat
}

// Locate returns the nested node a flat row was projected from.
func (f *Flattener) Locate(flat *FlatNode) (*model.TreeNode, error) {
	node, ok := f.toNested[flat]
	if !ok {
		return nil, &model.TreeError{Op: "locate", ID: flatID(flat), Err: model.ErrNotFound, Detail: "flat node is not registered"}
	}
	return node, nil
}

// FlatFor returns the flat row most recently projected for node.
func (f *Flattener) FlatFor(node *model.TreeNode) (*FlatNode, error) {
	flat, ok := f.toFlat[node]
	if !ok {
		var id int64
		if node != nil {
			id = node.ID
		}
		return nil, &model.TreeError{Op: "locate", ID: id, Err: model.ErrNotFound, Detail: "node has not been projected"}
	}
	return flat, nil
}

// Forget purges node and its descendants from both lookup tables. It is
// meant to be registered as a catalog remove hook.
func (f *Flattener) Forget(node *model.TreeNode) {
	model.Walk([]*model.TreeNode{node}, func(n *model.TreeNode, _ int) bool {
		flat, ok := f.toFlat[n]
		if !ok {
			return true
		}
		delete(f.toFlat, n)
		if f.toNested[flat] == n {
			delete(f.toNested, flat)
			if f.byID[n.ID] == flat {
				delete(f.byID, n.ID)
			}
		}
		return true
	})
}

// Len returns the number of nodes currently tracked.
func (f *Flattener) Len() int {
	return len(f.toFlat)
}

func flatID(flat *FlatNode) int64 {
	if flat == nil {
		return 0
	}
	return flat.ID
}
