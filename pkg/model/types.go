package model

import (
	"fmt"
)

// TreeNode represents one catalog entry in the nested representation.
// Children is owned exclusively by the node; order is positional.
type TreeNode struct {
	ID        int64       `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string      `json:"name" yaml:"name"`
	Order     int         `json:"order" yaml:"order"`
	FrontType FrontType   `json:"frontType" yaml:"frontType"`
	Children  []*TreeNode `json:"children" yaml:"children"`
}

// ShallowClone copies id, name, order and frontType. The clone starts with an
// empty (non-nil) children sequence.
func (n *TreeNode) ShallowClone() *TreeNode {
	return &TreeNode{
		ID:        n.ID,
		Name:      n.Name,
		Order:     n.Order,
		FrontType: n.FrontType,
		Children:  []*TreeNode{},
	}
}

// Clone creates a deep copy of the node and every descendant
func (n *TreeNode) Clone() *TreeNode {
	clone := n.ShallowClone()
	for _, child := range n.Children {
		if child != nil {
			clone.Children = append(clone.Children, child.Clone())
		}
	}
	return clone
}

// HasChildren reports whether the node currently has any children.
func (n *TreeNode) HasChildren() bool {
	return len(n.Children) > 0
}

// Contains reports whether target is n itself or one of its descendants,
// compared by identity.
func (n *TreeNode) Contains(target *TreeNode) bool {
	if n == nil || target == nil {
		return false
	}
	if n == target {
		return true
	}
	for _, child := range n.Children {
		if child.Contains(target) {
			return true
		}
	}
	return false
}

// Walk visits nodes in pre-order. Returning false from fn stops descent into
// that node's children.
func Walk(roots []*TreeNode, fn func(node *TreeNode, depth int) bool) {
	var walk func(nodes []*TreeNode, depth int)
	walk = func(nodes []*TreeNode, depth int) {
		for _, node := range nodes {
			if node == nil {
				continue
			}
			if fn(node, depth) {
				walk(node.Children, depth+1)
			}
		}
	}
	walk(roots, 0)
}

// Count returns the number of nodes reachable from roots.
func Count(roots []*TreeNode) int {
	count := 0
	Walk(roots, func(*TreeNode, int) bool {
		count++
		return true
	})
	return count
}

// MaxID returns the largest id in the forest, or 0 for an empty forest.
func MaxID(roots []*TreeNode) int64 {
	var max int64
	Walk(roots, func(node *TreeNode, _ int) bool {
		if node.ID > max {
			max = node.ID
		}
		return true
	})
	return max
}

// Normalize prepares a freshly decoded forest: nodes without an id get one
// minted after the largest id present, and nil children become empty slices.
// Returns the number of ids minted.
func Normalize(roots []*TreeNode) int {
	next := MaxID(roots) + 1
	minted := 0
	Walk(roots, func(node *TreeNode, _ int) bool {
		if node.ID == 0 {
			node.ID = next
			next++
			minted++
		}
		if node.Children == nil {
			node.Children = []*TreeNode{}
		}
		return true
	})
	return minted
}

// Validate checks that roots form a strict forest: every node is reachable
// exactly once, ids are unique and non-zero, and every frontType is known.
func Validate(roots []*TreeNode) error {
	seen := make(map[*TreeNode]bool)
	ids := make(map[int64]bool)

	var check func(nodes []*TreeNode) error
	check = func(nodes []*TreeNode) error {
		for _, node := range nodes {
			if node == nil {
				return &TreeError{Op: "validate", Err: ErrStructuralViolation, Detail: "nil node"}
			}
			if seen[node] {
				return &TreeError{Op: "validate", ID: node.ID, Err: ErrStructuralViolation, Detail: "node reachable from two parents"}
			}
			seen[node] = true
			if node.ID == 0 {
				return &TreeError{Op: "validate", Err: ErrStructuralViolation, Detail: fmt.Sprintf("node %q has no id", node.Name)}
			}
			if ids[node.ID] {
				return &TreeError{Op: "validate", ID: node.ID, Err: ErrStructuralViolation, Detail: "duplicate id"}
			}
			ids[node.ID] = true
			if !node.FrontType.IsValid() {
				return &TreeError{Op: "validate", ID: node.ID, Err: ErrStructuralViolation, Detail: fmt.Sprintf("invalid frontType: %q", node.FrontType)}
			}
			if err := check(node.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return check(roots)
}

// FrontType tags the kind of catalog entity a node represents
type FrontType string

const (
	TypeCategory    FrontType = "category"
	TypeSubCategory FrontType = "subCategory"
	TypeProduct     FrontType = "product"
	TypeSubProduct  FrontType = "subProduct"
)

// IsValid returns true if the front type is a recognized value
func (t FrontType) IsValid() bool {
	switch t {
	case TypeCategory, TypeSubCategory, TypeProduct, TypeSubProduct:
		return true
	}
	return false
}

// DropZone classifies where within a target a drag ended
type DropZone string

const (
	ZoneAbove  DropZone = "above"
	ZoneBelow  DropZone = "below"
	ZoneCenter DropZone = "center"
)

// IsValid returns true if the drop zone is a recognized value
func (z DropZone) IsValid() bool {
	switch z {
	case ZoneAbove, ZoneBelow, ZoneCenter:
		return true
	}
	return false
}

// IsSibling returns true if dropping in this zone makes the dragged node a
// sibling of the target rather than its child.
func (z DropZone) IsSibling() bool {
	return z == ZoneAbove || z == ZoneBelow
}
