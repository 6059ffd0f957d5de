// Package catalog owns the nested catalog tree and every structural edit to it.
//
// A Store is the single writer for one tree. All mutating operations run in
// one exclusive section, and each successful mutation publishes a full
// snapshot of the root sequence to subscribers.
//
// There are no parent back-references: FindParent, Remove and the insert
// helpers search the tree depth-first, which is O(n) per call. Catalog trees
// are small and edits happen at human pace, so the search is not cached.
package catalog

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/vanderheijden86/catalogtree/pkg/debug"
	"github.com/vanderheijden86/catalogtree/pkg/model"
)

// Option configures a Store.
type Option func(*Store)

// WithRemoveHook registers fn to be called with the root of every subtree
// removed from the tree, including the original of a moved subtree. Hooks
// run inside the store's exclusive section and must not call back into it.
func WithRemoveHook(fn func(*model.TreeNode)) Option {
	return func(s *Store) {
		s.removeHooks = append(s.removeHooks, fn)
	}
}

// Store holds a catalog forest and serializes edits to it.
type Store struct {
	mu          sync.Mutex
	roots       []*model.TreeNode
	version     uint64
	nextID      int64
	removeHooks []func(*model.TreeNode)

	subsMu sync.Mutex
	subs   map[*Subscription]struct{}
}

// New creates a store owning roots. Nodes without ids get fresh ones; the
// result must be a strict forest.
func New(roots []*model.TreeNode, opts ...Option) (*Store, error) {
	if roots == nil {
		roots = []*model.TreeNode{}
	}
	model.Normalize(roots)
	if err := model.Validate(roots); err != nil {
		return nil, err
	}

	s := &Store{
		roots:  roots,
		nextID: model.MaxID(roots) + 1,
		subs:   make(map[*Subscription]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Roots returns a copy of the current root sequence. The nodes themselves are
// shared with the store; use View for a consistent read of descendants.
func (s *Store) Roots() []*model.TreeNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.roots)
}

// View runs fn with the current roots inside the exclusive section.
// fn must not mutate the tree or call other Store methods.
func (s *Store) View(fn func(roots []*model.TreeNode)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.roots)
}

// Version returns the number of successful mutations so far.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Count returns the total number of nodes in the tree.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Count(s.roots)
}

// FindByID returns the node with the given id.
func (s *Store) FindByID(id int64) (*model.TreeNode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node := s.findByIDLocked(id)
	return node, node != nil
}

// FindParent returns the node whose children contain node. For a root it
// returns (nil, true); for a node not in the tree it returns (nil, false).
func (s *Store) FindParent(node *model.TreeNode) (*model.TreeNode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	parent, _, ok := s.locateLocked(node)
	return parent, ok
}

// InsertAsChild appends a shallow clone of payload to parent's children.
func (s *Store) InsertAsChild(parent, payload *model.TreeNode) (*model.TreeNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, ok := s.locateLocked(parent); !ok {
		return nil, notFound("insert", parent)
	}
	node, err := s.prepareLocked("insert", payload)
	if err != nil {
		return nil, err
	}
	appendChild(parent, node)
	s.publishLocked()
	return node, nil
}

// InsertAbove splices a shallow clone of payload immediately before ref in
// ref's parent (or the root sequence).
func (s *Store) InsertAbove(ref, payload *model.TreeNode) (*model.TreeNode, error) {
	return s.insertSibling("insert-above", ref, payload, 0)
}

// InsertBelow splices a shallow clone of payload immediately after ref in
// ref's parent (or the root sequence).
func (s *Store) InsertBelow(ref, payload *model.TreeNode) (*model.TreeNode, error) {
	return s.insertSibling("insert-below", ref, payload, 1)
}

func (s *Store) insertSibling(op string, ref, payload *model.TreeNode, offset int) (*model.TreeNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, index, ok := s.locateLocked(ref)
	if !ok {
		return nil, notFound(op, ref)
	}
	node, err := s.prepareLocked(op, payload)
	if err != nil {
		return nil, err
	}
	s.spliceLocked(parent, index+offset, node)
	s.publishLocked()
	return node, nil
}

// Remove detaches node and its subtree from the tree. Removing a node that is
// not in the tree is a structural violation.
func (s *Store) Remove(node *model.TreeNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.removeLocked(node); err != nil {
		return err
	}
	s.publishLocked()
	return nil
}

// Rename changes a node's display name.
func (s *Store) Rename(node *model.TreeNode, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, ok := s.locateLocked(node); !ok {
		return notFound("rename", node)
	}
	if node.Name == name {
		return nil
	}
	node.Name = name
	s.publishLocked()
	return nil
}

// MoveSubtree re-creates source and its descendants at target and removes
// the original. For ZoneCenter the copy becomes target's last child; for
// ZoneAbove/ZoneBelow it becomes target's sibling immediately before/after
// it. The copy keeps the original ids; uniqueness holds because the original
// is removed in the same exclusive section.
//
// The move is validated before anything is touched: a rejected move leaves
// the tree unchanged and publishes nothing.
func (s *Store) MoveSubtree(source, target *model.TreeNode, zone model.DropZone) (*model.TreeNode, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !zone.IsValid() {
		return nil, &model.TreeError{Op: "move", ID: idOf(source), Err: model.ErrInvalidDrop, Detail: fmt.Sprintf("unknown drop zone %q", zone)}
	}
	if source == nil || target == nil {
		return nil, &model.TreeError{Op: "move", Err: model.ErrNotFound, Detail: "source and target are required"}
	}
	if source == target {
		return nil, &model.TreeError{Op: "move", ID: source.ID, Err: model.ErrInvalidDrop, Detail: "cannot drop a node onto itself"}
	}
	if _, _, ok := s.locateLocked(source); !ok {
		return nil, notFound("move", source)
	}
	targetParent, targetIndex, ok := s.locateLocked(target)
	if !ok {
		return nil, notFound("move", target)
	}
	if source.Contains(target) {
		return nil, &model.TreeError{Op: "move", ID: source.ID, Err: model.ErrInvalidDrop,
			Detail: fmt.Sprintf("target %d is inside the dragged subtree", target.ID)}
	}

	moved := source.ShallowClone()
	switch zone {
	case model.ZoneCenter:
		appendChild(target, moved)
	case model.ZoneAbove:
		s.spliceLocked(targetParent, targetIndex, moved)
	case model.ZoneBelow:
		s.spliceLocked(targetParent, targetIndex+1, moved)
	}
	copyDescendants(moved, source)

	if err := s.removeLocked(source); err != nil {
		// Unreachable after validation; surface it rather than hide a corrupt tree.
		return nil, err
	}
	s.publishLocked()

	debug.Log("moved %d %s %d (%d nodes)", source.ID, zone, target.ID, model.Count([]*model.TreeNode{moved}))
	debug.LogTiming("MoveSubtree", time.Since(start))
	return moved, nil
}

// copyDescendants re-creates src's children under dst in their original
// order, one child insert at a time.
func copyDescendants(dst, src *model.TreeNode) {
	for _, child := range src.Children {
		if child == nil {
			continue
		}
		copied := child.ShallowClone()
		appendChild(dst, copied)
		copyDescendants(copied, child)
	}
}

func appendChild(parent, node *model.TreeNode) {
	if parent.Children == nil {
		parent.Children = []*model.TreeNode{}
	}
	parent.Children = append(parent.Children, node)
}

// prepareLocked turns an insert payload into a fresh node with a unique id.
func (s *Store) prepareLocked(op string, payload *model.TreeNode) (*model.TreeNode, error) {
	if payload == nil {
		return nil, &model.TreeError{Op: op, Err: model.ErrStructuralViolation, Detail: "nil payload"}
	}
	if !payload.FrontType.IsValid() {
		return nil, &model.TreeError{Op: op, ID: payload.ID, Err: model.ErrStructuralViolation,
			Detail: fmt.Sprintf("invalid frontType: %q", payload.FrontType)}
	}
	node := payload.ShallowClone()
	if node.ID == 0 {
		node.ID = s.nextID
		s.nextID++
		return node, nil
	}
	if s.findByIDLocked(node.ID) != nil {
		return nil, &model.TreeError{Op: op, ID: node.ID, Err: model.ErrStructuralViolation, Detail: "duplicate id"}
	}
	if node.ID >= s.nextID {
		s.nextID = node.ID + 1
	}
	return node, nil
}

// spliceLocked inserts node at index within parent's children, or within the
// root sequence when parent is nil.
func (s *Store) spliceLocked(parent *model.TreeNode, index int, node *model.TreeNode) {
	if parent == nil {
		s.roots = slices.Insert(s.roots, index, node)
		return
	}
	if parent.Children == nil {
		parent.Children = []*model.TreeNode{}
	}
	parent.Children = slices.Insert(parent.Children, index, node)
}

func (s *Store) removeLocked(node *model.TreeNode) error {
	parent, index, ok := s.locateLocked(node)
	if !ok {
		return &model.TreeError{Op: "remove", ID: idOf(node), Err: model.ErrStructuralViolation,
			Detail: "node is not in any children sequence"}
	}
	if parent == nil {
		s.roots = slices.Delete(s.roots, index, index+1)
	} else {
		parent.Children = slices.Delete(parent.Children, index, index+1)
	}
	for _, hook := range s.removeHooks {
		hook(node)
	}
	return nil
}

// locateLocked finds target by identity. parent is nil for a root.
func (s *Store) locateLocked(target *model.TreeNode) (parent *model.TreeNode, index int, ok bool) {
	if target == nil {
		return nil, -1, false
	}
	if i := slices.Index(s.roots, target); i >= 0 {
		return nil, i, true
	}
	index = -1
	model.Walk(s.roots, func(node *model.TreeNode, _ int) bool {
		if ok {
			return false
		}
		if i := slices.Index(node.Children, target); i >= 0 {
			parent, index, ok = node, i, true
			return false
		}
		return true
	})
	return parent, index, ok
}

func (s *Store) findByIDLocked(id int64) *model.TreeNode {
	var found *model.TreeNode
	model.Walk(s.roots, func(node *model.TreeNode, _ int) bool {
		if found != nil {
			return false
		}
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found
}

func notFound(op string, node *model.TreeNode) error {
	return &model.TreeError{Op: op, ID: idOf(node), Err: model.ErrNotFound}
}

func idOf(node *model.TreeNode) int64 {
	if node == nil {
		return 0
	}
	return node.ID
}
