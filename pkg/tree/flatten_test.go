package tree

import (
	"errors"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/catalogtree/pkg/model"
)

func newTestForest() []*model.TreeNode {
	return []*model.TreeNode{
		{ID: 1, Name: "Sushi", FrontType: model.TypeCategory, Children: []*model.TreeNode{
			{ID: 2, Name: "Nori", FrontType: model.TypeSubCategory, Children: []*model.TreeNode{
				{ID: 3, Name: "Product #2", FrontType: model.TypeProduct, Children: []*model.TreeNode{
					{ID: 4, Name: "Subproduct #4", FrontType: model.TypeSubProduct, Children: []*model.TreeNode{}},
				}},
				{ID: 5, Name: "Product #1", FrontType: model.TypeProduct, Children: []*model.TreeNode{}},
			}},
		}},
		{ID: 6, Name: "Product #1", FrontType: model.TypeProduct, Children: []*model.TreeNode{}},
	}
}

func rowNames(rows []*FlatNode) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = r.Name
	}
	return strings.Join(parts, ",")
}

// TestProjectEmpty verifies Project handles an empty forest
func TestProjectEmpty(t *testing.T) {
	f := NewFlattener()
	if rows := f.Project(nil, nil); len(rows) != 0 {
		t.Errorf("expected 0 rows, got %d", len(rows))
	}
	if f.Len() != 0 {
		t.Errorf("expected nothing tracked, got %d", f.Len())
	}
}

// TestProjectAllExpanded verifies pre-order, levels and expandable flags
func TestProjectAllExpanded(t *testing.T) {
	f := NewFlattener()
	rows := f.Project(newTestForest(), AllExpanded)

	want := "Sushi,Nori,Product #2,Subproduct #4,Product #1,Product #1"
	if got := rowNames(rows); got != want {
		t.Fatalf("rows = %q, want %q", got, want)
	}

	wantLevels := []int{0, 1, 2, 3, 2, 0}
	wantExpandable := []bool{true, true, true, false, false, false}
	for i, row := range rows {
		if row.Level != wantLevels[i] {
			t.Errorf("row %d (%s) level = %d, want %d", i, row.Name, row.Level, wantLevels[i])
		}
		if row.Expandable != wantExpandable[i] {
			t.Errorf("row %d (%s) expandable = %v, want %v", i, row.Name, row.Expandable, wantExpandable[i])
		}
	}
}

// TestProjectSkipsCollapsed verifies collapsed branches are not descended into
func TestProjectSkipsCollapsed(t *testing.T) {
	roots := newTestForest()
	exp := NewExpansion(true)
	exp.Collapse(roots[0].Children[0]) // Nori

	rows := NewFlattener().Project(roots, exp.IsExpanded)
	if got := rowNames(rows); got != "Sushi,Nori,Product #1" {
		t.Errorf("rows = %q, want Sushi,Nori,Product #1", got)
	}
	if !rows[1].Expandable {
		t.Error("collapsed node with children must still be expandable")
	}
}

// TestLocateRoundTrip verifies flat -> nested -> flat returns the same instance
func TestLocateRoundTrip(t *testing.T) {
	f := NewFlattener()
	rows := f.Project(newTestForest(), nil)

	for _, row := range rows {
		node, err := f.Locate(row)
		if err != nil {
			t.Fatalf("Locate(%s) failed: %v", row.Name, err)
		}
		back, err := f.FlatFor(node)
		if err != nil {
			t.Fatalf("FlatFor(%s) failed: %v", node.Name, err)
		}
		if back != row {
			t.Errorf("round trip for %s returned a different FlatNode", row.Name)
		}
	}
}

// TestProjectReusesFlatNodes verifies identity stability across projections
func TestProjectReusesFlatNodes(t *testing.T) {
	roots := newTestForest()
	f := NewFlattener()
	first := f.Project(roots, nil)
	second := f.Project(roots, nil)

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("row %d (%s) was reallocated", i, first[i].Name)
		}
	}
}

// TestProjectSameNameDifferentIDs verifies reuse keys on id, not name
func TestProjectSameNameDifferentIDs(t *testing.T) {
	rows := NewFlattener().Project(newTestForest(), nil)
	// Two distinct "Product #1" nodes (ids 5 and 6).
	if rows[4] == rows[5] {
		t.Fatal("nodes sharing a display name collapsed into one FlatNode")
	}
	if rows[4].ID != 5 || rows[5].ID != 6 {
		t.Errorf("unexpected ids %d and %d", rows[4].ID, rows[5].ID)
	}
}

// TestProjectRenameAllocates verifies a rename yields a fresh FlatNode
func TestProjectRenameAllocates(t *testing.T) {
	roots := newTestForest()
	f := NewFlattener()
	before := f.Project(roots, nil)[1]

	roots[0].Children[0].Name = "Kombu"
	after := f.Project(roots, nil)[1]

	if after == before {
		t.Fatal("expected a new FlatNode after rename")
	}
	if after.Name != "Kombu" {
		t.Errorf("new FlatNode name = %q", after.Name)
	}
	if _, err := f.Locate(before); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("stale FlatNode should no longer resolve, got %v", err)
	}
}

// TestProjectUpdatesLevelOnReuse verifies reused rows pick up new depth
func TestProjectUpdatesLevelOnReuse(t *testing.T) {
	roots := newTestForest()
	f := NewFlattener()
	rows := f.Project(roots, nil)
	p1 := rows[5]

	// Re-parent Product #1 (id 6) under Nori by hand.
	nori := roots[0].Children[0]
	nori.Children = append(nori.Children, roots[1])
	roots = roots[:1]

	rows = f.Project(roots, nil)
	last := rows[len(rows)-1]
	if last != p1 {
		t.Fatal("expected FlatNode for id 6 to be reused")
	}
	if last.Level != 2 {
		t.Errorf("level = %d, want 2", last.Level)
	}
}

// TestLocateUnknown verifies explicit NotFound failures
func TestLocateUnknown(t *testing.T) {
	f := NewFlattener()
	if _, err := f.Locate(&FlatNode{ID: 99}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.Locate(nil); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for nil, got %v", err)
	}
	if _, err := f.FlatFor(&model.TreeNode{ID: 99}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestForgetPurgesSubtree verifies removed nodes leave no table entries
func TestForgetPurgesSubtree(t *testing.T) {
	roots := newTestForest()
	f := NewFlattener()
	rows := f.Project(roots, nil)

	f.Forget(roots[0].Children[0]) // Nori and its 3 descendants
	if f.Len() != 2 {
		t.Errorf("expected 2 tracked nodes after forgetting Nori, got %d", f.Len())
	}
	for _, row := range rows[1:5] {
		if _, err := f.Locate(row); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("%s still resolves after Forget", row.Name)
		}
	}
	if _, err := f.Locate(rows[0]); err != nil {
		t.Errorf("unrelated node no longer resolves: %v", err)
	}
}

// TestForgetThenMovedCopy verifies a moved copy with the same id projects cleanly
func TestForgetThenMovedCopy(t *testing.T) {
	roots := newTestForest()
	f := NewFlattener()
	f.Project(roots, nil)

	original := roots[1]
	moved := original.Clone()
	roots = roots[:1]
	nori := roots[0].Children[0]
	nori.Children = append(nori.Children, moved)
	f.Forget(original)

	rows := f.Project(roots, nil)
	last := rows[len(rows)-1]
	node, err := f.Locate(last)
	if err != nil || node != moved {
		t.Fatalf("expected moved copy to resolve, got %v, %v", node, err)
	}
	if _, err := f.FlatFor(original); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("original should be purged, got %v", err)
	}
}

// TestProperty_ProjectionCompleteness checks visited set and levels against a
// reference walk with a random expansion state.
func TestProperty_ProjectionCompleteness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 30).Draw(t, "n")
		var roots []*model.TreeNode
		nodes := make([]*model.TreeNode, 0, n)
		depth := make(map[*model.TreeNode]int)
		parentOf := make(map[*model.TreeNode]*model.TreeNode)
		for i := 0; i < n; i++ {
			node := &model.TreeNode{ID: int64(i + 1), Name: "n", FrontType: model.TypeProduct, Children: []*model.TreeNode{}}
			p := rapid.IntRange(-1, i-1).Draw(t, "parent")
			if p < 0 {
				roots = append(roots, node)
			} else {
				nodes[p].Children = append(nodes[p].Children, node)
				depth[node] = depth[nodes[p]] + 1
				parentOf[node] = nodes[p]
			}
			nodes = append(nodes, node)
		}
		exp := NewExpansion(true)
		for _, node := range nodes {
			if rapid.Bool().Draw(t, "collapsed") {
				exp.Collapse(node)
			}
		}

		visible := func(node *model.TreeNode) bool {
			for p := parentOf[node]; p != nil; p = parentOf[p] {
				if !exp.IsExpanded(p) {
					return false
				}
			}
			return true
		}

		f := NewFlattener()
		rows := f.Project(roots, exp.IsExpanded)
		seen := make(map[*model.TreeNode]bool)
		for _, row := range rows {
			node, err := f.Locate(row)
			if err != nil {
				t.Fatalf("row %d does not resolve: %v", row.ID, err)
			}
			if seen[node] {
				t.Fatalf("node %d projected twice", node.ID)
			}
			seen[node] = true
			if row.Level != depth[node] {
				t.Fatalf("node %d level %d, want %d", node.ID, row.Level, depth[node])
			}
			if back, _ := f.FlatFor(node); back != row {
				t.Fatalf("round trip failed for node %d", node.ID)
			}
		}
		for _, node := range nodes {
			if visible(node) != seen[node] {
				t.Fatalf("node %d visible=%v projected=%v", node.ID, visible(node), seen[node])
			}
		}
	})
}
