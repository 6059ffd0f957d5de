package drag

import (
	"errors"
	"testing"
	"time"

	"github.com/vanderheijden86/catalogtree/pkg/catalog"
	"github.com/vanderheijden86/catalogtree/pkg/config"
	"github.com/vanderheijden86/catalogtree/pkg/model"
	"github.com/vanderheijden86/catalogtree/pkg/tree"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type harness struct {
	store *catalog.Store
	flat  *tree.Flattener
	exp   *tree.Expansion
	clock *fakeClock
	sess  *Session
	rows  []*tree.FlatNode
}

func scenarioForest() []*model.TreeNode {
	leaf := func(id int64, name string, ft model.FrontType) *model.TreeNode {
		return &model.TreeNode{ID: id, Name: name, FrontType: ft, Children: []*model.TreeNode{}}
	}
	p2 := leaf(159863, "Product #2", model.TypeProduct)
	p2.Children = append(p2.Children, leaf(159864, "Subproduct #4", model.TypeSubProduct))
	nori := leaf(15462, "Nori", model.TypeSubCategory)
	nori.Children = append(nori.Children, p2, leaf(159859, "Product #1", model.TypeProduct))
	sushi := leaf(15461, "Sushi", model.TypeCategory)
	sushi.Children = append(sushi.Children, nori)
	p2root := leaf(159861, "Product #2", model.TypeProduct)
	p2root.Children = append(p2root.Children, leaf(159862, "Subproduct #1", model.TypeSubProduct))
	return []*model.TreeNode{sushi, p2root, leaf(159860, "Product #1", model.TypeProduct)}
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	f := tree.NewFlattener()
	store, err := catalog.New(scenarioForest(), catalog.WithRemoveHook(f.Forget))
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	h := &harness{
		store: store,
		flat:  f,
		exp:   tree.NewExpansion(true),
		clock: &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	opts = append([]Option{WithClock(h.clock.Now)}, opts...)
	h.sess = NewSession(store, f, h.exp, opts...)
	h.project()
	return h
}

func (h *harness) project() {
	h.rows = h.flat.Project(h.store.Roots(), h.exp.IsExpanded)
}

func (h *harness) row(t *testing.T, id int64) *tree.FlatNode {
	t.Helper()
	for _, r := range h.rows {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("row %d not visible", id)
	return nil
}

func TestClassify(t *testing.T) {
	s := NewSession(nil, nil, nil)
	tests := []struct {
		fraction float64
		want     model.DropZone
	}{
		{0, model.ZoneAbove},
		{0.24, model.ZoneAbove},
		{0.25, model.ZoneCenter},
		{0.5, model.ZoneCenter},
		{0.75, model.ZoneCenter},
		{0.76, model.ZoneBelow},
		{1, model.ZoneBelow},
	}
	for _, tt := range tests {
		if got := s.Classify(tt.fraction); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.fraction, got, tt.want)
		}
	}

	custom := NewSession(nil, nil, nil, WithFractions(0.4, 0.6))
	if got := custom.Classify(0.3); got != model.ZoneAbove {
		t.Errorf("custom Classify(0.3) = %s, want above", got)
	}
}

func TestFractionForRoundTrips(t *testing.T) {
	for _, s := range []*Session{
		NewSession(nil, nil, nil),
		NewSession(nil, nil, nil, WithFractions(0.1, 0.9)),
	} {
		for _, zone := range []model.DropZone{model.ZoneAbove, model.ZoneCenter, model.ZoneBelow} {
			if got := s.Classify(s.FractionFor(zone)); got != zone {
				t.Errorf("Classify(FractionFor(%s)) = %s", zone, got)
			}
		}
	}
}

func TestDragStartCollapsesDragged(t *testing.T) {
	h := newHarness(t)
	nori := h.row(t, 15462)

	if err := h.sess.DragStart(nori); err != nil {
		t.Fatalf("DragStart: %v", err)
	}
	if h.sess.State() != StateDragging || h.sess.Dragged() != nori {
		t.Fatalf("state = %s, dragged = %v", h.sess.State(), h.sess.Dragged())
	}
	node, _ := h.store.FindByID(15462)
	if h.exp.IsExpanded(node) {
		t.Error("dragged node should be collapsed")
	}
	if h.store.Version() != 0 {
		t.Error("drag start must not mutate the tree")
	}
}

func TestDragStartUnknownRow(t *testing.T) {
	h := newHarness(t)
	err := h.sess.DragStart(&tree.FlatNode{ID: 42})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if h.sess.IsDragging() {
		t.Error("failed start must leave the session idle")
	}
}

func TestDragOverRequiresDrag(t *testing.T) {
	h := newHarness(t)
	if _, err := h.sess.DragOver(h.rows[0], 0.5); !errors.Is(err, ErrNotDragging) {
		t.Errorf("expected ErrNotDragging, got %v", err)
	}
	if _, err := h.sess.Drop(h.rows[0]); !errors.Is(err, ErrNotDragging) {
		t.Errorf("expected ErrNotDragging, got %v", err)
	}
}

// TestDwellAutoExpand verifies a collapsed row opens only after continuous hover
func TestDwellAutoExpand(t *testing.T) {
	h := newHarness(t)
	p2root, _ := h.store.FindByID(159861)
	h.exp.Collapse(p2root)
	h.project()

	if err := h.sess.DragStart(h.row(t, 159860)); err != nil {
		t.Fatal(err)
	}
	target := h.row(t, 159861)
	if _, err := h.sess.DragOver(target, 0.5); err != nil {
		t.Fatal(err)
	}

	h.clock.Advance(300 * time.Millisecond)
	h.sess.DragOver(target, 0.5)
	if h.exp.IsExpanded(p2root) {
		t.Fatal("expanded before dwell threshold")
	}

	// Moving to another row restarts the timer.
	h.sess.DragOver(h.row(t, 15461), 0.5)
	h.clock.Advance(300 * time.Millisecond)
	h.sess.DragOver(target, 0.5)
	h.clock.Advance(300 * time.Millisecond)
	h.sess.DragOver(target, 0.5)
	if h.exp.IsExpanded(p2root) {
		t.Fatal("timer was not reset by hovering another row")
	}

	h.clock.Advance(150 * time.Millisecond)
	expanded, err := h.sess.Dwell()
	if err != nil {
		t.Fatal(err)
	}
	if !expanded || !h.exp.IsExpanded(p2root) {
		t.Error("expected auto-expand after dwell threshold")
	}
}

func TestDwellSkipsDraggedNode(t *testing.T) {
	h := newHarness(t)
	nori := h.row(t, 15462)
	h.sess.DragStart(nori) // collapses Nori

	h.sess.DragOver(nori, 0.5)
	h.clock.Advance(time.Second)
	expanded, _ := h.sess.Dwell()
	node, _ := h.store.FindByID(15462)
	if expanded || h.exp.IsExpanded(node) {
		t.Error("the dragged node must never auto-expand")
	}
}

func TestWithDwell(t *testing.T) {
	h := newHarness(t, WithDwell(50*time.Millisecond))
	p2root, _ := h.store.FindByID(159861)
	h.exp.Collapse(p2root)
	h.project()

	h.sess.DragStart(h.row(t, 15462))
	target := h.row(t, 159861)
	h.sess.DragOver(target, 0.5)
	h.clock.Advance(60 * time.Millisecond)
	h.sess.DragOver(target, 0.5)
	if !h.exp.IsExpanded(p2root) {
		t.Error("expected expand after custom dwell")
	}
}

// TestDropOntoSubCategory covers moving a root product into Nori
func TestDropOntoSubCategory(t *testing.T) {
	h := newHarness(t)
	rootsBefore := len(h.store.Roots())

	h.sess.DragStart(h.row(t, 159860))
	nori := h.row(t, 15462)
	if zone, _ := h.sess.DragOver(nori, 0.5); zone != model.ZoneCenter {
		t.Fatalf("zone = %s, want center", zone)
	}
	moved, err := h.sess.Drop(nori)
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if h.sess.IsDragging() {
		t.Error("session should be idle after drop")
	}

	roots := h.store.Roots()
	if len(roots) != rootsBefore-1 {
		t.Errorf("roots = %d, want %d", len(roots), rootsBefore-1)
	}
	noriNode, _ := h.store.FindByID(15462)
	if len(noriNode.Children) != 3 {
		t.Fatalf("Nori children = %d, want 3", len(noriNode.Children))
	}
	last := noriNode.Children[2]
	if last != moved || last.Name != "Product #1" || last.ID != 159860 {
		t.Errorf("unexpected last child %+v", last)
	}
	if !h.exp.IsExpanded(moved) {
		t.Error("moved subtree should be expanded")
	}
}

func TestDropSiblingZones(t *testing.T) {
	h := newHarness(t)
	h.sess.DragStart(h.row(t, 159860))
	target := h.row(t, 159861)
	h.sess.DragOver(target, 0.1)
	if _, err := h.sess.Drop(target); err != nil {
		t.Fatalf("Drop above: %v", err)
	}
	roots := h.store.Roots()
	if roots[1].ID != 159860 || roots[2].ID != 159861 {
		t.Errorf("expected Product #1 above Product #2, got %d,%d", roots[1].ID, roots[2].ID)
	}

	h.project()
	h.sess.DragStart(h.row(t, 159860))
	target = h.row(t, 15461)
	h.sess.DragOver(target, 0.9)
	if _, err := h.sess.Drop(target); err != nil {
		t.Fatalf("Drop below: %v", err)
	}
	roots = h.store.Roots()
	if roots[0].ID != 15461 || roots[1].ID != 159860 {
		t.Errorf("expected Product #1 below Sushi, got %d,%d", roots[0].ID, roots[1].ID)
	}
}

func TestDropOntoSelf(t *testing.T) {
	h := newHarness(t)
	row := h.row(t, 159860)
	h.sess.DragStart(row)
	h.sess.DragOver(row, 0.5)

	_, err := h.sess.Drop(row)
	if !errors.Is(err, model.ErrInvalidDrop) {
		t.Errorf("expected ErrInvalidDrop, got %v", err)
	}
	if h.sess.IsDragging() {
		t.Error("state must clear after a rejected drop")
	}
	if h.store.Version() != 0 {
		t.Error("rejected drop must not mutate the tree")
	}
}

func TestDropIntoOwnDescendant(t *testing.T) {
	h := newHarness(t, WithoutRules())
	nori := h.row(t, 15462)
	h.sess.DragStart(h.row(t, 15461))

	_, err := h.sess.Drop(nori)
	if !errors.Is(err, model.ErrInvalidDrop) {
		t.Errorf("expected ErrInvalidDrop, got %v", err)
	}
	if h.store.Version() != 0 {
		t.Error("rejected drop must not mutate the tree")
	}
}

func TestDropRules(t *testing.T) {
	tests := []struct {
		name    string
		dragged int64
		target  int64
		zone    float64
		ok      bool
	}{
		{"product into subCategory", 159860, 15462, 0.5, true},
		{"product into category", 159860, 15461, 0.5, true},
		{"category into product", 15461, 159860, 0.5, false},
		{"subProduct to root level", 159862, 159860, 0.1, false},
		{"subProduct into product", 159862, 159860, 0.5, true},
		{"product into product", 159860, 159861, 0.5, false},
		{"product next to root product", 159859, 159860, 0.9, true},
		{"subCategory to root level", 15462, 159860, 0.9, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.sess.DragStart(h.row(t, tt.dragged))
			h.exp.ExpandAll(h.store.Roots())
			h.project()
			target := h.row(t, tt.target)
			h.sess.DragOver(target, tt.zone)
			_, err := h.sess.Drop(target)
			if tt.ok && err != nil {
				t.Errorf("expected drop allowed, got %v", err)
			}
			if !tt.ok && !errors.Is(err, model.ErrInvalidDrop) {
				t.Errorf("expected ErrInvalidDrop, got %v", err)
			}
		})
	}
}

func TestWithoutRules(t *testing.T) {
	h := newHarness(t, WithoutRules())
	h.sess.DragStart(h.row(t, 15461))
	target := h.row(t, 159860)
	h.sess.DragOver(target, 0.5)
	if _, err := h.sess.Drop(target); err != nil {
		t.Errorf("expected unrestricted drop, got %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Drag.EnforceRules = false
	cfg.Drag.DwellThreshold = time.Second
	s := NewSession(nil, nil, nil, FromConfig(cfg)...)
	if s.rules != nil {
		t.Error("rules should be off")
	}
	if s.dwell != time.Second {
		t.Errorf("dwell = %v", s.dwell)
	}

	cfg.Drag.EnforceRules = true
	cfg.Rules = map[string][]model.FrontType{config.RootKey: {model.TypeProduct}}
	s = NewSession(nil, nil, nil, FromConfig(cfg)...)
	if s.rules.Allows(nil, model.TypeCategory) {
		t.Error("custom rules should forbid root categories")
	}
}

func TestDragEnd(t *testing.T) {
	h := newHarness(t)
	h.sess.DragStart(h.row(t, 159860))
	h.sess.DragOver(h.row(t, 15462), 0.5)
	h.sess.DragEnd()

	if h.sess.IsDragging() {
		t.Error("expected idle after DragEnd")
	}
	if hover, zone := h.sess.Hover(); hover != nil || zone != "" {
		t.Errorf("hover state not cleared: %v %q", hover, zone)
	}
	if h.store.Version() != 0 {
		t.Error("DragEnd must not mutate the tree")
	}
}

func TestDropWithoutHoverUsesCenter(t *testing.T) {
	h := newHarness(t)
	h.sess.DragStart(h.row(t, 159860))
	h.sess.DragOver(h.row(t, 15461), 0.1) // above Sushi, then drop elsewhere
	moved, err := h.sess.Drop(h.row(t, 15462))
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	parent, _ := h.store.FindParent(moved)
	if parent == nil || parent.ID != 15462 {
		t.Errorf("expected drop into Nori, got parent %v", parent)
	}
}
