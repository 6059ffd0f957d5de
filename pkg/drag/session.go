// Package drag implements the drag-and-drop session that turns pointer
// intents on the flat projection into subtree moves on the catalog.
package drag

import (
	"errors"
	"time"

	"github.com/vanderheijden86/catalogtree/pkg/config"
	"github.com/vanderheijden86/catalogtree/pkg/debug"
	"github.com/vanderheijden86/catalogtree/pkg/model"
	"github.com/vanderheijden86/catalogtree/pkg/tree"
)

// ErrNotDragging is returned by DragOver and Drop outside a drag.
var ErrNotDragging = errors.New("no drag in progress")

// State represents the current state of a drag session.
type State int

const (
	StateIdle State = iota
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Tree is the mutation side of the catalog a session drops into.
// *catalog.Store implements it.
type Tree interface {
	FindParent(node *model.TreeNode) (*model.TreeNode, bool)
	MoveSubtree(source, target *model.TreeNode, zone model.DropZone) (*model.TreeNode, error)
}

// Locator resolves flat rows to tree nodes. *tree.Flattener implements it.
type Locator interface {
	Locate(flat *tree.FlatNode) (*model.TreeNode, error)
}

// Expander is the presentation layer's expand/collapse state.
// *tree.Expansion implements it.
type Expander interface {
	IsExpanded(node *model.TreeNode) bool
	Expand(node *model.TreeNode)
	Collapse(node *model.TreeNode)
	ExpandDescendants(node *model.TreeNode)
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithDwell sets how long a collapsed node must be hovered before it opens.
func WithDwell(d time.Duration) Option {
	return func(s *Session) { s.dwell = d }
}

// WithFractions sets the pointer fractions separating the above, center
// and below zones.
func WithFractions(above, below float64) Option {
	return func(s *Session) {
		s.above = above
		s.below = below
	}
}

// WithRules sets the nesting rules checked before a drop.
func WithRules(r Rules) Option {
	return func(s *Session) { s.rules = r }
}

// WithoutRules lets any drop through to the tree.
func WithoutRules() Option {
	return func(s *Session) { s.rules = nil }
}

// FromConfig translates a loaded config into session options.
func FromConfig(cfg config.Config) []Option {
	opts := []Option{
		WithDwell(cfg.Drag.DwellThreshold),
		WithFractions(cfg.Drag.AboveFraction, cfg.Drag.BelowFraction),
	}
	if cfg.Drag.EnforceRules {
		opts = append(opts, WithRules(RulesFromMap(cfg.Rules)))
	} else {
		opts = append(opts, WithoutRules())
	}
	return opts
}

// Session is one user's drag-and-drop state. It is driven from a single
// event loop and is not safe for concurrent use.
type Session struct {
	tree     Tree
	locator  Locator
	expander Expander
	rules    Rules
	now      func() time.Time
	dwell    time.Duration
	above    float64
	below    float64

	state      State
	dragged    *tree.FlatNode
	hover      *tree.FlatNode
	hoverStart time.Time
	zone       model.DropZone
}

// NewSession creates an idle session using the default thresholds and rules.
func NewSession(t Tree, l Locator, e Expander, opts ...Option) *Session {
	defaults := config.DefaultConfig().Drag
	s := &Session{
		tree:     t,
		locator:  l,
		expander: e,
		rules:    DefaultRules(),
		now:      time.Now,
		dwell:    defaults.DwellThreshold,
		above:    defaults.AboveFraction,
		below:    defaults.BelowFraction,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// IsDragging returns true if currently in a drag operation.
func (s *Session) IsDragging() bool { return s.state == StateDragging }

// Dragged returns the row being dragged, nil when idle.
func (s *Session) Dragged() *tree.FlatNode { return s.dragged }

// Hover returns the row under the pointer and its drop zone.
func (s *Session) Hover() (*tree.FlatNode, model.DropZone) { return s.hover, s.zone }

// Classify maps a vertical pointer fraction within a row to a drop zone.
func (s *Session) Classify(fraction float64) model.DropZone {
	switch {
	case fraction < s.above:
		return model.ZoneAbove
	case fraction > s.below:
		return model.ZoneBelow
	default:
		return model.ZoneCenter
	}
}

// FractionFor returns a pointer fraction that Classify maps to zone. Keyboard
// and scripted drags use it in place of a real pointer position.
func (s *Session) FractionFor(zone model.DropZone) float64 {
	switch zone {
	case model.ZoneAbove:
		return s.above / 2
	case model.ZoneBelow:
		return (s.below + 1) / 2
	default:
		return (s.above + s.below) / 2
	}
}

// DragStart begins dragging flat and collapses it in the view. Starting a
// new drag abandons any drag already in progress.
func (s *Session) DragStart(flat *tree.FlatNode) error {
	node, err := s.locator.Locate(flat)
	if err != nil {
		s.reset()
		return err
	}
	s.reset()
	s.state = StateDragging
	s.dragged = flat
	s.expander.Collapse(node)
	debug.Log("drag start %d %q", flat.ID, flat.Name)
	return nil
}

// DragOver records the pointer over flat at the given vertical fraction
// and returns the resulting zone. Hovering a new row restarts the dwell
// timer; staying on a collapsed row past the dwell threshold expands it.
func (s *Session) DragOver(flat *tree.FlatNode, fraction float64) (model.DropZone, error) {
	if s.state != StateDragging {
		return "", ErrNotDragging
	}
	if flat == nil {
		return "", &model.TreeError{Op: "hover", Err: model.ErrNotFound}
	}
	s.zone = s.Classify(fraction)
	if s.hover == nil || s.hover.ID != flat.ID {
		s.hover = flat
		s.hoverStart = s.now()
		return s.zone, nil
	}
	s.hover = flat
	_, err := s.Dwell()
	return s.zone, err
}

// Dwell expands the hovered row once it has been hovered longer than the
// dwell threshold. It reports whether it expanded anything. Callers with no
// pointer motion (a ticking UI) use it to keep the timer moving.
func (s *Session) Dwell() (bool, error) {
	if s.state != StateDragging || s.hover == nil || s.hover.ID == s.dragged.ID {
		return false, nil
	}
	if s.now().Sub(s.hoverStart) <= s.dwell {
		return false, nil
	}
	node, err := s.locator.Locate(s.hover)
	if err != nil {
		return false, err
	}
	if !node.HasChildren() || s.expander.IsExpanded(node) {
		return false, nil
	}
	s.expander.Expand(node)
	debug.Log("dwell expand %d after %v", node.ID, s.now().Sub(s.hoverStart))
	return true, nil
}

// Drop moves the dragged subtree relative to flat using the zone last
// reported for flat (center if flat was never hovered), then expands the
// moved copy's descendants. The session is idle afterwards whatever the
// outcome.
func (s *Session) Drop(flat *tree.FlatNode) (*model.TreeNode, error) {
	if s.state != StateDragging {
		return nil, ErrNotDragging
	}
	dragged, hover, zone := s.dragged, s.hover, s.zone
	defer s.reset()

	if flat == nil {
		return nil, &model.TreeError{Op: "drop", Err: model.ErrNotFound}
	}
	if flat.ID == dragged.ID {
		return nil, &model.TreeError{Op: "drop", ID: flat.ID, Err: model.ErrInvalidDrop, Detail: "cannot drop a node onto itself"}
	}
	if hover == nil || hover.ID != flat.ID {
		zone = model.ZoneCenter
	}

	source, err := s.locator.Locate(dragged)
	if err != nil {
		return nil, err
	}
	target, err := s.locator.Locate(flat)
	if err != nil {
		return nil, err
	}

	if s.rules != nil {
		parent, ok := s.tree.FindParent(target)
		if !ok {
			return nil, &model.TreeError{Op: "drop", ID: target.ID, Err: model.ErrNotFound}
		}
		if err := s.rules.Check(source, target, parent, zone); err != nil {
			return nil, err
		}
	}

	moved, err := s.tree.MoveSubtree(source, target, zone)
	if err != nil {
		return nil, err
	}
	s.expander.ExpandDescendants(moved)
	return moved, nil
}

// DragEnd cancels the drag without touching the tree.
func (s *Session) DragEnd() {
	if s.state == StateDragging {
		debug.Log("drag cancelled %d", s.dragged.ID)
	}
	s.reset()
}

func (s *Session) reset() {
	s.state = StateIdle
	s.dragged = nil
	s.hover = nil
	s.hoverStart = time.Time{}
	s.zone = ""
}
