package drag

import (
	"fmt"
	"slices"

	"github.com/vanderheijden86/catalogtree/pkg/config"
	"github.com/vanderheijden86/catalogtree/pkg/model"
)

// Rules maps a parent kind to the kinds it may hold as children. The key is
// a frontType, or config.RootKey for the top level.
type Rules map[string][]model.FrontType

// DefaultRules returns the catalog nesting rules: categories and loose
// products at the top, products inside (sub)categories, subproducts inside
// products.
func DefaultRules() Rules {
	return Rules{
		config.RootKey:                {model.TypeCategory, model.TypeProduct},
		string(model.TypeCategory):    {model.TypeSubCategory, model.TypeProduct},
		string(model.TypeSubCategory): {model.TypeProduct},
		string(model.TypeProduct):     {model.TypeSubProduct},
		string(model.TypeSubProduct):  {},
	}
}

// RulesFromMap builds Rules from a config table. An empty table yields
// DefaultRules.
func RulesFromMap(m map[string][]model.FrontType) Rules {
	if len(m) == 0 {
		return DefaultRules()
	}
	r := make(Rules, len(m))
	for k, v := range m {
		r[k] = slices.Clone(v)
	}
	return r
}

// Allows reports whether a node of kind child may live under parent.
// A nil parent means the top level. Kinds missing from the table accept
// nothing.
func (r Rules) Allows(parent *model.TreeNode, child model.FrontType) bool {
	key := config.RootKey
	if parent != nil {
		key = string(parent.FrontType)
	}
	return slices.Contains(r[key], child)
}

// Check validates dropping dragged onto target in zone. parent is target's
// parent (nil for a top-level target) and only matters for sibling zones.
func (r Rules) Check(dragged, target, parent *model.TreeNode, zone model.DropZone) error {
	newParent := parent
	if zone == model.ZoneCenter {
		newParent = target
	}
	if r.Allows(newParent, dragged.FrontType) {
		return nil
	}
	where := config.RootKey
	if newParent != nil {
		where = fmt.Sprintf("%s %q", newParent.FrontType, newParent.Name)
	}
	return &model.TreeError{
		Op:     "drop",
		ID:     dragged.ID,
		Err:    model.ErrInvalidDrop,
		Detail: fmt.Sprintf("a %s cannot be placed under %s", dragged.FrontType, where),
	}
}
