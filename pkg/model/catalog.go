package model

// Category is the backend shape of a top-level catalog category. It carries
// nested item categories and its own directly attached items.
type Category struct {
	ID                     int64          `json:"id" yaml:"id"`
	Name                   string         `json:"name" yaml:"name"`
	Order                  int            `json:"order" yaml:"order"`
	ParentID               *int64         `json:"parentId" yaml:"parentId"`
	ChildrenItemCategories []ItemCategory `json:"childrenItemCategories" yaml:"childrenItemCategories"`
	Items                  []Item         `json:"items" yaml:"items"`
}

// ItemCategory is the backend shape of a subcategory.
type ItemCategory struct {
	ID       int64  `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Order    int    `json:"order" yaml:"order"`
	ParentID *int64 `json:"parentId" yaml:"parentId"`
	Items    []Item `json:"items" yaml:"items"`
}

// Item is the backend shape of a product. Children are its subproducts.
type Item struct {
	ID             int64  `json:"id" yaml:"id"`
	ItemCategoryID *int64 `json:"itemCategoryId" yaml:"itemCategoryId"`
	ParentID       *int64 `json:"parentId" yaml:"parentId"`
	Name           string `json:"name" yaml:"name"`
	Order          int    `json:"order" yaml:"order"`
	Children       []Item `json:"children,omitempty" yaml:"children,omitempty"`
}

// FromCategories maps backend categories into tree nodes. Subcategories come
// first under each category, followed by the category's own items.
func FromCategories(categories []Category) []*TreeNode {
	roots := make([]*TreeNode, 0, len(categories))
	for _, c := range categories {
		node := &TreeNode{
			ID:        c.ID,
			Name:      c.Name,
			Order:     c.Order,
			FrontType: TypeCategory,
			Children:  []*TreeNode{},
		}
		for _, sub := range c.ChildrenItemCategories {
			node.Children = append(node.Children, fromItemCategory(sub))
		}
		for _, item := range c.Items {
			node.Children = append(node.Children, fromProduct(item))
		}
		roots = append(roots, node)
	}
	return roots
}

func fromItemCategory(sub ItemCategory) *TreeNode {
	node := &TreeNode{
		ID:        sub.ID,
		Name:      sub.Name,
		Order:     sub.Order,
		FrontType: TypeSubCategory,
		Children:  make([]*TreeNode, 0, len(sub.Items)),
	}
	for _, item := range sub.Items {
		node.Children = append(node.Children, fromProduct(item))
	}
	return node
}

func fromProduct(item Item) *TreeNode {
	node := &TreeNode{
		ID:        item.ID,
		Name:      item.Name,
		Order:     item.Order,
		FrontType: TypeProduct,
		Children:  make([]*TreeNode, 0, len(item.Children)),
	}
	for _, child := range item.Children {
		node.Children = append(node.Children, &TreeNode{
			ID:        child.ID,
			Name:      child.Name,
			Order:     child.Order,
			FrontType: TypeSubProduct,
			Children:  []*TreeNode{},
		})
	}
	return node
}
