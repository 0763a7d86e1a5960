package core

import "strings"

type DBCategory interface {
	ID() int
	Name() string
	ParentID() int // zero for root categories
	Description() string
	RequiredApprovalRole() Role
	TsCreated() int64
	TsUpdated() int64
}

type CategoryDB interface {
	DeleteCategory(c DBCategory) error
	GetCategory(id int) (DBCategory, error)
	GetAllCategories() ([]DBCategory, error)
	GetChildCategories(parentID int) ([]DBCategory, error)
	GetRootCategories() ([]DBCategory, error)
	InsertCategory(name string, parentID int, description string, requiredApprovalRole Role) (DBCategory, error)
	UpdateCategory(c DBCategory, name string, parentID int, description string, requiredApprovalRole Role) error
	Writeable() bool
}

// Category wraps DBCategory with hierarchy lookups.
type Category struct {
	DBCategory
	db *CoreDB
}

func (c *CoreDB) NewCategory(dbCategory DBCategory) *Category {
	return &Category{
		DBCategory: dbCategory,
		db:         c,
	}
}

// GetCategory shadows CategoryDB.GetCategory.
func (c *CoreDB) GetCategory(id int) (*Category, error) {
	dbCategory, err := c.CategoryDB.GetCategory(id)
	if err != nil {
		return nil, err
	}
	return c.NewCategory(dbCategory), nil
}

// Ancestors returns the chain of parent categories, nearest first.
func (cat *Category) Ancestors() ([]*Category, error) {
	var ancestors = []*Category{}
	var parentID = cat.ParentID()
	for parentID != 0 {
		if len(ancestors) > 16 {
			break // cycle guard
		}
		parent, err := cat.db.GetCategory(parentID)
		if err != nil {
			return nil, err
		}
		ancestors = append(ancestors, parent)
		parentID = parent.ParentID()
	}
	return ancestors, nil
}

// Children returns the direct child categories.
func (cat *Category) Children() ([]*Category, error) {
	children, err := cat.db.GetChildCategories(cat.ID())
	if err != nil {
		return nil, err
	}
	var result = make([]*Category, len(children))
	for i := range children {
		result[i] = cat.db.NewCategory(children[i])
	}
	return result, nil
}

// Descendants returns all categories below the receiver, depth-first.
func (cat *Category) Descendants() ([]*Category, error) {
	return cat.descendants(0)
}

func (cat *Category) descendants(depth int) ([]*Category, error) {
	if depth > 16 {
		return nil, nil // cycle guard
	}
	var descendants = []*Category{}
	children, err := cat.Children()
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		descendants = append(descendants, child)
		below, err := child.descendants(depth + 1)
		if err != nil {
			return nil, err
		}
		descendants = append(descendants, below...)
	}
	return descendants, nil
}

// FullPath returns the hierarchical category path, like "Governance > Bylaws".
func (cat *Category) FullPath() (string, error) {
	ancestors, err := cat.Ancestors()
	if err != nil {
		return "", err
	}
	var segments = []string{}
	for i := len(ancestors) - 1; i >= 0; i-- {
		segments = append(segments, ancestors[i].Name())
	}
	segments = append(segments, cat.Name())
	return strings.Join(segments, " > "), nil
}

// DocumentCount counts the documents in the receiver and all its descendants.
func (cat *Category) DocumentCount() (int, error) {
	count, err := cat.db.CountDocumentsByCategory(cat.ID())
	if err != nil {
		return 0, err
	}
	descendants, err := cat.Descendants()
	if err != nil {
		return 0, err
	}
	for _, d := range descendants {
		n, err := cat.db.CountDocumentsByCategory(d.ID())
		if err != nil {
			return 0, err
		}
		count += n
	}
	return count, nil
}
