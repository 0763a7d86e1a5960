package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/charter/core"
)

func listCategories(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	categories, err := ctx.db.GetAllCategories()
	if err != nil {
		return err
	}

	var result = make([]*categoryJSON, 0, len(categories))
	for _, c := range categories {
		view, err := newCategoryJSON(ctx.db.NewCategory(c))
		if err != nil {
			return err
		}
		result = append(result, view)
	}
	return writeJSON(w, http.StatusOK, result)
}

func createCategory(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var body struct {
		Name                 string `json:"name"`
		ParentID             int    `json:"parent_id"`
		Description          string `json:"description"`
		RequiredApprovalRole string `json:"required_approval_role"`
	}
	if err := readBody(req, &body); err != nil {
		return err
	}

	var role = core.President // default approval level
	if body.RequiredApprovalRole != "" {
		var err error
		role, err = core.ParseRole(body.RequiredApprovalRole)
		if err != nil {
			return badRequest("%v", err)
		}
	}

	cat, err := ctx.db.CreateCategory(ctx.User, body.Name, body.ParentID, body.Description, role)
	if err != nil {
		return err
	}

	ctx.db.LogActivity(ctx.User, "category.create", "category", cat.ID(), cat.Name(), ctx.IP(), 0)

	view, err := newCategoryJSON(cat)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, view)
}

// getCategory also serves GET /api/categories/tree and /api/categories/stats,
// see getUser for the routing constraint.
func getCategory(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	switch params.ByName("id") {
	case "tree":
		return categoryTree(w, ctx)
	case "stats":
		return categoryStats(w, ctx)
	}

	id, err := intParam(params, "id")
	if err != nil {
		return err
	}
	cat, err := ctx.db.GetCategory(id)
	if err != nil {
		return err
	}
	view, err := newCategoryJSON(cat)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, view)
}

func categoryTree(w http.ResponseWriter, ctx *context) error {
	roots, err := ctx.db.GetRootCategories()
	if err != nil {
		return err
	}
	tree, err := buildCategoryTree(ctx, roots, 0)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, tree)
}

func buildCategoryTree(ctx *context, categories []core.DBCategory, depth int) ([]*categoryTreeJSON, error) {
	if depth > 16 {
		return nil, nil // cycle guard
	}
	var result = make([]*categoryTreeJSON, 0, len(categories))
	for _, c := range categories {
		view, err := newCategoryJSON(ctx.db.NewCategory(c))
		if err != nil {
			return nil, err
		}
		children, err := ctx.db.GetChildCategories(c.ID())
		if err != nil {
			return nil, err
		}
		childTree, err := buildCategoryTree(ctx, children, depth+1)
		if err != nil {
			return nil, err
		}
		result = append(result, &categoryTreeJSON{categoryJSON: *view, Children: childTree})
	}
	return result, nil
}

func categoryStats(w http.ResponseWriter, ctx *context) error {

	if !ctx.User.Role().CanManageUsers() {
		return core.ErrUnauthorized
	}

	categories, err := ctx.db.GetAllCategories()
	if err != nil {
		return err
	}

	var withDocuments, withoutDocuments int
	var byRole = make(map[string]int)
	var perCategory = make([]map[string]interface{}, 0, len(categories))
	for _, c := range categories {
		count, err := ctx.db.CountDocumentsByCategory(c.ID())
		if err != nil {
			return err
		}
		if count > 0 {
			withDocuments++
		} else {
			withoutDocuments++
		}
		byRole[c.RequiredApprovalRole().String()]++
		perCategory = append(perCategory, map[string]interface{}{
			"id":             c.ID(),
			"name":           c.Name(),
			"document_count": count,
		})
	}

	return writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_categories":  len(categories),
		"with_documents":    withDocuments,
		"without_documents": withoutDocuments,
		"by_approval_role":  byRole,
		"categories":        perCategory,
	})
}

func updateCategory(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	id, err := intParam(params, "id")
	if err != nil {
		return err
	}
	cat, err := ctx.db.GetCategory(id)
	if err != nil {
		return err
	}

	var body struct {
		Name                 *string `json:"name"`
		ParentID             *int    `json:"parent_id"`
		Description          *string `json:"description"`
		RequiredApprovalRole *string `json:"required_approval_role"`
	}
	if err := readBody(req, &body); err != nil {
		return err
	}

	var name = cat.Name()
	if body.Name != nil {
		name = *body.Name
	}
	var parentID = cat.ParentID()
	if body.ParentID != nil {
		parentID = *body.ParentID
	}
	var description = cat.Description()
	if body.Description != nil {
		description = *body.Description
	}
	var role = cat.RequiredApprovalRole()
	if body.RequiredApprovalRole != nil {
		role, err = core.ParseRole(*body.RequiredApprovalRole)
		if err != nil {
			return badRequest("%v", err)
		}
	}

	if err := ctx.db.UpdateCategory(ctx.User, cat, name, parentID, description, role); err != nil {
		return err
	}

	ctx.db.LogActivity(ctx.User, "category.update", "category", cat.ID(), name, ctx.IP(), 0)

	cat, err = ctx.db.GetCategory(id)
	if err != nil {
		return err
	}
	view, err := newCategoryJSON(cat)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, view)
}

func deleteCategory(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	id, err := intParam(params, "id")
	if err != nil {
		return err
	}
	cat, err := ctx.db.GetCategory(id)
	if err != nil {
		return err
	}

	if err := ctx.db.DeleteCategory(ctx.User, cat); err != nil {
		return err
	}

	ctx.db.LogActivity(ctx.User, "category.delete", "category", id, cat.Name(), ctx.IP(), 0)

	return writeJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}
