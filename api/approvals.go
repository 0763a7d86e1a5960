package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/charter/core"
)

func listApprovals(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var filter = core.ApprovalFilter{
		DocumentID: queryInt(req, "document_id"),
		Limit:      queryInt(req, "limit"),
		Offset:     queryInt(req, "offset"),
	}
	if s := req.URL.Query().Get("status"); s != "" {
		var status = core.ApprovalStatus(s)
		if !status.Valid() {
			return badRequest("unknown status: %s", s)
		}
		filter.Status = status
	}

	// approvers see the whole queue, everyone else their own requests
	if !ctx.User.Role().CanApproveDocuments() {
		filter.RequestedBy = ctx.User.ID()
	}

	approvals, err := ctx.db.GetApprovals(filter)
	if err != nil {
		return err
	}

	var result = make([]*approvalJSON, 0, len(approvals))
	for _, a := range approvals {
		view, err := ctx.newApprovalJSON(ctx.db.NewApproval(a))
		if err != nil {
			return err
		}
		result = append(result, view)
	}
	return writeJSON(w, http.StatusOK, result)
}

func createApproval(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var body struct {
		DocumentID int    `json:"document_id"`
		Notes      string `json:"notes"`
	}
	if err := readBody(req, &body); err != nil {
		return err
	}
	if body.DocumentID <= 0 {
		return badRequest("invalid document_id")
	}

	return submitApproval(w, ctx, body.DocumentID, body.Notes)
}

// requestApproval is the path-parameter variant of createApproval.
func requestApproval(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	documentID, err := intParam(params, "documentID")
	if err != nil {
		return err
	}

	var body struct {
		Notes string `json:"notes"`
	}
	if req.ContentLength > 0 {
		if err := readBody(req, &body); err != nil {
			return err
		}
	}

	return submitApproval(w, ctx, documentID, body.Notes)
}

func submitApproval(w http.ResponseWriter, ctx *context, documentID int, notes string) error {

	document, err := ctx.db.GetDocument(documentID)
	if err != nil {
		return err
	}
	if !document.CanBeViewedBy(ctx.User) {
		return core.ErrUnauthorized
	}

	approval, err := ctx.db.RequestApproval(ctx.User, document, notes, ctx.IP())
	if err != nil {
		return err
	}

	view, err := ctx.newApprovalJSON(approval)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, view)
}

// getApproval also serves GET /api/approvals/stats, see getUser for the
// routing constraint.
func getApproval(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if params.ByName("id") == "stats" {
		return approvalStats(w, ctx)
	}

	id, err := intParam(params, "id")
	if err != nil {
		return err
	}
	approval, err := ctx.db.GetApproval(id)
	if err != nil {
		return err
	}
	if !approval.CanBeViewedBy(ctx.User) {
		return core.ErrUnauthorized
	}

	view, err := ctx.newApprovalJSON(approval)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, view)
}

func approvalStats(w http.ResponseWriter, ctx *context) error {

	var byStatus map[core.ApprovalStatus]int
	var err error
	if ctx.User.Role().CanApproveDocuments() {
		byStatus, err = ctx.db.CountApprovalsByStatus()
	} else {
		byStatus, err = ctx.db.CountApprovalsByStatusOf(ctx.User.ID())
	}
	if err != nil {
		return err
	}

	var total int
	var statuses = make(map[string]int)
	for status, count := range byStatus {
		total += count
		statuses[status.String()] = count
	}

	return writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_approvals": total,
		"by_status":       statuses,
	})
}

func reviewApproval(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	id, err := intParam(params, "id")
	if err != nil {
		return err
	}
	approval, err := ctx.db.GetApproval(id)
	if err != nil {
		return err
	}

	var body struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := readBody(req, &body); err != nil {
		return err
	}

	var approve bool
	switch core.ApprovalStatus(body.Status) {
	case core.ApprovalApproved:
		approve = true
	case core.ApprovalRejected:
		approve = false
	default:
		return badRequest("status must be APPROVED or REJECTED")
	}

	if err := ctx.db.ReviewApproval(ctx.User, approval, approve, body.Notes, ctx.IP()); err != nil {
		return err
	}

	approval, err = ctx.db.GetApproval(id)
	if err != nil {
		return err
	}
	view, err := ctx.newApprovalJSON(approval)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, view)
}

func cancelApproval(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	id, err := intParam(params, "id")
	if err != nil {
		return err
	}
	approval, err := ctx.db.GetApproval(id)
	if err != nil {
		return err
	}

	if err := ctx.db.CancelApproval(ctx.User, approval, ctx.IP()); err != nil {
		return err
	}

	approval, err = ctx.db.GetApproval(id)
	if err != nil {
		return err
	}
	view, err := ctx.newApprovalJSON(approval)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, view)
}
