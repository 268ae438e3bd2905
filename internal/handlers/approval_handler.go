package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"billing-backend/internal/apperrors"
	"billing-backend/internal/models"
	"billing-backend/internal/services"
	"billing-backend/pkg/utils"
)

type ApprovalHandler struct {
	Service *services.ApprovalService
}

func NewApprovalHandler(s *services.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{Service: s}
}

func (h *ApprovalHandler) ListApprovals(w http.ResponseWriter, r *http.Request) {
	organizationID := mux.Vars(r)["organizationId"]

	var status *models.ApprovalStatus
	if s := r.URL.Query().Get("status"); s != "" {
		v := models.ApprovalStatus(s)
		status = &v
	}
	var objectType *models.ApprovalObjectType
	if t := r.URL.Query().Get("object_type"); t != "" {
		v := models.ApprovalObjectType(t)
		objectType = &v
	}

	approvals, err := h.Service.List(r.Context(), organizationID, status, objectType)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, approvals)
}

func (h *ApprovalHandler) GetApproval(w http.ResponseWriter, r *http.Request) {
	approval, err := h.Service.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, approval)
}

type createApprovalRequest struct {
	ObjectType models.ApprovalObjectType `json:"object_type"`
	InvoiceID  *string                   `json:"invoice_id"`
}

func (h *ApprovalHandler) CreateApproval(w http.ResponseWriter, r *http.Request) {
	organizationID := mux.Vars(r)["organizationId"]

	var req createApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, apperrors.BadRequest(apperrors.CodeInvalidInput, "Invalid request body"))
		return
	}

	approval, err := h.Service.Create(r.Context(), organizationID, req.ObjectType, req.InvoiceID)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   approval,
	})
}

type updateApprovalRequest struct {
	Status models.ApprovalStatus `json:"status"`
}

// UpdateApproval changes an approval's status. Approving an invoice
// approval triggers the invoice sync before the status is recorded.
func (h *ApprovalHandler) UpdateApproval(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	organizationID := vars["organizationId"]
	approvalID := vars["id"]

	var req updateApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		utils.Error(w, apperrors.BadRequest(apperrors.CodeInvalidInput, "A status is required"))
		return
	}

	result, err := h.Service.Update(r.Context(), organizationID, approvalID, req.Status)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   result,
	})
}

func (h *ApprovalHandler) DeleteApproval(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
