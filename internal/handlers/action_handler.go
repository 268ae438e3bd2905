package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"billing-backend/internal/apperrors"
	"billing-backend/internal/repositories"
	"billing-backend/internal/services"
	"billing-backend/pkg/utils"
)

// ActionHandler executes platform-side invoice actions (post, cancel,
// send, mark_sent) for platforms that expose them.
type ActionHandler struct {
	Orgs       *repositories.OrganizationRepository
	Connectors services.ConnectorResolver
}

func NewActionHandler(orgs *repositories.OrganizationRepository, connectors services.ConnectorResolver) *ActionHandler {
	return &ActionHandler{Orgs: orgs, Connectors: connectors}
}

type actionRequest struct {
	Action string `json:"action"`
}

func (h *ActionHandler) PerformAction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	organizationID := vars["organizationId"]
	invoiceID := vars["invoiceId"]

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Action == "" {
		utils.Error(w, apperrors.BadRequest(apperrors.CodeInvalidAction, "An action is required"))
		return
	}

	org, err := h.Orgs.GetByID(r.Context(), organizationID)
	if err != nil {
		utils.Error(w, err)
		return
	}
	if org == nil {
		utils.Error(w, apperrors.NotFound("Organization with id %s not found", organizationID))
		return
	}

	connector, err := h.Connectors.ForOrganization(org)
	if err != nil {
		utils.Error(w, err)
		return
	}
	if err := connector.PerformAction(r.Context(), org, invoiceID, req.Action); err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{
		"message": "Action performed successfully",
		"action":  req.Action,
	})
}
