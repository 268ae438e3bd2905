package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"billing-backend/internal/services"
	"billing-backend/pkg/utils"
)

type SyncHandler struct {
	Service *services.SyncService
}

func NewSyncHandler(s *services.SyncService) *SyncHandler {
	return &SyncHandler{Service: s}
}

// SyncInvoice creates the invoice on the organization's accounting
// platform and returns the sync result with its tracking job.
func (h *SyncHandler) SyncInvoice(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	organizationID := vars["organizationId"]
	invoiceID := vars["invoiceId"]

	result, err := h.Service.Sync(r.Context(), organizationID, invoiceID)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, result)
}
