package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"billing-backend/internal/apperrors"
	"billing-backend/internal/repositories"
	"billing-backend/pkg/utils"
)

// InvoiceHandler serves synced invoice records.
type InvoiceHandler struct {
	Synced *repositories.SyncedInvoiceRepository
}

func NewInvoiceHandler(synced *repositories.SyncedInvoiceRepository) *InvoiceHandler {
	return &InvoiceHandler{Synced: synced}
}

func (h *InvoiceHandler) GetSyncedInvoice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	invoice, err := h.Synced.GetByID(r.Context(), id)
	if err != nil {
		utils.Error(w, err)
		return
	}
	if invoice == nil {
		utils.Error(w, apperrors.NotFound("Synced invoice with id %s not found", id))
		return
	}

	utils.JSON(w, http.StatusOK, invoice)
}
