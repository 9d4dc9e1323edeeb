package rest

import (
	"fmt"
	"net/http"

	"github.com/abgdnv/stockledger/internal/ledger/service"
	"github.com/abgdnv/stockledger/pkg/web"
)

// ListSales returns all sale records.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	list := h.service.Sales(r.Context())
	mLogger.DebugContext(r.Context(), "Retrieved sale list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// FindSale retrieves a sale record by its ID.
func (h *Handler) FindSale(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	found, err := h.service.Sale(r.Context(), id)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Failed to retrieve sale", "ID", id, "error", err)
		respondLedgerError(w, mLogger, err, fmt.Sprintf("Failed to retrieve sale with ID %s", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// CreateSale records a sale; rejected when the quantity exceeds the derived
// stock of the referenced product.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	dto, ok := decodeValid[service.SaleCreateDto](h.validate, w, r, mLogger)
	if !ok {
		return
	}
	created, err := h.service.AddSale(r.Context(), dto)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error creating sale", "ProductID", dto.ProductID, "error", err)
		respondLedgerError(w, mLogger, err, "Failed to create sale record")
		return
	}
	mLogger.InfoContext(r.Context(), "Sale record added successfully", "ID", created.ID, "ProductID", created.ProductID)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// UpdateSale replaces the sale record with the ID from the path. A quantity
// increase is re-validated against current stock.
func (h *Handler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	dto, ok := decodeValid[service.SaleDto](h.validate, w, r, mLogger)
	if !ok {
		return
	}
	dto.ID = id

	updated, err := h.service.UpdateSale(r.Context(), dto)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error updating sale", "ID", id, "error", err)
		respondLedgerError(w, mLogger, err, fmt.Sprintf("Failed to update sale with ID %s", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Sale record updated successfully", "ID", updated.ID)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteSale removes a sale record; the freed quantity returns to stock via
// recomputation.
func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := h.service.DeleteSale(r.Context(), id); err != nil {
		mLogger.WarnContext(r.Context(), "Error deleting sale", "ID", id, "error", err)
		respondLedgerError(w, mLogger, err, fmt.Sprintf("Failed to delete sale with ID %s", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Sale record deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}
