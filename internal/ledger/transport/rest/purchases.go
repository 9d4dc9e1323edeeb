package rest

import (
	"fmt"
	"net/http"

	"github.com/abgdnv/stockledger/internal/ledger/service"
	"github.com/abgdnv/stockledger/pkg/web"
)

const defaultRecentPurchases = 5

// ListPurchases returns all purchase records.
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	list := h.service.Purchases(r.Context())
	mLogger.DebugContext(r.Context(), "Retrieved purchase list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// RecentPurchases returns the latest purchase records, newest date first.
func (h *Handler) RecentPurchases(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	limit, ok := web.ParseOptionalGt(r, w, mLogger, "limit", 0, defaultRecentPurchases)
	if !ok {
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, h.service.RecentPurchases(r.Context(), limit))
}

// FindPurchase retrieves a purchase record by its ID.
func (h *Handler) FindPurchase(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	found, err := h.service.Purchase(r.Context(), id)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Failed to retrieve purchase", "ID", id, "error", err)
		respondLedgerError(w, mLogger, err, fmt.Sprintf("Failed to retrieve purchase with ID %s", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// CreatePurchase records a purchase; the referenced product must exist.
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	dto, ok := decodeValid[service.PurchaseCreateDto](h.validate, w, r, mLogger)
	if !ok {
		return
	}
	created, err := h.service.AddPurchase(r.Context(), dto)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error creating purchase", "error", err)
		respondLedgerError(w, mLogger, err, "Failed to create purchase record")
		return
	}
	mLogger.InfoContext(r.Context(), "Purchase record added successfully", "ID", created.ID, "ProductID", created.ProductID)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// UpdatePurchase replaces the purchase record with the ID from the path.
// Historical edits are accepted without stock re-validation.
func (h *Handler) UpdatePurchase(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	dto, ok := decodeValid[service.PurchaseDto](h.validate, w, r, mLogger)
	if !ok {
		return
	}
	dto.ID = id

	updated, err := h.service.UpdatePurchase(r.Context(), dto)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error updating purchase", "ID", id, "error", err)
		respondLedgerError(w, mLogger, err, fmt.Sprintf("Failed to update purchase with ID %s", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Purchase record updated successfully", "ID", updated.ID)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeletePurchase removes a purchase record.
func (h *Handler) DeletePurchase(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := h.service.DeletePurchase(r.Context(), id); err != nil {
		mLogger.WarnContext(r.Context(), "Error deleting purchase", "ID", id, "error", err)
		respondLedgerError(w, mLogger, err, fmt.Sprintf("Failed to delete purchase with ID %s", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Purchase record deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}
