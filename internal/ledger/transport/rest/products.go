package rest

import (
	"fmt"
	"net/http"

	"github.com/abgdnv/stockledger/internal/ledger/service"
	"github.com/abgdnv/stockledger/pkg/web"
)

// ListProducts returns the full product catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	list := h.service.Products(r.Context())
	mLogger.DebugContext(r.Context(), "Retrieved product list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// FindProduct retrieves a product by its ID.
func (h *Handler) FindProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	found, err := h.service.Product(r.Context(), id)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Failed to retrieve product", "ID", id, "error", err)
		respondLedgerError(w, mLogger, err, fmt.Sprintf("Failed to retrieve product with ID %s", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// CreateProduct adds a product to the catalog.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	dto, ok := decodeValid[service.ProductCreateDto](h.validate, w, r, mLogger)
	if !ok {
		return
	}
	created, err := h.service.AddProduct(r.Context(), dto)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
		respondLedgerError(w, mLogger, err, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// UpdateProduct replaces the product with the ID from the path.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	dto, ok := decodeValid[service.ProductDto](h.validate, w, r, mLogger)
	if !ok {
		return
	}
	dto.ID = id

	updated, err := h.service.UpdateProduct(r.Context(), dto)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Error updating product", "ID", id, "error", err)
		respondLedgerError(w, mLogger, err, fmt.Sprintf("Failed to update product with ID %s", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteProduct removes a product unless purchases or sales still reference it.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		mLogger.WarnContext(r.Context(), "Error deleting product", "ID", id, "error", err)
		respondLedgerError(w, mLogger, err, fmt.Sprintf("Failed to delete product with ID %s", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// FindProductStock returns the derived stock quantity for one product.
func (h *Handler) FindProductStock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	quantity := h.service.ProductStock(r.Context(), id)
	web.RespondJSON(w, mLogger, http.StatusOK, service.StockItemDto{ProductID: id, Quantity: quantity})
}
