// Package rest provides the HTTP handlers for the inventory ledger.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	lerrors "github.com/abgdnv/stockledger/internal/ledger/errors"
	"github.com/abgdnv/stockledger/internal/ledger/service"
	"github.com/abgdnv/stockledger/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  service.LedgerService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates the ledger HTTP API with the provided service.
func NewHandler(svc service.LedgerService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  svc,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the ledger service.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.FindProduct)
				r.Put("/", h.UpdateProduct)
				r.Delete("/", h.DeleteProduct)
				r.Get("/stock", h.FindProductStock)
			})
		})
		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", h.ListPurchases)
			r.Post("/", h.CreatePurchase)
			r.Get("/recent", h.RecentPurchases)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.FindPurchase)
				r.Put("/", h.UpdatePurchase)
				r.Delete("/", h.DeletePurchase)
			})
		})
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", h.CreateSale)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.FindSale)
				r.Put("/", h.UpdateSale)
				r.Delete("/", h.DeleteSale)
			})
		})
		r.Get("/stock", h.ListStock)
		r.Route("/reports", func(r chi.Router) {
			r.Get("/earnings", h.MonthlyEarnings)
			r.Get("/earnings/yearly", h.YearlyEarnings)
			r.Get("/pending", h.PendingPayments)
			r.Get("/low-stock", h.LowStock)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}

// decodeValid decodes the request body into a DTO and runs struct validation,
// responding with 400 and per-field rules on failure.
func decodeValid[T any](v *validator.Validate, w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (T, bool) {
	var dto T
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return dto, false
	}
	if err := v.Struct(dto); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return dto, false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return dto, false
	}
	return dto, true
}

// respondLedgerError maps ledger errors onto HTTP statuses: not-found
// lookups to 404, rejected invariants to 409, anything else to 500 with
// the fallback message.
func respondLedgerError(w http.ResponseWriter, mLogger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, lerrors.ErrProductNotFound),
		errors.Is(err, lerrors.ErrPurchaseNotFound),
		errors.Is(err, lerrors.ErrSaleNotFound):
		web.RespondError(w, mLogger, http.StatusNotFound, capitalize(sentinelOf(err).Error()))
	case errors.Is(err, lerrors.ErrProductInUse):
		web.RespondError(w, mLogger, http.StatusConflict, "Cannot delete product that is used in purchases or sales")
	case errors.Is(err, lerrors.ErrInsufficientStock):
		web.RespondError(w, mLogger, http.StatusConflict, "Not enough stock to complete this sale")
	default:
		web.RespondError(w, mLogger, http.StatusInternalServerError, fallback)
	}
}

func sentinelOf(err error) error {
	for _, sentinel := range []error{
		lerrors.ErrProductNotFound,
		lerrors.ErrPurchaseNotFound,
		lerrors.ErrSaleNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return err
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
