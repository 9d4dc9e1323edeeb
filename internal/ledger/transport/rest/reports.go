package rest

import (
	"net/http"
	"time"

	"github.com/abgdnv/stockledger/pkg/web"
)

// ListStock returns the derived quantity for every product.
func (h *Handler) ListStock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	web.RespondJSON(w, mLogger, http.StatusOK, h.service.Stock(r.Context()))
}

// MonthlyEarnings aggregates revenue, costs and profit for one calendar
// month. Month is 1-12.
func (h *Handler) MonthlyEarnings(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	month, ok := web.ParseValidateRange(r, w, mLogger, "month", 1, 12)
	if !ok {
		return
	}
	year, ok := web.ParseValidateRange(r, w, mLogger, "year", 1, 9999)
	if !ok {
		return
	}
	earnings := h.service.MonthlyEarnings(r.Context(), time.Month(month), year)
	web.RespondJSON(w, mLogger, http.StatusOK, earnings)
}

// YearlyEarnings returns the twelve monthly aggregates of a year, the series
// behind the earnings chart.
func (h *Handler) YearlyEarnings(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	year, ok := web.ParseValidateRange(r, w, mLogger, "year", 1, 9999)
	if !ok {
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, h.service.YearlyEarnings(r.Context(), year))
}

// PendingPayments lists purchases and sales still awaiting payment.
func (h *Handler) PendingPayments(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	web.RespondJSON(w, mLogger, http.StatusOK, h.service.PendingPayments(r.Context()))
}

// LowStock lists products whose derived stock fell below their threshold.
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	web.RespondJSON(w, mLogger, http.StatusOK, h.service.LowStock(r.Context()))
}
