// Package e2e provides end-to-end tests for the ledger application. The
// actual application handler runs in an httptest.Server over the in-memory
// store, so the full HTTP stack (routing, middleware, validation, error
// mapping) is exercised without external infrastructure.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abgdnv/stockledger/internal/ledger/app"
	"github.com/abgdnv/stockledger/internal/ledger/config"
	"github.com/abgdnv/stockledger/internal/ledger/service"
	"github.com/abgdnv/stockledger/pkg/messaging"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	productsURL  = "/api/v1/products"
	purchasesURL = "/api/v1/purchases"
	salesURL     = "/api/v1/sales"
)

// LedgerE2ESuite runs the ledger HTTP API against the in-memory store.
type LedgerE2ESuite struct {
	suite.Suite
	server     *httptest.Server
	httpClient *http.Client
	ctx        context.Context
}

func TestLedgerE2E(t *testing.T) {
	suite.Run(t, new(LedgerE2ESuite))
}

func (s *LedgerE2ESuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{}
	cfg.Store.Driver = "memory"

	deps, err := app.SetupDependencies(s.ctx, cfg, messaging.NoopPublisher{}, logger)
	require.NoError(s.T(), err, "Failed to set up dependencies")

	s.server = httptest.NewServer(app.SetupHttpHandler(deps))
	s.httpClient = s.server.Client()
	s.T().Cleanup(func() {
		s.server.Close()
		_ = deps.Store.Close()
	})
}

// doJSON performs a request with an optional JSON body and decodes the JSON
// response into out when it is non-nil.
func (s *LedgerE2ESuite) doJSON(method, path string, body any, out any) *http.Response {
	s.T().Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(s.ctx, method, s.server.URL+path, reader)
	require.NoError(s.T(), err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer func() { _ = resp.Body.Close() }()
	if out != nil {
		require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (s *LedgerE2ESuite) TestSeedDatasetServed() {
	var products []service.ProductDto
	resp := s.doJSON(http.MethodGet, productsURL, nil, &products)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	require.Len(s.T(), products, 5)

	var stock []service.StockItemDto
	resp = s.doJSON(http.MethodGet, "/api/v1/stock", nil, &stock)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	require.Len(s.T(), stock, 5)
}

func (s *LedgerE2ESuite) TestFullPurchaseSaleCycle() {
	// Create a product.
	var product service.ProductDto
	resp := s.doJSON(http.MethodPost, productsURL, service.ProductCreateDto{Name: "Webcam", StockThreshold: 2}, &product)
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)
	require.NotEmpty(s.T(), product.ID)

	// A sale before any purchase must be rejected for lack of stock.
	resp = s.doJSON(http.MethodPost, salesURL, service.SaleCreateDto{
		CustomerName: "John Doe", ProductID: product.ID, Quantity: 1, Price: 80, Date: "2023-08-02",
	}, nil)
	require.Equal(s.T(), http.StatusConflict, resp.StatusCode)

	// Purchase 10 units.
	var purchase service.PurchaseDto
	resp = s.doJSON(http.MethodPost, purchasesURL, service.PurchaseCreateDto{
		VendorName: "Tech Suppliers Inc.", ProductID: product.ID, Quantity: 10, Cost: 40, Date: "2023-08-01",
	}, &purchase)
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	// Sell 4 units.
	var sale service.SaleDto
	resp = s.doJSON(http.MethodPost, salesURL, service.SaleCreateDto{
		CustomerName: "John Doe", ProductID: product.ID, Quantity: 4, Price: 80, Date: "2023-08-02",
	}, &sale)
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	// Derived stock is 6.
	var stock service.StockItemDto
	resp = s.doJSON(http.MethodGet, productsURL+"/"+product.ID+"/stock", nil, &stock)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	require.Equal(s.T(), 6, stock.Quantity)

	// The product cannot be deleted while records reference it.
	resp = s.doJSON(http.MethodDelete, productsURL+"/"+product.ID, nil, nil)
	require.Equal(s.T(), http.StatusConflict, resp.StatusCode)

	// Delete the records, then the product.
	resp = s.doJSON(http.MethodDelete, salesURL+"/"+sale.ID, nil, nil)
	require.Equal(s.T(), http.StatusNoContent, resp.StatusCode)
	resp = s.doJSON(http.MethodDelete, purchasesURL+"/"+purchase.ID, nil, nil)
	require.Equal(s.T(), http.StatusNoContent, resp.StatusCode)
	resp = s.doJSON(http.MethodDelete, productsURL+"/"+product.ID, nil, nil)
	require.Equal(s.T(), http.StatusNoContent, resp.StatusCode)

	resp = s.doJSON(http.MethodGet, productsURL+"/"+product.ID, nil, nil)
	require.Equal(s.T(), http.StatusNotFound, resp.StatusCode)
}

func (s *LedgerE2ESuite) TestMonthlyEarningsReport() {
	var earnings service.EarningsDto
	resp := s.doJSON(http.MethodGet, "/api/v1/reports/earnings?month=6&year=2023", nil, &earnings)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	// seed June 2023: revenue 2*1200 + 3*700, costs 10*800 + 20*400
	require.Equal(s.T(), 4500.0, earnings.Revenue)
	require.Equal(s.T(), 16000.0, earnings.Costs)
	require.Equal(s.T(), -11500.0, earnings.Profit)

	resp = s.doJSON(http.MethodGet, "/api/v1/reports/earnings?month=13&year=2023", nil, nil)
	require.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)
}

func (s *LedgerE2ESuite) TestValidationErrors() {
	// Unknown delivery method.
	resp := s.doJSON(http.MethodPost, purchasesURL, map[string]any{
		"vendorName": "Tech Suppliers Inc.", "productId": "1", "quantity": 1,
		"cost": 10, "date": "2023-08-01", "deliveryMethod": "teleport",
	}, nil)
	require.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)

	// Non-ISO date.
	resp = s.doJSON(http.MethodPost, salesURL, map[string]any{
		"customerName": "John Doe", "productId": "1", "quantity": 1,
		"price": 10, "date": "20/08/2023",
	}, nil)
	require.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)
}

func (s *LedgerE2ESuite) TestHealthCheck() {
	resp := s.doJSON(http.MethodGet, "/healthz", nil, nil)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
}
