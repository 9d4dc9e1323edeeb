// Package service implements the inventory ledger: the single source of truth
// for products, purchase records and sale records, the invariants between
// them, and the derived read queries (stock, earnings, pending payments).
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	lerrors "github.com/abgdnv/stockledger/internal/ledger/errors"
	"github.com/abgdnv/stockledger/internal/ledger/store"
	"github.com/abgdnv/stockledger/pkg/messaging"
	"github.com/abgdnv/stockledger/pkg/messaging/events"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LedgerService defines the operations of the inventory ledger.
// Identifiers are assigned by the ledger on create, never by the caller.
type LedgerService interface {
	// Products returns the full catalog.
	Products(ctx context.Context) []ProductDto
	// Product retrieves a catalog entry. Returns ErrProductNotFound if absent.
	Product(ctx context.Context, id string) (*ProductDto, error)
	// AddProduct creates a product with a fresh identifier.
	AddProduct(ctx context.Context, product ProductCreateDto) (*ProductDto, error)
	// UpdateProduct replaces the product with the matching identifier.
	// Returns ErrProductNotFound if absent.
	UpdateProduct(ctx context.Context, product ProductDto) (*ProductDto, error)
	// DeleteProduct removes a product. Returns ErrProductInUse while any
	// purchase or sale still references it.
	DeleteProduct(ctx context.Context, id string) error

	// Purchases returns all purchase records.
	Purchases(ctx context.Context) []PurchaseDto
	// Purchase retrieves a purchase record. Returns ErrPurchaseNotFound if absent.
	Purchase(ctx context.Context, id string) (*PurchaseDto, error)
	// RecentPurchases returns up to limit purchase records, newest date first.
	RecentPurchases(ctx context.Context, limit int) []PurchaseDto
	// AddPurchase records a purchase against an existing product.
	AddPurchase(ctx context.Context, purchase PurchaseCreateDto) (*PurchaseDto, error)
	// UpdatePurchase replaces a purchase record. Returns ErrPurchaseNotFound
	// if absent. Historical edits are not re-validated against stock.
	UpdatePurchase(ctx context.Context, purchase PurchaseDto) (*PurchaseDto, error)
	// DeletePurchase removes a purchase record.
	DeletePurchase(ctx context.Context, id string) error

	// Sales returns all sale records.
	Sales(ctx context.Context) []SaleDto
	// Sale retrieves a sale record. Returns ErrSaleNotFound if absent.
	Sale(ctx context.Context, id string) (*SaleDto, error)
	// AddSale records a sale. Returns ErrInsufficientStock when the quantity
	// exceeds the product's derived stock.
	AddSale(ctx context.Context, sale SaleCreateDto) (*SaleDto, error)
	// UpdateSale replaces a sale record. A quantity increase is validated
	// against current stock using the increase, not the new total.
	UpdateSale(ctx context.Context, sale SaleDto) (*SaleDto, error)
	// DeleteSale removes a sale record unconditionally.
	DeleteSale(ctx context.Context, id string) error

	// Stock returns the derived quantity per product.
	Stock(ctx context.Context) []StockItemDto
	// ProductStock returns the derived quantity for one product, zero if the
	// product has no stock entry.
	ProductStock(ctx context.Context, productID string) int
	// MonthlyEarnings aggregates revenue, costs and profit for one calendar
	// month (1-12) and year.
	MonthlyEarnings(ctx context.Context, month time.Month, year int) EarningsDto
	// YearlyEarnings returns the twelve monthly aggregates of a year.
	YearlyEarnings(ctx context.Context, year int) []MonthlyEarningsDto
	// PendingPayments lists records with payment status pending or partial.
	PendingPayments(ctx context.Context) PendingPaymentsDto
	// LowStock lists products whose derived stock is below their threshold.
	LowStock(ctx context.Context) []LowStockDto
}

// Service implements LedgerService. All mutations funnel through a single
// mutex and are written through to the store before the in-memory collections
// are swapped, so a failed save never leaves the two out of sync.
type Service struct {
	mu    sync.RWMutex
	state *store.State
	stock []StockItemDto

	store     store.LedgerStore
	publisher messaging.Publisher
	logger    *slog.Logger
	mutations metric.Int64Counter
}

var _ LedgerService = (*Service)(nil)

// NewService loads the persisted ledger state, falling back to the built-in
// seed dataset when nothing has been persisted yet.
func NewService(ctx context.Context, st store.LedgerStore, publisher messaging.Publisher, logger *slog.Logger) (*Service, error) {
	state, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger state: %w", err)
	}
	seeded := false
	if state == nil {
		state = seedState()
		seeded = true
	}

	meter := otel.Meter("stockledger")
	mutations, err := meter.Int64Counter("ledger_mutations_total",
		metric.WithDescription("Total number of committed ledger mutations"))
	if err != nil {
		return nil, fmt.Errorf("failed to create mutations counter: %w", err)
	}

	s := &Service{
		state:     state,
		store:     st,
		publisher: publisher,
		logger:    logger.With("component", "ledger"),
		mutations: mutations,
	}
	if seeded {
		if err := st.Save(ctx, state); err != nil {
			return nil, fmt.Errorf("failed to persist seed dataset: %w", err)
		}
		s.logger.InfoContext(ctx, "ledger seeded with built-in dataset",
			"products", len(state.Products), "purchases", len(state.Purchases), "sales", len(state.Sales))
	}
	s.recomputeStock()
	return s, nil
}

// --- products ---

func (s *Service) Products(_ context.Context) []ProductDto {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]ProductDto, len(s.state.Products))
	for i := range s.state.Products {
		list[i] = *toProductDto(&s.state.Products[i])
	}
	return list
}

func (s *Service) Product(_ context.Context, id string) (*ProductDto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := findProduct(s.state.Products, id)
	if p == nil {
		return nil, lerrors.ErrProductNotFound
	}
	return toProductDto(p), nil
}

func (s *Service) AddProduct(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := store.Product{
		ID:             uuid.NewString(),
		Name:           product.Name,
		StockThreshold: product.StockThreshold,
	}
	next := s.state.Clone()
	next.Products = append(next.Products, record)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	s.count(ctx, "product", events.ActionCreated)
	s.publish(ctx, events.ProductEvent{
		Action: events.ActionCreated, ProductID: record.ID, Name: record.Name, OccurredAt: time.Now().UTC(),
	})
	return toProductDto(&record), nil
}

func (s *Service) UpdateProduct(ctx context.Context, product ProductDto) (*ProductDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	idx := indexOfProduct(next.Products, product.ID)
	if idx < 0 {
		return nil, lerrors.ErrProductNotFound
	}
	record := toProductRecord(&product)
	next.Products[idx] = record
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	s.count(ctx, "product", events.ActionUpdated)
	s.publish(ctx, events.ProductEvent{
		Action: events.ActionUpdated, ProductID: record.ID, Name: record.Name, OccurredAt: time.Now().UTC(),
	})
	s.notifyLowStock(ctx, record.ID)
	return toProductDto(&record), nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOfProduct(s.state.Products, id)
	if idx < 0 {
		return lerrors.ErrProductNotFound
	}
	for i := range s.state.Purchases {
		if s.state.Purchases[i].ProductID == id {
			return lerrors.ErrProductInUse
		}
	}
	for i := range s.state.Sales {
		if s.state.Sales[i].ProductID == id {
			return lerrors.ErrProductInUse
		}
	}

	next := s.state.Clone()
	next.Products = append(next.Products[:idx], next.Products[idx+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.count(ctx, "product", events.ActionDeleted)
	s.publish(ctx, events.ProductEvent{
		Action: events.ActionDeleted, ProductID: id, OccurredAt: time.Now().UTC(),
	})
	return nil
}

// --- purchases ---

func (s *Service) Purchases(_ context.Context) []PurchaseDto {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]PurchaseDto, len(s.state.Purchases))
	for i := range s.state.Purchases {
		list[i] = *toPurchaseDto(&s.state.Purchases[i])
	}
	return list
}

func (s *Service) Purchase(_ context.Context, id string) (*PurchaseDto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.state.Purchases {
		if s.state.Purchases[i].ID == id {
			return toPurchaseDto(&s.state.Purchases[i]), nil
		}
	}
	return nil, lerrors.ErrPurchaseNotFound
}

func (s *Service) RecentPurchases(ctx context.Context, limit int) []PurchaseDto {
	list := s.Purchases(ctx)
	sort.SliceStable(list, func(i, j int) bool {
		return parseDate(list[i].Date).After(parseDate(list[j].Date))
	})
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func (s *Service) AddPurchase(ctx context.Context, purchase PurchaseCreateDto) (*PurchaseDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if findProduct(s.state.Products, purchase.ProductID) == nil {
		return nil, lerrors.ErrProductNotFound
	}
	record := store.PurchaseRecord{
		ID:             uuid.NewString(),
		VendorName:     purchase.VendorName,
		ProductID:      purchase.ProductID,
		Quantity:       purchase.Quantity,
		Cost:           purchase.Cost,
		Date:           purchase.Date,
		Notes:          purchase.Notes,
		DeliveryMethod: purchase.DeliveryMethod,
		PaymentStatus:  purchase.PaymentStatus,
	}
	next := s.state.Clone()
	next.Purchases = append(next.Purchases, record)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	s.count(ctx, "purchase", events.ActionCreated)
	s.publish(ctx, events.PurchaseEvent{
		Action: events.ActionCreated, PurchaseID: record.ID, ProductID: record.ProductID,
		VendorName: record.VendorName, Quantity: record.Quantity, OccurredAt: time.Now().UTC(),
	})
	return toPurchaseDto(&record), nil
}

func (s *Service) UpdatePurchase(ctx context.Context, purchase PurchaseDto) (*PurchaseDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	idx := indexOfPurchase(next.Purchases, purchase.ID)
	if idx < 0 {
		return nil, lerrors.ErrPurchaseNotFound
	}
	if findProduct(s.state.Products, purchase.ProductID) == nil {
		return nil, lerrors.ErrProductNotFound
	}
	record := toPurchaseRecord(&purchase)
	next.Purchases[idx] = record
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	s.count(ctx, "purchase", events.ActionUpdated)
	s.publish(ctx, events.PurchaseEvent{
		Action: events.ActionUpdated, PurchaseID: record.ID, ProductID: record.ProductID,
		VendorName: record.VendorName, Quantity: record.Quantity, OccurredAt: time.Now().UTC(),
	})
	s.notifyLowStock(ctx, record.ProductID)
	return toPurchaseDto(&record), nil
}

func (s *Service) DeletePurchase(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	idx := indexOfPurchase(next.Purchases, id)
	if idx < 0 {
		return lerrors.ErrPurchaseNotFound
	}
	productID := next.Purchases[idx].ProductID
	next.Purchases = append(next.Purchases[:idx], next.Purchases[idx+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.count(ctx, "purchase", events.ActionDeleted)
	s.publish(ctx, events.PurchaseEvent{
		Action: events.ActionDeleted, PurchaseID: id, ProductID: productID, OccurredAt: time.Now().UTC(),
	})
	s.notifyLowStock(ctx, productID)
	return nil
}

// --- sales ---

func (s *Service) Sales(_ context.Context) []SaleDto {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]SaleDto, len(s.state.Sales))
	for i := range s.state.Sales {
		list[i] = *toSaleDto(&s.state.Sales[i])
	}
	return list
}

func (s *Service) Sale(_ context.Context, id string) (*SaleDto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.state.Sales {
		if s.state.Sales[i].ID == id {
			return toSaleDto(&s.state.Sales[i]), nil
		}
	}
	return nil, lerrors.ErrSaleNotFound
}

func (s *Service) AddSale(ctx context.Context, sale SaleCreateDto) (*SaleDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if findProduct(s.state.Products, sale.ProductID) == nil {
		return nil, lerrors.ErrProductNotFound
	}
	if s.stockOf(sale.ProductID) < sale.Quantity {
		return nil, lerrors.ErrInsufficientStock
	}
	record := store.SaleRecord{
		ID:            uuid.NewString(),
		CustomerName:  sale.CustomerName,
		ProductID:     sale.ProductID,
		Quantity:      sale.Quantity,
		Price:         sale.Price,
		Date:          sale.Date,
		Notes:         sale.Notes,
		PaymentStatus: sale.PaymentStatus,
	}
	next := s.state.Clone()
	next.Sales = append(next.Sales, record)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	s.count(ctx, "sale", events.ActionCreated)
	s.publish(ctx, events.SaleEvent{
		Action: events.ActionCreated, SaleID: record.ID, ProductID: record.ProductID,
		CustomerName: record.CustomerName, Quantity: record.Quantity,
		Remaining: s.stockOf(record.ProductID), OccurredAt: time.Now().UTC(),
	})
	s.notifyLowStock(ctx, record.ProductID)
	return toSaleDto(&record), nil
}

func (s *Service) UpdateSale(ctx context.Context, sale SaleDto) (*SaleDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	idx := indexOfSale(next.Sales, sale.ID)
	if idx < 0 {
		return nil, lerrors.ErrSaleNotFound
	}
	if findProduct(s.state.Products, sale.ProductID) == nil {
		return nil, lerrors.ErrProductNotFound
	}
	// Only a quantity increase needs stock; the increase itself is the
	// required amount, since the original quantity is already subtracted
	// from the derived stock.
	delta := sale.Quantity - next.Sales[idx].Quantity
	if delta > 0 && s.stockOf(sale.ProductID) < delta {
		return nil, lerrors.ErrInsufficientStock
	}
	record := toSaleRecord(&sale)
	next.Sales[idx] = record
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	s.count(ctx, "sale", events.ActionUpdated)
	s.publish(ctx, events.SaleEvent{
		Action: events.ActionUpdated, SaleID: record.ID, ProductID: record.ProductID,
		CustomerName: record.CustomerName, Quantity: record.Quantity,
		Remaining: s.stockOf(record.ProductID), OccurredAt: time.Now().UTC(),
	})
	s.notifyLowStock(ctx, record.ProductID)
	return toSaleDto(&record), nil
}

func (s *Service) DeleteSale(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	idx := indexOfSale(next.Sales, id)
	if idx < 0 {
		return lerrors.ErrSaleNotFound
	}
	productID := next.Sales[idx].ProductID
	next.Sales = append(next.Sales[:idx], next.Sales[idx+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.count(ctx, "sale", events.ActionDeleted)
	s.publish(ctx, events.SaleEvent{
		Action: events.ActionDeleted, SaleID: id, ProductID: productID,
		Remaining: s.stockOf(productID), OccurredAt: time.Now().UTC(),
	})
	return nil
}

// --- derived queries ---

func (s *Service) Stock(_ context.Context) []StockItemDto {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]StockItemDto, len(s.stock))
	copy(list, s.stock)
	return list
}

func (s *Service) ProductStock(_ context.Context, productID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stockOf(productID)
}

func (s *Service) MonthlyEarnings(_ context.Context, month time.Month, year int) EarningsDto {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.earningsFor(month, year)
}

func (s *Service) YearlyEarnings(_ context.Context, year int) []MonthlyEarningsDto {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := make([]MonthlyEarningsDto, 0, 12)
	for month := time.January; month <= time.December; month++ {
		e := s.earningsFor(month, year)
		series = append(series, MonthlyEarningsDto{
			Month:   int(month),
			Revenue: e.Revenue,
			Costs:   e.Costs,
			Profit:  e.Profit,
		})
	}
	return series
}

func (s *Service) PendingPayments(_ context.Context) PendingPaymentsDto {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := PendingPaymentsDto{
		Purchases: make([]PurchaseDto, 0),
		Sales:     make([]SaleDto, 0),
	}
	for i := range s.state.Purchases {
		if isPendingStatus(s.state.Purchases[i].PaymentStatus) {
			pending.Purchases = append(pending.Purchases, *toPurchaseDto(&s.state.Purchases[i]))
		}
	}
	for i := range s.state.Sales {
		if isPendingStatus(s.state.Sales[i].PaymentStatus) {
			pending.Sales = append(pending.Sales, *toSaleDto(&s.state.Sales[i]))
		}
	}
	return pending
}

func (s *Service) LowStock(_ context.Context) []LowStockDto {
	s.mu.RLock()
	defer s.mu.RUnlock()

	low := make([]LowStockDto, 0)
	for i := range s.state.Products {
		p := &s.state.Products[i]
		qty := s.stockOf(p.ID)
		if qty < p.StockThreshold {
			low = append(low, LowStockDto{
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  qty,
				Threshold: p.StockThreshold,
			})
		}
	}
	return low
}

// --- internals; callers hold the appropriate lock ---

// commit saves the candidate state and swaps it in on success. A failed save
// leaves both the persisted and the in-memory collections unchanged.
func (s *Service) commit(ctx context.Context, next *store.State) error {
	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to persist ledger state: %w", err)
	}
	s.state = next
	s.recomputeStock()
	return nil
}

// recomputeStock rebuilds the derived quantities from scratch: one entry per
// product at zero, plus purchases, minus sales. Full recompute is O(products +
// purchases + sales), fine at the volumes this ledger holds. Records that
// reference a missing product contribute nothing.
func (s *Service) recomputeStock() {
	stock := make([]StockItemDto, len(s.state.Products))
	index := make(map[string]int, len(s.state.Products))
	for i := range s.state.Products {
		stock[i] = StockItemDto{ProductID: s.state.Products[i].ID}
		index[s.state.Products[i].ID] = i
	}
	for i := range s.state.Purchases {
		if pos, ok := index[s.state.Purchases[i].ProductID]; ok {
			stock[pos].Quantity += s.state.Purchases[i].Quantity
		}
	}
	for i := range s.state.Sales {
		if pos, ok := index[s.state.Sales[i].ProductID]; ok {
			stock[pos].Quantity -= s.state.Sales[i].Quantity
		}
	}
	s.stock = stock
}

func (s *Service) stockOf(productID string) int {
	for i := range s.stock {
		if s.stock[i].ProductID == productID {
			return s.stock[i].Quantity
		}
	}
	return 0
}

func (s *Service) earningsFor(month time.Month, year int) EarningsDto {
	var e EarningsDto
	for i := range s.state.Purchases {
		p := &s.state.Purchases[i]
		if dateInMonth(p.Date, month, year) {
			e.Costs += p.Cost * float64(p.Quantity)
		}
	}
	for i := range s.state.Sales {
		sale := &s.state.Sales[i]
		if dateInMonth(sale.Date, month, year) {
			e.Revenue += sale.Price * float64(sale.Quantity)
		}
	}
	e.Profit = e.Revenue - e.Costs
	return e
}

// publish sends an event and logs on failure; events are informational and
// never affect the outcome of the mutation that produced them.
func (s *Service) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish ledger event",
			"subject", event.Subject(), "error", err)
	}
}

// notifyLowStock emits a low-stock event when a committed mutation leaves the
// product below its threshold.
func (s *Service) notifyLowStock(ctx context.Context, productID string) {
	p := findProduct(s.state.Products, productID)
	if p == nil {
		return
	}
	qty := s.stockOf(productID)
	if qty < p.StockThreshold {
		s.publish(ctx, events.LowStockEvent{
			ProductID:  p.ID,
			Name:       p.Name,
			Quantity:   qty,
			Threshold:  p.StockThreshold,
			OccurredAt: time.Now().UTC(),
		})
	}
}

func (s *Service) count(ctx context.Context, entity, action string) {
	s.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("action", action),
	))
}

func findProduct(products []store.Product, id string) *store.Product {
	for i := range products {
		if products[i].ID == id {
			return &products[i]
		}
	}
	return nil
}

func indexOfProduct(products []store.Product, id string) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfPurchase(purchases []store.PurchaseRecord, id string) int {
	for i := range purchases {
		if purchases[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfSale(sales []store.SaleRecord, id string) int {
	for i := range sales {
		if sales[i].ID == id {
			return i
		}
	}
	return -1
}

func isPendingStatus(status string) bool {
	return status == PaymentPending || status == PaymentPartial
}

func dateInMonth(date string, month time.Month, year int) bool {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}
	return t.Month() == month && t.Year() == year
}

func parseDate(date string) time.Time {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}
	}
	return t
}
