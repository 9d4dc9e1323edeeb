package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	lerrors "github.com/abgdnv/stockledger/internal/ledger/errors"
	"github.com/abgdnv/stockledger/internal/ledger/store"
	"github.com/abgdnv/stockledger/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturePublisher records every published event for inspection.
type capturePublisher struct {
	mu     sync.Mutex
	events []messaging.Event
}

func (p *capturePublisher) Publish(_ context.Context, event messaging.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	subjects := make([]string, len(p.events))
	for i, e := range p.events {
		subjects[i] = e.Subject()
	}
	return subjects
}

// failingStore wraps a store and fails every Save once armed.
type failingStore struct {
	store.LedgerStore
	failSave bool
}

var errSaveFailed = errors.New("save failed")

func (f *failingStore) Save(ctx context.Context, state *store.State) error {
	if f.failSave {
		return errSaveFailed
	}
	return f.LedgerStore.Save(ctx, state)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), store.NewMemoryStore(), messaging.NoopPublisher{}, testLogger())
	require.NoError(t, err)
	return svc
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func Test_Service_SeedsEmptyStore(t *testing.T) {
	// given
	st := store.NewMemoryStore()

	// when
	svc, err := NewService(context.Background(), st, messaging.NoopPublisher{}, testLogger())

	// then
	require.NoError(t, err)
	assert.Len(t, svc.Products(context.Background()), 5)
	assert.Len(t, svc.Purchases(context.Background()), 5)
	assert.Len(t, svc.Sales(context.Background()), 5)

	// seed must have been written through to the store
	persisted, err := st.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Len(t, persisted.Products, 5)
}

func Test_Service_DerivedStockFromSeed(t *testing.T) {
	svc := newTestService(t)
	testCases := []struct {
		name      string
		productID string
		expected  int
	}{
		{name: "laptops: 10 purchased, 2 sold", productID: "1", expected: 8},
		{name: "smartphones: 20 purchased, 3 sold", productID: "2", expected: 17},
		{name: "tablets: 15 purchased, 1 sold", productID: "3", expected: 14},
		{name: "headphones: 30 purchased, 5 sold", productID: "4", expected: 25},
		{name: "monitors: 8 purchased, 2 sold", productID: "5", expected: 6},
		{name: "unknown product has zero stock", productID: "missing", expected: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, svc.ProductStock(context.Background(), tc.productID))
		})
	}
}

func Test_Service_AddProduct(t *testing.T) {
	// given
	svc := newTestService(t)

	// when
	created, err := svc.AddProduct(context.Background(), ProductCreateDto{Name: "Keyboard", StockThreshold: 3})

	// then
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Keyboard", created.Name)
	assert.Equal(t, 0, svc.ProductStock(context.Background(), created.ID))
	assert.Len(t, svc.Products(context.Background()), 6)
}

func Test_Service_UpdateProduct(t *testing.T) {
	testCases := []struct {
		name        string
		product     ProductDto
		expectError error
	}{
		{
			name:    "Success - existing product renamed",
			product: ProductDto{ID: "1", Name: "Gaming Laptop", StockThreshold: 5},
		},
		{
			name:        "Error - unknown product",
			product:     ProductDto{ID: "missing", Name: "Ghost", StockThreshold: 1},
			expectError: lerrors.ErrProductNotFound,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := newTestService(t)
			// when
			updated, err := svc.UpdateProduct(context.Background(), tc.product)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, updated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.product.Name, updated.Name)
		})
	}
}

func Test_Service_DeleteProduct(t *testing.T) {
	testCases := []struct {
		name        string
		setup       func(t *testing.T, svc *Service) string
		expectError error
	}{
		{
			name: "Error - referenced by purchases and sales",
			setup: func(_ *testing.T, _ *Service) string {
				return "1"
			},
			expectError: lerrors.ErrProductInUse,
		},
		{
			name: "Error - unknown product",
			setup: func(_ *testing.T, _ *Service) string {
				return "missing"
			},
			expectError: lerrors.ErrProductNotFound,
		},
		{
			name: "Success - unreferenced product",
			setup: func(t *testing.T, svc *Service) string {
				created, err := svc.AddProduct(context.Background(), ProductCreateDto{Name: "Webcam"})
				require.NoError(t, err)
				return created.ID
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := newTestService(t)
			id := tc.setup(t, svc)
			// when
			err := svc.DeleteProduct(context.Background(), id)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			_, err = svc.Product(context.Background(), id)
			assert.ErrorIs(t, err, lerrors.ErrProductNotFound)
		})
	}
}

func Test_Service_AddPurchase(t *testing.T) {
	testCases := []struct {
		name        string
		purchase    PurchaseCreateDto
		expectError error
	}{
		{
			name: "Success - stock increases by the purchased quantity",
			purchase: PurchaseCreateDto{
				VendorName: "Tech Suppliers Inc.", ProductID: "1", Quantity: 5, Cost: 750, Date: "2023-08-01",
			},
		},
		{
			name: "Error - unknown product",
			purchase: PurchaseCreateDto{
				VendorName: "Nobody", ProductID: "missing", Quantity: 1, Cost: 10, Date: "2023-08-01",
			},
			expectError: lerrors.ErrProductNotFound,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := newTestService(t)
			before := svc.ProductStock(context.Background(), tc.purchase.ProductID)
			// when
			created, err := svc.AddPurchase(context.Background(), tc.purchase)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, created)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)
			assert.Equal(t, before+tc.purchase.Quantity, svc.ProductStock(context.Background(), tc.purchase.ProductID))
		})
	}
}

func Test_Service_AddSale(t *testing.T) {
	testCases := []struct {
		name        string
		sale        SaleCreateDto
		expectError error
	}{
		{
			name: "Success - quantity within stock",
			sale: SaleCreateDto{
				CustomerName: "John Doe", ProductID: "1", Quantity: 8, Price: 1200, Date: "2023-08-01",
			},
		},
		{
			name: "Error - quantity exceeds stock",
			sale: SaleCreateDto{
				CustomerName: "John Doe", ProductID: "1", Quantity: 9, Price: 1200, Date: "2023-08-01",
			},
			expectError: lerrors.ErrInsufficientStock,
		},
		{
			name: "Error - unknown product",
			sale: SaleCreateDto{
				CustomerName: "John Doe", ProductID: "missing", Quantity: 1, Price: 10, Date: "2023-08-01",
			},
			expectError: lerrors.ErrProductNotFound,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := newTestService(t)
			before := svc.ProductStock(context.Background(), tc.sale.ProductID)
			// when
			created, err := svc.AddSale(context.Background(), tc.sale)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, created)
				assert.Equal(t, before, svc.ProductStock(context.Background(), tc.sale.ProductID))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, before-tc.sale.Quantity, svc.ProductStock(context.Background(), tc.sale.ProductID))
		})
	}
}

func Test_Service_UpdateSale_QuantityDelta(t *testing.T) {
	// Product 1 starts at 8 in stock with sale "1" holding quantity 2.
	testCases := []struct {
		name        string
		newQuantity int
		expectError error
	}{
		{name: "Success - decrease releases stock", newQuantity: 1},
		{name: "Success - increase within remaining stock", newQuantity: 10},
		{name: "Error - increase beyond remaining stock", newQuantity: 11, expectError: lerrors.ErrInsufficientStock},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := newTestService(t)
			sale, err := svc.Sale(context.Background(), "1")
			require.NoError(t, err)
			sale.Quantity = tc.newQuantity
			// when
			updated, err := svc.UpdateSale(context.Background(), *sale)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.newQuantity, updated.Quantity)
			assert.Equal(t, 10-tc.newQuantity, svc.ProductStock(context.Background(), "1"))
		})
	}
}

func Test_Service_DeleteSale_RestoresStock(t *testing.T) {
	// given
	svc := newTestService(t)
	require.Equal(t, 8, svc.ProductStock(context.Background(), "1"))

	// when
	err := svc.DeleteSale(context.Background(), "1")

	// then
	require.NoError(t, err)
	assert.Equal(t, 10, svc.ProductStock(context.Background(), "1"))
	_, err = svc.Sale(context.Background(), "1")
	assert.ErrorIs(t, err, lerrors.ErrSaleNotFound)
}

func Test_Service_DeletePurchase_ReducesStock(t *testing.T) {
	// given
	svc := newTestService(t)

	// when
	err := svc.DeletePurchase(context.Background(), "5")

	// then
	require.NoError(t, err)
	assert.Equal(t, -2, svc.ProductStock(context.Background(), "5"))
}

func Test_Service_RecentPurchases(t *testing.T) {
	// given
	svc := newTestService(t)

	// when
	recent := svc.RecentPurchases(context.Background(), 3)

	// then
	require.Len(t, recent, 3)
	assert.Equal(t, "2023-07-20", recent[0].Date)
	assert.Equal(t, "2023-07-12", recent[1].Date)
	assert.Equal(t, "2023-07-05", recent[2].Date)
}

func Test_Service_MonthlyEarnings(t *testing.T) {
	svc := newTestService(t)
	testCases := []struct {
		name     string
		month    time.Month
		year     int
		expected EarningsDto
	}{
		{
			name:  "June 2023 has two purchases and two sales",
			month: time.June,
			year:  2023,
			// costs: 10*800 + 20*400, revenue: 2*1200 + 3*700
			expected: EarningsDto{Revenue: 4500, Costs: 16000, Profit: -11500},
		},
		{
			name:     "month with no records is all zeroes",
			month:    time.January,
			year:     2023,
			expected: EarningsDto{},
		},
		{
			name:     "same month of another year is all zeroes",
			month:    time.June,
			year:     2024,
			expected: EarningsDto{},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, svc.MonthlyEarnings(context.Background(), tc.month, tc.year))
		})
	}
}

func Test_Service_YearlyEarnings(t *testing.T) {
	// given
	svc := newTestService(t)

	// when
	series := svc.YearlyEarnings(context.Background(), 2023)

	// then
	require.Len(t, series, 12)
	assert.Equal(t, 1, series[0].Month)
	assert.Equal(t, 12, series[11].Month)
	june := series[5]
	assert.Equal(t, 4500.0, june.Revenue)
	assert.Equal(t, 16000.0, june.Costs)
	assert.Equal(t, -11500.0, june.Profit)
}

func Test_Service_PendingPayments(t *testing.T) {
	// given: seed records carry no payment status, so nothing is pending
	svc := newTestService(t)
	pending := svc.PendingPayments(context.Background())
	require.Empty(t, pending.Purchases)
	require.Empty(t, pending.Sales)

	// when
	_, err := svc.AddPurchase(context.Background(), PurchaseCreateDto{
		VendorName: "Tech Suppliers Inc.", ProductID: "1", Quantity: 2, Cost: 800,
		Date: "2023-08-01", PaymentStatus: PaymentPending,
	})
	require.NoError(t, err)
	_, err = svc.AddSale(context.Background(), SaleCreateDto{
		CustomerName: "Jane Smith", ProductID: "2", Quantity: 1, Price: 700,
		Date: "2023-08-02", PaymentStatus: PaymentPartial,
	})
	require.NoError(t, err)
	_, err = svc.AddSale(context.Background(), SaleCreateDto{
		CustomerName: "Mike Johnson", ProductID: "2", Quantity: 1, Price: 700,
		Date: "2023-08-03", PaymentStatus: PaymentPaid,
	})
	require.NoError(t, err)

	// then: pending and partial are listed, paid is not
	pending = svc.PendingPayments(context.Background())
	require.Len(t, pending.Purchases, 1)
	assert.Equal(t, PaymentPending, pending.Purchases[0].PaymentStatus)
	require.Len(t, pending.Sales, 1)
	assert.Equal(t, PaymentPartial, pending.Sales[0].PaymentStatus)
}

func Test_Service_LowStock(t *testing.T) {
	// given: monitors seed at 6 in stock against a threshold of 7
	svc := newTestService(t)

	// when
	low := svc.LowStock(context.Background())

	// then
	require.Len(t, low, 1)
	assert.Equal(t, "5", low[0].ProductID)
	assert.Equal(t, "Monitor", low[0].Name)
	assert.Equal(t, 6, low[0].Quantity)
	assert.Equal(t, 7, low[0].Threshold)
}

func Test_Service_LowStockEventOnSale(t *testing.T) {
	// given: laptops at 8 with threshold 5
	publisher := &capturePublisher{}
	svc, err := NewService(context.Background(), store.NewMemoryStore(), publisher, testLogger())
	require.NoError(t, err)

	// when: a sale drops laptops to 4, below the threshold
	_, err = svc.AddSale(context.Background(), SaleCreateDto{
		CustomerName: "John Doe", ProductID: "1", Quantity: 4, Price: 1200, Date: "2023-08-01",
	})

	// then
	require.NoError(t, err)
	assert.Contains(t, publisher.subjects(), "ledger.events.sale.created")
	assert.Contains(t, publisher.subjects(), "ledger.events.stock.low")
}

func Test_Service_FailedSaveLeavesStateUnchanged(t *testing.T) {
	// given
	failing := &failingStore{LedgerStore: store.NewMemoryStore()}
	svc, err := NewService(context.Background(), failing, messaging.NoopPublisher{}, testLogger())
	require.NoError(t, err)
	failing.failSave = true

	// when
	_, err = svc.AddSale(context.Background(), SaleCreateDto{
		CustomerName: "John Doe", ProductID: "1", Quantity: 1, Price: 1200, Date: "2023-08-01",
	})

	// then: the mutation is rejected and the collections are untouched
	require.ErrorIs(t, err, errSaveFailed)
	assert.Len(t, svc.Sales(context.Background()), 5)
	assert.Equal(t, 8, svc.ProductStock(context.Background(), "1"))
}

func Test_Service_StateSurvivesRestart(t *testing.T) {
	// given: a service that has written a new product through to the store
	st := store.NewMemoryStore()
	first, err := NewService(context.Background(), st, messaging.NoopPublisher{}, testLogger())
	require.NoError(t, err)
	created, err := first.AddProduct(context.Background(), ProductCreateDto{Name: "Keyboard"})
	require.NoError(t, err)

	// when: a second service instance loads from the same store
	second, err := NewService(context.Background(), st, messaging.NoopPublisher{}, testLogger())
	require.NoError(t, err)

	// then: the persisted state wins over the seed dataset
	found, err := second.Product(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keyboard", found.Name)
	assert.Len(t, second.Products(context.Background()), 6)
}
