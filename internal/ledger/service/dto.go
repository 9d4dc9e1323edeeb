package service

import (
	"github.com/abgdnv/stockledger/internal/ledger/store"
)

// Optional tri-state payment tag and delivery methods carried by records.
// Used only for filtering and reporting, never for control flow.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentPartial = "partial"

	DeliveryPickup   = "pickup"
	DeliveryDelivery = "delivery"
	DeliveryDigital  = "digital"
)

// ProductDto represents a catalog entry.
type ProductDto struct {
	ID             string `json:"id"`
	Name           string `json:"name"           validate:"required,max=100"`
	StockThreshold int    `json:"stockThreshold" validate:"min=0"`
}

// ProductCreateDto carries the caller-supplied fields of a new product; the
// identifier is assigned by the ledger.
type ProductCreateDto struct {
	Name           string `json:"name"           validate:"required,max=100"`
	StockThreshold int    `json:"stockThreshold" validate:"min=0"`
}

// PurchaseDto represents a purchase record.
type PurchaseDto struct {
	ID             string  `json:"id"`
	VendorName     string  `json:"vendorName"               validate:"required,max=100"`
	ProductID      string  `json:"productId"                validate:"required"`
	Quantity       int     `json:"quantity"                 validate:"required,min=1"`
	Cost           float64 `json:"cost"                     validate:"required,gt=0"`
	Date           string  `json:"date"                     validate:"required,datetime=2006-01-02"`
	Notes          string  `json:"notes,omitempty"          validate:"max=500"`
	DeliveryMethod string  `json:"deliveryMethod,omitempty" validate:"omitempty,oneof=pickup delivery digital"`
	PaymentStatus  string  `json:"paymentStatus,omitempty"  validate:"omitempty,oneof=pending paid partial"`
}

// PurchaseCreateDto carries the caller-supplied fields of a new purchase.
type PurchaseCreateDto struct {
	VendorName     string  `json:"vendorName"               validate:"required,max=100"`
	ProductID      string  `json:"productId"                validate:"required"`
	Quantity       int     `json:"quantity"                 validate:"required,min=1"`
	Cost           float64 `json:"cost"                     validate:"required,gt=0"`
	Date           string  `json:"date"                     validate:"required,datetime=2006-01-02"`
	Notes          string  `json:"notes,omitempty"          validate:"max=500"`
	DeliveryMethod string  `json:"deliveryMethod,omitempty" validate:"omitempty,oneof=pickup delivery digital"`
	PaymentStatus  string  `json:"paymentStatus,omitempty"  validate:"omitempty,oneof=pending paid partial"`
}

// SaleDto represents a sale record.
type SaleDto struct {
	ID            string  `json:"id"`
	CustomerName  string  `json:"customerName"             validate:"required,max=100"`
	ProductID     string  `json:"productId"                validate:"required"`
	Quantity      int     `json:"quantity"                 validate:"required,min=1"`
	Price         float64 `json:"price"                    validate:"required,gt=0"`
	Date          string  `json:"date"                     validate:"required,datetime=2006-01-02"`
	Notes         string  `json:"notes,omitempty"          validate:"max=500"`
	PaymentStatus string  `json:"paymentStatus,omitempty"  validate:"omitempty,oneof=pending paid partial"`
}

// SaleCreateDto carries the caller-supplied fields of a new sale.
type SaleCreateDto struct {
	CustomerName  string  `json:"customerName"             validate:"required,max=100"`
	ProductID     string  `json:"productId"                validate:"required"`
	Quantity      int     `json:"quantity"                 validate:"required,min=1"`
	Price         float64 `json:"price"                    validate:"required,gt=0"`
	Date          string  `json:"date"                     validate:"required,datetime=2006-01-02"`
	Notes         string  `json:"notes,omitempty"          validate:"max=500"`
	PaymentStatus string  `json:"paymentStatus,omitempty"  validate:"omitempty,oneof=pending paid partial"`
}

// StockItemDto is the derived quantity for one product: cumulative purchased
// minus cumulative sold. Never persisted.
type StockItemDto struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// EarningsDto aggregates one calendar month.
type EarningsDto struct {
	Revenue float64 `json:"revenue"`
	Costs   float64 `json:"costs"`
	Profit  float64 `json:"profit"`
}

// MonthlyEarningsDto is one entry of a full-year earnings series.
type MonthlyEarningsDto struct {
	Month   int     `json:"month"`
	Revenue float64 `json:"revenue"`
	Costs   float64 `json:"costs"`
	Profit  float64 `json:"profit"`
}

// PendingPaymentsDto lists the records whose payment status is pending or
// partial; records with no status set are excluded.
type PendingPaymentsDto struct {
	Purchases []PurchaseDto `json:"purchases"`
	Sales     []SaleDto     `json:"sales"`
}

// LowStockDto is a product whose derived stock fell below its threshold.
type LowStockDto struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"threshold"`
}

func toProductDto(p *store.Product) *ProductDto {
	return &ProductDto{
		ID:             p.ID,
		Name:           p.Name,
		StockThreshold: p.StockThreshold,
	}
}

func toProductRecord(d *ProductDto) store.Product {
	return store.Product{
		ID:             d.ID,
		Name:           d.Name,
		StockThreshold: d.StockThreshold,
	}
}

func toPurchaseDto(p *store.PurchaseRecord) *PurchaseDto {
	return &PurchaseDto{
		ID:             p.ID,
		VendorName:     p.VendorName,
		ProductID:      p.ProductID,
		Quantity:       p.Quantity,
		Cost:           p.Cost,
		Date:           p.Date,
		Notes:          p.Notes,
		DeliveryMethod: p.DeliveryMethod,
		PaymentStatus:  p.PaymentStatus,
	}
}

func toPurchaseRecord(d *PurchaseDto) store.PurchaseRecord {
	return store.PurchaseRecord{
		ID:             d.ID,
		VendorName:     d.VendorName,
		ProductID:      d.ProductID,
		Quantity:       d.Quantity,
		Cost:           d.Cost,
		Date:           d.Date,
		Notes:          d.Notes,
		DeliveryMethod: d.DeliveryMethod,
		PaymentStatus:  d.PaymentStatus,
	}
}

func toSaleDto(s *store.SaleRecord) *SaleDto {
	return &SaleDto{
		ID:            s.ID,
		CustomerName:  s.CustomerName,
		ProductID:     s.ProductID,
		Quantity:      s.Quantity,
		Price:         s.Price,
		Date:          s.Date,
		Notes:         s.Notes,
		PaymentStatus: s.PaymentStatus,
	}
}

func toSaleRecord(d *SaleDto) store.SaleRecord {
	return store.SaleRecord{
		ID:            d.ID,
		CustomerName:  d.CustomerName,
		ProductID:     d.ProductID,
		Quantity:      d.Quantity,
		Price:         d.Price,
		Date:          d.Date,
		Notes:         d.Notes,
		PaymentStatus: d.PaymentStatus,
	}
}
