// Package store provides persistence for the ledger state: the three record
// collections serialized as ordered sequences, written through synchronously
// after every committed mutation and read once at startup.
package store

import (
	"context"
	"errors"
	"fmt"
)

// SchemaVersion is written alongside the collections so a future layout
// change fails loudly instead of silently misreading old state.
const SchemaVersion = 1

// ErrSchemaVersion is returned by Load when the persisted state was written
// with an unknown schema version.
var ErrSchemaVersion = errors.New("unsupported ledger schema version")

// Product is a catalog entry. StockThreshold is the minimum viable quantity
// before the product shows up in low-stock reports.
type Product struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	StockThreshold int    `json:"stockThreshold"`
}

// PurchaseRecord increases the referenced product's derived stock.
type PurchaseRecord struct {
	ID             string  `json:"id"`
	VendorName     string  `json:"vendorName"`
	ProductID      string  `json:"productId"`
	Quantity       int     `json:"quantity"`
	Cost           float64 `json:"cost"`
	Date           string  `json:"date"`
	Notes          string  `json:"notes,omitempty"`
	DeliveryMethod string  `json:"deliveryMethod,omitempty"`
	PaymentStatus  string  `json:"paymentStatus,omitempty"`
}

// SaleRecord decreases the referenced product's derived stock.
type SaleRecord struct {
	ID            string  `json:"id"`
	CustomerName  string  `json:"customerName"`
	ProductID     string  `json:"productId"`
	Quantity      int     `json:"quantity"`
	Price         float64 `json:"price"`
	Date          string  `json:"date"`
	Notes         string  `json:"notes,omitempty"`
	PaymentStatus string  `json:"paymentStatus,omitempty"`
}

// State is the complete persisted ledger: the three collections the store
// exclusively owns. Derived stock is never persisted.
type State struct {
	SchemaVersion int              `json:"schemaVersion"`
	Products      []Product        `json:"products"`
	Purchases     []PurchaseRecord `json:"purchases"`
	Sales         []SaleRecord     `json:"sales"`
}

// Clone returns a deep copy. Mutations are applied to a clone and swapped in
// only after a successful save, so a failed write never corrupts the
// in-memory collections.
func (s *State) Clone() *State {
	next := &State{
		SchemaVersion: s.SchemaVersion,
		Products:      make([]Product, len(s.Products)),
		Purchases:     make([]PurchaseRecord, len(s.Purchases)),
		Sales:         make([]SaleRecord, len(s.Sales)),
	}
	copy(next.Products, s.Products)
	copy(next.Purchases, s.Purchases)
	copy(next.Sales, s.Sales)
	return next
}

// LedgerStore abstracts the persistence backend (bbolt file, PostgreSQL, or
// in-memory for tests).
type LedgerStore interface {
	// Load reads the persisted state. Returns (nil, nil) when nothing has
	// been persisted yet; the caller falls back to the seed dataset.
	Load(ctx context.Context) (*State, error)

	// Save writes the full state synchronously.
	Save(ctx context.Context, state *State) error

	// Close releases the underlying resources.
	Close() error
}

func checkVersion(version int) error {
	if version != SchemaVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrSchemaVersion, version, SchemaVersion)
	}
	return nil
}
