// Package events contains the typed ledger events published over JetStream.
package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/stockledger/pkg/messaging"
)

// Actions shared by the record events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ProductEvent reports a change to the product catalog.
type ProductEvent struct {
	Action     string    `json:"action"`
	ProductID  string    `json:"product_id"`
	Name       string    `json:"name,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e ProductEvent) Subject() string {
	return messaging.SubjectPrefix + ".product." + e.Action
}

func (e ProductEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// PurchaseEvent reports a change to the purchase records.
type PurchaseEvent struct {
	Action     string    `json:"action"`
	PurchaseID string    `json:"purchase_id"`
	ProductID  string    `json:"product_id,omitempty"`
	VendorName string    `json:"vendor_name,omitempty"`
	Quantity   int       `json:"quantity,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e PurchaseEvent) Subject() string {
	return messaging.SubjectPrefix + ".purchase." + e.Action
}

func (e PurchaseEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// SaleEvent reports a change to the sale records. Remaining carries the
// derived stock for the product after the change.
type SaleEvent struct {
	Action       string    `json:"action"`
	SaleID       string    `json:"sale_id"`
	ProductID    string    `json:"product_id,omitempty"`
	CustomerName string    `json:"customer_name,omitempty"`
	Quantity     int       `json:"quantity,omitempty"`
	Remaining    int       `json:"remaining"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (e SaleEvent) Subject() string {
	return messaging.SubjectPrefix + ".sale." + e.Action
}

func (e SaleEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// LowStockEvent fires when a mutation leaves a product below its threshold.
type LowStockEvent struct {
	ProductID  string    `json:"product_id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	Threshold  int       `json:"threshold"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e LowStockEvent) Subject() string {
	return messaging.SubjectPrefix + ".stock.low"
}

func (e LowStockEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
