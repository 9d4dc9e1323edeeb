// Package errors provides the error taxonomy of the inventory ledger. Every
// error here is recoverable: a rejected operation leaves the collections
// untouched and the caller decides how to report it.
package errors

import "errors"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrPurchaseNotFound = errors.New("purchase record not found")
	ErrSaleNotFound     = errors.New("sale record not found")

	// ErrProductInUse blocks deletion of a product still referenced by
	// purchase or sale records.
	ErrProductInUse = errors.New("product is referenced by purchase or sale records")

	// ErrInsufficientStock rejects a sale (or a sale-quantity increase) that
	// would drive the derived stock for a product negative.
	ErrInsufficientStock = errors.New("not enough stock to complete this sale")
)
