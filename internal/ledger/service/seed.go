package service

import "github.com/abgdnv/stockledger/internal/ledger/store"

// seedState returns the built-in dataset used when nothing has been persisted
// yet. Values and ids are fixed so a fresh install is deterministic.
func seedState() *store.State {
	return &store.State{
		SchemaVersion: store.SchemaVersion,
		Products: []store.Product{
			{ID: "1", Name: "Laptop", StockThreshold: 5},
			{ID: "2", Name: "Smartphone", StockThreshold: 10},
			{ID: "3", Name: "Tablet", StockThreshold: 8},
			{ID: "4", Name: "Headphones", StockThreshold: 15},
			{ID: "5", Name: "Monitor", StockThreshold: 7},
		},
		Purchases: []store.PurchaseRecord{
			{ID: "1", VendorName: "Tech Suppliers Inc.", ProductID: "1", Quantity: 10, Cost: 800, Date: "2023-06-10"},
			{ID: "2", VendorName: "Gadget Wholesale", ProductID: "2", Quantity: 20, Cost: 400, Date: "2023-06-15"},
			{ID: "3", VendorName: "Digital Distributors", ProductID: "3", Quantity: 15, Cost: 250, Date: "2023-07-05"},
			{ID: "4", VendorName: "Tech Suppliers Inc.", ProductID: "4", Quantity: 30, Cost: 50, Date: "2023-07-12"},
			{ID: "5", VendorName: "Screen Solutions", ProductID: "5", Quantity: 8, Cost: 180, Date: "2023-07-20"},
		},
		Sales: []store.SaleRecord{
			{ID: "1", CustomerName: "John Doe", ProductID: "1", Quantity: 2, Price: 1200, Date: "2023-06-20"},
			{ID: "2", CustomerName: "Jane Smith", ProductID: "2", Quantity: 3, Price: 700, Date: "2023-06-25"},
			{ID: "3", CustomerName: "Mike Johnson", ProductID: "3", Quantity: 1, Price: 450, Date: "2023-07-10"},
			{ID: "4", CustomerName: "Sarah Williams", ProductID: "4", Quantity: 5, Price: 100, Date: "2023-07-15"},
			{ID: "5", CustomerName: "David Brown", ProductID: "5", Quantity: 2, Price: 300, Date: "2023-07-25"},
		},
	}
}
