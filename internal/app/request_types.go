package app

import "github.com/shopspring/decimal"

type AddCartItemRequest struct {
	CartID    string
	ProductID string
	ColorID   string
	Quantity  int
}

// CreateOrderRequest is the checkout input. CartItemIDs selects which items of
// the cart are bought; the rest stay in the cart.
type CreateOrderRequest struct {
	CartID        string
	CartItemIDs   []string
	Address       string
	PaymentMethod string
	Note          string
	PhoneNumber   string
}

// PaymentCallbackRequest is the outcome reported by the payment gateway.
type PaymentCallbackRequest struct {
	OrderID string
	Success bool
}

type CreateReturnRequest struct {
	ProductIdentityID string
	Reason            string
	FullName          string
	PhoneNumber       string
	Address           string
}

type CreateWarrantyRequest struct {
	ProductIdentityID string
	Description       string
	FullName          string
	PhoneNumber       string
	Address           string
}

type CreatePurchaseOrderRequest struct {
	SupplierID string
	Lines      []PurchaseOrderLineInput
}

type PurchaseOrderLineInput struct {
	ProductID string
	ColorID   string
	Quantity  int
	UnitCost  decimal.Decimal
}

type ReceivePurchaseOrderRequest struct {
	PurchaseOrderID string
	Units           []ReceivedUnitInput
}

// ReceivedUnitInput is one scanned IMEI against a purchase order line.
type ReceivedUnitInput struct {
	LineID string
	IMEI   string
}

// ListUnitsRequest filters the unit ledger. Empty fields are ignored.
type ListUnitsRequest struct {
	ProductID     string
	ColorID       string
	AvailableOnly bool
}
