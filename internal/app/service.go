package app

import (
	"context"

	"phone-store/internal/core"
)

// ApplicationService is the single interface the adapters call. It delegates to
// the core services, publishes lifecycle events once a change has committed, and
// attaches the human-readable message every response carries.
type ApplicationService interface {
	// QuotePrice returns a product's effective price right now.
	QuotePrice(ctx context.Context, productID string) (*PriceResult, error)

	// GetCart returns the actor's cart priced at current promotions.
	GetCart(ctx context.Context, actor core.Actor, cartID string) (*CartResult, error)

	// AddCartItem adds a quantity of (product, color) to the actor's cart.
	AddCartItem(ctx context.Context, actor core.Actor, req AddCartItemRequest) (*CartItemResult, error)

	// CreateOrder checks out the selected cart items. Online orders get a payment URL
	// when one is configured.
	CreateOrder(ctx context.Context, actor core.Actor, req CreateOrderRequest) (*OrderResult, error)

	// GetOrder returns one order with its details. Customers only see their own.
	GetOrder(ctx context.Context, actor core.Actor, orderID string) (*OrderResult, error)

	// ListOrders returns orders, newest first. Customers only see their own.
	ListOrders(ctx context.Context, actor core.Actor, status string) (*OrderListResult, error)

	// UpdateOrderStatus moves an order through its lifecycle.
	UpdateOrderStatus(ctx context.Context, actor core.Actor, orderID, status string) (*OrderResult, error)

	// RecordPayment applies the payment gateway's outcome for an order.
	RecordPayment(ctx context.Context, req PaymentCallbackRequest) (*OrderResult, error)

	CreateReturnRequest(ctx context.Context, actor core.Actor, req CreateReturnRequest) (*ReturnResult, error)
	GetReturnRequest(ctx context.Context, actor core.Actor, requestID string) (*ReturnResult, error)
	ListReturnRequests(ctx context.Context, actor core.Actor, status string) (*ReturnListResult, error)
	// UpdateReturnRequestStatus returns the ticket opened by an approval.
	UpdateReturnRequestStatus(ctx context.Context, actor core.Actor, requestID, status string) (*ReturnResult, error)
	ListReturnTickets(ctx context.Context, actor core.Actor, requestID, status string) (*ReturnTicketListResult, error)
	UpdateReturnTicketStatus(ctx context.Context, actor core.Actor, ticketID, status string) (*ReturnTicketResult, error)

	CreateWarrantyRequest(ctx context.Context, actor core.Actor, req CreateWarrantyRequest) (*WarrantyRequestResult, error)
	GetWarrantyRequest(ctx context.Context, actor core.Actor, requestID string) (*WarrantyRequestResult, error)
	ListWarrantyRequests(ctx context.Context, actor core.Actor, status string) (*WarrantyRequestListResult, error)
	// UpdateWarrantyRequestStatus returns the service ticket opened by an approval.
	UpdateWarrantyRequestStatus(ctx context.Context, actor core.Actor, requestID, status string) (*WarrantyRequestResult, error)
	ListWarranties(ctx context.Context, actor core.Actor, requestID, status string) (*WarrantyListResult, error)
	UpdateWarrantyStatus(ctx context.Context, actor core.Actor, warrantyID, status string) (*WarrantyResult, error)

	CreatePurchaseOrder(ctx context.Context, actor core.Actor, req CreatePurchaseOrderRequest) (*PurchaseOrderResult, error)
	// ReceivePurchaseOrder registers scanned IMEIs as new units.
	ReceivePurchaseOrder(ctx context.Context, actor core.Actor, req ReceivePurchaseOrderRequest) (*PurchaseOrderResult, error)
	DeletePurchaseOrder(ctx context.Context, actor core.Actor, poID string) (*MessageResult, error)

	// GetUnit returns one unit from the ledger. Staff only.
	GetUnit(ctx context.Context, actor core.Actor, unitID string) (*UnitResult, error)

	// ListUnits returns units oldest received first. Staff only.
	ListUnits(ctx context.Context, actor core.Actor, req ListUnitsRequest) (*UnitListResult, error)
}
