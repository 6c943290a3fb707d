package core

import (
	"context"
	"time"
)

// Store is the unit-of-work boundary. Every operation that touches more than one
// row runs inside WithinTx; if fn returns an error nothing it wrote is kept.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of repositories available inside one transaction.
// Missing rows are reported as KindNotFound errors.
type Tx interface {
	CatalogRepo
	CartRepo
	UnitRepo
	OrderRepo
	ReturnRepo
	WarrantyRepo
	PurchaseOrderRepo
}

type CatalogRepo interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	GetColor(ctx context.Context, id string) (*Color, error)
	// ListPromotionsForProduct returns linked promotions in link insertion order.
	ListPromotionsForProduct(ctx context.Context, productID string) ([]Promotion, error)
}

type CartRepo interface {
	GetCart(ctx context.Context, id string) (*Cart, error)
	// ListCartItems returns the items of a cart. A nil ids slice returns every item;
	// otherwise only the listed ids that belong to the cart are returned.
	ListCartItems(ctx context.Context, cartID string, ids []string) ([]CartItem, error)
	InsertCartItem(ctx context.Context, item *CartItem) error
	UpdateCartItem(ctx context.Context, item *CartItem) error
	DeleteCartItems(ctx context.Context, ids []string) error
}

type UnitRepo interface {
	// InsertUnit reports a duplicate IMEI as KindConflict.
	InsertUnit(ctx context.Context, u *ProductIdentity) error
	GetUnit(ctx context.Context, id string) (*ProductIdentity, error)
	// LockUnit reads a unit and holds a row lock on it until the transaction ends.
	LockUnit(ctx context.Context, id string) (*ProductIdentity, error)
	// LockAvailableUnits locks up to limit unsold units of (productID, colorID),
	// oldest received first. Units locked by other transactions are skipped.
	LockAvailableUnits(ctx context.Context, productID, colorID string, limit int) ([]ProductIdentity, error)
	UpdateUnit(ctx context.Context, u *ProductIdentity) error
	ListUnits(ctx context.Context, f UnitFilter) ([]ProductIdentity, error)
	ListUnitsForPurchaseOrder(ctx context.Context, purchaseOrderID string) ([]ProductIdentity, error)
	DeleteUnits(ctx context.Context, ids []string) error
}

type OrderRepo interface {
	InsertOrder(ctx context.Context, o *Order) error
	// InsertOrderDetail reports a unit already bound to a live detail as KindConflict.
	InsertOrderDetail(ctx context.Context, d *OrderDetail) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	LockOrder(ctx context.Context, id string) (*Order, error)
	UpdateOrder(ctx context.Context, o *Order) error
	ListOrders(ctx context.Context, f OrderFilter) ([]Order, error)
	ListOrderDetails(ctx context.Context, orderID string) ([]OrderDetail, error)
	GetOrderDetail(ctx context.Context, id string) (*OrderDetail, error)
	// FindSaleForUnit returns the detail that currently holds the unit, i.e. the
	// one neither returned nor released.
	FindSaleForUnit(ctx context.Context, unitID string) (*OrderDetail, error)
	UpdateOrderDetail(ctx context.Context, d *OrderDetail) error
}

type ReturnRepo interface {
	InsertReturnRequest(ctx context.Context, r *ProductReturn) error
	GetReturnRequest(ctx context.Context, id string) (*ProductReturn, error)
	LockReturnRequest(ctx context.Context, id string) (*ProductReturn, error)
	UpdateReturnRequest(ctx context.Context, r *ProductReturn) error
	ListReturnRequests(ctx context.Context, f ReturnFilter) ([]ProductReturn, error)
	// HasActiveReturnRequest reports a Pending or Approved request for the unit.
	HasActiveReturnRequest(ctx context.Context, unitID string) (bool, error)

	InsertReturnTicket(ctx context.Context, t *ReturnTicket) error
	LockReturnTicket(ctx context.Context, id string) (*ReturnTicket, error)
	UpdateReturnTicket(ctx context.Context, t *ReturnTicket) error
	ListReturnTickets(ctx context.Context, f ReturnTicketFilter) ([]ReturnTicket, error)
	// HasOpenReturnTicket reports a ticket for the unit that is neither Returned nor Canceled.
	HasOpenReturnTicket(ctx context.Context, unitID string) (bool, error)
}

type WarrantyRepo interface {
	InsertWarrantyRequest(ctx context.Context, r *WarrantyRequest) error
	GetWarrantyRequest(ctx context.Context, id string) (*WarrantyRequest, error)
	LockWarrantyRequest(ctx context.Context, id string) (*WarrantyRequest, error)
	UpdateWarrantyRequest(ctx context.Context, r *WarrantyRequest) error
	ListWarrantyRequests(ctx context.Context, f WarrantyRequestFilter) ([]WarrantyRequest, error)
	// HasActiveWarrantyRequest reports a Pending or Approved request for the unit.
	HasActiveWarrantyRequest(ctx context.Context, unitID string) (bool, error)

	InsertWarranty(ctx context.Context, w *Warranty) error
	LockWarranty(ctx context.Context, id string) (*Warranty, error)
	UpdateWarranty(ctx context.Context, w *Warranty) error
	ListWarranties(ctx context.Context, f WarrantyFilter) ([]Warranty, error)
	// HasOpenWarranty reports a ticket for the unit that is neither Returned nor Canceled.
	HasOpenWarranty(ctx context.Context, unitID string) (bool, error)
}

type PurchaseOrderRepo interface {
	// InsertPurchaseOrder inserts the header and its lines.
	InsertPurchaseOrder(ctx context.Context, po *PurchaseOrder) error
	// LockPurchaseOrder returns the header with its lines.
	LockPurchaseOrder(ctx context.Context, id string) (*PurchaseOrder, error)
	UpdatePurchaseOrder(ctx context.Context, po *PurchaseOrder) error
	DeletePurchaseOrder(ctx context.Context, id string) error
}

// Settings holds the tunables shared by the services.
type Settings struct {
	// TxTimeout bounds every unit of work.
	TxTimeout time.Duration
	// ReturnWindow bounds return eligibility after delivery and the ticket duration.
	ReturnWindow time.Duration
	// WarrantyMonths applies to products that carry no warranty length of their own.
	WarrantyMonths int
	Now            func() time.Time
}

const (
	DefaultTxTimeout        = 10 * time.Second
	DefaultReturnWindowDays = 7
	DefaultWarrantyMonths   = 12
)

// withDefaults fills zero fields.
func (s Settings) withDefaults() Settings {
	if s.TxTimeout <= 0 {
		s.TxTimeout = DefaultTxTimeout
	}
	if s.ReturnWindow <= 0 {
		s.ReturnWindow = DefaultReturnWindowDays * 24 * time.Hour
	}
	if s.WarrantyMonths <= 0 {
		s.WarrantyMonths = DefaultWarrantyMonths
	}
	if s.Now == nil {
		s.Now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// runInTx executes fn in one unit of work bounded by the configured timeout.
// Failures that are not already domain errors come back as KindInvalid.
func runInTx(ctx context.Context, store Store, timeout time.Duration, fn func(ctx context.Context, tx Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return asDomainError(store.WithinTx(ctx, fn))
}
