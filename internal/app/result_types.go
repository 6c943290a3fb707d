package app

import "phone-store/internal/core"

// Every result carries Message, which adapters show beside the payload. The
// remaining fields are the payload itself.

type MessageResult struct {
	Message string `json:"-"`
}

type PriceResult struct {
	Message string           `json:"-"`
	Quote   *core.PriceQuote `json:"quote"`
}

type CartResult struct {
	Message string         `json:"-"`
	Cart    *core.CartView `json:"cart"`
}

type CartItemResult struct {
	Message string         `json:"-"`
	Item    *core.CartItem `json:"item"`
}

// OrderResult is returned by order lifecycle operations.
type OrderResult struct {
	Message    string      `json:"-"`
	Order      *core.Order `json:"order"`
	PaymentURL string      `json:"payment_url,omitempty"`
}

type OrderListResult struct {
	Message string       `json:"-"`
	Orders  []core.Order `json:"orders"`
}

// ReturnResult is a return request, plus the ticket an approval opened.
type ReturnResult struct {
	Message string              `json:"-"`
	Request *core.ProductReturn `json:"request"`
	Ticket  *core.ReturnTicket  `json:"ticket,omitempty"`
}

type ReturnListResult struct {
	Message  string               `json:"-"`
	Requests []core.ProductReturn `json:"requests"`
}

type ReturnTicketResult struct {
	Message string             `json:"-"`
	Ticket  *core.ReturnTicket `json:"ticket"`
}

type ReturnTicketListResult struct {
	Message string              `json:"-"`
	Tickets []core.ReturnTicket `json:"tickets"`
}

// WarrantyRequestResult is a warranty request, plus the ticket an approval opened.
type WarrantyRequestResult struct {
	Message  string                `json:"-"`
	Request  *core.WarrantyRequest `json:"request"`
	Warranty *core.Warranty        `json:"warranty,omitempty"`
}

type WarrantyRequestListResult struct {
	Message  string                 `json:"-"`
	Requests []core.WarrantyRequest `json:"requests"`
}

type WarrantyResult struct {
	Message  string         `json:"-"`
	Warranty *core.Warranty `json:"warranty"`
}

type WarrantyListResult struct {
	Message    string          `json:"-"`
	Warranties []core.Warranty `json:"warranties"`
}

// PurchaseOrderResult carries the units created when the order was received.
type PurchaseOrderResult struct {
	Message       string                 `json:"-"`
	PurchaseOrder *core.PurchaseOrder    `json:"purchase_order"`
	Units         []core.ProductIdentity `json:"units,omitempty"`
}

type UnitResult struct {
	Message string                `json:"-"`
	Unit    *core.ProductIdentity `json:"unit"`
}

type UnitListResult struct {
	Message string                 `json:"-"`
	Units   []core.ProductIdentity `json:"units"`
}
