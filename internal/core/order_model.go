package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a customer order. TotalAmount and detail prices are fixed at creation.
type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        OrderStatus     `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Address       string          `json:"address"`
	Note          string          `json:"note,omitempty"`
	PhoneNumber   string          `json:"phone_number,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeliveredAt   *time.Time      `json:"delivered_at,omitempty"`
	Details       []OrderDetail   `json:"details,omitempty"`
}

// OrderDetail binds one physical unit to an order at the snapshotted sale price.
type OrderDetail struct {
	ID                string          `json:"id"`
	OrderID           string          `json:"order_id"`
	ProductID         string          `json:"product_id"`
	ColorID           string          `json:"color_id"`
	ProductIdentityID string          `json:"product_identity_id"`
	Price             decimal.Decimal `json:"price"`
	ReturnStatus      bool            `json:"return_status"`
	// Released is set when the order is canceled and the unit goes back on sale.
	Released bool `json:"released"`
}

// Holds reports whether the detail still owns its unit.
func (d OrderDetail) Holds() bool {
	return !d.ReturnStatus && !d.Released
}

// CreateOrderInput carries the checkout form.
type CreateOrderInput struct {
	CartID        string
	CartItemIDs   []string
	Address       string
	PaymentMethod string
	Note          string
	PhoneNumber   string
}

// OrderFilter narrows ListOrders. Empty fields are ignored.
type OrderFilter struct {
	UserID string
	Status OrderStatus
}
