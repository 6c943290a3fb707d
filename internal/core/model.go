package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the caller's role as resolved by the authentication layer.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleEmployee Role = "Employee"
	RoleCustomer Role = "Customer"
)

// Actor is the already-authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   Role
}

// IsStaff reports whether the actor may operate on other users' records.
func (a Actor) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleEmployee
}

// Product is the read-only catalog record the engine prices and allocates against.
type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	WarrantyMonths int             `json:"warranty_months"`
	CreatedAt      time.Time       `json:"created_at"`
}

type Color struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Promotion is a flat discount linked to one or more products.
type Promotion struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Discount  decimal.Decimal `json:"discount"`
	StartDate time.Time       `json:"start_date"`
	EndDate   time.Time       `json:"end_date"`
	IsActive  bool            `json:"is_active"`
}

// ActiveAt reports whether the promotion applies at t. Both window bounds are inclusive.
func (p Promotion) ActiveAt(t time.Time) bool {
	return p.IsActive && !t.Before(p.StartDate) && !t.After(p.EndDate)
}

type Cart struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

type CartItem struct {
	ID        string    `json:"id"`
	CartID    string    `json:"cart_id"`
	ProductID string    `json:"product_id"`
	ColorID   string    `json:"color_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// CartLine is a cart item priced at read time.
type CartLine struct {
	CartItem
	ProductName    string          `json:"product_name"`
	CatalogPrice   decimal.Decimal `json:"catalog_price"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

type CartView struct {
	Cart  Cart            `json:"cart"`
	Lines []CartLine      `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// PriceQuote is the effective price of a product at a point in time.
type PriceQuote struct {
	ProductID      string          `json:"product_id"`
	CatalogPrice   decimal.Decimal `json:"catalog_price"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
	PromotionID    string          `json:"promotion_id,omitempty"`
	AsOf           time.Time       `json:"as_of"`
}
