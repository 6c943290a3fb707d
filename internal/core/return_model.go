package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductReturn is a customer's return request against one sold unit.
type ProductReturn struct {
	ID                string              `json:"id"`
	UserID            string              `json:"user_id"`
	ProductIdentityID string              `json:"product_identity_id"`
	OrderDetailID     string              `json:"order_detail_id"`
	Reason            string              `json:"reason"`
	FullName          string              `json:"full_name"`
	PhoneNumber       string              `json:"phone_number"`
	Address           string              `json:"address"`
	Status            ReturnRequestStatus `json:"status"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// ReturnTicket is the staff-operated record created when a return is approved.
type ReturnTicket struct {
	ID                string             `json:"id"`
	ProductReturnID   string             `json:"product_return_id"`
	ProductIdentityID string             `json:"product_identity_id"`
	OrderDetailID     string             `json:"order_detail_id"`
	Status            ReturnTicketStatus `json:"status"`
	StartDate         time.Time          `json:"start_date"`
	EndDate           time.Time          `json:"end_date"`
	OriginalPrice     decimal.Decimal    `json:"original_price"`
	DiscountedPrice   decimal.Decimal    `json:"discounted_price"`
	PaymentMethod     PaymentMethod      `json:"payment_method"`
	PaymentStatus     PaymentStatus      `json:"payment_status"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

type CreateReturnInput struct {
	ProductIdentityID string
	Reason            string
	FullName          string
	PhoneNumber       string
	Address           string
}

type ReturnFilter struct {
	UserID string
	Status ReturnRequestStatus
}

type ReturnTicketFilter struct {
	ProductReturnID string
	Status          ReturnTicketStatus
}
