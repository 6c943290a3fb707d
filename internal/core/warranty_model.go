package core

import "time"

// WarrantyRequest is a customer's repair claim against one sold unit.
type WarrantyRequest struct {
	ID                string                `json:"id"`
	UserID            string                `json:"user_id"`
	ProductIdentityID string                `json:"product_identity_id"`
	Description       string                `json:"description"`
	FullName          string                `json:"full_name"`
	PhoneNumber       string                `json:"phone_number"`
	Address           string                `json:"address"`
	Status            WarrantyRequestStatus `json:"status"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// Warranty is the service ticket. Its window is copied from the unit, not recomputed.
type Warranty struct {
	ID                string         `json:"id"`
	WarrantyRequestID string         `json:"warranty_request_id"`
	ProductIdentityID string         `json:"product_identity_id"`
	Status            WarrantyStatus `json:"status"`
	StartDate         time.Time      `json:"start_date"`
	EndDate           time.Time      `json:"end_date"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

type CreateWarrantyInput struct {
	ProductIdentityID string
	Description       string
	FullName          string
	PhoneNumber       string
	Address           string
}

type WarrantyRequestFilter struct {
	UserID string
	Status WarrantyRequestStatus
}

type WarrantyFilter struct {
	WarrantyRequestID string
	Status            WarrantyStatus
}
