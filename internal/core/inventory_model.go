package core

import "time"

// ProductIdentity is one physical, IMEI-serialized unit.
type ProductIdentity struct {
	ID                  string     `json:"id"`
	IMEI                string     `json:"imei"`
	ProductID           string     `json:"product_id"`
	ColorID             string     `json:"color_id"`
	PurchaseOrderLineID string     `json:"purchase_order_line_id,omitempty"`
	IsSold              bool       `json:"is_sold"`
	WarrantyStartDate   *time.Time `json:"warranty_start_date,omitempty"`
	WarrantyEndDate     *time.Time `json:"warranty_end_date,omitempty"`
	WarrantyCount       int        `json:"warranty_count"`
	ReceivedAt          time.Time  `json:"received_at"`
}

// HasWarrantyWindow reports whether both window bounds are recorded.
func (u ProductIdentity) HasWarrantyWindow() bool {
	return u.WarrantyStartDate != nil && u.WarrantyEndDate != nil
}

// UnderWarrantyAt reports whether t falls inside the unit's warranty window.
func (u ProductIdentity) UnderWarrantyAt(t time.Time) bool {
	if !u.HasWarrantyWindow() {
		return false
	}
	return !t.Before(*u.WarrantyStartDate) && !t.After(*u.WarrantyEndDate)
}

type UnitFilter struct {
	ProductID string
	ColorID   string
	// AvailableOnly restricts the result to unsold units.
	AvailableOnly bool
}
