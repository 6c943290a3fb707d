package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrder is a supplier delivery. Receiving it creates units.
type PurchaseOrder struct {
	ID          string              `json:"id"`
	SupplierID  string              `json:"supplier_id"`
	Status      PurchaseOrderStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	Lines       []PurchaseOrderLine `json:"lines"`
}

type PurchaseOrderLine struct {
	ID              string          `json:"id"`
	PurchaseOrderID string          `json:"purchase_order_id"`
	ProductID       string          `json:"product_id"`
	ColorID         string          `json:"color_id"`
	Quantity        int             `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	Received        int             `json:"received"`
}

type PurchaseOrderLineInput struct {
	ProductID string          `json:"product_id"`
	ColorID   string          `json:"color_id"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// ReceivedUnit is one scanned IMEI against a purchase order line.
type ReceivedUnit struct {
	LineID string `json:"line_id"`
	IMEI   string `json:"imei"`
}
