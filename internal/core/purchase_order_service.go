package core

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PurchaseOrderService receives supplier deliveries into the unit ledger.
//
//	Pending → Receiving → Completed
//
// A purchase order can be deleted, together with its units, until it is Completed.
type PurchaseOrderService interface {
	CreatePurchaseOrder(ctx context.Context, actor Actor, supplierID string, lines []PurchaseOrderLineInput) (*PurchaseOrder, error)
	// ReceivePurchaseOrder creates one unit per scanned IMEI. The order completes
	// once every line has received its full quantity.
	ReceivePurchaseOrder(ctx context.Context, actor Actor, poID string, received []ReceivedUnit) (*PurchaseOrder, []ProductIdentity, error)
	DeletePurchaseOrder(ctx context.Context, actor Actor, poID string) error
}

type purchaseOrderService struct {
	store    Store
	settings Settings
	logger   *zap.Logger
}

func NewPurchaseOrderService(store Store, settings Settings, logger *zap.Logger) PurchaseOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &purchaseOrderService{store: store, settings: settings.withDefaults(), logger: logger}
}

func (s *purchaseOrderService) CreatePurchaseOrder(ctx context.Context, actor Actor, supplierID string, lines []PurchaseOrderLineInput) (*PurchaseOrder, error) {
	if !actor.IsStaff() {
		return nil, invalidf("only staff may create purchase orders")
	}
	if strings.TrimSpace(supplierID) == "" {
		return nil, invalidf("supplier is required")
	}
	if len(lines) == 0 {
		return nil, invalidf("purchase order must have at least one line")
	}
	for i, l := range lines {
		if l.Quantity <= 0 {
			return nil, invalidf("line %d: quantity must be positive", i+1)
		}
		if l.UnitCost.IsNegative() {
			return nil, invalidf("line %d: unit cost cannot be negative", i+1)
		}
	}

	var po *PurchaseOrder
	err := runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		po = &PurchaseOrder{
			ID:         uuid.NewString(),
			SupplierID: supplierID,
			Status:     PurchaseOrderPending,
			CreatedAt:  s.settings.Now(),
		}
		for _, l := range lines {
			if _, err := tx.GetProduct(ctx, l.ProductID); err != nil {
				return err
			}
			if _, err := tx.GetColor(ctx, l.ColorID); err != nil {
				return err
			}
			po.Lines = append(po.Lines, PurchaseOrderLine{
				ID:              uuid.NewString(),
				PurchaseOrderID: po.ID,
				ProductID:       l.ProductID,
				ColorID:         l.ColorID,
				Quantity:        l.Quantity,
				UnitCost:        l.UnitCost,
			})
		}
		return tx.InsertPurchaseOrder(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase order created", zap.String("po_id", po.ID), zap.Int("lines", len(po.Lines)))
	return po, nil
}

func (s *purchaseOrderService) ReceivePurchaseOrder(ctx context.Context, actor Actor, poID string, received []ReceivedUnit) (*PurchaseOrder, []ProductIdentity, error) {
	if !actor.IsStaff() {
		return nil, nil, invalidf("only staff may receive purchase orders")
	}
	if len(received) == 0 {
		return nil, nil, invalidf("no units to receive")
	}
	seen := map[string]bool{}
	for _, r := range received {
		if !validIMEI(r.IMEI) {
			return nil, nil, invalidf("invalid IMEI %q: must be 15 digits", r.IMEI)
		}
		if seen[r.IMEI] {
			return nil, nil, invalidf("IMEI %s appears more than once", r.IMEI)
		}
		seen[r.IMEI] = true
	}

	var po *PurchaseOrder
	var units []ProductIdentity
	err := runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		var err error
		po, err = tx.LockPurchaseOrder(ctx, poID)
		if err != nil {
			return err
		}
		if po.Status == PurchaseOrderCompleted {
			return invalidf("purchase order %s cannot be received: status is %s", poID, po.Status)
		}

		existing, err := tx.ListUnitsForPurchaseOrder(ctx, po.ID)
		if err != nil {
			return err
		}
		lines := map[string]*PurchaseOrderLine{}
		for i := range po.Lines {
			lines[po.Lines[i].ID] = &po.Lines[i]
			po.Lines[i].Received = 0
		}
		for _, u := range existing {
			if l, ok := lines[u.PurchaseOrderLineID]; ok {
				l.Received++
			}
		}

		now := s.settings.Now()
		for _, r := range received {
			line, ok := lines[r.LineID]
			if !ok {
				return invalidf("line %s does not belong to purchase order %s", r.LineID, po.ID)
			}
			if line.Received >= line.Quantity {
				return invalidf("line %s is fully received: %d of %d", line.ID, line.Received, line.Quantity)
			}
			unit := ProductIdentity{
				ID:                  uuid.NewString(),
				IMEI:                r.IMEI,
				ProductID:           line.ProductID,
				ColorID:             line.ColorID,
				PurchaseOrderLineID: line.ID,
				ReceivedAt:          now,
			}
			if err := tx.InsertUnit(ctx, &unit); err != nil {
				return err
			}
			line.Received++
			units = append(units, unit)
		}

		po.Status = PurchaseOrderCompleted
		for _, l := range po.Lines {
			if l.Received < l.Quantity {
				po.Status = PurchaseOrderReceiving
				break
			}
		}
		if po.Status == PurchaseOrderCompleted {
			po.CompletedAt = &now
		}
		return tx.UpdatePurchaseOrder(ctx, po)
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("purchase order received",
		zap.String("po_id", po.ID),
		zap.Int("units", len(units)),
		zap.String("status", string(po.Status)),
	)
	return po, units, nil
}

func (s *purchaseOrderService) DeletePurchaseOrder(ctx context.Context, actor Actor, poID string) error {
	if !actor.IsStaff() {
		return invalidf("only staff may delete purchase orders")
	}
	err := runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		po, err := tx.LockPurchaseOrder(ctx, poID)
		if err != nil {
			return err
		}
		if po.Status == PurchaseOrderCompleted {
			return invalidf("purchase order %s cannot be deleted: status is %s", poID, po.Status)
		}
		units, err := tx.ListUnitsForPurchaseOrder(ctx, po.ID)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(units))
		for _, u := range units {
			if u.IsSold {
				return invalidf("purchase order %s cannot be deleted: unit %s is sold", poID, u.IMEI)
			}
			ids = append(ids, u.ID)
		}
		if err := tx.DeleteUnits(ctx, ids); err != nil {
			return err
		}
		return tx.DeletePurchaseOrder(ctx, po.ID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("purchase order deleted", zap.String("po_id", poID))
	return nil
}

func validIMEI(s string) bool {
	if len(s) != 15 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
