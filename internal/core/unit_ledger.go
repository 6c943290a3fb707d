package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// UnitLedger owns the sold flag, the warranty window and the warranty counter
// of every physical unit. The *Tx methods join the caller's transaction.
type UnitLedger struct {
	store    Store
	settings Settings
	logger   *zap.Logger
}

func NewUnitLedger(store Store, settings Settings, logger *zap.Logger) *UnitLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnitLedger{store: store, settings: settings.withDefaults(), logger: logger}
}

// GetUnit returns one unit by id.
func (l *UnitLedger) GetUnit(ctx context.Context, id string) (*ProductIdentity, error) {
	var unit *ProductIdentity
	err := runInTx(ctx, l.store, l.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		var err error
		unit, err = tx.GetUnit(ctx, id)
		return err
	})
	return unit, err
}

// ListUnits returns units matching f, oldest received first.
func (l *UnitLedger) ListUnits(ctx context.Context, f UnitFilter) ([]ProductIdentity, error) {
	var units []ProductIdentity
	err := runInTx(ctx, l.store, l.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		var err error
		units, err = tx.ListUnits(ctx, f)
		return err
	})
	return units, err
}

// LockForSaleTx locks quantity unsold units of (product, color) without changing them.
// It fails when fewer than quantity are available.
func (l *UnitLedger) LockForSaleTx(ctx context.Context, tx Tx, product *Product, color *Color, quantity int) ([]ProductIdentity, error) {
	units, err := tx.LockAvailableUnits(ctx, product.ID, color.ID, quantity)
	if err != nil {
		return nil, err
	}
	if len(units) < quantity {
		return nil, invalidf("insufficient stock for product %q color %q: requested %d, available %d",
			product.Name, color.Name, quantity, len(units))
	}
	return units, nil
}

// MarkSoldTx flags previously locked units as sold.
func (l *UnitLedger) MarkSoldTx(ctx context.Context, tx Tx, units []ProductIdentity) error {
	for i := range units {
		if units[i].IsSold {
			return invalidf("unit %s is already sold", units[i].ID)
		}
		units[i].IsSold = true
		if err := tx.UpdateUnit(ctx, &units[i]); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseUnitsTx puts units back into the available pool and clears their warranty window.
func (l *UnitLedger) ReleaseUnitsTx(ctx context.Context, tx Tx, unitIDs []string) error {
	for _, id := range unitIDs {
		unit, err := tx.LockUnit(ctx, id)
		if err != nil {
			return err
		}
		unit.IsSold = false
		unit.WarrantyStartDate = nil
		unit.WarrantyEndDate = nil
		if err := tx.UpdateUnit(ctx, unit); err != nil {
			return err
		}
	}
	return nil
}

// ResetAfterReturnTx restores a returned unit to factory state: unsold, no
// warranty window and a zero service counter.
func (l *UnitLedger) ResetAfterReturnTx(ctx context.Context, tx Tx, unitID string) error {
	unit, err := tx.LockUnit(ctx, unitID)
	if err != nil {
		return err
	}
	unit.IsSold = false
	unit.WarrantyStartDate = nil
	unit.WarrantyEndDate = nil
	unit.WarrantyCount = 0
	return tx.UpdateUnit(ctx, unit)
}

// StartWarrantyTx opens the unit's warranty window at start for the product's
// warranty length, or the configured default when the product has none.
func (l *UnitLedger) StartWarrantyTx(ctx context.Context, tx Tx, unitID string, start time.Time, months int) error {
	if months <= 0 {
		months = l.settings.WarrantyMonths
	}
	unit, err := tx.LockUnit(ctx, unitID)
	if err != nil {
		return err
	}
	end := start.AddDate(0, months, 0)
	unit.WarrantyStartDate = &start
	unit.WarrantyEndDate = &end
	return tx.UpdateUnit(ctx, unit)
}

// IncrementWarrantyCountTx records one more warranty service on the unit.
func (l *UnitLedger) IncrementWarrantyCountTx(ctx context.Context, tx Tx, unit *ProductIdentity) error {
	unit.WarrantyCount++
	return tx.UpdateUnit(ctx, unit)
}

// CheckNoActiveWorkflowTx fails when the unit is already in a return or warranty workflow.
func (l *UnitLedger) CheckNoActiveWorkflowTx(ctx context.Context, tx Tx, unitID string) error {
	checks := []struct {
		has func(context.Context, string) (bool, error)
		msg string
	}{
		{tx.HasActiveReturnRequest, "unit %s already has an active return request"},
		{tx.HasOpenReturnTicket, "unit %s already has an open return ticket"},
		{tx.HasActiveWarrantyRequest, "unit %s already has an active warranty request"},
		{tx.HasOpenWarranty, "unit %s is already under warranty service"},
	}
	for _, c := range checks {
		found, err := c.has(ctx, unitID)
		if err != nil {
			return err
		}
		if found {
			return invalidf(c.msg, unitID)
		}
	}
	return nil
}
