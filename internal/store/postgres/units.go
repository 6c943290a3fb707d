package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"phone-store/internal/core"
)

const unitColumns = `id, imei, product_id, color_id, COALESCE(purchase_order_line_id, ''), is_sold,
	warranty_start_date, warranty_end_date, warranty_count, received_at`

func scanUnit(r pgx.Row) (core.ProductIdentity, error) {
	var u core.ProductIdentity
	err := r.Scan(&u.ID, &u.IMEI, &u.ProductID, &u.ColorID, &u.PurchaseOrderLineID, &u.IsSold,
		&u.WarrantyStartDate, &u.WarrantyEndDate, &u.WarrantyCount, &u.ReceivedAt)
	return u, err
}

func (t *tx) InsertUnit(ctx context.Context, u *core.ProductIdentity) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO product_identities (id, imei, product_id, color_id, purchase_order_line_id, is_sold,
			warranty_start_date, warranty_end_date, warranty_count, received_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10)
	`, u.ID, u.IMEI, u.ProductID, u.ColorID, u.PurchaseOrderLineID, u.IsSold,
		u.WarrantyStartDate, u.WarrantyEndDate, u.WarrantyCount, u.ReceivedAt)
	return mapErr(err, "unit", u.IMEI)
}

func (t *tx) GetUnit(ctx context.Context, id string) (*core.ProductIdentity, error) {
	u, err := scanUnit(t.tx.QueryRow(ctx, "SELECT "+unitColumns+" FROM product_identities WHERE id = $1", id))
	if err != nil {
		return nil, mapErr(err, "unit", id)
	}
	return &u, nil
}

func (t *tx) LockUnit(ctx context.Context, id string) (*core.ProductIdentity, error) {
	u, err := scanUnit(t.tx.QueryRow(ctx, "SELECT "+unitColumns+" FROM product_identities WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, mapErr(err, "unit", id)
	}
	return &u, nil
}

// LockAvailableUnits takes the oldest received units first. SKIP LOCKED lets two
// checkouts for the same (product, color) pick disjoint units instead of queueing.
func (t *tx) LockAvailableUnits(ctx context.Context, productID, colorID string, limit int) ([]core.ProductIdentity, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+unitColumns+`
		FROM product_identities
		WHERE product_id = $1 AND color_id = $2 AND NOT is_sold
		ORDER BY received_at, id
		LIMIT $3
		FOR UPDATE SKIP LOCKED
	`, productID, colorID, limit)
	if err != nil {
		return nil, mapErr(err, "available units for product", productID)
	}
	return collect(rows, scanUnit)
}

func (t *tx) UpdateUnit(ctx context.Context, u *core.ProductIdentity) error {
	return t.execOne(ctx, "unit", u.ID, `
		UPDATE product_identities
		SET is_sold = $2, warranty_start_date = $3, warranty_end_date = $4, warranty_count = $5
		WHERE id = $1
	`, u.ID, u.IsSold, u.WarrantyStartDate, u.WarrantyEndDate, u.WarrantyCount)
}

func (t *tx) ListUnits(ctx context.Context, f core.UnitFilter) ([]core.ProductIdentity, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+unitColumns+`
		FROM product_identities
		WHERE ($1 = '' OR product_id = $1)
		  AND ($2 = '' OR color_id = $2)
		  AND (NOT $3 OR NOT is_sold)
		ORDER BY received_at, id
	`, f.ProductID, f.ColorID, f.AvailableOnly)
	if err != nil {
		return nil, mapErr(err, "units", "")
	}
	return collect(rows, scanUnit)
}

func (t *tx) ListUnitsForPurchaseOrder(ctx context.Context, purchaseOrderID string) ([]core.ProductIdentity, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+unitColumns+`
		FROM product_identities
		WHERE purchase_order_line_id IN (
			SELECT id FROM purchase_order_lines WHERE purchase_order_id = $1
		)
		ORDER BY id
		FOR UPDATE
	`, purchaseOrderID)
	if err != nil {
		return nil, mapErr(err, "units for purchase order", purchaseOrderID)
	}
	return collect(rows, scanUnit)
}

func (t *tx) DeleteUnits(ctx context.Context, ids []string) error {
	_, err := t.tx.Exec(ctx, "DELETE FROM product_identities WHERE id = ANY($1)", ids)
	return mapErr(err, "units", "")
}
