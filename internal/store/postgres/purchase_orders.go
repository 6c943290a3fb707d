package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"phone-store/internal/core"
)

func (t *tx) InsertPurchaseOrder(ctx context.Context, po *core.PurchaseOrder) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO purchase_orders (id, supplier_id, status, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5)
	`, po.ID, po.SupplierID, po.Status, po.CreatedAt, po.CompletedAt)
	if err != nil {
		return mapErr(err, "purchase order", po.ID)
	}
	for _, l := range po.Lines {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO purchase_order_lines (id, purchase_order_id, product_id, color_id, quantity, unit_cost)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, l.ID, po.ID, l.ProductID, l.ColorID, l.Quantity, l.UnitCost)
		if err != nil {
			return mapErr(err, "purchase order line", l.ID)
		}
	}
	return nil
}

func (t *tx) LockPurchaseOrder(ctx context.Context, id string) (*core.PurchaseOrder, error) {
	var po core.PurchaseOrder
	err := t.tx.QueryRow(ctx, `
		SELECT id, supplier_id, status, created_at, completed_at
		FROM purchase_orders WHERE id = $1 FOR UPDATE
	`, id).Scan(&po.ID, &po.SupplierID, &po.Status, &po.CreatedAt, &po.CompletedAt)
	if err != nil {
		return nil, mapErr(err, "purchase order", id)
	}

	rows, err := t.tx.Query(ctx, `
		SELECT id, purchase_order_id, product_id, color_id, quantity, unit_cost
		FROM purchase_order_lines WHERE purchase_order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, mapErr(err, "lines for purchase order", id)
	}
	po.Lines, err = collect(rows, func(r pgx.Row) (core.PurchaseOrderLine, error) {
		var l core.PurchaseOrderLine
		err := r.Scan(&l.ID, &l.PurchaseOrderID, &l.ProductID, &l.ColorID, &l.Quantity, &l.UnitCost)
		return l, err
	})
	if err != nil {
		return nil, mapErr(err, "lines for purchase order", id)
	}
	return &po, nil
}

func (t *tx) UpdatePurchaseOrder(ctx context.Context, po *core.PurchaseOrder) error {
	return t.execOne(ctx, "purchase order", po.ID,
		"UPDATE purchase_orders SET status = $2, completed_at = $3 WHERE id = $1", po.ID, po.Status, po.CompletedAt)
}

func (t *tx) DeletePurchaseOrder(ctx context.Context, id string) error {
	return t.execOne(ctx, "purchase order", id, "DELETE FROM purchase_orders WHERE id = $1", id)
}
