package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"phone-store/internal/core"
)

const orderColumns = `id, user_id, total_amount, status, payment_status, payment_method, address,
	note, phone_number, created_at, updated_at, delivered_at`

func scanOrder(r pgx.Row) (core.Order, error) {
	var o core.Order
	err := r.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&o.Address, &o.Note, &o.PhoneNumber, &o.CreatedAt, &o.UpdatedAt, &o.DeliveredAt)
	return o, err
}

const detailColumns = `id, order_id, product_id, color_id, product_identity_id, price, return_status, released`

func scanDetail(r pgx.Row) (core.OrderDetail, error) {
	var d core.OrderDetail
	err := r.Scan(&d.ID, &d.OrderID, &d.ProductID, &d.ColorID, &d.ProductIdentityID, &d.Price, &d.ReturnStatus, &d.Released)
	return d, err
}

func (t *tx) InsertOrder(ctx context.Context, o *core.Order) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, total_amount, status, payment_status, payment_method, address,
			note, phone_number, created_at, updated_at, delivered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, o.ID, o.UserID, o.TotalAmount, o.Status, o.PaymentStatus, o.PaymentMethod, o.Address,
		o.Note, o.PhoneNumber, o.CreatedAt, o.UpdatedAt, o.DeliveredAt)
	return mapErr(err, "order", o.ID)
}

func (t *tx) InsertOrderDetail(ctx context.Context, d *core.OrderDetail) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO order_details (id, order_id, product_id, color_id, product_identity_id, price, return_status, released)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, d.ID, d.OrderID, d.ProductID, d.ColorID, d.ProductIdentityID, d.Price, d.ReturnStatus, d.Released)
	return mapErr(err, "order detail", d.ProductIdentityID)
}

func (t *tx) GetOrder(ctx context.Context, id string) (*core.Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if err != nil {
		return nil, mapErr(err, "order", id)
	}
	return &o, nil
}

func (t *tx) LockOrder(ctx context.Context, id string) (*core.Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, mapErr(err, "order", id)
	}
	return &o, nil
}

func (t *tx) UpdateOrder(ctx context.Context, o *core.Order) error {
	return t.execOne(ctx, "order", o.ID, `
		UPDATE orders
		SET status = $2, payment_status = $3, updated_at = $4, delivered_at = $5
		WHERE id = $1
	`, o.ID, o.Status, o.PaymentStatus, o.UpdatedAt, o.DeliveredAt)
}

func (t *tx) ListOrders(ctx context.Context, f core.OrderFilter) ([]core.Order, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1 = '' OR user_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id
	`, f.UserID, string(f.Status))
	if err != nil {
		return nil, mapErr(err, "orders", "")
	}
	return collect(rows, scanOrder)
}

func (t *tx) ListOrderDetails(ctx context.Context, orderID string) ([]core.OrderDetail, error) {
	rows, err := t.tx.Query(ctx, "SELECT "+detailColumns+" FROM order_details WHERE order_id = $1 ORDER BY id", orderID)
	if err != nil {
		return nil, mapErr(err, "details for order", orderID)
	}
	return collect(rows, scanDetail)
}

func (t *tx) GetOrderDetail(ctx context.Context, id string) (*core.OrderDetail, error) {
	d, err := scanDetail(t.tx.QueryRow(ctx, "SELECT "+detailColumns+" FROM order_details WHERE id = $1", id))
	if err != nil {
		return nil, mapErr(err, "order detail", id)
	}
	return &d, nil
}

func (t *tx) FindSaleForUnit(ctx context.Context, unitID string) (*core.OrderDetail, error) {
	d, err := scanDetail(t.tx.QueryRow(ctx, `
		SELECT `+detailColumns+`
		FROM order_details
		WHERE product_identity_id = $1 AND NOT return_status AND NOT released
	`, unitID))
	if err != nil {
		return nil, mapErr(err, "sale for unit", unitID)
	}
	return &d, nil
}

func (t *tx) UpdateOrderDetail(ctx context.Context, d *core.OrderDetail) error {
	return t.execOne(ctx, "order detail", d.ID,
		"UPDATE order_details SET return_status = $2, released = $3 WHERE id = $1", d.ID, d.ReturnStatus, d.Released)
}
