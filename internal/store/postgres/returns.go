package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"phone-store/internal/core"
)

const returnColumns = `id, user_id, product_identity_id, order_detail_id, reason, full_name,
	phone_number, address, status, created_at, updated_at`

func scanReturn(r pgx.Row) (core.ProductReturn, error) {
	var pr core.ProductReturn
	err := r.Scan(&pr.ID, &pr.UserID, &pr.ProductIdentityID, &pr.OrderDetailID, &pr.Reason, &pr.FullName,
		&pr.PhoneNumber, &pr.Address, &pr.Status, &pr.CreatedAt, &pr.UpdatedAt)
	return pr, err
}

const ticketColumns = `id, product_return_id, product_identity_id, order_detail_id, status, start_date,
	end_date, original_price, discounted_price, payment_method, payment_status, created_at, updated_at`

func scanTicket(r pgx.Row) (core.ReturnTicket, error) {
	var rt core.ReturnTicket
	err := r.Scan(&rt.ID, &rt.ProductReturnID, &rt.ProductIdentityID, &rt.OrderDetailID, &rt.Status, &rt.StartDate,
		&rt.EndDate, &rt.OriginalPrice, &rt.DiscountedPrice, &rt.PaymentMethod, &rt.PaymentStatus, &rt.CreatedAt, &rt.UpdatedAt)
	return rt, err
}

func (t *tx) InsertReturnRequest(ctx context.Context, r *core.ProductReturn) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO product_returns (id, user_id, product_identity_id, order_detail_id, reason, full_name,
			phone_number, address, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, r.ID, r.UserID, r.ProductIdentityID, r.OrderDetailID, r.Reason, r.FullName,
		r.PhoneNumber, r.Address, r.Status, r.CreatedAt, r.UpdatedAt)
	return mapErr(err, "return request", r.ProductIdentityID)
}

func (t *tx) GetReturnRequest(ctx context.Context, id string) (*core.ProductReturn, error) {
	pr, err := scanReturn(t.tx.QueryRow(ctx, "SELECT "+returnColumns+" FROM product_returns WHERE id = $1", id))
	if err != nil {
		return nil, mapErr(err, "return request", id)
	}
	return &pr, nil
}

func (t *tx) LockReturnRequest(ctx context.Context, id string) (*core.ProductReturn, error) {
	pr, err := scanReturn(t.tx.QueryRow(ctx, "SELECT "+returnColumns+" FROM product_returns WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, mapErr(err, "return request", id)
	}
	return &pr, nil
}

func (t *tx) UpdateReturnRequest(ctx context.Context, r *core.ProductReturn) error {
	return t.execOne(ctx, "return request", r.ID,
		"UPDATE product_returns SET status = $2, updated_at = $3 WHERE id = $1", r.ID, r.Status, r.UpdatedAt)
}

func (t *tx) ListReturnRequests(ctx context.Context, f core.ReturnFilter) ([]core.ProductReturn, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+returnColumns+`
		FROM product_returns
		WHERE ($1 = '' OR user_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id
	`, f.UserID, string(f.Status))
	if err != nil {
		return nil, mapErr(err, "return requests", "")
	}
	return collect(rows, scanReturn)
}

func (t *tx) HasActiveReturnRequest(ctx context.Context, unitID string) (bool, error) {
	var found bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM product_returns
			WHERE product_identity_id = $1 AND status IN ('Pending', 'Approved')
		)
	`, unitID).Scan(&found)
	return found, mapErr(err, "return requests for unit", unitID)
}

func (t *tx) InsertReturnTicket(ctx context.Context, rt *core.ReturnTicket) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO return_tickets (id, product_return_id, product_identity_id, order_detail_id, status, start_date,
			end_date, original_price, discounted_price, payment_method, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, rt.ID, rt.ProductReturnID, rt.ProductIdentityID, rt.OrderDetailID, rt.Status, rt.StartDate,
		rt.EndDate, rt.OriginalPrice, rt.DiscountedPrice, rt.PaymentMethod, rt.PaymentStatus, rt.CreatedAt, rt.UpdatedAt)
	return mapErr(err, "return ticket", rt.ProductIdentityID)
}

func (t *tx) LockReturnTicket(ctx context.Context, id string) (*core.ReturnTicket, error) {
	rt, err := scanTicket(t.tx.QueryRow(ctx, "SELECT "+ticketColumns+" FROM return_tickets WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, mapErr(err, "return ticket", id)
	}
	return &rt, nil
}

func (t *tx) UpdateReturnTicket(ctx context.Context, rt *core.ReturnTicket) error {
	return t.execOne(ctx, "return ticket", rt.ID,
		"UPDATE return_tickets SET status = $2, updated_at = $3 WHERE id = $1", rt.ID, rt.Status, rt.UpdatedAt)
}

func (t *tx) ListReturnTickets(ctx context.Context, f core.ReturnTicketFilter) ([]core.ReturnTicket, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+ticketColumns+`
		FROM return_tickets
		WHERE ($1 = '' OR product_return_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id
	`, f.ProductReturnID, string(f.Status))
	if err != nil {
		return nil, mapErr(err, "return tickets", "")
	}
	return collect(rows, scanTicket)
}

func (t *tx) HasOpenReturnTicket(ctx context.Context, unitID string) (bool, error) {
	var found bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM return_tickets
			WHERE product_identity_id = $1 AND status NOT IN ('Returned', 'Canceled')
		)
	`, unitID).Scan(&found)
	return found, mapErr(err, "return tickets for unit", unitID)
}
