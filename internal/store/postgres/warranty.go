package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"phone-store/internal/core"
)

const warrantyRequestColumns = `id, user_id, product_identity_id, description, full_name, phone_number,
	address, status, created_at, updated_at`

func scanWarrantyRequest(r pgx.Row) (core.WarrantyRequest, error) {
	var wr core.WarrantyRequest
	err := r.Scan(&wr.ID, &wr.UserID, &wr.ProductIdentityID, &wr.Description, &wr.FullName, &wr.PhoneNumber,
		&wr.Address, &wr.Status, &wr.CreatedAt, &wr.UpdatedAt)
	return wr, err
}

const warrantyColumns = `id, warranty_request_id, product_identity_id, status, start_date, end_date, created_at, updated_at`

func scanWarranty(r pgx.Row) (core.Warranty, error) {
	var w core.Warranty
	err := r.Scan(&w.ID, &w.WarrantyRequestID, &w.ProductIdentityID, &w.Status, &w.StartDate, &w.EndDate,
		&w.CreatedAt, &w.UpdatedAt)
	return w, err
}

func (t *tx) InsertWarrantyRequest(ctx context.Context, r *core.WarrantyRequest) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO warranty_requests (id, user_id, product_identity_id, description, full_name, phone_number,
			address, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.ID, r.UserID, r.ProductIdentityID, r.Description, r.FullName, r.PhoneNumber,
		r.Address, r.Status, r.CreatedAt, r.UpdatedAt)
	return mapErr(err, "warranty request", r.ProductIdentityID)
}

func (t *tx) GetWarrantyRequest(ctx context.Context, id string) (*core.WarrantyRequest, error) {
	wr, err := scanWarrantyRequest(t.tx.QueryRow(ctx, "SELECT "+warrantyRequestColumns+" FROM warranty_requests WHERE id = $1", id))
	if err != nil {
		return nil, mapErr(err, "warranty request", id)
	}
	return &wr, nil
}

func (t *tx) LockWarrantyRequest(ctx context.Context, id string) (*core.WarrantyRequest, error) {
	wr, err := scanWarrantyRequest(t.tx.QueryRow(ctx, "SELECT "+warrantyRequestColumns+" FROM warranty_requests WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, mapErr(err, "warranty request", id)
	}
	return &wr, nil
}

func (t *tx) UpdateWarrantyRequest(ctx context.Context, r *core.WarrantyRequest) error {
	return t.execOne(ctx, "warranty request", r.ID,
		"UPDATE warranty_requests SET status = $2, updated_at = $3 WHERE id = $1", r.ID, r.Status, r.UpdatedAt)
}

func (t *tx) ListWarrantyRequests(ctx context.Context, f core.WarrantyRequestFilter) ([]core.WarrantyRequest, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+warrantyRequestColumns+`
		FROM warranty_requests
		WHERE ($1 = '' OR user_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id
	`, f.UserID, string(f.Status))
	if err != nil {
		return nil, mapErr(err, "warranty requests", "")
	}
	return collect(rows, scanWarrantyRequest)
}

func (t *tx) HasActiveWarrantyRequest(ctx context.Context, unitID string) (bool, error) {
	var found bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM warranty_requests
			WHERE product_identity_id = $1 AND status IN ('Pending', 'Approved')
		)
	`, unitID).Scan(&found)
	return found, mapErr(err, "warranty requests for unit", unitID)
}

func (t *tx) InsertWarranty(ctx context.Context, w *core.Warranty) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO warranties (id, warranty_request_id, product_identity_id, status, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, w.ID, w.WarrantyRequestID, w.ProductIdentityID, w.Status, w.StartDate, w.EndDate, w.CreatedAt, w.UpdatedAt)
	return mapErr(err, "warranty", w.ProductIdentityID)
}

func (t *tx) LockWarranty(ctx context.Context, id string) (*core.Warranty, error) {
	w, err := scanWarranty(t.tx.QueryRow(ctx, "SELECT "+warrantyColumns+" FROM warranties WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, mapErr(err, "warranty", id)
	}
	return &w, nil
}

func (t *tx) UpdateWarranty(ctx context.Context, w *core.Warranty) error {
	return t.execOne(ctx, "warranty", w.ID,
		"UPDATE warranties SET status = $2, updated_at = $3 WHERE id = $1", w.ID, w.Status, w.UpdatedAt)
}

func (t *tx) ListWarranties(ctx context.Context, f core.WarrantyFilter) ([]core.Warranty, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+warrantyColumns+`
		FROM warranties
		WHERE ($1 = '' OR warranty_request_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id
	`, f.WarrantyRequestID, string(f.Status))
	if err != nil {
		return nil, mapErr(err, "warranties", "")
	}
	return collect(rows, scanWarranty)
}

func (t *tx) HasOpenWarranty(ctx context.Context, unitID string) (bool, error) {
	var found bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM warranties
			WHERE product_identity_id = $1 AND status NOT IN ('Returned', 'Canceled')
		)
	`, unitID).Scan(&found)
	return found, mapErr(err, "warranties for unit", unitID)
}
