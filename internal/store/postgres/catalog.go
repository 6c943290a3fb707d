package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"phone-store/internal/core"
)

func (t *tx) GetProduct(ctx context.Context, id string) (*core.Product, error) {
	var p core.Product
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, price, warranty_months, created_at
		FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.WarrantyMonths, &p.CreatedAt)
	if err != nil {
		return nil, mapErr(err, "product", id)
	}
	return &p, nil
}

func (t *tx) GetColor(ctx context.Context, id string) (*core.Color, error) {
	var c core.Color
	err := t.tx.QueryRow(ctx, "SELECT id, name FROM colors WHERE id = $1", id).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, mapErr(err, "color", id)
	}
	return &c, nil
}

func (t *tx) ListPromotionsForProduct(ctx context.Context, productID string) ([]core.Promotion, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT p.id, p.name, p.discount, p.start_date, p.end_date, p.is_active
		FROM product_promotions pp
		JOIN promotions p ON p.id = pp.promotion_id
		WHERE pp.product_id = $1
		ORDER BY pp.created_at, pp.seq
	`, productID)
	if err != nil {
		return nil, mapErr(err, "promotions for product", productID)
	}
	return collect(rows, func(r pgx.Row) (core.Promotion, error) {
		var p core.Promotion
		err := r.Scan(&p.ID, &p.Name, &p.Discount, &p.StartDate, &p.EndDate, &p.IsActive)
		return p, err
	})
}

func (t *tx) GetCart(ctx context.Context, id string) (*core.Cart, error) {
	var c core.Cart
	err := t.tx.QueryRow(ctx, "SELECT id, user_id FROM carts WHERE id = $1", id).Scan(&c.ID, &c.UserID)
	if err != nil {
		return nil, mapErr(err, "cart", id)
	}
	return &c, nil
}

func (t *tx) ListCartItems(ctx context.Context, cartID string, ids []string) ([]core.CartItem, error) {
	// A NULL id list means every item of the cart.
	rows, err := t.tx.Query(ctx, `
		SELECT id, cart_id, product_id, color_id, quantity, created_at
		FROM cart_items
		WHERE cart_id = $1 AND ($2::text[] IS NULL OR id = ANY($2))
		ORDER BY created_at, id
		FOR UPDATE
	`, cartID, ids)
	if err != nil {
		return nil, mapErr(err, "cart items for cart", cartID)
	}
	return collect(rows, func(r pgx.Row) (core.CartItem, error) {
		var it core.CartItem
		err := r.Scan(&it.ID, &it.CartID, &it.ProductID, &it.ColorID, &it.Quantity, &it.CreatedAt)
		return it, err
	})
}

func (t *tx) InsertCartItem(ctx context.Context, item *core.CartItem) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, color_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, item.ID, item.CartID, item.ProductID, item.ColorID, item.Quantity, item.CreatedAt)
	return mapErr(err, "cart item", item.ID)
}

func (t *tx) UpdateCartItem(ctx context.Context, item *core.CartItem) error {
	return t.execOne(ctx, "cart item", item.ID,
		"UPDATE cart_items SET quantity = $2 WHERE id = $1", item.ID, item.Quantity)
}

func (t *tx) DeleteCartItems(ctx context.Context, ids []string) error {
	_, err := t.tx.Exec(ctx, "DELETE FROM cart_items WHERE id = ANY($1)", ids)
	return mapErr(err, "cart items", "")
}
