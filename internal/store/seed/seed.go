// Package seed loads catalog reference data (products, colors, promotions and
// carts) that the engine reads but never writes. It is used for local setups
// and by the store integration tests.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"phone-store/internal/core"
	"phone-store/internal/store/memory"
)

// PromotionLink is a promotion and the products it applies to, in link order.
type PromotionLink struct {
	Promotion  core.Promotion
	ProductIDs []string
}

type Catalog struct {
	Products   []core.Product
	Colors     []core.Color
	Promotions []PromotionLink
	Carts      []core.Cart
}

// Demo returns a small catalog with one promotion running around now.
func Demo(now time.Time) Catalog {
	now = now.UTC()
	return Catalog{
		Products: []core.Product{
			{ID: "iphone-15", Name: "iPhone 15", Price: decimal.RequireFromString("999.00"), WarrantyMonths: 12, CreatedAt: now},
			{ID: "galaxy-s24", Name: "Galaxy S24", Price: decimal.RequireFromString("899.00"), WarrantyMonths: 24, CreatedAt: now},
			{ID: "pixel-8", Name: "Pixel 8", Price: decimal.RequireFromString("699.00"), CreatedAt: now},
		},
		Colors: []core.Color{
			{ID: "black", Name: "Black"},
			{ID: "white", Name: "White"},
			{ID: "blue", Name: "Blue"},
		},
		Promotions: []PromotionLink{{
			Promotion: core.Promotion{
				ID:        "launch-week",
				Name:      "Launch week",
				Discount:  decimal.RequireFromString("50.00"),
				StartDate: now.AddDate(0, 0, -7),
				EndDate:   now.AddDate(0, 1, 0),
				IsActive:  true,
			},
			ProductIDs: []string{"pixel-8"},
		}},
		Carts: []core.Cart{
			{ID: "cart-demo-customer", UserID: "demo-customer"},
		},
	}
}

// LoadMemory writes c into an in-process store.
func (c Catalog) LoadMemory(s *memory.Store) {
	for _, p := range c.Products {
		s.AddProduct(p)
	}
	for _, col := range c.Colors {
		s.AddColor(col)
	}
	for _, l := range c.Promotions {
		s.AddPromotion(l.Promotion, l.ProductIDs...)
	}
	for _, cart := range c.Carts {
		s.AddCart(cart)
	}
}

// LoadPostgres upserts c in one transaction. Running it twice is harmless.
func (c Catalog) LoadPostgres(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range c.Products {
		_, err := tx.Exec(ctx, `
			INSERT INTO products (id, name, price, warranty_months, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, price = EXCLUDED.price, warranty_months = EXCLUDED.warranty_months
		`, p.ID, p.Name, p.Price, p.WarrantyMonths, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
	}
	for _, col := range c.Colors {
		_, err := tx.Exec(ctx, `
			INSERT INTO colors (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
		`, col.ID, col.Name)
		if err != nil {
			return fmt.Errorf("failed to seed color %s: %w", col.ID, err)
		}
	}
	for _, l := range c.Promotions {
		p := l.Promotion
		_, err := tx.Exec(ctx, `
			INSERT INTO promotions (id, name, discount, start_date, end_date, is_active)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, discount = EXCLUDED.discount, start_date = EXCLUDED.start_date,
			    end_date = EXCLUDED.end_date, is_active = EXCLUDED.is_active
		`, p.ID, p.Name, p.Discount, p.StartDate, p.EndDate, p.IsActive)
		if err != nil {
			return fmt.Errorf("failed to seed promotion %s: %w", p.ID, err)
		}
		for _, productID := range l.ProductIDs {
			_, err := tx.Exec(ctx, `
				INSERT INTO product_promotions (product_id, promotion_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, productID, p.ID)
			if err != nil {
				return fmt.Errorf("failed to link promotion %s to %s: %w", p.ID, productID, err)
			}
		}
	}
	for _, cart := range c.Carts {
		_, err := tx.Exec(ctx, `
			INSERT INTO carts (id, user_id) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET user_id = EXCLUDED.user_id
		`, cart.ID, cart.UserID)
		if err != nil {
			return fmt.Errorf("failed to seed cart %s: %w", cart.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	return nil
}
