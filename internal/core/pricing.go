package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ApplyPromotion returns price minus the discount of the first promotion active
// at asOf, floored at zero. With no active promotion the price is returned unchanged.
func ApplyPromotion(price decimal.Decimal, promos []Promotion, asOf time.Time) (decimal.Decimal, *Promotion) {
	for i := range promos {
		if !promos[i].ActiveAt(asOf) {
			continue
		}
		discounted := price.Sub(promos[i].Discount)
		if discounted.IsNegative() {
			discounted = decimal.Zero
		}
		return discounted, &promos[i]
	}
	return price, nil
}

// PricingEngine computes effective prices. Nothing is cached: promotions are
// time-bounded and mutable, so every read re-evaluates them.
type PricingEngine struct {
	store    Store
	settings Settings
}

func NewPricingEngine(store Store, settings Settings) *PricingEngine {
	return &PricingEngine{store: store, settings: settings.withDefaults()}
}

// EffectivePrice prices productID at asOf using the caller's transaction.
// A zero asOf means now.
func (e *PricingEngine) EffectivePrice(ctx context.Context, q CatalogRepo, catalogPrice decimal.Decimal, productID string, asOf time.Time) (decimal.Decimal, error) {
	quote, err := e.quote(ctx, q, catalogPrice, productID, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return quote.EffectivePrice, nil
}

func (e *PricingEngine) quote(ctx context.Context, q CatalogRepo, catalogPrice decimal.Decimal, productID string, asOf time.Time) (*PriceQuote, error) {
	if asOf.IsZero() {
		asOf = e.settings.Now()
	}
	promos, err := q.ListPromotionsForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	price, promo := ApplyPromotion(catalogPrice, promos, asOf)
	quote := &PriceQuote{
		ProductID:      productID,
		CatalogPrice:   catalogPrice,
		EffectivePrice: price,
		AsOf:           asOf,
	}
	if promo != nil {
		quote.PromotionID = promo.ID
	}
	return quote, nil
}

// Quote loads the product and prices it at asOf in its own unit of work.
func (e *PricingEngine) Quote(ctx context.Context, productID string, asOf time.Time) (*PriceQuote, error) {
	var quote *PriceQuote
	err := runInTx(ctx, e.store, e.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		product, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		quote, err = e.quote(ctx, tx, product.Price, product.ID, asOf)
		return err
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}
