package core

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartService is the minimal cart surface checkout depends on: reading a cart
// at current prices and adding items to it.
type CartService interface {
	GetCart(ctx context.Context, actor Actor, cartID string) (*CartView, error)
	AddCartItem(ctx context.Context, actor Actor, cartID, productID, colorID string, quantity int) (*CartItem, error)
}

type cartService struct {
	store    Store
	pricing  *PricingEngine
	settings Settings
	logger   *zap.Logger
}

func NewCartService(store Store, pricing *PricingEngine, settings Settings, logger *zap.Logger) CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cartService{store: store, pricing: pricing, settings: settings.withDefaults(), logger: logger}
}

func (s *cartService) GetCart(ctx context.Context, actor Actor, cartID string) (*CartView, error) {
	var view *CartView
	err := runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		cart, err := ownedCartTx(ctx, tx, actor, cartID)
		if err != nil {
			return err
		}
		items, err := tx.ListCartItems(ctx, cart.ID, nil)
		if err != nil {
			return err
		}

		view = &CartView{Cart: *cart, Total: decimal.Zero}
		now := s.settings.Now()
		for _, item := range items {
			product, err := tx.GetProduct(ctx, item.ProductID)
			if err != nil {
				return err
			}
			price, err := s.pricing.EffectivePrice(ctx, tx, product.Price, product.ID, now)
			if err != nil {
				return err
			}
			line := CartLine{
				CartItem:       item,
				ProductName:    product.Name,
				CatalogPrice:   product.Price,
				EffectivePrice: price,
				LineTotal:      price.Mul(decimal.NewFromInt(int64(item.Quantity))),
			}
			view.Lines = append(view.Lines, line)
			view.Total = view.Total.Add(line.LineTotal)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// AddCartItem adds quantity to the cart's line for (product, color), creating it if needed.
func (s *cartService) AddCartItem(ctx context.Context, actor Actor, cartID, productID, colorID string, quantity int) (*CartItem, error) {
	if quantity <= 0 {
		return nil, invalidf("quantity must be positive, got %d", quantity)
	}

	var item *CartItem
	err := runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		cart, err := ownedCartTx(ctx, tx, actor, cartID)
		if err != nil {
			return err
		}
		if _, err := tx.GetProduct(ctx, productID); err != nil {
			return err
		}
		if _, err := tx.GetColor(ctx, colorID); err != nil {
			return err
		}

		items, err := tx.ListCartItems(ctx, cart.ID, nil)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].ProductID == productID && items[i].ColorID == colorID {
				item = &items[i]
				item.Quantity += quantity
				return tx.UpdateCartItem(ctx, item)
			}
		}
		item = &CartItem{
			ID:        uuid.NewString(),
			CartID:    cart.ID,
			ProductID: productID,
			ColorID:   colorID,
			Quantity:  quantity,
			CreatedAt: s.settings.Now(),
		}
		return tx.InsertCartItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func ownedCartTx(ctx context.Context, tx Tx, actor Actor, cartID string) (*Cart, error) {
	cart, err := tx.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.UserID != actor.UserID {
		return nil, notFoundf("cart %s not found", cartID)
	}
	return cart, nil
}
