package core

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService allocates units at checkout and governs the order lifecycle.
type OrderService interface {
	// CreateOrder turns the selected cart items into an order in one unit of work:
	// units are locked and marked sold, details are written at the effective
	// price and the consumed cart items are deleted.
	CreateOrder(ctx context.Context, actor Actor, in CreateOrderInput) (*Order, error)
	// UpdateOrderStatus applies a status change. Only a Pending order that was never
	// delivered can be canceled, by its owner or by staff; staff may otherwise move
	// between any live statuses. Canceling releases every unit.
	UpdateOrderStatus(ctx context.Context, actor Actor, orderID string, status string) (*Order, error)
	// RecordPaymentOutcome applies the gateway callback. A failed payment cancels
	// the order only while it is still Pending; otherwise it is just recorded.
	RecordPaymentOutcome(ctx context.Context, orderID string, success bool) (*Order, error)

	GetOrder(ctx context.Context, actor Actor, orderID string) (*Order, error)
	ListOrders(ctx context.Context, actor Actor, f OrderFilter) ([]Order, error)
}

type orderService struct {
	store    Store
	pricing  *PricingEngine
	units    *UnitLedger
	settings Settings
	logger   *zap.Logger
}

func NewOrderService(store Store, pricing *PricingEngine, units *UnitLedger, settings Settings, logger *zap.Logger) OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &orderService{
		store:    store,
		pricing:  pricing,
		units:    units,
		settings: settings.withDefaults(),
		logger:   logger,
	}
}

// allocation is the demand for one (product, color) pair across the selected cart items.
type allocation struct {
	product  *Product
	color    *Color
	quantity int
	units    []ProductIdentity
	price    decimal.Decimal
}

func (s *orderService) CreateOrder(ctx context.Context, actor Actor, in CreateOrderInput) (*Order, error) {
	method, err := ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Address) == "" {
		return nil, invalidf("address is required")
	}
	itemIDs := uniqueIDs(in.CartItemIDs)
	if len(itemIDs) == 0 {
		return nil, invalidf("no cart items selected")
	}

	var order *Order
	err = runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		cart, err := ownedCartTx(ctx, tx, actor, in.CartID)
		if err != nil {
			return err
		}

		items, err := tx.ListCartItems(ctx, cart.ID, itemIDs)
		if err != nil {
			return err
		}
		if len(items) != len(itemIDs) {
			return invalidf("cart items not found in cart %s: %s", cart.ID, strings.Join(missingIDs(itemIDs, items), ", "))
		}

		// Validation: lock and price everything before the first write.
		allocs, err := s.allocate(ctx, tx, items)
		if err != nil {
			return err
		}

		now := s.settings.Now()
		order = &Order{
			ID:            uuid.NewString(),
			UserID:        actor.UserID,
			TotalAmount:   decimal.Zero,
			PaymentMethod: method,
			Address:       strings.TrimSpace(in.Address),
			Note:          in.Note,
			PhoneNumber:   in.PhoneNumber,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		switch method {
		case PaymentOnline:
			order.Status, order.PaymentStatus = OrderShipping, PaymentCompleted
		case PaymentCOD:
			order.Status, order.PaymentStatus = OrderPending, PaymentPending
		}
		for _, a := range allocs {
			for _, u := range a.units {
				order.Details = append(order.Details, OrderDetail{
					ID:                uuid.NewString(),
					OrderID:           order.ID,
					ProductID:         a.product.ID,
					ColorID:           a.color.ID,
					ProductIdentityID: u.ID,
					Price:             a.price,
				})
				order.TotalAmount = order.TotalAmount.Add(a.price)
			}
		}

		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		for i := range order.Details {
			if err := tx.InsertOrderDetail(ctx, &order.Details[i]); err != nil {
				return err
			}
		}
		for _, a := range allocs {
			if err := s.units.MarkSoldTx(ctx, tx, a.units); err != nil {
				return err
			}
		}
		return tx.DeleteCartItems(ctx, itemIDs)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.Int("units", len(order.Details)),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.String("payment_method", string(order.PaymentMethod)),
	)
	return order, nil
}

// allocate groups cart items by (product, color) in first-seen order, prices each
// group once and locks the units it needs.
func (s *orderService) allocate(ctx context.Context, tx Tx, items []CartItem) ([]*allocation, error) {
	var allocs []*allocation
	byKey := map[[2]string]*allocation{}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, invalidf("cart item %s has invalid quantity %d", item.ID, item.Quantity)
		}
		key := [2]string{item.ProductID, item.ColorID}
		if a, ok := byKey[key]; ok {
			a.quantity += item.Quantity
			continue
		}
		product, err := tx.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		color, err := tx.GetColor(ctx, item.ColorID)
		if err != nil {
			return nil, err
		}
		a := &allocation{product: product, color: color, quantity: item.Quantity}
		byKey[key] = a
		allocs = append(allocs, a)
	}

	now := s.settings.Now()
	for _, a := range allocs {
		units, err := s.units.LockForSaleTx(ctx, tx, a.product, a.color, a.quantity)
		if err != nil {
			return nil, err
		}
		price, err := s.pricing.EffectivePrice(ctx, tx, a.product.Price, a.product.ID, now)
		if err != nil {
			return nil, err
		}
		a.units, a.price = units, price
	}
	return allocs, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, actor Actor, orderID string, status string) (*Order, error) {
	to, err := OrderMachine.Parse(status)
	if err != nil {
		return nil, err
	}

	var order *Order
	var from OrderStatus
	err = runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		order, err = tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		from = order.Status

		if actor.IsStaff() {
			if err := OrderMachine.Check(from, to); err != nil {
				return err
			}
		} else {
			if order.UserID != actor.UserID {
				return notFoundf("order %s not found", orderID)
			}
			if to != OrderCanceled {
				return invalidf("customers may only cancel their orders, not set them to %s", to)
			}
			if !OrderOwnerMachine.CanTransition(from, to) {
				return invalidf("order %s cannot be canceled: status is %s (must be %s)", orderID, from, OrderPending)
			}
		}
		return s.applyStatusTx(ctx, tx, order, to)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.String("order_id", order.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", actor.UserID),
	)
	return order, nil
}

// applyStatusTx writes the new status together with its unit side effects.
func (s *orderService) applyStatusTx(ctx context.Context, tx Tx, order *Order, to OrderStatus) error {
	details, err := tx.ListOrderDetails(ctx, order.ID)
	if err != nil {
		return err
	}
	now := s.settings.Now()

	switch to {
	case OrderCanceled:
		if order.DeliveredAt != nil {
			return invalidf("order %s cannot be canceled: it was delivered on %s",
				order.ID, order.DeliveredAt.Format("2006-01-02"))
		}
		var held []string
		for i := range details {
			d := &details[i]
			if !d.Holds() {
				continue
			}
			if err := s.units.CheckNoActiveWorkflowTx(ctx, tx, d.ProductIdentityID); err != nil {
				return invalidf("order %s cannot be canceled: %v", order.ID, err)
			}
			d.Released = true
			if err := tx.UpdateOrderDetail(ctx, d); err != nil {
				return err
			}
			held = append(held, d.ProductIdentityID)
		}
		if err := s.units.ReleaseUnitsTx(ctx, tx, held); err != nil {
			return err
		}
	case OrderDelivered:
		// Re-entering Delivered keeps the first delivery date and warranty windows.
		if order.DeliveredAt != nil {
			break
		}
		order.DeliveredAt = &now
		for _, d := range details {
			if !d.Holds() {
				continue
			}
			product, err := tx.GetProduct(ctx, d.ProductID)
			if err != nil {
				return err
			}
			if err := s.units.StartWarrantyTx(ctx, tx, d.ProductIdentityID, now, product.WarrantyMonths); err != nil {
				return err
			}
		}
	}

	order.Status = to
	order.UpdatedAt = now
	if err := tx.UpdateOrder(ctx, order); err != nil {
		return err
	}
	order.Details = details
	return nil
}

func (s *orderService) RecordPaymentOutcome(ctx context.Context, orderID string, success bool) (*Order, error) {
	var order *Order
	err := runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		var err error
		order, err = tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.PaymentStatus == PaymentCompleted {
			if !success {
				return invalidf("order %s is already paid", orderID)
			}
			order.Details, err = tx.ListOrderDetails(ctx, order.ID)
			return err
		}
		if success {
			order.PaymentStatus = PaymentCompleted
			order.UpdatedAt = s.settings.Now()
			if err := tx.UpdateOrder(ctx, order); err != nil {
				return err
			}
			order.Details, err = tx.ListOrderDetails(ctx, order.ID)
			return err
		}

		order.PaymentStatus = PaymentFailed
		if order.Status != OrderPending || order.DeliveredAt != nil {
			order.UpdatedAt = s.settings.Now()
			if err := tx.UpdateOrder(ctx, order); err != nil {
				return err
			}
			order.Details, err = tx.ListOrderDetails(ctx, order.ID)
			return err
		}
		return s.applyStatusTx(ctx, tx, order, OrderCanceled)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment outcome recorded",
		zap.String("order_id", order.ID),
		zap.Bool("success", success),
		zap.String("status", string(order.Status)),
	)
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, actor Actor, orderID string) (*Order, error) {
	var order *Order
	err := runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		var err error
		order, err = tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !actor.IsStaff() && order.UserID != actor.UserID {
			return notFoundf("order %s not found", orderID)
		}
		order.Details, err = tx.ListOrderDetails(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, actor Actor, f OrderFilter) ([]Order, error) {
	if !actor.IsStaff() {
		f.UserID = actor.UserID
	}
	var orders []Order
	err := runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		var err error
		orders, err = tx.ListOrders(ctx, f)
		return err
	})
	return orders, err
}

// uniqueIDs drops blanks and duplicates while keeping order.
func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func missingIDs(want []string, items []CartItem) []string {
	var missing []string
	for _, id := range want {
		if !slices.ContainsFunc(items, func(it CartItem) bool { return it.ID == id }) {
			missing = append(missing, id)
		}
	}
	return missing
}
