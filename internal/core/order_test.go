package core_test

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phone-store/internal/core"
)

func TestOrderService_CreateOrderCOD(t *testing.T) {
	f := newFixture(t)
	stocked := f.stock(t, iphone, black, 2)

	order, err := f.checkout(t, alice, aliceCart, "cod", cartLine{iphone, black, 2})
	require.NoError(t, err)

	assert.Equal(t, core.OrderPending, order.Status)
	assert.Equal(t, core.PaymentPending, order.PaymentStatus)
	assert.Equal(t, core.PaymentCOD, order.PaymentMethod)
	assert.Equal(t, alice.UserID, order.UserID)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(2000)), "total = %s", order.TotalAmount)
	require.Len(t, order.Details, 2)

	sold := map[string]bool{}
	for _, d := range order.Details {
		assert.Equal(t, iphone, d.ProductID)
		assert.Equal(t, black, d.ColorID)
		assert.True(t, d.Price.Equal(decimal.NewFromInt(1000)))
		assert.True(t, d.Holds())
		sold[d.ProductIdentityID] = true
	}
	for _, u := range stocked {
		assert.True(t, sold[u.ID], "unit %s not allocated", u.ID)
		assert.True(t, f.unit(t, u.ID).IsSold)
	}

	view, err := f.carts.GetCart(f.ctx, alice, aliceCart)
	require.NoError(t, err)
	assert.Empty(t, view.Lines, "ordered cart items must be removed")
}

func TestOrderService_CreateOrderOnlineStartsShippingAndPaid(t *testing.T) {
	f := newFixture(t)
	f.stock(t, iphone, black, 1)

	order, err := f.checkout(t, alice, aliceCart, "Online", cartLine{iphone, black, 1})
	require.NoError(t, err)
	assert.Equal(t, core.OrderShipping, order.Status)
	assert.Equal(t, core.PaymentCompleted, order.PaymentStatus)
}

func TestOrderService_AllocatesOldestUnitFirst(t *testing.T) {
	f := newFixture(t)
	oldest := f.stock(t, iphone, black, 1)[0]
	f.clock.Advance(time.Hour)
	f.stock(t, iphone, black, 1)

	order, err := f.checkout(t, alice, aliceCart, "COD", cartLine{iphone, black, 1})
	require.NoError(t, err)
	require.Len(t, order.Details, 1)
	assert.Equal(t, oldest.ID, order.Details[0].ProductIdentityID)
}

func TestOrderService_PriceIsSnapshotAtCreation(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()
	launch := promo("launch", 50, now.AddDate(0, 0, -1), now.AddDate(0, 0, 10), true)
	f.store.AddPromotion(launch, iphone)
	f.stock(t, iphone, black, 1)

	order, err := f.checkout(t, alice, aliceCart, "COD", cartLine{iphone, black, 1})
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(950)))

	launch.IsActive = false
	f.store.AddPromotion(launch)

	got, err := f.orders.GetOrder(f.ctx, alice, order.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(950)))
	require.Len(t, got.Details, 1)
	assert.True(t, got.Details[0].Price.Equal(decimal.NewFromInt(950)))
}

func TestOrderService_InsufficientStockWritesNothing(t *testing.T) {
	f := newFixture(t)
	unit := f.stock(t, iphone, black, 1)[0]

	_, err := f.checkout(t, alice, aliceCart, "COD",
		cartLine{iphone, black, 1},
		cartLine{budget, black, 1},
	)
	requireKind(t, err, core.KindInvalid)
	assert.Contains(t, err.Error(), "insufficient stock")

	assert.False(t, f.unit(t, unit.ID).IsSold)
	view, err := f.carts.GetCart(f.ctx, alice, aliceCart)
	require.NoError(t, err)
	assert.Len(t, view.Lines, 2)

	orders, err := f.orders.ListOrders(f.ctx, alice, core.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderService_GroupsItemsOfTheSameProductAndColor(t *testing.T) {
	f := newFixture(t)
	f.stock(t, iphone, black, 1)
	now := f.clock.Now()
	f.store.AddCartItem(core.CartItem{ID: "item-1", CartID: aliceCart, ProductID: iphone, ColorID: black, Quantity: 1, CreatedAt: now})
	f.store.AddCartItem(core.CartItem{ID: "item-2", CartID: aliceCart, ProductID: iphone, ColorID: black, Quantity: 1, CreatedAt: now})

	_, err := f.orders.CreateOrder(f.ctx, alice, core.CreateOrderInput{
		CartID:        aliceCart,
		CartItemIDs:   []string{"item-1", "item-2"},
		Address:       "12 Market Street",
		PaymentMethod: "COD",
	})
	requireKind(t, err, core.KindInvalid)
	assert.Contains(t, err.Error(), "requested 2, available 1")
}

func TestOrderService_CreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	f.stock(t, iphone, black, 1)
	item, err := f.carts.AddCartItem(f.ctx, alice, aliceCart, iphone, black, 1)
	require.NoError(t, err)

	valid := core.CreateOrderInput{
		CartID:        aliceCart,
		CartItemIDs:   []string{item.ID},
		Address:       "12 Market Street",
		PaymentMethod: "COD",
	}
	tests := []struct {
		name   string
		actor  core.Actor
		mutate func(in *core.CreateOrderInput)
		kind   core.Kind
	}{
		{"unknown payment method", alice, func(in *core.CreateOrderInput) { in.PaymentMethod = "card" }, core.KindInvalid},
		{"blank address", alice, func(in *core.CreateOrderInput) { in.Address = "  " }, core.KindInvalid},
		{"no items", alice, func(in *core.CreateOrderInput) { in.CartItemIDs = nil }, core.KindInvalid},
		{"item outside cart", alice, func(in *core.CreateOrderInput) { in.CartItemIDs = []string{item.ID, "nope"} }, core.KindInvalid},
		{"unknown cart", alice, func(in *core.CreateOrderInput) { in.CartID = "cart-missing" }, core.KindNotFound},
		{"someone else's cart", bob, func(in *core.CreateOrderInput) {}, core.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			in.CartItemIDs = append([]string(nil), valid.CartItemIDs...)
			tt.mutate(&in)
			_, err := f.orders.CreateOrder(f.ctx, tt.actor, in)
			requireKind(t, err, tt.kind)
		})
	}

	order, err := f.orders.CreateOrder(f.ctx, alice, valid)
	require.NoError(t, err)
	assert.Len(t, order.Details, 1)
}

func TestOrderService_OwnerCancelReleasesUnitsForResale(t *testing.T) {
	f := newFixture(t)
	unit := f.stock(t, iphone, black, 1)[0]

	order, err := f.checkout(t, alice, aliceCart, "COD", cartLine{iphone, black, 1})
	require.NoError(t, err)

	canceled, err := f.orders.UpdateOrderStatus(f.ctx, alice, order.ID, "Canceled")
	require.NoError(t, err)
	assert.Equal(t, core.OrderCanceled, canceled.Status)
	require.Len(t, canceled.Details, 1)
	assert.True(t, canceled.Details[0].Released)
	assert.False(t, f.unit(t, unit.ID).IsSold)

	resold, err := f.checkout(t, bob, bobCart, "COD", cartLine{iphone, black, 1})
	require.NoError(t, err)
	assert.Equal(t, unit.ID, resold.Details[0].ProductIdentityID)
}

func TestOrderService_OwnerRestrictions(t *testing.T) {
	f := newFixture(t)
	f.stock(t, iphone, black, 2)

	online, err := f.checkout(t, alice, aliceCart, "Online", cartLine{iphone, black, 1})
	require.NoError(t, err)
	_, err = f.orders.UpdateOrderStatus(f.ctx, alice, online.ID, "Canceled")
	requireKind(t, err, core.KindInvalid)
	assert.Contains(t, err.Error(), "must be Pending")

	cod, err := f.checkout(t, alice, aliceCart, "COD", cartLine{iphone, black, 1})
	require.NoError(t, err)
	_, err = f.orders.UpdateOrderStatus(f.ctx, alice, cod.ID, "Delivered")
	requireKind(t, err, core.KindInvalid)

	_, err = f.orders.UpdateOrderStatus(f.ctx, bob, cod.ID, "Canceled")
	requireKind(t, err, core.KindNotFound)

	_, err = f.orders.UpdateOrderStatus(f.ctx, alice, cod.ID, "Lost")
	requireKind(t, err, core.KindInvalid)
}

func TestOrderService_DeliveredStartsWarrantyWindow(t *testing.T) {
	f := newFixture(t)
	f.stock(t, iphone, black, 1)
	f.stock(t, budget, white, 1)

	order, err := f.checkout(t, alice, aliceCart, "COD", cartLine{iphone, black, 1}, cartLine{budget, white, 1})
	require.NoError(t, err)

	f.clock.Advance(48 * time.Hour)
	now := f.clock.Now()
	delivered, err := f.orders.UpdateOrderStatus(f.ctx, staff, order.ID, "delivered")
	require.NoError(t, err)
	assert.Equal(t, core.OrderDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)
	assert.Equal(t, now, *delivered.DeliveredAt)

	for _, d := range delivered.Details {
		u := f.unit(t, d.ProductIdentityID)
		require.True(t, u.HasWarrantyWindow())
		assert.Equal(t, now, *u.WarrantyStartDate)
		switch d.ProductID {
		case iphone:
			assert.Equal(t, now.AddDate(0, 12, 0), *u.WarrantyEndDate)
		case budget:
			// No warranty length on the product: the configured default applies.
			assert.Equal(t, now.AddDate(0, 6, 0), *u.WarrantyEndDate)
		}
	}
}

func TestOrderService_StaffTransitions(t *testing.T) {
	f := newFixture(t)
	unit := f.stock(t, iphone, black, 1)[0]

	order, err := f.checkout(t, alice, aliceCart, "COD", cartLine{iphone, black, 1})
	require.NoError(t, err)

	for _, status := range []string{"Confirmed", "Shipping", "Pending", "Delivered", "Shipping"} {
		order, err = f.orders.UpdateOrderStatus(f.ctx, admin, order.ID, status)
		require.NoError(t, err, status)
	}

	_, err = f.orders.UpdateOrderStatus(f.ctx, staff, order.ID, "Shipping")
	requireKind(t, err, core.KindInvalid)

	_, err = f.orders.UpdateOrderStatus(f.ctx, staff, order.ID, "Canceled")
	requireKind(t, err, core.KindInvalid)
	assert.Contains(t, err.Error(), "cannot transition from Shipping to Canceled")
	assert.True(t, f.unit(t, unit.ID).IsSold)

	_, err = f.orders.UpdateOrderStatus(f.ctx, staff, "no-such-order", "Pending")
	requireKind(t, err, core.KindNotFound)
}

func TestOrderService_StaffCancelsPendingOrder(t *testing.T) {
	f := newFixture(t)
	unit := f.stock(t, iphone, black, 1)[0]
	order, err := f.checkout(t, alice, aliceCart, "COD", cartLine{iphone, black, 1})
	require.NoError(t, err)

	order, err = f.orders.UpdateOrderStatus(f.ctx, staff, order.ID, "Confirmed")
	require.NoError(t, err)
	_, err = f.orders.UpdateOrderStatus(f.ctx, staff, order.ID, "Canceled")
	requireKind(t, err, core.KindInvalid)

	order, err = f.orders.UpdateOrderStatus(f.ctx, staff, order.ID, "Pending")
	require.NoError(t, err)
	order, err = f.orders.UpdateOrderStatus(f.ctx, staff, order.ID, "Canceled")
	require.NoError(t, err)
	assert.Equal(t, core.OrderCanceled, order.Status)
	assert.False(t, f.unit(t, unit.ID).IsSold)

	_, err = f.orders.UpdateOrderStatus(f.ctx, staff, order.ID, "Pending")
	requireKind(t, err, core.KindInvalid)
}

func TestOrderService_DeliveredOrderKeepsItsUnits(t *testing.T) {
	f := newFixture(t)
	order, unitID := f.deliveredUnit(t)
	before := f.unit(t, unitID)

	_, err := f.orders.UpdateOrderStatus(f.ctx, staff, order.ID, "Canceled")
	requireKind(t, err, core.KindInvalid)

	// Moving back to Pending does not reopen cancellation.
	_, err = f.orders.UpdateOrderStatus(f.ctx, staff, order.ID, "Pending")
	require.NoError(t, err)
	_, err = f.orders.UpdateOrderStatus(f.ctx, staff, order.ID, "Canceled")
	requireKind(t, err, core.KindInvalid)
	assert.Contains(t, err.Error(), "was delivered on")
	_, err = f.orders.UpdateOrderStatus(f.ctx, alice, order.ID, "Canceled")
	requireKind(t, err, core.KindInvalid)

	after := f.unit(t, unitID)
	assert.True(t, after.IsSold)
	assert.Equal(t, *before.WarrantyEndDate, *after.WarrantyEndDate)

	f.store.AddCart(core.Cart{ID: "cart-carol", UserID: "carol"})
	_, err = f.checkout(t, core.Actor{UserID: "carol", Role: core.RoleCustomer}, "cart-carol", "COD", cartLine{iphone, black, 1})
	requireKind(t, err, core.KindInvalid)
	assert.Contains(t, err.Error(), "insufficient stock")
}

func TestOrderService_RedeliveryKeepsFirstDeliveryDate(t *testing.T) {
	f := newFixture(t)
	order, unitID := f.deliveredUnit(t)
	first := *order.DeliveredAt
	window := *f.unit(t, unitID).WarrantyEndDate

	f.clock.Advance(5 * 24 * time.Hour)
	_, err := f.orders.UpdateOrderStatus(f.ctx, staff, order.ID, "Shipping")
	require.NoError(t, err)
	again, err := f.orders.UpdateOrderStatus(f.ctx, staff, order.ID, "Delivered")
	require.NoError(t, err)

	require.NotNil(t, again.DeliveredAt)
	assert.Equal(t, first, *again.DeliveredAt)
	assert.Equal(t, window, *f.unit(t, unitID).WarrantyEndDate)

	// The return window still runs from the first delivery.
	f.clock.Advance(3 * 24 * time.Hour)
	_, err = f.returns.CreateReturnRequest(f.ctx, alice, returnInput(unitID))
	requireKind(t, err, core.KindInvalid)
	assert.Contains(t, err.Error(), "return window")
}

func TestOrderService_RecordPaymentOutcome(t *testing.T) {
	t.Run("success marks a pending payment completed", func(t *testing.T) {
		f := newFixture(t)
		f.stock(t, iphone, black, 1)
		order, err := f.checkout(t, alice, aliceCart, "COD", cartLine{iphone, black, 1})
		require.NoError(t, err)

		paid, err := f.orders.RecordPaymentOutcome(f.ctx, order.ID, true)
		require.NoError(t, err)
		assert.Equal(t, core.PaymentCompleted, paid.PaymentStatus)
		assert.Equal(t, core.OrderPending, paid.Status)

		again, err := f.orders.RecordPaymentOutcome(f.ctx, order.ID, true)
		require.NoError(t, err)
		assert.Equal(t, core.PaymentCompleted, again.PaymentStatus)

		_, err = f.orders.RecordPaymentOutcome(f.ctx, order.ID, false)
		requireKind(t, err, core.KindInvalid)
	})

	t.Run("failure cancels an open order and releases its units", func(t *testing.T) {
		f := newFixture(t)
		unit := f.stock(t, iphone, black, 1)[0]
		order, err := f.checkout(t, alice, aliceCart, "COD", cartLine{iphone, black, 1})
		require.NoError(t, err)

		failed, err := f.orders.RecordPaymentOutcome(f.ctx, order.ID, false)
		require.NoError(t, err)
		assert.Equal(t, core.PaymentFailed, failed.PaymentStatus)
		assert.Equal(t, core.OrderCanceled, failed.Status)
		assert.False(t, f.unit(t, unit.ID).IsSold)
	})

	t.Run("failure on a shipping order is only recorded", func(t *testing.T) {
		f := newFixture(t)
		unit := f.stock(t, iphone, black, 1)[0]
		order, err := f.checkout(t, alice, aliceCart, "COD", cartLine{iphone, black, 1})
		require.NoError(t, err)
		_, err = f.orders.UpdateOrderStatus(f.ctx, staff, order.ID, "Shipping")
		require.NoError(t, err)

		failed, err := f.orders.RecordPaymentOutcome(f.ctx, order.ID, false)
		require.NoError(t, err)
		assert.Equal(t, core.PaymentFailed, failed.PaymentStatus)
		assert.Equal(t, core.OrderShipping, failed.Status)
		assert.True(t, f.unit(t, unit.ID).IsSold)
	})

	t.Run("failure leaves a delivered order delivered", func(t *testing.T) {
		f := newFixture(t)
		order, unitID := f.deliveredUnit(t)

		failed, err := f.orders.RecordPaymentOutcome(f.ctx, order.ID, false)
		require.NoError(t, err)
		assert.Equal(t, core.PaymentFailed, failed.PaymentStatus)
		assert.Equal(t, core.OrderDelivered, failed.Status)
		assert.True(t, f.unit(t, unitID).IsSold)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.orders.RecordPaymentOutcome(f.ctx, "no-such-order", true)
		requireKind(t, err, core.KindNotFound)
	})
}

func TestOrderService_Visibility(t *testing.T) {
	f := newFixture(t)
	f.stock(t, iphone, black, 2)

	aliceOrder, err := f.checkout(t, alice, aliceCart, "COD", cartLine{iphone, black, 1})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	bobOrder, err := f.checkout(t, bob, bobCart, "Online", cartLine{iphone, black, 1})
	require.NoError(t, err)

	_, err = f.orders.GetOrder(f.ctx, bob, aliceOrder.ID)
	requireKind(t, err, core.KindNotFound)

	got, err := f.orders.GetOrder(f.ctx, staff, aliceOrder.ID)
	require.NoError(t, err)
	assert.Len(t, got.Details, 1)

	mine, err := f.orders.ListOrders(f.ctx, alice, core.OrderFilter{UserID: bob.UserID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, aliceOrder.ID, mine[0].ID)

	all, err := f.orders.ListOrders(f.ctx, staff, core.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, bobOrder.ID, all[0].ID, "newest first")

	shipping, err := f.orders.ListOrders(f.ctx, staff, core.OrderFilter{Status: core.OrderShipping})
	require.NoError(t, err)
	require.Len(t, shipping, 1)
	assert.Equal(t, bobOrder.ID, shipping[0].ID)
}

func TestOrderService_ConcurrentCheckoutSellsTheLastUnitOnce(t *testing.T) {
	f := newFixture(t)
	f.stock(t, iphone, black, 1)

	aliceItem, err := f.carts.AddCartItem(f.ctx, alice, aliceCart, iphone, black, 1)
	require.NoError(t, err)
	bobItem, err := f.carts.AddCartItem(f.ctx, bob, bobCart, iphone, black, 1)
	require.NoError(t, err)

	attempts := []struct {
		actor  core.Actor
		cartID string
		itemID string
	}{
		{alice, aliceCart, aliceItem.ID},
		{bob, bobCart, bobItem.ID},
	}
	errs := make([]error, len(attempts))
	var wg sync.WaitGroup
	for i, a := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.orders.CreateOrder(f.ctx, a.actor, core.CreateOrderInput{
				CartID:        a.cartID,
				CartItemIDs:   []string{a.itemID},
				Address:       "12 Market Street",
				PaymentMethod: "COD",
			})
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireKind(t, err, core.KindInvalid)
		assert.Contains(t, err.Error(), "insufficient stock")
	}
	assert.Equal(t, 1, succeeded)
}
