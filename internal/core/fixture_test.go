package core_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"phone-store/internal/core"
	"phone-store/internal/store/memory"
)

var (
	alice = core.Actor{UserID: "alice", Role: core.RoleCustomer}
	bob   = core.Actor{UserID: "bob", Role: core.RoleCustomer}
	staff = core.Actor{UserID: "emp-1", Role: core.RoleEmployee}
	admin = core.Actor{UserID: "admin-1", Role: core.RoleAdmin}
)

const (
	iphone = "iphone-15"
	budget = "budget-a1"
	black  = "black"
	white  = "white"

	aliceCart = "cart-alice"
	bobCart   = "cart-bob"
)

// clock is a settable time source shared by every service of a fixture.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	ctx   context.Context
	store *memory.Store
	clock *clock

	pricing  *core.PricingEngine
	units    *core.UnitLedger
	carts    core.CartService
	orders   core.OrderService
	returns  core.ReturnService
	warranty core.WarrantyService
	pos      core.PurchaseOrderService

	imeiSeq int
}

// newFixture wires every service over a fresh memory store seeded with two
// products, two colors and a cart each for alice and bob. No units exist yet.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	clk := &clock{t: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	settings := core.Settings{
		ReturnWindow:   7 * 24 * time.Hour,
		WarrantyMonths: 6,
		Now:            clk.Now,
	}

	store.AddProduct(core.Product{ID: iphone, Name: "iPhone 15", Price: decimal.NewFromInt(1000), WarrantyMonths: 12})
	store.AddProduct(core.Product{ID: budget, Name: "Budget A1", Price: decimal.NewFromInt(300)})
	store.AddColor(core.Color{ID: black, Name: "Black"})
	store.AddColor(core.Color{ID: white, Name: "White"})
	store.AddCart(core.Cart{ID: aliceCart, UserID: alice.UserID})
	store.AddCart(core.Cart{ID: bobCart, UserID: bob.UserID})

	pricing := core.NewPricingEngine(store, settings)
	units := core.NewUnitLedger(store, settings, nil)
	return &fixture{
		ctx:      context.Background(),
		store:    store,
		clock:    clk,
		pricing:  pricing,
		units:    units,
		carts:    core.NewCartService(store, pricing, settings, nil),
		orders:   core.NewOrderService(store, pricing, units, settings, nil),
		returns:  core.NewReturnService(store, units, settings, nil),
		warranty: core.NewWarrantyService(store, units, settings, nil),
		pos:      core.NewPurchaseOrderService(store, settings, nil),
	}
}

// nextIMEI returns a fresh 15-digit IMEI.
func (f *fixture) nextIMEI() string {
	f.imeiSeq++
	return fmt.Sprintf("35%013d", f.imeiSeq)
}

// stock receives n units of (productID, colorID) through a purchase order.
func (f *fixture) stock(t *testing.T, productID, colorID string, n int) []core.ProductIdentity {
	t.Helper()
	po, err := f.pos.CreatePurchaseOrder(f.ctx, staff, "supplier-1", []core.PurchaseOrderLineInput{
		{ProductID: productID, ColorID: colorID, Quantity: n, UnitCost: decimal.NewFromInt(100)},
	})
	require.NoError(t, err)

	received := make([]core.ReceivedUnit, n)
	for i := range received {
		received[i] = core.ReceivedUnit{LineID: po.Lines[0].ID, IMEI: f.nextIMEI()}
	}
	_, units, err := f.pos.ReceivePurchaseOrder(f.ctx, staff, po.ID, received)
	require.NoError(t, err)
	require.Len(t, units, n)
	return units
}

type cartLine struct {
	productID string
	colorID   string
	quantity  int
}

// checkout adds lines to the actor's cart and orders exactly those items.
func (f *fixture) checkout(t *testing.T, actor core.Actor, cartID, method string, lines ...cartLine) (*core.Order, error) {
	t.Helper()
	var ids []string
	for _, l := range lines {
		item, err := f.carts.AddCartItem(f.ctx, actor, cartID, l.productID, l.colorID, l.quantity)
		require.NoError(t, err)
		ids = append(ids, item.ID)
	}
	return f.orders.CreateOrder(f.ctx, actor, core.CreateOrderInput{
		CartID:        cartID,
		CartItemIDs:   ids,
		Address:       "12 Market Street",
		PaymentMethod: method,
		PhoneNumber:   "0900000000",
	})
}

// deliveredUnit stocks one iPhone, sells it to alice and marks the order Delivered.
func (f *fixture) deliveredUnit(t *testing.T) (*core.Order, string) {
	t.Helper()
	f.stock(t, iphone, black, 1)
	order, err := f.checkout(t, alice, aliceCart, "COD", cartLine{iphone, black, 1})
	require.NoError(t, err)
	order, err = f.orders.UpdateOrderStatus(f.ctx, staff, order.ID, "Delivered")
	require.NoError(t, err)
	return order, order.Details[0].ProductIdentityID
}

func (f *fixture) unit(t *testing.T, id string) *core.ProductIdentity {
	t.Helper()
	u, err := f.units.GetUnit(f.ctx, id)
	require.NoError(t, err)
	return u
}

func returnInput(unitID string) core.CreateReturnInput {
	return core.CreateReturnInput{
		ProductIdentityID: unitID,
		Reason:            "screen flickers",
		FullName:          "Alice Nguyen",
		PhoneNumber:       "0900000000",
		Address:           "12 Market Street",
	}
}

func warrantyInput(unitID string) core.CreateWarrantyInput {
	return core.CreateWarrantyInput{
		ProductIdentityID: unitID,
		Description:       "battery drains overnight",
		FullName:          "Alice Nguyen",
		PhoneNumber:       "0900000000",
		Address:           "12 Market Street",
	}
}

// requireKind asserts err is a domain error of the given kind.
func requireKind(t *testing.T, err error, kind core.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, core.KindOf(err), "unexpected error: %v", err)
}
