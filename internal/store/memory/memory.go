// Package memory is an in-process core.Store. Transactions are serialized and
// work on a copy of the data that replaces the original only on success, so a
// failed unit of work leaves nothing behind.
package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"phone-store/internal/core"
)

type promotionLink struct {
	productID   string
	promotionID string
}

type state struct {
	products         map[string]core.Product
	colors           map[string]core.Color
	promotions       map[string]core.Promotion
	promotionLinks   []promotionLink
	carts            map[string]core.Cart
	cartItems        map[string]core.CartItem
	units            map[string]core.ProductIdentity
	orders           map[string]core.Order
	details          map[string]core.OrderDetail
	returns          map[string]core.ProductReturn
	returnTickets    map[string]core.ReturnTicket
	warrantyRequests map[string]core.WarrantyRequest
	warranties       map[string]core.Warranty
	purchaseOrders   map[string]core.PurchaseOrder
	poLines          map[string]core.PurchaseOrderLine
}

func newState() *state {
	return &state{
		products:         map[string]core.Product{},
		colors:           map[string]core.Color{},
		promotions:       map[string]core.Promotion{},
		carts:            map[string]core.Cart{},
		cartItems:        map[string]core.CartItem{},
		units:            map[string]core.ProductIdentity{},
		orders:           map[string]core.Order{},
		details:          map[string]core.OrderDetail{},
		returns:          map[string]core.ProductReturn{},
		returnTickets:    map[string]core.ReturnTicket{},
		warrantyRequests: map[string]core.WarrantyRequest{},
		warranties:       map[string]core.Warranty{},
		purchaseOrders:   map[string]core.PurchaseOrder{},
		poLines:          map[string]core.PurchaseOrderLine{},
	}
}

// clone copies every table. Stored values never share mutable memory: time
// pointers are replaced on update, never written through.
func (s *state) clone() *state {
	return &state{
		products:         maps.Clone(s.products),
		colors:           maps.Clone(s.colors),
		promotions:       maps.Clone(s.promotions),
		promotionLinks:   slices.Clone(s.promotionLinks),
		carts:            maps.Clone(s.carts),
		cartItems:        maps.Clone(s.cartItems),
		units:            maps.Clone(s.units),
		orders:           maps.Clone(s.orders),
		details:          maps.Clone(s.details),
		returns:          maps.Clone(s.returns),
		returnTickets:    maps.Clone(s.returnTickets),
		warrantyRequests: maps.Clone(s.warrantyRequests),
		warranties:       maps.Clone(s.warranties),
		purchaseOrders:   maps.Clone(s.purchaseOrders),
		poLines:          maps.Clone(s.poLines),
	}
}

type Store struct {
	mu   sync.Mutex
	data *state
}

func New() *Store {
	return &Store{data: newState()}
}

// WithinTx runs fn against a private copy of the data and publishes the copy
// only when fn succeeds and ctx is still live.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx core.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.data.clone()
	if err := fn(ctx, &tx{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = work
	return nil
}

// Catalog and cart records are owned by CRUD layers outside the engine; these
// helpers stand in for them.

func (s *Store) AddProduct(p core.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.products[p.ID] = p
}

func (s *Store) AddColor(c core.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.colors[c.ID] = c
}

// AddPromotion stores p and links it to productIDs in call order.
func (s *Store) AddPromotion(p core.Promotion, productIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.promotions[p.ID] = p
	for _, id := range productIDs {
		s.data.promotionLinks = append(s.data.promotionLinks, promotionLink{productID: id, promotionID: p.ID})
	}
}

func (s *Store) AddCart(c core.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.carts[c.ID] = c
}

func (s *Store) AddCartItem(item core.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.cartItems[item.ID] = item
}

func (s *Store) AddUnit(u core.ProductIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.units[u.ID] = u
}

type tx struct {
	st *state
}

var _ core.Tx = (*tx)(nil)

// ── Catalog ──────────────────────────────────────────────────────────────────

func (t *tx) GetProduct(_ context.Context, id string) (*core.Product, error) {
	p, ok := t.st.products[id]
	if !ok {
		return nil, core.NotFoundf("product %s not found", id)
	}
	return &p, nil
}

func (t *tx) GetColor(_ context.Context, id string) (*core.Color, error) {
	c, ok := t.st.colors[id]
	if !ok {
		return nil, core.NotFoundf("color %s not found", id)
	}
	return &c, nil
}

func (t *tx) ListPromotionsForProduct(_ context.Context, productID string) ([]core.Promotion, error) {
	var out []core.Promotion
	for _, l := range t.st.promotionLinks {
		if l.productID != productID {
			continue
		}
		if p, ok := t.st.promotions[l.promotionID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ── Cart ─────────────────────────────────────────────────────────────────────

func (t *tx) GetCart(_ context.Context, id string) (*core.Cart, error) {
	c, ok := t.st.carts[id]
	if !ok {
		return nil, core.NotFoundf("cart %s not found", id)
	}
	return &c, nil
}

func (t *tx) ListCartItems(_ context.Context, cartID string, ids []string) ([]core.CartItem, error) {
	var out []core.CartItem
	for _, item := range t.st.cartItems {
		if item.CartID != cartID {
			continue
		}
		if ids != nil && !slices.Contains(ids, item.ID) {
			continue
		}
		out = append(out, item)
	}
	slices.SortFunc(out, func(a, b core.CartItem) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (t *tx) InsertCartItem(_ context.Context, item *core.CartItem) error {
	if _, ok := t.st.cartItems[item.ID]; ok {
		return core.Conflictf("cart item %s already exists", item.ID)
	}
	t.st.cartItems[item.ID] = *item
	return nil
}

func (t *tx) UpdateCartItem(_ context.Context, item *core.CartItem) error {
	if _, ok := t.st.cartItems[item.ID]; !ok {
		return core.NotFoundf("cart item %s not found", item.ID)
	}
	t.st.cartItems[item.ID] = *item
	return nil
}

func (t *tx) DeleteCartItems(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(t.st.cartItems, id)
	}
	return nil
}

// ── Units ────────────────────────────────────────────────────────────────────

func (t *tx) InsertUnit(_ context.Context, u *core.ProductIdentity) error {
	for _, existing := range t.st.units {
		if existing.IMEI == u.IMEI {
			return core.Conflictf("IMEI %s already exists", u.IMEI)
		}
	}
	t.st.units[u.ID] = *u
	return nil
}

func (t *tx) GetUnit(_ context.Context, id string) (*core.ProductIdentity, error) {
	u, ok := t.st.units[id]
	if !ok {
		return nil, core.NotFoundf("unit %s not found", id)
	}
	return &u, nil
}

func (t *tx) LockUnit(ctx context.Context, id string) (*core.ProductIdentity, error) {
	return t.GetUnit(ctx, id)
}

func (t *tx) LockAvailableUnits(ctx context.Context, productID, colorID string, limit int) ([]core.ProductIdentity, error) {
	units, err := t.ListUnits(ctx, core.UnitFilter{ProductID: productID, ColorID: colorID, AvailableOnly: true})
	if err != nil {
		return nil, err
	}
	if len(units) > limit {
		units = units[:limit]
	}
	return units, nil
}

func (t *tx) UpdateUnit(_ context.Context, u *core.ProductIdentity) error {
	if _, ok := t.st.units[u.ID]; !ok {
		return core.NotFoundf("unit %s not found", u.ID)
	}
	t.st.units[u.ID] = *u
	return nil
}

func (t *tx) ListUnits(_ context.Context, f core.UnitFilter) ([]core.ProductIdentity, error) {
	var out []core.ProductIdentity
	for _, u := range t.st.units {
		if f.ProductID != "" && u.ProductID != f.ProductID {
			continue
		}
		if f.ColorID != "" && u.ColorID != f.ColorID {
			continue
		}
		if f.AvailableOnly && u.IsSold {
			continue
		}
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b core.ProductIdentity) int {
		return cmp.Or(a.ReceivedAt.Compare(b.ReceivedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (t *tx) ListUnitsForPurchaseOrder(_ context.Context, purchaseOrderID string) ([]core.ProductIdentity, error) {
	var out []core.ProductIdentity
	for _, u := range t.st.units {
		line, ok := t.st.poLines[u.PurchaseOrderLineID]
		if ok && line.PurchaseOrderID == purchaseOrderID {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b core.ProductIdentity) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (t *tx) DeleteUnits(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(t.st.units, id)
	}
	return nil
}

// ── Orders ───────────────────────────────────────────────────────────────────

func (t *tx) InsertOrder(_ context.Context, o *core.Order) error {
	if _, ok := t.st.orders[o.ID]; ok {
		return core.Conflictf("order %s already exists", o.ID)
	}
	stored := *o
	stored.Details = nil
	t.st.orders[o.ID] = stored
	return nil
}

func (t *tx) InsertOrderDetail(_ context.Context, d *core.OrderDetail) error {
	for _, existing := range t.st.details {
		if existing.ProductIdentityID == d.ProductIdentityID && existing.Holds() {
			return core.Conflictf("unit %s is already bound to order %s", d.ProductIdentityID, existing.OrderID)
		}
	}
	t.st.details[d.ID] = *d
	return nil
}

func (t *tx) GetOrder(_ context.Context, id string) (*core.Order, error) {
	o, ok := t.st.orders[id]
	if !ok {
		return nil, core.NotFoundf("order %s not found", id)
	}
	return &o, nil
}

func (t *tx) LockOrder(ctx context.Context, id string) (*core.Order, error) {
	return t.GetOrder(ctx, id)
}

func (t *tx) UpdateOrder(_ context.Context, o *core.Order) error {
	if _, ok := t.st.orders[o.ID]; !ok {
		return core.NotFoundf("order %s not found", o.ID)
	}
	stored := *o
	stored.Details = nil
	t.st.orders[o.ID] = stored
	return nil
}

func (t *tx) ListOrders(_ context.Context, f core.OrderFilter) ([]core.Order, error) {
	var out []core.Order
	for _, o := range t.st.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b core.Order) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (t *tx) ListOrderDetails(_ context.Context, orderID string) ([]core.OrderDetail, error) {
	var out []core.OrderDetail
	for _, d := range t.st.details {
		if d.OrderID == orderID {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b core.OrderDetail) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (t *tx) GetOrderDetail(_ context.Context, id string) (*core.OrderDetail, error) {
	d, ok := t.st.details[id]
	if !ok {
		return nil, core.NotFoundf("order detail %s not found", id)
	}
	return &d, nil
}

func (t *tx) FindSaleForUnit(_ context.Context, unitID string) (*core.OrderDetail, error) {
	for _, d := range t.st.details {
		if d.ProductIdentityID == unitID && d.Holds() {
			return &d, nil
		}
	}
	return nil, core.NotFoundf("no sale found for unit %s", unitID)
}

func (t *tx) UpdateOrderDetail(_ context.Context, d *core.OrderDetail) error {
	if _, ok := t.st.details[d.ID]; !ok {
		return core.NotFoundf("order detail %s not found", d.ID)
	}
	t.st.details[d.ID] = *d
	return nil
}

// ── Returns ──────────────────────────────────────────────────────────────────

func (t *tx) InsertReturnRequest(_ context.Context, r *core.ProductReturn) error {
	t.st.returns[r.ID] = *r
	return nil
}

func (t *tx) GetReturnRequest(_ context.Context, id string) (*core.ProductReturn, error) {
	r, ok := t.st.returns[id]
	if !ok {
		return nil, core.NotFoundf("return request %s not found", id)
	}
	return &r, nil
}

func (t *tx) LockReturnRequest(ctx context.Context, id string) (*core.ProductReturn, error) {
	return t.GetReturnRequest(ctx, id)
}

func (t *tx) UpdateReturnRequest(_ context.Context, r *core.ProductReturn) error {
	if _, ok := t.st.returns[r.ID]; !ok {
		return core.NotFoundf("return request %s not found", r.ID)
	}
	t.st.returns[r.ID] = *r
	return nil
}

func (t *tx) ListReturnRequests(_ context.Context, f core.ReturnFilter) ([]core.ProductReturn, error) {
	var out []core.ProductReturn
	for _, r := range t.st.returns {
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b core.ProductReturn) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (t *tx) HasActiveReturnRequest(_ context.Context, unitID string) (bool, error) {
	for _, r := range t.st.returns {
		if r.ProductIdentityID == unitID && !core.ReturnRequestMachine.Terminal(r.Status) {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) InsertReturnTicket(_ context.Context, rt *core.ReturnTicket) error {
	t.st.returnTickets[rt.ID] = *rt
	return nil
}

func (t *tx) LockReturnTicket(_ context.Context, id string) (*core.ReturnTicket, error) {
	rt, ok := t.st.returnTickets[id]
	if !ok {
		return nil, core.NotFoundf("return ticket %s not found", id)
	}
	return &rt, nil
}

func (t *tx) UpdateReturnTicket(_ context.Context, rt *core.ReturnTicket) error {
	if _, ok := t.st.returnTickets[rt.ID]; !ok {
		return core.NotFoundf("return ticket %s not found", rt.ID)
	}
	t.st.returnTickets[rt.ID] = *rt
	return nil
}

func (t *tx) ListReturnTickets(_ context.Context, f core.ReturnTicketFilter) ([]core.ReturnTicket, error) {
	var out []core.ReturnTicket
	for _, rt := range t.st.returnTickets {
		if f.ProductReturnID != "" && rt.ProductReturnID != f.ProductReturnID {
			continue
		}
		if f.Status != "" && rt.Status != f.Status {
			continue
		}
		out = append(out, rt)
	}
	slices.SortFunc(out, func(a, b core.ReturnTicket) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (t *tx) HasOpenReturnTicket(_ context.Context, unitID string) (bool, error) {
	for _, rt := range t.st.returnTickets {
		if rt.ProductIdentityID == unitID && !core.ReturnTicketMachine.Terminal(rt.Status) {
			return true, nil
		}
	}
	return false, nil
}

// ── Warranty ─────────────────────────────────────────────────────────────────

func (t *tx) InsertWarrantyRequest(_ context.Context, r *core.WarrantyRequest) error {
	t.st.warrantyRequests[r.ID] = *r
	return nil
}

func (t *tx) GetWarrantyRequest(_ context.Context, id string) (*core.WarrantyRequest, error) {
	r, ok := t.st.warrantyRequests[id]
	if !ok {
		return nil, core.NotFoundf("warranty request %s not found", id)
	}
	return &r, nil
}

func (t *tx) LockWarrantyRequest(ctx context.Context, id string) (*core.WarrantyRequest, error) {
	return t.GetWarrantyRequest(ctx, id)
}

func (t *tx) UpdateWarrantyRequest(_ context.Context, r *core.WarrantyRequest) error {
	if _, ok := t.st.warrantyRequests[r.ID]; !ok {
		return core.NotFoundf("warranty request %s not found", r.ID)
	}
	t.st.warrantyRequests[r.ID] = *r
	return nil
}

func (t *tx) ListWarrantyRequests(_ context.Context, f core.WarrantyRequestFilter) ([]core.WarrantyRequest, error) {
	var out []core.WarrantyRequest
	for _, r := range t.st.warrantyRequests {
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b core.WarrantyRequest) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (t *tx) HasActiveWarrantyRequest(_ context.Context, unitID string) (bool, error) {
	for _, r := range t.st.warrantyRequests {
		if r.ProductIdentityID == unitID && !core.WarrantyRequestMachine.Terminal(r.Status) {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) InsertWarranty(_ context.Context, w *core.Warranty) error {
	t.st.warranties[w.ID] = *w
	return nil
}

func (t *tx) LockWarranty(_ context.Context, id string) (*core.Warranty, error) {
	w, ok := t.st.warranties[id]
	if !ok {
		return nil, core.NotFoundf("warranty %s not found", id)
	}
	return &w, nil
}

func (t *tx) UpdateWarranty(_ context.Context, w *core.Warranty) error {
	if _, ok := t.st.warranties[w.ID]; !ok {
		return core.NotFoundf("warranty %s not found", w.ID)
	}
	t.st.warranties[w.ID] = *w
	return nil
}

func (t *tx) ListWarranties(_ context.Context, f core.WarrantyFilter) ([]core.Warranty, error) {
	var out []core.Warranty
	for _, w := range t.st.warranties {
		if f.WarrantyRequestID != "" && w.WarrantyRequestID != f.WarrantyRequestID {
			continue
		}
		if f.Status != "" && w.Status != f.Status {
			continue
		}
		out = append(out, w)
	}
	slices.SortFunc(out, func(a, b core.Warranty) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (t *tx) HasOpenWarranty(_ context.Context, unitID string) (bool, error) {
	for _, w := range t.st.warranties {
		if w.ProductIdentityID == unitID && !core.WarrantyMachine.Terminal(w.Status) {
			return true, nil
		}
	}
	return false, nil
}

// ── Purchase orders ──────────────────────────────────────────────────────────

func (t *tx) InsertPurchaseOrder(_ context.Context, po *core.PurchaseOrder) error {
	stored := *po
	stored.Lines = nil
	t.st.purchaseOrders[po.ID] = stored
	for _, l := range po.Lines {
		t.st.poLines[l.ID] = l
	}
	return nil
}

func (t *tx) LockPurchaseOrder(_ context.Context, id string) (*core.PurchaseOrder, error) {
	po, ok := t.st.purchaseOrders[id]
	if !ok {
		return nil, core.NotFoundf("purchase order %s not found", id)
	}
	for _, l := range t.st.poLines {
		if l.PurchaseOrderID == id {
			po.Lines = append(po.Lines, l)
		}
	}
	slices.SortFunc(po.Lines, func(a, b core.PurchaseOrderLine) int { return cmp.Compare(a.ID, b.ID) })
	return &po, nil
}

func (t *tx) UpdatePurchaseOrder(_ context.Context, po *core.PurchaseOrder) error {
	if _, ok := t.st.purchaseOrders[po.ID]; !ok {
		return core.NotFoundf("purchase order %s not found", po.ID)
	}
	stored := *po
	stored.Lines = nil
	t.st.purchaseOrders[po.ID] = stored
	return nil
}

func (t *tx) DeletePurchaseOrder(_ context.Context, id string) error {
	delete(t.st.purchaseOrders, id)
	for lineID, l := range t.st.poLines {
		if l.PurchaseOrderID == id {
			delete(t.st.poLines, lineID)
		}
	}
	return nil
}
