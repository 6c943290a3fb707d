package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"phone-store/internal/core"
	"phone-store/internal/events"
)

// Services bundles the core services the facade delegates to.
type Services struct {
	Pricing        *core.PricingEngine
	Units          *core.UnitLedger
	Carts          core.CartService
	Orders         core.OrderService
	Returns        core.ReturnService
	Warranty       core.WarrantyService
	PurchaseOrders core.PurchaseOrderService
}

// NewServices wires every core service over one store.
func NewServices(store core.Store, settings core.Settings, logger *zap.Logger) Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	pricing := core.NewPricingEngine(store, settings)
	units := core.NewUnitLedger(store, settings, logger.Named("units"))
	return Services{
		Pricing:        pricing,
		Units:          units,
		Carts:          core.NewCartService(store, pricing, settings, logger.Named("carts")),
		Orders:         core.NewOrderService(store, pricing, units, settings, logger.Named("orders")),
		Returns:        core.NewReturnService(store, units, settings, logger.Named("returns")),
		Warranty:       core.NewWarrantyService(store, units, settings, logger.Named("warranty")),
		PurchaseOrders: core.NewPurchaseOrderService(store, settings, logger.Named("purchase_orders")),
	}
}

type appService struct {
	svc                Services
	publisher          events.Publisher
	paymentURLTemplate string
	logger             *zap.Logger
}

// NewAppService constructs an appService that satisfies ApplicationService.
// paymentURLTemplate may be empty, in which case no payment URL is returned.
func NewAppService(svc Services, publisher events.Publisher, paymentURLTemplate string, logger *zap.Logger) ApplicationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &appService{
		svc:                svc,
		publisher:          publisher,
		paymentURLTemplate: paymentURLTemplate,
		logger:             logger,
	}
}

// publishTimeout bounds how long a response may wait on the publisher.
const publishTimeout = 2 * time.Second

// publish runs after commit. A failure is logged and otherwise ignored. The
// publisher gets its own budget, detached from the request's cancellation.
func (s *appService) publish(ctx context.Context, evs ...events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, evs...); err != nil {
		s.logger.Error("failed to publish lifecycle events", zap.Int("count", len(evs)), zap.Error(err))
	}
}

// ── Pricing and cart ──────────────────────────────────────────────────────────

func (s *appService) QuotePrice(ctx context.Context, productID string) (*PriceResult, error) {
	quote, err := s.svc.Pricing.Quote(ctx, productID, time.Time{})
	if err != nil {
		return nil, err
	}
	return &PriceResult{Message: "Price retrieved successfully", Quote: quote}, nil
}

func (s *appService) GetCart(ctx context.Context, actor core.Actor, cartID string) (*CartResult, error) {
	view, err := s.svc.Carts.GetCart(ctx, actor, cartID)
	if err != nil {
		return nil, err
	}
	return &CartResult{Message: "Cart retrieved successfully", Cart: view}, nil
}

func (s *appService) AddCartItem(ctx context.Context, actor core.Actor, req AddCartItemRequest) (*CartItemResult, error) {
	item, err := s.svc.Carts.AddCartItem(ctx, actor, req.CartID, req.ProductID, req.ColorID, req.Quantity)
	if err != nil {
		return nil, err
	}
	return &CartItemResult{Message: "Item added to cart", Item: item}, nil
}

// ── Orders ────────────────────────────────────────────────────────────────────

func (s *appService) CreateOrder(ctx context.Context, actor core.Actor, req CreateOrderRequest) (*OrderResult, error) {
	order, err := s.svc.Orders.CreateOrder(ctx, actor, core.CreateOrderInput{
		CartID:        req.CartID,
		CartItemIDs:   req.CartItemIDs,
		Address:       req.Address,
		PaymentMethod: req.PaymentMethod,
		Note:          req.Note,
		PhoneNumber:   req.PhoneNumber,
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.OrderCreated, order.ID, order.UserID, string(order.Status), orderPayload(order)))

	result := &OrderResult{Message: "Order created successfully", Order: order}
	if order.PaymentMethod == core.PaymentOnline && s.paymentURLTemplate != "" {
		result.PaymentURL = fmt.Sprintf(s.paymentURLTemplate, order.ID)
	}
	return result, nil
}

func (s *appService) GetOrder(ctx context.Context, actor core.Actor, orderID string) (*OrderResult, error) {
	order, err := s.svc.Orders.GetOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Message: "Order retrieved successfully", Order: order}, nil
}

func (s *appService) ListOrders(ctx context.Context, actor core.Actor, status string) (*OrderListResult, error) {
	var f core.OrderFilter
	if status != "" {
		st, err := core.OrderMachine.Parse(status)
		if err != nil {
			return nil, err
		}
		f.Status = st
	}
	orders, err := s.svc.Orders.ListOrders(ctx, actor, f)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Message: fmt.Sprintf("%d order(s) found", len(orders)), Orders: orders}, nil
}

func (s *appService) UpdateOrderStatus(ctx context.Context, actor core.Actor, orderID, status string) (*OrderResult, error) {
	order, err := s.svc.Orders.UpdateOrderStatus(ctx, actor, orderID, status)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.OrderStatusChanged, order.ID, order.UserID, string(order.Status), orderPayload(order)))
	return &OrderResult{Message: fmt.Sprintf("Order status updated to %s", order.Status), Order: order}, nil
}

func (s *appService) RecordPayment(ctx context.Context, req PaymentCallbackRequest) (*OrderResult, error) {
	order, err := s.svc.Orders.RecordPaymentOutcome(ctx, req.OrderID, req.Success)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.OrderPaymentRecorded, order.ID, order.UserID, string(order.PaymentStatus), orderPayload(order)))

	msg := "Payment recorded"
	if !req.Success {
		msg = "Payment failed"
		if order.Status == core.OrderCanceled {
			msg = "Payment failed; order canceled"
		}
	}
	return &OrderResult{Message: msg, Order: order}, nil
}

// orderPayload is the event body for order changes: the order header plus
// every unit sold on it. A canceled order lists the units it released.
func orderPayload(o *core.Order) map[string]any {
	units := make([]string, 0, len(o.Details))
	for _, d := range o.Details {
		if !d.ReturnStatus {
			units = append(units, d.ProductIdentityID)
		}
	}
	return map[string]any{
		"total_amount":   o.TotalAmount.StringFixed(2),
		"payment_status": o.PaymentStatus,
		"payment_method": o.PaymentMethod,
		"unit_ids":       units,
	}
}

// ── Returns ───────────────────────────────────────────────────────────────────

func (s *appService) CreateReturnRequest(ctx context.Context, actor core.Actor, req CreateReturnRequest) (*ReturnResult, error) {
	r, err := s.svc.Returns.CreateReturnRequest(ctx, actor, core.CreateReturnInput{
		ProductIdentityID: req.ProductIdentityID,
		Reason:            req.Reason,
		FullName:          req.FullName,
		PhoneNumber:       req.PhoneNumber,
		Address:           req.Address,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.ReturnRequested, r.ID, r.UserID, string(r.Status),
		map[string]string{"unit_id": r.ProductIdentityID, "order_detail_id": r.OrderDetailID}))
	return &ReturnResult{Message: "Return request created successfully", Request: r}, nil
}

func (s *appService) GetReturnRequest(ctx context.Context, actor core.Actor, requestID string) (*ReturnResult, error) {
	r, err := s.svc.Returns.GetReturnRequest(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	return &ReturnResult{Message: "Return request retrieved successfully", Request: r}, nil
}

func (s *appService) ListReturnRequests(ctx context.Context, actor core.Actor, status string) (*ReturnListResult, error) {
	var f core.ReturnFilter
	if status != "" {
		st, err := core.ReturnRequestMachine.Parse(status)
		if err != nil {
			return nil, err
		}
		f.Status = st
	}
	list, err := s.svc.Returns.ListReturnRequests(ctx, actor, f)
	if err != nil {
		return nil, err
	}
	return &ReturnListResult{Message: fmt.Sprintf("%d return request(s) found", len(list)), Requests: list}, nil
}

func (s *appService) UpdateReturnRequestStatus(ctx context.Context, actor core.Actor, requestID, status string) (*ReturnResult, error) {
	d, err := s.svc.Returns.UpdateReturnRequestStatus(ctx, actor, requestID, status)
	if err != nil {
		return nil, err
	}
	evs := []events.Event{events.New(events.ReturnStatusChanged, d.Request.ID, d.Request.UserID, string(d.Request.Status),
		map[string]string{"unit_id": d.Request.ProductIdentityID})}
	msg := fmt.Sprintf("Return request status updated to %s", d.Request.Status)
	if d.Ticket != nil {
		evs = append(evs, events.New(events.ReturnTicketChanged, d.Ticket.ID, d.Request.UserID, string(d.Ticket.Status),
			map[string]string{"unit_id": d.Ticket.ProductIdentityID, "return_request_id": d.Request.ID}))
		msg += "; return ticket opened"
	}
	s.publish(ctx, evs...)
	return &ReturnResult{Message: msg, Request: d.Request, Ticket: d.Ticket}, nil
}

func (s *appService) ListReturnTickets(ctx context.Context, actor core.Actor, requestID, status string) (*ReturnTicketListResult, error) {
	f := core.ReturnTicketFilter{ProductReturnID: requestID}
	if status != "" {
		st, err := core.ReturnTicketMachine.Parse(status)
		if err != nil {
			return nil, err
		}
		f.Status = st
	}
	list, err := s.svc.Returns.ListReturnTickets(ctx, actor, f)
	if err != nil {
		return nil, err
	}
	return &ReturnTicketListResult{Message: fmt.Sprintf("%d return ticket(s) found", len(list)), Tickets: list}, nil
}

func (s *appService) UpdateReturnTicketStatus(ctx context.Context, actor core.Actor, ticketID, status string) (*ReturnTicketResult, error) {
	t, err := s.svc.Returns.UpdateReturnTicketStatus(ctx, actor, ticketID, status)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.ReturnTicketChanged, t.ID, "", string(t.Status),
		map[string]string{"unit_id": t.ProductIdentityID, "return_request_id": t.ProductReturnID}))
	return &ReturnTicketResult{Message: fmt.Sprintf("Return ticket status updated to %s", t.Status), Ticket: t}, nil
}

// ── Warranty ──────────────────────────────────────────────────────────────────

func (s *appService) CreateWarrantyRequest(ctx context.Context, actor core.Actor, req CreateWarrantyRequest) (*WarrantyRequestResult, error) {
	r, err := s.svc.Warranty.CreateWarrantyRequest(ctx, actor, core.CreateWarrantyInput{
		ProductIdentityID: req.ProductIdentityID,
		Description:       req.Description,
		FullName:          req.FullName,
		PhoneNumber:       req.PhoneNumber,
		Address:           req.Address,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.WarrantyRequested, r.ID, r.UserID, string(r.Status),
		map[string]string{"unit_id": r.ProductIdentityID}))
	return &WarrantyRequestResult{Message: "Warranty request created successfully", Request: r}, nil
}

func (s *appService) GetWarrantyRequest(ctx context.Context, actor core.Actor, requestID string) (*WarrantyRequestResult, error) {
	r, err := s.svc.Warranty.GetWarrantyRequest(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	return &WarrantyRequestResult{Message: "Warranty request retrieved successfully", Request: r}, nil
}

func (s *appService) ListWarrantyRequests(ctx context.Context, actor core.Actor, status string) (*WarrantyRequestListResult, error) {
	var f core.WarrantyRequestFilter
	if status != "" {
		st, err := core.WarrantyRequestMachine.Parse(status)
		if err != nil {
			return nil, err
		}
		f.Status = st
	}
	list, err := s.svc.Warranty.ListWarrantyRequests(ctx, actor, f)
	if err != nil {
		return nil, err
	}
	return &WarrantyRequestListResult{Message: fmt.Sprintf("%d warranty request(s) found", len(list)), Requests: list}, nil
}

func (s *appService) UpdateWarrantyRequestStatus(ctx context.Context, actor core.Actor, requestID, status string) (*WarrantyRequestResult, error) {
	d, err := s.svc.Warranty.UpdateWarrantyRequestStatus(ctx, actor, requestID, status)
	if err != nil {
		return nil, err
	}
	evs := []events.Event{events.New(events.WarrantyStatusChanged, d.Request.ID, d.Request.UserID, string(d.Request.Status),
		map[string]string{"unit_id": d.Request.ProductIdentityID})}
	msg := fmt.Sprintf("Warranty request status updated to %s", d.Request.Status)
	if d.Warranty != nil {
		evs = append(evs, events.New(events.WarrantyTicketChanged, d.Warranty.ID, d.Request.UserID, string(d.Warranty.Status),
			map[string]string{"unit_id": d.Warranty.ProductIdentityID, "warranty_request_id": d.Request.ID}))
		msg += "; warranty ticket opened"
	}
	s.publish(ctx, evs...)
	return &WarrantyRequestResult{Message: msg, Request: d.Request, Warranty: d.Warranty}, nil
}

func (s *appService) ListWarranties(ctx context.Context, actor core.Actor, requestID, status string) (*WarrantyListResult, error) {
	f := core.WarrantyFilter{WarrantyRequestID: requestID}
	if status != "" {
		st, err := core.WarrantyMachine.Parse(status)
		if err != nil {
			return nil, err
		}
		f.Status = st
	}
	list, err := s.svc.Warranty.ListWarranties(ctx, actor, f)
	if err != nil {
		return nil, err
	}
	return &WarrantyListResult{Message: fmt.Sprintf("%d warranty ticket(s) found", len(list)), Warranties: list}, nil
}

func (s *appService) UpdateWarrantyStatus(ctx context.Context, actor core.Actor, warrantyID, status string) (*WarrantyResult, error) {
	w, err := s.svc.Warranty.UpdateWarrantyStatus(ctx, actor, warrantyID, status)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.WarrantyTicketChanged, w.ID, "", string(w.Status),
		map[string]string{"unit_id": w.ProductIdentityID, "warranty_request_id": w.WarrantyRequestID}))
	return &WarrantyResult{Message: fmt.Sprintf("Warranty status updated to %s", w.Status), Warranty: w}, nil
}

// ── Receiving and units ───────────────────────────────────────────────────────

func (s *appService) CreatePurchaseOrder(ctx context.Context, actor core.Actor, req CreatePurchaseOrderRequest) (*PurchaseOrderResult, error) {
	lines := make([]core.PurchaseOrderLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, core.PurchaseOrderLineInput{
			ProductID: l.ProductID,
			ColorID:   l.ColorID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
		})
	}
	po, err := s.svc.PurchaseOrders.CreatePurchaseOrder(ctx, actor, req.SupplierID, lines)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderResult{Message: "Purchase order created successfully", PurchaseOrder: po}, nil
}

func (s *appService) ReceivePurchaseOrder(ctx context.Context, actor core.Actor, req ReceivePurchaseOrderRequest) (*PurchaseOrderResult, error) {
	received := make([]core.ReceivedUnit, 0, len(req.Units))
	for _, u := range req.Units {
		received = append(received, core.ReceivedUnit{LineID: u.LineID, IMEI: u.IMEI})
	}
	po, units, err := s.svc.PurchaseOrders.ReceivePurchaseOrder(ctx, actor, req.PurchaseOrderID, received)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(units))
	for _, u := range units {
		ids = append(ids, u.ID)
	}
	s.publish(ctx, events.New(events.PurchaseOrderReceived, po.ID, actor.UserID, string(po.Status),
		map[string]any{"unit_ids": ids}))
	return &PurchaseOrderResult{
		Message:       fmt.Sprintf("%d unit(s) received; purchase order is %s", len(units), po.Status),
		PurchaseOrder: po,
		Units:         units,
	}, nil
}

func (s *appService) DeletePurchaseOrder(ctx context.Context, actor core.Actor, poID string) (*MessageResult, error) {
	if err := s.svc.PurchaseOrders.DeletePurchaseOrder(ctx, actor, poID); err != nil {
		return nil, err
	}
	return &MessageResult{Message: "Purchase order deleted successfully"}, nil
}

func (s *appService) GetUnit(ctx context.Context, actor core.Actor, unitID string) (*UnitResult, error) {
	if !actor.IsStaff() {
		return nil, core.Invalidf("only staff may inspect units")
	}
	u, err := s.svc.Units.GetUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	return &UnitResult{Message: "Unit retrieved successfully", Unit: u}, nil
}

func (s *appService) ListUnits(ctx context.Context, actor core.Actor, req ListUnitsRequest) (*UnitListResult, error) {
	if !actor.IsStaff() {
		return nil, core.Invalidf("only staff may inspect units")
	}
	units, err := s.svc.Units.ListUnits(ctx, core.UnitFilter{
		ProductID:     req.ProductID,
		ColorID:       req.ColorID,
		AvailableOnly: req.AvailableOnly,
	})
	if err != nil {
		return nil, err
	}
	return &UnitListResult{Message: fmt.Sprintf("%d unit(s) found", len(units)), Units: units}, nil
}
