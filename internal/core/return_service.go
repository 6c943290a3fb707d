package core

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReturnService runs the two coupled return lifecycles: the customer's request
// and the ticket staff operate once the request is approved.
type ReturnService interface {
	CreateReturnRequest(ctx context.Context, actor Actor, in CreateReturnInput) (*ProductReturn, error)
	// UpdateReturnRequestStatus is staff-only. Approval opens a ticket; rejection
	// cancels any ticket already linked to the request.
	UpdateReturnRequestStatus(ctx context.Context, actor Actor, requestID, status string) (*ReturnDecision, error)
	// UpdateReturnTicketStatus is staff-only. Returned completes the request and
	// resets the unit; Canceled rejects the request.
	UpdateReturnTicketStatus(ctx context.Context, actor Actor, ticketID, status string) (*ReturnTicket, error)

	GetReturnRequest(ctx context.Context, actor Actor, requestID string) (*ProductReturn, error)
	ListReturnRequests(ctx context.Context, actor Actor, f ReturnFilter) ([]ProductReturn, error)
	ListReturnTickets(ctx context.Context, actor Actor, f ReturnTicketFilter) ([]ReturnTicket, error)
}

// ReturnDecision is a request after a status change plus the ticket it opened, if any.
type ReturnDecision struct {
	Request *ProductReturn `json:"request"`
	Ticket  *ReturnTicket  `json:"ticket,omitempty"`
}

type returnService struct {
	store    Store
	units    *UnitLedger
	settings Settings
	logger   *zap.Logger
}

func NewReturnService(store Store, units *UnitLedger, settings Settings, logger *zap.Logger) ReturnService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &returnService{store: store, units: units, settings: settings.withDefaults(), logger: logger}
}

func (s *returnService) CreateReturnRequest(ctx context.Context, actor Actor, in CreateReturnInput) (*ProductReturn, error) {
	if err := requireFields(map[string]string{
		"productIdentityId": in.ProductIdentityID,
		"reason":            in.Reason,
		"fullName":          in.FullName,
		"phoneNumber":       in.PhoneNumber,
		"address":           in.Address,
	}); err != nil {
		return nil, err
	}

	var req *ProductReturn
	err := runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		sale, err := ownedSaleTx(ctx, tx, actor, in.ProductIdentityID)
		if err != nil {
			return err
		}
		if sale.order.Status != OrderDelivered {
			return invalidf("order %s has not been delivered: status is %s", sale.order.ID, sale.order.Status)
		}
		now := s.settings.Now()
		deadline := deliveredAt(sale.order).Add(s.settings.ReturnWindow)
		if now.After(deadline) {
			return invalidf("return window of %d days for unit %s expired on %s",
				int(s.settings.ReturnWindow/(24*time.Hour)), sale.unit.ID, deadline.Format(time.DateOnly))
		}
		if err := s.units.CheckNoActiveWorkflowTx(ctx, tx, sale.unit.ID); err != nil {
			return err
		}

		req = &ProductReturn{
			ID:                uuid.NewString(),
			UserID:            actor.UserID,
			ProductIdentityID: sale.unit.ID,
			OrderDetailID:     sale.detail.ID,
			Reason:            strings.TrimSpace(in.Reason),
			FullName:          strings.TrimSpace(in.FullName),
			PhoneNumber:       strings.TrimSpace(in.PhoneNumber),
			Address:           strings.TrimSpace(in.Address),
			Status:            ReturnPending,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		return tx.InsertReturnRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("return requested",
		zap.String("return_id", req.ID),
		zap.String("unit_id", req.ProductIdentityID),
		zap.String("user_id", req.UserID),
	)
	return req, nil
}

func (s *returnService) UpdateReturnRequestStatus(ctx context.Context, actor Actor, requestID, status string) (*ReturnDecision, error) {
	if !actor.IsStaff() {
		return nil, invalidf("only staff may change the status of a return request")
	}
	to, err := ReturnRequestMachine.Parse(status)
	if err != nil {
		return nil, err
	}

	decision := &ReturnDecision{}
	var from ReturnRequestStatus
	err = runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		req, err := tx.LockReturnRequest(ctx, requestID)
		if err != nil {
			return err
		}
		from = req.Status
		if err := ReturnRequestMachine.Check(from, to); err != nil {
			return err
		}
		now := s.settings.Now()

		switch to {
		case ReturnApproved:
			ticket, err := s.openTicketTx(ctx, tx, req, now)
			if err != nil {
				return err
			}
			decision.Ticket = ticket
		case ReturnRejected:
			if err := s.cancelTicketsTx(ctx, tx, req.ID, now); err != nil {
				return err
			}
		case ReturnCompleted:
			open, err := tx.HasOpenReturnTicket(ctx, req.ProductIdentityID)
			if err != nil {
				return err
			}
			if open {
				return invalidf("return request %s completes when its ticket is returned", req.ID)
			}
		}

		req.Status = to
		req.UpdatedAt = now
		decision.Request = req
		return tx.UpdateReturnRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("return_id", requestID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", actor.UserID),
	}
	if decision.Ticket != nil {
		fields = append(fields, zap.String("ticket_id", decision.Ticket.ID))
	}
	s.logger.Info("return request status changed", fields...)
	return decision, nil
}

// openTicketTx creates the single ticket for an approved request. The ticket
// window starts at the order's creation and lasts the return window.
func (s *returnService) openTicketTx(ctx context.Context, tx Tx, req *ProductReturn, now time.Time) (*ReturnTicket, error) {
	open, err := tx.HasOpenReturnTicket(ctx, req.ProductIdentityID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, invalidf("unit %s already has an open return ticket", req.ProductIdentityID)
	}
	detail, err := tx.GetOrderDetail(ctx, req.OrderDetailID)
	if err != nil {
		return nil, err
	}
	order, err := tx.GetOrder(ctx, detail.OrderID)
	if err != nil {
		return nil, err
	}
	product, err := tx.GetProduct(ctx, detail.ProductID)
	if err != nil {
		return nil, err
	}

	ticket := &ReturnTicket{
		ID:                uuid.NewString(),
		ProductReturnID:   req.ID,
		ProductIdentityID: req.ProductIdentityID,
		OrderDetailID:     detail.ID,
		Status:            TicketRequested,
		StartDate:         order.CreatedAt,
		EndDate:           order.CreatedAt.Add(s.settings.ReturnWindow),
		OriginalPrice:     product.Price,
		DiscountedPrice:   detail.Price,
		PaymentMethod:     order.PaymentMethod,
		PaymentStatus:     order.PaymentStatus,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := tx.InsertReturnTicket(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *returnService) cancelTicketsTx(ctx context.Context, tx Tx, requestID string, now time.Time) error {
	tickets, err := tx.ListReturnTickets(ctx, ReturnTicketFilter{ProductReturnID: requestID})
	if err != nil {
		return err
	}
	for i := range tickets {
		if ReturnTicketMachine.Terminal(tickets[i].Status) {
			continue
		}
		tickets[i].Status = TicketCanceled
		tickets[i].UpdatedAt = now
		if err := tx.UpdateReturnTicket(ctx, &tickets[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *returnService) UpdateReturnTicketStatus(ctx context.Context, actor Actor, ticketID, status string) (*ReturnTicket, error) {
	if !actor.IsStaff() {
		return nil, invalidf("only staff may change the status of a return ticket")
	}
	to, err := ReturnTicketMachine.Parse(status)
	if err != nil {
		return nil, err
	}

	var ticket *ReturnTicket
	var from ReturnTicketStatus
	err = runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		ticket, err = tx.LockReturnTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		from = ticket.Status
		if err := ReturnTicketMachine.Check(from, to); err != nil {
			return err
		}
		now := s.settings.Now()

		switch to {
		case TicketReturned:
			if err := s.completeReturnTx(ctx, tx, ticket, now); err != nil {
				return err
			}
		case TicketCanceled:
			req, err := tx.LockReturnRequest(ctx, ticket.ProductReturnID)
			if err != nil {
				return err
			}
			if !ReturnRequestMachine.Terminal(req.Status) {
				req.Status = ReturnRejected
				req.UpdatedAt = now
				if err := tx.UpdateReturnRequest(ctx, req); err != nil {
					return err
				}
			}
		}

		ticket.Status = to
		ticket.UpdatedAt = now
		return tx.UpdateReturnTicket(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("return ticket status changed",
		zap.String("ticket_id", ticket.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", actor.UserID),
	)
	return ticket, nil
}

// completeReturnTx closes the request, puts the unit back on the shelf and
// marks the originating order line as returned.
func (s *returnService) completeReturnTx(ctx context.Context, tx Tx, ticket *ReturnTicket, now time.Time) error {
	req, err := tx.LockReturnRequest(ctx, ticket.ProductReturnID)
	if err != nil {
		return err
	}
	if err := ReturnRequestMachine.Check(req.Status, ReturnCompleted); err != nil {
		return err
	}
	req.Status = ReturnCompleted
	req.UpdatedAt = now
	if err := tx.UpdateReturnRequest(ctx, req); err != nil {
		return err
	}

	if err := s.units.ResetAfterReturnTx(ctx, tx, ticket.ProductIdentityID); err != nil {
		return err
	}

	detail, err := tx.GetOrderDetail(ctx, ticket.OrderDetailID)
	if err != nil {
		return err
	}
	detail.ReturnStatus = true
	return tx.UpdateOrderDetail(ctx, detail)
}

func (s *returnService) GetReturnRequest(ctx context.Context, actor Actor, requestID string) (*ProductReturn, error) {
	var req *ProductReturn
	err := runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		var err error
		req, err = tx.GetReturnRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if !actor.IsStaff() && req.UserID != actor.UserID {
			return notFoundf("return request %s not found", requestID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *returnService) ListReturnRequests(ctx context.Context, actor Actor, f ReturnFilter) ([]ProductReturn, error) {
	if !actor.IsStaff() {
		f.UserID = actor.UserID
	}
	var out []ProductReturn
	err := runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListReturnRequests(ctx, f)
		return err
	})
	return out, err
}

func (s *returnService) ListReturnTickets(ctx context.Context, actor Actor, f ReturnTicketFilter) ([]ReturnTicket, error) {
	if !actor.IsStaff() {
		return nil, invalidf("only staff may list return tickets")
	}
	var out []ReturnTicket
	err := runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListReturnTickets(ctx, f)
		return err
	})
	return out, err
}

// sale is a sold unit together with the order line and order that hold it.
type sale struct {
	unit   *ProductIdentity
	detail *OrderDetail
	order  *Order
}

// ownedSaleTx locks a sold unit and verifies the actor bought it.
func ownedSaleTx(ctx context.Context, tx Tx, actor Actor, unitID string) (*sale, error) {
	unit, err := tx.LockUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if !unit.IsSold {
		return nil, invalidf("unit %s has not been sold", unit.ID)
	}
	detail, err := tx.FindSaleForUnit(ctx, unit.ID)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return nil, invalidf("unit %s has no order record", unit.ID)
		}
		return nil, err
	}
	order, err := tx.GetOrder(ctx, detail.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.UserID {
		return nil, invalidf("unit %s was not purchased by user %s", unit.ID, actor.UserID)
	}
	return &sale{unit: unit, detail: detail, order: order}, nil
}

// deliveredAt falls back to the last update for orders delivered before the
// timestamp was recorded.
func deliveredAt(o *Order) time.Time {
	if o.DeliveredAt != nil {
		return *o.DeliveredAt
	}
	return o.UpdatedAt
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return invalidf("missing required fields: %s", strings.Join(missing, ", "))
}
