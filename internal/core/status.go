package core

import (
	"slices"
	"strings"
)

type (
	OrderStatus           string
	PaymentStatus         string
	PaymentMethod         string
	ReturnRequestStatus   string
	ReturnTicketStatus    string
	WarrantyRequestStatus string
	WarrantyStatus        string
	PurchaseOrderStatus   string
)

const (
	OrderPending   OrderStatus = "Pending"
	OrderConfirmed OrderStatus = "Confirmed"
	OrderShipping  OrderStatus = "Shipping"
	OrderDelivered OrderStatus = "Delivered"
	OrderCanceled  OrderStatus = "Canceled"
)

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
	PaymentFailed    PaymentStatus = "Failed"
)

const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentOnline PaymentMethod = "Online"
)

const (
	ReturnPending   ReturnRequestStatus = "Pending"
	ReturnApproved  ReturnRequestStatus = "Approved"
	ReturnRejected  ReturnRequestStatus = "Rejected"
	ReturnCompleted ReturnRequestStatus = "Completed"
)

const (
	TicketRequested  ReturnTicketStatus = "Requested"
	TicketProcessing ReturnTicketStatus = "Processing"
	TicketProcessed  ReturnTicketStatus = "Processed"
	TicketReturned   ReturnTicketStatus = "Returned"
	TicketCanceled   ReturnTicketStatus = "Canceled"
)

const (
	WarrantyRequestPending   WarrantyRequestStatus = "Pending"
	WarrantyRequestApproved  WarrantyRequestStatus = "Approved"
	WarrantyRequestRejected  WarrantyRequestStatus = "Rejected"
	WarrantyRequestCompleted WarrantyRequestStatus = "Completed"
	WarrantyRequestCanceled  WarrantyRequestStatus = "Canceled"
)

const (
	WarrantyRequested  WarrantyStatus = "Requested"
	WarrantyProcessing WarrantyStatus = "Processing"
	WarrantyRepairing  WarrantyStatus = "Repairing"
	WarrantyRepaired   WarrantyStatus = "Repaired"
	WarrantyReturned   WarrantyStatus = "Returned"
	WarrantyCanceled   WarrantyStatus = "Canceled"
)

const (
	PurchaseOrderPending   PurchaseOrderStatus = "Pending"
	PurchaseOrderReceiving PurchaseOrderStatus = "Receiving"
	PurchaseOrderCompleted PurchaseOrderStatus = "Completed"
)

// Machine is a lifecycle transition table over one status type. States listed
// without outgoing edges are terminal. Self-transitions are never allowed.
type Machine[S ~string] struct {
	name   string
	states []S
	edges  map[S][]S
}

func newMachine[S ~string](name string, states []S, edges map[S][]S) Machine[S] {
	return Machine[S]{name: name, states: states, edges: edges}
}

// Name is the lifecycle name used in error messages.
func (m Machine[S]) Name() string { return m.name }

// States returns every status of the lifecycle in declaration order.
func (m Machine[S]) States() []S { return slices.Clone(m.states) }

// Parse resolves a raw status string, case-insensitively, to its canonical value.
func (m Machine[S]) Parse(raw string) (S, error) {
	trimmed := strings.TrimSpace(raw)
	for _, s := range m.states {
		if strings.EqualFold(string(s), trimmed) {
			return s, nil
		}
	}
	var zero S
	return zero, invalidf("invalid %s status %q", m.name, raw)
}

// CanTransition reports whether the table has an edge from -> to.
func (m Machine[S]) CanTransition(from, to S) bool {
	if from == to {
		return false
	}
	return slices.Contains(m.edges[from], to)
}

// Check returns a KindInvalid error when from -> to is not in the table.
func (m Machine[S]) Check(from, to S) error {
	if m.CanTransition(from, to) {
		return nil
	}
	return invalidf("%s cannot transition from %s to %s", m.name, from, to)
}

// Terminal reports whether s has no outgoing transitions.
func (m Machine[S]) Terminal(s S) bool {
	return len(m.edges[s]) == 0
}

// OrderMachine is the staff table. Staff may move an order between any two
// live statuses, but Canceled is reachable only from Pending and is terminal.
var OrderMachine = newMachine("order",
	[]OrderStatus{OrderPending, OrderConfirmed, OrderShipping, OrderDelivered, OrderCanceled},
	map[OrderStatus][]OrderStatus{
		OrderPending:   {OrderConfirmed, OrderShipping, OrderDelivered, OrderCanceled},
		OrderConfirmed: {OrderPending, OrderShipping, OrderDelivered},
		OrderShipping:  {OrderPending, OrderConfirmed, OrderDelivered},
		OrderDelivered: {OrderPending, OrderConfirmed, OrderShipping},
	},
)

// OrderOwnerMachine is what a customer may do with their own order.
var OrderOwnerMachine = newMachine("order",
	OrderMachine.states,
	map[OrderStatus][]OrderStatus{
		OrderPending: {OrderCanceled},
	},
)

var ReturnRequestMachine = newMachine("return request",
	[]ReturnRequestStatus{ReturnPending, ReturnApproved, ReturnRejected, ReturnCompleted},
	map[ReturnRequestStatus][]ReturnRequestStatus{
		ReturnPending:  {ReturnApproved, ReturnRejected},
		ReturnApproved: {ReturnCompleted},
	},
)

var ReturnTicketMachine = newMachine("return ticket",
	[]ReturnTicketStatus{TicketRequested, TicketProcessing, TicketProcessed, TicketReturned, TicketCanceled},
	map[ReturnTicketStatus][]ReturnTicketStatus{
		TicketRequested:  {TicketProcessing, TicketCanceled},
		TicketProcessing: {TicketProcessed, TicketCanceled},
		TicketProcessed:  {TicketReturned, TicketCanceled},
	},
)

var WarrantyRequestMachine = newMachine("warranty request",
	[]WarrantyRequestStatus{WarrantyRequestPending, WarrantyRequestApproved, WarrantyRequestRejected, WarrantyRequestCompleted, WarrantyRequestCanceled},
	map[WarrantyRequestStatus][]WarrantyRequestStatus{
		WarrantyRequestPending:  {WarrantyRequestApproved, WarrantyRequestRejected, WarrantyRequestCanceled},
		WarrantyRequestApproved: {WarrantyRequestCompleted, WarrantyRequestCanceled},
	},
)

var WarrantyMachine = newMachine("warranty",
	[]WarrantyStatus{WarrantyRequested, WarrantyProcessing, WarrantyRepairing, WarrantyRepaired, WarrantyReturned, WarrantyCanceled},
	map[WarrantyStatus][]WarrantyStatus{
		WarrantyRequested:  {WarrantyProcessing, WarrantyCanceled},
		WarrantyProcessing: {WarrantyRepairing, WarrantyCanceled},
		WarrantyRepairing:  {WarrantyRepaired, WarrantyCanceled},
		WarrantyRepaired:   {WarrantyReturned, WarrantyCanceled},
	},
)

// ParsePaymentMethod accepts COD or Online.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch {
	case strings.EqualFold(raw, string(PaymentCOD)):
		return PaymentCOD, nil
	case strings.EqualFold(raw, string(PaymentOnline)):
		return PaymentOnline, nil
	}
	return "", invalidf("invalid payment method %q: must be COD or Online", raw)
}
