package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phone-store/internal/core"
)

// assertTable checks every (from, to) pair of m against the allowed edges.
func assertTable[S ~string](t *testing.T, m core.Machine[S], allowed [][2]S) {
	t.Helper()
	want := map[[2]S]bool{}
	for _, e := range allowed {
		want[e] = true
	}
	for _, from := range m.States() {
		for _, to := range m.States() {
			assert.Equal(t, want[[2]S{from, to}], m.CanTransition(from, to), "%s: %s -> %s", m.Name(), from, to)
		}
	}
}

func TestOrderMachine_CanceledOnlyFromPending(t *testing.T) {
	var allowed [][2]core.OrderStatus
	for _, from := range core.OrderMachine.States() {
		for _, to := range core.OrderMachine.States() {
			switch {
			case from == to, from == core.OrderCanceled:
			case to == core.OrderCanceled && from != core.OrderPending:
			default:
				allowed = append(allowed, [2]core.OrderStatus{from, to})
			}
		}
	}
	assertTable(t, core.OrderMachine, allowed)
	assert.True(t, core.OrderMachine.Terminal(core.OrderCanceled))
	assert.False(t, core.OrderMachine.Terminal(core.OrderDelivered))
}

func TestOrderOwnerMachine_OnlyCancelsPending(t *testing.T) {
	assertTable(t, core.OrderOwnerMachine, [][2]core.OrderStatus{
		{core.OrderPending, core.OrderCanceled},
	})
}

func TestReturnRequestMachine(t *testing.T) {
	assertTable(t, core.ReturnRequestMachine, [][2]core.ReturnRequestStatus{
		{core.ReturnPending, core.ReturnApproved},
		{core.ReturnPending, core.ReturnRejected},
		{core.ReturnApproved, core.ReturnCompleted},
	})
	assert.True(t, core.ReturnRequestMachine.Terminal(core.ReturnRejected))
	assert.True(t, core.ReturnRequestMachine.Terminal(core.ReturnCompleted))
}

func TestReturnTicketMachine(t *testing.T) {
	assertTable(t, core.ReturnTicketMachine, [][2]core.ReturnTicketStatus{
		{core.TicketRequested, core.TicketProcessing},
		{core.TicketRequested, core.TicketCanceled},
		{core.TicketProcessing, core.TicketProcessed},
		{core.TicketProcessing, core.TicketCanceled},
		{core.TicketProcessed, core.TicketReturned},
		{core.TicketProcessed, core.TicketCanceled},
	})
}

func TestWarrantyRequestMachine(t *testing.T) {
	assertTable(t, core.WarrantyRequestMachine, [][2]core.WarrantyRequestStatus{
		{core.WarrantyRequestPending, core.WarrantyRequestApproved},
		{core.WarrantyRequestPending, core.WarrantyRequestRejected},
		{core.WarrantyRequestPending, core.WarrantyRequestCanceled},
		{core.WarrantyRequestApproved, core.WarrantyRequestCompleted},
		{core.WarrantyRequestApproved, core.WarrantyRequestCanceled},
	})
}

func TestWarrantyMachine(t *testing.T) {
	assertTable(t, core.WarrantyMachine, [][2]core.WarrantyStatus{
		{core.WarrantyRequested, core.WarrantyProcessing},
		{core.WarrantyRequested, core.WarrantyCanceled},
		{core.WarrantyProcessing, core.WarrantyRepairing},
		{core.WarrantyProcessing, core.WarrantyCanceled},
		{core.WarrantyRepairing, core.WarrantyRepaired},
		{core.WarrantyRepairing, core.WarrantyCanceled},
		{core.WarrantyRepaired, core.WarrantyReturned},
		{core.WarrantyRepaired, core.WarrantyCanceled},
	})
}

func TestMachine_Parse(t *testing.T) {
	tests := []struct {
		raw     string
		want    core.OrderStatus
		wantErr bool
	}{
		{raw: "Pending", want: core.OrderPending},
		{raw: "delivered", want: core.OrderDelivered},
		{raw: "  SHIPPING ", want: core.OrderShipping},
		{raw: "Lost", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := core.OrderMachine.Parse(tt.raw)
			if tt.wantErr {
				requireKind(t, err, core.KindInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMachine_CheckNamesTheTransition(t *testing.T) {
	err := core.ReturnTicketMachine.Check(core.TicketRequested, core.TicketReturned)
	requireKind(t, err, core.KindInvalid)
	assert.Contains(t, err.Error(), "return ticket cannot transition from Requested to Returned")

	assert.NoError(t, core.ReturnTicketMachine.Check(core.TicketRequested, core.TicketProcessing))
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := core.ParsePaymentMethod("cod")
	require.NoError(t, err)
	assert.Equal(t, core.PaymentCOD, m)

	m, err = core.ParsePaymentMethod("ONLINE")
	require.NoError(t, err)
	assert.Equal(t, core.PaymentOnline, m)

	_, err = core.ParsePaymentMethod("card")
	requireKind(t, err, core.KindInvalid)
}
