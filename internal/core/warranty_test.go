package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phone-store/internal/core"
)

func TestWarrantyService_FullRepairKeepsUnitSold(t *testing.T) {
	f := newFixture(t)
	_, unitID := f.deliveredUnit(t)
	before := f.unit(t, unitID)

	f.clock.Advance(30 * 24 * time.Hour)
	req, err := f.warranty.CreateWarrantyRequest(f.ctx, alice, warrantyInput(unitID))
	require.NoError(t, err)
	assert.Equal(t, core.WarrantyRequestPending, req.Status)

	decision, err := f.warranty.UpdateWarrantyRequestStatus(f.ctx, staff, req.ID, "Approved")
	require.NoError(t, err)
	assert.Equal(t, core.WarrantyRequestCompleted, decision.Request.Status, "approval completes the request")
	w := decision.Warranty
	require.NotNil(t, w)
	assert.Equal(t, core.WarrantyRequested, w.Status)
	assert.Equal(t, req.ID, w.WarrantyRequestID)
	assert.Equal(t, *before.WarrantyStartDate, w.StartDate)
	assert.Equal(t, *before.WarrantyEndDate, w.EndDate)
	assert.Equal(t, 1, f.unit(t, unitID).WarrantyCount)

	for _, status := range []string{"Processing", "Repairing", "Repaired", "Returned"} {
		w, err = f.warranty.UpdateWarrantyStatus(f.ctx, staff, w.ID, status)
		require.NoError(t, err, status)
	}

	after := f.unit(t, unitID)
	assert.True(t, after.IsSold)
	assert.Equal(t, *before.WarrantyStartDate, *after.WarrantyStartDate)
	assert.Equal(t, *before.WarrantyEndDate, *after.WarrantyEndDate)

	// A finished repair frees the unit for another claim.
	second, err := f.warranty.CreateWarrantyRequest(f.ctx, alice, warrantyInput(unitID))
	require.NoError(t, err)
	_, err = f.warranty.UpdateWarrantyRequestStatus(f.ctx, admin, second.ID, "Approved")
	require.NoError(t, err)
	assert.Equal(t, 2, f.unit(t, unitID).WarrantyCount)
}

func TestWarrantyService_CreateWarrantyRequestEligibility(t *testing.T) {
	t.Run("no warranty window before delivery", func(t *testing.T) {
		f := newFixture(t)
		f.stock(t, iphone, black, 1)
		order, err := f.checkout(t, alice, aliceCart, "Online", cartLine{iphone, black, 1})
		require.NoError(t, err)
		_, err = f.warranty.CreateWarrantyRequest(f.ctx, alice, warrantyInput(order.Details[0].ProductIdentityID))
		requireKind(t, err, core.KindInvalid)
		assert.Contains(t, err.Error(), "no warranty window")
	})

	t.Run("out of warranty", func(t *testing.T) {
		f := newFixture(t)
		_, unitID := f.deliveredUnit(t)
		f.clock.Advance(13 * 30 * 24 * time.Hour)
		_, err := f.warranty.CreateWarrantyRequest(f.ctx, alice, warrantyInput(unitID))
		requireKind(t, err, core.KindInvalid)
		assert.Contains(t, err.Error(), "out of warranty")
	})

	t.Run("missing description", func(t *testing.T) {
		f := newFixture(t)
		_, unitID := f.deliveredUnit(t)
		in := warrantyInput(unitID)
		in.Description = ""
		_, err := f.warranty.CreateWarrantyRequest(f.ctx, alice, in)
		requireKind(t, err, core.KindInvalid)
		assert.Contains(t, err.Error(), "description")
	})

	t.Run("another customer's unit", func(t *testing.T) {
		f := newFixture(t)
		_, unitID := f.deliveredUnit(t)
		_, err := f.warranty.CreateWarrantyRequest(f.ctx, bob, warrantyInput(unitID))
		requireKind(t, err, core.KindInvalid)
	})
}

func TestWarrantyService_ReturnAndWarrantyExcludeEachOther(t *testing.T) {
	t.Run("active return blocks a warranty claim", func(t *testing.T) {
		f := newFixture(t)
		_, unitID := f.deliveredUnit(t)
		_, err := f.returns.CreateReturnRequest(f.ctx, alice, returnInput(unitID))
		require.NoError(t, err)

		_, err = f.warranty.CreateWarrantyRequest(f.ctx, alice, warrantyInput(unitID))
		requireKind(t, err, core.KindInvalid)
		assert.Contains(t, err.Error(), "active return request")
	})

	t.Run("open repair blocks a return", func(t *testing.T) {
		f := newFixture(t)
		_, unitID := f.deliveredUnit(t)
		req, err := f.warranty.CreateWarrantyRequest(f.ctx, alice, warrantyInput(unitID))
		require.NoError(t, err)
		_, err = f.warranty.UpdateWarrantyRequestStatus(f.ctx, staff, req.ID, "Approved")
		require.NoError(t, err)

		_, err = f.returns.CreateReturnRequest(f.ctx, alice, returnInput(unitID))
		requireKind(t, err, core.KindInvalid)
		assert.Contains(t, err.Error(), "under warranty service")
	})

	t.Run("open repair blocks order cancellation", func(t *testing.T) {
		f := newFixture(t)
		order, unitID := f.deliveredUnit(t)
		req, err := f.warranty.CreateWarrantyRequest(f.ctx, alice, warrantyInput(unitID))
		require.NoError(t, err)
		_, err = f.warranty.UpdateWarrantyRequestStatus(f.ctx, staff, req.ID, "Approved")
		require.NoError(t, err)

		_, err = f.orders.UpdateOrderStatus(f.ctx, staff, order.ID, "Canceled")
		requireKind(t, err, core.KindInvalid)
	})
}

func TestWarrantyService_RequestTransitions(t *testing.T) {
	t.Run("owner may cancel a pending request", func(t *testing.T) {
		f := newFixture(t)
		_, unitID := f.deliveredUnit(t)
		req, err := f.warranty.CreateWarrantyRequest(f.ctx, alice, warrantyInput(unitID))
		require.NoError(t, err)

		_, err = f.warranty.UpdateWarrantyRequestStatus(f.ctx, alice, req.ID, "Approved")
		requireKind(t, err, core.KindInvalid)

		_, err = f.warranty.UpdateWarrantyRequestStatus(f.ctx, bob, req.ID, "Canceled")
		requireKind(t, err, core.KindNotFound)

		decision, err := f.warranty.UpdateWarrantyRequestStatus(f.ctx, alice, req.ID, "canceled")
		require.NoError(t, err)
		assert.Equal(t, core.WarrantyRequestCanceled, decision.Request.Status)
		assert.Nil(t, decision.Warranty)
		assert.Zero(t, f.unit(t, unitID).WarrantyCount)

		_, err = f.warranty.UpdateWarrantyRequestStatus(f.ctx, staff, req.ID, "Approved")
		requireKind(t, err, core.KindInvalid)
	})

	t.Run("staff may reject", func(t *testing.T) {
		f := newFixture(t)
		_, unitID := f.deliveredUnit(t)
		req, err := f.warranty.CreateWarrantyRequest(f.ctx, alice, warrantyInput(unitID))
		require.NoError(t, err)

		decision, err := f.warranty.UpdateWarrantyRequestStatus(f.ctx, staff, req.ID, "Rejected")
		require.NoError(t, err)
		assert.Equal(t, core.WarrantyRequestRejected, decision.Request.Status)

		_, err = f.warranty.CreateWarrantyRequest(f.ctx, alice, warrantyInput(unitID))
		require.NoError(t, err)
	})

	t.Run("unknown request", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.warranty.UpdateWarrantyRequestStatus(f.ctx, staff, "no-such-request", "Rejected")
		requireKind(t, err, core.KindNotFound)
	})
}

func TestWarrantyService_TicketTransitions(t *testing.T) {
	f := newFixture(t)
	_, unitID := f.deliveredUnit(t)
	req, err := f.warranty.CreateWarrantyRequest(f.ctx, alice, warrantyInput(unitID))
	require.NoError(t, err)
	decision, err := f.warranty.UpdateWarrantyRequestStatus(f.ctx, staff, req.ID, "Approved")
	require.NoError(t, err)
	id := decision.Warranty.ID

	_, err = f.warranty.UpdateWarrantyStatus(f.ctx, staff, id, "Repaired")
	requireKind(t, err, core.KindInvalid)

	_, err = f.warranty.UpdateWarrantyStatus(f.ctx, alice, id, "Processing")
	requireKind(t, err, core.KindInvalid)

	w, err := f.warranty.UpdateWarrantyStatus(f.ctx, staff, id, "Canceled")
	require.NoError(t, err)
	assert.Equal(t, core.WarrantyCanceled, w.Status)

	_, err = f.warranty.UpdateWarrantyStatus(f.ctx, staff, id, "Processing")
	requireKind(t, err, core.KindInvalid)

	_, err = f.warranty.UpdateWarrantyStatus(f.ctx, staff, "no-such-warranty", "Processing")
	requireKind(t, err, core.KindNotFound)
}

func TestWarrantyService_Visibility(t *testing.T) {
	f := newFixture(t)
	_, unitID := f.deliveredUnit(t)
	req, err := f.warranty.CreateWarrantyRequest(f.ctx, alice, warrantyInput(unitID))
	require.NoError(t, err)
	_, err = f.warranty.UpdateWarrantyRequestStatus(f.ctx, staff, req.ID, "Approved")
	require.NoError(t, err)

	_, err = f.warranty.GetWarrantyRequest(f.ctx, bob, req.ID)
	requireKind(t, err, core.KindNotFound)

	mine, err := f.warranty.ListWarrantyRequests(f.ctx, alice, core.WarrantyRequestFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = f.warranty.ListWarranties(f.ctx, alice, core.WarrantyFilter{})
	requireKind(t, err, core.KindInvalid)

	tickets, err := f.warranty.ListWarranties(f.ctx, staff, core.WarrantyFilter{WarrantyRequestID: req.ID})
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, unitID, tickets[0].ProductIdentityID)
}
