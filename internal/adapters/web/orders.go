package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"phone-store/internal/app"
)

// createOrder handles POST /order.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CartID        string   `json:"cart_id"`
		CartItemIDs   []string `json:"cart_item_ids"`
		Address       string   `json:"address"`
		PaymentMethod string   `json:"payment_method"`
		Note          string   `json:"note"`
		PhoneNumber   string   `json:"phone_number"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.CartID == "" {
		writeError(w, r, "cart_id is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), actor(r), app.CreateOrderRequest{
		CartID:        body.CartID,
		CartItemIDs:   body.CartItemIDs,
		Address:       body.Address,
		PaymentMethod: body.PaymentMethod,
		Note:          body.Note,
		PhoneNumber:   body.PhoneNumber,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, result.Message, result)
}

// listOrders handles GET /order?status=.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListOrders(r.Context(), actor(r), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}

// getOrder handles GET /order/{id}.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetOrder(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}

// updateOrderStatus handles PATCH /order/{id}/status.
func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	result, err := h.svc.UpdateOrderStatus(r.Context(), actor(r), chi.URLParam(r, "id"), status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}

// paymentCallback handles POST /payments/callback from the payment gateway.
func (h *Handler) paymentCallback(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderID string `json:"order_id"`
		Success *bool  `json:"success"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.OrderID == "" || body.Success == nil {
		writeError(w, r, "order_id and success are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.RecordPayment(r.Context(), app.PaymentCallbackRequest{
		OrderID: body.OrderID,
		Success: *body.Success,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}
