package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"phone-store/internal/app"
)

// createReturnRequest handles POST /returns/request.
func (h *Handler) createReturnRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductIdentityID string `json:"product_identity_id"`
		Reason            string `json:"reason"`
		FullName          string `json:"full_name"`
		PhoneNumber       string `json:"phone_number"`
		Address           string `json:"address"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.CreateReturnRequest(r.Context(), actor(r), app.CreateReturnRequest{
		ProductIdentityID: body.ProductIdentityID,
		Reason:            body.Reason,
		FullName:          body.FullName,
		PhoneNumber:       body.PhoneNumber,
		Address:           body.Address,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, result.Message, result)
}

// listReturnRequests handles GET /returns?status=.
func (h *Handler) listReturnRequests(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListReturnRequests(r.Context(), actor(r), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}

// getReturnRequest handles GET /returns/{id}.
func (h *Handler) getReturnRequest(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetReturnRequest(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}

// updateReturnRequestStatus handles PATCH /returns/{id}/status.
func (h *Handler) updateReturnRequestStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	result, err := h.svc.UpdateReturnRequestStatus(r.Context(), actor(r), chi.URLParam(r, "id"), status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}

// listReturnTickets handles GET /returns/ticket?request_id=&status=.
func (h *Handler) listReturnTickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.ListReturnTickets(r.Context(), actor(r), q.Get("request_id"), q.Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}

// updateReturnTicketStatus handles PATCH /returns/ticket/{id}/status.
func (h *Handler) updateReturnTicketStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	result, err := h.svc.UpdateReturnTicketStatus(r.Context(), actor(r), chi.URLParam(r, "id"), status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}
