package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"phone-store/internal/app"
)

// createWarrantyRequest handles POST /warranty/request.
func (h *Handler) createWarrantyRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductIdentityID string `json:"product_identity_id"`
		Description       string `json:"description"`
		FullName          string `json:"full_name"`
		PhoneNumber       string `json:"phone_number"`
		Address           string `json:"address"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.CreateWarrantyRequest(r.Context(), actor(r), app.CreateWarrantyRequest{
		ProductIdentityID: body.ProductIdentityID,
		Description:       body.Description,
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

func (h *Handler) listWarrantyRequests(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListWarrantyRequests(r.Context(), actor(r), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}

func (h *Handler) getWarrantyRequest(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetWarrantyRequest(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}

// updateWarrantyRequestStatus handles PATCH /warranty/request/{id}/status.
// Owners may send Canceled; every other status is staff-only.
func (h *Handler) updateWarrantyRequestStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	result, err := h.svc.UpdateWarrantyRequestStatus(r.Context(), actor(r), chi.URLParam(r, "id"), status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}

func (h *Handler) listWarranties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.ListWarranties(r.Context(), actor(r), q.Get("request_id"), q.Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}

// updateWarrantyStatus handles PATCH /warranty/{id}/status.
func (h *Handler) updateWarrantyStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	result, err := h.svc.UpdateWarrantyStatus(r.Context(), actor(r), chi.URLParam(r, "id"), status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}
