package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"phone-store/internal/app"
)

// getPrice handles GET /products/{id}/price.
func (h *Handler) getPrice(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.QuotePrice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}

// getCart handles GET /cart/{id}.
func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetCart(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}

// addCartItem handles POST /cart/{id}/items.
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductID string `json:"product_id"`
		ColorID   string `json:"color_id"`
		Quantity  int    `json:"quantity"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.AddCartItem(r.Context(), actor(r), app.AddCartItemRequest{
		CartID:    chi.URLParam(r, "id"),
		ProductID: body.ProductID,
		ColorID:   body.ColorID,
		Quantity:  body.Quantity,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, result.Message, result)
}
