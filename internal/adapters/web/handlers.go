package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"phone-store/internal/app"
	"phone-store/internal/core"
)

// Handler holds the ApplicationService and the token secret used by RequireAuth.
type Handler struct {
	svc       app.ApplicationService
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes. callbackSecret
// signs the payment gateway's callbacks; see RequireSignature.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret, callbackSecret string, logger *zap.Logger) http.Handler {
	h := &Handler{svc: svc, jwtSecret: jwtSecret}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.With(RequireSignature(callbackSecret)).Post("/payments/callback", h.paymentCallback)

	// ── Authenticated ─────────────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Get("/products/{id}/price", h.getPrice)
		r.Get("/cart/{id}", h.getCart)
		r.Post("/cart/{id}/items", h.addCartItem)

		r.Post("/order", h.createOrder)
		r.Get("/order", h.listOrders)
		r.Get("/order/{id}", h.getOrder)
		r.Patch("/order/{id}/status", h.updateOrderStatus)

		r.Post("/returns/request", h.createReturnRequest)
		r.Get("/returns", h.listReturnRequests)
		r.Get("/returns/ticket", h.listReturnTickets)
		r.Patch("/returns/ticket/{id}/status", h.updateReturnTicketStatus)
		r.Get("/returns/{id}", h.getReturnRequest)
		r.Patch("/returns/{id}/status", h.updateReturnRequestStatus)

		r.Post("/warranty/request", h.createWarrantyRequest)
		r.Get("/warranty/request", h.listWarrantyRequests)
		r.Get("/warranty/request/{id}", h.getWarrantyRequest)
		r.Patch("/warranty/request/{id}/status", h.updateWarrantyRequestStatus)
		r.Get("/warranty", h.listWarranties)
		r.Patch("/warranty/{id}/status", h.updateWarrantyStatus)

		r.Post("/purchase-orders", h.createPurchaseOrder)
		r.Post("/purchase-orders/{id}/receive", h.receivePurchaseOrder)
		r.Delete("/purchase-orders/{id}", h.deletePurchaseOrder)
		r.Get("/units", h.listUnits)
		r.Get("/units/{id}", h.getUnit)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// actor returns the authenticated caller. Routes behind RequireAuth always have one.
func actor(r *http.Request) core.Actor {
	a, _ := actorFromContext(r.Context())
	return a
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

type statusBody struct {
	Status string `json:"status"`
}

// decodeStatus reads a {"status": ...} body.
func decodeStatus(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body statusBody
	if !decodeJSON(w, r, &body) {
		return "", false
	}
	if body.Status == "" {
		writeError(w, r, "status is required", "BAD_REQUEST", http.StatusBadRequest)
		return "", false
	}
	return body.Status, true
}
