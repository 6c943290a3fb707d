package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"phone-store/internal/app"
)

// createPurchaseOrder handles POST /purchase-orders.
func (h *Handler) createPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SupplierID string `json:"supplier_id"`
		Lines      []struct {
			ProductID string `json:"product_id"`
			ColorID   string `json:"color_id"`
			Quantity  int    `json:"quantity"`
			UnitCost  string `json:"unit_cost"`
		} `json:"lines"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.CreatePurchaseOrderRequest{SupplierID: body.SupplierID}
	for i, l := range body.Lines {
		cost := decimal.Zero
		if l.UnitCost != "" {
			var err error
			cost, err = decimal.NewFromString(l.UnitCost)
			if err != nil {
				writeError(w, r, fmt.Sprintf("line %d: invalid unit_cost", i+1), "BAD_REQUEST", http.StatusBadRequest)
				return
			}
		}
		req.Lines = append(req.Lines, app.PurchaseOrderLineInput{
			ProductID: l.ProductID,
			ColorID:   l.ColorID,
			Quantity:  l.Quantity,
			UnitCost:  cost,
		})
	}

	result, err := h.svc.CreatePurchaseOrder(r.Context(), actor(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, result.Message, result)
}

// receivePurchaseOrder handles POST /purchase-orders/{id}/receive.
func (h *Handler) receivePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Units []struct {
			LineID string `json:"line_id"`
			IMEI   string `json:"imei"`
		} `json:"units"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.ReceivePurchaseOrderRequest{PurchaseOrderID: chi.URLParam(r, "id")}
	for _, u := range body.Units {
		req.Units = append(req.Units, app.ReceivedUnitInput{LineID: u.LineID, IMEI: u.IMEI})
	}
	result, err := h.svc.ReceivePurchaseOrder(r.Context(), actor(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}

// deletePurchaseOrder handles DELETE /purchase-orders/{id}.
func (h *Handler) deletePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.DeletePurchaseOrder(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, nil)
}

// listUnits handles GET /units?product_id=&color_id=&available=.
func (h *Handler) listUnits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := app.ListUnitsRequest{ProductID: q.Get("product_id"), ColorID: q.Get("color_id")}
	if v := q.Get("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, "available must be true or false", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		req.AvailableOnly = available
	}
	result, err := h.svc.ListUnits(r.Context(), actor(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}

// getUnit handles GET /units/{id}.
func (h *Handler) getUnit(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetUnit(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result.Message, result)
}
