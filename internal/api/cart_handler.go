package api

import (
	"context"
	"net/http"

	"galapagosrental/internal/cart"
	"galapagosrental/internal/entities"
	"galapagosrental/internal/pricing"

	"github.com/gorilla/mux"
)

type CartService interface {
	Items(ctx context.Context, session string) ([]cart.Item, error)
	Add(ctx context.Context, session string, productID, quantity int) ([]cart.Item, error)
	UpdateQuantity(ctx context.Context, session string, productID, quantity int) ([]cart.Item, error)
	Remove(ctx context.Context, session string, productID int) ([]cart.Item, error)
	SetSchedule(ctx context.Context, session string, sched pricing.Schedule) ([]cart.Item, error)
	Clear(ctx context.Context, session string) error
	Quote(ctx context.Context, session string) (pricing.Quote, error)
}

// CartHandler expone el carrito por sesión. El id de sesión lo elige el cliente.
type CartHandler struct {
	Service CartService
}

func NewCartHandler(svc CartService) *CartHandler {
	return &CartHandler{Service: svc}
}

func session(r *http.Request) string {
	return mux.Vars(r)["session"]
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.Items(r.Context(), session(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req entities.CartItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.Service.Add(r.Context(), session(r), req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt(r, "productID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req entities.CartItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.Service.UpdateQuantity(r.Context(), session(r), productID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt(r, "productID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.Service.Remove(r.Context(), session(r), productID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CartHandler) SetSchedule(w http.ResponseWriter, r *http.Request) {
	// Leemos fechas, horas, isla de retorno y pickup del cuerpo
	var sched pricing.Schedule
	if err := decode(r, &sched); err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.Service.SetSchedule(r.Context(), session(r), sched)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Clear(r.Context(), session(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}

func (h *CartHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q, err := h.Service.Quote(r.Context(), session(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
