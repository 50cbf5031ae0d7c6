package api

import (
	"context"
	"net/http"
	"time"

	"galapagosrental/internal/service"
)

type CheckoutService interface {
	CreateReference(ctx context.Context, req service.CheckoutRequest) (*service.ReferenceResult, error)
	CompleteCheckout(ctx context.Context, req service.CompleteRequest) (*service.CheckoutResult, error)
}

// ServerClock is the time source the payment widget signs its token with.
type ServerClock interface {
	ServerTime() time.Time
}

type CheckoutHandler struct {
	Service CheckoutService
	Clock   ServerClock
}

func NewCheckoutHandler(svc CheckoutService, clock ServerClock) *CheckoutHandler {
	return &CheckoutHandler{Service: svc, Clock: clock}
}

func (h *CheckoutHandler) ServerTime(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"unix_timestamp": h.Clock.ServerTime().Unix()})
}

func (h *CheckoutHandler) CreateReference(w http.ResponseWriter, r *http.Request) {
	var req service.CheckoutRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Service.CreateReference(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Complete registra el resultado del widget. Una tarjeta rechazada igual
// responde 200 con approved=false y un mensaje para el cliente.
func (h *CheckoutHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req service.CompleteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Service.CompleteCheckout(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
