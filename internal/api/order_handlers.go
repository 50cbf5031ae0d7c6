package api

import (
	"context"
	"net/http"

	"galapagosrental/internal/db"
	"galapagosrental/internal/entities"
	"galapagosrental/internal/lifecycle"
	"galapagosrental/internal/repository"
	"galapagosrental/internal/service"
)

type OrderService interface {
	Authorize(ctx context.Context, id int, uid string) error
	GetOrder(ctx context.Context, id int, lang string) (*service.OrderDetails, error)
	ListOrders(ctx context.Context, f repository.OrderFilter) ([]db.RentalOrder, error)
	UpdateStatus(ctx context.Context, id int, to lifecycle.Status) (*db.RentalOrder, error)
	SaveSizes(ctx context.Context, id int, sizes map[int][]string) (*service.OrderDetails, error)
	Finalize(ctx context.Context, id int) (*db.RentalOrder, error)
	SubmitReview(ctx context.Context, id int, text string, stars int) error
	ApproveReview(ctx context.Context, id int) error
	Refund(ctx context.Context, id int) (*db.RentalOrder, error)
}

type OrderMailer interface {
	SendOrderEmails(ctx context.Context, orderID int) (*service.EmailReport, error)
}

// OrderHandler serves the customer-facing order pages.
type OrderHandler struct {
	Service OrderService
	Mailer  OrderMailer
}

func NewOrderHandler(svc OrderService, mailer OrderMailer) *OrderHandler {
	return &OrderHandler{Service: svc, Mailer: mailer}
}

// orderID lee el id de la ruta y valida el uid del cliente en el query string
func (h *OrderHandler) orderID(r *http.Request) (int, error) {
	id, err := pathInt(r, "id")
	if err != nil {
		return 0, err
	}
	if err := h.Service.Authorize(r.Context(), id, r.URL.Query().Get("uid")); err != nil {
		return 0, err
	}
	return id, nil
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := h.orderID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	details, err := h.Service.GetOrder(r.Context(), id, r.URL.Query().Get("lang"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// SendEmails is called by the confirmation page; repeated calls are no-ops.
func (h *OrderHandler) SendEmails(w http.ResponseWriter, r *http.Request) {
	id, err := h.orderID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.Mailer.SendOrderEmails(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *OrderHandler) SaveSizes(w http.ResponseWriter, r *http.Request) {
	id, err := h.orderID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req entities.SizesRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	details, err := h.Service.SaveSizes(r.Context(), id, req.Sizes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *OrderHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, err := h.orderID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	order, err := h.Service.Finalize(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	id, err := h.orderID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req entities.ReviewRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.SubmitReview(r.Context(), id, req.Text, req.Stars); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Review saved"})
}
