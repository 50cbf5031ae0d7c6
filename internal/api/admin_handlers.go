package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"galapagosrental/internal/db"
	"galapagosrental/internal/entities"
	apperrors "galapagosrental/internal/errors"
	"galapagosrental/internal/lifecycle"
	"galapagosrental/internal/repository"
	"galapagosrental/internal/service"
)

type ReviewJobs interface {
	ReviewCandidates(ctx context.Context, now time.Time) ([]db.RentalOrder, error)
	SendReviewEmail(ctx context.Context, orderID int, now time.Time) (*service.EmailReport, error)
}

type ContentAdmin interface {
	ListTemplates(ctx context.Context, templateType string) ([]db.EmailTemplate, error)
	CreateTemplate(ctx context.Context, t *db.EmailTemplate) error
	UpdateTemplate(ctx context.Context, t *db.EmailTemplate) error
	DeleteTemplate(ctx context.Context, id int) error
	AddGalleryImage(ctx context.Context, img *db.GalleryImage) error
	DeleteGalleryImage(ctx context.Context, id int) error
}

type AdminHandler struct {
	Orders  OrderService
	Jobs    ReviewJobs
	Content ContentAdmin
	now     func() time.Time
}

func NewAdminHandler(orders OrderService, jobs ReviewJobs, content ContentAdmin) *AdminHandler {
	return &AdminHandler{Orders: orders, Jobs: jobs, Content: content, now: time.Now}
}

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.OrderFilter{
		PaymentStatus: q.Get("payment_status"),
		Search:        q.Get("search"),
		Limit:         queryInt(r, "limit", 50),
		Offset:        queryInt(r, "offset", 0),
	}
	if s := q.Get("status"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || !lifecycle.Status(n).Valid() {
			writeError(w, r, apperrors.BadRequest("Invalid status"))
			return
		}
		status := lifecycle.Status(n)
		f.Status = &status
	}
	orders, err := h.Orders.ListOrders(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.OrdersList{Limit: f.Limit, Offset: f.Offset, Orders: orders})
}

func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req entities.StatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	to := lifecycle.Status(req.Status)
	if !to.Valid() {
		writeError(w, r, apperrors.BadRequest("Invalid status"))
		return
	}
	order, err := h.Orders.UpdateStatus(r.Context(), id, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *AdminHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	order, err := h.Orders.Refund(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *AdminHandler) SendReviewEmail(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.Jobs.SendReviewEmail(r.Context(), id, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *AdminHandler) ApproveReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Orders.ApproveReview(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Review approved"})
}

func (h *AdminHandler) ReviewCandidates(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Jobs.ReviewCandidates(r.Context(), h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *AdminHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Content.ListTemplates(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *AdminHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var t db.EmailTemplate
	if err := decode(r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Content.CreateTemplate(r.Context(), &t); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *AdminHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var t db.EmailTemplate
	if err := decode(r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	t.ID = id
	if err := h.Content.UpdateTemplate(r.Context(), &t); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *AdminHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Content.DeleteTemplate(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Template deleted"})
}

func (h *AdminHandler) AddGalleryImage(w http.ResponseWriter, r *http.Request) {
	var img db.GalleryImage
	if err := decode(r, &img); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Content.AddGalleryImage(r.Context(), &img); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, img)
}

func (h *AdminHandler) DeleteGalleryImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Content.DeleteGalleryImage(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Image deleted"})
}
