package api

import (
	"context"
	"net/http"

	"galapagosrental/internal/db"
	"galapagosrental/internal/pricing"
	"galapagosrental/internal/service"
)

type CatalogService interface {
	Products(ctx context.Context) ([]db.Product, error)
	Fees(ctx context.Context) ([]db.AdditionalFee, error)
	Gallery(ctx context.Context) ([]db.GalleryImage, error)
	Reviews(ctx context.Context) ([]service.PublicReview, error)
	Quote(ctx context.Context, req service.QuoteRequest) (pricing.Quote, error)
}

// CatalogHandler serves the public storefront data.
type CatalogHandler struct {
	Service CatalogService
}

func NewCatalogHandler(svc CatalogService) *CatalogHandler {
	return &CatalogHandler{Service: svc}
}

func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.Products(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) Fees(w http.ResponseWriter, r *http.Request) {
	fees, err := h.Service.Fees(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fees)
}

func (h *CatalogHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	images, err := h.Service.Gallery(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

func (h *CatalogHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.Service.Reviews(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *CatalogHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req service.QuoteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.Service.Quote(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
