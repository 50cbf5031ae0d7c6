package service

import (
	"context"
	"fmt"
	"time"

	"galapagosrental/internal/cart"
	"galapagosrental/internal/db"
	apperrors "galapagosrental/internal/errors"
	"galapagosrental/internal/pricing"
	"galapagosrental/internal/repository"
)

type QuoteItem struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

type QuoteRequest struct {
	Schedule pricing.Schedule `json:"schedule"`
	Items    []QuoteItem      `json:"items"`
}

type PublicReview struct {
	FirstName   string    `json:"first_name"`
	Stars       int       `json:"stars"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// CatalogService serves the storefront reference data and prices carts
// against current product rows.
type CatalogService struct {
	catalog   repository.CatalogRepository
	admin     repository.AdminRepository
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	opts      pricing.Options
}

func NewCatalogService(catalog repository.CatalogRepository, admin repository.AdminRepository,
	orders repository.OrderRepository, customers repository.CustomerRepository, opts pricing.Options) *CatalogService {
	return &CatalogService{catalog: catalog, admin: admin, orders: orders, customers: customers, opts: opts}
}

func (s *CatalogService) Products(ctx context.Context) ([]db.Product, error) {
	return s.catalog.ListProducts(ctx, true)
}

func (s *CatalogService) Fees(ctx context.Context) ([]db.AdditionalFee, error) {
	return s.catalog.ListFees(ctx, true)
}

func (s *CatalogService) Gallery(ctx context.Context) ([]db.GalleryImage, error) {
	return s.admin.ListGallery(ctx, true)
}

func (s *CatalogService) Reviews(ctx context.Context) ([]PublicReview, error) {
	orders, err := s.orders.ListApprovedReviews(ctx, 20)
	if err != nil {
		return nil, err
	}
	reviews := make([]PublicReview, 0, len(orders))
	for _, o := range orders {
		if o.ReviewText == nil || o.ReviewStars == nil || o.ReviewSubmittedAt == nil {
			continue
		}
		r := PublicReview{Stars: *o.ReviewStars, Text: *o.ReviewText, SubmittedAt: *o.ReviewSubmittedAt}
		if c, err := s.customers.GetByID(ctx, o.CustomerID); err == nil {
			r.FirstName = c.FirstName
		}
		reviews = append(reviews, r)
	}
	return reviews, nil
}

// Product returns an active product or a 404.
func (s *CatalogService) Product(ctx context.Context, id int) (db.Product, error) {
	products, err := s.catalog.GetProductsByIDs(ctx, []int{id})
	if err != nil {
		return db.Product{}, err
	}
	p, ok := products[id]
	if !ok || !p.Active {
		return db.Product{}, apperrors.NotFound(fmt.Sprintf("product %d not found", id))
	}
	return p, nil
}

func (s *CatalogService) Quote(ctx context.Context, req QuoteRequest) (pricing.Quote, error) {
	items := make([]cart.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, cart.Item{Product: db.Product{ID: it.ProductID}, Quantity: it.Quantity})
	}
	return s.quote(ctx, normalizeSchedule(req.Schedule), items)
}

// QuoteItems prices cart items with current prices, not the snapshot stored in the cart.
func (s *CatalogService) QuoteItems(ctx context.Context, items []cart.Item) (pricing.Quote, error) {
	return s.quote(ctx, cart.ScheduleOf(items), items)
}

// Lines resolves cart items to priced lines using current product rows.
func (s *CatalogService) Lines(ctx context.Context, items []cart.Item) ([]pricing.Line, error) {
	ids := make([]int, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.Product.ID)
	}
	products, err := s.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		p, ok := products[it.Product.ID]
		if !ok || !p.Active {
			return nil, apperrors.BadRequest(fmt.Sprintf("product %d is no longer available", it.Product.ID))
		}
		if it.Quantity < 1 {
			return nil, apperrors.BadRequest("quantity must be at least 1")
		}
		lines = append(lines, pricing.Line{Product: p, Quantity: it.Quantity})
	}
	return lines, nil
}

func (s *CatalogService) quote(ctx context.Context, sched pricing.Schedule, items []cart.Item) (pricing.Quote, error) {
	lines, err := s.Lines(ctx, items)
	if err != nil {
		return pricing.Quote{}, err
	}
	fees, err := s.catalog.ListFees(ctx, true)
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Calculate(sched, lines, fees, s.opts), nil
}
