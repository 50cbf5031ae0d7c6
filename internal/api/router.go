package api

import (
	"net/http"

	"galapagosrental/internal/auth"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Catalog   *CatalogHandler
	Cart      *CartHandler
	Checkout  *CheckoutHandler
	Orders    *OrderHandler
	Admin     *AdminHandler
	AdminAuth *AdminAuthHandler
}

// NewRouter registers every route. Routes under /admin, except login, need an admin JWT.
func NewRouter(h Handlers, jwtSecret string) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLogger)

	// Public endpoints
	r.HandleFunc("/api/products", h.Catalog.Products).Methods("GET")
	r.HandleFunc("/api/fees", h.Catalog.Fees).Methods("GET")
	r.HandleFunc("/api/quote", h.Catalog.Quote).Methods("POST")
	r.HandleFunc("/api/gallery", h.Catalog.Gallery).Methods("GET")
	r.HandleFunc("/api/reviews", h.Catalog.Reviews).Methods("GET")

	r.HandleFunc("/api/cart/{session}", h.Cart.Get).Methods("GET")
	r.HandleFunc("/api/cart/{session}", h.Cart.Clear).Methods("DELETE")
	r.HandleFunc("/api/cart/{session}/items", h.Cart.AddItem).Methods("POST")
	r.HandleFunc("/api/cart/{session}/items/{productID}", h.Cart.UpdateItem).Methods("PUT")
	r.HandleFunc("/api/cart/{session}/items/{productID}", h.Cart.RemoveItem).Methods("DELETE")
	r.HandleFunc("/api/cart/{session}/schedule", h.Cart.SetSchedule).Methods("PUT")
	r.HandleFunc("/api/cart/{session}/quote", h.Cart.Quote).Methods("GET")

	r.HandleFunc("/api/payment/server-time", h.Checkout.ServerTime).Methods("GET")
	r.HandleFunc("/api/checkout/reference", h.Checkout.CreateReference).Methods("POST")
	r.HandleFunc("/api/checkout/complete", h.Checkout.Complete).Methods("POST")

	r.HandleFunc("/api/orders/{id}", h.Orders.GetOrder).Methods("GET")
	r.HandleFunc("/api/orders/{id}/emails", h.Orders.SendEmails).Methods("POST")
	r.HandleFunc("/api/orders/{id}/sizes", h.Orders.SaveSizes).Methods("PUT")
	r.HandleFunc("/api/orders/{id}/finalize", h.Orders.Finalize).Methods("POST")
	r.HandleFunc("/api/orders/{id}/review", h.Orders.SubmitReview).Methods("POST")

	r.HandleFunc("/admin/login", h.AdminAuth.Login).Methods("POST")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminAuthMiddleware(jwtSecret))
	admin.HandleFunc("/users", h.AdminAuth.CreateUserAdmin).Methods("POST")
	admin.HandleFunc("/orders", h.Admin.ListOrders).Methods("GET")
	admin.HandleFunc("/orders/{id}/status", h.Admin.UpdateStatus).Methods("PUT")
	admin.HandleFunc("/orders/{id}/refund", h.Admin.Refund).Methods("POST")
	admin.HandleFunc("/orders/{id}/review-email", h.Admin.SendReviewEmail).Methods("POST")
	admin.HandleFunc("/orders/{id}/review/approve", h.Admin.ApproveReview).Methods("PUT")
	admin.HandleFunc("/review-candidates", h.Admin.ReviewCandidates).Methods("GET")
	admin.HandleFunc("/templates", h.Admin.ListTemplates).Methods("GET")
	admin.HandleFunc("/templates", h.Admin.CreateTemplate).Methods("POST")
	admin.HandleFunc("/templates/{id}", h.Admin.UpdateTemplate).Methods("PUT")
	admin.HandleFunc("/templates/{id}", h.Admin.DeleteTemplate).Methods("DELETE")
	admin.HandleFunc("/gallery", h.Admin.AddGalleryImage).Methods("POST")
	admin.HandleFunc("/gallery/{id}", h.Admin.DeleteGalleryImage).Methods("DELETE")

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")
	return r
}
