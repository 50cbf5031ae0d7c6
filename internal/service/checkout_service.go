package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"galapagosrental/internal/cart"
	"galapagosrental/internal/db"
	apperrors "galapagosrental/internal/errors"
	"galapagosrental/internal/events"
	"galapagosrental/internal/lifecycle"
	"galapagosrental/internal/logger"
	"galapagosrental/internal/notify"
	"galapagosrental/internal/payment"
	"galapagosrental/internal/pricing"
	"galapagosrental/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Variant selects the checkout form rules.
type Variant string

const (
	// VariantStorefront is the full cart checkout; phone is required.
	VariantStorefront Variant = "storefront"
	// VariantExpress is the single-page quick booking; phone is optional.
	VariantExpress Variant = "express"
)

type CheckoutRequest struct {
	Session          string  `json:"session"`
	Variant          Variant `json:"variant"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	Email            string  `json:"email"`
	Phone            string  `json:"phone"`
	Nationality      string  `json:"nationality"`
	AcceptedPolicies bool    `json:"accepted_policies"`
	Language         string  `json:"language"`
}

type CompleteRequest struct {
	CheckoutRequest
	Gateway payment.Response `json:"gateway"`
}

// ValidationError lists every missing checkout field.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

type ReferenceResult struct {
	Reference    string        `json:"reference"`
	DevReference string        `json:"dev_reference"`
	CustomerUID  string        `json:"customer_uid"`
	Quote        pricing.Quote `json:"quote"`
}

type CheckoutResult struct {
	OrderID     int    `json:"order_id"`
	OrderNumber int    `json:"order_number"`
	CustomerUID string `json:"customer_uid"`
	Approved    bool   `json:"approved"`
	Message     string `json:"message,omitempty"`
	RedirectTo  string `json:"redirect_to,omitempty"`
}

type CheckoutService struct {
	carts     *cart.Cart
	catalog   *CatalogService
	customers repository.CustomerRepository
	orders    repository.OrderRepository
	gateway   payment.Gateway
	events    events.Publisher
	sms       notify.SMSSender
}

func NewCheckoutService(carts *cart.Cart, catalog *CatalogService, customers repository.CustomerRepository,
	orders repository.OrderRepository, gateway payment.Gateway, pub events.Publisher, sms notify.SMSSender) *CheckoutService {
	return &CheckoutService{
		carts:     carts,
		catalog:   catalog,
		customers: customers,
		orders:    orders,
		gateway:   gateway,
		events:    pub,
		sms:       sms,
	}
}

// Validate checks the customer form. No network call happens on failure.
func (s *CheckoutService) Validate(req CheckoutRequest) error {
	var missing []string
	if strings.TrimSpace(req.FirstName) == "" {
		missing = append(missing, "first_name")
	}
	if strings.TrimSpace(req.LastName) == "" {
		missing = append(missing, "last_name")
	}
	if strings.TrimSpace(req.Email) == "" {
		missing = append(missing, "email")
	}
	if req.Variant != VariantExpress && strings.TrimSpace(req.Phone) == "" {
		missing = append(missing, "phone")
	}
	if !req.AcceptedPolicies {
		missing = append(missing, "accepted_policies")
	}
	if len(missing) > 0 {
		verr := &ValidationError{Missing: missing}
		return apperrors.Wrap(http.StatusBadRequest, verr.Error(), verr)
	}
	return nil
}

// CreateReference validates the form, prices the cart and asks the gateway
// for a one-time reference charging the initial payment.
func (s *CheckoutService) CreateReference(ctx context.Context, req CheckoutRequest) (*ReferenceResult, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}
	q, err := s.pricedCart(ctx, req.Session)
	if err != nil {
		return nil, err
	}
	sched, err := s.carts.Schedule(ctx, req.Session)
	if err != nil {
		return nil, err
	}
	if err := validateSchedule(sched); err != nil {
		return nil, err
	}

	customer, err := s.customers.Upsert(ctx, customerFrom(req))
	if err != nil {
		return nil, fmt.Errorf("saving customer: %w", err)
	}

	devRef := uuid.NewString()
	amount := q.InitialPayment.Round(2)
	// Guardamos la referencia para validar la respuesta del widget
	if err := s.carts.SavePendingPayment(ctx, req.Session, cart.PendingPayment{DevReference: devRef, Amount: amount}); err != nil {
		return nil, err
	}
	ref, err := s.gateway.InitReference(ctx, payment.ReferenceRequest{
		Locale: language(req.Language),
		Order: payment.OrderInfo{
			Amount:       amount.InexactFloat64(),
			Description:  fmt.Sprintf("Galápagos rental, %d items, %d days", q.TotalItems, q.Days),
			DevReference: devRef,
		},
		User: payment.User{ID: customer.UID, Email: customer.Email, Phone: customer.Phone},
	})
	if err != nil {
		return nil, apperrors.Wrap(http.StatusBadGateway, "Could not start the payment, please try again", err)
	}
	return &ReferenceResult{Reference: ref.Reference, DevReference: devRef, CustomerUID: customer.UID, Quote: q}, nil
}

// CompleteCheckout persists the order for the widget's response, approved or
// not, and returns where the customer goes next.
func (s *CheckoutService) CompleteCheckout(ctx context.Context, req CompleteRequest) (*CheckoutResult, error) {
	log := logger.WithComponent("checkout")
	if err := s.Validate(req.CheckoutRequest); err != nil {
		return nil, err
	}
	q, err := s.pricedCart(ctx, req.Session)
	if err != nil {
		return nil, err
	}
	sched, err := s.carts.Schedule(ctx, req.Session)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.Upsert(ctx, customerFrom(req.CheckoutRequest))
	if err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("customer upsert failed")
		return nil, fmt.Errorf("saving customer: %w", err)
	}

	tx := req.Gateway.Transaction
	approved := req.Gateway.Approved()
	if approved {
		// Solo se confía en una aprobación que corresponda a la referencia emitida
		if err := s.verifyPayment(ctx, req.Session, tx, q); err != nil {
			log.Warn().Err(err).Str("transaction_id", tx.ID).Str("dev_reference", tx.DevReference).
				Msg("approved response rejected, order kept pending")
			approved = false
		}
	}
	order := &db.RentalOrder{
		CustomerID:        customer.ID,
		StartDate:         sched.StartDate,
		EndDate:           sched.EndDate,
		StartTime:         sched.StartTime,
		EndTime:           sched.EndTime,
		ReturnIsland:      sched.ReturnIsland,
		Pickup:            sched.Pickup,
		HotelName:         sched.HotelName,
		TotalAmount:       q.Total,
		TaxAmount:         q.Tax,
		InitialPayment:    q.InitialPayment,
		Status:            lifecycle.StatusCreated,
		PaymentStatus:     db.PaymentStatusPending,
		TransactionID:     tx.ID,
		AuthorizationCode: tx.AuthorizationCode,
		GatewayMessage:    tx.Message,
		Language:          language(req.Language),
	}
	if approved {
		order.Status = lifecycle.StatusConfirmed
		order.PaymentStatus = db.PaymentStatusPaid
	}

	if err := s.orders.Create(ctx, order); err != nil {
		log.Error().Err(err).Str("transaction_id", tx.ID).Msg("order insert failed")
		return nil, err
	}
	if err := s.orders.CreateItems(ctx, order.ID, snapshotItems(q)); err != nil {
		log.Error().Err(err).Int("order_id", order.ID).Msg("items insert failed, order has no items")
		return nil, err
	}

	if err := s.events.Publish(ctx, events.OrderEvent{
		Type: events.OrderCreated, OrderID: order.ID, Status: int(order.Status), PaymentStatus: order.PaymentStatus,
	}); err != nil {
		log.Warn().Err(err).Int("order_id", order.ID).Msg("order event not published")
	}

	res := &CheckoutResult{OrderID: order.ID, OrderNumber: order.OrderNumber, CustomerUID: customer.UID, Approved: approved}
	if !approved {
		res.Message = payment.DeclineMessage(tx, order.Language)
		if req.Gateway.Approved() {
			res.Message = unverifiedPaymentMessage(order.Language)
		}
		log.Info().Int("order_id", order.ID).Int("status_detail", tx.StatusDetail).Msg("payment declined")
		return res, nil
	}

	res.RedirectTo = fmt.Sprintf("/confirmation/%d?uid=%s", order.ID, customer.UID)
	if err := s.carts.Clear(ctx, req.Session); err != nil {
		log.Warn().Err(err).Msg("cart not cleared after checkout")
	}
	if customer.Phone != "" {
		if err := s.sms.SendSMS(ctx, customer.Phone, notify.PaymentConfirmed(order.OrderNumber, order.StartDate, order.Language)); err != nil {
			log.Warn().Err(err).Int("order_id", order.ID).Msg("confirmation SMS failed")
		}
	}
	return res, nil
}

// verifyPayment checks an approved transaction against the reference issued
// by CreateReference for this session and against the current quote.
func (s *CheckoutService) verifyPayment(ctx context.Context, session string, tx payment.Transaction, q pricing.Quote) error {
	pending, err := s.carts.LoadPendingPayment(ctx, session)
	if err != nil {
		return err
	}
	if pending == nil {
		return errors.New("no payment reference was issued for this cart")
	}
	if tx.ID == "" {
		return errors.New("transaction has no id")
	}
	if tx.DevReference != pending.DevReference {
		return fmt.Errorf("dev_reference %q does not match the issued reference", tx.DevReference)
	}
	charged := decimal.NewFromFloat(tx.Amount).Round(2)
	if !charged.Equal(pending.Amount) || !charged.Equal(q.InitialPayment.Round(2)) {
		return fmt.Errorf("charged %s, expected %s", charged.StringFixed(2), q.InitialPayment.StringFixed(2))
	}
	return nil
}

func unverifiedPaymentMessage(lang string) string {
	if lang == "en" {
		return "We could not verify your payment. Your booking is pending, please contact us before paying again."
	}
	return "No pudimos verificar tu pago. Tu reserva quedó pendiente, contáctanos antes de volver a pagar."
}

func (s *CheckoutService) pricedCart(ctx context.Context, session string) (pricing.Quote, error) {
	items, err := s.carts.Items(ctx, session)
	if err != nil {
		return pricing.Quote{}, err
	}
	if len(items) == 0 {
		return pricing.Quote{}, apperrors.BadRequest("cart is empty")
	}
	return s.catalog.QuoteItems(ctx, items)
}

func validateSchedule(sched pricing.Schedule) error {
	var missing []string
	if sched.StartDate == "" || sched.EndDate == "" {
		missing = append(missing, "dates")
	}
	if sched.StartTime == "" || sched.EndTime == "" {
		missing = append(missing, "times")
	}
	if sched.ReturnIsland == "" {
		missing = append(missing, "return_island")
	}
	if len(missing) > 0 {
		verr := &ValidationError{Missing: missing}
		return apperrors.Wrap(http.StatusBadRequest, verr.Error(), verr)
	}
	return nil
}

func snapshotItems(q pricing.Quote) []db.RentalItem {
	items := make([]db.RentalItem, 0, len(q.Lines))
	for _, l := range q.Lines {
		items = append(items, db.RentalItem{
			ProductConfigID: l.ProductID,
			ProductType:     l.ProductType,
			Quantity:        l.Quantity,
			Days:            l.Days,
			UnitPrice:       l.UnitPrice,
			Subtotal:        l.Subtotal,
		})
	}
	return items
}

func customerFrom(req CheckoutRequest) *db.Customer {
	return &db.Customer{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:       strings.TrimSpace(req.Phone),
		Nationality: req.Nationality,
		UID:         uuid.NewString(),
	}
}

func language(lang string) string {
	if lang == "en" {
		return "en"
	}
	return "es"
}
