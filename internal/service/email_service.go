package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"galapagosrental/internal/db"
	apperrors "galapagosrental/internal/errors"
	"galapagosrental/internal/events"
	"galapagosrental/internal/lifecycle"
	"galapagosrental/internal/logger"
	"galapagosrental/internal/mail"
	"galapagosrental/internal/pricing"
	"galapagosrental/internal/repository"

	"github.com/shopspring/decimal"
)

type MailFrom struct {
	Name  string
	Email string
}

// EmailReport is what the caller learns about one dispatch round.
type EmailReport struct {
	Sent    int              `json:"emails_sent"`
	Failed  int              `json:"emails_failed"`
	Errors  []string         `json:"errors,omitempty"`
	Status  lifecycle.Status `json:"status"`
	Skipped bool             `json:"skipped,omitempty"`
}

type EmailService struct {
	orders      repository.OrderRepository
	customers   repository.CustomerRepository
	templates   repository.AdminRepository
	renderer    *mail.Renderer
	dispatcher  *mail.Dispatcher
	events      events.Publisher
	from        MailFrom
	hotelFee    decimal.Decimal
	frontendURL string
}

func NewEmailService(orders repository.OrderRepository, customers repository.CustomerRepository,
	templates repository.AdminRepository, renderer *mail.Renderer, dispatcher *mail.Dispatcher,
	pub events.Publisher, from MailFrom, hotelFee decimal.Decimal, frontendURL string) *EmailService {
	return &EmailService{
		orders:      orders,
		customers:   customers,
		templates:   templates,
		renderer:    renderer,
		dispatcher:  dispatcher,
		events:      pub,
		from:        from,
		hotelFee:    hotelFee,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// SendOrderEmails sends the customer confirmation and the business owner
// report for a paid order, then advances it to EmailSent when the customer
// copy went out. Orders already past that point are skipped.
func (s *EmailService) SendOrderEmails(ctx context.Context, orderID int) (*EmailReport, error) {
	order, items, customer, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	report := &EmailReport{Status: order.Status}
	if order.Status >= lifecycle.StatusEmailSent || order.PaymentStatus != db.PaymentStatusPaid {
		report.Skipped = true
		return report, nil
	}

	envs, renderFailures, err := s.envelopes(ctx, order, items, customer, db.TemplateTypeCustomer, db.TemplateTypeBusinessOwner)
	if err != nil {
		return nil, err
	}
	res := s.dispatcher.Dispatch(ctx, envs)
	report.fill(res, renderFailures)

	if !sentTo(res, db.TemplateTypeCustomer) {
		return report, nil
	}
	next, err := lifecycle.Transition(order.Status, lifecycle.StatusEmailSent)
	if err != nil {
		return report, nil
	}
	if err := s.orders.UpdateStatus(ctx, order.ID, next); err != nil {
		return nil, err
	}
	report.Status = next
	publishStatus(ctx, s.events, order.ID, next)
	return report, nil
}

// SendSupplierNotice sends the fulfillment notice to the supplier.
func (s *EmailService) SendSupplierNotice(ctx context.Context, orderID int) (*EmailReport, error) {
	order, items, customer, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	envs, renderFailures, err := s.envelopes(ctx, order, items, customer, db.TemplateTypeSupplier)
	if err != nil {
		return nil, err
	}
	report := &EmailReport{Status: order.Status}
	report.fill(s.dispatcher.Dispatch(ctx, envs), renderFailures)
	return report, nil
}

// SendReviewRequest asks the customer for a review.
func (s *EmailService) SendReviewRequest(ctx context.Context, order *db.RentalOrder) (*EmailReport, error) {
	items, err := s.orders.GetItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.GetByID(ctx, order.CustomerID)
	if err != nil {
		return nil, err
	}
	envs, renderFailures, err := s.envelopes(ctx, order, items, customer, db.TemplateTypeReview)
	if err != nil {
		return nil, err
	}
	report := &EmailReport{Status: order.Status}
	report.fill(s.dispatcher.Dispatch(ctx, envs), renderFailures)
	return report, nil
}

func (s *EmailService) load(ctx context.Context, orderID int) (*db.RentalOrder, []db.RentalItem, *db.Customer, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, nil, apperrors.NotFound("order not found")
	}
	if err != nil {
		return nil, nil, nil, err
	}
	items, err := s.orders.GetItems(ctx, orderID)
	if err != nil {
		return nil, nil, nil, err
	}
	customer, err := s.customers.GetByID(ctx, order.CustomerID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading customer of order %d: %w", orderID, err)
	}
	return order, items, customer, nil
}

// envelopes renderiza cada plantilla activa de los tipos pedidos. Las plantillas
// sin destinatarios se omiten y un error de render cuenta como fallo.
func (s *EmailService) envelopes(ctx context.Context, order *db.RentalOrder, items []db.RentalItem,
	customer *db.Customer, types ...string) ([]mail.Envelope, []error, error) {
	log := logger.WithComponent("email")
	vars := s.variables(order, items, customer)

	var (
		envs     []mail.Envelope
		failures []error
	)
	for _, typ := range types {
		templates, err := s.templates.ListTemplates(ctx, typ, true)
		if err != nil {
			return nil, nil, err
		}
		for _, t := range templates {
			to := append([]string{}, t.Recipients...)
			if typ == db.TemplateTypeCustomer || typ == db.TemplateTypeReview {
				to = append(to, customer.Email)
			}
			if len(to) == 0 {
				log.Warn().Int("template_id", t.ID).Msg("template has no recipients, skipped")
				continue
			}
			label := fmt.Sprintf("%s:%d", typ, t.ID)
			subject, err := s.renderer.RenderSubject(t.Subject, vars)
			if err != nil {
				failures = append(failures, fmt.Errorf("%s: %w", label, err))
				continue
			}
			html, err := s.renderer.Render(t.HTMLPublished, vars)
			if err != nil {
				failures = append(failures, fmt.Errorf("%s: %w", label, err))
				continue
			}
			envs = append(envs, mail.Envelope{
				Label: label,
				Message: mail.Message{
					FromName:  s.from.Name,
					FromEmail: s.from.Email,
					To:        to,
					Subject:   subject,
					HTML:      html,
				},
			})
		}
	}
	return envs, failures, nil
}

func (s *EmailService) variables(order *db.RentalOrder, items []db.RentalItem, customer *db.Customer) map[string]any {
	subtotal := decimal.Zero
	rows := make([]map[string]any, 0, len(items))
	days := 0
	for _, it := range items {
		subtotal = subtotal.Add(it.Subtotal)
		days = it.Days
		rows = append(rows, map[string]any{
			"name":      it.ProductName,
			"type":      it.ProductType,
			"quantity":  it.Quantity,
			"size":      it.Size,
			"days":      it.Days,
			"unitPrice": it.UnitPrice,
			"subtotal":  it.Subtotal,
		})
	}
	if days == 0 {
		days = pricing.RentalDays(order.StartDate, order.EndDate, order.StartTime, order.EndTime)
	}
	hotelFee := pricing.HotelSurcharge(order.Pickup, s.hotelFee)
	returnFee := order.TotalAmount.Sub(subtotal).Sub(order.TaxAmount).Sub(hotelFee)
	if returnFee.IsNegative() {
		returnFee = decimal.Zero
	}

	return map[string]any{
		"orderId":                order.ID,
		"orderNumber":            order.OrderNumber,
		"customerName":           customer.FullName(),
		"customerFirstName":      customer.FirstName,
		"customerEmail":          customer.Email,
		"customerPhone":          customer.Phone,
		"startDate":              order.StartDate,
		"endDate":                order.EndDate,
		"startTime":              order.StartTime,
		"endTime":                order.EndTime,
		"days":                   days,
		"returnIsland":           order.ReturnIsland,
		"pickup":                 order.Pickup,
		"hotelName":              order.HotelName,
		"isHotelPickup":          order.Pickup != pricing.PickupSantaCruz,
		"items":                  rows,
		"productsSubtotal":       subtotal,
		"tax":                    order.TaxAmount,
		"returnFee":              returnFee,
		"hotelFee":               hotelFee,
		"total":                  order.TotalAmount,
		"initialPayment":         order.InitialPayment,
		"payOnPickup":            order.TotalAmount.Sub(order.InitialPayment),
		"showReturnInstructions": order.ReturnIsland == pricing.IslandSanCristobal,
		"language":               order.Language,
		"orderUrl":               fmt.Sprintf("%s/confirmation/%d?uid=%s", s.frontendURL, order.ID, customer.UID),
		"reviewUrl":              fmt.Sprintf("%s/review/%d?uid=%s", s.frontendURL, order.ID, customer.UID),
	}
}

func (r *EmailReport) fill(res mail.Result, renderFailures []error) {
	r.Sent = res.Sent
	r.Failed = res.Failed + len(renderFailures)
	for _, err := range append(res.Errors, renderFailures...) {
		r.Errors = append(r.Errors, err.Error())
	}
}

func sentTo(res mail.Result, templateType string) bool {
	for _, label := range res.SentLabels {
		if strings.HasPrefix(label, templateType+":") {
			return true
		}
	}
	return false
}

func publishStatus(ctx context.Context, pub events.Publisher, orderID int, status lifecycle.Status) {
	if err := pub.Publish(ctx, events.OrderEvent{Type: events.OrderStatusChanged, OrderID: orderID, Status: int(status)}); err != nil {
		log := logger.WithComponent("events")
		log.Warn().Err(err).Int("order_id", orderID).Msg("status event not published")
	}
}
