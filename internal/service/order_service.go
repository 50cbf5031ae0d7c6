package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"galapagosrental/internal/db"
	apperrors "galapagosrental/internal/errors"
	"galapagosrental/internal/events"
	"galapagosrental/internal/lifecycle"
	"galapagosrental/internal/logger"
	"galapagosrental/internal/payment"
	"galapagosrental/internal/repository"
)

type OrderDetails struct {
	Order       db.RentalOrder  `json:"order"`
	StatusLabel string          `json:"status_label"`
	Items       []db.RentalItem `json:"items"`
	Customer    *db.Customer    `json:"customer"`
	// MissingSizes lists "item:slot" pairs still waiting for a size.
	MissingSizes []string `json:"missing_sizes"`
}

// SupplierNotifier sends the finalization notice.
type SupplierNotifier interface {
	SendSupplierNotice(ctx context.Context, orderID int) (*EmailReport, error)
}

type OrderService struct {
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	gateway   payment.Gateway
	notifier  SupplierNotifier
	events    events.Publisher
	refunds   lifecycle.RefundPolicy
	now       func() time.Time
}

func NewOrderService(orders repository.OrderRepository, customers repository.CustomerRepository,
	gateway payment.Gateway, notifier SupplierNotifier, pub events.Publisher, refunds lifecycle.RefundPolicy) *OrderService {
	return &OrderService{
		orders:    orders,
		customers: customers,
		gateway:   gateway,
		notifier:  notifier,
		events:    pub,
		refunds:   refunds,
		now:       time.Now,
	}
}

func (s *OrderService) getOrder(ctx context.Context, id int) (*db.RentalOrder, error) {
	o, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("order not found")
	}
	return o, err
}

// Authorize checks that uid belongs to the customer of the order. A mismatch
// reads as a missing order so sequential ids cannot be enumerated.
func (s *OrderService) Authorize(ctx context.Context, id int, uid string) error {
	o, err := s.getOrder(ctx, id)
	if err != nil {
		return err
	}
	if uid == "" {
		return apperrors.NotFound("order not found")
	}
	c, err := s.customers.GetByID(ctx, o.CustomerID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("order not found")
	}
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(c.UID), []byte(uid)) != 1 {
		return apperrors.NotFound("order not found")
	}
	return nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int, lang string) (*OrderDetails, error) {
	o, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.orders.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.GetByID(ctx, o.CustomerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if lang == "" {
		lang = o.Language
	}
	return &OrderDetails{
		Order:        *o,
		StatusLabel:  lifecycle.Label(o.Status, lang),
		Items:        items,
		Customer:     customer,
		MissingSizes: lifecycle.MissingSlots(sizedLines(items)),
	}, nil
}

func (s *OrderService) ListOrders(ctx context.Context, f repository.OrderFilter) ([]db.RentalOrder, error) {
	return s.orders.List(ctx, f)
}

// UpdateStatus applies an admin status change validated by the transition table.
func (s *OrderService) UpdateStatus(ctx context.Context, id int, to lifecycle.Status) (*db.RentalOrder, error) {
	o, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if to == lifecycle.StatusRefunded {
		return nil, apperrors.BadRequest("use the refund action to refund an order")
	}
	if to == lifecycle.StatusFinalized {
		return s.Finalize(ctx, id)
	}
	next, err := lifecycle.Transition(o.Status, to)
	if err != nil {
		return nil, apperrors.Wrap(http.StatusConflict, err.Error(), err)
	}
	if err := s.orders.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	o.Status = next
	publishStatus(ctx, s.events, id, next)
	return o, nil
}

// SaveSizes stores per-unit sizes keyed by item id and moves the order to SizesPartial.
func (s *OrderService) SaveSizes(ctx context.Context, id int, sizes map[int][]string) (*OrderDetails, error) {
	o, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.Transition(o.Status, lifecycle.StatusSizesPartial)
	if err != nil {
		return nil, apperrors.Wrap(http.StatusConflict, "sizes cannot be changed for this order", err)
	}
	items, err := s.orders.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}

	byID := make(map[int]db.RentalItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	update := make(map[int]string, len(sizes))
	for itemID, slots := range sizes {
		it, ok := byID[itemID]
		if !ok {
			return nil, apperrors.BadRequest(fmt.Sprintf("item %d does not belong to order %d", itemID, id))
		}
		if !lifecycle.RequiresSize(it.ProductType) {
			continue
		}
		if len(slots) > it.Quantity {
			return nil, apperrors.BadRequest(fmt.Sprintf("item %d has %d units, got %d sizes", itemID, it.Quantity, len(slots)))
		}
		update[itemID] = lifecycle.JoinSizes(slots)
	}

	if err := s.orders.UpdateItemSizes(ctx, id, update); err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	if o.Status != next {
		publishStatus(ctx, s.events, id, next)
	}
	return s.GetOrder(ctx, id, "")
}

// Finalize is a one-way transition gated on every size slot being filled.
// The supplier notice is sent afterwards; a mail failure does not undo it.
func (s *OrderService) Finalize(ctx context.Context, id int) (*db.RentalOrder, error) {
	o, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.Transition(o.Status, lifecycle.StatusFinalized)
	if err != nil {
		return nil, apperrors.Wrap(http.StatusConflict, "order cannot be finalized", err)
	}
	items, err := s.orders.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.SizesComplete(sizedLines(items)); err != nil {
		return nil, apperrors.Wrap(http.StatusBadRequest, err.Error(), err)
	}

	if err := s.orders.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	o.Status = next
	publishStatus(ctx, s.events, id, next)

	log := logger.WithComponent("orders")
	report, err := s.notifier.SendSupplierNotice(ctx, id)
	switch {
	case err != nil:
		log.Error().Err(err).Int("order_id", id).Msg("supplier notice failed")
	case report.Failed > 0:
		log.Warn().Int("order_id", id).Strs("errors", report.Errors).Msg("supplier notice partially failed")
	}
	return o, nil
}

// SubmitReview adjunta la reseña una sola vez, los intentos siguientes son conflicto.
func (s *OrderService) SubmitReview(ctx context.Context, id int, text string, stars int) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return apperrors.BadRequest("review text is required")
	}
	if stars < 1 || stars > 5 {
		return apperrors.BadRequest("stars must be between 1 and 5")
	}
	o, err := s.getOrder(ctx, id)
	if err != nil {
		return err
	}
	if o.HasReview() {
		return apperrors.Wrap(http.StatusConflict, ErrReviewExists.Error(), ErrReviewExists)
	}
	err = s.orders.SaveReview(ctx, id, text, stars, s.now().UTC())
	if errors.Is(err, repository.ErrReviewExists) {
		return apperrors.Wrap(http.StatusConflict, err.Error(), err)
	}
	return err
}

func (s *OrderService) ApproveReview(ctx context.Context, id int) error {
	err := s.orders.ApproveReview(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("order has no review to approve")
	}
	return err
}

// Refund reverses the gateway charge when the refund policy allows it.
func (s *OrderService) Refund(ctx context.Context, id int) (*db.RentalOrder, error) {
	o, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.refunds.Check(o.PaymentStatus, o.TransactionID, o.CreatedAt, s.now()); err != nil {
		return nil, apperrors.Wrap(http.StatusForbidden, err.Error(), err)
	}
	if _, err := lifecycle.Transition(o.Status, lifecycle.StatusRefunded); err != nil {
		return nil, apperrors.Wrap(http.StatusConflict, err.Error(), err)
	}

	if _, err := s.gateway.Refund(ctx, o.TransactionID); err != nil {
		return nil, apperrors.Wrap(http.StatusBadGateway, "The payment gateway rejected the refund", err)
	}
	if err := s.orders.MarkRefunded(ctx, id); err != nil {
		return nil, err
	}
	o.Status = lifecycle.StatusRefunded
	o.PaymentStatus = db.PaymentStatusRefunded

	if err := s.events.Publish(ctx, events.OrderEvent{
		Type: events.OrderRefunded, OrderID: id, Status: int(o.Status), PaymentStatus: o.PaymentStatus,
	}); err != nil {
		log := logger.WithComponent("events")
		log.Warn().Err(err).Int("order_id", id).Msg("refund event not published")
	}
	return o, nil
}

func sizedLines(items []db.RentalItem) []lifecycle.SizedLine {
	lines := make([]lifecycle.SizedLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, lifecycle.SizedLine{
			ItemID:      it.ID,
			ProductType: it.ProductType,
			Quantity:    it.Quantity,
			Size:        it.Size,
		})
	}
	return lines
}
