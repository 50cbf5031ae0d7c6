package service

import (
	"context"
	"errors"
	"net/http"

	"galapagosrental/internal/cart"
	apperrors "galapagosrental/internal/errors"
	"galapagosrental/internal/pricing"
	"galapagosrental/internal/utils"
)

// CartService backs the session cart endpoints.
type CartService struct {
	carts   *cart.Cart
	catalog *CatalogService
}

func NewCartService(carts *cart.Cart, catalog *CatalogService) *CartService {
	return &CartService{carts: carts, catalog: catalog}
}

func (s *CartService) Items(ctx context.Context, session string) ([]cart.Item, error) {
	return s.carts.Items(ctx, session)
}

func (s *CartService) Add(ctx context.Context, session string, productID, quantity int) ([]cart.Item, error) {
	p, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	items, err := s.carts.Add(ctx, session, p, quantity)
	return items, mapCartError(err)
}

func (s *CartService) UpdateQuantity(ctx context.Context, session string, productID, quantity int) ([]cart.Item, error) {
	items, err := s.carts.UpdateQuantity(ctx, session, productID, quantity)
	return items, mapCartError(err)
}

func (s *CartService) Remove(ctx context.Context, session string, productID int) ([]cart.Item, error) {
	items, err := s.carts.Remove(ctx, session, productID)
	return items, mapCartError(err)
}

func (s *CartService) SetSchedule(ctx context.Context, session string, sched pricing.Schedule) ([]cart.Item, error) {
	return s.carts.SetSchedule(ctx, session, normalizeSchedule(sched))
}

func (s *CartService) Clear(ctx context.Context, session string) error {
	return s.carts.Clear(ctx, session)
}

// Quote cotiza el carrito de la sesión y cachea el recargo de retorno.
func (s *CartService) Quote(ctx context.Context, session string) (pricing.Quote, error) {
	items, err := s.carts.Items(ctx, session)
	if err != nil {
		return pricing.Quote{}, err
	}
	q, err := s.catalog.QuoteItems(ctx, items)
	if err != nil {
		return pricing.Quote{}, err
	}
	if err := s.carts.SaveReturnFee(ctx, session, q.ReturnFee); err != nil {
		return pricing.Quote{}, err
	}
	return q, nil
}

func normalizeSchedule(sched pricing.Schedule) pricing.Schedule {
	sched.ReturnIsland = utils.NormalizeLocation(sched.ReturnIsland)
	sched.Pickup = utils.NormalizeLocation(sched.Pickup)
	if sched.Pickup == "" {
		sched.Pickup = pricing.PickupSantaCruz
	}
	return sched
}

func mapCartError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cart.ErrInvalidQuantity):
		return apperrors.Wrap(http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, cart.ErrItemNotFound):
		return apperrors.Wrap(http.StatusNotFound, err.Error(), err)
	}
	return err
}
