package service

import (
	"context"
	"net/http"
	"testing"

	"galapagosrental/internal/cart"
	"galapagosrental/internal/db"
	apperrors "galapagosrental/internal/errors"
	"galapagosrental/internal/lifecycle"
	"galapagosrental/internal/payment"
	"galapagosrental/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	wetsuit = db.Product{ID: 1, Type: db.ProductTypeWetsuit, NameEs: "Traje", PublicPrice: decimal.NewFromInt(10),
		SupplierCost: decimal.NewFromInt(6), TaxPercentage: decimal.RequireFromString("0.12"), Active: true}
	snorkel = db.Product{ID: 2, Type: db.ProductTypeSnorkel, NameEs: "Snorkel", PublicPrice: decimal.NewFromInt(5),
		SupplierCost: decimal.NewFromInt(3), TaxPercentage: decimal.RequireFromString("0.12"), Active: true}
	activeFees = []db.AdditionalFee{
		{ID: 1, FeeType: db.FeeTypeIslandReturn, Location: pricing.IslandSanCristobal, Amount: decimal.NewFromInt(15), Active: true},
	}
)

type checkoutFixture struct {
	svc       *CheckoutService
	carts     *cart.Cart
	catalog   *MockCatalogRepo
	customers *MockCustomerRepo
	orders    *MockOrderRepo
	gateway   *MockGateway
	pub       *recordingPublisher
	sms       *recordingSMS
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	f := &checkoutFixture{
		carts:     cart.New(cart.NewMemoryStore()),
		catalog:   new(MockCatalogRepo),
		customers: new(MockCustomerRepo),
		orders:    new(MockOrderRepo),
		gateway:   new(MockGateway),
		pub:       &recordingPublisher{},
		sms:       &recordingSMS{},
	}
	catalog := NewCatalogService(f.catalog, new(MockAdminRepo), f.orders, f.customers, pricing.Options{})
	f.svc = NewCheckoutService(f.carts, catalog, f.customers, f.orders, f.gateway, f.pub, f.sms)
	return f
}

func (f *checkoutFixture) fillCart(t *testing.T, session string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.carts.Add(ctx, session, wetsuit, 2)
	require.NoError(t, err)
	_, err = f.carts.Add(ctx, session, snorkel, 3)
	require.NoError(t, err)
	_, err = f.carts.SetSchedule(ctx, session, pricing.Schedule{
		StartDate: "2025-01-10", EndDate: "2025-01-12", StartTime: "09:00", EndTime: "09:00",
		ReturnIsland: pricing.IslandSanCristobal, Pickup: pricing.PickupSantaCruz,
	})
	require.NoError(t, err)

	f.catalog.On("GetProductsByIDs", mock.Anything, []int{1, 2}).
		Return(map[int]db.Product{1: wetsuit, 2: snorkel}, nil)
	f.catalog.On("ListFees", mock.Anything, true).Return(activeFees, nil)
}

// issueReference runs CreateReference for the session the way the widget
// flow does before the customer pays.
func (f *checkoutFixture) issueReference(t *testing.T, session string) *ReferenceResult {
	t.Helper()
	f.customers.On("Upsert", mock.Anything, mock.AnythingOfType("*db.Customer")).
		Return(&db.Customer{ID: 7, UID: "uid-7", Email: "ana@example.com", Phone: "+593999"}, nil)
	f.gateway.On("InitReference", mock.Anything, mock.Anything).
		Return(&payment.ReferenceResponse{Reference: "REF-1"}, nil)
	ref, err := f.svc.CreateReference(context.Background(), validRequest(session))
	require.NoError(t, err)
	return ref
}

func validRequest(session string) CheckoutRequest {
	return CheckoutRequest{
		Session: session, Variant: VariantStorefront, FirstName: "Ana", LastName: "Vera",
		Email: "Ana@Example.com", Phone: "+593999", AcceptedPolicies: true, Language: "es",
	}
}

func TestCheckoutService_Validate(t *testing.T) {
	svc := newCheckoutFixture(t).svc

	t.Run("Storefront requires phone", func(t *testing.T) {
		req := validRequest("s")
		req.Phone = ""
		err := svc.Validate(req)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))
		assert.Contains(t, err.Error(), "phone")
	})

	t.Run("Express phone optional", func(t *testing.T) {
		req := validRequest("s")
		req.Variant = VariantExpress
		req.Phone = ""
		assert.NoError(t, svc.Validate(req))
	})

	t.Run("Lists every missing field", func(t *testing.T) {
		err := svc.Validate(CheckoutRequest{Variant: VariantStorefront})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"first_name", "last_name", "email", "phone", "accepted_policies"}, verr.Missing)
	})
}

func TestCheckoutService_CreateReference(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fillCart(t, "s1")
	f.customers.On("Upsert", mock.Anything, mock.AnythingOfType("*db.Customer")).
		Return(&db.Customer{ID: 7, UID: "uid-7", Email: "ana@example.com", Phone: "+593999"}, nil)
	f.gateway.On("InitReference", mock.Anything, mock.MatchedBy(func(r payment.ReferenceRequest) bool {
		return r.Order.Amount == 28 && r.User.ID == "uid-7" && r.Order.DevReference != ""
	})).Return(&payment.ReferenceResponse{Reference: "REF-1"}, nil)

	res, err := f.svc.CreateReference(context.Background(), validRequest("s1"))
	require.NoError(t, err)
	assert.Equal(t, "REF-1", res.Reference)

	pending, err := f.carts.LoadPendingPayment(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, res.DevReference, pending.DevReference)
	assert.True(t, decimal.NewFromInt(28).Equal(pending.Amount))
	assert.True(t, decimal.RequireFromString("108.4").Equal(res.Quote.Total))
	f.gateway.AssertExpectations(t)
}

func TestCheckoutService_CreateReferenceValidationSkipsGateway(t *testing.T) {
	f := newCheckoutFixture(t)
	req := validRequest("s1")
	req.AcceptedPolicies = false

	_, err := f.svc.CreateReference(context.Background(), req)
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))
	f.gateway.AssertNotCalled(t, "InitReference", mock.Anything, mock.Anything)
}

func TestCheckoutService_CompleteCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("Approved payment", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.fillCart(t, "s1")
		ref := f.issueReference(t, "s1")
		f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o *db.RentalOrder) bool {
			return o.Status == lifecycle.StatusConfirmed && o.PaymentStatus == db.PaymentStatusPaid &&
				o.TransactionID == "TX-1" && o.InitialPayment.Equal(decimal.NewFromInt(28)) &&
				o.ReturnIsland == pricing.IslandSanCristobal && o.StartDate == "2025-01-10"
		})).Run(func(args mock.Arguments) {
			o := args.Get(1).(*db.RentalOrder)
			o.ID, o.OrderNumber = 11, 1011
		}).Return(nil)
		f.orders.On("CreateItems", mock.Anything, 11, mock.MatchedBy(func(items []db.RentalItem) bool {
			return len(items) == 2 && items[0].Subtotal.Equal(decimal.NewFromInt(40)) && items[0].Days == 2
		})).Return(nil)

		res, err := f.svc.CompleteCheckout(ctx, CompleteRequest{
			CheckoutRequest: validRequest("s1"),
			Gateway: payment.Response{Transaction: payment.Transaction{
				StatusDetail: 3, ID: "TX-1", Amount: 28, DevReference: ref.DevReference,
			}},
		})
		require.NoError(t, err)
		assert.True(t, res.Approved)
		assert.Equal(t, "/confirmation/11?uid=uid-7", res.RedirectTo)
		assert.Equal(t, "uid-7", res.CustomerUID)
		require.Len(t, f.pub.events, 1)
		assert.Equal(t, 11, f.pub.events[0].OrderID)
		assert.Equal(t, []string{"+593999"}, f.sms.to)

		items, err := f.carts.Items(ctx, "s1")
		require.NoError(t, err)
		assert.Empty(t, items)
		pending, err := f.carts.LoadPendingPayment(ctx, "s1")
		require.NoError(t, err)
		assert.Nil(t, pending)
		f.orders.AssertExpectations(t)
	})

	untrusted := []struct {
		name  string
		issue bool
		tx    payment.Transaction
	}{
		{"No reference issued", false, payment.Transaction{StatusDetail: 3, ID: "FAKE", Amount: 0, DevReference: "never-issued"}},
		{"Unknown dev reference", true, payment.Transaction{StatusDetail: 3, ID: "TX-2", Amount: 28, DevReference: "never-issued"}},
		{"Amount below the quote", true, payment.Transaction{StatusDetail: 3, ID: "TX-3", Amount: 1}},
	}
	for _, tc := range untrusted {
		t.Run(tc.name, func(t *testing.T) {
			f := newCheckoutFixture(t)
			f.fillCart(t, "s3")
			tx := tc.tx
			if tc.issue {
				ref := f.issueReference(t, "s3")
				if tx.DevReference == "" {
					tx.DevReference = ref.DevReference
				}
			} else {
				f.customers.On("Upsert", mock.Anything, mock.Anything).Return(&db.Customer{ID: 7, UID: "uid-7", Phone: "+593999"}, nil)
			}
			f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o *db.RentalOrder) bool {
				return o.Status == lifecycle.StatusCreated && o.PaymentStatus == db.PaymentStatusPending
			})).Run(func(args mock.Arguments) {
				args.Get(1).(*db.RentalOrder).ID = 13
			}).Return(nil)
			f.orders.On("CreateItems", mock.Anything, 13, mock.Anything).Return(nil)

			res, err := f.svc.CompleteCheckout(ctx, CompleteRequest{
				CheckoutRequest: validRequest("s3"),
				Gateway:         payment.Response{Transaction: tx},
			})
			require.NoError(t, err)
			assert.False(t, res.Approved)
			assert.Empty(t, res.RedirectTo)
			assert.Contains(t, res.Message, "No pudimos verificar")
			assert.Empty(t, f.sms.to)
			require.Len(t, f.pub.events, 1)
			assert.Equal(t, db.PaymentStatusPending, f.pub.events[0].PaymentStatus)

			items, err := f.carts.Items(ctx, "s3")
			require.NoError(t, err)
			assert.Len(t, items, 2)
			f.orders.AssertExpectations(t)
		})
	}

	t.Run("Declined payment is still persisted", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.fillCart(t, "s2")
		f.customers.On("Upsert", mock.Anything, mock.Anything).Return(&db.Customer{ID: 7, Phone: "+593999"}, nil)
		f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o *db.RentalOrder) bool {
			return o.Status == lifecycle.StatusCreated && o.PaymentStatus == db.PaymentStatusPending
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*db.RentalOrder).ID = 12
		}).Return(nil)
		f.orders.On("CreateItems", mock.Anything, 12, mock.Anything).Return(nil)

		res, err := f.svc.CompleteCheckout(ctx, CompleteRequest{
			CheckoutRequest: validRequest("s2"),
			Gateway:         payment.Response{Transaction: payment.Transaction{StatusDetail: 9, Message: "Card Expired"}},
		})
		require.NoError(t, err)
		assert.False(t, res.Approved)
		assert.Equal(t, "La tarjeta está vencida.", res.Message)
		assert.Empty(t, res.RedirectTo)
		assert.Empty(t, f.sms.to)

		items, err := f.carts.Items(ctx, "s2")
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("Empty cart", func(t *testing.T) {
		f := newCheckoutFixture(t)
		_, err := f.svc.CompleteCheckout(ctx, CompleteRequest{CheckoutRequest: validRequest("empty")})
		assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))
	})
}
