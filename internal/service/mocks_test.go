package service

import (
	"context"
	"time"

	"galapagosrental/internal/db"
	"galapagosrental/internal/events"
	"galapagosrental/internal/lifecycle"
	"galapagosrental/internal/payment"
	"galapagosrental/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockCatalogRepo
type MockCatalogRepo struct {
	mock.Mock
}

func (m *MockCatalogRepo) ListProducts(ctx context.Context, activeOnly bool) ([]db.Product, error) {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).([]db.Product), args.Error(1)
}
func (m *MockCatalogRepo) GetProductsByIDs(ctx context.Context, ids []int) (map[int]db.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]db.Product), args.Error(1)
}
func (m *MockCatalogRepo) ListFees(ctx context.Context, activeOnly bool) ([]db.AdditionalFee, error) {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).([]db.AdditionalFee), args.Error(1)
}

// MockCustomerRepo
type MockCustomerRepo struct {
	mock.Mock
}

func (m *MockCustomerRepo) GetByID(ctx context.Context, id int) (*db.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Customer), args.Error(1)
}
func (m *MockCustomerRepo) GetByEmail(ctx context.Context, email string) (*db.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Customer), args.Error(1)
}
func (m *MockCustomerRepo) Upsert(ctx context.Context, c *db.Customer) (*db.Customer, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Customer), args.Error(1)
}

// MockOrderRepo
type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) Create(ctx context.Context, o *db.RentalOrder) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}
func (m *MockOrderRepo) CreateItems(ctx context.Context, orderID int, items []db.RentalItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}
func (m *MockOrderRepo) GetByID(ctx context.Context, id int) (*db.RentalOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.RentalOrder), args.Error(1)
}
func (m *MockOrderRepo) GetItems(ctx context.Context, orderID int) ([]db.RentalItem, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]db.RentalItem), args.Error(1)
}
func (m *MockOrderRepo) List(ctx context.Context, f repository.OrderFilter) ([]db.RentalOrder, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]db.RentalOrder), args.Error(1)
}
func (m *MockOrderRepo) UpdateStatus(ctx context.Context, id int, status lifecycle.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
func (m *MockOrderRepo) MarkRefunded(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockOrderRepo) UpdateItemSizes(ctx context.Context, orderID int, sizes map[int]string) error {
	args := m.Called(ctx, orderID, sizes)
	return args.Error(0)
}
func (m *MockOrderRepo) SaveReview(ctx context.Context, id int, text string, stars int, at time.Time) error {
	args := m.Called(ctx, id, text, stars, at)
	return args.Error(0)
}
func (m *MockOrderRepo) ApproveReview(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockOrderRepo) ListApprovedReviews(ctx context.Context, limit int) ([]db.RentalOrder, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]db.RentalOrder), args.Error(1)
}

// MockAdminRepo
type MockAdminRepo struct {
	mock.Mock
}

func (m *MockAdminRepo) ListTemplates(ctx context.Context, templateType string, activeOnly bool) ([]db.EmailTemplate, error) {
	args := m.Called(ctx, templateType, activeOnly)
	return args.Get(0).([]db.EmailTemplate), args.Error(1)
}
func (m *MockAdminRepo) GetTemplate(ctx context.Context, id int) (*db.EmailTemplate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.EmailTemplate), args.Error(1)
}
func (m *MockAdminRepo) CreateTemplate(ctx context.Context, t *db.EmailTemplate) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}
func (m *MockAdminRepo) UpdateTemplate(ctx context.Context, t *db.EmailTemplate) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}
func (m *MockAdminRepo) DeleteTemplate(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockAdminRepo) ListGallery(ctx context.Context, activeOnly bool) ([]db.GalleryImage, error) {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).([]db.GalleryImage), args.Error(1)
}
func (m *MockAdminRepo) CreateGalleryImage(ctx context.Context, img *db.GalleryImage) error {
	args := m.Called(ctx, img)
	return args.Error(0)
}
func (m *MockAdminRepo) DeleteGalleryImage(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAdminAuthRepo
type MockAdminAuthRepo struct {
	mock.Mock
}

func (m *MockAdminAuthRepo) GetByEmail(ctx context.Context, email string) (*db.Admin, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Admin), args.Error(1)
}
func (m *MockAdminAuthRepo) CreateNewUser(ctx context.Context, email, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}

// MockGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) InitReference(ctx context.Context, req payment.ReferenceRequest) (*payment.ReferenceResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.ReferenceResponse), args.Error(1)
}
func (m *MockGateway) Refund(ctx context.Context, transactionID string) (*payment.RefundResponse, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.RefundResponse), args.Error(1)
}

// MockReviewJobRepo
type MockReviewJobRepo struct {
	mock.Mock
}

func (m *MockReviewJobRepo) GetReviewCandidates(ctx context.Context) ([]db.RentalOrder, error) {
	args := m.Called(ctx)
	return args.Get(0).([]db.RentalOrder), args.Error(1)
}
func (m *MockReviewJobRepo) MarkReviewEmailSent(ctx context.Context, ids []int) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

// MockReviewMailer
type MockReviewMailer struct {
	mock.Mock
}

func (m *MockReviewMailer) SendReviewRequest(ctx context.Context, order *db.RentalOrder) (*EmailReport, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*EmailReport), args.Error(1)
}

// MockSupplierNotifier
type MockSupplierNotifier struct {
	mock.Mock
}

func (m *MockSupplierNotifier) SendSupplierNotice(ctx context.Context, orderID int) (*EmailReport, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*EmailReport), args.Error(1)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	events []events.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.OrderEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

type recordingSMS struct {
	to, body []string
}

func (s *recordingSMS) SendSMS(_ context.Context, to, body string) error {
	s.to = append(s.to, to)
	s.body = append(s.body, body)
	return nil
}
