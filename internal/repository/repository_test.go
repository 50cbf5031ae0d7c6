package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"galapagosrental/internal/db"
	"galapagosrental/internal/lifecycle"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, mock
}

var orderColumnNames = []string{"id", "order_number", "customer_id", "start_date", "end_date", "start_time", "end_time",
	"return_island", "pickup", "hotel_name", "total_amount", "tax_amount", "initial_payment", "status", "payment_status",
	"transaction_id", "authorization_code", "gateway_message", "language", "review_text", "review_stars",
	"review_submitted_at", "review_approved", "review_email_sent", "created_at", "updated_at"}

func orderRow(id int, status lifecycle.Status, reviewText driver.Value) []driver.Value {
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	return []driver.Value{id, 1000 + id, 7, "2025-01-10", "2025-01-12", "09:00", "09:00",
		"san-cristobal", "santa-cruz", nil, "108.40", "8.40", "28.00", int64(status), "paid",
		"TX-1", "AUTH", nil, "es", reviewText, nil, nil, false, false, now, now}
}

func TestCatalogRepository(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewCatalogRepository(conn)
	ctx := context.Background()

	t.Run("ListProducts active", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "type", "subtype", "name_es", "name_en", "description_es",
			"description_en", "public_price", "supplier_cost", "tax_percentage", "active"}).
			AddRow(1, "wetsuit", "short", "Traje corto", "Shorty", "", "", "10.00", "6.00", "0.12", true)
		mock.ExpectQuery("SELECT (.+) FROM product_config WHERE active = true").WillReturnRows(rows)

		products, err := repo.ListProducts(ctx, true)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.True(t, decimal.RequireFromString("10").Equal(products[0].PublicPrice))
		assert.Equal(t, "Shorty", products[0].Name("en"))
	})

	t.Run("ListFees", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "fee_type", "location", "amount", "active"}).
			AddRow(1, db.FeeTypeIslandReturn, "san-cristobal", "15.00", true)
		mock.ExpectQuery("SELECT (.+) FROM additional_fees").WillReturnRows(rows)

		fees, err := repo.ListFees(ctx, false)
		require.NoError(t, err)
		require.Len(t, fees, 1)
		assert.Equal(t, "san-cristobal", fees[0].Location)
	})

	t.Run("GetProductsByIDs empty", func(t *testing.T) {
		out, err := repo.GetProductsByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

var customerColumnNames = []string{"id", "user_id", "first_name", "last_name", "email", "phone", "nationality", "uid", "created_at"}

func TestCustomerRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	c := &db.Customer{FirstName: "Ana", LastName: "Vera", Email: "ana@example.com", Phone: "+593999", UID: "uid-1"}

	t.Run("Insert new", func(t *testing.T) {
		conn, mock := newMock(t)
		repo := NewCustomerRepository(conn)

		mock.ExpectQuery("SELECT (.+) FROM customers WHERE email").WithArgs(c.Email).
			WillReturnRows(sqlmock.NewRows(customerColumnNames))
		mock.ExpectQuery("INSERT INTO customers").
			WithArgs(c.FirstName, c.LastName, c.Email, sqlmock.AnyArg(), sqlmock.AnyArg(), c.UID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(5, time.Now()))

		out, err := repo.Upsert(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, 5, out.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Existing email updates", func(t *testing.T) {
		conn, mock := newMock(t)
		repo := NewCustomerRepository(conn)
		row := func() *sqlmock.Rows {
			return sqlmock.NewRows(customerColumnNames).
				AddRow(3, nil, "Ana", "Vera", c.Email, "+593999", "", "uid-old", time.Now())
		}

		mock.ExpectQuery("SELECT (.+) FROM customers WHERE email").WithArgs(c.Email).WillReturnRows(row())
		mock.ExpectExec("UPDATE customers SET").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT (.+) FROM customers WHERE id").WithArgs(3).WillReturnRows(row())

		out, err := repo.Upsert(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, 3, out.ID)
		assert.Equal(t, "uid-old", out.UID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate race re-fetches", func(t *testing.T) {
		conn, mock := newMock(t)
		repo := NewCustomerRepository(conn)

		mock.ExpectQuery("SELECT (.+) FROM customers WHERE email").WillReturnRows(sqlmock.NewRows(customerColumnNames))
		mock.ExpectQuery("INSERT INTO customers").WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectQuery("SELECT (.+) FROM customers WHERE email").
			WillReturnRows(sqlmock.NewRows(customerColumnNames).
				AddRow(9, nil, "Ana", "Vera", c.Email, "", "", "uid-9", time.Now()))

		out, err := repo.Upsert(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, 9, out.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create fills id and number", func(t *testing.T) {
		conn, mock := newMock(t)
		repo := NewOrderRepository(conn)
		o := &db.RentalOrder{CustomerID: 7, Status: lifecycle.StatusConfirmed, PaymentStatus: db.PaymentStatusPaid,
			TotalAmount: decimal.RequireFromString("108.4")}

		now := time.Now()
		mock.ExpectQuery("INSERT INTO rental_orders").
			WillReturnRows(sqlmock.NewRows([]string{"id", "order_number", "created_at", "updated_at"}).AddRow(11, 1011, now, now))

		require.NoError(t, repo.Create(ctx, o))
		assert.Equal(t, 11, o.ID)
		assert.Equal(t, 1011, o.OrderNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CreateItems inserts each line", func(t *testing.T) {
		conn, mock := newMock(t)
		repo := NewOrderRepository(conn)
		items := []db.RentalItem{
			{ProductConfigID: 1, Quantity: 2, Days: 2, UnitPrice: decimal.NewFromInt(10), Subtotal: decimal.NewFromInt(40)},
			{ProductConfigID: 2, Quantity: 3, Days: 2, UnitPrice: decimal.NewFromInt(5), Subtotal: decimal.NewFromInt(30)},
		}
		mock.ExpectExec("INSERT INTO rental_items").WithArgs(11, 1, 2, "", 2, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO rental_items").WithArgs(11, 2, 3, "", 2, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(2, 1))

		require.NoError(t, repo.CreateItems(ctx, 11, items))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetByID", func(t *testing.T) {
		conn, mock := newMock(t)
		repo := NewOrderRepository(conn)
		mock.ExpectQuery("SELECT (.+) FROM rental_orders WHERE id").WithArgs(11).
			WillReturnRows(sqlmock.NewRows(orderColumnNames).AddRow(orderRow(11, lifecycle.StatusEmailSent, "Great")...))

		o, err := repo.GetByID(ctx, 11)
		require.NoError(t, err)
		assert.Equal(t, lifecycle.StatusEmailSent, o.Status)
		assert.Equal(t, "TX-1", o.TransactionID)
		require.NotNil(t, o.ReviewText)
		assert.True(t, o.HasReview())
		assert.Empty(t, o.HotelName)
	})

	t.Run("GetByID not found", func(t *testing.T) {
		conn, mock := newMock(t)
		repo := NewOrderRepository(conn)
		mock.ExpectQuery("SELECT (.+) FROM rental_orders WHERE id").WillReturnRows(sqlmock.NewRows(orderColumnNames))

		_, err := repo.GetByID(ctx, 99)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("List with filters", func(t *testing.T) {
		conn, mock := newMock(t)
		repo := NewOrderRepository(conn)
		status := lifecycle.StatusConfirmed
		mock.ExpectQuery("SELECT (.+) FROM rental_orders o WHERE o.status = \\$1 AND o.payment_status = \\$2").
			WithArgs(int64(status), "paid", 50, 0).
			WillReturnRows(sqlmock.NewRows(orderColumnNames).AddRow(orderRow(1, status, nil)...))

		orders, err := repo.List(ctx, OrderFilter{Status: &status, PaymentStatus: "paid"})
		require.NoError(t, err)
		assert.Len(t, orders, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpdateStatus missing order", func(t *testing.T) {
		conn, mock := newMock(t)
		repo := NewOrderRepository(conn)
		mock.ExpectExec("UPDATE rental_orders SET status").WithArgs(int64(lifecycle.StatusFinalized), 5).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateStatus(ctx, 5, lifecycle.StatusFinalized), ErrNotFound)
	})

	t.Run("MarkRefunded", func(t *testing.T) {
		conn, mock := newMock(t)
		repo := NewOrderRepository(conn)
		mock.ExpectExec("UPDATE rental_orders SET status").WithArgs(int64(lifecycle.StatusRefunded), "refunded", 5).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkRefunded(ctx, 5))
	})

	t.Run("SaveReview conflict", func(t *testing.T) {
		conn, mock := newMock(t)
		repo := NewOrderRepository(conn)
		mock.ExpectExec("UPDATE rental_orders SET review_text").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveReview(ctx, 5, "Nice", 5, time.Now())
		assert.ErrorIs(t, err, ErrReviewExists)
	})

	t.Run("UpdateItemSizes", func(t *testing.T) {
		conn, mock := newMock(t)
		repo := NewOrderRepository(conn)
		mock.ExpectExec("UPDATE rental_items SET size").WithArgs("S,M", 3, 5).WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateItemSizes(ctx, 5, map[int]string{3: "S,M"}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAdminRepository_Templates(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewAdminRepository(conn)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "name", "template_type", "subject", "recipients", "html_published", "active", "updated_at"}).
		AddRow(1, "Owner report", db.TemplateTypeBusinessOwner, "Nueva venta", "{owner@example.com,ops@example.com}", "<p>x</p>", true, time.Now())
	mock.ExpectQuery("SELECT (.+) FROM email_templates WHERE 1=1 AND template_type = \\$1 AND active = true").
		WithArgs(db.TemplateTypeBusinessOwner).WillReturnRows(rows)

	templates, err := repo.ListTemplates(ctx, db.TemplateTypeBusinessOwner, true)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, []string{"owner@example.com", "ops@example.com"}, templates[0].Recipients)

	mock.ExpectExec("DELETE FROM email_templates").WithArgs(4).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DeleteTemplate(ctx, 4), ErrNotFound)

	mock.ExpectQuery("INSERT INTO gallery_images").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	img := &db.GalleryImage{URL: "https://cdn.example.com/a.jpg", Active: true}
	require.NoError(t, repo.CreateGalleryImage(ctx, img))
	assert.Equal(t, 8, img.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminAuthRepository(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewAdminAuthRepository(conn)
	ctx := context.Background()

	mock.ExpectQuery("SELECT id, email, password_hash FROM admins").WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash"}))
	admin, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, admin)

	mock.ExpectExec("INSERT INTO admins").WithArgs("boss@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	assert.NoError(t, repo.CreateNewUser(ctx, "boss@example.com", "pw"))
}

func TestJobRepository(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewJobRepository(conn)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM rental_orders WHERE status >= \\$1 AND review_email_sent = false").
		WithArgs(int64(lifecycle.StatusEmailSent)).
		WillReturnRows(sqlmock.NewRows(orderColumnNames).AddRow(orderRow(2, lifecycle.StatusFinalized, nil)...))
	orders, err := repo.GetReviewCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.False(t, orders[0].HasReview())

	assert.NoError(t, repo.MarkReviewEmailSent(ctx, nil))

	mock.ExpectExec("UPDATE rental_orders SET review_email_sent = true").WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	assert.NoError(t, repo.MarkReviewEmailSent(ctx, []int{1, 2}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
