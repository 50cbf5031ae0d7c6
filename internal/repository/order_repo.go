package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"galapagosrental/internal/db"
	"galapagosrental/internal/lifecycle"
)

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status        *lifecycle.Status
	PaymentStatus string
	Search        string
	Limit         int
	Offset        int
}

type OrderRepository interface {
	Create(ctx context.Context, o *db.RentalOrder) error
	CreateItems(ctx context.Context, orderID int, items []db.RentalItem) error
	GetByID(ctx context.Context, id int) (*db.RentalOrder, error)
	GetItems(ctx context.Context, orderID int) ([]db.RentalItem, error)
	List(ctx context.Context, f OrderFilter) ([]db.RentalOrder, error)
	UpdateStatus(ctx context.Context, id int, status lifecycle.Status) error
	MarkRefunded(ctx context.Context, id int) error
	UpdateItemSizes(ctx context.Context, orderID int, sizes map[int]string) error
	SaveReview(ctx context.Context, id int, text string, stars int, at time.Time) error
	ApproveReview(ctx context.Context, id int) error
	ListApprovedReviews(ctx context.Context, limit int) ([]db.RentalOrder, error)
}

var ErrReviewExists = errors.New("review already submitted")

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, order_number, customer_id, start_date::text, end_date::text, start_time, end_time,
	return_island, pickup, hotel_name, total_amount, tax_amount, initial_payment, status, payment_status,
	transaction_id, authorization_code, gateway_message, language, review_text, review_stars,
	review_submitted_at, review_approved, review_email_sent, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (db.RentalOrder, error) {
	var (
		o                                 db.RentalOrder
		hotel, txID, authCode, gatewayMsg sql.NullString
		reviewText                        sql.NullString
		reviewStars                       sql.NullInt64
		reviewAt                          sql.NullTime
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.StartDate, &o.EndDate, &o.StartTime, &o.EndTime,
		&o.ReturnIsland, &o.Pickup, &hotel, &o.TotalAmount, &o.TaxAmount, &o.InitialPayment, &o.Status,
		&o.PaymentStatus, &txID, &authCode, &gatewayMsg, &o.Language, &reviewText, &reviewStars,
		&reviewAt, &o.ReviewApproved, &o.ReviewEmailSent, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}
	o.HotelName = hotel.String
	o.TransactionID = txID.String
	o.AuthorizationCode = authCode.String
	o.GatewayMessage = gatewayMsg.String
	if reviewText.Valid {
		o.ReviewText = &reviewText.String
	}
	if reviewStars.Valid {
		stars := int(reviewStars.Int64)
		o.ReviewStars = &stars
	}
	if reviewAt.Valid {
		o.ReviewSubmittedAt = &reviewAt.Time
	}
	return o, nil
}

// Create inserts the order and fills ID, OrderNumber and timestamps.
func (r *orderRepository) Create(ctx context.Context, o *db.RentalOrder) error {
	query := `INSERT INTO rental_orders (customer_id, start_date, end_date, start_time, end_time, return_island,
		pickup, hotel_name, total_amount, tax_amount, initial_payment, status, payment_status, transaction_id,
		authorization_code, gateway_message, language)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, order_number, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, o.CustomerID, o.StartDate, o.EndDate, o.StartTime, o.EndTime,
		o.ReturnIsland, o.Pickup, nullString(o.HotelName), o.TotalAmount, o.TaxAmount, o.InitialPayment,
		o.Status, o.PaymentStatus, nullString(o.TransactionID), nullString(o.AuthorizationCode),
		nullString(o.GatewayMessage), o.Language).Scan(&o.ID, &o.OrderNumber, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting order: %w", err)
	}
	return nil
}

// CreateItems inserta la foto de precios de cada línea. No comparte
// transacción con Create.
func (r *orderRepository) CreateItems(ctx context.Context, orderID int, items []db.RentalItem) error {
	query := `INSERT INTO rental_items (order_id, product_config_id, quantity, size, days, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, it := range items {
		if _, err := r.db.ExecContext(ctx, query, orderID, it.ProductConfigID, it.Quantity, it.Size,
			it.Days, it.UnitPrice, it.Subtotal); err != nil {
			return fmt.Errorf("error inserting item for product %d: %w", it.ProductConfigID, err)
		}
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int) (*db.RentalOrder, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM rental_orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching order %d: %w", id, err)
	}
	return &o, nil
}

func (r *orderRepository) GetItems(ctx context.Context, orderID int) ([]db.RentalItem, error) {
	query := `SELECT i.id, i.order_id, i.product_config_id, p.type, p.name_es, i.quantity, COALESCE(i.size, ''),
		i.days, i.unit_price, i.subtotal
		FROM rental_items i JOIN product_config p ON p.id = i.product_config_id
		WHERE i.order_id = $1 ORDER BY i.id`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("error querying items of order %d: %w", orderID, err)
	}
	defer rows.Close()

	items := []db.RentalItem{}
	for rows.Next() {
		var it db.RentalItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductConfigID, &it.ProductType, &it.ProductName,
			&it.Quantity, &it.Size, &it.Days, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("error scanning item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *orderRepository) List(ctx context.Context, f OrderFilter) ([]db.RentalOrder, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if f.PaymentStatus != "" {
		args = append(args, f.PaymentStatus)
		where = append(where, fmt.Sprintf("o.payment_status = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf(
			"o.customer_id IN (SELECT id FROM customers WHERE email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)",
			len(args), len(args), len(args)))
	}

	query := `SELECT ` + prefixColumns("o.", orderColumns) + ` FROM rental_orders o`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return r.queryOrders(ctx, query, args...)
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]db.RentalOrder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying orders: %w", err)
	}
	defer rows.Close()

	orders := []db.RentalOrder{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int, status lifecycle.Status) error {
	res, err := r.db.ExecContext(ctx, `UPDATE rental_orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("error updating status of order %d: %w", id, err)
	}
	return expectOneRow(res)
}

func (r *orderRepository) MarkRefunded(ctx context.Context, id int) error {
	query := `UPDATE rental_orders SET status = $1, payment_status = $2, updated_at = NOW() WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, lifecycle.StatusRefunded, db.PaymentStatusRefunded, id)
	if err != nil {
		return fmt.Errorf("error marking order %d refunded: %w", id, err)
	}
	return expectOneRow(res)
}

// UpdateItemSizes guarda las tallas de cada item separadas por coma.
func (r *orderRepository) UpdateItemSizes(ctx context.Context, orderID int, sizes map[int]string) error {
	query := `UPDATE rental_items SET size = $1 WHERE id = $2 AND order_id = $3`
	for itemID, size := range sizes {
		res, err := r.db.ExecContext(ctx, query, size, itemID, orderID)
		if err != nil {
			return fmt.Errorf("error updating size of item %d: %w", itemID, err)
		}
		if err := expectOneRow(res); err != nil {
			return fmt.Errorf("item %d: %w", itemID, err)
		}
	}
	return nil
}

// SaveReview guarda la reseña solo si la orden todavía no tiene ninguna.
func (r *orderRepository) SaveReview(ctx context.Context, id int, text string, stars int, at time.Time) error {
	query := `UPDATE rental_orders SET review_text = $1, review_stars = $2, review_submitted_at = $3, updated_at = NOW()
		WHERE id = $4 AND review_text IS NULL AND review_stars IS NULL AND review_submitted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, text, stars, at, id)
	if err != nil {
		return fmt.Errorf("error saving review of order %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReviewExists
	}
	return nil
}

func (r *orderRepository) ApproveReview(ctx context.Context, id int) error {
	query := `UPDATE rental_orders SET review_approved = true, updated_at = NOW()
		WHERE id = $1 AND review_submitted_at IS NOT NULL`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error approving review of order %d: %w", id, err)
	}
	return expectOneRow(res)
}

func (r *orderRepository) ListApprovedReviews(ctx context.Context, limit int) ([]db.RentalOrder, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + orderColumns + ` FROM rental_orders
		WHERE review_approved = true AND review_submitted_at IS NOT NULL
		ORDER BY review_submitted_at DESC LIMIT $1`
	return r.queryOrders(ctx, query, limit)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func prefixColumns(prefix, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
