package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"galapagosrental/internal/db"
)

type CustomerRepository interface {
	GetByID(ctx context.Context, id int) (*db.Customer, error)
	GetByEmail(ctx context.Context, email string) (*db.Customer, error)
	Upsert(ctx context.Context, c *db.Customer) (*db.Customer, error)
}

type customerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, user_id, first_name, last_name, email, COALESCE(phone, ''),
	COALESCE(nationality, ''), uid, created_at`

func scanCustomer(row *sql.Row) (*db.Customer, error) {
	var c db.Customer
	var userID sql.NullString
	err := row.Scan(&c.ID, &userID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Nationality, &c.UID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		c.UserID = &userID.String
	}
	return &c, nil
}

func (r *customerRepository) GetByID(ctx context.Context, id int) (*db.Customer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	c, err := scanCustomer(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("error fetching customer %d: %w", id, err)
	}
	return c, err
}

func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*db.Customer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE email = $1`, email)
	c, err := scanCustomer(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("error fetching customer by email: %w", err)
	}
	return c, err
}

// Upsert actualiza los datos de contacto del cliente con ese email o crea uno
// nuevo. Si otra inserción del mismo email gana la carrera, se relee esa fila.
func (r *customerRepository) Upsert(ctx context.Context, c *db.Customer) (*db.Customer, error) {
	existing, err := r.GetByEmail(ctx, c.Email)
	switch {
	case err == nil:
		return r.update(ctx, existing.ID, c)
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	query := `INSERT INTO customers (first_name, last_name, email, phone, nationality, uid)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	out := *c
	err = r.db.QueryRowContext(ctx, query, c.FirstName, c.LastName, c.Email, nullString(c.Phone),
		nullString(c.Nationality), c.UID).Scan(&out.ID, &out.CreatedAt)
	if isUniqueViolation(err) {
		return r.GetByEmail(ctx, c.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("error inserting customer: %w", err)
	}
	return &out, nil
}

func (r *customerRepository) update(ctx context.Context, id int, c *db.Customer) (*db.Customer, error) {
	query := `UPDATE customers SET first_name = $1, last_name = $2, phone = COALESCE($3, phone),
		nationality = COALESCE($4, nationality) WHERE id = $5`
	if _, err := r.db.ExecContext(ctx, query, c.FirstName, c.LastName, nullString(c.Phone),
		nullString(c.Nationality), id); err != nil {
		return nil, fmt.Errorf("error updating customer %d: %w", id, err)
	}
	return r.GetByID(ctx, id)
}
