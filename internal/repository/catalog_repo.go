package repository

import (
	"context"
	"database/sql"
	"fmt"

	"galapagosrental/internal/db"

	"github.com/lib/pq"
)

type CatalogRepository interface {
	ListProducts(ctx context.Context, activeOnly bool) ([]db.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int) (map[int]db.Product, error)
	ListFees(ctx context.Context, activeOnly bool) ([]db.AdditionalFee, error)
}

type catalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

const productColumns = `id, type, COALESCE(subtype, ''), name_es, name_en, COALESCE(description_es, ''),
	COALESCE(description_en, ''), public_price, supplier_cost, tax_percentage, active`

func scanProduct(row interface{ Scan(...any) error }) (db.Product, error) {
	var p db.Product
	err := row.Scan(&p.ID, &p.Type, &p.Subtype, &p.NameEs, &p.NameEn, &p.DescriptionEs,
		&p.DescriptionEn, &p.PublicPrice, &p.SupplierCost, &p.TaxPercentage, &p.Active)
	return p, err
}

func (r *catalogRepository) ListProducts(ctx context.Context, activeOnly bool) ([]db.Product, error) {
	query := `SELECT ` + productColumns + ` FROM product_config`
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY type, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying products: %w", err)
	}
	defer rows.Close()

	products := []db.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *catalogRepository) GetProductsByIDs(ctx context.Context, ids []int) (map[int]db.Product, error) {
	out := make(map[int]db.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + productColumns + ` FROM product_config WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("error querying products by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning product: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *catalogRepository) ListFees(ctx context.Context, activeOnly bool) ([]db.AdditionalFee, error) {
	query := `SELECT id, fee_type, location, amount, active FROM additional_fees`
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying fees: %w", err)
	}
	defer rows.Close()

	fees := []db.AdditionalFee{}
	for rows.Next() {
		var f db.AdditionalFee
		if err := rows.Scan(&f.ID, &f.FeeType, &f.Location, &f.Amount, &f.Active); err != nil {
			return nil, fmt.Errorf("error scanning fee: %w", err)
		}
		fees = append(fees, f)
	}
	return fees, rows.Err()
}
