package repository

import (
	"context"
	"database/sql"
	"fmt"

	"galapagosrental/internal/db"
	"galapagosrental/internal/lifecycle"
	"galapagosrental/internal/logger"

	"github.com/lib/pq"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{DB: db}
}

// GetReviewCandidates busca órdenes pagadas, ya confirmadas por email, sin
// reseña y sin recordatorio enviado. El corte por fecha lo aplica quien llama.
func (r *JobRepository) GetReviewCandidates(ctx context.Context) ([]db.RentalOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM rental_orders
		WHERE status >= $1 AND review_email_sent = false
		AND review_text IS NULL AND review_stars IS NULL AND review_submitted_at IS NULL
		ORDER BY end_date`
	rows, err := r.DB.QueryContext(ctx, query, lifecycle.StatusEmailSent)
	if err != nil {
		return nil, fmt.Errorf("error querying review candidates: %w", err)
	}
	defer rows.Close()

	var orders []db.RentalOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning review candidate: %w", err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return orders, nil
}

// MarkReviewEmailSent marca las órdenes para no recordarles dos veces.
func (r *JobRepository) MarkReviewEmailSent(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE rental_orders SET review_email_sent = true, updated_at = NOW() WHERE id = ANY($1)`
	result, err := r.DB.ExecContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error marking review emails sent: %w", err)
	}

	log := logger.WithComponent("job")
	if n, err := result.RowsAffected(); err != nil {
		log.Warn().Err(err).Msg("could not get rows affected")
	} else {
		log.Info().Msgf("marked review email sent for %d orders", n)
	}
	return nil
}
