package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"galapagosrental/internal/db"
	apperrors "galapagosrental/internal/errors"
	"galapagosrental/internal/lifecycle"
	"galapagosrental/internal/logger"
	"galapagosrental/internal/repository"
)

// ReviewJobRepository is the slice of JobRepository the reminder job needs.
type ReviewJobRepository interface {
	GetReviewCandidates(ctx context.Context) ([]db.RentalOrder, error)
	MarkReviewEmailSent(ctx context.Context, ids []int) error
}

type ReviewMailer interface {
	SendReviewRequest(ctx context.Context, order *db.RentalOrder) (*EmailReport, error)
}

type JobService struct {
	Repo   ReviewJobRepository
	orders repository.OrderRepository
	mailer ReviewMailer
	cron   lifecycle.ReviewPolicy
	manual lifecycle.ReviewPolicy
}

func NewJobService(repo ReviewJobRepository, orders repository.OrderRepository, mailer ReviewMailer, loc *time.Location) *JobService {
	return &JobService{
		Repo:   repo,
		orders: orders,
		mailer: mailer,
		cron:   lifecycle.CronReviewPolicy{Location: loc},
		manual: lifecycle.ManualReviewPolicy{Location: loc},
	}
}

// ReviewCandidates lists orders the scheduled reminder would email now.
func (s *JobService) ReviewCandidates(ctx context.Context, now time.Time) ([]db.RentalOrder, error) {
	orders, err := s.Repo.GetReviewCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("cron job: failed to get review candidates: %w", err)
	}
	eligible := []db.RentalOrder{}
	for _, o := range orders {
		if s.cron.Eligible(candidate(o), now) {
			eligible = append(eligible, o)
		}
	}
	return eligible, nil
}

// SendReviewReminders emails every eligible customer and flags the orders.
func (s *JobService) SendReviewReminders(ctx context.Context, now time.Time) error {
	log := logger.WithComponent("job")
	log.Info().Msg("Cron Job: Checking for orders to request a review...")

	orders, err := s.ReviewCandidates(ctx, now)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		log.Info().Msg("Cron Job: No orders eligible for a review request.")
		return nil
	}

	var sent []int
	for i := range orders {
		report, err := s.mailer.SendReviewRequest(ctx, &orders[i])
		if err != nil {
			log.Error().Err(err).Int("order_id", orders[i].ID).Msg("review request failed")
			continue
		}
		if report.Sent > 0 {
			sent = append(sent, orders[i].ID)
		}
	}

	if err := s.Repo.MarkReviewEmailSent(ctx, sent); err != nil {
		return fmt.Errorf("cron job: failed to mark review emails: %w", err)
	}
	log.Info().Msgf("Cron Job: Sent review requests for %d of %d orders.", len(sent), len(orders))
	return nil
}

// SendReviewEmail is the admin action for one order. It uses the manual
// cutoff, which differs from the scheduled job's.
func (s *JobService) SendReviewEmail(ctx context.Context, orderID int, now time.Time) (*EmailReport, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("order not found")
	}
	if err != nil {
		return nil, err
	}
	if !s.manual.Eligible(candidate(*o), now) {
		return nil, apperrors.Conflict("order is not eligible for a review request yet")
	}

	report, err := s.mailer.SendReviewRequest(ctx, o)
	if err != nil {
		return nil, err
	}
	if report.Sent > 0 {
		if err := s.Repo.MarkReviewEmailSent(ctx, []int{orderID}); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func candidate(o db.RentalOrder) lifecycle.ReviewCandidate {
	return lifecycle.ReviewCandidate{Status: o.Status, EndDate: o.EndDate, ReviewSubmittedAt: o.ReviewSubmittedAt}
}
