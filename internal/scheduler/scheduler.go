package scheduler

import (
	"context"
	"time"

	"galapagosrental/internal/logger"

	"github.com/robfig/cron/v3"
)

// ReviewReminderJob is implemented by service.JobService.
type ReviewReminderJob interface {
	SendReviewReminders(ctx context.Context, now time.Time) error
}

// Scheduler runs the periodic jobs in the shop's timezone.
type Scheduler struct {
	cron    *cron.Cron
	reviews ReviewReminderJob
	loc     *time.Location
	timeout time.Duration
}

// NewScheduler registers the review reminder job under spec, a
// six-field (with seconds) cron expression.
func NewScheduler(reviews ReviewReminderJob, spec string, loc *time.Location) *Scheduler {
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron:    c,
		reviews: reviews,
		loc:     loc,
		timeout: 10 * time.Minute,
	}

	s.registerJobs(spec)
	return s
}

func (s *Scheduler) registerJobs(reviewSpec string) {
	log := logger.WithComponent("scheduler")

	// Daily review request emails
	if _, err := s.cron.AddFunc(reviewSpec, s.runReviewReminders); err != nil {
		log.Error().Err(err).Str("spec", reviewSpec).Msg("Failed to register SendReviewReminders job")
		return
	}
	log.Info().Msg("All cron jobs registered successfully")
}

func (s *Scheduler) runReviewReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.reviews.SendReviewReminders(ctx, time.Now().In(s.loc)); err != nil {
		log := logger.WithComponent("scheduler")
		log.Error().Err(err).Msg("SendReviewReminders job failed")
	}
}

func (s *Scheduler) Start() {
	log := logger.WithComponent("scheduler")
	log.Info().Msg("Starting cron scheduler...")
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	log := logger.WithComponent("scheduler")
	log.Info().Msg("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("Cron scheduler stopped")
}

// IsRunning reports whether any job is registered.
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
