package lifecycle

import (
	"errors"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

var ErrRefundNotAllowed = errors.New("refund not allowed")

// RefundPolicy allows refunds only on the booking's calendar day, before CutoffHour local time.
type RefundPolicy struct {
	Location   *time.Location
	CutoffHour int
}

func (p RefundPolicy) loc() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// Check returns nil when a refund may go ahead.
func (p RefundPolicy) Check(paymentStatus, transactionID string, createdAt, now time.Time) error {
	if paymentStatus != "paid" {
		return fmt.Errorf("%w: order is not paid", ErrRefundNotAllowed)
	}
	if transactionID == "" {
		return fmt.Errorf("%w: order has no transaction id", ErrRefundNotAllowed)
	}
	created := createdAt.In(p.loc())
	local := now.In(p.loc())
	if created.Format(dateLayout) != local.Format(dateLayout) {
		return fmt.Errorf("%w: refunds are only possible on the booking day", ErrRefundNotAllowed)
	}
	if local.Hour() >= p.CutoffHour {
		return fmt.Errorf("%w: refund cutoff time has passed", ErrRefundNotAllowed)
	}
	return nil
}

// ReviewCandidate is the order data review reminder policies look at.
type ReviewCandidate struct {
	Status            Status
	EndDate           string
	ReviewSubmittedAt *time.Time
}

// ReviewPolicy decides whether a review request email may be sent.
type ReviewPolicy interface {
	Eligible(c ReviewCandidate, now time.Time) bool
	Cutoff(now time.Time) time.Time
}

// CronReviewPolicy is used by the scheduled job and its admin preview:
// end_date must be on or before now minus three days.
type CronReviewPolicy struct {
	Location *time.Location
}

func (p CronReviewPolicy) Cutoff(now time.Time) time.Time {
	return now.In(locOrUTC(p.Location)).AddDate(0, 0, -3)
}

func (p CronReviewPolicy) Eligible(c ReviewCandidate, now time.Time) bool {
	if !baseEligible(c) {
		return false
	}
	end, err := time.ParseInLocation(dateLayout, c.EndDate, locOrUTC(p.Location))
	if err != nil {
		return false
	}
	return !end.After(p.Cutoff(now))
}

// ManualReviewPolicy is used by the admin "send review email" action:
// end_date must fall strictly before local midnight four days ago.
type ManualReviewPolicy struct {
	Location *time.Location
}

func (p ManualReviewPolicy) Cutoff(now time.Time) time.Time {
	local := now.In(locOrUTC(p.Location))
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	return midnight.AddDate(0, 0, -4)
}

func (p ManualReviewPolicy) Eligible(c ReviewCandidate, now time.Time) bool {
	if !baseEligible(c) {
		return false
	}
	end, err := time.ParseInLocation(dateLayout, c.EndDate, locOrUTC(p.Location))
	if err != nil {
		return false
	}
	return end.Before(p.Cutoff(now))
}

func baseEligible(c ReviewCandidate) bool {
	return c.Status >= StatusEmailSent && c.ReviewSubmittedAt == nil
}

func locOrUTC(l *time.Location) *time.Location {
	if l == nil {
		return time.UTC
	}
	return l
}
