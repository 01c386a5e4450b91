package subscription

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/account"
	"github.com/clinicdesk/clinicdesk/internal/platform/notification"
)

// Sweeper expires overdue active accounts and reminds the ones coming due
// soon. It is stateless: every run scans the active set fresh, and
// already-expired accounts never reappear in that scan, so running it
// twice back to back expires nothing the second time.
type Sweeper struct {
	doctors        account.DoctorRepository
	notifier       *notification.Manager
	reminderWindow int
	now            func() time.Time
	logger         zerolog.Logger
}

func NewSweeper(doctors account.DoctorRepository, notifier *notification.Manager, reminderWindowDays int, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		doctors:        doctors,
		notifier:       notifier,
		reminderWindow: reminderWindowDays,
		now:            func() time.Time { return time.Now().UTC() },
		logger:         logger.With().Str("component", "sweep").Logger(),
	}
}

// SetClock overrides the sweeper's notion of now. Tests only.
func (s *Sweeper) SetClock(now func() time.Time) { s.now = now }

// Sweep partitions active accounts by days until payment: overdue
// accounts are expired in one batch update, accounts due within the
// reminder window get a reminder email and no state change. Reminder
// dispatch is best-effort and does not affect the counts' accuracy as a
// description of state: Expired counts rows actually changed.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	now := s.now()

	active, err := s.doctors.ListActive(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("listing active accounts: %w", err)
	}

	reminders := 0
	for _, d := range active {
		if d.NextPaymentDate == nil || d.NextPaymentDate.Before(now) {
			continue
		}
		days := DaysUntilPayment(*d.NextPaymentDate, now)
		if days > s.reminderWindow {
			continue
		}
		reminders++
		s.notifier.SendTemplate(ctx, notification.TemplatePaymentReminder,
			[]string{d.Email}, map[string]string{
				"days_left": strconv.Itoa(days),
				"due_date":  d.NextPaymentDate.Format("2006-01-02"),
			})
	}

	expired, err := s.doctors.ExpireOverdue(ctx, now)
	if err != nil {
		return SweepResult{Reminders: reminders}, fmt.Errorf("expiring overdue accounts: %w", err)
	}

	s.logger.Info().Int("expired", expired).Int("reminders", reminders).Msg("sweep complete")
	return SweepResult{Expired: expired, Reminders: reminders}, nil
}
