package adminops

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/account"
	"github.com/clinicdesk/clinicdesk/internal/platform/notification"
)

var (
	// ErrUnauthorized means the claimed actor is not an admin on record.
	ErrUnauthorized = errors.New("not an admin")
	// ErrInvalidTransition means the action does not apply to the doctor's
	// current state (approve/reject require pending verification).
	ErrInvalidTransition = errors.New("action not valid for current subscription status")
)

// Result reports a performed action. Audited is false when the state
// change landed but the audit append failed; the caller decides how to
// surface that degraded success.
type Result struct {
	Doctor  *account.Doctor `json:"doctor"`
	Action  Action          `json:"action"`
	Audited bool            `json:"audited"`
}

// RequestMeta carries request attribution recorded in the audit log.
type RequestMeta struct {
	UserAgent string
	IP        string
}

type Service struct {
	admins   account.AdminRepository
	doctors  account.DoctorRepository
	log      LogRepository
	notifier *notification.Manager
	now      func() time.Time
	logger   zerolog.Logger
}

func NewService(
	admins account.AdminRepository,
	doctors account.DoctorRepository,
	log LogRepository,
	notifier *notification.Manager,
	logger zerolog.Logger,
) *Service {
	return &Service{
		admins:   admins,
		doctors:  doctors,
		log:      log,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.With().Str("component", "adminops").Logger(),
	}
}

// SetClock overrides the service's notion of now. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// PerformAction applies an admin decision to a doctor account. The actor
// is re-verified against the admins table; the claimed id is never
// trusted on its own. The state change is one full-field-set update; the
// audit append that follows is best-effort and a failure there degrades
// the result instead of rolling anything back.
func (s *Service) PerformAction(ctx context.Context, adminID, doctorID uuid.UUID, action Action, meta RequestMeta) (*Result, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("unknown action %q", action)
	}

	admin, err := s.admins.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("verifying admin: %w", err)
	}

	d, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	patch, err := s.transition(d, action)
	if err != nil {
		return nil, err
	}

	if err := s.doctors.UpdateSubscription(ctx, d.ID, patch); err != nil {
		return nil, fmt.Errorf("applying %s: %w", action, err)
	}
	d.Apply(patch)

	audited := true
	entry := &LogEntry{
		AdminID:   admin.ID,
		DoctorID:  d.ID,
		Action:    action,
		Details:   fmt.Sprintf("%s %s (%s)", action, d.Email, d.SubscriptionStatus),
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
	}
	if err := s.log.Append(ctx, entry); err != nil {
		audited = false
		s.logger.Error().Err(err).
			Str("admin_id", admin.ID.String()).
			Str("doctor_id", d.ID.String()).
			Str("action", string(action)).
			Msg("audit append failed after state change")
	}

	s.notifyDoctor(ctx, d, action)

	s.logger.Info().
		Str("admin_id", admin.ID.String()).
		Str("doctor_id", d.ID.String()).
		Str("action", string(action)).
		Bool("audited", audited).
		Msg("admin action applied")
	return &Result{Doctor: d, Action: action, Audited: audited}, nil
}

// transition maps an action onto the full subscription field set it
// writes. Approve and reject only apply to accounts awaiting
// verification; activate and deactivate apply unconditionally.
func (s *Service) transition(d *account.Doctor, action Action) (account.SubscriptionPatch, error) {
	now := s.now()

	switch action {
	case ActionApprove:
		if d.SubscriptionStatus != account.StatusPendingVerification {
			return account.SubscriptionPatch{}, ErrInvalidTransition
		}
		next := now.AddDate(0, 1, 0)
		return account.SubscriptionPatch{
			Status:          account.StatusActive,
			IsActive:        true,
			LastPaymentDate: &now,
			NextPaymentDate: &next,
			PaymentProofRef: d.PaymentProofRef,
		}, nil
	case ActionReject:
		if d.SubscriptionStatus != account.StatusPendingVerification {
			return account.SubscriptionPatch{}, ErrInvalidTransition
		}
		return account.SubscriptionPatch{
			Status:          account.StatusExpired,
			IsActive:        false,
			LastPaymentDate: d.LastPaymentDate,
			NextPaymentDate: d.NextPaymentDate,
			PaymentProofRef: nil,
		}, nil
	case ActionActivate:
		return account.SubscriptionPatch{
			Status:          account.StatusActive,
			IsActive:        true,
			LastPaymentDate: d.LastPaymentDate,
			NextPaymentDate: d.NextPaymentDate,
			PaymentProofRef: d.PaymentProofRef,
		}, nil
	case ActionDeactivate:
		return account.SubscriptionPatch{
			Status:          account.StatusExpired,
			IsActive:        false,
			LastPaymentDate: d.LastPaymentDate,
			NextPaymentDate: d.NextPaymentDate,
			PaymentProofRef: d.PaymentProofRef,
		}, nil
	}
	return account.SubscriptionPatch{}, fmt.Errorf("unknown action %q", action)
}

func (s *Service) notifyDoctor(ctx context.Context, d *account.Doctor, action Action) {
	var template string
	var data map[string]string
	switch action {
	case ActionApprove:
		template = notification.TemplateAccountApproved
		data = map[string]string{}
		if d.NextPaymentDate != nil {
			data["next_payment_date"] = d.NextPaymentDate.Format("2006-01-02")
		}
	case ActionReject:
		template = notification.TemplateAccountRejected
	default:
		return
	}
	s.notifier.SendTemplate(ctx, template, []string{d.Email}, data)
}

// ListPending returns the verification queue.
func (s *Service) ListPending(ctx context.Context, limit, offset int) ([]*account.Doctor, int, error) {
	return s.doctors.ListPending(ctx, limit, offset)
}

// ListActions returns a page of the audit log, newest first.
func (s *Service) ListActions(ctx context.Context, limit, offset int) ([]*LogEntry, int, error) {
	return s.log.List(ctx, limit, offset)
}
