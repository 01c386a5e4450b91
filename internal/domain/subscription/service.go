package subscription

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/account"
	"github.com/clinicdesk/clinicdesk/internal/domain/exemption"
	"github.com/clinicdesk/clinicdesk/internal/platform/blobstore"
	"github.com/clinicdesk/clinicdesk/internal/platform/notification"
)

// ExemptionChecker answers whether an email bypasses subscription
// enforcement. Failures inside the checker read as not-exempt.
type ExemptionChecker interface {
	IsExempt(ctx context.Context, email string) bool
}

// Service drives the subscription lifecycle. Every transition it performs
// is written as one full-field-set update on the doctor row.
type Service struct {
	doctors    account.DoctorRepository
	admins     account.AdminRepository
	exemptions ExemptionChecker
	blobs      blobstore.BlobStore
	notifier   *notification.Manager
	grace      time.Duration
	now        func() time.Time
	logger     zerolog.Logger
}

func NewService(
	doctors account.DoctorRepository,
	admins account.AdminRepository,
	exemptions ExemptionChecker,
	blobs blobstore.BlobStore,
	notifier *notification.Manager,
	grace time.Duration,
	logger zerolog.Logger,
) *Service {
	return &Service{
		doctors:    doctors,
		admins:     admins,
		exemptions: exemptions,
		blobs:      blobs,
		notifier:   notifier,
		grace:      grace,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.With().Str("component", "subscription").Logger(),
	}
}

// SetClock overrides the service's notion of now. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Register creates a doctor account for an authenticated principal. An
// email found in the exemption registry comes up active immediately with
// payment dates seeded from now; everyone else starts pending
// verification and the admins are notified.
func (s *Service) Register(ctx context.Context, principalID, email, fullName string) (*account.Doctor, error) {
	normalized := exemption.NormalizeEmail(email)
	if principalID == "" || normalized == "" {
		return nil, fmt.Errorf("principal id and email are required")
	}

	now := s.now()
	exempt := s.exemptions.IsExempt(ctx, normalized)
	patch := RegistrationPatch(exempt, now, s.grace)

	d := &account.Doctor{
		PrincipalID: principalID,
		Email:       normalized,
		FullName:    fullName,
		Role:        account.DoctorRoleDoctor,
	}
	d.Apply(patch)

	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("creating doctor account: %w", err)
	}

	if !exempt {
		s.notifyAdmins(ctx, notification.TemplateRegistrationPending, map[string]string{
			"doctor_email": normalized,
		})
	}
	s.logger.Info().Str("doctor_id", d.ID.String()).Bool("exempt", exempt).
		Msg("doctor registered")
	return d, nil
}

// SubmitProof stores an uploaded payment proof and applies the matching
// lifecycle transition. A renewal within the grace window reactivates the
// account on the spot; a first or late payment goes to the admin queue
// with access revoked. The proof is stored first so the state change
// always points at a real blob; if the state write fails the blob is
// removed again and the whole action fails.
func (s *Service) SubmitProof(ctx context.Context, doctorID uuid.UUID, fileName, contentType string, content io.Reader) (*account.Doctor, error) {
	d, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	meta, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
		FileName:    fileName,
		ContentType: contentType,
		DoctorID:    d.ID.String(),
	}, content)
	if err != nil {
		return nil, fmt.Errorf("storing payment proof: %w", err)
	}

	now := s.now()
	patch := UploadTransition(d.LastPaymentDate, meta.ID, now, s.grace)

	if err := s.doctors.UpdateSubscription(ctx, d.ID, patch); err != nil {
		if delErr := s.blobs.Delete(ctx, meta.ID); delErr != nil {
			s.logger.Warn().Err(delErr).Str("blob_id", meta.ID).Msg("orphaned proof blob")
		}
		return nil, fmt.Errorf("applying upload transition: %w", err)
	}
	d.Apply(patch)

	if d.SubscriptionStatus == account.StatusPendingVerification {
		s.notifyAdmins(ctx, notification.TemplatePaymentSubmitted, map[string]string{
			"doctor_email": d.Email,
		})
	}
	s.logger.Info().Str("doctor_id", d.ID.String()).
		Str("status", string(d.SubscriptionStatus)).
		Msg("payment proof submitted")
	return d, nil
}

// notifyAdmins is best-effort. A mail failure never fails the action.
func (s *Service) notifyAdmins(ctx context.Context, template string, data map[string]string) {
	admins, err := s.admins.List(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("template", template).Msg("admin list failed, skipping notification")
		return
	}
	recipients := make([]string, 0, len(admins))
	for _, a := range admins {
		recipients = append(recipients, a.Email)
	}
	s.notifier.SendTemplate(ctx, template, recipients, data)
}
