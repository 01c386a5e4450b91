package adminops

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/account"
	"github.com/clinicdesk/clinicdesk/internal/platform/notification"
)

type mockAdminRepo struct {
	admins map[uuid.UUID]*account.Admin
}

func (m *mockAdminRepo) GetByID(_ context.Context, id uuid.UUID) (*account.Admin, error) {
	a, ok := m.admins[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return a, nil
}

func (m *mockAdminRepo) GetByPrincipalID(_ context.Context, principalID string) (*account.Admin, error) {
	for _, a := range m.admins {
		if a.PrincipalID == principalID {
			return a, nil
		}
	}
	return nil, account.ErrNotFound
}

func (m *mockAdminRepo) List(_ context.Context) ([]*account.Admin, error) {
	var out []*account.Admin
	for _, a := range m.admins {
		out = append(out, a)
	}
	return out, nil
}

type mockDoctorRepo struct {
	doctors   map[uuid.UUID]*account.Doctor
	updateErr error
}

func (m *mockDoctorRepo) Create(_ context.Context, d *account.Doctor) error {
	d.ID = uuid.New()
	m.doctors[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*account.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockDoctorRepo) GetByPrincipalID(_ context.Context, principalID string) (*account.Doctor, error) {
	for _, d := range m.doctors {
		if d.PrincipalID == principalID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, account.ErrNotFound
}

func (m *mockDoctorRepo) UpdateSubscription(_ context.Context, id uuid.UUID, patch account.SubscriptionPatch) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	d, ok := m.doctors[id]
	if !ok {
		return account.ErrNotFound
	}
	d.Apply(patch)
	return nil
}

func (m *mockDoctorRepo) ListPending(_ context.Context, limit, offset int) ([]*account.Doctor, int, error) {
	var out []*account.Doctor
	for _, d := range m.doctors {
		if d.SubscriptionStatus == account.StatusPendingVerification {
			out = append(out, d)
		}
	}
	return out, len(out), nil
}

func (m *mockDoctorRepo) ListActive(_ context.Context) ([]*account.Doctor, error) {
	return nil, nil
}

func (m *mockDoctorRepo) ExpireOverdue(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

type mockLogRepo struct {
	entries   []*LogEntry
	appendErr error
}

func (m *mockLogRepo) Append(_ context.Context, e *LogEntry) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	e.ID = uuid.New()
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockLogRepo) List(_ context.Context, limit, offset int) ([]*LogEntry, int, error) {
	return m.entries, len(m.entries), nil
}

type fixture struct {
	svc     *Service
	admins  *mockAdminRepo
	doctors *mockDoctorRepo
	log     *mockLogRepo
	sender  *notification.MockEmailSender
	adminID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	adminID := uuid.New()
	admins := &mockAdminRepo{admins: map[uuid.UUID]*account.Admin{
		adminID: {ID: adminID, PrincipalID: "adm-1", Email: "admin@clinic.test"},
	}}
	doctors := &mockDoctorRepo{doctors: make(map[uuid.UUID]*account.Doctor)}
	log := &mockLogRepo{}
	sender := notification.NewMockEmailSender()
	svc := NewService(admins, doctors, log, notification.NewManager(sender, zerolog.Nop()), zerolog.Nop())
	return &fixture{svc: svc, admins: admins, doctors: doctors, log: log, sender: sender, adminID: adminID}
}

func (f *fixture) seedPending() *account.Doctor {
	ref := "blob-1"
	d := &account.Doctor{
		Email:              "doc@clinic.test",
		Role:               account.DoctorRoleDoctor,
		SubscriptionStatus: account.StatusPendingVerification,
		IsActive:           false,
		PaymentProofRef:    &ref,
	}
	_ = f.doctors.Create(context.Background(), d)
	return d
}

func TestApprovePendingDoctor(t *testing.T) {
	f := newFixture(t)
	d := f.seedPending()
	now := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	f.svc.SetClock(func() time.Time { return now })

	res, err := f.svc.PerformAction(context.Background(), f.adminID, d.ID, ActionApprove, RequestMeta{})
	if err != nil {
		t.Fatalf("PerformAction: %v", err)
	}
	got := res.Doctor
	if got.SubscriptionStatus != account.StatusActive || !got.IsActive {
		t.Errorf("got %s/%v, want active/true", got.SubscriptionStatus, got.IsActive)
	}
	if got.LastPaymentDate == nil || !got.LastPaymentDate.Equal(now) {
		t.Errorf("LastPaymentDate = %v, want %v", got.LastPaymentDate, now)
	}
	// One calendar month, not thirty days.
	want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if got.NextPaymentDate == nil || !got.NextPaymentDate.Equal(want) {
		t.Errorf("NextPaymentDate = %v, want %v", got.NextPaymentDate, want)
	}
	if !res.Audited || len(f.log.entries) != 1 {
		t.Errorf("expected one audit entry, audited=%v n=%d", res.Audited, len(f.log.entries))
	}
	msgs := f.sender.Messages()
	if len(msgs) != 1 || msgs[0].To != "doc@clinic.test" {
		t.Errorf("expected approval email to doctor, got %v", msgs)
	}
}

func TestRejectClearsProofRef(t *testing.T) {
	f := newFixture(t)
	d := f.seedPending()

	res, err := f.svc.PerformAction(context.Background(), f.adminID, d.ID, ActionReject, RequestMeta{})
	if err != nil {
		t.Fatalf("PerformAction: %v", err)
	}
	got := res.Doctor
	if got.SubscriptionStatus != account.StatusExpired || got.IsActive {
		t.Errorf("got %s/%v, want expired/false", got.SubscriptionStatus, got.IsActive)
	}
	if got.PaymentProofRef != nil {
		t.Errorf("PaymentProofRef = %v, want cleared", *got.PaymentProofRef)
	}
	if len(f.log.entries) != 1 {
		t.Errorf("expected one audit entry, got %d", len(f.log.entries))
	}
}

func TestApproveRequiresPendingStatus(t *testing.T) {
	f := newFixture(t)
	d := f.seedPending()
	f.doctors.doctors[d.ID].SubscriptionStatus = account.StatusActive

	_, err := f.svc.PerformAction(context.Background(), f.adminID, d.ID, ActionApprove, RequestMeta{})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestManualActivateAndDeactivateApplyToAnyState(t *testing.T) {
	f := newFixture(t)
	d := f.seedPending()
	f.doctors.doctors[d.ID].SubscriptionStatus = account.StatusExpired

	res, err := f.svc.PerformAction(context.Background(), f.adminID, d.ID, ActionActivate, RequestMeta{})
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if res.Doctor.SubscriptionStatus != account.StatusActive || !res.Doctor.IsActive {
		t.Errorf("after activate got %s/%v", res.Doctor.SubscriptionStatus, res.Doctor.IsActive)
	}

	res, err = f.svc.PerformAction(context.Background(), f.adminID, d.ID, ActionDeactivate, RequestMeta{})
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if res.Doctor.SubscriptionStatus != account.StatusExpired || res.Doctor.IsActive {
		t.Errorf("after deactivate got %s/%v", res.Doctor.SubscriptionStatus, res.Doctor.IsActive)
	}
	if len(f.log.entries) != 2 {
		t.Errorf("expected two audit entries, got %d", len(f.log.entries))
	}
}

func TestUnknownAdminRejected(t *testing.T) {
	f := newFixture(t)
	d := f.seedPending()

	_, err := f.svc.PerformAction(context.Background(), uuid.New(), d.ID, ActionApprove, RequestMeta{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if len(f.log.entries) != 0 {
		t.Error("unauthorized attempt must not write audit entries")
	}
}

func TestUnknownDoctorRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PerformAction(context.Background(), f.adminID, uuid.New(), ActionApprove, RequestMeta{})
	if !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("err = %v, want account.ErrNotFound", err)
	}
}

func TestAuditFailureDegradesSuccess(t *testing.T) {
	f := newFixture(t)
	d := f.seedPending()
	f.log.appendErr = errors.New("disk full")

	res, err := f.svc.PerformAction(context.Background(), f.adminID, d.ID, ActionApprove, RequestMeta{})
	if err != nil {
		t.Fatalf("PerformAction: %v", err)
	}
	if res.Audited {
		t.Error("Audited = true, want degraded result")
	}
	// The state change must still have landed.
	after, _ := f.doctors.GetByID(context.Background(), d.ID)
	if after.SubscriptionStatus != account.StatusActive {
		t.Errorf("status = %s, want active", after.SubscriptionStatus)
	}
}

func TestUpdateFailureLeavesNoAudit(t *testing.T) {
	f := newFixture(t)
	d := f.seedPending()
	f.doctors.updateErr = errors.New("connection reset")

	_, err := f.svc.PerformAction(context.Background(), f.adminID, d.ID, ActionApprove, RequestMeta{})
	if err == nil {
		t.Fatal("expected error when the update fails")
	}
	if len(f.log.entries) != 0 {
		t.Error("failed update must not write audit entries")
	}
}
