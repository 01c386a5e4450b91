package access

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/account"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

// -- Mock Repositories --

type mockAdminRepo struct {
	byPrincipal map[string]*account.Admin
	err         error
}

func newMockAdminRepo() *mockAdminRepo {
	return &mockAdminRepo{byPrincipal: make(map[string]*account.Admin)}
}

func (m *mockAdminRepo) GetByID(_ context.Context, id uuid.UUID) (*account.Admin, error) {
	for _, a := range m.byPrincipal {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, account.ErrNotFound
}

func (m *mockAdminRepo) GetByPrincipalID(_ context.Context, principalID string) (*account.Admin, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.byPrincipal[principalID]
	if !ok {
		return nil, account.ErrNotFound
	}
	return a, nil
}

func (m *mockAdminRepo) List(_ context.Context) ([]*account.Admin, error) {
	var admins []*account.Admin
	for _, a := range m.byPrincipal {
		admins = append(admins, a)
	}
	return admins, nil
}

type mockDoctorRepo struct {
	byPrincipal map[string]*account.Doctor
	err         error
}

func newMockDoctorRepo() *mockDoctorRepo {
	return &mockDoctorRepo{byPrincipal: make(map[string]*account.Doctor)}
}

func (m *mockDoctorRepo) Create(_ context.Context, d *account.Doctor) error {
	d.ID = uuid.New()
	m.byPrincipal[d.PrincipalID] = d
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*account.Doctor, error) {
	for _, d := range m.byPrincipal {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, account.ErrNotFound
}

func (m *mockDoctorRepo) GetByPrincipalID(_ context.Context, principalID string) (*account.Doctor, error) {
	if m.err != nil {
		return nil, m.err
	}
	d, ok := m.byPrincipal[principalID]
	if !ok {
		return nil, account.ErrNotFound
	}
	return d, nil
}

func (m *mockDoctorRepo) UpdateSubscription(_ context.Context, id uuid.UUID, p account.SubscriptionPatch) error {
	for _, d := range m.byPrincipal {
		if d.ID == id {
			d.Apply(p)
			return nil
		}
	}
	return account.ErrNotFound
}

func (m *mockDoctorRepo) ListPending(_ context.Context, _, _ int) ([]*account.Doctor, int, error) {
	var pending []*account.Doctor
	for _, d := range m.byPrincipal {
		if d.SubscriptionStatus == account.StatusPendingVerification {
			pending = append(pending, d)
		}
	}
	return pending, len(pending), nil
}

func (m *mockDoctorRepo) ListActive(_ context.Context) ([]*account.Doctor, error) {
	var active []*account.Doctor
	for _, d := range m.byPrincipal {
		if d.SubscriptionStatus == account.StatusActive {
			active = append(active, d)
		}
	}
	return active, nil
}

func (m *mockDoctorRepo) ExpireOverdue(_ context.Context, now time.Time) (int, error) {
	count := 0
	for _, d := range m.byPrincipal {
		if d.SubscriptionStatus == account.StatusActive && d.NextPaymentDate != nil && d.NextPaymentDate.Before(now) {
			d.SubscriptionStatus = account.StatusExpired
			d.IsActive = false
			count++
		}
	}
	return count, nil
}

func newTestResolver(admins *mockAdminRepo, doctors *mockDoctorRepo) *Resolver {
	logger := zerolog.New(os.Stderr)
	return NewResolver(admins, doctors, time.Second, logger)
}

// -- Tests --

func TestResolve_Unauthenticated(t *testing.T) {
	r := newTestResolver(newMockAdminRepo(), newMockDoctorRepo())

	res := r.Resolve(context.Background(), nil)
	if res.Role != RoleUnauthenticated {
		t.Errorf("expected unauthenticated, got %v", res.Role)
	}

	res = r.Resolve(context.Background(), &auth.Principal{})
	if res.Role != RoleUnauthenticated {
		t.Errorf("expected unauthenticated for empty id, got %v", res.Role)
	}
}

func TestResolve_Admin(t *testing.T) {
	admins := newMockAdminRepo()
	admins.byPrincipal["p-1"] = &account.Admin{ID: uuid.New(), PrincipalID: "p-1", Email: "admin@clinic.test"}
	r := newTestResolver(admins, newMockDoctorRepo())

	res := r.Resolve(context.Background(), &auth.Principal{ID: "p-1", Email: "admin@clinic.test"})
	if res.Role != RoleAdmin {
		t.Fatalf("expected admin, got %v", res.Role)
	}
	if res.Admin == nil || res.Admin.PrincipalID != "p-1" {
		t.Error("expected admin record on resolution")
	}
}

func TestResolve_Doctor(t *testing.T) {
	doctors := newMockDoctorRepo()
	doctors.byPrincipal["p-2"] = &account.Doctor{
		ID:                 uuid.New(),
		PrincipalID:        "p-2",
		Role:               account.DoctorRoleDoctor,
		SubscriptionStatus: account.StatusActive,
		IsActive:           true,
	}
	r := newTestResolver(newMockAdminRepo(), doctors)

	res := r.Resolve(context.Background(), &auth.Principal{ID: "p-2"})
	if res.Role != RoleDoctor {
		t.Fatalf("expected doctor, got %v", res.Role)
	}
	if res.Doctor == nil || !res.Doctor.IsActive {
		t.Error("expected doctor record on resolution")
	}
}

func TestResolve_Unknown(t *testing.T) {
	r := newTestResolver(newMockAdminRepo(), newMockDoctorRepo())
	res := r.Resolve(context.Background(), &auth.Principal{ID: "p-phantom"})
	if res.Role != RoleUnknown {
		t.Errorf("expected unknown, got %v", res.Role)
	}
}

func TestResolve_StoreErrorFailsClosed(t *testing.T) {
	admins := newMockAdminRepo()
	admins.err = fmt.Errorf("connection refused")
	r := newTestResolver(admins, newMockDoctorRepo())

	res := r.Resolve(context.Background(), &auth.Principal{ID: "p-1"})
	if res.Role != RoleError {
		t.Fatalf("expected error role, got %v", res.Role)
	}
	if res.Err == nil {
		t.Error("expected underlying error to be recorded")
	}

	// A doctor-table failure after a clean admin miss also fails closed.
	doctors := newMockDoctorRepo()
	doctors.err = fmt.Errorf("connection refused")
	r = newTestResolver(newMockAdminRepo(), doctors)
	res = r.Resolve(context.Background(), &auth.Principal{ID: "p-1"})
	if res.Role != RoleError {
		t.Errorf("expected error role for doctor lookup failure, got %v", res.Role)
	}
}

func TestResolve_AdminWinsOverDoctor(t *testing.T) {
	// The record sets should be disjoint; if they ever are not, the admin
	// probe runs first and wins deterministically.
	admins := newMockAdminRepo()
	admins.byPrincipal["p-1"] = &account.Admin{ID: uuid.New(), PrincipalID: "p-1"}
	doctors := newMockDoctorRepo()
	doctors.byPrincipal["p-1"] = &account.Doctor{ID: uuid.New(), PrincipalID: "p-1"}
	r := newTestResolver(admins, doctors)

	res := r.Resolve(context.Background(), &auth.Principal{ID: "p-1"})
	if res.Role != RoleAdmin {
		t.Errorf("expected admin precedence, got %v", res.Role)
	}
}

func TestPolicyInputs(t *testing.T) {
	res := Resolution{
		Role: RoleDoctor,
		Doctor: &account.Doctor{
			Role:     account.DoctorRoleAdmin,
			IsActive: true,
		},
	}
	in := res.PolicyInputs(true)
	if in.Role != RoleDoctor || in.DoctorRole != "admin" || !in.IsActive || !in.Exempt {
		t.Errorf("unexpected policy inputs: %+v", in)
	}
}
