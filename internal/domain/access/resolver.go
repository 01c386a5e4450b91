package access

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/account"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

// Role is the outcome of probing the admin and doctor record sets for a
// principal.
type Role string

const (
	RoleUnauthenticated Role = "unauthenticated"
	RoleAdmin           Role = "admin"
	RoleDoctor          Role = "doctor"
	// RoleUnknown means the principal matched neither record set. The
	// invariant is at most one match; zero matches is a data-integrity
	// fault that the guard answers with a forced sign-out.
	RoleUnknown Role = "unknown"
	// RoleError means a record-store failure prevented resolution. Callers
	// must treat it identically to RoleUnauthenticated (fail closed).
	RoleError Role = "error"
)

// Resolution is the request-scoped bundle produced by a single role
// resolution. It is constructed once per request and passed to every
// downstream check rather than re-derived.
type Resolution struct {
	Role      Role
	Principal *auth.Principal
	Admin     *account.Admin
	Doctor    *account.Doctor
	Err       error
}

// PolicyInputs projects the resolution into the pure policy function's
// input shape. The exemption flag is supplied by the caller because the two
// enforcement points differ on whether they consult the registry.
func (r Resolution) PolicyInputs(exempt bool) Inputs {
	in := Inputs{Role: r.Role, Exempt: exempt}
	if r.Doctor != nil {
		in.DoctorRole = r.Doctor.Role
		in.IsActive = r.Doctor.IsActive
	}
	return in
}

// Resolver determines the role of an authenticated principal by probing the
// admins table, then the doctors table. It is read-only and safe to call
// multiple times per request, though callers are expected to resolve once
// and pass the Resolution down.
type Resolver struct {
	admins  account.AdminRepository
	doctors account.DoctorRepository
	timeout time.Duration
	logger  zerolog.Logger
}

func NewResolver(admins account.AdminRepository, doctors account.DoctorRepository, storeTimeout time.Duration, logger zerolog.Logger) *Resolver {
	return &Resolver{admins: admins, doctors: doctors, timeout: storeTimeout, logger: logger}
}

// Resolve never returns an error: every failure mode is a tagged outcome the
// caller handles exhaustively. Each store call runs under a bounded timeout;
// a timeout reads as RoleError, which fails closed.
func (r *Resolver) Resolve(ctx context.Context, p *auth.Principal) Resolution {
	if p == nil || p.ID == "" {
		return Resolution{Role: RoleUnauthenticated}
	}

	adminCtx, cancel := context.WithTimeout(ctx, r.timeout)
	admin, err := r.admins.GetByPrincipalID(adminCtx, p.ID)
	cancel()
	if err == nil {
		return Resolution{Role: RoleAdmin, Principal: p, Admin: admin}
	}
	if !errors.Is(err, account.ErrNotFound) {
		r.logger.Error().Err(err).Str("principal_id", p.ID).Msg("admin lookup failed")
		return Resolution{Role: RoleError, Principal: p, Err: err}
	}

	doctorCtx, cancel := context.WithTimeout(ctx, r.timeout)
	doctor, err := r.doctors.GetByPrincipalID(doctorCtx, p.ID)
	cancel()
	if err == nil {
		return Resolution{Role: RoleDoctor, Principal: p, Doctor: doctor}
	}
	if !errors.Is(err, account.ErrNotFound) {
		r.logger.Error().Err(err).Str("principal_id", p.ID).Msg("doctor lookup failed")
		return Resolution{Role: RoleError, Principal: p, Err: err}
	}

	return Resolution{Role: RoleUnknown, Principal: p}
}
