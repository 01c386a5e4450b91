package access

import (
	"context"

	"github.com/clinicdesk/clinicdesk/internal/domain/account"
)

type contextKey string

const resolutionKey contextKey = "access_resolution"

// WithResolution returns a context carrying the request's role resolution.
// The guard middleware attaches it after allowing a request so handlers can
// read the already-resolved identity instead of re-deriving it.
func WithResolution(ctx context.Context, r Resolution) context.Context {
	return context.WithValue(ctx, resolutionKey, r)
}

// ResolutionFromContext returns the resolution attached by the guard, or a
// zero Resolution with RoleUnauthenticated when none is present.
func ResolutionFromContext(ctx context.Context) Resolution {
	if r, ok := ctx.Value(resolutionKey).(Resolution); ok {
		return r
	}
	return Resolution{Role: RoleUnauthenticated}
}

// AdminFromContext returns the resolved admin account, or nil.
func AdminFromContext(ctx context.Context) *account.Admin {
	return ResolutionFromContext(ctx).Admin
}

// DoctorFromContext returns the resolved doctor account, or nil.
func DoctorFromContext(ctx context.Context) *account.Doctor {
	return ResolutionFromContext(ctx).Doctor
}
