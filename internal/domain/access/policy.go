package access

import "strings"

// Frontend routes the guard redirects to. The SPA owns these paths; the
// server only names them in decisions.
const (
	PathLogin           = "/login"
	PathPaymentRequired = "/payment-required"
	PathDashboard       = "/dashboard"
	PathAdminHome       = "/admin"
	// PathSignOut tears the session down client-side. Unknown-role accounts
	// are sent here rather than to login so the stale session cannot
	// re-trigger guard evaluation in a loop.
	PathSignOut = "/logout?reason=account-error"
)

// Zone classifies a request path for enforcement purposes.
type Zone string

const (
	// ZoneDoctor covers the doctor dashboard and profile prefixes.
	ZoneDoctor Zone = "doctor"
	// ZoneAdmin covers the admin prefix.
	ZoneAdmin Zone = "admin"
	// ZonePublic covers login/registration pages, where the guard inverts:
	// authenticated principals are redirected to their home.
	ZonePublic Zone = "public"
)

// doctorPrefixes and adminPrefix are the protected path prefixes the edge
// middleware matches.
var doctorPrefixes = []string{"/dashboard", "/profile"}

const adminPrefix = "/admin"

// AllowsInactive reports whether a doctor-zone path stays reachable for a
// doctor whose subscription is not active. The payment-proof upload must
// be, or an expired account could never submit the proof that re-enters
// the pending/active flow.
func AllowsInactive(path string) bool {
	return path == "/dashboard/payment-proof"
}

// ZoneForPath classifies a path. Anything outside the protected prefixes is
// public.
func ZoneForPath(path string) Zone {
	if path == adminPrefix || strings.HasPrefix(path, adminPrefix+"/") {
		return ZoneAdmin
	}
	for _, p := range doctorPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return ZoneDoctor
		}
	}
	return ZonePublic
}

// Inputs are the freshly fetched facts a decision is made from. Both
// enforcement points (edge middleware and the pre-navigation route guard)
// build Inputs from authoritative store reads and call the same Decide, so
// the two checks cannot drift apart.
type Inputs struct {
	Role Role
	// DoctorRole is the doctor account's own role field; admin-equivalent
	// doctors are outside subscription enforcement.
	DoctorRole string
	IsActive   bool
	// Exempt is true when the principal's email is in the exemption
	// registry. The edge check always passes false here: it relies on
	// IsActive having been set true for exempt accounts at
	// registration/renewal time. The route guard passes a fresh lookup.
	Exempt bool
}

// Decision is the guard outcome. Exactly one of Allow or RedirectTo is
// meaningful; SignOut additionally instructs the caller to destroy the
// session before redirecting.
type Decision struct {
	Allow      bool   `json:"allow"`
	RedirectTo string `json:"redirect_to,omitempty"`
	SignOut    bool   `json:"sign_out,omitempty"`
}

func allow() Decision                 { return Decision{Allow: true} }
func redirect(target string) Decision { return Decision{RedirectTo: target} }

// Decide is the single pure policy function shared by every enforcement
// point. Failure semantics are folded in by the caller mapping store errors
// to RoleError before calling; RoleError always fails closed.
func Decide(zone Zone, in Inputs) Decision {
	switch in.Role {
	case RoleUnauthenticated, RoleError:
		if zone == ZonePublic {
			return allow()
		}
		return redirect(PathLogin)

	case RoleUnknown:
		// Matches neither admins nor doctors: a data-integrity fault, not
		// a valid state. Public pages may render, protected zones force a
		// sign-out so the account cannot loop through the guard.
		if zone == ZonePublic {
			return allow()
		}
		return Decision{RedirectTo: PathSignOut, SignOut: true}

	case RoleAdmin:
		if zone == ZonePublic {
			return redirect(PathAdminHome)
		}
		return allow()

	case RoleDoctor:
		enforced := in.DoctorRole != "admin" && !in.Exempt
		switch zone {
		case ZoneAdmin:
			return redirect(PathDashboard)
		case ZoneDoctor:
			// IsActive=false is authoritative for denial regardless of the
			// subscription status label.
			if enforced && !in.IsActive {
				return redirect(PathPaymentRequired)
			}
			return allow()
		default: // ZonePublic
			if !enforced || in.IsActive {
				return redirect(PathDashboard)
			}
			return redirect(PathPaymentRequired)
		}
	}

	// Unreachable role values fail closed.
	return redirect(PathLogin)
}
