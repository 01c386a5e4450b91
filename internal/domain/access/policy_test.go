package access

import "testing"

func TestZoneForPath(t *testing.T) {
	tests := []struct {
		path string
		want Zone
	}{
		{"/dashboard", ZoneDoctor},
		{"/dashboard/patients", ZoneDoctor},
		{"/profile", ZoneDoctor},
		{"/profile/settings", ZoneDoctor},
		{"/admin", ZoneAdmin},
		{"/admin/verify-payment", ZoneAdmin},
		{"/login", ZonePublic},
		{"/register", ZonePublic},
		{"/", ZonePublic},
		{"/dashboards", ZonePublic},
		{"/administrator", ZonePublic},
	}
	for _, tt := range tests {
		if got := ZoneForPath(tt.path); got != tt.want {
			t.Errorf("ZoneForPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestDecide_Unauthenticated(t *testing.T) {
	for _, zone := range []Zone{ZoneDoctor, ZoneAdmin} {
		d := Decide(zone, Inputs{Role: RoleUnauthenticated})
		if d.Allow || d.RedirectTo != PathLogin {
			t.Errorf("zone %v: expected login redirect, got %+v", zone, d)
		}
	}
	if d := Decide(ZonePublic, Inputs{Role: RoleUnauthenticated}); !d.Allow {
		t.Errorf("public zone should render for anonymous, got %+v", d)
	}
}

func TestDecide_StoreErrorFailsClosed(t *testing.T) {
	for _, zone := range []Zone{ZoneDoctor, ZoneAdmin} {
		d := Decide(zone, Inputs{Role: RoleError})
		if d.Allow || d.RedirectTo != PathLogin {
			t.Errorf("zone %v: store error must fail closed, got %+v", zone, d)
		}
	}
}

func TestDecide_UnknownRoleSignsOut(t *testing.T) {
	d := Decide(ZoneDoctor, Inputs{Role: RoleUnknown})
	if d.Allow {
		t.Fatal("unknown role must not be allowed")
	}
	if !d.SignOut {
		t.Error("unknown role must be signed out, not merely redirected")
	}
	if d.RedirectTo != PathSignOut {
		t.Errorf("expected sign-out target, got %q", d.RedirectTo)
	}

	// Public pages may still render so login itself never loops.
	if d := Decide(ZonePublic, Inputs{Role: RoleUnknown}); !d.Allow {
		t.Errorf("public zone should render for unknown role, got %+v", d)
	}
}

func TestDecide_Admin(t *testing.T) {
	if d := Decide(ZoneAdmin, Inputs{Role: RoleAdmin}); !d.Allow {
		t.Errorf("admin in admin zone: %+v", d)
	}
	if d := Decide(ZoneDoctor, Inputs{Role: RoleAdmin}); !d.Allow {
		t.Errorf("admin in doctor zone: %+v", d)
	}
	if d := Decide(ZonePublic, Inputs{Role: RoleAdmin}); d.RedirectTo != PathAdminHome {
		t.Errorf("admin on public page should go to admin home, got %+v", d)
	}
}

func TestDecide_DoctorInactiveDenied(t *testing.T) {
	// IsActive=false is authoritative regardless of the status label, so
	// the policy only sees the boolean.
	d := Decide(ZoneDoctor, Inputs{Role: RoleDoctor, DoctorRole: "doctor", IsActive: false})
	if d.Allow || d.RedirectTo != PathPaymentRequired {
		t.Errorf("inactive doctor must be sent to payment-required, got %+v", d)
	}
}

func TestDecide_DoctorActiveAllowed(t *testing.T) {
	d := Decide(ZoneDoctor, Inputs{Role: RoleDoctor, DoctorRole: "doctor", IsActive: true})
	if !d.Allow {
		t.Errorf("active doctor should pass, got %+v", d)
	}
}

func TestDecide_AdminRoleDoctorBypassesEnforcement(t *testing.T) {
	d := Decide(ZoneDoctor, Inputs{Role: RoleDoctor, DoctorRole: "admin", IsActive: false})
	if !d.Allow {
		t.Errorf("admin-role doctor is outside subscription enforcement, got %+v", d)
	}
}

func TestDecide_ExemptDoctorBypassesEnforcement(t *testing.T) {
	d := Decide(ZoneDoctor, Inputs{Role: RoleDoctor, DoctorRole: "doctor", IsActive: false, Exempt: true})
	if !d.Allow {
		t.Errorf("exempt doctor is outside subscription enforcement, got %+v", d)
	}
}

func TestDecide_DoctorInAdminZone(t *testing.T) {
	d := Decide(ZoneAdmin, Inputs{Role: RoleDoctor, DoctorRole: "doctor", IsActive: true})
	if d.Allow || d.RedirectTo != PathDashboard {
		t.Errorf("doctor in admin zone should be sent to dashboard, got %+v", d)
	}
}

func TestDecide_DoctorOnPublicPage(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
		want string
	}{
		{"active", Inputs{Role: RoleDoctor, DoctorRole: "doctor", IsActive: true}, PathDashboard},
		{"inactive", Inputs{Role: RoleDoctor, DoctorRole: "doctor", IsActive: false}, PathPaymentRequired},
		{"exempt inactive", Inputs{Role: RoleDoctor, DoctorRole: "doctor", IsActive: false, Exempt: true}, PathDashboard},
		{"admin-role inactive", Inputs{Role: RoleDoctor, DoctorRole: "admin", IsActive: false}, PathDashboard},
	}
	for _, tt := range tests {
		d := Decide(ZonePublic, tt.in)
		if d.Allow || d.RedirectTo != tt.want {
			t.Errorf("%s: expected redirect to %q, got %+v", tt.name, tt.want, d)
		}
	}
}
