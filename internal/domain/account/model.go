package account

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is the label describing where a doctor account sits in
// the payment lifecycle. It is deliberately independent of IsActive, which is
// the actual access gate: an admin can force activation or deactivation
// without reinterpreting the status label, and callers must treat
// IsActive=false as authoritative for denial regardless of status.
type SubscriptionStatus string

const (
	StatusPendingVerification SubscriptionStatus = "pending_verification"
	StatusActive              SubscriptionStatus = "active"
	StatusExpired             SubscriptionStatus = "expired"
)

// Valid reports whether s is one of the known lifecycle states.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusPendingVerification, StatusActive, StatusExpired:
		return true
	}
	return false
}

// Doctor roles. RoleAdmin marks admin-equivalent doctor accounts that are
// exempt from subscription enforcement.
const (
	DoctorRoleDoctor = "doctor"
	DoctorRoleAdmin  = "admin"
)

// Admin maps to the admins table. Admins are resolved by principal id and
// are disjoint from doctors: a principal matching both record sets is a
// data-integrity fault.
type Admin struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PrincipalID string    `db:"principal_id" json:"principal_id"`
	Email       string    `db:"email" json:"email"`
	FullName    string    `db:"full_name" json:"full_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Doctor maps to the doctors table.
type Doctor struct {
	ID                 uuid.UUID          `db:"id" json:"id"`
	PrincipalID        string             `db:"principal_id" json:"principal_id"`
	Email              string             `db:"email" json:"email"`
	FullName           string             `db:"full_name" json:"full_name"`
	Role               string             `db:"role" json:"role"`
	SubscriptionStatus SubscriptionStatus `db:"subscription_status" json:"subscription_status"`
	IsActive           bool               `db:"is_active" json:"is_active"`
	LastPaymentDate    *time.Time         `db:"last_payment_date" json:"last_payment_date,omitempty"`
	NextPaymentDate    *time.Time         `db:"next_payment_date" json:"next_payment_date,omitempty"`
	PaymentProofRef    *string            `db:"payment_proof_ref" json:"payment_proof_ref,omitempty"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updated_at"`
}

// IsAdminRole reports whether this doctor account is admin-equivalent and
// therefore outside subscription enforcement.
func (d *Doctor) IsAdminRole() bool { return d.Role == DoctorRoleAdmin }

// SubscriptionPatch is a fully-specified subscription field set. Every
// lifecycle transition is expressed as one of these and written in a single
// update, never as a read-modify-write delta, so concurrent writers can only
// produce a last-full-state-wins outcome and never an inconsistent
// intermediate state.
type SubscriptionPatch struct {
	Status          SubscriptionStatus
	IsActive        bool
	LastPaymentDate *time.Time
	NextPaymentDate *time.Time
	PaymentProofRef *string
}

// Apply copies the patch onto the doctor. Repositories use it to keep the
// in-memory copy in step with the row they just wrote.
func (d *Doctor) Apply(p SubscriptionPatch) {
	d.SubscriptionStatus = p.Status
	d.IsActive = p.IsActive
	d.LastPaymentDate = p.LastPaymentDate
	d.NextPaymentDate = p.NextPaymentDate
	d.PaymentProofRef = p.PaymentProofRef
}
