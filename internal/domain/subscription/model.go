// Package subscription owns the payment lifecycle of doctor accounts:
// registration state, payment-proof submission with grace-window
// auto-renewal, and the scheduled expiry sweep. Admin decisions on
// pending accounts live in the adminops package.
package subscription

import (
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/account"
)

// RegistrationPatch returns the initial subscription field set for a new
// doctor account. Exempt emails skip verification entirely and come up
// active; everyone else waits for an admin.
func RegistrationPatch(exempt bool, now time.Time, grace time.Duration) account.SubscriptionPatch {
	if !exempt {
		return account.SubscriptionPatch{
			Status:   account.StatusPendingVerification,
			IsActive: false,
		}
	}
	next := now.Add(grace)
	return account.SubscriptionPatch{
		Status:          account.StatusActive,
		IsActive:        true,
		LastPaymentDate: &now,
		NextPaymentDate: &next,
	}
}

// UploadTransition computes the field set for a payment-proof upload.
//
// A renewal inside the grace window auto-renews with no admin step. The
// boundary is inclusive: an upload at exactly lastPayment+grace still
// auto-renews. A first-ever payment, or a late renewal, parks the account
// in pending verification with access revoked until an admin approves;
// the payment dates still advance so the eventual approval starts from
// the submission time.
func UploadTransition(lastPayment *time.Time, proofRef string, now time.Time, grace time.Duration) account.SubscriptionPatch {
	next := now.Add(grace)
	ref := proofRef

	if lastPayment != nil && now.Sub(*lastPayment) <= grace {
		return account.SubscriptionPatch{
			Status:          account.StatusActive,
			IsActive:        true,
			LastPaymentDate: &now,
			NextPaymentDate: &next,
			PaymentProofRef: &ref,
		}
	}
	return account.SubscriptionPatch{
		Status:          account.StatusPendingVerification,
		IsActive:        false,
		LastPaymentDate: &now,
		NextPaymentDate: &next,
		PaymentProofRef: &ref,
	}
}

// SweepResult reports what a single expiry sweep did.
type SweepResult struct {
	Expired   int `json:"expired"`
	Reminders int `json:"reminders"`
}

// DaysUntilPayment returns the number of whole days until the payment is
// due, rounding partial days up. Today counts as 0; an overdue account is
// negative once it is a full day past due.
func DaysUntilPayment(next, now time.Time) int {
	d := next.Sub(now)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}
