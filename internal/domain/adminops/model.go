// Package adminops implements the admin verification workflow: the four
// manual actions an admin can take on a doctor account and the append-only
// audit log those actions leave behind.
package adminops

import (
	"time"

	"github.com/google/uuid"
)

// Action is an admin decision on a doctor account.
type Action string

const (
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionActivate   Action = "activate"
	ActionDeactivate Action = "deactivate"
)

// Valid reports whether a is one of the four known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionActivate, ActionDeactivate:
		return true
	}
	return false
}

// LogEntry is one row of the append-only admin action log. Entries are
// never updated or deleted.
type LogEntry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AdminID   uuid.UUID `db:"admin_id" json:"admin_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Action    Action    `db:"action" json:"action"`
	Details   string    `db:"details" json:"details"`
	UserAgent string    `db:"user_agent" json:"user_agent,omitempty"`
	IP        string    `db:"ip" json:"ip,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
