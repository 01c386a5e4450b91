package exemption

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry maps to the exempted_users table. Presence of an entry is a pure
// override: a doctor whose email matches is outside subscription enforcement
// entirely. Matching is by normalized email value, not by account id, so an
// exemption granted before the doctor registers still takes effect.
type Entry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	CreatedBy uuid.UUID `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
// Every path into the registry goes through this so that matches are
// case-insensitive and whitespace-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
