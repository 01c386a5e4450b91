package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no row matches the lookup.
var ErrNotFound = errors.New("account not found")

type AdminRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Admin, error)
	GetByPrincipalID(ctx context.Context, principalID string) (*Admin, error)
	List(ctx context.Context) ([]*Admin, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByPrincipalID(ctx context.Context, principalID string) (*Doctor, error)
	// UpdateSubscription writes the full subscription field set in a single
	// statement. It returns ErrNotFound when the doctor row is gone.
	UpdateSubscription(ctx context.Context, id uuid.UUID, patch SubscriptionPatch) error
	ListPending(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
	// ListActive returns every account with subscription_status = 'active';
	// already-expired accounts never appear, which is what makes the expiry
	// sweep idempotent.
	ListActive(ctx context.Context) ([]*Doctor, error)
	// ExpireOverdue demotes all active accounts whose next payment date is
	// before now, in one statement, and reports how many rows changed.
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}
