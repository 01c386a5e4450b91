package exemption

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrDuplicate signals that the email is already exempt. Handlers
	// surface it distinctly so the admin UI can say "already exempt"
	// instead of a generic failure.
	ErrDuplicate = errors.New("email is already exempt")
	// ErrNotFound is returned when no entry matches the lookup.
	ErrNotFound = errors.New("exemption entry not found")
)

type Repository interface {
	// GetByEmail expects an already-normalized email.
	GetByEmail(ctx context.Context, email string) (*Entry, error)
	// Create inserts the entry, returning ErrDuplicate on a uniqueness
	// violation.
	Create(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Entry, int, error)
}
