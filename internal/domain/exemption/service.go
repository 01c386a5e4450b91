package exemption

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// IsExempt reports whether the email has a registry entry. A store failure
// is logged and reported as not-exempt: the lookup must never grant an
// otherwise-blocked doctor access, and denying the bypass simply lets the
// normal subscription check proceed.
func (s *Service) IsExempt(ctx context.Context, email string) bool {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return false
	}

	_, err := s.repo.GetByEmail(ctx, normalized)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrNotFound) {
		s.logger.Error().Err(err).Str("email", normalized).
			Msg("exemption lookup failed, treating as not exempt")
	}
	return false
}

// Lookup returns the registry entry for the email, or ErrNotFound.
func (s *Service) Lookup(ctx context.Context, email string) (*Entry, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

// Add creates an exemption entry for the email, attributed to the admin who
// granted it. Returns ErrDuplicate when the email is already exempt.
func (s *Service) Add(ctx context.Context, email string, createdBy uuid.UUID) (*Entry, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return nil, fmt.Errorf("email is required")
	}

	entry := &Entry{
		Email:     normalized,
		CreatedBy: createdBy,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Remove deletes the entry by id. Returns ErrNotFound when it does not exist.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// List returns a page of registry entries with the total count.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Entry, int, error) {
	return s.repo.List(ctx, limit, offset)
}
