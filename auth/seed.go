package auth

import (
	"context"
	"errors"
	"fmt"
)

// Seed registers each account unless its email is already taken.
func (s *Service) Seed(ctx context.Context, accounts ...RegisterRequest) error {
	for _, a := range accounts {
		if _, err := s.Register(ctx, a); err != nil && !errors.Is(err, ErrDuplicateEmail) {
			return fmt.Errorf("auth: seed %s: %w", a.Email, err)
		}
	}
	return nil
}
