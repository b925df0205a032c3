package service

import (
	"context"

	"github.com/carrerakart/kartapi/internal/api/domain"
	"github.com/carrerakart/kartapi/internal/api/store"
	"github.com/carrerakart/kartapi/pkg/cryptox"
	"github.com/carrerakart/kartapi/pkg/idx"
	"github.com/carrerakart/kartapi/pkg/slogx"
)

// BootstrapService creates the initial admin account at process start.
type BootstrapService struct {
	Store store.Store
}

// EnsureAdmin creates an ADMIN user with the given credentials unless one
// already exists. It is idempotent: re-running against a bootstrapped
// database is a no-op. Returns true when a new admin was created.
func (s *BootstrapService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	log := slogx.FromContext(ctx)

	hasAdmin, err := s.Store.Users().HasAdmin(ctx)
	if err != nil {
		return false, err
	}
	if hasAdmin {
		return false, nil
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return false, err
	}

	admin := domain.User{
		ID:           idx.New().String(),
		Name:         name,
		Email:        domain.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}

	if err := s.Store.Users().CreateUser(ctx, admin); err != nil {
		return false, err
	}

	log.Info("bootstrap admin created", "email", admin.Email)
	return true, nil
}
