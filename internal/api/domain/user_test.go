package domain_test

import (
	"testing"

	"github.com/carrerakart/kartapi/internal/api/domain"
	"github.com/stretchr/testify/require"
)

func TestRoleAllowed(t *testing.T) {
	adminOnly := []domain.Role{domain.RoleAdmin}
	anyRole := []domain.Role{domain.RoleAdmin, domain.RoleUser}

	require.True(t, domain.RoleAllowed(adminOnly, domain.RoleAdmin))
	require.False(t, domain.RoleAllowed(adminOnly, domain.RoleUser))
	require.True(t, domain.RoleAllowed(anyRole, domain.RoleUser))

	// Flat check: ADMIN does not implicitly contain USER.
	require.False(t, domain.RoleAllowed([]domain.Role{domain.RoleUser}, domain.RoleAdmin))
	require.False(t, domain.RoleAllowed(nil, domain.RoleAdmin))
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "alice@example.com", domain.NormalizeEmail("  Alice@Example.COM "))
}

func TestValidateEmail(t *testing.T) {
	require.NoError(t, domain.ValidateEmail("alice@example.com"))
	require.ErrorIs(t, domain.ValidateEmail("not-an-email"), domain.ErrInvalidEmail)
	require.ErrorIs(t, domain.ValidateEmail("a b@example.com"), domain.ErrInvalidEmail)
}
