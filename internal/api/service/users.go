package service

import (
	"context"
	"errors"
	"time"

	"github.com/carrerakart/kartapi/internal/api/domain"
	"github.com/carrerakart/kartapi/internal/api/store"
	"github.com/carrerakart/kartapi/pkg/cryptox"
	"github.com/carrerakart/kartapi/pkg/idx"
	"github.com/carrerakart/kartapi/pkg/jwtx"
	"github.com/carrerakart/kartapi/pkg/slogx"
)

var (
	ErrEmailTaken   = errors.New("email already in use")
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials covers unknown email, deactivated account and
	// wrong password alike. One error, one message: callers can't probe
	// which addresses exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type UserService struct {
	Store    store.Store
	Signer   jwtx.Signer
	Issuer   string
	TokenTTL time.Duration
}

// UpdateUserParams is a partial update; nil fields are left unchanged.
type UpdateUserParams struct {
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
	IsActive *bool
}

// CreateUser registers a new user. The password is stored as a bcrypt hash
// and never returned.
func (s *UserService) CreateUser(
	ctx context.Context,
	name, email, password string,
	role domain.Role,
) (domain.User, error) {
	if role == "" {
		role = domain.RoleUser
	}

	if err := domain.ValidateName(name); err != nil {
		return domain.User{}, err
	}
	if err := domain.ValidateEmail(email); err != nil {
		return domain.User{}, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return domain.User{}, err
	}
	if !role.Valid() {
		return domain.User{}, domain.ErrInvalidRole
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	u := domain.User{
		ID:           idx.New().String(),
		Name:         name,
		Email:        domain.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	return s.Store.Users().GetUserByID(ctx, u.ID)
}

// Login authenticates by email and password and issues a signed token.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	log := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, "", ErrInvalidCredentials
		}
		return domain.User{}, "", err
	}

	if !u.IsActive {
		log.Warn("login attempt for deactivated user", "user_id", u.ID)
		return domain.User{}, "", ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		return domain.User{}, "", ErrInvalidCredentials
	}

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultTokenTTL
	}
	claims := jwtx.NewClaims(u.ID, u.Email, string(u.Role), s.Issuer, ttl, time.Now().UTC())

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.User{}, "", err
	}

	return u, token, nil
}

// ListUsers returns a page of active users, newest first, with the total
// active count for pagination.
func (s *UserService) ListUsers(ctx context.Context, page, limit int) ([]domain.User, int64, error) {
	page, limit = normalizePage(page, limit)

	users, err := s.Store.Users().ListActiveUsers(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.Store.Users().CountActiveUsers(ctx)
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// GetUser fetches a user by id regardless of active state. Deactivated
// records stay retrievable for admins.
func (s *UserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

// GetActiveUser fetches a user by id, treating deactivated records as absent.
// The profile endpoints use this so a deactivated account loses access even
// with a still-valid token.
func (s *UserService) GetActiveUser(ctx context.Context, id string) (domain.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if !u.IsActive {
		return domain.User{}, ErrUserNotFound
	}
	return u, nil
}

// UpdateUser applies a partial update. Email changes are re-checked for
// uniqueness against other users; password changes are re-hashed.
func (s *UserService) UpdateUser(ctx context.Context, id string, p UpdateUserParams) (domain.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if p.Name != nil {
		if err := domain.ValidateName(*p.Name); err != nil {
			return domain.User{}, err
		}
		u.Name = *p.Name
	}
	if p.Email != nil {
		if err := domain.ValidateEmail(*p.Email); err != nil {
			return domain.User{}, err
		}
		u.Email = domain.NormalizeEmail(*p.Email)
	}
	if p.Password != nil {
		if err := domain.ValidatePassword(*p.Password); err != nil {
			return domain.User{}, err
		}
		hash, err := cryptox.HashPassword(*p.Password)
		if err != nil {
			return domain.User{}, err
		}
		u.PasswordHash = hash
	}
	if p.Role != nil {
		if !p.Role.Valid() {
			return domain.User{}, domain.ErrInvalidRole
		}
		u.Role = *p.Role
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}

	if err := s.Store.Users().UpdateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	return s.Store.Users().GetUserByID(ctx, id)
}

// UpdateProfile is the self-service variant of UpdateUser: callers may change
// their own name, email and password but not role or active state.
func (s *UserService) UpdateProfile(ctx context.Context, id string, p UpdateUserParams) (domain.User, error) {
	if _, err := s.GetActiveUser(ctx, id); err != nil {
		return domain.User{}, err
	}
	p.Role = nil
	p.IsActive = nil
	return s.UpdateUser(ctx, id, p)
}

// DeactivateUser soft-deletes: the record is kept, the account stops working.
func (s *UserService) DeactivateUser(ctx context.Context, id string) error {
	err := s.Store.Users().DeactivateUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
