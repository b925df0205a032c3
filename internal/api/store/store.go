package store

import (
	"context"
	"errors"

	"github.com/carrerakart/kartapi/internal/api/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Classifications() Classifications
	OperatingHours() OperatingHours

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id regardless of active state.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks a user up by normalized email, any active state.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// ListActiveUsers returns a page of active users, newest first.
	ListActiveUsers(ctx context.Context, limit, offset int) ([]domain.User, error)

	// CountActiveUsers returns the number of active users.
	CountActiveUsers(ctx context.Context) (int64, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUser rewrites the mutable fields and bumps updated_at.
	// Returns ErrAlreadyExists when the new email collides with another user.
	UpdateUser(ctx context.Context, u domain.User) error

	// DeactivateUser flips is_active off. The record is retained.
	DeactivateUser(ctx context.Context, id string) error

	// HasAdmin reports whether any ADMIN-role user exists (for bootstrap).
	HasAdmin(ctx context.Context) (bool, error)
}

// ClassificationFilter narrows List/Count queries. Zero values mean "no filter".
type ClassificationFilter struct {
	Category   domain.Category
	DriverName string // case-insensitive substring
	MinPoints  *float64
	MaxPoints  *float64
}

type Classifications interface {
	// GetByID returns a classification by id.
	GetByID(ctx context.Context, id string) (domain.Classification, error)

	// FindByCategoryAndDriver returns the record holding the (category,
	// driverName) pair, skipping excludeID. ErrNotFound when the pair is free.
	FindByCategoryAndDriver(ctx context.Context, category domain.Category, driverName, excludeID string) (domain.Classification, error)

	// CountWithMorePoints counts records in the category with strictly
	// greater points, skipping excludeID. Used for provisional positions.
	CountWithMorePoints(ctx context.Context, category domain.Category, points float64, excludeID string) (int64, error)

	// ListByCategory returns a category's records ordered by position.
	ListByCategory(ctx context.Context, category domain.Category) ([]domain.Classification, error)

	// ListByCategoryByPoints returns a category's records ordered by points
	// descending with ties in insertion order. This is the recompute ordering.
	ListByCategoryByPoints(ctx context.Context, category domain.Category) ([]domain.Classification, error)

	// ListAll returns every record ordered by (category, position).
	ListAll(ctx context.Context) ([]domain.Classification, error)

	// List returns a filtered page ordered by (category, position).
	List(ctx context.Context, f ClassificationFilter, limit, offset int) ([]domain.Classification, error)

	// Count returns the total number of records matching the filter.
	Count(ctx context.Context, f ClassificationFilter) (int64, error)

	// Create inserts a new record. Returns ErrAlreadyExists on a duplicate
	// (category, driverName) pair.
	Create(ctx context.Context, c domain.Classification) error

	// Update rewrites category, driver name, points and position.
	Update(ctx context.Context, c domain.Classification) error

	// UpdatePosition sets only the computed rank.
	UpdatePosition(ctx context.Context, id string, position int) error

	// Delete removes a record. Returns ErrNotFound when absent.
	Delete(ctx context.Context, id string) error
}

type OperatingHours interface {
	// ListAll returns every slot ordered by (group, slot).
	ListAll(ctx context.Context) ([]domain.OperatingHour, error)

	// ListVisible returns visible slots ordered by (group, slot).
	ListVisible(ctx context.Context) ([]domain.OperatingHour, error)

	// ListByGroup returns a group's slots ordered by slot.
	ListByGroup(ctx context.Context, group domain.Group) ([]domain.OperatingHour, error)

	// GetByID returns a slot by id.
	GetByID(ctx context.Context, id string) (domain.OperatingHour, error)

	// Create inserts a slot. Only provisioning and tests use this; the API
	// surface never creates slots. Returns ErrAlreadyExists on a duplicate
	// (group, slot) pair.
	Create(ctx context.Context, h domain.OperatingHour) error

	// Update rewrites label and visibility and bumps updated_at.
	Update(ctx context.Context, h domain.OperatingHour) error
}
