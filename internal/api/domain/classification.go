package domain

import (
	"errors"
	"strings"
	"time"
)

// Category is one of the eight fixed competitive tiers.
type Category string

const (
	CategoryPremium Category = "PREMIUM"
	CategoryOuro    Category = "OURO"
	CategoryA       Category = "A"
	CategoryB       Category = "B"
	CategoryC       Category = "C"
	CategoryD       Category = "D"
	CategoryE       Category = "E"
	CategoryF       Category = "F"
)

// Categories lists every tier in display order. Leaderboards include all of
// them, even when empty.
var Categories = []Category{
	CategoryPremium,
	CategoryOuro,
	CategoryA,
	CategoryB,
	CategoryC,
	CategoryD,
	CategoryE,
	CategoryF,
}

// Valid reports whether c is one of the fixed tiers.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Classification is a competitor's standing within a category.
// Position is a dense 1-based rank maintained by the ranking engine:
// within a category the positions always form exactly {1..N}, points
// non-increasing as position increases. Ties keep insertion order.
type Classification struct {
	ID         string
	Category   Category
	DriverName string
	Points     float64
	Position   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

var (
	ErrInvalidCategory   = errors.New("category must be one of PREMIUM, OURO, A, B, C, D, E, F")
	ErrInvalidDriverName = errors.New("driver name must be between 2 and 100 characters")
	ErrInvalidPoints     = errors.New("points must be greater than or equal to 0")
)

// ValidateDriverName checks the driver-name length constraint.
func ValidateDriverName(name string) error {
	n := len(strings.TrimSpace(name))
	if n < 2 || n > 100 {
		return ErrInvalidDriverName
	}
	return nil
}

// ValidatePoints checks the score floor.
func ValidatePoints(points float64) error {
	if points < 0 {
		return ErrInvalidPoints
	}
	return nil
}
