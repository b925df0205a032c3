package domain

import (
	"errors"
	"strings"
	"time"
)

// Group addresses one of the two fixed display areas.
type Group string

const (
	GroupHeader Group = "header"
	GroupFooter Group = "footer"
)

// Valid reports whether g is a known display group.
func (g Group) Valid() bool {
	return g == GroupHeader || g == GroupFooter
}

// OperatingHour is one labeled display slot. The catalogue of slots is fixed
// at provisioning time; the API only ever mutates label and visibility.
type OperatingHour struct {
	ID        string
	Group     Group
	Slot      int
	Label     string
	Visible   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	ErrInvalidGroup = errors.New("group must be header or footer")
	ErrInvalidSlot  = errors.New("invalid slot for group (header: 1-2, footer: 1-9)")
	ErrInvalidLabel = errors.New("label must be between 1 and 200 characters")
)

// ValidateSlot enforces the per-group slot ranges. The ranges must hold even
// though slots never change after seeding.
func ValidateSlot(group Group, slot int) error {
	if !group.Valid() {
		return ErrInvalidGroup
	}
	switch group {
	case GroupHeader:
		if slot < 1 || slot > 2 {
			return ErrInvalidSlot
		}
	case GroupFooter:
		if slot < 1 || slot > 9 {
			return ErrInvalidSlot
		}
	}
	return nil
}

// ValidateLabel checks the display-label length constraint.
func ValidateLabel(label string) error {
	n := len(strings.TrimSpace(label))
	if n < 1 || n > 200 {
		return ErrInvalidLabel
	}
	return nil
}

// Validate checks all invariants of an operating hour record.
func (h OperatingHour) Validate() error {
	if err := ValidateSlot(h.Group, h.Slot); err != nil {
		return err
	}
	return ValidateLabel(h.Label)
}
