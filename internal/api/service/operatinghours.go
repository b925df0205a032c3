package service

import (
	"context"
	"errors"

	"github.com/carrerakart/kartapi/internal/api/domain"
	"github.com/carrerakart/kartapi/internal/api/store"
)

var ErrOperatingHourNotFound = errors.New("operating hour not found")

// OperatingHourService manages the fixed catalogue of display slots. Slots
// are provisioned once; the service only ever changes labels and visibility.
type OperatingHourService struct {
	Store store.Store
}

// UpdateOperatingHourParams is a partial update; nil fields are left unchanged.
type UpdateOperatingHourParams struct {
	Label   *string
	Visible *bool
}

// OperatingHourItemError records a single failed bulk update item.
type OperatingHourItemError struct {
	Index int
	ID    string
	Err   error
}

// OperatingHoursBulkResult summarizes a bulk label/visibility update.
type OperatingHoursBulkResult struct {
	Updated []domain.OperatingHour
	Errors  []OperatingHourItemError
}

// BulkOperatingHourItem is one entry of a bulk update payload.
type BulkOperatingHourItem struct {
	ID      string
	Label   *string
	Visible *bool
}

// ListGrouped returns every slot keyed by group, both groups always present.
func (s *OperatingHourService) ListGrouped(ctx context.Context) (map[domain.Group][]domain.OperatingHour, error) {
	all, err := s.Store.OperatingHours().ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return groupSlots(all), nil
}

// ListVisibleGrouped returns only visible slots keyed by group. This is the
// public read used by the venue site.
func (s *OperatingHourService) ListVisibleGrouped(ctx context.Context) (map[domain.Group][]domain.OperatingHour, error) {
	visible, err := s.Store.OperatingHours().ListVisible(ctx)
	if err != nil {
		return nil, err
	}
	return groupSlots(visible), nil
}

// ListByGroup returns one group's slots ordered by slot number.
func (s *OperatingHourService) ListByGroup(ctx context.Context, group domain.Group) ([]domain.OperatingHour, error) {
	if !group.Valid() {
		return nil, domain.ErrInvalidGroup
	}
	return s.Store.OperatingHours().ListByGroup(ctx, group)
}

// GetByID returns a single slot.
func (s *OperatingHourService) GetByID(ctx context.Context, id string) (domain.OperatingHour, error) {
	h, err := s.Store.OperatingHours().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.OperatingHour{}, ErrOperatingHourNotFound
		}
		return domain.OperatingHour{}, err
	}
	return h, nil
}

// Update changes a slot's label and/or visibility. Group and slot number are
// immutable; the merged record is revalidated before writing.
func (s *OperatingHourService) Update(ctx context.Context, id string, p UpdateOperatingHourParams) (domain.OperatingHour, error) {
	h, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.OperatingHour{}, err
	}

	if p.Label != nil {
		h.Label = *p.Label
	}
	if p.Visible != nil {
		h.Visible = *p.Visible
	}

	if err := h.Validate(); err != nil {
		return domain.OperatingHour{}, err
	}

	if err := s.Store.OperatingHours().Update(ctx, h); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.OperatingHour{}, ErrOperatingHourNotFound
		}
		return domain.OperatingHour{}, err
	}
	return s.Store.OperatingHours().GetByID(ctx, id)
}

// ToggleVisibility flips a slot between shown and hidden.
func (s *OperatingHourService) ToggleVisibility(ctx context.Context, id string) (domain.OperatingHour, error) {
	h, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.OperatingHour{}, err
	}
	flipped := !h.Visible
	return s.Update(ctx, id, UpdateOperatingHourParams{Visible: &flipped})
}

// BulkUpdate applies many label/visibility updates in one transaction. Item
// failures are collected; the remaining items are still applied.
func (s *OperatingHourService) BulkUpdate(ctx context.Context, items []BulkOperatingHourItem) (OperatingHoursBulkResult, error) {
	var result OperatingHoursBulkResult

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		for i, item := range items {
			h, err := updateSlot(ctx, tx, item)
			if err != nil {
				result.Errors = append(result.Errors, OperatingHourItemError{Index: i, ID: item.ID, Err: err})
				continue
			}
			result.Updated = append(result.Updated, h)
		}
		return nil
	})
	if err != nil {
		return OperatingHoursBulkResult{}, err
	}
	return result, nil
}

func updateSlot(ctx context.Context, tx store.Tx, item BulkOperatingHourItem) (domain.OperatingHour, error) {
	h, err := tx.OperatingHours().GetByID(ctx, item.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.OperatingHour{}, ErrOperatingHourNotFound
		}
		return domain.OperatingHour{}, err
	}

	if item.Label != nil {
		h.Label = *item.Label
	}
	if item.Visible != nil {
		h.Visible = *item.Visible
	}
	if err := h.Validate(); err != nil {
		return domain.OperatingHour{}, err
	}

	if err := tx.OperatingHours().Update(ctx, h); err != nil {
		return domain.OperatingHour{}, err
	}
	return tx.OperatingHours().GetByID(ctx, item.ID)
}

func groupSlots(slots []domain.OperatingHour) map[domain.Group][]domain.OperatingHour {
	grouped := map[domain.Group][]domain.OperatingHour{
		domain.GroupHeader: {},
		domain.GroupFooter: {},
	}
	for _, h := range slots {
		grouped[h.Group] = append(grouped[h.Group], h)
	}
	return grouped
}
