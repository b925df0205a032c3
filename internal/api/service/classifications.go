package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carrerakart/kartapi/internal/api/domain"
	"github.com/carrerakart/kartapi/internal/api/store"
	"github.com/carrerakart/kartapi/pkg/idx"
	"github.com/carrerakart/kartapi/pkg/slogx"
)

var (
	ErrClassificationNotFound = errors.New("classification not found")
	ErrDuplicateDriver        = errors.New("driver already classified in this category")
)

// ClassificationService owns the ranking engine. Every write goes through a
// single transaction that ends with a dense position recompute for each
// touched category, so readers never observe gapped or duplicated ranks.
type ClassificationService struct {
	Store store.Store
}

// UpdateClassificationParams is a partial update; nil fields are left unchanged.
type UpdateClassificationParams struct {
	Category   *domain.Category
	DriverName *string
	Points     *float64
}

// BulkItem is one entry of a reconciliation payload. Items without an ID are
// created; items with an ID update the matching record.
type BulkItem struct {
	ID         string
	Category   domain.Category
	DriverName string
	Points     float64
}

// BulkItemError records a single failed reconciliation item. The rest of the
// batch is still applied.
type BulkItemError struct {
	Index      int
	ID         string
	DriverName string
	Err        error
}

func (e BulkItemError) Error() string {
	return fmt.Sprintf("item %d (%s): %v", e.Index, e.DriverName, e.Err)
}

// BulkResult summarizes a reconciliation: which records were written, which
// ids were removed, and which items failed.
type BulkResult struct {
	Created []domain.Classification
	Updated []domain.Classification
	Deleted []string
	Errors  []BulkItemError
}

// Create inserts a classification and ranks it. The returned record carries
// its final position after the category recompute.
func (s *ClassificationService) Create(
	ctx context.Context,
	category domain.Category,
	driverName string,
	points float64,
) (domain.Classification, error) {
	if !category.Valid() {
		return domain.Classification{}, domain.ErrInvalidCategory
	}
	if err := domain.ValidateDriverName(driverName); err != nil {
		return domain.Classification{}, err
	}
	if err := domain.ValidatePoints(points); err != nil {
		return domain.Classification{}, err
	}

	driverName = strings.TrimSpace(driverName)
	id := idx.New().String()

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Classifications().FindByCategoryAndDriver(ctx, category, driverName, ""); err == nil {
			return ErrDuplicateDriver
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		higher, err := tx.Classifications().CountWithMorePoints(ctx, category, points, "")
		if err != nil {
			return err
		}

		c := domain.Classification{
			ID:         id,
			Category:   category,
			DriverName: driverName,
			Points:     points,
			Position:   int(higher) + 1,
		}
		if err := tx.Classifications().Create(ctx, c); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrDuplicateDriver
			}
			return err
		}

		return recomputePositions(ctx, tx, category)
	})
	if err != nil {
		return domain.Classification{}, err
	}

	return s.Store.Classifications().GetByID(ctx, id)
}

// Update applies a partial update and re-ranks. When the category changes,
// both the old and the new category are recomputed so neither is left with
// gapped positions.
func (s *ClassificationService) Update(
	ctx context.Context,
	id string,
	p UpdateClassificationParams,
) (domain.Classification, error) {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.Classifications().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrClassificationNotFound
			}
			return err
		}

		updated := current
		if p.Category != nil {
			if !p.Category.Valid() {
				return domain.ErrInvalidCategory
			}
			updated.Category = *p.Category
		}
		if p.DriverName != nil {
			if err := domain.ValidateDriverName(*p.DriverName); err != nil {
				return err
			}
			updated.DriverName = strings.TrimSpace(*p.DriverName)
		}
		if p.Points != nil {
			if err := domain.ValidatePoints(*p.Points); err != nil {
				return err
			}
			updated.Points = *p.Points
		}

		if updated.Category != current.Category || updated.DriverName != current.DriverName {
			if _, err := tx.Classifications().FindByCategoryAndDriver(ctx, updated.Category, updated.DriverName, id); err == nil {
				return ErrDuplicateDriver
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}

		higher, err := tx.Classifications().CountWithMorePoints(ctx, updated.Category, updated.Points, id)
		if err != nil {
			return err
		}
		updated.Position = int(higher) + 1

		if err := tx.Classifications().Update(ctx, updated); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrDuplicateDriver
			}
			return err
		}

		if err := recomputePositions(ctx, tx, updated.Category); err != nil {
			return err
		}
		if updated.Category != current.Category {
			return recomputePositions(ctx, tx, current.Category)
		}
		return nil
	})
	if err != nil {
		return domain.Classification{}, err
	}

	return s.Store.Classifications().GetByID(ctx, id)
}

// Delete removes a classification and closes the rank gap it leaves behind.
func (s *ClassificationService) Delete(ctx context.Context, id string) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.Classifications().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrClassificationNotFound
			}
			return err
		}

		if err := tx.Classifications().Delete(ctx, id); err != nil {
			return err
		}

		return recomputePositions(ctx, tx, current.Category)
	})
}

// GetByID returns a single classification.
func (s *ClassificationService) GetByID(ctx context.Context, id string) (domain.Classification, error) {
	c, err := s.Store.Classifications().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Classification{}, ErrClassificationNotFound
		}
		return domain.Classification{}, err
	}
	return c, nil
}

// ListByCategory returns one category's standings ordered by position.
func (s *ClassificationService) ListByCategory(ctx context.Context, category domain.Category) ([]domain.Classification, error) {
	if !category.Valid() {
		return nil, domain.ErrInvalidCategory
	}
	return s.Store.Classifications().ListByCategory(ctx, category)
}

// Leaderboard returns standings for every category, empty tiers included.
func (s *ClassificationService) Leaderboard(ctx context.Context) (map[domain.Category][]domain.Classification, error) {
	all, err := s.Store.Classifications().ListAll(ctx)
	if err != nil {
		return nil, err
	}

	board := make(map[domain.Category][]domain.Classification, len(domain.Categories))
	for _, cat := range domain.Categories {
		board[cat] = []domain.Classification{}
	}
	for _, c := range all {
		board[c.Category] = append(board[c.Category], c)
	}
	return board, nil
}

// List returns a filtered page ordered by (category, position), with the
// total match count for pagination.
func (s *ClassificationService) List(
	ctx context.Context,
	f store.ClassificationFilter,
	page, limit int,
) ([]domain.Classification, int64, error) {
	if f.Category != "" && !f.Category.Valid() {
		return nil, 0, domain.ErrInvalidCategory
	}
	page, limit = normalizePage(page, limit)

	items, err := s.Store.Classifications().List(ctx, f, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Store.Classifications().Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ReplaceAll reconciles the stored set against the payload: stored records
// whose ids are absent from the payload are deleted, items with a known id
// update that record, and id-less items create new records. Item failures are
// collected rather than aborting the batch; each touched category is
// recomputed exactly once at the end. The whole reconciliation runs in one
// transaction.
func (s *ClassificationService) ReplaceAll(ctx context.Context, items []BulkItem) (BulkResult, error) {
	log := slogx.FromContext(ctx)

	var result BulkResult
	var createdIDs, updatedIDs []string

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		stored, err := tx.Classifications().ListAll(ctx)
		if err != nil {
			return err
		}

		storedByID := make(map[string]domain.Classification, len(stored))
		for _, c := range stored {
			storedByID[c.ID] = c
		}

		incoming := make(map[string]bool, len(items))
		for _, item := range items {
			if item.ID != "" {
				incoming[item.ID] = true
			}
		}

		touched := make(map[domain.Category]bool)

		for _, c := range stored {
			if incoming[c.ID] {
				continue
			}
			if err := tx.Classifications().Delete(ctx, c.ID); err != nil {
				return err
			}
			touched[c.Category] = true
			result.Deleted = append(result.Deleted, c.ID)
		}

		for i, item := range items {
			id, wasUpdate, err := reconcileItem(ctx, tx, item, storedByID)
			if err != nil {
				result.Errors = append(result.Errors, BulkItemError{
					Index:      i,
					ID:         item.ID,
					DriverName: item.DriverName,
					Err:        err,
				})
				continue
			}

			touched[item.Category] = true
			if wasUpdate {
				touched[storedByID[item.ID].Category] = true
				updatedIDs = append(updatedIDs, id)
			} else {
				createdIDs = append(createdIDs, id)
			}
		}

		for cat := range touched {
			if err := recomputePositions(ctx, tx, cat); err != nil {
				return err
			}
		}

		// Re-read after the recompute so results carry final positions.
		for _, id := range createdIDs {
			c, err := tx.Classifications().GetByID(ctx, id)
			if err != nil {
				return err
			}
			result.Created = append(result.Created, c)
		}
		for _, id := range updatedIDs {
			c, err := tx.Classifications().GetByID(ctx, id)
			if err != nil {
				return err
			}
			result.Updated = append(result.Updated, c)
		}
		return nil
	})
	if err != nil {
		return BulkResult{}, err
	}

	log.Info("classifications reconciled",
		"created", len(result.Created),
		"updated", len(result.Updated),
		"deleted", len(result.Deleted),
		"failed", len(result.Errors),
	)
	return result, nil
}

// reconcileItem validates and writes one bulk item. It reports the written
// record's id and whether the write was an update of an existing record.
func reconcileItem(
	ctx context.Context,
	tx store.Tx,
	item BulkItem,
	storedByID map[string]domain.Classification,
) (string, bool, error) {
	if !item.Category.Valid() {
		return "", false, domain.ErrInvalidCategory
	}
	if err := domain.ValidateDriverName(item.DriverName); err != nil {
		return "", false, err
	}
	if err := domain.ValidatePoints(item.Points); err != nil {
		return "", false, err
	}
	driverName := strings.TrimSpace(item.DriverName)

	if item.ID != "" {
		current, ok := storedByID[item.ID]
		if !ok {
			return "", false, ErrClassificationNotFound
		}

		if _, err := tx.Classifications().FindByCategoryAndDriver(ctx, item.Category, driverName, item.ID); err == nil {
			return "", false, ErrDuplicateDriver
		} else if !errors.Is(err, store.ErrNotFound) {
			return "", false, err
		}

		current.Category = item.Category
		current.DriverName = driverName
		current.Points = item.Points
		if err := tx.Classifications().Update(ctx, current); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return "", false, ErrDuplicateDriver
			}
			return "", false, err
		}
		return item.ID, true, nil
	}

	if _, err := tx.Classifications().FindByCategoryAndDriver(ctx, item.Category, driverName, ""); err == nil {
		return "", false, ErrDuplicateDriver
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", false, err
	}

	c := domain.Classification{
		ID:         idx.New().String(),
		Category:   item.Category,
		DriverName: driverName,
		Points:     item.Points,
		Position:   1, // provisional, fixed by the recompute
	}
	if err := tx.Classifications().Create(ctx, c); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return "", false, ErrDuplicateDriver
		}
		return "", false, err
	}
	return c.ID, false, nil
}

// recomputePositions rewrites a category's ranks as the dense sequence 1..N
// over points descending, ties in insertion order. Rows already holding the
// right rank are left untouched.
func recomputePositions(ctx context.Context, tx store.Tx, category domain.Category) error {
	ranked, err := tx.Classifications().ListByCategoryByPoints(ctx, category)
	if err != nil {
		return err
	}
	for i, c := range ranked {
		if c.Position == i+1 {
			continue
		}
		if err := tx.Classifications().UpdatePosition(ctx, c.ID, i+1); err != nil {
			return err
		}
	}
	return nil
}
