package sqlite

import (
	"context"
	"strings"

	"github.com/carrerakart/kartapi/internal/api/domain"
	"github.com/carrerakart/kartapi/internal/api/store"
)

type classificationsRepo struct {
	db dbtx
}

const classificationColumns = `id, category, driver_name, points, position, created_at, updated_at`

func (r *classificationsRepo) scan(row interface{ Scan(...any) error }) (domain.Classification, error) {
	var c domain.Classification
	var category string
	err := row.Scan(&c.ID, &category, &c.DriverName, &c.Points, &c.Position, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Classification{}, err
	}
	c.Category = domain.Category(category)
	return c, nil
}

func (r *classificationsRepo) scanAll(ctx context.Context, query string, args ...any) ([]domain.Classification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Classification
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *classificationsRepo) GetByID(ctx context.Context, id string) (domain.Classification, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+classificationColumns+` FROM classifications WHERE id = ?`, id)
	c, err := r.scan(row)
	if err != nil {
		return domain.Classification{}, mapNotFound(err)
	}
	return c, nil
}

func (r *classificationsRepo) FindByCategoryAndDriver(
	ctx context.Context,
	category domain.Category,
	driverName, excludeID string,
) (domain.Classification, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+classificationColumns+` FROM classifications
		 WHERE category = ? AND driver_name = ? AND id != ?`,
		string(category), driverName, excludeID)
	c, err := r.scan(row)
	if err != nil {
		return domain.Classification{}, mapNotFound(err)
	}
	return c, nil
}

func (r *classificationsRepo) CountWithMorePoints(
	ctx context.Context,
	category domain.Category,
	points float64,
	excludeID string,
) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM classifications
		 WHERE category = ? AND points > ? AND id != ?`,
		string(category), points, excludeID).Scan(&n)
	return n, err
}

func (r *classificationsRepo) ListByCategory(ctx context.Context, category domain.Category) ([]domain.Classification, error) {
	return r.scanAll(ctx,
		`SELECT `+classificationColumns+` FROM classifications
		 WHERE category = ? ORDER BY position ASC`, string(category))
}

// ListByCategoryByPoints returns the recompute ordering: points descending,
// ties broken by id (ULIDs sort in insertion order).
func (r *classificationsRepo) ListByCategoryByPoints(ctx context.Context, category domain.Category) ([]domain.Classification, error) {
	return r.scanAll(ctx,
		`SELECT `+classificationColumns+` FROM classifications
		 WHERE category = ? ORDER BY points DESC, id ASC`, string(category))
}

func (r *classificationsRepo) ListAll(ctx context.Context) ([]domain.Classification, error) {
	return r.scanAll(ctx,
		`SELECT `+classificationColumns+` FROM classifications
		 ORDER BY category ASC, position ASC`)
}

// filterClause builds the WHERE clause shared by List and Count.
func filterClause(f store.ClassificationFilter) (string, []any) {
	var conds []string
	var args []any

	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.DriverName != "" {
		conds = append(conds, "driver_name LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(f.DriverName)+"%")
	}
	if f.MinPoints != nil {
		conds = append(conds, "points >= ?")
		args = append(args, *f.MinPoints)
	}
	if f.MaxPoints != nil {
		conds = append(conds, "points <= ?")
		args = append(args, *f.MaxPoints)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// escapeLike neutralises LIKE wildcards in user-supplied substrings.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func (r *classificationsRepo) List(ctx context.Context, f store.ClassificationFilter, limit, offset int) ([]domain.Classification, error) {
	where, args := filterClause(f)
	args = append(args, limit, offset)
	return r.scanAll(ctx,
		`SELECT `+classificationColumns+` FROM classifications`+where+
			` ORDER BY category ASC, position ASC LIMIT ? OFFSET ?`, args...)
}

func (r *classificationsRepo) Count(ctx context.Context, f store.ClassificationFilter) (int64, error) {
	where, args := filterClause(f)
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM classifications`+where, args...).Scan(&n)
	return n, err
}

func (r *classificationsRepo) Create(ctx context.Context, c domain.Classification) error {
	ts := now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO classifications (id, category, driver_name, points, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, string(c.Category), c.DriverName, c.Points, c.Position, ts, ts)
	return mapConstraint(err)
}

func (r *classificationsRepo) Update(ctx context.Context, c domain.Classification) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE classifications
		 SET category = ?, driver_name = ?, points = ?, position = ?, updated_at = ?
		 WHERE id = ?`,
		string(c.Category), c.DriverName, c.Points, c.Position, now(), c.ID)
	if err != nil {
		return mapConstraint(err)
	}
	return requireRowAffected(res)
}

func (r *classificationsRepo) UpdatePosition(ctx context.Context, id string, position int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE classifications SET position = ? WHERE id = ?`, position, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *classificationsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM classifications WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}
