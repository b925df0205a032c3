package sqlite

import (
	"context"

	"github.com/carrerakart/kartapi/internal/api/domain"
)

type operatingHoursRepo struct {
	db dbtx
}

const operatingHourColumns = `id, grp, slot, label, visible, created_at, updated_at`

func (r *operatingHoursRepo) scan(row interface{ Scan(...any) error }) (domain.OperatingHour, error) {
	var h domain.OperatingHour
	var group string
	err := row.Scan(&h.ID, &group, &h.Slot, &h.Label, &h.Visible, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return domain.OperatingHour{}, err
	}
	h.Group = domain.Group(group)
	return h, nil
}

func (r *operatingHoursRepo) scanAll(ctx context.Context, query string, args ...any) ([]domain.OperatingHour, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OperatingHour
	for rows.Next() {
		h, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *operatingHoursRepo) ListAll(ctx context.Context) ([]domain.OperatingHour, error) {
	return r.scanAll(ctx,
		`SELECT `+operatingHourColumns+` FROM operating_hours ORDER BY grp ASC, slot ASC`)
}

func (r *operatingHoursRepo) ListVisible(ctx context.Context) ([]domain.OperatingHour, error) {
	return r.scanAll(ctx,
		`SELECT `+operatingHourColumns+` FROM operating_hours
		 WHERE visible = 1 ORDER BY grp ASC, slot ASC`)
}

func (r *operatingHoursRepo) ListByGroup(ctx context.Context, group domain.Group) ([]domain.OperatingHour, error) {
	return r.scanAll(ctx,
		`SELECT `+operatingHourColumns+` FROM operating_hours
		 WHERE grp = ? ORDER BY slot ASC`, string(group))
}

func (r *operatingHoursRepo) GetByID(ctx context.Context, id string) (domain.OperatingHour, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+operatingHourColumns+` FROM operating_hours WHERE id = ?`, id)
	h, err := r.scan(row)
	if err != nil {
		return domain.OperatingHour{}, mapNotFound(err)
	}
	return h, nil
}

func (r *operatingHoursRepo) Create(ctx context.Context, h domain.OperatingHour) error {
	ts := now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO operating_hours (id, grp, slot, label, visible, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID, string(h.Group), h.Slot, h.Label, h.Visible, ts, ts)
	return mapConstraint(err)
}

func (r *operatingHoursRepo) Update(ctx context.Context, h domain.OperatingHour) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE operating_hours SET label = ?, visible = ?, updated_at = ? WHERE id = ?`,
		h.Label, h.Visible, now(), h.ID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}
