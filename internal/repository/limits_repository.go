package repository

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	errorvalues "github.com/lowkey/screenbreak/internal/error_values"
	"github.com/lowkey/screenbreak/pkg/entity"
)

type LimitsRepository struct {
	conn PgConnection
}

func NewLimitsRepo(conn PgConnection) *LimitsRepository {
	if conn == nil {
		log.Fatal("provided nil connection for limitsRepo")
	}
	return &LimitsRepository{
		conn: conn,
	}
}

func (lr *LimitsRepository) Create(ctx context.Context, limit *entity.UsageLimit) (uuid.UUID, error) {
	var startHour, endHour *int
	if limit.TimeRange != nil {
		startHour = &limit.TimeRange.StartHour
		endHour = &limit.TimeRange.EndHour
	}
	var id uuid.UUID
	row := lr.conn.QueryRow(ctx,
		`INSERT INTO usage_limits (user_id, package_name, limit_type, duration_millis, range_start_hour, range_end_hour, days_of_week, priority, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE) RETURNING id;`,
		limit.UserID,
		limit.PackageName,
		limit.Type,
		limit.DurationMillis,
		startHour,
		endHour,
		limit.DaysOfWeek,
		limit.Priority,
	)
	if err := row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// Unique violation: one active limit per (user, package, type)
			case "23505":
				return uuid.UUID{}, errorvalues.ErrLimitExists
			// FK violation
			case "23503":
				return uuid.UUID{}, errorvalues.ErrUserNotFound
			}
		}
		return uuid.UUID{}, errors.New("creating limit db error: " + err.Error())
	}
	return id, nil
}

func (lr *LimitsRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.UsageLimit, error) {
	row := lr.conn.QueryRow(ctx,
		`SELECT id, user_id, package_name, limit_type, duration_millis, range_start_hour, range_end_hour, days_of_week, priority, is_active, created_at
		FROM usage_limits WHERE id = $1;`, id)
	limit, err := scanLimit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrLimitNotFound
		}
		return nil, errors.New("getting limit by id error: " + err.Error())
	}
	return limit, nil
}

func (lr *LimitsRepository) GetActiveByPackage(ctx context.Context, uid uuid.UUID, pkg string) ([]entity.UsageLimit, error) {
	rows, err := lr.conn.Query(ctx,
		`SELECT id, user_id, package_name, limit_type, duration_millis, range_start_hour, range_end_hour, days_of_week, priority, is_active, created_at
		FROM usage_limits WHERE user_id = $1 AND package_name = $2 AND is_active = TRUE;`, uid, pkg)
	if err != nil {
		return nil, errors.New("getting active limits error: " + err.Error())
	}
	defer rows.Close()
	return collectLimits(rows)
}

func (lr *LimitsRepository) GetByUser(ctx context.Context, uid uuid.UUID, limit, offset int) ([]entity.UsageLimit, error) {
	rows, err := lr.conn.Query(ctx,
		`SELECT id, user_id, package_name, limit_type, duration_millis, range_start_hour, range_end_hour, days_of_week, priority, is_active, created_at
		FROM usage_limits WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3;`, uid, limit, offset)
	if err != nil {
		return nil, errors.New("getting limits by uid error: " + err.Error())
	}
	defer rows.Close()
	return collectLimits(rows)
}

func (lr *LimitsRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	ct, err := lr.conn.Exec(ctx, `UPDATE usage_limits SET is_active = FALSE WHERE id = $1;`, id)
	if err != nil {
		return errors.New("deactivating limit error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrLimitNotFound
	}
	return nil
}

func (lr *LimitsRepository) UpdateDuration(ctx context.Context, id uuid.UUID, durationMillis int64) error {
	ct, err := lr.conn.Exec(ctx, `UPDATE usage_limits SET duration_millis = $1 WHERE id = $2;`, durationMillis, id)
	if err != nil {
		return errors.New("updating limit duration error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrLimitNotFound
	}
	return nil
}

func scanLimit(row pgx.Row) (*entity.UsageLimit, error) {
	var l entity.UsageLimit
	var startHour, endHour *int
	err := row.Scan(&l.ID, &l.UserID, &l.PackageName, &l.Type, &l.DurationMillis,
		&startHour, &endHour, &l.DaysOfWeek, &l.Priority, &l.IsActive, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	if startHour != nil && endHour != nil {
		l.TimeRange = &entity.TimeRange{StartHour: *startHour, EndHour: *endHour}
	}
	return &l, nil
}

func collectLimits(rows pgx.Rows) ([]entity.UsageLimit, error) {
	limits := make([]entity.UsageLimit, 0)
	for rows.Next() {
		l, err := scanLimit(rows)
		if err != nil {
			return nil, errors.New("limit row parsing error: " + err.Error())
		}
		limits = append(limits, *l)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected limit rows error: " + rows.Err().Error())
	}
	return limits, nil
}
