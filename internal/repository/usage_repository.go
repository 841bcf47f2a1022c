package repository

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	errorvalues "github.com/lowkey/screenbreak/internal/error_values"
	"github.com/lowkey/screenbreak/pkg/entity"
)

type UsageRepository struct {
	conn PgConnection
}

func NewUsageRepo(conn PgConnection) *UsageRepository {
	if conn == nil {
		log.Fatal("provided nil connection for usageRepo")
	}
	return &UsageRepository{
		conn: conn,
	}
}

func (ur *UsageRepository) UpsertDaily(ctx context.Context, rec *entity.DailyUsageRecord) error {
	_, err := ur.conn.Exec(ctx,
		`INSERT INTO daily_usage (user_id, package_name, day, usage_millis, unlocks)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, package_name, day) DO UPDATE SET usage_millis = $4, unlocks = $5;`,
		rec.UserID,
		rec.PackageName,
		rec.Day,
		rec.UsageMillis,
		rec.Unlocks,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// FK violation
			case "23503":
				return errorvalues.ErrUserNotFound
			}
		}
		return errors.New("upserting daily usage error: " + err.Error())
	}
	return nil
}

func (ur *UsageRepository) GetRange(ctx context.Context, uid uuid.UUID, pkg string, from, to time.Time) ([]entity.DailyUsageRecord, error) {
	rows, err := ur.conn.Query(ctx,
		`SELECT user_id, package_name, day, usage_millis, unlocks
		FROM daily_usage WHERE user_id = $1 AND package_name = $2 AND day >= $3 AND day <= $4 ORDER BY day;`,
		uid, pkg, from, to)
	if err != nil {
		return nil, errors.New("getting daily usage for period error: " + err.Error())
	}
	defer rows.Close()
	result := make([]entity.DailyUsageRecord, 0, 7)
	for rows.Next() {
		var rec entity.DailyUsageRecord
		err = rows.Scan(&rec.UserID, &rec.PackageName, &rec.Day, &rec.UsageMillis, &rec.Unlocks)
		if err != nil {
			return nil, errors.New("daily usage row parsing error: " + err.Error())
		}
		result = append(result, rec)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected daily usage rows error: " + rows.Err().Error())
	}
	return result, nil
}
