package repository

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	errorvalues "github.com/lowkey/screenbreak/internal/error_values"
	"github.com/lowkey/screenbreak/pkg/entity"
)

type ViolationsRepository struct {
	conn PgConnection
}

func NewViolationsRepo(conn PgConnection) *ViolationsRepository {
	if conn == nil {
		log.Fatal("provided nil connection for violationsRepo")
	}
	return &ViolationsRepository{
		conn: conn,
	}
}

func (vr *ViolationsRepository) Append(ctx context.Context, v *entity.ViolationRecord) error {
	_, err := vr.conn.Exec(ctx,
		`INSERT INTO violations (user_id, package_name, limit_type, severity, exceeds_by_millis, user_response, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		v.UserID,
		v.PackageName,
		v.Type,
		v.Severity,
		v.ExceedsByMillis,
		v.UserResponse,
		v.OccurredAt,
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
		return errors.New("appending violation error: " + err.Error())
	}
	return nil
}

func (vr *ViolationsRepository) GetByPackageSince(ctx context.Context, uid uuid.UUID, pkg string, since time.Time) ([]entity.ViolationRecord, error) {
	rows, err := vr.conn.Query(ctx,
		selectViolation+` WHERE user_id = $1 AND package_name = $2 AND occurred_at >= $3 ORDER BY occurred_at DESC;`,
		uid, pkg, since)
	if err != nil {
		return nil, errors.New("getting violations for period error: " + err.Error())
	}
	defer rows.Close()
	result := make([]entity.ViolationRecord, 0)
	for rows.Next() {
		v, err := scanViolation(rows)
		if err != nil {
			return nil, errors.New("violation row parsing error: " + err.Error())
		}
		result = append(result, *v)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected violation rows error: " + rows.Err().Error())
	}
	return result, nil
}

func (vr *ViolationsRepository) CountByUserSince(ctx context.Context, uid uuid.UUID, since time.Time) (int, error) {
	row := vr.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM violations WHERE user_id = $1 AND occurred_at >= $2;`, uid, since)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, errors.New("counting violations error: " + err.Error())
	}
	return count, nil
}

func (vr *ViolationsRepository) GetNewestByPackage(ctx context.Context, uid uuid.UUID, pkg string) (*entity.ViolationRecord, error) {
	row := vr.conn.QueryRow(ctx,
		selectViolation+` WHERE user_id = $1 AND package_name = $2 ORDER BY occurred_at DESC LIMIT 1;`, uid, pkg)
	v, err := scanViolation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.New("getting newest violation error: " + err.Error())
	}
	return v, nil
}

const selectViolation = `SELECT id, user_id, package_name, limit_type, severity, exceeds_by_millis, user_response, occurred_at FROM violations`

func scanViolation(row pgx.Row) (*entity.ViolationRecord, error) {
	var v entity.ViolationRecord
	err := row.Scan(&v.ID, &v.UserID, &v.PackageName, &v.Type, &v.Severity, &v.ExceedsByMillis, &v.UserResponse, &v.OccurredAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
