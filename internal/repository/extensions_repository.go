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

type ExtensionsRepository struct {
	conn PgConnection
}

func NewExtensionsRepo(conn PgConnection) *ExtensionsRepository {
	if conn == nil {
		log.Fatal("provided nil connection for extensionsRepo")
	}
	return &ExtensionsRepository{
		conn: conn,
	}
}

func (er *ExtensionsRepository) Append(ctx context.Context, ext *entity.ExtensionRecord) error {
	_, err := er.conn.Exec(ctx,
		`INSERT INTO extensions (user_id, package_name, minutes, reason, was_completed, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6);`,
		ext.UserID,
		ext.PackageName,
		ext.Minutes,
		ext.Reason,
		ext.WasCompleted,
		ext.RequestedAt,
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
		return errors.New("appending extension error: " + err.Error())
	}
	return nil
}

func (er *ExtensionsRepository) GetByPackageSince(ctx context.Context, uid uuid.UUID, pkg string, since time.Time) ([]entity.ExtensionRecord, error) {
	rows, err := er.conn.Query(ctx,
		`SELECT id, user_id, package_name, minutes, reason, was_completed, requested_at
		FROM extensions WHERE user_id = $1 AND package_name = $2 AND requested_at >= $3 ORDER BY requested_at DESC;`,
		uid, pkg, since)
	if err != nil {
		return nil, errors.New("getting extensions for period error: " + err.Error())
	}
	defer rows.Close()
	result := make([]entity.ExtensionRecord, 0)
	for rows.Next() {
		var ext entity.ExtensionRecord
		err = rows.Scan(&ext.ID, &ext.UserID, &ext.PackageName, &ext.Minutes, &ext.Reason, &ext.WasCompleted, &ext.RequestedAt)
		if err != nil {
			return nil, errors.New("extension row parsing error: " + err.Error())
		}
		result = append(result, ext)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected extension rows error: " + rows.Err().Error())
	}
	return result, nil
}
