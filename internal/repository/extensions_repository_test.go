package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"

	errorvalues "github.com/lowkey/screenbreak/internal/error_values"
	"github.com/lowkey/screenbreak/internal/repository"
	"github.com/lowkey/screenbreak/pkg/entity"
)

func testExtensionFixture() entity.ExtensionRecord {
	return entity.ExtensionRecord{
		ID:          1,
		UserID:      uuid.New(),
		PackageName: "com.example.reels",
		Minutes:     15,
		Reason:      "wrapping up a chat",
		RequestedAt: time.Date(2025, 3, 5, 21, 0, 0, 0, time.UTC),
	}
}

func TestAppendExtension(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	repo := repository.NewExtensionsRepo(conn)
	ext := testExtensionFixture()
	query := regexp.QuoteMeta(`INSERT INTO extensions (user_id, package_name, minutes, reason, was_completed, requested_at)`)
	t.Run("successfully appended", func(t *testing.T) {
		conn.ExpectExec(query).
			WithArgs(ext.UserID, ext.PackageName, ext.Minutes, ext.Reason, ext.WasCompleted, ext.RequestedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		assert.NoError(t, repo.Append(ctx, &ext))
	})
	t.Run("unexist user", func(t *testing.T) {
		conn.ExpectExec(query).
			WithArgs(ext.UserID, ext.PackageName, ext.Minutes, ext.Reason, ext.WasCompleted, ext.RequestedAt).
			WillReturnError(&pgconn.PgError{Code: "23503"})
		assert.ErrorIs(t, repo.Append(ctx, &ext), errorvalues.ErrUserNotFound)
	})
}

func TestGetExtensionsByPackageSince(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	repo := repository.NewExtensionsRepo(conn)
	ext := testExtensionFixture()
	since := ext.RequestedAt.Add(-7 * 24 * time.Hour)
	query := regexp.QuoteMeta(`WHERE user_id = $1 AND package_name = $2 AND requested_at >= $3 ORDER BY requested_at DESC;`)
	columns := []string{"id", "user_id", "package_name", "minutes", "reason", "was_completed", "requested_at"}
	t.Run("found", func(t *testing.T) {
		conn.ExpectQuery(query).
			WithArgs(ext.UserID, ext.PackageName, since).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(ext.ID, ext.UserID, ext.PackageName, ext.Minutes, ext.Reason, ext.WasCompleted, ext.RequestedAt))
		result, err := repo.GetByPackageSince(ctx, ext.UserID, ext.PackageName, since)
		assert.NoError(t, err)
		assert.Equal(t, []entity.ExtensionRecord{ext}, result)
	})
	t.Run("empty ledger", func(t *testing.T) {
		conn.ExpectQuery(query).
			WithArgs(ext.UserID, ext.PackageName, since).
			WillReturnRows(pgxmock.NewRows(columns))
		result, err := repo.GetByPackageSince(ctx, ext.UserID, ext.PackageName, since)
		assert.NoError(t, err)
		assert.Empty(t, result)
	})
}
