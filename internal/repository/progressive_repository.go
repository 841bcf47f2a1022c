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

type ProgressiveRepository struct {
	conn PgConnection
}

func NewProgressiveRepo(conn PgConnection) *ProgressiveRepository {
	if conn == nil {
		log.Fatal("provided nil connection for progressiveRepo")
	}
	return &ProgressiveRepository{
		conn: conn,
	}
}

// Create inserts the limit and its milestones in one transaction so a
// limit can never exist half-seeded.
func (pr *ProgressiveRepository) Create(ctx context.Context, pl *entity.ProgressiveLimit, milestones []entity.ProgressiveMilestone) (uuid.UUID, error) {
	tx, err := pr.conn.Begin(ctx)
	if err != nil {
		return uuid.UUID{}, errors.New("beginning tx error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	var id uuid.UUID
	row := tx.QueryRow(ctx,
		`INSERT INTO progressive_limits (user_id, package_name, enforced_limit_id, original_limit_millis, target_limit_millis, current_limit_millis, reduction_percent, start_date, next_reduction_date, is_active, progress_percent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, 0) RETURNING id;`,
		pl.UserID,
		pl.PackageName,
		pl.EnforcedLimitID,
		pl.OriginalLimitMillis,
		pl.TargetLimitMillis,
		pl.CurrentLimitMillis,
		pl.ReductionPercent,
		pl.StartDate,
		pl.NextReductionDate,
	)
	if err = row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// Unique violation: one active progressive limit per package
			case "23505":
				return uuid.UUID{}, errorvalues.ErrProgressiveExist
			// FK violation
			case "23503":
				return uuid.UUID{}, errorvalues.ErrUserNotFound
			}
		}
		return uuid.UUID{}, errors.New("creating progressive limit db error: " + err.Error())
	}
	for i := range milestones {
		m := milestones[i]
		_, err = tx.Exec(ctx,
			`INSERT INTO progressive_milestones (id, limit_id, percent, reward_title, reward_description, is_achieved, celebration_shown)
			VALUES ($1, $2, $3, $4, $5, FALSE, FALSE);`,
			m.ID,
			id,
			m.Percent,
			m.RewardTitle,
			m.RewardDescription,
		)
		if err != nil {
			return uuid.UUID{}, errors.New("seeding milestone db error: " + err.Error())
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return uuid.UUID{}, errors.New("committing tx error: " + err.Error())
	}
	return id, nil
}

func (pr *ProgressiveRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ProgressiveLimit, error) {
	row := pr.conn.QueryRow(ctx, selectProgressive+` WHERE id = $1;`, id)
	pl, err := scanProgressive(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrProgressiveGone
		}
		return nil, errors.New("getting progressive limit error: " + err.Error())
	}
	return pl, nil
}

func (pr *ProgressiveRepository) GetActiveByPackage(ctx context.Context, uid uuid.UUID, pkg string) (*entity.ProgressiveLimit, error) {
	row := pr.conn.QueryRow(ctx,
		selectProgressive+` WHERE user_id = $1 AND package_name = $2 AND is_active = TRUE;`, uid, pkg)
	pl, err := scanProgressive(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrProgressiveGone
		}
		return nil, errors.New("getting active progressive limit error: " + err.Error())
	}
	return pl, nil
}

func (pr *ProgressiveRepository) GetDue(ctx context.Context, today time.Time) ([]entity.ProgressiveLimit, error) {
	rows, err := pr.conn.Query(ctx,
		selectProgressive+` WHERE is_active = TRUE AND next_reduction_date <= $1 ORDER BY next_reduction_date;`, today)
	if err != nil {
		return nil, errors.New("getting due progressive limits error: " + err.Error())
	}
	defer rows.Close()
	result := make([]entity.ProgressiveLimit, 0)
	for rows.Next() {
		pl, err := scanProgressive(rows)
		if err != nil {
			return nil, errors.New("progressive row parsing error: " + err.Error())
		}
		result = append(result, *pl)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected progressive rows error: " + rows.Err().Error())
	}
	return result, nil
}

// UpdateProgress writes one reduction step back. The single-row UPDATE is
// what the sweep's per-package serializability contract rests on.
func (pr *ProgressiveRepository) UpdateProgress(ctx context.Context, pl *entity.ProgressiveLimit) error {
	ct, err := pr.conn.Exec(ctx,
		`UPDATE progressive_limits SET current_limit_millis = $1, progress_percent = $2, is_active = $3, next_reduction_date = $4 WHERE id = $5;`,
		pl.CurrentLimitMillis,
		pl.ProgressPercent,
		pl.IsActive,
		pl.NextReductionDate,
		pl.ID,
	)
	if err != nil {
		return errors.New("updating progressive limit error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrProgressiveGone
	}
	return nil
}

func (pr *ProgressiveRepository) Milestones(ctx context.Context, limitID uuid.UUID) ([]entity.ProgressiveMilestone, error) {
	rows, err := pr.conn.Query(ctx,
		selectMilestone+` WHERE limit_id = $1 ORDER BY percent;`, limitID)
	if err != nil {
		return nil, errors.New("getting milestones error: " + err.Error())
	}
	defer rows.Close()
	return collectMilestones(rows)
}

func (pr *ProgressiveRepository) GetMilestone(ctx context.Context, id uuid.UUID) (*entity.ProgressiveMilestone, error) {
	var m entity.ProgressiveMilestone
	row := pr.conn.QueryRow(ctx, selectMilestone+` WHERE id = $1;`, id)
	err := row.Scan(&m.ID, &m.LimitID, &m.Percent, &m.RewardTitle, &m.RewardDescription,
		&m.IsAchieved, &m.AchievedAt, &m.CelebrationShown)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrMilestoneGone
		}
		return nil, errors.New("getting milestone error: " + err.Error())
	}
	return &m, nil
}

func (pr *ProgressiveRepository) AchieveMilestone(ctx context.Context, id uuid.UUID, at time.Time) error {
	// is_achieved = FALSE in the predicate keeps the flag latched: a
	// re-run of achievement detection can't restamp the date.
	ct, err := pr.conn.Exec(ctx,
		`UPDATE progressive_milestones SET is_achieved = TRUE, achieved_at = $1 WHERE id = $2 AND is_achieved = FALSE;`,
		at, id)
	if err != nil {
		return errors.New("achieving milestone error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrMilestoneGone
	}
	return nil
}

func (pr *ProgressiveRepository) Uncelebrated(ctx context.Context, uid uuid.UUID) ([]entity.ProgressiveMilestone, error) {
	rows, err := pr.conn.Query(ctx,
		`SELECT m.id, m.limit_id, m.percent, m.reward_title, m.reward_description, m.is_achieved, m.achieved_at, m.celebration_shown
		FROM progressive_milestones m JOIN progressive_limits l ON l.id = m.limit_id
		WHERE l.user_id = $1 AND m.is_achieved = TRUE AND m.celebration_shown = FALSE ORDER BY m.achieved_at;`, uid)
	if err != nil {
		return nil, errors.New("getting uncelebrated milestones error: " + err.Error())
	}
	defer rows.Close()
	return collectMilestones(rows)
}

func (pr *ProgressiveRepository) MarkCelebrated(ctx context.Context, id uuid.UUID) error {
	ct, err := pr.conn.Exec(ctx,
		`UPDATE progressive_milestones SET celebration_shown = TRUE WHERE id = $1;`, id)
	if err != nil {
		return errors.New("marking milestone celebrated error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrMilestoneGone
	}
	return nil
}

const (
	selectProgressive = `SELECT id, user_id, package_name, enforced_limit_id, original_limit_millis, target_limit_millis, current_limit_millis, reduction_percent, start_date, next_reduction_date, is_active, progress_percent FROM progressive_limits`
	selectMilestone   = `SELECT id, limit_id, percent, reward_title, reward_description, is_achieved, achieved_at, celebration_shown FROM progressive_milestones`
)

func scanProgressive(row pgx.Row) (*entity.ProgressiveLimit, error) {
	var pl entity.ProgressiveLimit
	err := row.Scan(&pl.ID, &pl.UserID, &pl.PackageName, &pl.EnforcedLimitID, &pl.OriginalLimitMillis, &pl.TargetLimitMillis,
		&pl.CurrentLimitMillis, &pl.ReductionPercent, &pl.StartDate, &pl.NextReductionDate, &pl.IsActive, &pl.ProgressPercent)
	if err != nil {
		return nil, err
	}
	return &pl, nil
}

func collectMilestones(rows pgx.Rows) ([]entity.ProgressiveMilestone, error) {
	result := make([]entity.ProgressiveMilestone, 0)
	for rows.Next() {
		var m entity.ProgressiveMilestone
		err := rows.Scan(&m.ID, &m.LimitID, &m.Percent, &m.RewardTitle, &m.RewardDescription,
			&m.IsAchieved, &m.AchievedAt, &m.CelebrationShown)
		if err != nil {
			return nil, errors.New("milestone row parsing error: " + err.Error())
		}
		result = append(result, m)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected milestone rows error: " + rows.Err().Error())
	}
	return result, nil
}
