package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lowkey/screenbreak/pkg/entity"
)

type UsersRepositoryI interface {
	// Creates new user in database
	Create(ctx context.Context, user *entity.User) error
	// Looks up user by name. Can be used for login
	FindByName(ctx context.Context, name string) (*entity.User, error)
	// Looks up user by uid. Can be used for authorization middleware
	FindByID(ctx context.Context, uid uuid.UUID) (*entity.User, error)
	// Deletes user and everything owned by them (cascade)
	Delete(ctx context.Context, uid uuid.UUID) error
	// Returns the user's behavior profile
	GetProfile(ctx context.Context, uid uuid.UUID) (*entity.UserProfile, error)
	// Creates or replaces the user's behavior profile
	UpsertProfile(ctx context.Context, profile *entity.UserProfile) error
}

type LimitsRepositoryI interface {
	// Stores a new usage limit, returns its id
	Create(ctx context.Context, limit *entity.UsageLimit) (uuid.UUID, error)
	// Searches limit with given id
	GetByID(ctx context.Context, id uuid.UUID) (*entity.UsageLimit, error)
	// Lists active limits constraining one package
	GetActiveByPackage(ctx context.Context, uid uuid.UUID, pkg string) ([]entity.UsageLimit, error)
	// Lists limits owned by user with uid. Requires pagination params provided
	GetByUser(ctx context.Context, uid uuid.UUID, limit, offset int) ([]entity.UsageLimit, error)
	// Deactivates (never deletes) a limit
	Deactivate(ctx context.Context, id uuid.UUID) error
	// Rewrites a limit's allowance; used by the reduction sweep to keep
	// the synthetic limit in step with its progressive limit
	UpdateDuration(ctx context.Context, id uuid.UUID, durationMillis int64) error
}

type ProgressiveRepositoryI interface {
	// Stores a new progressive limit together with its milestones in one tx
	Create(ctx context.Context, pl *entity.ProgressiveLimit, milestones []entity.ProgressiveMilestone) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ProgressiveLimit, error)
	// The active progressive limit for a package, if any
	GetActiveByPackage(ctx context.Context, uid uuid.UUID, pkg string) (*entity.ProgressiveLimit, error)
	// Active limits whose next reduction date is on or before today
	GetDue(ctx context.Context, today time.Time) ([]entity.ProgressiveLimit, error)
	// Writes back one reduction step. Single-row update, serializable per package
	UpdateProgress(ctx context.Context, pl *entity.ProgressiveLimit) error
	// Milestones owned by a limit
	Milestones(ctx context.Context, limitID uuid.UUID) ([]entity.ProgressiveMilestone, error)
	// Searches a single milestone by id
	GetMilestone(ctx context.Context, id uuid.UUID) (*entity.ProgressiveMilestone, error)
	// Latches a milestone achieved; never reverts
	AchieveMilestone(ctx context.Context, id uuid.UUID, at time.Time) error
	// Achieved but not yet celebrated milestones for a user
	Uncelebrated(ctx context.Context, uid uuid.UUID) ([]entity.ProgressiveMilestone, error)
	// Suppresses further celebrations of a milestone
	MarkCelebrated(ctx context.Context, id uuid.UUID) error
}

type ViolationsRepositoryI interface {
	// Appends one violation. Rows are never mutated afterwards
	Append(ctx context.Context, v *entity.ViolationRecord) error
	// Violations of one package since the given instant, newest first
	GetByPackageSince(ctx context.Context, uid uuid.UUID, pkg string, since time.Time) ([]entity.ViolationRecord, error)
	// Count of all the user's violations since the given instant
	CountByUserSince(ctx context.Context, uid uuid.UUID, since time.Time) (int, error)
	// The newest violation of one package, nil when there is none
	GetNewestByPackage(ctx context.Context, uid uuid.UUID, pkg string) (*entity.ViolationRecord, error)
}

type ExtensionsRepositoryI interface {
	// Appends one extension grant
	Append(ctx context.Context, ext *entity.ExtensionRecord) error
	// Extensions for one package since the given instant
	GetByPackageSince(ctx context.Context, uid uuid.UUID, pkg string, since time.Time) ([]entity.ExtensionRecord, error)
}

type UsageRepositoryI interface {
	// Creates or replaces one package-day usage total
	UpsertDaily(ctx context.Context, rec *entity.DailyUsageRecord) error
	// Daily records for one package over [from, to], oldest first
	GetRange(ctx context.Context, uid uuid.UUID, pkg string, from, to time.Time) ([]entity.DailyUsageRecord, error)
}

type DBConfig interface {
	ConnString() string
}

type PgConnection interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGCfg struct {
	Address  string
	Username string
	Password string
	DB       string
}

func (pgcfg *PGCfg) ConnString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s", pgcfg.Username, pgcfg.Password, pgcfg.Address, pgcfg.DB)
}
