package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lowkey/screenbreak/internal/engine"
	"github.com/lowkey/screenbreak/pkg/entity"
)

type RegisterRequest struct {
	Name     string `validate:"required,alphanum_underscore,min=3,max=100"`
	Password string `validate:"required,min=8,max=72"`
}

type UpdateProfileRequest struct {
	SelfControlScore float64 `validate:"gte=0,lte=1"`
	MotivationLevel  float64 `validate:"gte=0,lte=1"`
}

type UserServiceI interface {
	// Validates user's credentials, creates new row in database. Returns user's data with ID
	Register(ctx context.Context, req *RegisterRequest) (*entity.User, error)
	// Compares given credentials. If ok, give back user's data with ID.
	Login(ctx context.Context, name, password string) (*entity.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	DeleteAccount(ctx context.Context, id uuid.UUID, password string) error
	// Returns the behavior profile, defaulted when none was stored yet
	GetProfile(ctx context.Context, id uuid.UUID) (*entity.UserProfile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req *UpdateProfileRequest) (*entity.UserProfile, error)
}

type CreateLimitRequest struct {
	PackageName    string               `validate:"required,android_package,max=255"`
	Type           entity.LimitType     `validate:"required,oneof=daily_total session_duration hourly time_window break_enforcement bedtime_block"`
	DurationMillis int64                `validate:"required,gt=0"`
	StartHour      *int                 `validate:"omitempty,gte=0,lte=23"`
	EndHour        *int                 `validate:"omitempty,gte=0,lte=23"`
	DaysOfWeek     []int32              `validate:"dive,gte=1,lte=7"`
	Priority       entity.LimitPriority `validate:"required,oneof=low normal high strict"`
}

type PaginationOpts struct {
	Limit  int
	Offset int
}

type LimitsServiceI interface {
	// Validates the proposal and stores the limit when no error-severity
	// issue was found. The validation result travels back either way.
	CreateLimit(ctx context.Context, uid uuid.UUID, req *CreateLimitRequest) (*entity.UsageLimit, engine.LimitValidationResult, error)
	// Runs proposal validation only, without storing anything
	ValidateProposal(ctx context.Context, uid uuid.UUID, req *CreateLimitRequest) (engine.LimitValidationResult, error)
	ListLimits(ctx context.Context, uid uuid.UUID, pagination PaginationOpts) ([]entity.UsageLimit, error)
	// Deactivates a limit. Strict limits can only be superseded, never
	// deactivated here.
	DeactivateLimit(ctx context.Context, limitID, uid uuid.UUID) error
}

// EvaluationResult is everything one enforcement pass produces: the
// decision, the warning ladder position, the remaining allowance, the
// personalized strategy and, when a violation fired, the cooldown.
type EvaluationResult struct {
	Result    engine.LimitEnforcementResult `json:"result"`
	Warning   engine.WarningLevel           `json:"warning"`
	Remaining engine.RemainingTimeInfo      `json:"remaining"`
	Strategy  engine.EnforcementStrategy    `json:"strategy"`
	Cooldown  *entity.CooldownPeriod        `json:"cooldown,omitempty"`
}

type DailyUsageUpload struct {
	PackageName string    `validate:"required,android_package,max=255"`
	Day         time.Time `validate:"required"`
	UsageMillis int64
	Unlocks     int
}

type EnforcementServiceI interface {
	// One enforcement pass over a usage snapshot. Appends a violation
	// record when the decision is a block.
	Evaluate(ctx context.Context, uid uuid.UUID, snap engine.UsageSnapshot, category engine.AppCategory) (*EvaluationResult, error)
	// Decides a more-time request; appends an extension record on grant
	RequestExtension(ctx context.Context, uid uuid.UUID, pkg string, minutes int, reason string) (*engine.ExtensionDecision, error)
	// The package's current cooldown derived from the newest violation,
	// nil when none is running
	ActiveCooldown(ctx context.Context, uid uuid.UUID, pkg string) (*entity.CooldownPeriod, error)
	// Stores device-reported per-day usage totals
	RecordDailyUsage(ctx context.Context, uid uuid.UUID, uploads []DailyUsageUpload) error
}

type CreateProgressiveRequest struct {
	PackageName       string  `validate:"required,android_package,max=255"`
	TargetLimitMillis int64   `validate:"required,gt=0"`
	ReductionPercent  float64 `validate:"omitempty,gt=0,lte=50"`
}

type ReductionServiceI interface {
	// Seeds a progressive limit from the trailing 7-day average plus a
	// 10% buffer, together with its synthetic daily limit and milestones
	CreateProgressiveLimit(ctx context.Context, uid uuid.UUID, req *CreateProgressiveRequest) (*entity.ProgressiveLimit, error)
	// Advances every due progressive limit one reduction step. Partial
	// completion is a valid resumable state.
	RunWeeklySweep(ctx context.Context, today time.Time) ([]entity.ProgressiveLimit, error)
	UncelebratedMilestones(ctx context.Context, uid uuid.UUID) ([]entity.ProgressiveMilestone, error)
	MarkCelebrated(ctx context.Context, uid, milestoneID uuid.UUID) error
	// Recommends the next adjustment for a package's progressive limit
	Recommend(ctx context.Context, uid uuid.UUID, pkg string, strategy engine.ProgressionStrategy) (*engine.ProgressiveLimitRecommendation, error)
}
