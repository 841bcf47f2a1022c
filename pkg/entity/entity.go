package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Name         string
	PasswordHash string
}

// UserProfile holds the behavior signals the enforcement strategy
// selector works with. Both scores live in [0,1].
type UserProfile struct {
	UserID           uuid.UUID `json:"uid"`
	SelfControlScore float64   `json:"self_control_score"`
	MotivationLevel  float64   `json:"motivation_level"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type LimitType string

const (
	LimitDailyTotal       LimitType = "daily_total"
	LimitSessionDuration  LimitType = "session_duration"
	LimitHourly           LimitType = "hourly"
	LimitTimeWindow       LimitType = "time_window"
	LimitBreakEnforcement LimitType = "break_enforcement"
	LimitBedtimeBlock     LimitType = "bedtime_block"
)

type LimitPriority string

const (
	PriorityLow    LimitPriority = "low"
	PriorityNormal LimitPriority = "normal"
	PriorityHigh   LimitPriority = "high"
	PriorityStrict LimitPriority = "strict"
)

// Rank orders priorities for comparisons. Unknown values rank lowest.
func (p LimitPriority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityNormal:
		return 2
	case PriorityHigh:
		return 3
	case PriorityStrict:
		return 4
	}
	return 0
}

// TimeRange is a daily hour window [StartHour, EndHour). A range that
// wraps midnight (e.g. 22 -> 6) is allowed.
type TimeRange struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

// Contains reports whether the given hour of day falls inside the range.
func (tr TimeRange) Contains(hour int) bool {
	if tr.StartHour == tr.EndHour {
		return false
	}
	if tr.StartHour < tr.EndHour {
		return hour >= tr.StartHour && hour < tr.EndHour
	}
	return hour >= tr.StartHour || hour < tr.EndHour
}

type UsageLimit struct {
	ID             uuid.UUID     `json:"id"`
	UserID         uuid.UUID     `json:"uid"`
	PackageName    string        `json:"package_name"`
	Type           LimitType     `json:"type"`
	DurationMillis int64         `json:"duration_millis"`
	TimeRange      *TimeRange    `json:"time_range,omitempty"`
	DaysOfWeek     []int32       `json:"days_of_week,omitempty"` // ISO 1..7, empty = all days
	Priority       LimitPriority `json:"priority"`
	IsActive       bool          `json:"is_active"`
	CreatedAt      time.Time     `json:"created_at"`
}

// AppliesOn reports whether the limit is in effect on the given ISO day
// of week (Monday = 1).
func (l *UsageLimit) AppliesOn(dayOfWeek int) bool {
	if len(l.DaysOfWeek) == 0 {
		return true
	}
	for _, d := range l.DaysOfWeek {
		if int(d) == dayOfWeek {
			return true
		}
	}
	return false
}

// AppUsageContext is recomputed on every evaluation and never persisted.
type AppUsageContext struct {
	PackageName           string
	TodayUsageMillis      int64
	SessionStart          time.Time
	SessionDurationMillis int64
	UnlocksSinceLastUse   int
	TimeOfDay             int // 0..23
	DayOfWeek             int // ISO, Monday = 1
	IsWeekend             bool
}

type ProgressiveLimit struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"uid"`
	PackageName string    `json:"package_name"`
	// EnforcedLimitID points at the synthetic daily-total UsageLimit the
	// scheduler keeps in sync with CurrentLimitMillis.
	EnforcedLimitID uuid.UUID `json:"enforced_limit_id"`

	OriginalLimitMillis int64     `json:"original_limit_millis"`
	TargetLimitMillis   int64     `json:"target_limit_millis"`
	CurrentLimitMillis  int64     `json:"current_limit_millis"`
	ReductionPercent    float64   `json:"reduction_percent"`
	StartDate           time.Time `json:"start_date"`
	NextReductionDate   time.Time `json:"next_reduction_date"`
	IsActive            bool      `json:"is_active"`
	ProgressPercent     float64   `json:"progress_percent"`
}

type ProgressiveMilestone struct {
	ID                uuid.UUID  `json:"id"`
	LimitID           uuid.UUID  `json:"limit_id"`
	Percent           int        `json:"percent"` // 25, 50, 75 or 100
	RewardTitle       string     `json:"reward_title"`
	RewardDescription string     `json:"reward_description"`
	IsAchieved        bool       `json:"is_achieved"`
	AchievedAt        *time.Time `json:"achieved_at,omitempty"`
	CelebrationShown  bool       `json:"celebration_shown"`
}

type ViolationSeverity string

const (
	SeverityMinor    ViolationSeverity = "minor"
	SeverityModerate ViolationSeverity = "moderate"
	SeverityMajor    ViolationSeverity = "major"
	SeveritySevere   ViolationSeverity = "severe"
)

// ViolationRecord rows are append-only: written once when a block
// decision fires, never mutated afterwards.
type ViolationRecord struct {
	ID              int64             `json:"id"`
	UserID          uuid.UUID         `json:"uid"`
	PackageName     string            `json:"package_name"`
	Type            LimitType         `json:"type"`
	Severity        ViolationSeverity `json:"severity"`
	ExceedsByMillis int64             `json:"exceeds_by_millis"`
	UserResponse    string            `json:"user_response,omitempty"`
	OccurredAt      time.Time         `json:"occurred_at"`
}

type CooldownAction string

const (
	ActionViewStats        CooldownAction = "view_stats"
	ActionRequestExtension CooldownAction = "request_extension"
	ActionEmergencyUse     CooldownAction = "emergency_use"
)

// CooldownPeriod is derived from the violation ledger, not stored on its
// own. The newest violation's cooldown is the only active one.
type CooldownPeriod struct {
	DurationMillis int64             `json:"duration_millis"`
	StartTime      time.Time         `json:"start_time"`
	Severity       ViolationSeverity `json:"severity"`
	AllowedActions []CooldownAction  `json:"allowed_actions"`
}

func (c CooldownPeriod) ExpiresAt() time.Time {
	return c.StartTime.Add(time.Duration(c.DurationMillis) * time.Millisecond)
}

func (c CooldownPeriod) ActiveAt(now time.Time) bool {
	return now.Before(c.ExpiresAt()) && !now.Before(c.StartTime)
}

// ExtensionRecord rows are append-only; future extension decisions read
// them to detect abuse patterns.
type ExtensionRecord struct {
	ID           int64     `json:"id"`
	UserID       uuid.UUID `json:"uid"`
	PackageName  string    `json:"package_name"`
	Minutes      int       `json:"minutes"`
	Reason       string    `json:"reason,omitempty"`
	WasCompleted bool      `json:"was_completed"`
	RequestedAt  time.Time `json:"requested_at"`
}

// DailyUsageRecord is one package's total usage for one calendar day,
// uploaded by the device and read back for trailing-average queries.
type DailyUsageRecord struct {
	UserID      uuid.UUID `json:"uid"`
	PackageName string    `json:"package_name"`
	Day         time.Time `json:"day"`
	UsageMillis int64     `json:"usage_millis"`
	Unlocks     int       `json:"unlocks"`
}
