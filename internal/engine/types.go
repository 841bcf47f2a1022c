package engine

import (
	"github.com/lowkey/screenbreak/pkg/entity"
)

type EnforcementAction string

const (
	ActionBlockImmediately  EnforcementAction = "block_immediately"
	ActionSuggestBreak      EnforcementAction = "suggest_break"
	ActionAllowWithReminder EnforcementAction = "allow_with_reminder"
	ActionTrackOnly         EnforcementAction = "track_only"
)

type WarningLevel string

const (
	WarningNone           WarningLevel = "none"
	WarningGentleReminder WarningLevel = "gentle_reminder"
	WarningStrong         WarningLevel = "strong_warning"
	WarningFinal          WarningLevel = "final_warning"
	WarningLimitExceeded  WarningLevel = "limit_exceeded"
)

// Rank orders warning levels so escalation can be compared. Higher is
// more severe.
func (w WarningLevel) Rank() int {
	switch w {
	case WarningGentleReminder:
		return 1
	case WarningStrong:
		return 2
	case WarningFinal:
		return 3
	case WarningLimitExceeded:
		return 4
	}
	return 0
}

// LimitEnforcementResult is the outcome of one block/allow decision.
// ViolatedLimits carries every exceeded limit, not just the first one;
// SuggestedAction is derived from the highest-priority violated limit.
type LimitEnforcementResult struct {
	PackageName       string                   `json:"package_name"`
	ShouldBlock       bool                     `json:"should_block"`
	ViolatedLimits    []entity.UsageLimit      `json:"violated_limits"`
	SuggestedAction   EnforcementAction        `json:"suggested_action"`
	AllowedExtensions []int                    `json:"allowed_extensions"` // minutes; empty when a strict limit is violated
	ExceedsByMillis   int64                    `json:"exceeds_by_millis"`
	ViolatedType      entity.LimitType         `json:"violated_type,omitempty"`
	ViolatedPriority  entity.LimitPriority     `json:"violated_priority,omitempty"`
	Severity          entity.ViolationSeverity `json:"severity,omitempty"`
}

// RemainingTimeInfo reports the tightest remaining allowance across
// applicable limits. Confidence drops when limit types disagree about
// which usage counter binds.
type RemainingTimeInfo struct {
	RemainingMillis int64            `json:"remaining_millis"`
	BindingType     entity.LimitType `json:"binding_type,omitempty"`
	Confidence      float64          `json:"confidence"`
}

type ProgressionStrategy string

const (
	StrategyAggressive ProgressionStrategy = "aggressive"
	StrategyModerate   ProgressionStrategy = "moderate"
	StrategyGentle     ProgressionStrategy = "gentle"
	StrategyAdaptive   ProgressionStrategy = "adaptive"
)

type AdjustmentType string

const (
	AdjustmentMaintain        AdjustmentType = "maintain"
	AdjustmentResetToBaseline AdjustmentType = "reset_to_baseline"
	AdjustmentIncreaseGentle  AdjustmentType = "increase_gentle"
	AdjustmentReduce          AdjustmentType = "reduce"
)

type ProgressiveLimitRecommendation struct {
	Adjustment             AdjustmentType `json:"adjustment"`
	RecommendedLimitMillis int64          `json:"recommended_limit_millis"`
	ReductionPercent       float64        `json:"reduction_percent"`
	Rationale              string         `json:"rationale"`
}

type ExtensionCondition string

const (
	ConditionTakeBreakFirst ExtensionCondition = "take_break_first"
)

type ExtensionDecision struct {
	Allowed        bool                 `json:"allowed"`
	GrantedMinutes int                  `json:"granted_minutes"`
	Conditions     []ExtensionCondition `json:"conditions,omitempty"`
	Reason         string               `json:"reason"`
}

type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

type ValidationIssue struct {
	Severity ValidationSeverity `json:"severity"`
	Message  string             `json:"message"`
}

type LimitValidationResult struct {
	Valid               bool              `json:"valid"`
	Issues              []ValidationIssue `json:"issues"`
	AdjustedLimitMillis int64             `json:"adjusted_limit_millis,omitempty"`
}

// UserBehaviorProfile is the strategy selector's view of the user:
// stored scores plus the derived trailing violation count.
type UserBehaviorProfile struct {
	SelfControlScore float64
	MotivationLevel  float64
	RecentViolations int
}

type AppCategory string

const (
	CategorySocial       AppCategory = "social"
	CategoryGame         AppCategory = "game"
	CategoryVideo        AppCategory = "video"
	CategoryProductivity AppCategory = "productivity"
	CategoryOther        AppCategory = "other"
)

type TimeSegment string

const (
	SegmentMorning   TimeSegment = "morning"    // 05..11
	SegmentAfternoon TimeSegment = "afternoon"  // 12..17
	SegmentEvening   TimeSegment = "evening"    // 18..22
	SegmentLateNight TimeSegment = "late_night" // 23..04
)

type TimeContext struct {
	Segment   TimeSegment
	IsWeekend bool
}

type WarningStyle string

const (
	StyleFirm         WarningStyle = "firm"
	StyleNeutral      WarningStyle = "neutral"
	StyleMotivational WarningStyle = "motivational"
)

type CooldownBehavior string

const (
	CooldownImmediateBlock CooldownBehavior = "immediate_block"
	CooldownDelayedBlock   CooldownBehavior = "delayed_block"
	CooldownWarnOnly       CooldownBehavior = "warn_only"
)

// EnforcementStrategy is the stable enforcement style chosen for a
// user/category/time combination.
type EnforcementStrategy struct {
	PrimaryAction    EnforcementAction `json:"primary_action"`
	EscalationAction EnforcementAction `json:"escalation_action"`
	WarningStyle     WarningStyle      `json:"warning_style"`
	CooldownBehavior CooldownBehavior  `json:"cooldown_behavior"`
	OfferExtensions  bool              `json:"offer_extensions"`
}
