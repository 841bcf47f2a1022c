// Package engine is the stateless decision core: every function takes all
// the state it needs (limits, context, ledger history) as arguments and
// returns a decision. Callers own persistence. All functions are total:
// missing or garbage inputs resolve to the most permissive safe default,
// never to an error, because a telemetry gap must not crash enforcement.
package engine

import (
	"fmt"
	"time"

	"github.com/lowkey/screenbreak/pkg/entity"
)

// Fixed warning thresholds as usage ratio of the binding limit. These are
// contract values, not tunable per call.
const (
	gentleReminderRatio = 0.75
	strongWarningRatio  = 0.90
	finalWarningRatio   = 0.95
)

// Cooldown base durations per severity. Repeat offenders (three or more
// violations of the same package in 24h) get double, capped at 4h.
var cooldownBase = map[entity.ViolationSeverity]time.Duration{
	entity.SeverityMinor:    5 * time.Minute,
	entity.SeverityModerate: 15 * time.Minute,
	entity.SeverityMajor:    30 * time.Minute,
	entity.SeveritySevere:   60 * time.Minute,
}

const (
	cooldownCap            = 4 * time.Hour
	repeatOffenderCount    = 3
	extensionBaseCapMin    = 30
	extensionFloorMin      = 5
	extensionConditionFrom = 3
	minDailyLimit          = 5 * time.Minute
	minOtherLimit          = time.Minute
)

type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// applicable reports whether a limit constrains the given context at all.
// Inactive rows, wrong-day rows, out-of-window rows and malformed rows
// (non-positive duration, window type without a range) simply don't apply.
func applicable(l *entity.UsageLimit, ctx entity.AppUsageContext) bool {
	if !l.IsActive || l.DurationMillis <= 0 {
		return false
	}
	if !l.AppliesOn(ctx.DayOfWeek) {
		return false
	}
	switch l.Type {
	case entity.LimitTimeWindow, entity.LimitBedtimeBlock:
		return l.TimeRange != nil && l.TimeRange.Contains(ctx.TimeOfDay)
	}
	if l.TimeRange != nil && !l.TimeRange.Contains(ctx.TimeOfDay) {
		return false
	}
	return true
}

// usageFor picks the usage counter a limit type meters. Window limits are
// exceeded by construction while the context sits inside their range, so
// they report the full allowance plus the running session.
func usageFor(l *entity.UsageLimit, ctx entity.AppUsageContext) int64 {
	switch l.Type {
	case entity.LimitSessionDuration, entity.LimitBreakEnforcement:
		return ctx.SessionDurationMillis
	case entity.LimitTimeWindow, entity.LimitBedtimeBlock:
		return l.DurationMillis + ctx.SessionDurationMillis
	default:
		return ctx.TodayUsageMillis
	}
}

// ShouldBlockApp computes the block/allow decision for one package. A
// package is blocked when any applicable limit is exceeded with priority
// normal or above; low-priority violations only track. The suggested
// action follows the highest-priority violated limit, and no extensions
// are offered once a strict limit is among the violations.
func (e *Engine) ShouldBlockApp(pkg string, ctx entity.AppUsageContext, limits []entity.UsageLimit) LimitEnforcementResult {
	res := LimitEnforcementResult{
		PackageName:       pkg,
		SuggestedAction:   ActionTrackOnly,
		ViolatedLimits:    []entity.UsageLimit{},
		AllowedExtensions: []int{},
	}
	var top *entity.UsageLimit
	var topExceeds int64
	strictViolated := false
	for i := range limits {
		l := limits[i]
		if l.PackageName != pkg || !applicable(&l, ctx) {
			continue
		}
		used := usageFor(&l, ctx)
		if used < l.DurationMillis {
			continue
		}
		res.ViolatedLimits = append(res.ViolatedLimits, l)
		if l.Priority.Rank() >= entity.PriorityNormal.Rank() {
			res.ShouldBlock = true
		}
		if l.Priority == entity.PriorityStrict {
			strictViolated = true
		}
		if top == nil || l.Priority.Rank() > top.Priority.Rank() {
			cp := l
			top = &cp
			topExceeds = used - l.DurationMillis
		}
	}
	if top == nil {
		return res
	}
	res.ViolatedType = top.Type
	res.ViolatedPriority = top.Priority
	res.ExceedsByMillis = topExceeds
	res.Severity = ClassifyViolationSeverity(topExceeds, top.DurationMillis)
	switch top.Priority {
	case entity.PriorityStrict, entity.PriorityHigh:
		res.SuggestedAction = ActionBlockImmediately
	case entity.PriorityNormal:
		res.SuggestedAction = ActionSuggestBreak
	default:
		res.SuggestedAction = ActionTrackOnly
	}
	if !strictViolated {
		res.AllowedExtensions = []int{5, 15, 30}
	}
	return res
}

// UnlimitedRemaining marks a context with no applicable limits.
const UnlimitedRemaining int64 = -1

// CalculateRemainingTime reports the tightest remaining allowance across
// applicable limits. With several limit types in play the tightest one
// always wins; confidence is annotated lower when the winner's type
// disagrees with the majority of applicable limits.
func (e *Engine) CalculateRemainingTime(pkg string, ctx entity.AppUsageContext, limits []entity.UsageLimit) RemainingTimeInfo {
	type candidate struct {
		t         entity.LimitType
		remaining int64
	}
	var cands []candidate
	for i := range limits {
		l := limits[i]
		if l.PackageName != pkg || !applicable(&l, ctx) {
			continue
		}
		remaining := l.DurationMillis - usageFor(&l, ctx)
		if remaining < 0 {
			remaining = 0
		}
		cands = append(cands, candidate{t: l.Type, remaining: remaining})
	}
	if len(cands) == 0 {
		return RemainingTimeInfo{RemainingMillis: UnlimitedRemaining, Confidence: 1.0}
	}
	winner := cands[0]
	typeCounts := map[entity.LimitType]int{}
	for _, c := range cands {
		typeCounts[c.t]++
		if c.remaining < winner.remaining {
			winner = c
		}
	}
	confidence := 1.0
	if len(cands) > 1 {
		majority := winner.t
		best := 0
		for t, n := range typeCounts {
			if n > best {
				best, majority = n, t
			}
		}
		if winner.t == majority {
			confidence = 0.9
		} else {
			confidence = 0.6
		}
	}
	return RemainingTimeInfo{
		RemainingMillis: winner.remaining,
		BindingType:     winner.t,
		Confidence:      confidence,
	}
}

// CalculateWarningLevel maps usage against the nearest binding limit onto
// the fixed warning ladder. No applicable limits means no warning.
func (e *Engine) CalculateWarningLevel(pkg string, ctx entity.AppUsageContext, limits []entity.UsageLimit) WarningLevel {
	maxRatio := -1.0
	for i := range limits {
		l := limits[i]
		if l.PackageName != pkg || !applicable(&l, ctx) {
			continue
		}
		ratio := float64(usageFor(&l, ctx)) / float64(l.DurationMillis)
		if ratio > maxRatio {
			maxRatio = ratio
		}
	}
	switch {
	case maxRatio < gentleReminderRatio:
		return WarningNone
	case maxRatio < strongWarningRatio:
		return WarningGentleReminder
	case maxRatio < finalWarningRatio:
		return WarningStrong
	case maxRatio < 1.0:
		return WarningFinal
	default:
		return WarningLimitExceeded
	}
}

// ClassifyViolationSeverity buckets a violation by how far past the limit
// the usage ran, relative to the limit itself.
func ClassifyViolationSeverity(exceedsByMillis, limitMillis int64) entity.ViolationSeverity {
	if limitMillis <= 0 {
		return entity.SeveritySevere
	}
	if exceedsByMillis < 0 {
		exceedsByMillis = 0
	}
	ratio := float64(exceedsByMillis) / float64(limitMillis)
	switch {
	case ratio < 0.1:
		return entity.SeverityMinor
	case ratio < 0.5:
		return entity.SeverityModerate
	case ratio < 1.0:
		return entity.SeverityMajor
	default:
		return entity.SeveritySevere
	}
}

// CalculateCooldownPeriod derives the waiting period after a violation.
// Three or more violations of the same package in the preceding 24h double
// the base duration; the result never exceeds four hours.
func (e *Engine) CalculateCooldownPeriod(pkg string, severity entity.ViolationSeverity, recent []entity.ViolationRecord, now time.Time) entity.CooldownPeriod {
	base, ok := cooldownBase[severity]
	if !ok {
		base = cooldownBase[entity.SeverityMinor]
	}
	windowStart := now.Add(-24 * time.Hour)
	count := 0
	for _, v := range recent {
		if v.PackageName == pkg && v.OccurredAt.After(windowStart) && !v.OccurredAt.After(now) {
			count++
		}
	}
	dur := base
	if count >= repeatOffenderCount {
		dur *= 2
	}
	if dur > cooldownCap {
		dur = cooldownCap
	}
	allowed := []entity.CooldownAction{entity.ActionViewStats, entity.ActionEmergencyUse}
	if severity == entity.SeverityMinor || severity == entity.SeverityModerate {
		allowed = append(allowed, entity.ActionRequestExtension)
	}
	return entity.CooldownPeriod{
		DurationMillis: dur.Milliseconds(),
		StartTime:      now,
		Severity:       severity,
		AllowedActions: allowed,
	}
}

// ShouldAllowExtension decides a "more time please" request. Strict
// violations deny outright. Otherwise the cap starts at 30 minutes and
// halves for every extension already taken in the trailing 7 days, with a
// 5 minute floor; three or more extensions that week attach a
// take-a-break-first condition.
func (e *Engine) ShouldAllowExtension(pkg string, requestedMinutes int, violated []entity.UsageLimit, history []entity.ExtensionRecord, now time.Time) ExtensionDecision {
	for _, l := range violated {
		if l.Priority == entity.PriorityStrict {
			return ExtensionDecision{
				Allowed: false,
				Reason:  "a strict limit is violated; strict limits can never be extended",
			}
		}
	}
	if requestedMinutes <= 0 {
		requestedMinutes = extensionFloorMin
	}
	windowStart := now.Add(-7 * 24 * time.Hour)
	recent := 0
	for _, ext := range history {
		if ext.PackageName == pkg && ext.RequestedAt.After(windowStart) {
			recent++
		}
	}
	cap := extensionBaseCapMin
	for i := 0; i < recent && cap > extensionFloorMin; i++ {
		cap /= 2
	}
	if cap < extensionFloorMin {
		cap = extensionFloorMin
	}
	granted := requestedMinutes
	if granted > cap {
		granted = cap
	}
	dec := ExtensionDecision{
		Allowed:        true,
		GrantedMinutes: granted,
		Reason:         fmt.Sprintf("granted %d of %d requested minutes (%d extensions this week)", granted, requestedMinutes, recent),
	}
	if recent >= extensionConditionFrom {
		dec.Conditions = []ExtensionCondition{ConditionTakeBreakFirst}
	}
	return dec
}

// ValidateLimitProposal checks a proposed limit against sanity floors and
// the user's trailing 7-day average. Issues are returned, never thrown;
// only error-severity issues make the proposal invalid.
func (e *Engine) ValidateLimitProposal(proposal entity.UsageLimit, history []entity.DailyUsageRecord) LimitValidationResult {
	res := LimitValidationResult{Valid: true, Issues: []ValidationIssue{}}
	if proposal.DurationMillis <= 0 {
		res.Valid = false
		res.Issues = append(res.Issues, ValidationIssue{
			Severity: SeverityError,
			Message:  "limit duration must be positive",
		})
		return res
	}
	floor := minOtherLimit
	if proposal.Type == entity.LimitDailyTotal {
		floor = minDailyLimit
	}
	if proposal.DurationMillis < floor.Milliseconds() {
		res.Valid = false
		res.Issues = append(res.Issues, ValidationIssue{
			Severity: SeverityError,
			Message:  fmt.Sprintf("a %s limit under %s is not sane", proposal.Type, floor),
		})
	}
	switch proposal.Type {
	case entity.LimitTimeWindow, entity.LimitBedtimeBlock:
		if proposal.TimeRange == nil {
			res.Valid = false
			res.Issues = append(res.Issues, ValidationIssue{
				Severity: SeverityError,
				Message:  "window limits require a time range",
			})
		}
	}
	if avg := averageUsage(history); avg > 0 && proposal.DurationMillis*2 < avg {
		// More than 50% below recent habit: likely unachievable at once.
		res.Issues = append(res.Issues, ValidationIssue{
			Severity: SeverityWarning,
			Message:  "proposed limit is more than 50% below the 7-day average usage",
		})
		res.AdjustedLimitMillis = avg / 2
	}
	return res
}

// CalculateProgressiveLimit recommends the next adjustment for a limit
// given trailing daily usage. Five or more over-limit days out of seven
// reset to baseline; consistently easy compliance (average under half the
// limit) relaxes gently, except for strict limits which keep ratcheting
// down; everything else reduces by a strategy-scaled percentage.
func (e *Engine) CalculateProgressiveLimit(currentLimitMillis int64, priority entity.LimitPriority, history []entity.DailyUsageRecord, strategy ProgressionStrategy) ProgressiveLimitRecommendation {
	if len(history) == 0 || currentLimitMillis <= 0 {
		return ProgressiveLimitRecommendation{
			Adjustment:             AdjustmentMaintain,
			RecommendedLimitMillis: currentLimitMillis,
			Rationale:              "no usage history to recommend from",
		}
	}
	window := history
	if len(window) > 7 {
		window = window[len(window)-7:]
	}
	avg := averageUsage(window)
	over := 0
	for _, day := range window {
		if day.UsageMillis > currentLimitMillis {
			over++
		}
	}
	if over >= 5 {
		return ProgressiveLimitRecommendation{
			Adjustment:             AdjustmentResetToBaseline,
			RecommendedLimitMillis: avg + avg/10,
			Rationale:              fmt.Sprintf("limit exceeded on %d of the last %d days; resetting to average plus 10%% buffer", over, len(window)),
		}
	}
	if avg*2 < currentLimitMillis && priority != entity.PriorityStrict {
		return ProgressiveLimitRecommendation{
			Adjustment:             AdjustmentIncreaseGentle,
			RecommendedLimitMillis: currentLimitMillis + currentLimitMillis/20,
			Rationale:              "average usage is under half the limit; the limit is no longer binding",
		}
	}
	compliance := 1.0 - float64(over)/float64(len(window))
	var pct float64
	switch strategy {
	case StrategyAggressive:
		pct = 25
	case StrategyModerate:
		pct = 15
	case StrategyGentle:
		pct = 7.5
	case StrategyAdaptive:
		pct = 5 + compliance*20
	default:
		pct = 15
	}
	recommended := currentLimitMillis - int64(float64(currentLimitMillis)*pct/100)
	return ProgressiveLimitRecommendation{
		Adjustment:             AdjustmentReduce,
		RecommendedLimitMillis: recommended,
		ReductionPercent:       pct,
		Rationale:              fmt.Sprintf("compliance rate %.0f%%; reducing by %.1f%%", compliance*100, pct),
	}
}

func averageUsage(history []entity.DailyUsageRecord) int64 {
	if len(history) == 0 {
		return 0
	}
	var total int64
	for _, day := range history {
		if day.UsageMillis > 0 {
			total += day.UsageMillis
		}
	}
	return total / int64(len(history))
}
