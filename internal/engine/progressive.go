package engine

import (
	"fmt"
	"time"

	"github.com/lowkey/screenbreak/pkg/entity"
)

// MilestonePercents are the fixed checkpoints seeded on every
// progressive limit.
var MilestonePercents = []int{25, 50, 75, 100}

// RewardFor returns the celebration copy for a milestone checkpoint.
func RewardFor(percent int) (title, description string) {
	switch percent {
	case 25:
		return "First quarter", "A quarter of the way to your target limit."
	case 50:
		return "Halfway there", "Half of the planned reduction is behind you."
	case 75:
		return "Home stretch", "Three quarters done. The target is in sight."
	case 100:
		return "Target reached", "Your limit is now at the target you set."
	}
	return fmt.Sprintf("%d%% milestone", percent), ""
}

// Progress computes the clamped progress percentage for a progressive
// limit: how much of the planned original-to-target reduction has
// happened. A degenerate span (target >= original) counts as done.
func Progress(pl entity.ProgressiveLimit) float64 {
	span := pl.OriginalLimitMillis - pl.TargetLimitMillis
	if span <= 0 {
		return 100
	}
	p := float64(pl.OriginalLimitMillis-pl.CurrentLimitMillis) / float64(span) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// AdvanceProgressiveLimit applies one reduction step to a limit that is
// due. The returned bool is false when nothing was due, which is what
// makes a repeated sweep on the same day a no-op: the first run advances
// NextReductionDate past today, so the second run's guard fails.
//
// The step never drops below the target; reaching the target deactivates
// the limit, which is a terminal state.
func AdvanceProgressiveLimit(pl entity.ProgressiveLimit, today time.Time) (entity.ProgressiveLimit, bool) {
	if !pl.IsActive || pl.NextReductionDate.After(today) {
		return pl, false
	}
	reduction := int64(float64(pl.CurrentLimitMillis) * pl.ReductionPercent / 100)
	newLimit := pl.CurrentLimitMillis - reduction
	if newLimit < pl.TargetLimitMillis {
		newLimit = pl.TargetLimitMillis
	}
	pl.CurrentLimitMillis = newLimit
	pl.ProgressPercent = Progress(pl)
	pl.IsActive = newLimit > pl.TargetLimitMillis
	pl.NextReductionDate = today.AddDate(0, 0, 7)
	return pl, true
}

// DueMilestones returns the milestones newly crossed at the given
// progress. Already-achieved milestones are never returned, so
// achievement can only latch on, never revert.
func DueMilestones(progress float64, milestones []entity.ProgressiveMilestone) []entity.ProgressiveMilestone {
	var due []entity.ProgressiveMilestone
	for _, m := range milestones {
		if !m.IsAchieved && progress >= float64(m.Percent) {
			due = append(due, m)
		}
	}
	return due
}
