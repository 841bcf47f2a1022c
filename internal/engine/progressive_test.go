package engine_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/lowkey/screenbreak/internal/engine"
	"github.com/lowkey/screenbreak/pkg/entity"
)

func progressiveFixture() entity.ProgressiveLimit {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	return entity.ProgressiveLimit{
		ID:                  uuid.New(),
		UserID:              testUID,
		PackageName:         testPkg,
		OriginalLimitMillis: 120 * minuteMs,
		TargetLimitMillis:   60 * minuteMs,
		CurrentLimitMillis:  120 * minuteMs,
		ReductionPercent:    10,
		StartDate:           start,
		NextReductionDate:   start.AddDate(0, 0, 7),
		IsActive:            true,
	}
}

func TestProgress(t *testing.T) {
	pl := progressiveFixture()
	assert.Equal(t, 0.0, engine.Progress(pl))

	pl.CurrentLimitMillis = 90 * minuteMs
	assert.Equal(t, 50.0, engine.Progress(pl))

	pl.CurrentLimitMillis = 60 * minuteMs
	assert.Equal(t, 100.0, engine.Progress(pl))

	t.Run("clamps outside the span", func(t *testing.T) {
		pl := progressiveFixture()
		pl.CurrentLimitMillis = 200 * minuteMs
		assert.Equal(t, 0.0, engine.Progress(pl))
		pl.CurrentLimitMillis = 10 * minuteMs
		assert.Equal(t, 100.0, engine.Progress(pl))
	})
	t.Run("degenerate span counts as done", func(t *testing.T) {
		pl := progressiveFixture()
		pl.TargetLimitMillis = pl.OriginalLimitMillis
		assert.Equal(t, 100.0, engine.Progress(pl))
	})
}

func TestAdvanceProgressiveLimit(t *testing.T) {
	t.Run("one due step reduces by the percentage of current", func(t *testing.T) {
		pl := progressiveFixture()
		next, changed := engine.AdvanceProgressiveLimit(pl, pl.NextReductionDate)
		assert.True(t, changed)
		assert.Equal(t, 108*minuteMs, next.CurrentLimitMillis)
		assert.InDelta(t, 20.0, next.ProgressPercent, 0.001)
		assert.True(t, next.IsActive)
		assert.Equal(t, pl.NextReductionDate.AddDate(0, 0, 7), next.NextReductionDate)
	})
	t.Run("not yet due is a no-op", func(t *testing.T) {
		pl := progressiveFixture()
		next, changed := engine.AdvanceProgressiveLimit(pl, pl.NextReductionDate.AddDate(0, 0, -1))
		assert.False(t, changed)
		assert.Equal(t, pl, next)
	})
	t.Run("running the sweep twice on the same day is idempotent", func(t *testing.T) {
		pl := progressiveFixture()
		today := pl.NextReductionDate
		first, changed := engine.AdvanceProgressiveLimit(pl, today)
		assert.True(t, changed)
		second, changed := engine.AdvanceProgressiveLimit(first, today)
		assert.False(t, changed)
		assert.Equal(t, first, second)
	})
	t.Run("inactive limits never advance", func(t *testing.T) {
		pl := progressiveFixture()
		pl.IsActive = false
		_, changed := engine.AdvanceProgressiveLimit(pl, pl.NextReductionDate)
		assert.False(t, changed)
	})
	t.Run("converges onto the target and deactivates", func(t *testing.T) {
		pl := progressiveFixture()
		today := pl.NextReductionDate
		prev := pl.CurrentLimitMillis
		steps := 0
		for pl.IsActive && steps < 20 {
			next, changed := engine.AdvanceProgressiveLimit(pl, today)
			assert.True(t, changed)
			assert.LessOrEqual(t, next.CurrentLimitMillis, prev)
			assert.GreaterOrEqual(t, next.CurrentLimitMillis, pl.TargetLimitMillis)
			assert.GreaterOrEqual(t, next.ProgressPercent, pl.ProgressPercent)
			prev = next.CurrentLimitMillis
			pl = next
			today = pl.NextReductionDate
			steps++
		}
		assert.False(t, pl.IsActive)
		assert.Equal(t, pl.TargetLimitMillis, pl.CurrentLimitMillis)
		assert.Equal(t, 100.0, pl.ProgressPercent)
		assert.Equal(t, 7, steps)
	})
}

func TestDueMilestones(t *testing.T) {
	milestones := func() []entity.ProgressiveMilestone {
		ms := make([]entity.ProgressiveMilestone, 0, len(engine.MilestonePercents))
		for _, p := range engine.MilestonePercents {
			title, desc := engine.RewardFor(p)
			ms = append(ms, entity.ProgressiveMilestone{
				ID:                uuid.New(),
				Percent:           p,
				RewardTitle:       title,
				RewardDescription: desc,
			})
		}
		return ms
	}
	t.Run("returns every newly crossed checkpoint", func(t *testing.T) {
		due := engine.DueMilestones(55, milestones())
		assert.Len(t, due, 2)
		assert.Equal(t, 25, due[0].Percent)
		assert.Equal(t, 50, due[1].Percent)
	})
	t.Run("achievement latches on", func(t *testing.T) {
		ms := milestones()
		ms[0].IsAchieved = true
		due := engine.DueMilestones(55, ms)
		assert.Len(t, due, 1)
		assert.Equal(t, 50, due[0].Percent)

		// Progress sliding back never resurfaces an achieved milestone.
		due = engine.DueMilestones(10, ms)
		assert.Empty(t, due)
	})
	t.Run("nothing due below the first checkpoint", func(t *testing.T) {
		assert.Empty(t, engine.DueMilestones(24.9, milestones()))
	})
}

func TestRewardFor(t *testing.T) {
	for _, p := range engine.MilestonePercents {
		title, _ := engine.RewardFor(p)
		assert.NotEmpty(t, title)
	}
	title, desc := engine.RewardFor(33)
	assert.Equal(t, "33% milestone", title)
	assert.Empty(t, desc)
}
