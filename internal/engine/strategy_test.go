package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lowkey/screenbreak/internal/engine"
)

func TestDetermineEnforcementStrategy(t *testing.T) {
	e := engine.New()
	afternoon := engine.TimeContext{Segment: engine.SegmentAfternoon}

	t.Run("baseline is suggest-break with extensions", func(t *testing.T) {
		s := e.DetermineEnforcementStrategy(engine.UserBehaviorProfile{
			SelfControlScore: 0.5,
			MotivationLevel:  0.5,
			RecentViolations: 3,
		}, engine.CategorySocial, afternoon)
		assert.Equal(t, engine.ActionSuggestBreak, s.PrimaryAction)
		assert.Equal(t, engine.ActionBlockImmediately, s.EscalationAction)
		assert.Equal(t, engine.StyleNeutral, s.WarningStyle)
		assert.True(t, s.OfferExtensions)
	})
	t.Run("low self-control escalates to firm blocking", func(t *testing.T) {
		s := e.DetermineEnforcementStrategy(engine.UserBehaviorProfile{
			SelfControlScore: 0.2,
			MotivationLevel:  0.9,
		}, engine.CategorySocial, afternoon)
		assert.Equal(t, engine.ActionBlockImmediately, s.PrimaryAction)
		assert.Equal(t, engine.StyleFirm, s.WarningStyle)
		assert.True(t, s.OfferExtensions)
	})
	t.Run("violation pile-up withdraws the extension offer", func(t *testing.T) {
		s := e.DetermineEnforcementStrategy(engine.UserBehaviorProfile{
			SelfControlScore: 0.5,
			MotivationLevel:  0.5,
			RecentViolations: 9,
		}, engine.CategorySocial, afternoon)
		assert.Equal(t, engine.ActionBlockImmediately, s.PrimaryAction)
		assert.False(t, s.OfferExtensions)
	})
	t.Run("motivated clean week relaxes to reminders", func(t *testing.T) {
		s := e.DetermineEnforcementStrategy(engine.UserBehaviorProfile{
			SelfControlScore: 0.6,
			MotivationLevel:  0.8,
			RecentViolations: 1,
		}, engine.CategoryProductivity, afternoon)
		assert.Equal(t, engine.ActionAllowWithReminder, s.PrimaryAction)
		assert.Equal(t, engine.StyleMotivational, s.WarningStyle)
		assert.Equal(t, engine.CooldownWarnOnly, s.CooldownBehavior)
	})
	t.Run("evening entertainment loses the relaxed path", func(t *testing.T) {
		evening := engine.TimeContext{Segment: engine.SegmentEvening}
		profile := engine.UserBehaviorProfile{
			SelfControlScore: 0.6,
			MotivationLevel:  0.8,
			RecentViolations: 1,
		}
		s := e.DetermineEnforcementStrategy(profile, engine.CategoryVideo, evening)
		assert.Equal(t, engine.ActionSuggestBreak, s.PrimaryAction)

		s = e.DetermineEnforcementStrategy(profile, engine.CategoryProductivity, evening)
		assert.Equal(t, engine.ActionAllowWithReminder, s.PrimaryAction)
	})
	t.Run("late night forces an immediate cooldown block", func(t *testing.T) {
		lateNight := engine.TimeContext{Segment: engine.SegmentLateNight}
		s := e.DetermineEnforcementStrategy(engine.UserBehaviorProfile{
			SelfControlScore: 0.9,
			MotivationLevel:  0.9,
		}, engine.CategoryProductivity, lateNight)
		assert.Equal(t, engine.CooldownImmediateBlock, s.CooldownBehavior)
	})
	t.Run("same inputs always give the same strategy", func(t *testing.T) {
		profile := engine.UserBehaviorProfile{
			SelfControlScore: 0.4,
			MotivationLevel:  0.6,
			RecentViolations: 4,
		}
		first := e.DetermineEnforcementStrategy(profile, engine.CategoryGame, afternoon)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, e.DetermineEnforcementStrategy(profile, engine.CategoryGame, afternoon))
		}
	})
}
