package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lowkey/screenbreak/internal/engine"
)

func TestResolveContext(t *testing.T) {
	now := time.Date(2025, 3, 8, 14, 30, 0, 0, time.UTC) // a Saturday

	t.Run("fills derived fields from the instant", func(t *testing.T) {
		ctx := engine.ResolveContext(engine.UsageSnapshot{
			PackageName:      testPkg,
			TodayUsageMillis: 42 * minuteMs,
		}, now)
		assert.Equal(t, testPkg, ctx.PackageName)
		assert.Equal(t, 42*minuteMs, ctx.TodayUsageMillis)
		assert.Equal(t, 14, ctx.TimeOfDay)
		assert.Equal(t, 6, ctx.DayOfWeek)
		assert.True(t, ctx.IsWeekend)
	})
	t.Run("sunday maps to seven", func(t *testing.T) {
		ctx := engine.ResolveContext(engine.UsageSnapshot{PackageName: testPkg}, now.AddDate(0, 0, 1))
		assert.Equal(t, 7, ctx.DayOfWeek)
		assert.True(t, ctx.IsWeekend)
	})
	t.Run("monday is a weekday", func(t *testing.T) {
		ctx := engine.ResolveContext(engine.UsageSnapshot{PackageName: testPkg}, now.AddDate(0, 0, 2))
		assert.Equal(t, 1, ctx.DayOfWeek)
		assert.False(t, ctx.IsWeekend)
	})
	t.Run("garbage telemetry clamps to zero", func(t *testing.T) {
		ctx := engine.ResolveContext(engine.UsageSnapshot{
			PackageName:         testPkg,
			TodayUsageMillis:    -5000,
			UnlocksSinceLastUse: -3,
		}, now)
		assert.Equal(t, int64(0), ctx.TodayUsageMillis)
		assert.Equal(t, 0, ctx.UnlocksSinceLastUse)
	})
	t.Run("running session yields its duration", func(t *testing.T) {
		start := now.Add(-25 * time.Minute)
		ctx := engine.ResolveContext(engine.UsageSnapshot{
			PackageName:        testPkg,
			SessionStartUnixMs: start.UnixMilli(),
		}, now)
		assert.Equal(t, start.UnixMilli(), ctx.SessionStart.UnixMilli())
		assert.Equal(t, 25*minuteMs, ctx.SessionDurationMillis)
	})
	t.Run("session start in the future counts as fresh", func(t *testing.T) {
		ctx := engine.ResolveContext(engine.UsageSnapshot{
			PackageName:        testPkg,
			SessionStartUnixMs: now.Add(time.Hour).UnixMilli(),
		}, now)
		assert.Equal(t, int64(0), ctx.SessionDurationMillis)
		assert.Equal(t, now.UnixMilli(), ctx.SessionStart.UnixMilli())
	})
	t.Run("no session start means no session", func(t *testing.T) {
		ctx := engine.ResolveContext(engine.UsageSnapshot{PackageName: testPkg}, now)
		assert.True(t, ctx.SessionStart.IsZero())
		assert.Equal(t, int64(0), ctx.SessionDurationMillis)
	})
}

func TestResolveTimeContext(t *testing.T) {
	day := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC) // a Wednesday
	at := func(hour int) time.Time {
		return day.Add(time.Duration(hour) * time.Hour)
	}
	cases := []struct {
		hour int
		want engine.TimeSegment
	}{
		{4, engine.SegmentLateNight},
		{5, engine.SegmentMorning},
		{11, engine.SegmentMorning},
		{12, engine.SegmentAfternoon},
		{17, engine.SegmentAfternoon},
		{18, engine.SegmentEvening},
		{22, engine.SegmentEvening},
		{23, engine.SegmentLateNight},
		{0, engine.SegmentLateNight},
	}
	for _, tc := range cases {
		tctx := engine.ResolveTimeContext(at(tc.hour))
		assert.Equal(t, tc.want, tctx.Segment, "hour %d", tc.hour)
		assert.False(t, tctx.IsWeekend)
	}
	weekend := engine.ResolveTimeContext(time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC))
	assert.True(t, weekend.IsWeekend)
}
