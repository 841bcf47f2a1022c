package engine

import (
	"time"

	"github.com/lowkey/screenbreak/pkg/entity"
)

// UsageSnapshot is the raw telemetry the device reports for one package.
// Fields may be missing or garbage (the telemetry source is not trusted);
// the resolver clamps instead of failing.
type UsageSnapshot struct {
	PackageName         string `json:"package_name"`
	TodayUsageMillis    int64  `json:"today_usage_millis"`
	SessionStartUnixMs  int64  `json:"session_start_unix_ms"`
	UnlocksSinceLastUse int    `json:"unlocks_since_last_use"`
}

// ResolveContext assembles an AppUsageContext from a snapshot and the
// current instant. It is a pure function: no state, no side effects.
func ResolveContext(snap UsageSnapshot, now time.Time) entity.AppUsageContext {
	usage := snap.TodayUsageMillis
	if usage < 0 {
		usage = 0
	}
	unlocks := snap.UnlocksSinceLastUse
	if unlocks < 0 {
		unlocks = 0
	}

	var sessionStart time.Time
	var sessionDur int64
	if snap.SessionStartUnixMs > 0 {
		sessionStart = time.UnixMilli(snap.SessionStartUnixMs)
		if sessionStart.Before(now) {
			sessionDur = now.Sub(sessionStart).Milliseconds()
		} else {
			// Clock skew between device and server: treat as a fresh session.
			sessionStart = now
		}
	}

	weekday := isoWeekday(now)
	return entity.AppUsageContext{
		PackageName:           snap.PackageName,
		TodayUsageMillis:      usage,
		SessionStart:          sessionStart,
		SessionDurationMillis: sessionDur,
		UnlocksSinceLastUse:   unlocks,
		TimeOfDay:             now.Hour(),
		DayOfWeek:             weekday,
		IsWeekend:             weekday >= 6,
	}
}

// ResolveTimeContext buckets an instant into the coarse segments the
// strategy selector keys on.
func ResolveTimeContext(now time.Time) TimeContext {
	hour := now.Hour()
	var seg TimeSegment
	switch {
	case hour >= 5 && hour < 12:
		seg = SegmentMorning
	case hour >= 12 && hour < 18:
		seg = SegmentAfternoon
	case hour >= 18 && hour < 23:
		seg = SegmentEvening
	default:
		seg = SegmentLateNight
	}
	return TimeContext{
		Segment:   seg,
		IsWeekend: isoWeekday(now) >= 6,
	}
}

// isoWeekday maps time.Weekday to ISO numbering (Monday = 1, Sunday = 7).
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
