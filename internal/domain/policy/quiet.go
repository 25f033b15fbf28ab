package policy

import "time"

// IsQuiet reports whether the given local wall-clock time falls inside
// the policy's quiet window. Policies without quiet hours are never
// quiet. A window whose start is at or after its end wraps past
// midnight (e.g. 22:00 -> 06:00).
func IsQuiet(p Effective, nowLocal TimeOfDay) bool {
	if p.QuietHoursStart == nil || p.QuietHoursEnd == nil {
		return false
	}
	now := nowLocal.MinuteOfDay()
	start := p.QuietHoursStart.MinuteOfDay()
	end := p.QuietHoursEnd.MinuteOfDay()

	if start < end {
		return start <= now && now < end
	}
	return now >= start || now < end
}

// NextQuietEnd returns the instant the active quiet window ends, in
// now's location. Callers must only invoke it when IsQuiet holds for
// now; it is the reschedule target for a suppressed tick.
func NextQuietEnd(p Effective, now time.Time) time.Time {
	if p.QuietHoursStart == nil || p.QuietHoursEnd == nil {
		return now
	}
	end := *p.QuietHoursEnd
	endToday := time.Date(now.Year(), now.Month(), now.Day(), end.Hour, end.Minute, 0, 0, now.Location())

	start := p.QuietHoursStart.MinuteOfDay()
	nowMin := TimeOfDayFrom(now).MinuteOfDay()
	// In a wrapping window the pre-midnight half ends tomorrow.
	if start >= end.MinuteOfDay() && nowMin >= start {
		return endToday.AddDate(0, 0, 1)
	}
	return endToday
}
