package engine

import (
	"time"

	"github.com/mohamedkhairy/ict-dashboard/internal/models"
)

const minutesPerDay = 24 * 60

// EvaluateWindow returns the status of w at nowMin minutes past midnight
func EvaluateWindow(nowMin int, w models.TimeWindow) models.WindowStatus {
	s, e := w.Start, w.End

	if w.CrossesMidnight {
		if nowMin >= s || nowMin < e {
			rem := e - nowMin
			if nowMin >= s {
				rem = minutesPerDay - nowMin + e
			}
			return models.WindowStatus{Status: models.WindowActive, Countdown: countdown(rem), Active: true}
		}
		rem := s - nowMin
		if nowMin >= s {
			rem = minutesPerDay - nowMin + s
		}
		return models.WindowStatus{Status: models.WindowUpcoming, Countdown: countdown(rem)}
	}

	switch {
	case s <= nowMin && nowMin < e:
		return models.WindowStatus{Status: models.WindowActive, Countdown: countdown(e - nowMin), Active: true}
	case nowMin < s:
		return models.WindowStatus{Status: models.WindowUpcoming, Countdown: countdown(s - nowMin)}
	default:
		return models.WindowStatus{Status: models.WindowClosed}
	}
}

func minuteOf(t time.Time) int {
	return models.MinuteOfDay(t.Hour(), t.Minute())
}

func (e *Engine) killZones(now time.Time) []models.KillZoneStatus {
	nowMin := minuteOf(now)
	out := make([]models.KillZoneStatus, 0, len(e.cfg.KillZones))
	for _, kz := range e.cfg.KillZones {
		out = append(out, models.KillZoneStatus{Name: kz.Name, WindowStatus: EvaluateWindow(nowMin, kz)})
	}
	return out
}

func (e *Engine) macros(now time.Time) []models.MacroStatus {
	nowMin := minuteOf(now)
	out := make([]models.MacroStatus, 0, len(e.cfg.Macros))
	for _, m := range e.cfg.Macros {
		out = append(out, models.MacroStatus{Label: m.Name, WindowStatus: EvaluateWindow(nowMin, m)})
	}
	return out
}
