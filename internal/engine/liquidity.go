package engine

import (
	"time"

	"github.com/mohamedkhairy/ict-dashboard/internal/models"
)

type side int

const (
	sideHigh side = iota
	sideLow
)

// sessionRange is a prior session whose extreme is watched for a sweep.
// fromPriorDay anchors the start on the prior business day.
type sessionRange struct {
	label        string
	fromPriorDay bool
	start, end   int
	side         side
}

var sessionRanges = []sessionRange{
	{label: "Asia High", fromPriorDay: true, start: 19 * 60, end: 0, side: sideHigh},
	{label: "Asia Low", fromPriorDay: true, start: 19 * 60, end: 0, side: sideLow},
	{label: "London High", start: 2 * 60, end: 5 * 60, side: sideHigh},
	{label: "London Low", start: 2 * 60, end: 5 * 60, side: sideLow},
}

// priorBusinessDay steps back three days on Mondays and one day otherwise.
// Holidays are not considered.
func priorBusinessDay(today time.Time) time.Time {
	if today.Weekday() == time.Monday {
		return today.AddDate(0, 0, -3)
	}
	return today.AddDate(0, 0, -1)
}

// currentSession summarizes the bars at or after today's session open
type currentSession struct {
	high, low float64
	ok        bool
}

func (c currentSession) sweeps(level float64, s side) bool {
	if !c.ok {
		return false
	}
	if s == sideHigh {
		return c.high > level
	}
	return c.low < level
}

func sweepStatus(swept bool) string {
	if swept {
		return models.SweepSwept
	}
	return models.SweepUnswept
}

// liquiditySweeps checks the Asian and London session extremes and the prior
// day high/low against the current session's range
func (e *Engine) liquiditySweeps(intraday models.Series, levels map[string]float64, now time.Time) []models.SweepResult {
	out := make([]models.SweepResult, 0, len(sessionRanges)+2)
	if len(intraday) == 0 {
		return out
	}

	today := startOfDay(now)
	var cur currentSession
	cur.high, cur.low, cur.ok = intraday.Since(at(today, e.cfg.SessionOpen)).HighLow()

	for _, sr := range sessionRanges {
		na := models.SweepResult{Label: sr.label, Status: models.SweepNA}
		out = append(out, guard(sr.label, na, func() models.SweepResult {
			return e.sweepSessionRange(intraday, sr, today, cur)
		}))
	}

	for _, pd := range []struct {
		key, label string
		side       side
	}{
		{LevelPDH, "PDH", sideHigh},
		{LevelPDL, "PDL", sideLow},
	} {
		level, ok := levels[pd.key]
		if !ok {
			continue
		}
		swept := cur.sweeps(level, pd.side)
		out = append(out, models.SweepResult{
			Label:  pd.label,
			Level:  models.Float64Ptr(level),
			Swept:  swept,
			Status: sweepStatus(swept),
		})
	}

	return out
}

func (e *Engine) sweepSessionRange(intraday models.Series, sr sessionRange, today time.Time, cur currentSession) models.SweepResult {
	startDay := today
	if sr.fromPriorDay {
		startDay = priorBusinessDay(today)
	}
	start := at(startDay, sr.start)
	end := at(today, sr.end)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}

	high, low, ok := intraday.Between(start, end).HighLow()
	if !ok {
		return models.SweepResult{Label: sr.label, Status: models.SweepNA}
	}

	level := e.round(low)
	if sr.side == sideHigh {
		level = e.round(high)
	}
	swept := cur.sweeps(level, sr.side)

	return models.SweepResult{
		Label:  sr.label,
		Level:  models.Float64Ptr(level),
		Swept:  swept,
		Status: sweepStatus(swept),
	}
}
