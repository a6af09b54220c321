package engine

import (
	"time"

	"github.com/mohamedkhairy/ict-dashboard/internal/models"
)

// Reference level names
const (
	LevelPDH = "pdh"
	LevelPDL = "pdl"
	LevelPDO = "pdo"
	LevelPDC = "pdc"
	LevelPWH = "pwh"
	LevelPWL = "pwl"
	LevelPWO = "pwo"
	LevelPWC = "pwc"
)

// priorDayBar selects the bar representing the prior trading day. When the
// latest daily bar is today's in-progress bar the one before it is used.
func priorDayBar(daily models.Series, now time.Time) (models.Bar, bool) {
	last, ok := daily.Last()
	if !ok {
		return models.Bar{}, false
	}
	if sameOrAfterDate(last.Timestamp.In(now.Location()), now) && len(daily) >= 2 {
		return daily[len(daily)-2], true
	}
	return last, true
}

// referenceLevels extracts prior-day and prior-week OHLC. Each period is
// emitted with all four fields or not at all.
func (e *Engine) referenceLevels(daily, weekly models.Series, now time.Time) map[string]float64 {
	levels := make(map[string]float64, 8)

	if bar, ok := priorDayBar(daily, now); ok {
		e.putOHLC(levels, bar, LevelPDH, LevelPDL, LevelPDO, LevelPDC)
	}

	// the last weekly bar is the current, in-progress week
	if len(weekly) >= 2 {
		e.putOHLC(levels, weekly[len(weekly)-2], LevelPWH, LevelPWL, LevelPWO, LevelPWC)
	}

	return levels
}

func (e *Engine) putOHLC(levels map[string]float64, bar models.Bar, high, low, open, close string) {
	if bar.Validate() != nil {
		return
	}
	levels[high] = e.round(bar.High)
	levels[low] = e.round(bar.Low)
	levels[open] = e.round(bar.Open)
	levels[close] = e.round(bar.Close)
}

// dailyChange returns the percent change of price against the prior day's close
func (e *Engine) dailyChange(daily models.Series, price *float64, now time.Time) float64 {
	if price == nil {
		return 0
	}
	bar, ok := priorDayBar(daily, now)
	if !ok || bar.Close == 0 || !isFinite(bar.Close) {
		return 0
	}
	return e.round((*price - bar.Close) / bar.Close * 100)
}
