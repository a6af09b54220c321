package engine

import (
	"time"

	"github.com/mohamedkhairy/ict-dashboard/internal/models"
)

const (
	futuresOpenHour = 18
	midnightHour    = 0
	keyOpenWindow   = 2 * time.Minute
)

// keyOpens records the opening price at each configured clock time. Every
// anchor is always present; a missing bar yields a null price.
func (e *Engine) keyOpens(intraday models.Series, price *float64, now time.Time) []models.KeyOpenResult {
	out := make([]models.KeyOpenResult, 0, len(e.cfg.KeyOpens))
	today := startOfDay(now)

	for _, ko := range e.cfg.KeyOpens {
		var open *float64
		if bar, ok := findKeyOpenBar(intraday, ko, today, now); ok && isFinite(bar.Open) {
			open = models.Float64Ptr(e.round(bar.Open))
		}
		out = append(out, models.KeyOpenResult{
			Label: ko.Label,
			Price: open,
			Near:  e.nearPtr(price, open),
		})
	}

	return out
}

func findKeyOpenBar(intraday models.Series, ko models.KeyOpenSpec, today, now time.Time) (models.Bar, bool) {
	switch ko.Hour {
	case futuresOpenHour:
		// the futures session opens the evening before, so take the latest one not after now
		for i := len(intraday) - 1; i >= 0; i-- {
			ts := intraday[i].Timestamp
			if ts.Hour() == ko.Hour && ts.Minute() == ko.Minute && !ts.After(now) {
				return intraday[i], true
			}
		}
		return models.Bar{}, false

	case midnightHour:
		return firstInWindow(intraday, today)

	default:
		target := at(today, models.MinuteOfDay(ko.Hour, ko.Minute))
		if now.Before(target) {
			return models.Bar{}, false
		}
		return firstInWindow(intraday, target)
	}
}

func firstInWindow(intraday models.Series, start time.Time) (models.Bar, bool) {
	seg := intraday.Between(start, start.Add(keyOpenWindow))
	if len(seg) == 0 {
		return models.Bar{}, false
	}
	return seg[0], true
}
