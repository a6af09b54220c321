package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// round rounds a monetary value to the configured number of decimals.
// Ties round half away from zero on the shortest decimal form of v, so
// 2.675 becomes 2.68 even though its binary value sits just below the tie.
// Non-finite input panics and is caught by the caller's guard.
func (e *Engine) round(v float64) float64 {
	if !isFinite(v) {
		panic(fmt.Sprintf("non-finite price %v", v))
	}
	return decimal.NewFromFloat(v).Round(e.cfg.PriceDecimals).InexactFloat64()
}

// near reports whether price lies within the proximity threshold of level
func (e *Engine) near(price *float64, level float64) bool {
	if price == nil || level == 0 {
		return false
	}
	return math.Abs(*price-level)/math.Abs(level) <= e.cfg.ProximityPct
}

// nearPtr is near for an optional level
func (e *Engine) nearPtr(price, level *float64) bool {
	if level == nil {
		return false
	}
	return e.near(price, *level)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// countdown formats a positive number of minutes as "{H}h {M}m" or "{M}m"
func countdown(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	h, m := minutes/60, minutes%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// at returns the wall-clock time minuteOfDay on the calendar day of day, in day's location
func at(day time.Time, minuteOfDay int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, minuteOfDay/60, minuteOfDay%60, 0, 0, day.Location())
}

// startOfDay returns midnight of t's calendar day
func startOfDay(t time.Time) time.Time {
	return at(t, 0)
}

// sameOrAfterDate reports whether a's calendar date is on or after b's
func sameOrAfterDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return !da.Before(db)
}
