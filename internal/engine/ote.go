package engine

import (
	"strconv"
	"time"

	"github.com/mohamedkhairy/ict-dashboard/internal/models"
)

const swingInterval = 5 * time.Minute

// optimalEntryZone finds the latest swing pivots on five-minute bars and
// projects the configured retracement ratios between them
func (e *Engine) optimalEntryZone(intraday models.Series, price *float64) models.OTEResult {
	if len(intraday) == 0 {
		return models.OTEResult{Reason: models.ErrNoIntradayData}
	}
	if price == nil {
		return models.OTEResult{Reason: models.ErrNoPrice}
	}

	bars := Resample(intraday, swingInterval)
	n := e.cfg.SwingLookback
	if len(bars) < 2*n+1 {
		return models.OTEResult{Reason: models.ErrInsufficientBars}
	}

	hiIdx, loIdx := FindSwings(bars, n)
	if hiIdx < 0 || loIdx < 0 {
		return models.OTEResult{Reason: models.ErrNoSwing}
	}

	swingHigh, swingLow := bars[hiIdx].High, bars[loIdx].Low
	rng := swingHigh - swingLow
	if rng <= 0 {
		return models.OTEResult{Reason: models.ErrDegenerateRange}
	}

	// a high printed after the low means the last leg rose: retrace down from the high
	direction := models.DirectionBearish
	if hiIdx > loIdx {
		direction = models.DirectionBullish
	}
	level := func(ratio float64) float64 {
		if direction == models.DirectionBullish {
			return e.round(swingHigh - rng*ratio)
		}
		return e.round(swingLow + rng*ratio)
	}

	result := models.OTEResult{
		Available: true,
		SwingHigh: e.round(swingHigh),
		SwingLow:  e.round(swingLow),
		Direction: direction,
		Levels:    make(map[string]models.FibLevel, len(e.cfg.OTEFibs)),
	}

	minRatio, maxRatio := e.cfg.OTEFibs[0], e.cfg.OTEFibs[0]
	for _, ratio := range e.cfg.OTEFibs {
		p := level(ratio)
		result.Levels[strconv.FormatFloat(ratio, 'f', -1, 64)] = models.FibLevel{Price: p, Near: e.near(price, p)}
		minRatio = min(minRatio, ratio)
		maxRatio = max(maxRatio, ratio)
	}

	bottom, top := level(minRatio), level(maxRatio)
	if direction == models.DirectionBullish {
		bottom, top = top, bottom
	}
	result.InOTE = bottom <= *price && *price <= top

	return result
}
