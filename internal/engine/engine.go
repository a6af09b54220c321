// Package engine derives the trading-session metrics document from bar series.
//
// The engine is a pure transformer: Compute takes every input explicitly,
// including the current time, and keeps no state between calls. It is safe
// for concurrent use.
package engine

import (
	"fmt"
	"time"

	"github.com/mohamedkhairy/ict-dashboard/internal/config"
	"github.com/mohamedkhairy/ict-dashboard/internal/models"
	"github.com/mohamedkhairy/ict-dashboard/pkg/logger"
)

const (
	timeLayout = "03:04:05 PM"
	dateLayout = "Monday, Jan 02"
)

// Engine computes dashboard snapshots
type Engine struct {
	cfg config.EngineConfig
	loc *time.Location
}

// NewEngine creates an engine for the given configuration
func NewEngine(cfg config.EngineConfig) (*Engine, error) {
	loc := cfg.Location
	if loc == nil {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("failed to load trading time zone %q: %w", cfg.Timezone, err)
		}
		cfg.Location = loc
	}
	return &Engine{cfg: cfg, loc: loc}, nil
}

// Location returns the trading time zone
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Compute builds a complete snapshot for every configured instrument.
// It never fails: unavailable data degrades only the affected fields.
func (e *Engine) Compute(data models.MarketData, now time.Time) *models.Dashboard {
	now = now.In(e.loc)

	dash := &models.Dashboard{
		Time:      now.Format(timeLayout),
		Date:      now.Format(dateLayout),
		KillZones: e.killZones(now),
		Macros:    e.macros(now),
		Tickers:   make(map[string]*models.TickerMetrics, len(e.cfg.Instruments)),
	}

	for _, inst := range e.cfg.Instruments {
		dash.Tickers[inst.Symbol] = e.computeTicker(inst, data, now)
	}

	return dash
}

func (e *Engine) computeTicker(inst models.Instrument, data models.MarketData, now time.Time) *models.TickerMetrics {
	label := inst.Label
	if label == "" {
		label = inst.Symbol
	}

	intraday := data.Series(models.GranularityIntraday, inst.Symbol)
	daily := data.Series(models.GranularityDaily, inst.Symbol)
	weekly := data.Series(models.GranularityWeekly, inst.Symbol)

	var price *float64
	if last, ok := intraday.Last(); ok && isFinite(last.Close) {
		// decimal ties go away from zero: 2.675 shows as 2.68, not 2.67
		price = models.Float64Ptr(e.round(last.Close))
	}

	levels := guard("levels", map[string]float64{}, func() map[string]float64 {
		return e.referenceLevels(daily, weekly, now)
	})

	tm := &models.TickerMetrics{
		Label: label,
		Price: price,
		DailyChange: guard("daily_change", 0.0, func() float64 {
			return e.dailyChange(daily, price, now)
		}),
		Levels:    make(map[string]models.LevelValue, len(levels)),
		Liquidity: e.liquiditySweeps(intraday, levels, now),
		OTE: guard("ote", models.OTEResult{Reason: models.ErrComputation}, func() models.OTEResult {
			return e.optimalEntryZone(intraday, price)
		}),
		KeyOpens: e.keyOpens(intraday, price, now),
		PO3: guard("po3", models.PowerOf3Result{Reason: models.ErrComputation}, func() models.PowerOf3Result {
			return e.powerOf3(intraday, now)
		}),
	}

	for name, v := range levels {
		tm.Levels[name] = models.LevelValue{Value: models.Float64Ptr(v), Near: e.near(price, v)}
	}

	return tm
}

// guard runs fn and converts a panic into fallback, so one failing
// sub-computation cannot abort the rest of the snapshot
func guard[T any](name string, fallback T, fn func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("Sub-computation failed, reporting unavailable",
				logger.String("computation", name),
				logger.String("panic", fmt.Sprint(r)),
			)
			out = fallback
		}
	}()
	return fn()
}
