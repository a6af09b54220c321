package engine

import (
	"time"

	"github.com/mohamedkhairy/ict-dashboard/internal/models"
)

// powerOf3 classifies the current session as accumulation, manipulation or
// distribution from how price broke the opening range
func (e *Engine) powerOf3(intraday models.Series, now time.Time) models.PowerOf3Result {
	if len(intraday) == 0 {
		return models.PowerOf3Result{Reason: models.ErrNoIntradayData}
	}

	sessionOpen := at(startOfDay(now), e.cfg.SessionOpen)
	session := intraday.Since(sessionOpen)
	if len(session) == 0 {
		return models.PowerOf3Result{Reason: models.ErrNoSessionData}
	}

	high, low, ok := session.HighLow()
	if !ok {
		return models.PowerOf3Result{Reason: models.ErrNoSessionData}
	}
	result := models.PowerOf3Result{
		Available: true,
		NYOpen:    e.round(session[0].Open),
		High:      e.round(high),
		Low:       e.round(low),
		Phase:     models.PhaseAccumulation,
		Bias:      models.BiasNeutral,
	}

	accumDuration := time.Duration(e.cfg.AccumulationMinutes) * time.Minute
	if now.Sub(sessionOpen) < accumDuration {
		return result
	}

	accumHigh, accumLow, ok := session.Between(sessionOpen, sessionOpen.Add(accumDuration)).HighLow()
	if !ok {
		return result
	}

	rng := accumHigh - accumLow
	if rng == 0 {
		rng = 1.0
	}
	buffer := rng * e.cfg.SweepBufferPct

	sweptHigh := result.High > accumHigh+buffer
	sweptLow := result.Low < accumLow-buffer
	current := session[len(session)-1].Close

	result.Phase, result.Bias = classifySession(sweptHigh, sweptLow, current, result.NYOpen)
	return result
}

func classifySession(sweptHigh, sweptLow bool, current, open float64) (models.Phase, models.Bias) {
	switch {
	case sweptLow && current > open:
		return models.PhaseDistribution, models.BiasBullish
	case sweptHigh && current < open:
		return models.PhaseDistribution, models.BiasBearish
	case sweptHigh:
		return models.PhaseManipulation, models.BiasBearish
	case sweptLow:
		return models.PhaseManipulation, models.BiasBullish
	default:
		return models.PhaseAccumulation, models.BiasNeutral
	}
}
