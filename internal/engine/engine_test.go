package engine

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/mohamedkhairy/ict-dashboard/internal/config"
	"github.com/mohamedkhairy/ict-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nqData returns a full data set for NQ=F and leaves ES=F empty
func nqData(t *testing.T) models.MarketData {
	md := models.NewMarketData([]string{"NQ=F", "ES=F"})

	md.Set(models.GranularityIntraday, "NQ=F", concat(
		models.Series{
			bar(ny(t, 2024, 1, 15, 18, 0), 99, 100, 98, 99.5),
			bar(ny(t, 2024, 1, 15, 20, 0), 99.5, 103, 99, 102),
			bar(ny(t, 2024, 1, 16, 0, 0), 102, 102.5, 101, 101.5),
			bar(ny(t, 2024, 1, 16, 3, 0), 101.5, 104, 100.5, 103),
		},
		bearishLeg(t),
	))
	md.Set(models.GranularityDaily, "NQ=F", models.Series{
		bar(ny(t, 2024, 1, 12, 0, 0), 95, 99, 94, 98),
		bar(ny(t, 2024, 1, 15, 0, 0), 98, 104.5, 97, 100),
		bar(ny(t, 2024, 1, 16, 0, 0), 100, 110, 99, 106.5),
	})
	md.Set(models.GranularityWeekly, "NQ=F", models.Series{
		bar(ny(t, 2024, 1, 8, 0, 0), 90, 101, 89, 95),
		bar(ny(t, 2024, 1, 15, 0, 0), 95, 110, 94, 106.5),
	})

	return md
}

func computeAt(t *testing.T) time.Time {
	return ny(t, 2024, 1, 16, 14, 5).Add(9 * time.Second)
}

func TestCompute_Header(t *testing.T) {
	eng := newTestEngine(t)

	dash := eng.Compute(nqData(t), computeAt(t).UTC())
	assert.Equal(t, "02:05:09 PM", dash.Time)
	assert.Equal(t, "Tuesday, Jan 16", dash.Date)

	require.Len(t, dash.KillZones, 5)
	assert.Equal(t, "NY PM", dash.KillZones[4].Name)
	assert.Equal(t, models.WindowActive, dash.KillZones[4].Status)
	assert.Equal(t, "1h 55m", dash.KillZones[4].Countdown)
	assert.Equal(t, models.WindowUpcoming, dash.KillZones[0].Status)
	assert.Equal(t, "4h 55m", dash.KillZones[0].Countdown)
	assert.Equal(t, models.WindowClosed, dash.KillZones[2].Status)

	require.Len(t, dash.Macros, 4)
	assert.True(t, dash.Macros[2].Active)
	assert.Equal(t, "5m", dash.Macros[2].Countdown)
}

func TestCompute_FullInstrument(t *testing.T) {
	eng := newTestEngine(t)
	dash := eng.Compute(nqData(t), computeAt(t))

	nq := dash.Tickers["NQ=F"]
	require.NotNil(t, nq)
	assert.Equal(t, "NQ", nq.Label)
	require.NotNil(t, nq.Price)
	assert.Equal(t, 106.5, *nq.Price)
	assert.Equal(t, 6.5, nq.DailyChange)

	assert.Len(t, nq.Levels, 8)
	require.NotNil(t, nq.Levels[LevelPDH].Value)
	assert.Equal(t, 104.5, *nq.Levels[LevelPDH].Value)
	assert.Equal(t, 101.0, *nq.Levels[LevelPWH].Value)

	require.Len(t, nq.Liquidity, 6)
	assert.Equal(t, "Asia High", nq.Liquidity[0].Label)
	assert.Equal(t, 103.0, *nq.Liquidity[0].Level)
	assert.True(t, nq.Liquidity[0].Swept)
	assert.Equal(t, "London High", nq.Liquidity[2].Label)
	assert.Equal(t, 104.0, *nq.Liquidity[2].Level)
	assert.Equal(t, "PDH", nq.Liquidity[4].Label)

	assert.True(t, nq.OTE.Available)
	assert.Equal(t, models.DirectionBearish, nq.OTE.Direction)
	assert.True(t, nq.OTE.InOTE)

	require.Len(t, nq.KeyOpens, 5)
	assert.Equal(t, 99.0, *nq.KeyOpens[0].Price)
	assert.Equal(t, 102.0, *nq.KeyOpens[1].Price)
	assert.Equal(t, 104.5, *nq.KeyOpens[2].Price)
	assert.Nil(t, nq.KeyOpens[4].Price)

	assert.True(t, nq.PO3.Available)
	assert.Equal(t, 104.5, nq.PO3.NYOpen)
}

func TestCompute_EmptyInstrumentDegrades(t *testing.T) {
	eng := newTestEngine(t)
	dash := eng.Compute(nqData(t), computeAt(t))

	es := dash.Tickers["ES=F"]
	require.NotNil(t, es)
	assert.Equal(t, "ES", es.Label)
	assert.Nil(t, es.Price)
	assert.Equal(t, 0.0, es.DailyChange)
	assert.Empty(t, es.Levels)
	assert.NotNil(t, es.Liquidity)
	assert.Empty(t, es.Liquidity)
	assert.False(t, es.OTE.Available)
	assert.ErrorIs(t, es.OTE.Reason, models.ErrNoIntradayData)
	assert.False(t, es.PO3.Available)
	require.Len(t, es.KeyOpens, 5)
	for _, ko := range es.KeyOpens {
		assert.Nil(t, ko.Price)
	}

	raw, err := json.Marshal(es)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"label": "ES",
		"price": null,
		"daily_change": 0,
		"levels": {},
		"liquidity": [],
		"ote": {"available": false},
		"key_opens": [
			{"label": "18:00 Futures Open", "price": null, "near": false},
			{"label": "00:00 Midnight Open", "price": null, "near": false},
			{"label": "09:30 NY Open", "price": null, "near": false},
			{"label": "10:00 True Open", "price": null, "near": false},
			{"label": "13:00 PM Open", "price": null, "near": false}
		],
		"po3": {"available": false}
	}`, string(raw))
}

func TestCompute_Idempotent(t *testing.T) {
	eng := newTestEngine(t)
	data := nqData(t)
	now := computeAt(t)

	first, err := json.Marshal(eng.Compute(data, now))
	require.NoError(t, err)
	second, err := json.Marshal(eng.Compute(data, now))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestCompute_NilMarketData(t *testing.T) {
	eng := newTestEngine(t)
	dash := eng.Compute(nil, computeAt(t))
	require.Len(t, dash.Tickers, 2)
	for _, tm := range dash.Tickers {
		assert.Nil(t, tm.Price)
	}
}

func TestCompute_NonFiniteValuesAreContained(t *testing.T) {
	eng := newTestEngine(t)
	data := nqData(t)

	intraday := append(models.Series(nil), data.Series(models.GranularityIntraday, "NQ=F")...)
	intraday[3].High = math.NaN() // inside the London window
	intraday[len(intraday)-1].Close = math.Inf(1)
	data.Set(models.GranularityIntraday, "NQ=F", intraday)

	daily := append(models.Series(nil), data.Series(models.GranularityDaily, "NQ=F")...)
	daily[1].Close = math.NaN()
	data.Set(models.GranularityDaily, "NQ=F", daily)

	var dash *models.Dashboard
	require.NotPanics(t, func() { dash = eng.Compute(data, computeAt(t)) })

	nq := dash.Tickers["NQ=F"]
	assert.Nil(t, nq.Price)
	assert.Equal(t, 0.0, nq.DailyChange)
	assert.NotContains(t, nq.Levels, LevelPDH)
	assert.Contains(t, nq.Levels, LevelPWH)
	assert.False(t, nq.OTE.Available)

	byLabel := sweepsByLabel(nq.Liquidity)
	assert.Equal(t, models.SweepNA, byLabel["London High"].Status)
	assert.NotEqual(t, models.SweepNA, byLabel["London Low"].Status)

	_, err := json.Marshal(dash)
	assert.NoError(t, err)
}

func TestNewEngine_LoadsLocation(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	eng, err := NewEngine(cfg)
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", eng.Location().String())

	cfg.Timezone = "Not/AZone"
	_, err = NewEngine(cfg)
	assert.Error(t, err)
}
