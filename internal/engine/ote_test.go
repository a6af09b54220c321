package engine

import (
	"testing"
	"time"

	"github.com/mohamedkhairy/ict-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fiveMinuteBars returns one bar per five-minute bucket. Each bar's low is
// one point under its high and it opens and closes half a point under it.
func fiveMinuteBars(start time.Time, highs ...float64) models.Series {
	out := make(models.Series, 0, len(highs))
	for i, h := range highs {
		out = append(out, bar(start.Add(time.Duration(i)*swingInterval), h-0.5, h, h-1, h-0.5))
	}
	return out
}

// singlePriceBars returns n five-minute bars that all trade at one price
func singlePriceBars(start time.Time, n int, price float64) models.Series {
	out := make(models.Series, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, bar(start.Add(time.Duration(i)*swingInterval), price, price, price, price))
	}
	return out
}

func bearishLeg(t *testing.T) models.Series {
	return fiveMinuteBars(ny(t, 2024, 1, 16, 9, 30),
		105, 106, 107, 108, 109, 110, // swing high at 5
		109, 108, 107, 106, 105, 104, 103, 102, 101, // swing low at 14
		102, 103, 104, 105, 107,
	)
}

func bullishLeg(t *testing.T) models.Series {
	return fiveMinuteBars(ny(t, 2024, 1, 16, 9, 30),
		106, 105, 104, 103, 102, 101, // swing low at 5
		102, 103, 104, 105, 106, 107, 108, 109, 110, // swing high at 14
		109, 108, 107, 106, 104,
	)
}

func TestResample(t *testing.T) {
	start := ny(t, 2024, 1, 16, 9, 30)
	bars := models.Series{
		bar(start, 10, 11, 9, 10.5),
		bar(start.Add(1*time.Minute), 10.5, 12, 10, 11),
		bar(start.Add(4*time.Minute), 11, 11.5, 8, 9),
		// 09:35 bucket is empty
		bar(start.Add(10*time.Minute), 9, 9.5, 8.5, 9.2),
	}

	out := Resample(bars, 5*time.Minute)
	require.Len(t, out, 2)
	assert.Equal(t, models.Bar{Timestamp: start, Open: 10, High: 12, Low: 8, Close: 9}, out[0])
	assert.Equal(t, start.Add(10*time.Minute), out[1].Timestamp)
	assert.Equal(t, 9.2, out[1].Close)

	// source untouched
	assert.Equal(t, 11.0, bars[0].High)
	assert.Empty(t, Resample(nil, 5*time.Minute))
}

func TestFindSwings(t *testing.T) {
	hi, lo := FindSwings(bearishLeg(t), 5)
	assert.Equal(t, 5, hi)
	assert.Equal(t, 14, lo)

	// a V has a swing low at the bottom but the edges cannot be swing highs
	v := fiveMinuteBars(ny(t, 2024, 1, 16, 9, 30), 110, 109, 108, 107, 106, 105, 106, 107, 108, 109, 110)
	hi, lo = FindSwings(v, 5)
	assert.Equal(t, -1, hi)
	assert.Equal(t, 5, lo)

	hi, lo = FindSwings(v[:5], 5)
	assert.Equal(t, -1, hi)
	assert.Equal(t, -1, lo)
}

func TestOptimalEntryZone_Bearish(t *testing.T) {
	eng := newTestEngine(t)
	intraday := bearishLeg(t)

	ote := eng.optimalEntryZone(intraday, models.Float64Ptr(106.5))
	require.True(t, ote.Available)
	assert.NoError(t, ote.Reason)
	assert.Equal(t, models.DirectionBearish, ote.Direction)
	assert.Equal(t, 110.0, ote.SwingHigh)
	assert.Equal(t, 100.0, ote.SwingLow)
	assert.Equal(t, map[string]models.FibLevel{
		"0.618": {Price: 106.18},
		"0.705": {Price: 107.05},
		"0.786": {Price: 107.86},
	}, ote.Levels)
	assert.True(t, ote.InOTE)

	ote = eng.optimalEntryZone(intraday, models.Float64Ptr(105))
	assert.False(t, ote.InOTE)

	ote = eng.optimalEntryZone(intraday, models.Float64Ptr(107.06))
	assert.True(t, ote.Levels["0.705"].Near)
}

func TestOptimalEntryZone_Bullish(t *testing.T) {
	eng := newTestEngine(t)

	ote := eng.optimalEntryZone(bullishLeg(t), models.Float64Ptr(103.5))
	require.True(t, ote.Available)
	assert.Equal(t, models.DirectionBullish, ote.Direction)
	assert.Equal(t, 103.82, ote.Levels["0.618"].Price)
	assert.Equal(t, 102.95, ote.Levels["0.705"].Price)
	assert.Equal(t, 102.14, ote.Levels["0.786"].Price)
	assert.True(t, ote.InOTE)

	ote = eng.optimalEntryZone(bullishLeg(t), models.Float64Ptr(104))
	assert.False(t, ote.InOTE)
}

func TestOptimalEntryZone_Unavailable(t *testing.T) {
	eng := newTestEngine(t)
	start := ny(t, 2024, 1, 16, 9, 30)

	tests := []struct {
		name     string
		intraday models.Series
		price    *float64
		reason   error
	}{
		{"no intraday", nil, models.Float64Ptr(100), models.ErrNoIntradayData},
		{"no price", bearishLeg(t), nil, models.ErrNoPrice},
		{"too few buckets", fiveMinuteBars(start, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10), models.Float64Ptr(5), models.ErrInsufficientBars},
		{"no swing high", fiveMinuteBars(start, 110, 109, 108, 107, 106, 105, 106, 107, 108, 109, 110), models.Float64Ptr(108), models.ErrNoSwing},
		{"single price", singlePriceBars(start, 11, 5), models.Float64Ptr(5), models.ErrDegenerateRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ote := eng.optimalEntryZone(tt.intraday, tt.price)
			assert.False(t, ote.Available)
			assert.ErrorIs(t, ote.Reason, tt.reason)
		})
	}
}
