package engine

import (
	"math"
	"time"

	"github.com/mohamedkhairy/ict-dashboard/internal/models"
)

// Resample groups ordered bars into interval-aligned buckets: open of the
// first bar, max high, min low, close of the last bar. Intervals with no
// bars produce no bucket. The source series is not modified.
func Resample(bars models.Series, interval time.Duration) models.Series {
	out := make(models.Series, 0, len(bars)/int(math.Max(1, interval.Minutes()))+1)
	for _, b := range bars {
		start := b.Timestamp.Truncate(interval)
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(start) {
			cur := &out[n-1]
			cur.High = math.Max(cur.High, b.High)
			cur.Low = math.Min(cur.Low, b.Low)
			cur.Close = b.Close
			continue
		}
		out = append(out, models.Bar{
			Timestamp: start,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
		})
	}
	return out
}

// FindSwings returns the index of the most recent swing high and swing low,
// or -1 when none qualifies. A bar is a swing high when its high equals the
// maximum high over [i-n, i+n]; swing lows are symmetric.
func FindSwings(bars models.Series, n int) (highIdx, lowIdx int) {
	highIdx, lowIdx = -1, -1
	for i := n; i < len(bars)-n; i++ {
		maxHigh, minLow := bars[i-n].High, bars[i-n].Low
		for j := i - n + 1; j <= i+n; j++ {
			maxHigh = math.Max(maxHigh, bars[j].High)
			minLow = math.Min(minLow, bars[j].Low)
		}
		if bars[i].High == maxHigh {
			highIdx = i
		}
		if bars[i].Low == minLow {
			lowIdx = i
		}
	}
	return highIdx, lowIdx
}
