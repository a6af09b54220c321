package models

import (
	"math"
	"time"
)

// Granularity identifies the bar size of a Series
type Granularity string

const (
	GranularityIntraday Granularity = "intraday" // one-minute bars
	GranularityDaily    Granularity = "daily"
	GranularityWeekly   Granularity = "weekly"
)

// Granularities lists every granularity the engine consumes, in fetch order
var Granularities = []Granularity{GranularityIntraday, GranularityDaily, GranularityWeekly}

// Bar is a single OHLC bar. Timestamp is the bar's start time, zoned to the trading time zone.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
}

// Validate validates a Bar
func (b *Bar) Validate() error {
	if b.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if !isFinite(v) {
			return ErrInvalidPrice
		}
	}
	if b.High < b.Low {
		return ErrInvalidBar
	}
	return nil
}

// Series is an ordered sequence of bars at one granularity for one instrument.
// Bars are in strictly ascending timestamp order. An empty Series means the data is unavailable.
type Series []Bar

// Last returns the most recent bar
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// Since returns the bars at or after t. The result shares the backing array with s.
func (s Series) Since(t time.Time) Series {
	for i, b := range s {
		if !b.Timestamp.Before(t) {
			return s[i:]
		}
	}
	return nil
}

// Between returns the bars in the half-open interval [start, end)
func (s Series) Between(start, end time.Time) Series {
	var out Series
	for _, b := range s {
		if b.Timestamp.Before(start) {
			continue
		}
		if !b.Timestamp.Before(end) {
			break
		}
		out = append(out, b)
	}
	return out
}

// HighLow returns the maximum high and minimum low over the series.
// Non-finite prices are skipped; ok is false when no finite value exists for either side.
func (s Series) HighLow() (high, low float64, ok bool) {
	var hasHigh, hasLow bool
	for _, b := range s {
		if isFinite(b.High) && (!hasHigh || b.High > high) {
			high, hasHigh = b.High, true
		}
		if isFinite(b.Low) && (!hasLow || b.Low < low) {
			low, hasLow = b.Low, true
		}
	}
	if !hasHigh || !hasLow {
		return 0, 0, false
	}
	return high, low, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// InLocation returns a copy of the series with every timestamp converted to loc
func (s Series) InLocation(loc *time.Location) Series {
	out := make(Series, len(s))
	for i, b := range s {
		b.Timestamp = b.Timestamp.In(loc)
		out[i] = b
	}
	return out
}

// MarketData is the engine input: granularity -> instrument -> series.
// An unavailable instrument is represented by an empty series, never by a missing key.
type MarketData map[Granularity]map[string]Series

// NewMarketData creates MarketData with an empty series for every instrument and granularity
func NewMarketData(symbols []string) MarketData {
	md := make(MarketData, len(Granularities))
	for _, g := range Granularities {
		md[g] = make(map[string]Series, len(symbols))
		for _, s := range symbols {
			md[g][s] = Series{}
		}
	}
	return md
}

// Series returns the series for an instrument at a granularity, empty when absent
func (md MarketData) Series(g Granularity, symbol string) Series {
	if md == nil {
		return nil
	}
	return md[g][symbol]
}

// Set stores a series for an instrument at a granularity
func (md MarketData) Set(g Granularity, symbol string, s Series) {
	if md[g] == nil {
		md[g] = make(map[string]Series)
	}
	md[g][symbol] = s
}

// Instrument is a configured tradable symbol and its display label
type Instrument struct {
	Symbol string `json:"symbol"`
	Label  string `json:"label"`
}

// TimeWindow is a recurring clock-time window. Start and End are minutes of the day (0-1439).
type TimeWindow struct {
	Name            string `json:"name"`
	Start           int    `json:"start"`
	End             int    `json:"end"`
	CrossesMidnight bool   `json:"crosses_midnight"`
}

// KeyOpenSpec names a clock time whose opening price is tracked
type KeyOpenSpec struct {
	Label  string `json:"label"`
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
}

// MinuteOfDay returns h*60+m
func MinuteOfDay(h, m int) int {
	return h*60 + m
}
