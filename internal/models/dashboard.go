package models

import "encoding/json"

// Window status values
const (
	WindowActive   = "ACTIVE"
	WindowUpcoming = "upcoming"
	WindowClosed   = "closed"
)

// Sweep status values
const (
	SweepSwept   = "SWEPT"
	SweepUnswept = "Unswept"
	SweepNA      = "N/A"
)

// Phase is a session phase in the power-of-3 model
type Phase string

const (
	PhaseAccumulation Phase = "Accumulation"
	PhaseManipulation Phase = "Manipulation"
	PhaseDistribution Phase = "Distribution"
)

// Bias is the directional bias of the current session
type Bias string

const (
	BiasBullish Bias = "Bullish"
	BiasBearish Bias = "Bearish"
	BiasNeutral Bias = "Neutral"
)

// Direction of an optimal entry zone
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
)

// Dashboard is the metrics document pushed to display clients.
// It is built fresh on every computation and never mutated afterwards.
type Dashboard struct {
	Time      string                    `json:"time"`
	Date      string                    `json:"date"`
	KillZones []KillZoneStatus          `json:"kill_zones"`
	Macros    []MacroStatus             `json:"macros"`
	Tickers   map[string]*TickerMetrics `json:"tickers"`
}

// WindowStatus is the evaluated state of a recurring time window
type WindowStatus struct {
	Status    string `json:"status"`
	Countdown string `json:"countdown"`
	Active    bool   `json:"active"`
}

// KillZoneStatus is a kill zone window's status
type KillZoneStatus struct {
	Name string `json:"name"`
	WindowStatus
}

// MacroStatus is a macro window's status
type MacroStatus struct {
	Label string `json:"label"`
	WindowStatus
}

// TickerMetrics holds every derived signal for one instrument
type TickerMetrics struct {
	Label       string                `json:"label"`
	Price       *float64              `json:"price"`
	DailyChange float64               `json:"daily_change"`
	Levels      map[string]LevelValue `json:"levels"`
	Liquidity   []SweepResult         `json:"liquidity"`
	OTE         OTEResult             `json:"ote"`
	KeyOpens    []KeyOpenResult       `json:"key_opens"`
	PO3         PowerOf3Result        `json:"po3"`
}

// LevelValue is a reference level and whether the current price is near it
type LevelValue struct {
	Value *float64 `json:"value"`
	Near  bool     `json:"near"`
}

// SweepResult reports whether a prior range has been swept in the current session
type SweepResult struct {
	Label  string   `json:"label"`
	Level  *float64 `json:"level"`
	Swept  bool     `json:"swept"`
	Status string   `json:"status"`
}

// FibLevel is one retracement price inside the optimal entry zone
type FibLevel struct {
	Price float64 `json:"price"`
	Near  bool    `json:"near"`
}

// OTEResult describes the optimal entry zone. When Available is false only
// {"available": false} is serialized and Reason records why.
type OTEResult struct {
	Available bool                `json:"available"`
	SwingHigh float64             `json:"swing_high"`
	SwingLow  float64             `json:"swing_low"`
	Direction Direction           `json:"direction"`
	Levels    map[string]FibLevel `json:"levels"`
	InOTE     bool                `json:"in_ote"`
	Reason    error               `json:"-"`
}

// MarshalJSON emits the bare unavailable shape when the zone is not available
func (o OTEResult) MarshalJSON() ([]byte, error) {
	if !o.Available {
		return []byte(`{"available":false}`), nil
	}
	type plain OTEResult
	return json.Marshal(plain(o))
}

// KeyOpenResult is the price recorded at a key clock time
type KeyOpenResult struct {
	Label string   `json:"label"`
	Price *float64 `json:"price"`
	Near  bool     `json:"near"`
}

// PowerOf3Result is the session-phase classification
type PowerOf3Result struct {
	Available bool    `json:"available"`
	NYOpen    float64 `json:"ny_open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Phase     Phase   `json:"phase"`
	Bias      Bias    `json:"bias"`
	Reason    error   `json:"-"`
}

// MarshalJSON emits the bare unavailable shape when no classification is available
func (p PowerOf3Result) MarshalJSON() ([]byte, error) {
	if !p.Available {
		return []byte(`{"available":false}`), nil
	}
	type plain PowerOf3Result
	return json.Marshal(plain(p))
}

// Float64Ptr returns a pointer to v
func Float64Ptr(v float64) *float64 {
	return &v
}
