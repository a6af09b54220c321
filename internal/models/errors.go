package models

import "errors"

var (
	ErrInvalidSymbol    = errors.New("invalid symbol")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidBar       = errors.New("invalid bar (high < low)")

	// Unavailable reasons reported by the engine's sub-computations
	ErrNoIntradayData   = errors.New("no intraday data")
	ErrNoPrice          = errors.New("no current price")
	ErrInsufficientBars = errors.New("insufficient bars")
	ErrNoSwing          = errors.New("no swing high or swing low")
	ErrDegenerateRange  = errors.New("swing range is not positive")
	ErrNoSessionData    = errors.New("no bars in session")
	ErrComputation      = errors.New("computation failed")
)
