// Package feed retrieves bar series from the upstream market-data provider
// and assembles them into the engine's MarketData input.
package feed

import (
	"context"
	"errors"

	"github.com/mohamedkhairy/ict-dashboard/internal/models"
)

var (
	ErrNoData              = errors.New("no data returned")
	ErrUnknownGranularity  = errors.New("unknown granularity")
	ErrUnsupportedProvider = errors.New("unsupported feed provider")
)

// Fetcher retrieves bars for one instrument at one granularity.
// Returned series are ascending and in the trading time zone.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol string, g models.Granularity) (models.Series, error)
	Name() string
}
