package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mohamedkhairy/ict-dashboard/internal/config"
	"github.com/mohamedkhairy/ict-dashboard/internal/models"
	"github.com/mohamedkhairy/ict-dashboard/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Feed assembles MarketData for every configured instrument
type Feed struct {
	fetcher     Fetcher
	cache       Cache
	ttls        map[models.Granularity]time.Duration
	symbols     []string
	concurrency int
}

// NewFeed creates a feed. A nil cache disables caching.
func NewFeed(fetcher Fetcher, cache Cache, cfg config.FeedConfig, symbols []string) *Feed {
	return &Feed{
		fetcher: fetcher,
		cache:   cache,
		ttls: map[models.Granularity]time.Duration{
			models.GranularityIntraday: cfg.IntradayTTL,
			models.GranularityDaily:    cfg.DailyTTL,
			models.GranularityWeekly:   cfg.WeeklyTTL,
		},
		symbols:     symbols,
		concurrency: max(1, cfg.MaxConcurrency),
	}
}

// NewFetcher returns the fetcher for the configured provider
func NewFetcher(cfg config.FeedConfig, loc *time.Location) (Fetcher, error) {
	switch cfg.Provider {
	case "yahoo":
		return NewYahooFetcher(cfg, loc), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}

// FetchAll fetches every instrument at every granularity concurrently.
// A failed fetch leaves an empty series, so the result always has every key.
func (f *Feed) FetchAll(ctx context.Context) models.MarketData {
	data := models.NewMarketData(f.symbols)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for _, gran := range models.Granularities {
		for _, symbol := range f.symbols {
			g.Go(func() error {
				s := f.fetch(ctx, symbol, gran)
				mu.Lock()
				data.Set(gran, symbol, s)
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	return data
}

func (f *Feed) fetch(ctx context.Context, symbol string, g models.Granularity) models.Series {
	ttl := f.ttls[g]
	key := CacheKey(g, symbol)

	if f.cache != nil && ttl > 0 {
		if s, ok := f.cache.Get(ctx, key); ok {
			logger.CacheLookups.WithLabelValues(f.cache.Name(), "hit").Inc()
			logger.FeedFetchTotal.WithLabelValues(string(g), "cached").Inc()
			return s
		}
		logger.CacheLookups.WithLabelValues(f.cache.Name(), "miss").Inc()
	}

	start := time.Now()
	s, err := f.fetcher.FetchBars(ctx, symbol, g)
	logger.FeedFetchDuration.WithLabelValues(string(g)).Observe(time.Since(start).Seconds())
	if err != nil {
		logger.FeedFetchTotal.WithLabelValues(string(g), "error").Inc()
		logger.Warn("Failed to fetch bars",
			logger.String("provider", f.fetcher.Name()),
			logger.String("symbol", symbol),
			logger.String("granularity", string(g)),
			logger.ErrorField(err),
		)
		return models.Series{}
	}
	if s == nil {
		s = models.Series{}
	}
	logger.FeedFetchTotal.WithLabelValues(string(g), "ok").Inc()

	if f.cache != nil && ttl > 0 && len(s) > 0 {
		f.cache.Set(ctx, key, s, ttl)
	}
	return s
}
