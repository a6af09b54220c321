package feed

import (
	"context"
	"sync"

	"github.com/mohamedkhairy/ict-dashboard/internal/models"
)

// MockFetcher serves canned series and records calls
type MockFetcher struct {
	mu     sync.Mutex
	Series map[models.Granularity]map[string]models.Series
	Errors map[string]error // keyed by symbol
	Calls  map[string]int   // keyed by CacheKey
}

// NewMockFetcher creates an empty mock fetcher
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Series: make(map[models.Granularity]map[string]models.Series),
		Errors: make(map[string]error),
		Calls:  make(map[string]int),
	}
}

// Add registers a series for symbol at granularity g
func (m *MockFetcher) Add(g models.Granularity, symbol string, s models.Series) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Series[g] == nil {
		m.Series[g] = make(map[string]models.Series)
	}
	m.Series[g][symbol] = s
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(ctx context.Context, symbol string, g models.Granularity) (models.Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[CacheKey(g, symbol)]++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.Errors[symbol]; err != nil {
		return nil, err
	}
	s, ok := m.Series[g][symbol]
	if !ok {
		return nil, ErrNoData
	}
	return append(models.Series(nil), s...), nil
}

// CallCount returns how many times a (granularity, symbol) pair was fetched
func (m *MockFetcher) CallCount(g models.Granularity, symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[CacheKey(g, symbol)]
}
