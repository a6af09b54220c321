package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mohamedkhairy/ict-dashboard/internal/config"
	"github.com/mohamedkhairy/ict-dashboard/internal/models"
	"golang.org/x/time/rate"
)

// chartQuery is the interval/range pair requested for a granularity
type chartQuery struct {
	interval      string
	rng           string
	prePostMarket bool
}

// YahooFetcher implements Fetcher using the Yahoo Finance chart API
type YahooFetcher struct {
	Client  *http.Client
	BaseURL string

	queries map[models.Granularity]chartQuery
	loc     *time.Location
	limiter *rate.Limiter
}

// NewYahooFetcher creates a Yahoo fetcher returning bars in loc
func NewYahooFetcher(cfg config.FeedConfig, loc *time.Location) *YahooFetcher {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if cfg.Proxy != "" {
		if u, err := url.Parse(cfg.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		queries: map[models.Granularity]chartQuery{
			models.GranularityIntraday: {interval: "1m", rng: cfg.IntradayRange, prePostMarket: true},
			models.GranularityDaily:    {interval: "1d", rng: cfg.DailyRange},
			models.GranularityWeekly:   {interval: "1wk", rng: cfg.WeeklyRange},
		},
		loc:     loc,
		limiter: rate.NewLimiter(limit, max(1, int(cfg.RequestsPerSecond))),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure of the chart API. Missing prices are null.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []*float64 `json:"open"`
					High  []*float64 `json:"high"`
					Low   []*float64 `json:"low"`
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchBars retrieves one series from the chart endpoint
func (f *YahooFetcher) FetchBars(ctx context.Context, symbol string, g models.Granularity) (models.Series, error) {
	q, ok := f.queries[g]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGranularity, g)
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("interval", q.interval)
	params.Set("range", q.rng)
	if q.prePostMarket {
		params.Set("includePrePost", "true")
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d for %s", resp.StatusCode, symbol)
	}

	return parseChart(body, f.loc)
}

// parseChart decodes a chart response, dropping bars with any null or invalid
// price. The result is sorted and has unique timestamps, the later duplicate winning.
func parseChart(body []byte, loc *time.Location) (models.Series, error) {
	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, ErrNoData
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make(models.Series, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, h, l, c := valueAt(quote.Open, i), valueAt(quote.High, i), valueAt(quote.Low, i), valueAt(quote.Close, i)
		if o == nil || h == nil || l == nil || c == nil {
			continue
		}
		b := models.Bar{Timestamp: time.Unix(ts, 0).In(loc), Open: *o, High: *h, Low: *l, Close: *c}
		if b.Validate() != nil {
			continue
		}
		bars = append(bars, b)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })

	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(b.Timestamp) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func valueAt(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
