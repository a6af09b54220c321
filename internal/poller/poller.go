// Package poller runs the periodic fetch, compute and broadcast cycle and
// holds the most recent encoded snapshot.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mohamedkhairy/ict-dashboard/internal/config"
	"github.com/mohamedkhairy/ict-dashboard/internal/models"
	"github.com/mohamedkhairy/ict-dashboard/internal/storage"
	"github.com/mohamedkhairy/ict-dashboard/pkg/logger"
	"github.com/robfig/cron/v3"
)

// ErrNoSnapshot reports that no run has completed yet
var ErrNoSnapshot = errors.New("no snapshot computed yet")

// MarketSource produces the engine input
type MarketSource interface {
	FetchAll(ctx context.Context) models.MarketData
}

// Computer derives the snapshot document
type Computer interface {
	Compute(data models.MarketData, now time.Time) *models.Dashboard
}

// Broadcaster delivers an encoded snapshot to connected clients and returns
// how many received it
type Broadcaster interface {
	BroadcastSnapshot(payload []byte) int
}

// Poller schedules snapshot runs
type Poller struct {
	source       MarketSource
	engine       Computer
	broadcaster  Broadcaster
	publisher    storage.RedisClient
	cfg          config.PollerConfig
	fetchTimeout time.Duration
	clock        func() time.Time

	cron *cron.Cron
	ctx  context.Context

	mu       sync.RWMutex
	latest   []byte
	latestAt time.Time
	runs     int64
}

// Option configures a Poller
type Option func(*Poller)

// WithBroadcaster sets where snapshots are pushed after each run
func WithBroadcaster(b Broadcaster) Option {
	return func(p *Poller) { p.broadcaster = b }
}

// WithPublisher publishes each snapshot to cfg.PublishChannel
func WithPublisher(r storage.RedisClient) Option {
	return func(p *Poller) { p.publisher = r }
}

// WithClock overrides the time source
func WithClock(clock func() time.Time) Option {
	return func(p *Poller) { p.clock = clock }
}

// New creates a poller
func New(source MarketSource, engine Computer, cfg config.PollerConfig, fetchTimeout time.Duration, opts ...Option) *Poller {
	p := &Poller{
		source:       source,
		engine:       engine,
		cfg:          cfg,
		fetchTimeout: fetchTimeout,
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	cl := newCronLogger(logger.Named("cron"))
	p.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return p
}

// Start registers the polling job and starts the scheduler. The context
// bounds every run.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx = ctx
	spec := fmt.Sprintf("@every %s", p.cfg.Interval)
	if _, err := p.cron.AddFunc(spec, p.scheduledRun); err != nil {
		return fmt.Errorf("register poll job: %w", err)
	}

	if p.cfg.RunOnStart {
		if _, err := p.RunOnce(ctx); err != nil {
			logger.Warn("Initial snapshot run failed", logger.ErrorField(err))
		}
	}

	p.cron.Start()
	logger.Info("Poller started", logger.Duration("interval", p.cfg.Interval))
	return nil
}

// Stop stops scheduling and waits for a running job to finish
func (p *Poller) Stop() {
	<-p.cron.Stop().Done()
	logger.Info("Poller stopped")
}

func (p *Poller) scheduledRun() {
	if _, err := p.RunOnce(p.ctx); err != nil {
		logger.Warn("Snapshot run failed", logger.ErrorField(err))
	}
}

// RunOnce fetches, computes and distributes one snapshot and returns its encoding
func (p *Poller) RunOnce(ctx context.Context) ([]byte, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	data := p.source.FetchAll(fetchCtx)
	cancel()

	if err := ctx.Err(); err != nil {
		logger.PollRuns.WithLabelValues("cancelled").Inc()
		return nil, err
	}

	now := p.clock()
	start := time.Now()
	dash := p.engine.Compute(data, now)
	logger.ComputeDuration.Observe(time.Since(start).Seconds())

	payload, err := json.Marshal(dash)
	if err != nil {
		logger.PollRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	p.mu.Lock()
	p.latest = payload
	p.latestAt = now
	p.runs++
	p.mu.Unlock()
	logger.PollRuns.WithLabelValues("ok").Inc()
	logger.LastSnapshotTimestamp.Set(float64(now.Unix()))

	clients := 0
	if p.broadcaster != nil {
		clients = p.broadcaster.BroadcastSnapshot(payload)
	}
	p.publish(ctx, payload)

	logger.Info("Broadcast", append([]logger.Field{logger.Int("clients", clients)}, priceFields(dash)...)...)
	return payload, nil
}

func (p *Poller) publish(ctx context.Context, payload []byte) {
	if p.publisher == nil || p.cfg.PublishChannel == "" {
		return
	}
	if err := p.publisher.Publish(ctx, p.cfg.PublishChannel, payload); err != nil {
		logger.Warn("Failed to publish snapshot",
			logger.String("channel", p.cfg.PublishChannel),
			logger.ErrorField(err),
		)
	}
}

// Latest returns the most recent encoded snapshot
func (p *Poller) Latest() ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.latest != nil
}

// Status describes the poller for health and stats endpoints
type Status struct {
	Runs      int64     `json:"runs"`
	LastRunAt time.Time `json:"last_run_at"`
	Interval  string    `json:"interval"`
	HasLatest bool      `json:"has_latest"`
	NextRunAt time.Time `json:"next_run_at"`
}

// Status returns the poller's run counters
func (p *Poller) Status() Status {
	p.mu.RLock()
	s := Status{
		Runs:      p.runs,
		LastRunAt: p.latestAt,
		Interval:  p.cfg.Interval.String(),
		HasLatest: p.latest != nil,
	}
	p.mu.RUnlock()

	if entries := p.cron.Entries(); len(entries) > 0 {
		s.NextRunAt = entries[0].Next
	}
	return s
}

func priceFields(dash *models.Dashboard) []logger.Field {
	symbols := make([]string, 0, len(dash.Tickers))
	for sym := range dash.Tickers {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	fields := make([]logger.Field, 0, len(symbols))
	for _, sym := range symbols {
		if price := dash.Tickers[sym].Price; price != nil {
			fields = append(fields, logger.Float64(sym, *price))
		} else {
			fields = append(fields, logger.String(sym, "n/a"))
		}
	}
	return fields
}
