package poller

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/mohamedkhairy/ict-dashboard/internal/config"
	"github.com/mohamedkhairy/ict-dashboard/internal/engine"
	"github.com/mohamedkhairy/ict-dashboard/internal/models"
	"github.com/mohamedkhairy/ict-dashboard/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type staticSource struct {
	calls atomic.Int32
	data  models.MarketData
}

func (s *staticSource) FetchAll(ctx context.Context) models.MarketData {
	s.calls.Add(1)
	return s.data
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (b *recordingBroadcaster) BroadcastSnapshot(payload []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payloads = append(b.payloads, payload)
	return 3
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.payloads)
}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng, err := engine.NewEngine(config.DefaultEngineConfig())
	require.NoError(t, err)
	return eng
}

func fixedClock(t *testing.T) func() time.Time {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2024, 1, 16, 10, 0, 0, 0, loc)
	return func() time.Time { return now }
}

func sourceWithPrice(t *testing.T, price float64) *staticSource {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	md := models.NewMarketData([]string{"NQ=F", "ES=F"})
	md.Set(models.GranularityIntraday, "NQ=F", models.Series{
		{Timestamp: time.Date(2024, 1, 16, 9, 59, 0, 0, loc), Open: price, High: price, Low: price, Close: price},
	})
	return &staticSource{data: md}
}

func TestRunOnce(t *testing.T) {
	source := sourceWithPrice(t, 17000.25)
	hub := &recordingBroadcaster{}
	redis := storage.NewMockRedisClient()
	cfg := config.PollerConfig{Interval: time.Minute, PublishChannel: "ictdash:snapshots"}

	p := New(source, newTestEngine(t), cfg, time.Second,
		WithBroadcaster(hub), WithPublisher(redis), WithClock(fixedClock(t)))

	_, ok := p.Latest()
	assert.False(t, ok)

	payload, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	latest, ok := p.Latest()
	require.True(t, ok)
	assert.Equal(t, payload, latest)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &doc))
	assert.JSONEq(t, `"10:00:00 AM"`, string(doc["time"]))
	assert.JSONEq(t, `"Tuesday, Jan 16"`, string(doc["date"]))

	var dash models.Dashboard
	require.NoError(t, json.Unmarshal(payload, &dash))
	require.NotNil(t, dash.Tickers["NQ=F"].Price)
	assert.Equal(t, 17000.25, *dash.Tickers["NQ=F"].Price)
	assert.Nil(t, dash.Tickers["ES=F"].Price)

	assert.Equal(t, 1, hub.count())
	published := redis.PublishedMessages()
	require.Len(t, published, 1)
	assert.Equal(t, "ictdash:snapshots", published[0].Channel)
	assert.Equal(t, payload, published[0].Payload)

	status := p.Status()
	assert.Equal(t, int64(1), status.Runs)
	assert.True(t, status.HasLatest)
}

func TestRunOnce_PublishDisabledOrFailing(t *testing.T) {
	redis := storage.NewMockRedisClient()

	p := New(sourceWithPrice(t, 1), newTestEngine(t), config.PollerConfig{Interval: time.Minute}, time.Second,
		WithPublisher(redis), WithClock(fixedClock(t)))
	_, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, redis.PublishedMessages())

	redis.PublishErr = errors.New("redis down")
	p = New(sourceWithPrice(t, 1), newTestEngine(t), config.PollerConfig{Interval: time.Minute, PublishChannel: "c"}, time.Second,
		WithPublisher(redis), WithClock(fixedClock(t)))
	_, err = p.RunOnce(context.Background())
	assert.NoError(t, err)
}

func TestRunOnce_IdenticalInputsGiveIdenticalPayloads(t *testing.T) {
	p := New(sourceWithPrice(t, 100), newTestEngine(t), config.PollerConfig{Interval: time.Minute}, time.Second,
		WithClock(fixedClock(t)))

	first, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	second, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestRunOnce_CancelledContext(t *testing.T) {
	hub := &recordingBroadcaster{}
	p := New(sourceWithPrice(t, 1), newTestEngine(t), config.PollerConfig{Interval: time.Minute}, time.Second,
		WithBroadcaster(hub))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, ok := p.Latest()
	assert.False(t, ok)
	assert.Zero(t, hub.count())
}

func TestStart_RunsOnStartAndOnSchedule(t *testing.T) {
	source := sourceWithPrice(t, 1)
	hub := &recordingBroadcaster{}
	cfg := config.PollerConfig{Interval: time.Second, RunOnStart: true}
	p := New(source, newTestEngine(t), cfg, time.Second, WithBroadcaster(hub))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, p.Start(ctx))
	defer p.Stop()

	assert.Equal(t, 1, hub.count())
	assert.False(t, p.Status().NextRunAt.IsZero())
	assert.Eventually(t, func() bool { return hub.count() >= 2 }, 3*time.Second, 50*time.Millisecond)
}

func TestCronLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := newCronLogger(zap.New(core))

	l.Info("wake", "now", "10:00")
	l.Error(errors.New("boom"), "job failed", "entry", 1)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "10:00", entries[0].ContextMap()["now"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}
