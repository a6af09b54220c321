package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mohamedkhairy/ict-dashboard/internal/models"
)

// Config holds all configuration for the application
type Config struct {
	// Common
	Environment string
	LogLevel    string

	// Redis
	Redis RedisConfig

	// Engine
	Engine EngineConfig

	// Services
	Feed   FeedConfig
	Poller PollerConfig
	Server ServerConfig
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// EngineConfig holds the static inputs of the metrics engine
type EngineConfig struct {
	Timezone    string
	Location    *time.Location
	Instruments []models.Instrument
	KillZones   []models.TimeWindow
	Macros      []models.TimeWindow
	KeyOpens    []models.KeyOpenSpec

	OTEFibs       []float64
	ProximityPct  float64
	SwingLookback int
	PriceDecimals int32

	// Session-phase parameters, minutes of the day / minutes / fraction of range
	SessionOpen         int
	AccumulationMinutes int
	SweepBufferPct      float64
}

// FeedConfig holds market data feed configuration
type FeedConfig struct {
	Provider          string // "yahoo"
	BaseURL           string
	Proxy             string
	Timeout           time.Duration
	FetchTimeout      time.Duration
	RequestsPerSecond float64 // 0 disables the limit
	MaxConcurrency    int
	IntradayRange     string
	DailyRange        string
	WeeklyRange       string
	CacheBackend      string // "memory" or "redis"
	IntradayTTL       time.Duration
	DailyTTL          time.Duration
	WeeklyTTL         time.Duration
}

// PollerConfig holds polling loop configuration
type PollerConfig struct {
	Interval       time.Duration
	RunOnStart     bool
	PublishChannel string // Redis channel for the latest document, empty disables
}

// ServerConfig holds HTTP and WebSocket configuration
type ServerConfig struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	MaxConnections int
	RateLimitRPS   float64 // per client on the REST API, 0 disables
	RateLimitBurst int
}

// Symbols returns the configured instrument symbols in order
func (e EngineConfig) Symbols() []string {
	out := make([]string, 0, len(e.Instruments))
	for _, inst := range e.Instruments {
		out = append(out, inst.Symbol)
	}
	return out
}

// DefaultEngineConfig returns the reference dashboard configuration
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Timezone: "America/New_York",
		Instruments: []models.Instrument{
			{Symbol: "NQ=F", Label: "NQ"},
			{Symbol: "ES=F", Label: "ES"},
		},
		KillZones: []models.TimeWindow{
			{Name: "Asia", Start: models.MinuteOfDay(19, 0), End: models.MinuteOfDay(0, 0), CrossesMidnight: true},
			{Name: "London", Start: models.MinuteOfDay(2, 0), End: models.MinuteOfDay(5, 0)},
			{Name: "NY AM", Start: models.MinuteOfDay(9, 30), End: models.MinuteOfDay(12, 0)},
			{Name: "NY Lunch", Start: models.MinuteOfDay(12, 0), End: models.MinuteOfDay(13, 0)},
			{Name: "NY PM", Start: models.MinuteOfDay(13, 0), End: models.MinuteOfDay(16, 0)},
		},
		Macros: []models.TimeWindow{
			{Name: "9:50–10:10", Start: models.MinuteOfDay(9, 50), End: models.MinuteOfDay(10, 10)},
			{Name: "10:50–11:10", Start: models.MinuteOfDay(10, 50), End: models.MinuteOfDay(11, 10)},
			{Name: "1:50–2:10", Start: models.MinuteOfDay(13, 50), End: models.MinuteOfDay(14, 10)},
			{Name: "2:50–3:10", Start: models.MinuteOfDay(14, 50), End: models.MinuteOfDay(15, 10)},
		},
		KeyOpens: []models.KeyOpenSpec{
			{Label: "18:00 Futures Open", Hour: 18, Minute: 0},
			{Label: "00:00 Midnight Open", Hour: 0, Minute: 0},
			{Label: "09:30 NY Open", Hour: 9, Minute: 30},
			{Label: "10:00 True Open", Hour: 10, Minute: 0},
			{Label: "13:00 PM Open", Hour: 13, Minute: 0},
		},
		OTEFibs:             []float64{0.618, 0.705, 0.786},
		ProximityPct:        0.001,
		SwingLookback:       5,
		PriceDecimals:       2,
		SessionOpen:         models.MinuteOfDay(9, 30),
		AccumulationMinutes: 30,
		SweepBufferPct:      0.10,
	}
}

// Load loads configuration from environment variables
// It automatically loads .env file if it exists in the current directory
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	engine := DefaultEngineConfig()
	engine.Timezone = getEnv("TIMEZONE", engine.Timezone)
	engine.ProximityPct = getEnvAsFloat("PROXIMITY_PCT", engine.ProximityPct)
	engine.SwingLookback = getEnvAsInt("SWING_LOOKBACK", engine.SwingLookback)
	if tickers := getEnvAsStringSlice("TICKERS", nil); len(tickers) > 0 {
		engine.Instruments = parseInstruments(tickers)
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
		},
		Engine: engine,
		Feed: FeedConfig{
			Provider:          getEnv("FEED_PROVIDER", "yahoo"),
			BaseURL:           getEnv("FEED_BASE_URL", "https://query1.finance.yahoo.com"),
			Proxy:             getEnv("HTTPS_PROXY", ""),
			Timeout:           getEnvAsDuration("FEED_HTTP_TIMEOUT", 15*time.Second),
			FetchTimeout:      getEnvAsDuration("FEED_FETCH_TIMEOUT", 25*time.Second),
			RequestsPerSecond: getEnvAsFloat("FEED_RATE_LIMIT", 5),
			MaxConcurrency:    getEnvAsInt("FEED_MAX_CONCURRENCY", 4),
			IntradayRange:     getEnv("FEED_INTRADAY_RANGE", "5d"),
			DailyRange:        getEnv("FEED_DAILY_RANGE", "1mo"),
			WeeklyRange:       getEnv("FEED_WEEKLY_RANGE", "3mo"),
			CacheBackend:      getEnv("FEED_CACHE_BACKEND", "memory"),
			IntradayTTL:       getEnvAsDuration("FEED_INTRADAY_TTL", 0),
			DailyTTL:          getEnvAsDuration("FEED_DAILY_TTL", 5*time.Minute),
			WeeklyTTL:         getEnvAsDuration("FEED_WEEKLY_TTL", 30*time.Minute),
		},
		Poller: PollerConfig{
			Interval:       getEnvAsDuration("POLL_INTERVAL", 30*time.Second),
			RunOnStart:     getEnvAsBool("POLL_RUN_ON_START", true),
			PublishChannel: getEnv("POLL_PUBLISH_CHANNEL", ""),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("DASHBOARD_PORT", 8000),
			ReadTimeout:    getEnvAsDuration("WS_READ_TIMEOUT", 60*time.Second),
			WriteTimeout:   getEnvAsDuration("WS_WRITE_TIMEOUT", 10*time.Second),
			PingInterval:   getEnvAsDuration("WS_PING_INTERVAL", 30*time.Second),
			MaxConnections: getEnvAsInt("WS_MAX_CONNECTIONS", 100),
			RateLimitRPS:   getEnvAsFloat("API_RATE_LIMIT_RPS", 10),
			RateLimitBurst: getEnvAsInt("API_RATE_LIMIT_BURST", 20),
		},
	}

	if path := getEnv("SESSIONS_FILE", ""); path != "" {
		if err := LoadSessionsFile(path, &cfg.Engine); err != nil {
			return nil, err
		}
	}

	loc, err := time.LoadLocation(cfg.Engine.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Engine.Timezone, err)
	}
	cfg.Engine.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if c.Feed.CacheBackend != "memory" && c.Feed.CacheBackend != "redis" {
		return fmt.Errorf("FEED_CACHE_BACKEND must be memory or redis, got %q", c.Feed.CacheBackend)
	}
	if c.Feed.CacheBackend == "redis" && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required for the redis cache backend")
	}
	if c.Feed.Provider != "yahoo" {
		return fmt.Errorf("FEED_PROVIDER must be yahoo, got %q", c.Feed.Provider)
	}
	if c.Feed.MaxConcurrency < 1 {
		return fmt.Errorf("FEED_MAX_CONCURRENCY must be positive")
	}
	if c.Poller.Interval < time.Second {
		return fmt.Errorf("POLL_INTERVAL must be at least 1s")
	}
	return nil
}

// Validate validates the engine configuration
func (e *EngineConfig) Validate() error {
	if len(e.Instruments) == 0 {
		return fmt.Errorf("at least one instrument is required")
	}
	for _, inst := range e.Instruments {
		if inst.Symbol == "" {
			return fmt.Errorf("instrument symbol: %w", models.ErrInvalidSymbol)
		}
	}
	if e.Location == nil {
		return fmt.Errorf("timezone %q is not loaded", e.Timezone)
	}
	for _, group := range [][]models.TimeWindow{e.KillZones, e.Macros} {
		for _, w := range group {
			if err := validateWindow(w); err != nil {
				return err
			}
		}
	}
	for _, ko := range e.KeyOpens {
		if ko.Hour < 0 || ko.Hour > 23 || ko.Minute < 0 || ko.Minute > 59 {
			return fmt.Errorf("key open %q: invalid time %02d:%02d", ko.Label, ko.Hour, ko.Minute)
		}
	}
	if len(e.OTEFibs) == 0 {
		return fmt.Errorf("at least one OTE ratio is required")
	}
	for _, f := range e.OTEFibs {
		if f <= 0 || f >= 1 {
			return fmt.Errorf("OTE ratio %v must be between 0 and 1", f)
		}
	}
	if e.SwingLookback <= 0 {
		return fmt.Errorf("SWING_LOOKBACK must be positive")
	}
	if e.ProximityPct < 0 {
		return fmt.Errorf("PROXIMITY_PCT must not be negative")
	}
	if e.AccumulationMinutes <= 0 {
		return fmt.Errorf("accumulation minutes must be positive")
	}
	if e.SessionOpen < 0 || e.SessionOpen >= 1440 {
		return fmt.Errorf("session open must be within 0-1439, got %d", e.SessionOpen)
	}
	if e.SweepBufferPct < 0 {
		return fmt.Errorf("sweep buffer must not be negative")
	}
	if e.PriceDecimals < 0 {
		return fmt.Errorf("price decimals must not be negative")
	}
	return nil
}

func validateWindow(w models.TimeWindow) error {
	if w.Start < 0 || w.Start >= 1440 || w.End < 0 || w.End >= 1440 {
		return fmt.Errorf("window %q: minutes must be within 0-1439", w.Name)
	}
	if !w.CrossesMidnight && w.End <= w.Start {
		return fmt.Errorf("window %q: end must be after start unless it crosses midnight", w.Name)
	}
	return nil
}

// parseInstruments parses "SYMBOL" or "SYMBOL:LABEL" entries
func parseInstruments(entries []string) []models.Instrument {
	out := make([]models.Instrument, 0, len(entries))
	for _, e := range entries {
		symbol, label, found := strings.Cut(e, ":")
		if !found || label == "" {
			label = strings.TrimSuffix(symbol, "=F")
		}
		out = append(out, models.Instrument{Symbol: symbol, Label: label})
	}
	return out
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Split by comma and trim spaces
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
