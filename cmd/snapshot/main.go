package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/mohamedkhairy/ict-dashboard/internal/config"
	"github.com/mohamedkhairy/ict-dashboard/internal/engine"
	"github.com/mohamedkhairy/ict-dashboard/internal/feed"
	"github.com/mohamedkhairy/ict-dashboard/internal/poller"
	"github.com/mohamedkhairy/ict-dashboard/pkg/logger"
)

// snapshot fetches market data once, computes the dashboard and prints it as indented JSON
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so stdout carries only the document
	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	eng, err := engine.NewEngine(cfg.Engine)
	if err != nil {
		logger.Fatal("Failed to initialize engine", logger.ErrorField(err))
	}

	fetcher, err := feed.NewFetcher(cfg.Feed, cfg.Engine.Location)
	if err != nil {
		logger.Fatal("Failed to initialize fetcher", logger.ErrorField(err))
	}
	marketFeed := feed.NewFeed(fetcher, nil, cfg.Feed, cfg.Engine.Symbols())

	poll := poller.New(marketFeed, eng, cfg.Poller, cfg.Feed.FetchTimeout)
	payload, err := poll.RunOnce(context.Background())
	if err != nil {
		logger.Fatal("Snapshot failed", logger.ErrorField(err))
	}

	var out bytes.Buffer
	if err := json.Indent(&out, payload, "", "  "); err != nil {
		logger.Fatal("Failed to format snapshot", logger.ErrorField(err))
	}
	out.WriteByte('\n')
	if _, err := out.WriteTo(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write snapshot: %v\n", err)
		os.Exit(1)
	}
}
