package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmarquez/pitchbot/config"
	"github.com/dmarquez/pitchbot/internal/adapters/kalshi"
	"github.com/dmarquez/pitchbot/internal/adapters/notify"
	"github.com/dmarquez/pitchbot/internal/adapters/polymarket"
	"github.com/dmarquez/pitchbot/internal/adapters/sportsfeed"
	"github.com/dmarquez/pitchbot/internal/adapters/storage"
	"github.com/dmarquez/pitchbot/internal/backoff"
	"github.com/dmarquez/pitchbot/internal/engine"
	"github.com/dmarquez/pitchbot/internal/exec"
	"github.com/dmarquez/pitchbot/internal/ingest"
	"github.com/dmarquez/pitchbot/internal/lifecycle"
	"github.com/dmarquez/pitchbot/internal/ports"
	"github.com/dmarquez/pitchbot/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	simulate := flag.Bool("simulate", false, "simulate fills, never touch a venue (overrides config)")
	noPush := flag.Bool("no-push", false, "disable the websocket feed, poll only")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print the full position table in reports")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *simulate {
		cfg.Mode.Simulation = true
	}
	setupLogger(cfg.Log)

	slog.Info("pitchbot starting",
		"config", *configPath,
		"simulation", cfg.Mode.Simulation,
		"leagues", cfg.Feed.LeagueIDs,
		"push", cfg.Feed.WebsocketURL != "" && !*noPush,
	)

	feed := sportsfeed.NewClient(sportsfeed.Config{
		BaseURL:   cfg.Feed.BaseURL,
		APIKey:    cfg.Feed.APIKey,
		LeagueIDs: cfg.Feed.LeagueIDs,
	})

	var push ports.PushFeed
	if cfg.Feed.WebsocketURL != "" && !*noPush {
		push = sportsfeed.NewWSFeed(sportsfeed.WSConfig{
			URL:       cfg.Feed.WebsocketURL,
			APIKey:    cfg.Feed.APIKey,
			LeagueIDs: cfg.Feed.LeagueIDs,
			Backoff:   backoff.Default(),
		})
	}

	var venues []ports.VenueGateway
	if cfg.Venues.Polymarket.Enabled {
		venues = append(venues, polymarket.NewClient(
			cfg.Venues.Polymarket.CLOBBase,
			cfg.Venues.Polymarket.GammaBase,
			cfg.Venues.Polymarket.APIKey,
		))
	}
	if cfg.Venues.Kalshi.Enabled {
		venues = append(venues, kalshi.NewClient(
			cfg.Venues.Kalshi.BaseURL,
			cfg.Venues.Kalshi.Email,
			cfg.Venues.Kalshi.Password,
		))
	}
	if len(venues) == 0 && !cfg.Mode.Simulation {
		slog.Error("no venue enabled and simulation is off; refusing to start")
		os.Exit(1)
	}

	events, err := storage.NewEventLog(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open event log", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}

	coord := exec.New(exec.Config{
		FillPollInterval: cfg.FillPollInterval(),
		FillTimeout:      cfg.FillTimeout(),
		Simulation:       cfg.Mode.Simulation,
	}, venues...)

	positions := lifecycle.New(lifecycle.Config{
		MonitorInterval: cfg.MonitorInterval(),
	}, coord)

	momentum := strategy.NewMomentum(strategy.MomentumConfig{
		UnderdogThreshold: cfg.Momentum.UnderdogThreshold,
		MaxTradeSize:      cfg.Momentum.MaxTradeSizeUSD,
		MaxPositions:      cfg.Momentum.MaxPositions,
		TakeProfitPct:     cfg.Momentum.TakeProfitPct,
		StopLossPct:       cfg.Momentum.StopLossPct,
		MaxDailyLoss:      cfg.Momentum.MaxDailyLossUSD,
	}, coord, positions)

	compression := strategy.NewCompression(strategy.CompressionConfig{
		MinConfidence:     cfg.Compression.MinConfidence,
		MaxTradeSize:      cfg.Compression.MaxTradeSizeUSD,
		MinProfitPct:      cfg.Compression.MinProfitPct,
		MaxSecondsToClose: cfg.Compression.MaxSecondsToClose,
		Sport:             cfg.Compression.Sport,
	}, coord, positions)

	gateway := ingest.New(feed, push, ingest.Config{
		PollInterval:  cfg.IngestPollInterval(),
		DedupCapacity: cfg.Engine.GoalDedupWindowSize,
		Backoff:       backoff.Default(),
	})

	eng := engine.New(engine.Config{
		OddsRefreshInterval: cfg.OddsRefreshInterval(),
		LiveFixtureInterval: cfg.LiveFixtureInterval(),
		StatsInterval:       cfg.StatsInterval(),
	}, feed, gateway, momentum, compression, coord, positions,
		notify.NewConsole(*table), events)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng.Start(ctx)
	<-ctx.Done()
	slog.Info("shutdown signal received")
	eng.Stop()

	slog.Info("pitchbot stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
