package main

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/omahareader/internal/capture"
	"github.com/lox/omahareader/internal/config"
	"github.com/lox/omahareader/internal/engine"
	"github.com/lox/omahareader/internal/links"
	"github.com/lox/omahareader/internal/monitor"
	"github.com/lox/omahareader/internal/notify"
	"github.com/lox/omahareader/internal/readmodel"
	"github.com/lox/omahareader/internal/reconcile"
	"github.com/lox/omahareader/internal/server"
	"github.com/lox/omahareader/internal/store"
	"github.com/lox/omahareader/internal/strategy"
	"github.com/lox/omahareader/internal/vision"
)

type ServeCmd struct {
	Config     string        `short:"c" default:"omahareader.hcl" help:"Path to HCL configuration file"`
	EnvFile    []string      `name:"env-file" default:".env" help:"dotenv files to load before reading the environment"`
	Addr       string        `short:"a" help:"Address to bind to (overrides config)"`
	Port       int           `short:"p" help:"Port to listen on (overrides config)"`
	LogLevel   string        `short:"l" help:"Log level (overrides config)"`
	CaptureDir string        `help:"Directory of table captures (overrides config)"`
	Interval   time.Duration `help:"Time between detection cycles (overrides config)"`
	Console    bool          `default:"true" negatable:"" help:"Print table updates to stdout"`
}

func (c *ServeCmd) Run() error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(os.Stderr, cfg.Server.LogLevel)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(logger)
	defer cancel()

	logger.Info("Starting omahareader",
		"version", version,
		"addr", cfg.ListenAddress(),
		"interval", cfg.Engine.Interval,
		"capture_dir", cfg.Engine.CaptureDir,
		"debug", cfg.Engine.Debug,
		"country", cfg.Engine.Country)

	clock := quartz.NewReal()
	display := readmodel.Display{
		TableCards: cfg.Display.TableCards,
		Positions:  cfg.Display.Positions,
		Moves:      cfg.Display.Moves,
		SolverLink: cfg.Display.SolverLink,
	}

	st := store.New(clock, readmodel.NewRenderer(display, rendererOptions(cfg, logger)...))
	notifier := notify.New(logger)

	srv := server.New(server.Options{
		Addr:     cfg.ListenAddress(),
		Interval: cfg.Engine.Interval,
		Display:  display,
	}, st, clock, logger)
	notifier.Subscribe("websocket", srv.Broadcast)
	if c.Console {
		notifier.Subscribe("console", monitor.New(os.Stdout).Handle)
	}

	procCfg := engine.ProcessorConfig{TrackMoves: cfg.Engine.TrackMoves}
	if !cfg.Engine.Debug {
		procCfg.DumpDir = cfg.Engine.ResultsDir
	}
	processor := engine.NewProcessor(vision.NewReplayDetector(), reconcile.New(st, logger), clock, procCfg, logger)
	eng := engine.New(capture.NewDirectorySource(cfg.Engine.CaptureDir), processor, st, notifier, clock, cfg.Engine.Interval, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return eng.Run(gctx) })
	return g.Wait()
}

func (c *ServeCmd) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config, c.EnvFile...)
	if err != nil {
		return nil, err
	}

	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.CaptureDir != "" {
		cfg.Engine.CaptureDir = c.CaptureDir
	}
	if c.Interval != 0 {
		cfg.Engine.Interval = c.Interval
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func rendererOptions(cfg *config.Config, logger *log.Logger) []readmodel.Option {
	var opts []readmodel.Option
	if cfg.Display.SolverLink {
		opts = append(opts, readmodel.WithLinks(links.NewFlopHero()))
	}
	if cfg.Strategy.BTNOpenCSV != "" {
		advisor := strategy.NewService(cfg.Strategy.BTNOpenCSV, logger)
		advisor.Preload()
		opts = append(opts, readmodel.WithAdvisor(advisor))
	}
	return opts
}
