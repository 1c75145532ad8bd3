// Package config loads omahareader settings from an optional HCL file, a
// .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"
)

// Config is the complete runtime configuration.
type Config struct {
	Server   ServerConfig
	Engine   EngineConfig
	Display  DisplayConfig
	Strategy StrategyConfig
}

type ServerConfig struct {
	Address  string
	Port     int
	LogLevel string
}

type EngineConfig struct {
	Interval   time.Duration
	Country    string
	CaptureDir string
	ResultsDir string
	// Debug treats CaptureDir as a replay fixture. Outside debug mode every
	// processed snapshot is also written under ResultsDir.
	Debug      bool
	TrackMoves bool
}

type DisplayConfig struct {
	TableCards bool
	Positions  bool
	Moves      bool
	SolverLink bool
}

type StrategyConfig struct {
	BTNOpenCSV string
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:  "0.0.0.0",
			Port:     5001,
			LogLevel: "info",
		},
		Engine: EngineConfig{
			Interval:   10 * time.Second,
			Country:    "canada",
			CaptureDir: "captures",
			ResultsDir: "results",
			Debug:      true,
			TrackMoves: true,
		},
		Display: DisplayConfig{
			TableCards: true,
			Positions:  true,
			Moves:      true,
			SolverLink: true,
		},
	}
}

type fileConfig struct {
	Server   *serverBlock   `hcl:"server,block"`
	Engine   *engineBlock   `hcl:"engine,block"`
	Display  *displayBlock  `hcl:"display,block"`
	Strategy *strategyBlock `hcl:"strategy,block"`
}

type serverBlock struct {
	Address  *string `hcl:"address,optional"`
	Port     *int    `hcl:"port,optional"`
	LogLevel *string `hcl:"log_level,optional"`
}

type engineBlock struct {
	IntervalSeconds *int    `hcl:"interval_seconds,optional"`
	Country         *string `hcl:"country,optional"`
	CaptureDir      *string `hcl:"capture_dir,optional"`
	ResultsDir      *string `hcl:"results_dir,optional"`
	Debug           *bool   `hcl:"debug,optional"`
	TrackMoves      *bool   `hcl:"track_moves,optional"`
}

type displayBlock struct {
	TableCards *bool `hcl:"show_table_cards,optional"`
	Positions  *bool `hcl:"show_positions,optional"`
	Moves      *bool `hcl:"show_moves,optional"`
	SolverLink *bool `hcl:"show_solver_link,optional"`
}

type strategyBlock struct {
	BTNOpenCSV *string `hcl:"btn_open_csv,optional"`
}

// LoadFile reads an HCL config file over the defaults. A missing file
// yields the defaults.
func LoadFile(filename string) (*Config, error) {
	cfg := Default()
	if filename == "" {
		return cfg, nil
	}
	if _, err := os.Stat(filename); errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	fc.apply(cfg)
	return cfg, nil
}

func (fc *fileConfig) apply(cfg *Config) {
	if s := fc.Server; s != nil {
		set(&cfg.Server.Address, s.Address)
		set(&cfg.Server.Port, s.Port)
		set(&cfg.Server.LogLevel, s.LogLevel)
	}
	if e := fc.Engine; e != nil {
		if e.IntervalSeconds != nil {
			cfg.Engine.Interval = time.Duration(*e.IntervalSeconds) * time.Second
		}
		set(&cfg.Engine.Country, e.Country)
		set(&cfg.Engine.CaptureDir, e.CaptureDir)
		set(&cfg.Engine.ResultsDir, e.ResultsDir)
		set(&cfg.Engine.Debug, e.Debug)
		set(&cfg.Engine.TrackMoves, e.TrackMoves)
	}
	if d := fc.Display; d != nil {
		set(&cfg.Display.TableCards, d.TableCards)
		set(&cfg.Display.Positions, d.Positions)
		set(&cfg.Display.Moves, d.Moves)
		set(&cfg.Display.SolverLink, d.SolverLink)
	}
	if s := fc.Strategy; s != nil {
		set(&cfg.Strategy.BTNOpenCSV, s.BTNOpenCSV)
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// LoadDotEnv loads KEY=value pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(filenames ...string) error {
	for _, name := range filenames {
		if _, err := os.Stat(name); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from environment variables read via lookup,
// usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(key string, dst *string, transform func(string) string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = transform(strings.TrimSpace(v))
		}
	}
	integer := func(key string, fn func(int)) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			fn(n)
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	same := func(s string) string { return s }

	integer("PORT", func(n int) { c.Server.Port = n })
	integer("WAIT_TIME", func(n int) { c.Engine.Interval = time.Duration(n) * time.Second })
	boolean("DEBUG_MODE", &c.Engine.Debug)
	str("COUNTRY", &c.Engine.Country, strings.ToLower)
	boolean("SHOW_TABLE_CARDS", &c.Display.TableCards)
	boolean("SHOW_POSITIONS", &c.Display.Positions)
	boolean("SHOW_MOVES", &c.Display.Moves)
	boolean("SHOW_SOLVER_LINK", &c.Display.SolverLink)
	str("BTN_OPEN_STRATEGY_CSV", &c.Strategy.BTNOpenCSV, same)
	str("LOG_LEVEL", &c.Server.LogLevel, strings.ToLower)

	return errors.Join(errs...)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Engine.Interval < time.Second {
		return fmt.Errorf("detection interval must be at least 1s, got %s", c.Engine.Interval)
	}
	if c.Engine.CaptureDir == "" {
		return errors.New("capture directory must be set")
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Server.LogLevel, err)
	}
	return nil
}

// ListenAddress returns host:port for the HTTP server.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// Load builds the configuration the way the server does: HCL file, then
// .env files, then the environment.
func Load(filename string, dotenv ...string) (*Config, error) {
	cfg, err := LoadFile(filename)
	if err != nil {
		return nil, err
	}
	if err := LoadDotEnv(dotenv...); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}
