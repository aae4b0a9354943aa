package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/atharv3903/servicelocator/internal/algo"
	"github.com/atharv3903/servicelocator/internal/retry"
)

type ServerConfig struct {
	Addr       string `yaml:"addr"`
	Driver     string `yaml:"driver"`
	DSN        string `yaml:"dsn"`
	Rows       int    `yaml:"rows"`
	Cols       int    `yaml:"cols"`
	Heuristic  string `yaml:"heuristic"`
	CORSOrigin string `yaml:"cors_origin"`
	NATSURL    string `yaml:"nats_url"`
	// OccupancySchedule is a cron spec; empty disables the job.
	OccupancySchedule string       `yaml:"occupancy_schedule"`
	SeedLegacy        bool         `yaml:"seed_legacy"`
	LogLevel          string       `yaml:"log_level"`
	Retry             retry.Config `yaml:"retry"`
}

func Defaults() ServerConfig {
	return ServerConfig{
		Addr:              ":8080",
		Driver:            "memory",
		Rows:              13,
		Cols:              16,
		Heuristic:         string(algo.HeuristicGoal),
		CORSOrigin:        "http://localhost:5173",
		OccupancySchedule: "@every 1m",
		LogLevel:          "info",
		Retry:             retry.DefaultConfig(),
	}
}

func FromFlagsServer() ServerConfig {
	cfg, err := Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return cfg
}

// Parse builds a config from defaults, then the -config YAML file, then the
// environment, then flags that were set explicitly on the command line.
func Parse(fs *flag.FlagSet, args []string) (ServerConfig, error) {
	var (
		file              string
		addr, driver, dsn string
		rows, cols        int
		heuristic, cors   string
		natsURL, schedule string
		seed              bool
		logLevel          string
	)
	d := Defaults()

	fs.StringVar(&file, "config", os.Getenv("CONFIG_FILE"), "YAML config file")
	fs.StringVar(&addr, "addr", d.Addr, "HTTP bind address")
	fs.StringVar(&driver, "driver", d.Driver, "directory backend: memory, mysql or postgres")
	fs.StringVar(&dsn, "dsn", d.DSN, "database DSN")
	fs.IntVar(&rows, "rows", d.Rows, "grid rows")
	fs.IntVar(&cols, "cols", d.Cols, "grid columns")
	fs.StringVar(&heuristic, "heuristic", d.Heuristic, "search heuristic: goal or start")
	fs.StringVar(&cors, "cors-origin", d.CORSOrigin, "allowed CORS origin(s), comma separated or *")
	fs.StringVar(&natsURL, "nats", d.NATSURL, "NATS URL for service change events")
	fs.StringVar(&schedule, "occupancy-schedule", d.OccupancySchedule, "cron spec for the occupancy gauge refresh")
	fs.BoolVar(&seed, "seed-legacy", d.SeedLegacy, "seed the two-hospital, two-ambulance layout")
	fs.StringVar(&logLevel, "log-level", d.LogLevel, "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return ServerConfig{}, err
	}

	cfg := d
	if file != "" {
		if err := loadFile(file, &cfg); err != nil {
			return ServerConfig{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return ServerConfig{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = addr
		case "driver":
			cfg.Driver = driver
		case "dsn":
			cfg.DSN = dsn
		case "rows":
			cfg.Rows = rows
		case "cols":
			cfg.Cols = cols
		case "heuristic":
			cfg.Heuristic = heuristic
		case "cors-origin":
			cfg.CORSOrigin = cors
		case "nats":
			cfg.NATSURL = natsURL
		case "occupancy-schedule":
			cfg.OccupancySchedule = schedule
		case "seed-legacy":
			cfg.SeedLegacy = seed
		case "log-level":
			cfg.LogLevel = logLevel
		}
	})

	return cfg, cfg.Validate()
}

func loadFile(path string, cfg *ServerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *ServerConfig) error {
	str := map[string]*string{
		"ADDR":        &cfg.Addr,
		"DB_DRIVER":   &cfg.Driver,
		"DB_DSN":      &cfg.DSN,
		"HEURISTIC":   &cfg.Heuristic,
		"CORS_ORIGIN": &cfg.CORSOrigin,
		"NATS_URL":    &cfg.NATSURL,
		"LOG_LEVEL":   &cfg.LogLevel,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{"GRID_ROWS": &cfg.Rows, "GRID_COLS": &cfg.Cols}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	if v, ok := os.LookupEnv("RETRY_MAX_ATTEMPTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RETRY_MAX_ATTEMPTS: %w", err)
		}
		cfg.Retry.MaxAttempts = n
	}
	if v, ok := os.LookupEnv("RETRY_INITIAL_DELAY"); ok {
		dur, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("RETRY_INITIAL_DELAY: %w", err)
		}
		cfg.Retry.InitialDelay = dur
	}
	return nil
}

func (c ServerConfig) Validate() error {
	if c.Rows <= 0 || c.Cols <= 0 {
		return fmt.Errorf("grid must be at least 1x1, got %dx%d", c.Rows, c.Cols)
	}
	if _, err := algo.ParseHeuristic(c.Heuristic); err != nil {
		return err
	}
	switch c.Driver {
	case "memory":
	case "mysql", "postgres":
		if c.DSN == "" {
			return fmt.Errorf("driver %s requires -dsn or DB_DSN", c.Driver)
		}
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
