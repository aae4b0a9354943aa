package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/atharv3903/servicelocator/internal/algo"
	"github.com/atharv3903/servicelocator/internal/api"
	"github.com/atharv3903/servicelocator/internal/config"
	"github.com/atharv3903/servicelocator/internal/db"
	"github.com/atharv3903/servicelocator/internal/directory"
	"github.com/atharv3903/servicelocator/internal/endpoints"
	"github.com/atharv3903/servicelocator/internal/events"
	"github.com/atharv3903/servicelocator/internal/jobs"
	"github.com/atharv3903/servicelocator/internal/locator"
	"github.com/atharv3903/servicelocator/internal/metrics"
	"github.com/atharv3903/servicelocator/internal/model"
)

func main() {
	cfg := config.FromFlagsServer()

	var logger log.Logger
	logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = level.NewFilter(logger, level.Allow(level.ParseDefault(cfg.LogLevel, level.InfoValue())))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	ctx := context.Background()

	dir, closeDir, err := openDirectory(ctx, cfg)
	if err != nil {
		level.Error(logger).Log("during", "OpenDirectory", "driver", cfg.Driver, "err", err)
		os.Exit(1)
	}
	defer closeDir()

	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		nc, err := events.ConnectNATS(cfg.NATSURL)
		if err != nil {
			level.Error(logger).Log("during", "ConnectNATS", "err", err)
			os.Exit(1)
		}
		publisher = nc
	}
	defer publisher.Close()

	finder, err := newFinder(cfg)
	if err != nil {
		level.Error(logger).Log("during", "NewFinder", "err", err)
		os.Exit(1)
	}
	grid, mode := finder.Grid(), finder.Heuristic()

	var (
		m       = metrics.New()
		service = locator.NewService(dir, finder,
			locator.WithLogger(log.With(logger, "component", "locator")),
			locator.WithPublisher(publisher),
			locator.WithRetry(cfg.Retry),
			locator.WithMetrics(m),
		)
		set = endpoints.NewEndpointSet(service, logger, m)
		srv = api.New(set, log.With(logger, "transport", "HTTP"), m, cfg.CORSOrigin)
	)

	scheduler := jobs.NewScheduler(log.With(logger, "component", "jobs"))
	if cfg.OccupancySchedule != "" {
		if err := scheduler.Add(cfg.OccupancySchedule, "occupancy", jobs.OccupancySnapshot(service, m)); err != nil {
			level.Error(logger).Log("during", "ScheduleOccupancy", "err", err)
			os.Exit(1)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	httpListener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		level.Error(logger).Log("transport", "HTTP", "during", "Listen", "err", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		level.Info(logger).Log("transport", "HTTP", "addr", cfg.Addr, "rows", grid.Rows, "cols", grid.Cols, "heuristic", mode)
		if err := httpServer.Serve(httpListener); err != nil && err != http.ErrServerClosed {
			level.Error(logger).Log("transport", "HTTP", "during", "Serve", "err", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	level.Info(logger).Log("signal", sig)

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		level.Error(logger).Log("transport", "HTTP", "during", "Shutdown", "err", err)
	}

	level.Info(logger).Log("transport", "HTTP", "status", "stopped")
}

func newFinder(cfg config.ServerConfig) (*algo.Finder, error) {
	grid, err := algo.NewGrid(cfg.Rows, cfg.Cols)
	if err != nil {
		return nil, err
	}
	mode, err := algo.ParseHeuristic(cfg.Heuristic)
	if err != nil {
		return nil, err
	}
	return algo.NewFinder(grid, algo.WithHeuristic(mode)), nil
}

func openDirectory(ctx context.Context, cfg config.ServerConfig) (directory.Directory, func(), error) {
	if cfg.Driver == "memory" {
		var seed []model.ServiceRecord
		if cfg.SeedLegacy {
			seed = directory.LegacyFixture()
		}
		return directory.NewMemory(seed...), func() {}, nil
	}

	dialect := db.Dialect(cfg.Driver)
	conn, err := db.Open(ctx, dialect, cfg.DSN, cfg.Retry)
	if err != nil {
		return nil, nil, err
	}

	store := db.Store{DB: conn, Dialect: dialect}
	if err := store.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, nil, err
	}
	if cfg.SeedLegacy {
		if err := store.Seed(ctx, directory.LegacyFixture()); err != nil {
			conn.Close()
			return nil, nil, err
		}
	}
	return store, func() { conn.Close() }, nil
}
