// Package jobs runs periodic housekeeping next to the HTTP server.
package jobs

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/robfig/cron/v3"

	"github.com/atharv3903/servicelocator/internal/locator"
	"github.com/atharv3903/servicelocator/internal/metrics"
	"github.com/atharv3903/servicelocator/internal/model"
)

type Job func(ctx context.Context) error

type Scheduler struct {
	cron    *cron.Cron
	logger  log.Logger
	timeout time.Duration
}

func NewScheduler(logger log.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger,
		timeout: 10 * time.Second,
	}
}

// Add schedules job under a cron spec such as "@every 1m".
func (s *Scheduler) Add(spec, name string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		begin := time.Now()
		if err := job(ctx); err != nil {
			level.Warn(s.logger).Log("job", name, "err", err)
			return
		}
		level.Debug(s.logger).Log("job", name, "took", time.Since(begin))
	})
	return err
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() { <-s.cron.Stop().Done() }

// OccupancySnapshot counts open records by type into the occupancy gauge.
func OccupancySnapshot(svc locator.Service, m *metrics.Metrics) Job {
	return func(ctx context.Context) error {
		recs, err := svc.All(ctx)
		if err != nil {
			return err
		}

		counts := map[model.ServiceType]int{
			model.TypeHospital:  0,
			model.TypeAmbulance: 0,
			model.TypeUser:      0,
		}
		for _, r := range recs {
			if r.Status == model.StatusOpen {
				counts[r.Type]++
			}
		}
		for t, n := range counts {
			m.Occupancy.WithLabelValues(string(t)).Set(float64(n))
		}
		return nil
	}
}
