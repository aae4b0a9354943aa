package locator

import (
	"context"
	"errors"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/atharv3903/servicelocator/internal/algo"
	"github.com/atharv3903/servicelocator/internal/apperr"
	"github.com/atharv3903/servicelocator/internal/directory"
	"github.com/atharv3903/servicelocator/internal/events"
	"github.com/atharv3903/servicelocator/internal/metrics"
	"github.com/atharv3903/servicelocator/internal/model"
	"github.com/atharv3903/servicelocator/internal/retry"
)

// Service is the business surface behind the HTTP API.
type Service interface {
	All(ctx context.Context) ([]model.ServiceRecord, error)
	Nearest(ctx context.Context, at model.Cell, t model.ServiceType) (model.SearchResult, error)
	Status(ctx context.Context, id string) (model.ServiceStatus, error)
	Create(ctx context.Context, rec model.ServiceRecord) (model.ServiceRecord, error)
	Update(ctx context.Context, id string, status model.ServiceStatus) error
}

type service struct {
	dir       directory.Directory
	finder    *algo.Finder
	publisher events.Publisher
	retry     retry.Config
	metrics   *metrics.Metrics
	logger    log.Logger
}

type Option func(*service)

func WithLogger(l log.Logger) Option { return func(s *service) { s.logger = l } }

func WithPublisher(p events.Publisher) Option { return func(s *service) { s.publisher = p } }

func WithRetry(c retry.Config) Option { return func(s *service) { s.retry = c } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *service) { s.metrics = m } }

func NewService(dir directory.Directory, finder *algo.Finder, opts ...Option) Service {
	s := &service{
		dir:       dir,
		finder:    finder,
		publisher: events.Nop{},
		retry:     retry.DefaultConfig(),
		logger:    log.NewNopLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Assemble splits a directory snapshot into the cells a request may end on
// and the cells it may not cross. Only open records count. The requester's
// own cell is never reserved.
func Assemble(snapshot []model.ServiceRecord, at model.Cell, t model.ServiceType) (targets, reserved []model.Cell) {
	for _, r := range snapshot {
		if r.Status != model.StatusOpen {
			continue
		}
		if r.Type == t {
			targets = append(targets, r.Location)
		}
		if r.Location != at {
			reserved = append(reserved, r.Location)
		}
	}
	return targets, reserved
}

func (s *service) snapshot(ctx context.Context) ([]model.ServiceRecord, error) {
	recs, err := retry.DoWithResult(ctx, s.retry, func() ([]model.ServiceRecord, error) {
		return s.dir.List(ctx)
	})
	if err != nil {
		if errors.Is(err, apperr.ErrDirectoryUnavailable) {
			return nil, err
		}
		return nil, apperr.Unavailable("List", err)
	}
	return recs, nil
}

func (s *service) All(ctx context.Context) ([]model.ServiceRecord, error) {
	return s.snapshot(ctx)
}

func (s *service) Nearest(ctx context.Context, at model.Cell, t model.ServiceType) (model.SearchResult, error) {
	if !t.Dispatchable() {
		return model.SearchResult{}, apperr.Invalid("Nearest", "serviceType must be hospital or ambulance, got %q", t)
	}
	if g := s.finder.Grid(); !g.Contains(at) {
		return model.SearchResult{}, apperr.Invalid("Nearest", "location (%d,%d) outside %dx%d grid", at.Row, at.Col, g.Rows, g.Cols)
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return model.SearchResult{}, err
	}

	targets, reserved := Assemble(snap, at, t)
	if len(targets) == 0 {
		return model.SearchResult{}, apperr.ErrNotFound
	}

	res, found, err := s.finder.Find(ctx, at, targets, reserved)
	if err != nil {
		return model.SearchResult{}, err
	}
	if s.metrics != nil {
		s.metrics.Explored.Observe(float64(res.Explored))
	}
	if !found {
		level.Debug(s.logger).Log("msg", "no reachable service", "type", t, "row", at.Row, "col", at.Col,
			"targets", len(targets), "reserved", len(reserved), "explored", res.Explored)
		return model.SearchResult{}, apperr.ErrNotFound
	}
	if s.metrics != nil {
		s.metrics.PathLength.Observe(float64(res.Distance))
	}
	return res, nil
}

func (s *service) get(ctx context.Context, id string) (model.ServiceRecord, error) {
	rec, err := retry.DoWithResult(ctx, s.retry, func() (model.ServiceRecord, error) {
		r, err := s.dir.Get(ctx, id)
		if errors.Is(err, apperr.ErrServiceNotFound) {
			return r, retry.Permanent(err)
		}
		return r, err
	})
	if err != nil && !errors.Is(err, apperr.ErrServiceNotFound) && !errors.Is(err, apperr.ErrDirectoryUnavailable) {
		return model.ServiceRecord{}, apperr.Unavailable("Get", err)
	}
	return rec, err
}

func (s *service) Status(ctx context.Context, id string) (model.ServiceStatus, error) {
	if id == "" {
		return "", apperr.Invalid("Status", "missing required parameter: serviceId")
	}
	rec, err := s.get(ctx, id)
	if err != nil {
		return "", err
	}
	return rec.Status, nil
}

func (s *service) Create(ctx context.Context, rec model.ServiceRecord) (model.ServiceRecord, error) {
	if !rec.Type.Valid() {
		return model.ServiceRecord{}, apperr.Invalid("Create", "unknown type %q", rec.Type)
	}
	if !rec.Status.Valid() {
		return model.ServiceRecord{}, apperr.Invalid("Create", "unknown status %q", rec.Status)
	}
	if g := s.finder.Grid(); !g.Contains(rec.Location) {
		return model.ServiceRecord{}, apperr.Invalid("Create", "location (%d,%d) outside %dx%d grid",
			rec.Location.Row, rec.Location.Col, g.Rows, g.Cols)
	}

	created, err := s.dir.Create(ctx, rec)
	if err != nil {
		if errors.Is(err, apperr.ErrDirectoryUnavailable) {
			return model.ServiceRecord{}, err
		}
		return model.ServiceRecord{}, apperr.Unavailable("Create", err)
	}

	s.publish(ctx, events.KindCreated, created)
	return created, nil
}

func (s *service) Update(ctx context.Context, id string, status model.ServiceStatus) error {
	if id == "" {
		return apperr.Invalid("Update", "missing required field: serviceId")
	}
	if !status.Valid() {
		return apperr.Invalid("Update", "unknown status %q", status)
	}

	rec, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.dir.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, apperr.ErrServiceNotFound) || errors.Is(err, apperr.ErrDirectoryUnavailable) {
			return err
		}
		return apperr.Unavailable("UpdateStatus", err)
	}

	rec.Status = status
	s.publish(ctx, events.KindUpdated, rec)
	return nil
}

// publish is best effort: a lost event never fails the write.
func (s *service) publish(ctx context.Context, kind string, rec model.ServiceRecord) {
	if err := s.publisher.Publish(ctx, model.ServiceEvent{Kind: kind, Service: rec}); err != nil {
		level.Warn(s.logger).Log("msg", "publish service event", "kind", kind, "id", rec.ID, "err", err)
	}
}
