package endpoints

import (
	"context"
	"errors"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/atharv3903/servicelocator/internal/apperr"
	"github.com/atharv3903/servicelocator/internal/metrics"
)

// Outcome buckets an endpoint error for logs and metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrServiceNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func LoggingMiddleware(logger log.Logger) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				outcome := Outcome(err)
				l := level.Debug(logger)
				if outcome == "error" {
					l = level.Error(logger)
				}
				l.Log("outcome", outcome, "took", time.Since(begin), "err", err)
			}(time.Now())
			return next(ctx, request)
		}
	}
}

func InstrumentingMiddleware(m *metrics.Metrics, method string) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				m.Requests.WithLabelValues(method, Outcome(err)).Inc()
				m.Latency.WithLabelValues(method).Observe(time.Since(begin).Seconds())
			}(time.Now())
			return next(ctx, request)
		}
	}
}
