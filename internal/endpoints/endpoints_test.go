package endpoints

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atharv3903/servicelocator/internal/algo"
	"github.com/atharv3903/servicelocator/internal/apperr"
	"github.com/atharv3903/servicelocator/internal/directory"
	"github.com/atharv3903/servicelocator/internal/locator"
	"github.com/atharv3903/servicelocator/internal/metrics"
	"github.com/atharv3903/servicelocator/internal/model"
)

func newSet(t *testing.T) (Set, *metrics.Metrics) {
	t.Helper()
	svc := locator.NewService(directory.NewMemory(directory.LegacyFixture()...), algo.NewFinder(algo.Grid{Rows: 13, Cols: 16}))
	m := metrics.New()
	return NewEndpointSet(svc, log.NewNopLogger(), m), m
}

func TestNearestEndpoint(t *testing.T) {
	set, m := newSet(t)

	resp, err := set.NearestEndpoint(context.Background(), NearestRequest{At: model.Cell{Row: 10, Col: 10}, Type: model.TypeHospital})
	require.NoError(t, err)

	out := resp.(model.NearestResponse)
	assert.Equal(t, 6, out.Distance)
	assert.Len(t, out.Paths, 7)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("nearest", "ok")))
}

func TestNearestEndpoint_CountsOutcomes(t *testing.T) {
	set, m := newSet(t)

	_, err := set.NearestEndpoint(context.Background(), NearestRequest{At: model.Cell{Row: 99, Col: 0}, Type: model.TypeHospital})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("nearest", "invalid")))
}

func TestCreateEndpoint_Status201(t *testing.T) {
	set, _ := newSet(t)

	resp, err := set.CreateEndpoint(context.Background(), CreateRequest{
		Location: &model.Cell{Row: 0, Col: 0},
		Type:     model.TypeUser,
		Status:   model.StatusOpen,
	})
	require.NoError(t, err)

	out := resp.(CreateResponse)
	assert.Equal(t, http.StatusCreated, out.StatusCode())
	assert.Equal(t, "Service created successfully.", out.Message)
	assert.NotEmpty(t, out.Service.ID)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "invalid", Outcome(apperr.Invalid("x", "y")))
	assert.Equal(t, "not_found", Outcome(apperr.ErrNotFound))
	assert.Equal(t, "not_found", Outcome(apperr.ErrServiceNotFound))
	assert.Equal(t, "error", Outcome(errors.New("boom")))
}
