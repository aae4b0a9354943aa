package directory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atharv3903/servicelocator/internal/apperr"
	"github.com/atharv3903/servicelocator/internal/model"
)

func TestMemory_CreateAssignsID(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rec, err := m.Create(ctx, model.ServiceRecord{
		ID:       "client-supplied",
		Type:     model.TypeHospital,
		Status:   model.StatusOpen,
		Location: model.Cell{Row: 1, Col: 2},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.NotEqual(t, "client-supplied", rec.ID)

	got, err := m.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestMemory_ListPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(LegacyFixture()...)

	recs, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, "hospital-1", recs[0].ID)
	assert.Equal(t, "ambulance-2", recs[3].ID)

	// callers own the snapshot
	recs[0].Status = model.StatusClosed
	again, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, again[0].Status)
}

func TestMemory_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(LegacyFixture()...)

	require.NoError(t, m.UpdateStatus(ctx, "ambulance-1", model.StatusClosed))
	rec, err := m.Get(ctx, "ambulance-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, rec.Status)

	err = m.UpdateStatus(ctx, "missing", model.StatusOpen)
	assert.ErrorIs(t, err, apperr.ErrServiceNotFound)

	_, err = m.Get(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrServiceNotFound)
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := m.Create(ctx, model.ServiceRecord{Type: model.TypeUser, Status: model.StatusOpen, Location: model.Cell{Row: i, Col: i}})
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			_, err := m.List(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	recs, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 20)
}
