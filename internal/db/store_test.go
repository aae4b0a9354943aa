package db

import (
	"context"
	"database/sql/driver"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atharv3903/servicelocator/internal/apperr"
	"github.com/atharv3903/servicelocator/internal/directory"
	"github.com/atharv3903/servicelocator/internal/model"
	"github.com/atharv3903/servicelocator/internal/retry"
)

func TestRebind(t *testing.T) {
	q := `UPDATE services SET status=? WHERE service_id=?`

	assert.Equal(t, q, Store{Dialect: MySQL}.rebind(q))
	assert.Equal(t, `UPDATE services SET status=$1 WHERE service_id=$2`, Store{Dialect: Postgres}.rebind(q))
	assert.Equal(t, `SELECT 1`, Store{Dialect: Postgres}.rebind(`SELECT 1`))
}

func TestOpen_RejectsUnknownDialect(t *testing.T) {
	_, err := Open(context.Background(), Dialect("sqlite3"), "file::memory:", retry.Config{MaxAttempts: 1})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func hospitalRow(id, status string, row, col int64) []driver.Value {
	return []driver.Value{id, "hospital", status, row, col}
}

func TestStore_Get(t *testing.T) {
	conn, _ := newFakeDB(hospitalRow("h1", "open", 5, 5))
	defer conn.Close()
	s := Store{DB: conn, Dialect: MySQL}
	ctx := context.Background()

	rec, err := s.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, model.ServiceRecord{
		ID: "h1", Type: model.TypeHospital, Status: model.StatusOpen, Location: model.Cell{Row: 5, Col: 5},
	}, rec)

	_, err = s.Get(ctx, "ghost")
	assert.ErrorIs(t, err, apperr.ErrServiceNotFound)
	assert.NotErrorIs(t, err, apperr.ErrDirectoryUnavailable)
}

func TestStore_UpdateStatus(t *testing.T) {
	conn, fc := newFakeDB(hospitalRow("h1", "open", 5, 5))
	defer conn.Close()
	s := Store{DB: conn, Dialect: Postgres}
	ctx := context.Background()

	require.NoError(t, s.UpdateStatus(ctx, "h1", model.StatusClosed))
	rec, err := s.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, rec.Status)
	assert.Equal(t, 1, fc.updates)

	err = s.UpdateStatus(ctx, "ghost", model.StatusOpen)
	assert.ErrorIs(t, err, apperr.ErrServiceNotFound)
	assert.Equal(t, 1, fc.updates, "a missing record must not reach the UPDATE")

	for _, q := range fc.queries {
		assert.NotContains(t, q, "?", "postgres statements are rebound")
	}
}

func TestStore_SeedSkipsExisting(t *testing.T) {
	conn, fc := newFakeDB(hospitalRow("hospital-1", "closed", 5, 5))
	defer conn.Close()
	s := Store{DB: conn, Dialect: MySQL}
	ctx := context.Background()

	fixture := directory.LegacyFixture()
	require.NoError(t, s.Seed(ctx, fixture))
	assert.Equal(t, len(fixture)-1, fc.inserts)

	rec, err := s.Get(ctx, "hospital-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, rec.Status, "seeding keeps the stored status")

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(fixture))

	// a second run inserts nothing
	require.NoError(t, s.Seed(ctx, fixture))
	assert.Equal(t, len(fixture)-1, fc.inserts)
}

func TestStore_CreateAssignsID(t *testing.T) {
	conn, _ := newFakeDB()
	defer conn.Close()
	s := Store{DB: conn, Dialect: MySQL}
	ctx := context.Background()

	rec, err := s.Create(ctx, model.ServiceRecord{
		Type: model.TypeAmbulance, Status: model.StatusOpen, Location: model.Cell{Row: 0, Col: 3},
	})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestStore_Unavailable(t *testing.T) {
	conn, fc := newFakeDB(hospitalRow("h1", "open", 5, 5))
	defer conn.Close()
	fc.down = true
	s := Store{DB: conn, Dialect: MySQL}
	ctx := context.Background()

	_, err := s.List(ctx)
	assert.ErrorIs(t, err, apperr.ErrDirectoryUnavailable)

	_, err = s.Get(ctx, "h1")
	assert.ErrorIs(t, err, apperr.ErrDirectoryUnavailable)

	err = s.UpdateStatus(ctx, "h1", model.StatusClosed)
	assert.ErrorIs(t, err, apperr.ErrDirectoryUnavailable)

	err = s.Seed(ctx, directory.LegacyFixture())
	assert.ErrorIs(t, err, apperr.ErrDirectoryUnavailable)
	assert.True(t, strings.Contains(err.Error(), "connection refused"), err.Error())
}
