package db

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/atharv3903/servicelocator/internal/apperr"
	"github.com/atharv3903/servicelocator/internal/directory"
	"github.com/atharv3903/servicelocator/internal/model"
)

// Dialect is the database/sql driver name the store talks to.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// Store is a Directory backed by a single services table.
type Store struct {
	DB      *sql.DB
	Dialect Dialect
}

var _ directory.Directory = Store{}

const schema = `
CREATE TABLE IF NOT EXISTS services (
    service_id   VARCHAR(64) PRIMARY KEY,
    service_type VARCHAR(16) NOT NULL,
    status       VARCHAR(16) NOT NULL,
    grid_row     INT NOT NULL,
    grid_col     INT NOT NULL
)`

func (s Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return apperr.Unavailable("EnsureSchema", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s Store) rebind(q string) string {
	if s.Dialect != Postgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s Store) List(ctx context.Context) ([]model.ServiceRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
        SELECT service_id, service_type, status, grid_row, grid_col
        FROM services
        ORDER BY service_id
    `)
	if err != nil {
		return nil, apperr.Unavailable("List", err)
	}
	defer rows.Close()

	recs := make([]model.ServiceRecord, 0, 16)

	for rows.Next() {
		var r model.ServiceRecord
		if err := rows.Scan(&r.ID, &r.Type, &r.Status, &r.Location.Row, &r.Location.Col); err != nil {
			return nil, apperr.Unavailable("List", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Unavailable("List", err)
	}

	return recs, nil
}

func (s Store) Get(ctx context.Context, id string) (model.ServiceRecord, error) {
	var r model.ServiceRecord
	err := s.DB.QueryRowContext(ctx, s.rebind(`
        SELECT service_id, service_type, status, grid_row, grid_col
        FROM services
        WHERE service_id=?
    `), id).Scan(&r.ID, &r.Type, &r.Status, &r.Location.Row, &r.Location.Col)

	if errors.Is(err, sql.ErrNoRows) {
		return model.ServiceRecord{}, &apperr.Error{Kind: apperr.ErrServiceNotFound, Op: "Get"}
	}
	if err != nil {
		return model.ServiceRecord{}, apperr.Unavailable("Get", err)
	}
	return r, nil
}

func (s Store) Create(ctx context.Context, rec model.ServiceRecord) (model.ServiceRecord, error) {
	rec.ID = directory.NewID()
	_, err := s.DB.ExecContext(ctx, s.rebind(`
        INSERT INTO services (service_id, service_type, status, grid_row, grid_col)
        VALUES (?, ?, ?, ?, ?)
    `), rec.ID, string(rec.Type), string(rec.Status), rec.Location.Row, rec.Location.Col)
	if err != nil {
		return model.ServiceRecord{}, apperr.Unavailable("Create", err)
	}
	return rec, nil
}

// UpdateStatus checks existence first: MySQL reports zero affected rows when
// the status does not change, so RowsAffected cannot tell a miss apart.
func (s Store) UpdateStatus(ctx context.Context, id string, status model.ServiceStatus) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	_, err := s.DB.ExecContext(ctx, s.rebind(`UPDATE services SET status=? WHERE service_id=?`), string(status), id)
	if err != nil {
		return apperr.Unavailable("UpdateStatus", err)
	}
	return nil
}

// Seed inserts records that are not present yet, keeping their ids.
func (s Store) Seed(ctx context.Context, recs []model.ServiceRecord) error {
	for _, r := range recs {
		_, err := s.Get(ctx, r.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, apperr.ErrServiceNotFound) {
			return err
		}
		_, err = s.DB.ExecContext(ctx, s.rebind(`
            INSERT INTO services (service_id, service_type, status, grid_row, grid_col)
            VALUES (?, ?, ?, ?, ?)
        `), r.ID, string(r.Type), string(r.Status), r.Location.Row, r.Location.Col)
		if err != nil {
			return apperr.Unavailable("Seed", err)
		}
	}
	return nil
}
