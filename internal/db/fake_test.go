package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
)

// fakeConnector serves the handful of statements Store issues from an
// in-memory table. Setting down makes every statement fail.
type fakeConnector struct {
	mu      sync.Mutex
	rows    map[string][]driver.Value
	queries []string
	updates int
	inserts int
	down    bool
}

func newFakeDB(seed ...[]driver.Value) (*sql.DB, *fakeConnector) {
	fc := &fakeConnector{rows: make(map[string][]driver.Value)}
	for _, r := range seed {
		fc.rows[r[0].(string)] = r
	}
	return sql.OpenDB(fc), fc
}

func (fc *fakeConnector) Connect(context.Context) (driver.Conn, error) { return fakeConn{fc}, nil }
func (fc *fakeConnector) Driver() driver.Driver                        { return fakeDriver{fc} }

type fakeDriver struct{ fc *fakeConnector }

func (d fakeDriver) Open(string) (driver.Conn, error) { return fakeConn{d.fc}, nil }

type fakeConn struct{ fc *fakeConnector }

func (c fakeConn) Prepare(q string) (driver.Stmt, error) { return fakeStmt{c.fc, strings.TrimSpace(q)}, nil }
func (c fakeConn) Close() error                          { return nil }
func (c fakeConn) Begin() (driver.Tx, error)             { return nil, errors.New("fake: no transactions") }

type fakeStmt struct {
	fc *fakeConnector
	q  string
}

func (s fakeStmt) Close() error  { return nil }
func (s fakeStmt) NumInput() int { return -1 }

func (s fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	fc := s.fc
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.queries = append(fc.queries, s.q)
	if fc.down {
		return nil, errors.New("fake: connection refused")
	}

	switch {
	case strings.HasPrefix(s.q, "INSERT"):
		fc.inserts++
		row := make([]driver.Value, len(args))
		copy(row, args)
		fc.rows[args[0].(string)] = row
	case strings.HasPrefix(s.q, "UPDATE"):
		fc.updates++
		id := args[1].(string)
		if r, ok := fc.rows[id]; ok {
			r[2] = args[0]
		}
	}
	return driver.RowsAffected(1), nil
}

func (s fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	fc := s.fc
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.queries = append(fc.queries, s.q)
	if fc.down {
		return nil, errors.New("fake: connection refused")
	}

	var out [][]driver.Value
	if strings.Contains(s.q, "WHERE service_id") {
		if r, ok := fc.rows[args[0].(string)]; ok {
			out = append(out, append([]driver.Value(nil), r...))
		}
	} else {
		for _, r := range fc.rows {
			out = append(out, append([]driver.Value(nil), r...))
		}
		sort.Slice(out, func(i, j int) bool { return out[i][0].(string) < out[j][0].(string) })
	}
	return &fakeRows{rows: out}, nil
}

type fakeRows struct {
	rows [][]driver.Value
	i    int
}

func (r *fakeRows) Columns() []string {
	return []string{"service_id", "service_type", "status", "grid_row", "grid_col"}
}

func (r *fakeRows) Close() error { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.i >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.i])
	r.i++
	return nil
}
