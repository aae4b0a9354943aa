// Package directory holds the service records the locator queries.
package directory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/atharv3903/servicelocator/internal/apperr"
	"github.com/atharv3903/servicelocator/internal/model"
)

// Directory is the keyed record store behind the locator. List returns a
// snapshot the caller owns; implementations must not hand out shared slices.
type Directory interface {
	List(ctx context.Context) ([]model.ServiceRecord, error)
	Get(ctx context.Context, id string) (model.ServiceRecord, error)
	Create(ctx context.Context, rec model.ServiceRecord) (model.ServiceRecord, error)
	UpdateStatus(ctx context.Context, id string, status model.ServiceStatus) error
}

// NewID generates a server-side record id.
func NewID() string { return uuid.NewString() }

// Memory is an in-process Directory. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	recs map[string]model.ServiceRecord
	// insertion order keeps List stable across calls
	order []string
}

func NewMemory(seed ...model.ServiceRecord) *Memory {
	m := &Memory{recs: make(map[string]model.ServiceRecord, len(seed))}
	for _, r := range seed {
		if r.ID == "" {
			r.ID = NewID()
		}
		if _, ok := m.recs[r.ID]; !ok {
			m.order = append(m.order, r.ID)
		}
		m.recs[r.ID] = r
	}
	return m
}

func (m *Memory) List(_ context.Context) ([]model.ServiceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.ServiceRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.recs[id])
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, id string) (model.ServiceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.recs[id]
	if !ok {
		return model.ServiceRecord{}, &apperr.Error{Kind: apperr.ErrServiceNotFound, Op: "Get"}
	}
	return r, nil
}

func (m *Memory) Create(_ context.Context, rec model.ServiceRecord) (model.ServiceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = NewID()
	m.recs[rec.ID] = rec
	m.order = append(m.order, rec.ID)
	return rec, nil
}

func (m *Memory) UpdateStatus(_ context.Context, id string, status model.ServiceStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.recs[id]
	if !ok {
		return &apperr.Error{Kind: apperr.ErrServiceNotFound, Op: "UpdateStatus"}
	}
	r.Status = status
	m.recs[id] = r
	return nil
}

// LegacyFixture is the static layout the first deployment shipped with:
// two hospitals and two ambulances, all open.
func LegacyFixture() []model.ServiceRecord {
	return []model.ServiceRecord{
		{ID: "hospital-1", Type: model.TypeHospital, Status: model.StatusOpen, Location: model.Cell{Row: 5, Col: 5}},
		{ID: "hospital-2", Type: model.TypeHospital, Status: model.StatusOpen, Location: model.Cell{Row: 12, Col: 6}},
		{ID: "ambulance-1", Type: model.TypeAmbulance, Status: model.StatusOpen, Location: model.Cell{Row: 10, Col: 10}},
		{ID: "ambulance-2", Type: model.TypeAmbulance, Status: model.StatusOpen, Location: model.Cell{Row: 3, Col: 7}},
	}
}
