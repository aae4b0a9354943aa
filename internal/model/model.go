package model

// Cell is a grid coordinate. Two cells are equal iff both coordinates match.
type Cell struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

type ServiceType string

const (
	TypeHospital  ServiceType = "hospital"
	TypeAmbulance ServiceType = "ambulance"
	TypeUser      ServiceType = "user"
)

// Valid reports whether t is one of the known record types.
func (t ServiceType) Valid() bool {
	switch t {
	case TypeHospital, TypeAmbulance, TypeUser:
		return true
	}
	return false
}

// Dispatchable reports whether t can be requested as a nearest service.
func (t ServiceType) Dispatchable() bool {
	return t == TypeHospital || t == TypeAmbulance
}

type ServiceStatus string

const (
	StatusOpen   ServiceStatus = "open"
	StatusClosed ServiceStatus = "closed"
)

func (s ServiceStatus) Valid() bool {
	return s == StatusOpen || s == StatusClosed
}

type ServiceRecord struct {
	ID       string        `json:"id"`
	Type     ServiceType   `json:"type"`
	Status   ServiceStatus `json:"status"`
	Location Cell          `json:"location"`
}

// SearchResult is a path from the requester to the chosen target, inclusive.
// Distance is always len(Path)-1.
type SearchResult struct {
	Path     []Cell
	Distance int
	Explored int
}

type NearestResponse struct {
	Paths    []Cell `json:"paths"`
	Distance int    `json:"distance"`
}

type StatusResponse struct {
	Status ServiceStatus `json:"status"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreateResponse struct {
	Message string        `json:"message"`
	Service ServiceRecord `json:"service"`
}

// ServiceEvent is published whenever a record is created or changes status.
type ServiceEvent struct {
	Kind    string        `json:"kind"`
	Service ServiceRecord `json:"service"`
}
