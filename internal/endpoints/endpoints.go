package endpoints

import (
	"context"
	"net/http"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/log"

	"github.com/atharv3903/servicelocator/internal/locator"
	"github.com/atharv3903/servicelocator/internal/metrics"
	"github.com/atharv3903/servicelocator/internal/model"
)

type NearestRequest struct {
	At   model.Cell
	Type model.ServiceType
}

type StatusRequest struct {
	ServiceID string
}

type CreateRequest struct {
	Location *model.Cell         `json:"location"`
	Type     model.ServiceType   `json:"type"`
	Status   model.ServiceStatus `json:"status"`
}

type UpdateRequest struct {
	ServiceID string              `json:"serviceId"`
	Status    model.ServiceStatus `json:"status"`
}

// CreateResponse answers 201; go-kit's JSON encoder picks up StatusCode.
type CreateResponse struct {
	model.CreateResponse
}

func (CreateResponse) StatusCode() int { return http.StatusCreated }

type Set struct {
	AllEndpoint     endpoint.Endpoint
	NearestEndpoint endpoint.Endpoint
	StatusEndpoint  endpoint.Endpoint
	CreateEndpoint  endpoint.Endpoint
	UpdateEndpoint  endpoint.Endpoint
}

// NewEndpointSet wraps every endpoint with logging and, when m is non-nil,
// request metrics.
func NewEndpointSet(svc locator.Service, logger log.Logger, m *metrics.Metrics) Set {
	wrap := func(name string, e endpoint.Endpoint) endpoint.Endpoint {
		e = LoggingMiddleware(log.With(logger, "method", name))(e)
		if m != nil {
			e = InstrumentingMiddleware(m, name)(e)
		}
		return e
	}

	return Set{
		AllEndpoint:     wrap("all", MakeAllEndpoint(svc)),
		NearestEndpoint: wrap("nearest", MakeNearestEndpoint(svc)),
		StatusEndpoint:  wrap("status", MakeStatusEndpoint(svc)),
		CreateEndpoint:  wrap("create", MakeCreateEndpoint(svc)),
		UpdateEndpoint:  wrap("update", MakeUpdateEndpoint(svc)),
	}
}

func MakeAllEndpoint(svc locator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		return svc.All(ctx)
	}
}

func MakeNearestEndpoint(svc locator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(NearestRequest)
		res, err := svc.Nearest(ctx, req.At, req.Type)
		if err != nil {
			return nil, err
		}
		return model.NearestResponse{Paths: res.Path, Distance: res.Distance}, nil
	}
}

func MakeStatusEndpoint(svc locator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(StatusRequest)
		status, err := svc.Status(ctx, req.ServiceID)
		if err != nil {
			return nil, err
		}
		return model.StatusResponse{Status: status}, nil
	}
}

func MakeCreateEndpoint(svc locator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(CreateRequest)
		created, err := svc.Create(ctx, model.ServiceRecord{
			Type:     req.Type,
			Status:   req.Status,
			Location: *req.Location,
		})
		if err != nil {
			return nil, err
		}
		return CreateResponse{model.CreateResponse{
			Message: "Service created successfully.",
			Service: created,
		}}, nil
	}
}

func MakeUpdateEndpoint(svc locator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(UpdateRequest)
		if err := svc.Update(ctx, req.ServiceID, req.Status); err != nil {
			return nil, err
		}
		return model.MessageResponse{Message: "Service status updated successfully."}, nil
	}
}
