package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"

	"github.com/atharv3903/servicelocator/internal/apperr"
	"github.com/atharv3903/servicelocator/internal/endpoints"
	"github.com/atharv3903/servicelocator/internal/metrics"
	"github.com/atharv3903/servicelocator/internal/model"
)

// Route prefixes. The second one is what the first dashboard called.
var prefixes = []string{"/services", "/api/services"}

type Server struct {
	Router     *mux.Router
	Set        endpoints.Set
	Metrics    *metrics.Metrics
	CORSOrigin string
	logger     log.Logger
}

func New(set endpoints.Set, logger log.Logger, m *metrics.Metrics, corsOrigin string) *Server {
	s := &Server{
		Router:     mux.NewRouter(),
		Set:        set,
		Metrics:    m,
		CORSOrigin: corsOrigin,
		logger:     logger,
	}
	s.routes()
	return s
}

// Handler is the router wrapped in access logging and CORS.
func (s *Server) Handler() http.Handler {
	return s.cors(s.accessLog(s.Router))
}

func (s *Server) routes() {
	s.Router.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("servicelocator is running"))
	}).Methods(http.MethodGet)

	s.Router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	if s.Metrics != nil {
		s.Router.Handle("/metrics", s.Metrics.Handler()).Methods(http.MethodGet)
	}

	opts := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(encodeError),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(level.Debug(s.logger))),
	}

	all := httptransport.NewServer(s.Set.AllEndpoint, decodeAllRequest, httptransport.EncodeJSONResponse, opts...)
	nearest := httptransport.NewServer(s.Set.NearestEndpoint, decodeNearestRequest, httptransport.EncodeJSONResponse, opts...)
	status := httptransport.NewServer(s.Set.StatusEndpoint, decodeStatusRequest, httptransport.EncodeJSONResponse, opts...)
	create := httptransport.NewServer(s.Set.CreateEndpoint, decodeCreateRequest, httptransport.EncodeJSONResponse, opts...)
	update := httptransport.NewServer(s.Set.UpdateEndpoint, decodeUpdateRequest, httptransport.EncodeJSONResponse, opts...)

	for _, p := range prefixes {
		s.Router.Handle(p, all).Methods(http.MethodGet)
		s.Router.Handle(p+"/all", all).Methods(http.MethodGet)
		s.Router.Handle(p+"/nearest", nearest).Methods(http.MethodGet)
		s.Router.Handle(p+"/status", status).Methods(http.MethodGet)
		s.Router.Handle(p+"/create", create).Methods(http.MethodPost)
		s.Router.Handle(p+"/update", update).Methods(http.MethodPost)
	}
}

func decodeAllRequest(_ context.Context, _ *http.Request) (interface{}, error) {
	return nil, nil
}

func decodeNearestRequest(_ context.Context, r *http.Request) (interface{}, error) {
	q := r.URL.Query()
	rowStr, colStr, typ := q.Get("row"), q.Get("col"), q.Get("serviceType")
	if rowStr == "" || colStr == "" || typ == "" {
		return nil, apperr.Invalid("nearest", "missing required parameters: row, col, serviceType")
	}

	row, err := strconv.Atoi(rowStr)
	if err != nil {
		return nil, apperr.Invalid("nearest", "row %q is not an integer", rowStr)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil {
		return nil, apperr.Invalid("nearest", "col %q is not an integer", colStr)
	}

	return endpoints.NearestRequest{
		At:   model.Cell{Row: row, Col: col},
		Type: model.ServiceType(typ),
	}, nil
}

func decodeStatusRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id := r.URL.Query().Get("serviceId")
	if id == "" {
		return nil, apperr.Invalid("status", "missing required parameter: serviceId")
	}
	return endpoints.StatusRequest{ServiceID: id}, nil
}

// createBody keeps row and col as pointers so an omitted coordinate is told
// apart from an explicit 0.
type createBody struct {
	Location *struct {
		Row *int `json:"row"`
		Col *int `json:"col"`
	} `json:"location"`
	Type   model.ServiceType   `json:"type"`
	Status model.ServiceStatus `json:"status"`
}

func decodeCreateRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var body createBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, apperr.Invalid("create", "malformed body: %v", err)
	}
	if body.Location == nil || body.Location.Row == nil || body.Location.Col == nil ||
		body.Type == "" || body.Status == "" {
		return nil, apperr.Invalid("create", "missing required fields: type, status, or location (row, col)")
	}
	return endpoints.CreateRequest{
		Location: &model.Cell{Row: *body.Location.Row, Col: *body.Location.Col},
		Type:     body.Type,
		Status:   body.Status,
	}, nil
}

func decodeUpdateRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req endpoints.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, apperr.Invalid("update", "malformed body: %v", err)
	}
	if req.ServiceID == "" || req.Status == "" {
		return nil, apperr.Invalid("update", "missing required fields: serviceId, status")
	}
	return req, nil
}

func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	code := apperr.HTTPStatus(err)

	var body interface{}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		body = model.MessageResponse{Message: "No available service found."}
	case errors.Is(err, apperr.ErrServiceNotFound):
		body = model.MessageResponse{Message: "Service not found."}
	case code == http.StatusBadRequest:
		body = map[string]string{"error": err.Error()}
	default:
		body = map[string]string{"error": "Internal server error."}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		begin := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		level.Info(s.logger).Log("http_method", r.Method, "path", r.URL.Path, "status", rec.status, "took", time.Since(begin))
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.allowOrigin(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowOrigin(origin string) bool {
	if s.CORSOrigin == "*" {
		return true
	}
	for _, o := range strings.Split(s.CORSOrigin, ",") {
		if strings.TrimSpace(o) == origin {
			return true
		}
	}
	return false
}
