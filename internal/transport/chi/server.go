// Package chi exposes the aggregation service over HTTP.
package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/smallgiants/internal/domain"
	"github.com/kailas-cloud/smallgiants/internal/domain/query"
	"github.com/kailas-cloud/smallgiants/internal/domain/region"
	"github.com/kailas-cloud/smallgiants/internal/domain/result"
	"github.com/kailas-cloud/smallgiants/internal/logger"
	aggregateuc "github.com/kailas-cloud/smallgiants/internal/usecase/aggregate"
	healthuc "github.com/kailas-cloud/smallgiants/internal/usecase/health"
)

// Route paths.
const (
	PathSmallGiants    = "/api/smallgiants"
	PathSmallGiantsCSV = "/api/smallgiants.csv"
	PathHealth         = "/api/health"
	PathRegions        = "/api/regions"
	PathMetrics        = "/metrics"
)

const csvFilename = "smallgiants.csv"

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers.
type Server struct {
	aggregate     *aggregateuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	OK                 bool                            `json:"ok"`
	HasWork24AuthKey   bool                            `json:"hasWork24AuthKey"`
	HasWork24CommonKey bool                            `json:"hasWork24CommonKey"`
	Checks             map[string]healthuc.CheckResult `json:"checks,omitempty"`
}

// RegionsResponse is the body of GET /api/regions.
type RegionsResponse struct {
	Items []region.Region `json:"items"`
}

// NewServer creates an HTTP API server.
func NewServer(aggregate *aggregateuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		aggregate: aggregate,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrMissingCredential, http.StatusInternalServerError,
			func(error) string { return "Missing WORK24_AUTH_KEY" }),
		sentinelHandler(domain.ErrUpstream, http.StatusBadGateway, upstreamMessage),
	}
	return s
}

// Register mounts every route on r.
func (s *Server) Register(r chi.Router) {
	r.Get(PathSmallGiants, s.SmallGiants)
	r.Get(PathSmallGiantsCSV, s.SmallGiantsCSV)
	r.Get(PathHealth, s.HealthCheck)
	r.Get(PathRegions, s.Regions)
	r.Get(PathMetrics, s.Metrics)
}

// SmallGiants handles GET /api/smallgiants.
func (s *Server) SmallGiants(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, query.FromValues(r.URL.Query()))
}

// SmallGiantsCSV handles GET /api/smallgiants.csv; the format parameter is ignored.
func (s *Server) SmallGiantsCSV(w http.ResponseWriter, r *http.Request) {
	shape := query.FromValues(r.URL.Query())
	shape.Format = query.CSV
	s.serve(w, r, shape)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, shape query.Shape) {
	ctx := logger.With(r.Context(),
		zap.String("region", shape.Region),
		zap.String("company", shape.Company),
		zap.String("format", string(shape.Format)),
	)

	res, err := s.aggregate.Run(ctx, shape)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if shape.Format == query.CSV {
		s.writeCSV(w, res)
		return
	}
	writeJSON(w, http.StatusOK, result.Envelope{Result: res, Meta: s.aggregate.Meta()})
}

// HealthCheck handles GET /api/health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		OK:                 report.Status == healthuc.Healthy,
		HasWork24AuthKey:   report.Credentials.AuthKeyPresent,
		HasWork24CommonKey: report.Credentials.CommonKeyPresent,
		Checks:             report.Checks,
	})
}

// Regions handles GET /api/regions.
func (s *Server) Regions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RegionsResponse{Items: region.All()})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// writeCSV renders into a buffer first so an encoding failure can still become a 500.
func (s *Server) writeCSV(w http.ResponseWriter, res result.Result) {
	var buf bytes.Buffer
	if err := result.WriteCSV(&buf, res.Items); err != nil {
		s.logger.Error("csv encoding failed", zap.Error(err))
		writeText(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+csvFilename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false) // company names often contain '&'
	_ = enc.Encode(v)
}

func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}

// upstreamMessage includes the failing page and transport detail, never the request URL.
func upstreamMessage(err error) string {
	detail := err.Error()
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		detail = ue.Error()
	}
	return "Upstream request failed: " + detail
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, message func(error) string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeText(w, status, message(err))
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeText(w, http.StatusInternalServerError, "internal error")
}
