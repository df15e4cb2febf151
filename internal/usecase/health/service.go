package health

import (
	"context"
	"time"

	"github.com/kailas-cloud/smallgiants/internal/domain/result"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

const pingTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	// Credentials reports configured upstream keys; a missing key does not degrade
	// the service, requests fail individually instead.
	Credentials result.Meta
}

// Service coordinates health checks.
type Service struct {
	cache CachePinger
	creds result.Meta
}

// New creates a Service. cache can be nil when no external backend is used.
func New(cache CachePinger, creds result.Meta) *Service {
	return &Service{cache: cache, creds: creds}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.cache != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := s.cache.Ping(pingCtx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, Credentials: s.creds}
}
