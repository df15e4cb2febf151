package fetch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smallgiants/internal/domain"
	"github.com/kailas-cloud/smallgiants/internal/domain/page"
	"github.com/kailas-cloud/smallgiants/internal/domain/record"
	"github.com/kailas-cloud/smallgiants/internal/logger"
	"github.com/kailas-cloud/smallgiants/internal/metrics"
	"github.com/kailas-cloud/smallgiants/internal/transport/work24"
)

// Request describes one multi-page aggregation.
type Request struct {
	Region      string
	PageSize    int
	MaxPages    int
	Delay       time.Duration // between pages
	Retries     int           // extra attempts per page
	BackoffBase time.Duration
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Backoff is the wait after failed attempt n (0-indexed): base * 2^n, no jitter.
func Backoff(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(int64(1)<<attempt)
}

// Service walks upstream pages until the data runs out.
type Service struct {
	source PageSource
	sleep  Sleeper
}

// New creates a paged fetcher.
func New(source PageSource) *Service {
	return &Service{source: source, sleep: sleepCtx}
}

// WithSleeper replaces the delay implementation (tests use a recording no-op).
func (s *Service) WithSleeper(sleep Sleeper) *Service {
	s.sleep = sleep
	return s
}

// FetchAll requests pages 1..MaxPages and returns every record in arrival order.
//
// It stops after the first empty page, once the accumulated count reaches the
// first declared total seen, or at MaxPages. A page that still fails after
// Retries extra attempts aborts the whole aggregation; no partial result is returned.
func (s *Service) FetchAll(ctx context.Context, req Request) ([]record.Record, error) {
	log := logger.FromContext(ctx)
	maxPages := max(req.MaxPages, 1)

	var (
		all           []record.Record
		totalExpected *int
	)
	for n := 1; n <= maxPages; n++ {
		body, err := s.fetchWithRetry(ctx, work24.PageRequest{
			Page:     n,
			PageSize: req.PageSize,
			Region:   req.Region,
		}, req.Retries, req.BackoffBase)
		if err != nil {
			metrics.AggregationsTotal.WithLabelValues("error").Inc()
			return nil, &domain.UpstreamError{Page: n, Err: err}
		}

		p := page.Parse(body)
		metrics.PagesFetchedTotal.Inc()
		if totalExpected == nil && p.Total != nil {
			totalExpected = p.Total
		}
		if len(p.Records) == 0 {
			break
		}

		all = append(all, p.Records...)
		if totalExpected != nil && len(all) >= *totalExpected {
			break
		}
		if n == maxPages {
			break
		}

		if req.Delay > 0 {
			if err := s.sleep(ctx, req.Delay); err != nil {
				return nil, fmt.Errorf("wait before page %d: %w", n+1, err)
			}
		}
	}

	log.Debug("Aggregation complete",
		zap.Int("records", len(all)),
		zap.Any("declared_total", totalExpected),
	)
	metrics.AggregationsTotal.WithLabelValues("success").Inc()
	return all, nil
}

// fetchWithRetry makes up to retries+1 attempts and returns the last error on exhaustion.
func (s *Service) fetchWithRetry(
	ctx context.Context, req work24.PageRequest, retries int, base time.Duration,
) ([]byte, error) {
	log := logger.FromContext(ctx)

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		body, err := s.source.FetchPage(ctx, req)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if attempt == retries {
			break
		}
		delay := Backoff(base, attempt)
		log.Warn("Upstream page request failed, retrying",
			zap.Int("page", req.Page),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		metrics.UpstreamRetriesTotal.Inc()
		if err := s.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("backoff: %w", err)
		}
	}
	return nil, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
