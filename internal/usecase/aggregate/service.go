package aggregate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smallgiants/internal/domain"
	"github.com/kailas-cloud/smallgiants/internal/domain/match"
	"github.com/kailas-cloud/smallgiants/internal/domain/query"
	"github.com/kailas-cloud/smallgiants/internal/domain/result"
	"github.com/kailas-cloud/smallgiants/internal/logger"
	"github.com/kailas-cloud/smallgiants/internal/usecase/fetch"
)

// Credentials are the upstream keys read at startup.
type Credentials struct {
	AuthKey   string
	CommonKey string
}

// Service answers small giants queries: cache, then fetch and filter.
type Service struct {
	fetcher Fetcher
	cache   Cache
	creds   Credentials
	logger  *zap.Logger
}

// New creates an aggregation service. cache can be nil.
func New(fetcher Fetcher, cache Cache, creds Credentials, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{fetcher: fetcher, cache: cache, creds: creds, logger: logger}
}

// Meta reports which credentials are configured.
func (s *Service) Meta() result.Meta {
	return result.Meta{
		AuthKeyPresent:   s.creds.AuthKey != "",
		CommonKeyPresent: s.creds.CommonKey != "",
	}
}

// Run returns the filtered records for shape.
//
// The shape is clamped first, so equivalent requests share one cache entry.
// Fetching ignores cancellation of ctx: a client that goes away does not abort an
// aggregation another identical request may be about to reuse.
func (s *Service) Run(ctx context.Context, shape query.Shape) (result.Result, error) {
	if s.creds.AuthKey == "" {
		return result.Result{}, domain.ErrMissingCredential
	}

	shape = shape.Clamped()
	key := shape.Key()
	log := logger.FromContextOr(ctx, s.logger)
	ctx = logger.ContextWithLogger(ctx, log)

	if s.cache != nil {
		if res, ok := s.cache.Get(ctx, key); ok {
			log.Debug("Serving cached result", zap.Int("count", res.Count))
			return res, nil
		}
	}

	start := time.Now()
	records, err := s.fetcher.FetchAll(context.WithoutCancel(ctx), fetch.Request{
		Region:      shape.Region,
		PageSize:    shape.Display,
		MaxPages:    shape.MaxPages,
		Delay:       shape.Sleep(),
		Retries:     shape.Retries,
		BackoffBase: shape.Backoff(),
	})
	if err != nil {
		log.Warn("Aggregation failed", zap.Error(err))
		return result.Result{}, err
	}

	res := result.New(match.Filter(records, shape.Company, shape.Match, shape.Normalize))
	log.Info("Aggregation finished",
		zap.String("region", shape.Region),
		zap.String("company", shape.Company),
		zap.Int("fetched", len(records)),
		zap.Int("matched", res.Count),
		zap.Duration("elapsed", time.Since(start)),
	)

	if s.cache != nil {
		s.cache.Set(ctx, key, res)
	}
	return res, nil
}
