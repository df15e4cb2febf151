package aggregate

import (
	"context"

	"github.com/kailas-cloud/smallgiants/internal/domain/record"
	"github.com/kailas-cloud/smallgiants/internal/domain/result"
	"github.com/kailas-cloud/smallgiants/internal/usecase/fetch"
)

// Fetcher walks the upstream pages for one request.
type Fetcher interface {
	FetchAll(ctx context.Context, req fetch.Request) ([]record.Record, error)
}

// Cache memoizes results by query shape key.
type Cache interface {
	Get(ctx context.Context, key string) (result.Result, bool)
	Set(ctx context.Context, key string, res result.Result)
}
