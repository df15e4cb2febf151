package fetch

import (
	"context"

	"github.com/kailas-cloud/smallgiants/internal/transport/work24"
)

// PageSource returns the raw body of one upstream page.
type PageSource interface {
	FetchPage(ctx context.Context, req work24.PageRequest) ([]byte, error)
}
