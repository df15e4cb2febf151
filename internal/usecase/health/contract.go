package health

import "context"

// CachePinger checks response cache backend availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
