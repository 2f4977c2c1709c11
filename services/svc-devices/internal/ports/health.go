package ports

import "context"

// DatabaseHealthChecker reports whether the backing store is reachable.
type DatabaseHealthChecker interface {
	Ping(ctx context.Context) error
}
