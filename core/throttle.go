package core

import (
	"context"
	"time"
)

// Throttler limits the number of attempts made under a key.
type Throttler interface {
	// Allow records an attempt under key. When the attempt is over the limit,
	// it returns false and the time left before new attempts are allowed.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}
