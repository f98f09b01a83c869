package ports

import (
	"context"
	"time"
)

// RetryQueue schedules failed webhook deliveries for later reprocessing.
type RetryQueue interface {
	// Schedule enqueues one log id with a delay derived from the attempt
	// number.
	Schedule(ctx context.Context, logID string, attempt int) error

	// Due returns the log ids whose scheduled time has passed, removing them
	// from the queue.
	Due(ctx context.Context, now time.Time) ([]string, error)
}
