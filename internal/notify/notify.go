package notify

import (
	"context"
	"time"
)

// Report is a customer-issue summary extracted from a chat conversation.
type Report struct {
	ID         string
	ReceivedAt time.Time
	Excerpts   []string // the user turns that tripped the detector, oldest first
}

// Notifier delivers a report to whoever handles support. Delivery is
// best-effort: callers log failures and move on, there are no retries.
type Notifier interface {
	Send(ctx context.Context, r Report) error
}
