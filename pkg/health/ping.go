package health

import (
	"context"
	"fmt"
	"time"
)

// PingChecker adapts a store's Ping method into a health check. Both
// the metadata index and the payload store expose Ping; the broker
// registers one checker per backing store.
type PingChecker struct {
	name    string
	timeout time.Duration
	ping    func(ctx context.Context) error
}

// NewPingChecker creates a checker that calls ping with a bounded
// context on every check.
func NewPingChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{
		name:    name,
		timeout: 5 * time.Second,
		ping:    ping,
	}
}

// Check performs the ping
func (p *PingChecker) Check(ctx context.Context) Result {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.ping(ctx); err != nil {
		return Result{
			Healthy:   false,
			Message:   fmt.Sprintf("ping failed: %v", err),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}

	return Result{
		Healthy:   true,
		Message:   "ping ok",
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}

// Name returns the checker name
func (p *PingChecker) Name() string {
	return p.name
}

// WithTimeout sets the per-check timeout
func (p *PingChecker) WithTimeout(timeout time.Duration) *PingChecker {
	p.timeout = timeout
	return p
}
