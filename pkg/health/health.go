package health

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Result represents the outcome of a health check
type Result struct {
	Healthy   bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Checker is the interface that all health checkers must implement
type Checker interface {
	// Check performs the health check and returns the result
	Check(ctx context.Context) Result

	// Name identifies the dependency being checked (e.g. "redis")
	Name() string
}

// Registry holds the broker's dependency checks and answers readiness
// queries by running all of them.
type Registry struct {
	mu       sync.RWMutex
	checkers []Checker
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a checker to the registry
func (r *Registry) Register(c Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers = append(r.checkers, c)
}

// Check runs every registered checker and returns the results keyed by
// checker name.
func (r *Registry) Check(ctx context.Context) map[string]Result {
	r.mu.RLock()
	checkers := make([]Checker, len(r.checkers))
	copy(checkers, r.checkers)
	r.mu.RUnlock()

	results := make(map[string]Result, len(checkers))
	for _, c := range checkers {
		results[c.Name()] = c.Check(ctx)
	}
	return results
}

// Healthy reports whether every registered check passes
func (r *Registry) Healthy(ctx context.Context) bool {
	return len(r.failing(ctx)) == 0
}

// Wait polls the registry until every check passes or the context
// expires. The returned error names the checks still failing.
func (r *Registry) Wait(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		failing := r.failing(ctx)
		if len(failing) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up waiting for %s: %w", strings.Join(failing, ", "), ctx.Err())
		case <-ticker.C:
		}
	}
}

// failing returns the sorted names of checks that do not pass
func (r *Registry) failing(ctx context.Context) []string {
	var names []string
	for name, result := range r.Check(ctx) {
		if !result.Healthy {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
