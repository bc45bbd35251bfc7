package health

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"
)

func TestRegistry_AllHealthy(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NewPingChecker("redis", func(ctx context.Context) error { return nil }))
	registry.Register(NewPingChecker("mongo", func(ctx context.Context) error { return nil }))

	ctx := context.Background()
	if !registry.Healthy(ctx) {
		t.Error("Expected registry with passing checks to be healthy")
	}

	results := registry.Check(ctx)
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	for name, result := range results {
		if !result.Healthy {
			t.Errorf("Expected %s to be healthy: %s", name, result.Message)
		}
	}
}

func TestRegistry_ReportsFailingCheck(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NewPingChecker("redis", func(ctx context.Context) error { return nil }))
	registry.Register(NewPingChecker("mongo", func(ctx context.Context) error {
		return errors.New("connection refused")
	}))

	ctx := context.Background()
	if registry.Healthy(ctx) {
		t.Error("Expected registry with a failing check to be unhealthy")
	}

	results := registry.Check(ctx)
	if results["redis"].Healthy != true {
		t.Error("Expected redis check to pass")
	}
	if results["mongo"].Healthy != false {
		t.Error("Expected mongo check to fail")
	}
}

func TestRegistry_WaitUntilHealthy(t *testing.T) {
	// Check starts failing and flips after two attempts
	var attempts atomic.Int32
	registry := NewRegistry()
	registry.Register(NewPingChecker("redis", func(ctx context.Context) error {
		if attempts.Add(1) < 3 {
			return errors.New("not yet")
		}
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := registry.Wait(ctx, 10*time.Millisecond); err != nil {
		t.Fatalf("Expected wait to succeed, got %v", err)
	}
	if attempts.Load() < 3 {
		t.Errorf("Expected at least 3 attempts, got %d", attempts.Load())
	}
}

func TestRegistry_WaitGivesUp(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NewPingChecker("mongo", func(ctx context.Context) error {
		return errors.New("down")
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := registry.Wait(ctx, 10*time.Millisecond)
	if err == nil {
		t.Fatal("Expected wait to fail")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline error, got %v", err)
	}
}

func TestPingChecker_ReportsError(t *testing.T) {
	checker := NewPingChecker("redis", func(ctx context.Context) error {
		return errors.New("broken pipe")
	})

	result := checker.Check(context.Background())
	if result.Healthy {
		t.Error("Expected unhealthy result")
	}
	if result.Message == "" {
		t.Error("Expected message carrying the ping error")
	}
}

func TestTCPChecker_OpenPort(t *testing.T) {
	// Listen on an ephemeral port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	defer listener.Close()

	checker := NewTCPChecker("redis", listener.Addr().String())

	result := checker.Check(context.Background())
	if !result.Healthy {
		t.Errorf("Expected healthy, got unhealthy: %s", result.Message)
	}
}

func TestTCPChecker_ClosedPort(t *testing.T) {
	// Grab a port and release it so nothing listens there
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	address := listener.Addr().String()
	_ = listener.Close()

	checker := NewTCPChecker("redis", address).WithTimeout(time.Second)

	result := checker.Check(context.Background())
	if result.Healthy {
		t.Error("Expected unhealthy result for closed port")
	}
}
