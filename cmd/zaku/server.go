package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/vuer-ai/zaku-go/pkg/api"
	"github.com/vuer-ai/zaku-go/pkg/bus"
	"github.com/vuer-ai/zaku-go/pkg/config"
	"github.com/vuer-ai/zaku-go/pkg/engine"
	"github.com/vuer-ai/zaku-go/pkg/health"
	"github.com/vuer-ai/zaku-go/pkg/index"
	"github.com/vuer-ai/zaku-go/pkg/log"
	"github.com/vuer-ai/zaku-go/pkg/metrics"
	"github.com/vuer-ai/zaku-go/pkg/network"
	"github.com/vuer-ai/zaku-go/pkg/payload"
	"github.com/vuer-ai/zaku-go/pkg/pubsub"
	"github.com/vuer-ai/zaku-go/pkg/watcher"
)

// bootTimeout bounds startup pings; shutdownTimeout bounds the drain.
const (
	bootTimeout     = 30 * time.Second
	shutdownTimeout = 15 * time.Second
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the Zaku broker",
	Long: `Run the Zaku broker: the HTTP surface for queues and topics, the
expiration watcher and the metrics collector, wired to Redis and the
configured payload store.

The metadata index must be reachable at startup; the payload store may
come up late, in which case payload-bearing requests fail until it does.`,
	RunE: runServer,
}

func init() {
	config.RegisterFlags(serverCmd.Flags())
	serverCmd.Flags().String("env-file", "", "Path to a .env file layered below flags and process env")
}

func runServer(cmd *cobra.Command, args []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(cmd.Flags(), envFile)
	if err != nil {
		return err
	}

	log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})

	if err := network.EnsureFree(cfg.Port, cfg.FreePort); err != nil {
		return fmt.Errorf("port %d is not available: %w", cfg.Port, err)
	}

	bootCtx, cancel := context.WithTimeout(context.Background(), bootTimeout)
	defer cancel()

	rdb := index.NewClient(cfg.Redis, cfg.Sentinel)
	mi := index.NewRedisStore(rdb, cfg.Prefix)
	if err := mi.WaitReady(bootCtx); err != nil {
		return fmt.Errorf("metadata index is not reachable: %w", err)
	}
	fmt.Println("✓ Metadata index ready")

	ps, topicPS, err := openPayloadStore(bootCtx, cfg, rdb)
	if err != nil {
		return err
	}
	defer ps.Close()

	psb := bus.NewRedisBus(rdb, cfg.QueueLen)

	jobs := engine.New(mi, ps, cfg.Prefix)
	topics := pubsub.New(psb, topicPS, mi, cfg.Prefix, cfg.TopicTTL)

	// Payload GC rides the same Redis connection as the index.
	if err := mi.EnableExpiryEvents(bootCtx); err != nil {
		log.Warn(fmt.Sprintf("Could not enable key expiry notifications: %v (payload GC needs notify-keyspace-events Ex)", err))
	}
	gc := watcher.New(psb, ps, cfg.Prefix, redisDB(cfg))
	if err := gc.Start(); err != nil {
		return fmt.Errorf("expiration watcher failed to start: %w", err)
	}
	fmt.Println("✓ Expiration watcher started")

	collector := metrics.NewCollector(mi)
	collector.Start()
	fmt.Println("✓ Metrics collector started")

	registry := health.NewRegistry()
	registry.Register(health.NewPingChecker("index", mi.Ping))
	registry.Register(health.NewPingChecker("payload", ps.Ping))
	registry.Register(health.NewPingChecker("bus", psb.Ping))

	srv := api.NewServer(cfg, jobs, topics, registry)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	fmt.Println()
	fmt.Println("Broker is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nShutting down...")
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "\nBroker error: %v\n", err)
	}

	stopCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Stop(stopCtx); err != nil {
		log.Warn(fmt.Sprintf("Server drain incomplete: %v", err))
	}
	collector.Stop()
	gc.Stop()
	if err := mi.Close(); err != nil {
		log.Warn(fmt.Sprintf("Closing metadata index: %v", err))
	}

	fmt.Println("✓ Shutdown complete")
	return nil
}

// openPayloadStore builds the job payload store and the topic payload
// store for the configured backend. A nil topic store sends topic
// payloads raw on the channel.
//
// An unreachable Mongo is not fatal: the broker starts degraded and
// payload-bearing requests fail until the store comes up.
func openPayloadStore(ctx context.Context, cfg *config.Config, rdb *redis.Client) (payload.Store, payload.Store, error) {
	switch cfg.PayloadStore {
	case config.PayloadStoreMongo:
		ms, err := payload.NewMongoStore(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, fmt.Errorf("payload store configuration: %w", err)
		}
		if err := ms.WaitReady(ctx); err != nil {
			log.Warn(fmt.Sprintf("Payload store is not reachable, starting degraded: %v", err))
		} else {
			fmt.Println("✓ Payload store ready (mongo)")
		}
		return ms, ms, nil
	case config.PayloadStoreRedis:
		rs := payload.NewRedisStore(rdb, cfg.Prefix)
		fmt.Println("✓ Payload store ready (redis)")
		return rs, rs, nil
	default: // off
		fmt.Println("✓ Payload store off: job payloads held in broker memory, topic payloads raw on the wire")
		return payload.NewMemoryStore(), nil, nil
	}
}

// redisDB is the database number the broker's keys land in, which is
// where the watcher must listen for expiry events.
func redisDB(cfg *config.Config) int {
	if cfg.Sentinel.Enabled() {
		return cfg.Sentinel.DB
	}
	return cfg.Redis.DB
}
