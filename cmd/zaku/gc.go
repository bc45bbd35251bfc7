package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vuer-ai/zaku-go/pkg/bus"
	"github.com/vuer-ai/zaku-go/pkg/config"
	"github.com/vuer-ai/zaku-go/pkg/index"
	"github.com/vuer-ai/zaku-go/pkg/log"
	"github.com/vuer-ai/zaku-go/pkg/payload"
	"github.com/vuer-ai/zaku-go/pkg/watcher"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Run the expiration watcher on its own",
	Long: `Run only the payload garbage collector: listen for Redis key expiry
events and delete the payload documents the expired markers point at.

Use this when the broker runs with its own watcher disabled, or to
drain a backlog of expired payloads. Requires payload_store mongo or
redis; with the store off there is nothing to collect.`,
	RunE: runGC,
}

func init() {
	config.RegisterFlags(gcCmd.Flags())
	gcCmd.Flags().String("env-file", "", "Path to a .env file layered below flags and process env")
}

func runGC(cmd *cobra.Command, args []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(cmd.Flags(), envFile)
	if err != nil {
		return err
	}
	if cfg.PayloadStore == config.PayloadStoreOff {
		return fmt.Errorf("payload_store is off: no external payloads to collect")
	}

	log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})

	bootCtx, cancel := context.WithTimeout(context.Background(), bootTimeout)
	defer cancel()

	rdb := index.NewClient(cfg.Redis, cfg.Sentinel)
	mi := index.NewRedisStore(rdb, cfg.Prefix)
	if err := mi.WaitReady(bootCtx); err != nil {
		return fmt.Errorf("metadata index is not reachable: %w", err)
	}
	defer mi.Close()

	var ps payload.Store
	if cfg.PayloadStore == config.PayloadStoreMongo {
		ms, err := payload.NewMongoStore(bootCtx, cfg.Mongo)
		if err != nil {
			return fmt.Errorf("payload store configuration: %w", err)
		}
		if err := ms.WaitReady(bootCtx); err != nil {
			return fmt.Errorf("payload store is not reachable: %w", err)
		}
		ps = ms
	} else {
		ps = payload.NewRedisStore(rdb, cfg.Prefix)
	}
	defer ps.Close()

	if err := mi.EnableExpiryEvents(bootCtx); err != nil {
		log.Warn(fmt.Sprintf("Could not enable key expiry notifications: %v (payload GC needs notify-keyspace-events Ex)", err))
	}

	gc := watcher.New(bus.NewRedisBus(rdb, cfg.QueueLen), ps, cfg.Prefix, redisDB(cfg))
	if err := gc.Start(); err != nil {
		return fmt.Errorf("expiration watcher failed to start: %w", err)
	}

	fmt.Println("✓ Expiration watcher running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down...")
	gc.Stop()
	fmt.Println("✓ Shutdown complete")
	return nil
}
