// Command zaku-gc is the standalone payload garbage collector. It is
// the same engine as "zaku gc", packaged for operators who schedule GC
// separately from the broker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/vuer-ai/zaku-go/pkg/bus"
	"github.com/vuer-ai/zaku-go/pkg/config"
	"github.com/vuer-ai/zaku-go/pkg/index"
	"github.com/vuer-ai/zaku-go/pkg/log"
	"github.com/vuer-ai/zaku-go/pkg/payload"
	"github.com/vuer-ai/zaku-go/pkg/watcher"
)

const bootTimeout = 30 * time.Second

func main() {
	flags := pflag.NewFlagSet("zaku-gc", pflag.ExitOnError)
	config.RegisterFlags(flags)
	envFile := flags.String("env-file", "", "Path to a .env file layered below flags and process env")
	_ = flags.Parse(os.Args[1:])

	if err := run(flags, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(flags *pflag.FlagSet, envFile string) error {
	cfg, err := config.Load(flags, envFile)
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

	db := cfg.Redis.DB
	if cfg.Sentinel.Enabled() {
		db = cfg.Sentinel.DB
	}
	gc := watcher.New(bus.NewRedisBus(rdb, cfg.QueueLen), ps, cfg.Prefix, db)
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
