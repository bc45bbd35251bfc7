package embedded

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vuer-ai/zaku-go/pkg/api"
	"github.com/vuer-ai/zaku-go/pkg/bus"
	"github.com/vuer-ai/zaku-go/pkg/client"
	"github.com/vuer-ai/zaku-go/pkg/config"
	"github.com/vuer-ai/zaku-go/pkg/engine"
	"github.com/vuer-ai/zaku-go/pkg/health"
	"github.com/vuer-ai/zaku-go/pkg/index"
	"github.com/vuer-ai/zaku-go/pkg/log"
	"github.com/vuer-ai/zaku-go/pkg/payload"
	"github.com/vuer-ai/zaku-go/pkg/pubsub"
)

// Config tunes the embedded broker. The zero value is usable: an
// ephemeral loopback port, the default prefix and the broker's usual
// buffer sizes.
type Config struct {
	Prefix         string        // queue namespace, default "Zaku-task-queues"
	Addr           string        // listen address, default "127.0.0.1:0"
	QueueLen       int           // subscriber channel buffer, default 100
	TopicTTL       time.Duration // stored topic message TTL, default 60s
	RequestMaxSize int64         // request body cap, default 100 MB
}

// Broker is a complete Zaku broker running inside the current process:
// memory-backed metadata index, payload store and pub/sub bus behind
// the same HTTP surface the networked broker serves. Nothing survives
// the process.
type Broker struct {
	cfg    *config.Config
	jobs   *engine.Engine
	topics *pubsub.Engine
	srv    *api.Server

	http *http.Server
	lis  net.Listener
	addr string
}

// New assembles an embedded broker. Call Start to serve it over
// loopback, or use Handler to mount it yourself.
func New(cfg *Config) *Broker {
	if cfg == nil {
		cfg = &Config{}
	}
	full := &config.Config{
		Prefix:         cfg.Prefix,
		CORS:           []string{"*"},
		RequestMaxSize: cfg.RequestMaxSize,
		StaticRoot:     ".",
		QueueLen:       cfg.QueueLen,
		TopicTTL:       cfg.TopicTTL,
		PayloadStore:   config.PayloadStoreOff,
	}
	if full.Prefix == "" {
		full.Prefix = "Zaku-task-queues"
	}
	if full.QueueLen <= 0 {
		full.QueueLen = 100
	}
	if full.TopicTTL <= 0 {
		full.TopicTTL = 60 * time.Second
	}
	if full.RequestMaxSize <= 0 {
		full.RequestMaxSize = 100 * 1024 * 1024
	}

	mi := index.NewMemoryStore()
	ps := payload.NewMemoryStore()
	psb := bus.NewMemoryBus()

	jobs := engine.New(mi, ps, full.Prefix)
	// Topic payloads ride the bus raw; without a watcher in-process,
	// store-and-forward would never reclaim them.
	topics := pubsub.New(psb, nil, mi, full.Prefix, full.TopicTTL)

	registry := health.NewRegistry()
	registry.Register(health.NewPingChecker("index", mi.Ping))
	registry.Register(health.NewPingChecker("payload", ps.Ping))
	registry.Register(health.NewPingChecker("bus", psb.Ping))

	return &Broker{
		cfg:    full,
		jobs:   jobs,
		topics: topics,
		srv:    api.NewServer(full, jobs, topics, registry),
		addr:   cfg.Addr,
	}
}

// Start binds the configured address and serves in the background.
// After Start returns, URI points at the live broker.
func (b *Broker) Start() error {
	addr := b.addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("embedded broker failed to listen on %s: %w", addr, err)
	}
	b.lis = lis
	b.http = &http.Server{Handler: b.srv.Handler()}
	go func() {
		if err := b.http.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(fmt.Sprintf("Embedded broker stopped serving: %v", err))
		}
	}()
	lg := log.WithComponent("embedded")
	lg.Info().Str("addr", lis.Addr().String()).Msg("Embedded broker listening")
	return nil
}

// Stop drains in-flight requests and releases the listener.
func (b *Broker) Stop(ctx context.Context) error {
	if b.http == nil {
		return nil
	}
	return b.http.Shutdown(ctx)
}

// URI is the http address of the running broker, for handing to the
// client SDK. Empty before Start.
func (b *Broker) URI() string {
	if b.lis == nil {
		return ""
	}
	return "http://" + b.lis.Addr().String()
}

// Handler exposes the broker's HTTP surface without a listener, for
// mounting under an existing server or httptest.
func (b *Broker) Handler() http.Handler {
	return b.srv.Handler()
}

// Jobs is the job engine, for callers that want to skip HTTP entirely.
func (b *Broker) Jobs() *engine.Engine { return b.jobs }

// Topics is the pub/sub engine behind the broker.
func (b *Broker) Topics() *pubsub.Engine { return b.topics }

// Queue returns a client bound to a queue on this broker. The broker
// must be started.
func (b *Broker) Queue(name string) (*client.TaskQ, error) {
	if b.lis == nil {
		return nil, fmt.Errorf("embedded broker is not started")
	}
	return client.New(b.URI(), name)
}
