// Integration suites run the broker against real backing stores. They
// are skipped unless both environment variables are set:
//
//	ZAKU_TEST_REDIS_ADDR  host:port of a Redis Stack instance
//	ZAKU_TEST_MONGO_URI   MongoDB connection string
//
// Each run namespaces its keys under a fresh prefix, so suites can
// share a store with other runs.
package integration

import (
	"context"
	"fmt"
	"net"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vuer-ai/zaku-go/pkg/api"
	"github.com/vuer-ai/zaku-go/pkg/bus"
	"github.com/vuer-ai/zaku-go/pkg/client"
	"github.com/vuer-ai/zaku-go/pkg/config"
	"github.com/vuer-ai/zaku-go/pkg/engine"
	"github.com/vuer-ai/zaku-go/pkg/health"
	"github.com/vuer-ai/zaku-go/pkg/index"
	"github.com/vuer-ai/zaku-go/pkg/payload"
	"github.com/vuer-ai/zaku-go/pkg/pubsub"
)

const (
	envRedis = "ZAKU_TEST_REDIS_ADDR"
	envMongo = "ZAKU_TEST_MONGO_URI"
)

// brokerUnderTest is a broker wired to the stores named by the test
// environment, served over httptest.
type brokerUnderTest struct {
	uri string
	cfg *config.Config
	mi  *index.RedisStore
	ps  *payload.MongoStore
	bus bus.Bus
}

func startRealBroker(t *testing.T) *brokerUnderTest {
	t.Helper()
	if testing.Short() {
		t.Skip("integration suite skipped in short mode")
	}
	redisAddr := os.Getenv(envRedis)
	if redisAddr == "" {
		t.Skipf("%s not set; skipping integration suite", envRedis)
	}
	mongoURI := os.Getenv(envMongo)
	if mongoURI == "" {
		t.Skipf("%s not set; skipping integration suite", envMongo)
	}

	host, portStr, err := net.SplitHostPort(redisAddr)
	require.NoError(t, err, "%s must be host:port", envRedis)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	// A quick TCP probe skips fast when the store is down instead of
	// burning the client's full connect backoff.
	probe := health.NewTCPChecker("redis", redisAddr).WithTimeout(2 * time.Second)
	if res := probe.Check(context.Background()); !res.Healthy {
		t.Skipf("redis at %s is not reachable: %s", redisAddr, res.Message)
	}

	// A fresh prefix per run keeps concurrent suites out of each
	// other's keys.
	cfg := &config.Config{
		Prefix:         fmt.Sprintf("zaku-it-%s", uuid.NewString()[:8]),
		CORS:           []string{"*"},
		RequestMaxSize: 32 << 20,
		StaticRoot:     ".",
		QueueLen:       100,
		TopicTTL:       time.Minute,
		PayloadStore:   config.PayloadStoreMongo,
		Redis:          config.Redis{Host: host, Port: port},
		Mongo:          config.Mongo{URI: mongoURI, Database: "zaku_integration"},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb := index.NewClient(cfg.Redis, config.Sentinel{})
	mi := index.NewRedisStore(rdb, cfg.Prefix)
	if err := mi.WaitReady(ctx); err != nil {
		t.Skipf("redis at %s is not usable: %v", redisAddr, err)
	}

	ps, err := payload.NewMongoStore(ctx, cfg.Mongo)
	require.NoError(t, err)
	if err := ps.WaitReady(ctx); err != nil {
		t.Skipf("mongo at %s is not usable: %v", mongoURI, err)
	}

	psb := bus.NewRedisBus(rdb, cfg.QueueLen)
	jobs := engine.New(mi, ps, cfg.Prefix)
	topics := pubsub.New(psb, ps, mi, cfg.Prefix, cfg.TopicTTL)

	registry := health.NewRegistry()
	registry.Register(health.NewPingChecker("index", mi.Ping))
	registry.Register(health.NewPingChecker("payload", ps.Ping))
	registry.Register(health.NewPingChecker("bus", psb.Ping))

	ts := httptest.NewServer(api.NewServer(cfg, jobs, topics, registry).Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = ps.Close()
		_ = mi.Close()
	})

	return &brokerUnderTest{uri: ts.URL, cfg: cfg, mi: mi, ps: ps, bus: psb}
}

// queue creates a uniquely named queue on the broker and drops it when
// the test finishes.
func (b *brokerUnderTest) queue(t *testing.T, name string) *client.TaskQ {
	t.Helper()
	q, err := client.New(b.uri, fmt.Sprintf("%s-%s", name, uuid.NewString()[:8]))
	require.NoError(t, err)
	require.NoError(t, q.Init(context.Background()))
	t.Cleanup(func() { _ = q.Drop(context.Background()) })
	return q
}
