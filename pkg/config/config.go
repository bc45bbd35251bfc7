package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Payload store backends
const (
	PayloadStoreMongo = "mongo"
	PayloadStoreRedis = "redis"
	PayloadStoreOff   = "off"
)

// Redis holds connection settings for the metadata index and the
// pub/sub bus
type Redis struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r Redis) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Sentinel holds Redis Sentinel settings. Hosts empty means sentinel is
// off and the plain Redis settings apply.
type Sentinel struct {
	Hosts      []string
	Password   string
	MasterName string
	DB         int
	Shuffle    bool
}

// Enabled reports whether sentinel mode is configured
func (s Sentinel) Enabled() bool {
	return len(s.Hosts) > 0
}

// Mongo holds payload store settings. URI, when set, wins over the
// individual fields.
type Mongo struct {
	URI        string
	Host       string
	Port       int
	Username   string
	Password   string
	Database   string
	AuthSource string
}

// ConnString returns the connection URI
func (m Mongo) ConnString() string {
	if m.URI != "" {
		return m.URI
	}
	var cred string
	if m.Username != "" {
		cred = m.Username
		if m.Password != "" {
			cred += ":" + m.Password
		}
		cred += "@"
	}
	uri := fmt.Sprintf("mongodb://%s%s:%d", cred, m.Host, m.Port)
	if m.AuthSource != "" {
		uri += "/?authSource=" + m.AuthSource
	}
	return uri
}

// Config is the full broker configuration, resolved once at startup.
// Precedence: CLI flags > process env > .env file > defaults.
type Config struct {
	Prefix string
	Host   string
	Port   int

	CORS           []string
	Cert           string
	Key            string
	CACert         string
	RequestMaxSize int64
	FreePort       bool
	StaticRoot     string

	QueueLen     int
	TopicTTL     time.Duration
	PayloadStore string

	LogLevel string
	LogJSON  bool

	Redis    Redis
	Sentinel Sentinel
	Mongo    Mongo
}

// envBindings maps viper keys to the environment variables the reference
// deployment uses. The same table drives the .env overlay so both
// sources speak the same names.
var envBindings = map[string]string{
	"prefix":              "ZAKU_PREFIX",
	"host":                "ZAKU_HOST",
	"port":                "ZAKU_PORT",
	"cors":                "ZAKU_CORS",
	"cert":                "ZAKU_CERT",
	"key":                 "ZAKU_KEY",
	"ca_cert":             "ZAKU_CA_CERT",
	"request_max_size":    "WEBSOCKET_MAX_SIZE",
	"free_port":           "ZAKU_FREE_PORT",
	"static_root":         "ZAKU_STATIC_ROOT",
	"queue_len":           "ZAKU_QUEUE_LEN",
	"topic_ttl":           "ZAKU_TOPIC_TTL",
	"payload_store":       "ZAKU_PAYLOAD_STORE",
	"log_level":           "ZAKU_LOG_LEVEL",
	"log_json":            "ZAKU_LOG_JSON",
	"redis.host":          "REDIS_HOST",
	"redis.port":          "REDIS_PORT",
	"redis.password":      "REDIS_PASSWORD",
	"redis.db":            "REDIS_DB",
	"sentinel.hosts":      "SENTINEL_HOSTS",
	"sentinel.password":   "SENTINEL_PASSWORD",
	"sentinel.master":     "SENTINEL_CLUSTER_NAME",
	"sentinel.db":         "SENTINEL_DB",
	"sentinel.shuffle":    "SENTINEL_SHUFFLE",
	"mongo.uri":           "MONGO_URI",
	"mongo.host":          "MONGO_HOST",
	"mongo.port":          "MONGO_PORT",
	"mongo.username":      "MONGO_USERNAME",
	"mongo.password":      "MONGO_PASSWORD",
	"mongo.database":      "MONGO_DATABASE",
	"mongo.auth_source":   "MONGO_AUTH_SOURCE",
}

// setDefaults installs the hard defaults
func setDefaults(v *viper.Viper) {
	v.SetDefault("prefix", "Zaku-task-queues")
	v.SetDefault("host", "")
	v.SetDefault("port", 9000)
	v.SetDefault("cors", "https://vuer.ai,https://dash.ml,http://localhost:8000,http://127.0.0.1:8000,*")
	v.SetDefault("cert", "")
	v.SetDefault("key", "")
	v.SetDefault("ca_cert", "")
	v.SetDefault("request_max_size", int64(100*1024*1024))
	v.SetDefault("free_port", true)
	v.SetDefault("static_root", ".")
	v.SetDefault("queue_len", 100)
	v.SetDefault("topic_ttl", "60s")
	v.SetDefault("payload_store", PayloadStoreMongo)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("sentinel.hosts", "")
	v.SetDefault("sentinel.password", "")
	v.SetDefault("sentinel.master", "mymaster")
	v.SetDefault("sentinel.db", 0)
	v.SetDefault("sentinel.shuffle", true)

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.host", "localhost")
	v.SetDefault("mongo.port", 27017)
	v.SetDefault("mongo.username", "")
	v.SetDefault("mongo.password", "")
	v.SetDefault("mongo.database", "zaku")
	v.SetDefault("mongo.auth_source", "")
}

// Load resolves the configuration. flags may be nil; envFile "" means
// ".env" in the working directory, and a missing file is fine.
func Load(flags *pflag.FlagSet, envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		overlay := viper.New()
		overlay.SetConfigFile(envFile)
		overlay.SetConfigType("env")
		if err := overlay.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		// .env sits between hard defaults and the process environment,
		// so it lands as a default layer.
		for key, envName := range envBindings {
			if overlay.IsSet(envName) {
				v.SetDefault(key, overlay.Get(envName))
			}
		}
	}

	for key, envName := range envBindings {
		if err := v.BindEnv(key, envName); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", envName, err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	cfg := &Config{
		Prefix:         v.GetString("prefix"),
		Host:           v.GetString("host"),
		Port:           v.GetInt("port"),
		CORS:           splitList(v.GetString("cors")),
		Cert:           v.GetString("cert"),
		Key:            v.GetString("key"),
		CACert:         v.GetString("ca_cert"),
		RequestMaxSize: v.GetInt64("request_max_size"),
		FreePort:       v.GetBool("free_port"),
		StaticRoot:     v.GetString("static_root"),
		QueueLen:       v.GetInt("queue_len"),
		TopicTTL:       v.GetDuration("topic_ttl"),
		PayloadStore:   v.GetString("payload_store"),
		LogLevel:       v.GetString("log_level"),
		LogJSON:        v.GetBool("log_json"),
		Redis: Redis{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Sentinel: Sentinel{
			Hosts:      splitList(v.GetString("sentinel.hosts")),
			Password:   v.GetString("sentinel.password"),
			MasterName: v.GetString("sentinel.master"),
			DB:         v.GetInt("sentinel.db"),
			Shuffle:    v.GetBool("sentinel.shuffle"),
		},
		Mongo: Mongo{
			URI:        v.GetString("mongo.uri"),
			Host:       v.GetString("mongo.host"),
			Port:       v.GetInt("mongo.port"),
			Username:   v.GetString("mongo.username"),
			Password:   v.GetString("mongo.password"),
			Database:   v.GetString("mongo.database"),
			AuthSource: v.GetString("mongo.auth_source"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the broker cannot start with
func (c *Config) Validate() error {
	if c.Prefix == "" {
		return fmt.Errorf("prefix must not be empty")
	}
	if strings.ContainsAny(c.Prefix, ": ") {
		return fmt.Errorf("prefix must not contain ':' or spaces, got %q", c.Prefix)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.RequestMaxSize <= 0 {
		return fmt.Errorf("request_max_size must be positive")
	}
	switch c.PayloadStore {
	case PayloadStoreMongo, PayloadStoreRedis, PayloadStoreOff:
	default:
		return fmt.Errorf("payload_store must be one of mongo, redis, off; got %q", c.PayloadStore)
	}
	if (c.Cert == "") != (c.Key == "") {
		return fmt.Errorf("cert and key must be set together")
	}
	if c.TopicTTL <= 0 {
		return fmt.Errorf("topic_ttl must be positive")
	}
	return nil
}

// RegisterFlags declares the broker's CLI flags on the given set. Flag
// names match viper keys so BindPFlags lines everything up.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("prefix", "Zaku-task-queues", "Global namespace prefix for queues")
	flags.String("host", "", "Bind address (empty for all interfaces)")
	flags.Int("port", 9000, "Bind port")
	flags.String("cors", "", "Comma-separated list of allowed CORS origins")
	flags.String("cert", "", "TLS certificate file")
	flags.String("key", "", "TLS key file")
	flags.String("ca_cert", "", "CA certificate for client verification")
	flags.Int64("request_max_size", 100*1024*1024, "Maximum request body size in bytes")
	flags.Bool("free_port", true, "Kill whatever holds the port before binding")
	flags.String("static_root", ".", "Root directory served under /static/")
	flags.Int("queue_len", 100, "Subscriber channel buffer length")
	flags.Duration("topic_ttl", 60*time.Second, "TTL for stored topic message payloads")
	flags.String("payload_store", PayloadStoreMongo, "Payload backend: mongo, redis or off")
	flags.String("log_level", "info", "Log level: debug, info, warn, error")
	flags.Bool("log_json", false, "Emit JSON logs instead of console output")

	flags.String("redis.host", "localhost", "Redis host")
	flags.Int("redis.port", 6379, "Redis port")
	flags.String("redis.password", "", "Redis password")
	flags.Int("redis.db", 0, "Redis database number")

	flags.String("sentinel.hosts", "", "Comma-separated Redis Sentinel host:port list")
	flags.String("sentinel.password", "", "Sentinel password")
	flags.String("sentinel.master", "mymaster", "Sentinel master set name")
	flags.Int("sentinel.db", 0, "Redis database number behind sentinel")
	flags.Bool("sentinel.shuffle", true, "Shuffle sentinel hosts before connecting")

	flags.String("mongo.uri", "", "MongoDB connection URI (overrides host/port)")
	flags.String("mongo.host", "localhost", "MongoDB host")
	flags.Int("mongo.port", 27017, "MongoDB port")
	flags.String("mongo.username", "", "MongoDB username")
	flags.String("mongo.password", "", "MongoDB password")
	flags.String("mongo.database", "zaku", "MongoDB database holding payload collections")
	flags.String("mongo.auth_source", "", "MongoDB auth source database")
}

// splitList splits a comma-separated value, dropping empty entries
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
