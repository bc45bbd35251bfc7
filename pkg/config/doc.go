/*
Package config resolves the broker configuration from CLI flags, the
process environment and an optional .env file.

Resolution happens once at startup and produces an immutable Config
value that the composition root threads into every component. Nothing
else in the codebase reads the environment.

# Precedence

	┌────────────────────────────────────────────┐
	│  CLI flags          --port 9200             │  highest
	│  Process env        ZAKU_PORT=9100          │
	│  .env file          ZAKU_PORT=9000          │
	│  Hard defaults      9000                    │  lowest
	└────────────────────────────────────────────┘

The .env file is read as a dotenv document and layered in as defaults,
so a value exported in the shell always beats the same name in the file.

# Environment Variables

The broker speaks the reference deployment's names:

	ZAKU_PREFIX, ZAKU_HOST, ZAKU_PORT, ZAKU_CORS
	ZAKU_CERT, ZAKU_KEY, ZAKU_CA_CERT
	WEBSOCKET_MAX_SIZE, ZAKU_FREE_PORT, ZAKU_STATIC_ROOT
	ZAKU_QUEUE_LEN, ZAKU_TOPIC_TTL, ZAKU_PAYLOAD_STORE
	REDIS_HOST, REDIS_PORT, REDIS_PASSWORD, REDIS_DB
	SENTINEL_HOSTS, SENTINEL_PASSWORD, SENTINEL_CLUSTER_NAME, SENTINEL_DB
	MONGO_URI, MONGO_HOST, MONGO_PORT, MONGO_USERNAME, MONGO_PASSWORD,
	MONGO_DATABASE, MONGO_AUTH_SOURCE

Client processes use ZAKU_URI and ZAKU_QUEUE_NAME instead; those are
read by pkg/client, not here.

# Usage

	flags := cmd.Flags()
	config.RegisterFlags(flags)

	cfg, err := config.Load(flags, "")
	if err != nil {
		return err
	}

	srv := api.NewServer(cfg, eng, pse)

# Validation

Load rejects configurations the broker cannot start with: an empty or
colon-bearing prefix (colons would break the key naming contract), a
cert without a key, an unknown payload backend, an out-of-range port.
*/
package config
