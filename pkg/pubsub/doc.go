/*
Package pubsub implements the topic plane: ephemeral fan-out of
messages from publishers to whoever is subscribed at that moment.

Topics are the fast path next to the durable job queue. Nothing is
acknowledged, nothing is replayed; a message published into silence
reaches nobody, and that is reported honestly in the publish receiver
count.

# Architecture

	Publisher                                     Subscribers
	    │                                              ▲
	    │ body                                         │ body
	    ▼                                              │
	┌────────────────────────── PUB/SUB ENGINE ────────┴────────┐
	│                                                           │
	│  Publish:                                                 │
	│    1. msgID = uuid4                                       │
	│    2. payload.Put({prefix}_{queue}_topics, msgID, body)   │
	│    3. index.SetMarker(collection, msgID, topic_ttl)       │
	│    4. bus.Publish({prefix}:{queue}.topics:{topic}, msgID) │
	│                                                           │
	│  Subscribe:                                               │
	│    loop in 100ms slices until deadline                    │
	│      wire = bus.Receive()                                 │
	│      body = wire is UUID-shaped ? payload.Fetch(wire)     │
	│                                  : wire (raw passthrough) │
	└───────────────────────────────────────────────────────────┘

Large bodies never transit the bus. Only the 36-byte message ID does,
and every subscriber fetches the body once from the payload store.

# Degraded Mode

When the payload store is down or configured off, step 2 fails (or is
skipped) and the body itself goes on the wire. Subscribers cannot tell
the difference: anything not shaped like a message ID, and any ID whose
document has already expired, is handed to the caller verbatim. The
price of degraded mode is bus-sized messages, not lost messages.

# Message Lifetime

Stored bodies live for topic_ttl (default 60s), enforced by a marker
key planted next to the document reference. When the marker expires,
the expiration watcher bulk-deletes the stored bodies. A subscriber
that receives an ID after its document expired gets the raw ID bytes,
the same as a missed message.

# Usage

	pse := pubsub.New(b, ps, mi, cfg.Prefix, cfg.TopicTTL)

	// producer side
	n, err := pse.Publish(ctx, "renders", "frames", body)
	// n == 0 means nobody was listening

	// one-shot consumer
	body, err := pse.SubscribeOne(ctx, "renders", "frames", 5*time.Second)
	// body == nil means the window closed quietly

	// streaming consumer
	err := pse.SubscribeStream(ctx, "renders", "frames", 30*time.Second,
	    func(body []byte) error {
	        return stream.Send(body)
	    })

# Deadlines and Cancellation

Subscriber loops never block longer than 100ms at a time, so a caller
deadline or a dropped HTTP connection is observed within one slice.
SubscribeOne returning (nil, nil) and SubscribeStream returning nil
both mean "the window closed quietly"; errors are reserved for broken
transport and bad input.

# Integration Points

This package integrates with:

  - pkg/bus: channel fan-out and subscriber counting
  - pkg/payload: message bodies in {prefix}_{queue}_topics
  - pkg/index: TTL marker keys for the watcher
  - pkg/api: /publish, /subscribe_one and /subscribe_stream endpoints
  - pkg/watcher: deletes expired message bodies

# See Also

  - pkg/engine for the durable job plane
  - pkg/types for channel and collection naming
*/
package pubsub
