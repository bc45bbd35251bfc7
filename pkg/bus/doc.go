// Package bus implements the pub/sub plane: at-most-once fan-out from
// publishers to whoever is subscribed at that instant. Nothing is
// stored and nothing is replayed; durability belongs to the payload
// store.
//
// # Channel naming
//
// Topic channels follow the key contract from pkg/types:
//
//	{prefix}:{queue}.topics:{topic_id}
//
// The expiration watcher uses the same bus for Redis keyspace
// notifications:
//
//	__keyevent@{db}__:expired
//
// # Receive model
//
// Subscriptions expose one blocking call with a bounded wait:
//
//	sub, _ := b.Subscribe(ctx, channel)
//	for {
//	    msg, err := sub.Receive(ctx, 100*time.Millisecond)
//	    if errors.Is(err, bus.ErrTimeout) {
//	        continue // poll slice elapsed, check deadline and loop
//	    }
//	    ...
//	}
//
// Short slices keep subscribers responsive to caller deadlines and
// shutdown without a dedicated reader goroutine per connection.
//
// # Implementations
//
//	RedisBus    production. Publish reports the subscriber count as
//	            returned by Redis. Subscribe blocks until the server
//	            acks the subscription, so a publish issued after
//	            Subscribe returns is never missed.
//	MemoryBus   embedded mode and tests. Per-subscriber buffers of 50
//	            messages; slow consumers drop, publishers never block.
//
// # Integration points
//
//   - pkg/pubsub publishes topic messages and runs subscriber loops
//   - pkg/watcher pattern-subscribes to expired-key notifications
//   - pkg/api reports Publish receiver counts back to producers
package bus
