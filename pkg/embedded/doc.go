/*
Package embedded runs a complete Zaku broker inside the current process.

The broker serves the same HTTP surface as the networked one, but every
backend is in-memory: the metadata index, the payload store and the
pub/sub bus. Nothing is persisted and nothing survives the process, so
the package suits tests, local development and programs that want a
private work queue without standing up Redis.

	b := embedded.New(nil)
	if err := b.Start(); err != nil { ... }
	defer b.Stop(ctx)

	q, _ := b.Queue("jobs")
	q.Init(ctx)
	q.Add(ctx, payload)

Callers that do not need HTTP at all can reach the engines directly
through Jobs and Topics, or mount Handler under their own server.

Topic payloads ride the bus raw rather than through the payload store,
matching the networked broker's payload_store=off mode.
*/
package embedded
