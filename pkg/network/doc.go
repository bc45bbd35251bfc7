/*
Package network handles the broker's port preflight.

# Architecture

Before the HTTP server binds, the broker checks that its configured
port is actually free. In the default development posture (free_port
enabled) a conflicting listener is assumed to be a previous broker
that did not shut down cleanly, and it is terminated:

	EnsureFree(port, takeOver)
	    │
	    ├─ bindable? ──────────────▶ done
	    │
	    ├─ takeOver off ───────────▶ error, fail fast
	    │
	    └─ ListeningPIDs(port)      (/proc/net/tcp + fd walk)
	           │ SIGTERM each
	           ▼
	       re-check bind, up to 2s

Listener discovery reads /proc/net/tcp and /proc/net/tcp6 for sockets
in LISTEN state on the port, then walks /proc/<pid>/fd looking for the
matching socket inodes. This requires Linux and only sees processes
the broker's user may inspect.

# Safety

The calling process is never signalled. If the port turns out to be
held by the broker itself, EnsureFree reports an error instead of
committing suicide. Only SIGTERM is sent; a listener that ignores it
keeps the port and the takeover fails after a two second grace.

# Usage

	if err := network.EnsureFree(cfg.Port, cfg.FreePort); err != nil {
	    log.Fatal(fmt.Sprintf("Port preflight failed: %v", err))
	}

# Integration Points

  - cmd/zaku: preflight before starting the API server
  - pkg/config: the free_port setting

# See Also

  - pkg/api for the server that binds the port afterwards
*/
package network
