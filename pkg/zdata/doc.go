/*
Package zdata is the payload envelope producers and consumers agree
on. The broker never parses it; payloads cross the wire as opaque
bytes and only the two ends know the shape inside.

A payload is a msgpack map. Plain values encode as themselves. Binary
values (images, array buffers, tensor buffers) are wrapped in a tagged
blob map {ztype, b, dtype?, shape?} so the consumer knows how to
reconstitute them without guessing:

	payload := map[string]any{
	    "camera": zdata.Image(pngBytes),
	    "pose":   zdata.NDArray(buf, "float32", 4, 4),
	    "step":   12,
	}
	b, err := zdata.Encode(payload, true)

Encoding with greedy set stamps a _greedy flag into the map; Decode
sees the flag, strips it, and turns tagged blob maps back into *Blob
values. Without the flag the map round-trips untouched, blobs and all,
which keeps plain payloads cheap.

The ztype names use the producer ecosystem's own type names
("numpy.ndarray", "torch.Tensor") so a payload written by one client
library is legible to another. The bytes themselves are whatever the
producer chose (raw buffers, PNG, pickled data); dtype and shape are
hints, not a schema.

# See Also

  - pkg/wire for the msgpack settings this package encodes with
  - pkg/client for the SDK methods that accept these maps
*/
package zdata
