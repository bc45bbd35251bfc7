/*
Package wire pins down the broker's msgpack configuration and declares
the request/response shapes of the HTTP API.

Every encoder and decoder in the module comes from this package, so
the codec settings live in exactly one place. The settings matter:
RawToString keeps msgpack text fields as Go strings while bin fields
stay []byte, which is what lets an opaque payload survive the
client → broker → client round trip byte for byte.

# Framing

Subscribe streams are framed as back-to-back msgpack objects with no
length prefixes. The decoder side recovers the boundaries by decoding
into codec.Raw, which yields the raw bytes of the next complete
object:

	dec := wire.NewDecoder(resp.Body)
	for {
	    frame, err := wire.ReadFrame(dec)
	    if err == io.EOF {
	        break // stream ended cleanly
	    }
	    ...
	}

# Message Shapes

The struct types in messages.go are the bodies of the broker's
endpoints. Mutating job traffic (add, publish) travels as msgpack
because it carries payload bytes; control traffic (take, counts,
reset, remove, subscribe) uses small JSON bodies. The ugorji codec
honors json tags, so each shape is declared once and serves both
encodings.

# See Also

  - pkg/api for the handlers these shapes belong to
  - pkg/zdata for the payload envelope carried inside Payload fields
*/
package wire
