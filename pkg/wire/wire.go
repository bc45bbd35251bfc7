package wire

import (
	"fmt"
	"io"
	"reflect"

	"github.com/ugorji/go/codec"
)

// handle is the process-wide msgpack configuration. RawToString keeps
// text fields as Go strings while bin fields stay []byte, so payload
// bytes survive a round trip untouched. MapType makes untyped decodes
// come back as map[string]interface{}.
var handle = NewHandle()

// NewHandle builds a msgpack handle with Zaku's wire settings
func NewHandle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.RawToString = true
	h.WriteExt = true
	h.Raw = true
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))
	return h
}

// Marshal encodes v as msgpack
func Marshal(v interface{}) ([]byte, error) {
	var b []byte
	if err := codec.NewEncoderBytes(&b, handle).Encode(v); err != nil {
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	return b, nil
}

// Unmarshal decodes msgpack bytes into v
func Unmarshal(b []byte, v interface{}) error {
	if err := codec.NewDecoderBytes(b, handle).Decode(v); err != nil {
		return fmt.Errorf("msgpack decode: %w", err)
	}
	return nil
}

// NewDecoder returns a streaming msgpack decoder. Decoding into a
// *codec.Raw yields the raw bytes of the next complete object, which is
// how subscribe streams are framed.
func NewDecoder(r io.Reader) *codec.Decoder {
	return codec.NewDecoder(r, handle)
}

// NewEncoder returns a streaming msgpack encoder
func NewEncoder(w io.Writer) *codec.Encoder {
	return codec.NewEncoder(w, handle)
}

// ReadFrame reads the next msgpack object off dec and returns its raw
// bytes. io.EOF marks a cleanly ended stream.
func ReadFrame(dec *codec.Decoder) ([]byte, error) {
	var raw codec.Raw
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return []byte(raw), nil
}
