package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPayloadBytesSurviveRoundTrip verifies bin-typed payloads come back
// as the same bytes, not strings. Payloads are opaque to the broker, so
// recoding must be loss-free.
func TestPayloadBytesSurviveRoundTrip(t *testing.T) {
	payload := []byte{0x00, 0xff, 0x10, 0x92, 0x00}

	b, err := Marshal(&AddJob{Queue: "q", JobID: "j-1", Payload: payload})
	require.NoError(t, err)

	var got AddJob
	require.NoError(t, Unmarshal(b, &got))
	assert.Equal(t, payload, got.Payload)
	assert.Equal(t, "q", got.Queue)
}

// TestUntypedDecodeUsesStringKeys verifies maps decode as
// map[string]interface{} with text fields as strings.
func TestUntypedDecodeUsesStringKeys(t *testing.T) {
	b, err := Marshal(map[string]interface{}{
		"queue": "render",
		"step":  int64(3),
	})
	require.NoError(t, err)

	var v interface{}
	require.NoError(t, Unmarshal(b, &v))

	m, ok := v.(map[string]interface{})
	require.True(t, ok, "decode should produce map[string]interface{}, got %T", v)
	assert.Equal(t, "render", m["queue"])
}

// TestReadFrame verifies back-to-back msgpack objects split cleanly on
// object boundaries, the framing used by subscribe streams.
func TestReadFrame(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		frame, err := Marshal(map[string]interface{}{"step": i})
		require.NoError(t, err)
		buf.Write(frame)
	}

	dec := NewDecoder(&buf)
	var steps []int
	for {
		raw, err := ReadFrame(dec)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		var m map[string]interface{}
		require.NoError(t, Unmarshal(raw, &m))
		steps = append(steps, int(m["step"].(int64)))
	}

	assert.Equal(t, []int{0, 1, 2}, steps)
}

// TestJSONTagsCarryToMsgpack verifies shapes declared with json tags
// encode under the same field names in msgpack.
func TestJSONTagsCarryToMsgpack(t *testing.T) {
	b, err := Marshal(&QueueRequest{Queue: "q1"})
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, Unmarshal(b, &m))
	assert.Equal(t, "q1", m["queue"])
}
