package zdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuer-ai/zaku-go/pkg/wire"
)

// TestGreedyRoundTrip verifies blobs survive encode/decode with types,
// dtypes and shapes intact.
func TestGreedyRoundTrip(t *testing.T) {
	raw := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

	b, err := Encode(map[string]any{
		"obs":  NDArray(raw, "float32", 3, 4),
		"seed": int64(7),
	}, true)
	require.NoError(t, err)

	got, err := Decode(b)
	require.NoError(t, err)

	blob, ok := got["obs"].(*Blob)
	require.True(t, ok, "obs should decode as *Blob, got %T", got["obs"])
	assert.Equal(t, TypeNDArray, blob.ZType)
	assert.Equal(t, "float32", blob.DType)
	assert.Equal(t, []int{3, 4}, blob.Shape)
	assert.Equal(t, raw, blob.Bytes)

	assert.Equal(t, int64(7), got["seed"])
	_, hasFlag := got["_greedy"]
	assert.False(t, hasFlag, "greedy flag must be stripped")
}

// TestNonGreedyLeavesValuesAlone verifies plain payloads pass through
// without blob reconstruction.
func TestNonGreedyLeavesValuesAlone(t *testing.T) {
	b, err := Encode(map[string]any{
		"nested": map[string]any{"ztype": "image", "b": []byte{9}},
	}, false)
	require.NoError(t, err)

	got, err := Decode(b)
	require.NoError(t, err)

	_, isBlob := got["nested"].(*Blob)
	assert.False(t, isBlob, "non-greedy payloads must not be reconstituted")
}

// TestImageBlobOmitsShape verifies image blobs only carry ztype and bytes
func TestImageBlobOmitsShape(t *testing.T) {
	b, err := Encode(map[string]any{"frame": Image([]byte{0x89, 0x50})}, true)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, wire.Unmarshal(b, &m))

	frame, ok := m["frame"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "image", frame["ztype"])
	_, hasShape := frame["shape"]
	assert.False(t, hasShape)
	_, hasDType := frame["dtype"]
	assert.False(t, hasDType)
}

// TestDecodeRejectsNonMapPayload verifies scalar payloads surface as
// input errors rather than panics.
func TestDecodeRejectsNonMapPayload(t *testing.T) {
	b, err := wire.Marshal("just a string")
	require.NoError(t, err)

	_, err = Decode(b)
	assert.Error(t, err)
}
