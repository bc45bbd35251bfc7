package zdata

import (
	"github.com/vuer-ai/zaku-go/pkg/types"
	"github.com/vuer-ai/zaku-go/pkg/wire"
)

// ZType tags a binary value with how it should be interpreted on the
// consumer side. The broker never looks at these; they are a contract
// between producers and consumers.
type ZType string

const (
	TypeImage   ZType = "image"
	TypeNDArray ZType = "numpy.ndarray"
	TypeTensor  ZType = "torch.Tensor"
	TypeGeneric ZType = "generic"
)

// greedyKey flags a payload whose values are blob-encoded
const greedyKey = "_greedy"

// Blob is one typed binary value inside a payload. On the wire it is a
// map {ztype, b, dtype?, shape?}.
type Blob struct {
	ZType ZType  `codec:"ztype" json:"ztype"`
	Bytes []byte `codec:"b" json:"b"`
	DType string `codec:"dtype,omitempty" json:"dtype,omitempty"`
	Shape []int  `codec:"shape,omitempty" json:"shape,omitempty"`
}

// Image wraps already-encoded image bytes (PNG, JPEG)
func Image(b []byte) *Blob {
	return &Blob{ZType: TypeImage, Bytes: b}
}

// NDArray wraps a raw array buffer with its dtype and shape
func NDArray(b []byte, dtype string, shape ...int) *Blob {
	return &Blob{ZType: TypeNDArray, Bytes: b, DType: dtype, Shape: shape}
}

// Tensor wraps a raw tensor buffer with its dtype and shape
func Tensor(b []byte, dtype string, shape ...int) *Blob {
	return &Blob{ZType: TypeTensor, Bytes: b, DType: dtype, Shape: shape}
}

// Generic wraps arbitrary bytes
func Generic(b []byte) *Blob {
	return &Blob{ZType: TypeGeneric, Bytes: b}
}

// Encode serializes a payload map to msgpack. With greedy set, *Blob
// values travel in their tagged form and the payload carries the
// _greedy flag so consumers know to reconstitute them.
func Encode(payload map[string]any, greedy bool) ([]byte, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	if greedy {
		out := make(map[string]any, len(payload)+1)
		for k, v := range payload {
			out[k] = v
		}
		out[greedyKey] = true
		return wire.Marshal(out)
	}
	return wire.Marshal(payload)
}

// Decode deserializes payload bytes. When the payload was encoded
// greedily, tagged blob maps come back as *Blob values and the _greedy
// flag is stripped.
func Decode(b []byte) (map[string]any, error) {
	var m map[string]any
	if err := wire.Unmarshal(b, &m); err != nil {
		return nil, types.BadInput("payload is not a msgpack map: %v", err)
	}
	greedy, _ := m[greedyKey].(bool)
	delete(m, greedyKey)
	if !greedy {
		return m, nil
	}
	for k, v := range m {
		if blob, ok := asBlob(v); ok {
			m[k] = blob
		}
	}
	return m, nil
}

// asBlob reconstitutes a tagged blob map
func asBlob(v any) (*Blob, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	zt, ok := m["ztype"].(string)
	if !ok {
		return nil, false
	}
	blob := &Blob{ZType: ZType(zt)}
	if b, ok := m["b"].([]byte); ok {
		blob.Bytes = b
	}
	if dt, ok := m["dtype"].(string); ok {
		blob.DType = dt
	}
	if shape, ok := m["shape"].([]any); ok {
		blob.Shape = make([]int, 0, len(shape))
		for _, s := range shape {
			switch n := s.(type) {
			case int64:
				blob.Shape = append(blob.Shape, int(n))
			case uint64:
				blob.Shape = append(blob.Shape, int(n))
			}
		}
	}
	return blob, true
}
