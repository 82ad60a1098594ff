package cache

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// Codec converts a typed value to and from stored bytes.
type Codec[T any] interface {
	Marshal(v T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
}

// JSONCodec encodes values with encoding/json.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Marshal(v T) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec[T]) Unmarshal(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// TOMLCodec encodes values with go-toml. The value must encode to a TOML
// table, so T is normally a struct or a map.
type TOMLCodec[T any] struct{}

func (TOMLCodec[T]) Marshal(v T) ([]byte, error) { return toml.Marshal(v) }

func (TOMLCodec[T]) Unmarshal(data []byte) (T, error) {
	var v T
	err := toml.Unmarshal(data, &v)
	return v, err
}

// ProtoJSONCodec encodes protobuf messages with protojson.
type ProtoJSONCodec[T proto.Message] struct {
	// New returns an empty message to unmarshal into.
	New func() T
}

func (c ProtoJSONCodec[T]) Marshal(v T) ([]byte, error) { return protojson.Marshal(v) }

func (c ProtoJSONCodec[T]) Unmarshal(data []byte) (T, error) {
	v := c.New()
	err := protojson.Unmarshal(data, v)
	return v, err
}

// CodecByName returns the codec registered under name ("json" or "toml").
func CodecByName[T any](name string) (Codec[T], error) {
	switch name {
	case "", "json":
		return JSONCodec[T]{}, nil
	case "toml":
		return TOMLCodec[T]{}, nil
	default:
		return nil, fmt.Errorf("unknown codec: %s", name)
	}
}
