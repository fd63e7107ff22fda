package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type record struct {
	Name string `cbor:"name"`
	At   int64  `cbor:"at"`
}

func TestMarshal_IsDeterministic(t *testing.T) {
	req := require.New(t)
	first, err := Marshal(map[string]int{"b": 2, "a": 1, "c": 3})
	req.NoError(err)
	second, err := Marshal(map[string]int{"c": 3, "a": 1, "b": 2})
	req.NoError(err)
	req.Equal(first, second)
}

func TestUnmarshal_IgnoresUnknownFields(t *testing.T) {
	req := require.New(t)
	data, err := Marshal(map[string]any{"name": "alice", "at": int64(42), "extra": true})
	req.NoError(err)

	var r record
	req.NoError(Unmarshal(data, &r))
	req.Equal(record{Name: "alice", At: 42}, r)
}
