package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadCodec(t *testing.T) {
	codec, err := NewPayloadCodec(64)
	require.NoError(t, err)

	t.Run("small payload stays plain json", func(t *testing.T) {
		data, encoding, err := codec.Encode(map[string]string{"number": "SO-202503-0001"})
		require.NoError(t, err)

		assert.Equal(t, EncodingJSON, encoding)
		assert.JSONEq(t, `{"number":"SO-202503-0001"}`, string(data))
	})

	t.Run("large payload is compressed", func(t *testing.T) {
		payload := map[string]string{"comment": strings.Repeat("brake pad ", 200)}

		data, encoding, err := codec.Encode(payload)
		require.NoError(t, err)
		assert.Equal(t, EncodingJSONZstd, encoding)
		assert.Less(t, len(data), 2000)

		raw, err := codec.Decode(data, encoding)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"comment":"brake pad brake pad`)
	})

	t.Run("unknown encoding", func(t *testing.T) {
		_, err := codec.Decode([]byte("x"), "gzip")
		assert.Error(t, err)
	})
}

func TestPayloadCodec_DefaultThreshold(t *testing.T) {
	codec, err := NewPayloadCodec(0)
	require.NoError(t, err)

	_, encoding, err := codec.Encode(map[string]string{"comment": strings.Repeat("x", 5000)})
	require.NoError(t, err)
	assert.Equal(t, EncodingJSON, encoding)
}
