package schema

import (
	"testing"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartEventV1(t *testing.T) {
	var s avro.Schema
	require.NotPanics(t, func() {
		s = CartEventV1Avro()
	})

	t.Run("Regular", func(t *testing.T) {
		vMarshal := CartEventV1{
			Type:           "quantity_changed",
			SessionID:      "s1",
			Title:          "Tulip",
			Quantity:       3,
			UnitPriceMinor: 30000,
			CartTotalMinor: 90000,
			Currency:       "PHP",
			ItemCount:      3,
			OccurredAt:     time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
		}

		data, err := avro.Marshal(s, vMarshal)
		require.NoError(t, err)

		var vUnmarshal CartEventV1
		require.NoError(t, avro.Unmarshal(s, data, &vUnmarshal))
		assert.True(t, vMarshal.OccurredAt.Equal(vUnmarshal.OccurredAt))
		vUnmarshal.OccurredAt = vMarshal.OccurredAt
		assert.Equal(t, vMarshal, vUnmarshal)
	})

	t.Run("CartWideEvent", func(t *testing.T) {
		vMarshal := CartEventV1{
			Type:       "cleared",
			SessionID:  "s1",
			Currency:   "PHP",
			OccurredAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
		}

		data, err := avro.Marshal(s, vMarshal)
		require.NoError(t, err)

		var vUnmarshal CartEventV1
		require.NoError(t, avro.Unmarshal(s, data, &vUnmarshal))
		assert.Empty(t, vUnmarshal.Title)
		assert.Zero(t, vUnmarshal.CartTotalMinor)
	})

	t.Run("EncodeDecodeFn", func(t *testing.T) {
		v := CartEventV1{Type: "added", Title: "A", OccurredAt: time.Unix(0, 0).UTC()}
		data, err := AvroEncodeFn(s)(v)
		require.NoError(t, err)

		var out CartEventV1
		require.NoError(t, AvroDecodeFn(s)(data, &out))
		assert.Equal(t, "A", out.Title)
	})
}
