package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStableStringify(t *testing.T) {
	t.Run("key order does not matter", func(t *testing.T) {
		a := map[string]any{"hostname": "h1", "macAddress": "aa", "nested": map[string]any{"z": 1, "a": 2}}
		b := map[string]any{"nested": map[string]any{"a": 2, "z": 1}, "macAddress": "aa", "hostname": "h1"}
		assert.Equal(t, StableStringify(a), StableStringify(b))
		assert.Equal(t, `{"hostname":"h1","macAddress":"aa","nested":{"a":2,"z":1}}`, StableStringify(a))
	})

	t.Run("timestamps are normalised to UTC", func(t *testing.T) {
		ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		offset := ts.In(time.FixedZone("X", 3*3600))
		assert.Equal(t,
			StableStringify(map[string]any{"lastSeen": ts}),
			StableStringify(map[string]any{"lastSeen": offset.Format(time.RFC3339)}))
	})

	t.Run("arrays keep order", func(t *testing.T) {
		assert.Equal(t, `[3,1,2]`, StableStringify([]int{3, 1, 2}))
	})

	t.Run("nil is empty", func(t *testing.T) {
		assert.Equal(t, "", StableStringify(nil))
	})
}

func TestConvertPlaceholders(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b IN (" + Placeholders(2) + ")"
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b IN ($2,$3)", ConvertPlaceholders(q))
	assert.Equal(t, q, ConvertPlaceholders(ConvertPlaceholders(q), true))
}
