package series

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat_UnmarshalJSON_NullIsMissing(t *testing.T) {
	// GIVEN an RTT series where the middle window saw no packets
	var got []Float
	require.NoError(t, json.Unmarshal([]byte(`[12.5, null, 0]`), &got))

	// THEN null decodes as missing and zero stays a present zero
	require.Len(t, got, 3)
	assert.Equal(t, Some(12.5), got[0])
	assert.False(t, got[1].Valid)
	assert.True(t, got[2].Valid, "zero delay is a measurement, not a missing sample")
	assert.Equal(t, 0.0, got[2].Value)
}

func TestFloat_MarshalJSON_MissingIsNull(t *testing.T) {
	data, err := json.Marshal([]Float{Some(1.5), None()})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, null]`, string(data))
}

func TestFloat_MarshalJSON_InfiniteRejected(t *testing.T) {
	_, err := json.Marshal(Float{Value: math.Inf(1), Valid: true})
	assert.Error(t, err)
}

func TestSome_NaNBecomesMissing(t *testing.T) {
	assert.False(t, Some(math.NaN()).Valid)
}

func TestPresent_DropsMissingPreservesOrder(t *testing.T) {
	samples := []Float{Some(3), None(), Some(1), None(), Some(2)}
	assert.Equal(t, []float64{3, 1, 2}, Present(samples))
	assert.Equal(t, 3, CountPresent(samples))
}

func TestFloat_String(t *testing.T) {
	assert.Equal(t, "missing", None().String())
	assert.Equal(t, "0.25", Some(0.25).String())
}
