// Package series provides an explicit optional float for samples that may be
// missing, such as RTT when no packet was acknowledged in a sampling window.
//
// A missing sample is encoded as JSON null and is never represented as NaN
// or zero in memory.
package series

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Float is one sample that is either present (Valid) or missing.
type Float struct {
	Value float64
	Valid bool
}

// Some returns a present sample. NaN has no meaning as a measurement and
// becomes a missing sample.
func Some(v float64) Float {
	if math.IsNaN(v) {
		return Float{}
	}
	return Float{Value: v, Valid: true}
}

// None returns a missing sample.
func None() Float {
	return Float{}
}

// Get returns the value and whether it is present.
func (f Float) Get() (float64, bool) {
	return f.Value, f.Valid
}

func (f Float) String() string {
	if !f.Valid {
		return "missing"
	}
	return strconv.FormatFloat(f.Value, 'g', -1, 64)
}

// MarshalJSON encodes a missing sample as null.
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	if math.IsInf(f.Value, 0) {
		return nil, fmt.Errorf("cannot encode infinite sample %v", f.Value)
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON decodes null as a missing sample.
func (f *Float) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = None()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Some(v)
	return nil
}

// FromFloats wraps every value as a present sample (NaN becomes missing).
func FromFloats(values []float64) []Float {
	out := make([]Float, len(values))
	for i, v := range values {
		out[i] = Some(v)
	}
	return out
}

// Present returns the present values in order, dropping missing samples.
func Present(samples []Float) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.Valid {
			out = append(out, s.Value)
		}
	}
	return out
}

// CountPresent returns the number of present samples.
func CountPresent(samples []Float) int {
	n := 0
	for _, s := range samples {
		if s.Valid {
			n++
		}
	}
	return n
}
