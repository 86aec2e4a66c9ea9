// Package schema holds the JSON Schema and alignment checks shared by the
// trace and progress readers. Every failure wraps remyr.ErrSchemaViolation.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/flowforge-sim/remyr-sweep/remyr"
)

const baseURL = "https://flowforge-sim.github.io/remyr/schema/"

// MustCompile compiles an embedded schema document. The documents ship with
// the binary, so a compile failure is a programming error.
func MustCompile(name, src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	url := baseURL + name
	if err := compiler.AddResource(url, strings.NewReader(src)); err != nil {
		panic(fmt.Sprintf("add schema resource %s: %v", name, err))
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return compiled
}

// Check validates raw JSON against a compiled schema.
func Check(s *jsonschema.Schema, raw []byte) error {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Violationf("malformed JSON: %v", err)
	}
	if err := s.Validate(payload); err != nil {
		return Violationf("%v", err)
	}
	return nil
}

// Violationf builds an error wrapping remyr.ErrSchemaViolation.
func Violationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", remyr.ErrSchemaViolation, fmt.Sprintf(format, args...))
}

// Aligned checks that a named series has exactly want entries.
func Aligned(name string, got, want int) error {
	if got != want {
		return Violationf("%s has %d entries, timestamps has %d", name, got, want)
	}
	return nil
}

// StrictlyIncreasing checks that timestamps are finite and strictly increasing.
func StrictlyIncreasing(name string, ts []float64) error {
	for i, v := range ts {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Violationf("%s[%d] is not finite", name, i)
		}
		if i > 0 && v <= ts[i-1] {
			return Violationf("%s[%d]=%v does not increase on %s[%d]=%v", name, i, v, name, i-1, ts[i-1])
		}
	}
	return nil
}
