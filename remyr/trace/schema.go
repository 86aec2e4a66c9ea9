package trace

import "github.com/flowforge-sim/remyr-sweep/remyr/internal/schema"

// traceSchema covers key presence and element types. Alignment, ordering and
// bounds are checked by Trace.Validate.
const traceSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["timestamps", "flows", "active_senders", "aggregate_utility"],
  "properties": {
    "timestamps": {"type": "array", "items": {"type": "number"}},
    "flows": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["bandwidth_kbps", "rtt_ms", "utility"],
        "properties": {
          "bandwidth_kbps": {"type": "array", "items": {"type": "number"}},
          "rtt_ms": {"type": "array", "items": {"type": ["number", "null"]}},
          "utility": {"type": "array", "items": {"type": ["number", "null"]}}
        }
      }
    },
    "active_senders": {"type": "array", "items": {"type": "integer", "minimum": 0}},
    "aggregate_utility": {"type": "array", "items": {"type": ["number", "null"]}},
    "network": {"type": "object"}
  }
}`

var compiledSchema = schema.MustCompile("trace.json", traceSchema)
