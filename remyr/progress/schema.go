package progress

import "github.com/flowforge-sim/remyr-sweep/remyr/internal/schema"

const recordSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["timestamps", "utility", "bandwidth", "rtt"],
  "properties": {
    "timestamps": {"type": "array", "items": {"type": "number"}},
    "utility": {"type": "array", "items": {"type": "number"}},
    "bandwidth": {"type": "array", "items": {"type": "number"}},
    "rtt": {"type": "array", "items": {"type": "number"}}
  }
}`

var compiledSchema = schema.MustCompile("progress.json", recordSchema)
