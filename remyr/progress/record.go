// Package progress defines the training progress log the trainer writes
// while it runs: one reduced utility/bandwidth/rtt scalar per evaluation
// checkpoint.
package progress

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/flowforge-sim/remyr-sweep/remyr/internal/schema"
)

// Record is one training run's progress log. All four series are aligned.
type Record struct {
	Timestamps []float64 `json:"timestamps"`
	Utility    []float64 `json:"utility"`
	Bandwidth  []float64 `json:"bandwidth"`
	RTT        []float64 `json:"rtt"`
}

// Len returns the number of checkpoints.
func (r *Record) Len() int {
	return len(r.Timestamps)
}

// Validate checks that the series are aligned and timestamps increase.
func (r *Record) Validate() error {
	if err := schema.StrictlyIncreasing("timestamps", r.Timestamps); err != nil {
		return err
	}
	n := r.Len()
	for _, s := range []struct {
		name string
		len  int
	}{
		{"utility", len(r.Utility)},
		{"bandwidth", len(r.Bandwidth)},
		{"rtt", len(r.RTT)},
	} {
		if err := schema.Aligned(s.name, s.len, n); err != nil {
			return err
		}
	}
	return nil
}

// WithoutWarmup returns a view that drops checkpoint 0, which the trainer
// may log before any training step. All four series are trimmed together;
// the returned record shares backing arrays with r.
func (r *Record) WithoutWarmup() *Record {
	if r.Len() == 0 {
		return &Record{}
	}
	return &Record{
		Timestamps: r.Timestamps[1:],
		Utility:    r.Utility[1:],
		Bandwidth:  r.Bandwidth[1:],
		RTT:        r.RTT[1:],
	}
}

// Decode parses and validates a progress document.
func Decode(data []byte) (*Record, error) {
	if err := schema.Check(compiledSchema, data); err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, schema.Violationf("decoding progress log: %v", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Load reads and validates a progress log file.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading progress log: %w", err)
	}
	r, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Save validates the record and writes it as JSON.
func (r *Record) Save(path string) error {
	if err := r.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling progress log: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing progress log: %w", err)
	}
	return nil
}
