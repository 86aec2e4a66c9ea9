// Package utility implements the alpha-fairness utility family used to
// configure the trainer and to compare recorded utility across runs.
package utility

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/flowforge-sim/remyr-sweep/remyr"
)

// Config is the trainer's utility config file. The trainer reads an
// externally tagged variant, so exactly one field is set.
type Config struct {
	AlphaFairness *AlphaFairness `json:"AlphaFairness,omitempty"`
}

// Validate checks that exactly one variant is present and usable.
func (c *Config) Validate() error {
	if c.AlphaFairness == nil {
		return fmt.Errorf("%w: utility config has no known variant", remyr.ErrInvalidParameter)
	}
	return c.AlphaFairness.Validate()
}

// Utility dispatches to the configured variant.
func (c *Config) Utility(flows []FlowProperties) (float64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	return c.AlphaFairness.Utility(flows)
}

// LoadConfig reads a utility config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading utility config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var c Config
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parsing utility config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

// ConfigRef identifies the utility config materialised for one delta.
type ConfigRef struct {
	Delta string  // as written by the user; used verbatim in paths
	Value float64 // parsed delta
	Path  string
}

// ParseDelta parses a fairness parameter. It must be a finite number > 0.
func ParseDelta(delta string) (float64, error) {
	v, err := strconv.ParseFloat(delta, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: delta %q is not a number", remyr.ErrInvalidParameter, delta)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("%w: delta %q must be a finite number > 0", remyr.ErrInvalidParameter, delta)
	}
	return v, nil
}

// Family produces one utility config per delta, all sharing Base except for
// the delta weight.
type Family struct {
	Dir       string // e.g. configs/utility
	Base      AlphaFairness
	Overwrite bool // replace an existing file whose content differs
}

// NewFamily returns a family based on proportional throughput/delay fairness.
func NewFamily(dir string) *Family {
	return &Family{Dir: dir, Base: ProportionalThroughputDelayFairness}
}

// ConfigPath returns where the config for delta lives. It does not touch
// the filesystem.
func (f *Family) ConfigPath(delta string) string {
	return filepath.Join(f.Dir, "delta"+delta+".json")
}

// ConfigFor returns the config for delta without writing it.
func (f *Family) ConfigFor(delta string) (*Config, error) {
	v, err := ParseDelta(delta)
	if err != nil {
		return nil, err
	}
	af := f.Base
	af.Delta = v
	c := &Config{AlphaFairness: &af}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Configure writes the config file for delta and returns its reference.
// Rewriting identical content is a no-op, so concurrent sweeps over the same
// delta can share one file.
func (f *Family) Configure(delta string) (ConfigRef, error) {
	c, err := f.ConfigFor(delta)
	if err != nil {
		return ConfigRef{}, err
	}
	ref := ConfigRef{Delta: delta, Value: c.AlphaFairness.Delta, Path: f.ConfigPath(delta)}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return ConfigRef{}, fmt.Errorf("marshaling utility config: %w", err)
	}
	data = append(data, '\n')

	existing, err := os.ReadFile(ref.Path)
	switch {
	case err == nil && bytes.Equal(existing, data):
		logrus.Debugf("utility config %s is up to date", ref.Path)
		return ref, nil
	case err == nil && !f.Overwrite:
		return ConfigRef{}, fmt.Errorf("utility config %s exists with different content; refusing to overwrite", ref.Path)
	case err != nil && !os.IsNotExist(err):
		return ConfigRef{}, fmt.Errorf("reading utility config: %w", err)
	}

	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return ConfigRef{}, fmt.Errorf("creating utility config dir: %w", err)
	}
	if err := os.WriteFile(ref.Path, data, 0644); err != nil {
		return ConfigRef{}, fmt.Errorf("writing utility config: %w", err)
	}
	logrus.Infof("wrote utility config %s (delta=%v)", ref.Path, ref.Value)
	return ref, nil
}
