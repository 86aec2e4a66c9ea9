package sweep

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flowforge-sim/remyr-sweep/remyr"
	"github.com/flowforge-sim/remyr-sweep/remyr/utility"
)

// Config is a sweep definition file.
// All top-level sections must be listed to satisfy KnownFields(true).
type Config struct {
	Deltas      []string        `yaml:"deltas"`
	OutputRoot  string          `yaml:"output_root"`
	UtilityDir  string          `yaml:"utility_dir"`
	Trainer     TrainerSpec     `yaml:"trainer"`
	Sweeps      []NamespaceSpec `yaml:"sweeps"`
	Parallelism int             `yaml:"parallelism"`
}

// TrainerSpec is the YAML form of TrainerConfig.
type TrainerSpec struct {
	Command      []string      `yaml:"command"`
	Config       string        `yaml:"config"`
	Network      string        `yaml:"network"`
	Eval         string        `yaml:"eval"`
	EvalTimes    int           `yaml:"eval_times"`
	Force        bool          `yaml:"force"`
	TrainingSeed *uint64       `yaml:"training_seed"`
	EvalSeed     *uint64       `yaml:"eval_seed"`
	Timeout      time.Duration `yaml:"timeout"`
	WorkDir      string        `yaml:"workdir"`
}

// NamespaceSpec plans every delta once into one namespace.
type NamespaceSpec struct {
	Namespace string `yaml:"namespace"`
	Direction string `yaml:"direction"`
}

// LoadConfig reads and parses a sweep definition. Unknown keys are rejected
// and the result is validated.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sweep config: %w", err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing sweep config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sweep config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks every field that planning and execution rely on.
func (c *Config) Validate() error {
	if len(c.Deltas) == 0 {
		return fmt.Errorf("%w: deltas must not be empty", remyr.ErrInvalidParameter)
	}
	for _, d := range c.Deltas {
		if _, err := utility.ParseDelta(d); err != nil {
			return err
		}
	}
	if len(c.Sweeps) == 0 {
		return fmt.Errorf("%w: at least one sweep is required", remyr.ErrInvalidParameter)
	}
	for i, s := range c.Sweeps {
		if err := validateNamespace(s.Namespace); err != nil {
			return fmt.Errorf("sweeps[%d]: %w", i, err)
		}
		if _, err := ParseDirection(s.Direction); err != nil {
			return fmt.Errorf("sweeps[%d]: %w", i, err)
		}
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("%w: parallelism must not be negative, got %d", remyr.ErrInvalidParameter, c.Parallelism)
	}
	tc := c.TrainerConfig()
	return tc.Validate()
}

// Layout returns the filesystem layout, falling back to DefaultLayout for
// unset directories.
func (c *Config) Layout() Layout {
	l := DefaultLayout()
	if c.OutputRoot != "" {
		l.OutputRoot = filepath.Clean(c.OutputRoot)
	}
	if c.UtilityDir != "" {
		l.Utility = utility.NewFamily(filepath.Clean(c.UtilityDir))
	}
	return l
}

// TrainerConfig converts the trainer section.
func (c *Config) TrainerConfig() TrainerConfig {
	t := c.Trainer
	return TrainerConfig{
		Command:       t.Command,
		TrainerConfig: t.Config,
		NetworkConfig: t.Network,
		EvalConfig:    t.Eval,
		EvalTimes:     t.EvalTimes,
		Force:         t.Force,
		TrainingSeed:  t.TrainingSeed,
		EvalSeed:      t.EvalSeed,
		Timeout:       t.Timeout,
		WorkDir:       t.WorkDir,
	}
}

// Queue plans every sweep entry against l and merges them in file order.
func (c *Config) Queue(l Layout) ([]RunSpec, error) {
	plans := make([][]RunSpec, 0, len(c.Sweeps))
	for _, s := range c.Sweeps {
		dir, err := ParseDirection(s.Direction)
		if err != nil {
			return nil, err
		}
		p, err := Plan(l, c.Deltas, s.Namespace, dir)
		if err != nil {
			return nil, fmt.Errorf("planning %s: %w", s.Namespace, err)
		}
		plans = append(plans, p)
	}
	return Merge(plans...)
}
