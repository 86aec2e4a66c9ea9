package sweep

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest records what one sweep did inside one namespace.
type Manifest struct {
	SweepID   string        `yaml:"sweep_id"`
	Namespace string        `yaml:"namespace"`
	Started   time.Time     `yaml:"started"`
	Finished  time.Time     `yaml:"finished"`
	Runs      []ManifestRun `yaml:"runs"`
}

// ManifestRun is one run's entry, in queue order.
type ManifestRun struct {
	Delta         string  `yaml:"delta"`
	Status        Status  `yaml:"status"`
	ExitCode      int     `yaml:"exit_code"`
	DurationS     float64 `yaml:"duration_s"`
	UtilityConfig string  `yaml:"utility_config"`
	DNA           string  `yaml:"dna"`
	Progress      string  `yaml:"progress"`
	Log           string  `yaml:"log"`
	Error         string  `yaml:"error,omitempty"`
}

// ManifestPath is where a namespace's manifest lives.
func (l Layout) ManifestPath(namespace string) string {
	return filepath.Join(l.NamespaceDir(namespace), "sweep.yaml")
}

// ManifestFor extracts the namespace's runs from a report.
func ManifestFor(report *Report, namespace string) *Manifest {
	m := &Manifest{
		SweepID:   report.ID,
		Namespace: namespace,
		Started:   report.Started,
		Finished:  report.Finished,
	}
	for _, res := range report.Results {
		if res.Spec.Namespace != namespace {
			continue
		}
		run := ManifestRun{
			Delta:         res.Spec.Delta,
			Status:        res.Status,
			ExitCode:      res.ExitCode,
			DurationS:     res.Duration.Seconds(),
			UtilityConfig: res.Spec.UtilityConfig,
			DNA:           res.Spec.DNAPath,
			Progress:      res.Spec.ProgressPath,
			Log:           res.Spec.LogPath,
		}
		if res.Err != nil {
			run.Error = res.Err.Error()
		}
		m.Runs = append(m.Runs, run)
	}
	return m
}

func (s *Sweep) writeManifests(report *Report) error {
	for _, ns := range namespaces(queueOf(report)) {
		if err := WriteManifest(s.layout.ManifestPath(ns), ManifestFor(report, ns)); err != nil {
			return err
		}
	}
	return nil
}

func queueOf(report *Report) []RunSpec {
	specs := make([]RunSpec, len(report.Results))
	for i, res := range report.Results {
		specs[i] = res.Spec
	}
	return specs
}

// WriteManifest writes m as YAML, replacing any previous manifest.
func WriteManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest. Unknown keys are rejected.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return &m, nil
}
