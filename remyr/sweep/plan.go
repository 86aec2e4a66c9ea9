// Package sweep plans and executes one external trainer invocation per
// fairness parameter.
//
// Planning is separate from execution: Plan derives every run's identity
// and output paths up front, Merge combines plans into one queue and fails
// on any shared output path, and only then does a Sweep start processes.
package sweep

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/flowforge-sim/remyr-sweep/remyr"
	"github.com/flowforge-sim/remyr-sweep/remyr/utility"
)

// Direction is the order a plan visits its parameters in.
type Direction string

const (
	Forward  Direction = "forward"
	Reversed Direction = "reversed"
)

var validDirections = map[Direction]bool{
	Forward:  true,
	Reversed: true,
}

// ParseDirection accepts "forward" or "reversed"; empty means forward.
func ParseDirection(s string) (Direction, error) {
	if s == "" {
		return Forward, nil
	}
	d := Direction(s)
	if !validDirections[d] {
		return "", fmt.Errorf("%w: unknown direction %q; valid: forward, reversed", remyr.ErrInvalidParameter, s)
	}
	return d, nil
}

// Layout maps run identities onto the filesystem.
type Layout struct {
	OutputRoot string // e.g. trained/remyr
	Utility    *utility.Family
}

// DefaultLayout mirrors the repository's configs/ and trained/ folders.
func DefaultLayout() Layout {
	return Layout{
		OutputRoot: filepath.Join("trained", "remyr"),
		Utility:    utility.NewFamily(filepath.Join("configs", "utility")),
	}
}

// NamespaceDir is the directory shared by all runs of one namespace.
func (l Layout) NamespaceDir(namespace string) string {
	return filepath.Join(l.OutputRoot, namespace)
}

// RunDir is the directory owned by one run.
func (l Layout) RunDir(namespace, delta string) string {
	return filepath.Join(l.NamespaceDir(namespace), "delta"+delta)
}

// RunSpec fixes every path one trainer invocation reads or writes.
type RunSpec struct {
	Namespace     string
	Delta         string
	UtilityConfig string // input, shared by every namespace
	DNAPath       string
	ProgressPath  string
	LogPath       string
}

// ID names the run as namespace/delta<d>.
func (s RunSpec) ID() string {
	return s.Namespace + "/delta" + s.Delta
}

// Dir is the run's output directory.
func (s RunSpec) Dir() string {
	return filepath.Dir(s.DNAPath)
}

// OutputPaths lists every path the run writes.
func (s RunSpec) OutputPaths() []string {
	return []string{s.DNAPath, s.ProgressPath, s.LogPath}
}

// Spec derives the RunSpec for one (delta, namespace) identity.
func (l Layout) Spec(delta, namespace string) (RunSpec, error) {
	if err := validateNamespace(namespace); err != nil {
		return RunSpec{}, err
	}
	if _, err := utility.ParseDelta(delta); err != nil {
		return RunSpec{}, err
	}
	if l.Utility == nil {
		return RunSpec{}, fmt.Errorf("%w: layout has no utility family", remyr.ErrInvalidParameter)
	}
	dir := l.RunDir(namespace, delta)
	return RunSpec{
		Namespace:     namespace,
		Delta:         delta,
		UtilityConfig: l.Utility.ConfigPath(delta),
		DNAPath:       filepath.Join(dir, "delta"+delta+".remyr.dna"),
		ProgressPath:  filepath.Join(dir, "trainout.json"),
		LogPath:       filepath.Join(dir, "train.log"),
	}, nil
}

// Plan derives one RunSpec per delta, in the given order for Forward and
// reversed for Reversed. Repeating a delta is a path collision.
func Plan(l Layout, deltas []string, namespace string, dir Direction) ([]RunSpec, error) {
	if !validDirections[dir] {
		return nil, fmt.Errorf("%w: unknown direction %q", remyr.ErrInvalidParameter, dir)
	}
	if len(deltas) == 0 {
		return nil, fmt.Errorf("%w: no deltas to plan", remyr.ErrInvalidParameter)
	}
	specs := make([]RunSpec, 0, len(deltas))
	for _, d := range deltas {
		spec, err := l.Spec(d, namespace)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	if dir == Reversed {
		for i, j := 0, len(specs)-1; i < j; i, j = i+1, j-1 {
			specs[i], specs[j] = specs[j], specs[i]
		}
	}
	if err := checkDisjoint(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

// Merge concatenates plans into one execution queue, failing before
// anything runs if two specs would write the same path.
func Merge(plans ...[]RunSpec) ([]RunSpec, error) {
	var queue []RunSpec
	for _, p := range plans {
		queue = append(queue, p...)
	}
	if err := checkDisjoint(queue); err != nil {
		return nil, err
	}
	return queue, nil
}

func checkDisjoint(specs []RunSpec) error {
	owner := make(map[string]string)
	for _, s := range specs {
		for _, p := range s.OutputPaths() {
			key := filepath.Clean(p)
			if prev, ok := owner[key]; ok {
				return fmt.Errorf("%w: %s and %s both write %s", remyr.ErrPathCollision, prev, s.ID(), key)
			}
			owner[key] = s.ID()
		}
	}
	return nil
}

func validateNamespace(ns string) error {
	switch {
	case ns == "", ns == ".", ns == "..":
		return fmt.Errorf("%w: namespace %q", remyr.ErrInvalidParameter, ns)
	case strings.ContainsAny(ns, `/\`):
		return fmt.Errorf("%w: namespace %q must not contain path separators", remyr.ErrInvalidParameter, ns)
	}
	return nil
}
