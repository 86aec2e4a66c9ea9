package sweep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/flowforge-sim/remyr-sweep/remyr"
)

// Options tune how a Sweep schedules its queue.
type Options struct {
	// ID names the sweep in logs and manifests; empty means a fresh UUID.
	ID string

	// Parallelism > 1 runs that many trainers at once. Results are still
	// reported in queue order.
	Parallelism int

	// OnResult is called once per finished or skipped run, never
	// concurrently.
	OnResult func(RunResult)
}

// Sweep executes a merged queue of RunSpecs.
type Sweep struct {
	layout   Layout
	executor Executor
	opts     Options
}

// New returns a Sweep that writes manifests and locks under layout.
func New(layout Layout, executor Executor, opts Options) *Sweep {
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	return &Sweep{layout: layout, executor: executor, opts: opts}
}

// Run executes every spec in queue. A failed run is recorded and the
// sweep moves on. Cancelling ctx stops new runs from being scheduled;
// runs already started finish and the rest are reported as skipped.
//
// Run returns an error only for structural problems found before any run
// starts: colliding paths, specs planned under another output root, or a
// namespace locked by another sweep.
func (s *Sweep) Run(ctx context.Context, queue []RunSpec) (*Report, error) {
	if _, err := Merge(queue); err != nil {
		return nil, err
	}
	if err := s.checkLayout(queue); err != nil {
		return nil, err
	}

	unlock, err := s.lockNamespaces(queue)
	if err != nil {
		return nil, err
	}
	defer unlock()

	id := s.opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	report := &Report{
		ID:      id,
		Started: time.Now(),
		Results: make([]RunResult, len(queue)),
	}
	logrus.Infof("sweep %s: %d runs, parallelism %d", report.ID, len(queue), s.opts.Parallelism)

	var mu sync.Mutex
	record := func(i int, res RunResult) {
		mu.Lock()
		defer mu.Unlock()
		report.Results[i] = res
		logResult(res)
		if s.opts.OnResult != nil {
			s.opts.OnResult(res)
		}
	}
	runOne := func(i int) {
		spec := queue[i]
		if err := ctx.Err(); err != nil {
			record(i, RunResult{Spec: spec, Status: StatusSkipped, ExitCode: -1, Err: fmt.Errorf("%s not scheduled: %w", spec.ID(), err)})
			return
		}
		logrus.Infof("%s: training (utility %s)", spec.ID(), spec.UtilityConfig)
		record(i, s.executor.Execute(ctx, spec))
	}

	if s.opts.Parallelism == 1 {
		for i := range queue {
			runOne(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(s.opts.Parallelism)
		for i := range queue {
			g.Go(func() error {
				runOne(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	report.Finished = time.Now()
	if err := s.writeManifests(report); err != nil {
		logrus.Warnf("sweep %s: %v", report.ID, err)
	}
	logrus.Infof("sweep %s done: %d succeeded, %d failed, %d skipped", report.ID,
		report.Count(StatusSucceeded), report.Count(StatusFailed), report.Count(StatusSkipped))
	return report, nil
}

func logResult(res RunResult) {
	switch res.Status {
	case StatusSucceeded:
		logrus.Infof("%s: succeeded in %s", res.Spec.ID(), res.Duration.Round(time.Second))
	case StatusFailed:
		logrus.Warnf("%s: %v", res.Spec.ID(), res.Err)
	default:
		logrus.Warnf("%s: skipped", res.Spec.ID())
	}
}

// checkLayout rejects specs whose run directory is not the one s.layout
// assigns, since locks and manifests are written under s.layout.
func (s *Sweep) checkLayout(queue []RunSpec) error {
	for _, spec := range queue {
		want := s.layout.RunDir(spec.Namespace, spec.Delta)
		if filepath.Clean(spec.Dir()) != filepath.Clean(want) {
			return fmt.Errorf("%w: %s writes to %s, outside this sweep's output root %s",
				remyr.ErrInvalidParameter, spec.ID(), spec.Dir(), s.layout.OutputRoot)
		}
	}
	return nil
}

// namespaces returns the distinct namespaces of queue in first-seen order.
func namespaces(queue []RunSpec) []string {
	seen := make(map[string]bool)
	var out []string
	for _, spec := range queue {
		if !seen[spec.Namespace] {
			seen[spec.Namespace] = true
			out = append(out, spec.Namespace)
		}
	}
	return out
}

// LockPath is the file guarding a namespace against concurrent sweeps.
func (l Layout) LockPath(namespace string) string {
	return filepath.Join(l.NamespaceDir(namespace), ".sweep.lock")
}

func (s *Sweep) lockNamespaces(queue []RunSpec) (func(), error) {
	var held []*flock.Flock
	release := func() {
		for _, l := range held {
			_ = l.Unlock()
		}
	}
	for _, ns := range namespaces(queue) {
		if err := os.MkdirAll(s.layout.NamespaceDir(ns), 0755); err != nil {
			release()
			return nil, fmt.Errorf("creating namespace dir: %w", err)
		}
		lock := flock.New(s.layout.LockPath(ns))
		ok, err := lock.TryLock()
		if err != nil {
			release()
			return nil, fmt.Errorf("locking namespace %s: %w", ns, err)
		}
		if !ok {
			release()
			return nil, fmt.Errorf("namespace %s is in use by another sweep (%s)", ns, lock.Path())
		}
		held = append(held, lock)
	}
	return release, nil
}
