// Package tracking mirrors sweep results into an MLflow experiment.
package tracking

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/databricks/databricks-sdk-go"
	"github.com/databricks/databricks-sdk-go/service/ml"
	"github.com/sirupsen/logrus"

	"github.com/flowforge-sim/remyr-sweep/remyr/analysis"
	"github.com/flowforge-sim/remyr-sweep/remyr/progress"
	"github.com/flowforge-sim/remyr-sweep/remyr/sweep"
)

// Tracker records finished training runs.
type Tracker interface {
	Track(ctx context.Context, sweepID string, res sweep.RunResult) error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Track(context.Context, string, sweep.RunResult) error { return nil }

// experiments is the part of the MLflow API the tracker uses.
type experiments interface {
	CreateRun(ctx context.Context, request ml.CreateRun) (*ml.CreateRunResponse, error)
	LogParam(ctx context.Context, request ml.LogParam) error
	LogMetric(ctx context.Context, request ml.LogMetric) error
	UpdateRun(ctx context.Context, request ml.UpdateRun) (*ml.UpdateRunResponse, error)
}

// MLflow logs one MLflow run per training run.
type MLflow struct {
	api          experiments
	experimentID string
	now          func() time.Time
}

// New returns Nop when cfg is disabled and an MLflow tracker otherwise.
func New(cfg *Config) (Tracker, error) {
	if !cfg.Enabled() {
		return Nop{}, nil
	}
	return NewMLflow(cfg)
}

// NewMLflow connects to the tracking server in cfg.
func NewMLflow(cfg *Config) (*MLflow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracking config: %w", err)
	}

	var dbc *databricks.Config
	if cfg.IsDatabricks() {
		dbc = &databricks.Config{Token: cfg.DatabricksToken}
		switch {
		case cfg.TrackingURI == "databricks":
			dbc.Host = cfg.DatabricksHost
		case strings.HasPrefix(cfg.TrackingURI, "databricks://"):
			dbc.Profile = cfg.databricksProfile()
		default:
			dbc.Host = cfg.TrackingURI
		}
		if dbc.Host == "" && dbc.Profile == "" {
			return nil, fmt.Errorf("databricks host or profile is required for tracking URI %q", cfg.TrackingURI)
		}
	} else {
		// A plain MLflow server ignores the token but the SDK requires one.
		dbc = &databricks.Config{Host: cfg.TrackingURI, Token: "unused-for-mlflow"}
	}

	client, err := databricks.NewWorkspaceClient(dbc)
	if err != nil {
		return nil, fmt.Errorf("creating MLflow client: %w", err)
	}
	return newMLflow(client.Experiments, cfg.ExperimentID), nil
}

func newMLflow(api experiments, experimentID string) *MLflow {
	return &MLflow{api: api, experimentID: experimentID, now: time.Now}
}

// Track creates an MLflow run named after the training run, logs its parameters, outcome
// and, when the progress log is readable, its training curve. Skipped runs
// are not tracked.
func (m *MLflow) Track(ctx context.Context, sweepID string, res sweep.RunResult) error {
	if res.Status == sweep.StatusSkipped {
		return nil
	}
	spec := res.Spec
	resp, err := m.api.CreateRun(ctx, ml.CreateRun{
		ExperimentId: m.experimentID,
		RunName:      spec.ID(),
		StartTime:    res.Started.UnixMilli(),
		Tags: []ml.RunTag{
			{Key: "mlflow.runName", Value: spec.ID()},
			{Key: "remyr.sweep_id", Value: sweepID},
			{Key: "remyr.namespace", Value: spec.Namespace},
		},
	})
	if err != nil {
		return fmt.Errorf("creating run %s: %w", spec.ID(), err)
	}
	runID := resp.Run.Info.RunId

	params := [][2]string{
		{"delta", spec.Delta},
		{"namespace", spec.Namespace},
		{"utility_config", spec.UtilityConfig},
		{"dna", spec.DNAPath},
	}
	for _, p := range params {
		if err := m.api.LogParam(ctx, ml.LogParam{RunId: runID, Key: p[0], Value: p[1]}); err != nil {
			return fmt.Errorf("logging param %s: %w", p[0], err)
		}
	}

	if err := m.logMetric(ctx, runID, "exit_code", float64(res.ExitCode), 0); err != nil {
		return err
	}
	if err := m.logMetric(ctx, runID, "duration_s", res.Duration.Seconds(), 0); err != nil {
		return err
	}
	if res.Succeeded() {
		if err := m.logProgress(ctx, runID, spec); err != nil {
			logrus.Warnf("%s: not tracking training curve: %v", spec.ID(), err)
		}
	}

	status := ml.UpdateRunStatusFinished
	if !res.Succeeded() {
		status = ml.UpdateRunStatusFailed
	}
	if _, err := m.api.UpdateRun(ctx, ml.UpdateRun{
		RunId:   runID,
		Status:  status,
		EndTime: res.Started.Add(res.Duration).UnixMilli(),
	}); err != nil {
		return fmt.Errorf("closing run %s: %w", spec.ID(), err)
	}
	logrus.Debugf("%s tracked as MLflow run %s", spec.ID(), runID)
	return nil
}

func (m *MLflow) logProgress(ctx context.Context, runID string, spec sweep.RunSpec) error {
	rec, err := progress.Load(spec.ProgressPath)
	if err != nil {
		return err
	}
	summary, err := analysis.Summarize(spec.ID(), rec)
	if err != nil {
		return err
	}
	trimmed := rec.WithoutWarmup()
	for i := range trimmed.Timestamps {
		step := int64(i + 1)
		if err := m.logMetric(ctx, runID, "utility", trimmed.Utility[i], step); err != nil {
			return err
		}
		if err := m.logMetric(ctx, runID, "bandwidth", trimmed.Bandwidth[i], step); err != nil {
			return err
		}
		if err := m.logMetric(ctx, runID, "rtt", trimmed.RTT[i], step); err != nil {
			return err
		}
	}
	for key, v := range map[string]float64{
		"final_utility": summary.FinalUtility,
		"best_utility":  summary.BestUtility,
		"mean_utility":  summary.MeanUtility,
	} {
		if err := m.logMetric(ctx, runID, key, v, 0); err != nil {
			return err
		}
	}
	return nil
}

func (m *MLflow) logMetric(ctx context.Context, runID, key string, value float64, step int64) error {
	err := m.api.LogMetric(ctx, ml.LogMetric{
		RunId:     runID,
		Key:       key,
		Value:     value,
		Timestamp: m.now().UnixMilli(),
		Step:      step,
	})
	if err != nil {
		return fmt.Errorf("logging metric %s=%s: %w", key, strconv.FormatFloat(value, 'g', -1, 64), err)
	}
	return nil
}
