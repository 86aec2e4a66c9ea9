// Package remyr defines the shared error taxonomy for the RemyR training
// toolkit.
//
// # Reading Guide
//
// Start with these packages to understand the data contracts:
//   - series/: optional float samples (missing values are explicit, never NaN)
//   - trace/: one evaluation trace with per-flow bandwidth, RTT and utility
//   - progress/: one training progress log (utility/bandwidth/rtt per checkpoint)
//   - utility/: the alpha-fairness utility family keyed by delta
//
// # Orchestration
//
// sweep/ plans and executes one external trainer invocation per delta. A
// plan is computed in full, checked for output-path collisions, and only
// then executed. Run failures are recorded per run and never abort the
// remaining queue.
//
// # Consumers
//
// analysis/ derives plotting views from traces and records, plot/ renders
// them, and tracking/ forwards finished runs to an MLflow server.
package remyr
