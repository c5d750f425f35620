// Package metrics observes a running chain. [Convergence] is the
// steady-state detector used by the simulator; the remaining types
// implement [dynamo.Metric] and are fed a snapshot at every sample point.
package metrics
