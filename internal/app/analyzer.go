package app

import (
	"time"

	"pc_duration_alert/internal/domain/alert"
	"pc_duration_alert/internal/domain/hos"
)

// Sentinels used when the upstream record carries no driver identity.
const (
	unknownDriverID   = "unknown"
	unknownDriverName = "Unknown Driver"
)

// Analyzer computes how long each driver has continuously been in Personal
// Conveyance status. It is pure computation: no I/O, no retries, and a
// malformed record never aborts a batch.
type Analyzer struct {
	thresholdHours float64
}

// NewAnalyzer creates an analyzer evaluating against the given threshold.
func NewAnalyzer(thresholdHours float64) *Analyzer {
	return &Analyzer{thresholdHours: thresholdHours}
}

// Analyze classifies a single clock against the reference time.
//
// Drivers not in PC, or in PC with no recorded start time, produce a
// zero-duration non-violating result: that is the steady state, not an error.
// An unparseable start time downgrades the record to "in PC, duration
// unknown" instead of crashing or producing a false violation. Elapsed time
// is not clamped; a negative value means the caller supplied an inconsistent
// reference clock.
func (a *Analyzer) Analyze(clock hos.Clock, now time.Time) alert.Result {
	res := alert.Result{
		DriverID:       clock.Driver.ID,
		DriverName:     clock.Driver.Name,
		ThresholdHours: a.thresholdHours,
	}
	if res.DriverID == "" {
		res.DriverID = unknownDriverID
	}
	if res.DriverName == "" {
		res.DriverName = unknownDriverName
	}

	status := clock.CurrentDutyStatus
	if status.Type != hos.StatusPersonalConveyance || status.StartTime == "" {
		return res
	}
	res.InPC = true

	start, err := time.Parse(time.RFC3339, status.StartTime)
	if err != nil {
		return res
	}
	start = start.UTC()

	res.PCHours = now.Sub(start).Hours()
	res.PCStartTime = &start
	res.ExceedsThreshold = res.PCHours >= a.thresholdHours
	return res
}

// AnalyzeAll maps Analyze over the snapshot, preserving input order.
func (a *Analyzer) AnalyzeAll(clocks []hos.Clock, now time.Time) []alert.Result {
	results := make([]alert.Result, 0, len(clocks))
	for _, clock := range clocks {
		results = append(results, a.Analyze(clock, now))
	}
	return results
}

// FilterViolations keeps only results over the threshold, preserving relative
// order.
func FilterViolations(results []alert.Result) []alert.Result {
	var violations []alert.Result
	for _, r := range results {
		if r.ExceedsThreshold {
			violations = append(violations, r)
		}
	}
	return violations
}
