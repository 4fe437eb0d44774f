package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pc_duration_alert/internal/domain/hos"
)

var analyzerNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func pcClock(id, name, startTime string) hos.Clock {
	return hos.Clock{
		Driver: hos.Driver{ID: id, Name: name},
		CurrentDutyStatus: hos.DutyStatus{
			Type:      hos.StatusPersonalConveyance,
			StartTime: startTime,
		},
	}
}

func TestAnalyzeNotInPC(t *testing.T) {
	analyzer := NewAnalyzer(16.0)

	for _, status := range []string{hos.StatusOffDuty, hos.StatusDriving, hos.StatusOnDuty, hos.StatusSleeperBed, hos.StatusYardMove} {
		t.Run(status, func(t *testing.T) {
			clock := hos.Clock{
				Driver: hos.Driver{ID: "d1", Name: "Alex Doe"},
				CurrentDutyStatus: hos.DutyStatus{
					Type: status,
					// Even with a valid start time, a non-PC status yields a
					// zero-duration result.
					StartTime: analyzerNow.Add(-20 * time.Hour).Format(time.RFC3339),
				},
			}

			res := analyzer.Analyze(clock, analyzerNow)
			assert.False(t, res.InPC)
			assert.Zero(t, res.PCHours)
			assert.Nil(t, res.PCStartTime)
			assert.False(t, res.ExceedsThreshold)
			assert.Equal(t, 16.0, res.ThresholdHours)
		})
	}
}

func TestAnalyzeInPCOverThreshold(t *testing.T) {
	analyzer := NewAnalyzer(16.0)
	start := analyzerNow.Add(-17 * time.Hour)

	res := analyzer.Analyze(pcClock("d1", "Alex Doe", start.Format(time.RFC3339)), analyzerNow)

	assert.True(t, res.InPC)
	assert.InDelta(t, 17.0, res.PCHours, 1e-9)
	require.NotNil(t, res.PCStartTime)
	assert.True(t, res.PCStartTime.Equal(start))
	assert.True(t, res.ExceedsThreshold)
}

func TestAnalyzeThresholdBoundaryIsInclusive(t *testing.T) {
	analyzer := NewAnalyzer(16.0)

	// Exactly at the threshold counts as a violation.
	start := analyzerNow.Add(-16 * time.Hour)
	res := analyzer.Analyze(pcClock("d1", "Alex Doe", start.Format(time.RFC3339)), analyzerNow)
	assert.InDelta(t, 16.0, res.PCHours, 1e-9)
	assert.True(t, res.ExceedsThreshold)

	// One minute under does not.
	start = analyzerNow.Add(-16*time.Hour + time.Minute)
	res = analyzer.Analyze(pcClock("d1", "Alex Doe", start.Format(time.RFC3339)), analyzerNow)
	assert.False(t, res.ExceedsThreshold)
}

func TestAnalyzeMalformedStartTime(t *testing.T) {
	analyzer := NewAnalyzer(16.0)

	res := analyzer.Analyze(pcClock("d1", "Alex Doe", "yesterday-ish"), analyzerNow)

	// The driver is known to be in PC but the duration is unknowable; this
	// must not become a violation or a crash.
	assert.True(t, res.InPC)
	assert.Zero(t, res.PCHours)
	assert.Nil(t, res.PCStartTime)
	assert.False(t, res.ExceedsThreshold)
}

func TestAnalyzeMissingStartTime(t *testing.T) {
	analyzer := NewAnalyzer(16.0)

	res := analyzer.Analyze(pcClock("d1", "Alex Doe", ""), analyzerNow)

	assert.False(t, res.InPC)
	assert.Zero(t, res.PCHours)
	assert.False(t, res.ExceedsThreshold)
}

func TestAnalyzeNegativeElapsedPassedThrough(t *testing.T) {
	analyzer := NewAnalyzer(16.0)
	start := analyzerNow.Add(2 * time.Hour)

	res := analyzer.Analyze(pcClock("d1", "Alex Doe", start.Format(time.RFC3339)), analyzerNow)

	// An inconsistent reference clock is the caller's contract violation;
	// surface it transparently instead of clamping.
	assert.True(t, res.InPC)
	assert.InDelta(t, -2.0, res.PCHours, 1e-9)
	assert.False(t, res.ExceedsThreshold)
}

func TestAnalyzeDefaultsUnknownDriver(t *testing.T) {
	analyzer := NewAnalyzer(16.0)

	res := analyzer.Analyze(hos.Clock{}, analyzerNow)

	assert.Equal(t, "unknown", res.DriverID)
	assert.Equal(t, "Unknown Driver", res.DriverName)
}

func TestAnalyzeAllPreservesOrder(t *testing.T) {
	analyzer := NewAnalyzer(16.0)

	var clocks []hos.Clock
	for i := 0; i < 5; i++ {
		clocks = append(clocks, pcClock(fmt.Sprintf("d%d", i), fmt.Sprintf("Driver %d", i), analyzerNow.Add(-time.Duration(i)*time.Hour).Format(time.RFC3339)))
	}

	results := analyzer.AnalyzeAll(clocks, analyzerNow)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("d%d", i), r.DriverID)
	}
}

func TestFilterViolations(t *testing.T) {
	analyzer := NewAnalyzer(16.0)

	clocks := []hos.Clock{
		pcClock("over-1", "A", analyzerNow.Add(-20*time.Hour).Format(time.RFC3339)),
		pcClock("under", "B", analyzerNow.Add(-2*time.Hour).Format(time.RFC3339)),
		{Driver: hos.Driver{ID: "off-duty", Name: "C"}, CurrentDutyStatus: hos.DutyStatus{Type: hos.StatusOffDuty}},
		pcClock("over-2", "D", analyzerNow.Add(-17*time.Hour).Format(time.RFC3339)),
	}

	results := analyzer.AnalyzeAll(clocks, analyzerNow)
	violations := FilterViolations(results)

	require.Len(t, violations, 2)
	assert.Equal(t, "over-1", violations[0].DriverID)
	assert.Equal(t, "over-2", violations[1].DriverID)
	for _, v := range violations {
		assert.True(t, v.ExceedsThreshold)
	}
}
