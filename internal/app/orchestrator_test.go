package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pc_duration_alert/internal/domain/alert"
	"pc_duration_alert/internal/domain/hos"
)

type stubClocks struct {
	clocks   []hos.Clock
	err      error
	calls    int
	gotToken string
	gotTags  []string
}

func (s *stubClocks) FetchClocks(_ context.Context, token string, filters hos.Filters) ([]hos.Clock, error) {
	s.calls++
	s.gotToken = token
	s.gotTags = filters.TagIDs
	return s.clocks, s.err
}

type stubSecrets map[string]string

func (s stubSecrets) Secrets(context.Context) map[string]string { return s }

type stubDispatcher struct {
	bulkCalls    [][]alert.Result
	summaryCalls []alert.RunStats
}

func (d *stubDispatcher) SendBulk(_ context.Context, results []alert.Result) alert.BulkSummary {
	d.bulkCalls = append(d.bulkCalls, results)
	summary := alert.BulkSummary{TotalAlerts: len(results), Successful: len(results)}
	for _, r := range results {
		summary.Results = append(summary.Results, alert.Delivery{DriverID: r.DriverID, Succeeded: true})
	}
	return summary
}

func (d *stubDispatcher) SendSummary(stats alert.RunStats) {
	d.summaryCalls = append(d.summaryCalls, stats)
}

type testHarness struct {
	service    *RunServiceImpl
	clocks     *stubClocks
	dispatcher *stubDispatcher
	settings   []DispatchSettings
	factoryHit int
}

func newHarness(clocks *stubClocks, secrets stubSecrets, defaults Defaults) *testHarness {
	h := &testHarness{clocks: clocks, dispatcher: &stubDispatcher{}}
	log := logrus.New()
	log.SetOutput(io.Discard)

	factory := func(settings DispatchSettings) Dispatcher {
		h.factoryHit++
		h.settings = append(h.settings, settings)
		return h.dispatcher
	}
	h.service = NewRunService(clocks, secrets, factory, defaults, log)
	h.service.now = func() time.Time {
		return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	}
	return h
}

func (h *testHarness) now() time.Time { return h.service.now() }

func TestRunTriggersAlertForDriverOverThreshold(t *testing.T) {
	clocks := &stubClocks{}
	h := newHarness(clocks, stubSecrets{"SAMSARA_API_KEY": "secret-token"}, Defaults{})
	clocks.clocks = []hos.Clock{
		{Driver: hos.Driver{ID: "d1", Name: "A"}, CurrentDutyStatus: hos.DutyStatus{Type: hos.StatusDriving}},
		{Driver: hos.Driver{ID: "d2", Name: "B"}, CurrentDutyStatus: hos.DutyStatus{
			Type:      hos.StatusPersonalConveyance,
			StartTime: h.now().Add(-17 * time.Hour).Format(time.RFC3339),
		}},
		{Driver: hos.Driver{ID: "d3", Name: "C"}, CurrentDutyStatus: hos.DutyStatus{Type: hos.StatusOffDuty}},
	}

	resp := h.service.Run(context.Background(), RunRequest{})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, StatusOK, resp.Body.Status)
	assert.NotEmpty(t, resp.Body.RunID)

	require.NotNil(t, resp.Body.Summary)
	assert.Equal(t, 3, resp.Body.Summary.DriversChecked)
	assert.Equal(t, 1, resp.Body.Summary.DriversInPC)
	assert.Equal(t, 1, resp.Body.Summary.AlertsTriggered)
	assert.Equal(t, DefaultThresholdHours, resp.Body.Summary.ThresholdHours)

	require.Len(t, resp.Body.Alerts, 1)
	assert.Equal(t, "d2", resp.Body.Alerts[0].DriverID)
	assert.Equal(t, 17.0, resp.Body.Alerts[0].PCHours)

	require.Len(t, h.dispatcher.bulkCalls, 1)
	require.Len(t, h.dispatcher.summaryCalls, 1)
	require.NotNil(t, resp.Body.AlertDelivery)
	assert.Equal(t, 1, resp.Body.AlertDelivery.Successful)

	assert.Equal(t, "secret-token", clocks.gotToken)
}

func TestRunNoDrivers(t *testing.T) {
	clocks := &stubClocks{}
	h := newHarness(clocks, stubSecrets{}, Defaults{APIKey: "env-token"})

	resp := h.service.Run(context.Background(), RunRequest{})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, StatusNoDrivers, resp.Body.Status)
	require.NotNil(t, resp.Body.Summary)
	assert.Zero(t, resp.Body.Summary.DriversChecked)
	// The dispatcher is never built for an empty snapshot.
	assert.Zero(t, h.factoryHit)
}

func TestRunFetchFault(t *testing.T) {
	clocks := &stubClocks{err: errors.New("connection reset by upstream")}
	h := newHarness(clocks, stubSecrets{}, Defaults{APIKey: "env-token"})

	resp := h.service.Run(context.Background(), RunRequest{})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, StatusError, resp.Body.Status)
	assert.Contains(t, resp.Body.Error, "connection reset by upstream")
	assert.Zero(t, h.factoryHit)
	assert.Empty(t, h.dispatcher.bulkCalls)
}

func TestRunUnauthorizedWithoutToken(t *testing.T) {
	clocks := &stubClocks{}
	h := newHarness(clocks, stubSecrets{}, Defaults{})

	resp := h.service.Run(context.Background(), RunRequest{})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, StatusUnauthorized, resp.Body.Status)
	// The fetch collaborator is never invoked when auth is missing.
	assert.Zero(t, clocks.calls)
}

func TestRunTokenResolutionOrder(t *testing.T) {
	t.Run("secrets beat request and environment", func(t *testing.T) {
		clocks := &stubClocks{}
		h := newHarness(clocks, stubSecrets{"SAMSARA_API_TOKEN": "from-secrets"}, Defaults{APIKey: "from-env"})
		h.service.Run(context.Background(), RunRequest{APIKey: "from-request"})
		assert.Equal(t, "from-secrets", clocks.gotToken)
	})

	t.Run("request beats environment", func(t *testing.T) {
		clocks := &stubClocks{}
		h := newHarness(clocks, stubSecrets{}, Defaults{APIKey: "from-env"})
		h.service.Run(context.Background(), RunRequest{APIKey: "from-request"})
		assert.Equal(t, "from-request", clocks.gotToken)
	})

	t.Run("environment is the last resort", func(t *testing.T) {
		clocks := &stubClocks{}
		h := newHarness(clocks, stubSecrets{}, Defaults{APIKey: "from-env"})
		h.service.Run(context.Background(), RunRequest{})
		assert.Equal(t, "from-env", clocks.gotToken)
	})
}

func TestRunAppliesOverrides(t *testing.T) {
	clocks := &stubClocks{}
	h := newHarness(clocks, stubSecrets{}, Defaults{
		APIKey:         "env-token",
		ThresholdHours: 16.0,
		DriverTagIDs:   []string{"default-tag"},
		WebhookURL:     "https://hooks.example.com/default",
	})
	clocks.clocks = []hos.Clock{
		{Driver: hos.Driver{ID: "d1", Name: "A"}, CurrentDutyStatus: hos.DutyStatus{
			Type:      hos.StatusPersonalConveyance,
			StartTime: h.now().Add(-5 * time.Hour).Format(time.RFC3339),
		}},
	}

	threshold := 4.0
	resp := h.service.Run(context.Background(), RunRequest{
		ThresholdHours: &threshold,
		DriverTagIDs:   []string{"override-tag"},
		WebhookURL:     "https://hooks.example.com/override",
	})

	// 5h in PC violates the overridden 4h threshold.
	require.Len(t, resp.Body.Alerts, 1)
	assert.Equal(t, 4.0, resp.Body.Alerts[0].ThresholdHours)
	assert.Equal(t, []string{"override-tag"}, clocks.gotTags)

	require.Len(t, h.settings, 1)
	assert.Equal(t, "https://hooks.example.com/override", h.settings[0].WebhookURL)
	assert.True(t, h.settings[0].ConsoleOutput)
}

func TestRunVerboseIncludesAllPCDrivers(t *testing.T) {
	clocks := &stubClocks{}
	h := newHarness(clocks, stubSecrets{}, Defaults{APIKey: "env-token"})
	clocks.clocks = []hos.Clock{
		{Driver: hos.Driver{ID: "violator", Name: "A"}, CurrentDutyStatus: hos.DutyStatus{
			Type:      hos.StatusPersonalConveyance,
			StartTime: h.now().Add(-20 * time.Hour).Format(time.RFC3339),
		}},
		{Driver: hos.Driver{ID: "in-pc", Name: "B"}, CurrentDutyStatus: hos.DutyStatus{
			Type:      hos.StatusPersonalConveyance,
			StartTime: h.now().Add(-2 * time.Hour).Format(time.RFC3339),
		}},
	}

	resp := h.service.Run(context.Background(), RunRequest{IncludeAllPCDrivers: true})

	require.Len(t, resp.Body.Alerts, 1)
	require.Len(t, resp.Body.AllPCDrivers, 2)
	assert.Equal(t, "violator", resp.Body.AllPCDrivers[0].DriverID)
	assert.Equal(t, "in-pc", resp.Body.AllPCDrivers[1].DriverID)

	// Without the flag the detail list is omitted.
	resp = h.service.Run(context.Background(), RunRequest{})
	assert.Nil(t, resp.Body.AllPCDrivers)
}
