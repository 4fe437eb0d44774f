package app

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pc_duration_alert/internal/domain/alert"
	"pc_duration_alert/internal/domain/hos"
	"pc_duration_alert/internal/infra/metrics"
)

// DefaultThresholdHours applies when neither the request nor the environment
// supplies a threshold.
const DefaultThresholdHours = 16.0

// Run status discriminators. Callers branch on these, never on message text.
const (
	StatusOK           = "ok"
	StatusNoDrivers    = "no_drivers"
	StatusUnauthorized = "unauthorized"
	StatusError        = "error"
)

// ClockSource fetches the current duty-status snapshot, following pagination
// until exhausted.
type ClockSource interface {
	FetchClocks(ctx context.Context, token string, filters hos.Filters) ([]hos.Clock, error)
}

// SecretsSource looks up secret values. Implementations never fail: any fault
// yields an empty map and the token resolution falls through to other sources.
type SecretsSource interface {
	Secrets(ctx context.Context) map[string]string
}

// Dispatcher delivers alerts and run summaries.
type Dispatcher interface {
	SendBulk(ctx context.Context, results []alert.Result) alert.BulkSummary
	SendSummary(stats alert.RunStats)
}

// DispatchSettings parameterizes the dispatcher for one run, after request
// overrides have been applied.
type DispatchSettings struct {
	ConsoleOutput   bool
	WebhookURL      string
	EmailRecipients []string
	TelegramChatID  int64
}

// DispatcherFactory builds a dispatcher for one run's settings.
type DispatcherFactory func(settings DispatchSettings) Dispatcher

// Defaults carries the environment-level configuration a request can
// override.
type Defaults struct {
	APIKey          string
	ThresholdHours  float64
	DriverTagIDs    []string
	WebhookURL      string
	EmailRecipients []string
	TelegramChatID  int64
}

// RunRequest is one invocation of the monitor with optional overrides.
type RunRequest struct {
	APIKey              string
	ThresholdHours      *float64
	DriverTagIDs        []string
	WebhookURL          string
	EmailRecipients     []string
	IncludeAllPCDrivers bool
}

// RunBody is the structured result of a run. Status always identifies which
// variant the body is.
type RunBody struct {
	Status        string             `json:"status"`
	RunID         string             `json:"run_id"`
	Message       string             `json:"message,omitempty"`
	Error         string             `json:"error,omitempty"`
	Summary       *alert.RunStats    `json:"summary,omitempty"`
	Alerts        []alert.Result     `json:"alerts,omitempty"`
	AlertDelivery *alert.BulkSummary `json:"alert_delivery,omitempty"`
	AllPCDrivers  []alert.Result     `json:"all_pc_drivers,omitempty"`
}

// RunResponse pairs the body with an HTTP-ish status code for the trigger
// surface.
type RunResponse struct {
	StatusCode int
	Body       RunBody
}

// RunService executes one PC-duration check end to end.
type RunService interface {
	Run(ctx context.Context, req RunRequest) RunResponse
}

// RunServiceImpl wires the fetch collaborator, analyzer and dispatcher into
// the run control flow. Each run is a stateless snapshot evaluation; nothing
// carries over between invocations.
type RunServiceImpl struct {
	clocks     ClockSource
	secrets    SecretsSource
	dispatcher DispatcherFactory
	defaults   Defaults
	logger     *logrus.Logger
	now        func() time.Time
}

func NewRunService(
	clocks ClockSource,
	secrets SecretsSource,
	dispatcher DispatcherFactory,
	defaults Defaults,
	logger *logrus.Logger,
) *RunServiceImpl {
	if defaults.ThresholdHours <= 0 {
		defaults.ThresholdHours = DefaultThresholdHours
	}
	return &RunServiceImpl{
		clocks:     clocks,
		secrets:    secrets,
		dispatcher: dispatcher,
		defaults:   defaults,
		logger:     logger,
		now:        time.Now,
	}
}

// Run performs fetch, analysis and dispatch for one snapshot.
func (s *RunServiceImpl) Run(ctx context.Context, req RunRequest) RunResponse {
	runID := uuid.NewString()
	log := s.logger.WithField("run_id", runID)
	log.Info("starting PC duration check")

	token := s.resolveToken(ctx, req)
	if token == "" {
		log.Warn("no API token resolvable from secrets, request or environment")
		metrics.RunsTotal.WithLabelValues(StatusUnauthorized).Inc()
		return RunResponse{
			StatusCode: http.StatusUnauthorized,
			Body: RunBody{
				Status: StatusUnauthorized,
				RunID:  runID,
				Error:  "missing API token",
			},
		}
	}

	threshold := s.defaults.ThresholdHours
	if req.ThresholdHours != nil {
		threshold = *req.ThresholdHours
	}
	tagIDs := s.defaults.DriverTagIDs
	if len(req.DriverTagIDs) > 0 {
		tagIDs = req.DriverTagIDs
	}
	log.Infof("configuration: threshold=%.1fh tag_filter=%v", threshold, tagIDs)

	clocks, err := s.clocks.FetchClocks(ctx, token, hos.Filters{TagIDs: tagIDs})
	if err != nil {
		log.Errorf("fetching HOS clocks: %v", err)
		metrics.RunsTotal.WithLabelValues(StatusError).Inc()
		return RunResponse{
			StatusCode: http.StatusInternalServerError,
			Body: RunBody{
				Status:  StatusError,
				RunID:   runID,
				Message: "failed to analyze PC duration",
				Error:   err.Error(),
			},
		}
	}
	log.Infof("retrieved clocks for %d drivers", len(clocks))

	if len(clocks) == 0 {
		metrics.RunsTotal.WithLabelValues(StatusNoDrivers).Inc()
		return RunResponse{
			StatusCode: http.StatusOK,
			Body: RunBody{
				Status:  StatusNoDrivers,
				RunID:   runID,
				Message: "no drivers found",
				Summary: &alert.RunStats{ThresholdHours: threshold},
			},
		}
	}

	analyzer := NewAnalyzer(threshold)
	results := analyzer.AnalyzeAll(clocks, s.now().UTC())

	var inPC []alert.Result
	for _, r := range results {
		if r.InPC {
			inPC = append(inPC, r)
		}
	}
	violations := FilterViolations(results)
	log.Infof("%d drivers in PC, %d over the %.1fh threshold", len(inPC), len(violations), threshold)

	dispatcher := s.dispatcher(s.dispatchSettings(req))
	var delivery *alert.BulkSummary
	if len(violations) > 0 {
		d := dispatcher.SendBulk(ctx, violations)
		delivery = &d
		metrics.DeliveryFailuresTotal.Add(float64(d.Failed))
	}

	stats := alert.RunStats{
		DriversChecked:  len(clocks),
		DriversInPC:     len(inPC),
		AlertsTriggered: len(violations),
		ThresholdHours:  threshold,
	}
	dispatcher.SendSummary(stats)

	metrics.RunsTotal.WithLabelValues(StatusOK).Inc()
	metrics.AlertsTriggeredTotal.Add(float64(len(violations)))
	metrics.DriversInPC.Set(float64(len(inPC)))

	body := RunBody{
		Status:        StatusOK,
		RunID:         runID,
		Summary:       &stats,
		Alerts:        rounded(violations),
		AlertDelivery: delivery,
	}
	if req.IncludeAllPCDrivers {
		body.AllPCDrivers = rounded(inPC)
	}
	return RunResponse{StatusCode: http.StatusOK, Body: body}
}

// resolveToken applies the token fallback chain: secret-sourced values win,
// then the per-run override, then the environment-level default.
func (s *RunServiceImpl) resolveToken(ctx context.Context, req RunRequest) string {
	secrets := map[string]string{}
	if s.secrets != nil {
		secrets = s.secrets.Secrets(ctx)
	}
	for _, key := range []string{"SAMSARA_API_KEY", "SAMSARA_API_TOKEN"} {
		if v := secrets[key]; v != "" {
			return v
		}
	}
	if req.APIKey != "" {
		return req.APIKey
	}
	return s.defaults.APIKey
}

func (s *RunServiceImpl) dispatchSettings(req RunRequest) DispatchSettings {
	settings := DispatchSettings{
		ConsoleOutput:   true,
		WebhookURL:      s.defaults.WebhookURL,
		EmailRecipients: s.defaults.EmailRecipients,
		TelegramChatID:  s.defaults.TelegramChatID,
	}
	if req.WebhookURL != "" {
		settings.WebhookURL = req.WebhookURL
	}
	if len(req.EmailRecipients) > 0 {
		settings.EmailRecipients = req.EmailRecipients
	}
	return settings
}

func rounded(results []alert.Result) []alert.Result {
	out := make([]alert.Result, 0, len(results))
	for _, r := range results {
		out = append(out, r.Rounded())
	}
	return out
}
