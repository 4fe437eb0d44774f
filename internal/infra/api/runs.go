package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"pc_duration_alert/internal/app"
)

// runRequest is the JSON body of a trigger call. Every field is an optional
// override of the environment-level configuration.
type runRequest struct {
	APIKey              string   `json:"api_key"`
	PCThresholdHours    *float64 `json:"pc_threshold_hours"`
	DriverTagIDs        []string `json:"driver_tag_ids"`
	WebhookURL          string   `json:"webhook_url"`
	EmailRecipients     []string `json:"email_recipients"`
	IncludeAllPCDrivers bool     `json:"include_all_pc_drivers"`
}

// RunHandler triggers one monitoring run and relays the orchestrator's
// status code and body.
func RunHandler(runs app.RunService, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"status": "bad_request",
				"error":  "request body must be a JSON object",
			})
			return
		}

		resp := runs.Run(r.Context(), app.RunRequest{
			APIKey:              req.APIKey,
			ThresholdHours:      req.PCThresholdHours,
			DriverTagIDs:        req.DriverTagIDs,
			WebhookURL:          req.WebhookURL,
			EmailRecipients:     req.EmailRecipients,
			IncludeAllPCDrivers: req.IncludeAllPCDrivers,
		})
		writeJSON(w, resp.StatusCode, resp.Body)
	}
}

// HealthHandler returns the health check handler.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
