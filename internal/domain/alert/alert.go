package alert

import (
	"math"
	"time"
)

// TypePCDurationExceeded tags outbound payloads for this alert kind.
const TypePCDurationExceeded = "pc_duration_exceeded"

// Result is the analysis outcome for one driver's clock.
//
// Invariants: ExceedsThreshold implies InPC and PCHours >= ThresholdHours;
// when InPC is false, PCHours is 0, PCStartTime is nil and ExceedsThreshold
// is false.
type Result struct {
	DriverID         string     `json:"driver_id"`
	DriverName       string     `json:"driver_name"`
	InPC             bool       `json:"is_currently_in_pc"`
	PCHours          float64    `json:"consecutive_pc_hours"`
	PCStartTime      *time.Time `json:"pc_start_time"`
	ExceedsThreshold bool       `json:"exceeds_threshold"`
	ThresholdHours   float64    `json:"threshold_hours"`
}

// Rounded returns a copy with PCHours rounded to two decimals for external
// payloads. Internal computation keeps full precision.
func (r Result) Rounded() Result {
	r.PCHours = math.Round(r.PCHours*100) / 100
	return r
}

// Payload is the wire form of a violation, built at dispatch time.
type Payload struct {
	AlertType string `json:"alert_type"`
	Timestamp string `json:"timestamp"`
	Result
}

// Outcome records one channel's attempt for one alert.
type Outcome struct {
	Channel   string `json:"channel"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

// Delivery aggregates all channel outcomes for one alert. Succeeded is true
// only when every attempted channel succeeded.
type Delivery struct {
	DriverID  string    `json:"driver_id"`
	Succeeded bool      `json:"succeeded"`
	Outcomes  []Outcome `json:"outcomes"`
}

// BulkSummary summarizes delivery of a batch of alerts.
type BulkSummary struct {
	TotalAlerts int        `json:"total_alerts"`
	Successful  int        `json:"successful"`
	Failed      int        `json:"failed"`
	Results     []Delivery `json:"results"`
}

// RunStats is the aggregate picture of one monitoring run.
type RunStats struct {
	DriversChecked  int     `json:"drivers_checked"`
	DriversInPC     int     `json:"drivers_in_pc"`
	AlertsTriggered int     `json:"alerts_triggered"`
	ThresholdHours  float64 `json:"threshold_hours"`
}
