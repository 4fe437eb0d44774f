package alerter

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"pc_duration_alert/internal/domain/alert"
)

// Channel is one independent alert delivery mechanism. A failing Send must
// only affect its own outcome, never the run.
type Channel interface {
	Name() string
	Send(ctx context.Context, payload alert.Payload) error
}

// ConsoleChannel renders alerts into the structured log. It only fails if
// rendering itself faults, which the placeholder handling below prevents.
type ConsoleChannel struct {
	log *logrus.Logger
}

func NewConsoleChannel(log *logrus.Logger) *ConsoleChannel {
	return &ConsoleChannel{log: log}
}

func (c *ConsoleChannel) Name() string { return "console" }

func (c *ConsoleChannel) Send(_ context.Context, payload alert.Payload) error {
	c.log.WithFields(logrus.Fields{
		"driver":     orPlaceholder(payload.DriverName),
		"driver_id":  orPlaceholder(payload.DriverID),
		"pc_hours":   fmt.Sprintf("%.2f", payload.PCHours),
		"threshold":  payload.ThresholdHours,
		"pc_started": startedAt(payload),
		"alert_time": payload.Timestamp,
	}).Warn("PC duration alert")
	return nil
}

// EmailChannel has no real transport wired; it logs what it would send and
// reports success, matching the behavior callers already depend on.
type EmailChannel struct {
	recipients []string
	log        *logrus.Logger
}

func NewEmailChannel(recipients []string, log *logrus.Logger) *EmailChannel {
	return &EmailChannel{recipients: recipients, log: log}
}

func (e *EmailChannel) Name() string { return "email" }

func (e *EmailChannel) Send(_ context.Context, payload alert.Payload) error {
	e.log.WithFields(logrus.Fields{
		"recipients": strings.Join(e.recipients, ", "),
		"subject":    fmt.Sprintf("PC Duration Alert - %s", orPlaceholder(payload.DriverName)),
	}).Infof("email alert would report %.2f hours in PC", payload.PCHours)
	return nil
}

func orPlaceholder(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func startedAt(payload alert.Payload) string {
	if payload.PCStartTime == nil {
		return "unknown"
	}
	return payload.PCStartTime.Format("2006-01-02T15:04:05Z07:00")
}
