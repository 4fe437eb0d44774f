package alerter

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pc_duration_alert/internal/domain/alert"
	domainTelegram "pc_duration_alert/internal/domain/telegram"
)

// Config selects and parameterizes the enabled channels. A channel with empty
// settings is simply skipped.
type Config struct {
	ConsoleOutput   bool
	WebhookURL      string
	EmailRecipients []string
	TelegramChatID  int64
}

// Alerter fans alerts out to every enabled channel with per-channel failure
// isolation: one channel's fault is captured in its own outcome and never
// prevents the others from being attempted.
type Alerter struct {
	channels []Channel
	log      *logrus.Logger
	now      func() time.Time
}

// New builds an alerter from the channel configuration. The telegram client
// may be nil, in which case that channel is skipped even if a chat ID is set.
func New(cfg Config, tg domainTelegram.Client, log *logrus.Logger) *Alerter {
	var channels []Channel
	if cfg.ConsoleOutput {
		channels = append(channels, NewConsoleChannel(log))
	}
	if cfg.WebhookURL != "" {
		channels = append(channels, NewWebhookChannel(cfg.WebhookURL))
	}
	if len(cfg.EmailRecipients) > 0 {
		channels = append(channels, NewEmailChannel(cfg.EmailRecipients, log))
	}
	if cfg.TelegramChatID != 0 && tg != nil {
		channels = append(channels, NewTelegramChannel(tg, cfg.TelegramChatID))
	}
	return &Alerter{channels: channels, log: log, now: time.Now}
}

// SendAlert attempts delivery of one violation on every enabled channel.
// Channels run concurrently; each writes only its own outcome slot, so the
// merge needs no locking. A slow or failing channel costs at most its own
// timeout.
func (a *Alerter) SendAlert(ctx context.Context, result alert.Result) alert.Delivery {
	payload := alert.Payload{
		AlertType: alert.TypePCDurationExceeded,
		Timestamp: a.now().UTC().Format(time.RFC3339),
		Result:    result.Rounded(),
	}

	outcomes := make([]alert.Outcome, len(a.channels))
	var wg sync.WaitGroup
	for i, ch := range a.channels {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			outcome := alert.Outcome{Channel: ch.Name(), Succeeded: true}
			if err := ch.Send(ctx, payload); err != nil {
				outcome.Succeeded = false
				outcome.Error = err.Error()
				a.log.WithField("channel", ch.Name()).Warnf("alert delivery failed for driver %s: %v", result.DriverID, err)
			}
			outcomes[i] = outcome
		}(i, ch)
	}
	wg.Wait()

	delivery := alert.Delivery{DriverID: result.DriverID, Succeeded: true, Outcomes: outcomes}
	for _, o := range outcomes {
		if !o.Succeeded {
			delivery.Succeeded = false
			break
		}
	}
	return delivery
}

// SendBulk dispatches a batch of violations in input order. An alert counts
// as successful only when all of its attempted channels succeeded.
func (a *Alerter) SendBulk(ctx context.Context, results []alert.Result) alert.BulkSummary {
	summary := alert.BulkSummary{TotalAlerts: len(results)}
	for _, r := range results {
		delivery := a.SendAlert(ctx, r)
		summary.Results = append(summary.Results, delivery)
		if delivery.Succeeded {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	return summary
}

// SendSummary logs the aggregate run statistics. Best effort only: it reports
// nothing upstream.
func (a *Alerter) SendSummary(stats alert.RunStats) {
	a.log.WithFields(logrus.Fields{
		"drivers_checked":  stats.DriversChecked,
		"drivers_in_pc":    stats.DriversInPC,
		"alerts_triggered": stats.AlertsTriggered,
		"threshold_hours":  stats.ThresholdHours,
	}).Info("PC duration analysis summary")
}
