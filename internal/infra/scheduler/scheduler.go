package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"pc_duration_alert/internal/app"
)

// runTimeout bounds one scheduled check: the fetch pagination plus the
// dispatcher's per-channel timeouts all fit well inside this.
const runTimeout = 5 * time.Minute

// MonitorScheduler triggers periodic PC duration checks through the run
// service. Each tick is one independent run; overlapping concerns are the run
// service's problem, not the scheduler's.
type MonitorScheduler struct {
	cronEngine *cron.Cron
	runs       app.RunService
	logger     *logrus.Logger
	cronSpec   string
}

func NewMonitorScheduler(runs app.RunService, logger *logrus.Logger, cronSpec string) *MonitorScheduler {
	return &MonitorScheduler{
		cronEngine: cron.New(cron.WithLocation(time.UTC)),
		runs:       runs,
		logger:     logger,
		cronSpec:   cronSpec,
	}
}

// Start registers the polling job and starts the cron engine.
func (s *MonitorScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("scheduled PC duration check triggered")
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		resp := s.runs.Run(ctx, app.RunRequest{})
		switch resp.Body.Status {
		case app.StatusOK, app.StatusNoDrivers:
			s.logger.Infof("scheduled check finished: status=%s", resp.Body.Status)
		default:
			s.logger.Errorf("scheduled check failed: status=%s error=%s", resp.Body.Status, resp.Body.Error)
		}
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.logger.Infof("monitor scheduler started with spec %q", s.cronSpec)
	return nil
}

// Stop waits for a running job to finish before returning.
func (s *MonitorScheduler) Stop() {
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("monitor scheduler stopped")
}
