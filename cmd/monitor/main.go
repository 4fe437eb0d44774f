package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/telebot.v3"

	"pc_duration_alert/internal/app"
	"pc_duration_alert/internal/domain/telegram"
	"pc_duration_alert/internal/infra/alerter"
	"pc_duration_alert/internal/infra/api"
	"pc_duration_alert/internal/infra/config"
	"pc_duration_alert/internal/infra/logger"
	"pc_duration_alert/internal/infra/samsara"
	"pc_duration_alert/internal/infra/scheduler"
	"pc_duration_alert/internal/infra/secrets"
	infraTelegram "pc_duration_alert/internal/infra/telegram"
)

func main() {
	once := flag.Bool("once", false, "run a single PC duration check and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	log := logger.Get()
	log.Infof("PC Duration Alert Monitor starting. Environment: %s", cfg.Environment)

	// Collaborators.
	secretsProvider := secrets.NewProvider(log)
	samsaraClient := samsara.NewClient(cfg.SamsaraBaseURL, log)

	var tgClient telegram.Client
	if cfg.TelegramToken != "" {
		// The bot only sends; no poller is started.
		bot, err := telebot.NewBot(telebot.Settings{Token: cfg.TelegramToken})
		if err != nil {
			log.Fatalf("could not create Telegram bot: %v", err)
		}
		tgClient = infraTelegram.NewTelebotAdapter(bot)
		log.Info("Telegram alert channel enabled")
	}

	dispatcherFor := func(settings app.DispatchSettings) app.Dispatcher {
		return alerter.New(alerter.Config{
			ConsoleOutput:   settings.ConsoleOutput,
			WebhookURL:      settings.WebhookURL,
			EmailRecipients: settings.EmailRecipients,
			TelegramChatID:  settings.TelegramChatID,
		}, tgClient, log)
	}

	runService := app.NewRunService(samsaraClient, secretsProvider, dispatcherFor, app.Defaults{
		APIKey:          cfg.SamsaraAPIKey,
		ThresholdHours:  cfg.PCThresholdHours,
		DriverTagIDs:    cfg.DriverTagIDs,
		WebhookURL:      cfg.WebhookURL,
		EmailRecipients: cfg.EmailRecipients,
		TelegramChatID:  cfg.TelegramChatID,
	}, log)

	if *once {
		runOnce(runService)
		return
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(runService, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // a triggered run paginates and dispatches inline
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Infof("HTTP server listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	var monitorScheduler *scheduler.MonitorScheduler
	if cfg.PollCronSpec != "" {
		monitorScheduler = scheduler.NewMonitorScheduler(runService, log, cfg.PollCronSpec)
		if err := monitorScheduler.Start(); err != nil {
			log.Fatalf("could not start scheduler: %v", err)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	if monitorScheduler != nil {
		monitorScheduler.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}
	log.Info("application shut down gracefully")
}

// runOnce executes a single check and prints the structured result, the way
// an external scheduler invocation would see it.
func runOnce(runs app.RunService) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	resp := runs.Run(ctx, app.RunRequest{})
	out, _ := json.MarshalIndent(resp.Body, "", "  ")
	fmt.Println(string(out))
	if resp.StatusCode >= 400 {
		os.Exit(1)
	}
}
