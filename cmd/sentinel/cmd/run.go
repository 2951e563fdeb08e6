package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"RiskSentinel/internal/analysis"
	"RiskSentinel/internal/logger"
	"RiskSentinel/internal/notifier"
	"RiskSentinel/internal/scheduler"
	"RiskSentinel/internal/server"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler, Telegram bot and HTTP API until interrupted",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	log.Info().Str("version", Version).Msg("RiskSentinel starting")

	store := openCache()
	defer store.Close()

	provider := newProvider(store)
	acfg, err := cfg.AnalysisConfig()
	if err != nil {
		return err
	}
	analyzer := analysis.New(provider, acfg)

	var n notifier.Notifier = notifier.NewNoopNotifier()
	if cfg.TelegramEnabled() {
		tn, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, cfg.Telegram.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("init telegram failed, notifications disabled")
		} else {
			n = tn
		}
	} else {
		log.Info().Msg("telegram not configured, notifications disabled")
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(ctx, analyzer, n, store, cfg.Request())
	if err := sched.RegisterAll(cfg.Schedule.AnalysisCron, cfg.Schedule.SummaryCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	go n.StartPolling(ctx, sched.HandleCommand)

	accessLog := logger.NewAccessLogger(cfg.Logger(Version))
	srv := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		RequestTimeout: cfg.Server.RequestTimeout,
		Defaults:       cfg.Request(),
		AccessLog:      &accessLog,
	}, analyzer, provider)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	if cfg.Schedule.RunOnStart {
		log.Info().Msg("RUN_ON_START enabled, running analysis now")
		go sched.RunNow()
	}

	log.Info().Msg("RiskSentinel is running. Press Ctrl+C to stop.")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, stopping...")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server")
			stop()
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("RiskSentinel stopped")
	return nil
}
