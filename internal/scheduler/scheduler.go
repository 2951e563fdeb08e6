package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"RiskSentinel/internal/analysis"
	"RiskSentinel/internal/cache"
	"RiskSentinel/internal/model"
	"RiskSentinel/internal/notifier"
)

// Runner produces a risk report for a request.
type Runner interface {
	Run(ctx context.Context, req analysis.Request) (*model.Report, error)
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Analyzer Runner
	Notifier notifier.Notifier
	Cache    cache.Store
	Request  analysis.Request
	// CacheMaxAge bounds how long cached series survive the purge task.
	CacheMaxAge time.Duration
	Ctx         context.Context

	mu     sync.RWMutex
	latest *model.Report
	now    func() time.Time
}

// NewScheduler creates a new Scheduler. store may be nil.
func NewScheduler(ctx context.Context, runner Runner, n notifier.Notifier, store cache.Store, req analysis.Request) *Scheduler {
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Analyzer:    runner,
		Notifier:    n,
		Cache:       store,
		Request:     req,
		CacheMaxAge: 24 * time.Hour,
		Ctx:         ctx,
		now:         time.Now,
	}
}

// RegisterAll registers the analysis, summary and cache purge tasks.
func (s *Scheduler) RegisterAll(analysisCron, summaryCron string) error {
	if _, err := s.Cron.AddFunc(analysisCron, s.analysisTask); err != nil {
		return fmt.Errorf("register analysis task: %w", err)
	}
	if summaryCron != "" {
		if _, err := s.Cron.AddFunc(summaryCron, s.summaryTask); err != nil {
			return fmt.Errorf("register summary task: %w", err)
		}
	}
	if s.Cache != nil {
		// Daily at 03:30
		if _, err := s.Cron.AddFunc("0 30 3 * * *", s.purgeTask); err != nil {
			return fmt.Errorf("register cache purge: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// Latest returns the most recent successful report, or nil.
func (s *Scheduler) Latest() *model.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// RunNow runs an analysis immediately and sends the full summary
// (manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	if r := s.run(); r != nil {
		s.trySend(notifier.FormatReport(r))
	}
}

func (s *Scheduler) run() *model.Report {
	log.Info().Strs("symbols", s.Request.Symbols).Msg("running analysis")
	report, err := s.Analyzer.Run(s.Ctx, s.Request)
	if err != nil {
		log.Error().Err(err).Msg("analysis run")
		s.trySend(fmt.Sprintf("❌ Risk analysis failed: %v", err))
		return nil
	}
	s.mu.Lock()
	s.latest = report
	s.mu.Unlock()
	return report
}

// analysisTask pushes alerts only; quiet runs send nothing.
func (s *Scheduler) analysisTask() {
	r := s.run()
	if r == nil || len(r.Alerts) == 0 {
		return
	}
	s.trySend(fmt.Sprintf("🔔 <b>Risk alerts</b> | %s\n\n%s",
		r.GeneratedAt.Format("2006-01-02 15:04 MST"), notifier.FormatAlerts(r.Alerts)))
}

func (s *Scheduler) summaryTask() {
	r := s.Latest()
	if r == nil || s.now().Sub(r.GeneratedAt) > 24*time.Hour {
		r = s.run()
	}
	if r != nil {
		s.trySend(notifier.FormatReport(r))
	}
}

func (s *Scheduler) purgeTask() {
	n, err := s.Cache.Purge(s.Ctx, s.now().Add(-s.CacheMaxAge))
	if err != nil {
		log.Error().Err(err).Msg("purge cache")
		return
	}
	log.Info().Int("removed", n).Msg("cache purged")
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "/risk":
		if r := s.run(); r != nil {
			return notifier.FormatReport(r)
		}
		return ""
	case "/alerts":
		r := s.Latest()
		if r == nil {
			return "No analysis has run yet. Send /risk to start one."
		}
		return notifier.FormatAlerts(r.Alerts)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
