// Package pipeline orchestrates screening passes: screen the universe,
// write the run report, then deep-dive the top candidates. Passes run
// on demand or on a cron schedule.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/calebmills/argus/internal/common"
	"github.com/calebmills/argus/internal/interfaces"
	"github.com/calebmills/argus/internal/models"
)

const (
	// DefaultTopAnalyses is how many of the highest-ranked candidates
	// get a full deep dive per pass
	DefaultTopAnalyses = 10

	// DefaultScreenCron runs after the US close on weekdays
	DefaultScreenCron = "0 18 * * 1-5"

	// runTimeout bounds a scheduled pass end to end
	runTimeout = 30 * time.Minute
)

// Service implements interfaces.PipelineService
type Service struct {
	screener interfaces.ScreenerService
	analysis interfaces.AnalysisService
	reports  interfaces.ReportService
	cfg      common.SchedulerConfig
	logger   *common.Logger

	cron *cron.Cron

	mu      sync.Mutex
	running bool
	latest  *models.PipelineRun
}

// NewService creates a pipeline service. analysis and reports may be
// nil; passes then stop after the screen stage.
func NewService(
	screener interfaces.ScreenerService,
	analysis interfaces.AnalysisService,
	reports interfaces.ReportService,
	cfg common.SchedulerConfig,
	logger *common.Logger,
) *Service {
	return &Service{
		screener: screener,
		analysis: analysis,
		reports:  reports,
		cfg:      cfg,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Run executes one full pass. Only one pass runs at a time; concurrent
// calls get ErrRunInProgress.
func (s *Service) Run(ctx context.Context, opts models.ScreenOptions) (*models.PipelineRun, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, interfaces.ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	opts.WithCommentary = true

	report, err := s.screener.Screen(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("screen stage failed: %w", err)
	}

	run := &models.PipelineRun{
		ID:         report.ID,
		StartedAt:  start,
		Universe:   report.Universe,
		Screened:   report.Screened,
		Candidates: len(report.Candidates),
		Report:     report,
	}

	if s.reports != nil {
		path, err := s.reports.WriteScreenReport(report)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to write screen report")
		} else {
			run.ReportPath = path
		}
	}

	s.analyzeTop(ctx, report, run)
	run.Duration = time.Since(start)

	s.mu.Lock()
	s.latest = run
	s.mu.Unlock()

	s.logger.Info().
		Int("candidates", run.Candidates).
		Int("analyzed", run.Analyzed).
		Int("failed", len(run.Failures)).
		Dur("duration", run.Duration).
		Msg("Screening pipeline complete")
	return run, nil
}

// analyzeTop deep-dives the highest-ranked candidates one at a time, so
// commentary calls stay inside the provider rate limits. Failures are
// collected per symbol without aborting the pass.
func (s *Service) analyzeTop(ctx context.Context, report *models.ScreenReport, run *models.PipelineRun) {
	if s.analysis == nil {
		return
	}

	top := DefaultTopAnalyses
	if len(report.Candidates) < top {
		top = len(report.Candidates)
	}

	for _, c := range report.Candidates[:top] {
		if ctx.Err() != nil {
			s.logger.Warn().Err(ctx.Err()).Int("analyzed", run.Analyzed).Msg("Deep dives cut short")
			return
		}

		_, err := s.analysis.Analyze(ctx, models.AnalyzeOptions{
			Symbol:     c.Symbol,
			SaveReport: true,
		})
		if err != nil {
			s.logger.Warn().Str("symbol", c.Symbol).Err(err).Msg("Deep dive failed")
			run.Failures = append(run.Failures, models.RunFailure{Symbol: c.Symbol, Error: err.Error()})
			continue
		}
		run.Analyzed++
	}
}

// Latest returns the most recent completed run
func (s *Service) Latest() *models.PipelineRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Start schedules passes per the configured cron expression. A no-op
// when the scheduler is disabled.
func (s *Service) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("Screening scheduler disabled")
		return nil
	}

	spec := s.cfg.ScreenCron
	if spec == "" {
		spec = DefaultScreenCron
	}

	if _, err := s.cron.AddFunc(spec, s.scheduledRun); err != nil {
		return fmt.Errorf("invalid screen cron %q: %w", spec, err)
	}

	s.cron.Start()
	s.logger.Info().Str("cron", spec).Msg("Screening scheduler started")
	return nil
}

// Stop halts the scheduler; a pass already in flight finishes on its own
func (s *Service) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("Screening scheduler stopped")
}

func (s *Service) scheduledRun() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic in scheduled screen")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	s.logger.Info().Msg("Starting scheduled screen")
	_, err := s.Run(ctx, models.ScreenOptions{})
	if errors.Is(err, interfaces.ErrRunInProgress) {
		s.logger.Warn().Msg("Scheduled screen skipped, previous pass still running")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled screen failed")
	}
}

// Ensure Service implements PipelineService
var _ interfaces.PipelineService = (*Service)(nil)
