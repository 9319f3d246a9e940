package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebmills/argus/internal/common"
	"github.com/calebmills/argus/internal/interfaces"
	"github.com/calebmills/argus/internal/models"
)

type fakeScreener struct {
	mu      sync.Mutex
	report  *models.ScreenReport
	err     error
	gotOpts models.ScreenOptions
}

func (f *fakeScreener) Screen(ctx context.Context, opts models.ScreenOptions) (*models.ScreenReport, error) {
	f.mu.Lock()
	f.gotOpts = opts
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

// blockingScreener parks inside Screen until released, to exercise the
// single-run guard
type blockingScreener struct {
	started chan struct{}
	release chan struct{}
	report  *models.ScreenReport
}

func (b *blockingScreener) Screen(ctx context.Context, opts models.ScreenOptions) (*models.ScreenReport, error) {
	close(b.started)
	<-b.release
	return b.report, nil
}

type fakeAnalysis struct {
	mu      sync.Mutex
	symbols []string
	opts    []models.AnalyzeOptions
	errs    map[string]error
}

func (f *fakeAnalysis) Analyze(ctx context.Context, opts models.AnalyzeOptions) (*models.StockAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts = append(f.opts, opts)
	if err := f.errs[opts.Symbol]; err != nil {
		return nil, err
	}
	f.symbols = append(f.symbols, opts.Symbol)
	return &models.StockAnalysis{Symbol: opts.Symbol}, nil
}

type fakeReports struct {
	path string
	err  error
	got  *models.ScreenReport
}

func (f *fakeReports) WriteScreenReport(report *models.ScreenReport) (string, error) {
	f.got = report
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

func (f *fakeReports) WriteAnalysisReport(analysis *models.StockAnalysis, bars []models.EODBar) (string, string, error) {
	return "", "", nil
}

// screenReport builds a ranked report with n candidates SYM01..SYMn
func screenReport(n int) *models.ScreenReport {
	candidates := make([]*models.ScreenCandidate, n)
	for i := range candidates {
		candidates[i] = &models.ScreenCandidate{
			Symbol: fmt.Sprintf("SYM%02d", i+1),
			Rank:   i + 1,
			Scores: models.ValueScores{Composite: float64(n - i)},
		}
	}
	return &models.ScreenReport{
		ID:          "run-1",
		GeneratedAt: time.Now(),
		Universe:    500,
		Screened:    480,
		Candidates:  candidates,
	}
}

func newTestPipeline(screener interfaces.ScreenerService, analysis *fakeAnalysis, reports *fakeReports) *Service {
	var a interfaces.AnalysisService
	if analysis != nil {
		a = analysis
	}
	var r interfaces.ReportService
	if reports != nil {
		r = reports
	}
	return NewService(screener, a, r, common.SchedulerConfig{}, common.NewLogger("error"))
}

func TestRun_FullPass(t *testing.T) {
	screener := &fakeScreener{report: screenReport(12)}
	analysis := &fakeAnalysis{}
	reports := &fakeReports{path: "reports/screen_1.md"}
	svc := newTestPipeline(screener, analysis, reports)

	run, err := svc.Run(context.Background(), models.ScreenOptions{})

	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, 500, run.Universe)
	assert.Equal(t, 480, run.Screened)
	assert.Equal(t, 12, run.Candidates)
	assert.Equal(t, DefaultTopAnalyses, run.Analyzed, "only the top candidates get a deep dive")
	assert.Empty(t, run.Failures)
	assert.Equal(t, "reports/screen_1.md", run.ReportPath)
	assert.NotNil(t, run.Report)

	assert.True(t, screener.gotOpts.WithCommentary, "pipeline passes always request commentary")
	require.Len(t, analysis.symbols, DefaultTopAnalyses)
	assert.Equal(t, "SYM01", analysis.symbols[0], "dives run in rank order")
	assert.Equal(t, "SYM02", analysis.symbols[1])
	for _, o := range analysis.opts {
		assert.True(t, o.SaveReport)
	}

	assert.Same(t, run, svc.Latest())
}

func TestRun_FewerCandidatesThanTop(t *testing.T) {
	screener := &fakeScreener{report: screenReport(3)}
	analysis := &fakeAnalysis{}
	svc := newTestPipeline(screener, analysis, nil)

	run, err := svc.Run(context.Background(), models.ScreenOptions{})

	require.NoError(t, err)
	assert.Equal(t, 3, run.Analyzed)
}

func TestRun_AnalysisFailuresCollected(t *testing.T) {
	screener := &fakeScreener{report: screenReport(12)}
	analysis := &fakeAnalysis{errs: map[string]error{"SYM02": errors.New("no data")}}
	svc := newTestPipeline(screener, analysis, nil)

	run, err := svc.Run(context.Background(), models.ScreenOptions{})

	require.NoError(t, err, "a failed dive does not fail the pass")
	assert.Equal(t, DefaultTopAnalyses-1, run.Analyzed)
	require.Len(t, run.Failures, 1)
	assert.Equal(t, "SYM02", run.Failures[0].Symbol)
	assert.Equal(t, "no data", run.Failures[0].Error)
}

func TestRun_ScreenFailure(t *testing.T) {
	screener := &fakeScreener{err: errors.New("universe unavailable")}
	svc := newTestPipeline(screener, nil, nil)

	_, err := svc.Run(context.Background(), models.ScreenOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "screen stage failed")
	assert.Nil(t, svc.Latest())
}

func TestRun_SecondCallInProgress(t *testing.T) {
	screener := &blockingScreener{
		started: make(chan struct{}),
		release: make(chan struct{}),
		report:  screenReport(1),
	}
	svc := newTestPipeline(screener, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Run(context.Background(), models.ScreenOptions{})
		done <- err
	}()

	<-screener.started
	_, err := svc.Run(context.Background(), models.ScreenOptions{})
	assert.True(t, errors.Is(err, interfaces.ErrRunInProgress), "got %v", err)

	close(screener.release)
	require.NoError(t, <-done)
	assert.NotNil(t, svc.Latest(), "the blocked pass still completes")
}

func TestRun_ReportWriteFailureNonFatal(t *testing.T) {
	screener := &fakeScreener{report: screenReport(2)}
	reports := &fakeReports{err: errors.New("disk full")}
	svc := newTestPipeline(screener, nil, reports)

	run, err := svc.Run(context.Background(), models.ScreenOptions{})

	require.NoError(t, err)
	assert.Empty(t, run.ReportPath)
}

func TestRun_CanceledContextSkipsDives(t *testing.T) {
	screener := &fakeScreener{report: screenReport(5)}
	analysis := &fakeAnalysis{}
	svc := newTestPipeline(screener, analysis, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := svc.Run(ctx, models.ScreenOptions{})

	require.NoError(t, err, "the screen result is still reported")
	assert.Equal(t, 0, run.Analyzed)
	assert.Empty(t, analysis.symbols)
}

func TestLatest_NilBeforeFirstRun(t *testing.T) {
	svc := newTestPipeline(&fakeScreener{}, nil, nil)
	assert.Nil(t, svc.Latest())
}

func TestStart_Disabled(t *testing.T) {
	svc := NewService(&fakeScreener{}, nil, nil, common.SchedulerConfig{Enabled: false}, common.NewLogger("error"))

	require.NoError(t, svc.Start())
	svc.Stop()
}

func TestStart_InvalidCron(t *testing.T) {
	cfg := common.SchedulerConfig{Enabled: true, ScreenCron: "not a cron"}
	svc := NewService(&fakeScreener{}, nil, nil, cfg, common.NewLogger("error"))

	err := svc.Start()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid screen cron")
}

func TestStart_ValidCron(t *testing.T) {
	cfg := common.SchedulerConfig{Enabled: true, ScreenCron: "0 18 * * 1-5"}
	svc := NewService(&fakeScreener{}, nil, nil, cfg, common.NewLogger("error"))

	require.NoError(t, svc.Start())
	svc.Stop()
}
