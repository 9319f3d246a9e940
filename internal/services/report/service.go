// Package report renders screening runs and stock analyses to markdown
// files with price charts alongside.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/calebmills/argus/internal/common"
	"github.com/calebmills/argus/internal/interfaces"
	"github.com/calebmills/argus/internal/models"
)

// Service writes report files under a single output directory
type Service struct {
	dir    string
	logger *common.Logger
}

// NewService creates a report service writing into dir, creating the
// directory if needed
func NewService(dir string, logger *common.Logger) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}
	return &Service{dir: dir, logger: logger}, nil
}

// WriteScreenReport renders a screening run as markdown and returns the
// file path
func (s *Service) WriteScreenReport(report *models.ScreenReport) (string, error) {
	stamp := report.GeneratedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}
	path := filepath.Join(s.dir, fmt.Sprintf("screen_%s.md", stamp.Format("20060102_150405")))

	if err := os.WriteFile(path, []byte(formatScreenReport(report)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write screen report: %w", err)
	}

	s.logger.Info().
		Str("path", path).
		Int("candidates", len(report.Candidates)).
		Msg("Screen report written")
	return path, nil
}

// WriteAnalysisReport renders a stock analysis as markdown with a close
// price chart next to it, returning both paths. The chart is skipped
// when there is no history to draw, and a render failure downgrades the
// report to markdown only rather than failing it.
func (s *Service) WriteAnalysisReport(analysis *models.StockAnalysis, bars []models.EODBar) (string, string, error) {
	stamp := analysis.GeneratedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}
	base := fmt.Sprintf("analysis_%s_%s", analysis.Symbol, stamp.Format("20060102_150405"))

	chartName := ""
	if len(bars) >= 2 {
		png, err := RenderPriceChart(analysis.Symbol, bars)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", analysis.Symbol).Msg("Failed to render price chart")
		} else {
			chartName = base + ".png"
			if err := os.WriteFile(filepath.Join(s.dir, chartName), png, 0o644); err != nil {
				s.logger.Warn().Err(err).Str("symbol", analysis.Symbol).Msg("Failed to write price chart")
				chartName = ""
			}
		}
	}

	path := filepath.Join(s.dir, base+".md")
	if err := os.WriteFile(path, []byte(formatAnalysisReport(analysis, chartName)), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write analysis report: %w", err)
	}

	chartPath := ""
	if chartName != "" {
		chartPath = filepath.Join(s.dir, chartName)
	}

	s.logger.Info().
		Str("symbol", analysis.Symbol).
		Str("path", path).
		Msg("Analysis report written")
	return path, chartPath, nil
}

// Ensure Service implements ReportService
var _ interfaces.ReportService = (*Service)(nil)
