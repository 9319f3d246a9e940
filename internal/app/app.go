package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/calebmills/argus/internal/clients/gemini"
	"github.com/calebmills/argus/internal/clients/yahoo"
	"github.com/calebmills/argus/internal/common"
	"github.com/calebmills/argus/internal/interfaces"
	"github.com/calebmills/argus/internal/keypool"
	"github.com/calebmills/argus/internal/services/analysis"
	"github.com/calebmills/argus/internal/services/pipeline"
	"github.com/calebmills/argus/internal/services/portfolio"
	"github.com/calebmills/argus/internal/services/report"
	"github.com/calebmills/argus/internal/services/screener"
	"github.com/calebmills/argus/internal/services/sentiment"
	"github.com/calebmills/argus/internal/storage"
)

// App holds all initialized clients, services, and storage.
// It is the shared core behind cmd/argus-server.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Storage     interfaces.StorageManager
	KeyPool     *keypool.Manager
	Market      interfaces.MarketDataClient
	Commentary  interfaces.CommentaryClient
	Screener    interfaces.ScreenerService
	Analysis    interfaces.AnalysisService
	Sentiment   interfaces.SentimentService
	Portfolio   interfaces.PortfolioService
	Reports     interfaces.ReportService
	Pipeline    interfaces.PipelineService
	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	// Get binary directory for self-contained operation
	binDir := getBinaryDir()

	// Load configuration - check provided path, ARGUS_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("ARGUS_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "argus.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/argus.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage and report paths to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}
	if config.Storage.ReportPath != "" && !filepath.IsAbs(config.Storage.ReportPath) {
		config.Storage.ReportPath = filepath.Join(binDir, config.Storage.ReportPath)
	}

	// Resolve relative log file path to binary directory
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	// Initialize logger
	logger := common.NewLoggerFromConfig(config.Logging)

	// Initialize storage
	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Load Gemini credentials into the key pool. An empty pool is allowed:
	// screening and portfolio tracking work without AI commentary.
	credentials := common.LoadGeminiCredentials()
	if len(credentials) == 0 {
		logger.Warn().Msg("No Gemini API keys configured - AI commentary will be unavailable")
	}
	pool := keypool.New(credentials, keypool.WithLogger(logger))

	// Initialize API clients
	market := yahoo.NewClient(
		yahoo.WithBaseURL(config.MarketData.BaseURL),
		yahoo.WithRateLimit(config.MarketData.RateLimit),
		yahoo.WithTimeout(config.MarketData.GetTimeout()),
		yahoo.WithLogger(logger),
	)

	var commentary interfaces.CommentaryClient
	if pool.Size() > 0 {
		commentary = gemini.NewClient(pool,
			gemini.WithModel(config.Gemini.Model),
			gemini.WithTemperature(config.Gemini.Temperature),
			gemini.WithMaxOutputTokens(config.Gemini.MaxOutputTokens),
			gemini.WithMaxAttempts(config.Gemini.MaxAttempts),
			gemini.WithLogger(logger),
		)
	}

	// Initialize services
	sentimentService := sentiment.NewService(logger)

	reportService, err := report.NewService(config.Storage.ReportPath, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize report service: %w", err)
	}

	screenerService := screener.NewService(market, commentary, storageManager.History(), logger)
	analysisService := analysis.NewService(market, commentary, sentimentService, reportService, storageManager.History(), config.Analysis, logger)
	portfolioService := portfolio.NewService(storageManager.Holdings(), market, logger)
	pipelineService := pipeline.NewService(screenerService, analysisService, reportService, config.Scheduler, logger)

	a := &App{
		Config:      config,
		Logger:      logger,
		Storage:     storageManager,
		KeyPool:     pool,
		Market:      market,
		Commentary:  commentary,
		Screener:    screenerService,
		Analysis:    analysisService,
		Sentiment:   sentimentService,
		Portfolio:   portfolioService,
		Reports:     reportService,
		Pipeline:    pipelineService,
		StartupTime: startupStart,
	}

	logger.Info().
		Str("config", configPath).
		Int("gemini_keys", pool.Size()).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// StartScheduler launches the background screening pipeline if enabled.
func (a *App) StartScheduler() error {
	return a.Pipeline.Start()
}

// Close releases all resources held by the App.
// Shutdown order: stop the scheduler, then close storage.
func (a *App) Close() {
	if a.Pipeline != nil {
		a.Pipeline.Stop()
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
