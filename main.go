// go_scrape — ScrapingBee scraping MCP server.
//
// Exposes four MCP tools: scrape_url, google_search,
// check_scrapingbee_usage, scrape_history.
// Runs as HTTP MCP server or stdio transport.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_scrape/internal/beeserver"
	"github.com/anatolykoptev/go_scrape/internal/engine"
	"github.com/anatolykoptev/go_scrape/internal/engine/history"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	initEngine()

	slog.Info("starting go_scrape",
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_scrape",
		Version: version,
	}, nil)

	beeserver.RegisterTools(server)
	slog.Info("tools registered", slog.Int("count", 4))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_scrape",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() {
	apiKey := env.Str("SCRAPINGBEE_API_KEY", "")
	if apiKey == "" {
		slog.Error("SCRAPINGBEE_API_KEY is required")
		os.Exit(1)
	}

	c := engine.Config{
		APIKey:              apiKey,
		BaseURL:             env.Str("SCRAPINGBEE_BASE_URL", "https://app.scrapingbee.com"),
		ResultsDir:          env.Str("SCRAPE_RESULTS_DIR", "scraping_results"),
		ScrapeTimeout:       env.Duration("SCRAPE_TIMEOUT", 180*time.Second),
		SearchTimeout:       env.Duration("SEARCH_TIMEOUT", 120*time.Second),
		UsageTimeout:        env.Duration("USAGE_TIMEOUT", 30*time.Second),
		RequestsPerSecond:   env.Float("SCRAPE_RATE", 5),
		DownloadConcurrency: env.Int("DOWNLOAD_CONCURRENCY", 4),
		// No client-level timeout; each operation sets its own
		// deadline through context.
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
	engine.Init(c)

	// Postgres archive (optional)
	if dsn := env.Str("SCRAPE_ARCHIVE_DB", ""); dsn != "" {
		adb, err := history.ConnectArchiveDB(context.Background(), dsn)
		if err != nil {
			slog.Warn("archive DB init failed", slog.Any("error", err))
		} else {
			history.SetArchiveDB(adb)
			slog.Info("archive DB initialized")
		}
	}

	engine.InitCache(
		env.Str("REDIS_URL", ""),
		env.Duration("SCRAPE_CACHE_TTL", 60*time.Second),
		env.Int("SCRAPE_CACHE_MAX", 512),
		env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
	)
}
