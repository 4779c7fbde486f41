package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	ScrapeRequests      atomic.Int64
	ScrapeErrors        atomic.Int64
	SearchRequests      atomic.Int64
	SearchErrors        atomic.Int64
	UsageRequests       atomic.Int64
	UsageErrors         atomic.Int64
	ImagesSaved         atomic.Int64
	ImageDecodeErrors   atomic.Int64
	ImageLinksSaved     atomic.Int64
	ImageDownloads      atomic.Int64
	ImageDownloadErrors atomic.Int64
	FilesWritten        atomic.Int64
	BytesWritten        atomic.Int64
	MarkdownConversions atomic.Int64
	HistoryWrites       atomic.Int64
	ArchiveWrites       atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"scrape_requests":       metrics.ScrapeRequests.Load(),
		"scrape_errors":         metrics.ScrapeErrors.Load(),
		"search_requests":       metrics.SearchRequests.Load(),
		"search_errors":         metrics.SearchErrors.Load(),
		"usage_requests":        metrics.UsageRequests.Load(),
		"usage_errors":          metrics.UsageErrors.Load(),
		"images_saved":          metrics.ImagesSaved.Load(),
		"image_decode_errors":   metrics.ImageDecodeErrors.Load(),
		"image_links_saved":     metrics.ImageLinksSaved.Load(),
		"image_downloads":       metrics.ImageDownloads.Load(),
		"image_download_errors": metrics.ImageDownloadErrors.Load(),
		"files_written":         metrics.FilesWritten.Load(),
		"bytes_written":         metrics.BytesWritten.Load(),
		"markdown_conversions":  metrics.MarkdownConversions.Load(),
		"history_writes":        metrics.HistoryWrites.Load(),
		"archive_writes":        metrics.ArchiveWrites.Load(),
		"cache_hits":            hits,
		"cache_misses":          misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"scrape_requests", "scrape_errors",
		"search_requests", "search_errors",
		"usage_requests", "usage_errors",
		"images_saved", "image_decode_errors", "image_links_saved",
		"image_downloads", "image_download_errors",
		"files_written", "bytes_written",
		"markdown_conversions",
		"history_writes", "archive_writes",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

func IncrScrapeRequests() { metrics.ScrapeRequests.Add(1) }
func IncrScrapeErrors()   { metrics.ScrapeErrors.Add(1) }
func IncrSearchRequests() { metrics.SearchRequests.Add(1) }
func IncrSearchErrors()   { metrics.SearchErrors.Add(1) }
func IncrUsageRequests()  { metrics.UsageRequests.Add(1) }
func IncrUsageErrors()    { metrics.UsageErrors.Add(1) }

func IncrImagesSaved()         { metrics.ImagesSaved.Add(1) }
func IncrImageDecodeErrors()   { metrics.ImageDecodeErrors.Add(1) }
func IncrImageLinksSaved()     { metrics.ImageLinksSaved.Add(1) }
func IncrImageDownloads()      { metrics.ImageDownloads.Add(1) }
func IncrImageDownloadErrors() { metrics.ImageDownloadErrors.Add(1) }

func IncrFilesWritten()          { metrics.FilesWritten.Add(1) }
func AddBytesWritten(n int64)    { metrics.BytesWritten.Add(n) }
func IncrMarkdownConversions()   { metrics.MarkdownConversions.Add(1) }

// Incrementors for the history/ sub-package.
func IncrHistoryWrites() { metrics.HistoryWrites.Add(1) }
func IncrArchiveWrites() { metrics.ArchiveWrites.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
