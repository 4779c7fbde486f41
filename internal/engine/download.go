package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// DownloadImageLinks fetches URL-linked images from a search into the
// results folder. Protocol-relative links get https; site-relative
// links are skipped since the host is unknown. Returns the number of
// files written.
func DownloadImageLinks(ctx context.Context, links []ImageLink, folder string) int {
	ch := make(chan bool, len(links))
	sem := make(chan struct{}, cfg.DownloadConcurrency)

	for _, link := range links {
		go func(link ImageLink) {
			sem <- struct{}{}
			defer func() { <-sem }()

			ch <- downloadImage(ctx, link, folder)
		}(link)
	}

	downloaded := 0
	for range links {
		if <-ch {
			downloaded++
		}
	}
	return downloaded
}

// isRetryableStatus returns true for HTTP status codes worth retrying.
func isRetryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

func downloadImage(ctx context.Context, link ImageLink, folder string) bool {
	fetchURL := link.URL
	switch {
	case strings.HasPrefix(fetchURL, "//"):
		fetchURL = "https:" + fetchURL
	case strings.HasPrefix(fetchURL, "/"):
		slog.Warn("skipping site-relative image link", slog.String("url", fetchURL))
		return false
	}
	IncrImageDownloads()

	operation := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		// Image hosts are pickier than APIs; look like a browser.
		req.Header.Set("User-Agent", UserAgentChrome)
		req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")

		resp, err := cfg.HTTPClient.Do(req)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		if isRetryableStatus(resp.StatusCode) {
			resp.Body.Close()
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		}

		return resp, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 10 * time.Second

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo), backoff.WithMaxTries(3), backoff.WithMaxElapsedTime(30*time.Second))
	if err != nil {
		IncrImageDownloadErrors()
		slog.Warn("image download failed", slog.String("url", fetchURL), slog.Any("error", err))
		return false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		IncrImageDownloadErrors()
		slog.Warn("image download read failed", slog.String("url", fetchURL), slog.Any("error", err))
		return false
	}

	ext := extensionForContentType(resp.Header.Get("Content-Type"))
	if ext == "bin" {
		ext = sniffImageFormat(body)
	}

	// link_ prefix keeps these apart from the base64 artifacts, which
	// already use the bare position prefix.
	filename := fmt.Sprintf("link_%02d_%s.%s", link.Position, SanitizeTitle(link.Title), ext)
	if err := os.WriteFile(filepath.Join(folder, filename), body, 0644); err != nil {
		IncrImageDownloadErrors()
		slog.Warn("image save failed", slog.String("file", filename), slog.Any("error", err))
		return false
	}
	IncrFilesWritten()
	AddBytesWritten(int64(len(body)))
	return true
}
