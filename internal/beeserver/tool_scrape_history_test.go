package beeserver

import (
	"strings"
	"testing"

	"github.com/anatolykoptev/go_scrape/internal/engine/history"
)

func TestFormatHistory(t *testing.T) {
	list := &history.HistoryListResult{
		Entries: []history.Entry{
			{
				ID: 2, Tool: "google_search", Target: "golang",
				Status: history.StatusError,
				Error:  "Error during Google Search API call: boom",
				CreatedAt: "2024-05-04T10:31:00Z",
			},
			{
				ID: 1, Tool: "scrape_url", Target: "https://example.com",
				Filename: "example.com.html", Bytes: 2048,
				Status: history.StatusOK, CreatedAt: "2024-05-04T10:30:00Z",
			},
		},
		Total: 2,
	}
	stats := &history.HistoryStatsResult{
		Total:      2,
		ByTool:     map[string]int{"scrape_url": 1, "google_search": 1},
		Errors:     1,
		TotalBytes: 2048,
	}

	got := formatHistory(list, stats)

	for _, want := range []string{
		"Scrape history (2 of 2 shown):\n",
		"1. [error] google_search golang at 2024-05-04T10:31:00Z\n",
		"   error: Error during Google Search API call: boom\n",
		"2. [ok] scrape_url https://example.com -> example.com.html (2,048 bytes) at 2024-05-04T10:30:00Z\n",
		"Totals: 2 invocations, 1 errors, 2,048 bytes saved\n",
		"By tool: google_search=1 scrape_url=1\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestFormatHistoryEmpty(t *testing.T) {
	got := formatHistory(
		&history.HistoryListResult{Entries: []history.Entry{}},
		&history.HistoryStatsResult{ByTool: map[string]int{}},
	)
	if !strings.HasPrefix(got, "No scraping history recorded yet.\n") {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(got, "Totals: 0 invocations, 0 errors, 0 bytes saved\n") {
		t.Errorf("got %q", got)
	}
}
