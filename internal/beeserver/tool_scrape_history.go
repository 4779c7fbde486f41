package beeserver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/anatolykoptev/go_scrape/internal/engine"
	"github.com/anatolykoptev/go_scrape/internal/engine/history"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerScrapeHistory(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "scrape_history",
		Description: "List recent scraping tool invocations and aggregate stats from the local history log. Optionally filter by tool name (scrape_url, google_search, check_scrapingbee_usage) and cap the number of entries returned.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input history.HistoryListInput) (*mcp.CallToolResult, engine.TextOutput, error) {
		list, err := history.List(ctx, input)
		if err != nil {
			return nil, engine.TextOutput{}, err
		}
		stats, err := history.Stats(ctx)
		if err != nil {
			return nil, engine.TextOutput{}, err
		}

		return nil, engine.TextOutput{Result: formatHistory(list, stats)}, nil
	})
}

// formatHistory renders history entries and totals as a readable
// report.
func formatHistory(list *history.HistoryListResult, stats *history.HistoryStatsResult) string {
	var b strings.Builder

	if len(list.Entries) == 0 {
		b.WriteString("No scraping history recorded yet.\n")
	} else {
		fmt.Fprintf(&b, "Scrape history (%d of %d shown):\n", len(list.Entries), list.Total)
		for i, e := range list.Entries {
			fmt.Fprintf(&b, "%d. [%s] %s %s", i+1, e.Status, e.Tool, e.Target)
			if e.Filename != "" {
				fmt.Fprintf(&b, " -> %s", e.Filename)
			}
			if e.Bytes > 0 {
				fmt.Fprintf(&b, " (%s bytes)", humanize.Comma(e.Bytes))
			}
			fmt.Fprintf(&b, " at %s\n", e.CreatedAt)
			if e.Error != "" {
				fmt.Fprintf(&b, "   error: %s\n", engine.TruncateAtWord(e.Error, 120))
			}
		}
	}

	fmt.Fprintf(&b, "\nTotals: %d invocations, %d errors, %s bytes saved\n",
		stats.Total, stats.Errors, humanize.Comma(stats.TotalBytes))

	if len(stats.ByTool) > 0 {
		tools := make([]string, 0, len(stats.ByTool))
		for tool := range stats.ByTool {
			tools = append(tools, tool)
		}
		sort.Strings(tools)

		parts := make([]string, 0, len(tools))
		for _, tool := range tools {
			parts = append(parts, fmt.Sprintf("%s=%d", tool, stats.ByTool[tool]))
		}
		fmt.Fprintf(&b, "By tool: %s\n", strings.Join(parts, " "))
	}

	return b.String()
}
