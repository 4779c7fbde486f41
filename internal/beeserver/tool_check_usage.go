package beeserver

import (
	"context"

	"github.com/anatolykoptev/go_scrape/internal/engine"
	"github.com/anatolykoptev/go_scrape/internal/engine/history"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerCheckUsage(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_scrapingbee_usage",
		Description: "Check ScrapingBee account usage and remaining credits. Returns the API's usage report verbatim. Responses are cached briefly, so polling between scrapes is cheap.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ engine.CheckUsageInput) (*mcp.CallToolResult, engine.TextOutput, error) {
		res, err := engine.CheckUsage(ctx)
		if err != nil {
			history.Record(ctx, history.Entry{
				Tool:   "check_scrapingbee_usage",
				Target: "usage",
				Status: history.StatusError,
				Error:  err.Error(),
			})
			return nil, engine.TextOutput{}, err
		}

		// Cached replies are free; only real API calls make history.
		if !res.Cached {
			entry := history.Entry{
				Tool:       "check_scrapingbee_usage",
				Target:     "usage",
				ResultType: "usage",
			}
			if !res.OK {
				entry.Status = history.StatusError
				entry.Error = res.Summary
			}
			history.Record(ctx, entry)
		}

		return nil, engine.TextOutput{Result: res.Summary}, nil
	})
}
