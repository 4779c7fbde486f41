package beeserver

import (
	"context"
	"errors"

	"github.com/anatolykoptev/go_scrape/internal/engine"
	"github.com/anatolykoptev/go_scrape/internal/engine/history"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerScrapeURL(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "scrape_url",
		Description: "Scrape a webpage via ScrapingBee and save the result into a timestamped local folder. params accepts an object or a string (JSON, object literal, or key=value&key2=value2) with ScrapingBee options such as render_js, wait, premium_proxy, screenshot. headers are forwarded to the target site. Set return_content=true to inline the scraped text in the response, convert_markdown=true to also save a Markdown rendering of HTML pages.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.ScrapeURLInput) (*mcp.CallToolResult, engine.TextOutput, error) {
		if input.URL == "" {
			return nil, engine.TextOutput{}, errors.New("url is required")
		}

		res, err := engine.ScrapeURL(ctx, input)
		if err != nil {
			history.Record(ctx, history.Entry{
				Tool:   "scrape_url",
				Target: input.URL,
				Status: history.StatusError,
				Error:  err.Error(),
			})
			return nil, engine.TextOutput{}, err
		}

		entry := history.Entry{
			Tool:       "scrape_url",
			Target:     input.URL,
			ResultType: res.ResultType,
			Folder:     res.Folder,
			Filename:   res.Filename,
			Bytes:      int64(res.Bytes),
		}
		if !res.OK {
			entry.Status = history.StatusError
			entry.Error = res.Summary
		}
		history.Record(ctx, entry)

		return nil, engine.TextOutput{Result: res.Summary}, nil
	})
}
