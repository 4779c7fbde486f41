package beeserver

import (
	"context"
	"errors"

	"github.com/anatolykoptev/go_scrape/internal/engine"
	"github.com/anatolykoptev/go_scrape/internal/engine/history"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerGoogleSearch(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "google_search",
		Description: "Run a Google search via ScrapingBee and save the results as JSON. params accepts an object or a string with options such as search_type (classic, news, maps, images), country_code, nb_results, page. Image searches decode inline base64 images to files and collect plain URLs into image_links.txt; set download_images=true to also fetch the linked images. Set return_content=true to inline the raw response.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.GoogleSearchInput) (*mcp.CallToolResult, engine.TextOutput, error) {
		if input.Search == "" {
			return nil, engine.TextOutput{}, errors.New("search is required")
		}

		res, err := engine.GoogleSearch(ctx, input)
		if err != nil {
			history.Record(ctx, history.Entry{
				Tool:   "google_search",
				Target: input.Search,
				Status: history.StatusError,
				Error:  err.Error(),
			})
			return nil, engine.TextOutput{}, err
		}

		entry := history.Entry{
			Tool:       "google_search",
			Target:     input.Search,
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
