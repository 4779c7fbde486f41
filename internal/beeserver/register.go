// Package beeserver wires the scraping engine into MCP tools.
package beeserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterTools registers all scraping tools on the given MCP server:
// scrape_url, google_search, check_scrapingbee_usage, scrape_history.
func RegisterTools(server *mcp.Server) {
	registerScrapeURL(server)
	registerGoogleSearch(server)
	registerCheckUsage(server)
	registerScrapeHistory(server)
}
