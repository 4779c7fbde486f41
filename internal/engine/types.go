package engine

// --- Tool input types ---

type ScrapeURLInput struct {
	URL             string `json:"url" jsonschema:"URL to scrape"`
	Params          any    `json:"params,omitempty" jsonschema:"ScrapingBee parameters as an object, JSON text, object literal, or key=value&key=value pairs"`
	Headers         any    `json:"headers,omitempty" jsonschema:"HTTP headers to forward to the target site"`
	ResultsFolder   string `json:"results_folder,omitempty" jsonschema:"Base folder for saved artifacts (default: scraping_results)"`
	CustomFilename  string `json:"custom_filename,omitempty" jsonschema:"Exact filename for the saved artifact (extension included)"`
	ReturnContent   bool   `json:"return_content,omitempty" jsonschema:"Append the scraped content to the response text"`
	ConvertMarkdown bool   `json:"convert_markdown,omitempty" jsonschema:"For HTML results, also save a Markdown rendering"`
}

// CheckUsageInput is deliberately empty; usage lookups take no
// arguments.
type CheckUsageInput struct{}

type GoogleSearchInput struct {
	Search         string `json:"search" jsonschema:"Search query"`
	Params         any    `json:"params,omitempty" jsonschema:"Extra search parameters (search_type, country_code, nb_results, page, ...)"`
	ResultsFolder  string `json:"results_folder,omitempty" jsonschema:"Base folder for saved artifacts (default: scraping_results)"`
	ReturnContent  bool   `json:"return_content,omitempty" jsonschema:"Append the raw search response to the result text"`
	DownloadImages bool   `json:"download_images,omitempty" jsonschema:"For image searches, also download the URL-linked images"`
}

// --- Output types (JSON responses) ---

// TextOutput is the structured payload for tools whose answer is a
// single human-readable report.
type TextOutput struct {
	Result string `json:"result"`
}

// --- Operation results ---

// ScrapeResult is what a scrape produced. Summary always carries the
// full report text; OK is false when the report describes a failure.
type ScrapeResult struct {
	Summary      string
	OK           bool
	Folder       string
	Filename     string
	ResultType   string // "text" or "binary"
	ReferenceID  string
	Bytes        int
	MarkdownFile string // set when a Markdown rendering was saved
}

// SearchResult is what a search produced.
type SearchResult struct {
	Summary     string
	OK          bool
	Folder      string
	Filename    string
	ResultType  string // "search_results" or "image_search"
	ReferenceID string
	SavedImages int // inline base64 images written to disk
	LinkCount   int // entries in the image_links.txt manifest
	Downloaded  int // URL-linked images fetched by the downloader
	Bytes       int
}

// UsageResult is the account usage report.
type UsageResult struct {
	Summary string
	OK      bool
	Cached  bool
}
