package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// ScrapeURL fetches a page through the scraping API and persists the
// response into a timestamped results folder. The returned Summary is
// the full tool-facing report; request failures are reported there
// rather than as errors, so agents can read what went wrong.
func ScrapeURL(ctx context.Context, input ScrapeURLInput) (*ScrapeResult, error) {
	IncrScrapeRequests()

	params, err := coerceToMap(input.Params, "params")
	if err != nil {
		return nil, err
	}
	headers, err := coerceToMap(input.Headers, "headers")
	if err != nil {
		return nil, err
	}

	flattened := FlattenParams(params)

	// Headers destined for the target site travel as Spb- prefixed
	// request headers; their presence switches forwarding on.
	spbHeaders := map[string]string{}
	for k, v := range headers {
		if v == nil {
			continue
		}
		spbHeaders["Spb-"+k] = queryValue(v)
	}
	if len(spbHeaders) > 0 {
		flattened["forward_headers"] = true
	}

	query := url.Values{}
	query.Set("url", input.URL)
	for k, v := range flattened {
		if v == nil {
			continue
		}
		query.Set(k, queryValue(v))
	}

	resp, err := apiGet(ctx, "/api/v1/", query, spbHeaders, cfg.ScrapeTimeout)
	if err != nil {
		if errors.Is(err, errNoAPIKey) {
			return nil, err
		}
		IncrScrapeErrors()
		return &ScrapeResult{
			Summary: fmt.Sprintf("Error: Request failed. Details: %s", errorDetail(err)),
		}, nil
	}

	contentType := resp.Header.Get("Content-Type")
	isBinary := strings.Contains(contentType, "image/") ||
		strings.Contains(contentType, "application/pdf") ||
		strings.Contains(contentType, "octet-stream") ||
		truthy(params["screenshot"]) ||
		truthy(params["screenshot_full_page"]) ||
		truthy(params["screenshot_selector"])

	folder, err := CreateResultsFolder(input.ResultsFolder)
	if err != nil {
		return nil, err
	}

	var filename string
	switch {
	case input.CustomFilename != "":
		filename = input.CustomFilename
	case isBinary:
		filename = SanitizeURLName(input.URL) + "." + extensionForContentType(contentType)
	default:
		filename = SanitizeURLName(input.URL) + ".html"
	}

	path := filepath.Join(folder, filename)
	if err := os.WriteFile(path, resp.Body, 0644); err != nil {
		return nil, fmt.Errorf("scrape: save content: %w", err)
	}
	IncrFilesWritten()
	AddBytesWritten(int64(len(resp.Body)))

	resultType := "text"
	if isBinary {
		resultType = "binary"
	}

	var mdPath string
	if !isBinary && input.ConvertMarkdown && looksLikeHTML(contentType, resp.Body) {
		mdPath, err = SaveMarkdown(folder, filename, resp.Body)
		if err != nil {
			slog.Warn("markdown conversion failed", slog.String("url", input.URL), slog.Any("error", err))
			mdPath = ""
		}
	}

	refID := uuid.NewString()
	rec := MetadataRecord{
		URL:         input.URL,
		Params:      params,
		ResultType:  resultType,
		Filename:    filename,
		ReferenceID: refID,
	}
	if err := AppendMetadata(folder, rec); err != nil {
		slog.Warn("metadata append failed", slog.String("folder", folder), slog.Any("error", err))
	}

	return &ScrapeResult{
		Summary:      scrapeSummary(input, path, contentType, resp.Body, isBinary, mdPath),
		OK:           true,
		Folder:       folder,
		Filename:     filename,
		ResultType:   resultType,
		ReferenceID:  refID,
		Bytes:        len(resp.Body),
		MarkdownFile: mdPath,
	}, nil
}

func scrapeSummary(input ScrapeURLInput, path, contentType string, body []byte, isBinary bool, mdPath string) string {
	var b strings.Builder
	switch {
	case isBinary && input.ReturnContent:
		b.WriteString("Binary content saved and processed:\n")
	case isBinary:
		b.WriteString("Binary content saved successfully:\n")
	case input.ReturnContent:
		b.WriteString("Text content saved and loaded:\n")
	default:
		b.WriteString("Text content saved successfully:\n")
	}
	fmt.Fprintf(&b, "File: %s\n", path)
	if mdPath != "" {
		fmt.Fprintf(&b, "Markdown: %s\n", mdPath)
	}
	if isBinary {
		fmt.Fprintf(&b, "Size: %s bytes\n", humanize.Comma(int64(len(body))))
	} else {
		fmt.Fprintf(&b, "Size: %s characters\n", humanize.Comma(int64(utf8.RuneCount(body))))
	}
	fmt.Fprintf(&b, "Content-Type: %s\n", contentType)
	fmt.Fprintf(&b, "URL: %s", input.URL)

	if input.ReturnContent {
		if isBinary {
			b.WriteString("\n\nNote: Binary content cannot be displayed in text. File is saved and ready for use.")
		} else {
			b.WriteString("\n\nCONTENT:\n")
			b.Write(body)
		}
	}
	return b.String()
}

// coerceToMap runs CoerceParams and insists on an object.
func coerceToMap(v any, field string) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	m, ok := CoerceParams(v).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an object or a parseable string", field)
	}
	return m, nil
}

// queryValue renders a parameter for the wire. Booleans encode
// lowercase; nested values were already stringified by FlattenParams.
func queryValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// truthy applies loose truthiness to flag-like parameters: any
// non-empty string counts, including "false".
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case float64:
		return x != 0
	case map[string]any:
		return len(x) > 0
	case []any:
		return len(x) > 0
	default:
		return true
	}
}
