package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// GoogleSearch runs a query through the Google search API and persists
// the results. Image searches get special handling: inline base64
// images are decoded to files, URL-linked images go into a manifest
// (and are optionally downloaded), and the full JSON is kept alongside.
func GoogleSearch(ctx context.Context, input GoogleSearchInput) (*SearchResult, error) {
	IncrSearchRequests()

	params, err := coerceToMap(input.Params, "params")
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("search", input.Search)
	for k, v := range FlattenParams(params) {
		if v == nil {
			continue
		}
		query.Set(k, queryValue(v))
	}

	resp, err := apiGet(ctx, "/api/v1/store/google", query, nil, cfg.SearchTimeout)
	if err != nil {
		if errors.Is(err, errNoAPIKey) {
			return nil, err
		}
		IncrSearchErrors()
		return &SearchResult{
			Summary: fmt.Sprintf("Error during Google Search API call: %s", errorDetail(err)),
		}, nil
	}

	if st, _ := params["search_type"].(string); st == "images" {
		return handleImageSearch(ctx, resp, input, params)
	}
	return handleRegularSearch(resp, input, params)
}

// handleImageSearch splits image results into inline base64 payloads
// (decoded and saved) and plain URLs (collected into image_links.txt).
func handleImageSearch(ctx context.Context, resp *apiResponse, input GoogleSearchInput, params map[string]any) (*SearchResult, error) {
	var parsed any
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		IncrSearchErrors()
		return &SearchResult{Summary: "Error: Failed to parse the image search response as JSON."}, nil
	}
	top, ok := parsed.(map[string]any)
	if !ok {
		IncrSearchErrors()
		return &SearchResult{
			Summary: "An unexpected error occurred during image search: response is not a JSON object",
		}, nil
	}

	folder, err := CreateResultsFolder(input.ResultsFolder)
	if err != nil {
		return nil, err
	}

	filename := "image_search_" + SanitizeURLName(input.Search) + ".json"
	jsonPath := filepath.Join(folder, filename)
	pretty, _ := json.MarshalIndent(parsed, "", "  ")

	var list []any
	if raw, present := top["images"]; present && raw != nil {
		if list, ok = raw.([]any); !ok {
			IncrSearchErrors()
			return &SearchResult{
				Summary: "An unexpected error occurred during image search: images field is not a list",
			}, nil
		}
	}

	if len(list) == 0 {
		if err := os.WriteFile(jsonPath, pretty, 0644); err != nil {
			IncrSearchErrors()
			return &SearchResult{
				Summary: fmt.Sprintf("An unexpected error occurred during image search: %v", err),
			}, nil
		}
		IncrFilesWritten()
		AddBytesWritten(int64(len(pretty)))

		summary := fmt.Sprintf("Image search complete but no results found. Empty results saved to: %s", jsonPath)
		if input.ReturnContent {
			summary = fmt.Sprintf("Image search complete but no results found:\nFile: %s\n\nCONTENT:\n%s", jsonPath, pretty)
		}
		return &SearchResult{
			Summary:    summary,
			OK:         true,
			Folder:     folder,
			Filename:   filename,
			ResultType: "image_search",
			Bytes:      len(resp.Body),
		}, nil
	}

	items, err := imageItems(list)
	if err != nil {
		IncrSearchErrors()
		return &SearchResult{
			Summary: fmt.Sprintf("An unexpected error occurred during image search: %v", err),
		}, nil
	}

	// Separate inline payloads from plain links.
	var saved []string
	var links []ImageLink
	for _, it := range items {
		if IsBase64Image(it.Image) {
			saved = append(saved, SaveBase64Image(it.Image, it.Title, it.Position, folder))
		} else {
			links = append(links, ImageLink{Title: it.Title, URL: it.Image, Position: it.Position})
		}
	}

	linksResult := SaveImageLinks(links, folder)

	downloaded := 0
	if input.DownloadImages && len(links) > 0 {
		downloaded = DownloadImageLinks(ctx, links, folder)
	}

	if err := os.WriteFile(jsonPath, pretty, 0644); err != nil {
		IncrSearchErrors()
		return &SearchResult{
			Summary: fmt.Sprintf("An unexpected error occurred during image search: %v", err),
		}, nil
	}
	IncrFilesWritten()
	AddBytesWritten(int64(len(pretty)))

	refID := uuid.NewString()
	rec := MetadataRecord{
		URL:         "google_image_search:" + input.Search,
		Params:      params,
		ResultType:  "image_search",
		ReferenceID: refID,
	}
	if err := AppendMetadata(folder, rec); err != nil {
		slog.Warn("metadata append failed", slog.String("folder", folder), slog.Any("error", err))
	}

	successCount := 0
	for _, line := range saved {
		if strings.HasPrefix(line, "Saved:") {
			successCount++
		}
	}

	var b strings.Builder
	b.WriteString("Image search complete:\n")
	fmt.Fprintf(&b, "- Saved %d base64 images\n", successCount)
	fmt.Fprintf(&b, "- %s\n", linksResult)
	if input.DownloadImages {
		fmt.Fprintf(&b, "- Downloaded %d linked images\n", downloaded)
	}
	fmt.Fprintf(&b, "- Full results saved to: %s\n", jsonPath)
	fmt.Fprintf(&b, "- Results folder: %s", folder)
	if input.ReturnContent {
		b.WriteString("\n\nCONTENT:\n")
		b.Write(pretty)
	}

	return &SearchResult{
		Summary:     b.String(),
		OK:          true,
		Folder:      folder,
		Filename:    filename,
		ResultType:  "image_search",
		ReferenceID: refID,
		SavedImages: successCount,
		LinkCount:   len(links),
		Downloaded:  downloaded,
		Bytes:       len(resp.Body),
	}, nil
}

// handleRegularSearch saves the raw response text and reports a count
// of whichever result list the search type filled.
func handleRegularSearch(resp *apiResponse, input GoogleSearchInput, params map[string]any) (*SearchResult, error) {
	folder, err := CreateResultsFolder(input.ResultsFolder)
	if err != nil {
		return nil, err
	}

	searchType := "web"
	if v, ok := params["search_type"]; ok && v != nil {
		searchType = fmt.Sprint(v)
	}

	filename := searchType + "_search_" + SanitizeURLName(input.Search) + ".json"
	path := filepath.Join(folder, filename)
	if err := os.WriteFile(path, resp.Body, 0644); err != nil {
		return nil, fmt.Errorf("search: save results: %w", err)
	}
	IncrFilesWritten()
	AddBytesWritten(int64(len(resp.Body)))

	refID := uuid.NewString()
	rec := MetadataRecord{
		URL:         "google_" + searchType + "_search:" + input.Search,
		Params:      params,
		ResultType:  "search_results",
		Filename:    filename,
		ReferenceID: refID,
	}
	if err := AppendMetadata(folder, rec); err != nil {
		slog.Warn("metadata append failed", slog.String("folder", folder), slog.Any("error", err))
	}

	count := "unknown"
	var lists struct {
		Organic []json.RawMessage `json:"organic_results"`
		News    []json.RawMessage `json:"news_results"`
		Maps    []json.RawMessage `json:"maps_results"`
	}
	if err := json.Unmarshal(resp.Body, &lists); err == nil {
		count = strconv.Itoa(max(len(lists.Organic), len(lists.News), len(lists.Maps)))
	}

	var b strings.Builder
	b.WriteString("Search complete:\n")
	fmt.Fprintf(&b, "Query: \"%s\"\n", input.Search)
	fmt.Fprintf(&b, "Type: %s\n", searchType)
	fmt.Fprintf(&b, "Results: %s\n", count)
	fmt.Fprintf(&b, "Saved to: %s", path)
	if input.ReturnContent {
		b.WriteString("\n\nCONTENT:\n")
		b.Write(resp.Body)
	}

	return &SearchResult{
		Summary:     b.String(),
		OK:          true,
		Folder:      folder,
		Filename:    filename,
		ResultType:  "search_results",
		ReferenceID: refID,
		Bytes:       len(resp.Body),
	}, nil
}

// imageItem is one entry of an image search response.
type imageItem struct {
	Image    string
	Title    string
	Position int
}

func imageItems(list []any) ([]imageItem, error) {
	items := make([]imageItem, 0, len(list))
	for i, raw := range list {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("image result %d is not an object", i)
		}
		it := imageItem{Title: "untitled"}
		if v, present := m["image"]; present && v != nil {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("image result %d has a non-string image field", i)
			}
			it.Image = s
		}
		if v, present := m["title"]; present && v != nil {
			it.Title = fmt.Sprint(v)
		}
		if v, present := m["position"]; present && v != nil {
			f, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("image result %d has a non-numeric position", i)
			}
			it.Position = int(f)
		}
		items = append(items, it)
	}
	return items, nil
}
