package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// MetadataFile is the per-folder JSONL log of everything saved there.
const MetadataFile = "scraping_metadata.jsonl"

// MetadataRecord is one line of scraping_metadata.jsonl. Params holds
// the coerced (pre-flatten) parameters so the log shows what the caller
// actually asked for.
type MetadataRecord struct {
	Timestamp   string `json:"timestamp"`
	URL         string `json:"url"`
	Params      any    `json:"params"`
	ResultType  string `json:"result_type"`
	Filename    string `json:"filename,omitempty"`
	ReferenceID string `json:"reference_id"`
}

// CreateResultsFolder makes a fresh timestamped subfolder under base
// (or the configured default) and returns its path. Every operation
// gets its own folder; two calls within the same second share one.
func CreateResultsFolder(base string) (string, error) {
	if base == "" {
		base = cfg.ResultsDir
	}
	folder := filepath.Join(base, cfg.Now().Format("20060102_150405"))
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", fmt.Errorf("results: create folder: %w", err)
	}
	return folder, nil
}

// AppendMetadata appends one record to the folder's metadata log,
// stamping timestamp and reference id if the caller left them empty.
func AppendMetadata(folder string, rec MetadataRecord) error {
	if rec.Timestamp == "" {
		rec.Timestamp = cfg.Now().UTC().Format(time.RFC3339)
	}
	if rec.ReferenceID == "" {
		rec.ReferenceID = uuid.NewString()
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("metadata: marshal: %w", err)
	}

	path := filepath.Join(folder, MetadataFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("metadata: open: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("metadata: append: %w", err)
	}
	return nil
}

// SanitizeURLName turns a URL into a filename stem: scheme dropped,
// dots kept, everything outside word characters replaced or collapsed
// into underscores, capped at 100 characters.
func SanitizeURLName(rawURL string) string {
	s := rawURL
	switch {
	case strings.HasPrefix(s, "https://"):
		s = s[len("https://"):]
	case strings.HasPrefix(s, "http://"):
		s = s[len("http://"):]
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.':
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			b.WriteRune(r) // collapsed below
		default:
			b.WriteByte('_')
		}
	}

	out := collapseSeparators(b.String())
	if runes := []rune(out); len(runes) > 100 {
		out = string(runes[:100])
	}
	return out
}

// extensionForContentType maps a response Content-Type to the artifact
// extension. Unknown binary types land on .bin.
func extensionForContentType(contentType string) string {
	mime, _, _ := strings.Cut(contentType, ";")
	switch strings.TrimSpace(mime) {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "application/pdf":
		return "pdf"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "bin"
	}
}
