package engine

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// ImageLink is one image hit from a search, as recorded in the
// image_links.txt manifest.
type ImageLink struct {
	Title    string
	URL      string
	Position int
}

// IsBase64Image reports whether data looks like inline base64 image
// content rather than a URL. Search APIs mix both in the same field.
func IsBase64Image(data string) bool {
	if data == "" {
		return false
	}
	if strings.HasPrefix(data, "data:image/") && strings.Contains(data, "base64,") {
		return true
	}
	for _, prefix := range []string{"http://", "https://", "//", "/"} {
		if strings.HasPrefix(data, prefix) {
			return false
		}
	}
	_, err := decodeBase64Image(data)
	return err == nil
}

// decodeBase64Image strips an optional data-URI prefix, removes
// whitespace, repairs padding and decodes.
func decodeBase64Image(data string) ([]byte, error) {
	if _, after, found := strings.Cut(data, "base64,"); found {
		data = after
	}
	data = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, data)
	if pad := len(data) % 4; pad != 0 {
		data += strings.Repeat("=", 4-pad)
	}
	return base64.StdEncoding.DecodeString(data)
}

// sniffImageFormat picks a file extension from magic bytes. Unknown
// content defaults to jpg, which is what search results usually carry.
func sniffImageFormat(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "png"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "gif"
	case bytes.HasPrefix(data, []byte("RIFF")) && bytes.Contains(data, []byte("WEBP")):
		return "webp"
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return "jpg"
	default:
		return "jpg"
	}
}

// SaveBase64Image decodes inline image data and writes it into folder
// as {position:02d}_{title}.{ext}. The returned line starts with
// "Saved:" on success; callers count successes by that prefix.
func SaveBase64Image(data, title string, position int, folder string) string {
	decoded, err := decodeBase64Image(data)
	if err != nil {
		IncrImageDecodeErrors()
		return fmt.Sprintf("Failed to save '%s': %v", title, err)
	}

	format := sniffImageFormat(decoded)
	filename := fmt.Sprintf("%02d_%s.%s", position, SanitizeTitle(title), format)
	path := filepath.Join(folder, filename)

	if err := os.WriteFile(path, decoded, 0644); err != nil {
		return fmt.Sprintf("Failed to save '%s': %v", title, err)
	}
	IncrImagesSaved()
	IncrFilesWritten()
	AddBytesWritten(int64(len(decoded)))
	return fmt.Sprintf("Saved: %s", path)
}

// SaveImageLinks writes the image_links.txt manifest for a search. An
// empty slice writes nothing and says so.
func SaveImageLinks(links []ImageLink, folder string) string {
	if len(links) == 0 {
		return "No image links to save"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Image Links from Google Search\n# Generated: %s\n\n",
		cfg.Now().UTC().Format(time.RFC3339))
	for i, link := range links {
		fmt.Fprintf(&b, "%d. Title: %s\n   URL: %s\n   Position: %d\n\n",
			i+1, link.Title, link.URL, link.Position)
	}

	path := filepath.Join(folder, "image_links.txt")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Sprintf("Failed to save image links: %v", err)
	}
	IncrImageLinksSaved()
	IncrFilesWritten()
	AddBytesWritten(int64(b.Len()))
	return fmt.Sprintf("Saved %d image links to: %s", len(links), path)
}

// SanitizeTitle turns an arbitrary result title into a filename-safe
// stem: word characters survive, separators collapse to underscores,
// length caps at 100 characters.
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' ||
			unicode.IsSpace(r) || r == '-' {
			b.WriteRune(r)
		}
	}
	s := strings.TrimSpace(b.String())
	s = collapseSeparators(s)
	if runes := []rune(s); len(runes) > 100 {
		s = string(runes[:100])
	}
	return s
}

// collapseSeparators replaces each run of whitespace or hyphens with a
// single underscore.
func collapseSeparators(s string) string {
	var b strings.Builder
	inRun := false
	for _, r := range s {
		if unicode.IsSpace(r) || r == '-' {
			inRun = true
			continue
		}
		if inRun {
			b.WriteByte('_')
			inRun = false
		}
		b.WriteRune(r)
	}
	if inRun {
		b.WriteByte('_')
	}
	return b.String()
}
