package engine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// looksLikeHTML reports whether a text response is worth converting.
func looksLikeHTML(contentType string, body []byte) bool {
	if strings.Contains(contentType, "text/html") || strings.Contains(contentType, "application/xhtml") {
		return true
	}
	head := strings.ToLower(string(body[:min(len(body), 512)]))
	return strings.Contains(head, "<!doctype html") || strings.Contains(head, "<html")
}

// SaveMarkdown converts an HTML artifact to Markdown and writes it
// alongside, reusing the artifact's name with a .md extension. The
// page title, when present, becomes a leading heading.
func SaveMarkdown(folder, htmlFilename string, body []byte) (string, error) {
	md, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("markdown: convert: %w", err)
	}
	if title := extractHTMLTitle(body); title != "" {
		md = "# " + title + "\n\n" + md
	}

	name := strings.TrimSuffix(htmlFilename, filepath.Ext(htmlFilename)) + ".md"
	path := filepath.Join(folder, name)
	if err := os.WriteFile(path, []byte(md), 0644); err != nil {
		return "", fmt.Errorf("markdown: save: %w", err)
	}
	IncrMarkdownConversions()
	IncrFilesWritten()
	AddBytesWritten(int64(len(md)))
	return path, nil
}

// extractHTMLTitle returns the text of the first <title> element.
func extractHTMLTitle(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			title = textContent(n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return CleanHTML(title)
}

// textContent concatenates all text nodes under n.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}
