package engine

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func initTestEngine(t *testing.T) {
	t.Helper()
	Init(Config{
		Now: func() time.Time {
			return time.Date(2024, 5, 4, 10, 30, 0, 0, time.UTC)
		},
	})
}

func TestIsBase64Image(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{"empty", "", false},
		{"data uri", "data:image/png;base64,iVBORw0KGgo=", true},
		{"http url", "http://example.com/a.png", false},
		{"https url", "https://example.com/a.png", false},
		{"protocol relative", "//cdn.example.com/a.png", false},
		{"site relative", "/images/a.png", false},
		{"raw base64", "iVBORw0KGgo", true},
		{"base64 with whitespace", "aGVs\nbG8g d29ybGQ=", true},
		{"garbage", "not base64 at all!!!", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBase64Image(tt.data); got != tt.want {
				t.Errorf("IsBase64Image(%q) = %v, want %v", tt.data, got, tt.want)
			}
		})
	}
}

func TestSniffImageFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"png", []byte("\x89PNG\r\n\x1a\nrest"), "png"},
		{"gif", []byte("GIF89a...."), "gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "webp"},
		{"jpeg", []byte("\xff\xd8\xff\xe0JFIF"), "jpg"},
		{"riff without webp", []byte("RIFF\x00\x00\x00\x00WAVE"), "jpg"},
		{"unknown", []byte("plain text"), "jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sniffImageFormat(tt.data); got != tt.want {
				t.Errorf("sniffImageFormat = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSaveBase64Image(t *testing.T) {
	initTestEngine(t)
	dir := t.TempDir()

	payload := append([]byte("\x89PNG\r\n\x1a\n"), []byte("fake image body")...)
	encoded := base64.StdEncoding.EncodeToString(payload)

	result := SaveBase64Image(encoded, "My Title!", 3, dir)
	if !strings.HasPrefix(result, "Saved: ") {
		t.Fatalf("result = %q, want Saved: prefix", result)
	}

	path := filepath.Join(dir, "03_My_Title.png")
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
	if string(got) != string(payload) {
		t.Error("saved bytes differ from decoded payload")
	}
}

func TestSaveBase64ImageDataURI(t *testing.T) {
	initTestEngine(t)
	dir := t.TempDir()

	payload := []byte("\xff\xd8\xff\xe0 jpeg bits")
	encoded := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(payload)

	result := SaveBase64Image(encoded, "photo", 12, dir)
	if !strings.HasPrefix(result, "Saved: ") {
		t.Fatalf("result = %q", result)
	}
	if _, err := os.Stat(filepath.Join(dir, "12_photo.jpg")); err != nil {
		t.Errorf("expected jpg file: %v", err)
	}
}

func TestSaveBase64ImageDecodeError(t *testing.T) {
	initTestEngine(t)
	dir := t.TempDir()

	result := SaveBase64Image("%%%definitely not base64%%%", "bad one", 1, dir)
	if !strings.HasPrefix(result, "Failed to save 'bad one':") {
		t.Errorf("result = %q, want failure line with original title", result)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("no file should be written on decode failure, found %d", len(entries))
	}
}

func TestSaveImageLinks(t *testing.T) {
	initTestEngine(t)
	dir := t.TempDir()

	links := []ImageLink{
		{Title: "First", URL: "https://a.example/one.jpg", Position: 1},
		{Title: "Second", URL: "https://a.example/two.jpg", Position: 2},
	}
	result := SaveImageLinks(links, dir)

	path := filepath.Join(dir, "image_links.txt")
	if want := "Saved 2 image links to: " + path; result != want {
		t.Errorf("result = %q, want %q", result, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# Image Links from Google Search\n# Generated: 2024-05-04T10:30:00Z\n\n") {
		t.Errorf("manifest header wrong:\n%s", content)
	}
	if !strings.Contains(content, "1. Title: First\n   URL: https://a.example/one.jpg\n   Position: 1\n\n") {
		t.Errorf("first entry wrong:\n%s", content)
	}
	if !strings.Contains(content, "2. Title: Second\n") {
		t.Errorf("second entry wrong:\n%s", content)
	}
}

func TestSaveImageLinksEmpty(t *testing.T) {
	initTestEngine(t)
	dir := t.TempDir()

	result := SaveImageLinks(nil, dir)
	if result != "No image links to save" {
		t.Errorf("result = %q", result)
	}
	if _, err := os.Stat(filepath.Join(dir, "image_links.txt")); !os.IsNotExist(err) {
		t.Error("no manifest should be written for empty links")
	}
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"spaces to underscore", "My Cool Title", "My_Cool_Title"},
		{"punctuation stripped", "Hello, World! (2024)", "Hello_World_2024"},
		{"hyphen run collapses", "a -- b", "a_b"},
		{"leading trailing space", "  padded  ", "padded"},
		{"unicode letters survive", "café menu", "café_menu"},
		{"empty", "", ""},
		{"long title capped", strings.Repeat("x", 150), strings.Repeat("x", 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeTitle(tt.title); got != tt.want {
				t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}
