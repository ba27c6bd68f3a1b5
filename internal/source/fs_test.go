package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// TestFileSource_Documents verifies .txt and .md files load and other
// extensions are ignored.
func TestFileSource_Documents(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "Plain text notes about Go interviews.")
	writeFile(t, dir, "roadmap.md", "# Roadmap\n\nLearn goroutines.")
	writeFile(t, dir, "config.json", `{"ignored": true}`)

	src := NewFileSource(dir, "test-data", nil)
	docs, err := src.Documents(context.Background())
	if err != nil {
		t.Fatalf("Documents failed: %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(docs))
	}
	for _, doc := range docs {
		if doc.ID == "" {
			t.Error("Document missing ID")
		}
		if doc.Source != "test-data" {
			t.Errorf("Expected source test-data, got %q", doc.Source)
		}
		if !strings.HasPrefix(doc.URL, "file://") {
			t.Errorf("Expected file URL, got %q", doc.URL)
		}
		if doc.RawText == "" {
			t.Error("Document has no text")
		}
		if doc.FetchedAt.IsZero() {
			t.Error("Document missing fetch time")
		}
	}
}

// TestFileSource_SkipsEmptyFiles verifies blank files are skipped without
// failing the load.
func TestFileSource_SkipsEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.txt", "   \n")
	writeFile(t, dir, "real.txt", "Actual content.")

	docs, err := NewFileSource(dir, "", nil).Documents(context.Background())
	if err != nil {
		t.Fatalf("Documents failed: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("Expected 1 document, got %d", len(docs))
	}
}

// TestFileSource_WalksSubdirectories verifies nested content is found.
func TestFileSource_WalksSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "golang")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sub, "channels.md", "Channels coordinate goroutines.")

	docs, err := NewFileSource(dir, "", nil).Documents(context.Background())
	if err != nil {
		t.Fatalf("Documents failed: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("Expected 1 document, got %d", len(docs))
	}
}

// TestFileSource_DefaultName verifies the fallback connector name.
func TestFileSource_DefaultName(t *testing.T) {
	src := NewFileSource("/data/scraped", "", nil)
	if src.Name() != "fs:scraped" {
		t.Errorf("Expected fs:scraped, got %q", src.Name())
	}

	named := NewFileSource("/data/scraped", "custom", nil)
	if named.Name() != "custom" {
		t.Errorf("Expected custom, got %q", named.Name())
	}
}

// TestFileSource_MissingDirectory verifies a bad path is a load error.
func TestFileSource_MissingDirectory(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "missing"), "", nil).Documents(context.Background())
	if err == nil {
		t.Fatal("Expected error for missing directory")
	}
}
