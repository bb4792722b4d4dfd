package scan

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/dataveil/dataveil/internal/patterns"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

func TestScanFileWhole(t *testing.T) {
	ctx := context.Background()
	sink := &memorySink{}
	engine := newTestEngine(enabledSettings(patterns.LevelStandard), sink)
	scanner := NewFileScanner(engine, testScannerConfig(), zap.NewNop())

	path := writeTempFile(t, "notes.txt", "meeting notes: call dave@example.com about 4111-1111-1111-1111")
	result := scanner.ScanFile(ctx, "tenant-a", path, "notes.txt", ".txt")

	if !result.Sensitive {
		t.Fatal("Expected detection in small file")
	}
	for _, name := range []string{"email", "credit_card"} {
		if len(result.Matches.Matches(name)) == 0 {
			t.Errorf("Pattern %q did not match", name)
		}
	}

	events := sink.recorded()
	if len(events) != 1 {
		t.Fatalf("Expected exactly one aggregated event, got %d", len(events))
	}
	if events[0].FileNames != "notes.txt" {
		t.Errorf("Event file name = %q", events[0].FileNames)
	}
}

// A docx below the small-file threshold cannot be read as raw text; its
// content must still go through the extractor.
func TestScanFileSmallContainer(t *testing.T) {
	ctx := context.Background()
	sink := &memorySink{}
	engine := newTestEngine(enabledSettings(patterns.LevelStandard), sink)
	scanner := NewFileScanner(engine, testScannerConfig(), zap.NewNop())

	path := filepath.Join(t.TempDir(), "report.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	w := zip.NewWriter(f)
	part, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatalf("Failed to create zip entry: %v", err)
	}
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body><w:p><w:r><w:t>escalate to carol@example.com</w:t></w:r></w:p></w:body>
</w:document>`
	if _, err := part.Write([]byte(doc)); err != nil {
		t.Fatalf("Failed to write zip entry: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close temp file: %v", err)
	}

	result := scanner.ScanFile(ctx, "tenant-a", path, "report.docx", ".docx")
	if !result.Sensitive {
		t.Fatal("Expected detection in small docx")
	}
	if got := result.Matches.Matches("email"); len(got) != 1 || got[0] != "carol@example.com" {
		t.Errorf("email matches = %v", got)
	}
	if events := sink.recorded(); len(events) != 1 {
		t.Errorf("Expected one aggregated event, got %d", len(events))
	}
}

func TestScanFileChunked(t *testing.T) {
	ctx := context.Background()

	// Zero threshold forces the chunked path for any size
	cfg := testScannerConfig()
	cfg.SmallFileThresholdKB = 0
	cfg.FileChunkSize = 64

	// Every line is padded to exactly one chunk so matches never straddle a
	// chunk boundary.
	var content strings.Builder
	for i := 0; i < 200; i++ {
		line := fmt.Sprintf("line %03d filler text without anything interesting", i)
		if i%50 == 0 {
			line = fmt.Sprintf("contact user%03d@example.com ssn 123-45-6789", i)
		}
		fmt.Fprintf(&content, "%-63s\n", line)
	}

	path := writeTempFile(t, "big.txt", content.String())

	t.Run("FindsMatchesAcrossChunks", func(t *testing.T) {
		sink := &memorySink{}
		engine := newTestEngine(enabledSettings(patterns.LevelStandard), sink)
		scanner := NewFileScanner(engine, cfg, zap.NewNop())

		result := scanner.ScanFile(ctx, "tenant-a", path, "big.txt", "text/plain")
		if !result.Sensitive {
			t.Fatal("Expected detection in chunked file")
		}
		if got := len(result.Matches.Matches("email")); got != 4 {
			t.Errorf("Expected 4 distinct emails, got %d", got)
		}
		if got := len(result.Matches.Matches("ssn")); got != 1 {
			t.Errorf("Expected 1 distinct SSN, got %d", got)
		}
		if len(sink.recorded()) != 1 {
			t.Errorf("Chunked scan should record one aggregated event, got %d", len(sink.recorded()))
		}
	})

	t.Run("WorkerCountDoesNotChangeResult", func(t *testing.T) {
		results := make([]Result, 0, 2)
		for _, workers := range []int{1, 4} {
			c := cfg
			c.MaxWorkers = workers
			engine := newTestEngine(enabledSettings(patterns.LevelStandard), nil)
			scanner := NewFileScanner(engine, c, zap.NewNop())
			results = append(results, scanner.ScanFile(ctx, "tenant-a", path, "big.txt", "text/plain"))
		}

		if !reflect.DeepEqual(results[0].Matches.Names(), results[1].Matches.Names()) {
			t.Errorf("Names differ by worker count: %v vs %v",
				results[0].Matches.Names(), results[1].Matches.Names())
		}
		for _, name := range results[0].Matches.Names() {
			if !reflect.DeepEqual(results[0].Matches.Matches(name), results[1].Matches.Matches(name)) {
				t.Errorf("Literals for %q differ by worker count", name)
			}
		}
	})
}

func TestScanFileCSV(t *testing.T) {
	ctx := context.Background()
	cfg := testScannerConfig()
	cfg.SmallFileThresholdKB = 0

	content := "name,email\nalice,alice@example.com\n\nbob,bob@example.com\n"
	path := writeTempFile(t, "users.csv", content)

	engine := newTestEngine(enabledSettings(patterns.LevelStandard), nil)
	scanner := NewFileScanner(engine, cfg, zap.NewNop())

	result := scanner.ScanFile(ctx, "tenant-a", path, "users.csv", "text/csv")
	if got := len(result.Matches.Matches("email")); got != 2 {
		t.Errorf("Expected 2 emails from CSV, got %d", got)
	}
}

func TestScanFileMissing(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(enabledSettings(patterns.LevelStandard), nil)
	scanner := NewFileScanner(engine, testScannerConfig(), zap.NewNop())

	result := scanner.ScanFile(ctx, "tenant-a", "/nonexistent/file.txt", "file.txt", ".txt")
	if result.Sensitive {
		t.Error("Missing file should produce an empty result")
	}
}

func TestWorkerCount(t *testing.T) {
	cfg := testScannerConfig()
	scanner := NewFileScanner(newTestEngine(nil, nil), cfg, zap.NewNop())

	cases := []struct {
		sizeBytes int64
		want      int
	}{
		{600 * 1024, 2},        // under 1MB
		{3 * 1024 * 1024, 3},   // under 5MB
		{100 * 1024 * 1024, 4}, // large
	}
	for _, tc := range cases {
		if got := scanner.workerCount(tc.sizeBytes); got != tc.want {
			t.Errorf("workerCount(%d) = %d, want %d", tc.sizeBytes, got, tc.want)
		}
	}

	cfg.MaxWorkers = 1
	scanner = NewFileScanner(newTestEngine(nil, nil), cfg, zap.NewNop())
	if got := scanner.workerCount(600 * 1024); got != 1 {
		t.Errorf("workerCount capped by MaxWorkers, got %d", got)
	}
}
