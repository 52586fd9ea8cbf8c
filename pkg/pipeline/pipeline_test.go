package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/providers"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/store"
)

// fakeProvider returns fixed tokens and counts calls
type fakeProvider struct {
	mu       sync.Mutex
	calls    map[string]int
	fail     map[string]error
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{calls: map[string]int{}, fail: map[string]error{}}
}

func (f *fakeProvider) Name() string                                 { return "fake" }
func (f *fakeProvider) ValidateConfig(config providers.Config) error { return nil }

func (f *fakeProvider) Recognize(ctx context.Context, config providers.Config, sourcePath string) ([][]document.Token, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.calls[sourcePath]++
	err := f.fail[filepath.Base(sourcePath)]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return [][]document.Token{{
		document.TokenFromBox(50, 102, 80, 120, "World"),
		document.TokenFromBox(10, 100, 40, 122, "Hello"),
		document.TokenFromBox(10, 200, 40, 220, filepath.Base(sourcePath)),
	}}, nil
}

func (f *fakeProvider) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 120, 240))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestProcess(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "page.png")
	writePNG(t, source)

	p := &Processor{Provider: newFakeProvider(), Logger: quietLogger()}
	result, err := p.Process(context.Background(), source)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	doc := result.Document
	if doc.ID != document.DocumentID(source) {
		t.Errorf("unexpected document id %s", doc.ID)
	}
	if doc.ContentHash == nil {
		t.Fatal("expected content hash")
	}
	data, _ := os.ReadFile(source)
	if *doc.ContentHash != document.HashContent(data) {
		t.Error("content hash does not match the source bytes")
	}
	if got := doc.Text(); got != "Hello World\npage.png" {
		t.Errorf("document text = %q", got)
	}
	if result.Cached || len(result.Files) != 0 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestProcessUnreadableSource(t *testing.T) {
	p := &Processor{Provider: newFakeProvider(), Logger: quietLogger()}
	result, err := p.Process(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, document.ErrSourceUnreadable) {
		t.Fatalf("expected ErrSourceUnreadable, got %v", err)
	}
	if result.Err != err || result.Document != nil {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestProcessUsesStore(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "page.png")
	writePNG(t, source)

	s, err := store.NewFileStore(filepath.Join(dir, "store"))
	if err != nil {
		t.Fatal(err)
	}
	provider := newFakeProvider()
	p := &Processor{Provider: provider, Store: s, Logger: quietLogger()}
	ctx := context.Background()

	first, err := p.Process(ctx, source)
	if err != nil {
		t.Fatalf("first Process() error = %v", err)
	}
	second, err := p.Process(ctx, source)
	if err != nil {
		t.Fatalf("second Process() error = %v", err)
	}
	if !second.Cached {
		t.Error("unchanged source should come from the store")
	}
	if provider.callCount(source) != 1 {
		t.Errorf("provider called %d times, want 1", provider.callCount(source))
	}
	if second.Document.Text() != first.Document.Text() {
		t.Error("cached document differs")
	}

	// Changing the bytes invalidates the stored document.
	if err := os.WriteFile(source, []byte("new bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	third, err := p.Process(ctx, source)
	if err != nil {
		t.Fatalf("third Process() error = %v", err)
	}
	if third.Cached || provider.callCount(source) != 2 {
		t.Errorf("changed source should be recognized again (cached=%v calls=%d)", third.Cached, provider.callCount(source))
	}
}

func TestProcessReusesIdenticalContent(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "page.png")
	writePNG(t, original)
	data, err := os.ReadFile(original)
	if err != nil {
		t.Fatal(err)
	}
	copied := filepath.Join(dir, "copy", "page-copy.png")
	if err := os.MkdirAll(filepath.Dir(copied), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(copied, data, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := store.NewFileStore(filepath.Join(dir, "store"))
	if err != nil {
		t.Fatal(err)
	}
	provider := newFakeProvider()
	p := &Processor{Provider: provider, Store: s, Logger: quietLogger()}
	ctx := context.Background()

	first, err := p.Process(ctx, original)
	if err != nil {
		t.Fatalf("Process(original) error = %v", err)
	}
	second, err := p.Process(ctx, copied)
	if err != nil {
		t.Fatalf("Process(copy) error = %v", err)
	}

	if provider.callCount(copied) != 0 {
		t.Errorf("copy recognized %d times, want 0", provider.callCount(copied))
	}
	if !second.Cached {
		t.Error("copy should be served from the store")
	}
	if second.Document.ID != document.DocumentID(copied) || second.Document.SourcePath != copied {
		t.Errorf("copy document keyed as %s / %s", second.Document.ID, second.Document.SourcePath)
	}
	if second.Document.Text() != first.Document.Text() {
		t.Errorf("copy text = %q, want %q", second.Document.Text(), first.Document.Text())
	}

	stored, err := s.Get(ctx, document.DocumentID(copied))
	if err != nil {
		t.Fatalf("rebuilt document not stored: %v", err)
	}
	if stored.SourcePath != copied {
		t.Errorf("stored source_path = %s, want %s", stored.SourcePath, copied)
	}
}

func TestProcessRegroupsStoredDocument(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "page.png")
	writePNG(t, source)

	s, err := store.NewFileStore(filepath.Join(dir, "store"))
	if err != nil {
		t.Fatal(err)
	}
	provider := newFakeProvider()
	ctx := context.Background()

	p := &Processor{Provider: provider, Store: s, Logger: quietLogger()}
	first, err := p.Process(ctx, source)
	if err != nil {
		t.Fatalf("first Process() error = %v", err)
	}
	if first.Document.LineCount() != 2 {
		t.Fatalf("default threshold lines = %d, want 2", first.Document.LineCount())
	}

	p.Builder = document.NewBuilder(document.WithLineThreshold(1))
	second, err := p.Process(ctx, source)
	if err != nil {
		t.Fatalf("second Process() error = %v", err)
	}
	if !second.Cached || provider.callCount(source) != 1 {
		t.Errorf("threshold change should not recognize again (cached=%v calls=%d)", second.Cached, provider.callCount(source))
	}
	if second.Document.LineCount() != 3 {
		t.Errorf("regrouped lines = %d, want 3", second.Document.LineCount())
	}

	stored, err := s.Get(ctx, document.DocumentID(source))
	if err != nil {
		t.Fatal(err)
	}
	if stored.LineCount() != 3 {
		t.Errorf("stored lines = %d, want the regrouped 3", stored.LineCount())
	}
	if err := stored.Validate(); err != nil {
		t.Errorf("stored document invalid: %v", err)
	}
}

func TestProcessWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "scan.png")
	writePNG(t, source)

	out := filepath.Join(dir, "out")
	p := &Processor{
		Provider: newFakeProvider(),
		Logger:   quietLogger(),
		Outputs: Outputs{
			JSONDir:     filepath.Join(out, "json"),
			AnnotateDir: filepath.Join(out, "annotated"),
			HOCRDir:     filepath.Join(out, "hocr"),
			PDFDir:      filepath.Join(out, "pdf"),
			TextDir:     filepath.Join(out, "text"),
		},
	}

	result, err := p.Process(context.Background(), source)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	want := []string{
		filepath.Join(out, "json", "scan.json"),
		filepath.Join(out, "annotated", "scan.png"),
		filepath.Join(out, "hocr", "scan.hocr"),
		filepath.Join(out, "pdf", "scan.pdf"),
		filepath.Join(out, "text", "scan.txt"),
	}
	if len(result.Files) != len(want) {
		t.Fatalf("wrote %v, want %v", result.Files, want)
	}
	for i, path := range want {
		if result.Files[i] != path {
			t.Errorf("file %d = %s, want %s", i, result.Files[i], path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing output %s: %v", path, err)
		}
	}

	loaded, err := document.LoadJSON(want[0])
	if err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}
	if loaded.ID != result.Document.ID {
		t.Error("saved JSON does not match the document")
	}

	text, _ := os.ReadFile(want[4])
	if string(text) != "Hello World\nscan.png\n" {
		t.Errorf("text output = %q", text)
	}
}

func TestProcessAll(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := range 6 {
		path := filepath.Join(dir, fmt.Sprintf("page-%d.png", i))
		writePNG(t, path)
		paths = append(paths, path)
	}
	paths = append(paths, filepath.Join(dir, "missing.png"))

	provider := newFakeProvider()
	provider.delay = 20 * time.Millisecond
	provider.fail["page-2.png"] = errors.New("engine crashed")

	p := &Processor{Provider: provider, Logger: quietLogger()}
	results := p.ProcessAll(context.Background(), paths, 2)

	if len(results) != len(paths) {
		t.Fatalf("got %d results, want %d", len(results), len(paths))
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Errorf("result %d path = %s, want %s", i, r.Path, paths[i])
		}
	}

	if results[2].Err == nil || !strings.Contains(results[2].Err.Error(), "engine crashed") {
		t.Errorf("expected provider failure for page-2, got %v", results[2].Err)
	}
	if !errors.Is(results[6].Err, document.ErrSourceUnreadable) {
		t.Errorf("expected ErrSourceUnreadable for missing file, got %v", results[6].Err)
	}
	for _, i := range []int{0, 1, 3, 4, 5} {
		if results[i].Err != nil || results[i].Document == nil {
			t.Errorf("result %d should succeed: %v", i, results[i].Err)
		}
	}

	if peak := provider.maxSeen.Load(); peak > 2 {
		t.Errorf("saw %d concurrent recognitions, limit is 2", peak)
	}

	summary := Summarize(results)
	if summary != (Summary{Total: 7, Recognized: 5, Failed: 2}) {
		t.Errorf("Summarize() = %+v", summary)
	}
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"/a/b/scan.png": "scan",
		"scan.tar.gz":   "scan.tar",
		"noext":         "noext",
		"dir/.hidden":   "",
	}
	for in, want := range tests {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}
