package documentai

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/providers"
	"google.golang.org/protobuf/encoding/protojson"
)

func layout(start, end int64, poly *documentaipb.BoundingPoly) *documentaipb.Document_Page_Layout {
	return &documentaipb.Document_Page_Layout{
		TextAnchor: &documentaipb.Document_TextAnchor{
			TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{{StartIndex: start, EndIndex: end}},
		},
		BoundingPoly: poly,
	}
}

func normalized(x1, y1, x2, y2 float32) *documentaipb.BoundingPoly {
	return &documentaipb.BoundingPoly{NormalizedVertices: []*documentaipb.NormalizedVertex{
		{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2},
	}}
}

func pixels(x1, y1, x2, y2 int32) *documentaipb.BoundingPoly {
	return &documentaipb.BoundingPoly{Vertices: []*documentaipb.Vertex{
		{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2},
	}}
}

func sampleDocument() *documentaipb.Document {
	return &documentaipb.Document{
		Text: "Hello World\nNext\n",
		Pages: []*documentaipb.Document_Page{
			{
				PageNumber: 1,
				Dimension:  &documentaipb.Document_Page_Dimension{Width: 1000, Height: 500, Unit: "pixels"},
				Tokens: []*documentaipb.Document_Page_Token{
					{Layout: layout(0, 6, normalized(0.01, 0.2, 0.08, 0.244))},
					{Layout: layout(6, 12, normalized(0.09, 0.2, 0.15, 0.244))},
					{Layout: layout(12, 12, nil)},
				},
			},
			{
				PageNumber: 2,
				Dimension:  &documentaipb.Document_Page_Dimension{Width: 1000, Height: 500, Unit: "pixels"},
				Tokens: []*documentaipb.Document_Page_Token{
					{Layout: layout(12, 17, pixels(10, 200, 40, 220))},
				},
			},
		},
	}
}

func TestTokensFromDocument(t *testing.T) {
	pages := TokensFromDocument(sampleDocument())
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}

	want := [][]document.Token{
		{
			{Left: 10, Top: 100, Width: 70, Height: 22, Text: "Hello"},
			{Left: 90, Top: 100, Width: 60, Height: 22, Text: "World"},
		},
		{
			{Left: 10, Top: 200, Width: 30, Height: 20, Text: "Next"},
		},
	}
	for i := range want {
		if len(pages[i]) != len(want[i]) {
			t.Fatalf("page %d: got %d tokens, want %d", i, len(pages[i]), len(want[i]))
		}
		for j := range want[i] {
			if pages[i][j] != want[i][j] {
				t.Errorf("page %d token %d = %+v, want %+v", i, j, pages[i][j], want[i][j])
			}
		}
	}
}

func TestTokensFromEmptyDocument(t *testing.T) {
	pages := TokensFromDocument(&documentaipb.Document{})
	if len(pages) != 1 || len(pages[0]) != 0 {
		t.Errorf("expected a single empty page, got %v", pages)
	}
}

func TestTextFromLayout(t *testing.T) {
	tests := []struct {
		name       string
		start, end int64
		want       string
	}{
		{"in range", 0, 5, "Héllo"},
		{"end past text", 6, 99, "Wörld"},
		{"start after end", 8, 3, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := textFromLayout(layout(tt.start, tt.end, nil), "Héllo Wörld")
			if got != tt.want {
				t.Errorf("textFromLayout() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := textFromLayout(nil, "text"); got != "" {
		t.Errorf("nil layout should give empty text, got %q", got)
	}
}

func TestMimeType(t *testing.T) {
	tests := map[string]string{
		"scan.pdf":  "application/pdf",
		"scan.TIF":  "image/tiff",
		"scan.tiff": "image/tiff",
		"scan.jpeg": "image/jpeg",
		"scan.png":  "image/png",
		"scan":      "image/png",
	}
	for path, want := range tests {
		if got := MimeType(path); got != want {
			t.Errorf("MimeType(%s) = %s, want %s", path, got, want)
		}
	}
}

func TestValidateConfig(t *testing.T) {
	p := New()
	tests := []struct {
		name    string
		config  providers.Config
		wantErr bool
	}{
		{"complete", providers.Config{ProjectID: "p", Location: "us", ProcessorID: "abc"}, false},
		{"missing project", providers.Config{Location: "us", ProcessorID: "abc"}, true},
		{"missing location", providers.Config{ProjectID: "p", ProcessorID: "abc"}, true},
		{"missing processor", providers.Config{ProjectID: "p", Location: "us"}, true},
		{"saved response", providers.Config{TokensFile: "doc.json"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.ValidateConfig(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	name := ProcessorName(providers.Config{ProjectID: "p", Location: "eu", ProcessorID: "abc"})
	if name != "projects/p/locations/eu/processors/abc" {
		t.Errorf("ProcessorName() = %s", name)
	}
}

func TestRecognizeFromSavedDocument(t *testing.T) {
	data, err := protojson.Marshal(sampleDocument())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	pages, err := New().Recognize(context.Background(), providers.Config{TokensFile: path}, "scan.pdf")
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}

	doc := document.NewBuilder().Build("scan.pdf", nil, pages)
	if len(doc.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(doc.Pages))
	}
	if got := doc.Text(); got != "Hello World\n\nNext" {
		t.Errorf("document text = %q", got)
	}
}

func TestRecognizeMissingSource(t *testing.T) {
	_, err := New().Recognize(context.Background(), providers.Config{}, filepath.Join(t.TempDir(), "missing.pdf"))
	if !errors.Is(err, document.ErrSourceUnreadable) {
		t.Fatalf("expected ErrSourceUnreadable, got %v", err)
	}
}
