package hocr

import (
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
)

func sampleDocument() *document.Document {
	return document.NewBuilder().Build("scans/letter.png", nil, [][]document.Token{
		{
			document.TokenFromBox(10, 100, 40, 122, "Hello"),
			document.TokenFromBox(50, 102, 80, 120, "World"),
			document.TokenFromBox(10, 200, 40, 220, "<b>&"),
		},
		{},
	})
}

func TestRender(t *testing.T) {
	doc := sampleDocument()
	result := Render(doc)

	checks := []string{
		"<!DOCTYPE html",
		"<meta name='ocr-system' content='ocrdoc' />",
		"<meta name='ocr-number-of-pages' content='2' />",
		"class='ocr_page' id='page_" + doc.Pages[0].ID + "'",
		`title='image "scans/letter.png"; ppageno 0; bbox 10 100 80 220'`,
		`title='image "scans/letter.png"; ppageno 1'`,
		"id='line_" + doc.Pages[0].Lines[0].ID + "' title='bbox 10 100 80 122'",
		"id='word_" + doc.Pages[0].Lines[0].Words[1].ID + "' title='bbox 50 102 80 120'>World</span>",
		"&lt;b&gt;&amp;",
	}
	for _, want := range checks {
		if !strings.Contains(result, want) {
			t.Errorf("Render() missing %q", want)
		}
	}
	if strings.Contains(result, "<b>&") {
		t.Error("Render() did not escape word text")
	}
}

func TestRenderRoundsCoordinates(t *testing.T) {
	doc := document.NewBuilder().Build("a.png", nil, [][]document.Token{
		{document.TokenFromBox(10.4, 20.6, 30.5, 40.49, "x")},
	})
	if !strings.Contains(Render(doc), "bbox 10 21 31 40") {
		t.Errorf("expected rounded bbox in %s", Render(doc))
	}
}

func TestRenderEmptyDocument(t *testing.T) {
	doc := document.NewBuilder().Build("a.png", nil, nil)
	result := Render(doc)
	if strings.Contains(result, "class='ocr_page'") {
		t.Error("document without pages should render no ocr_page")
	}
	if !strings.Contains(result, "content='0'") {
		t.Error("expected zero page count")
	}
}

func TestRenderParseRoundTrip(t *testing.T) {
	doc := sampleDocument()

	pages, err := Parse([]byte(Render(doc)))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}

	tokens := make([][]document.Token, 0, len(pages))
	for _, p := range pages {
		tokens = append(tokens, p.Tokens())
	}
	rebuilt := document.NewBuilder().Build(doc.SourcePath, nil, tokens)

	if rebuilt.Text() != doc.Text() {
		t.Errorf("text %q != %q", rebuilt.Text(), doc.Text())
	}
	for i := range doc.Pages {
		if len(rebuilt.Pages[i].Lines) != len(doc.Pages[i].Lines) {
			t.Fatalf("page %d line count %d != %d", i, len(rebuilt.Pages[i].Lines), len(doc.Pages[i].Lines))
		}
		for j, line := range doc.Pages[i].Lines {
			got := rebuilt.Pages[i].Lines[j]
			if got.ID != line.ID || got.BBox != line.BBox {
				t.Errorf("page %d line %d = %s %v, want %s %v", i, j, got.ID, got.BBox, line.ID, line.BBox)
			}
			for k, word := range line.Words {
				if got.Words[k].ID != word.ID {
					t.Errorf("word %q id changed", word.Text)
				}
			}
		}
	}
}
