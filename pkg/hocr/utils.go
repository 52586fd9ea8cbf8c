package hocr

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
)

// Render converts a document to an hOCR XHTML document. Element ids carry
// the document's own identifiers.
func Render(doc *document.Document) string {
	var pages []string
	for i, page := range doc.Pages {
		pages = append(pages, renderPage(doc.SourcePath, i, page))
	}
	return WrapInHOCRDocument(strings.Join(pages, "\n"), len(doc.Pages))
}

func renderPage(sourcePath string, index int, page document.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<div class='ocr_page' id='page_%s' title='image %s; ppageno %d%s'>",
		page.ID, quoteTitle(sourcePath), index, pageBBox(page))
	for _, line := range page.Lines {
		fmt.Fprintf(&b, "\n<span class='ocr_line' id='line_%s' title='%s'>", line.ID, bboxTitle(line.BBox))
		for i, word := range line.Words {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "<span class='ocrx_word' id='word_%s' title='%s'>%s</span>",
				word.ID, bboxTitle(word.BBox), html.EscapeString(word.Text))
		}
		b.WriteString("</span>")
	}
	b.WriteString("\n</div>")
	return b.String()
}

// pageBBox is the envelope of the page's lines; pages without lines carry
// no bbox since the image size is unknown here.
func pageBBox(page document.Page) string {
	if len(page.Lines) == 0 {
		return ""
	}
	env := page.Lines[0].BBox
	for _, line := range page.Lines[1:] {
		env = document.Box{
			math.Min(env.Left(), line.BBox.Left()),
			math.Min(env.Top(), line.BBox.Top()),
			math.Max(env.Right(), line.BBox.Right()),
			math.Max(env.Bottom(), line.BBox.Bottom()),
		}
	}
	return "; " + bboxTitle(env)
}

func bboxTitle(b document.Box) string {
	return fmt.Sprintf("bbox %d %d %d %d",
		int(math.Round(b.Left())), int(math.Round(b.Top())),
		int(math.Round(b.Right())), int(math.Round(b.Bottom())))
}

func quoteTitle(s string) string {
	return `"` + html.EscapeString(strings.ReplaceAll(s, `"`, "")) + `"`
}

// WrapInHOCRDocument wraps content in a complete hOCR HTML document
func WrapInHOCRDocument(content string, pageCount int) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">
<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="en" lang="en">
<head>
<title></title>
<meta http-equiv="Content-Type" content="text/html;charset=utf-8" />
<meta name='ocr-system' content='ocrdoc' />
<meta name='ocr-capabilities' content='ocr_page ocr_line ocrx_word' />
<meta name='ocr-number-of-pages' content='%d' />
</head>
<body>
%s
</body>
</html>`, pageCount, content)
}
