package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/annotate"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/hocr"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/pdfocr"
)

// Outputs selects the files written for each document. Empty directories
// are skipped.
type Outputs struct {
	JSONDir     string
	AnnotateDir string
	HOCRDir     string
	PDFDir      string
	TextDir     string

	Annotate annotate.Options
	PDF      pdfocr.Config
}

// Write produces every configured output for doc. sourcePath is the image
// the boxes refer to.
func (o Outputs) Write(doc *document.Document, sourcePath string) ([]string, error) {
	var files []string

	if o.JSONDir != "" {
		path, err := document.SaveJSON(doc, o.JSONDir)
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}

	if o.AnnotateDir != "" {
		opts := o.Annotate
		if opts.Color == nil {
			opts = annotate.DefaultOptions()
		}
		path, err := annotate.AnnotateWithOptions(doc, sourcePath, o.AnnotateDir, opts)
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}

	if o.HOCRDir != "" {
		path, err := writeFile(o.HOCRDir, doc, ".hocr", []byte(hocr.Render(doc)))
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}

	if o.PDFDir != "" {
		config := o.PDF
		if config.Font.Name == "" {
			config = pdfocr.DefaultConfig()
		}
		path := filepath.Join(o.PDFDir, Stem(doc.SourcePath)+".pdf")
		if err := pdfocr.Write(doc, sourcePath, path, config); err != nil {
			return files, err
		}
		files = append(files, path)
	}

	if o.TextDir != "" {
		path, err := writeFile(o.TextDir, doc, ".txt", []byte(doc.Text()+"\n"))
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}

	return files, nil
}

func writeFile(dir string, doc *document.Document, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(dir, Stem(doc.SourcePath)+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Stem is the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
