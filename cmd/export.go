package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/hocr"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/pdfocr"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Convert a saved document to hOCR, PDF, text or JSON",
	Long: `Load a document JSON written by extract and render it in another format.
The PDF format needs the source image and places the recognized words on an
invisible text layer over it.

Example:
  ocrdoc export --document output/letter.json --format hocr -o letter.hocr
  ocrdoc export --document output/letter.json --format pdf -o letter.pdf`,
	RunE: runExport,
}

var (
	exportDocument string
	exportFormat   string
	exportImage    string
	exportOutput   string
	exportDebugPDF bool
)

func init() {
	RootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportDocument, "document", "", "Path to document JSON (required)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "text", "Output format: hocr, pdf, text, json")
	exportCmd.Flags().StringVar(&exportImage, "image", "", "Source image for pdf (defaults to the document's source_path)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
	exportCmd.Flags().BoolVar(&exportDebugPDF, "debug-pdf", false, "Show the PDF text layer in red")

	err := exportCmd.MarkFlagRequired("document")
	if err != nil {
		slog.Error("Unable to mark document as required", "err", err)
		os.Exit(1)
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	doc, err := document.LoadJSON(exportDocument)
	if err != nil {
		return err
	}

	image := exportImage
	if image == "" {
		image = doc.SourcePath
	}
	config := pdfocr.DefaultConfig()
	config.Debug = exportDebugPDF

	data, err := exportDocumentAs(doc, exportFormat, image, config)
	if err != nil {
		return err
	}

	if exportOutput == "" {
		if exportFormat == "pdf" {
			return fmt.Errorf("pdf output requires --output")
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return writeOutput(exportOutput, data)
}

// exportDocumentAs renders doc in the named format.
func exportDocumentAs(doc *document.Document, format, image string, config pdfocr.Config) ([]byte, error) {
	switch format {
	case "hocr":
		return []byte(hocr.WrapInHOCRDocument(hocr.Render(doc), len(doc.Pages))), nil
	case "pdf":
		data, err := os.ReadFile(image)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", document.ErrSourceUnreadable, err)
		}
		return pdfocr.Render(doc, data, config)
	case "text", "txt":
		return []byte(doc.Text() + "\n"), nil
	case "json":
		return document.Marshal(doc)
	default:
		return nil, fmt.Errorf("unknown format %q (want hocr, pdf, text or json)", format)
	}
}

func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	slog.Info("Export written", "path", path, "bytes", len(data))
	return nil
}
