package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/ocrdoc/internal/utils"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/annotate"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/pdfocr"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/pipeline"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/store"
	"github.com/spf13/cobra"
)

// recognizeFlags are shared by the commands that run an OCR engine
type recognizeFlags struct {
	provider      string
	languages     []string
	dpi           int
	psm           int
	tokensFile    string
	lineThreshold float64
	timeout       time.Duration
	storeURL      string
	outputDir     string
	annotateDir   string
	hocrDir       string
	pdfDir        string
	textDir       string
	lineBoxes     bool
	debugPDF      bool
}

func (f *recognizeFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.provider, "provider", "tesseract", "OCR engine: "+strings.Join(newRegistry(Config{}).List(), ", "))
	flags.StringSliceVar(&f.languages, "lang", nil, "Recognition languages (e.g. eng,deu)")
	flags.IntVar(&f.dpi, "dpi", 0, "Source resolution hint passed to the engine")
	flags.IntVar(&f.psm, "psm", 0, "Tesseract page segmentation mode")
	flags.StringVar(&f.tokensFile, "tokens", "", "Pre-computed OCR output (token list, hOCR file or saved API response)")
	flags.Float64Var(&f.lineThreshold, "line-threshold", document.DefaultLineThreshold, "Maximum vertical distance in pixels between words of one line")
	flags.DurationVar(&f.timeout, "timeout", 2*time.Minute, "Timeout for cloud engine requests")
	flags.StringVar(&f.storeURL, "store", "", "Document store: directory, redis:// or postgres:// URL")
	flags.StringVarP(&f.outputDir, "output-dir", "o", "output", "Directory for the document JSON")
	flags.StringVar(&f.annotateDir, "annotate-dir", "", "Also write annotated images to this directory")
	flags.StringVar(&f.hocrDir, "hocr-dir", "", "Also write hOCR to this directory")
	flags.StringVar(&f.pdfDir, "pdf-dir", "", "Also write searchable PDFs to this directory")
	flags.StringVar(&f.textDir, "text-dir", "", "Also write plain text to this directory")
	flags.BoolVar(&f.lineBoxes, "line-boxes", false, "Outline lines as well as words in annotated images")
	flags.BoolVar(&f.debugPDF, "debug-pdf", false, "Show the PDF text layer in red")
}

// resolve merges the config file with the flags the user set explicitly
func (f *recognizeFlags) resolve(cmd *cobra.Command) Config {
	c := fileConfig
	flags := cmd.Flags()
	if flags.Changed("provider") {
		c.Provider = f.provider
	}
	if flags.Changed("lang") {
		c.Languages = f.languages
	}
	if flags.Changed("dpi") {
		c.DPI = f.dpi
	}
	if flags.Changed("psm") {
		c.PageSegMode = f.psm
	}
	if flags.Changed("line-threshold") {
		c.LineThreshold = f.lineThreshold
	}
	if flags.Changed("timeout") {
		c.Timeout = f.timeout
	}
	if flags.Changed("store") {
		c.Store = f.storeURL
	}
	if flags.Changed("output-dir") || c.Output.JSONDir == "" {
		c.Output.JSONDir = f.outputDir
	}
	if flags.Changed("annotate-dir") {
		c.Output.AnnotateDir = f.annotateDir
	}
	if flags.Changed("hocr-dir") {
		c.Output.HOCRDir = f.hocrDir
	}
	if flags.Changed("pdf-dir") {
		c.Output.PDFDir = f.pdfDir
	}
	if flags.Changed("text-dir") {
		c.Output.TextDir = f.textDir
	}
	return c
}

// processor builds the pipeline for the resolved configuration. The
// returned close function releases the store.
func (f *recognizeFlags) processor(ctx context.Context, cmd *cobra.Command) (*pipeline.Processor, func(), error) {
	c := f.resolve(cmd)

	provider, err := newRegistry(c).Get(c.Provider)
	if err != nil {
		return nil, nil, err
	}

	providerConfig := c.ProviderConfig()
	providerConfig.TokensFile = f.tokensFile
	if err := provider.ValidateConfig(providerConfig); err != nil {
		return nil, nil, fmt.Errorf("provider configuration validation failed: %w", err)
	}

	annotateOpts := annotate.DefaultOptions()
	annotateOpts.LineBoxes = f.lineBoxes
	pdfConfig := pdfocr.DefaultConfig()
	pdfConfig.Debug = f.debugPDF
	if c.DPI > 0 {
		pdfConfig.DPI = float64(c.DPI)
	}

	p := &pipeline.Processor{
		Provider: provider,
		Config:   providerConfig,
		Builder:  document.NewBuilder(document.WithLineThreshold(c.LineThreshold)),
		Logger:   slog.Default(),
		Outputs: pipeline.Outputs{
			JSONDir:     c.Output.JSONDir,
			AnnotateDir: c.Output.AnnotateDir,
			HOCRDir:     c.Output.HOCRDir,
			PDFDir:      c.Output.PDFDir,
			TextDir:     c.Output.TextDir,
			Annotate:    annotateOpts,
			PDF:         pdfConfig,
		},
	}

	closeFn := func() {}
	if c.Store != "" {
		s, err := store.Open(ctx, c.Store)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open store %s: %w", utils.MaskSensitiveData(c.Store), utils.MaskSensitiveError(err))
		}
		p.Store = s
		closeFn = func() {
			if err := s.Close(); err != nil {
				slog.Warn("Failed to close store", "err", err)
			}
		}
	}

	slog.Debug("Pipeline ready", "provider", provider.Name(), "line_threshold", c.LineThreshold, "store", utils.MaskSensitiveData(c.Store))
	return p, closeFn, nil
}
