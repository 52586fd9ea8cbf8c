package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/annotate"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	"github.com/spf13/cobra"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Draw the word boxes of a saved document onto its image",
	Long: `Load a document JSON written by extract and outline every word on a copy of
the source image. The copy keeps the image's file name and is written to the
output directory.

Example:
  ocrdoc annotate --document output/letter.json --output-dir annotated`,
	RunE: runAnnotate,
}

var (
	annotateDocument  string
	annotateImage     string
	annotateOutputDir string
	annotateLineBoxes bool
)

func init() {
	RootCmd.AddCommand(annotateCmd)

	annotateCmd.Flags().StringVar(&annotateDocument, "document", "", "Path to document JSON (required)")
	annotateCmd.Flags().StringVar(&annotateImage, "image", "", "Source image (defaults to the document's source_path)")
	annotateCmd.Flags().StringVarP(&annotateOutputDir, "output-dir", "o", "annotated", "Directory for the annotated image")
	annotateCmd.Flags().BoolVar(&annotateLineBoxes, "line-boxes", false, "Outline lines as well as words")

	err := annotateCmd.MarkFlagRequired("document")
	if err != nil {
		slog.Error("Unable to mark document as required", "err", err)
		os.Exit(1)
	}
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	doc, err := document.LoadJSON(annotateDocument)
	if err != nil {
		return err
	}

	image := annotateImage
	if image == "" {
		image = doc.SourcePath
	}

	opts := annotate.DefaultOptions()
	opts.LineBoxes = annotateLineBoxes
	path, err := annotate.AnnotateWithOptions(doc, image, annotateOutputDir, opts)
	if err != nil {
		return err
	}

	slog.Info("Annotated image written", "path", path, "words", doc.WordCount())
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
