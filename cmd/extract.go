package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract a structured document from an image",
	Long: `Run an OCR engine over one image, group the recognized words into lines and
write the document as <image stem>.json to the output directory.

Optional flags also write an annotated copy of the image, hOCR, a searchable
PDF or plain text. With --store, an image whose bytes have not changed since
the last run is served from the store instead of being recognized again.

Example:
  ocrdoc extract --image scans/letter.png --annotate-dir annotated`,
	RunE: runExtract,
}

var (
	extractImage string
	extractFlags recognizeFlags
)

func init() {
	RootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&extractImage, "image", "", "Path to input image file (required)")
	extractFlags.register(extractCmd)

	err := extractCmd.MarkFlagRequired("image")
	if err != nil {
		slog.Error("Unable to mark image as required", "err", err)
		os.Exit(1)
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	p, closeStore, err := extractFlags.processor(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	slog.Info("Extracting document", "image", extractImage, "provider", p.Provider.Name())

	result, err := p.Process(cmd.Context(), extractImage)
	if err != nil {
		return err
	}

	for _, f := range result.Files {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	return nil
}
