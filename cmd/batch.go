package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/pipeline"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch PATH...",
	Short: "Extract documents from many images in parallel",
	Long: `Run extract for every image given. Directories are expanded to the image
files they contain. One failing image is logged and does not stop the others;
the command exits with an error when any image failed.

Example:
  ocrdoc batch scans/ --workers 8 --store redis://localhost:6379/0`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

var (
	batchWorkers int
	batchFlags   recognizeFlags
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".tif", ".tiff", ".bmp", ".webp", ".pdf"}

func init() {
	RootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "Number of images processed at once (default from config, else 4)")
	batchFlags.register(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	paths, err := expandPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no images found in %s", strings.Join(args, ", "))
	}

	p, closeStore, err := batchFlags.processor(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	workers := fileConfig.Workers
	if cmd.Flags().Changed("workers") {
		workers = batchWorkers
	}

	slog.Info("Starting batch", "images", len(paths), "workers", workers, "provider", p.Provider.Name())
	results := p.ProcessAll(cmd.Context(), paths, workers)

	summary := pipeline.Summarize(results)
	slog.Info("Batch complete", "total", summary.Total, "recognized", summary.Recognized,
		"cached", summary.Cached, "failed", summary.Failed)

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d images failed", summary.Failed, summary.Total)
	}
	return nil
}

// expandPaths replaces directories with the image files inside them
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(path))) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", arg, err)
		}
	}
	return paths, nil
}
