package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "ocrdoc",
	Short: "Turn OCR output into structured, hashed documents",
	Long: `ocrdoc runs an OCR engine over scanned images, groups the recognized words
into lines and pages, assigns every element a deterministic SHA-256 identifier
and writes the result as JSON, hOCR, searchable PDF or plain text.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ll, err := cmd.Flags().GetString("log-level")
		if err != nil {
			return err
		}
		lf, err := cmd.Flags().GetString("log-format")
		if err != nil {
			return err
		}

		handler, err := newLogHandler(os.Stderr, ll, lf)
		if err != nil {
			return err
		}
		slog.SetDefault(slog.New(handler))

		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}
		fileConfig, err = LoadConfig(configPath)
		return err
	},
}

func newLogHandler(w io.Writer, ll, format string) (slog.Handler, error) {
	level := slog.LevelInfo
	switch strings.ToUpper(ll) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.NewTextHandler(w, opts), nil
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (use text or json)", format)
	}
}

func init() {
	ll := os.Getenv("LOG_LEVEL")
	if ll == "" {
		ll = "INFO"
	}
	lf := os.Getenv("LOG_FORMAT")
	if lf == "" {
		lf = "text"
	}
	RootCmd.PersistentFlags().String("log-level", ll, "The logging level for the command")
	RootCmd.PersistentFlags().String("log-format", lf, "Log output format: text or json")
	RootCmd.PersistentFlags().String("config", os.Getenv("OCRDOC_CONFIG"), "Path to a YAML config file")
}
