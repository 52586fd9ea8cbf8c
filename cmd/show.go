package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a summary of a saved document",
	Long: `Load a document JSON written by extract, check the tree invariants and print
its identifier, source, page, line and word counts. With --text the
reconstructed text follows.`,
	RunE: runShow,
}

var (
	showDocument string
	showText     bool
)

func init() {
	RootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVar(&showDocument, "document", "", "Path to document JSON (required)")
	showCmd.Flags().BoolVar(&showText, "text", false, "Also print the document text")

	err := showCmd.MarkFlagRequired("document")
	if err != nil {
		slog.Error("Unable to mark document as required", "err", err)
		os.Exit(1)
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	doc, err := document.LoadJSON(showDocument)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	hash := "-"
	if doc.ContentHash != nil {
		hash = *doc.ContentHash
	}
	fmt.Fprintf(out, "ID: %s\n", doc.ID)
	fmt.Fprintf(out, "Source: %s\n", doc.SourcePath)
	fmt.Fprintf(out, "Content Hash: %s\n", hash)
	fmt.Fprintf(out, "Pages: %d\n", len(doc.Pages))
	fmt.Fprintf(out, "Lines: %d\n", doc.LineCount())
	fmt.Fprintf(out, "Words: %d\n", doc.WordCount())
	if err := doc.Validate(); err != nil {
		fmt.Fprintf(out, "Valid: no (%v)\n", err)
	} else {
		fmt.Fprintln(out, "Valid: yes")
	}
	if showText {
		fmt.Fprintf(out, "\n%s\n", doc.Text())
	}
	return nil
}
