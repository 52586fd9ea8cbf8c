package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/evaluate"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/pipeline"
	"github.com/spf13/cobra"
	yaml "go.yaml.in/yaml/v3"
)

// EvalConfig records how an evaluation was run
type EvalConfig struct {
	Name          string  `yaml:"name"`
	Provider      string  `yaml:"provider"`
	LineThreshold float64 `yaml:"line_threshold"`
	CSVPath       string  `yaml:"csv_path"`
	TestRows      []int   `yaml:"rows"`
	Timestamp     string  `yaml:"timestamp"`
}

// EvalResult scores one document against its transcript
type EvalResult struct {
	Identifier     string `yaml:"identifier"`
	SourcePath     string `yaml:"source_path"`
	TranscriptPath string `yaml:"transcript_path"`
	Cached         bool   `yaml:"cached,omitempty"`
	Lines          int    `yaml:"lines"`

	evaluate.Metrics `yaml:",inline"`
}

type EvalSummary struct {
	Config  EvalConfig       `yaml:"config"`
	Average evaluate.Metrics `yaml:"average"`
	Results []EvalResult     `yaml:"results"`
}

// evalRow is one line of the evaluation CSV
type evalRow struct {
	Source     string
	Transcript string
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score extracted text against ground truth transcripts",
	Long: `Evaluate OCR quality by comparing the text of extracted documents with ground
truth transcripts.

The CSV has two columns:
  image,transcript

The first column is either a source image, which is run through the selected
engine, or a document JSON written by an earlier extract. Results are saved
as YAML in the evals directory.

Example:
  ocrdoc eval --csv fixtures/eval.csv --dir ./fixtures --provider tesseract`,
	RunE: runEval,
}

var (
	evalCSVPath string
	evalName    string
	evalDir     string
	evalOutDir  string
	evalRows    []int
	evalWorkers int
	evalFlags   recognizeFlags
)

func init() {
	RootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalCSVPath, "csv", "c", "", "Path to CSV file with evaluation data (required)")
	evalCmd.Flags().StringVarP(&evalName, "name", "n", "", "Name for the results file (default: timestamp)")
	evalCmd.Flags().StringVar(&evalDir, "dir", "./", "Prepend your CSV file paths with a directory")
	evalCmd.Flags().StringVar(&evalOutDir, "evals-dir", "evals", "Directory for evaluation results")
	evalCmd.Flags().IntSliceVar(&evalRows, "rows", []int{}, "A list of row numbers to run the test on")
	evalCmd.Flags().IntVarP(&evalWorkers, "workers", "w", 0, "Number of images processed at once (default from config, else 4)")
	evalFlags.register(evalCmd)

	if err := evalCmd.MarkFlagRequired("csv"); err != nil {
		slog.Error("Unable to mark csv as required", "err", err)
		os.Exit(1)
	}
}

func runEval(cmd *cobra.Command, args []string) error {
	c := evalFlags.resolve(cmd)
	config := EvalConfig{
		Name:          evalName,
		Provider:      c.Provider,
		LineThreshold: c.LineThreshold,
		CSVPath:       evalCSVPath,
		TestRows:      evalRows,
		Timestamp:     time.Now().Format("2006-01-02_15-04-05"),
	}

	rows, err := readEvalCSV(evalCSVPath, evalDir, evalRows)
	if err != nil {
		return err
	}

	p, closeStore, err := evalFlags.processor(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	workers := c.Workers
	if cmd.Flags().Changed("workers") {
		workers = evalWorkers
	}

	results := evaluateRows(cmd.Context(), p, rows, workers)
	for _, result := range results {
		slog.Info("Evaluated document",
			"identifier", result.Identifier,
			"character_similarity", fmt.Sprintf("%.3f", result.CharacterSimilarity),
			"word_accuracy", fmt.Sprintf("%.3f", result.WordAccuracy),
			"word_error_rate", fmt.Sprintf("%.3f", result.WordErrorRate))
	}

	summary := newEvalSummary(config, results)
	if err := os.MkdirAll(evalOutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create evals directory: %w", err)
	}
	name := config.Timestamp
	if config.Name != "" {
		name = strings.ReplaceAll(config.Name, ":", "_")
	}
	outputPath := filepath.Join(evalOutDir, fmt.Sprintf("eval_%s.yaml", name))
	if err := saveEvalResults(summary, outputPath); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	printSummaryStats(cmd, outputPath, summary)
	if len(results) < len(rows) {
		return fmt.Errorf("%d of %d rows could not be evaluated", len(rows)-len(results), len(rows))
	}
	return nil
}

// readEvalCSV returns the selected data rows with dir prepended to both
// paths. A header row starting with "image" is skipped.
func readEvalCSV(path, dir string, selected []int) ([]evalRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	dataRows := records
	if strings.EqualFold(strings.TrimSpace(records[0][0]), "image") {
		dataRows = records[1:]
	}

	var rows []evalRow
	for i, record := range dataRows {
		if len(selected) > 0 && !slices.Contains(selected, i) {
			continue
		}
		if len(record) < 2 {
			slog.Warn("Insufficient columns", "row", i+1)
			continue
		}
		rows = append(rows, evalRow{
			Source:     filepath.Join(dir, strings.TrimSpace(record[0])),
			Transcript: filepath.Join(dir, strings.TrimSpace(record[1])),
		})
	}
	return rows, nil
}

// evaluateRows extracts every image row through p, loads every document
// row, and scores each against its transcript. Rows that fail are logged
// and left out of the results.
func evaluateRows(ctx context.Context, p *pipeline.Processor, rows []evalRow, workers int) []EvalResult {
	var images []string
	for _, row := range rows {
		if !isDocumentJSON(row.Source) {
			images = append(images, row.Source)
		}
	}

	extracted := map[string]pipeline.Result{}
	for _, r := range p.ProcessAll(ctx, images, workers) {
		extracted[r.Path] = r
	}

	var results []EvalResult
	for _, row := range rows {
		var doc *document.Document
		cached := false
		if isDocumentJSON(row.Source) {
			loaded, err := document.LoadJSON(row.Source)
			if err != nil {
				slog.Error("Error loading document", "path", row.Source, "err", err)
				continue
			}
			doc = loaded
		} else {
			r := extracted[row.Source]
			if r.Err != nil || r.Document == nil {
				continue
			}
			doc, cached = r.Document, r.Cached
		}

		groundTruth, err := os.ReadFile(row.Transcript)
		if err != nil {
			slog.Error("Error reading transcript", "path", row.Transcript, "err", err)
			continue
		}

		results = append(results, EvalResult{
			Identifier:     filepath.Base(row.Source),
			SourcePath:     row.Source,
			TranscriptPath: row.Transcript,
			Cached:         cached,
			Lines:          doc.LineCount(),
			Metrics:        evaluate.Compare(string(groundTruth), doc.Text()),
		})
	}
	return results
}

func isDocumentJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func newEvalSummary(config EvalConfig, results []EvalResult) EvalSummary {
	metrics := make([]evaluate.Metrics, len(results))
	for i, r := range results {
		metrics[i] = r.Metrics
	}
	return EvalSummary{
		Config:  config,
		Average: evaluate.Average(metrics),
		Results: results,
	}
}

func saveEvalResults(summary EvalSummary, outputPath string) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}

func printSummaryStats(cmd *cobra.Command, outputPath string, summary EvalSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nEvaluation completed. Results saved to: %s\n", outputPath)
	if len(summary.Results) == 0 {
		return
	}
	fmt.Fprintf(out, "\n=== SUMMARY STATISTICS ===\n")
	fmt.Fprintf(out, "Total Evaluations: %d\n", len(summary.Results))
	fmt.Fprintf(out, "Average Character Similarity: %.3f\n", summary.Average.CharacterSimilarity)
	fmt.Fprintf(out, "Average Word Similarity: %.3f\n", summary.Average.WordSimilarity)
	fmt.Fprintf(out, "Average Word Accuracy: %.3f\n", summary.Average.WordAccuracy)
	fmt.Fprintf(out, "Average Word Error Rate: %.3f\n", summary.Average.WordErrorRate)
}
