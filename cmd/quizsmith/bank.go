// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/quizsmith/internal/bank"
	"github.com/pdiddy/quizsmith/pkg/types"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Manage the question bank (store, retrieve, export)",
	Long: `Bank manages a local SQLite question bank built from parsed quiz files.
Use subcommands to index questions, query them, or export.`,
}

// --- store subcommand ---

var bankStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Ingest parsed quiz files into the question bank",
	Long: `Store reads quiz JSON files from bank/parsed/, ingests them into a
SQLite database with FTS5 indexing, and writes an export file.
Unchanged files are skipped on subsequent runs.`,
	RunE: runBankStore,
}

func runBankStore(cmd *cobra.Command, args []string) error {
	store, err := bank.NewStore(bankConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var bankRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the question bank with full-text search and filters",
	Long: `Retrieve searches the question bank using FTS5 full-text search over
question text, structured filters (type, source), or a combination of
both.`,
	RunE: runBankRetrieve,
}

func runBankRetrieve(cmd *cobra.Command, args []string) error {
	store, err := bank.NewStore(bankConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --type, or --source")
	}

	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []bank.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-12s  %-15s  %-50s  %-20s  %s\n",
		"Rank", "ID", "Type", "Question", "Source", "Correct")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 115))

	for i, r := range results {
		text := r.Text
		if len(text) > 50 {
			text = text[:47] + "..."
		}
		source := r.SourceID
		if len(source) > 20 {
			source = source[:17] + "..."
		}
		correct := ""
		if r.CorrectAnswer >= 0 && r.CorrectAnswer < len(r.Answers) {
			correct = r.Answers[r.CorrectAnswer]
			if len(correct) > 15 {
				correct = correct[:12] + "..."
			}
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-12s  %-15s  %-50s  %-20s  %s\n",
			i+1, r.ID, r.Kind, text, source, correct)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var bankExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the question bank to YAML or JSON",
	Long: `Export writes the full question bank (or a filtered subset) to
bank/index/export.yaml or export.json. Supports the same filter flags
as retrieve for partial exports.`,
	RunE: runBankExport,
}

func runBankExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := bank.NewStore(bankConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to bank/index/export.yaml")
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to bank/index/export.json")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func bankConfig(cmd *cobra.Command) types.BankConfig {
	bankDir, _ := cmd.Flags().GetString("bank-dir")
	if bankDir == "" {
		bankDir = "bank"
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return types.BankConfig{
		BankDir:    bankDir,
		MaxResults: maxResults,
	}
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) bank.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	kind, _ := cmd.Flags().GetString("type")
	sourceID, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")

	return bank.QueryOptions{
		Query:      queryText,
		Kind:       types.Kind(kind),
		SourceID:   sourceID,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	bankCmd.PersistentFlags().String("bank-dir", "bank", "base directory for the bank (contains parsed/, index/)")
	bankCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Retrieve flags.
	bankRetrieveCmd.Flags().String("query", "", "full-text search query over question text")
	bankRetrieveCmd.Flags().String("type", "", "filter by question type: multiple_choice, true_false")
	bankRetrieveCmd.Flags().String("source", "", "filter by source document ID")
	bankRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	bankRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	bankExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	bankExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	bankExportCmd.Flags().String("type", "", "filter by question type for partial export")
	bankExportCmd.Flags().String("source", "", "filter by source document ID for partial export")
	bankExportCmd.Flags().Int("limit", 0, "maximum questions to export (0 = all)")

	// Wire subcommands.
	bankCmd.AddCommand(bankStoreCmd)
	bankCmd.AddCommand(bankRetrieveCmd)
	bankCmd.AddCommand(bankExportCmd)

	rootCmd.AddCommand(bankCmd)
}
