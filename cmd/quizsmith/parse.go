// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/quizsmith/internal/docread"
	"github.com/pdiddy/quizsmith/internal/parse"
	"github.com/pdiddy/quizsmith/pkg/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse INPUT [OUTPUT]",
	Short: "Extract quiz questions from a document",
	Long: `Parse reads a course document (docx, pdf, odt, or plain text), extracts
quiz questions, and writes them as a JSON array. Multiple-choice blocks
are found by their "Question" marker; true/false statements are found by
their "assume" phrasing.

By default only multiple-choice questions are extracted. Use --extended
to extract every registered question type, or --type to select one.
When OUTPUT is omitted the JSON goes to stdout.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg := parseConfigFromFlags(cmd)

	input := args[0]
	output := ""
	if len(args) > 1 {
		output = args[1]
	}

	lines, err := docread.ReadLines(docread.ForPath(input), input)
	if err != nil {
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	registry := parse.NewRegistry(rand.New(rand.NewSource(seed)))

	questions, err := registry.Extract(cfg.Type, lines)
	if err != nil {
		return err
	}
	if questions == nil {
		// A document with no questions still produces valid output: an
		// empty array, not null.
		questions = []types.Question{}
	}

	data, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling questions: %w", err)
	}
	data = append(data, '\n')

	if output == "" {
		os.Stdout.Write(data)
	} else {
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", output)
	}

	printKindSummary(questions)
	return nil
}

func printKindSummary(questions []types.Question) {
	counts := make(map[types.Kind]int)
	var order []types.Kind
	for _, q := range questions {
		if counts[q.Kind] == 0 {
			order = append(order, q.Kind)
		}
		counts[q.Kind]++
	}
	for _, k := range order {
		fmt.Fprintf(os.Stderr, "  %s: %d\n", k, counts[k])
	}
	fmt.Fprintf(os.Stderr, "Extracted %d question(s)\n", len(questions))
}

func parseConfigFromFlags(cmd *cobra.Command) types.ParseConfig {
	typeKey, _ := cmd.Flags().GetString("type")
	extended, _ := cmd.Flags().GetBool("extended")
	seed, _ := cmd.Flags().GetInt64("seed")

	// --type wins over --extended; the default is multiple choice only.
	if typeKey == "" {
		if extended {
			typeKey = parse.AllKinds
		} else {
			typeKey = string(types.KindMultipleChoice)
		}
	}

	return types.ParseConfig{
		Type: typeKey,
		Seed: seed,
	}
}

func init() {
	parseCmd.Flags().String("type", "", "question type to extract: multiple_choice, true_false, or all")
	parseCmd.Flags().Bool("extended", false, "extract every registered question type")
	parseCmd.Flags().Int64("seed", 0, "random seed for fallback correct answers (0 = time-based)")

	rootCmd.AddCommand(parseCmd)
}
