// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/quizsmith/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check a quiz JSON file for structural problems",
	Long: `Validate checks a quiz JSON file before it is handed to a frontend or
the question bank: encoding (UTF-8 with Windows-1252 fallback), JSON
syntax with positioned error reporting, and per-question structure
(answer counts, non-empty text, correct answer in range).

Use --fix-to to write a cleaned copy (BOM stripped, re-encoded,
re-indented) once the file passes.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	fixTo, _ := cmd.Flags().GetString("fix-to")

	result, err := validate.File(args[0], os.Stderr)
	if err != nil {
		return err
	}

	if !result.OK() {
		for _, issue := range result.Issues {
			fmt.Fprintln(os.Stderr, issue)
		}
		return fmt.Errorf("%s: %d issue(s) found", args[0], len(result.Issues))
	}

	fmt.Fprintf(os.Stderr, "%s: %d question(s), no issues\n", args[0], len(result.Questions))

	if fixTo != "" {
		if err := validate.WriteClean(fixTo, result.Questions); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote cleaned copy to %s\n", fixTo)
	}
	return nil
}

func init() {
	validateCmd.Flags().String("fix-to", "", "write a cleaned copy of the validated file to this path")

	rootCmd.AddCommand(validateCmd)
}
