// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the quizsmith CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/quizsmith/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the quizsmith CLI.
var rootCmd = &cobra.Command{
	Use:   "quizsmith",
	Short: "Extract structured quiz questions from course documents",
	Long: `quizsmith turns lecture notes and exam documents into structured quiz
questions. The pipeline reads a document, extracts multiple-choice and
true/false questions, validates the resulting quiz JSON, and can index
the questions into a local bank or drive a quiz backend under load.

Each pipeline stage is a subcommand: parse, validate, bank, and loadtest.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./quizsmith.yaml or ~/.config/quizsmith/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("quizsmith")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "quizsmith"))
		}
	}

	viper.SetEnvPrefix("QUIZSMITH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
