// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/quizsmith/internal/loadtest"
	"github.com/pdiddy/quizsmith/internal/secrets"
	"github.com/pdiddy/quizsmith/pkg/types"
)

var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Drive the quiz backend with simulated users",
	Long: `Loadtest replays user sessions against the quiz backend's REST API:
each simulated user logs in, takes one or more quizzes with realistic
reading and answering pauses, and submits results. The user population
comes from the backend's SQL seed file.

The backend URL and API key come from flags, quizsmith.yaml, or the
.secrets/ directory (backend-api-key).`,
	RunE: runLoadTest,
}

func runLoadTest(cmd *cobra.Command, args []string) error {
	cfg, usersFile, err := loadTestConfigFromFlags(cmd)
	if err != nil {
		return err
	}

	users, err := loadtest.ParseUsersFromSeed(usersFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Parsed %d users from %s\n", len(users), usersFile)

	runner := loadtest.NewRunner(cfg, loadtest.NewClient(cfg), users)
	stats, err := runner.Run(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if stats.SubmissionsFailed > 0 {
		return fmt.Errorf("%d submission(s) failed", stats.SubmissionsFailed)
	}
	return nil
}

func loadTestConfigFromFlags(cmd *cobra.Command) (types.LoadTestConfig, string, error) {
	baseURL, _ := cmd.Flags().GetString("backend-url")
	apiKey, _ := cmd.Flags().GetString("api-key")
	usersFile, _ := cmd.Flags().GetString("users-file")
	concurrent, _ := cmd.Flags().GetInt("concurrent")
	numUsers, _ := cmd.Flags().GetInt("num-users")
	maxSubmissions, _ := cmd.Flags().GetInt("max-submissions")
	thinkMin, _ := cmd.Flags().GetDuration("think-time-min")
	thinkMax, _ := cmd.Flags().GetDuration("think-time-max")
	answerMin, _ := cmd.Flags().GetDuration("answer-time-min")
	answerMax, _ := cmd.Flags().GetDuration("answer-time-max")
	fast, _ := cmd.Flags().GetBool("fast")
	seed, _ := cmd.Flags().GetInt64("seed")

	if baseURL == "" {
		baseURL = viper.GetString("backend_url")
	}
	apiKey = secrets.Lookup(loadedSecrets, "backend-api-key", apiKey)
	if apiKey == "" {
		apiKey = viper.GetString("backend_api_key")
	}

	if baseURL == "" {
		return types.LoadTestConfig{}, "", fmt.Errorf("backend URL required: set --backend-url or QUIZSMITH_BACKEND_URL")
	}
	if apiKey == "" {
		return types.LoadTestConfig{}, "", fmt.Errorf("API key required: set --api-key or add .secrets/backend-api-key")
	}

	if fast {
		thinkMin, thinkMax = 10*time.Millisecond, 50*time.Millisecond
		answerMin, answerMax = 10*time.Millisecond, 50*time.Millisecond
	}

	cfg := types.LoadTestConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   60 * time.Second,
			UserAgent: "quizsmith/" + version,
		},
		BaseURL:         baseURL,
		APIKey:          apiKey,
		ConcurrentUsers: concurrent,
		NumUsers:        numUsers,
		MaxSubmissions:  maxSubmissions,
		ThinkTimeMin:    thinkMin,
		ThinkTimeMax:    thinkMax,
		AnswerTimeMin:   answerMin,
		AnswerTimeMax:   answerMax,
		Seed:            seed,
	}
	return cfg, usersFile, nil
}

func init() {
	loadtestCmd.Flags().String("backend-url", "", "quiz backend REST API root URL")
	loadtestCmd.Flags().String("api-key", "", "backend API key (or .secrets/backend-api-key)")
	loadtestCmd.Flags().String("users-file", "supabase/users_seed.sql", "path to the users seed SQL file")
	loadtestCmd.Flags().Int("concurrent", 50, "number of concurrent simulated users")
	loadtestCmd.Flags().Int("num-users", 0, "number of users to simulate (0 = all users from seed file)")
	loadtestCmd.Flags().Int("max-submissions", 0, "maximum total quiz submissions (0 = unlimited)")
	loadtestCmd.Flags().Duration("think-time-min", 500*time.Millisecond, "minimum pause between actions")
	loadtestCmd.Flags().Duration("think-time-max", 2*time.Second, "maximum pause between actions")
	loadtestCmd.Flags().Duration("answer-time-min", 300*time.Millisecond, "minimum pause per question")
	loadtestCmd.Flags().Duration("answer-time-max", 1500*time.Millisecond, "maximum pause per question")
	loadtestCmd.Flags().Bool("fast", false, "run with minimal delays (for quick testing)")
	loadtestCmd.Flags().Int64("seed", 0, "random seed for reproducible runs (0 = time-based)")

	rootCmd.AddCommand(loadtestCmd)
}
