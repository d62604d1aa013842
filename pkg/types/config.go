package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "quizsmith/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ParseConfig holds settings for the question extraction stage.
type ParseConfig struct {
	// Type selects the question type to extract: a registered type key
	// or "all". Empty defaults to multiple_choice.
	Type string `json:"type" yaml:"type"`

	// Seed fixes the random source used for fallback correct answers.
	// Zero means seed from the current time.
	Seed int64 `json:"seed" yaml:"seed"`
}

// BankConfig holds settings for the question bank stage.
type BankConfig struct {
	// BankDir is the base directory for the bank (contains parsed/, index/).
	BankDir string `json:"bank_dir" yaml:"bank_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// LoadTestConfig holds settings for the load generation stage.
type LoadTestConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the backend REST API root (e.g. "https://api.example.dev").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey authenticates requests against the backend.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// ConcurrentUsers bounds how many simulated users run at once (default 50).
	ConcurrentUsers int `json:"concurrent_users" yaml:"concurrent_users"`

	// NumUsers limits how many users from the seed file participate.
	// Zero means all of them.
	NumUsers int `json:"num_users" yaml:"num_users"`

	// MaxSubmissions caps the total successful submissions across the run.
	// Zero means unlimited.
	MaxSubmissions int `json:"max_submissions" yaml:"max_submissions"`

	// ThinkTimeMin and ThinkTimeMax bound the simulated reading pause
	// before starting a quiz and between quizzes.
	ThinkTimeMin time.Duration `json:"think_time_min" yaml:"think_time_min"`
	ThinkTimeMax time.Duration `json:"think_time_max" yaml:"think_time_max"`

	// AnswerTimeMin and AnswerTimeMax bound the simulated pause per question.
	AnswerTimeMin time.Duration `json:"answer_time_min" yaml:"answer_time_min"`
	AnswerTimeMax time.Duration `json:"answer_time_max" yaml:"answer_time_max"`

	// Seed fixes the per-user random sources for reproducible runs.
	// Zero means seed from the current time.
	Seed int64 `json:"seed" yaml:"seed"`
}
