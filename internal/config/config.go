package config

import "time"

// Config represents the engine configuration.
type Config struct {
	Task     TaskConfig     `yaml:"task"`
	Diff     DiffConfig     `yaml:"diff"`
	Shell    ShellConfig    `yaml:"shell"`
	Search   SearchConfig   `yaml:"search"`
	Approval ApprovalConfig `yaml:"approval"`
	Provider ProviderConfig `yaml:"provider"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TaskConfig holds per-task limits and timings.
type TaskConfig struct {
	// MistakeCeiling is the consecutive-mistake count that fails the task.
	MistakeCeiling int `yaml:"mistake_ceiling"`

	// ModeSettleDelay is how long to wait after a mode switch before the
	// next tool is dispatched, so the switch can take effect.
	ModeSettleDelay time.Duration `yaml:"mode_settle_delay"`

	// MaxTurns bounds the conversation loop.
	MaxTurns int `yaml:"max_turns"`
}

// DiffConfig controls diff-based editing.
type DiffConfig struct {
	// Enabled turns the diff tools on. When false no strategy is
	// instantiated and apply_diff dispatches fail.
	Enabled bool `yaml:"enabled"`

	// SimilarityThreshold is the minimum normalized similarity the fuzzy
	// match tier accepts (0..1).
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// ShellConfig controls command execution.
type ShellConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	MaxOutput int           `yaml:"max_output"`
}

// SearchConfig controls workspace search.
type SearchConfig struct {
	MaxResults  int   `yaml:"max_results"`
	MaxFileSize int64 `yaml:"max_file_size"`
}

// ApprovalConfig controls the approval gate.
type ApprovalConfig struct {
	// Enabled turns the gate on. When false every action auto-approves.
	Enabled bool `yaml:"enabled"`

	// Rules maps a tool name to "allow", "ask" or "deny".
	Rules map[string]string `yaml:"rules,omitempty"`
}

// ProviderConfig selects the model provider.
type ProviderConfig struct {
	// Backend is the provider name. Only "ollama" ships in-tree.
	Backend string `yaml:"backend"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`
	// APIKey is sent as a bearer token, for remote servers behind auth.
	APIKey string `yaml:"api_key,omitempty"`
}

// LoggingConfig controls the log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// Dir is where the log file is written. Empty disables file logging.
	Dir string `yaml:"dir,omitempty"`
}
