package config

import "time"

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Task: TaskConfig{
			MistakeCeiling:  3,
			ModeSettleDelay: 500 * time.Millisecond,
			MaxTurns:        50,
		},
		Diff: DiffConfig{
			Enabled:             true,
			SimilarityThreshold: 0.9,
		},
		Shell: ShellConfig{
			Timeout:   2 * time.Minute,
			MaxOutput: 256 * 1024,
		},
		Search: SearchConfig{
			MaxResults:  50,
			MaxFileSize: 1 << 20,
		},
		Approval: ApprovalConfig{
			Enabled: true,
		},
		Provider: ProviderConfig{
			Backend: "ollama",
			Model:   "qwen2.5-coder",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
