package approval

import "sync"

// Rules maps tool names to approval levels.
type Rules struct {
	mu       sync.RWMutex
	policies map[string]Level
	fallback Level
}

// DefaultRules asks for every mutating tool and allows read-only ones.
func DefaultRules() *Rules {
	return &Rules{
		policies: map[string]Level{
			"read_file":         LevelAllow,
			"codebase_search":   LevelAllow,
			"apply_diff":        LevelAsk,
			"insert_code_block": LevelAsk,
			"execute_command":   LevelAsk,
			"switch_mode":       LevelAsk,
		},
		fallback: LevelAsk,
	}
}

// RulesFromConfig builds rules from a tool→level string map, keeping the
// defaults for tools the map does not name.
func RulesFromConfig(levels map[string]string) *Rules {
	r := DefaultRules()
	for tool, level := range levels {
		switch Level(level) {
		case LevelAllow, LevelAsk, LevelDeny:
			r.policies[tool] = Level(level)
		}
	}
	return r
}

// PolicyFor returns the configured level for a tool.
func (r *Rules) PolicyFor(tool string) Level {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if level, ok := r.policies[tool]; ok {
		return level
	}
	return r.fallback
}

// Set overrides the level for one tool.
func (r *Rules) Set(tool string, level Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[tool] = level
}
