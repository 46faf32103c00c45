package analyzer

import (
	"errors"
	"os"
)

// ErrCredentialMissing means no API key was available from either the
// environment or an explicit override. Checked before any network call.
var ErrCredentialMissing = errors.New("no API key available: set ANTHROPIC_API_KEY or pass --api-key")

type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int64
	// Concurrency bounds the pass-1 worker pool. 1 means sequential.
	Concurrency int
	// Pass1Template overrides the built-in per-chunk prompt when non-empty.
	// It may use the {target_services} and {log_text} placeholders.
	Pass1Template string
}

func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:      apiKey,
		Model:       "claude-opus-4-6",
		Temperature: 0.3,
		MaxTokens:   2048,
		Concurrency: 1,
	}
}

// ResolveAPIKey picks the credential for this run: an explicit override wins,
// otherwise the ANTHROPIC_API_KEY environment variable. Called once at
// startup so components never read ambient environment state.
func ResolveAPIKey(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key, nil
	}
	return "", ErrCredentialMissing
}
