// Package settings persists MineClanker's runtime configuration: the API key,
// the response token cap, the verbosity and reasoning hints, and the system
// prompt. Settings live in a single pretty-printed JSON file. Every disk
// operation is fail-open: errors are logged and never returned, so a broken
// filesystem cannot take command handling down with it.
package settings

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultPath is where the settings file lives, relative to the server's
// working directory.
const DefaultPath = "config/mineclanker_config.json"

const (
	MinMaxTokens     = 1
	MaxMaxTokens     = 4000
	DefaultMaxTokens = 1000
	DefaultVerbosity = "low"
	DefaultReasoning = "minimal"

	DefaultSystemPrompt = "Answer questions about up to date Minecraft gameplay and mechanics " +
		"concisely and accurately. Keep your responses brief and focused."
)

// VerbosityLevels and ReasoningLevels are the accepted enumeration values,
// in display order.
var (
	VerbosityLevels = []string{"low", "medium", "high"}
	ReasoningLevels = []string{"minimal", "low", "medium", "high"}
)

// ErrInvalid matches every *ValidationError via errors.Is.
var ErrInvalid = errors.New("invalid setting")

// ValidationError reports a value outside a field's domain.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Is reports whether target is ErrInvalid.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

// Settings is the persisted configuration. The JSON field names are part of
// the on-disk format.
type Settings struct {
	APIKey       string `json:"apiKey"` //nolint:gosec // configuration field, not a hardcoded secret
	MaxTokens    int    `json:"maxTokens"`
	Verbosity    string `json:"verbosity"`
	Reasoning    string `json:"reasoning"`
	SystemPrompt string `json:"systemPrompt"`
}

// Defaults returns the configuration used when nothing has been persisted.
func Defaults() Settings {
	return Settings{
		MaxTokens:    DefaultMaxTokens,
		Verbosity:    DefaultVerbosity,
		Reasoning:    DefaultReasoning,
		SystemPrompt: DefaultSystemPrompt,
	}
}

// HasAPIKey reports whether a non-blank key is configured.
func (s Settings) HasAPIKey() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

// ValidateAPIKey rejects blank keys.
func ValidateAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return &ValidationError{Field: "apiKey", Reason: "API key cannot be null or empty"}
	}
	return nil
}

// ValidateMaxTokens rejects caps outside [MinMaxTokens, MaxMaxTokens].
func ValidateMaxTokens(n int) error {
	if n < MinMaxTokens || n > MaxMaxTokens {
		return &ValidationError{
			Field:  "maxTokens",
			Reason: fmt.Sprintf("max tokens must be between %d and %d", MinMaxTokens, MaxMaxTokens),
		}
	}
	return nil
}

// ValidateVerbosity accepts only the values in VerbosityLevels.
func ValidateVerbosity(v string) error {
	if !slices.Contains(VerbosityLevels, v) {
		return &ValidationError{Field: "verbosity", Reason: "verbosity must be 'low', 'medium', or 'high'"}
	}
	return nil
}

// ValidateReasoning accepts only the values in ReasoningLevels.
func ValidateReasoning(r string) error {
	if !slices.Contains(ReasoningLevels, r) {
		return &ValidationError{Field: "reasoning", Reason: "reasoning must be 'minimal', 'low', 'medium', or 'high'"}
	}
	return nil
}

// ValidateSystemPrompt rejects blank prompts.
func ValidateSystemPrompt(p string) error {
	if strings.TrimSpace(p) == "" {
		return &ValidationError{Field: "systemPrompt", Reason: "system prompt cannot be null or empty"}
	}
	return nil
}

// sanitize replaces out-of-domain values read from disk with their defaults
// and returns the names of the fields it reset.
func (s Settings) sanitize() (Settings, []string) {
	def := Defaults()

	var reset []string
	if ValidateMaxTokens(s.MaxTokens) != nil {
		s.MaxTokens = def.MaxTokens
		reset = append(reset, "maxTokens")
	}
	if ValidateVerbosity(s.Verbosity) != nil {
		s.Verbosity = def.Verbosity
		reset = append(reset, "verbosity")
	}
	if ValidateReasoning(s.Reasoning) != nil {
		s.Reasoning = def.Reasoning
		reset = append(reset, "reasoning")
	}
	if ValidateSystemPrompt(s.SystemPrompt) != nil {
		s.SystemPrompt = def.SystemPrompt
		reset = append(reset, "systemPrompt")
	}

	return s, reset
}
