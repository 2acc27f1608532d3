package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	d := Defaults()

	assert.Empty(t, d.APIKey)
	assert.False(t, d.HasAPIKey())
	assert.Equal(t, 1000, d.MaxTokens)
	assert.Equal(t, "low", d.Verbosity)
	assert.Equal(t, "minimal", d.Reasoning)
	assert.Equal(t, DefaultSystemPrompt, d.SystemPrompt)
}

func TestHasAPIKey(t *testing.T) {
	assert.True(t, Settings{APIKey: "sk-test"}.HasAPIKey())
	assert.False(t, Settings{APIKey: "   "}.HasAPIKey())
}

func TestValidateMaxTokens(t *testing.T) {
	for _, n := range []int{1, 2, 200, 1000, 3999, 4000} {
		assert.NoError(t, ValidateMaxTokens(n), n)
	}
	for _, n := range []int{-1, 0, 4001, 1 << 20} {
		err := ValidateMaxTokens(n)
		require.ErrorIs(t, err, ErrInvalid, n)
		assert.Contains(t, err.Error(), "between 1 and 4000")
	}
}

func TestValidateVerbosity(t *testing.T) {
	for _, v := range VerbosityLevels {
		assert.NoError(t, ValidateVerbosity(v))
	}
	for _, v := range []string{"", "LOW", "minimal", " low", "extreme"} {
		assert.ErrorIs(t, ValidateVerbosity(v), ErrInvalid, v)
	}
}

func TestValidateReasoning(t *testing.T) {
	for _, r := range ReasoningLevels {
		assert.NoError(t, ValidateReasoning(r))
	}
	for _, r := range []string{"", "none", "High", "max"} {
		assert.ErrorIs(t, ValidateReasoning(r), ErrInvalid, r)
	}
}

func TestValidateBlankStrings(t *testing.T) {
	assert.ErrorIs(t, ValidateAPIKey(""), ErrInvalid)
	assert.ErrorIs(t, ValidateAPIKey(" \t "), ErrInvalid)
	assert.NoError(t, ValidateAPIKey("sk-test"))

	assert.ErrorIs(t, ValidateSystemPrompt("\n"), ErrInvalid)
	assert.NoError(t, ValidateSystemPrompt("Talk like a villager."))
}

func TestSanitize(t *testing.T) {
	in := Settings{APIKey: "k", MaxTokens: 9000, Verbosity: "loud", Reasoning: "high", SystemPrompt: " "}

	out, reset := in.sanitize()

	assert.Equal(t, "k", out.APIKey)
	assert.Equal(t, DefaultMaxTokens, out.MaxTokens)
	assert.Equal(t, DefaultVerbosity, out.Verbosity)
	assert.Equal(t, "high", out.Reasoning)
	assert.Equal(t, DefaultSystemPrompt, out.SystemPrompt)
	assert.Equal(t, []string{"maxTokens", "verbosity", "systemPrompt"}, reset)
}

func TestValidationError(t *testing.T) {
	err := ValidateVerbosity("loud")

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "verbosity", ve.Field)
	assert.Equal(t, "verbosity must be 'low', 'medium', or 'high'", err.Error())
}
