package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ftkevon/mineclanker/pkg/commands"
)

func TestRenderReply(t *testing.T) {
	tests := []commands.Reply{
		{Level: commands.LevelInfo, Text: "Max Tokens: 1000"},
		{Level: commands.LevelSuccess, Text: "✅ API key set successfully!"},
		{Level: commands.LevelError, Text: "❌ Error: boom"},
		{Level: commands.LevelPending, Text: "🤖 Thinking..."},
	}

	for _, r := range tests {
		assert.Contains(t, RenderReply(r), r.Text)
	}

	answer := RenderReply(commands.Reply{Level: commands.LevelAnswer, Text: "🤖 Diamonds spawn deep."})
	assert.Contains(t, answer, "Diamonds")
	assert.NotContains(t, answer, "🤖")
}

func TestRenderMarkdown_KeepsText(t *testing.T) {
	out := RenderMarkdown("Mine at **y=-58** for diamonds.")

	assert.Contains(t, out, "y=-58")
	assert.Contains(t, out, "diamonds")
}
