package message

import (
	"testing"

	"github.com/ftkevon/mineclanker/pkg/chats/role"

	"github.com/stretchr/testify/assert"
)

func TestNewText(t *testing.T) {
	msg := NewText(role.User, "how do I tame a fox?")

	assert.Equal(t, role.User, msg.Role)
	assert.Equal(t, "how do I tame a fox?", msg.TextContent())
}

func TestMessage_ZeroValue(t *testing.T) {
	var msg Message

	assert.Empty(t, msg.Role)
	assert.Empty(t, msg.TextContent())
	assert.True(t, msg.IsBlank())
}

func TestMessage_IsBlank(t *testing.T) {
	assert.True(t, NewText(role.Assistant, " \n\t").IsBlank())
	assert.False(t, NewText(role.Assistant, " ok ").IsBlank())
}
