// Package message defines a single chat message.
package message

import (
	"strings"

	"github.com/ftkevon/mineclanker/pkg/chats/role"
)

// Message is one turn of a conversation. The zero value is an empty message
// with no role.
type Message struct {
	Role role.Role
	Text string
}

// NewText creates a message carrying a single text body.
func NewText(r role.Role, text string) Message {
	return Message{Role: r, Text: text}
}

// TextContent returns the message text.
func (m Message) TextContent() string {
	return m.Text
}

// IsBlank reports whether the message text is empty or whitespace only.
func (m Message) IsBlank() bool {
	return strings.TrimSpace(m.Text) == ""
}
