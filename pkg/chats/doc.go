// Package chats provides a provider-agnostic data model for the questions
// MineClanker sends to a language model.
//
// It is organized into sub-packages:
//   - [github.com/ftkevon/mineclanker/pkg/chats/role] - conversation roles (system, user, assistant)
//   - [github.com/ftkevon/mineclanker/pkg/chats/message] - a role, sender and text body
//   - [github.com/ftkevon/mineclanker/pkg/chats/chat] - ordered conversation container
//
// No provider or API code is included.
package chats
