// Package openai provides a Completer implementation for the OpenAI Chat Completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ftkevon/mineclanker/pkg/chats/chat"
	"github.com/ftkevon/mineclanker/pkg/chats/message"
	"github.com/ftkevon/mineclanker/pkg/chats/role"
	"github.com/ftkevon/mineclanker/pkg/modeladapter"
	"github.com/ftkevon/mineclanker/pkg/modeladapter/usage"
)

const completionsPath = "/v1/chat/completions"

// DefaultBaseURL is the public OpenAI endpoint.
const DefaultBaseURL = "https://api.openai.com"

// DefaultModel is the chat model MineClanker asks by default.
const DefaultModel = "gpt-5-nano"

// ErrNoChoices is returned when the API answers without any candidate.
var ErrNoChoices = errors.New("openai: empty choices in response")

var _ modeladapter.Completer = (*Adapter)(nil)

// Adapter implements modeladapter.Completer for the OpenAI Chat Completions API.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter configured for the OpenAI API.
// The baseURL should be "https://api.openai.com" (no trailing slash).
// Usage starts as a private tracker; callers may replace it with a shared one.
func New(baseURL, apiKey, model string) *Adapter {
	a := &Adapter{ModelAdapter: modeladapter.New(baseURL, modeladapter.Auth{Key: apiKey}, nil)}
	a.Name = model
	a.Usage = &usage.Tracker{}
	a.HeaderParser = modeladapter.ParseOpenAIRateLimitHeaders

	return a
}

// Complete sends a conversation to the OpenAI Chat Completions API and returns
// the first choice as the assistant's reply.
func (a *Adapter) Complete(ctx context.Context, c *chat.Chat, p modeladapter.Params) (message.Message, error) {
	req, err := a.buildRequest(c, p)
	if err != nil {
		return message.Message{}, err
	}

	var resp apiResponse
	if err := a.PostJSON(ctx, completionsPath, req, &resp); err != nil {
		return message.Message{}, fmt.Errorf("openai: %w", err)
	}

	a.Usage.Add(usage.TokenCount{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	})

	if len(resp.Choices) == 0 {
		return message.Message{}, ErrNoChoices
	}

	return a.parseChoice(resp.Choices[0]), nil
}

// --- request types ---

type apiRequest struct {
	Model               string       `json:"model"`
	Messages            []apiMessage `json:"messages"`
	MaxCompletionTokens int          `json:"max_completion_tokens,omitempty"`
	Verbosity           string       `json:"verbosity,omitempty"`
	ReasoningEffort     string       `json:"reasoning_effort,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// --- response types ---

type apiResponse struct {
	Choices []apiChoice `json:"choices"`
	Usage   apiUsage    `json:"usage"`
}

type apiChoice struct {
	Message      apiRespMessage `json:"message"`
	FinishReason string         `json:"finish_reason"`
}

type apiRespMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
	Refusal *string `json:"refusal"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// --- conversion helpers ---

func (a *Adapter) buildRequest(c *chat.Chat, p modeladapter.Params) (apiRequest, error) {
	req := apiRequest{
		Model:               a.Name,
		MaxCompletionTokens: p.MaxTokens,
		Verbosity:           p.Verbosity,
		ReasoningEffort:     p.ReasoningEffort,
	}

	for i, m := range c.Messages() {
		if !m.Role.Valid() {
			return apiRequest{}, fmt.Errorf("openai: message %d: unknown role %q", i, m.Role)
		}
		req.Messages = append(req.Messages, apiMessage{
			Role:    m.Role.String(),
			Content: m.TextContent(),
		})
	}

	return req, nil
}

// parseChoice keeps the content text, or the refusal text when the content
// is missing or blank.
func (a *Adapter) parseChoice(choice apiChoice) message.Message {
	var text string
	if choice.Message.Content != nil {
		text = *choice.Message.Content
	}
	if strings.TrimSpace(text) == "" && choice.Message.Refusal != nil {
		text = *choice.Message.Refusal
	}

	return message.NewText(role.Assistant, text)
}
