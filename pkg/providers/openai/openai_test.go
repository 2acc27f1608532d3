package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ftkevon/mineclanker/pkg/chats/chat"
	"github.com/ftkevon/mineclanker/pkg/chats/message"
	"github.com/ftkevon/mineclanker/pkg/chats/role"
	"github.com/ftkevon/mineclanker/pkg/modeladapter"
	"github.com/ftkevon/mineclanker/pkg/modeladapter/usage"
	"github.com/ftkevon/mineclanker/pkg/providers/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *openai.Adapter) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a := openai.New(srv.URL, "test-key", "gpt-5-nano")

	return srv, a
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func readBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("failed to unmarshal body: %v", err)
	}

	return req
}

func question() *chat.Chat {
	return chat.New(
		message.NewText(role.System, "Answer Minecraft questions."),
		message.NewText(role.User, "What does a composter make?"),
	)
}

func TestComplete_SimpleText(t *testing.T) {
	_, adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		req := readBody(t, r)

		assert.Equal(t, "gpt-5-nano", req["model"])
		assert.InDelta(t, 321, req["max_completion_tokens"], 0)
		assert.Equal(t, "medium", req["verbosity"])
		assert.Equal(t, "minimal", req["reasoning_effort"])

		msgs, ok := req["messages"].([]any)
		require.True(t, ok)
		require.Len(t, msgs, 2)

		first, _ := msgs[0].(map[string]any)
		assert.Equal(t, "system", first["role"])
		assert.Equal(t, "Answer Minecraft questions.", first["content"])

		second, _ := msgs[1].(map[string]any)
		assert.Equal(t, "user", second["role"])

		writeJSON(t, w, map[string]any{
			"choices": []map[string]any{
				{
					"message":       map[string]any{"role": "assistant", "content": "Bone meal."},
					"finish_reason": "stop",
				},
				{
					"message":       map[string]any{"role": "assistant", "content": "ignored"},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 3},
		})
	})

	msg, err := adapter.Complete(context.Background(), question(), modeladapter.Params{
		MaxTokens:       321,
		Verbosity:       "medium",
		ReasoningEffort: "minimal",
	})
	require.NoError(t, err)

	assert.Equal(t, role.Assistant, msg.Role)
	assert.Equal(t, "Bone meal.", msg.TextContent())

	assert.Equal(t, usage.TokenCount{InputTokens: 12, OutputTokens: 3}, adapter.Usage.Total())
	assert.Equal(t, 1, adapter.Usage.Count())
}

func TestComplete_OmitsZeroParams(t *testing.T) {
	_, adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)

		assert.NotContains(t, req, "max_completion_tokens")
		assert.NotContains(t, req, "verbosity")
		assert.NotContains(t, req, "reasoning_effort")

		writeJSON(t, w, map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": "ok"}}},
		})
	})

	_, err := adapter.Complete(context.Background(), question(), modeladapter.Params{})
	require.NoError(t, err)
}

func TestComplete_NullContent(t *testing.T) {
	_, adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": nil}}},
		})
	})

	msg, err := adapter.Complete(context.Background(), question(), modeladapter.Params{})
	require.NoError(t, err)
	assert.True(t, msg.IsBlank())
}

func TestComplete_Refusal(t *testing.T) {
	_, adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"choices": []map[string]any{{"message": map[string]any{
				"role":    "assistant",
				"content": nil,
				"refusal": "I can't help with that.",
			}}},
		})
	})

	msg, err := adapter.Complete(context.Background(), question(), modeladapter.Params{})
	require.NoError(t, err)
	assert.Equal(t, "I can't help with that.", msg.TextContent())
}

func TestComplete_RefusalWithBlankContent(t *testing.T) {
	for name, content := range map[string]any{"empty": "", "whitespace": "  \n"} {
		t.Run(name, func(t *testing.T) {
			_, adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(t, w, map[string]any{
					"choices": []map[string]any{{"message": map[string]any{
						"role":    "assistant",
						"content": content,
						"refusal": "I can't help with that.",
					}}},
				})
			})

			msg, err := adapter.Complete(context.Background(), question(), modeladapter.Params{})
			require.NoError(t, err)
			assert.Equal(t, "I can't help with that.", msg.TextContent())
		})
	}
}

func TestComplete_ContentWinsOverRefusal(t *testing.T) {
	_, adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"choices": []map[string]any{{"message": map[string]any{
				"role":    "assistant",
				"content": "Use shears.",
				"refusal": "no",
			}}},
		})
	})

	msg, err := adapter.Complete(context.Background(), question(), modeladapter.Params{})
	require.NoError(t, err)
	assert.Equal(t, "Use shears.", msg.TextContent())
}

func TestComplete_UnknownRoleNotSent(t *testing.T) {
	_, adapter := newTestServer(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("request must not be sent")
	})

	c := chat.New(message.NewText(role.Role("tool"), "{}"))

	_, err := adapter.Complete(context.Background(), c, modeladapter.Params{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown role "tool"`)
	assert.Equal(t, 0, adapter.Usage.Count())
}

func TestComplete_EmptyChoices(t *testing.T) {
	_, adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"choices": []any{}})
	})

	_, err := adapter.Complete(context.Background(), question(), modeladapter.Params{})
	require.ErrorIs(t, err, openai.ErrNoChoices)
}

func TestComplete_HTTPError(t *testing.T) {
	_, adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	})

	_, err := adapter.Complete(context.Background(), question(), modeladapter.Params{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai:")
	assert.Contains(t, err.Error(), "401")

	var se *modeladapter.StatusError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Unauthorized())
}

func TestComplete_MalformedBody(t *testing.T) {
	_, adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": "nope"`))
	})

	_, err := adapter.Complete(context.Background(), question(), modeladapter.Params{})
	assert.ErrorContains(t, err, "decode response")
}
