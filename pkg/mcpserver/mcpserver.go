// Package mcpserver exposes the orchestrator to MCP clients (editors,
// desktop assistants) over stdio using the official MCP Go SDK.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ftkevon/mineclanker/pkg/settings"
)

// Service is the subset of *llmservice.Service the tools call.
type Service interface {
	Ask(ctx context.Context, question string) (string, error)
	Settings() settings.Settings
	Model() string
}

// handler executes a tool with its JSON arguments and returns text.
type handler func(ctx context.Context, input json.RawMessage) (string, error)

type tool struct {
	name        string
	description string
	schema      json.RawMessage
	handler     handler
}

// MCPServer serves the ask and config tools.
type MCPServer struct {
	server *mcp.Server
}

// New creates an MCPServer backed by svc.
func New(svc Service, version string) *MCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "mineclanker",
		Version: version,
	}, nil)

	for _, t := range tools(svc) {
		server.AddTool(&mcp.Tool{
			Name:        t.name,
			Description: t.description,
			InputSchema: t.schema,
		}, toSDKHandler(t.handler))
	}

	return &MCPServer{server: server}
}

// Serve reads requests from in and writes responses to out. It blocks until
// ctx is cancelled or the transport closes.
func (s *MCPServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}

	return s.run(ctx, transport)
}

func (s *MCPServer) run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

func tools(svc Service) []tool {
	return []tool{
		{
			name:        "ask",
			description: "Ask the Minecraft assistant a question. Uses the configured model, system prompt and token limit.",
			schema: json.RawMessage(`{
				"type": "object",
				"properties": {"question": {"type": "string", "description": "The question to ask"}},
				"required": ["question"]
			}`),
			handler: func(ctx context.Context, input json.RawMessage) (string, error) {
				var args struct {
					Question string `json:"question"`
				}
				if err := json.Unmarshal(input, &args); err != nil {
					return "", fmt.Errorf("invalid arguments: %w", err)
				}
				if strings.TrimSpace(args.Question) == "" {
					return "", errors.New("question is required")
				}

				return svc.Ask(ctx, args.Question)
			},
		},
		{
			name:        "config",
			description: "Show the current assistant settings. The API key itself is never returned.",
			schema:      json.RawMessage(`{"type":"object"}`),
			handler: func(context.Context, json.RawMessage) (string, error) {
				cfg := svc.Settings()
				view := struct {
					APIKeySet    bool   `json:"apiKeySet"`
					Model        string `json:"model"`
					MaxTokens    int    `json:"maxTokens"`
					Verbosity    string `json:"verbosity"`
					Reasoning    string `json:"reasoning"`
					SystemPrompt string `json:"systemPrompt"`
				}{cfg.HasAPIKey(), svc.Model(), cfg.MaxTokens, cfg.Verbosity, cfg.Reasoning, cfg.SystemPrompt}

				data, err := json.MarshalIndent(view, "", "  ")
				if err != nil {
					return "", err
				}
				return string(data), nil
			},
		},
	}
}

// toSDKHandler wraps a handler as an SDK ToolHandler. Handler errors become
// tool results flagged IsError so the client model can read them.
func toSDKHandler(h handler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.Params.Arguments
		if args == nil {
			args = json.RawMessage("{}")
		}
		result, err := h(ctx, args)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
				IsError: true,
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result}},
		}, nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
