// Package llmservice is the heart of MineClanker. A Service owns the live
// settings, keeps them in lockstep with the settings file, lazily builds the
// completion client for the configured API key, and turns a player's
// question into a single chat-completion call.
//
// All configuration access goes through one mutex, so concurrent commands
// cannot lose updates or observe a half-written file. Ask holds the mutex
// only while it snapshots the settings and client; the network call runs
// unlocked.
package llmservice

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ftkevon/mineclanker/pkg/chats/chat"
	"github.com/ftkevon/mineclanker/pkg/chats/message"
	"github.com/ftkevon/mineclanker/pkg/chats/role"
	"github.com/ftkevon/mineclanker/pkg/modeladapter"
	"github.com/ftkevon/mineclanker/pkg/modeladapter/usage"
	"github.com/ftkevon/mineclanker/pkg/providers/openai"
	"github.com/ftkevon/mineclanker/pkg/settings"
)

// FallbackAnswer is returned when the model answers with blank text.
const FallbackAnswer = "Error with response"

// CompleterFactory builds a completion client bound to apiKey.
type CompleterFactory func(apiKey string) modeladapter.Completer

// Options configures a Service. Zero fields take defaults.
type Options struct {
	BaseURL    string        // API base URL (default openai.DefaultBaseURL).
	Model      string        // Chat model (default openai.DefaultModel).
	Timeout    time.Duration // Per-request timeout (default modeladapter.DefaultTimeout).
	HTTPClient *http.Client  // Overrides Timeout when set.
	Logger     *slog.Logger  // Default slog.Default().

	// NewCompleter replaces the OpenAI client, mostly for tests.
	NewCompleter CompleterFactory
}

// Service is safe for concurrent use.
type Service struct {
	mu      sync.Mutex
	store   *settings.Store
	cfg     settings.Settings
	client  modeladapter.Completer
	factory CompleterFactory
	model   string
	log     *slog.Logger

	// usage is shared by every client the default factory builds, so asks
	// still in flight across a key change are counted.
	usage usage.Tracker
}

// New loads the persisted settings from store and, when a key is present,
// builds the completion client.
func New(store *settings.Store, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = openai.DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = openai.DefaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = modeladapter.DefaultTimeout
	}

	s := &Service{
		store:   store,
		cfg:     store.Load(),
		factory: opts.NewCompleter,
		model:   opts.Model,
		log:     opts.Logger.With("component", "llmservice"),
	}
	if s.factory == nil {
		s.factory = openAIFactory(opts, &s.usage)
	}

	if s.cfg.HasAPIKey() {
		s.client = s.factory(s.cfg.APIKey)
	}

	return s
}

func openAIFactory(opts Options, tracker *usage.Tracker) CompleterFactory {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return func(apiKey string) modeladapter.Completer {
		a := openai.New(opts.BaseURL, apiKey, opts.Model)
		a.Client = client
		a.Usage = tracker
		return a
	}
}

// Ask sends question to the model with the current system prompt and
// request shaping, and returns the first choice's text. It fails with
// ErrNotConfigured, without any network I/O, when no key is set. Any API
// failure comes back as *UpstreamError. A blank answer yields FallbackAnswer.
func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", invalidArgument(errors.New("question cannot be empty"))
	}

	s.mu.Lock()
	if !s.cfg.HasAPIKey() {
		s.mu.Unlock()
		return "", ErrNotConfigured
	}
	if s.client == nil {
		s.client = s.factory(s.cfg.APIKey)
	}
	client, cfg := s.client, s.cfg
	s.mu.Unlock()

	c := chat.New(
		message.NewText(role.System, cfg.SystemPrompt),
		message.NewText(role.User, question),
	)
	params := modeladapter.Params{
		MaxTokens:       cfg.MaxTokens,
		Verbosity:       cfg.Verbosity,
		ReasoningEffort: cfg.Reasoning,
	}

	start := time.Now()
	reply, err := client.Complete(ctx, c, params)
	if err != nil {
		s.log.Warn("completion failed", "model", s.model, "elapsed", time.Since(start), "error", err)
		var se *modeladapter.StatusError
		if errors.As(err, &se) && se.Unauthorized() {
			s.log.Warn("API key rejected by upstream, set a new one with /setapikey")
		}
		return "", &UpstreamError{Err: err}
	}

	if r, ok := client.(modeladapter.RateLimitInfoReporter); ok {
		if info := r.LastRateLimitInfo(); info != nil {
			s.log.Debug("rate limit", "remaining_requests", info.RemainingRequests, "remaining_tokens", info.RemainingTokens)
		}
	}

	if reply.IsBlank() {
		s.log.Warn("completion returned blank text", "model", s.model)
		return FallbackAnswer, nil
	}

	s.log.Debug("completion ok", "model", s.model, "elapsed", time.Since(start), "chars", len(reply.Text))

	return reply.TextContent(), nil
}

// SetAPIKey stores the trimmed key, persists the settings and rebuilds the
// client.
func (s *Service) SetAPIKey(key string) error {
	if err := settings.ValidateAPIKey(key); err != nil {
		return invalidArgument(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg.APIKey = strings.TrimSpace(key)
	s.store.Save(s.cfg)
	s.client = s.factory(s.cfg.APIKey)
	s.log.Info("api key updated")

	return nil
}

// RemoveAPIKey forgets the key and the client and deletes the settings file.
// The other settings stay in memory until the process restarts.
func (s *Service) RemoveAPIKey() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg.APIKey = ""
	s.client = nil
	s.store.Clear()
	s.log.Info("api key removed")
}

// HasAPIKey reports whether a non-blank key is configured.
func (s *Service) HasAPIKey() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cfg.HasAPIKey()
}

// SetMaxTokens sets the response token cap, 1 to 4000 inclusive.
func (s *Service) SetMaxTokens(n int) error {
	if err := settings.ValidateMaxTokens(n); err != nil {
		return invalidArgument(err)
	}

	s.update(func(cfg *settings.Settings) { cfg.MaxTokens = n })

	return nil
}

// MaxTokens returns the response token cap.
func (s *Service) MaxTokens() int {
	return s.Settings().MaxTokens
}

// SetVerbosity sets the verbosity hint: low, medium or high.
func (s *Service) SetVerbosity(v string) error {
	if err := settings.ValidateVerbosity(v); err != nil {
		return invalidArgument(err)
	}

	s.update(func(cfg *settings.Settings) { cfg.Verbosity = v })

	return nil
}

// Verbosity returns the verbosity hint.
func (s *Service) Verbosity() string {
	return s.Settings().Verbosity
}

// SetReasoning sets the reasoning effort hint: minimal, low, medium or high.
func (s *Service) SetReasoning(r string) error {
	if err := settings.ValidateReasoning(r); err != nil {
		return invalidArgument(err)
	}

	s.update(func(cfg *settings.Settings) { cfg.Reasoning = r })

	return nil
}

// Reasoning returns the reasoning effort hint.
func (s *Service) Reasoning() string {
	return s.Settings().Reasoning
}

// SetSystemPrompt stores the trimmed prompt.
func (s *Service) SetSystemPrompt(p string) error {
	if err := settings.ValidateSystemPrompt(p); err != nil {
		return invalidArgument(err)
	}

	p = strings.TrimSpace(p)
	s.update(func(cfg *settings.Settings) { cfg.SystemPrompt = p })

	return nil
}

// SystemPrompt returns the system prompt.
func (s *Service) SystemPrompt() string {
	return s.Settings().SystemPrompt
}

// Settings returns a snapshot of the live settings.
func (s *Service) Settings() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cfg
}

// Model returns the chat model identifier requests are sent to.
func (s *Service) Model() string { return s.model }

// Usage returns the tokens reported by the API since the service started.
// Clients from a custom NewCompleter factory are not counted.
func (s *Service) Usage() usage.TokenCount { return s.usage.Total() }

// Completions returns the number of successful completions since the
// service started.
func (s *Service) Completions() int { return s.usage.Count() }

// update applies fn and persists the result. Callers validate first.
func (s *Service) update(fn func(*settings.Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.cfg)
	s.store.Save(s.cfg)
}
