// Package commands is the chat command surface of MineClanker: it parses
// lines such as "/settokens 500" or "/ask how do I find ancient debris?",
// calls the matching llmservice operation, and renders the result as
// player-facing replies. Asks run on a worker pool and answer later through
// the same Sink.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/time/rate"

	"github.com/ftkevon/mineclanker/pkg/llmservice"
	"github.com/ftkevon/mineclanker/pkg/metrics"
	"github.com/ftkevon/mineclanker/pkg/modeladapter/usage"
	"github.com/ftkevon/mineclanker/pkg/settings"
	"github.com/ftkevon/mineclanker/pkg/worker"
)

// Service is the subset of *llmservice.Service the commands drive.
type Service interface {
	Ask(ctx context.Context, question string) (string, error)
	SetAPIKey(key string) error
	RemoveAPIKey()
	HasAPIKey() bool
	SetMaxTokens(n int) error
	SetVerbosity(v string) error
	SetReasoning(r string) error
	SetSystemPrompt(p string) error
	Settings() settings.Settings
	Model() string
	Usage() usage.TokenCount
	Completions() int
}

// Submitter queues a task; *worker.Pool implements it.
type Submitter interface {
	Submit(task worker.Task, done func(worker.Result)) (string, error)
}

const (
	defaultPromptWidth = 120
	limiterCacheSize   = 1024
)

// Options configures a Dispatcher. Zero fields take defaults.
type Options struct {
	// Pool runs asks. Nil runs them inline on the calling goroutine.
	Pool Submitter
	// Context bounds inline asks (default context.Background()).
	Context context.Context
	// AsksPerMinute limits each player's asks; zero disables the limit.
	AsksPerMinute float64
	// Burst is the number of asks a player may fire back to back (default 1).
	Burst int
	// PromptWidth caps the system prompt shown by "config", in terminal cells.
	PromptWidth int
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Dispatcher routes command lines to the service.
type Dispatcher struct {
	svc     Service
	opts    Options
	log     *slog.Logger
	limitMu sync.Mutex
	limits  *lru.Cache[string, *rate.Limiter]
	table   map[string]handler
}

type handler func(d *Dispatcher, player, args string, sink Sink)

// New creates a Dispatcher for svc.
func New(svc Service, opts Options) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.PromptWidth <= 0 {
		opts.PromptWidth = defaultPromptWidth
	}

	limits, _ := lru.New[string, *rate.Limiter](limiterCacheSize)

	return &Dispatcher{
		svc:    svc,
		opts:   opts,
		log:    opts.Logger.With("component", "commands"),
		limits: limits,
		table: map[string]handler{
			"ask":             (*Dispatcher).ask,
			"setapikey":       (*Dispatcher).setAPIKey,
			"removeapikey":    (*Dispatcher).removeAPIKey,
			"apikeystatus":    (*Dispatcher).apiKeyStatus,
			"settokens":       (*Dispatcher).setTokens,
			"setverbosity":    (*Dispatcher).setVerbosity,
			"setreasoning":    (*Dispatcher).setReasoning,
			"setsystemprompt": (*Dispatcher).setSystemPrompt,
			"config":          (*Dispatcher).config,
			"help":            (*Dispatcher).help,
		},
	}
}

// Handle parses line, runs the command for player, and sends its replies to
// sink. A leading slash is optional. With a Pool, Handle never waits on the
// network.
func (d *Dispatcher) Handle(player, line string, sink Sink) {
	name, args := split(line)
	if name == "" {
		return
	}

	h, ok := d.table[name]
	if !ok {
		sink.Send(Reply{LevelError, fmt.Sprintf("❌ Unknown command %q. Try /help.", name)})
		return
	}

	d.opts.Metrics.Command(name)
	d.log.Debug("command", "player", player, "command", name)
	h(d, player, args, sink)
}

// Commands returns the known command names.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(usages))
	for _, u := range usages {
		name, _ := split(u.usage)
		names = append(names, name)
	}
	return names
}

func split(line string) (name, args string) {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "/")

	name = line
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		name, args = line[:i], line[i:]
	}

	return strings.ToLower(name), strings.TrimSpace(args)
}

// argument returns args unquoted when it is a single quoted string.
func argument(args string) string {
	if len(args) >= 2 && args[0] == '"' {
		if s, err := strconv.Unquote(args); err == nil {
			return s
		}
	}
	return args
}

func showUsage(sink Sink, text string) {
	sink.Send(Reply{LevelError, "Usage: " + text})
}

// --- ask ---

func (d *Dispatcher) ask(player, args string, sink Sink) {
	if args == "" {
		showUsage(sink, "/ask <your question>")
		return
	}

	if !d.allow(player) {
		d.opts.Metrics.Ask(metrics.OutcomeThrottled, 0)
		sink.Send(Reply{LevelError, "❌ Slow down! You can ask again in a moment."})
		return
	}

	sink.Send(Reply{LevelPending, "🤖 Thinking..."})

	task := func(ctx context.Context) (string, error) {
		return d.svc.Ask(ctx, args)
	}
	done := func(res worker.Result) {
		d.opts.Metrics.Ask(outcome(res.Err), res.Elapsed)
		if res.Err != nil {
			d.log.Info("ask failed", "player", player, "error", res.Err)
			sink.Send(Reply{LevelError, "❌ Error: " + res.Err.Error()})
			return
		}
		sink.Send(Reply{LevelAnswer, "🤖 " + res.Value})
	}

	if d.opts.Pool == nil {
		start := time.Now()
		value, err := task(d.opts.Context)
		done(worker.Result{Value: value, Err: err, Elapsed: time.Since(start)})
		return
	}

	if _, err := d.opts.Pool.Submit(task, done); err != nil {
		d.opts.Metrics.Ask(metrics.OutcomeRejected, 0)
		if errors.Is(err, worker.ErrQueueFull) {
			sink.Send(Reply{LevelError, "❌ Too many questions in flight, try again shortly."})
			return
		}
		sink.Send(Reply{LevelError, "❌ Error: " + err.Error()})
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, llmservice.ErrNotConfigured):
		return metrics.OutcomeNotConfigured
	case errors.Is(err, llmservice.ErrInvalidArgument):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeUpstream
	}
}

func (d *Dispatcher) allow(player string) bool {
	if d.opts.AsksPerMinute <= 0 {
		return true
	}

	d.limitMu.Lock()
	defer d.limitMu.Unlock()

	lim, ok := d.limits.Get(player)
	if !ok {
		every := time.Duration(float64(time.Minute) / d.opts.AsksPerMinute)
		lim = rate.NewLimiter(rate.Every(every), d.opts.Burst)
		d.limits.Add(player, lim)
	}

	return lim.Allow()
}

// --- api key ---

func (d *Dispatcher) setAPIKey(_, args string, sink Sink) {
	if args == "" {
		showUsage(sink, "/setapikey <your-api-key>")
		return
	}

	if err := d.svc.SetAPIKey(argument(args)); err != nil {
		sink.Send(Reply{LevelError, "❌ Failed to set API key: " + err.Error()})
		return
	}
	sink.Send(Reply{LevelSuccess, "✅ API key set successfully!"})
}

func (d *Dispatcher) removeAPIKey(_, _ string, sink Sink) {
	d.svc.RemoveAPIKey()
	sink.Send(Reply{LevelSuccess, "✅ API key removed successfully!"})
}

func (d *Dispatcher) apiKeyStatus(_, _ string, sink Sink) {
	if d.svc.HasAPIKey() {
		sink.Send(Reply{LevelSuccess, "✅ API key is set and ready to use!"})
		return
	}
	sink.Send(Reply{LevelError, "❌ No API key set. Use /setapikey <key> to set one."})
}

// --- tunables ---

func (d *Dispatcher) setTokens(_, args string, sink Sink) {
	if args == "" {
		showUsage(sink, fmt.Sprintf("/settokens <%d-%d>", settings.MinMaxTokens, settings.MaxMaxTokens))
		return
	}

	n, err := strconv.Atoi(args)
	if err != nil {
		sink.Send(Reply{LevelError, fmt.Sprintf("❌ Failed to set max tokens: %q is not a whole number", args)})
		return
	}

	if err := d.svc.SetMaxTokens(n); err != nil {
		sink.Send(Reply{LevelError, "❌ Failed to set max tokens: " + err.Error()})
		return
	}
	sink.Send(Reply{LevelSuccess, fmt.Sprintf("✅ Max tokens set to %d!", n)})
}

func (d *Dispatcher) setVerbosity(_, args string, sink Sink) {
	if args == "" {
		showUsage(sink, "/setverbosity <"+strings.Join(settings.VerbosityLevels, "|")+">")
		return
	}

	if err := d.svc.SetVerbosity(args); err != nil {
		sink.Send(Reply{LevelError, "❌ Failed to set verbosity: " + err.Error()})
		return
	}
	sink.Send(Reply{LevelSuccess, "✅ Verbosity set to " + args + "!"})
}

func (d *Dispatcher) setReasoning(_, args string, sink Sink) {
	if args == "" {
		showUsage(sink, "/setreasoning <"+strings.Join(settings.ReasoningLevels, "|")+">")
		return
	}

	if err := d.svc.SetReasoning(args); err != nil {
		sink.Send(Reply{LevelError, "❌ Failed to set reasoning: " + err.Error()})
		return
	}
	sink.Send(Reply{LevelSuccess, "✅ Reasoning effort set to " + args + "!"})
}

func (d *Dispatcher) setSystemPrompt(_, args string, sink Sink) {
	if args == "" {
		showUsage(sink, "/setsystemprompt <your system prompt>")
		return
	}

	if err := d.svc.SetSystemPrompt(args); err != nil {
		sink.Send(Reply{LevelError, "❌ Failed to set system prompt: " + err.Error()})
		return
	}
	sink.Send(Reply{LevelSuccess, "✅ System prompt updated!"})
}

// --- info ---

func (d *Dispatcher) config(_, _ string, sink Sink) {
	cfg := d.svc.Settings()

	key := "❌ Not set"
	if cfg.HasAPIKey() {
		key = "✅ Set"
	}

	sink.Send(Reply{LevelInfo, "🔧 MineClanker Configuration:"})
	sink.Send(Reply{LevelInfo, "API Key: " + key})
	sink.Send(Reply{LevelInfo, "Model: " + d.svc.Model()})
	sink.Send(Reply{LevelInfo, "Max Tokens: " + strconv.Itoa(cfg.MaxTokens)})
	sink.Send(Reply{LevelInfo, "Verbosity: " + cfg.Verbosity})
	sink.Send(Reply{LevelInfo, "Reasoning: " + cfg.Reasoning})
	sink.Send(Reply{LevelInfo, fmt.Sprintf("Usage: %d completions, %d tokens", d.svc.Completions(), d.svc.Usage().Total())})
	sink.Send(Reply{LevelInfo, "System Prompt: " + runewidth.Truncate(cfg.SystemPrompt, d.opts.PromptWidth, "…")})
}

type commandUsage struct {
	usage, summary string
}

var usages = []commandUsage{
	{"/ask <question>", "ask the assistant"},
	{"/setapikey <key>", "set the OpenAI API key"},
	{"/removeapikey", "forget the API key and delete the settings file"},
	{"/apikeystatus", "check whether a key is set"},
	{"/settokens <1-4000>", "cap the answer length"},
	{"/setverbosity <low|medium|high>", "set the verbosity hint"},
	{"/setreasoning <minimal|low|medium|high>", "set the reasoning effort"},
	{"/setsystemprompt <prompt>", "replace the system prompt"},
	{"/config", "show the current settings"},
	{"/help", "show this list"},
}

func (d *Dispatcher) help(_, _ string, sink Sink) {
	sink.Send(Reply{LevelInfo, "🔧 MineClanker commands:"})
	for _, u := range usages {
		sink.Send(Reply{LevelInfo, u.usage + " - " + u.summary})
	}
}
