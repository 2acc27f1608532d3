package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftkevon/mineclanker/pkg/commands"
	"github.com/ftkevon/mineclanker/pkg/llmservice"
	"github.com/ftkevon/mineclanker/pkg/settings"
)

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MINECLANKER_TEST_VAR=redstone\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("MINECLANKER_TEST_VAR") })

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "redstone", os.Getenv("MINECLANKER_TEST_VAR"))
}

func TestRoot_FlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "mineclanker.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("settings_path: from-file.json\nlog_level: warn\n"), 0o600))

	settingsPath := filepath.Join(dir, "config", "mineclanker_config.json")

	root := newRootCmd()
	var stderr bytes.Buffer
	root.SetErr(&stderr)
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{
		"--config", cfgPath,
		"--env", filepath.Join(dir, "none.env"),
		"--settings", settingsPath,
		"--log-level", "debug",
		"ask", "--raw", "where", "are", "strongholds?",
	})

	err := root.Execute()
	require.ErrorIs(t, err, llmservice.ErrNotConfigured)
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.DiscardHandler)) })

	assert.DirExists(t, filepath.Dir(settingsPath))
	assert.NoFileExists(t, filepath.Join(dir, "from-file.json"))
}

func TestRoot_BadConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "mineclanker.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_level: chatty\n"), 0o600))

	root := newRootCmd()
	root.SetErr(&bytes.Buffer{})
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgPath, "ask", "hi"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}

func TestRoot_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "console", "mcp", "init", "ask"})
}

func newTestService(t *testing.T) *llmservice.Service {
	t.Helper()
	discard := slog.New(slog.DiscardHandler)
	store := settings.NewStore(filepath.Join(t.TempDir(), "mineclanker_config.json"), discard)
	return llmservice.New(store, llmservice.Options{Logger: discard})
}

func TestApplyAnswers(t *testing.T) {
	svc := newTestService(t)

	err := applyAnswers(svc, initAnswers{
		APIKey:       " sk-test ",
		MaxTokens:    "250",
		Verbosity:    "medium",
		Reasoning:    "high",
		SystemPrompt: "You are a villager.",
	})
	require.NoError(t, err)

	cfg := svc.Settings()
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, 250, cfg.MaxTokens)
	assert.Equal(t, "medium", cfg.Verbosity)
	assert.Equal(t, "high", cfg.Reasoning)
	assert.Equal(t, "You are a villager.", cfg.SystemPrompt)
}

func TestApplyAnswers_KeepsKeyWhenBlank(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.SetAPIKey("sk-old"))

	ans := answersFrom(svc.Settings())
	require.NoError(t, applyAnswers(svc, ans))

	assert.Equal(t, "sk-old", svc.Settings().APIKey)
}

func TestApplyAnswers_Invalid(t *testing.T) {
	svc := newTestService(t)

	ans := answersFrom(svc.Settings())
	ans.Verbosity = "extreme"

	err := applyAnswers(svc, ans)
	require.Error(t, err)
	assert.True(t, errors.Is(err, llmservice.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "verbosity")
}

func TestValidateMaxTokens(t *testing.T) {
	assert.NoError(t, validateMaxTokens("4000"))
	assert.NoError(t, validateMaxTokens(" 1 "))
	assert.Error(t, validateMaxTokens("4001"))
	assert.Error(t, validateMaxTokens("many"))
}

type recordingHandler struct {
	mu    sync.Mutex
	lines []string
}

func (h *recordingHandler) Handle(_, line string, sink commands.Sink) {
	h.mu.Lock()
	h.lines = append(h.lines, line)
	h.mu.Unlock()
	sink.Send(commands.Reply{Level: commands.LevelInfo, Text: "handled " + line})
}

func TestRunConsole(t *testing.T) {
	h := &recordingHandler{}
	in := strings.NewReader("how do I breed axolotls?\n/config\n\nexit\n/help\n")
	var out bytes.Buffer

	require.NoError(t, runConsole(context.Background(), h, "console", in, &out))

	assert.Equal(t, []string{"/ask how do I breed axolotls?", "/config"}, h.lines)
	assert.Contains(t, out.String(), "handled /config")
}

func TestRunConsole_EOF(t *testing.T) {
	h := &recordingHandler{}
	require.NoError(t, runConsole(context.Background(), h, "console", strings.NewReader("/apikeystatus"), &bytes.Buffer{}))
	assert.Equal(t, []string{"/apikeystatus"}, h.lines)
}
