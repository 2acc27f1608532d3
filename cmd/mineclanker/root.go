package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ftkevon/mineclanker/pkg/appconfig"
	"github.com/ftkevon/mineclanker/pkg/llmservice"
	"github.com/ftkevon/mineclanker/pkg/settings"
)

// app holds global flags and the state derived from them in PersistentPreRunE.
type app struct {
	configPath   string
	envFile      string
	settingsPath string
	logLevel     string

	cfg appconfig.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "mineclanker",
		Short: "Ask an LLM about Minecraft from chat, a console, or an MCP client",
		Long: `MineClanker answers Minecraft questions with an OpenAI chat model.

Settings (API key, token limit, verbosity, reasoning effort, system prompt)
persist in config/mineclanker_config.json. Process wiring (endpoint, workers,
bridge address) comes from mineclanker.yaml.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", appconfig.DefaultPath, "path to bootstrap YAML (ignored if missing)")
	flags.StringVar(&a.envFile, "env", ".env", "path to .env file (ignored if missing)")
	flags.StringVar(&a.settingsPath, "settings", "", "settings file (overrides settings_path)")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides log_level)")

	root.AddCommand(
		newServeCmd(a),
		newConsoleCmd(a),
		newMCPCmd(a),
		newInitCmd(a),
		newAskCmd(a),
	)

	return root
}

// setup loads .env, the bootstrap config and the logger. Flags win over the
// file.
func (a *app) setup(stderr io.Writer) error {
	if err := loadDotEnv(a.envFile); err != nil {
		return err
	}

	cfg, err := appconfig.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.settingsPath != "" {
		cfg.SettingsPath = a.settingsPath
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.log)

	return nil
}

// newService opens the settings store and builds the orchestrator.
func (a *app) newService() (*llmservice.Service, error) {
	timeout, err := a.cfg.Timeout()
	if err != nil {
		return nil, err
	}

	store := settings.NewStore(a.cfg.SettingsPath, a.log)

	return llmservice.New(store, llmservice.Options{
		BaseURL: a.cfg.OpenAI.BaseURL,
		Model:   a.cfg.OpenAI.Model,
		Timeout: timeout,
		Logger:  a.log,
	}), nil
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
