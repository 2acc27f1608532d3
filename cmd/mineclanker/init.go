package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/ftkevon/mineclanker/pkg/settings"
)

// initAnswers holds the wizard fields as the form edits them.
type initAnswers struct {
	APIKey       string //nolint:gosec // user input, not a hardcoded secret
	MaxTokens    string
	Verbosity    string
	Reasoning    string
	SystemPrompt string
}

// settingsEditor is satisfied by *llmservice.Service.
type settingsEditor interface {
	Settings() settings.Settings
	SetAPIKey(key string) error
	SetMaxTokens(n int) error
	SetVerbosity(v string) error
	SetReasoning(r string) error
	SetSystemPrompt(p string) error
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactively write the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.newService()
			if err != nil {
				return err
			}

			ans := answersFrom(svc.Settings())
			if err := runInitForm(&ans, svc.HasAPIKey()); err != nil {
				return err
			}

			if err := applyAnswers(svc, ans); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", a.cfg.SettingsPath)
			return err
		},
	}
}

func answersFrom(cfg settings.Settings) initAnswers {
	return initAnswers{
		MaxTokens:    strconv.Itoa(cfg.MaxTokens),
		Verbosity:    cfg.Verbosity,
		Reasoning:    cfg.Reasoning,
		SystemPrompt: cfg.SystemPrompt,
	}
}

func runInitForm(ans *initAnswers, hasKey bool) error {
	keyTitle := "OpenAI API key"
	if hasKey {
		keyTitle = "OpenAI API key (empty = keep current)"
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(keyTitle).
				EchoMode(huh.EchoModePassword).
				Value(&ans.APIKey).
				Validate(func(s string) error {
					if hasKey && strings.TrimSpace(s) == "" {
						return nil
					}
					return settings.ValidateAPIKey(s)
				}),
			huh.NewInput().
				Title(fmt.Sprintf("Max output tokens (%d-%d)", settings.MinMaxTokens, settings.MaxMaxTokens)).
				Value(&ans.MaxTokens).
				Validate(validateMaxTokens),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Verbosity").
				Options(huh.NewOptions(settings.VerbosityLevels...)...).
				Value(&ans.Verbosity),
			huh.NewSelect[string]().
				Title("Reasoning effort").
				Options(huh.NewOptions(settings.ReasoningLevels...)...).
				Value(&ans.Reasoning),
			huh.NewText().
				Title("System prompt").
				Value(&ans.SystemPrompt).
				Validate(settings.ValidateSystemPrompt),
		),
	).Run()
}

func validateMaxTokens(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a whole number")
	}
	return settings.ValidateMaxTokens(n)
}

// applyAnswers writes the answers through the service. An empty key leaves
// the stored key untouched.
func applyAnswers(svc settingsEditor, ans initAnswers) error {
	if strings.TrimSpace(ans.APIKey) != "" {
		if err := svc.SetAPIKey(ans.APIKey); err != nil {
			return fmt.Errorf("api key: %w", err)
		}
	}

	n, err := strconv.Atoi(strings.TrimSpace(ans.MaxTokens))
	if err != nil {
		return fmt.Errorf("max tokens: %w", err)
	}
	if err := svc.SetMaxTokens(n); err != nil {
		return fmt.Errorf("max tokens: %w", err)
	}
	if err := svc.SetVerbosity(ans.Verbosity); err != nil {
		return fmt.Errorf("verbosity: %w", err)
	}
	if err := svc.SetReasoning(ans.Reasoning); err != nil {
		return fmt.Errorf("reasoning: %w", err)
	}
	if err := svc.SetSystemPrompt(ans.SystemPrompt); err != nil {
		return fmt.Errorf("system prompt: %w", err)
	}

	return nil
}
