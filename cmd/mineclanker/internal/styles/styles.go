// Package styles renders dispatcher replies and model answers for the
// terminal commands.
package styles

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ftkevon/mineclanker/pkg/commands"
)

// ANSI palette.
var (
	ColorMuted   = lipgloss.Color("8") // gray
	ColorError   = lipgloss.Color("1") // red
	ColorSuccess = lipgloss.Color("2") // green
	ColorAccent  = lipgloss.Color("4") // blue
	ColorMagenta = lipgloss.Color("5")
)

// Reply styles, keyed by level.
var (
	InfoStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	PendingStyle = lipgloss.NewStyle().Foreground(ColorMagenta).Faint(true)
	PromptStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

	AnswerBlockStyle = lipgloss.NewStyle().PaddingLeft(1)

	ErrorBlockStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(ColorError)
)

const markdownWidth = 100

var (
	mdOnce     sync.Once
	mdRenderer *glamour.TermRenderer
)

// RenderMarkdown converts markdown to terminal output, or returns text
// unchanged when no renderer could be built.
func RenderMarkdown(text string) string {
	mdOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(markdownWidth),
		)
		if err == nil {
			mdRenderer = r
		}
	})

	if mdRenderer == nil {
		return text
	}

	out, err := mdRenderer.Render(text)
	if err != nil {
		return text
	}

	return out
}

// RenderReply formats a dispatcher reply for the terminal.
func RenderReply(r commands.Reply) string {
	switch r.Level {
	case commands.LevelSuccess:
		return SuccessStyle.Render(r.Text)
	case commands.LevelError:
		return ErrorBlockStyle.Render(r.Text)
	case commands.LevelPending:
		return PendingStyle.Render(r.Text)
	case commands.LevelAnswer:
		body := strings.TrimPrefix(r.Text, "🤖 ")
		return AnswerBlockStyle.Render(strings.TrimRight(RenderMarkdown(body), "\n"))
	default:
		return InfoStyle.Render(r.Text)
	}
}
