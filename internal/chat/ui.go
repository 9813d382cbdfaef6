/*-------------------------------------------------------------------------
 *
 * UI components for DB Chat Client
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package chat

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// Color codes for terminal output
const (
	ColorReset   = "\033[0m"
	ColorRed     = "\033[31m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorBlue    = "\033[34m"
	ColorMagenta = "\033[35m"
	ColorCyan    = "\033[36m"
	ColorGray    = "\033[90m"
	ColorBold    = "\033[1m"
)

// UI handles the user interface
type UI struct {
	noColor               bool
	DisplayStatusMessages bool
	RenderMarkdown        bool
}

// NewUI creates a new UI instance
func NewUI(noColor bool, renderMarkdown bool) *UI {
	return &UI{
		noColor:               noColor,
		DisplayStatusMessages: true,
		RenderMarkdown:        renderMarkdown,
	}
}

// colorize applies color if colors are enabled
func (ui *UI) colorize(color, text string) string {
	if ui.noColor {
		return text
	}
	return color + text + ColorReset
}

// PrintWelcome prints the welcome message
// ASCII art credit: https://ascii.co.uk/art/elephant
func (ui *UI) PrintWelcome() {
	elephant := `
          _
   ______/ \-.   _           pgEdge DB Chat
.-/     (    o\_//           Ask your database anything in plain language
 |  ___  \_/\---'            Type 'quit' or 'exit' to leave, 'help' for commands
 |_||  |_||
`
	fmt.Println(ui.colorize(ColorCyan, elephant))
}

// GetPrompt returns the prompt string for readline
func (ui *UI) GetPrompt() string {
	return ui.colorize(ColorGreen+ColorBold, "You: ")
}

// PrintAssistantResponse prints the assistant's response
func (ui *UI) PrintAssistantResponse(text string) {
	// Clear the thinking animation line and add blank line before response
	maxWidth := ui.getThinkingMaxWidth()
	fmt.Print("\r" + strings.Repeat(" ", maxWidth) + "\r\n\n")

	fmt.Print(ui.colorize(ColorBlue, "Assistant: "))

	if ui.RenderMarkdown {
		var style string
		if ui.noColor {
			style = "notty"
		} else {
			style = "dark"
		}

		// Cap the render width so tables stay readable on wide terminals
		width := ui.getTerminalWidth()
		if width > 120 {
			width = 120
		}

		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithStylePath(style),
			glamour.WithWordWrap(width),
		)

		if err == nil {
			rendered, err := r.Render(text)
			if err == nil {
				fmt.Print(rendered)
				return
			}
			// If rendering fails, fall back to plain text
		}
	}

	fmt.Print(text + "\n")
}

// PrintSystemMessage prints a system message
func (ui *UI) PrintSystemMessage(text string) {
	if !ui.DisplayStatusMessages {
		return
	}
	fmt.Println(ui.colorize(ColorYellow, "System: ") + text)
}

// PrintError prints an error message
func (ui *UI) PrintError(text string) {
	// Clear any thinking animation line and add blank line before error
	maxWidth := ui.getThinkingMaxWidth()
	fmt.Print("\r" + strings.Repeat(" ", maxWidth) + "\r\n\n")
	fmt.Println(ui.colorize(ColorRed, "Error: ") + text)
}

// PrintSeparator prints a separator line
func (ui *UI) PrintSeparator() {
	fmt.Println(ui.colorize(ColorGray, strings.Repeat("─", 80)))
}

// PostgreSQL/Elephant themed action words for animation
var elephantActions = []string{
	"Thinking with trunks",
	"Consulting the herd",
	"Stampeding through data",
	"Trumpeting queries",
	"Translating your question",
	"Charging through logic",
	"Roaming the database",
	"Grazing on metadata",
	"Herding rows",
	"Foraging for answers",
	"Dusting off schemas",
	"Sketching visualizations",
	"Pondering profoundly",
	"Stomping bugs",
}

// getThinkingMaxWidth calculates the maximum width needed for thinking animation
func (ui *UI) getThinkingMaxWidth() int {
	maxWidth := 40
	for _, action := range elephantActions {
		width := len(action) + 5 // frame + space + action + "..."
		if width > maxWidth {
			maxWidth = width
		}
	}
	return maxWidth
}

// getTerminalWidth returns the maximum width for markdown rendering
func (ui *UI) getTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		// Leave a small margin to prevent awkward wrapping at terminal edge
		if width > 2 {
			return width - 2
		}
		return width
	}
	// Default to 80 columns if we can't determine terminal width
	return 80
}

// ClearThinkingLine clears the thinking animation line
func (ui *UI) ClearThinkingLine() {
	maxWidth := ui.getThinkingMaxWidth()
	fmt.Print("\r" + strings.Repeat(" ", maxWidth) + "\r")
}

// ShowThinking displays an animated "thinking" indicator
func (ui *UI) ShowThinking(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	frameIndex := 0
	actionIndex := rand.Intn(len(elephantActions))
	actionChangeCounter := 0

	maxWidth := ui.getThinkingMaxWidth()

	fmt.Print("\r" + ui.colorize(ColorCyan, frames[frameIndex]) + " " + ui.colorize(ColorGray, elephantActions[actionIndex]) + "...")

	for {
		select {
		case <-done:
			ui.ClearThinkingLine()
			return
		case <-ctx.Done():
			ui.ClearThinkingLine()
			return
		case <-ticker.C:
			frameIndex = (frameIndex + 1) % len(frames)
			actionChangeCounter++

			// Change action text every 4 ticks (2 seconds)
			if actionChangeCounter >= 4 {
				actionIndex = rand.Intn(len(elephantActions))
				actionChangeCounter = 0
			}

			msg := ui.colorize(ColorCyan, frames[frameIndex]) + " " + ui.colorize(ColorGray, elephantActions[actionIndex]) + "..."
			padding := maxWidth - len(elephantActions[actionIndex]) - 5
			if padding > 0 {
				msg += strings.Repeat(" ", padding)
			}
			fmt.Print("\r" + msg)
		}
	}
}

// PromptForConfirmation asks a yes/no question, defaulting to no
func (ui *UI) PromptForConfirmation(question string) bool {
	fmt.Print(ui.colorize(ColorYellow, question+" [y/N]: "))
	var answer string
	_, _ = fmt.Scanln(&answer) //nolint:errcheck // User input, errors not actionable
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// PrintHelp prints the help message
func (ui *UI) PrintHelp() {
	help := `
Available commands:
  help        - Show this help message
  quit        - Exit the chat client
  exit        - Exit the chat client
  clear       - Clear the screen

Slash commands (type /help for full slash command help):
  /databases                   - List available databases and schemas
  /use <database> [schema]     - Choose the database (and schema) to chat with
  /schema <name>               - Choose a schema within the selected database
  /status                      - Show session, selection, and connection state
  /clear                       - Clear chat history and start a fresh session
  /history                     - List locally archived conversations
  /set <setting> <value>       - Change settings (markdown, status-messages)

Once a database and schema are selected, anything else you type is sent to
the backend as a natural-language question about your data.
`
	fmt.Println(ui.colorize(ColorCyan, help))
}

// ClearScreen clears the terminal screen
func (ui *UI) ClearScreen() {
	fmt.Print("\033[H\033[2J")
}
