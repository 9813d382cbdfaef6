/*-------------------------------------------------------------------------
 *
 * Slash Commands for DB Chat Client
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
	"strings"
)

// SlashCommand represents a parsed slash command
type SlashCommand struct {
	Command string
	Args    []string
}

// ParseSlashCommand parses a slash command from user input
func ParseSlashCommand(input string) *SlashCommand {
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	input = strings.TrimPrefix(input, "/")

	// Split into command and arguments, respecting quotes
	parts := parseQuotedArgs(input)
	if len(parts) == 0 {
		return nil
	}

	return &SlashCommand{
		Command: parts[0],
		Args:    parts[1:],
	}
}

// parseQuotedArgs splits a string into arguments, respecting quoted strings
func parseQuotedArgs(input string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := rune(0)

	runes := []rune(input)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case (r == '"' || r == '\'') && !inQuote:
			inQuote = true
			quoteChar = r
		case r == quoteChar && inQuote:
			inQuote = false
			quoteChar = 0
		case r == ' ' && !inQuote:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		case r == '\\' && inQuote && i+1 < len(runes):
			next := runes[i+1]
			if next == quoteChar || next == '\\' {
				current.WriteRune(next)
				i++
			} else {
				current.WriteRune(r)
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}

	return args
}

// HandleSlashCommand processes slash commands, returns true if handled
func (c *Client) HandleSlashCommand(ctx context.Context, cmd *SlashCommand) bool {
	if cmd == nil {
		return false
	}

	switch cmd.Command {
	case "help":
		c.printSlashHelp()
		return true

	case "databases":
		c.handleDatabasesCommand()
		return true

	case "use":
		return c.handleUseCommand(cmd.Args)

	case "schema":
		return c.handleSchemaCommand(cmd.Args)

	case "status":
		c.handleStatusCommand()
		return true

	case "clear":
		c.handleClearCommand()
		return true

	case "history":
		c.handleHistoryCommand()
		return true

	case "set":
		return c.handleSetCommand(cmd.Args)

	default:
		return false
	}
}

// printSlashHelp prints help for slash commands
func (c *Client) printSlashHelp() {
	help := `
Slash Commands:
  /help                        Show this help message
  /databases                   List available databases and schemas
  /use <database> [schema]     Select the database (and optionally schema)
  /schema <name>               Select a schema within the current database
  /status                      Show session, selection, and connection state
  /clear                       Clear chat history and rotate the session
  /history                     List locally archived conversations
  /set markdown <on|off>       Enable or disable markdown rendering
  /set status-messages <on|off> Enable or disable status messages

Examples:
  /use employees public
  /use "sales db" reporting
  /schema analytics
  /set markdown off
`
	fmt.Print(help)
}

// handleDatabasesCommand lists the fetched catalog
func (c *Client) handleDatabasesCommand() {
	databases := c.Databases()
	if len(databases) == 0 {
		c.ui.PrintSystemMessage("No databases available")
		return
	}

	selectedDB, selectedSchema := c.Selection()
	for _, db := range databases {
		marker := "  "
		if db.Name == selectedDB {
			marker = "* "
		}
		fmt.Printf("%s%s\n", marker, db.Name)
		for _, schema := range db.Schemas {
			schemaMarker := "    "
			if db.Name == selectedDB && schema == selectedSchema {
				schemaMarker = "  * "
			}
			fmt.Printf("%s%s\n", schemaMarker, schema)
		}
	}
}

// handleUseCommand selects a database and optionally a schema
func (c *Client) handleUseCommand(args []string) bool {
	if len(args) < 1 {
		c.ui.PrintError("Usage: /use <database> [schema]")
		return true
	}

	if err := c.SelectDatabase(args[0]); err != nil {
		c.ui.PrintError(err.Error())
		return true
	}

	if len(args) >= 2 {
		if err := c.SelectSchema(args[1]); err != nil {
			c.ui.PrintError(err.Error())
			return true
		}
	} else {
		c.ui.PrintSystemMessage("Database selected; choose a schema with /schema <name>")
	}

	return true
}

// handleSchemaCommand selects a schema within the current database
func (c *Client) handleSchemaCommand(args []string) bool {
	if len(args) != 1 {
		c.ui.PrintError("Usage: /schema <name>")
		return true
	}

	if err := c.SelectSchema(args[0]); err != nil {
		c.ui.PrintError(err.Error())
	}

	return true
}

// handleStatusCommand shows session, selection, and connection state
func (c *Client) handleStatusCommand() {
	db, schema := c.Selection()
	if db == "" {
		db = "(none)"
	}
	if schema == "" {
		schema = "(none)"
	}

	fmt.Printf("  Session:    %s\n", c.SessionID())
	fmt.Printf("  Database:   %s\n", db)
	fmt.Printf("  Schema:     %s\n", schema)
	fmt.Printf("  Connection: %s\n", c.ctrl.State())
}

// handleClearCommand clears history after confirmation
func (c *Client) handleClearCommand() {
	if !c.ui.PromptForConfirmation("Clear chat history and start a fresh session?") {
		c.ui.PrintSystemMessage("Clear canceled")
		return
	}

	if err := c.ClearHistory(); err != nil {
		c.ui.PrintError(err.Error())
		return
	}

	c.ui.PrintSystemMessage("History cleared; new session started")
}

// handleHistoryCommand lists locally archived conversations
func (c *Client) handleHistoryCommand() {
	summaries, err := c.ArchivedConversations()
	if err != nil {
		c.ui.PrintError(err.Error())
		return
	}
	if len(summaries) == 0 {
		c.ui.PrintSystemMessage("No archived conversations")
		return
	}

	current := c.SessionID()
	for _, sum := range summaries {
		marker := "  "
		if sum.SessionID == current {
			marker = "* "
		}
		label := sum.Title
		if sum.Database != "" {
			label = fmt.Sprintf("%s  [%s/%s]", label, sum.Database, sum.Schema)
		}
		fmt.Printf("%s%s  %s\n", marker, sum.UpdatedAt.Local().Format("2006-01-02 15:04"), label)
		if sum.Preview != "" {
			fmt.Printf("      %s\n", sum.Preview)
		}
	}
}

// handleSetCommand handles /set commands
func (c *Client) handleSetCommand(args []string) bool {
	if len(args) < 2 {
		c.ui.PrintError("Usage: /set <setting> <value>")
		c.ui.PrintSystemMessage("Available settings: markdown, status-messages")
		return true
	}

	setting := args[0]
	value := strings.ToLower(args[1])

	var enabled bool
	switch value {
	case "on", "true", "1", "yes":
		enabled = true
	case "off", "false", "0", "no":
		enabled = false
	default:
		c.ui.PrintError(fmt.Sprintf("Invalid value for %s: %s (use on or off)", setting, value))
		return true
	}

	switch setting {
	case "markdown":
		c.config.UI.RenderMarkdown = enabled
		c.ui.RenderMarkdown = enabled
		c.ui.PrintSystemMessage(fmt.Sprintf("Markdown rendering %s", onOff(enabled)))

	case "status-messages":
		c.config.UI.DisplayStatusMessages = enabled
		c.ui.DisplayStatusMessages = enabled
		fmt.Printf("Status messages %s\n", onOff(enabled))

	default:
		c.ui.PrintError(fmt.Sprintf("Unknown setting: %s", setting))
		c.ui.PrintSystemMessage("Available settings: markdown, status-messages")
	}

	return true
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
