/*-------------------------------------------------------------------------
 *
 * DB Chat Client
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
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"pgedge-dbchat/internal/archive"
	"pgedge-dbchat/internal/backend"
	"pgedge-dbchat/internal/logging"
	"pgedge-dbchat/internal/session"
)

// Client owns one chat session: the conversation log, the turn state, the
// database/schema selection, and the connection controller driven by them.
// It is constructed at startup and torn down with Close; no session state
// lives outside it.
type Client struct {
	config  *Config
	ui      *UI
	backend *backend.Client
	idents  *session.Manager
	store   *archive.Store
	ctrl    transport
	watcher *session.Watcher

	mu             sync.Mutex
	sessionID      string
	databases      []backend.DatabaseInfo
	selectedDB     string
	selectedSchema string
	messages       []Message
	awaiting       bool
	turnGen        uint64
	lastAssistant  int // index of the current turn's last assistant message, -1 when none
	turnDone       chan struct{}
}

// NewClient creates a new chat client
func NewClient(cfg *Config) (*Client, error) {
	c := &Client{
		config:        cfg,
		ui:            NewUI(cfg.UI.NoColor, cfg.UI.RenderMarkdown),
		backend:       backend.NewClient(cfg.Server.URL),
		idents:        session.NewManager(cfg.Storage.SessionFile),
		lastAssistant: -1,
	}
	c.ui.DisplayStatusMessages = cfg.UI.DisplayStatusMessages

	ctrl, err := NewController(cfg.Server.URL, c.handleFrame, c.handleState, c.handleChannelLost)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection controller: %w", err)
	}
	c.ctrl = ctrl

	// The archive is an optional convenience; a broken local database
	// must not keep the client from starting
	store, err := archive.NewStore(cfg.Storage.DataDir)
	if err != nil {
		logging.Warn("Failed to open conversation archive", "error", err.Error())
	} else {
		c.store = store
	}

	return c, nil
}

// Start establishes the session identity, loads prior history and the
// database catalog, and begins watching the identity file. Load failures
// degrade to an empty log or empty selector; only a session identity that
// cannot be persisted is fatal.
func (c *Client) Start(ctx context.Context) error {
	token, err := c.idents.GetOrCreate()
	if err != nil {
		return fmt.Errorf("failed to establish session identity: %w", err)
	}

	c.mu.Lock()
	c.sessionID = token
	c.mu.Unlock()

	if records, err := c.backend.LoadHistory(ctx, token); err != nil {
		logging.Warn("Failed to load chat history, starting empty", "error", err.Error())
	} else {
		c.mu.Lock()
		c.messages = historyToMessages(records)
		c.mu.Unlock()
	}

	if databases, err := c.backend.ListDatabases(ctx); err != nil {
		logging.Warn("Failed to list databases", "error", err.Error())
	} else {
		c.mu.Lock()
		c.databases = databases
		c.mu.Unlock()
	}

	watcher, err := session.NewWatcher(c.idents.Path(), c.reloadIdentity)
	if err != nil {
		logging.Warn("Failed to watch session identity file", "error", err.Error())
	} else {
		c.watcher = watcher
		watcher.Start()
	}

	c.mu.Lock()
	c.reconcileLocked()
	c.mu.Unlock()

	return nil
}

// Close tears the session down; the channel is closed and no reopen is
// scheduled
func (c *Client) Close() {
	if c.watcher != nil {
		c.watcher.Stop()
	}
	c.ctrl.Close()
	if c.store != nil {
		c.store.Close()
	}
}

// historyToMessages maps backend history records to the local message
// shape. The error flag is transient framing and is never restored from
// history.
func historyToMessages(records []backend.HistoryRecord) []Message {
	messages := make([]Message, 0, len(records))
	for _, rec := range records {
		messages = append(messages, Message{
			Role:          rec.Role,
			Content:       rec.Content,
			Visualization: rec.Visualization,
		})
	}
	return messages
}

// Messages returns a copy of the conversation log in display order
func (c *Client) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// IsConnected reports whether the duplex channel is open
func (c *Client) IsConnected() bool {
	return c.ctrl.State() == StateOpen
}

// Awaiting reports whether a turn is outstanding
func (c *Client) Awaiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.awaiting
}

// Databases returns the fetched catalog
func (c *Client) Databases() []backend.DatabaseInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]backend.DatabaseInfo, len(c.databases))
	copy(out, c.databases)
	return out
}

// Selection returns the currently selected database and schema
func (c *Client) Selection() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedDB, c.selectedSchema
}

// SessionID returns the current session identity token
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// SelectDatabase changes the active database. The schema selection is
// always reset, so the channel closes until a schema is chosen.
func (c *Client) SelectDatabase(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.findDatabaseLocked(name) == nil {
		return fmt.Errorf("unknown database: %s", name)
	}
	if c.selectedDB == name {
		return nil
	}

	c.failTurnLocked("Database selection changed before the response completed")
	c.selectedDB = name
	c.selectedSchema = ""
	c.reconcileLocked()
	return nil
}

// SelectSchema changes the active schema within the selected database
func (c *Client) SelectSchema(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selectedDB == "" {
		return fmt.Errorf("select a database first")
	}

	db := c.findDatabaseLocked(c.selectedDB)
	if db == nil {
		return fmt.Errorf("unknown database: %s", c.selectedDB)
	}

	found := false
	for _, schema := range db.Schemas {
		if schema == name {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown schema %s in database %s", name, c.selectedDB)
	}

	if c.selectedSchema == name {
		return nil
	}

	c.failTurnLocked("Schema selection changed before the response completed")
	c.selectedSchema = name
	c.reconcileLocked()
	return nil
}

// findDatabaseLocked looks a database up in the catalog. Caller must hold
// c.mu.
func (c *Client) findDatabaseLocked(name string) *backend.DatabaseInfo {
	for i := range c.databases {
		if c.databases[i].Name == name {
			return &c.databases[i]
		}
	}
	return nil
}

// ClearHistory empties the conversation log and rotates the session
// identity. The old token is abandoned, not deleted; its archived
// conversation stays readable. Rotation forces the channel to reopen
// because the session identity is part of the connection parameters.
// Confirmation is the caller's responsibility.
func (c *Client) ClearHistory() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	token, err := c.idents.Rotate()
	if err != nil {
		return fmt.Errorf("failed to rotate session identity: %w", err)
	}

	c.failTurnLocked("History cleared before the response completed")
	c.messages = nil
	c.lastAssistant = -1
	c.sessionID = token
	c.reconcileLocked()
	return nil
}

// ArchivedConversations lists locally archived sessions, newest first
func (c *Client) ArchivedConversations() ([]archive.Summary, error) {
	if c.store == nil {
		return nil, fmt.Errorf("conversation archive is not available")
	}
	return c.store.List()
}

// reconcileLocked diffs the desired channel state, derived from the
// presence of the prerequisite triple, against the controller and drives
// it accordingly. Every change to any of the three inputs funnels through
// here. Caller must hold c.mu.
func (c *Client) reconcileLocked() {
	p := connParams{
		Database:  c.selectedDB,
		Schema:    c.selectedSchema,
		SessionID: c.sessionID,
	}

	if p.complete() {
		c.ctrl.Connect(p)
	} else {
		c.ctrl.Disconnect()
	}
}

// reloadIdentity is invoked by the file watcher when the identity file
// changes outside this process. A genuinely new token means the previous
// conversation no longer belongs to this session.
func (c *Client) reloadIdentity() error {
	token, err := c.idents.GetOrCreate()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if token == c.sessionID {
		return nil
	}

	c.failTurnLocked("Session identity changed before the response completed")
	c.sessionID = token
	c.messages = nil
	c.lastAssistant = -1
	c.reconcileLocked()
	return nil
}

// handleState is invoked by the controller on every lifecycle transition.
// It runs on the controller's goroutine and must stay out of c.mu.
func (c *Client) handleState(s ConnState) {
	switch s {
	case StateOpen:
		c.ui.PrintSystemMessage("Connected")
	case StateConnecting:
		c.ui.PrintSystemMessage("Connecting...")
	case StateDisconnected:
		c.ui.PrintSystemMessage("Disconnected")
	}
	logging.Info("Connection state changed", "state", s.String())
}

// Run starts the interactive chat loop
func (c *Client) Run(ctx context.Context) error {
	c.ui.PrintWelcome()
	c.printStartupSummary()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            c.ui.GetPrompt(),
		HistoryFile:       "",
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	// Closing readline makes the blocked Readline() call return
	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF || ctx.Err() != nil {
				fmt.Println()
				c.ui.PrintSystemMessage("Goodbye!")
				return nil
			}
			return fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "quit", "exit":
			c.ui.PrintSystemMessage("Goodbye!")
			return nil
		case "help":
			c.ui.PrintHelp()
			continue
		case "clear":
			c.ui.ClearScreen()
			continue
		}

		if cmd := ParseSlashCommand(input); cmd != nil {
			if !c.HandleSlashCommand(ctx, cmd) {
				c.ui.PrintError(fmt.Sprintf("Unknown command: /%s (type /help for available commands)", cmd.Command))
			}
			continue
		}

		done, err := c.Submit(input)
		if err != nil {
			c.ui.PrintError(err.Error())
			continue
		}

		c.waitForTurn(ctx, done)
		c.ui.PrintSeparator()
	}
}

// waitForTurn blocks with a spinner until the outstanding turn completes
func (c *Client) waitForTurn(ctx context.Context, done <-chan struct{}) {
	if done == nil {
		return
	}

	thinkingDone := make(chan struct{})
	go c.ui.ShowThinking(ctx, thinkingDone)
	defer close(thinkingDone)

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// printStartupSummary reports the restored session and catalog
func (c *Client) printStartupSummary() {
	c.mu.Lock()
	restored := len(c.messages)
	catalog := len(c.databases)
	c.mu.Unlock()

	if restored > 0 {
		c.ui.PrintSystemMessage(fmt.Sprintf("Restored %d messages from a previous session", restored))
	}
	if catalog == 0 {
		c.ui.PrintSystemMessage("No databases available; check the backend and restart")
	} else {
		c.ui.PrintSystemMessage(fmt.Sprintf("%d databases available; choose one with /use <database> <schema>", catalog))
	}
}
