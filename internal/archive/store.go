/*-------------------------------------------------------------------------
 *
 * Local Conversation Archive for DB Chat
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Message is one archived chat message
type Message struct {
	Role          string `json:"role"`
	Content       string `json:"content"`
	Visualization string `json:"visualization,omitempty"`
	IsError       bool   `json:"isError,omitempty"`
}

// Conversation is the archived log for one session identity
type Conversation struct {
	SessionID string    `json:"session_id"`
	Title     string    `json:"title"`
	Database  string    `json:"database,omitempty"`
	Schema    string    `json:"schema,omitempty"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary provides a lightweight view for listing
type Summary struct {
	SessionID string    `json:"session_id"`
	Title     string    `json:"title"`
	Database  string    `json:"database,omitempty"`
	Schema    string    `json:"schema,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	Preview   string    `json:"preview"`
}

// Store persists one conversation row per session identity using SQLite.
// Rotating the identity abandons the row rather than deleting it, matching
// the backend's treatment of superseded sessions.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// NewStore creates a new archive store under dataDir
func NewStore(dataDir string) (*Store, error) {
	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "conversations.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{
		db:   db,
		path: dbPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the necessary tables
func (s *Store) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS conversations (
        session_id TEXT PRIMARY KEY,
        title TEXT NOT NULL,
        database_name TEXT DEFAULT '',
        schema_name TEXT DEFAULT '',
        messages TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_conversations_updated_at
        ON conversations(updated_at DESC);
    `

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location
func (s *Store) Path() string {
	return s.path
}

// generateTitle creates a title from the first user message
func generateTitle(messages []Message) string {
	for _, msg := range messages {
		if msg.Role != "user" {
			continue
		}
		content := msg.Content
		if content == "" {
			return "New conversation"
		}
		// Truncate to reasonable length
		if len(content) > 50 {
			return content[:47] + "..."
		}
		return content
	}
	return "New conversation"
}

// Save upserts the full message log for a session identity
func (s *Store) Save(sessionID, database, schemaName string, messages []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	now := time.Now().UTC()
	title := generateTitle(messages)

	_, err = s.db.Exec(
		`INSERT INTO conversations (session_id, title, database_name, schema_name, messages, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(session_id) DO UPDATE SET
             title = excluded.title,
             database_name = excluded.database_name,
             schema_name = excluded.schema_name,
             messages = excluded.messages,
             updated_at = excluded.updated_at`,
		sessionID, title, database, schemaName, string(messagesJSON), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}

	return nil
}

// Get retrieves the archived conversation for a session identity
func (s *Store) Get(sessionID string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var conv Conversation
	var messagesJSON string

	err := s.db.QueryRow(
		`SELECT session_id, title, database_name, schema_name, messages, created_at, updated_at
         FROM conversations WHERE session_id = ?`, sessionID,
	).Scan(&conv.SessionID, &conv.Title, &conv.Database, &conv.Schema,
		&messagesJSON, &conv.CreatedAt, &conv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conversation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}

	if err := json.Unmarshal([]byte(messagesJSON), &conv.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}

	return &conv, nil
}

// List returns summaries of all archived conversations, newest first
func (s *Store) List() ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT session_id, title, database_name, schema_name, messages, updated_at
         FROM conversations ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		var messagesJSON string
		if err := rows.Scan(&sum.SessionID, &sum.Title, &sum.Database,
			&sum.Schema, &messagesJSON, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}

		var messages []Message
		if err := json.Unmarshal([]byte(messagesJSON), &messages); err == nil {
			sum.Preview = generatePreview(messages)
		}

		summaries = append(summaries, sum)
	}

	return summaries, rows.Err()
}

// Delete removes the archived conversation for a session identity
func (s *Store) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec("DELETE FROM conversations WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("conversation not found")
	}

	return nil
}

// generatePreview builds a short preview from the last assistant message
func generatePreview(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != "assistant" || messages[i].IsError {
			continue
		}
		content := messages[i].Content
		if len(content) > 80 {
			return content[:77] + "..."
		}
		return content
	}
	return ""
}
