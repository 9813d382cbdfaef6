/*-------------------------------------------------------------------------
 *
 * Session Identity for DB Chat Client
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Manager owns the durable session identity token. The token correlates
// this profile's conversation with the history the backend keeps for it.
// At most one token is active per identity file at a time.
type Manager struct {
	path string
}

// DefaultPath returns the default location of the session identity file
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".pgedge-dbchat-session")
}

// NewManager creates a manager backed by the given identity file
func NewManager(path string) *Manager {
	if path == "" {
		path = DefaultPath()
	}
	return &Manager{path: path}
}

// Path returns the identity file location
func (m *Manager) Path() string {
	return m.path
}

// GetOrCreate returns the persisted token, generating and persisting a
// fresh one if the file is absent or empty. The write completes before
// the token is returned.
func (m *Manager) GetOrCreate() (string, error) {
	if data, err := os.ReadFile(m.path); err == nil {
		token := strings.TrimSpace(string(data))
		if token != "" {
			return token, nil
		}
	}

	return m.Rotate()
}

// Rotate generates and persists a new token unconditionally. The previous
// token is abandoned; any history keyed by it remains on the backend but
// is no longer reachable from this profile.
func (m *Manager) Rotate() (string, error) {
	token := uuid.NewString()
	if err := m.write(token); err != nil {
		return "", err
	}
	return token, nil
}

// write persists the token via a temp file and rename so a concurrent
// reader never observes a partial token
func (m *Manager) write(token string) error {
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tempPath := m.path + ".tmp"
	if err := os.WriteFile(tempPath, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath) // Clean up temp file
		return fmt.Errorf("failed to save session file: %w", err)
	}

	return nil
}
