/*-------------------------------------------------------------------------
 *
 * Backend HTTP Client for DB Chat
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DatabaseInfo describes one database the backend can translate queries
// for, with its schemas in the order the backend reports them
type DatabaseInfo struct {
	Name    string   `json:"name"`
	Schemas []string `json:"schemas"`
}

// HistoryRecord is one persisted message returned by the history endpoint.
// Transient error framing is not part of the replay path, so there is no
// error field here.
type HistoryRecord struct {
	Role          string `json:"role"`
	Content       string `json:"content"`
	Visualization string `json:"visualization,omitempty"`
}

// Client performs the one-shot reads against the query-translation backend
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a backend client for the given base URL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// BaseURL returns the configured backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListDatabases returns the available databases and their schemas
func (c *Client) ListDatabases(ctx context.Context) ([]DatabaseInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/databases", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body) //nolint:errcheck // Best effort to read error body
		return nil, fmt.Errorf("request failed (%d): %s", resp.StatusCode, string(body))
	}

	var result []DatabaseInfo
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result, nil
}

// LoadHistory returns the persisted conversation for a session identity.
// Callers treat any error as "no history"; the read is never retried.
func (c *Client) LoadHistory(ctx context.Context, sessionID string) ([]HistoryRecord, error) {
	endpoint := c.baseURL + "/chat/history/" + url.PathEscape(sessionID)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body) //nolint:errcheck // Best effort to read error body
		return nil, fmt.Errorf("request failed (%d): %s", resp.StatusCode, string(body))
	}

	var result []HistoryRecord
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result, nil
}
