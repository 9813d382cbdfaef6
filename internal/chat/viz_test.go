/*-------------------------------------------------------------------------
 *
 * Visualization Artifact Tests
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package chat

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteVisualization(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("\x89PNG\r\n\x1a\nfake image bytes")
	encoded := base64.StdEncoding.EncodeToString(payload)

	path, err := WriteVisualization(dir, encoded)
	if err != nil {
		t.Fatalf("WriteVisualization failed: %v", err)
	}

	if filepath.Dir(path) != dir {
		t.Errorf("file written outside target dir: %s", path)
	}
	if !strings.HasSuffix(path, ".png") {
		t.Errorf("expected .png file, got %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read written file: %v", err)
	}
	if string(data) != string(payload) {
		t.Error("written bytes do not match decoded payload")
	}
}

func TestWriteVisualizationCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "viz")
	encoded := base64.StdEncoding.EncodeToString([]byte("image"))

	if _, err := WriteVisualization(dir, encoded); err != nil {
		t.Fatalf("WriteVisualization failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestWriteVisualizationBadBase64(t *testing.T) {
	if _, err := WriteVisualization(t.TempDir(), "!!not base64!!"); err == nil {
		t.Fatal("expected error for invalid payload encoding")
	}
}

func TestWriteVisualizationEmptyPayload(t *testing.T) {
	if _, err := WriteVisualization(t.TempDir(), ""); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
