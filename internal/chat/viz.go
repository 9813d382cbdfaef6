/*-------------------------------------------------------------------------
 *
 * Visualization Artifact Handling for DB Chat Client
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package chat

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WriteVisualization decodes a base64-encoded image payload and writes it
// under dir with a timestamped name, returning the file path. The payload
// is treated as opaque; the backend encodes whatever its plotting layer
// produced.
func WriteVisualization(dir, encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode visualization payload: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("visualization payload is empty")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create visualization directory: %w", err)
	}

	name := fmt.Sprintf("viz_%s.png", time.Now().UTC().Format("20060102_150405.000000000"))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write visualization file: %w", err)
	}

	return path, nil
}
