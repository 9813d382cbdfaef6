/*-------------------------------------------------------------------------
 *
 * Message and Frame Types for DB Chat Client
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package chat

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in the conversation log. The log is append-only;
// the only in-place mutation is attaching a visualization to the most
// recently appended assistant message of the current turn.
type Message struct {
	Role          string `json:"role"`
	Content       string `json:"content"`
	Visualization string `json:"visualization,omitempty"` // base64-encoded image
	IsError       bool   `json:"isError,omitempty"`
}

// Inbound frame kinds. The backend streams zero or more message frames,
// at most one visualization frame, and error frames as needed, then a
// terminating end frame.
const (
	FrameMessage       = "message"
	FrameVisualization = "visualization"
	FrameError         = "error"
	FrameEnd           = "end"
)

// Frame is one discrete unit delivered over the duplex channel
type Frame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}
