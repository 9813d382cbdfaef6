/*-------------------------------------------------------------------------
 *
 * Message Stream Assembly for DB Chat Client
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package chat

import (
	"fmt"
	"strings"

	"pgedge-dbchat/internal/archive"
	"pgedge-dbchat/internal/logging"
)

// Submit sends one user utterance as a new turn. The returned channel is
// closed when the turn completes; it is already closed when the send
// itself failed. An error return means the submission was rejected and
// nothing was sent or appended: blank input, or a turn still outstanding.
func (c *Client) Submit(text string) (<-chan struct{}, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message is empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.awaiting {
		return nil, fmt.Errorf("a response is still pending")
	}

	// The user message always lands in the log, even when the send fails
	c.messages = append(c.messages, Message{Role: RoleUser, Content: text})
	c.awaiting = true
	c.lastAssistant = -1
	c.turnGen = c.ctrl.Generation()
	c.turnDone = make(chan struct{})
	done := c.turnDone

	if err := c.ctrl.Send(text); err != nil {
		// No end frame will arrive for a failed send; surface the error
		// inline and return to idle immediately
		c.messages = append(c.messages, Message{
			Role:    RoleAssistant,
			Content: fmt.Sprintf("Failed to send message: %v", err),
			IsError: true,
		})
		c.finishTurnLocked()
		c.ui.PrintError(fmt.Sprintf("Failed to send message: %v", err))
	}

	return done, nil
}

// handleFrame folds one inbound frame into the conversation log. Frames
// are delivered in arrival order by the controller; frames that do not
// belong to the outstanding turn (stale generation, or no turn at all)
// are dropped.
func (c *Client) handleFrame(gen uint64, f Frame) {
	c.mu.Lock()

	if !c.awaiting || gen != c.turnGen {
		c.mu.Unlock()
		logging.Debug("Dropping frame outside the outstanding turn",
			"type", f.Type, "generation", gen)
		return
	}

	switch f.Type {
	case FrameMessage:
		c.messages = append(c.messages, Message{Role: RoleAssistant, Content: f.Content})
		c.lastAssistant = len(c.messages) - 1
		c.mu.Unlock()
		c.ui.PrintAssistantResponse(f.Content)

	case FrameVisualization:
		// Attach to the turn's last assistant message. A visualization
		// with no preceding content frame is a protocol violation; fall
		// back to the log tail and never create a new entry.
		idx := c.lastAssistant
		if idx < 0 {
			logging.Warn("Visualization frame with no preceding content frame")
			idx = len(c.messages) - 1
		}
		if idx >= 0 {
			c.messages[idx].Visualization = f.Content
		}
		c.mu.Unlock()
		c.saveVisualization(f.Content)

	case FrameError:
		// Backend-reported error: a distinguishable assistant message.
		// The turn stays open until the end frame arrives.
		c.messages = append(c.messages, Message{Role: RoleAssistant, Content: f.Content, IsError: true})
		c.mu.Unlock()
		c.ui.PrintError(f.Content)

	case FrameEnd:
		c.finishTurnLocked()
		sessionID := c.sessionID
		database := c.selectedDB
		schema := c.selectedSchema
		snapshot := make([]Message, len(c.messages))
		copy(snapshot, c.messages)
		c.mu.Unlock()
		c.archiveConversation(sessionID, database, schema, snapshot)

	default:
		c.mu.Unlock()
		logging.Warn("Discarding frame of unknown type", "type", f.Type)
	}
}

// handleChannelLost is invoked by the controller after the transport
// closed underneath an open connection. An outstanding turn on that
// connection can never complete, so it fails here instead of leaving the
// client gated forever.
func (c *Client) handleChannelLost(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.awaiting || gen != c.turnGen {
		return
	}

	c.messages = append(c.messages, Message{
		Role:    RoleAssistant,
		Content: "Connection lost before the response completed",
		IsError: true,
	})
	c.finishTurnLocked()
	c.ui.PrintError("Connection lost before the response completed")
}

// failTurnLocked abandons an outstanding turn with an inline error
// message. Used when the session context underneath the turn changes.
// Caller must hold c.mu.
func (c *Client) failTurnLocked(reason string) {
	if !c.awaiting {
		return
	}

	c.messages = append(c.messages, Message{Role: RoleAssistant, Content: reason, IsError: true})
	c.finishTurnLocked()
}

// finishTurnLocked returns the turn state to idle and releases any
// waiter. Caller must hold c.mu.
func (c *Client) finishTurnLocked() {
	c.awaiting = false
	if c.turnDone != nil {
		close(c.turnDone)
		c.turnDone = nil
	}
}

// archiveConversation upserts the completed turn's log into the local
// archive. Best effort; the archive never interferes with the session.
func (c *Client) archiveConversation(sessionID, database, schema string, messages []Message) {
	if c.store == nil || sessionID == "" {
		return
	}

	archived := make([]archive.Message, 0, len(messages))
	for _, msg := range messages {
		archived = append(archived, archive.Message{
			Role:          msg.Role,
			Content:       msg.Content,
			Visualization: msg.Visualization,
			IsError:       msg.IsError,
		})
	}

	if err := c.store.Save(sessionID, database, schema, archived); err != nil {
		logging.Warn("Failed to archive conversation", "error", err.Error())
	}
}

// saveVisualization decodes and writes the artifact, then tells the user
// where it landed
func (c *Client) saveVisualization(encoded string) {
	path, err := WriteVisualization(c.config.Storage.VisualizationDir, encoded)
	if err != nil {
		logging.Warn("Failed to save visualization", "error", err.Error())
		return
	}
	c.ui.PrintSystemMessage(fmt.Sprintf("Visualization saved to %s", path))
}
