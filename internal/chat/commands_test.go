/*-------------------------------------------------------------------------
 *
 * Slash Command Tests
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package chat

import (
	"context"
	"reflect"
	"testing"
)

func TestParseSlashCommand(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *SlashCommand
	}{
		{
			name:  "not a slash command",
			input: "show me the orders",
			want:  nil,
		},
		{
			name:  "bare slash",
			input: "/",
			want:  nil,
		},
		{
			name:  "command without args",
			input: "/databases",
			want:  &SlashCommand{Command: "databases", Args: []string{}},
		},
		{
			name:  "command with args",
			input: "/use employees public",
			want:  &SlashCommand{Command: "use", Args: []string{"employees", "public"}},
		},
		{
			name:  "quoted argument",
			input: `/use "sales db" reporting`,
			want:  &SlashCommand{Command: "use", Args: []string{"sales db", "reporting"}},
		},
		{
			name:  "single quoted argument",
			input: "/use 'sales db'",
			want:  &SlashCommand{Command: "use", Args: []string{"sales db"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSlashCommand(tt.input)
			if tt.want == nil {
				if got != nil {
					t.Errorf("ParseSlashCommand(%q) = %+v, want nil", tt.input, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseSlashCommand(%q) = nil, want %+v", tt.input, tt.want)
			}
			if got.Command != tt.want.Command {
				t.Errorf("Command = %q, want %q", got.Command, tt.want.Command)
			}
			if !reflect.DeepEqual(got.Args, tt.want.Args) {
				t.Errorf("Args = %v, want %v", got.Args, tt.want.Args)
			}
		})
	}
}

func TestParseQuotedArgs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple words",
			input: "one two three",
			want:  []string{"one", "two", "three"},
		},
		{
			name:  "extra spaces",
			input: "one   two",
			want:  []string{"one", "two"},
		},
		{
			name:  "double quotes",
			input: `say "hello world"`,
			want:  []string{"say", "hello world"},
		},
		{
			name:  "escaped quote inside quotes",
			input: `say "he said \"hi\""`,
			want:  []string{"say", `he said "hi"`},
		},
		{
			name:  "escaped backslash inside quotes",
			input: `path "C:\\data"`,
			want:  []string{"path", `C:\data`},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseQuotedArgs(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseQuotedArgs(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestHandleSlashCommandDispatch(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	if c.HandleSlashCommand(ctx, nil) {
		t.Error("nil command should not be handled")
	}

	if c.HandleSlashCommand(ctx, &SlashCommand{Command: "bogus"}) {
		t.Error("unknown command should not be handled")
	}

	for _, name := range []string{"databases", "status", "history"} {
		if !c.HandleSlashCommand(ctx, &SlashCommand{Command: name}) {
			t.Errorf("/%s should be handled", name)
		}
	}
}

func TestHandleSetCommand(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	c.ui.RenderMarkdown = true
	if !c.HandleSlashCommand(ctx, &SlashCommand{Command: "set", Args: []string{"markdown", "off"}}) {
		t.Fatal("/set should be handled")
	}
	if c.ui.RenderMarkdown {
		t.Error("markdown rendering should be disabled")
	}
	if c.config.UI.RenderMarkdown {
		t.Error("config should track the markdown setting")
	}

	if !c.HandleSlashCommand(ctx, &SlashCommand{Command: "set", Args: []string{"status-messages", "on"}}) {
		t.Fatal("/set should be handled")
	}
	if !c.ui.DisplayStatusMessages {
		t.Error("status messages should be enabled")
	}
}

func TestHandleUseCommand(t *testing.T) {
	c, ft := newTestClient(t)
	c.databases = testCatalog()
	ctx := context.Background()

	if !c.HandleSlashCommand(ctx, &SlashCommand{Command: "use", Args: []string{"sales", "public"}}) {
		t.Fatal("/use should be handled")
	}

	db, schema := c.Selection()
	if db != "sales" || schema != "public" {
		t.Errorf("Selection() = %q/%q, want sales/public", db, schema)
	}
	if len(ft.connects) == 0 {
		t.Error("expected a connect after full selection")
	}
}
