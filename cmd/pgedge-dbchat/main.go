/*-------------------------------------------------------------------------
 *
 * pgEdge DB Chat Client
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pgedge-dbchat/internal/chat"
)

const version = "1.0.0-alpha1"

var (
	configFile  string
	serverURL   string
	sessionFile string
	dataDir     string
	noColor     bool
	showVersion bool
)

var rootCmd = &cobra.Command{
	Use:   "pgedge-dbchat",
	Short: "pgEdge DB Chat - converse with your database in natural language",
	Long: `pgedge-dbchat is a terminal client for the pgEdge natural-language query
service. Pick a database and schema, then ask questions in plain language;
the backend translates them to SQL, runs them, and streams back answers
and visualizations.

Chat history is tied to a durable local session identity and restored on
startup. Completed conversations are also archived locally.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "",
		"Path to configuration file")
	rootCmd.Flags().StringVar(&serverURL, "server-url", "",
		"Backend base URL (overrides config file)")
	rootCmd.Flags().StringVar(&sessionFile, "session-file", "",
		"Path to the session identity file (overrides config file)")
	rootCmd.Flags().StringVar(&dataDir, "data-dir", "",
		"Directory for local conversation archive (overrides config file)")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false,
		"Disable colored output")
	rootCmd.Flags().BoolVar(&showVersion, "version", false,
		"Show version and exit")
}

func run(cmd *cobra.Command, args []string) error {
	if showVersion {
		fmt.Printf("pgEdge DB Chat Client v%s\n", version)
		return nil
	}

	cfg, err := chat.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Command line flags override config
	if serverURL != "" {
		cfg.Server.URL = serverURL
	}
	if sessionFile != "" {
		cfg.Storage.SessionFile = sessionFile
	}
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if noColor {
		cfg.UI.NoColor = true
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nReceived interrupt signal. Shutting down...")
		cancel()
	}()

	client, err := chat.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create chat client: %w", err)
	}
	defer client.Close()

	if err := client.Start(ctx); err != nil {
		return err
	}

	return client.Run(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
