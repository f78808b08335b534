package main

import (
	"context"

	"github.com/spf13/cobra"

	"failsolver/internal/logging"
	"failsolver/internal/mcpserver"
	"failsolver/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing analyze_failure,
get_analysis and list_analyses tools for agent frontends.

The server monitors for parent process death. When the host disconnects or
restarts, the server self-terminates to prevent zombie processes.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	var st *store.Store
	if cfg.Store.Path != "" {
		opened, err := store.Open(cfg.Store.Path)
		if err != nil {
			logging.New("serve").Warn("history store unavailable", "error", err)
		} else {
			st = opened
			defer st.Close()
		}
	}

	srv := mcpserver.NewServer(cfg, buildGenerator(cfg), st)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	srv.WatchParent(ctx, cancel)

	logging.New("serve").Info("starting failsolver MCP server over stdio (parent watchdog active)")
	return srv.Run(ctx)
}
