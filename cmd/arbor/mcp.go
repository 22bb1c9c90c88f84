package main

import (
	"context"

	"github.com/aretw0/arbor/pkg/adapters/mcp"
	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the shadow tree as an MCP server",
	Long:  `Starts a Model Context Protocol server over stdio, or over SSE with --sse.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sse, _ := cmd.Flags().GetString("sse")

		s, err := openSession(cmd, nil)
		if err != nil {
			return err
		}
		defer s.Close()

		server := mcp.NewServer(s.engine)
		if sse == "" {
			return server.ServeStdio()
		}

		ctx := lifecycle.NewSignalContext(context.Background())
		defer ctx.Stop()
		return server.ServeSSE(ctx, sse)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("sse", "", "Serve over SSE on this address instead of stdio (e.g. :8081)")
}
