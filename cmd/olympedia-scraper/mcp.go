package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sriram-PR/olympedia-scraper/pkg/mcp"
)

func newMcpServerCmd() *cobra.Command {
	var transport string
	var port int

	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Start an MCP server for AI tool integration",
		Long: `Start an MCP (Model Context Protocol) server.

Available MCP Tools:
  get_entity    Fetch one athlete page and return the extracted record
  get_progress  Report the checkpoint and attempt ledger totals
  get_attempt   Look up the last recorded attempt for one id`,
		Example: `  # Start with stdio transport
  olympedia-scraper mcp-server -c config.yaml

  # Start with SSE transport on port 8080
  olympedia-scraper mcp-server -c config.yaml --transport sse --port 8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := doMcpServer(cfgFile, transport, port, cmd.OutOrStdout(), cmd.ErrOrStderr()); code != 0 {
				return fmt.Errorf("mcp server exited with code %d", code)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type (stdio, sse)")
	cmd.Flags().IntVar(&port, "port", 8080, "HTTP port (for sse transport)")
	return cmd
}

// doMcpServer is the testable implementation of the MCP server
func doMcpServer(configPath, transport string, port int, stdout, stderr io.Writer) int {
	appCfg, warnings, err := loadAndValidateConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	// MCP protocol uses stdout, logs go to stderr
	log := setupLogger(appCfg, stderr)
	for _, w := range warnings {
		log.Warn(w)
	}

	server, err := mcp.NewServer(&mcp.ServerConfig{
		AppConfig:  appCfg,
		ConfigPath: configPath,
		Transport:  transport,
		Port:       port,
		Logger:     log,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error creating MCP server: %v\n", err)
		return 1
	}

	log.Infof("Starting MCP server (transport: %s)", transport)

	if err := server.Run(); err != nil {
		fmt.Fprintf(stderr, "MCP server error: %v\n", err)
		return 1
	}

	return 0
}
