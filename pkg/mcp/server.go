package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/olympedia-scraper/pkg/checkpoint"
	"github.com/Sriram-PR/olympedia-scraper/pkg/config"
	"github.com/Sriram-PR/olympedia-scraper/pkg/fetch"
	"github.com/Sriram-PR/olympedia-scraper/pkg/models"
	"github.com/Sriram-PR/olympedia-scraper/pkg/storage"
)

const (
	serverName    = "olympedia-scraper"
	serverVersion = "1.1.0"
)

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	AppConfig  *config.AppConfig
	ConfigPath string
	Transport  string // "stdio" or "sse"
	Port       int
	Logger     *logrus.Logger
}

// entityFetcher retrieves one entity document
type entityFetcher interface {
	FetchEntity(ctx context.Context, id int) (*fetch.Page, error)
	EntityURL(id int) string
}

// ledgerReader is the read side of the attempt ledger
type ledgerReader interface {
	GetAttempt(id int) (models.AttemptStatus, *models.AttemptEntry, error)
	Stats(ctx context.Context) (models.LedgerStats, error)
	Close() error
}

// Server wraps the MCP server with scraper specific tools
type Server struct {
	mcpServer  *server.MCPServer
	cfg        *ServerConfig
	log        *logrus.Entry
	fetcher    entityFetcher
	checkpoint *checkpoint.Store

	// openLedger opens the ledger read-only for one call and is closed after it.
	// While a crawl holds the lock the store reads a snapshot copy instead.
	openLedger func() (ledgerReader, error)
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("AppConfig is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
	)

	log := cfg.Logger.WithField("component", "mcp")
	appCfg := cfg.AppConfig
	client := fetch.NewClient(appCfg.HTTPClientSettings, log)
	limiter := fetch.NewRequestLimiter(appCfg.RequestsPerSecond)

	s := &Server{
		mcpServer:  mcpServer,
		cfg:        cfg,
		log:        log,
		fetcher:    fetch.NewFetcher(client, appCfg, limiter, log),
		checkpoint: checkpoint.NewStore(appCfg.CheckpointPath, log),
	}
	s.openLedger = func() (ledgerReader, error) {
		return storage.NewBadgerStore(appCfg.StateDir, storage.Options{ReadOnly: true}, log)
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// get_entity - Fetch and extract one identifier
	getEntityTool := mcp.NewTool("get_entity",
		mcp.WithDescription("Fetch one athlete page by numeric id and return the extracted record and its events as JSON"),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Numeric athlete identifier"),
		),
	)
	s.mcpServer.AddTool(getEntityTool, s.handleGetEntity)

	// get_progress - Checkpoint and ledger summary
	getProgressTool := mcp.NewTool("get_progress",
		mcp.WithDescription("Report the crawl checkpoint and the found/missed totals recorded in the attempt ledger"),
	)
	s.mcpServer.AddTool(getProgressTool, s.handleGetProgress)

	// get_attempt - Ledger lookup for one identifier
	getAttemptTool := mcp.NewTool("get_attempt",
		mcp.WithDescription("Look up the last recorded attempt for one identifier"),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Numeric athlete identifier"),
		),
	)
	s.mcpServer.AddTool(getAttemptTool, s.handleGetAttempt)

	s.log.Infof("Registered %d MCP tools", 3)
}

// Run starts the MCP server with the configured transport
func (s *Server) Run() error {
	switch s.cfg.Transport {
	case "stdio":
		s.log.Info("Starting MCP server with stdio transport")
		return server.ServeStdio(s.mcpServer)
	case "sse":
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		s.log.Infof("Starting MCP server with SSE transport on %s", addr)
		sseServer := server.NewSSEServer(s.mcpServer)
		return sseServer.Start(addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.Transport)
	}
}
