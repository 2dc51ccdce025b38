package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Sriram-PR/olympedia-scraper/pkg/extract"
	"github.com/Sriram-PR/olympedia-scraper/pkg/utils"
)

// handleGetEntity handles the get_entity tool
func (s *Server) handleGetEntity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetInt("id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("id parameter must be a positive integer"), nil
	}

	startTime := time.Now()
	page, err := s.fetcher.FetchEntity(ctx, id)
	if err != nil {
		if utils.IsMiss(err) {
			result := map[string]interface{}{
				"id":       id,
				"url":      s.fetcher.EntityURL(id),
				"found":    false,
				"category": utils.CategorizeError(err),
				"error":    err.Error(),
			}
			return mcp.NewToolResultText(formatJSON(result)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch id %d: %v", id, err)), nil
	}

	rec, events := extract.Entity(id, page.Doc)

	result := map[string]interface{}{
		"id":            id,
		"url":           page.URL,
		"found":         true,
		"record":        rec,
		"events":        events,
		"content_hash":  utils.CalculateStringSHA256(string(page.Body)),
		"fetch_time_ms": time.Since(startTime).Milliseconds(),
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetProgress handles the get_progress tool
func (s *Server) handleGetProgress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := map[string]interface{}{
		"checkpoint_path": s.checkpoint.Path(),
		"config_path":     s.cfg.ConfigPath,
	}

	state, err := s.checkpoint.Read()
	switch {
	case err == nil:
		result["last_id"] = state.LastID
		result["updated_at"] = state.UpdatedAt.Format(time.RFC3339)
	case errors.Is(err, fs.ErrNotExist):
		result["last_id"] = 0
	default:
		result["last_id"] = 0
		result["checkpoint_error"] = err.Error()
	}

	ledger, err := s.openLedger()
	if err != nil {
		result["ledger_error"] = err.Error()
		return mcp.NewToolResultText(formatJSON(result)), nil
	}
	defer ledger.Close()

	stats, err := ledger.Stats(ctx)
	if err != nil {
		result["ledger_error"] = err.Error()
		return mcp.NewToolResultText(formatJSON(result)), nil
	}
	result["ledger"] = stats
	result["attempted"] = stats.Total()

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetAttempt handles the get_attempt tool
func (s *Server) handleGetAttempt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetInt("id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("id parameter must be a positive integer"), nil
	}

	ledger, err := s.openLedger()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open attempt ledger: %v", err)), nil
	}
	defer ledger.Close()

	status, entry, err := ledger.GetAttempt(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ledger lookup failed: %v", err)), nil
	}

	result := map[string]interface{}{
		"id":     id,
		"status": status.String(),
	}
	if entry != nil {
		result["entry"] = entry
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// formatJSON formats data as an indented JSON string
func formatJSON(data map[string]interface{}) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(b)
}
