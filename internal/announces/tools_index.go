package announces

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// IndexArgument defines reindex parameters. The tool takes none.
type IndexArgument struct{}

// IndexHandler handles the index_announces MCP tool.
type IndexHandler struct {
	service *Service
}

// NewIndexHandler creates a new index handler.
func NewIndexHandler(service *Service) *IndexHandler {
	return &IndexHandler{
		service: service,
	}
}

// Handle runs a full reindex and reports the per-announce errors.
func (h *IndexHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args IndexArgument) (*mcp.CallToolResult, any, error) {
	state, err := h.service.Reindex(ctx)
	if err != nil {
		switch {
		case errors.Is(err, ErrIndexerDisabled):
			return errorResult("The announce indexer is disabled"), nil, nil
		case errors.Is(err, ErrNotReady):
			return errorResult("Indexing is not available. The announce index is not open yet. Please try again later."), nil, nil
		default:
			return errorResult(fmt.Sprintf("Indexing failed: %s", err)), nil, nil
		}
	}

	return formatState("Indexation finished", state), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *IndexHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "index_announces",
		Description: "Rebuild the announce search index from the announce store and report any announce that failed to index",
	}
}

// RegisterIndexTool registers the index tool with an MCP server.
func RegisterIndexTool(server *mcp.Server, service *Service) {
	handler := NewIndexHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

// StatusArgument defines status parameters. The tool takes none.
type StatusArgument struct{}

// StatusHandler handles the index_status MCP tool.
type StatusHandler struct {
	service *Service
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(service *Service) *StatusHandler {
	return &StatusHandler{
		service: service,
	}
}

// Handle reports indexer metadata and the outcome of the last run.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgument) (*mcp.CallToolResult, any, error) {
	x := h.service.Indexer()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Indexer: %s %s (%s)\n", x.Name(), x.Version(), x.Description()))
	sb.WriteString(fmt.Sprintf("Enabled: %t\n", x.IsEnabled()))
	sb.WriteString(fmt.Sprintf("Ready: %t\n", h.service.IsReady()))
	sb.WriteString(fmt.Sprintf("Resources: %s\n", strings.Join(x.ResourceNames(), ", ")))

	if index := h.service.currentIndex(); index != nil {
		if count, err := index.DocCount(); err == nil {
			sb.WriteString(fmt.Sprintf("Documents in index: %d\n", count))
		}
	}

	state, err := h.service.State()
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to read last run: %s", err)), nil, nil
	}
	if state.LastRun.IsZero() {
		sb.WriteString("\nNo indexation has run yet\n")
		return textResult(sb.String()), nil, nil
	}

	sb.WriteString("\n")
	sb.WriteString(formatStateText("Last run", state))
	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *StatusHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "index_status",
		Description: "Show the announce indexer configuration and the outcome of the last indexation run",
	}
}

// RegisterStatusTool registers the status tool with an MCP server.
func RegisterStatusTool(server *mcp.Server, service *Service) {
	handler := NewStatusHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

func formatState(header string, state *RunState) *mcp.CallToolResult {
	result := textResult(formatStateText(header, state))
	result.IsError = !state.Succeeded()
	return result
}

func formatStateText(header string, state *RunState) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s at %s in %s\n", header, state.LastRun.Format("2006-01-02 15:04:05 MST"), state.Duration))
	sb.WriteString(fmt.Sprintf("Documents indexed: %d\n", state.Documents))
	sb.WriteString(fmt.Sprintf("Documents removed: %d\n", state.Removed))

	if len(state.Errors) == 0 {
		sb.WriteString("Errors: none\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Errors: %d\n", len(state.Errors)))
	for _, e := range state.Errors {
		sb.WriteString("- ")
		sb.WriteString(e)
		sb.WriteString("\n")
	}
	return sb.String()
}
