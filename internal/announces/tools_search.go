package announces

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sha1n/announce-search/internal/domain"
)

// SearchArgument defines search parameters.
type SearchArgument struct {
	Query    string `json:"query" jsonschema_description:"Search query matched against announce title, content and tags"`
	Category string `json:"category,omitempty" jsonschema_description:"Filter by category label (exact match)"`
}

// SearchHandler handles the search MCP tool.
type SearchHandler struct {
	service *Service
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service *Service) *SearchHandler {
	return &SearchHandler{
		service: service,
	}
}

// Handle executes the search and returns formatted results.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	if !h.service.IsReady() {
		return errorResult("Search is not available. The announce index is not open yet. Please try again later."), nil, nil
	}

	if strings.TrimSpace(args.Query) == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}

	results, err := h.service.Search(SearchQuery{
		Text:     args.Query,
		Category: strings.TrimSpace(args.Category),
	})
	if err != nil {
		return errorResult(fmt.Sprintf("Search failed: %s", err)), nil, nil
	}

	return h.formatResults(results, args.Query), nil, nil
}

// formatResults formats Bleve search results for MCP response.
func (h *SearchHandler) formatResults(results *bleve.SearchResult, queryStr string) *mcp.CallToolResult {
	if results.Total == 0 {
		return textResult(fmt.Sprintf("No announces found for query: %s", queryStr))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d announces for '%s':\n\n", results.Total, queryStr))

	for i, hit := range results.Hits {
		title, _ := hit.Fields[domain.FieldTitle].(string)
		url, _ := hit.Fields[domain.FieldURL].(string)

		sb.WriteString(fmt.Sprintf("### %d. %s\n", i+1, title))
		sb.WriteString(fmt.Sprintf("**UID**: %s\n", hit.ID))
		if url != "" {
			sb.WriteString(fmt.Sprintf("**URL**: %s\n", url))
		}
		if category := fieldString(hit.Fields[domain.FieldCategories]); category != "" {
			sb.WriteString(fmt.Sprintf("**Category**: %s\n", category))
		}
		if tags, ok := hit.Fields[domain.FieldTags].(string); ok && tags != "" {
			sb.WriteString(fmt.Sprintf("**Tags**: %s\n", tags))
		}
		sb.WriteString(fmt.Sprintf("**Score**: %.4f\n", hit.Score))

		if fragments, ok := hit.Fragments[domain.FieldContent]; ok {
			sb.WriteString("\n")
			for _, fragment := range fragments {
				sb.WriteString("> ")
				sb.WriteString(fragment)
				sb.WriteString("\n")
			}
		}

		sb.WriteString("\n")
	}

	if results.Total > uint64(len(results.Hits)) {
		sb.WriteString(fmt.Sprintf("... and %d more results\n", results.Total-uint64(len(results.Hits))))
	}

	return textResult(sb.String())
}

// fieldString renders a stored field that may hold one value or many.
func fieldString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_announces",
		Description: "Search indexed announces using full-text search, optionally filtered by category",
	}
}

// RegisterSearchTool registers the search tool with an MCP server.
func RegisterSearchTool(server *mcp.Server, service *Service) {
	handler := NewSearchHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	result := textResult(text)
	result.IsError = true
	return result
}
