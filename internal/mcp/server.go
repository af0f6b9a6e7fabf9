package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sha1n/announce-search/internal/announces"
)

// ServerConfig contains configuration for creating an MCP server
type ServerConfig struct {
	Name         string
	Version      string
	AnnouncesSvc *announces.Service
}

// CreateServer creates and configures the MCP server
func CreateServer(cfg ServerConfig) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	if cfg.AnnouncesSvc != nil {
		announces.RegisterSearchTool(s, cfg.AnnouncesSvc)
		announces.RegisterIndexTool(s, cfg.AnnouncesSvc)
		announces.RegisterStatusTool(s, cfg.AnnouncesSvc)
	}

	return s
}
