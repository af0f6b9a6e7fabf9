package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/sha1n/announce-search/internal/announces"
	"github.com/sha1n/announce-search/internal/config"
	mcputil "github.com/sha1n/announce-search/internal/mcp"
	"github.com/sha1n/announce-search/internal/store"
)

// ServerName is the MCP implementation name
const ServerName = "announce-search"

// ErrIndexationFailed is returned by RunIndex when at least one announce failed to index
var ErrIndexationFailed = errors.New("some announces failed to index")

// RunParams contains dependencies for the run function
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	StartSSEServer    func(*mcp.Server, *config.Settings) error
	CreateServer      func(*config.Settings) (*mcp.Server, func(), error)
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:   config.LoadSettingsWithFlags,
		ValidSettings:  config.ValidateSettings,
		StartSSEServer: StartSSEServer,
		CreateServer:   CreateMCPServer,
	}
}

func configureLogging() {
	// Always use stderr, stdout may carry the stdio transport
	handler := slog.NewTextHandler(os.Stderr, nil)
	slog.SetDefault(slog.New(handler))
}

// RunWithDeps executes the server with the provided dependencies
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	// Load settings
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Validate settings for conflicting configurations
	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	configureLogging()

	slog.Info("Starting announce search server", "version", version)
	config.Log(settings)

	mcpServer, cleanup, err := params.CreateServer(settings)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	// Start server
	if settings.Transport == "stdio" {
		// Use custom transport if provided (for testing), otherwise use stdio
		transport := params.CustomIOTransport
		if transport == nil {
			transport = &mcp.StdioTransport{}
		}
		return mcpServer.Run(ctx, transport)
	}

	slog.Info("Starting SSE server", "host", settings.Host, "port", settings.Port)
	return params.StartSSEServer(mcpServer, settings)
}

// openService opens the store and an initialized announces service. The
// returned cleanup closes both.
func openService(ctx context.Context, settings *config.Settings, reg prometheus.Registerer) (*announces.Service, func(), error) {
	st, err := store.Open(settings.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open announce store: %w", err)
	}

	var metrics *announces.Metrics
	if reg != nil {
		metrics = announces.NewMetrics(reg)
	}

	svc, err := announces.NewService(&settings.Indexer, st, metrics)
	if err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("failed to create announces service: %w", err)
	}

	if err := svc.Initialize(ctx); err != nil {
		if closeErr := svc.Close(); closeErr != nil {
			slog.Error("Failed to close announces service", "error", closeErr)
		}
		_ = st.Close()
		return nil, nil, fmt.Errorf("failed to initialize announce index: %w", err)
	}

	cleanup := func() {
		if err := svc.Close(); err != nil {
			slog.Error("Failed to close announces service", "error", err)
		}
		if err := st.Close(); err != nil {
			slog.Error("Failed to close announce store", "error", err)
		}
	}
	return svc, cleanup, nil
}

// CreateMCPServer creates the MCP server with registered tools
func CreateMCPServer(settings *config.Settings) (*mcp.Server, func(), error) {
	// Initialize in background context (not tied to request context)
	ctx := context.Background()

	svc, cleanup, err := openService(ctx, settings, prometheus.DefaultRegisterer)
	if err != nil {
		// Serve without tools rather than failing the whole server
		slog.Error("Announce index initialization failed", "error", err)
		svc, cleanup = nil, nil
	} else if settings.Indexer.Enabled {
		indexIfNeverRun(ctx, svc)
	}

	server := mcputil.CreateServer(mcputil.ServerConfig{
		Name:         ServerName,
		Version:      "1.0.0",
		AnnouncesSvc: svc,
	})

	return server, cleanup, nil
}

// indexIfNeverRun builds the index once when no previous run is recorded.
func indexIfNeverRun(ctx context.Context, svc *announces.Service) {
	state, err := svc.State()
	if err != nil {
		slog.Warn("Failed to read last run state", "error", err)
		return
	}
	if !state.LastRun.IsZero() {
		return
	}
	if _, err := svc.Reindex(ctx); err != nil {
		slog.Error("Initial announce indexation failed", "error", err)
	}
}

// RunIndex rebuilds the index once and writes a report to out. It returns
// ErrIndexationFailed when any announce failed to index.
func RunIndex(ctx context.Context, flags *pflag.FlagSet, out io.Writer) error {
	settings, err := loadIndexSettings(flags)
	if err != nil {
		return err
	}

	svc, cleanup, err := openService(ctx, settings, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	state, err := svc.Reindex(ctx)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Indexed %d announces (%d removed) in %s\n", state.Documents, state.Removed, state.Duration)
	for _, msg := range state.Errors {
		_, _ = fmt.Fprintln(out, msg)
	}

	if !state.Succeeded() {
		return fmt.Errorf("%w: %d errors", ErrIndexationFailed, len(state.Errors))
	}
	return nil
}

// RunImport loads a YAML file of categories and announces into the store.
func RunImport(ctx context.Context, flags *pflag.FlagSet, path string, out io.Writer) error {
	settings, err := loadIndexSettings(flags)
	if err != nil {
		return err
	}

	data, err := store.LoadFile(path)
	if err != nil {
		return err
	}

	st, err := store.Open(settings.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open announce store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("Failed to close announce store", "error", err)
		}
	}()

	n, err := store.Import(ctx, st, data)
	if err != nil {
		return err
	}

	slog.Info("Import complete", "file", path, "announces", n)
	_, _ = fmt.Fprintf(out, "Imported %d announces into %s\n", n, settings.Store.Path)
	return nil
}

func loadIndexSettings(flags *pflag.FlagSet) (*config.Settings, error) {
	settings, err := config.LoadSettingsWithFlags(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if err := config.ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	configureLogging()
	config.Log(settings)
	return settings, nil
}
