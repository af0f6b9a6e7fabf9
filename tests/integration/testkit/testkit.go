package testkit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/sha1n/announce-search/internal/app"
	"github.com/sha1n/announce-search/internal/config"
)

// Service represents a test service that can be started and stopped
type Service interface {
	Start() (map[string]any, error)
	Stop() error
	GetName() string
}

// TestEnvContext provides access to properties collected during environment startup
type TestEnvContext interface {
	GetProperties() map[string]any
	GetProperty(name string) (any, bool)
}

// TestEnv manages the lifecycle of test services
type TestEnv interface {
	Start() (map[string]any, error)
	Stop() error
	GetContext() TestEnvContext
}

type testEnvContextImpl struct {
	properties map[string]any
}

func (c *testEnvContextImpl) GetProperties() map[string]any {
	return c.properties
}

func (c *testEnvContextImpl) GetProperty(name string) (any, bool) {
	val, ok := c.properties[name]
	return val, ok
}

type testEnvImpl struct {
	services []Service
	context  *testEnvContextImpl
}

// NewTestEnv creates a new test environment with the given services
func NewTestEnv(services ...Service) TestEnv {
	return &testEnvImpl{
		services: services,
		context:  &testEnvContextImpl{properties: make(map[string]any)},
	}
}

func (e *testEnvImpl) Start() (map[string]any, error) {
	for _, s := range e.services {
		props, err := s.Start()
		if err != nil {
			return nil, err
		}
		for k, v := range props {
			e.context.properties[k] = v
		}
	}
	return e.context.properties, nil
}

func (e *testEnvImpl) Stop() error {
	var lastErr error
	// Stop in reverse order
	for i := len(e.services) - 1; i >= 0; i-- {
		if err := e.services[i].Stop(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (e *testEnvImpl) GetContext() TestEnvContext {
	return e.context
}

// GetFreePort returns a free port from the kernel
func GetFreePort() (int, error) {
	return getFreePortWithAddr("localhost:0")
}

// MustGetFreePort returns a free port or fails the test
func MustGetFreePort(t testing.TB) int {
	t.Helper()
	port, err := GetFreePort()
	if err != nil {
		t.Fatalf("Failed to get free port: %v", err)
	}
	return port
}

func getFreePortWithAddr(addrStr string) (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", addrStr)
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// FlagOptions configures NewTestFlags
type FlagOptions struct {
	Port      int    // Uses free port if 0
	Transport string // Defaults to "sse"
	AuthType  string // Defaults to "none"
	Host      string // Defaults to "localhost"
	DataDir   string // Holds the store and the index; defaults to t.TempDir()
}

// NewTestFlags creates a configured pflag.FlagSet for testing
func NewTestFlags(t testing.TB, opts *FlagOptions) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	app.RegisterFlags(flags)

	port := 0
	transport := "sse"
	authType := "none"
	host := "localhost"
	dataDir := ""

	if opts != nil {
		if opts.Port != 0 {
			port = opts.Port
		}
		if opts.Transport != "" {
			transport = opts.Transport
		}
		if opts.AuthType != "" {
			authType = opts.AuthType
		}
		if opts.Host != "" {
			host = opts.Host
		}
		dataDir = opts.DataDir
	}

	if dataDir == "" {
		dataDir = t.TempDir()
	}

	if port == 0 {
		port = MustGetFreePort(t)
	}

	_ = flags.Set("port", fmt.Sprintf("%d", port))
	_ = flags.Set("transport", transport)
	_ = flags.Set("auth-type", authType)
	_ = flags.Set("host", host)
	_ = flags.Set("store-path", filepath.Join(dataDir, "announces.db"))
	_ = flags.Set("index-dir", filepath.Join(dataDir, "index"))

	return flags
}

// ServerService runs the SSE server built from a flag set
type ServerService struct {
	flags   *pflag.FlagSet
	srv     *http.Server
	cleanup func()
	done    chan error
}

// NewServerService creates a service that serves the MCP server over SSE
func NewServerService(flags *pflag.FlagSet) *ServerService {
	return &ServerService{flags: flags}
}

// GetName returns the service name
func (s *ServerService) GetName() string {
	return "announce-search"
}

// Start loads settings, starts listening and waits until /health answers.
// It publishes "base_url" and "settings".
func (s *ServerService) Start() (map[string]any, error) {
	settings, err := config.LoadSettingsWithFlags(s.flags)
	if err != nil {
		return nil, err
	}
	if err := config.ValidateSettings(settings); err != nil {
		return nil, err
	}

	mcpServer, cleanup, err := app.CreateMCPServer(settings)
	if err != nil {
		return nil, err
	}
	s.cleanup = cleanup

	srv, err := app.NewSSEServer(mcpServer, settings)
	if err != nil {
		s.runCleanup()
		return nil, err
	}
	s.srv = srv
	s.done = make(chan error, 1)

	go func() {
		s.done <- srv.ListenAndServe()
	}()

	baseURL := fmt.Sprintf("http://%s", srv.Addr)
	if err := waitHealthy(baseURL+"/health", 5*time.Second); err != nil {
		_ = s.Stop()
		return nil, err
	}

	return map[string]any{
		"base_url": baseURL,
		"settings": settings,
	}, nil
}

// Stop shuts the HTTP server down and releases the index
func (s *ServerService) Stop() error {
	var err error
	if s.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.srv.Shutdown(ctx)
		if serveErr := <-s.done; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			err = errors.Join(err, serveErr)
		}
		s.srv = nil
	}
	s.runCleanup()
	return err
}

func (s *ServerService) runCleanup() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

func waitHealthy(url string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	return fmt.Errorf("server at %s not healthy after %s", url, timeout)
}
