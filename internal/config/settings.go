package config

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the settings loader.
const EnvPrefix = "ANNOUNCE_SEARCH"

// Auth type constants
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "apikey"
)

// AuthSettings configuration for authentication
type AuthSettings struct {
	Type    string            `mapstructure:"type"` // AuthTypeNone, AuthTypeBasic, or AuthTypeAPIKey
	Basic   BasicAuthSettings `mapstructure:"basic"`
	APIKeys []string          `mapstructure:"api_keys"`
}

// BasicAuthSettings configuration for basic auth
type BasicAuthSettings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// IndexerSettings configuration for the announce indexer
type IndexerSettings struct {
	Enabled         bool          `mapstructure:"enabled"`
	Name            string        `mapstructure:"name"`
	Description     string        `mapstructure:"description"`
	Version         string        `mapstructure:"version"`
	TagsLabel       string        `mapstructure:"tags_label"`
	TagsDescription string        `mapstructure:"tags_description"`
	BaseURL         string        `mapstructure:"base_url"`
	SiteName        string        `mapstructure:"site_name"`
	Page            string        `mapstructure:"page"`
	IndexDir        string        `mapstructure:"index_dir"`
	LockTimeout     time.Duration `mapstructure:"lock_timeout"`
	MaxResults      int           `mapstructure:"max_results"`
}

// StoreSettings configuration for the announce record store
type StoreSettings struct {
	Path string `mapstructure:"path"`
}

// Settings application settings
type Settings struct {
	Transport string          `mapstructure:"transport"`
	Host      string          `mapstructure:"host"`
	Port      int             `mapstructure:"port"`
	Auth      AuthSettings    `mapstructure:"auth"`
	Indexer   IndexerSettings `mapstructure:"indexer"`
	Store     StoreSettings   `mapstructure:"store"`
}

// flagBindings maps config keys to CLI flag names.
var flagBindings = map[string]string{
	"transport":            "transport",
	"host":                 "host",
	"port":                 "port",
	"auth.type":            "auth-type",
	"auth.basic.username":  "auth-basic-username",
	"auth.basic.password":  "auth-basic-password",
	"auth.api_keys":        "auth-api-keys",
	"indexer.enabled":      "indexer-enabled",
	"indexer.base_url":     "base-url",
	"indexer.site_name":    "site-name",
	"indexer.page":         "page",
	"indexer.index_dir":    "index-dir",
	"indexer.lock_timeout": "lock-timeout",
	"indexer.max_results":  "max-results",
	"store.path":           "store-path",
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	v.SetDefault("transport", "stdio")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("auth.type", AuthTypeNone)

	v.SetDefault("indexer.enabled", true)
	v.SetDefault("indexer.name", "AnnounceIndexer")
	v.SetDefault("indexer.description", "Announce indexer")
	v.SetDefault("indexer.version", "1.0.0")
	v.SetDefault("indexer.tags_label", "Tags")
	v.SetDefault("indexer.tags_description", "Announce tags")
	v.SetDefault("indexer.base_url", "http://localhost:8080/portal/jsp/site/Portal.jsp")
	v.SetDefault("indexer.site_name", "lutece")
	v.SetDefault("indexer.page", "announce")
	v.SetDefault("indexer.index_dir", filepath.Join(defaultBaseDir(), "index"))
	v.SetDefault("indexer.lock_timeout", 30*time.Second)
	v.SetDefault("indexer.max_results", 20)

	v.SetDefault("store.path", filepath.Join(defaultBaseDir(), "announces.db"))

	// ANNOUNCE_SEARCH_INDEXER_BASE_URL -> indexer.base_url
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about
	for _, key := range []string{"auth.basic.username", "auth.basic.password", "auth.api_keys"} {
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}

	if flags != nil {
		for key, name := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	// Comma-separated env value arrives as a single element
	apiKeysEnv := os.Getenv(EnvPrefix + "_AUTH_API_KEYS")
	if apiKeysEnv != "" {
		if len(settings.Auth.APIKeys) == 0 || (len(settings.Auth.APIKeys) == 1 && strings.Contains(settings.Auth.APIKeys[0], ",")) {
			settings.Auth.APIKeys = strings.Split(apiKeysEnv, ",")
		}
	}
	for i := range settings.Auth.APIKeys {
		settings.Auth.APIKeys[i] = strings.TrimSpace(settings.Auth.APIKeys[i])
	}

	settings.Indexer.IndexDir = expandHomeDir(settings.Indexer.IndexDir)
	settings.Store.Path = expandHomeDir(settings.Store.Path)

	return &settings, nil
}

// defaultBaseDir returns the default directory for the index and the store
func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".announce-search"
	}
	return filepath.Join(home, ".announce-search")
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}

// ValidateSettings checks for conflicting configurations.
// Returns an error if the settings contain mutually exclusive or incomplete auth config.
func ValidateSettings(s *Settings) error {
	switch s.Transport {
	case "stdio", "sse":
		// valid
	default:
		return errors.New("transport must be 'stdio' or 'sse', got: " + s.Transport)
	}

	if err := validateAuthSettings(&s.Auth); err != nil {
		return err
	}

	if err := ValidateIndexerSettings(&s.Indexer); err != nil {
		return err
	}

	if s.Store.Path == "" {
		return errors.New("store-path cannot be empty")
	}

	return nil
}

func validateAuthSettings(a *AuthSettings) error {
	hasBasicCreds := a.Basic.Username != "" || a.Basic.Password != ""
	hasAPIKeys := len(a.APIKeys) > 0

	switch a.Type {
	case AuthTypeNone, "":
		if hasBasicCreds || hasAPIKeys {
			return errors.New("auth-type 'none' is incompatible with auth credentials")
		}
	case AuthTypeBasic:
		if hasAPIKeys {
			return errors.New("auth-type 'basic' is mutually exclusive with auth-api-keys")
		}
		if a.Basic.Username == "" || a.Basic.Password == "" {
			return errors.New("auth-type 'basic' requires both username and password")
		}
	case AuthTypeAPIKey:
		if hasBasicCreds {
			return errors.New("auth-type 'apikey' is mutually exclusive with basic auth credentials")
		}
		if !hasAPIKeys {
			return errors.New("auth-type 'apikey' requires at least one API key")
		}
	default:
		return errors.New("unknown auth-type: " + a.Type)
	}
	return nil
}

// ValidateIndexerSettings validates the indexer configuration. It applies even
// when the indexer is disabled, since the index is still opened for search.
func ValidateIndexerSettings(s *IndexerSettings) error {
	if s.BaseURL == "" {
		return errors.New("base-url cannot be empty")
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("base-url must be an absolute URL, got: " + s.BaseURL)
	}

	if s.Page == "" {
		return errors.New("page cannot be empty")
	}

	if s.IndexDir == "" {
		return errors.New("index-dir cannot be empty")
	}

	if s.LockTimeout <= 0 {
		return errors.New("lock-timeout must be positive")
	}

	if s.MaxResults <= 0 {
		return errors.New("max-results must be positive")
	}

	return nil
}
