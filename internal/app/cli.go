package app

import "github.com/spf13/pflag"

// RegisterFlags registers all CLI flags on the given FlagSet
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("transport", "t", "", "Transport type: stdio or sse")
	flags.StringP("host", "H", "", "Host for SSE transport")
	flags.IntP("port", "p", 0, "Port for SSE transport")
	flags.StringP("auth-type", "a", "", "Authentication type: none, basic, or apikey")
	flags.StringP("auth-basic-username", "u", "", "Basic auth username")
	flags.StringP("auth-basic-password", "P", "", "Basic auth password")
	flags.StringSliceP("auth-api-keys", "k", nil, "API keys (comma-separated)")
	RegisterIndexFlags(flags)
}

// RegisterIndexFlags registers the flags shared by every command that
// touches the store or the index
func RegisterIndexFlags(flags *pflag.FlagSet) {
	flags.Bool("indexer-enabled", true, "Enable the announce indexer")
	flags.String("base-url", "", "Portal base URL used to build announce links")
	flags.String("site-name", "", "Site name written to every document")
	flags.String("page", "", "Portal page id of the announce plugin")
	flags.StringP("index-dir", "d", "", "Directory holding the search index")
	flags.Duration("lock-timeout", 0, "How long to wait for the index lock")
	flags.IntP("max-results", "m", 0, "Maximum search results per query")
	flags.StringP("store-path", "s", "", "Path of the announce SQLite database")
}
