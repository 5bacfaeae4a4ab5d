package config

import (
	"os"
	"path/filepath"

	"github.com/ByLCY/factzy/flashcard"
	"github.com/ByLCY/factzy/fonts"
	"github.com/ByLCY/factzy/qa"
	"github.com/ByLCY/factzy/source/wiki"
)

// ConfigOption is one entry of the defaults table.
type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns the default configuration options and their meanings.
// It is the single source of truth for Viper defaults and the generated config file.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "data_dir", Default: defaultDataDir(), Comment: "Directory for local state; history DB is data_dir/factzy.db"},
		{Key: "input_dir", Default: "images", Comment: "Directory scanned by `factzy image` when no paths are given"},

		{Key: "output.dir", Default: "images/output_flashcards", Comment: "Directory receiving rendered cards"},
		{Key: "output.name_template", Default: flashcard.DefaultNameTemplate, Comment: "File name template; variables: subject, index, source"},

		{Key: "font.src", Default: "embed:" + fonts.Default, Comment: "Card font: embed:<name>, or a path to a TTF/OTF file"},
		{Key: "font.size", Default: 16, Comment: "Font size: pixels as 16 or 16px, or points as 12pt"},

		{Key: "wiki.base_url", Default: wiki.DefaultBaseURL, Comment: "Encyclopedia base URL; articles are read from base_url/wiki/<topic>"},
		{Key: "wiki.user_agent", Default: wiki.DefaultUserAgent, Comment: "User-Agent sent with encyclopedia requests"},
		{Key: "wiki.timeout", Default: wiki.DefaultTimeout.String(), Comment: "HTTP timeout for encyclopedia requests"},
		{Key: "wiki.cache_ttl", Default: "24h0m0s", Comment: "How long fetched articles stay cached; 0 disables the cache"},

		{Key: "chat.base_url", Default: qa.DefaultBaseURL, Comment: "OpenAI-compatible endpoint used for Q/A extraction"},
		{Key: "chat.model", Default: qa.DefaultModel, Comment: "Chat model name"},
		{Key: "chat.api_key_env", Default: qa.DefaultAPIKeyEnv, Comment: "Environment variable holding the API key; rule-based Q/A is used when unset"},
		{Key: "chat.timeout", Default: "1m0s", Comment: "HTTP timeout for chat completions"},

		{Key: "ocr.binary", Default: "tesseract", Comment: "Tesseract executable"},
		{Key: "ocr.lang", Default: "eng", Comment: "Tesseract language"},

		{Key: "server.addr", Default: ":8080", Comment: "Listen address for `factzy serve`"},
	}
}

// DefaultDBPath builds the default sqlite DB path from data_dir rules.
func DefaultDBPath() string {
	return filepath.Join(defaultDataDir(), "factzy.db")
}

// defaultDataDir 优先使用 $XDG_DATA_HOME/factzy，否则 ~/.local/share/factzy。
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "factzy")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "factzy")
}

// DefaultConfigPath resolves the standard config.toml location.
func DefaultConfigPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, "factzy", "config.toml")
}

// expandHome 展开开头的 ~。
func expandHome(p string) string {
	if len(p) > 0 && p[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}
