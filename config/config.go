// Package config resolves factzy settings from defaults, a TOML file, FACTZY_* environment
// variables and command-line flags, in increasing precedence.
package config

import (
	stderrors "errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ByLCY/factzy/binding"
	"github.com/ByLCY/factzy/errors"
	"github.com/ByLCY/factzy/fonts"
	"github.com/ByLCY/factzy/layout"
)

// Config is the typed view of a loaded Viper instance.
type Config struct {
	DataDir      string
	InputDir     string
	OutputDir    string
	NameTemplate string

	FontSrc  string
	FontSize float64

	Wiki   WikiConfig
	Chat   ChatConfig
	OCR    OCRConfig
	Server ServerConfig
}

type WikiConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	CacheTTL  time.Duration
}

type ChatConfig struct {
	BaseURL   string
	Model     string
	APIKeyEnv string
	Timeout   time.Duration
}

type OCRConfig struct {
	Binary string
	Lang   string
}

type ServerConfig struct {
	Addr string
}

// applyDefaults 将 GetConfigOptions 中的默认值写入 Viper。
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < env.
// Flags are bound by the caller afterwards and win over all three.
// A missing config file is not an error; a malformed one is.
func Load(v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "factzy"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "factzy"))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "read config")
		}
	}

	v.SetEnvPrefix("factzy")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 显式置空的 data_dir 回落到 XDG 默认目录
	if strings.TrimSpace(v.GetString("data_dir")) == "" {
		v.Set("data_dir", defaultDataDir())
	}
	return nil
}

// FromViper reads the typed configuration. Paths starting with ~ are expanded.
func FromViper(v *viper.Viper) Config {
	return Config{
		DataDir:      expandHome(v.GetString("data_dir")),
		InputDir:     expandHome(v.GetString("input_dir")),
		OutputDir:    expandHome(v.GetString("output.dir")),
		NameTemplate: v.GetString("output.name_template"),
		FontSrc:      v.GetString("font.src"),
		FontSize:     fontSizePX(v),
		Wiki: WikiConfig{
			BaseURL:   v.GetString("wiki.base_url"),
			UserAgent: v.GetString("wiki.user_agent"),
			Timeout:   v.GetDuration("wiki.timeout"),
			CacheTTL:  v.GetDuration("wiki.cache_ttl"),
		},
		Chat: ChatConfig{
			BaseURL:   v.GetString("chat.base_url"),
			Model:     v.GetString("chat.model"),
			APIKeyEnv: v.GetString("chat.api_key_env"),
			Timeout:   v.GetDuration("chat.timeout"),
		},
		OCR: OCRConfig{
			Binary: v.GetString("ocr.binary"),
			Lang:   v.GetString("ocr.lang"),
		},
		Server: ServerConfig{Addr: v.GetString("server.addr")},
	}
}

// ResolveDBPath returns the sqlite history file under data_dir.
func ResolveDBPath(v *viper.Viper) string {
	dir := v.GetString("data_dir")
	if dir == "" {
		dir = defaultDataDir()
	}
	return filepath.Join(expandHome(dir), "factzy.db")
}

// CheckValidity reports every invalid setting at once.
func CheckValidity(v *viper.Viper) error {
	var problems []string
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	if strings.TrimSpace(v.GetString("data_dir")) == "" {
		add("data_dir is required")
	}
	if strings.TrimSpace(v.GetString("output.dir")) == "" {
		add("output.dir is required")
	}

	tmpl := v.GetString("output.name_template")
	switch {
	case strings.TrimSpace(tmpl) == "":
		add("output.name_template is required")
	case !strings.Contains(tmpl, "${index}"):
		add("output.name_template must contain ${index}")
	default:
		known := map[string]any{"subject": "", "index": 0, "source": ""} // 与 flashcard.FileName 提供的变量一致
		if missing := binding.Missing(tmpl, known); len(missing) > 0 {
			add("output.name_template has unknown variables: %s", strings.Join(missing, ", "))
		}
	}

	if fontSizePX(v) <= 0 {
		add("font.size must be a positive size such as 16, 16px or 12pt")
	}
	if src := v.GetString("font.src"); strings.HasPrefix(src, "embed:") {
		if _, err := fonts.Load(src); err != nil {
			add("font.src %q is not an embedded font (%s)", src, strings.Join(fonts.Names(), ", "))
		}
	}

	for _, key := range []string{"wiki.base_url", "chat.base_url"} {
		if !validHTTPURL(v.GetString(key)) {
			add("%s has invalid url", key)
		}
	}
	for _, key := range []string{"wiki.timeout", "chat.timeout"} {
		if v.GetDuration(key) <= 0 {
			add("%s must be greater than 0", key)
		}
	}
	if v.GetDuration("wiki.cache_ttl") < 0 {
		add("wiki.cache_ttl must not be negative")
	}
	if strings.TrimSpace(v.GetString("ocr.binary")) == "" {
		add("ocr.binary is required")
	}
	if strings.TrimSpace(v.GetString("server.addr")) == "" {
		add("server.addr is required")
	}

	if len(problems) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// fontSizePX 接受裸数字及 px/pt 后缀，无法解析时返回 0。
func fontSizePX(v *viper.Viper) float64 {
	return layout.ParseLength(v.GetString("font.size")).ToPX()
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
