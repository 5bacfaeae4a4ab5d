package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ByLCY/factzy/errors"
)

// RenderDefaultTOML renders a TOML config with defaults from GetConfigOptions.
func RenderDefaultTOML() (string, error) {
	var b strings.Builder
	b.WriteString("# factzy configuration (TOML)\n\n")

	opts := GetConfigOptions()
	topLevel := make([]ConfigOption, 0, len(opts))
	sections := make(map[string][]ConfigOption)
	sectionOrder := make([]string, 0)

	for _, o := range opts {
		section, key, ok := strings.Cut(o.Key, ".")
		if !ok {
			topLevel = append(topLevel, o)
			continue
		}
		if _, seen := sections[section]; !seen {
			sectionOrder = append(sectionOrder, section)
		}
		sections[section] = append(sections[section], ConfigOption{Key: key, Default: o.Default, Comment: o.Comment})
	}

	// 顶层键必须出现在第一个表头之前
	for _, o := range topLevel {
		if err := writeTOMLOption(&b, o); err != nil {
			return "", err
		}
	}
	b.WriteString("\n")

	for _, section := range sectionOrder {
		b.WriteString("[" + section + "]\n")
		for _, o := range sections[section] {
			if err := writeTOMLOption(&b, o); err != nil {
				return "", err
			}
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// writeTOMLOption 写出注释行与单个键值；值交给 toml 编码以保证引号与转义正确。
func writeTOMLOption(b *strings.Builder, o ConfigOption) error {
	if o.Comment != "" {
		b.WriteString("# " + o.Comment + "\n")
	}
	out, err := toml.Marshal(map[string]any{o.Key: o.Default})
	if err != nil {
		return fmt.Errorf("encode %s: %w", o.Key, err)
	}
	b.Write(bytes.TrimSpace(out))
	b.WriteString("\n")
	return nil
}

// WriteDefault writes the default config to path. An existing file is kept unless force is set.
func WriteDefault(path string, force bool) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.New(errors.ErrCodeInvalidInput, "config %s already exists (use --force to overwrite)", path)
		}
	}
	content, err := RenderDefaultTOML()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "render default config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create config dir")
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write config %s", path)
	}
	return nil
}
