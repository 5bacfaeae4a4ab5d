package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/factzy/errors"
	"github.com/ByLCY/factzy/flashcard"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

func TestCheckValidityDefaults(t *testing.T) {
	v := viper.New()
	applyDefaults(v)
	require.NoError(t, CheckValidity(v))
}

func TestCheckValidityInvalid(t *testing.T) {
	v := viper.New()
	applyDefaults(v)
	v.Set("data_dir", "")
	v.Set("output.dir", " ")
	v.Set("output.name_template", "${subject}_${topic}.png")
	v.Set("font.size", 0)
	v.Set("font.src", "embed:comic-sans")
	v.Set("wiki.base_url", "not a url")
	v.Set("chat.timeout", "0s")
	v.Set("wiki.cache_ttl", "-1h")
	v.Set("server.addr", "")

	err := CheckValidity(v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	msg := err.Error()
	for _, want := range []string{
		"data_dir is required",
		"output.dir is required",
		"output.name_template must contain ${index}",
		"font.size must be a positive size",
		`font.src "embed:comic-sans" is not an embedded font`,
		"wiki.base_url has invalid url",
		"chat.timeout must be greater than 0",
		"wiki.cache_ttl must not be negative",
		"server.addr is required",
	} {
		assert.Contains(t, msg, want)
	}
}

func TestCheckValidityUnknownTemplateVariable(t *testing.T) {
	v := viper.New()
	applyDefaults(v)
	v.Set("output.name_template", "${index}_${topic}.png")

	err := CheckValidity(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown variables: topic")
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "factzy.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
input_dir = "scans"

[output]
dir = "cards"

[font]
size = 20

[wiki]
timeout = "3s"
`), 0o644))
	t.Setenv("FACTZY_FONT_SIZE", "24")
	t.Setenv("FACTZY_OCR_LANG", "deu")

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, Load(v))

	cfg := FromViper(v)
	assert.Equal(t, "scans", cfg.InputDir)
	assert.Equal(t, "cards", cfg.OutputDir)
	assert.Equal(t, 24.0, cfg.FontSize, "env overrides file")
	assert.Equal(t, "deu", cfg.OCR.Lang)
	assert.Equal(t, 3*time.Second, cfg.Wiki.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Wiki.CacheTTL)
	assert.Equal(t, flashcard.DefaultNameTemplate, cfg.NameTemplate)
	assert.Equal(t, filepath.Join(dir, "data", "factzy"), cfg.DataDir)
}

func TestFontSizeUnits(t *testing.T) {
	v := viper.New()
	applyDefaults(v)
	v.Set("font.size", "12pt")
	assert.InDelta(t, 16.0, FromViper(v).FontSize, 1e-9)
	v.Set("font.size", "20px")
	assert.Equal(t, 20.0, FromViper(v).FontSize)
	v.Set("font.size", "huge")
	assert.Error(t, CheckValidity(v))
}

func TestLoadWithoutConfigFileUsesDefaults(t *testing.T) {
	isolateEnv(t)
	v := viper.New()
	require.NoError(t, Load(v))
	cfg := FromViper(v)
	assert.Equal(t, "images/output_flashcards", cfg.OutputDir)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 16.0, cfg.FontSize)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("output = [unterminated"), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	err := Load(v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestResolveDBPathExpandsHome(t *testing.T) {
	home := isolateEnv(t)
	v := viper.New()
	v.Set("data_dir", "~/factzy-data")
	assert.Equal(t, filepath.Join(home, "factzy-data", "factzy.db"), ResolveDBPath(v))

	v.Set("data_dir", "")
	assert.Equal(t, DefaultDBPath(), ResolveDBPath(v))
}

func TestRenderDefaultTOMLParsesBackToDefaults(t *testing.T) {
	isolateEnv(t)
	content, err := RenderDefaultTOML()
	require.NoError(t, err)
	assert.Contains(t, content, "# File name template; variables: subject, index, source")

	var decoded map[string]any
	_, err = toml.Decode(content, &decoded)
	require.NoError(t, err)

	output, ok := decoded["output"].(map[string]any)
	require.True(t, ok, "missing [output] table")
	assert.Equal(t, flashcard.DefaultNameTemplate, output["name_template"])
	font, ok := decoded["font"].(map[string]any)
	require.True(t, ok, "missing [font] table")
	assert.Equal(t, int64(16), font["size"])
	assert.Equal(t, "images", decoded["input_dir"])
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "nested", "config.toml")

	require.NoError(t, WriteDefault(path, false))
	err := WriteDefault(path, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	require.NoError(t, WriteDefault(path, true))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, Load(v))
	require.NoError(t, CheckValidity(v))
}

func TestDefaultConfigPathHonoursXDG(t *testing.T) {
	dir := isolateEnv(t)
	assert.Equal(t, filepath.Join(dir, "config", "factzy", "config.toml"), DefaultConfigPath())
}
