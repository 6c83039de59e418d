// Package config handles the chatdeck data directory and user configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/diogo/chatdeck/internal/content"
)

// HomeEnv overrides the data directory.
const HomeEnv = "CHATDECK_HOME"

const (
	dirName        = ".chatdeck"
	configFileName = "config.json"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // glamour style name or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	DefaultModel string `json:"default_model"`
	// ModelsURL is the model descriptor source, an http(s) URL or a local path.
	ModelsURL  string `json:"models_url"`
	APIBaseURL string `json:"api_base_url"`
	// APIKeyEnv names the environment variable holding the provider key.
	// The key itself is never written to disk.
	APIKeyEnv string `json:"api_key_env"`
	// StorageQuotaBytes bounds the encoded chat list.
	StorageQuotaBytes int64 `json:"storage_quota_bytes"`
	// EnterToSubmit makes Enter generate in the composer and save in edit
	// mode. Shift/Alt+Enter then inserts a newline.
	EnterToSubmit bool           `json:"enter_to_submit"`
	MarkdownMode  bool           `json:"markdown_mode"`
	InlineLatex   bool           `json:"inline_latex"`
	ImageDetail   content.Detail `json:"image_detail"`
	// Verbose enables debug logging to the log file.
	Verbose     bool           `json:"verbose"`
	TUITheme    string         `json:"tui_theme,omitempty"`    // TUI color theme
	DownloadDir string         `json:"download_dir,omitempty"` // Directory for saved attachments
	Markdown    MarkdownConfig `json:"markdown,omitempty"`
}

// Default values
const (
	DefaultModel        = "gpt-4o"
	DefaultModelsURL    = "https://openrouter.ai/api/v1/models"
	DefaultAPIBaseURL   = "https://openrouter.ai/api/v1"
	DefaultAPIKeyEnv    = "OPENROUTER_API_KEY"
	DefaultStorageQuota = 5 << 20
	DefaultTUITheme     = "tokyonight"
)

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		DefaultModel:      DefaultModel,
		ModelsURL:         DefaultModelsURL,
		APIBaseURL:        DefaultAPIBaseURL,
		APIKeyEnv:         DefaultAPIKeyEnv,
		StorageQuotaBytes: DefaultStorageQuota,
		EnterToSubmit:     true,
		MarkdownMode:      true,
		InlineLatex:       false,
		ImageDetail:       content.DetailAuto,
		Verbose:           false,
		TUITheme:          DefaultTUITheme,
		Markdown:          DefaultMarkdownConfig(),
	}
}

// APIKey returns the provider key from the configured environment variable.
func (c Config) APIKey() string {
	name := c.APIKeyEnv
	if name == "" {
		name = DefaultAPIKeyEnv
	}
	return strings.TrimSpace(os.Getenv(name))
}

// GetDataDir returns the data directory path. CHATDECK_HOME wins over
// ~/.chatdeck.
func GetDataDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return filepath.Abs(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// EnsureDataDir creates the data directory if it doesn't exist
func EnsureDataDir() (string, error) {
	dir, err := GetDataDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds chat history
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	dir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// GetDownloadDir returns the download directory from config, creating it if necessary
func GetDownloadDir(cfg Config) (string, error) {
	dir := cfg.DownloadDir
	if dir == "" {
		base, err := GetDataDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, "downloads")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}
	return dir, nil
}

// LoadConfig loads the configuration from disk. Defaults are returned when
// the file does not exist.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg.normalize(), nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	dir, err := EnsureDataDir()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, configFileName), data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// normalize fills values a hand-edited file may have cleared.
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.DefaultModel == "" {
		c.DefaultModel = def.DefaultModel
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = def.APIBaseURL
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = def.APIKeyEnv
	}
	if c.StorageQuotaBytes <= 0 {
		c.StorageQuotaBytes = def.StorageQuotaBytes
	}
	if _, err := content.ParseDetail(string(c.ImageDetail)); err != nil {
		c.ImageDetail = def.ImageDetail
	}
	if c.TUITheme == "" {
		c.TUITheme = def.TUITheme
	}
	if c.Markdown.Style == "" {
		c.Markdown.Style = def.Markdown.Style
	}
	return c
}
