package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/diogo/chatdeck/internal/content"
)

// field binds a dotted config key to its accessors.
type field struct {
	get func(Config) string
	set func(*Config, string) error
}

func boolField(ptr func(*Config) *bool) field {
	return field{
		get: func(c Config) string { return strconv.FormatBool(*ptr(&c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid boolean %q", v)
			}
			*ptr(c) = b
			return nil
		},
	}
}

func stringField(ptr func(*Config) *string) field {
	return field{
		get: func(c Config) string { return *ptr(&c) },
		set: func(c *Config, v string) error {
			*ptr(c) = v
			return nil
		},
	}
}

var fields = map[string]field{
	"default_model": stringField(func(c *Config) *string { return &c.DefaultModel }),
	"models_url":    stringField(func(c *Config) *string { return &c.ModelsURL }),
	"api_base_url":  stringField(func(c *Config) *string { return &c.APIBaseURL }),
	"api_key_env":   stringField(func(c *Config) *string { return &c.APIKeyEnv }),
	"storage_quota_bytes": {
		get: func(c Config) string { return strconv.FormatInt(c.StorageQuotaBytes, 10) },
		set: func(c *Config, v string) error {
			// accepts plain byte counts and sizes like "8MiB"
			n, err := humanize.ParseBytes(v)
			if err != nil || n == 0 {
				return fmt.Errorf("invalid size %q", v)
			}
			c.StorageQuotaBytes = int64(n)
			return nil
		},
	},
	"enter_to_submit": boolField(func(c *Config) *bool { return &c.EnterToSubmit }),
	"markdown_mode":   boolField(func(c *Config) *bool { return &c.MarkdownMode }),
	"inline_latex":    boolField(func(c *Config) *bool { return &c.InlineLatex }),
	"image_detail": {
		get: func(c Config) string { return string(c.ImageDetail) },
		set: func(c *Config, v string) error {
			d, err := content.ParseDetail(v)
			if err != nil {
				return err
			}
			c.ImageDetail = d
			return nil
		},
	},
	"verbose":                     boolField(func(c *Config) *bool { return &c.Verbose }),
	"tui_theme":                   stringField(func(c *Config) *string { return &c.TUITheme }),
	"download_dir":                stringField(func(c *Config) *string { return &c.DownloadDir }),
	"markdown.style":              stringField(func(c *Config) *string { return &c.Markdown.Style }),
	"markdown.enable_emoji":       boolField(func(c *Config) *bool { return &c.Markdown.EnableEmoji }),
	"markdown.preserve_newlines":  boolField(func(c *Config) *bool { return &c.Markdown.PreserveNewLines }),
	"markdown.table_wrap":         boolField(func(c *Config) *bool { return &c.Markdown.TableWrap }),
	"markdown.inline_table_links": boolField(func(c *Config) *bool { return &c.Markdown.InlineTableLinks }),
}

// Keys returns every settable key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the string form of a config value.
func (c Config) Get(key string) (string, error) {
	f, ok := fields[strings.ToLower(key)]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	return f.get(c), nil
}

// Set parses value and assigns it to key.
func (c *Config) Set(key, value string) error {
	f, ok := fields[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := f.set(c, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}
