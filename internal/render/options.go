// Package render turns message text into terminal output: glamour markdown,
// LaTeX delimiter rewriting and the TUI color palettes.
package render

import (
	"os"

	"github.com/diogo/chatdeck/internal/config"
)

// StyleEnv overrides the configured markdown style.
const StyleEnv = "GLAMOUR_STYLE"

// Options configures the markdown renderer behavior.
type Options struct {
	// Width is the word-wrap column (default: 80)
	Width int

	// Style is a glamour style name or a path to a JSON style file
	Style string

	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool
	InlineTableLinks bool

	// Latex rewrites \( \) and \[ \] delimiters to dollar form before rendering
	Latex bool
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	md := config.DefaultMarkdownConfig()
	return Options{
		Width:            80,
		Style:            md.Style,
		EnableEmoji:      md.EnableEmoji,
		PreserveNewLines: md.PreserveNewLines,
		TableWrap:        md.TableWrap,
		InlineTableLinks: md.InlineTableLinks,
	}
}

// FromConfig builds options from the user configuration. GLAMOUR_STYLE
// takes precedence over the configured style.
func FromConfig(cfg config.Config, width int) Options {
	opts := Options{
		Width:            width,
		Style:            cfg.Markdown.Style,
		EnableEmoji:      cfg.Markdown.EnableEmoji,
		PreserveNewLines: cfg.Markdown.PreserveNewLines,
		TableWrap:        cfg.Markdown.TableWrap,
		InlineTableLinks: cfg.Markdown.InlineTableLinks,
		Latex:            cfg.InlineLatex,
	}
	if opts.Style == "" {
		opts.Style = DefaultOptions().Style
	}
	if style := os.Getenv(StyleEnv); style != "" {
		opts.Style = style
	}
	if opts.Width <= 0 {
		opts.Width = DefaultOptions().Width
	}
	return opts
}

// WithWidth returns Options with the specified width.
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

// WithStyle returns Options with the specified style.
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

// WithLatex returns Options with LaTeX delimiter rewriting enabled/disabled.
func (o Options) WithLatex(enabled bool) Options {
	o.Latex = enabled
	return o
}

// StyleNames lists the glamour standard styles offered in selectors.
func StyleNames() []string {
	return []string{"dark", "light", "dracula", "tokyo-night", "pink", "notty", "ascii"}
}
