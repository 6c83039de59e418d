package render

import (
	"strings"
	"sync"
	"testing"

	"github.com/diogo/chatdeck/internal/config"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Width != 80 {
		t.Errorf("expected Width=80, got %d", opts.Width)
	}
	if opts.Style != "dark" {
		t.Errorf("expected Style='dark', got %s", opts.Style)
	}
	if !opts.EnableEmoji || !opts.PreserveNewLines || !opts.TableWrap {
		t.Errorf("unexpected defaults: %+v", opts)
	}
	if opts.Latex {
		t.Error("expected Latex=false")
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv(StyleEnv, "")
	cfg := config.DefaultConfig()
	cfg.InlineLatex = true
	cfg.Markdown.Style = "light"

	opts := FromConfig(cfg, 0)
	if opts.Width != 80 {
		t.Errorf("expected fallback width 80, got %d", opts.Width)
	}
	if opts.Style != "light" {
		t.Errorf("expected Style='light', got %s", opts.Style)
	}
	if !opts.Latex {
		t.Error("expected Latex=true")
	}

	t.Setenv(StyleEnv, "notty")
	if got := FromConfig(cfg, 100).Style; got != "notty" {
		t.Errorf("GLAMOUR_STYLE should win, got %s", got)
	}
}

func TestRewriteLatex(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"inline", `area is \(\pi r^2\) exactly`, `area is $\pi r^2$ exactly`},
		{"display", "\\[E = mc^2\\]", "$$E = mc^2$$"},
		{"multiline display", "\\[\na+b\n\\]", "$$\na+b\n$$"},
		{"no delimiters", "plain text", "plain text"},
		{"unbalanced", `open \( only`, `open \( only`},
		{"code span", "use `\\(x\\)` literally", "use `\\(x\\)` literally"},
		{"fence", "```\n\\(x\\)\n```\n\\(y\\)", "```\n\\(x\\)\n```\n$y$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RewriteLatex(tt.in); got != tt.want {
				t.Errorf("RewriteLatex(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMarkdown(t *testing.T) {
	renderers.reset()
	defer renderers.reset()

	out, err := Markdown("# Title\n\nsome **bold** text", DefaultOptions().WithStyle("notty"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Title") || !strings.Contains(out, "bold") {
		t.Errorf("unexpected output: %q", out)
	}
	if renderers.len() != 1 {
		t.Errorf("expected 1 cached renderer, got %d", renderers.len())
	}

	// latex only changes preprocessing, not the renderer
	if _, err := Markdown("x", DefaultOptions().WithStyle("notty").WithLatex(true)); err != nil {
		t.Fatal(err)
	}
	if renderers.len() != 1 {
		t.Errorf("expected renderer reuse, got %d", renderers.len())
	}
}

func TestMarkdown_ConcurrentUse(t *testing.T) {
	opts := DefaultOptions().WithStyle("ascii").WithWidth(60)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := Markdown("- one\n- two", opts); err != nil {
				t.Errorf("render failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestMessage_Verbatim(t *testing.T) {
	opts := DefaultOptions().WithLatex(true)
	got := Message(`**raw** \(x\)`, opts, false)
	if got != `**raw** $x$` {
		t.Errorf("Message() = %q", got)
	}
}

func TestMessage_BadStyleFallsBack(t *testing.T) {
	opts := DefaultOptions().WithStyle("/no/such/style.json")
	if got := Message("text", opts, true); got != "text" {
		t.Errorf("expected verbatim fallback, got %q", got)
	}
}

func TestPalettes(t *testing.T) {
	defer SetPalette("tokyonight")

	if CurrentPalette().Name != "tokyonight" {
		t.Errorf("default palette = %s", CurrentPalette().Name)
	}
	if !SetPalette("nord") || CurrentPalette().Name != "nord" {
		t.Error("SetPalette(nord) failed")
	}
	if SetPalette("missing") {
		t.Error("unknown palette accepted")
	}
	if CurrentPalette().Name != "nord" {
		t.Error("unknown palette changed the active one")
	}
	if len(PaletteNames()) != 4 {
		t.Errorf("PaletteNames() = %v", PaletteNames())
	}
}
