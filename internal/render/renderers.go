package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// maxRenderers bounds the cache. Terminal resizes create a new entry per
// width, so the cache is reset when it fills up.
const maxRenderers = 16

// entry serializes use of one renderer; glamour.TermRenderer is not safe
// for concurrent Render calls.
type entry struct {
	mu sync.Mutex
	r  *glamour.TermRenderer
}

type rendererCache struct {
	mu      sync.Mutex
	entries map[Options]*entry
}

var renderers = &rendererCache{entries: make(map[Options]*entry)}

// key drops the fields that do not affect the glamour renderer.
func key(opts Options) Options {
	opts.Latex = false
	return opts
}

func (c *rendererCache) get(opts Options) (*entry, error) {
	k := key(opts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[k]; ok {
		return e, nil
	}

	r, err := newRenderer(opts)
	if err != nil {
		return nil, err
	}
	if len(c.entries) >= maxRenderers {
		c.entries = make(map[Options]*entry)
	}
	e := &entry{r: r}
	c.entries[k] = e
	return e, nil
}

func (c *rendererCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *rendererCache) reset() {
	c.mu.Lock()
	c.entries = make(map[Options]*entry)
	c.mu.Unlock()
}

func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	rendererOpts := []glamour.TermRendererOption{
		glamour.WithStylePath(opts.Style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		rendererOpts = append(rendererOpts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		rendererOpts = append(rendererOpts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(rendererOpts...)
}
