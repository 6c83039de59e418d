package render

import "strings"

// Markdown renders markdown content for terminal display.
func Markdown(text string, opts Options) (string, error) {
	if opts.Latex {
		text = RewriteLatex(text)
	}

	e, err := renderers.get(opts)
	if err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.r.Render(text)
}

// Message renders message text in markdown mode, or returns it verbatim
// (with LaTeX rewriting still applied) when markdown mode is off. Render
// failures fall back to the verbatim text.
func Message(text string, opts Options, markdownMode bool) string {
	if !markdownMode {
		if opts.Latex {
			return RewriteLatex(text)
		}
		return text
	}
	out, err := Markdown(text, opts)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
