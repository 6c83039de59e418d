package render

import "strings"

// RewriteLatex converts \( .. \) to $ .. $ and \[ .. \] to $$ .. $$ outside
// code spans and fenced code blocks. Unbalanced openers are left as is.
func RewriteLatex(s string) string {
	if !strings.Contains(s, `\(`) && !strings.Contains(s, `\[`) {
		return s
	}

	lines := strings.SplitAfter(s, "\n")
	var out strings.Builder
	out.Grow(len(s))

	inFence := false
	var prose strings.Builder
	flush := func() {
		out.WriteString(rewriteProse(prose.String()))
		prose.Reset()
	}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			if !inFence {
				flush()
			}
			inFence = !inFence
			out.WriteString(line)
			continue
		}
		if inFence {
			out.WriteString(line)
			continue
		}
		prose.WriteString(line)
	}
	flush()
	return out.String()
}

// rewriteProse handles text outside fences, skipping `code` spans.
func rewriteProse(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); {
		switch {
		case s[i] == '`':
			end := strings.IndexByte(s[i+1:], '`')
			if end < 0 {
				out.WriteString(s[i:])
				return out.String()
			}
			out.WriteString(s[i : i+end+2])
			i += end + 2
		case strings.HasPrefix(s[i:], `\(`):
			i += replaceDelimited(&out, s, i, `\(`, `\)`, "$")
		case strings.HasPrefix(s[i:], `\[`):
			i += replaceDelimited(&out, s, i, `\[`, `\]`, "$$")
		default:
			out.WriteByte(s[i])
			i++
		}
	}
	return out.String()
}

// replaceDelimited writes the rewritten expression starting at s[i] and
// returns the number of bytes consumed.
func replaceDelimited(out *strings.Builder, s string, i int, open, close, dollar string) int {
	body := s[i+len(open):]
	end := strings.Index(body, close)
	if end < 0 {
		out.WriteString(open)
		return len(open)
	}
	out.WriteString(dollar)
	out.WriteString(body[:end])
	out.WriteString(dollar)
	return len(open) + end + len(close)
}
