// Package preview describes attachments for display: icons, size labels,
// chip badges and file previews.
package preview

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/diogo/chatdeck/internal/content"
	apperrors "github.com/diogo/chatdeck/internal/errors"
)

// Kind selects how a preview is displayed.
type Kind int

const (
	KindText Kind = iota
	KindPDF
	KindImage
	KindGeneric
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPDF:
		return "pdf"
	case KindImage:
		return "image"
	}
	return "generic"
}

// Messages shown when a file cannot be rendered inline.
const (
	TextUnavailable    = "Unable to preview this text file."
	GenericUnavailable = "This file type cannot be previewed directly."
)

// Preview is the displayable form of a file attachment.
type Preview struct {
	Kind  Kind
	Title string
	Icon  string
	Body  string
}

// FilePreview renders a file attachment. Text files are decoded (HTML is
// reduced to its readable text). When a text file cannot be decoded the
// returned preview is generic and the error is a PreviewError; the preview
// is still usable.
func FilePreview(f content.File) (Preview, error) {
	p := Preview{Title: f.Name, Icon: Icon(f.MIME)}

	switch {
	case strings.HasPrefix(f.MIME, "text/"):
		_, data, err := content.DecodeDataURL(f.Content)
		if err != nil {
			p.Kind = KindGeneric
			p.Body = TextUnavailable
			return p, apperrors.NewPreviewError(f.Name, err)
		}
		p.Kind = KindText
		if strings.HasPrefix(f.MIME, "text/html") {
			p.Body = sanitize(HTMLText(data))
		} else {
			p.Body = sanitize(string(data))
		}
	case f.MIME == "application/pdf":
		p.Kind = KindPDF
		p.Body = describe("PDF document", f)
	case strings.HasPrefix(f.MIME, "image/"):
		p.Kind = KindImage
		p.Body = describe("Image", f)
	default:
		p.Kind = KindGeneric
		p.Body = GenericUnavailable
	}
	return p, nil
}

// sanitize drops escape sequences and control characters so file contents
// cannot drive the terminal. Newlines and tabs are kept.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, ansi.Strip(s))
}

func describe(what string, f content.File) string {
	var sb strings.Builder
	sb.WriteString(what)
	if label := SizeLabel(f.Size); label != "" {
		sb.WriteString(", ")
		sb.WriteString(label)
	}
	if !content.IsDataURL(f.Content) {
		sb.WriteString("\n")
		sb.WriteString(f.Content)
	}
	return sb.String()
}

// ImageSummary describes an image attachment in one line.
func ImageSummary(img content.Image) string {
	if !content.IsDataURL(img.URL) {
		return fmt.Sprintf("%s (detail: %s)", img.URL, img.Detail)
	}
	mimeType, data, err := content.DecodeDataURL(img.URL)
	if err != nil {
		return fmt.Sprintf("embedded image (detail: %s)", img.Detail)
	}
	summary := "embedded " + mimeType
	if label := SizeLabel(int64(len(data))); label != "" {
		summary += ", " + label
	}
	return fmt.Sprintf("%s (detail: %s)", summary, img.Detail)
}

// Icon returns the emoji used for a file type.
func Icon(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "text/plain"):
		return "📄"
	case strings.HasPrefix(mimeType, "text/markdown"):
		return "📝"
	case strings.HasPrefix(mimeType, "text/html"):
		return "🌐"
	case strings.Contains(mimeType, "word"):
		return "📃"
	case strings.Contains(mimeType, "spreadsheet"), strings.Contains(mimeType, "excel"), mimeType == "text/csv":
		return "📊"
	case mimeType == "application/pdf":
		return "📕"
	}
	return "📎"
}

// SizeLabel formats a byte count as kilobytes with one decimal. Sizes that
// round to 0.0 KB yield an empty label.
func SizeLabel(size int64) string {
	s := fmt.Sprintf("%.1f", float64(size)/1024)
	if s == "0.0" || s == "-0.0" {
		return ""
	}
	return s + " KB"
}

// ChipLabel returns the short badge shown on an attachment chip.
func ChipLabel(mimeType, name string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return "IMG"
	case strings.HasPrefix(mimeType, "text/"):
		return extension(name)
	case strings.Contains(mimeType, "word"):
		return "DOC"
	case strings.Contains(mimeType, "sheet"), strings.Contains(mimeType, "excel"), mimeType == "text/csv":
		return "XLS"
	case mimeType == "application/pdf":
		return "PDF"
	}
	return extension(name)
}

func extension(name string) string {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if ext == "" {
		return name
	}
	return ext
}

// HTMLText extracts the readable text of an HTML document, one block per
// line. Script and style contents are dropped.
func HTMLText(data []byte) string {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return string(data)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Head, atom.Noscript:
				return
			case atom.Br:
				sb.WriteString("\n")
			case atom.Li:
				newline(&sb)
				sb.WriteString("• ")
			}
		case html.TextNode:
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") && !strings.HasSuffix(sb.String(), " ") {
					sb.WriteString(" ")
				}
				sb.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.DataAtom) {
			newline(&sb)
		}
	}
	walk(doc)

	return strings.TrimSpace(sb.String())
}

func newline(sb *strings.Builder) {
	if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
		sb.WriteString("\n")
	}
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Li, atom.Tr, atom.Pre, atom.Blockquote, atom.Section, atom.Article,
		atom.Header, atom.Footer, atom.Table, atom.Ul, atom.Ol, atom.Title:
		return true
	}
	return false
}
