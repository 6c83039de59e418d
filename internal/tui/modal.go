package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/chatdeck/internal/content"
	"github.com/diogo/chatdeck/internal/ingest"
	"github.com/diogo/chatdeck/internal/preview"
)

// savedMsg reports the outcome of saving an attachment.
type savedMsg struct {
	path string
	err  error
}

// attachmentModal shows one attachment of the selected message.
type attachmentModal struct {
	title    string
	file     content.File // what `s` saves
	savable  bool
	viewport viewport.Model
}

// imageAsFile lets an embedded image be saved like a file attachment.
func imageAsFile(img content.Image) (content.File, bool) {
	if !content.IsDataURL(img.URL) {
		return content.File{}, false
	}
	mimeType, data, err := content.DecodeDataURL(img.URL)
	if err != nil {
		return content.File{}, false
	}
	ext := ingest.ExtensionFor(mimeType)
	if ext == "" {
		ext = "." + strings.TrimPrefix(mimeType, "image/")
	}
	return content.File{
		Name:    "image" + ext,
		MIME:    mimeType,
		Content: img.URL,
		Size:    int64(len(data)),
	}, true
}

func newAttachmentModal(it content.Item, width, height int) (attachmentModal, error) {
	m := attachmentModal{}
	var body string
	var err error

	switch v := it.(type) {
	case content.Image:
		m.title = "🖼  Image"
		body = preview.ImageSummary(v)
		m.file, m.savable = imageAsFile(v)
	case content.File:
		var p preview.Preview
		p, err = preview.FilePreview(v)
		m.title = fmt.Sprintf("%s %s", p.Icon, p.Title)
		if size := preview.SizeLabel(v.Size); size != "" {
			m.title += "  " + size
		}
		body = p.Body
		m.file, m.savable = v, true
	default:
		return m, fmt.Errorf("nothing to preview")
	}

	m.viewport = viewport.New(max(width-8, 20), max(height-10, 3))
	m.viewport.SetContent(lipgloss.NewStyle().Width(m.viewport.Width).Render(body))
	return m, err
}

func (m attachmentModal) resize(width, height int) attachmentModal {
	m.viewport.Width = max(width-8, 20)
	m.viewport.Height = max(height-10, 3)
	return m
}

// save writes the attachment into dir.
func (m attachmentModal) save(ctx context.Context, client preview.HTTPDoer, dir string) tea.Cmd {
	f := m.file
	return func() tea.Msg {
		path, err := preview.Save(ctx, client, f, dir)
		return savedMsg{path: path, err: err}
	}
}

func (m attachmentModal) view(width int) string {
	hints := []shortcut{{"↑↓", "Scroll"}, {"Esc", "Close"}}
	if m.savable {
		hints = append([]shortcut{{"s", "Save"}}, hints...)
	}
	var sb strings.Builder
	sb.WriteString(modalTitleStyle.Render(m.title))
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(renderShortcuts(m.viewport.Width, hints))
	return modalStyle.Width(max(width-4, 24)).Render(sb.String())
}
