package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/content"
	"github.com/diogo/chatdeck/internal/preview"
	"github.com/diogo/chatdeck/internal/render"
)

// chipWidth bounds the name shown on an attachment chip, in cells.
const chipWidth = 24

// readView holds what message rendering depends on.
type readView struct {
	width    int
	opts     render.Options
	markdown bool
}

func roleStyles(r chat.Role) (label, bubble lipgloss.Style, name string) {
	switch r {
	case chat.Assistant:
		return assistantLabelStyle, assistantBubbleStyle, "✦ Assistant"
	case chat.System:
		return systemLabelStyle, systemBubbleStyle, "⚙ System"
	}
	return userLabelStyle, userBubbleStyle, "● You"
}

// renderMessage renders one message of the read view. pending marks the
// assistant message being streamed.
func renderMessage(msg chat.Message, idx int, selected, pending bool, v readView) string {
	labelStyle, bubbleStyle, name := roleStyles(msg.Role)

	marker := "  "
	if selected {
		marker = selectedMarkerStyle.Render("▌ ")
	}
	label := marker + labelStyle.Render(name) + hintStyle.Render(fmt.Sprintf("  #%d", idx+1))

	bubbleWidth := max(v.width-4, 20)
	opts := v.opts.WithWidth(max(bubbleWidth-4, 10))

	var body strings.Builder
	text := msg.Content.Text()
	switch {
	case text == "" && pending:
		body.WriteString(loadingStyle.Render("…"))
	case text != "":
		body.WriteString(render.Message(text, opts, v.markdown))
	}

	if rows := attachmentRows(msg.Content, bubbleWidth-4); len(rows) > 0 {
		if body.Len() > 0 {
			body.WriteString("\n")
		}
		body.WriteString(strings.Join(rows, "\n"))
	}

	bubble := bubbleStyle.Width(bubbleWidth).Render(body.String())
	if selected {
		bubble = bubbleStyle.BorderForeground(colorAccent).Width(bubbleWidth).Render(body.String())
	}
	return label + "\n" + bubble
}

// attachmentRows lists attachments as numbered rows: images with a one-line
// summary, files with icon, name and size.
func attachmentRows(buf content.Buffer, width int) []string {
	atts := buf.Attachments()
	rows := make([]string, 0, len(atts))
	for i, it := range atts {
		var line string
		switch v := it.(type) {
		case content.Image:
			line = fmt.Sprintf("[%d] 🖼  %s", i+1, preview.ImageSummary(v))
		case content.File:
			line = fmt.Sprintf("[%d] %s %s", i+1, preview.Icon(v.MIME), v.Name)
			if size := preview.SizeLabel(v.Size); size != "" {
				line += "  " + size
			}
		}
		rows = append(rows, attachmentRowStyle.Render(runewidth.Truncate(line, max(width, 10), "…")))
	}
	return rows
}

// renderChips shows the attachments of an edit buffer as compact chips.
func renderChips(buf content.Buffer) string {
	atts := buf.Attachments()
	if len(atts) == 0 {
		return ""
	}
	chips := make([]string, 0, len(atts))
	for i, it := range atts {
		var label string
		switch v := it.(type) {
		case content.Image:
			name := "image"
			if !content.IsDataURL(v.URL) {
				name = v.URL[strings.LastIndex(v.URL, "/")+1:]
			}
			label = fmt.Sprintf("IMG %s · %s", runewidth.Truncate(name, chipWidth, "…"), v.Detail)
		case content.File:
			label = fmt.Sprintf("%s %s", preview.ChipLabel(v.MIME, v.Name), runewidth.Truncate(v.Name, chipWidth, "…"))
		}
		chips = append(chips, chipStyle.Render(chipIndexStyle.Render(fmt.Sprintf("%d", i+1))+" "+label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

// renderWelcome is shown for a chat without messages.
func renderWelcome(width, height int, model string) string {
	block := lipgloss.JoinVertical(lipgloss.Center,
		welcomeTitleStyle.Width(width).Render("✦ chatdeck"),
		"",
		welcomeStyle.Width(width).Render("Start a conversation with "+model),
		welcomeStyle.Width(width).Render("Ctrl+G generates · Ctrl+S saves without generating · /help lists commands"),
	)
	top := max((height-lipgloss.Height(block))/2, 0)
	return strings.Repeat("\n", top) + block
}
