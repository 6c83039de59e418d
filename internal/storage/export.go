package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/content"
)

// ExportFormat represents the format for exporting chats
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ParseExportFormat accepts "markdown", "md" or "json".
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return ExportFormatMarkdown, nil
	case "json":
		return ExportFormatJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q (want markdown or json)", s)
}

// Export renders a chat in the given format.
func Export(c chat.Chat, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportFormatJSON:
		return ExportJSON(c)
	case ExportFormatMarkdown, "":
		return []byte(ExportMarkdown(c)), nil
	}
	return nil, fmt.Errorf("unknown export format %q", format)
}

// ExportMarkdown renders a chat as Markdown. Attachments are listed by name,
// type and size; their payloads are not included.
func ExportMarkdown(c chat.Chat) string {
	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(c.Title)
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "**Model:** %s (%s)\n", c.Config.Model, c.Config.Provider)
	fmt.Fprintf(&sb, "**Created:** %s\n", c.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "**Updated:** %s\n", c.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "**Messages:** %d\n\n---\n\n", len(c.Messages))

	for i, msg := range c.Messages {
		sb.WriteString("## ")
		sb.WriteString(roleHeading(msg.Role))
		sb.WriteString("\n\n")

		sb.WriteString(msg.Content.Text())
		sb.WriteString("\n")

		if atts := msg.Content.Attachments(); len(atts) > 0 {
			sb.WriteString("\n")
			for _, it := range atts {
				sb.WriteString("- ")
				sb.WriteString(attachmentLine(it))
				sb.WriteString("\n")
			}
		}

		if i < len(c.Messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

func roleHeading(r chat.Role) string {
	switch r {
	case chat.Assistant:
		return "Assistant"
	case chat.System:
		return "System"
	}
	return "User"
}

func attachmentLine(it content.Item) string {
	switch v := it.(type) {
	case content.Image:
		if content.IsDataURL(v.URL) {
			return fmt.Sprintf("🖼️ embedded image (detail: %s)", v.Detail)
		}
		return fmt.Sprintf("🖼️ %s (detail: %s)", v.URL, v.Detail)
	case content.File:
		if v.Size > 0 {
			return fmt.Sprintf("📎 %s (%s, %s)", v.Name, v.MIME, humanize.IBytes(uint64(v.Size)))
		}
		return fmt.Sprintf("📎 %s (%s)", v.Name, v.MIME)
	}
	return string(it.Kind())
}

// ExportJSON renders a chat as indented JSON with every content item intact.
func ExportJSON(c chat.Chat) ([]byte, error) {
	type exportChat struct {
		ID          string         `json:"id"`
		Title       string         `json:"title"`
		Config      chat.Config    `json:"config"`
		ImageDetail content.Detail `json:"image_detail"`
		CreatedAt   time.Time      `json:"created_at"`
		UpdatedAt   time.Time      `json:"updated_at"`
		ExportedAt  time.Time      `json:"exported_at"`
		Messages    []chat.Message `json:"messages"`
	}

	msgs := c.Messages
	if msgs == nil {
		msgs = []chat.Message{}
	}
	return json.MarshalIndent(exportChat{
		ID:          c.ID,
		Title:       c.Title,
		Config:      c.Config,
		ImageDetail: c.ImageDetail,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		ExportedAt:  time.Now(),
		Messages:    msgs,
	}, "", "  ")
}

// FormatRelativeTime formats a time as "3 minutes ago", "2 days ago" etc.
func FormatRelativeTime(t time.Time) string {
	if time.Since(t) < time.Minute {
		return "just now"
	}
	return humanize.Time(t)
}
