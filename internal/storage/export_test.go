package storage

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/content"
)

func exportChat() chat.Chat {
	c := testChat("Attachments", "look at these")
	buf := c.Messages[0].Content
	buf, _ = buf.Append(content.Image{URL: "https://example.com/cat.png", Detail: content.DetailLow})
	buf, _ = buf.Append(content.File{Name: "notes.txt", MIME: "text/plain", Content: "data:text/plain;base64,aGk=", Size: 2000})
	c.Messages[0].Content = buf
	c.Messages = append(c.Messages, chat.NewMessage(chat.Assistant, "a cat and some notes"))
	return c
}

func TestExportMarkdown(t *testing.T) {
	md := ExportMarkdown(exportChat())

	for _, want := range []string{
		"# Attachments",
		"**Model:** gpt-4o (OpenAI)",
		"## User",
		"## Assistant",
		"look at these",
		"https://example.com/cat.png (detail: low)",
		"notes.txt (text/plain, 2.0 KiB)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "aGk=") {
		t.Error("markdown must not include attachment payloads")
	}
}

func TestExportJSON(t *testing.T) {
	data, err := ExportJSON(exportChat())
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	var decoded struct {
		Title    string         `json:"title"`
		Messages []chat.Message `json:"messages"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Title != "Attachments" {
		t.Errorf("title = %q", decoded.Title)
	}
	if len(decoded.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(decoded.Messages))
	}
	if n := len(decoded.Messages[0].Content.Attachments()); n != 2 {
		t.Errorf("expected 2 attachments, got %d", n)
	}
}

func TestExport_Format(t *testing.T) {
	if f, err := ParseExportFormat("md"); err != nil || f != ExportFormatMarkdown {
		t.Errorf("ParseExportFormat(md) = %q, %v", f, err)
	}
	if _, err := ParseExportFormat("pdf"); err == nil {
		t.Error("expected error for pdf")
	}

	data, err := Export(exportChat(), ExportFormatJSON)
	if err != nil || !json.Valid(data) {
		t.Errorf("Export(json) = %v", err)
	}
}

func TestFormatRelativeTime(t *testing.T) {
	if got := FormatRelativeTime(time.Now()); got != "just now" {
		t.Errorf("FormatRelativeTime(now) = %q", got)
	}
	if got := FormatRelativeTime(time.Now().Add(-3 * time.Hour)); !strings.Contains(got, "hours ago") {
		t.Errorf("FormatRelativeTime(-3h) = %q", got)
	}
}
