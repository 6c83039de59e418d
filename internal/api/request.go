package api

import (
	"encoding/json"
	"fmt"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/content"
)

// Request is a chat completions request body.
type Request struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	MaxTokens        int       `json:"max_tokens,omitempty"`
	Temperature      float64   `json:"temperature"`
	TopP             float64   `json:"top_p"`
	PresencePenalty  float64   `json:"presence_penalty"`
	FrequencyPenalty float64   `json:"frequency_penalty"`
	Stream           bool      `json:"stream"`
}

// Message is one entry of the request conversation. Content is either a
// plain string or a list of Parts.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// Part is one element of multimodal message content.
type Part struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
	File     *FilePart `json:"file,omitempty"`
}

// ImageURL references an image by URL or data URL.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// FilePart inlines a file attachment.
type FilePart struct {
	Filename string `json:"filename"`
	FileData string `json:"file_data"`
}

// NewRequest builds a completion request from a chat's configuration and
// messages. Empty assistant placeholders are skipped.
func NewRequest(c chat.Chat, stream bool) *Request {
	req := &Request{
		Model:            c.Config.Model,
		MaxTokens:        c.Config.MaxTokens,
		Temperature:      c.Config.Temperature,
		TopP:             c.Config.TopP,
		PresencePenalty:  c.Config.PresencePenalty,
		FrequencyPenalty: c.Config.FrequencyPenalty,
		Stream:           stream,
	}
	for _, m := range c.Messages {
		if m.Role == chat.Assistant && m.Content.IsEmpty() {
			continue
		}
		req.Messages = append(req.Messages, ConvertMessage(m))
	}
	return req
}

// ConvertMessage maps a chat message to the provider's message shape.
// Text-only content is sent as a string.
func ConvertMessage(m chat.Message) Message {
	if !m.Content.HasAttachments() {
		return Message{Role: m.Role.String(), Content: m.Content.Text()}
	}

	parts := make([]Part, 0, m.Content.Len())
	for _, it := range m.Content.Items() {
		switch v := it.(type) {
		case content.Text:
			if v.Text == "" {
				continue
			}
			parts = append(parts, Part{Type: "text", Text: v.Text})
		case content.Image:
			parts = append(parts, Part{
				Type:     "image_url",
				ImageURL: &ImageURL{URL: v.URL, Detail: string(v.Detail)},
			})
		case content.File:
			parts = append(parts, Part{
				Type: "file",
				File: &FilePart{Filename: v.Name, FileData: v.Content},
			})
		}
	}
	return Message{Role: m.Role.String(), Content: parts}
}

// Marshal encodes the request body.
func (r *Request) Marshal() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return data, nil
}
