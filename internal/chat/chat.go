// Package chat defines messages, chats and per-chat model configuration.
package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"

	"github.com/diogo/chatdeck/internal/content"
)

// DefaultTitle is the title of a chat before its first user message.
const DefaultTitle = "New Chat"

// titleWidth bounds the auto-generated title, in terminal cells.
const titleWidth = 50

// Role represents the sender of a message.
type Role string

const (
	User      Role = "user"
	Assistant Role = "assistant"
	System    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case User, Assistant, System:
		return true
	}
	return false
}

// String returns the underlying string value of the role.
func (r Role) String() string {
	return string(r)
}

// Roles lists the selectable input roles.
func Roles() []Role {
	return []Role{User, Assistant, System}
}

// Message pairs a role with its content.
type Message struct {
	Role    Role           `json:"role"`
	Content content.Buffer `json:"content"`
}

// NewMessage creates a text-only message.
func NewMessage(role Role, text string) Message {
	return Message{Role: role, Content: content.NewBuffer(text)}
}

// Config holds the model and sampling parameters of a chat.
type Config struct {
	Model            string  `json:"model"`
	Provider         string  `json:"provider"`
	MaxTokens        int     `json:"max_tokens"`
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"top_p"`
	PresencePenalty  float64 `json:"presence_penalty"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
}

// DefaultConfig returns the default sampling configuration for a model.
func DefaultConfig(model, provider string) Config {
	return Config{
		Model:            model,
		Provider:         provider,
		MaxTokens:        4000,
		Temperature:      1,
		TopP:             1,
		PresencePenalty:  0,
		FrequencyPenalty: 0,
	}
}

// Chat is an ordered list of messages plus its configuration.
type Chat struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Messages    []Message      `json:"messages"`
	Config      Config         `json:"config"`
	ImageDetail content.Detail `json:"image_detail"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// New creates an empty chat.
func New(cfg Config, detail content.Detail) Chat {
	now := time.Now()
	if detail == "" {
		detail = content.DetailAuto
	}
	return Chat{
		ID:          uuid.NewString(),
		Title:       DefaultTitle,
		Messages:    []Message{},
		Config:      cfg,
		ImageDetail: detail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// LastIndex returns the index of the last message, or -1.
func (c Chat) LastIndex() int {
	return len(c.Messages) - 1
}

// TitleFrom derives a chat title from message text.
func TitleFrom(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return DefaultTitle
	}
	if runewidth.StringWidth(text) > titleWidth {
		return runewidth.Truncate(text, titleWidth, "...")
	}
	return text
}
