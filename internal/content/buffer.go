package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIndexOutOfRange is returned when an attachment index has no item.
	ErrIndexOutOfRange = errors.New("attachment index out of range")
	// ErrNotImage is returned when a detail level targets a non-image item.
	ErrNotImage = errors.New("attachment is not an image")
	// ErrTextAttachment is returned when a text item is appended as an attachment.
	ErrTextAttachment = errors.New("text items cannot be attached")
)

// Buffer is the ordered content of one message. Index 0 is always the text
// item; later positions hold attachments in insertion order.
//
// A Buffer is a value. Operations return a new Buffer and never write to the
// receiver's backing array, so snapshots holding a Buffer may share it.
// The zero value is an empty text buffer.
type Buffer struct {
	items []Item
}

// NewBuffer returns a buffer holding only the given text.
func NewBuffer(text string) Buffer {
	return Buffer{items: []Item{Text{Text: text}}}
}

// FromItems builds a buffer from arbitrary items, restoring the index 0 text
// invariant. All text items are joined with "\n" into the leading text;
// without any the leading text is empty.
func FromItems(items []Item) Buffer {
	var texts []string
	attachments := make([]Item, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case Text:
			texts = append(texts, v.Text)
		case Image, File:
			attachments = append(attachments, v)
		}
	}

	out := make([]Item, 0, len(attachments)+1)
	out = append(out, Text{Text: strings.Join(texts, "\n")})
	out = append(out, attachments...)
	return Buffer{items: out}
}

func (b Buffer) normalized() []Item {
	if len(b.items) == 0 {
		return []Item{Text{}}
	}
	return b.items
}

// Text returns the text at index 0.
func (b Buffer) Text() string {
	if len(b.items) == 0 {
		return ""
	}
	return b.items[0].(Text).Text
}

// Len returns the number of items, including the text item.
func (b Buffer) Len() int {
	return len(b.normalized())
}

// Items returns a copy of all items.
func (b Buffer) Items() []Item {
	src := b.normalized()
	out := make([]Item, len(src))
	copy(out, src)
	return out
}

// Attachments returns a copy of the items after the text item.
func (b Buffer) Attachments() []Item {
	src := b.normalized()[1:]
	out := make([]Item, len(src))
	copy(out, src)
	return out
}

// HasAttachments reports whether any attachment is present.
func (b Buffer) HasAttachments() bool {
	return len(b.items) > 1
}

// IsEmpty reports whether the buffer has neither text nor attachments.
func (b Buffer) IsEmpty() bool {
	return b.Text() == "" && !b.HasAttachments()
}

// Attachment returns the attachment at index i (position i+1).
func (b Buffer) Attachment(i int) (Item, bool) {
	items := b.normalized()
	if i < 0 || i+1 >= len(items) {
		return nil, false
	}
	return items[i+1], true
}

// SetText replaces the text, preserving attachments.
func (b Buffer) SetText(s string) Buffer {
	out := b.Items()
	out[0] = Text{Text: s}
	return Buffer{items: out}
}

// Append adds an attachment at the end.
func (b Buffer) Append(it Item) (Buffer, error) {
	switch it.(type) {
	case Image, File:
	case Text:
		return b, ErrTextAttachment
	default:
		return b, fmt.Errorf("unknown content item %T", it)
	}
	src := b.normalized()
	out := make([]Item, len(src), len(src)+1)
	copy(out, src)
	return Buffer{items: append(out, it)}, nil
}

// SetAttachmentDetail changes the detail level of the image attachment at
// index i. The buffer is returned unchanged with an error when i does not
// address an image.
func (b Buffer) SetAttachmentDetail(i int, level Detail) (Buffer, error) {
	it, ok := b.Attachment(i)
	if !ok {
		return b, ErrIndexOutOfRange
	}
	img, ok := it.(Image)
	if !ok {
		return b, ErrNotImage
	}
	img.Detail = level
	out := b.Items()
	out[i+1] = img
	return Buffer{items: out}, nil
}

// RemoveAttachment deletes the attachment at index i.
func (b Buffer) RemoveAttachment(i int) (Buffer, error) {
	src := b.normalized()
	if i < 0 || i+1 >= len(src) {
		return b, ErrIndexOutOfRange
	}
	out := make([]Item, 0, len(src)-1)
	out = append(out, src[:i+1]...)
	out = append(out, src[i+2:]...)
	return Buffer{items: out}, nil
}

// TextOnly drops every attachment.
func (b Buffer) TextOnly() Buffer {
	return NewBuffer(b.Text())
}

// Clone returns a buffer with its own backing array.
func (b Buffer) Clone() Buffer {
	return Buffer{items: b.Items()}
}

// Images returns the image attachments in order.
func (b Buffer) Images() []Image {
	var out []Image
	for _, it := range b.normalized()[1:] {
		if img, ok := it.(Image); ok {
			out = append(out, img)
		}
	}
	return out
}

// Files returns the file attachments in order.
func (b Buffer) Files() []File {
	var out []File
	for _, it := range b.normalized()[1:] {
		if f, ok := it.(File); ok {
			out = append(out, f)
		}
	}
	return out
}

// Equal reports whether both buffers hold the same items.
func (b Buffer) Equal(other Buffer) bool {
	x, y := b.normalized(), other.normalized()
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the buffer as an array of items.
func (b Buffer) MarshalJSON() ([]byte, error) {
	items := b.normalized()
	raw := make([]json.RawMessage, len(items))
	for i, it := range items {
		data, err := MarshalItem(it)
		if err != nil {
			return nil, err
		}
		raw[i] = data
	}
	return json.Marshal(raw)
}

// UnmarshalJSON decodes an array of items. A bare JSON string is accepted as
// text-only content.
func (b *Buffer) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*b = NewBuffer(text)
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse message content: %w", err)
	}
	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		it, err := UnmarshalItem(r)
		if err != nil {
			return err
		}
		items = append(items, it)
	}
	*b = FromItems(items)
	return nil
}
