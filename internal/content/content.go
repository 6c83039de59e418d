// Package content defines the items that make up a chat message: text,
// image references and file attachments.
package content

import (
	"encoding/json"
	"fmt"
)

// Kind is the wire tag of a content item.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image_url"
	KindFile  Kind = "file"
)

// Detail is the image resolution hint passed to the model.
type Detail string

const (
	DetailAuto Detail = "auto"
	DetailLow  Detail = "low"
	DetailHigh Detail = "high"
)

// Details lists the detail levels in selector order.
func Details() []Detail {
	return []Detail{DetailAuto, DetailHigh, DetailLow}
}

// ParseDetail validates a detail level string.
func ParseDetail(s string) (Detail, error) {
	switch d := Detail(s); d {
	case DetailAuto, DetailLow, DetailHigh:
		return d, nil
	}
	return "", fmt.Errorf("invalid image detail %q (want auto, low or high)", s)
}

// Next returns the following detail level, wrapping around.
func (d Detail) Next() Detail {
	all := Details()
	for i, v := range all {
		if v == d {
			return all[(i+1)%len(all)]
		}
	}
	return DetailAuto
}

// Item is one unit of message content. The set of implementations is closed:
// Text, Image and File.
type Item interface {
	Kind() Kind
	sealed()
}

// Text is the textual body of a message.
type Text struct {
	Text string
}

// Image references an image by URL or inline data URL.
type Image struct {
	URL    string
	Detail Detail
}

// File is a non-image attachment. Content holds a data URL for ingested
// files or a plain URL for remote references.
type File struct {
	Name    string
	MIME    string
	Content string
	Size    int64
}

func (Text) Kind() Kind  { return KindText }
func (Image) Kind() Kind { return KindImage }
func (File) Kind() Kind  { return KindFile }

func (Text) sealed()  {}
func (Image) sealed() {}
func (File) sealed()  {}

// wire mirrors the persisted JSON shape of an item.
type wire struct {
	Type     Kind       `json:"type"`
	Text     *string    `json:"text,omitempty"`
	ImageURL *wireImage `json:"image_url,omitempty"`
	File     *wireFile  `json:"file,omitempty"`
}

type wireImage struct {
	URL    string `json:"url"`
	Detail Detail `json:"detail"`
}

type wireFile struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Size    int64  `json:"size"`
}

// MarshalItem encodes an item in its persisted JSON shape.
func MarshalItem(it Item) ([]byte, error) {
	var w wire
	switch v := it.(type) {
	case Text:
		text := v.Text
		w = wire{Type: KindText, Text: &text}
	case Image:
		detail := v.Detail
		if detail == "" {
			detail = DetailAuto
		}
		w = wire{Type: KindImage, ImageURL: &wireImage{URL: v.URL, Detail: detail}}
	case File:
		w = wire{Type: KindFile, File: &wireFile{Name: v.Name, Type: v.MIME, Content: v.Content, Size: v.Size}}
	default:
		return nil, fmt.Errorf("unknown content item %T", it)
	}
	return json.Marshal(w)
}

// UnmarshalItem decodes an item from its persisted JSON shape.
func UnmarshalItem(data []byte) (Item, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse content item: %w", err)
	}

	switch w.Type {
	case KindText:
		if w.Text == nil {
			return Text{}, nil
		}
		return Text{Text: *w.Text}, nil
	case KindImage:
		if w.ImageURL == nil {
			return nil, fmt.Errorf("image_url item without image_url field")
		}
		detail, err := ParseDetail(string(w.ImageURL.Detail))
		if err != nil {
			detail = DetailAuto
		}
		return Image{URL: w.ImageURL.URL, Detail: detail}, nil
	case KindFile:
		if w.File == nil {
			return nil, fmt.Errorf("file item without file field")
		}
		return File{Name: w.File.Name, MIME: w.File.Type, Content: w.File.Content, Size: w.File.Size}, nil
	default:
		return nil, fmt.Errorf("unknown content item type %q", w.Type)
	}
}
