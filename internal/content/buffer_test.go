package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Buffer {
	b := NewBuffer("hello")
	b, _ = b.Append(Image{URL: "data:image/png;base64,AAAA", Detail: DetailAuto})
	b, _ = b.Append(File{Name: "notes.txt", MIME: "text/plain", Content: "data:text/plain;base64,aGk=", Size: 2})
	b, _ = b.Append(Image{URL: "https://example.com/cat.jpg", Detail: DetailLow})
	return b
}

func TestZeroBuffer(t *testing.T) {
	var b Buffer
	assert.Equal(t, "", b.Text())
	assert.Equal(t, 1, b.Len())
	assert.True(t, b.IsEmpty())
	assert.Equal(t, []Item{Text{}}, b.Items())
}

func TestSetText_PreservesAttachments(t *testing.T) {
	b := sample()
	updated := b.SetText("changed")

	assert.Equal(t, "changed", updated.Text())
	assert.Equal(t, b.Attachments(), updated.Attachments())
	assert.Equal(t, "hello", b.Text(), "receiver must be unchanged")
}

func TestAppend(t *testing.T) {
	b := NewBuffer("x")
	_, err := b.Append(Text{Text: "y"})
	assert.ErrorIs(t, err, ErrTextAttachment)

	b2, err := b.Append(File{Name: "a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, 2, b2.Len())
	assert.Equal(t, 1, b.Len())
}

func TestSetAttachmentDetail(t *testing.T) {
	b := sample()

	updated, err := b.SetAttachmentDetail(0, DetailHigh)
	require.NoError(t, err)
	img, ok := updated.Attachment(0)
	require.True(t, ok)
	assert.Equal(t, DetailHigh, img.(Image).Detail)

	orig, _ := b.Attachment(0)
	assert.Equal(t, DetailAuto, orig.(Image).Detail, "receiver must be unchanged")

	same, err := b.SetAttachmentDetail(1, DetailHigh)
	assert.ErrorIs(t, err, ErrNotImage)
	assert.True(t, same.Equal(b))

	_, err = b.SetAttachmentDetail(9, DetailHigh)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = b.SetAttachmentDetail(-1, DetailHigh)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestRemoveAttachment_TextStaysAtZero(t *testing.T) {
	b := sample()

	for b.HasAttachments() {
		next, err := b.RemoveAttachment(0)
		require.NoError(t, err)
		assert.Equal(t, Text{Text: "hello"}, next.Items()[0])
		assert.Equal(t, b.Len()-1, next.Len())
		b = next
	}

	_, err := b.RemoveAttachment(0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestRemoveAttachment_Middle(t *testing.T) {
	b := sample()
	next, err := b.RemoveAttachment(1)
	require.NoError(t, err)

	atts := next.Attachments()
	require.Len(t, atts, 2)
	assert.Equal(t, KindImage, atts[0].Kind())
	assert.Equal(t, "https://example.com/cat.jpg", atts[1].(Image).URL)
}

func TestIndexZeroInvariant_AfterMixedOperations(t *testing.T) {
	b := NewBuffer("")
	ops := []func(Buffer) Buffer{
		func(b Buffer) Buffer { n, _ := b.Append(Image{URL: "u"}); return n },
		func(b Buffer) Buffer { return b.SetText("a") },
		func(b Buffer) Buffer { n, _ := b.RemoveAttachment(5); return n },
		func(b Buffer) Buffer { n, _ := b.Append(File{Name: "f"}); return n },
		func(b Buffer) Buffer { n, _ := b.SetAttachmentDetail(1, DetailLow); return n },
		func(b Buffer) Buffer { n, _ := b.RemoveAttachment(0); return n },
		func(b Buffer) Buffer { n, _ := b.RemoveAttachment(0); return n },
		func(b Buffer) Buffer { n, _ := b.RemoveAttachment(0); return n },
	}
	for _, op := range ops {
		b = op(b)
		assert.Equal(t, KindText, b.Items()[0].Kind())
	}
}

func TestTextOnly(t *testing.T) {
	b := sample().TextOnly()
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, "hello", b.Text())
}

func TestImagesAndFiles(t *testing.T) {
	b := sample()
	assert.Len(t, b.Images(), 2)
	assert.Len(t, b.Files(), 1)
	assert.Equal(t, "notes.txt", b.Files()[0].Name)
}

func TestFromItems_Normalizes(t *testing.T) {
	b := FromItems([]Item{
		Image{URL: "u"},
		Text{Text: "first"},
		File{Name: "f"},
		Text{Text: "second"},
	})
	assert.Equal(t, "first\nsecond", b.Text())
	assert.Equal(t, []Kind{KindImage, KindFile}, kinds(b.Attachments()))

	empty := FromItems(nil)
	assert.True(t, empty.IsEmpty())

	b = FromItems([]Item{Image{URL: "u"}, Text{Text: "x"}})
	assert.Equal(t, "x", b.Text(), "a late text item is not prefixed with a newline")
	assert.Equal(t, []Kind{KindText, KindImage}, kinds(b.Items()))

	b = FromItems([]Item{File{Name: "f"}})
	assert.Equal(t, "", b.Text())
	assert.Equal(t, 2, b.Len())
}

func TestBufferJSON(t *testing.T) {
	b := sample()
	data, err := json.Marshal(b)
	require.NoError(t, err)

	var decoded Buffer
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equal(b))
}

func TestBufferJSON_Shape(t *testing.T) {
	b := NewBuffer("hi")
	b, _ = b.Append(File{Name: "notes.txt", MIME: "text/plain", Content: "data:text/plain;base64,", Size: 2000})

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type":"text","text":"hi"},
		{"type":"file","file":{"name":"notes.txt","type":"text/plain","content":"data:text/plain;base64,","size":2000}}
	]`, string(data))
}

func TestBufferJSON_StringContent(t *testing.T) {
	var b Buffer
	require.NoError(t, json.Unmarshal([]byte(`"legacy text"`), &b))
	assert.Equal(t, "legacy text", b.Text())
}

func TestBufferJSON_UnknownType(t *testing.T) {
	var b Buffer
	err := json.Unmarshal([]byte(`[{"type":"audio"}]`), &b)
	assert.Error(t, err)
}

func TestDetail(t *testing.T) {
	d, err := ParseDetail("high")
	require.NoError(t, err)
	assert.Equal(t, DetailHigh, d)

	_, err = ParseDetail("ultra")
	assert.Error(t, err)

	assert.Equal(t, DetailHigh, DetailAuto.Next())
	assert.Equal(t, DetailLow, DetailHigh.Next())
	assert.Equal(t, DetailAuto, DetailLow.Next())
}

func TestDataURL(t *testing.T) {
	url := EncodeDataURL("text/plain", []byte("hello world"))
	assert.Equal(t, "data:text/plain;base64,aGVsbG8gd29ybGQ=", url)

	mime, data, err := DecodeDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mime)
	assert.Equal(t, "hello world", string(data))

	mime, data, err = DecodeDataURL("data:text/csv;charset=utf-8,a%2Cb")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", mime)
	assert.Equal(t, "a,b", string(data))

	_, _, err = DecodeDataURL("data:text/plain;base64,!!!")
	assert.Error(t, err)

	_, _, err = DecodeDataURL("https://example.com")
	assert.Error(t, err)
}

func kinds(items []Item) []Kind {
	out := make([]Kind, len(items))
	for i, it := range items {
		out[i] = it.Kind()
	}
	return out
}
