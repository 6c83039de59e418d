package preview

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/chatdeck/internal/content"
	apperrors "github.com/diogo/chatdeck/internal/errors"
)

func TestFilePreview_Text(t *testing.T) {
	f := content.File{Name: "notes.txt", MIME: "text/plain", Content: content.EncodeDataURL("text/plain", []byte("line 1\nline 2"))}
	p, err := FilePreview(f)
	require.NoError(t, err)
	assert.Equal(t, KindText, p.Kind)
	assert.Equal(t, "notes.txt", p.Title)
	assert.Equal(t, "line 1\nline 2", p.Body)
	assert.Equal(t, "📄", p.Icon)
}

func TestFilePreview_StripsTerminalControl(t *testing.T) {
	raw := "\x1b[31mred\x1b[0m\tcell\n\x1b]0;owned\x07title\x1b]8;;https://x.test\x1b\\link\x1b]8;;\x1b\\\r\nbell\x07"
	f := content.File{Name: "log.txt", MIME: "text/plain", Content: content.EncodeDataURL("text/plain", []byte(raw))}
	p, err := FilePreview(f)
	require.NoError(t, err)
	assert.Equal(t, "red\tcell\ntitlelink\nbell", p.Body)
	assert.NotContains(t, p.Body, "\x1b")
}

func TestFilePreview_TextDecodeFailure(t *testing.T) {
	f := content.File{Name: "remote.txt", MIME: "text/plain", Content: "https://example.com/remote.txt"}
	p, err := FilePreview(f)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPreviewFailed))
	assert.Equal(t, KindGeneric, p.Kind)
	assert.Equal(t, TextUnavailable, p.Body)
}

func TestFilePreview_HTML(t *testing.T) {
	doc := `<html><head><title>x</title><style>p{}</style></head>
<body><h1>Title</h1><p>Hello <b>bold</b> world</p><ul><li>one</li><li>two</li></ul><script>alert(1)</script></body></html>`
	f := content.File{Name: "page.html", MIME: "text/html", Content: content.EncodeDataURL("text/html", []byte(doc))}

	p, err := FilePreview(f)
	require.NoError(t, err)
	assert.Equal(t, "Title\nHello bold world\n• one\n• two", p.Body)
	assert.NotContains(t, p.Body, "alert")
}

func TestFilePreview_OtherKinds(t *testing.T) {
	pdf, err := FilePreview(content.File{Name: "a.pdf", MIME: "application/pdf", Content: "data:application/pdf;base64,", Size: 4096})
	require.NoError(t, err)
	assert.Equal(t, KindPDF, pdf.Kind)
	assert.Contains(t, pdf.Body, "4.0 KB")

	doc, err := FilePreview(content.File{Name: "a.docx", MIME: "application/msword"})
	require.NoError(t, err)
	assert.Equal(t, KindGeneric, doc.Kind)
	assert.Equal(t, GenericUnavailable, doc.Body)
	assert.Equal(t, "📃", doc.Icon)
}

func TestIcon(t *testing.T) {
	tests := map[string]string{
		"text/plain":               "📄",
		"text/markdown":            "📝",
		"text/html":                "🌐",
		"text/csv":                 "📊",
		"application/pdf":          "📕",
		"application/zip":          "📎",
		"application/vnd.ms-excel": "📊",
	}
	for mimeType, want := range tests {
		assert.Equal(t, want, Icon(mimeType), mimeType)
	}
}

func TestSizeLabel(t *testing.T) {
	assert.Equal(t, "", SizeLabel(0))
	assert.Equal(t, "", SizeLabel(50))
	assert.Equal(t, "0.1 KB", SizeLabel(52))
	assert.Equal(t, "2.0 KB", SizeLabel(2000))
	assert.Equal(t, "1024.0 KB", SizeLabel(1<<20))
}

func TestChipLabel(t *testing.T) {
	assert.Equal(t, "md", ChipLabel("text/markdown", "README.md"))
	assert.Equal(t, "csv", ChipLabel("text/csv", "data.csv"))
	assert.Equal(t, "DOC", ChipLabel("application/vnd.openxmlformats-officedocument.wordprocessingml.document", "a.docx"))
	assert.Equal(t, "XLS", ChipLabel("application/vnd.ms-excel", "a.xls"))
	assert.Equal(t, "PDF", ChipLabel("application/pdf", "a.pdf"))
	assert.Equal(t, "zip", ChipLabel("zip", "a.zip"))
}

func TestImageSummary(t *testing.T) {
	assert.Equal(t, "https://x/y.png (detail: low)", ImageSummary(content.Image{URL: "https://x/y.png", Detail: content.DetailLow}))

	embedded := content.Image{URL: content.EncodeDataURL("image/png", make([]byte, 2048)), Detail: content.DetailAuto}
	assert.Equal(t, "embedded image/png, 2.0 KB (detail: auto)", ImageSummary(embedded))
}

type fakeDoer struct {
	body   string
	status int
}

func (f fakeDoer) Do(*fhttp.Request) (*fhttp.Response, error) {
	return &fhttp.Response{StatusCode: f.status, Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	f := content.File{Name: "../notes.txt", MIME: "text/plain", Content: content.EncodeDataURL("text/plain", []byte("hi"))}

	first, err := Save(context.Background(), nil, f, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "notes.txt"), first)

	second, err := Save(context.Background(), nil, f, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "notes (1).txt"), second)

	data, _ := os.ReadFile(second)
	assert.Equal(t, "hi", string(data))
}

func TestSave_Remote(t *testing.T) {
	dir := t.TempDir()
	f := content.File{Name: "report.pdf", MIME: "pdf", Content: "https://example.com/report.pdf"}

	_, err := Save(context.Background(), nil, f, dir)
	assert.Error(t, err)

	p, err := Save(context.Background(), fakeDoer{body: "%PDF", status: 200}, f, dir)
	require.NoError(t, err)
	data, _ := os.ReadFile(p)
	assert.Equal(t, "%PDF", string(data))

	_, err = Save(context.Background(), fakeDoer{status: 404}, f, dir)
	assert.Equal(t, 404, apperrors.GetHTTPStatus(err))
}
