// Package ingest turns files, clipboard payloads and URLs into message
// attachments.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"

	"github.com/diogo/chatdeck/internal/content"
	apperrors "github.com/diogo/chatdeck/internal/errors"
	"github.com/diogo/chatdeck/internal/notify"
)

// ErrNotAttachment is returned by FromPaste when the pasted text is neither
// a file path nor a URL.
var ErrNotAttachment = errors.New("pasted text is not an attachment")

// ErrEmptyClipboard is returned by FromClipboardText when there is nothing
// to attach.
var ErrEmptyClipboard = errors.New("clipboard is empty")

// DefaultProbeTimeout bounds the HEAD request used to size URL attachments.
const DefaultProbeTimeout = 10 * time.Second

// HTTPDoer executes HTTP requests. tls_client.HttpClient satisfies it.
type HTTPDoer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
}

// Ingestor builds attachments. The zero value is not usable; use New.
type Ingestor struct {
	client       HTTPDoer
	log          *slog.Logger
	maxSize      int64
	probeTimeout time.Duration
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithHTTPClient sets the client used for URL probes. Without one, URL
// attachments get size 0.
func WithHTTPClient(c HTTPDoer) Option {
	return func(i *Ingestor) {
		i.client = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Ingestor) {
		if l != nil {
			i.log = l
		}
	}
}

// WithMaxSize overrides the attachment size limit.
func WithMaxSize(n int64) Option {
	return func(i *Ingestor) {
		i.maxSize = n
	}
}

// WithProbeTimeout overrides the URL probe timeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(i *Ingestor) {
		i.probeTimeout = d
	}
}

// New creates an Ingestor.
func New(opts ...Option) *Ingestor {
	i := &Ingestor{
		log:          slog.Default(),
		maxSize:      MaxAttachmentSize,
		probeTimeout: DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// FromFile reads a file from disk and returns an image or file attachment.
func (i *Ingestor) FromFile(filePath string, detail content.Detail) (content.Item, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", filePath)
	}
	name := filepath.Base(filePath)
	if info.Size() > i.maxSize {
		return nil, apperrors.NewAttachmentTooLargeError(name, info.Size(), i.maxSize)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	mimeType := TypeByExtension(name)
	if mimeType == "" {
		mimeType = fhttp.DetectContentType(data)
	}
	return i.FromBlob(name, mimeType, data, detail)
}

// FromBlob builds an attachment from a named payload whose type is known,
// such as a file read from disk.
func (i *Ingestor) FromBlob(name, mimeType string, data []byte, detail content.Detail) (content.Item, error) {
	mimeType = baseType(mimeType)
	if mimeType == "" {
		mimeType = TypeByExtension(name)
	}
	if !AllowedFile(mimeType) {
		return nil, apperrors.NewUnsupportedTypeError(mimeType, name)
	}
	if int64(len(data)) > i.maxSize {
		return nil, apperrors.NewAttachmentTooLargeError(name, int64(len(data)), i.maxSize)
	}
	return i.build(name, mimeType, data, detail)
}

// FromClipboard builds an attachment from a clipboard payload. Images are
// always accepted; other types must be on the allow-list. Payloads without
// a name are called "file" plus the type's extension.
func (i *Ingestor) FromClipboard(name, mimeType string, data []byte, detail content.Detail) (content.Item, error) {
	mimeType = baseType(mimeType)
	if !AllowedClipboard(mimeType) {
		return nil, apperrors.NewUnsupportedTypeError(mimeType, name)
	}
	if name == "" {
		name = "file" + ExtensionFor(mimeType)
	}
	if int64(len(data)) > i.maxSize {
		return nil, apperrors.NewAttachmentTooLargeError(name, int64(len(data)), i.maxSize)
	}
	return i.build(name, mimeType, data, detail)
}

func (i *Ingestor) build(name, mimeType string, data []byte, detail content.Detail) (content.Item, error) {
	if detail == "" {
		detail = content.DetailAuto
	}
	dataURL := content.EncodeDataURL(mimeType, data)
	if IsImage(mimeType) {
		i.log.Debug("image attached", "name", name, "type", mimeType, "bytes", len(data))
		return content.Image{URL: dataURL, Detail: detail}, nil
	}
	i.log.Debug("file attached", "name", name, "type", mimeType, "bytes", len(data))
	return content.File{
		Name:    name,
		MIME:    mimeType,
		Content: dataURL,
		Size:    int64(len(data)),
	}, nil
}

// FromURL builds an attachment referencing a remote resource. URLs whose
// path ends in an image extension become image references; anything else
// becomes a file whose size comes from a HEAD probe. A failed probe is
// logged and yields size 0.
func (i *Ingestor) FromURL(ctx context.Context, rawURL string, detail content.Detail) (content.Item, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("empty URL")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if detail == "" {
		detail = content.DetailAuto
	}

	if isImageURLPath(u.Path) {
		return content.Image{URL: rawURL, Detail: detail}, nil
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	fileType := "application/octet-stream"
	if ext := path.Ext(name); len(ext) > 1 {
		fileType = ext[1:]
	}

	return content.File{
		Name:    name,
		MIME:    fileType,
		Content: rawURL,
		Size:    i.probeSize(ctx, rawURL),
	}, nil
}

// probeSize issues a HEAD request and returns Content-Length, or 0.
func (i *Ingestor) probeSize(ctx context.Context, rawURL string) int64 {
	if i.client == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(ctx, i.probeTimeout)
	defer cancel()

	req, err := fhttp.NewRequest(fhttp.MethodHead, rawURL, nil)
	if err != nil {
		i.log.Warn("size probe failed", "url", rawURL, "error", err)
		return 0
	}
	req = req.WithContext(ctx)

	resp, err := i.client.Do(req)
	if err != nil {
		i.log.Warn("size probe failed", "url", rawURL, "error", err)
		return 0
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		i.log.Warn("size probe failed", "url", rawURL, "status", resp.StatusCode)
		return 0
	}
	if resp.ContentLength > 0 {
		return resp.ContentLength
	}
	return 0
}

// FromPaste interprets pasted text. An existing file path is attached as a
// file, an http(s) URL goes through FromURL, and anything else returns
// ErrNotAttachment so the caller can insert the text instead.
func (i *Ingestor) FromPaste(ctx context.Context, text string, detail content.Detail) (content.Item, error) {
	ref := cleanPastedRef(text)
	if ref == "" || strings.ContainsAny(ref, "\n\r") {
		return nil, ErrNotAttachment
	}
	if isHTTPURL(ref) {
		return i.FromURL(ctx, ref, detail)
	}
	if info, err := os.Stat(ref); err == nil && info.Mode().IsRegular() {
		return i.FromFile(ref, detail)
	}
	return nil, ErrNotAttachment
}

// FromClipboardText attaches clipboard text. A path or link is resolved
// like a paste; other text becomes an unnamed text/plain clipboard payload.
func (i *Ingestor) FromClipboardText(ctx context.Context, text string, detail content.Detail) (content.Item, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyClipboard
	}
	it, err := i.FromPaste(ctx, text, detail)
	if !errors.Is(err, ErrNotAttachment) {
		return it, err
	}
	return i.FromClipboard("", "text/plain", []byte(text), detail)
}

// IngestAll attaches every reference (file path or URL). Failures are sent
// to n and returned alongside the items that succeeded.
func (i *Ingestor) IngestAll(ctx context.Context, refs []string, detail content.Detail, n notify.Notifier) ([]content.Item, []error) {
	if n == nil {
		n = notify.Discard
	}
	var items []content.Item
	var errs []error
	for _, ref := range refs {
		var it content.Item
		var err error
		if isHTTPURL(ref) {
			it, err = i.FromURL(ctx, ref, detail)
		} else {
			it, err = i.FromFile(ref, detail)
		}
		if err != nil {
			i.log.Warn("attachment rejected", "ref", ref, "error", err)
			notify.Errorn(n, err.Error())
			errs = append(errs, err)
			continue
		}
		items = append(items, it)
	}
	return items, errs
}

func isHTTPURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// cleanPastedRef undoes the quoting terminals apply to dropped paths.
func cleanPastedRef(text string) string {
	s := strings.TrimSpace(text)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	if strings.HasPrefix(s, "file://") {
		if u, err := url.Parse(s); err == nil {
			s = u.Path
		}
	}
	if !isHTTPURL(s) {
		s = strings.ReplaceAll(s, `\ `, " ")
	}
	return s
}
