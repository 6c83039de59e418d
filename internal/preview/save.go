package preview

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	fhttp "github.com/bogdanfinn/fhttp"

	"github.com/diogo/chatdeck/internal/content"
	apperrors "github.com/diogo/chatdeck/internal/errors"
)

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
}

// Save writes a file attachment into dir and returns the written path.
// Embedded payloads are decoded; remote ones are downloaded with client,
// which may be nil when only embedded files are expected. Existing files
// are never overwritten.
func Save(ctx context.Context, client HTTPDoer, f content.File, dir string) (string, error) {
	data, err := payload(ctx, client, f)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	target := uniquePath(dir, safeName(f.Name))
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	return target, nil
}

func payload(ctx context.Context, client HTTPDoer, f content.File) ([]byte, error) {
	if content.IsDataURL(f.Content) {
		_, data, err := content.DecodeDataURL(f.Content)
		if err != nil {
			return nil, apperrors.NewPreviewError(f.Name, err)
		}
		return data, nil
	}
	if client == nil {
		return nil, fmt.Errorf("cannot download %s: no HTTP client", f.Content)
	}

	req, err := fhttp.NewRequest(fhttp.MethodGet, f.Content, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid file URL: %w", err)
	}
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, apperrors.NewNetworkError("download", f.Content, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewAPIError(resp.StatusCode, f.Content, "download failed")
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetworkError("download", f.Content, err)
	}
	return data, nil
}

func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}

func uniquePath(dir, name string) string {
	target := filepath.Join(dir, name)
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return target
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		target = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if _, err := os.Stat(target); os.IsNotExist(err) {
			return target
		}
	}
}
