package models

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	fhttp "github.com/bogdanfinn/fhttp"

	apperrors "github.com/diogo/chatdeck/internal/errors"
)

// DefaultDescriptorURL is the public OpenRouter model list.
const DefaultDescriptorURL = "https://openrouter.ai/api/v1/models"

// maxDescriptorSize bounds the descriptor download.
const maxDescriptorSize = 32 << 20

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
}

// Load reads a descriptor from an http(s) URL (using client) or a local
// file path.
func Load(ctx context.Context, source string, client HTTPDoer) (*Registry, error) {
	data, err := read(ctx, source, client)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadOrFallback loads the descriptor and falls back to the built-in one
// when loading fails. The failure is logged, never returned.
func LoadOrFallback(ctx context.Context, source string, client HTTPDoer, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	if source == "" {
		return Fallback()
	}
	r, err := Load(ctx, source, client)
	if err != nil {
		log.Warn("model descriptor unavailable, using built-in list", "source", source, "error", err)
		return Fallback()
	}
	log.Debug("model descriptor loaded", "source", source, "models", r.Len())
	return r
}

func read(ctx context.Context, source string, client HTTPDoer) ([]byte, error) {
	lower := strings.ToLower(source)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read model descriptor: %w", err)
		}
		return data, nil
	}
	if client == nil {
		return nil, fmt.Errorf("no HTTP client for %s", source)
	}

	req, err := fhttp.NewRequest(fhttp.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, apperrors.NewNetworkError("fetch models", source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDescriptorSize))
	if err != nil {
		return nil, apperrors.NewNetworkError("read models", source, err)
	}
	if resp.StatusCode != 200 {
		return nil, apperrors.NewAPIErrorWithBody(resp.StatusCode, source, "model descriptor request failed", string(body))
	}
	return body, nil
}
