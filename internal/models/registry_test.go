package models

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

	apperrors "github.com/diogo/chatdeck/internal/errors"
)

const descriptor = `{"data":[
	{"id":"openai/gpt-4o","provider":"OpenAI","pricing":{"prompt":"0.0000025","completion":"0.00001","image":"0.003613"},"context_length":128000},
	{"id":"anthropic/claude-3-haiku","provider":"Anthropic","pricing":{"prompt":"0.00000025","completion":"0.00000125","image":"0"},"context_length":200000},
	{"id":"openai/o1-preview","provider":"OpenAI","pricing":{"prompt":"0.000015","completion":"0.00006","image":"0"},"context_length":128000},
	{"id":"mistralai/mistral-large","pricing":{"prompt":"0.000002","completion":"0.000006","image":""},"context_length":32000},
	{"id":""}
]}`

func TestParse(t *testing.T) {
	r, err := Parse([]byte(descriptor))
	require.NoError(t, err)

	assert.Equal(t, []string{"gpt-4o", "claude-3-haiku", "o1-preview", "mistral-large"}, r.Options())
	assert.Equal(t, []string{"OpenAI", "Anthropic", "mistralai"}, r.Providers())
	assert.Equal(t, []string{"gpt-4o", "o1-preview"}, r.ModelsFor("OpenAI"))

	m, ok := r.Get("gpt-4o")
	require.True(t, ok)
	assert.Equal(t, "openai/gpt-4o", m.FullID)
	assert.Equal(t, 128000, m.MaxContext)
	assert.Equal(t, CapabilityImage, m.Capability)
	assert.InDelta(t, 0.003613, m.Cost.Image.Price, 1e-9)
	assert.Equal(t, 1, m.Cost.Prompt.Unit)

	assert.Equal(t, CapabilityText, r.Capability("claude-3-haiku"))
	assert.Equal(t, CapabilityText, r.Capability("mistral-large"))
	assert.Equal(t, CapabilityText, r.Capability("unknown"))
	assert.True(t, r.SupportsImages("gpt-4o"))

	assert.False(t, r.StreamSupported("o1-preview"))
	assert.True(t, r.StreamSupported("gpt-4o"))
	assert.Equal(t, 200000, r.MaxContext("claude-3-haiku"))
}

func TestFindProvider(t *testing.T) {
	r, err := Parse([]byte(descriptor))
	require.NoError(t, err)

	assert.Equal(t, "Anthropic", r.FindProvider("claude-3-haiku"))
	assert.Equal(t, "OpenAI", r.FindProvider("does-not-exist"))
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{`{`, `{"models":[]}`, `{"data":[]}`} {
		_, err := Parse([]byte(in))
		assert.ErrorIs(t, err, apperrors.ErrInvalidResponse, in)
	}
}

func TestFallback(t *testing.T) {
	r := Fallback()
	assert.True(t, r.Has(DefaultModel))
	assert.True(t, r.SupportsImages(DefaultModel))
	assert.False(t, r.StreamSupported("o1-mini"))
}

type fakeDoer struct {
	status int
	body   string
	err    error
}

func (f fakeDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fhttp.Response{StatusCode: f.status, Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestLoad_URLAndFile(t *testing.T) {
	ctx := context.Background()

	r, err := Load(ctx, "https://example.com/models.json", fakeDoer{status: 200, body: descriptor})
	require.NoError(t, err)
	assert.Equal(t, 4, r.Len())

	_, err = Load(ctx, "https://example.com/models.json", fakeDoer{status: 500, body: "oops"})
	assert.Equal(t, 500, apperrors.GetHTTPStatus(err))
	assert.Equal(t, "oops", apperrors.GetResponseBody(err))

	_, err = Load(ctx, "https://example.com/models.json", fakeDoer{err: errors.New("offline")})
	assert.True(t, apperrors.IsNetworkError(err))

	p := filepath.Join(t.TempDir(), "models.json")
	require.NoError(t, os.WriteFile(p, []byte(descriptor), 0o600))
	r, err = Load(ctx, p, nil)
	require.NoError(t, err)
	assert.Equal(t, "Anthropic", r.FindProvider("claude-3-haiku"))
}

func TestLoadOrFallback(t *testing.T) {
	r := LoadOrFallback(context.Background(), "/nonexistent/models.json", nil, nil)
	assert.True(t, r.Has(DefaultModel))

	r = LoadOrFallback(context.Background(), "", nil, nil)
	assert.True(t, r.Has(DefaultModel))
}
