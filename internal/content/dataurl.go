package content

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// EncodeDataURL returns a base64 data URL for the payload.
func EncodeDataURL(mime string, data []byte) string {
	if mime == "" {
		mime = "application/octet-stream"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsDataURL reports whether s is an inline data URL.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeDataURL splits a data URL into its MIME type and payload. Both
// base64 and percent-encoded payloads are supported.
func DecodeDataURL(s string) (string, []byte, error) {
	if !IsDataURL(s) {
		return "", nil, fmt.Errorf("not a data URL")
	}
	header, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URL: missing payload separator")
	}

	mime := header
	isBase64 := false
	if strings.HasSuffix(header, ";base64") {
		isBase64 = true
		mime = strings.TrimSuffix(header, ";base64")
	}
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if mime == "" {
		mime = "text/plain"
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("malformed data URL payload: %w", err)
		}
		return mime, data, nil
	}

	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("malformed data URL payload: %w", err)
	}
	return mime, []byte(unescaped), nil
}
