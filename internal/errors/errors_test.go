package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCapacityError(t *testing.T) {
	err := NewCapacityError(6000, 5000)

	expected := "storage quota exceeded: 1000 bytes over a 5000 byte limit"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if !errors.Is(err, ErrQuotaExceeded) {
		t.Error("Expected CapacityError to match ErrQuotaExceeded")
	}

	wrapped := fmt.Errorf("save chats: %w", err)
	if !IsQuotaExceeded(wrapped) {
		t.Error("Expected wrapped CapacityError to be detected")
	}

	if IsQuotaExceeded(errors.New("disk full")) {
		t.Error("Expected plain error not to be a quota error")
	}
}

func TestCapacityError_NoLimit(t *testing.T) {
	err := NewCapacityError(10, 0)
	if err.Error() != "storage quota exceeded" {
		t.Errorf("Error() = %s", err.Error())
	}
}

func TestUnsupportedTypeError(t *testing.T) {
	tests := []struct {
		name string
		mime string
		file string
		want string
	}{
		{"with name", "application/zip", "a.zip", "unsupported file type: application/zip (a.zip)"},
		{"no name", "video/mp4", "", "unsupported file type: video/mp4"},
		{"unknown", "", "", "unsupported file type: Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewUnsupportedTypeError(tt.mime, tt.file)
			if err.Error() != tt.want {
				t.Errorf("Error() = %s, want %s", err.Error(), tt.want)
			}
			if !IsUnsupportedType(err) {
				t.Error("Expected IsUnsupportedType to be true")
			}
		})
	}
}

func TestAttachmentTooLargeError(t *testing.T) {
	err := NewAttachmentTooLargeError("big.pdf", 30, 20)
	if !errors.Is(err, ErrTooLarge) {
		t.Error("Expected match with ErrTooLarge")
	}
	if IsUnsupportedType(err) {
		t.Error("Expected too-large error not to be an unsupported type")
	}
}

func TestPreviewError(t *testing.T) {
	cause := errors.New("illegal base64 data")
	err := NewPreviewError("notes.txt", cause)

	if !errors.Is(err, ErrPreviewFailed) {
		t.Error("Expected match with ErrPreviewFailed")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected Unwrap to expose the cause")
	}
}

func TestAPIError(t *testing.T) {
	err := NewAPIError(400, "test-endpoint", "test API error")

	expected := "API error [400] at test-endpoint: test API error"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	noStatus := NewAPIError(0, "test-endpoint", "boom")
	if noStatus.Error() != "API error at test-endpoint: boom" {
		t.Errorf("Error() = %s", noStatus.Error())
	}
}

func TestHelpers(t *testing.T) {
	apiErr := fmt.Errorf("submit: %w", NewAPIErrorWithBody(429, "/chat/completions", "rate limited", `{"error":"slow down"}`))

	if GetHTTPStatus(apiErr) != 429 {
		t.Errorf("GetHTTPStatus = %d, want 429", GetHTTPStatus(apiErr))
	}
	if !IsRateLimitError(apiErr) {
		t.Error("Expected rate limit error")
	}
	if GetEndpoint(apiErr) != "/chat/completions" {
		t.Errorf("GetEndpoint = %s", GetEndpoint(apiErr))
	}
	if GetResponseBody(apiErr) != `{"error":"slow down"}` {
		t.Errorf("GetResponseBody = %s", GetResponseBody(apiErr))
	}

	netErr := NewNetworkError("probe", "https://example.com/a.pdf", errors.New("dial tcp"))
	if !IsNetworkError(netErr) {
		t.Error("Expected network error")
	}
	if GetEndpoint(netErr) != "https://example.com/a.pdf" {
		t.Errorf("GetEndpoint = %s", GetEndpoint(netErr))
	}

	if !IsAuthError(NewAPIError(401, "x", "unauthorized")) {
		t.Error("Expected 401 to be an auth error")
	}
	if !IsAuthError(ErrNoAPIKey) {
		t.Error("Expected ErrNoAPIKey to be an auth error")
	}
	if !IsTimeoutError(NewTimeoutError("")) {
		t.Error("Expected timeout error")
	}
	if GetHTTPStatus(errors.New("x")) != 0 {
		t.Error("Expected 0 status for plain errors")
	}
}

func TestParseError(t *testing.T) {
	err := NewParseError("missing data array", "data")
	if err.Error() != "parse error at data: missing data array" {
		t.Errorf("Error() = %s", err.Error())
	}
	if !errors.Is(err, ErrInvalidResponse) {
		t.Error("Expected match with ErrInvalidResponse")
	}
}
