// Package errors provides custom error types for chatdeck.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrQuotaExceeded   = errors.New("storage quota exceeded")
	ErrUnsupportedType = errors.New("unsupported attachment type")
	ErrTooLarge        = errors.New("attachment too large")
	ErrPreviewFailed   = errors.New("preview failed")
	ErrInvalidResponse = errors.New("invalid response format")
	ErrNoAPIKey        = errors.New("no API key configured")
)

// CapacityError is returned by a storage backend when a snapshot does not fit.
type CapacityError struct {
	Size  int64
	Limit int64
}

func (e *CapacityError) Error() string {
	if e.Limit <= 0 {
		return ErrQuotaExceeded.Error()
	}
	return fmt.Sprintf("storage quota exceeded: %d bytes over a %d byte limit", e.Size-e.Limit, e.Limit)
}

// Is allows comparison with sentinel errors
func (e *CapacityError) Is(target error) bool {
	if target == ErrQuotaExceeded {
		return true
	}
	_, ok := target.(*CapacityError)
	return ok
}

// NewCapacityError creates a new CapacityError
func NewCapacityError(size, limit int64) *CapacityError {
	return &CapacityError{Size: size, Limit: limit}
}

// UnsupportedTypeError represents an attachment whose MIME type is not allowed
type UnsupportedTypeError struct {
	MIME string
	Name string
}

func (e *UnsupportedTypeError) Error() string {
	mime := e.MIME
	if mime == "" {
		mime = "Unknown"
	}
	if e.Name == "" {
		return fmt.Sprintf("unsupported file type: %s", mime)
	}
	return fmt.Sprintf("unsupported file type: %s (%s)", mime, e.Name)
}

// Is allows comparison with sentinel errors
func (e *UnsupportedTypeError) Is(target error) bool {
	if target == ErrUnsupportedType {
		return true
	}
	_, ok := target.(*UnsupportedTypeError)
	return ok
}

// NewUnsupportedTypeError creates a new UnsupportedTypeError
func NewUnsupportedTypeError(mime, name string) *UnsupportedTypeError {
	return &UnsupportedTypeError{MIME: mime, Name: name}
}

// AttachmentTooLargeError represents an attachment above the size limit
type AttachmentTooLargeError struct {
	Name  string
	Size  int64
	Limit int64
}

func (e *AttachmentTooLargeError) Error() string {
	return fmt.Sprintf("%s is %d bytes, maximum is %d", e.Name, e.Size, e.Limit)
}

// Is allows comparison with sentinel errors
func (e *AttachmentTooLargeError) Is(target error) bool {
	if target == ErrTooLarge {
		return true
	}
	_, ok := target.(*AttachmentTooLargeError)
	return ok
}

// NewAttachmentTooLargeError creates a new AttachmentTooLargeError
func NewAttachmentTooLargeError(name string, size, limit int64) *AttachmentTooLargeError {
	return &AttachmentTooLargeError{Name: name, Size: size, Limit: limit}
}

// PreviewError represents an attachment that could not be decoded for preview
type PreviewError struct {
	Name  string
	Cause error
}

func (e *PreviewError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("unable to preview %s", e.Name)
	}
	return fmt.Sprintf("unable to preview %s: %v", e.Name, e.Cause)
}

func (e *PreviewError) Unwrap() error {
	return e.Cause
}

// Is allows comparison with sentinel errors
func (e *PreviewError) Is(target error) bool {
	return target == ErrPreviewFailed
}

// NewPreviewError creates a new PreviewError
func NewPreviewError(name string, cause error) *PreviewError {
	return &PreviewError{Name: name, Cause: cause}
}

// APIError represents a provider request failure
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Message)
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// NewAPIErrorWithBody creates a new APIError carrying the response body
func NewAPIErrorWithBody(statusCode int, endpoint, message, body string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
		Body:       body,
	}
}

// NetworkError represents a transport failure
type NetworkError struct {
	Op       string
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("network error during %s at %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(op, endpoint string, err error) *NetworkError {
	return &NetworkError{Op: op, Endpoint: endpoint, Err: err}
}

// TimeoutError represents a request timeout
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Message)
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{Message: message}
}

// ParseError represents a response parsing error
type ParseError struct {
	Message string
	Path    string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse error: %s", e.Message)
	}
	return fmt.Sprintf("parse error at %s: %s", e.Path, e.Message)
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// NewParseError creates a new ParseError
func NewParseError(message, path string) *ParseError {
	return &ParseError{Message: message, Path: path}
}

// IsQuotaExceeded reports whether err is a storage capacity failure
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// IsUnsupportedType reports whether err rejects an attachment type
func IsUnsupportedType(err error) bool {
	return errors.Is(err, ErrUnsupportedType)
}

// IsNetworkError reports whether err is a transport failure
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsTimeoutError reports whether err is a timeout
func IsTimeoutError(err error) bool {
	var tErr *TimeoutError
	return errors.As(err, &tErr)
}

// IsAuthError reports whether err is a 401/403 from the provider
func IsAuthError(err error) bool {
	status := GetHTTPStatus(err)
	return status == 401 || status == 403 || errors.Is(err, ErrNoAPIKey)
}

// IsRateLimitError reports whether err is a 429 from the provider
func IsRateLimitError(err error) bool {
	return GetHTTPStatus(err) == 429
}

// GetHTTPStatus extracts the HTTP status code, or 0
func GetHTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// GetEndpoint extracts the endpoint of a provider or network error
func GetEndpoint(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Endpoint
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Endpoint
	}
	return ""
}

// GetResponseBody extracts the provider response body, if any
func GetResponseBody(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Body
	}
	return ""
}
