package api

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apperrors "github.com/diogo/chatdeck/internal/errors"
)

// maxErrorBody limits how much of an error response is kept for diagnostics.
const maxErrorBody = 4096

// maxLineSize bounds a single SSE line.
const maxLineSize = 1 << 20

// Complete sends the request and returns the response text. When
// req.Stream is set the response is read as server-sent events and every
// text delta is passed to onDelta as it arrives; otherwise onDelta receives
// the whole text once.
func (c *Client) Complete(ctx context.Context, req *Request, onDelta func(string)) (string, error) {
	if onDelta == nil {
		onDelta = func(string) {}
	}

	body, err := req.Marshal()
	if err != nil {
		return "", err
	}

	endpoint := c.endpoint()
	httpReq, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq = httpReq.WithContext(ctx)
	c.setHeaders(httpReq, req.Stream)

	c.log.Debug("sending completion request",
		"model", req.Model, "messages", len(req.Messages), "stream", req.Stream)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", apperrors.NewNetworkError("chat completion", endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", apperrors.NewAPIErrorWithBody(
			resp.StatusCode, endpoint, errorMessage(errorBody, resp.StatusCode), string(errorBody))
	}

	if !req.Stream {
		return c.readWhole(resp.Body, endpoint, onDelta)
	}
	return c.readStream(ctx, resp.Body, endpoint, onDelta)
}

// readWhole parses a non-streaming JSON response.
func (c *Client) readWhole(r io.Reader, endpoint string, onDelta func(string)) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", apperrors.NewNetworkError("read completion", endpoint, err)
	}
	if !gjson.ValidBytes(data) {
		return "", apperrors.NewParseError("completion response is not JSON", "")
	}
	if msg := gjson.GetBytes(data, PathErrorMessage); msg.Exists() {
		return "", apperrors.NewAPIErrorWithBody(http.StatusOK, endpoint, msg.String(), string(data))
	}
	text := gjson.GetBytes(data, PathMessageContent)
	if !text.Exists() {
		return "", apperrors.NewParseError("completion response has no message content", PathMessageContent)
	}
	onDelta(text.String())
	return text.String(), nil
}

// readStream consumes server-sent events until [DONE] or end of body.
func (c *Client) readStream(ctx context.Context, r io.Reader, endpoint string, onDelta func(string)) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var sb strings.Builder
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return sb.String(), err
		}

		line := strings.TrimSpace(scanner.Text())
		// blank lines separate events; lines starting with ':' are comments
		// such as the provider's keep-alive "processing" notes
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, sseDataPrefix) {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, sseDataPrefix))
		if payload == sseDone {
			return sb.String(), nil
		}
		if !gjson.Valid(payload) {
			c.log.Debug("skipping malformed stream chunk", "chunk", payload)
			continue
		}
		if msg := gjson.Get(payload, PathErrorMessage); msg.Exists() {
			return sb.String(), apperrors.NewAPIErrorWithBody(http.StatusOK, endpoint, msg.String(), payload)
		}

		if delta := gjson.Get(payload, PathDeltaContent).String(); delta != "" {
			sb.WriteString(delta)
			onDelta(delta)
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return sb.String(), ctx.Err()
		}
		if errors.Is(err, bufio.ErrTooLong) {
			return sb.String(), apperrors.NewParseError("stream line too long", "")
		}
		return sb.String(), apperrors.NewNetworkError("read completion stream", endpoint, err)
	}
	return sb.String(), nil
}

// errorMessage extracts the provider's error message from a response body.
func errorMessage(body []byte, status int) string {
	if msg := gjson.GetBytes(body, PathErrorMessage); msg.Exists() && msg.String() != "" {
		return msg.String()
	}
	return fmt.Sprintf("request failed with status %d", status)
}
