// Package api provides the OpenAI-compatible chat completions client and the
// generator that streams responses into the chat store.
package api

// GJSON paths for extracting values from completion responses.
const (
	// Streaming chunk paths
	PathDeltaContent = "choices.0.delta.content"
	PathFinishReason = "choices.0.finish_reason"

	// Non-streaming response paths
	PathMessageContent = "choices.0.message.content"

	// Error body path, shared by HTTP error responses and in-stream errors
	PathErrorMessage = "error.message"
)

// SSE framing
const (
	sseDataPrefix = "data:"
	sseDone       = "[DONE]"
)
