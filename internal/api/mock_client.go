package api

import (
	"context"
	"strings"
	"sync"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/compose"
	"github.com/diogo/chatdeck/internal/state"
)

// MockClient is a Completer that replays fixed deltas.
type MockClient struct {
	Deltas []string
	Err    error

	mu       sync.Mutex
	Requests []*Request
}

var _ Completer = (*MockClient)(nil)

// Complete records the request and replays Deltas, then returns Err.
func (m *MockClient) Complete(ctx context.Context, req *Request, onDelta func(string)) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	var sb strings.Builder
	for _, d := range m.Deltas {
		if err := ctx.Err(); err != nil {
			return sb.String(), err
		}
		sb.WriteString(d)
		if onDelta != nil {
			onDelta(d)
		}
	}
	return sb.String(), m.Err
}

// LastRequest returns the most recent request, or nil.
func (m *MockClient) LastRequest() *Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	return m.Requests[len(m.Requests)-1]
}

// MockSubmitter counts submissions and optionally appends a fixed
// assistant reply to the current chat.
type MockSubmitter struct {
	Store *state.Store
	Reply string
	Err   error

	mu    sync.Mutex
	calls int
}

var _ compose.Submitter = (*MockSubmitter)(nil)

// Submit records the call, then appends Reply when set.
func (m *MockSubmitter) Submit(ctx context.Context) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	if m.Store == nil || m.Reply == "" {
		return nil
	}
	snap := m.Store.Snapshot()
	if _, ok := snap.CurrentChat(); !ok {
		return compose.ErrNoChat
	}
	return m.Store.Dispatch(state.AppendMessage(snap.Current, chat.NewMessage(chat.Assistant, m.Reply)))
}

// Calls returns the number of Submit calls.
func (m *MockSubmitter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
