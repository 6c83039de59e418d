package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/chatdeck/internal/compose"
)

// genDoneMsg reports the end of a background generation.
type genDoneMsg struct {
	err error
}

// storeChangedMsg signals a new store snapshot.
type storeChangedMsg struct{}

// asyncSubmitter runs the wrapped submitter in its own goroutine so the UI
// loop never blocks on a response. Submit returns as soon as the goroutine
// starts; the result arrives as a genDoneMsg.
type asyncSubmitter struct {
	inner  compose.Submitter
	parent context.Context
	done   chan error

	mu     sync.Mutex
	cancel context.CancelFunc
}

func newAsyncSubmitter(parent context.Context, inner compose.Submitter) *asyncSubmitter {
	return &asyncSubmitter{inner: inner, parent: parent, done: make(chan error, 4)}
}

// Submit starts a generation bounded by the program context. The ctx
// argument belongs to the key press that triggered it and is not used.
func (a *asyncSubmitter) Submit(context.Context) error {
	ctx, cancel := context.WithCancel(a.parent)
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	go func() {
		err := a.inner.Submit(ctx)
		cancel()
		a.done <- err
	}()
	return nil
}

// Stop cancels the running generation, if any.
func (a *asyncSubmitter) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

func (a *asyncSubmitter) wait() tea.Cmd {
	return func() tea.Msg {
		return genDoneMsg{err: <-a.done}
	}
}

// storeWatch coalesces store notifications into one pending signal.
type storeWatch struct {
	ch chan struct{}
}

func newStoreWatch() *storeWatch {
	return &storeWatch{ch: make(chan struct{}, 1)}
}

func (w *storeWatch) signal() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

func (w *storeWatch) wait() tea.Cmd {
	return func() tea.Msg {
		<-w.ch
		return storeChangedMsg{}
	}
}
