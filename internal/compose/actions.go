package compose

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/notify"
	"github.com/diogo/chatdeck/internal/state"
)

// ErrNothingToRefresh is returned when the last message is not an
// assistant response.
var ErrNothingToRefresh = errors.New("last message is not an assistant response")

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// ClipboardReader reads text from the clipboard. SystemClipboard
// implements it.
type ClipboardReader interface {
	ReadAll() (string, error)
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }
func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }

// SystemClipboard is the OS clipboard.
var SystemClipboard Clipboard = systemClipboard{}

// Actions are the per-message controls of the read view. Each acts on the
// current chat.
type Actions struct {
	Store     *state.Store
	Submitter Submitter
	Clipboard Clipboard
	Notifier  notify.Notifier
	Log       *slog.Logger
}

func (a *Actions) logger() *slog.Logger {
	if a.Log == nil {
		return slog.Default()
	}
	return a.Log
}

func (a *Actions) notifier() notify.Notifier {
	if a.Notifier == nil {
		return notify.Discard
	}
	return a.Notifier
}

func (a *Actions) current() (int, chat.Chat, error) {
	snap := a.Store.Snapshot()
	c, ok := snap.CurrentChat()
	if !ok {
		return -1, chat.Chat{}, ErrNoChat
	}
	return snap.Current, c, nil
}

// MoveUp swaps message i with the one above it and reports whether it
// moved. The first message stays put.
func (a *Actions) MoveUp(i int) (bool, error) {
	return a.move(i, state.Up)
}

// MoveDown swaps message i with the one below it and reports whether it
// moved. The last message stays put.
func (a *Actions) MoveDown(i int) (bool, error) {
	return a.move(i, state.Down)
}

func (a *Actions) move(i int, dir state.Direction) (bool, error) {
	idx, c, err := a.current()
	if err != nil {
		return false, err
	}
	if i < 0 || i > c.LastIndex() {
		return false, state.ErrNoMessage
	}
	if (dir == state.Up && i == 0) || (dir == state.Down && i == c.LastIndex()) {
		return false, nil
	}
	if err := a.dispatch(state.MoveMessage(idx, i, dir)); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes message i.
func (a *Actions) Delete(i int) error {
	idx, _, err := a.current()
	if err != nil {
		return err
	}
	return a.dispatch(state.DeleteMessage(idx, i))
}

// Refresh drops the last assistant message and asks for a new response.
func (a *Actions) Refresh(ctx context.Context) error {
	if a.Store.Generating() {
		return ErrGenerating
	}
	idx, c, err := a.current()
	if err != nil {
		return err
	}
	if len(c.Messages) == 0 || c.Messages[c.LastIndex()].Role != chat.Assistant {
		return ErrNothingToRefresh
	}
	if err := a.dispatch(state.DropLastMessage(idx)); err != nil {
		return err
	}
	if a.Submitter == nil {
		return nil
	}
	return a.Submitter.Submit(ctx)
}

// CanRefresh reports whether message i offers the refresh action.
func (a *Actions) CanRefresh(i int) bool {
	_, c, err := a.current()
	if err != nil || a.Store.Generating() {
		return false
	}
	return i == c.LastIndex() && c.Messages[i].Role == chat.Assistant
}

// Copy puts the text of message i on the clipboard.
func (a *Actions) Copy(i int) error {
	_, c, err := a.current()
	if err != nil {
		return err
	}
	if i < 0 || i >= len(c.Messages) {
		return state.ErrNoMessage
	}
	cb := a.Clipboard
	if cb == nil {
		cb = SystemClipboard
	}
	if err := cb.WriteAll(c.Messages[i].Content.Text()); err != nil {
		a.logger().Warn("clipboard write failed", "error", err)
		notify.Errorn(a.notifier(), "Copy failed: "+err.Error())
		return err
	}
	a.notifier().Notify(notify.NewFor(notify.Success, "Copied to clipboard", 2*time.Second))
	return nil
}

func (a *Actions) dispatch(r state.Reducer) error {
	if err := a.Store.Dispatch(r); err != nil {
		a.logger().Error("message action failed", "error", err)
		notify.Errorn(a.notifier(), err.Error())
		return err
	}
	return nil
}
