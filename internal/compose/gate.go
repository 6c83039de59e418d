// Package compose implements message editing: the edit session, the
// persistence gate with its capacity fallback, and per-message actions.
package compose

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/content"
	apperrors "github.com/diogo/chatdeck/internal/errors"
	"github.com/diogo/chatdeck/internal/notify"
	"github.com/diogo/chatdeck/internal/state"
)

// Notification texts for the capacity fallback.
const (
	MsgQuotaExceeded = "Storage quota exceeded. Attachments could not be saved."
	MsgTextSavedOnly = "Saved the text only. Attachments were dropped to fit the storage quota."
)

// Outcome reports how a commit was persisted.
type Outcome int

const (
	// OutcomeCommitted means the full content was saved.
	OutcomeCommitted Outcome = iota
	// OutcomeDegraded means only the text was saved after a capacity failure.
	OutcomeDegraded
)

func (o Outcome) String() string {
	if o == OutcomeDegraded {
		return "degraded"
	}
	return "committed"
}

// Target addresses where a buffer is committed.
type Target struct {
	Chat    int
	Message int
	Role    chat.Role
	append  bool
}

// EditTarget replaces the content of an existing message.
func EditTarget(chatIdx, msgIdx int) Target {
	return Target{Chat: chatIdx, Message: msgIdx}
}

// AppendTarget appends a new message with the given role.
func AppendTarget(chatIdx int, role chat.Role) Target {
	return Target{Chat: chatIdx, Message: -1, Role: role, append: true}
}

// IsAppend reports whether the target appends a message.
func (t Target) IsAppend() bool {
	return t.append
}

func (t Target) String() string {
	if t.append {
		return fmt.Sprintf("append(chat=%d, role=%s)", t.Chat, t.Role)
	}
	return fmt.Sprintf("edit(chat=%d, message=%d)", t.Chat, t.Message)
}

func (t Target) reducer(buf content.Buffer) state.Reducer {
	if t.append {
		return state.AppendMessage(t.Chat, chat.Message{Role: t.Role, Content: buf})
	}
	return state.SetMessageContent(t.Chat, t.Message, buf)
}

// Gate commits edited content to the store. When the backend rejects a
// commit for capacity, the gate restores the prior snapshot and retries the
// same target with the text only.
type Gate struct {
	store    *state.Store
	notifier notify.Notifier
	log      *slog.Logger
}

// NewGate creates a gate over store.
func NewGate(store *state.Store, n notify.Notifier, log *slog.Logger) *Gate {
	if n == nil {
		n = notify.Discard
	}
	if log == nil {
		log = slog.Default()
	}
	return &Gate{store: store, notifier: n, log: log}
}

// Commit writes buf to target. Extra reducers run after the content change
// in the same dispatch (and again on the text-only retry).
func (g *Gate) Commit(ctx context.Context, target Target, buf content.Buffer, extra ...state.Reducer) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return OutcomeCommitted, err
	}

	err := g.store.Dispatch(append([]state.Reducer{target.reducer(buf)}, extra...)...)
	if err == nil {
		g.log.Debug("commit", "target", target.String(), "items", buf.Len())
		return OutcomeCommitted, nil
	}

	if !apperrors.IsQuotaExceeded(err) {
		g.log.Error("commit failed", "target", target.String(), "error", err)
		notify.Errorn(g.notifier, err.Error())
		return OutcomeCommitted, err
	}

	// A failed dispatch never swaps the snapshot, so there is nothing to
	// restore before the retry.
	g.log.Warn("commit over quota, retrying with text only", "target", target.String(), "error", err)
	notify.Errorn(g.notifier, MsgQuotaExceeded)

	textOnly := buf.TextOnly()
	if err := g.store.Dispatch(append([]state.Reducer{target.reducer(textOnly)}, extra...)...); err != nil {
		g.log.Error("text-only commit failed", "target", target.String(), "error", err)
		notify.Errorn(g.notifier, err.Error())
		return OutcomeDegraded, err
	}

	notify.Infon(g.notifier, MsgTextSavedOnly)
	return OutcomeDegraded, nil
}
