package compose

import (
	"context"
	"errors"
	"fmt"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/content"
	"github.com/diogo/chatdeck/internal/ingest"
	"github.com/diogo/chatdeck/internal/notify"
	"github.com/diogo/chatdeck/internal/state"
)

var (
	// ErrNothingToSave is returned when the composer holds no content.
	ErrNothingToSave = errors.New("nothing to save")
	// ErrGenerating is returned while a response is being generated.
	ErrGenerating = errors.New("a response is being generated")
	// ErrNoChat is returned when there is no current chat.
	ErrNoChat = errors.New("no chat selected")
	// ErrSessionClosed is returned by an edit session after it ended.
	ErrSessionClosed = errors.New("edit session has ended")
)

// Submitter asks for an assistant response to the current chat.
type Submitter interface {
	Submit(ctx context.Context) error
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(ctx context.Context) error

// Submit calls f(ctx).
func (f SubmitFunc) Submit(ctx context.Context) error { return f(ctx) }

// Mode distinguishes the always-present composer from editing a message.
type Mode int

const (
	ModeSticky Mode = iota
	ModeEdit
)

// Deps are the collaborators of a session.
type Deps struct {
	Store     *state.Store
	Gate      *Gate
	Submitter Submitter
	Notifier  notify.Notifier
	Ingestor  *ingest.Ingestor
}

// Session holds an in-progress buffer. A sticky session composes new
// messages and lives as long as the chat view; an edit session targets one
// existing message and ends on save or generate.
type Session struct {
	deps    Deps
	mode    Mode
	message int
	role    chat.Role
	buf     content.Buffer
	closed  bool
}

// NewComposer returns a sticky session with an empty buffer.
func NewComposer(deps Deps) *Session {
	return &Session{deps: withDefaults(deps), mode: ModeSticky, message: -1, role: chat.User}
}

// NewEditor returns an edit session for message msgIdx of the current chat,
// preloaded with its content.
func NewEditor(deps Deps, msgIdx int) (*Session, error) {
	deps = withDefaults(deps)
	c, ok := deps.Store.Snapshot().CurrentChat()
	if !ok {
		return nil, ErrNoChat
	}
	if msgIdx < 0 || msgIdx >= len(c.Messages) {
		return nil, fmt.Errorf("%w: index %d", state.ErrNoMessage, msgIdx)
	}
	msg := c.Messages[msgIdx]
	return &Session{
		deps:    deps,
		mode:    ModeEdit,
		message: msgIdx,
		role:    msg.Role,
		buf:     msg.Content,
	}, nil
}

func withDefaults(d Deps) Deps {
	if d.Notifier == nil {
		d.Notifier = notify.Discard
	}
	if d.Gate == nil {
		d.Gate = NewGate(d.Store, d.Notifier, nil)
	}
	if d.Ingestor == nil {
		d.Ingestor = ingest.New()
	}
	return d
}

// Mode returns the session mode.
func (s *Session) Mode() Mode { return s.mode }

// Message returns the edited message index, or -1 for the composer.
func (s *Session) Message() int { return s.message }

// Closed reports whether an edit session has ended.
func (s *Session) Closed() bool { return s.closed }

// Buffer returns the in-progress content.
func (s *Session) Buffer() content.Buffer { return s.buf }

// Role returns the role new messages are sent with.
func (s *Session) Role() chat.Role { return s.role }

// SetRole changes the role of composed messages.
func (s *Session) SetRole(r chat.Role) {
	if r.Valid() {
		s.role = r
	}
}

// SetText replaces the text of the buffer.
func (s *Session) SetText(text string) {
	s.buf = s.buf.SetText(text)
}

// SetDetail changes the detail level of image attachment i.
func (s *Session) SetDetail(i int, d content.Detail) error {
	buf, err := s.buf.SetAttachmentDetail(i, d)
	s.buf = buf
	return err
}

// CycleDetail advances the detail level of image attachment i.
func (s *Session) CycleDetail(i int) error {
	it, ok := s.buf.Attachment(i)
	if !ok {
		return content.ErrIndexOutOfRange
	}
	img, ok := it.(content.Image)
	if !ok {
		return content.ErrNotImage
	}
	return s.SetDetail(i, img.Detail.Next())
}

// Remove deletes attachment i.
func (s *Session) Remove(i int) error {
	buf, err := s.buf.RemoveAttachment(i)
	s.buf = buf
	return err
}

// Attach appends a ready-made attachment.
func (s *Session) Attach(it content.Item) error {
	buf, err := s.buf.Append(it)
	s.buf = buf
	return err
}

func (s *Session) detail() content.Detail {
	if c, ok := s.deps.Store.Snapshot().CurrentChat(); ok && c.ImageDetail != "" {
		return c.ImageDetail
	}
	return content.DetailAuto
}

// AttachFile ingests a file from disk. Failures are also notified.
func (s *Session) AttachFile(path string) error {
	it, err := s.deps.Ingestor.FromFile(path, s.detail())
	if err != nil {
		notify.Errorn(s.deps.Notifier, err.Error())
		return err
	}
	return s.Attach(it)
}

// AttachURL attaches a remote resource. The size probe blocks until ctx
// expires or the probe returns.
func (s *Session) AttachURL(ctx context.Context, url string) error {
	it, err := s.deps.Ingestor.FromURL(ctx, url, s.detail())
	if err != nil {
		notify.Errorn(s.deps.Notifier, err.Error())
		return err
	}
	return s.Attach(it)
}

// Paste routes pasted text through the ingestor. It reports whether the
// text became an attachment; when it did not, the caller inserts the text.
// Paste works regardless of the model's image capability.
func (s *Session) Paste(ctx context.Context, text string) (bool, error) {
	it, err := s.deps.Ingestor.FromPaste(ctx, text, s.detail())
	if errors.Is(err, ingest.ErrNotAttachment) {
		return false, nil
	}
	if err != nil {
		notify.Errorn(s.deps.Notifier, err.Error())
		return false, err
	}
	return true, s.Attach(it)
}

// Cancel discards the buffer. An edit session ends.
func (s *Session) Cancel() {
	if s.mode == ModeEdit {
		s.closed = true
		return
	}
	s.buf = content.Buffer{}
}

// Save commits the buffer without generating. The composer appends a new
// message and resets; it refuses when empty or while generating. An edit
// session replaces its message and ends.
func (s *Session) Save(ctx context.Context) (Outcome, error) {
	if s.closed {
		return OutcomeCommitted, ErrSessionClosed
	}
	snap := s.deps.Store.Snapshot()
	if _, ok := snap.CurrentChat(); !ok {
		return OutcomeCommitted, ErrNoChat
	}

	if s.mode == ModeSticky {
		if s.buf.IsEmpty() {
			return OutcomeCommitted, ErrNothingToSave
		}
		if s.deps.Store.Generating() {
			return OutcomeCommitted, ErrGenerating
		}
		out, err := s.deps.Gate.Commit(ctx, AppendTarget(snap.Current, s.role), s.buf)
		if err == nil {
			s.buf = content.Buffer{}
		}
		return out, err
	}

	out, err := s.deps.Gate.Commit(ctx, EditTarget(snap.Current, s.message), s.buf)
	if err == nil {
		s.closed = true
	}
	return out, err
}

// Generate commits the buffer and asks for a response. The composer appends
// its content when non-empty; an edit session replaces its message and drops
// every later message. The submitter runs even if the commit failed, so the
// model answers whatever the chat holds.
func (s *Session) Generate(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.deps.Store.Generating() {
		return ErrGenerating
	}
	snap := s.deps.Store.Snapshot()
	if _, ok := snap.CurrentChat(); !ok {
		return ErrNoChat
	}

	var commitErr error
	switch s.mode {
	case ModeSticky:
		if !s.buf.IsEmpty() {
			_, commitErr = s.deps.Gate.Commit(ctx, AppendTarget(snap.Current, s.role), s.buf)
		}
		if commitErr == nil {
			s.buf = content.Buffer{}
		}
	case ModeEdit:
		_, commitErr = s.deps.Gate.Commit(ctx, EditTarget(snap.Current, s.message), s.buf,
			state.TruncateAfter(snap.Current, s.message))
		if commitErr == nil {
			s.closed = true
		}
	}

	if s.deps.Submitter == nil {
		return commitErr
	}
	if err := s.deps.Submitter.Submit(ctx); err != nil {
		return err
	}
	return commitErr
}
