package compose

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/content"
	"github.com/diogo/chatdeck/internal/notify"
	"github.com/diogo/chatdeck/internal/state"
	"github.com/diogo/chatdeck/internal/storage"
)

const testQuota = 8 << 10

type fixture struct {
	store   *state.Store
	backend *storage.MemoryBackend
	rec     *notify.Recorder
	submits int
	deps    Deps
}

func newFixture(t *testing.T, messages ...chat.Message) *fixture {
	t.Helper()
	f := &fixture{backend: storage.NewMemoryBackend(testQuota), rec: &notify.Recorder{}}

	store, err := state.NewStore(f.backend, nil)
	require.NoError(t, err)
	require.NoError(t, store.EnsureChat(func() chat.Chat {
		c := chat.New(chat.DefaultConfig("gpt-4o", "OpenAI"), content.DetailLow)
		c.Messages = messages
		return c
	}))
	f.store = store
	f.deps = Deps{
		Store:     store,
		Notifier:  f.rec,
		Submitter: SubmitFunc(func(context.Context) error { f.submits++; return nil }),
	}
	return f
}

func (f *fixture) messages() []chat.Message {
	c, _ := f.store.Snapshot().CurrentChat()
	return c.Messages
}

func bigImage() content.Image {
	return content.Image{URL: content.EncodeDataURL("image/png", make([]byte, testQuota)), Detail: content.DetailAuto}
}

func TestSave_ComposerAppendsAndResets(t *testing.T) {
	f := newFixture(t)
	s := NewComposer(f.deps)

	s.SetText("hello")
	require.NoError(t, s.Attach(content.File{Name: "notes.txt", MIME: "text/plain", Content: "data:text/plain;base64,aGk=", Size: 2}))

	out, err := s.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, out)
	assert.True(t, s.Buffer().IsEmpty())

	msgs := f.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, chat.User, msgs[0].Role)
	assert.Len(t, msgs[0].Content.Files(), 1)
	assert.Zero(t, f.submits)
}

func TestSave_ComposerSuppressed(t *testing.T) {
	f := newFixture(t)
	s := NewComposer(f.deps)

	_, err := s.Save(context.Background())
	assert.ErrorIs(t, err, ErrNothingToSave)

	s.SetText("x")
	require.True(t, f.store.TryStartGenerating())
	_, err = s.Save(context.Background())
	assert.ErrorIs(t, err, ErrGenerating)
	assert.Equal(t, "x", s.Buffer().Text(), "buffer kept while generating")
	assert.Empty(t, f.messages())
}

func TestSave_CapacityFallbackAppend(t *testing.T) {
	f := newFixture(t, chat.NewMessage(chat.User, "first"))
	before := f.messages()

	s := NewComposer(f.deps)
	s.SetRole(chat.System)
	s.SetText("describe this")
	require.NoError(t, s.Attach(bigImage()))
	saves := f.backend.Saves()

	out, err := s.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDegraded, out)
	assert.Equal(t, saves+1, f.backend.Saves(), "only the text-only retry is written")

	msgs := f.messages()
	require.Len(t, msgs, len(before)+1)
	assert.Equal(t, before[0], msgs[0])
	assert.Equal(t, chat.System, msgs[1].Role)
	assert.True(t, msgs[1].Content.Equal(content.NewBuffer("describe this")))

	assert.Equal(t, []string{MsgQuotaExceeded, MsgTextSavedOnly}, f.rec.Texts())
	levels := f.rec.All()
	assert.Equal(t, notify.Error, levels[0].Level)
	assert.Equal(t, notify.Info, levels[1].Level)
	assert.Equal(t, notify.DefaultDuration, levels[1].Duration)
}

func TestSave_CapacityFallbackEditKeepsTarget(t *testing.T) {
	f := newFixture(t, chat.NewMessage(chat.User, "q"), chat.NewMessage(chat.Assistant, "a"))

	s, err := NewEditor(f.deps, 0)
	require.NoError(t, err)
	s.SetText("q2")
	require.NoError(t, s.Attach(bigImage()))

	out, err := s.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDegraded, out)
	assert.True(t, s.Closed())

	msgs := f.messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].Content.Equal(content.NewBuffer("q2")))
	assert.Equal(t, "a", msgs[1].Content.Text())
}

func TestSave_CapacityFallbackBothFail(t *testing.T) {
	f := newFixture(t, chat.NewMessage(chat.User, "first"))
	before := f.store.Snapshot()

	s := NewComposer(f.deps)
	s.SetText(strings.Repeat("t", testQuota))
	require.NoError(t, s.Attach(bigImage()))

	out, err := s.Save(context.Background())
	require.Error(t, err)
	assert.Equal(t, OutcomeDegraded, out)
	assert.Equal(t, before.Chats, f.store.Snapshot().Chats)
	assert.Len(t, f.rec.All(), 2)
	assert.Equal(t, MsgQuotaExceeded, f.rec.Texts()[0])
	assert.False(t, s.Buffer().IsEmpty(), "buffer kept on failure")
}

func TestGate_OtherErrorsDoNotRetry(t *testing.T) {
	f := newFixture(t)
	g := NewGate(f.store, f.rec, nil)

	_, err := g.Commit(context.Background(), EditTarget(0, 5), content.NewBuffer("x"))
	assert.ErrorIs(t, err, state.ErrNoMessage)
	require.Len(t, f.rec.All(), 1)
	assert.NotEqual(t, MsgQuotaExceeded, f.rec.Texts()[0])
}

func TestGenerate_ComposerSubmitsEvenWhenEmpty(t *testing.T) {
	f := newFixture(t, chat.NewMessage(chat.User, "q"))
	s := NewComposer(f.deps)

	require.NoError(t, s.Generate(context.Background()))
	assert.Equal(t, 1, f.submits)
	assert.Len(t, f.messages(), 1)

	s.SetText("follow up")
	require.NoError(t, s.Generate(context.Background()))
	assert.Equal(t, 2, f.submits)
	assert.Len(t, f.messages(), 2)
	assert.True(t, s.Buffer().IsEmpty())
}

func TestGenerate_EditTruncates(t *testing.T) {
	f := newFixture(t,
		chat.NewMessage(chat.User, "q1"),
		chat.NewMessage(chat.Assistant, "a1"),
		chat.NewMessage(chat.User, "q2"),
		chat.NewMessage(chat.Assistant, "a2"),
	)
	s, err := NewEditor(f.deps, 0)
	require.NoError(t, err)
	s.SetText("q1 edited")

	require.NoError(t, s.Generate(context.Background()))
	msgs := f.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "q1 edited", msgs[0].Content.Text())
	assert.Equal(t, 1, f.submits)
	assert.True(t, s.Closed())

	assert.ErrorIs(t, s.Generate(context.Background()), ErrSessionClosed)
}

func TestGenerate_SuppressedWhileGenerating(t *testing.T) {
	f := newFixture(t)
	s := NewComposer(f.deps)
	s.SetText("x")
	require.True(t, f.store.TryStartGenerating())

	assert.ErrorIs(t, s.Generate(context.Background()), ErrGenerating)
	assert.Zero(t, f.submits)
	assert.Empty(t, f.messages())
}

func TestGenerate_SubmitterError(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")
	f.deps.Submitter = SubmitFunc(func(context.Context) error { return boom })

	s := NewComposer(f.deps)
	s.SetText("x")
	assert.ErrorIs(t, s.Generate(context.Background()), boom)
	assert.Len(t, f.messages(), 1)
}

func TestSession_BufferOps(t *testing.T) {
	f := newFixture(t)
	s := NewComposer(f.deps)

	require.NoError(t, s.Attach(content.Image{URL: "https://x/a.png", Detail: content.DetailAuto}))
	require.NoError(t, s.CycleDetail(0))
	img, _ := s.Buffer().Attachment(0)
	assert.Equal(t, content.DetailHigh, img.(content.Image).Detail)

	assert.ErrorIs(t, s.SetDetail(3, content.DetailLow), content.ErrIndexOutOfRange)
	require.NoError(t, s.Remove(0))
	assert.False(t, s.Buffer().HasAttachments())

	s.SetText("draft")
	s.Cancel()
	assert.True(t, s.Buffer().IsEmpty())
}

func TestSession_PasteIgnoresCapability(t *testing.T) {
	f := newFixture(t)
	f.deps.Store.Dispatch(state.SetConfig(0, chat.DefaultConfig("llama-3.1-70b-instruct", "Meta")))
	s := NewComposer(f.deps)

	p := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(p, []byte("\x89PNG\r\n\x1a\n"), 0o600))

	attached, err := s.Paste(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, attached)

	imgs := s.Buffer().Images()
	require.Len(t, imgs, 1)
	assert.Equal(t, content.DetailLow, imgs[0].Detail, "uses the chat's default detail")

	attached, err = s.Paste(context.Background(), "just text")
	require.NoError(t, err)
	assert.False(t, attached)
}

func TestNewEditor_Errors(t *testing.T) {
	f := newFixture(t)
	_, err := NewEditor(f.deps, 0)
	assert.ErrorIs(t, err, state.ErrNoMessage)
}
