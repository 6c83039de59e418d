package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/content"
	apperrors "github.com/diogo/chatdeck/internal/errors"
	"github.com/diogo/chatdeck/internal/state"
)

func testChat(title string, texts ...string) chat.Chat {
	c := chat.New(chat.DefaultConfig("gpt-4o", "OpenAI"), content.DetailAuto)
	c.Title = title
	for _, text := range texts {
		c.Messages = append(c.Messages, chat.NewMessage(chat.User, text))
	}
	return c
}

func TestFileBackend_LoadMissing(t *testing.T) {
	b, err := NewFileBackend(t.TempDir(), DefaultQuota, nil)
	if err != nil {
		t.Fatalf("NewFileBackend failed: %v", err)
	}

	s, err := b.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(s.Chats) != 0 {
		t.Errorf("expected no chats, got %d", len(s.Chats))
	}
}

func TestFileBackend_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	b, _ := NewFileBackend(dir, DefaultQuota, nil)

	c := testChat("files", "see attached")
	buf, _ := c.Messages[0].Content.Append(content.File{
		Name:    "notes.txt",
		MIME:    "text/plain",
		Content: content.EncodeDataURL("text/plain", []byte("hello")),
		Size:    2000,
	})
	c.Messages[0].Content = buf

	if err := b.Save(state.State{Chats: []chat.Chat{c}, Current: 0}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, ChatsFile))
	if err != nil {
		t.Fatalf("chats file missing: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := b.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Chats) != 1 {
		t.Fatalf("expected 1 chat, got %d", len(loaded.Chats))
	}
	files := loaded.Chats[0].Messages[0].Content.Files()
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	if files[0].Size != 2000 || files[0].MIME != "text/plain" {
		t.Errorf("file = %+v, want size 2000 and type text/plain", files[0])
	}
}

func TestFileBackend_QuotaLeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	b, _ := NewFileBackend(dir, 2048, nil)

	small := state.State{Chats: []chat.Chat{testChat("small", "hi")}}
	if err := b.Save(small); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	before, _ := os.ReadFile(b.Path())

	big := state.State{Chats: []chat.Chat{testChat("big", strings.Repeat("x", 4096))}}
	err := b.Save(big)
	if !apperrors.IsQuotaExceeded(err) {
		t.Fatalf("expected quota error, got %v", err)
	}

	after, _ := os.ReadFile(b.Path())
	if string(before) != string(after) {
		t.Error("file changed after rejected save")
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileBackend_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ChatsFile), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	b, _ := NewFileBackend(dir, 0, nil)
	if _, err := b.Load(); err == nil {
		t.Error("expected error for corrupt file")
	}
}

func TestMemoryBackend(t *testing.T) {
	b := NewMemoryBackend(1024)

	s, err := b.Load()
	if err != nil || len(s.Chats) != 0 {
		t.Fatalf("empty load = %v, %v", s, err)
	}

	if err := b.Save(state.State{Chats: []chat.Chat{testChat("a", "hi")}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if b.Saves() != 1 {
		t.Errorf("Saves = %d, want 1", b.Saves())
	}

	err = b.Save(state.State{Chats: []chat.Chat{testChat("b", strings.Repeat("y", 2048))}})
	if !apperrors.IsQuotaExceeded(err) {
		t.Fatalf("expected quota error, got %v", err)
	}

	loaded, _ := b.Load()
	if len(loaded.Chats) != 1 || loaded.Chats[0].Title != "a" {
		t.Errorf("rejected save must keep previous data, got %+v", loaded.Chats)
	}

	b.SetQuota(0)
	if err := b.Save(state.State{Chats: []chat.Chat{testChat("b", strings.Repeat("y", 2048))}}); err != nil {
		t.Errorf("unlimited quota rejected save: %v", err)
	}
}

func TestStoreWithFileBackend(t *testing.T) {
	dir := t.TempDir()
	b, _ := NewFileBackend(dir, DefaultQuota, nil)
	store, err := state.NewStore(b, nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.EnsureChat(func() chat.Chat { return testChat(chat.DefaultTitle) }); err != nil {
		t.Fatalf("EnsureChat failed: %v", err)
	}
	if err := store.Dispatch(state.AppendMessage(0, chat.NewMessage(chat.User, "persist me"))); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	reopened, _ := NewFileBackend(dir, DefaultQuota, nil)
	s, err := reopened.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := s.Chats[0].Messages[0].Content.Text(); got != "persist me" {
		t.Errorf("text = %q, want %q", got, "persist me")
	}
	if s.Chats[0].Title != "persist me" {
		t.Errorf("title = %q, want %q", s.Chats[0].Title, "persist me")
	}
}
