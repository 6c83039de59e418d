package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/diogo/chatdeck/internal/api"
)

func TestChatCommand(t *testing.T) {
	if chatCmd.Use != "chat" {
		t.Errorf("Expected use 'chat', got %s", chatCmd.Use)
	}
	if chatCmd.Short == "" {
		t.Error("Short description should not be empty")
	}
	if chatCmd.RunE == nil {
		t.Error("RunE should not be nil")
	}
	for _, name := range []string{"chat", "new"} {
		if chatCmd.Flags().Lookup(name) == nil {
			t.Errorf("flag --%s not registered", name)
		}
	}
}

func TestRunChat_PassesDependencies(t *testing.T) {
	rec := setupTest(t, &api.MockClient{})

	if err := runChat(context.Background(), chatFlags{}); err != nil {
		t.Fatalf("runChat failed: %v", err)
	}
	if rec.calls != 1 {
		t.Fatalf("TUI calls = %d, want 1", rec.calls)
	}

	d := rec.deps
	if d.Store == nil || d.Registry == nil || d.Generator == nil || d.Ingestor == nil || d.HTTP == nil {
		t.Fatalf("incomplete deps: %+v", d)
	}
	if d.Relay == nil {
		t.Error("the generator relay should be passed to the view")
	}
	if d.DownloadDir == "" {
		t.Error("download dir should be set")
	}

	snap := d.Store.Snapshot()
	if len(snap.Chats) != 1 {
		t.Errorf("an empty store should get one chat, got %d", len(snap.Chats))
	}
}

func TestRunChat_OpensWithoutAPIKey(t *testing.T) {
	rec := setupTest(t, nil)

	if err := runChat(context.Background(), chatFlags{}); err != nil {
		t.Fatalf("runChat failed: %v", err)
	}
	if rec.calls != 1 {
		t.Fatal("the view should open without a key")
	}
}

func TestRunChat_TUIError(t *testing.T) {
	rec := setupTest(t, &api.MockClient{})
	rec.err = errors.New("no tty")

	err := runChat(context.Background(), chatFlags{})
	if err == nil || !strings.Contains(err.Error(), "no tty") {
		t.Errorf("err = %v, want the view error", err)
	}
}

func TestRunChat_SelectsChat(t *testing.T) {
	rec := setupTest(t, &api.MockClient{})
	seedChats(t, "alpha", "beta", "gamma")

	if err := runChat(context.Background(), chatFlags{ref: "alpha"}); err != nil {
		t.Fatalf("runChat failed: %v", err)
	}
	c, ok := rec.deps.Store.Snapshot().CurrentChat()
	if !ok || c.Title != "alpha" {
		t.Errorf("current = %q, want alpha", c.Title)
	}

	if err := runChat(context.Background(), chatFlags{ref: "nothing like it"}); err == nil {
		t.Error("expected an error for an unknown reference")
	}
}

func TestRunChat_NewChat(t *testing.T) {
	rec := setupTest(t, &api.MockClient{})
	seedChats(t, "alpha")

	if err := runChat(context.Background(), chatFlags{newChat: true}); err != nil {
		t.Fatalf("runChat failed: %v", err)
	}
	snap := rec.deps.Store.Snapshot()
	if len(snap.Chats) != 2 || snap.Current != 0 {
		t.Fatalf("chats = %d current = %d, want a new chat on top", len(snap.Chats), snap.Current)
	}
	if len(snap.Chats[0].Messages) != 0 {
		t.Error("new chat should be empty")
	}
}

func TestRunChat_ModelFlagUpdatesChat(t *testing.T) {
	rec := setupTest(t, &api.MockClient{})
	seedChats(t, "alpha")
	modelFlag = "claude-3.5-sonnet"

	if err := runChat(context.Background(), chatFlags{}); err != nil {
		t.Fatalf("runChat failed: %v", err)
	}
	c, _ := rec.deps.Store.Snapshot().CurrentChat()
	if c.Config.Model != "claude-3.5-sonnet" || c.Config.Provider != "Anthropic" {
		t.Errorf("config = %+v", c.Config)
	}
	if c.Config.MaxTokens == 0 {
		t.Error("other parameters should be kept")
	}
}
