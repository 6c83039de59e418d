package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	http "github.com/bogdanfinn/fhttp"

	"github.com/diogo/chatdeck/internal/api"
	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/config"
	"github.com/diogo/chatdeck/internal/content"
	apperrors "github.com/diogo/chatdeck/internal/errors"
	"github.com/diogo/chatdeck/internal/state"
	"github.com/diogo/chatdeck/internal/tui"
)

// offlineDoer fails every request, so the built-in model list is used.
type offlineDoer struct{}

func (offlineDoer) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("offline")
}

type recordingTUI struct {
	calls int
	deps  tui.Deps
	err   error
}

func (r *recordingTUI) Run(ctx context.Context, d tui.Deps) error {
	r.calls++
	r.deps = d
	return r.err
}

type fakeClipboard struct {
	text string
}

func (f *fakeClipboard) WriteAll(text string) error {
	f.text = text
	return nil
}

// setupTest points the data directory at a temp dir and swaps the
// dependencies. A nil mock behaves like a missing API key.
func setupTest(t *testing.T, mock *api.MockClient) *recordingTUI {
	t.Helper()
	t.Setenv(config.HomeEnv, t.TempDir())
	t.Setenv(config.DefaultAPIKeyEnv, "")

	oldDeps := deps
	oldModel, oldEphemeral := modelFlag, ephemeralFlag
	oldSend, oldChat := sendFlags, chatCmdFlags
	oldFormat, oldOutput, oldRaw, oldForce := chatsExportFormat, chatsExportOutput, chatsShowRaw, chatsForce
	oldProvider := modelsProviderFlag

	rec := &recordingTUI{}
	deps = &Dependencies{
		TUI: rec,
		NewHTTPClient: func() (api.HTTPDoer, error) {
			return offlineDoer{}, nil
		},
		NewCompleter: func(config.Config, api.HTTPDoer, *slog.Logger) (api.Completer, error) {
			if mock == nil {
				return nil, apperrors.ErrNoAPIKey
			}
			return mock, nil
		},
		Clipboard: &fakeClipboard{},
	}

	t.Cleanup(func() {
		deps = oldDeps
		modelFlag, ephemeralFlag = oldModel, oldEphemeral
		sendFlags, chatCmdFlags = oldSend, oldChat
		chatsExportFormat, chatsExportOutput, chatsShowRaw, chatsForce = oldFormat, oldOutput, oldRaw, oldForce
		modelsProviderFlag = oldProvider
	})
	return rec
}

// loadState reads the saved chats back from disk.
func loadState(t *testing.T) state.State {
	t.Helper()
	a, err := openApp(false)
	if err != nil {
		t.Fatalf("openApp failed: %v", err)
	}
	defer a.Close()
	return a.store.Snapshot()
}

// seedChats saves one chat per title. The last title ends up on top.
func seedChats(t *testing.T, titles ...string) {
	t.Helper()
	a, err := openApp(false)
	if err != nil {
		t.Fatalf("openApp failed: %v", err)
	}
	defer a.Close()

	for _, title := range titles {
		c := chat.New(chat.DefaultConfig("gpt-4o", "OpenAI"), content.DetailAuto)
		c.Title = title
		c.Messages = []chat.Message{chat.NewMessage(chat.User, "question about "+title)}
		if err := a.store.Dispatch(state.NewChat(c)); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})
	_, err := rootCmd.ExecuteC()
	return out.String(), err
}
