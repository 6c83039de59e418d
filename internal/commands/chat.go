package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/config"
	"github.com/diogo/chatdeck/internal/models"
	"github.com/diogo/chatdeck/internal/notify"
	"github.com/diogo/chatdeck/internal/state"
	"github.com/diogo/chatdeck/internal/storage"
	"github.com/diogo/chatdeck/internal/tui"
)

type chatFlags struct {
	ref     string
	newChat bool
}

var chatCmdFlags chatFlags

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long: `Start an interactive chat session.

The last used chat is reopened unless --new or --chat is given.

Examples:
  chatdeck chat                 Reopen the current chat
  chatdeck chat --new           Start a new chat
  chatdeck chat --chat @last    Open the newest chat
  chatdeck chat --chat 3        Open chat #3 from 'chatdeck chats list'
  chatdeck chat --ephemeral     Chat without saving anything`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), chatCmdFlags)
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatCmdFlags.ref, "chat", "c", "", "Chat to open (number, ID prefix, title or @last/@first/@current)")
	chatCmd.Flags().BoolVarP(&chatCmdFlags.newChat, "new", "n", false, "Start a new chat")
}

func runChat(ctx context.Context, flags chatFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ephemeralFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.services(ctx)
	if err != nil {
		return err
	}
	if svc.completerErr != nil {
		a.log.Warn("completions unavailable", "error", svc.completerErr)
	}

	model, err := a.model(svc.registry)
	if err != nil {
		return err
	}
	if err := a.selectChat(svc.registry, flags, model); err != nil {
		return err
	}

	downloadDir, err := config.GetDownloadDir(a.cfg)
	if err != nil {
		return err
	}

	relay := &notify.Relay{}
	err = deps.TUI.Run(ctx, tui.Deps{
		Store:       a.store,
		Registry:    svc.registry,
		Generator:   a.generator(svc, relay),
		Ingestor:    svc.ingestor,
		Clipboard:   deps.Clipboard,
		HTTP:        svc.http,
		Config:      a.cfg,
		DownloadDir: downloadDir,
		Log:         a.log,
		Relay:       relay,
	})
	if err != nil {
		return fmt.Errorf("chat session failed: %w", err)
	}

	if svc.completerErr != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(svc.completerErr, "Responses were unavailable"))
	}
	return nil
}

// selectChat makes the chat named by flags current. An explicit --model
// applies to that chat.
func (a *app) selectChat(reg *models.Registry, flags chatFlags, model string) error {
	store := a.store
	switch {
	case flags.newChat:
		if err := store.Dispatch(state.NewChat(a.newChat(reg, model))); err != nil {
			return fmt.Errorf("failed to create chat: %w", err)
		}
		return nil

	case flags.ref != "":
		i, err := storage.Resolve(store.Snapshot(), flags.ref)
		if err != nil {
			return fmt.Errorf("failed to resolve chat: %w", err)
		}
		if err := store.Dispatch(state.SelectChat(i)); err != nil {
			return err
		}

	default:
		if err := store.EnsureChat(func() chat.Chat { return a.newChat(reg, model) }); err != nil {
			return fmt.Errorf("failed to create chat: %w", err)
		}
	}

	if modelFlag == "" {
		return nil
	}
	snap := store.Snapshot()
	c, ok := snap.CurrentChat()
	if !ok || c.Config.Model == model {
		return nil
	}
	cfg := c.Config
	cfg.Model = model
	cfg.Provider = reg.FindProvider(model)
	return store.Dispatch(state.SetConfig(snap.Current, cfg))
}
