package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/diogo/chatdeck/internal/render"
	"github.com/diogo/chatdeck/internal/state"
	"github.com/diogo/chatdeck/internal/storage"
)

var (
	chatsExportFormat string
	chatsExportOutput string
	chatsShowRaw      bool
	chatsForce        bool
)

var chatsCmd = &cobra.Command{
	Use:     "chats",
	Aliases: []string{"history"},
	Short:   "Manage saved chats",
	Long: `View and manage your saved chats.

Chats can be referenced by:
` + storage.ListAliases(),
}

var chatsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all chats",
	Args:  cobra.NoArgs,
	RunE:  runChatsList,
}

var chatsShowCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Show a chat",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatsShow,
}

var chatsExportCmd = &cobra.Command{
	Use:   "export <ref>",
	Short: "Export a chat as Markdown or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatsExport,
}

var chatsDeleteCmd = &cobra.Command{
	Use:   "delete <ref>",
	Short: "Delete a chat",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatsDelete,
}

var chatsRenameCmd = &cobra.Command{
	Use:   "rename <ref> <title>",
	Short: "Rename a chat",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runChatsRename,
}

var chatsSelectCmd = &cobra.Command{
	Use:   "select <ref>",
	Short: "Make a chat the current one",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatsSelect,
}

var chatsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all chats",
	Args:  cobra.NoArgs,
	RunE:  runChatsClear,
}

func init() {
	chatsShowCmd.Flags().BoolVar(&chatsShowRaw, "raw", false, "Print Markdown without rendering")
	chatsExportCmd.Flags().StringVarP(&chatsExportFormat, "format", "F", "markdown", "Export format: markdown (md) or json")
	chatsExportCmd.Flags().StringVarP(&chatsExportOutput, "output", "o", "", "Write to file instead of stdout")
	chatsClearCmd.Flags().BoolVarP(&chatsForce, "yes", "y", false, "Do not ask for confirmation")

	chatsCmd.AddCommand(chatsListCmd)
	chatsCmd.AddCommand(chatsShowCmd)
	chatsCmd.AddCommand(chatsExportCmd)
	chatsCmd.AddCommand(chatsDeleteCmd)
	chatsCmd.AddCommand(chatsRenameCmd)
	chatsCmd.AddCommand(chatsSelectCmd)
	chatsCmd.AddCommand(chatsClearCmd)
}

// withStore opens the chat store for one command.
func withStore(fn func(a *app) error) error {
	a, err := openApp(ephemeralFlag)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// resolveChat resolves ref against the store's current snapshot.
func resolveChat(store *state.Store, ref string) (int, error) {
	i, err := storage.Resolve(store.Snapshot(), ref)
	if err != nil {
		return -1, fmt.Errorf("failed to resolve chat %q: %w", ref, err)
	}
	return i, nil
}

func runChatsList(cmd *cobra.Command, args []string) error {
	return withStore(func(a *app) error {
		snap := a.store.Snapshot()
		out := cmd.OutOrStdout()
		if len(snap.Chats) == 0 {
			fmt.Fprintln(out, "No chats found.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "#\tID\tTITLE\tMODEL\tMESSAGES\tUPDATED")
		_, _ = fmt.Fprintln(w, "-\t--\t-----\t-----\t--------\t-------")

		for i, c := range snap.Chats {
			marker := ""
			if i == snap.Current {
				marker = "*"
			}
			_, _ = fmt.Fprintf(w, "%d%s\t%s\t%s\t%s\t%d\t%s\n",
				i+1, marker, shortID(c.ID), runewidth.Truncate(c.Title, 40, "..."),
				c.Config.Model, len(c.Messages), storage.FormatRelativeTime(c.UpdatedAt))
		}
		return w.Flush()
	})
}

func runChatsShow(cmd *cobra.Command, args []string) error {
	return withStore(func(a *app) error {
		i, err := resolveChat(a.store, args[0])
		if err != nil {
			return err
		}
		md := storage.ExportMarkdown(a.store.Snapshot().Chats[i])
		if chatsShowRaw {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		rendered, err := render.Markdown(md, render.FromConfig(a.cfg, getTerminalWidth()))
		if err != nil {
			rendered = md
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	})
}

func runChatsExport(cmd *cobra.Command, args []string) error {
	format, err := storage.ParseExportFormat(chatsExportFormat)
	if err != nil {
		return err
	}
	return withStore(func(a *app) error {
		i, err := resolveChat(a.store, args[0])
		if err != nil {
			return err
		}
		c := a.store.Snapshot().Chats[i]
		data, err := storage.Export(c, format)
		if err != nil {
			return fmt.Errorf("failed to export chat: %w", err)
		}

		if chatsExportOutput == "" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(chatsExportOutput, data, 0o644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported '%s' to %s\n", c.Title, chatsExportOutput)
		return nil
	})
}

func runChatsDelete(cmd *cobra.Command, args []string) error {
	return withStore(func(a *app) error {
		i, err := resolveChat(a.store, args[0])
		if err != nil {
			return err
		}
		title := a.store.Snapshot().Chats[i].Title
		if err := a.store.Dispatch(state.DeleteChat(i)); err != nil {
			return fmt.Errorf("failed to delete chat: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted chat: %s\n", title)
		return nil
	})
}

func runChatsRename(cmd *cobra.Command, args []string) error {
	title := strings.TrimSpace(strings.Join(args[1:], " "))
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	return withStore(func(a *app) error {
		i, err := resolveChat(a.store, args[0])
		if err != nil {
			return err
		}
		if err := a.store.Dispatch(state.RenameChat(i, title)); err != nil {
			return fmt.Errorf("failed to rename chat: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed chat to: %s\n", title)
		return nil
	})
}

func runChatsSelect(cmd *cobra.Command, args []string) error {
	return withStore(func(a *app) error {
		i, err := resolveChat(a.store, args[0])
		if err != nil {
			return err
		}
		if err := a.store.Dispatch(state.SelectChat(i)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Current chat: %s\n", a.store.Snapshot().Chats[i].Title)
		return nil
	})
}

func runChatsClear(cmd *cobra.Command, args []string) error {
	return withStore(func(a *app) error {
		n := len(a.store.Snapshot().Chats)
		if n == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No chats to delete.")
			return nil
		}
		if !chatsForce && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete all %d chats?", n)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
		if err := a.store.Replace(state.State{Current: -1}); err != nil {
			return fmt.Errorf("failed to clear chats: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d chats.\n", n)
		return nil
	})
}

// confirm asks a yes/no question on out and reads the answer from in.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
