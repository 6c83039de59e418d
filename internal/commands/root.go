// Package commands provides CLI commands for chatdeck.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	modelFlag     string
	ephemeralFlag bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "chatdeck [prompt]",
	Short: "Terminal chat client for OpenAI-compatible model providers",
	Long: `chatdeck is a terminal chat client for OpenAI-compatible providers.
Chats are kept in ~/.chatdeck (or $CHATDECK_HOME); the API key is read
from the environment variable named by 'api_key_env'.

Examples:
  chatdeck                              Start interactive chat
  chatdeck chat --new -m claude-3.5-sonnet
  chatdeck "What is Go?"                Send a single prompt
  chatdeck -f prompt.md -a diagram.png  Read prompt from file, attach an image
  cat prompt.md | chatdeck              Read prompt from stdin
  chatdeck "Hello" -o response.md       Save response to file
  chatdeck chats list                   List saved chats`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Fprintf(cmd.OutOrStdout(), "chatdeck %s (built %s)\n", Version, BuildTime)
			return nil
		}

		prompt, ok, err := readPrompt(args, os.Stdin)
		if err != nil {
			return err
		}
		if ok {
			return runSend(cmd.Context(), cmd.OutOrStdout(), prompt, sendFlags)
		}
		return runChat(cmd.Context(), chatFlags{})
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Error"))
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Model to use (e.g., gpt-4o)")
	rootCmd.PersistentFlags().BoolVar(&ephemeralFlag, "ephemeral", false, "Keep chats in memory only")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")
	bindSendFlags(rootCmd)

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(chatsCmd)
	rootCmd.AddCommand(configCmd)
}

// readPrompt picks the prompt from --file, piped stdin or the positional
// argument, in that order. ok is false when there is none.
func readPrompt(args []string, stdin *os.File) (string, bool, error) {
	if sendFlags.file != "" {
		data, err := os.ReadFile(sendFlags.file)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if stdin != nil {
		if stat, err := stdin.Stat(); err == nil && stat.Mode()&os.ModeCharDevice == 0 {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return "", false, fmt.Errorf("failed to read stdin: %w", err)
			}
			if len(data) > 0 {
				return string(data), true, nil
			}
		}
	}

	if len(args) > 0 {
		return args[0], true, nil
	}
	return "", false, nil
}
