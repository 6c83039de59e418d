package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/compose"
	apperrors "github.com/diogo/chatdeck/internal/errors"
	"github.com/diogo/chatdeck/internal/notify"
	"github.com/diogo/chatdeck/internal/render"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"), // Red
	lipgloss.Color("#feca57"), // Yellow
	lipgloss.Color("#48dbfb"), // Cyan
	lipgloss.Color("#ff9ff3"), // Pink
	lipgloss.Color("#54a0ff"), // Blue
	lipgloss.Color("#5f27cd"), // Purple
	lipgloss.Color("#00d2d3"), // Teal
	lipgloss.Color("#1dd1a1"), // Green
}

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextDim  = lipgloss.Color("#565f89")
	colorTextMute = lipgloss.Color("#3b4261")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorWarning  = lipgloss.Color("#e0af68")
	colorError    = lipgloss.Color("#f7768e")
	colorPrimary  = lipgloss.Color("#7aa2f7")
)

var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	dimStyle     = lipgloss.NewStyle().Foreground(colorTextDim)
)

type sendOptions struct {
	file        string
	output      string
	attachments []string
	chatRef     string
	raw         bool
	copy        bool
}

var sendFlags sendOptions

var sendCmd = &cobra.Command{
	Use:   "send [prompt]",
	Short: "Send a single prompt and print the response",
	Long: `Send a prompt without opening the interactive view.

A new chat is created for the exchange unless --chat names one to continue.
The prompt comes from the argument, --file or stdin.

Examples:
  chatdeck send "Explain goroutines"
  chatdeck send -a chart.png "What does this chart show?"
  chatdeck send --chat @current "And in Rust?"
  git diff | chatdeck send --raw -o review.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt, ok, err := readPrompt(args, os.Stdin)
		if err != nil {
			return err
		}
		if !ok && len(sendFlags.attachments) == 0 {
			return fmt.Errorf("no prompt given: pass it as an argument, with --file or on stdin")
		}
		return runSend(cmd.Context(), cmd.OutOrStdout(), prompt, sendFlags)
	},
}

func init() {
	bindSendFlags(sendCmd)
}

// bindSendFlags registers the flags shared by the root command and send.
func bindSendFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&sendFlags.output, "output", "o", "", "Save response to file")
	f.StringVarP(&sendFlags.file, "file", "f", "", "Read prompt from file")
	f.StringArrayVarP(&sendFlags.attachments, "attach", "a", nil, "File path or URL to attach (repeatable)")
	f.StringVarP(&sendFlags.chatRef, "chat", "c", "", "Continue this chat instead of starting a new one")
	f.BoolVar(&sendFlags.raw, "raw", false, "Print only the response text")
	f.BoolVar(&sendFlags.copy, "copy", false, "Copy the response to the clipboard")
}

// spinner handles the animated loading indicator
type spinner struct {
	message string
	w       io.Writer
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool
}

// newSpinner creates a new animated spinner writing to stderr. A nil
// spinner is valid and draws nothing.
func newSpinner(message string) *spinner {
	return &spinner{
		message: message,
		w:       os.Stderr,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	if s == nil {
		return
	}
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.w, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.w, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	spinIdx := s.frame % len(chars)
	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	barWidth := 16
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + s.frame) % len(gradientColors)
		charIdx := (i + s.frame/2) % len(barChars)
		style := lipgloss.NewStyle().Foreground(gradientColors[colorIdx])
		bar.WriteString(style.Render(barChars[charIdx]))
	}

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)

	fmt.Fprintf(s.w, "\r\033[K%s %s %s %s", spinnerChar, bar.String(), msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	if s == nil {
		return
	}
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	fmt.Fprintf(s.w, "%s %s\n", checkmark, successStyle.Render(message))
}

// stopWithError stops the spinner and shows error
func (s *spinner) stopWithError() {
	if s == nil {
		return
	}
	s.stopOnce()
	<-s.done
}

// runSend composes one user message, generates the response and writes it
// to out (or --output).
func runSend(ctx context.Context, out io.Writer, prompt string, opts sendOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" && len(opts.attachments) == 0 {
		return fmt.Errorf("prompt cannot be empty")
	}
	decorated := !opts.raw

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
		return svc.completerErr
	}

	model, err := a.model(svc.registry)
	if err != nil {
		return err
	}
	if err := a.selectChat(svc.registry, chatFlags{ref: opts.chatRef, newChat: opts.chatRef == ""}, model); err != nil {
		return err
	}
	c, _ := a.store.Snapshot().CurrentChat()
	model = c.Config.Model

	if a.cfg.Verbose && decorated {
		fmt.Fprintf(os.Stderr, "[verbose] Model: %s\n", model)
		fmt.Fprintf(os.Stderr, "[verbose] Chat: %s\n", c.ID)
	}

	var notes notify.Recorder
	defer func() { printWarnings(os.Stderr, notes.All()) }()

	gen := a.generator(svc, &notes)
	session := compose.NewComposer(compose.Deps{
		Store:     a.store,
		Gate:      compose.NewGate(a.store, &notes, a.log),
		Submitter: gen,
		Notifier:  &notes,
		Ingestor:  svc.ingestor,
	})
	session.SetText(prompt)

	var spin *spinner
	if len(opts.attachments) > 0 {
		if !svc.registry.SupportsImages(model) {
			return fmt.Errorf("%s does not accept attachments", svc.registry.DisplayName(model))
		}
		if decorated {
			spin = newSpinner("Reading attachments")
			spin.start()
		}
		items, errs := svc.ingestor.IngestAll(ctx, opts.attachments, c.ImageDetail, notify.Discard)
		if len(errs) > 0 {
			spin.stopWithError()
			return fmt.Errorf("failed to attach: %w", errors.Join(errs...))
		}
		for _, it := range items {
			if err := session.Attach(it); err != nil {
				spin.stopWithError()
				return err
			}
		}
		spin.stopWithSuccess(fmt.Sprintf("Attached %d item(s)", len(items)))
	}

	if decorated {
		spin = newSpinner("Generating response")
		spin.start()
	}

	before := len(c.Messages)
	startTime := time.Now()
	genErr := session.Generate(ctx)
	requestDuration := time.Since(startTime)

	text, answered := lastResponse(a, c.ID, before)
	if genErr != nil && !answered {
		spin.stopWithError()
		return fmt.Errorf("generation failed: %w", genErr)
	}
	spin.stopWithSuccess("Done")
	if genErr != nil {
		notes.Notify(notify.New(notify.Warning, genErr.Error()))
	}

	if a.cfg.Verbose && decorated {
		fmt.Fprintf(os.Stderr, "[verbose] Request took %s\n", requestDuration.Round(time.Millisecond))
	}

	if !decorated {
		if opts.output != "" {
			return writeOutput(opts.output, text)
		}
		fmt.Fprint(out, text)
		return nil
	}

	fmt.Fprintln(os.Stderr)

	if opts.copy {
		cb := deps.Clipboard
		if cb == nil {
			cb = compose.SystemClipboard
		}
		if err := cb.WriteAll(text); err != nil {
			fmt.Fprintln(os.Stderr, warningStyle.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else {
			fmt.Fprintln(os.Stderr, successStyle.Render("✓ Copied to clipboard"))
		}
	}

	if opts.output != "" {
		if err := writeOutput(opts.output, text); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, successStyle.Render(fmt.Sprintf("✓ Response saved to %s", opts.output)))
		return nil
	}

	termWidth := getTerminalWidth()
	bubbleWidth := min(max(termWidth-4, 40), 120)
	contentWidth := bubbleWidth - 4

	fmt.Fprintln(out, assistantLabelStyle.Render("✦ "+svc.registry.DisplayName(model)))

	rendered := render.Message(text, render.FromConfig(a.cfg, contentWidth), a.cfg.MarkdownMode)
	rendered = strings.TrimRight(rendered, "\n")
	fmt.Fprintln(out, assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
	return nil
}

// lastResponse returns the assistant reply added to chat id after it held
// before messages.
func lastResponse(a *app, id string, before int) (string, bool) {
	for _, c := range a.store.Snapshot().Chats {
		if c.ID != id {
			continue
		}
		last := c.LastIndex()
		if last < before || c.Messages[last].Role != chat.Assistant {
			return "", false
		}
		return c.Messages[last].Content.Text(), true
	}
	return "", false
}

func writeOutput(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// printWarnings shows the warnings raised while the command ran. Errors are
// returned to the caller instead.
func printWarnings(w io.Writer, all []notify.Notification) {
	for _, n := range all {
		if n.Level == notify.Warning {
			fmt.Fprintln(w, warningStyle.Render("⚠ "+n.Text))
		}
	}
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if status := apperrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	if endpoint := apperrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	if body := apperrors.GetResponseBody(err); body != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n\n  %s", strings.ReplaceAll(body, "\n", "\n  "))))
		return sb.String()
	}

	switch {
	case apperrors.IsAuthError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: export your API key in the variable named by 'chatdeck config get api_key_env'"))
	case apperrors.IsRateLimitError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: You've hit the rate limit. Try again later or use a different model"))
	case apperrors.IsQuotaExceeded(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Delete old chats with 'chatdeck chats delete' or raise storage_quota_bytes"))
	case apperrors.IsUnsupportedType(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Attach images, PDFs, office documents or text files"))
	case apperrors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check your internet connection and try again"))
	case apperrors.IsTimeoutError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Request timed out. Try again or check your connection"))
	}

	return sb.String()
}
