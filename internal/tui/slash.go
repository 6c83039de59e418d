package tui

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/compose"
	"github.com/diogo/chatdeck/internal/content"
	"github.com/diogo/chatdeck/internal/ingest"
	"github.com/diogo/chatdeck/internal/notify"
	"github.com/diogo/chatdeck/internal/state"
)

// ingestedMsg delivers attachments resolved off the UI loop. For a paste
// that was not a reference, text holds what to insert instead.
type ingestedMsg struct {
	session *compose.Session
	items   []content.Item
	text    string
	err     error
}

// commands maps each slash command to its usage line.
var commands = map[string]string{
	"attach": "/attach <path|url>...  attach files or links",
	"paste":  "/paste                 attach the clipboard contents",
	"rm":     "/rm <n>                remove attachment n",
	"detail": "/detail <n> [level]    set or cycle the detail of image n",
	"open":   "/open <n>              preview attachment n",
	"role":   "/role [user|assistant|system]",
	"rename": "/rename <title>        rename this chat",
	"clear":  "/clear                 discard the draft",
	"new":    "/new                   start a new chat",
	"chats":  "/chats                 switch chats",
	"config": "/config                model and parameters",
	"md":     "/md                    toggle markdown rendering",
	"help":   "/help                  show this list",
	"quit":   "/quit                  leave",
}

var commandOrder = []string{"attach", "paste", "rm", "detail", "open", "role", "rename", "clear", "new", "chats", "config", "md", "help", "quit"}

// parseCommand splits "/name args". Unknown names are not commands, so
// text like "/etc/hosts is missing" is sent as typed.
func parseCommand(text string) (name, arg string, ok bool) {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "/") {
		return "", "", false
	}
	name, arg, _ = strings.Cut(s[1:], " ")
	name = strings.ToLower(name)
	switch name {
	case "model":
		name = "config"
	case "exit":
		name = "quit"
	}
	if _, known := commands[name]; !known {
		return "", "", false
	}
	return name, strings.TrimSpace(arg), true
}

func helpText() string {
	lines := make([]string, 0, len(commandOrder)+1)
	lines = append(lines, "Commands:")
	for _, name := range commandOrder {
		lines = append(lines, "  "+commands[name])
	}
	return strings.Join(lines, "\n")
}

func (m Model) runCommand(name, arg string) (tea.Model, tea.Cmd) {
	if m.editor != nil {
		m.textarea.SetValue(m.editor.Buffer().Text())
	} else {
		m.textarea.Reset()
	}
	cmd := m.command(name, arg)
	m.layout()
	return m, cmd
}

func (m *Model) command(name, arg string) tea.Cmd {
	s := m.session()

	switch name {
	case "attach":
		if arg == "" {
			m.usage(name)
			return nil
		}
		model := m.currentModel()
		if !m.deps.Registry.SupportsImages(model) {
			m.notifier.Notify(notify.New(notify.Warning,
				fmt.Sprintf("%s does not accept attachments. Pick another model with Ctrl+P.", m.deps.Registry.DisplayName(model))))
			return nil
		}
		return m.ingestCmd(splitRefs(arg))

	case "paste":
		return m.clipboardCmd()

	case "rm":
		n, err := strconv.Atoi(arg)
		if err != nil {
			m.usage(name)
			return nil
		}
		m.removeAttachment(n)

	case "detail":
		fields := strings.Fields(arg)
		if len(fields) == 0 {
			m.usage(name)
			return nil
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			m.usage(name)
			return nil
		}
		if len(fields) > 1 {
			var d content.Detail
			if d, err = content.ParseDetail(fields[1]); err == nil {
				err = s.SetDetail(n-1, d)
			}
		} else {
			err = s.CycleDetail(n - 1)
		}
		if err != nil {
			notify.Errorn(m.notifier, err.Error())
		}

	case "open":
		n, err := strconv.Atoi(arg)
		if err != nil {
			m.usage(name)
			return nil
		}
		m.openAttachment(s.Buffer(), n)

	case "role":
		if arg == "" {
			m.cycleRole()
			break
		}
		r := chat.Role(strings.ToLower(arg))
		if !r.Valid() {
			m.usage(name)
			return nil
		}
		s.SetRole(r)

	case "rename":
		if arg == "" {
			m.usage(name)
			return nil
		}
		m.dispatchCurrent(func(i int) state.Reducer { return state.RenameChat(i, arg) })

	case "clear":
		s.Cancel()
		if s.Mode() == compose.ModeEdit {
			m.endEdit(modeSelect)
		}

	case "new":
		m.startChat()

	case "chats":
		m.openChats()

	case "config":
		m.openConfig()

	case "md":
		m.markdown = !m.markdown
		m.refresh()

	case "help":
		m.notifier.Notify(notify.NewFor(notify.Info, helpText(), 12*time.Second))

	case "quit":
		m.gen.Stop()
		return tea.Quit
	}
	return nil
}

func (m *Model) usage(name string) {
	m.notifier.Notify(notify.New(notify.Warning, "Usage: "+strings.Join(strings.Fields(commands[name]), " ")))
}

// splitRefs treats the argument as one path when such a file exists, and
// as a list of references otherwise.
func splitRefs(arg string) []string {
	if _, err := os.Stat(arg); err == nil {
		return []string{arg}
	}
	return strings.Fields(arg)
}

// detail is the image detail new attachments get.
func (m Model) detail() content.Detail {
	if c, ok := m.currentChat(); ok && c.ImageDetail != "" {
		return c.ImageDetail
	}
	if m.deps.Config.ImageDetail != "" {
		return m.deps.Config.ImageDetail
	}
	return content.DetailAuto
}

// ingestCmd resolves references off the UI loop. Failures are notified by
// the ingestor.
func (m Model) ingestCmd(refs []string) tea.Cmd {
	s, ing, ctx, detail, n := m.session(), m.deps.Ingestor, m.ctx, m.detail(), m.notifier
	return func() tea.Msg {
		items, errs := ing.IngestAll(ctx, refs, detail, n)
		return ingestedMsg{session: s, items: items, err: errors.Join(errs...)}
	}
}

// pasteCmd turns a pasted path or link into an attachment whatever the
// model, falling back to inserting the text.
func (m Model) pasteCmd(text string) tea.Cmd {
	s, ing, ctx, detail, n := m.session(), m.deps.Ingestor, m.ctx, m.detail(), m.notifier
	return func() tea.Msg {
		it, err := ing.FromPaste(ctx, text, detail)
		switch {
		case errors.Is(err, ingest.ErrNotAttachment):
			return ingestedMsg{session: s, text: text}
		case err != nil:
			notify.Errorn(n, err.Error())
			return ingestedMsg{session: s, err: err}
		}
		return ingestedMsg{session: s, items: []content.Item{it}}
	}
}

// clipboardCmd attaches what is on the clipboard, like a paste.
func (m Model) clipboardCmd() tea.Cmd {
	r, ok := m.deps.Clipboard.(compose.ClipboardReader)
	if m.deps.Clipboard == nil {
		r, ok = compose.SystemClipboard.(compose.ClipboardReader)
	}
	if !ok {
		m.notifier.Notify(notify.New(notify.Warning, "Reading the clipboard is not supported"))
		return nil
	}
	s, ing, ctx, detail, n := m.session(), m.deps.Ingestor, m.ctx, m.detail(), m.notifier
	return func() tea.Msg {
		text, err := r.ReadAll()
		if err != nil {
			notify.Errorn(n, "clipboard: "+err.Error())
			return ingestedMsg{session: s, err: err}
		}
		it, err := ing.FromClipboardText(ctx, text, detail)
		if err != nil {
			notify.Errorn(n, err.Error())
			return ingestedMsg{session: s, err: err}
		}
		return ingestedMsg{session: s, items: []content.Item{it}}
	}
}

// applyIngested adds resolved attachments to the session that asked for
// them, if it is still the active one.
func (m *Model) applyIngested(msg ingestedMsg) {
	if msg.session != m.session() {
		if len(msg.items) > 0 {
			m.notifier.Notify(notify.New(notify.Warning, "The edit ended before the attachment was ready"))
		}
		return
	}
	if msg.text != "" {
		m.textarea.InsertString(msg.text)
	}
	for _, it := range msg.items {
		if err := msg.session.Attach(it); err != nil {
			notify.Errorn(m.notifier, err.Error())
		}
	}
	m.layout()
}

// openAttachment previews attachment n (1-based) of buf.
func (m *Model) openAttachment(buf content.Buffer, n int) {
	it, ok := buf.Attachment(n - 1)
	if !ok {
		m.notifier.Notify(notify.New(notify.Warning, "No attachment ["+strconv.Itoa(n)+"]"))
		return
	}
	modal, err := newAttachmentModal(it, m.width, m.height)
	if modal.title == "" {
		notify.Errorn(m.notifier, err.Error())
		return
	}
	if err != nil {
		m.log.Warn("attachment preview degraded", "error", err)
	}
	m.modal = modal
	m.back = m.mode
	m.mode = modePreview
}
