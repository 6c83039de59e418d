package tui

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/chatdeck/internal/chat"
	"github.com/diogo/chatdeck/internal/compose"
	"github.com/diogo/chatdeck/internal/config"
	"github.com/diogo/chatdeck/internal/ingest"
	"github.com/diogo/chatdeck/internal/models"
	"github.com/diogo/chatdeck/internal/notify"
	"github.com/diogo/chatdeck/internal/preview"
	"github.com/diogo/chatdeck/internal/render"
	"github.com/diogo/chatdeck/internal/state"
)

// Input height bounds, in lines.
const (
	minInputLines = 2
	maxInputLines = 10
)

// Deps are the collaborators of the chat view.
type Deps struct {
	Store     *state.Store
	Registry  *models.Registry
	Generator compose.Submitter
	Ingestor  *ingest.Ingestor
	Clipboard compose.Clipboard
	// HTTP fetches remote attachments when they are saved.
	HTTP        preview.HTTPDoer
	Config      config.Config
	DownloadDir string
	Log         *slog.Logger
	// Relay, when set, is attached to the toast queue so that
	// components built outside the view (the generator) can raise toasts.
	Relay *notify.Relay
}

type mode int

const (
	modeCompose mode = iota
	modeSelect
	modeEdit
	modeConfirmDelete
	modePreview
	modeConfig
	modeChats
)

// Model is the chat view.
type Model struct {
	deps Deps
	ctx  context.Context
	stop context.CancelFunc
	log  *slog.Logger

	notifier    notify.Notifier
	toastCh     *channelNotifier
	gen         *asyncSubmitter
	watch       *storeWatch
	unsubscribe func()

	sessionDeps compose.Deps
	composer    *compose.Session
	editor      *compose.Session
	actions     *compose.Actions

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	mode     mode
	selected int
	markdown bool
	back     mode // where the preview returns to
	toasts   toasts
	modal    attachmentModal
	menu     configMenu
	chats    chatSelector
	ready    bool

	// Dimensions
	width  int
	height int
}

// NewModel creates the chat view. Generations run under ctx; Close cancels
// them.
func NewModel(ctx context.Context, deps Deps) Model {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Registry == nil {
		deps.Registry = models.Fallback()
	}
	if deps.Ingestor == nil {
		deps.Ingestor = ingest.New(ingest.WithLogger(deps.Log))
	}
	ctx, stop := context.WithCancel(ctx)

	toastCh := newChannelNotifier()
	notifier := notify.Fanout{toastCh, notify.NewLogger(deps.Log)}
	if deps.Relay != nil {
		deps.Relay.Attach(toastCh)
	}
	gen := newAsyncSubmitter(ctx, deps.Generator)
	watch := newStoreWatch()

	sessionDeps := compose.Deps{
		Store:     deps.Store,
		Gate:      compose.NewGate(deps.Store, notifier, deps.Log),
		Submitter: gen,
		Notifier:  notifier,
		Ingestor:  deps.Ingestor,
	}

	ta := textarea.New()
	ta.Placeholder = "Type a message, paste a link or file path, /help for commands..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(minInputLines)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	return Model{
		deps:        deps,
		ctx:         ctx,
		stop:        stop,
		log:         deps.Log,
		notifier:    notifier,
		toastCh:     toastCh,
		gen:         gen,
		watch:       watch,
		unsubscribe: deps.Store.Subscribe(func(state.State) { watch.signal() }),
		sessionDeps: sessionDeps,
		composer:    compose.NewComposer(sessionDeps),
		actions: &compose.Actions{
			Store:     deps.Store,
			Submitter: gen,
			Clipboard: deps.Clipboard,
			Notifier:  notifier,
			Log:       deps.Log,
		},
		viewport: viewport.New(0, 0),
		textarea: ta,
		spinner:  s,
		markdown: deps.Config.MarkdownMode,
	}
}

// Close stops a running generation and detaches from the store.
func (m Model) Close() {
	m.gen.Stop()
	m.stop()
	m.unsubscribe()
}

// Init starts the bridges from the store, the notifier and the generator.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.watch.wait(),
		m.toastCh.wait(),
		m.gen.wait(),
		toastTick(),
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		if m.mode == modePreview {
			m.modal = m.modal.resize(m.width, m.height)
		}
		m.layout()
		return m, nil

	case storeChangedMsg:
		m.clampSelection()
		m.refresh()
		return m, m.watch.wait()

	case genDoneMsg:
		if msg.err != nil {
			m.log.Debug("generation ended with error", "error", msg.err)
		}
		m.refresh()
		return m, m.gen.wait()

	case toastMsg:
		m.toasts = m.toasts.add(notify.Notification(msg))
		m.layout()
		return m, m.toastCh.wait()

	case toastTickMsg:
		before := len(m.toasts)
		m.toasts = m.toasts.prune(time.Time(msg))
		if len(m.toasts) != before {
			m.layout()
		}
		return m, toastTick()

	case ingestedMsg:
		m.applyIngested(msg)
		return m, nil

	case savedMsg:
		if msg.err != nil {
			notify.Errorn(m.notifier, "Failed to save attachment: "+msg.err.Error())
		} else {
			m.notifier.Notify(notify.New(notify.Success, "Saved to "+msg.path))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// session is the buffer the input currently edits.
func (m Model) session() *compose.Session {
	if m.editor != nil {
		return m.editor
	}
	return m.composer
}

func (m Model) currentChat() (chat.Chat, bool) {
	return m.deps.Store.Snapshot().CurrentChat()
}

func (m Model) currentModel() string {
	if c, ok := m.currentChat(); ok {
		return c.Config.Model
	}
	return m.deps.Config.DefaultModel
}

func (m Model) newChat() chat.Chat {
	model := m.deps.Config.DefaultModel
	return chat.New(chat.DefaultConfig(model, m.deps.Registry.FindProvider(model)), m.deps.Config.ImageDetail)
}

func (m *Model) clampSelection() {
	c, ok := m.currentChat()
	if !ok || len(c.Messages) == 0 {
		m.selected = 0
		if m.mode == modeSelect || m.mode == modeConfirmDelete {
			m.mode = modeCompose
			m.textarea.Focus()
		}
		return
	}
	m.selected = min(max(m.selected, 0), len(c.Messages)-1)
}

func (m Model) contentWidth() int {
	return max(m.width-4, 20)
}

// layout sizes the input and the viewport to the window.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	width := m.contentWidth()
	m.textarea.SetWidth(width - 4)
	m.textarea.SetHeight(min(max(m.textarea.LineCount(), minInputLines), maxInputLines))

	headerHeight := 3
	inputHeight := m.textarea.Height() + 3
	statusHeight := 1
	chipsHeight := 0
	if chips := renderChips(m.session().Buffer()); chips != "" {
		chipsHeight = lipgloss.Height(chips)
	}
	toastHeight := 0
	if len(m.toasts) > 0 {
		toastHeight = lipgloss.Height(m.toasts.view(width))
	}

	m.viewport.Width = width - 2
	m.viewport.Height = max(m.height-headerHeight-2-inputHeight-statusHeight-chipsHeight-toastHeight, 3)
	m.refresh()
}

// refresh re-renders the messages of the current chat. The view follows
// the selection in selection mode and the tail otherwise.
func (m *Model) refresh() {
	snap := m.deps.Store.Snapshot()
	c, ok := snap.CurrentChat()
	if !ok || len(c.Messages) == 0 {
		m.viewport.SetContent("")
		return
	}
	follow := m.viewport.AtBottom() || snap.Generating

	v := readView{
		width:    m.viewport.Width,
		opts:     render.FromConfig(m.deps.Config, m.viewport.Width),
		markdown: m.markdown,
	}
	selecting := m.mode == modeSelect || m.mode == modeConfirmDelete

	var sb strings.Builder
	offsets := make([]int, len(c.Messages))
	line := 0
	for i, msg := range c.Messages {
		pending := snap.Generating && i == c.LastIndex() && msg.Role == chat.Assistant
		block := renderMessage(msg, i, selecting && i == m.selected, pending, v)
		offsets[i] = line
		sb.WriteString(block)
		sb.WriteString("\n\n")
		line += lipgloss.Height(block) + 1
	}
	m.viewport.SetContent(sb.String())

	switch {
	case selecting:
		off := offsets[min(m.selected, len(offsets)-1)]
		if off < m.viewport.YOffset || off >= m.viewport.YOffset+m.viewport.Height {
			m.viewport.SetYOffset(off)
		}
	case follow:
		m.viewport.GotoBottom()
	}
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	width := m.contentWidth()
	switch m.mode {
	case modeConfig:
		return m.menu.view(width)
	case modeChats:
		return m.chats.view(width)
	case modePreview:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.modal.view(width))
	}

	var sections []string
	sections = append(sections, m.renderHeader(width))

	var messages string
	if c, ok := m.currentChat(); !ok || len(c.Messages) == 0 {
		messages = renderWelcome(m.viewport.Width, m.viewport.Height, m.deps.Registry.DisplayName(m.currentModel()))
	} else {
		messages = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.Width(width).Height(m.viewport.Height).Render(messages))

	if len(m.toasts) > 0 {
		sections = append(sections, m.toasts.view(width))
	}
	if chips := renderChips(m.session().Buffer()); chips != "" {
		sections = append(sections, chips)
	}
	sections = append(sections, m.renderInput(width))
	sections = append(sections, m.renderStatusBar(width))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(width int) string {
	title := chat.DefaultTitle
	detail := m.deps.Config.ImageDetail
	if c, ok := m.currentChat(); ok {
		title = c.Title
		detail = c.ImageDetail
	}
	model := m.currentModel()

	parts := []string{
		titleStyle.Render("✦ " + title),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.deps.Registry.DisplayName(model)),
	}
	if m.deps.Registry.SupportsImages(model) {
		parts = append(parts, hintStyle.Render("  •  "), configValueStyle.Render("🖼 "+string(detail)))
	}
	if !m.markdown {
		parts = append(parts, hintStyle.Render("  •  plain text"))
	}
	return headerStyle.Width(width).Render(lipgloss.JoinHorizontal(lipgloss.Center, parts...))
}

func (m Model) renderInput(width int) string {
	style := inputPanelStyle
	label := "You"
	s := m.session()
	if r := s.Role(); r != chat.User {
		label = "As " + r.String()
	}
	if m.editor != nil {
		style = editPanelStyle
		label = "Editing #" + strconv.Itoa(m.editor.Message()+1) + " (" + s.Role().String() + ")"
	}
	if m.deps.Store.Generating() {
		label += "  " + m.spinner.View() + loadingStyle.Render(" generating")
	}
	return style.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left,
		inputLabelStyle.Render(label),
		m.textarea.View(),
	))
}

func (m Model) renderStatusBar(width int) string {
	var items []shortcut
	switch m.mode {
	case modeConfirmDelete:
		return errorStyle.Width(width).Align(lipgloss.Center).
			Render("Delete message #" + strconv.Itoa(m.selected+1) + "? y/n")
	case modeSelect:
		items = []shortcut{{"↑↓", "Select"}, {"u/d", "Move"}, {"e", "Edit"}, {"x", "Delete"}, {"c", "Copy"}}
		if m.actions.CanRefresh(m.selected) {
			items = append(items, shortcut{"r", "Refresh"})
		}
		items = append(items, shortcut{"1-9", "Open"}, shortcut{"m", "Markdown"}, shortcut{"Esc", "Back"})
	case modeEdit:
		items = []shortcut{{m.saveKey(), "Save"}, {"Ctrl+G", "Save & Generate"}, {"Esc", "Cancel"}}
	default:
		if m.deps.Store.Generating() {
			items = []shortcut{{"Esc", "Stop"}, {"Ctrl+C", "Quit"}}
			break
		}
		send := "Ctrl+G"
		if m.deps.Config.EnterToSubmit {
			send = "Enter"
		}
		items = []shortcut{{send, "Generate"}, {"Ctrl+S", "Save"}, {"Esc", "Messages"},
			{"Ctrl+O", "Chats"}, {"Ctrl+P", "Model"}, {"Ctrl+C", "Quit"}}
	}
	return renderShortcuts(width, items)
}

func (m Model) saveKey() string {
	if m.deps.Config.EnterToSubmit {
		return "Enter"
	}
	return "Ctrl+S"
}

// Run starts the chat view and blocks until it exits.
func Run(ctx context.Context, deps Deps) error {
	m := NewModel(ctx, deps)
	defer m.Close()

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
